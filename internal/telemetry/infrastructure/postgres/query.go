package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	telemetry "vessel-ingestor/internal/telemetry/domain"
)

const defaultRejectionLimit = 1000

// RejectionQuery reads filtered signals for reporting.
type RejectionQuery struct {
	db    DBTX
	table string
}

// QueryOption configures the query.
type QueryOption func(*RejectionQuery)

// WithQueryTable overrides the filtered table name.
func WithQueryTable(table string) QueryOption {
	return func(q *RejectionQuery) {
		if table != "" {
			q.table = table
		}
	}
}

// NewRejectionQuery constructs a query with default table name.
func NewRejectionQuery(db DBTX, opts ...QueryOption) *RejectionQuery {
	query := &RejectionQuery{db: db, table: defaultFilteredTable}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// ListRejections returns rejected signals within [from, to), newest first.
func (q *RejectionQuery) ListRejections(ctx context.Context, vesselID string, from, to time.Time, limit int) ([]telemetry.RejectionRecord, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("rejection query: nil db")
	}
	if vesselID == "" || from.IsZero() || to.IsZero() {
		return nil, errors.New("rejection query: invalid arguments")
	}
	if limit <= 0 {
		limit = defaultRejectionLimit
	}

	query := fmt.Sprintf(`
SELECT vessel_id, timestamp_utc, signal_name, signal_value, reason, created_at
FROM %s
WHERE vessel_id = $1
	AND timestamp_utc >= $2
	AND timestamp_utc < $3
ORDER BY timestamp_utc DESC, signal_name ASC
LIMIT $4`, q.table)

	rows, err := q.db.QueryContext(ctx, query, vesselID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []telemetry.RejectionRecord
	for rows.Next() {
		var record telemetry.RejectionRecord
		var value sql.NullFloat64
		var reason string
		if err := rows.Scan(&record.VesselID, &record.TS, &record.SignalName, &value, &reason, &record.CreatedAt); err != nil {
			return nil, err
		}
		if value.Valid {
			v := value.Float64
			record.Value = &v
		}
		record.Reason = telemetry.Reason(reason)
		record.TS = record.TS.UTC()
		record.CreatedAt = record.CreatedAt.UTC()
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
