package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "vessel-ingestor/internal/telemetry/domain"
)

const (
	defaultRawTable      = "main_raw"
	defaultFilteredTable = "filtered_raw"
	defaultMetricsTable  = "server_metrics"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by read-side repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SignalRepository is a Postgres implementation of telemetry.SignalStore.
type SignalRepository struct {
	db            *sql.DB
	rawTable      string
	filteredTable string
	metricsTable  string
}

// NewSignalRepository constructs a repository with default table names.
func NewSignalRepository(db *sql.DB, opts ...RepositoryOption) *SignalRepository {
	repo := &SignalRepository{
		db:            db,
		rawTable:      defaultRawTable,
		filteredTable: defaultFilteredTable,
		metricsTable:  defaultMetricsTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SignalRepository)

// WithRawTable overrides the accepted signal table.
func WithRawTable(table string) RepositoryOption {
	return func(repo *SignalRepository) {
		if table != "" {
			repo.rawTable = table
		}
	}
}

// WithFilteredTable overrides the rejected signal table.
func WithFilteredTable(table string) RepositoryOption {
	return func(repo *SignalRepository) {
		if table != "" {
			repo.filteredTable = table
		}
	}
}

// WithMetricsTable overrides the request timing table.
func WithMetricsTable(table string) RepositoryOption {
	return func(repo *SignalRepository) {
		if table != "" {
			repo.metricsTable = table
		}
	}
}

// SaveSignals writes both partitions in a single transaction.
func (r *SignalRepository) SaveSignals(ctx context.Context, batch telemetry.Batch) error {
	if r == nil || r.db == nil {
		return errors.New("signal repo: nil db")
	}
	if batch.Len() == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := r.insertAccepted(ctx, tx, batch.Accepted); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := r.insertRejected(ctx, tx, batch.Rejected); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SignalRepository) insertAccepted(ctx context.Context, tx *sql.Tx, rows []telemetry.AcceptedRow) error {
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
INSERT INTO %s (vessel_id, timestamp_utc, signal_name, signal_value)
VALUES ($1, $2, $3, $4)`, r.rawTable)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if row.VesselID == "" {
			return errors.New("signal repo: invalid accepted row")
		}
		if _, err := stmt.ExecContext(ctx, row.VesselID, row.TS, row.SignalName, row.Value); err != nil {
			return err
		}
	}
	return nil
}

func (r *SignalRepository) insertRejected(ctx context.Context, tx *sql.Tx, rows []telemetry.RejectedRow) error {
	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
INSERT INTO %s (vessel_id, timestamp_utc, signal_name, signal_value, reason)
VALUES ($1, $2, $3, $4, $5)`, r.filteredTable)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if row.VesselID == "" || row.Reason == "" {
			return errors.New("signal repo: invalid rejected row")
		}
		value := sql.NullFloat64{}
		if row.Value != nil {
			value = sql.NullFloat64{Float64: *row.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, row.VesselID, row.TS, row.SignalName, value, string(row.Reason)); err != nil {
			return err
		}
	}
	return nil
}

// SaveMetrics writes one request timing row.
func (r *SignalRepository) SaveMetrics(ctx context.Context, row telemetry.MetricsRow) error {
	if r == nil || r.db == nil {
		return errors.New("signal repo: nil db")
	}
	if row.VesselID == "" {
		return errors.New("signal repo: empty vessel id")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (vessel_id, validation_ms, ingestion_ms, total_ms)
VALUES ($1, $2, $3, $4)`, r.metricsTable)

	_, err := r.db.ExecContext(ctx, query, row.VesselID, row.ValidationMs, row.IngestionMs, row.TotalMs)
	return err
}
