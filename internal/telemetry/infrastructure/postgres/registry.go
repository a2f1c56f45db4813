package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	telemetry "vessel-ingestor/internal/telemetry/domain"
)

const defaultSignalRegisterTable = "signal_register_table"

// SignalRegistryRepository loads signal declarations.
type SignalRegistryRepository struct {
	db     DBTX
	table  string
	logger *log.Logger
}

// NewSignalRegistryRepository constructs a registry loader.
func NewSignalRegistryRepository(db DBTX, logger *log.Logger) *SignalRegistryRepository {
	if logger == nil {
		logger = log.Default()
	}
	return &SignalRegistryRepository{db: db, table: defaultSignalRegisterTable, logger: logger}
}

// LoadDefinitions reads every declared signal.
// Unrecognized signal types are treated as analog.
func (r *SignalRegistryRepository) LoadDefinitions(ctx context.Context) ([]telemetry.SignalDefinition, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("signal registry repo: nil db")
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT signal_name, signal_type
FROM %s`, r.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []telemetry.SignalDefinition
	for rows.Next() {
		var name, signalType string
		if err := rows.Scan(&name, &signalType); err != nil {
			return nil, err
		}
		kind, ok := telemetry.ParseSignalKind(signalType)
		if !ok {
			r.logger.Printf("signal registry: %s has unknown type %q, treating as analog", name, signalType)
			kind = telemetry.SignalKindAnalog
		}
		defs = append(defs, telemetry.SignalDefinition{Name: name, Kind: kind})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return defs, nil
}
