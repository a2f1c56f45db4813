package postgres

import (
	"context"
	"errors"
	"fmt"
)

const defaultVesselRegisterTable = "vessel_register_table"

// VesselRepository answers vessel activity lookups.
type VesselRepository struct {
	db    DBTX
	table string
}

// NewVesselRepository constructs a repository.
func NewVesselRepository(db DBTX) *VesselRepository {
	return &VesselRepository{db: db, table: defaultVesselRegisterTable}
}

// IsActive reports whether the vessel is registered and active.
func (r *VesselRepository) IsActive(ctx context.Context, vesselID string) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("vessel repo: nil db")
	}
	if vesselID == "" {
		return false, nil
	}

	query := fmt.Sprintf(`
SELECT EXISTS(
	SELECT 1 FROM %s WHERE vessel_id = $1 AND is_active = TRUE
)`, r.table)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, vesselID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
