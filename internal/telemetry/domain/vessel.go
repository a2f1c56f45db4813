package telemetry

import "context"

// VesselChecker reports whether a vessel is registered and active.
type VesselChecker interface {
	IsActive(ctx context.Context, vesselID string) (bool, error)
}

// VesselCheckerFunc adapts a function to VesselChecker.
type VesselCheckerFunc func(ctx context.Context, vesselID string) (bool, error)

// IsActive calls f.
func (f VesselCheckerFunc) IsActive(ctx context.Context, vesselID string) (bool, error) {
	return f(ctx, vesselID)
}

// Admit decides whether a vessel may submit telemetry.
// An empty id is denied without consulting the checker.
func Admit(ctx context.Context, vesselID string, checker VesselChecker) (bool, error) {
	if vesselID == "" || checker == nil {
		return false, nil
	}
	return checker.IsActive(ctx, vesselID)
}
