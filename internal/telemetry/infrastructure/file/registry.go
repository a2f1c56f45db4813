package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	telemetry "vessel-ingestor/internal/telemetry/domain"
)

// Fixture is the YAML layout for vessel and signal declarations.
type Fixture struct {
	Vessels []VesselEntry `yaml:"vessels"`
	Signals []SignalEntry `yaml:"signals"`
}

// VesselEntry declares a vessel.
type VesselEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"`
}

// IsActive defaults to true when the flag is omitted.
func (v VesselEntry) IsActive() bool {
	return v.Active == nil || *v.Active
}

// SignalEntry declares a signal.
type SignalEntry struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(data []byte) (Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return Fixture{}, fmt.Errorf("registry file: %w", err)
	}
	return fixture, nil
}

// Definitions converts signal entries, rejecting unknown types.
func (f Fixture) Definitions() ([]telemetry.SignalDefinition, error) {
	defs := make([]telemetry.SignalDefinition, 0, len(f.Signals))
	for _, entry := range f.Signals {
		kind, ok := telemetry.ParseSignalKind(entry.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %q for %s", telemetry.ErrInvalidSignalKind, entry.Type, entry.Name)
		}
		defs = append(defs, telemetry.SignalDefinition{Name: entry.Name, Kind: kind})
	}
	return defs, nil
}

// RegistryFile loads signal declarations from a YAML file.
type RegistryFile struct {
	path string
}

// NewRegistryFile constructs a file-backed definition source.
func NewRegistryFile(path string) (*RegistryFile, error) {
	if path == "" {
		return nil, errors.New("registry file: empty path")
	}
	return &RegistryFile{path: path}, nil
}

// LoadDefinitions reads and parses the file.
func (r *RegistryFile) LoadDefinitions(ctx context.Context) ([]telemetry.SignalDefinition, error) {
	_ = ctx
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	fixture, err := ParseFixture(data)
	if err != nil {
		return nil, err
	}
	return fixture.Definitions()
}
