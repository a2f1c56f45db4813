package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	telemetry "vessel-ingestor/internal/telemetry/domain"
)

const fixtureYAML = `
vessels:
  - id: "1001"
    name: Northern Star
  - id: "1002"
    active: false
signals:
  - name: Signal_1
    type: digital
  - name: Signal_70
    type: analog
`

func TestRegistryFileLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	source, err := NewRegistryFile(path)
	if err != nil {
		t.Fatalf("new registry file: %v", err)
	}
	registry, err := telemetry.LoadRegistry(context.Background(), source)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	if registry.Len() != 2 {
		t.Fatalf("expected 2 signals, got %d", registry.Len())
	}
	if def, ok := registry.Lookup("Signal_1"); !ok || def.Kind != telemetry.SignalKindDigital {
		t.Fatalf("unexpected Signal_1 %+v", def)
	}
}

func TestParseFixtureVessels(t *testing.T) {
	fixture, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if len(fixture.Vessels) != 2 {
		t.Fatalf("expected 2 vessels, got %d", len(fixture.Vessels))
	}
	if !fixture.Vessels[0].IsActive() || fixture.Vessels[1].IsActive() {
		t.Fatalf("unexpected active flags %+v", fixture.Vessels)
	}
}

func TestFixtureRejectsUnknownType(t *testing.T) {
	fixture, err := ParseFixture([]byte("signals:\n  - name: x\n    type: counter\n"))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if _, err := fixture.Definitions(); !errors.Is(err, telemetry.ErrInvalidSignalKind) {
		t.Fatalf("expected ErrInvalidSignalKind, got %v", err)
	}
}
