package telemetry

import (
	"context"
	"fmt"
	"strings"
)

// SignalKind is the declared type of a telemetry signal.
type SignalKind string

const (
	SignalKindDigital SignalKind = "digital"
	SignalKindAnalog  SignalKind = "analog"
)

// ParseSignalKind normalizes a declared signal type.
func ParseSignalKind(value string) (SignalKind, bool) {
	switch SignalKind(strings.ToLower(strings.TrimSpace(value))) {
	case SignalKindDigital:
		return SignalKindDigital, true
	case SignalKindAnalog:
		return SignalKindAnalog, true
	default:
		return "", false
	}
}

// SignalDefinition declares a known signal and its kind.
type SignalDefinition struct {
	Name string
	Kind SignalKind
}

// Validate checks definition invariants.
func (d SignalDefinition) Validate() error {
	if d.Name == "" {
		return ErrEmptySignalName
	}
	if d.Kind != SignalKindDigital && d.Kind != SignalKindAnalog {
		return fmt.Errorf("%w: %q for %s", ErrInvalidSignalKind, d.Kind, d.Name)
	}
	return nil
}

// Registry is the read-only lookup of declared signals.
// It has no mutators; build a new one to change its contents.
type Registry struct {
	signals map[string]SignalDefinition
}

// NewRegistry builds a registry from declarations.
func NewRegistry(defs []SignalDefinition) (*Registry, error) {
	signals := make(map[string]SignalDefinition, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if existing, ok := signals[def.Name]; ok && existing.Kind != def.Kind {
			return nil, fmt.Errorf("%w: %s declared as %s and %s", ErrConflictingSignal, def.Name, existing.Kind, def.Kind)
		}
		signals[def.Name] = def
	}
	return &Registry{signals: signals}, nil
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (SignalDefinition, bool) {
	if r == nil {
		return SignalDefinition{}, false
	}
	def, ok := r.signals[name]
	return def, ok
}

// Len returns the number of declared signals.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.signals)
}

// Classify looks up name and classifies raw against its definition.
func (r *Registry) Classify(name string, raw RawValue) Outcome {
	def, ok := r.Lookup(name)
	return Classify(def, ok, raw)
}

// DefinitionSource loads signal declarations from a backing store.
type DefinitionSource interface {
	LoadDefinitions(ctx context.Context) ([]SignalDefinition, error)
}

// LoadRegistry reads all declarations from source and builds a registry.
func LoadRegistry(ctx context.Context, source DefinitionSource) (*Registry, error) {
	if source == nil {
		return nil, ErrNilDefinitionSource
	}
	defs, err := source.LoadDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("telemetry: load signal definitions: %w", err)
	}
	return NewRegistry(defs)
}
