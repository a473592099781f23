package weather

import (
	"context"
)

// SampleProvider abstracts a historical sample source (synthetic generator,
// NASA POWER archive, ...). Implementations return exactly sampleCount values
// in the variable's canonical unit, most recent year first.
type SampleProvider interface {
	Name() string
	Generate(ctx context.Context, spec VariableSpec, at Coordinates, dayOfYear, sampleCount int) (SampleSeries, error)
}

// PlaceResolver turns a named place into coordinates.
type PlaceResolver interface {
	Resolve(ctx context.Context, place Place) (Coordinates, error)
}
