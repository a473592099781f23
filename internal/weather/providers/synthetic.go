package providers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/i474232898/weather-odds/internal/weather"
)

// SyntheticProvider draws samples uniformly from each variable's plausible
// range. It stands in for an archive and is not reproducible across calls.
type SyntheticProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticProvider seeds from the runtime's entropy source.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededSyntheticProvider is deterministic for a given seed.
func NewSeededSyntheticProvider(seed uint64) *SyntheticProvider {
	return &SyntheticProvider{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (p *SyntheticProvider) Name() string {
	return "synthetic"
}

func (p *SyntheticProvider) Generate(ctx context.Context, spec weather.VariableSpec, _ weather.Coordinates, _ int, sampleCount int) (weather.SampleSeries, error) {
	if err := ctx.Err(); err != nil {
		return weather.SampleSeries{}, err
	}
	if sampleCount <= 0 {
		return weather.SampleSeries{}, fmt.Errorf("sample count must be positive, got %d", sampleCount)
	}
	if spec.Synthetic.Span <= 0 {
		return weather.SampleSeries{}, fmt.Errorf("variable %s has no synthetic range", spec.Key)
	}

	values := make([]float64, sampleCount)
	p.mu.Lock()
	for i := range values {
		values[i] = spec.Synthetic.Min + p.rng.Float64()*spec.Synthetic.Span
	}
	p.mu.Unlock()

	return weather.SampleSeries{VariableKey: spec.Key, Values: values}, nil
}

var _ weather.SampleProvider = (*SyntheticProvider)(nil)
