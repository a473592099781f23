package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-odds/internal/observability"
	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

// DefaultSampleCount is the number of historical years sampled per variable.
const DefaultSampleCount = 10

// Service validates queries and evaluates each requested variable against
// its historical sample series.
type Service struct {
	registry    *Registry
	provider    SampleProvider
	resolver    PlaceResolver
	sampleCount int
	workers     int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// Option customizes a Service.
type Option func(*Service)

// WithPlaceResolver enables named-place locations.
func WithPlaceResolver(r PlaceResolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithSampleCount overrides DefaultSampleCount.
func WithSampleCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sampleCount = n
		}
	}
}

// WithWorkers sets how many variables are evaluated concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService creates a new Service.
func NewService(registry *Registry, provider SampleProvider, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		registry:    registry,
		provider:    provider,
		sampleCount: DefaultSampleCount,
		workers:     1,
		logger:      logger.With("component", "weather.service"),
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry exposes the variable registry the service resolves against.
func (s *Service) Registry() *Registry { return s.registry }

// SampleCount is the number of samples per variable.
func (s *Service) SampleCount() int { return s.sampleCount }

// evaluation is the per-variable output, kept by input index until assembly.
type evaluation struct {
	result VariableResult
	rows   []ExportRow
}

// Run validates q, then samples and evaluates every registered variable in
// input order. Unknown keys are skipped. Any per-variable failure aborts the
// whole query.
func (s *Service) Run(ctx context.Context, q Query) (QueryResult, []ExportRow, error) {
	start := time.Now()
	result, rows, err := s.run(ctx, q)
	s.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		s.metrics.Queries.WithLabelValues("success").Inc()
	case apperrors.IsValidation(apperrors.KindOf(err)):
		s.metrics.Queries.WithLabelValues("rejected").Inc()
	default:
		s.metrics.Queries.WithLabelValues("failed").Inc()
	}
	return result, rows, err
}

func (s *Service) run(ctx context.Context, q Query) (QueryResult, []ExportRow, error) {
	if len(q.VariableKeys) == 0 {
		return QueryResult{}, nil, ErrEmptyVariableSet
	}
	if q.DayOfYear < 1 || q.DayOfYear > 366 {
		return QueryResult{}, nil, ErrInvalidDayOfYear
	}
	loc, err := s.resolveLocation(ctx, q.Location)
	if err != nil {
		return QueryResult{}, nil, err
	}

	specs := s.selectVariables(q.VariableKeys)
	thresholds := indexThresholds(q.Thresholds)
	label := loc.exportLabel()

	evals := make([]evaluation, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, spec := range specs {
		g.Go(func() error {
			ev, err := s.evaluate(gctx, spec, *loc.Coordinates, label, q.DayOfYear, thresholds[spec.Key])
			if err != nil {
				return err
			}
			evals[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("query aborted", "location", loc.Key(), "day_of_year", q.DayOfYear, "error", err)
		return QueryResult{}, nil, err
	}

	result := QueryResult{
		Order:   make([]string, 0, len(evals)),
		Results: make(map[string]VariableResult, len(evals)),
	}
	rows := make([]ExportRow, 0, len(evals)*s.sampleCount)
	for _, ev := range evals {
		result.Order = append(result.Order, ev.result.VariableKey)
		result.Results[ev.result.VariableKey] = ev.result
		rows = append(rows, ev.rows...)
	}
	return result, rows, nil
}

// resolveLocation checks that exactly one representation is present and
// returns a location with coordinates filled in.
func (s *Service) resolveLocation(ctx context.Context, loc Location) (Location, error) {
	switch {
	case loc.Coordinates != nil && loc.Place != nil:
		return Location{}, apperrors.Wrap(apperrors.KindInvalidLocation, "location must be either coordinates or a named place, not both", nil)
	case loc.Coordinates != nil:
		c := loc.Coordinates
		if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return Location{}, apperrors.Wrap(apperrors.KindInvalidLocation, "latitude must be within [-90,90] and longitude within [-180,180]", nil)
		}
		return loc, nil
	case loc.Place != nil && loc.Place.City != "":
		if s.resolver == nil {
			return Location{}, apperrors.Wrap(apperrors.KindInvalidLocation, "named places are not supported; provide lat and lon", nil)
		}
		coords, err := s.resolver.Resolve(ctx, *loc.Place)
		if err != nil {
			s.logger.Warn("place resolution failed", "place", loc.Key(), "error", err)
			return Location{}, apperrors.Wrap(apperrors.KindInvalidLocation, "could not resolve the named place", err)
		}
		return Location{Coordinates: &coords, Place: loc.Place}, nil
	default:
		return Location{}, ErrInvalidLocation
	}
}

// selectVariables resolves keys in input order, dropping unknown keys and
// repeats of a key already selected.
func (s *Service) selectVariables(keys []string) []VariableSpec {
	seen := make(map[string]bool, len(keys))
	specs := make([]VariableSpec, 0, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		spec, err := s.registry.Resolve(key)
		if err != nil {
			s.logger.Debug("skipping unknown variable", "variable", key)
			s.metrics.UnknownVariables.Inc()
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}

// indexThresholds keys thresholds by variable; a later entry for the same
// variable replaces an earlier one.
func indexThresholds(ts []ThresholdSpec) map[string]*ThresholdSpec {
	out := make(map[string]*ThresholdSpec, len(ts))
	for i := range ts {
		out[ts[i].VariableKey] = &ts[i]
	}
	return out
}

func (s *Service) evaluate(ctx context.Context, spec VariableSpec, at Coordinates, label string, day int, t *ThresholdSpec) (evaluation, error) {
	series, err := s.provider.Generate(ctx, spec, at, day, s.sampleCount)
	if err != nil {
		s.metrics.SampleRequests.WithLabelValues(s.provider.Name(), "error").Inc()
		return evaluation{}, apperrors.Wrap(apperrors.KindGenerationFailed, "sample generation failed",
			fmt.Errorf("%s via %s: %w", spec.Key, s.provider.Name(), err))
	}
	if len(series.Values) != s.sampleCount {
		s.metrics.SampleRequests.WithLabelValues(s.provider.Name(), "error").Inc()
		return evaluation{}, apperrors.Wrap(apperrors.KindGenerationFailed, "sample generation failed",
			fmt.Errorf("%s via %s: got %d samples, want %d", spec.Key, s.provider.Name(), len(series.Values), s.sampleCount))
	}
	s.metrics.SampleRequests.WithLabelValues(s.provider.Name(), "success").Inc()

	stats, err := EvaluateThreshold(series.Values, spec, t)
	if err != nil {
		return evaluation{}, err
	}
	s.metrics.VariablesQueried.WithLabelValues(spec.Key).Inc()

	res := VariableResult{
		VariableKey:      spec.Key,
		Mean:             stats.Mean,
		Min:              stats.Min,
		Max:              stats.Max,
		StdDev:           stats.StdDev,
		Unit:             spec.CanonicalUnit,
		Exceedance:       stats.Exceedance,
		Threshold:        t,
		Explanation:      explain(spec, day, stats, t),
		VisualSuggestion: fmt.Sprintf("A time series graph of the past %d years' %s for Day %d is recommended.", len(series.Values), spec.Key, day),
		SourceLabel:      spec.SourceLabel,
		SourceCode:       spec.SourceCode,
	}

	rows := make([]ExportRow, len(series.Values))
	for i, v := range series.Values {
		rows[i] = ExportRow{
			Location:    label,
			DayOfYear:   day,
			YearOffset:  -(i + 1),
			VariableKey: spec.Key,
			Value:       roundTo(v, 4),
			Unit:        spec.CanonicalUnit,
			SourceLabel: spec.SourceLabel,
		}
	}
	return evaluation{result: res, rows: rows}, nil
}

func explain(spec VariableSpec, day int, stats Statistics, t *ThresholdSpec) string {
	text := fmt.Sprintf("The average %s for Day %d at this location is %.2f %s.", spec.Key, day, stats.Mean, spec.CanonicalUnit)
	pct, ok := stats.Exceedance.Value()
	if !ok || t == nil {
		return text
	}
	unit := t.Unit
	if unit == "" {
		unit = spec.CanonicalUnit
	}
	return text + fmt.Sprintf(" Historical data shows a %.0f%% chance of exceeding the specified threshold (%s %s).",
		pct, strconv.FormatFloat(t.Value, 'f', -1, 64), unit)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
