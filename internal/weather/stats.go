package weather

import (
	"fmt"
	"math"
	"strconv"
)

// Exceedance is the probability that a sample exceeds a threshold, or the
// not-applicable marker when no threshold was given. The zero value is
// not applicable.
type Exceedance struct {
	percent float64
	ok      bool
}

// NotApplicable is the exceedance of a variable queried without a threshold.
func NotApplicable() Exceedance { return Exceedance{} }

// Percent wraps a numeric exceedance percentage.
func Percent(p float64) Exceedance { return Exceedance{percent: p, ok: true} }

// Value returns the percentage and whether one applies.
func (e Exceedance) Value() (float64, bool) { return e.percent, e.ok }

// Applicable reports whether a threshold was evaluated.
func (e Exceedance) Applicable() bool { return e.ok }

// String renders "N/A" or a whole percentage such as "40%".
func (e Exceedance) String() string {
	if !e.ok {
		return "N/A"
	}
	return strconv.FormatFloat(e.percent, 'f', 0, 64) + "%"
}

// Statistics summarizes one sample series.
type Statistics struct {
	Mean       float64
	Min        float64
	Max        float64
	StdDev     float64
	Exceedance Exceedance
}

// Evaluate computes summary statistics and, when threshold is non-nil, the
// share of samples strictly greater than it. threshold must already be in
// the series' canonical unit.
func Evaluate(series []float64, threshold *float64) (Statistics, error) {
	if len(series) == 0 {
		return Statistics{}, ErrEmptySeries
	}

	var sum float64
	lo, hi := series[0], series[0]
	for _, v := range series {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	n := float64(len(series))
	mean := sum / n

	var sq float64
	for _, v := range series {
		d := v - mean
		sq += d * d
	}

	stats := Statistics{
		Mean:       mean,
		Min:        lo,
		Max:        hi,
		StdDev:     math.Sqrt(sq / n),
		Exceedance: NotApplicable(),
	}
	if threshold == nil {
		return stats, nil
	}

	exceeding := 0
	for _, v := range series {
		if v > *threshold {
			exceeding++
		}
	}
	stats.Exceedance = Percent(100 * float64(exceeding) / n)
	return stats, nil
}

// EvaluateThreshold converts t (if any) into spec's canonical unit and
// evaluates the series against it.
func EvaluateThreshold(series []float64, spec VariableSpec, t *ThresholdSpec) (Statistics, error) {
	if t == nil {
		return Evaluate(series, nil)
	}
	canonical, err := ToCanonical(t.Value, t.Unit, spec)
	if err != nil {
		return Statistics{}, fmt.Errorf("threshold for %s: %w", spec.Key, err)
	}
	return Evaluate(series, &canonical)
}
