package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-odds/internal/weather"
)

const (
	powerDateLayout = "20060102"
	powerFillValue  = -999.0
)

// PowerProvider implements weather.SampleProvider against the NASA POWER
// daily point API.
type PowerProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	clock   clockwork.Clock
}

// NewPowerProvider builds a provider. An empty baseURL selects the public endpoint.
func NewPowerProvider(client *http.Client, baseURL string, clock clockwork.Clock) *PowerProvider {
	if baseURL == "" {
		baseURL = "https://power.larc.nasa.gov/api/temporal/daily/point"
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PowerProvider{
		name:    "nasa-power",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("nasa-power"),
		clock:   clock,
	}
}

func (p *PowerProvider) Name() string {
	return p.name
}

// Generate fetches one daily value per past year for the calendar day
// matching dayOfYear, starting with last year.
func (p *PowerProvider) Generate(ctx context.Context, spec weather.VariableSpec, at weather.Coordinates, dayOfYear, sampleCount int) (weather.SampleSeries, error) {
	if spec.Archive.Parameter == "" {
		return weather.SampleSeries{}, fmt.Errorf("variable %s has no archive parameter", spec.Key)
	}
	if sampleCount <= 0 {
		return weather.SampleSeries{}, fmt.Errorf("sample count must be positive, got %d", sampleCount)
	}

	dates := sampleDates(p.clock.Now().UTC().Year(), dayOfYear, sampleCount)
	oldest, newest := dates[len(dates)-1], dates[0]

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("parameters", spec.Archive.Parameter)
		values.Set("community", "RE")
		values.Set("latitude", fmt.Sprintf("%f", at.Lat))
		values.Set("longitude", fmt.Sprintf("%f", at.Lon))
		values.Set("start", oldest.Format(powerDateLayout))
		values.Set("end", newest.Format(powerDateLayout))
		values.Set("format", "JSON")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.SampleSeries{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Header struct {
			FillValue *float64 `json:"fill_value"`
		} `json:"header"`
		Properties struct {
			Parameter map[string]map[string]float64 `json:"parameter"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.SampleSeries{}, fmt.Errorf("decode power response: %w", err)
	}

	fill := powerFillValue
	if payload.Header.FillValue != nil {
		fill = *payload.Header.FillValue
	}
	daily, ok := payload.Properties.Parameter[spec.Archive.Parameter]
	if !ok {
		return weather.SampleSeries{}, fmt.Errorf("power response lacks parameter %s", spec.Archive.Parameter)
	}

	values := make([]float64, 0, len(dates))
	for _, d := range dates {
		raw, ok := daily[d.Format(powerDateLayout)]
		if !ok || raw == fill {
			return weather.SampleSeries{}, fmt.Errorf("power archive has no %s value for %s", spec.Archive.Parameter, d.Format(time.DateOnly))
		}
		scale := spec.Archive.Scale
		if scale == 0 {
			scale = 1
		}
		values = append(values, raw*scale+spec.Archive.Offset)
	}

	return weather.SampleSeries{VariableKey: spec.Key, Values: values}, nil
}

// sampleDates returns the calendar date of dayOfYear in each of the count
// years before currentYear, most recent first. Day 366 of a common year
// clamps to December 31.
func sampleDates(currentYear, dayOfYear, count int) []time.Time {
	out := make([]time.Time, 0, count)
	for i := 1; i <= count; i++ {
		year := currentYear - i
		d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, dayOfYear-1)
		if d.Year() != year {
			d = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		}
		out = append(out, d)
	}
	return out
}

var _ weather.SampleProvider = (*PowerProvider)(nil)
