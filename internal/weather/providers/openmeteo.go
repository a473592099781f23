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

// openMeteoField binds a variable to an Open-Meteo daily aggregate. Raw
// values are multiplied by scale and then converted from unit.
type openMeteoField struct {
	daily string
	unit  string
	scale float64
}

var openMeteoFields = map[string]openMeteoField{
	"temperature":       {daily: "temperature_2m_mean", unit: "C", scale: 1},
	"precipitation":     {daily: "precipitation_sum", unit: "mm/hr", scale: 1.0 / 24},
	"windspeed":         {daily: "wind_speed_10m_mean", unit: "km/h", scale: 1},
	"relative_humidity": {daily: "relative_humidity_2m_mean", unit: "%", scale: 1},
	// MJ/m^2/day to mean W/m^2.
	"solar_insolation": {daily: "shortwave_radiation_sum", unit: "W/m^2", scale: 1e6 / 86400},
}

// OpenMeteoProvider implements weather.SampleProvider against the Open-Meteo
// historical weather archive.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	clock   clockwork.Clock
}

// NewOpenMeteoProvider builds a provider. An empty baseURL selects the public archive.
func NewOpenMeteoProvider(client *http.Client, baseURL string, clock clockwork.Clock) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://archive-api.open-meteo.com/v1/archive"
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
		clock:   clock,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Generate requests the daily series spanning all sampled years in one call
// and picks the matching calendar day from each year.
func (p *OpenMeteoProvider) Generate(ctx context.Context, spec weather.VariableSpec, at weather.Coordinates, dayOfYear, sampleCount int) (weather.SampleSeries, error) {
	field, ok := openMeteoFields[spec.Key]
	if !ok {
		return weather.SampleSeries{}, fmt.Errorf("openmeteo has no daily series for %s", spec.Key)
	}
	if sampleCount <= 0 {
		return weather.SampleSeries{}, fmt.Errorf("sample count must be positive, got %d", sampleCount)
	}

	dates := sampleDates(p.clock.Now().UTC().Year(), dayOfYear, sampleCount)
	oldest, newest := dates[len(dates)-1], dates[0]

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", at.Lat))
		values.Set("longitude", fmt.Sprintf("%f", at.Lon))
		values.Set("start_date", oldest.Format(time.DateOnly))
		values.Set("end_date", newest.Format(time.DateOnly))
		values.Set("daily", field.daily)
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.SampleSeries{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily map[string]json.RawMessage `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.SampleSeries{}, fmt.Errorf("decode openmeteo response: %w", err)
	}

	var (
		days     []string
		readings []*float64
	)
	if err := json.Unmarshal(payload.Daily["time"], &days); err != nil {
		return weather.SampleSeries{}, fmt.Errorf("openmeteo response lacks daily time axis: %w", err)
	}
	if err := json.Unmarshal(payload.Daily[field.daily], &readings); err != nil {
		return weather.SampleSeries{}, fmt.Errorf("openmeteo response lacks %s: %w", field.daily, err)
	}
	if len(readings) != len(days) {
		return weather.SampleSeries{}, fmt.Errorf("openmeteo returned %d %s values for %d days", len(readings), field.daily, len(days))
	}

	index := make(map[string]int, len(days))
	for i, d := range days {
		index[d] = i
	}

	values := make([]float64, 0, len(dates))
	for _, d := range dates {
		i, ok := index[d.Format(time.DateOnly)]
		if !ok || readings[i] == nil {
			return weather.SampleSeries{}, fmt.Errorf("openmeteo archive has no %s value for %s", field.daily, d.Format(time.DateOnly))
		}
		v, err := weather.ToCanonical(*readings[i]*field.scale, field.unit, spec)
		if err != nil {
			return weather.SampleSeries{}, err
		}
		values = append(values, v)
	}

	return weather.SampleSeries{VariableKey: spec.Key, Values: values}, nil
}

var _ weather.SampleProvider = (*OpenMeteoProvider)(nil)
