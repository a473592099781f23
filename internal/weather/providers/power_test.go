package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-odds/internal/weather"
)

func temperatureSpec(t *testing.T) weather.VariableSpec {
	t.Helper()
	spec, err := weather.DefaultRegistry().Resolve("temperature")
	require.NoError(t, err)
	return spec
}

func newTestPowerProvider(t *testing.T, handler http.HandlerFunc) *PowerProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clock := clockwork.NewFakeClockAt(time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC))
	p := NewPowerProvider(srv.Client(), srv.URL, clock)
	p.httpCfg.Backoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	return p
}

func TestPowerProvider_Generate(t *testing.T) {
	p := newTestPowerProvider(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "T2M", q.Get("parameters"))
		assert.Equal(t, "20220101", q.Get("start"))
		assert.Equal(t, "20240101", q.Get("end"))
		assert.Equal(t, "34.050000", q.Get("latitude"))
		assert.Equal(t, "JSON", q.Get("format"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"header": {"fill_value": -999.0},
			"properties": {"parameter": {"T2M": {
				"20220101": 30, "20220102": 99,
				"20230101": 20,
				"20240101": 10
			}}}
		}`)
	})

	series, err := p.Generate(context.Background(), temperatureSpec(t), weather.Coordinates{Lat: 34.05, Lon: -118.24}, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "temperature", series.VariableKey)
	require.Len(t, series.Values, 3)
	assert.InDelta(t, 283.15, series.Values[0], 1e-9)
	assert.InDelta(t, 293.15, series.Values[1], 1e-9)
	assert.InDelta(t, 303.15, series.Values[2], 1e-9)
}

func TestPowerProvider_FillValueIsAnError(t *testing.T) {
	p := newTestPowerProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"header":{"fill_value":-999},"properties":{"parameter":{"T2M":{"20240101":10,"20230101":-999}}}}`)
	})

	_, err := p.Generate(context.Background(), temperatureSpec(t), weather.Coordinates{}, 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2023-01-01")
}

func TestPowerProvider_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestPowerProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"properties":{"parameter":{"T2M":{"20240101":1}}}}`)
	})

	series, err := p.Generate(context.Background(), temperatureSpec(t), weather.Coordinates{}, 1, 1)
	require.NoError(t, err)
	assert.Len(t, series.Values, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPowerProvider_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestPowerProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := p.Generate(context.Background(), temperatureSpec(t), weather.Coordinates{}, 1, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPowerProvider_MissingParameter(t *testing.T) {
	p := newTestPowerProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties":{"parameter":{}}}`)
	})
	_, err := p.Generate(context.Background(), temperatureSpec(t), weather.Coordinates{}, 1, 1)
	assert.Error(t, err)

	_, err = p.Generate(context.Background(), weather.VariableSpec{Key: "x", CanonicalUnit: "x"}, weather.Coordinates{}, 1, 1)
	assert.Error(t, err)
}

func TestSampleDates(t *testing.T) {
	dates := sampleDates(2025, 60, 2)
	require.Len(t, dates, 2)
	assert.Equal(t, "2024-02-29", dates[0].Format(time.DateOnly))
	assert.Equal(t, "2023-03-01", dates[1].Format(time.DateOnly))

	dates = sampleDates(2025, 366, 2)
	assert.Equal(t, "2024-12-31", dates[0].Format(time.DateOnly))
	assert.Equal(t, "2023-12-31", dates[1].Format(time.DateOnly))
}
