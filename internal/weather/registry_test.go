package weather

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{
		"temperature", "precipitation", "windspeed",
		"solar_radiation", "relative_humidity", "solar_insolation",
	}, r.Keys())

	temp, err := r.Resolve("temperature")
	require.NoError(t, err)
	assert.Equal(t, "K", temp.CanonicalUnit)
	assert.Equal(t, QuantityTemperature, temp.Quantity)

	_, err = r.Resolve("bogus_key")
	assert.ErrorIs(t, err, ErrUnknownVariable)
	assert.Equal(t, apperrors.KindUnknownVariable, apperrors.KindOf(err))
}

func TestNewRegistry_Rejects(t *testing.T) {
	_, err := NewRegistry([]VariableSpec{{Key: "a", CanonicalUnit: "x"}, {Key: "a", CanonicalUnit: "y"}})
	assert.Error(t, err)

	_, err = NewRegistry([]VariableSpec{{Key: "a"}})
	assert.Error(t, err)

	_, err = NewRegistry([]VariableSpec{{CanonicalUnit: "x"}})
	assert.Error(t, err)
}

func TestLoadRegistry_OverridesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variables:
  - key: snow_depth
    unit: cm
    source: "MERRA-2"
    code: SNODP
    synthetic: {min: 0, span: 40}
  - key: windspeed
    unit: m/s
    quantity: speed
    source: "MERRA-2 10m"
    code: WS10M_MAX
    synthetic: {min: 1, span: 20}
`), 0o644))

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	keys := r.Keys()
	assert.Len(t, keys, 7)
	assert.Equal(t, "snow_depth", keys[6])
	assert.Equal(t, "windspeed", keys[2])

	wind, err := r.Resolve("windspeed")
	require.NoError(t, err)
	assert.Equal(t, "WS10M_MAX", wind.SourceCode)
	assert.Equal(t, 20.0, wind.Synthetic.Span)
}

func TestLoadRegistry_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRegistry(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("variables:\n  - {key: a, unit: x}\n  - {key: a, unit: y}\n"), 0o644))
	_, err = LoadRegistry(dup)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("variables: [::"), 0o644))
	_, err = LoadRegistry(bad)
	assert.Error(t, err)
}
