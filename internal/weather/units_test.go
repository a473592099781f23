package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

func mustSpec(t *testing.T, key string) VariableSpec {
	t.Helper()
	spec, err := DefaultRegistry().Resolve(key)
	require.NoError(t, err)
	return spec
}

func TestToCanonical_TemperatureFixedPoints(t *testing.T) {
	temp := mustSpec(t, "temperature")

	tests := []struct {
		value float64
		unit  string
		want  float64
	}{
		{32, "F", 273.15},
		{212, "F", 373.15},
		{90, "°F", 305.3722222222},
		{0, "C", 273.15},
		{-40, "fahrenheit", 233.15},
		{300, "K", 300},
		{300, "", 300},
	}
	for _, tt := range tests {
		got, err := ToCanonical(tt.value, tt.unit, temp)
		require.NoError(t, err, "%v %s", tt.value, tt.unit)
		assert.InDelta(t, tt.want, got, 1e-9, "%v %s", tt.value, tt.unit)
	}

	got, err := ToCanonical(32, "F", temp)
	require.NoError(t, err)
	assert.Equal(t, 273.15, got)
}

func TestToCanonical_IdentityForCanonicalUnit(t *testing.T) {
	for _, spec := range DefaultVariables() {
		for _, v := range []float64{-12.5, 0, 0.3, 42, 1e6} {
			got, err := ToCanonical(v, spec.CanonicalUnit, spec)
			require.NoError(t, err)
			assert.Equal(t, v, got, spec.Key)
		}
	}
}

func TestToCanonical_OtherFamilies(t *testing.T) {
	wind := mustSpec(t, "windspeed")
	got, err := ToCanonical(36, "km/h", wind)
	require.NoError(t, err)
	assert.InDelta(t, 10, got, 1e-12)

	got, err = ToCanonical(10, "mph", wind)
	require.NoError(t, err)
	assert.InDelta(t, 4.4704, got, 1e-12)

	rain := mustSpec(t, "precipitation")
	got, err = ToCanonical(0.5, "in/h", rain)
	require.NoError(t, err)
	assert.InDelta(t, 12.7, got, 1e-12)
}

func TestToCanonical_Unsupported(t *testing.T) {
	tests := []struct {
		key  string
		unit string
	}{
		{"temperature", "rankine"},
		{"relative_humidity", "F"},
		{"windspeed", "F"},
		{"solar_radiation", "%"},
	}
	for _, tt := range tests {
		_, err := ToCanonical(1, tt.unit, mustSpec(t, tt.key))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedUnitConversion, "%s from %s", tt.key, tt.unit)
		assert.Equal(t, apperrors.KindUnsupportedUnitConversion, apperrors.KindOf(err))
	}
}

func TestToCanonical_TemperatureWithNonKelvinUnitIsNotConverted(t *testing.T) {
	spec := VariableSpec{Key: "temp_c", CanonicalUnit: "C", Quantity: QuantityTemperature}
	_, err := ToCanonical(50, "F", spec)
	assert.ErrorIs(t, err, ErrUnsupportedUnitConversion)
}
