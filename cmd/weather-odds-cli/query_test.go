package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-odds/internal/weather"
)

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		raw     string
		want    weather.ThresholdSpec
		wantErr bool
	}{
		{raw: "temperature=90:F", want: weather.ThresholdSpec{VariableKey: "temperature", Value: 90, Unit: "F"}},
		{raw: "windspeed=12.5", want: weather.ThresholdSpec{VariableKey: "windspeed", Value: 12.5}},
		{raw: " precipitation = 0.4 : in/hr", want: weather.ThresholdSpec{VariableKey: "precipitation", Value: 0.4, Unit: "in/hr"}},
		{raw: "temperature", wantErr: true},
		{raw: "=5", wantErr: true},
		{raw: "temperature=hot", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseThreshold(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryCommand_WritesExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "export.csv")

	cmd := newQueryCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{
		"--lat", "34.05", "--lon", "-118.24", "--day", "1",
		"--var", "temperature", "--var", "bogus_key",
		"--threshold", "temperature=90:F",
		"--out", out,
	})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "temperature")
	assert.NotContains(t, stdout.String(), "bogus_key")
	assert.Contains(t, stdout.String(), "chance of exceeding")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 11)
	assert.Equal(t, "location,day_of_year,year_offset,variable,value,unit,source", lines[0])
}

func TestQueryCommand_RejectsEmptyVariables(t *testing.T) {
	cmd := newQueryCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--lat", "1", "--lon", "1", "--day", "1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable")
}
