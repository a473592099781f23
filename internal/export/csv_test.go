package export

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-odds/internal/weather"
	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

func sampleRows(variable string, n int) []weather.ExportRow {
	rows := make([]weather.ExportRow, n)
	for i := range rows {
		rows[i] = weather.ExportRow{
			Location:    `{"lat":34.05,"lon":-118.24}`,
			DayOfYear:   1,
			YearOffset:  -(i + 1),
			VariableKey: variable,
			Value:       290.12346 + float64(i),
			Unit:        "K",
			SourceLabel: "GES_DISC_Dataset_XYZ",
		}
	}
	return rows
}

func TestEncodeCSV(t *testing.T) {
	data, err := EncodeCSV(sampleRows("temperature", 2))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "location,day_of_year,year_offset,variable,value,unit,source", lines[0])
	assert.Equal(t, `"{""lat"":34.05,""lon"":-118.24}",1,-1,temperature,290.1235,K,GES_DISC_Dataset_XYZ`, lines[1])
	assert.True(t, strings.HasPrefix(lines[2], `"{""lat"":34.05,""lon"":-118.24}",1,-2,temperature,291.1235,`))
}

func TestEncodeCSV_HeaderOnlyForNoRows(t *testing.T) {
	data, err := EncodeCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Columns, ",")+"\n", string(data))
}

func TestEncodeCSV_RejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*weather.ExportRow)
	}{
		{"empty variable", func(r *weather.ExportRow) { r.VariableKey = "" }},
		{"empty unit", func(r *weather.ExportRow) { r.Unit = "" }},
		{"empty location", func(r *weather.ExportRow) { r.Location = "" }},
		{"zero year offset", func(r *weather.ExportRow) { r.YearOffset = 0 }},
		{"day out of range", func(r *weather.ExportRow) { r.DayOfYear = 400 }},
		{"nan value", func(r *weather.ExportRow) { r.Value = math.NaN() }},
		{"infinite value", func(r *weather.ExportRow) { r.Value = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := sampleRows("temperature", 3)
			tt.mutate(&rows[1])

			data, err := EncodeCSV(rows)
			require.Error(t, err)
			assert.Nil(t, data)
			assert.ErrorIs(t, err, ErrSerialization)
			assert.Equal(t, apperrors.KindSerialization, apperrors.KindOf(err))
			assert.Contains(t, err.Error(), "row 1")
		})
	}
}
