package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	"github.com/i474232898/weather-odds/internal/weather"
	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

// Columns is the fixed column order of the tabular export.
var Columns = []string{"location", "day_of_year", "year_offset", "variable", "value", "unit", "source"}

// EncodeCSV renders rows with a header line. A malformed row fails the whole
// encoding; rows are never dropped.
func EncodeCSV(rows []weather.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, apperrors.Wrap(apperrors.KindSerialization, "failed to serialize export", err)
	}
	for i, r := range rows {
		if err := validateRow(r); err != nil {
			return nil, apperrors.Wrap(apperrors.KindSerialization, "failed to serialize export", fmt.Errorf("row %d: %w", i, err))
		}
		record := []string{
			r.Location,
			strconv.Itoa(r.DayOfYear),
			strconv.Itoa(r.YearOffset),
			r.VariableKey,
			strconv.FormatFloat(r.Value, 'f', 4, 64),
			r.Unit,
			r.SourceLabel,
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.Wrap(apperrors.KindSerialization, "failed to serialize export", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindSerialization, "failed to serialize export", err)
	}
	return buf.Bytes(), nil
}

func validateRow(r weather.ExportRow) error {
	switch {
	case r.Location == "":
		return fmt.Errorf("missing location")
	case r.VariableKey == "":
		return fmt.Errorf("missing variable")
	case r.Unit == "":
		return fmt.Errorf("missing unit for %s", r.VariableKey)
	case r.YearOffset >= 0:
		return fmt.Errorf("year offset must be negative, got %d", r.YearOffset)
	case r.DayOfYear < 1 || r.DayOfYear > 366:
		return fmt.Errorf("day of year %d out of range", r.DayOfYear)
	case math.IsNaN(r.Value) || math.IsInf(r.Value, 0):
		return fmt.Errorf("non-finite value for %s", r.VariableKey)
	}
	return nil
}
