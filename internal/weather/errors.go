package weather

import (
	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

var (
	ErrEmptyVariableSet          = apperrors.New(apperrors.KindEmptyVariableSet, "at least one variable is required")
	ErrInvalidLocation           = apperrors.New(apperrors.KindInvalidLocation, "location must provide a numeric latitude and longitude")
	ErrInvalidDayOfYear          = apperrors.New(apperrors.KindInvalidDayOfYear, "dayOfYear must be between 1 and 366")
	ErrUnknownVariable           = apperrors.New(apperrors.KindUnknownVariable, "unknown variable")
	ErrUnsupportedUnitConversion = apperrors.New(apperrors.KindUnsupportedUnitConversion, "unsupported unit conversion")
	ErrGenerationFailed          = apperrors.New(apperrors.KindGenerationFailed, "sample generation failed")
	ErrEmptySeries               = apperrors.New(apperrors.KindGenerationFailed, "sample series is empty")
)
