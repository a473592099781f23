package weather

import (
	"fmt"
	"strings"

	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

// conversion maps a value into the canonical unit of its quantity family.
type conversion func(float64) float64

// conversions are keyed by quantity, then by normalized source unit.
var conversions = map[Quantity]map[string]conversion{
	QuantityTemperature: {
		"f": func(v float64) float64 { return (v-32)*5/9 + 273.15 },
		"c": func(v float64) float64 { return v + 273.15 },
	},
	QuantitySpeed: {
		"km/h": func(v float64) float64 { return v / 3.6 },
		"mph":  func(v float64) float64 { return v * 0.44704 },
	},
	QuantityRate: {
		"in/hr": func(v float64) float64 { return v * 25.4 },
	},
}

// familyUnits is the unit the conversions above produce for each quantity.
var familyUnits = map[Quantity]string{
	QuantityTemperature: "k",
	QuantitySpeed:       "m/s",
	QuantityRate:        "mm/hr",
}

var unitAliases = map[string]string{
	"°f":         "f",
	"degf":       "f",
	"fahrenheit": "f",
	"°c":         "c",
	"degc":       "c",
	"celsius":    "c",
	"kelvin":     "k",
	"kph":        "km/h",
	"kmh":        "km/h",
	"in/h":       "in/hr",
	"mm/h":       "mm/hr",
	"w/m2":       "w/m^2",
	"percent":    "%",
}

func normalizeUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}

// ToCanonical converts value from fromUnit into spec's canonical unit. An
// empty fromUnit means the value is already canonical.
func ToCanonical(value float64, fromUnit string, spec VariableSpec) (float64, error) {
	from := normalizeUnit(fromUnit)
	canonical := normalizeUnit(spec.CanonicalUnit)
	if from == "" || from == canonical {
		return value, nil
	}
	if familyUnits[spec.Quantity] == canonical {
		if conv, ok := conversions[spec.Quantity][from]; ok {
			return conv(value), nil
		}
	}
	return 0, apperrors.Wrap(apperrors.KindUnsupportedUnitConversion, "unsupported unit conversion",
		fmt.Errorf("%s to %s for %s", fromUnit, spec.CanonicalUnit, spec.Key))
}
