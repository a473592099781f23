package weather

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

// Registry is the immutable mapping from variable key to its spec.
type Registry struct {
	specs map[string]VariableSpec
	order []string
}

// DefaultVariables returns the built-in variable set.
func DefaultVariables() []VariableSpec {
	return []VariableSpec{
		{
			Key:           "temperature",
			CanonicalUnit: "K",
			SourceLabel:   "GES_DISC_Dataset_XYZ",
			SourceCode:    "AirTemp_Mean",
			Quantity:      QuantityTemperature,
			Synthetic:     Range{Min: 273.15, Span: 50},
			Archive:       ArchiveBinding{Parameter: "T2M", Scale: 1, Offset: 273.15},
		},
		{
			Key:           "precipitation",
			CanonicalUnit: "mm/hr",
			SourceLabel:   "Giovanni_TRMM_Dataset",
			SourceCode:    "Rainfall_Rate",
			Quantity:      QuantityRate,
			Synthetic:     Range{Min: 0.5, Span: 10},
			// POWER reports mm/day.
			Archive: ArchiveBinding{Parameter: "PRECTOTCORR", Scale: 1.0 / 24},
		},
		{
			Key:           "windspeed",
			CanonicalUnit: "m/s",
			SourceLabel:   "Worldview_Dataset_ABC",
			SourceCode:    "WS10M",
			Quantity:      QuantitySpeed,
			Synthetic:     Range{Min: 0.5, Span: 10},
			Archive:       ArchiveBinding{Parameter: "WS10M", Scale: 1},
		},
		{
			Key:           "solar_radiation",
			CanonicalUnit: "unitless",
			SourceLabel:   "CERES_SYN_Dataset",
			SourceCode:    "ALLSKY_KT",
			Quantity:      QuantityRatio,
			Synthetic:     Range{Min: 0.3, Span: 0.5},
			Archive:       ArchiveBinding{Parameter: "ALLSKY_KT", Scale: 1},
		},
		{
			Key:           "relative_humidity",
			CanonicalUnit: "%",
			SourceLabel:   "MODIS_Atmosphere_Data",
			SourceCode:    "RH2M",
			Quantity:      QuantityPercent,
			Synthetic:     Range{Min: 20, Span: 60},
			Archive:       ArchiveBinding{Parameter: "RH2M", Scale: 1},
		},
		{
			Key:           "solar_insolation",
			CanonicalUnit: "W/m^2",
			SourceLabel:   "CERES_SYN_Dataset",
			SourceCode:    "ALLSKY_SFC_SW_DWN",
			Quantity:      QuantityIrradiance,
			Synthetic:     Range{Min: 200, Span: 500},
			// kWh/m^2/day to mean W/m^2.
			Archive: ArchiveBinding{Parameter: "ALLSKY_SFC_SW_DWN", Scale: 1000.0 / 24},
		},
	}
}

// NewRegistry builds a registry. Keys must be unique and carry a unit.
func NewRegistry(specs []VariableSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]VariableSpec, len(specs))}
	for _, s := range specs {
		if s.Key == "" {
			return nil, errors.New("variable key must not be empty")
		}
		if s.CanonicalUnit == "" {
			return nil, fmt.Errorf("variable %q has no unit", s.Key)
		}
		if _, dup := r.specs[s.Key]; dup {
			return nil, fmt.Errorf("variable %q registered twice", s.Key)
		}
		r.specs[s.Key] = s
		r.order = append(r.order, s.Key)
	}
	return r, nil
}

// DefaultRegistry returns the registry of built-in variables.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultVariables())
	if err != nil {
		panic(err)
	}
	return r
}

type registryFile struct {
	Variables []VariableSpec `yaml:"variables"`
}

// LoadRegistry reads a YAML override file. Entries replace built-ins with the
// same key; new keys are appended in file order.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry file: %w", err)
	}

	seen := make(map[string]bool, len(file.Variables))
	overrides := make(map[string]VariableSpec, len(file.Variables))
	for _, v := range file.Variables {
		if seen[v.Key] {
			return nil, fmt.Errorf("registry file: variable %q listed twice", v.Key)
		}
		seen[v.Key] = true
		overrides[v.Key] = v
	}

	specs := DefaultVariables()
	for i, s := range specs {
		if o, ok := overrides[s.Key]; ok {
			specs[i] = o
			delete(overrides, s.Key)
		}
	}
	for _, v := range file.Variables {
		if o, ok := overrides[v.Key]; ok {
			specs = append(specs, o)
		}
	}
	return NewRegistry(specs)
}

// Resolve looks up a variable by key.
func (r *Registry) Resolve(key string) (VariableSpec, error) {
	s, ok := r.specs[key]
	if !ok {
		return VariableSpec{}, apperrors.Wrap(apperrors.KindUnknownVariable, "unknown variable", fmt.Errorf("key %q", key))
	}
	return s, nil
}

// Keys lists registered keys in registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Specs lists registered variables in registration order.
func (r *Registry) Specs() []VariableSpec {
	out := make([]VariableSpec, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.specs[k])
	}
	return out
}
