package weather

import (
	"encoding/json"
	"fmt"
)

// Quantity groups variables that share a family of unit conversions.
type Quantity string

const (
	QuantityTemperature Quantity = "temperature"
	QuantityRate        Quantity = "rate"
	QuantitySpeed       Quantity = "speed"
	QuantityRatio       Quantity = "ratio"
	QuantityPercent     Quantity = "percent"
	QuantityIrradiance  Quantity = "irradiance"
)

// Range is a plausible value band for a variable in its canonical unit.
type Range struct {
	Min  float64 `yaml:"min" json:"min"`
	Span float64 `yaml:"span" json:"span"`
}

// ArchiveBinding maps a variable onto an external archive parameter.
// canonical = raw*Scale + Offset.
type ArchiveBinding struct {
	Parameter string  `yaml:"parameter" json:"parameter"`
	Scale     float64 `yaml:"scale" json:"scale"`
	Offset    float64 `yaml:"offset" json:"offset"`
}

// VariableSpec describes one queryable environmental quantity.
type VariableSpec struct {
	Key           string         `yaml:"key" json:"key"`
	CanonicalUnit string         `yaml:"unit" json:"unit"`
	SourceLabel   string         `yaml:"source" json:"source"`
	SourceCode    string         `yaml:"code" json:"variableName"`
	Quantity      Quantity       `yaml:"quantity" json:"quantity"`
	Synthetic     Range          `yaml:"synthetic" json:"-"`
	Archive       ArchiveBinding `yaml:"archive" json:"-"`
}

// Coordinates is a numeric point on the globe.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is a named-place descriptor resolved to coordinates before sampling.
type Place struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

// Location holds exactly one of Coordinates or Place.
type Location struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Place       *Place       `json:"place,omitempty"`
}

// At is a shorthand for a coordinate location.
func At(lat, lon float64) Location {
	return Location{Coordinates: &Coordinates{Lat: lat, Lon: lon}}
}

// Key returns a canonical string for logs.
func (l Location) Key() string {
	switch {
	case l.Coordinates != nil:
		return fmt.Sprintf("%.4f,%.4f", l.Coordinates.Lat, l.Coordinates.Lon)
	case l.Place != nil:
		return l.Place.City + ":" + l.Place.Country
	default:
		return "<none>"
	}
}

// exportLabel renders the location for the tabular export.
func (l Location) exportLabel() string {
	var payload any
	switch {
	case l.Coordinates != nil && l.Place != nil:
		payload = struct {
			Lat     float64 `json:"lat"`
			Lon     float64 `json:"lon"`
			City    string  `json:"city"`
			Country string  `json:"country,omitempty"`
		}{l.Coordinates.Lat, l.Coordinates.Lon, l.Place.City, l.Place.Country}
	case l.Coordinates != nil:
		payload = l.Coordinates
	default:
		payload = l.Place
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return l.Key()
	}
	return string(b)
}

// ThresholdSpec is a caller-supplied exceedance threshold for one variable.
// An empty Unit means the variable's canonical unit.
type ThresholdSpec struct {
	VariableKey string
	Value       float64
	Unit        string
}

// Query is a single historical-likelihood request.
type Query struct {
	Location     Location
	DayOfYear    int
	VariableKeys []string
	Thresholds   []ThresholdSpec
	// Requester namespaces the export artifact; empty means anonymous.
	Requester string
}

// SampleSeries is one value per historical year, most recent year first.
type SampleSeries struct {
	VariableKey string
	Values      []float64
}

// VariableResult is the evaluated outcome for one queried variable.
type VariableResult struct {
	VariableKey      string
	Mean             float64
	Min              float64
	Max              float64
	StdDev           float64
	Unit             string
	Exceedance       Exceedance
	Threshold        *ThresholdSpec
	Explanation      string
	VisualSuggestion string
	SourceLabel      string
	SourceCode       string
}

// QueryResult keeps per-variable results keyed by variable and the order in
// which they were evaluated.
type QueryResult struct {
	Order   []string
	Results map[string]VariableResult
}

// Len returns the number of evaluated variables.
func (r QueryResult) Len() int { return len(r.Order) }

// ExportRow is one (variable, sample) pair flattened for tabular export.
type ExportRow struct {
	Location    string
	DayOfYear   int
	YearOffset  int
	VariableKey string
	Value       float64
	Unit        string
	SourceLabel string
}
