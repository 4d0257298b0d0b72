// Package units converts lengths and areas between the metric base units
// the store records and the display units a caller asks for.
package units

import (
	"fmt"

	"github.com/riverscapes/qris/pkg/types"
)

// Unit is one entry in the registry. Factor is meters (or square meters)
// per unit.
type Unit struct {
	DisplayName string
	ShortCode   string
	Factor      float64
}

// Exact definitions: international foot/yard/mile and US survey foot.
const (
	metersPerInch       = 0.0254
	metersPerFoot       = metersPerInch * 12
	metersPerYard       = metersPerFoot * 3
	metersPerMile       = metersPerYard * 1760
	metersPerSurveyFoot = 1200.0 / 3937.0
)

// Lengths is the closed set of supported length units.
var Lengths = map[string]Unit{
	"inch":        {"Inch", "in", metersPerInch},
	"meter":       {"Meter", "m", 1.0},
	"foot":        {"Foot", "ft", metersPerFoot},
	"yard":        {"Yard", "yd", metersPerYard},
	"mile":        {"Mile", "mi", metersPerMile},
	"survey_foot": {"Survey Foot", "usft", metersPerSurveyFoot},
}

// Areas is the closed set of supported area units.
var Areas = map[string]Unit{
	"square_meter": {"Square Meter", "sqm", 1.0},
	"square_foot":  {"Square Foot", "sqft", metersPerFoot * metersPerFoot},
	"square_yard":  {"Square Yard", "sqyd", metersPerYard * metersPerYard},
	"hectare":      {"Hectare", "ha", 10000.0},
	"acre":         {"Acre", "ac", 4046.8564224},
}

// Length converts a value in meters to the named length unit.
func Length(valueMeters float64, unit string) (float64, error) {
	u, ok := Lengths[unit]
	if !ok {
		return 0, fmt.Errorf("length unit %q: %w", unit, types.ErrUnknownUnit)
	}
	return valueMeters / u.Factor, nil
}

// Area converts a value in square meters to the named area unit.
func Area(valueSquareMeters float64, unit string) (float64, error) {
	u, ok := Areas[unit]
	if !ok {
		return 0, fmt.Errorf("area unit %q: %w", unit, types.ErrUnknownUnit)
	}
	return valueSquareMeters / u.Factor, nil
}

// LengthNames maps display names to registry keys, for populating pickers.
func LengthNames() map[string]string {
	return names(Lengths)
}

// AreaNames maps display names to registry keys.
func AreaNames() map[string]string {
	return names(Areas)
}

func names(set map[string]Unit) map[string]string {
	out := make(map[string]string, len(set))
	for key, u := range set {
		out[u.DisplayName] = key
	}
	return out
}
