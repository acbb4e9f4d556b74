package tokens

import (
	"fmt"
	"math"
)

// DefaultBaselineGridUnit is the 8-unit grid spacing and radius align to.
const DefaultBaselineGridUnit = 8

// strategicFlexibilityValues are the sanctioned off-grid values of the 8-unit grid
// (space025, space075, space125, space250).
var strategicFlexibilityValues = map[float64]bool{
	2:  true,
	6:  true,
	10: true,
	20: true,
}

// IsStrategicFlexibilityValue reports whether v is one of the pre-approved off-grid values.
func IsStrategicFlexibilityValue(v float64) bool {
	return strategicFlexibilityValues[v]
}

// IsGridAligned reports whether v is an integer multiple of unit.
func IsGridAligned(v, unit float64) bool {
	if unit <= 0 {
		return false
	}
	q := v / unit
	return math.Abs(q-math.Round(q)) < 1e-9
}

// NearestGridValues returns the grid values below and above v.
func NearestGridValues(v, unit float64) (lower, upper float64) {
	return math.Floor(v/unit) * unit, math.Ceil(v/unit) * unit
}

// Relationship renders "base × n" for a value relative to its family base.
func Relationship(v, base float64) string {
	if base == 0 {
		return fmt.Sprintf("%s (no family base)", FormatNumber(v))
	}
	return fmt.Sprintf("base × %s = %s", FormatNumber(v/base), FormatNumber(v))
}

// FormatNumber prints a float without trailing zeros.
func FormatNumber(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*1e6)/1e6)
}
