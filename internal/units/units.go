// Package units handles weight unit conversion and plate rounding.
// All weights are stored in pounds; kilograms exist only for display.
package units

import "math"

// KilogramsPerPound is the conversion factor from the stored unit
// (pounds) to the metric display unit.
const KilogramsPerPound = 0.453592

// Convert returns the display value for a stored weight. When toMetric is
// true the weight is converted from pounds to kilograms; otherwise it is
// returned unchanged. The conversion is display-only and round-trips
// within floating-point tolerance.
func Convert(weight float64, toMetric bool) float64 {
	if toMetric {
		return weight * KilogramsPerPound
	}
	return weight
}

// FromDisplay inverts Convert: it maps a display value back to the stored
// unit (pounds).
func FromDisplay(weight float64, fromMetric bool) float64 {
	if fromMetric {
		return weight / KilogramsPerPound
	}
	return weight
}

// Round rounds weight to the nearest multiple of increment, with ties
// rounded half away from zero. An increment <= 0 returns the weight
// unchanged. The result is clamped to >= 0.
func Round(weight, increment float64) float64 {
	if increment <= 0 {
		return math.Max(0, weight)
	}
	rounded := math.Round(weight/increment) * increment
	return math.Max(0, rounded)
}
