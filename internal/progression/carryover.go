package progression

import "github.com/gregmcinnes/topset/internal/models"

// fallbackMax seeds a lift when no other source resolves, in the stored
// unit (pounds).
const fallbackMax = 100

// CarryOverInput gathers every source a new cycle's initial training max
// can come from.
type CarryOverInput struct {
	// PriorCycle is the most recently archived cycle, or nil.
	PriorCycle *models.CompletedCycle
	// CarryOver requests seeding from the prior cycle's ending maxes.
	CarryOver bool
	// Custom holds user-entered initial maxes per lift.
	Custom map[string]float64
	// Universal holds maxes that persist across cycles independent of
	// program.
	Universal map[string]float64
	// ProgramDefault holds the program's built-in initial maxes.
	ProgramDefault map[string]float64
}

// InitialMax resolves a lift's starting training max for a new cycle by a
// strict fallback chain, first positive value wins:
//
//  1. prior cycle's ending max (when carry-over is requested)
//  2. user-entered custom max
//  3. stored universal max
//  4. program default
//  5. the hard-coded fallback constant
//
// Total and deterministic: always returns a positive number.
func InitialMax(lift string, in CarryOverInput) float64 {
	if in.CarryOver && in.PriorCycle != nil {
		if v, ok := in.PriorCycle.EndingMaxes[lift]; ok && v > 0 {
			return v
		}
	}
	if v, ok := in.Custom[lift]; ok && v > 0 {
		return v
	}
	if v, ok := in.Universal[lift]; ok && v > 0 {
		return v
	}
	if v, ok := in.ProgramDefault[lift]; ok && v > 0 {
		return v
	}
	return fallbackMax
}
