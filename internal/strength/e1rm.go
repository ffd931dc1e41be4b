// Package strength computes estimated one-rep maxes, normalized strength
// scores (Wilks, DOTS, IPF GL), rating tiers, and percentile rankings
// against competitive powerlifting data.
package strength

import "errors"

// ErrInvalidReps is returned when an e1RM is requested for a rep count
// below 1. A zero-rep set means no set was performed.
var ErrInvalidReps = errors.New("strength: reps must be >= 1")

// EstimatedOneRepMax projects a maximal single from a submaximal set using
// the Epley formula: weight * (1 + reps/30). This is the single e1RM
// formula used everywhere — live logging and historical reconstruction
// must agree bit-for-bit.
func EstimatedOneRepMax(weight float64, reps int) (float64, error) {
	if reps < 1 {
		return 0, ErrInvalidReps
	}
	return weight * (1 + float64(reps)/30), nil
}
