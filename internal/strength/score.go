package strength

import (
	"errors"
	"math"
)

// Formula selects a strength-score normalization.
type Formula string

const (
	Wilks Formula = "wilks"
	DOTS  Formula = "dots"
	IPFGL Formula = "ipfgl"
)

// ErrNoScore is returned when a score is undefined for the given inputs
// (non-positive total or bodyweight, or a non-positive denominator).
var ErrNoScore = errors.New("strength: score undefined for inputs")

// Wilks polynomial coefficients (degree 5), total and bodyweight in kg.
var (
	wilksMale   = [6]float64{-216.0475144, 16.2606339, -0.002388645, -0.00113732, 7.01863e-06, -1.291e-08}
	wilksFemale = [6]float64{594.31747775582, -27.23842536447, 0.82112226871, -0.00930733913, 4.731582e-05, -9.054e-08}
)

// DOTS polynomial coefficients (degree 4).
var (
	dotsMale   = [5]float64{-307.75076, 24.0900756, -0.1918759221, 0.0007391293, -0.000001093}
	dotsFemale = [5]float64{-57.96288, 13.6175032, -0.1126655495, 0.0005158568, -0.0000010706}
)

// IPF GL coefficients: score = total * 100 / (a - b*exp(-c*bodyweight)).
var (
	ipfGLMale   = [3]float64{1199.72839, 1025.18162, 0.00921}
	ipfGLFemale = [3]float64{610.32796, 1045.59282, 0.03048}
)

// Score computes the normalized strength score for a total lifted at a
// given bodyweight, both in kilograms. Returns ErrNoScore rather than a
// zero or negative score when the formula is undefined for the inputs.
func Score(formula Formula, totalKg, bodyweightKg float64, male bool) (float64, error) {
	if totalKg <= 0 || bodyweightKg <= 0 {
		return 0, ErrNoScore
	}

	var denom, score float64
	switch formula {
	case Wilks:
		c := wilksMale
		if !male {
			c = wilksFemale
		}
		denom = polyval(c[:], bodyweightKg)
		score = totalKg * 500 / denom
	case DOTS:
		c := dotsMale
		if !male {
			c = dotsFemale
		}
		denom = polyval(c[:], bodyweightKg)
		score = totalKg * 500 / denom
	case IPFGL:
		c := ipfGLMale
		if !male {
			c = ipfGLFemale
		}
		denom = c[0] - c[1]*math.Exp(-c[2]*bodyweightKg)
		score = totalKg * 100 / denom
	default:
		return 0, ErrNoScore
	}

	if denom <= 0 || score <= 0 || math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, ErrNoScore
	}
	return score, nil
}

// polyval evaluates c[0] + c[1]*x + c[2]*x^2 + ... via Horner's method.
func polyval(c []float64, x float64) float64 {
	sum := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		sum = sum*x + c[i]
	}
	return sum
}
