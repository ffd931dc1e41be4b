package strength

// Rating is a coarse tier derived from a strength score.
type Rating string

const (
	Beginner     Rating = "Beginner"
	Novice       Rating = "Novice"
	Intermediate Rating = "Intermediate"
	Advanced     Rating = "Advanced"
	Elite        Rating = "Elite"
)

// Tier thresholds are a monotonic step function: a score earns the highest
// tier whose threshold it meets. Wilks and DOTS share one table; IPF GL
// points run on a smaller scale and use their own.
type tierThreshold struct {
	min    float64
	rating Rating
}

var wilksDotsTiers = []tierThreshold{
	{500, Elite},
	{400, Advanced},
	{300, Intermediate},
	{200, Novice},
	{0, Beginner},
}

var ipfGLTiers = []tierThreshold{
	{85, Elite},
	{70, Advanced},
	{55, Intermediate},
	{40, Novice},
	{0, Beginner},
}

// RatingFor maps a score to its tier under the given formula family.
func RatingFor(formula Formula, score float64) Rating {
	tiers := wilksDotsTiers
	if formula == IPFGL {
		tiers = ipfGLTiers
	}
	for _, t := range tiers {
		if score >= t.min {
			return t.rating
		}
	}
	return Beginner
}
