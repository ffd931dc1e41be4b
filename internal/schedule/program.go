// Package schedule turns a program definition and the current training
// maxes into concrete day-by-day prescriptions, and manages cycle
// boundaries (seeding initial maxes, archiving finished cycles).
package schedule

import (
	"github.com/gregmcinnes/topset/internal/models"
)

// LiftPlan assigns one lift to a training day with its progression style
// and targets. Structured lifts take their per-set scheme from the
// program's weekly tables; the other styles use Sets/RepsPerSet directly.
type LiftPlan struct {
	Lift  string                  `yaml:"lift" json:"lift"`
	Day   int                     `yaml:"day" json:"day"`
	Style models.ProgressionStyle `yaml:"style" json:"style"`

	Sets       int `yaml:"sets" json:"sets"`
	RepsPerSet int `yaml:"reps_per_set" json:"reps_per_set"`
	// AMRAPSet marks the 1-based rep-out set for autoregulated lifts;
	// structured lifts mark rep-outs in the weekly scheme instead.
	AMRAPSet int `yaml:"amrap_set,omitempty" json:"amrap_set,omitempty"`

	// Intensity is the working-weight fraction of the training max for
	// autoregulated lifts (e.g. 0.85).
	Intensity float64 `yaml:"intensity,omitempty" json:"intensity,omitempty"`
	// DefaultMax seeds the lift when no stored max or state exists.
	DefaultMax float64 `yaml:"default_max,omitempty" json:"default_max,omitempty"`

	Accessory bool `yaml:"accessory,omitempty" json:"accessory,omitempty"`
}

// Program is a repeating multi-week plan: which lifts run on which days,
// and the percentage tables structured lifts follow each week.
type Program struct {
	Name  string     `yaml:"name" json:"name"`
	Weeks int        `yaml:"weeks" json:"weeks"`
	Days  int        `yaml:"days" json:"days"`
	Lifts []LiftPlan `yaml:"lifts" json:"lifts"`

	// Schemes maps week number to the structured per-set table. Weeks
	// beyond the table wrap around modulo the cycle length.
	Schemes map[int][]models.SetScheme `yaml:"schemes,omitempty" json:"schemes,omitempty"`
}

// SchemeFor returns the structured set table for a week, wrapping weeks
// past the cycle length back onto the table. Returns nil when the program
// defines no schemes.
func (p *Program) SchemeFor(week int) []models.SetScheme {
	if len(p.Schemes) == 0 || p.Weeks <= 0 {
		return nil
	}
	w := ((week - 1) % p.Weeks) + 1
	return p.Schemes[w]
}

// DayPlans returns the program's lift plans for one day, in definition
// order.
func (p *Program) DayPlans(day int) []LiftPlan {
	var plans []LiftPlan
	for _, lp := range p.Lifts {
		if lp.Day == day {
			plans = append(plans, lp)
		}
	}
	return plans
}

// DefaultMaxes collects the per-lift default maxes for cycle seeding.
func (p *Program) DefaultMaxes() map[string]float64 {
	out := make(map[string]float64)
	for _, lp := range p.Lifts {
		if lp.DefaultMax > 0 {
			out[lp.Lift] = lp.DefaultMax
		}
	}
	return out
}

// Classic returns the built-in four-week program: three waves of
// escalating percentages with a rep-out on the last set, then a light
// deload week. Four main lifts across four days, each followed by an
// accessory slot.
func Classic() *Program {
	mains := []struct {
		lift       string
		accessory  string
		defaultMax float64
	}{
		{"Squat", "Leg Press", 300},
		{"Bench", "Dips", 200},
		{"Deadlift", "Back Extension", 350},
		{"Press", "Chin-Up", 135},
	}

	p := &Program{
		Name:  "classic",
		Weeks: 4,
		Days:  4,
		Schemes: map[int][]models.SetScheme{
			1: {
				{TargetReps: 5, Intensity: 0.65},
				{TargetReps: 5, Intensity: 0.75},
				{TargetReps: 5, Intensity: 0.85, AMRAP: true},
			},
			2: {
				{TargetReps: 3, Intensity: 0.70},
				{TargetReps: 3, Intensity: 0.80},
				{TargetReps: 3, Intensity: 0.90, AMRAP: true},
			},
			3: {
				{TargetReps: 5, Intensity: 0.75},
				{TargetReps: 3, Intensity: 0.85},
				{TargetReps: 1, Intensity: 0.95, AMRAP: true},
			},
			// Deload: light straight sets, no rep-out.
			4: {
				{TargetReps: 5, Intensity: 0.40},
				{TargetReps: 5, Intensity: 0.50},
				{TargetReps: 5, Intensity: 0.60},
			},
		},
	}

	for i, m := range mains {
		day := i + 1
		p.Lifts = append(p.Lifts, LiftPlan{
			Lift:       m.lift,
			Day:        day,
			Style:      models.StyleStructured,
			DefaultMax: m.defaultMax,
		})
		p.Lifts = append(p.Lifts, LiftPlan{
			Lift:       m.accessory,
			Day:        day,
			Style:      models.StyleLinear,
			Sets:       3,
			RepsPerSet: 10,
			DefaultMax: 50,
			Accessory:  true,
		})
	}
	return p
}
