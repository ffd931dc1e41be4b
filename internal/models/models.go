// Package models defines the core training domain types shared across the
// progression engine, session state machine, storage, and API layers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressionStyle selects how a lift's targets evolve between sessions.
// Styles are mutually exclusive per lift within a program.
type ProgressionStyle string

const (
	// StyleAutoregulated adjusts the training max from AMRAP rep-out
	// performance against a weekly target.
	StyleAutoregulated ProgressionStyle = "autoregulated"
	// StyleStructured prescribes per-set percentages of the training max
	// from a fixed weekly table; the max holds for the cycle.
	StyleStructured ProgressionStyle = "structured"
	// StyleLinear uses a fixed session weight with flat increments on
	// success and threshold-based deloads on repeated failure.
	StyleLinear ProgressionStyle = "linear"
	// StyleFixed displays the training max and never adjusts it from
	// session activity.
	StyleFixed ProgressionStyle = "fixed"
)

// Valid reports whether s is a known progression style.
func (s ProgressionStyle) Valid() bool {
	switch s {
	case StyleAutoregulated, StyleStructured, StyleLinear, StyleFixed:
		return true
	}
	return false
}

// SetScheme describes one set of a structured prescription.
type SetScheme struct {
	TargetReps int     `json:"target_reps"`
	Intensity  float64 `json:"intensity"` // fraction of training max, e.g. 0.85
	AMRAP      bool    `json:"amrap"`
}

// Prescription describes how one lift is performed on one (week, day):
// the style, set/rep targets, resolved working weights, and which set (if
// any) is a rep-out. Immutable for the duration of a session.
type Prescription struct {
	Lift  string           `json:"lift"`
	Week  int              `json:"week"`
	Day   int              `json:"day"`
	Style ProgressionStyle `json:"style"`

	Sets       int `json:"sets"`
	RepsPerSet int `json:"reps_per_set"`
	// AMRAPSet is the 1-based set number performed as a rep-out; 0 means
	// none. For structured style the per-set scheme is authoritative.
	AMRAPSet int `json:"amrap_set,omitempty"`

	// Weight is the resolved working weight for every set (autoregulated,
	// linear, and fixed styles).
	Weight float64 `json:"weight"`

	// Scheme and SetWeights are populated for structured style only,
	// one entry per set.
	Scheme     []SetScheme `json:"scheme,omitempty"`
	SetWeights []float64   `json:"set_weights,omitempty"`

	// Accessory marks supplemental work eligible for superset pairing.
	Accessory bool `json:"accessory,omitempty"`
}

// AMRAPAt reports whether the given 1-based set number is a rep-out set.
func (p Prescription) AMRAPAt(setNumber int) bool {
	if p.Style == StyleStructured {
		if setNumber < 1 || setNumber > len(p.Scheme) {
			return false
		}
		return p.Scheme[setNumber-1].AMRAP
	}
	return p.AMRAPSet != 0 && setNumber == p.AMRAPSet
}

// TargetRepsAt returns the rep target for the given 1-based set number.
func (p Prescription) TargetRepsAt(setNumber int) int {
	if p.Style == StyleStructured && setNumber >= 1 && setNumber <= len(p.Scheme) {
		return p.Scheme[setNumber-1].TargetReps
	}
	return p.RepsPerSet
}

// WeightAt returns the working weight for the given 1-based set number.
func (p Prescription) WeightAt(setNumber int) float64 {
	if p.Style == StyleStructured && setNumber >= 1 && setNumber <= len(p.SetWeights) {
		return p.SetWeights[setNumber-1]
	}
	return p.Weight
}

// TrainingMax is the per-week reference weight for a lift. Stored per week
// so historical charts can reconstruct past prescriptions.
type TrainingMax struct {
	Lift      string    `json:"lift"`
	Week      int       `json:"week"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogEntry is an immutable record of one completed working/AMRAP set.
type LogEntry struct {
	ID           uuid.UUID `json:"id"`
	Lift         string    `json:"lift"`
	Week         int       `json:"week"`
	Day          int       `json:"day"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	TargetReps   int       `json:"target_reps"`
	EstimatedMax float64   `json:"estimated_max"`
	Note         string    `json:"note,omitempty"`
	LoggedAt     time.Time `json:"logged_at"`
}

// PersonalRecord is the log entry with the highest estimated 1RM observed
// for a lift across all history. Replaced only by a strictly greater e1RM.
type PersonalRecord struct {
	Lift  string   `json:"lift"`
	Entry LogEntry `json:"entry"`
}

// LinearState tracks a linear-style lift between sessions: the current
// session weight, the per-success increment, and the consecutive-failure
// counter driving deloads.
type LinearState struct {
	Lift           string  `json:"lift"`
	Weight         float64 `json:"weight"`
	Increment      float64 `json:"increment"`
	Failures       int     `json:"failures"`
	Threshold      int     `json:"threshold"`
	DeloadFraction float64 `json:"deload_fraction"`
}

// CompletedCycle archives one finished run through a program's weeks. Used
// only to seed the next cycle's initial training maxes; never mutated.
type CompletedCycle struct {
	ID            uuid.UUID          `json:"id"`
	Program       string             `json:"program"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   time.Time          `json:"completed_at"`
	StartingMaxes map[string]float64 `json:"starting_maxes"`
	EndingMaxes   map[string]float64 `json:"ending_maxes"`
}
