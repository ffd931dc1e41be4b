// Package progression turns logged performance into updated training
// targets: training-max autoregulation, structured percentage tables,
// linear increments and deloads, and personal-record arbitration.
package progression

import (
	"errors"
	"fmt"

	"github.com/gregmcinnes/topset/internal/models"
	"github.com/gregmcinnes/topset/internal/strength"
	"github.com/gregmcinnes/topset/internal/units"
)

// ErrZeroMax is returned when an update would leave a lift with a
// non-positive training max. A zero max silently propagates to zero-weight
// prescriptions, so it is surfaced instead of stored.
var ErrZeroMax = errors.New("progression: training max must be positive")

// Config holds the tunables for progression computation. Passed in
// explicitly; the engine reads no ambient state.
type Config struct {
	// RoundIncrement is the plate rounding applied to every stored weight.
	RoundIncrement float64
	// PerRepStep is the training-max adjustment per rep of AMRAP delta
	// (actual minus target), in the stored unit.
	PerRepStep float64
	// MaxSwingFraction caps how far one week's update can move the max,
	// as a fraction of the current max.
	MaxSwingFraction float64
	// Floor is the lowest value an autoregulated max may reach.
	Floor float64
}

// DefaultConfig returns the standard tuning: 5 lb rounding, 2.5 lb per
// rep of delta, 10% max swing per week.
func DefaultConfig() Config {
	return Config{
		RoundIncrement:   5,
		PerRepStep:       2.5,
		MaxSwingFraction: 0.10,
		Floor:            0,
	}
}

// Engine computes progression outcomes. All methods are pure: callers own
// persistence of the returned values.
type Engine struct {
	cfg Config
}

// New creates an Engine with the given config. Zero-value fields fall back
// to DefaultConfig.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.RoundIncrement == 0 {
		cfg.RoundIncrement = def.RoundIncrement
	}
	if cfg.PerRepStep == 0 {
		cfg.PerRepStep = def.PerRepStep
	}
	if cfg.MaxSwingFraction == 0 {
		cfg.MaxSwingFraction = def.MaxSwingFraction
	}
	return &Engine{cfg: cfg}
}

// Outcome is the result of feeding one log entry to the engine.
type Outcome struct {
	Lift         string  `json:"lift"`
	PreviousMax  float64 `json:"previous_max"`
	NextMax      float64 `json:"next_max"`
	E1RM         float64 `json:"e1rm"`
	PreviousE1RM float64 `json:"previous_e1rm"` // stored PR before this entry; 0 if none
	IsNewPR      bool    `json:"is_new_pr"`
}

// AutoregulatedOutcome derives next week's training max from an AMRAP
// rep-out. The rule is additive and monotonic in the rep delta:
//
//	next = round(tm + (actualReps - targetReps) * PerRepStep)
//
// clamped to ±MaxSwingFraction of the current max per update and never
// below Floor. Hitting the target exactly leaves the max flat.
func (e *Engine) AutoregulatedOutcome(entry models.LogEntry, trainingMax float64, pr *models.PersonalRecord) (Outcome, error) {
	if trainingMax <= 0 {
		return Outcome{}, ErrZeroMax
	}
	e1rm, err := strength.EstimatedOneRepMax(entry.Weight, entry.Reps)
	if err != nil {
		return Outcome{}, fmt.Errorf("computing e1RM: %w", err)
	}

	delta := float64(entry.Reps-entry.TargetReps) * e.cfg.PerRepStep
	swing := trainingMax * e.cfg.MaxSwingFraction
	if delta > swing {
		delta = swing
	}
	if delta < -swing {
		delta = -swing
	}

	next := units.Round(trainingMax+delta, e.cfg.RoundIncrement)
	if next < e.cfg.Floor {
		next = e.cfg.Floor
	}
	if next <= 0 {
		return Outcome{}, ErrZeroMax
	}

	out := Outcome{
		Lift:        entry.Lift,
		PreviousMax: trainingMax,
		NextMax:     next,
		E1RM:        e1rm,
	}
	out.PreviousE1RM, out.IsNewPR = prDelta(e1rm, pr)
	return out, nil
}

// StructuredOutcome handles an AMRAP set under the percentage-table style.
// The training max is fixed for the cycle; only the e1RM is tracked for
// personal records.
func (e *Engine) StructuredOutcome(entry models.LogEntry, trainingMax float64, pr *models.PersonalRecord) (Outcome, error) {
	if trainingMax <= 0 {
		return Outcome{}, ErrZeroMax
	}
	e1rm, err := strength.EstimatedOneRepMax(entry.Weight, entry.Reps)
	if err != nil {
		return Outcome{}, fmt.Errorf("computing e1RM: %w", err)
	}

	out := Outcome{
		Lift:        entry.Lift,
		PreviousMax: trainingMax,
		NextMax:     trainingMax,
		E1RM:        e1rm,
	}
	out.PreviousE1RM, out.IsNewPR = prDelta(e1rm, pr)
	return out, nil
}

// LinearOutcome is the result of a linear-style session.
type LinearOutcome struct {
	Lift       string  `json:"lift"`
	PrevWeight float64 `json:"prev_weight"`
	NextWeight float64 `json:"next_weight"`
	Failures   int     `json:"failures"`
	Deloaded   bool    `json:"deloaded"`
	// DeloadPending is true when one more failure triggers a deload, so
	// the caller can warn before it happens.
	DeloadPending bool `json:"deload_pending"`
}

// Linear applies a success/failure result to a linear-style lift. Success
// adds the increment and clears the failure counter. Failure holds the
// weight and counts; at Threshold consecutive failures the weight drops by
// DeloadFraction and the counter resets.
func (e *Engine) Linear(st models.LinearState, success bool) (LinearOutcome, error) {
	if st.Weight <= 0 {
		return LinearOutcome{}, ErrZeroMax
	}

	out := LinearOutcome{Lift: st.Lift, PrevWeight: st.Weight}
	if success {
		out.NextWeight = units.Round(st.Weight+st.Increment, e.cfg.RoundIncrement)
		out.Failures = 0
	} else {
		out.Failures = st.Failures + 1
		out.NextWeight = st.Weight
		if st.Threshold > 0 && out.Failures >= st.Threshold {
			out.NextWeight = units.Round(st.Weight*(1-st.DeloadFraction), e.cfg.RoundIncrement)
			out.Failures = 0
			out.Deloaded = true
		}
	}
	if out.NextWeight <= 0 {
		return LinearOutcome{}, ErrZeroMax
	}
	out.DeloadPending = st.Threshold > 0 && out.Failures == st.Threshold-1
	return out, nil
}

// SetWeights resolves a structured prescription's per-set weights from the
// training max: weight = tm × intensity, rounded.
func (e *Engine) SetWeights(trainingMax float64, scheme []models.SetScheme) []float64 {
	weights := make([]float64, len(scheme))
	for i, s := range scheme {
		weights[i] = units.Round(trainingMax*s.Intensity, e.cfg.RoundIncrement)
	}
	return weights
}

// WorkingWeight resolves a single weight from a training max and an
// intensity fraction, rounded.
func (e *Engine) WorkingWeight(trainingMax, intensity float64) float64 {
	return units.Round(trainingMax*intensity, e.cfg.RoundIncrement)
}

// NewPR reports whether an e1RM strictly beats the stored record.
func NewPR(e1rm float64, pr *models.PersonalRecord) bool {
	_, isNew := prDelta(e1rm, pr)
	return isNew
}

func prDelta(e1rm float64, pr *models.PersonalRecord) (previous float64, isNew bool) {
	if pr == nil {
		return 0, true
	}
	return pr.Entry.EstimatedMax, e1rm > pr.Entry.EstimatedMax
}

// BestWeekEntry picks the entry the engine uses when multiple logs exist
// for one (lift, week): the highest e1RM, earliest on ties. Returns nil
// for an empty slice.
func BestWeekEntry(entries []models.LogEntry) *models.LogEntry {
	var best *models.LogEntry
	for i := range entries {
		if best == nil || entries[i].EstimatedMax > best.EstimatedMax {
			best = &entries[i]
		}
	}
	return best
}
