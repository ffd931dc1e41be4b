package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/gregmcinnes/topset/internal/models"
	"github.com/gregmcinnes/topset/internal/progression"
)

// Snapshot is the plain-data view of a workout for rendering. It carries
// no behavior.
type Snapshot struct {
	ID            uuid.UUID          `json:"id"`
	Week          int                `json:"week"`
	Day           int                `json:"day"`
	ExerciseIndex int                `json:"exercise_index"`
	SetNumber     int                `json:"set_number"`
	Complete      bool               `json:"complete"`
	Pending       string             `json:"pending,omitempty"` // "amrap" or "linear"
	Progress      float64            `json:"progress"`
	RestSeconds   int                `json:"rest_seconds"`
	RestPaused    bool               `json:"rest_paused"`
	Exercises     []ExerciseSnapshot `json:"exercises"`
}

// ExerciseSnapshot is one exercise slot's display state.
type ExerciseSnapshot struct {
	Lift          string                  `json:"lift"`
	Style         models.ProgressionStyle `json:"style"`
	Sets          int                     `json:"sets"`
	CompletedSets []int                   `json:"completed_sets"`
	FailedSets    []int                   `json:"failed_sets,omitempty"`
	Weight        float64                 `json:"weight,omitempty"`
	SetWeights    []float64               `json:"set_weights,omitempty"`
	AMRAPSet      int                     `json:"amrap_set,omitempty"`
	PairedWith    string                  `json:"paired_with,omitempty"`
}

// Summary is the final workout report for sharing: exercises performed,
// sets, and the records achieved.
type Summary struct {
	ID        uuid.UUID             `json:"id"`
	Week      int                   `json:"week"`
	Day       int                   `json:"day"`
	StartedAt time.Time             `json:"started_at"`
	Duration  time.Duration         `json:"duration"`
	Complete  bool                  `json:"complete"`
	Exercises []ExerciseSnapshot    `json:"exercises"`
	Records   []progression.Outcome `json:"records,omitempty"`
}

// Snapshot returns the current display state.
func (w *Workout) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		ID:            w.id,
		Week:          w.cfg.Week,
		Day:           w.cfg.Day,
		ExerciseIndex: w.exerciseIndex,
		SetNumber:     w.setNumber,
		Complete:      w.complete,
		Exercises:     w.exerciseSnapshots(),
	}
	switch w.pending {
	case pendingAMRAP:
		snap.Pending = "amrap"
	case pendingLinear:
		snap.Pending = "linear"
	}
	if w.timer != nil {
		snap.RestSeconds = int(w.timer.Remaining() / time.Second)
		snap.RestPaused = w.timer.Paused()
	}

	total, done := 0, 0
	for _, ex := range w.exercises {
		total += ex.totalSets()
		done += ex.completedCount()
	}
	if total > 0 {
		snap.Progress = float64(done) / float64(total)
	}
	return snap
}

// Summary returns the final workout report.
func (w *Workout) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()

	records := make([]progression.Outcome, len(w.prs))
	copy(records, w.prs)
	return Summary{
		ID:        w.id,
		Week:      w.cfg.Week,
		Day:       w.cfg.Day,
		StartedAt: w.startedAt,
		Duration:  w.clock().Sub(w.startedAt),
		Complete:  w.complete,
		Exercises: w.exerciseSnapshots(),
		Records:   records,
	}
}

func (w *Workout) exerciseSnapshots() []ExerciseSnapshot {
	out := make([]ExerciseSnapshot, len(w.exercises))
	for i, ex := range w.exercises {
		p := ex.Prescription
		es := ExerciseSnapshot{
			Lift:       p.Lift,
			Style:      p.Style,
			Sets:       ex.totalSets(),
			Weight:     p.Weight,
			SetWeights: p.SetWeights,
			AMRAPSet:   p.AMRAPSet,
		}
		if ex.Paired != nil {
			es.PairedWith = ex.Paired.Lift
		}
		for set := 1; set <= ex.totalSets(); set++ {
			if ex.Completed[set] {
				es.CompletedSets = append(es.CompletedSets, set)
			}
			if ex.Failed[set] {
				es.FailedSets = append(es.FailedSets, set)
			}
		}
		out[i] = es
	}
	return out
}
