// Package session drives one workout: it sequences exercises and sets,
// intercepts AMRAP and linear confirmations as explicit pending states,
// runs the rest timer, assigns supersets, and feeds completed work to the
// progression engine. All transitions are synchronous and atomic; the
// in-memory state is the source of truth for the active session, with
// store writes treated as fire-and-forget side effects.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gregmcinnes/topset/internal/models"
	"github.com/gregmcinnes/topset/internal/progression"
	"github.com/gregmcinnes/topset/internal/storage"
	"github.com/gregmcinnes/topset/internal/strength"
)

var (
	// ErrSessionComplete is returned for transitions after the terminal
	// state is reached.
	ErrSessionComplete = errors.New("session: workout already complete")
	// ErrConfirmationPending is returned when a transition is attempted
	// while AMRAP input or a linear confirmation is outstanding.
	ErrConfirmationPending = errors.New("session: confirmation pending")
	// ErrNoPendingInput is returned when input arrives with nothing
	// outstanding.
	ErrNoPendingInput = errors.New("session: no pending input")
	// ErrInvalidReps rejects negative rep counts at the input boundary.
	ErrInvalidReps = errors.New("session: reps must be >= 0")
	// ErrNoExercises rejects starting a workout with nothing to do.
	ErrNoExercises = errors.New("session: no exercises")
)

// EventKind labels the result of a transition.
type EventKind string

const (
	// EventAdvanced: the cursor moved to the next set or exercise.
	EventAdvanced EventKind = "advanced"
	// EventAMRAPInput: completion is deferred until a rep count arrives.
	EventAMRAPInput EventKind = "amrap_input"
	// EventLinearConfirm: the set is complete but the exercise's
	// success/failure outcome is pending.
	EventLinearConfirm EventKind = "linear_confirm"
	// EventComplete: the terminal state was reached.
	EventComplete EventKind = "complete"
)

// Event reports a transition result and the cursor after it.
type Event struct {
	Kind          EventKind `json:"kind"`
	ExerciseIndex int       `json:"exercise_index"`
	SetNumber     int       `json:"set_number"`
}

type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingAMRAP
	pendingLinear
)

// Exercise is one slot in the workout sequence.
type Exercise struct {
	Prescription models.Prescription
	// Paired is the superset accessory performed during this exercise's
	// rest intervals, when superset assignment is enabled.
	Paired    *models.Prescription
	Completed map[int]bool
	Failed    map[int]bool
}

func (e *Exercise) totalSets() int {
	if e.Prescription.Style == models.StyleStructured {
		return len(e.Prescription.Scheme)
	}
	return e.Prescription.Sets
}

func (e *Exercise) completedCount() int {
	return len(e.Completed)
}

// Config carries everything a workout needs, passed in explicitly.
type Config struct {
	Week, Day        int
	RestDuration     time.Duration
	SupersetsEnabled bool
	Engine           *progression.Engine
	Store            storage.Store
	Log              *slog.Logger
	// Clock overrides time.Now for tests.
	Clock func() time.Time
	// OnRestDone is called exactly once when a rest timer completes.
	OnRestDone func()

	// Defaults used to seed linear state for lifts with none stored.
	LinearIncrement      float64
	LinearThreshold      int
	LinearDeloadFraction float64
}

// Workout is the state machine for one active session. Discarded when the
// workout ends; log entries, training maxes, and personal records are the
// only durable side effects.
type Workout struct {
	mu    sync.Mutex
	id    uuid.UUID
	cfg   Config
	clock func() time.Time

	exercises     []*Exercise
	exerciseIndex int
	setNumber     int
	complete      bool

	pending         pendingKind
	pendingExercise int
	pendingSet      int

	timer     *RestTimer
	prs       []progression.Outcome
	startedAt time.Time
}

// New builds a workout from a day's ordered main-lift and accessory
// prescriptions. When supersets are enabled, accessory i pairs with main
// exercise i; accessories beyond the main-lift count are appended as
// standalone exercises. When disabled, every accessory is standalone.
func New(cfg Config, mains, accessories []models.Prescription) (*Workout, error) {
	if len(mains)+len(accessories) == 0 {
		return nil, ErrNoExercises
	}
	if cfg.Engine == nil {
		cfg.Engine = progression.New(progression.DefaultConfig())
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.LinearIncrement == 0 {
		cfg.LinearIncrement = 5
	}
	if cfg.LinearThreshold == 0 {
		cfg.LinearThreshold = 3
	}
	if cfg.LinearDeloadFraction == 0 {
		cfg.LinearDeloadFraction = 0.10
	}

	w := &Workout{
		id:        uuid.New(),
		cfg:       cfg,
		clock:     cfg.Clock,
		setNumber: 1,
		startedAt: cfg.Clock(),
	}

	for i := range mains {
		w.exercises = append(w.exercises, newExercise(mains[i]))
	}
	for i := range accessories {
		if cfg.SupersetsEnabled && i < len(mains) {
			w.exercises[i].Paired = &accessories[i]
			continue
		}
		w.exercises = append(w.exercises, newExercise(accessories[i]))
	}
	return w, nil
}

func newExercise(p models.Prescription) *Exercise {
	return &Exercise{
		Prescription: p,
		Completed:    make(map[int]bool),
		Failed:       make(map[int]bool),
	}
}

// ID returns the session identifier.
func (w *Workout) ID() uuid.UUID { return w.id }

// CompleteSet marks the current set done and advances the cursor. If the
// set is a rep-out, completion is deferred until SubmitReps; if it ends a
// linear exercise, the advance happens but ConfirmLinear must resolve the
// outcome before further navigation.
func (w *Workout) CompleteSet(ctx context.Context) (Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.transitionAllowed(); err != nil {
		return Event{}, err
	}

	ex := w.exercises[w.exerciseIndex]
	if ex.Prescription.AMRAPAt(w.setNumber) {
		w.pending = pendingAMRAP
		w.pendingExercise = w.exerciseIndex
		w.pendingSet = w.setNumber
		return Event{Kind: EventAMRAPInput, ExerciseIndex: w.exerciseIndex, SetNumber: w.setNumber}, nil
	}

	return w.finishSet(false), nil
}

// FailSet records the current set as failed and advances exactly like a
// completion; failure never blocks progress through the workout.
func (w *Workout) FailSet(ctx context.Context) (Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.transitionAllowed(); err != nil {
		return Event{}, err
	}
	return w.finishSet(true), nil
}

func (w *Workout) transitionAllowed() error {
	if w.complete && w.pending == pendingNone {
		return ErrSessionComplete
	}
	if w.pending != pendingNone {
		return ErrConfirmationPending
	}
	return nil
}

// finishSet marks the current set, arms a linear confirmation when the
// exercise's last set just finished, and advances. Caller holds the lock.
func (w *Workout) finishSet(failed bool) Event {
	ex := w.exercises[w.exerciseIndex]
	set := w.setNumber
	ex.Completed[set] = true
	if failed {
		ex.Failed[set] = true
	}

	linearDone := ex.Prescription.Style == models.StyleLinear && set == ex.totalSets()
	if linearDone {
		w.pending = pendingLinear
		w.pendingExercise = w.exerciseIndex
		w.pendingSet = set
	}

	ev := w.advance()
	if linearDone {
		// Even at the terminal state the progression outcome is still
		// pending; ConfirmLinear resolves it.
		ev.Kind = EventLinearConfirm
	}
	return ev
}

// advance moves the cursor per the state machine: next set, else next
// exercise, else terminal. Starts the rest timer after any non-terminal
// completion. Caller holds the lock.
func (w *Workout) advance() Event {
	ex := w.exercises[w.exerciseIndex]
	switch {
	case w.setNumber < ex.totalSets():
		w.setNumber++
	case w.exerciseIndex+1 < len(w.exercises):
		w.exerciseIndex++
		w.setNumber = 1
	default:
		w.complete = true
		w.cancelTimer()
		return Event{Kind: EventComplete, ExerciseIndex: w.exerciseIndex, SetNumber: w.setNumber}
	}

	w.startRest()
	return Event{Kind: EventAdvanced, ExerciseIndex: w.exerciseIndex, SetNumber: w.setNumber}
}

// SubmitReps resolves a pending AMRAP request. A rep count of zero means
// no set was performed: the cursor advances with nothing logged. Otherwise
// the resulting log entry is fed to the progression engine and the outcome
// (new max, PR flag) is returned alongside the transition event.
func (w *Workout) SubmitReps(ctx context.Context, reps int) (Event, *progression.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != pendingAMRAP {
		return Event{}, nil, ErrNoPendingInput
	}
	if reps < 0 {
		return Event{}, nil, ErrInvalidReps
	}

	w.pending = pendingNone
	if reps == 0 {
		return w.finishSet(true), nil, nil
	}

	ex := w.exercises[w.pendingExercise]
	p := ex.Prescription
	set := w.pendingSet

	e1rm, err := strength.EstimatedOneRepMax(p.WeightAt(set), reps)
	if err != nil {
		return Event{}, nil, err
	}
	entry := models.LogEntry{
		ID:           uuid.New(),
		Lift:         p.Lift,
		Week:         w.cfg.Week,
		Day:          w.cfg.Day,
		Weight:       p.WeightAt(set),
		Reps:         reps,
		TargetReps:   p.TargetRepsAt(set),
		EstimatedMax: e1rm,
		LoggedAt:     w.clock(),
	}

	outcome, err := w.applyEntry(ctx, p, entry)
	if err != nil {
		return Event{}, nil, err
	}
	return w.finishSet(false), outcome, nil
}

// applyEntry runs the progression engine for an AMRAP entry and persists
// the results. Store failures are logged and do not fail the session; the
// in-memory state stays authoritative. Caller holds the lock.
func (w *Workout) applyEntry(ctx context.Context, p models.Prescription, entry models.LogEntry) (*progression.Outcome, error) {
	var pr *models.PersonalRecord
	var trainingMax float64
	if w.cfg.Store != nil {
		var err error
		pr, err = w.cfg.Store.PersonalRecord(ctx, p.Lift)
		if err != nil {
			w.cfg.Log.Warn("reading personal record", "lift", p.Lift, "error", err)
		}
		trainingMax, err = w.cfg.Store.TrainingMax(ctx, p.Lift, p.Week)
		if err != nil {
			w.cfg.Log.Warn("reading training max", "lift", p.Lift, "week", p.Week, "error", err)
		}
	}
	if trainingMax <= 0 {
		// Prescriptions are resolved from the max, so it is recoverable
		// from the working weight only approximately; refuse to guess.
		trainingMax = p.Weight
	}
	if trainingMax <= 0 {
		return nil, progression.ErrZeroMax
	}

	var outcome progression.Outcome
	var err error
	switch p.Style {
	case models.StyleAutoregulated:
		outcome, err = w.cfg.Engine.AutoregulatedOutcome(entry, trainingMax, pr)
	default:
		outcome, err = w.cfg.Engine.StructuredOutcome(entry, trainingMax, pr)
	}
	if err != nil {
		return nil, err
	}

	if w.cfg.Store != nil {
		if err := w.cfg.Store.AppendLogEntry(ctx, entry); err != nil {
			w.cfg.Log.Warn("appending log entry", "lift", p.Lift, "error", err)
		}
		if p.Style == models.StyleAutoregulated && outcome.NextMax != outcome.PreviousMax {
			if err := w.cfg.Store.PutTrainingMax(ctx, p.Lift, p.Week+1, outcome.NextMax); err != nil {
				w.cfg.Log.Warn("writing training max", "lift", p.Lift, "error", err)
			}
		}
		if outcome.IsNewPR {
			rec := models.PersonalRecord{Lift: p.Lift, Entry: entry}
			if err := w.cfg.Store.PutPersonalRecord(ctx, rec); err != nil {
				w.cfg.Log.Warn("writing personal record", "lift", p.Lift, "error", err)
			}
		}
	}
	if outcome.IsNewPR {
		w.prs = append(w.prs, outcome)
	}
	return &outcome, nil
}

// ConfirmLinear resolves a pending linear success/failure confirmation
// and routes it to the progression engine.
func (w *Workout) ConfirmLinear(ctx context.Context, success bool) (*progression.LinearOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != pendingLinear {
		return nil, ErrNoPendingInput
	}
	w.pending = pendingNone

	ex := w.exercises[w.pendingExercise]
	p := ex.Prescription

	st := w.linearState(ctx, p)
	out, err := w.cfg.Engine.Linear(*st, success)
	if err != nil {
		return nil, err
	}

	st.Weight = out.NextWeight
	st.Failures = out.Failures
	if w.cfg.Store != nil {
		if err := w.cfg.Store.PutLinearState(ctx, *st); err != nil {
			w.cfg.Log.Warn("writing linear state", "lift", p.Lift, "error", err)
		}
	}

	if success {
		w.logLinearSuccess(ctx, p, out.PrevWeight)
	}
	return &out, nil
}

// linearState loads a lift's linear state, seeding one from the
// prescription and configured defaults when nothing is stored.
func (w *Workout) linearState(ctx context.Context, p models.Prescription) *models.LinearState {
	if w.cfg.Store != nil {
		st, err := w.cfg.Store.LinearState(ctx, p.Lift)
		if err != nil {
			w.cfg.Log.Warn("reading linear state", "lift", p.Lift, "error", err)
		}
		if st != nil {
			return st
		}
	}
	return &models.LinearState{
		Lift:           p.Lift,
		Weight:         p.Weight,
		Increment:      w.cfg.LinearIncrement,
		Threshold:      w.cfg.LinearThreshold,
		DeloadFraction: w.cfg.LinearDeloadFraction,
	}
}

// logLinearSuccess records the completed linear session for PR tracking.
// Caller holds the lock.
func (w *Workout) logLinearSuccess(ctx context.Context, p models.Prescription, weight float64) {
	e1rm, err := strength.EstimatedOneRepMax(weight, p.RepsPerSet)
	if err != nil {
		return
	}
	entry := models.LogEntry{
		ID:           uuid.New(),
		Lift:         p.Lift,
		Week:         w.cfg.Week,
		Day:          w.cfg.Day,
		Weight:       weight,
		Reps:         p.RepsPerSet,
		TargetReps:   p.RepsPerSet,
		EstimatedMax: e1rm,
		LoggedAt:     w.clock(),
	}

	var pr *models.PersonalRecord
	if w.cfg.Store != nil {
		pr, err = w.cfg.Store.PersonalRecord(ctx, p.Lift)
		if err != nil {
			w.cfg.Log.Warn("reading personal record", "lift", p.Lift, "error", err)
		}
		if err := w.cfg.Store.AppendLogEntry(ctx, entry); err != nil {
			w.cfg.Log.Warn("appending log entry", "lift", p.Lift, "error", err)
		}
	}
	if progression.NewPR(e1rm, pr) {
		if w.cfg.Store != nil {
			rec := models.PersonalRecord{Lift: p.Lift, Entry: entry}
			if err := w.cfg.Store.PutPersonalRecord(ctx, rec); err != nil {
				w.cfg.Log.Warn("writing personal record", "lift", p.Lift, "error", err)
			}
		}
		previous := 0.0
		if pr != nil {
			previous = pr.Entry.EstimatedMax
		}
		w.prs = append(w.prs, progression.Outcome{
			Lift:         p.Lift,
			E1RM:         e1rm,
			PreviousE1RM: previous,
			IsNewPR:      true,
		})
	}
}

// JumpTo moves the cursor directly to an exercise. Out-of-range indexes
// are ignored. A running rest timer is cancelled and the set cursor lands
// on the first not-yet-completed set (or 1 when all are done).
func (w *Workout) JumpTo(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != pendingNone {
		return ErrConfirmationPending
	}
	if index < 0 || index >= len(w.exercises) {
		return nil
	}

	w.cancelTimer()
	w.exerciseIndex = index
	w.setNumber = 1
	ex := w.exercises[index]
	for set := 1; set <= ex.totalSets(); set++ {
		if !ex.Completed[set] {
			w.setNumber = set
			break
		}
	}
	return nil
}

func (w *Workout) startRest() {
	if w.cfg.RestDuration <= 0 {
		return
	}
	w.cancelTimer()
	w.timer = newRestTimer(w.cfg.RestDuration, w.clock, w.cfg.OnRestDone)
	w.timer.Start()
}

func (w *Workout) cancelTimer() {
	if w.timer != nil {
		w.timer.Cancel()
		w.timer = nil
	}
}

// PauseTimer pauses the rest timer if one is running.
func (w *Workout) PauseTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Pause()
	}
}

// ResumeTimer resumes a paused rest timer.
func (w *Workout) ResumeTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Resume()
	}
}

// RestRemaining returns the rest timer's remaining time, zero when idle.
func (w *Workout) RestRemaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer == nil {
		return 0
	}
	return w.timer.Remaining()
}

// IsComplete reports whether the terminal state has been reached.
func (w *Workout) IsComplete() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.complete
}

// Cursor returns the current (exerciseIndex, setNumber).
func (w *Workout) Cursor() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exerciseIndex, w.setNumber
}

// Progress returns completed sets over total sets across all exercises.
func (w *Workout) Progress() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	total, done := 0, 0
	for _, ex := range w.exercises {
		total += ex.totalSets()
		done += ex.completedCount()
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

// PRs returns the personal records achieved so far this session.
func (w *Workout) PRs() []progression.Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]progression.Outcome, len(w.prs))
	copy(out, w.prs)
	return out
}
