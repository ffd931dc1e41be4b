package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gregmcinnes/topset/internal/models"
	"github.com/gregmcinnes/topset/internal/progression"
	"github.com/gregmcinnes/topset/internal/storage"
)

// Resolver binds a program to the store and progression engine, producing
// the prescriptions a session runs against.
type Resolver struct {
	Program *Program
	Engine  *progression.Engine
	Store   storage.Store
	Log     *slog.Logger
}

// NewResolver wires a resolver with defaults filled in.
func NewResolver(program *Program, engine *progression.Engine, store storage.Store, log *slog.Logger) *Resolver {
	if engine == nil {
		engine = progression.New(progression.DefaultConfig())
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{Program: program, Engine: engine, Store: store, Log: log}
}

// DayPrescriptions resolves a day's plans into ordered main and accessory
// prescriptions. Each lift's training max is read for the given week,
// falling back to the most recent stored week, then the plan's default.
func (r *Resolver) DayPrescriptions(ctx context.Context, week, day int) (mains, accessories []models.Prescription, err error) {
	plans := r.Program.DayPlans(day)
	if len(plans) == 0 {
		return nil, nil, fmt.Errorf("resolving day %d: no lifts scheduled", day)
	}

	for _, plan := range plans {
		p, err := r.resolve(ctx, plan, week, day)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving %s: %w", plan.Lift, err)
		}
		if plan.Accessory {
			accessories = append(accessories, p)
		} else {
			mains = append(mains, p)
		}
	}
	return mains, accessories, nil
}

func (r *Resolver) resolve(ctx context.Context, plan LiftPlan, week, day int) (models.Prescription, error) {
	p := models.Prescription{
		Lift:       plan.Lift,
		Week:       week,
		Day:        day,
		Style:      plan.Style,
		Sets:       plan.Sets,
		RepsPerSet: plan.RepsPerSet,
		AMRAPSet:   plan.AMRAPSet,
		Accessory:  plan.Accessory,
	}

	switch plan.Style {
	case models.StyleStructured:
		scheme := r.Program.SchemeFor(week)
		if len(scheme) == 0 {
			return p, fmt.Errorf("program %q has no scheme for week %d", r.Program.Name, week)
		}
		tm := r.trainingMax(ctx, plan, week)
		p.Scheme = scheme
		p.SetWeights = r.Engine.SetWeights(tm, scheme)
		p.Sets = len(scheme)
		p.Weight = p.SetWeights[len(p.SetWeights)-1]

	case models.StyleAutoregulated:
		tm := r.trainingMax(ctx, plan, week)
		intensity := plan.Intensity
		if intensity <= 0 {
			intensity = 0.85
		}
		p.Weight = r.Engine.WorkingWeight(tm, intensity)

	case models.StyleLinear:
		p.Weight = plan.DefaultMax
		if r.Store != nil {
			st, err := r.Store.LinearState(ctx, plan.Lift)
			if err != nil {
				r.Log.Warn("reading linear state", "lift", plan.Lift, "error", err)
			}
			if st != nil && st.Weight > 0 {
				p.Weight = st.Weight
			}
		}

	case models.StyleFixed:
		p.Weight = r.trainingMax(ctx, plan, week)

	default:
		return p, fmt.Errorf("unknown progression style %q", plan.Style)
	}

	if p.Weight <= 0 {
		return p, progression.ErrZeroMax
	}
	return p, nil
}

// trainingMax reads the lift's max for the week, then the latest stored
// week, then the plan default. Always positive when the plan has a
// positive default.
func (r *Resolver) trainingMax(ctx context.Context, plan LiftPlan, week int) float64 {
	if r.Store != nil {
		if tm, err := r.Store.TrainingMax(ctx, plan.Lift, week); err == nil && tm > 0 {
			return tm
		}
		if latest, err := r.Store.LatestTrainingMax(ctx, plan.Lift); err == nil && latest.Value > 0 {
			return latest.Value
		} else if err != nil && err != storage.ErrNotFound {
			r.Log.Warn("reading training max", "lift", plan.Lift, "error", err)
		}
	}
	return plan.DefaultMax
}

// StartCycle seeds week-1 training maxes for every lift in the program
// through the carry-over fallback chain and returns what was stored.
// Custom holds user-entered overrides; carryOver requests seeding from the
// previous cycle's ending maxes.
func (r *Resolver) StartCycle(ctx context.Context, carryOver bool, custom map[string]float64) (map[string]float64, error) {
	in := progression.CarryOverInput{
		CarryOver:      carryOver,
		Custom:         custom,
		ProgramDefault: r.Program.DefaultMaxes(),
	}
	if r.Store != nil {
		prior, err := r.Store.LatestCycle(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading prior cycle: %w", err)
		}
		in.PriorCycle = prior
		universal, err := r.Store.UniversalMaxes(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading universal maxes: %w", err)
		}
		in.Universal = universal
	}

	maxes := make(map[string]float64, len(r.Program.Lifts))
	for _, plan := range r.Program.Lifts {
		if plan.Style == models.StyleLinear {
			continue
		}
		maxes[plan.Lift] = progression.InitialMax(plan.Lift, in)
	}

	if r.Store != nil {
		for lift, value := range maxes {
			if err := r.Store.PutTrainingMax(ctx, lift, 1, value); err != nil {
				return nil, fmt.Errorf("seeding max for %s: %w", lift, err)
			}
		}
	}
	return maxes, nil
}

// FinishCycle archives the completed cycle: the week-1 maxes it started
// from and the latest maxes it ended with.
func (r *Resolver) FinishCycle(ctx context.Context, startedAt time.Time) (*models.CompletedCycle, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("archiving cycle: no store configured")
	}

	cycle := models.CompletedCycle{
		ID:            uuid.New(),
		Program:       r.Program.Name,
		StartedAt:     startedAt,
		CompletedAt:   time.Now(),
		StartingMaxes: make(map[string]float64),
		EndingMaxes:   make(map[string]float64),
	}
	for _, plan := range r.Program.Lifts {
		if plan.Style == models.StyleLinear {
			continue
		}
		if tm, err := r.Store.TrainingMax(ctx, plan.Lift, 1); err == nil {
			cycle.StartingMaxes[plan.Lift] = tm
		}
		if latest, err := r.Store.LatestTrainingMax(ctx, plan.Lift); err == nil {
			cycle.EndingMaxes[plan.Lift] = latest.Value
		}
	}

	if err := r.Store.ArchiveCycle(ctx, cycle); err != nil {
		return nil, fmt.Errorf("archiving cycle: %w", err)
	}
	return &cycle, nil
}
