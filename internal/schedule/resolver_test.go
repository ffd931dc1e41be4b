package schedule

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gregmcinnes/topset/internal/models"
	"github.com/gregmcinnes/topset/internal/storage"
)

func testResolver(store storage.Store) *Resolver {
	return NewResolver(Classic(), nil, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClassicSchemes(t *testing.T) {
	p := Classic()

	tests := []struct {
		week        int
		intensities []float64
		reps        []int
		lastAMRAP   bool
	}{
		{1, []float64{0.65, 0.75, 0.85}, []int{5, 5, 5}, true},
		{2, []float64{0.70, 0.80, 0.90}, []int{3, 3, 3}, true},
		{3, []float64{0.75, 0.85, 0.95}, []int{5, 3, 1}, true},
		{4, []float64{0.40, 0.50, 0.60}, []int{5, 5, 5}, false},
		// Week 5 wraps back to week 1 of the next cycle.
		{5, []float64{0.65, 0.75, 0.85}, []int{5, 5, 5}, true},
	}
	for _, tt := range tests {
		scheme := p.SchemeFor(tt.week)
		if len(scheme) != 3 {
			t.Fatalf("week %d: %d sets, want 3", tt.week, len(scheme))
		}
		for i, s := range scheme {
			if s.Intensity != tt.intensities[i] || s.TargetReps != tt.reps[i] {
				t.Errorf("week %d set %d = %.0f%% x%d, want %.0f%% x%d",
					tt.week, i+1, s.Intensity*100, s.TargetReps, tt.intensities[i]*100, tt.reps[i])
			}
		}
		if scheme[2].AMRAP != tt.lastAMRAP {
			t.Errorf("week %d last set AMRAP = %v, want %v", tt.week, scheme[2].AMRAP, tt.lastAMRAP)
		}
		if scheme[0].AMRAP || scheme[1].AMRAP {
			t.Errorf("week %d: only the last set may be a rep-out", tt.week)
		}
	}
}

func TestDayPrescriptionsStructured(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	if err := store.PutTrainingMax(ctx, "Squat", 1, 300); err != nil {
		t.Fatalf("PutTrainingMax: %v", err)
	}

	r := testResolver(store)
	mains, accessories, err := r.DayPrescriptions(ctx, 1, 1)
	if err != nil {
		t.Fatalf("DayPrescriptions: %v", err)
	}
	if len(mains) != 1 || len(accessories) != 1 {
		t.Fatalf("got %d mains, %d accessories, want 1 and 1", len(mains), len(accessories))
	}

	squat := mains[0]
	if squat.Lift != "Squat" || squat.Style != models.StyleStructured {
		t.Fatalf("main = %+v, want structured Squat", squat)
	}
	want := []float64{195, 225, 255}
	if len(squat.SetWeights) != len(want) {
		t.Fatalf("SetWeights = %v, want %v", squat.SetWeights, want)
	}
	for i, w := range want {
		if squat.SetWeights[i] != w {
			t.Errorf("set %d weight = %v, want %v", i+1, squat.SetWeights[i], w)
		}
	}
	if !squat.AMRAPAt(3) || squat.AMRAPAt(2) {
		t.Error("rep-out should be set 3 only")
	}

	leg := accessories[0]
	if leg.Style != models.StyleLinear || leg.Weight != 50 {
		t.Errorf("accessory = %+v, want linear at default 50", leg)
	}
}

func TestDayPrescriptionsUsesLatestMaxFallback(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	// Only week 2 is stored; resolving week 3 falls back to it.
	if err := store.PutTrainingMax(ctx, "Squat", 2, 310); err != nil {
		t.Fatalf("PutTrainingMax: %v", err)
	}

	r := testResolver(store)
	mains, _, err := r.DayPrescriptions(ctx, 3, 1)
	if err != nil {
		t.Fatalf("DayPrescriptions: %v", err)
	}
	// Week 3 top set: 95% of 310 = 294.5 -> 295.
	if got := mains[0].SetWeights[2]; got != 295 {
		t.Errorf("top set = %v, want 295 from the latest stored max", got)
	}
}

func TestDayPrescriptionsDefaultMax(t *testing.T) {
	ctx := context.Background()
	r := testResolver(storage.NewMemStore())

	mains, _, err := r.DayPrescriptions(ctx, 1, 2)
	if err != nil {
		t.Fatalf("DayPrescriptions: %v", err)
	}
	// No stored max: Bench falls back to its program default of 200.
	// Week 1 top set: 85% of 200 = 170.
	if got := mains[0].SetWeights[2]; got != 170 {
		t.Errorf("top set = %v, want 170 from the program default", got)
	}
}

func TestDayPrescriptionsLinearUsesStoredState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	if err := store.PutLinearState(ctx, models.LinearState{
		Lift: "Leg Press", Weight: 270, Increment: 5, Threshold: 3, DeloadFraction: 0.10,
	}); err != nil {
		t.Fatalf("PutLinearState: %v", err)
	}

	r := testResolver(store)
	_, accessories, err := r.DayPrescriptions(ctx, 1, 1)
	if err != nil {
		t.Fatalf("DayPrescriptions: %v", err)
	}
	if got := accessories[0].Weight; got != 270 {
		t.Errorf("linear weight = %v, want stored 270", got)
	}
}

func TestDayPrescriptionsEmptyDay(t *testing.T) {
	r := testResolver(storage.NewMemStore())
	if _, _, err := r.DayPrescriptions(context.Background(), 1, 9); err == nil {
		t.Error("expected error for a day with no scheduled lifts")
	}
}

func TestStartCycleFallbackChain(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	if err := store.PutUniversalMax(ctx, "Bench", 215); err != nil {
		t.Fatalf("PutUniversalMax: %v", err)
	}
	if err := store.ArchiveCycle(ctx, models.CompletedCycle{
		Program:     "classic",
		CompletedAt: time.Now(),
		EndingMaxes: map[string]float64{"Squat": 320},
	}); err != nil {
		t.Fatalf("ArchiveCycle: %v", err)
	}

	r := testResolver(store)
	maxes, err := r.StartCycle(ctx, true, map[string]float64{"Deadlift": 365})
	if err != nil {
		t.Fatalf("StartCycle: %v", err)
	}

	tests := []struct {
		lift string
		want float64
	}{
		{"Squat", 320},    // prior cycle ending max
		{"Deadlift", 365}, // custom override
		{"Bench", 215},    // universal max
		{"Press", 135},    // program default
	}
	for _, tt := range tests {
		if got := maxes[tt.lift]; got != tt.want {
			t.Errorf("%s initial max = %v, want %v", tt.lift, got, tt.want)
		}
		stored, err := store.TrainingMax(ctx, tt.lift, 1)
		if err != nil {
			t.Fatalf("TrainingMax(%s, 1): %v", tt.lift, err)
		}
		if stored != tt.want {
			t.Errorf("stored %s max = %v, want %v", tt.lift, stored, tt.want)
		}
	}
	if _, ok := maxes["Leg Press"]; ok {
		t.Error("linear lifts must not get training maxes seeded")
	}
}

func TestFinishCycleArchivesMaxes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	for lift, start := range map[string]float64{"Squat": 300, "Bench": 200, "Deadlift": 350, "Press": 135} {
		if err := store.PutTrainingMax(ctx, lift, 1, start); err != nil {
			t.Fatalf("PutTrainingMax: %v", err)
		}
	}
	if err := store.PutTrainingMax(ctx, "Squat", 4, 315); err != nil {
		t.Fatalf("PutTrainingMax: %v", err)
	}

	r := testResolver(store)
	started := time.Now().Add(-28 * 24 * time.Hour)
	cycle, err := r.FinishCycle(ctx, started)
	if err != nil {
		t.Fatalf("FinishCycle: %v", err)
	}
	if cycle.StartingMaxes["Squat"] != 300 || cycle.EndingMaxes["Squat"] != 315 {
		t.Errorf("Squat maxes = %v -> %v, want 300 -> 315",
			cycle.StartingMaxes["Squat"], cycle.EndingMaxes["Squat"])
	}

	latest, err := store.LatestCycle(ctx)
	if err != nil {
		t.Fatalf("LatestCycle: %v", err)
	}
	if latest == nil || latest.ID != cycle.ID {
		t.Errorf("LatestCycle = %+v, want the archived cycle", latest)
	}
}
