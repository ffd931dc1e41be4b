package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gregmcinnes/topset/internal/models"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteTrainingMaxes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.TrainingMax(ctx, "Squat", 1); err != ErrNotFound {
		t.Fatalf("missing max: error = %v, want ErrNotFound", err)
	}

	for week, value := range map[int]float64{1: 300, 2: 305, 3: 310} {
		if err := s.PutTrainingMax(ctx, "Squat", week, value); err != nil {
			t.Fatalf("PutTrainingMax week %d: %v", week, err)
		}
	}

	got, err := s.TrainingMax(ctx, "Squat", 2)
	if err != nil {
		t.Fatalf("TrainingMax: %v", err)
	}
	if got != 305 {
		t.Errorf("TrainingMax(Squat, 2) = %v, want 305", got)
	}

	latest, err := s.LatestTrainingMax(ctx, "Squat")
	if err != nil {
		t.Fatalf("LatestTrainingMax: %v", err)
	}
	if latest.Week != 3 || latest.Value != 310 {
		t.Errorf("LatestTrainingMax = week %d value %v, want week 3 value 310", latest.Week, latest.Value)
	}

	// Upsert overwrites.
	if err := s.PutTrainingMax(ctx, "Squat", 2, 307.5); err != nil {
		t.Fatalf("PutTrainingMax upsert: %v", err)
	}
	got, _ = s.TrainingMax(ctx, "Squat", 2)
	if got != 307.5 {
		t.Errorf("after upsert = %v, want 307.5", got)
	}

	history, err := s.TrainingMaxHistory(ctx, "Squat")
	if err != nil {
		t.Fatalf("TrainingMaxHistory: %v", err)
	}
	if len(history) != 3 || history[0].Week != 1 || history[2].Week != 3 {
		t.Errorf("history = %+v, want 3 weeks ascending", history)
	}
}

func TestSQLiteLogEntriesAndRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry := models.LogEntry{
		ID:           uuid.New(),
		Lift:         "Bench",
		Week:         1,
		Day:          2,
		Weight:       225,
		Reps:         7,
		TargetReps:   5,
		EstimatedMax: 277.5,
		Note:         "felt fast",
		LoggedAt:     time.Now(),
	}
	if err := s.AppendLogEntry(ctx, entry); err != nil {
		t.Fatalf("AppendLogEntry: %v", err)
	}

	entries, err := s.LogEntries(ctx, "Bench", 1)
	if err != nil {
		t.Fatalf("LogEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	got := entries[0]
	if got.ID != entry.ID || got.Weight != 225 || got.Reps != 7 || got.Note != "felt fast" {
		t.Errorf("round-tripped entry = %+v", got)
	}
	if !got.LoggedAt.Equal(entry.LoggedAt) {
		t.Errorf("LoggedAt = %v, want %v", got.LoggedAt, entry.LoggedAt)
	}

	pr, err := s.PersonalRecord(ctx, "Bench")
	if err != nil {
		t.Fatalf("PersonalRecord: %v", err)
	}
	if pr != nil {
		t.Fatalf("expected nil record before any PR stored, got %+v", pr)
	}

	if err := s.PutPersonalRecord(ctx, models.PersonalRecord{Lift: "Bench", Entry: entry}); err != nil {
		t.Fatalf("PutPersonalRecord: %v", err)
	}
	pr, err = s.PersonalRecord(ctx, "Bench")
	if err != nil {
		t.Fatalf("PersonalRecord: %v", err)
	}
	if pr == nil || pr.Entry.EstimatedMax != 277.5 {
		t.Errorf("stored PR = %+v, want e1RM 277.5", pr)
	}

	all, err := s.PersonalRecords(ctx)
	if err != nil {
		t.Fatalf("PersonalRecords: %v", err)
	}
	if len(all) != 1 || all[0].Lift != "Bench" {
		t.Errorf("PersonalRecords = %+v, want one Bench record", all)
	}
}

func TestSQLiteLinearAndUniversal(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st, err := s.LinearState(ctx, "Row")
	if err != nil {
		t.Fatalf("LinearState: %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil state, got %+v", st)
	}

	want := models.LinearState{Lift: "Row", Weight: 200, Increment: 5, Failures: 2, Threshold: 3, DeloadFraction: 0.10}
	if err := s.PutLinearState(ctx, want); err != nil {
		t.Fatalf("PutLinearState: %v", err)
	}
	st, err = s.LinearState(ctx, "Row")
	if err != nil {
		t.Fatalf("LinearState: %v", err)
	}
	if st == nil || *st != want {
		t.Errorf("LinearState = %+v, want %+v", st, want)
	}

	if err := s.PutUniversalMax(ctx, "Squat", 315); err != nil {
		t.Fatalf("PutUniversalMax: %v", err)
	}
	maxes, err := s.UniversalMaxes(ctx)
	if err != nil {
		t.Fatalf("UniversalMaxes: %v", err)
	}
	if maxes["Squat"] != 315 {
		t.Errorf("UniversalMaxes = %v, want Squat 315", maxes)
	}
}

func TestSQLiteCycles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	latest, err := s.LatestCycle(ctx)
	if err != nil {
		t.Fatalf("LatestCycle: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil before any archive, got %+v", latest)
	}

	now := time.Now()
	cycle := models.CompletedCycle{
		ID:            uuid.New(),
		Program:       "classic",
		StartedAt:     now.Add(-28 * 24 * time.Hour),
		CompletedAt:   now,
		StartingMaxes: map[string]float64{"Squat": 300, "Bench": 200},
		EndingMaxes:   map[string]float64{"Squat": 315, "Bench": 207.5},
	}
	if err := s.ArchiveCycle(ctx, cycle); err != nil {
		t.Fatalf("ArchiveCycle: %v", err)
	}

	latest, err = s.LatestCycle(ctx)
	if err != nil {
		t.Fatalf("LatestCycle: %v", err)
	}
	if latest == nil || latest.ID != cycle.ID {
		t.Fatalf("LatestCycle = %+v, want archived cycle", latest)
	}
	if latest.EndingMaxes["Squat"] != 315 {
		t.Errorf("EndingMaxes = %v, want Squat 315", latest.EndingMaxes)
	}
}
