package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gregmcinnes/topset/internal/models"
	"github.com/gregmcinnes/topset/internal/schedule"
	"github.com/gregmcinnes/topset/internal/session"
	"github.com/gregmcinnes/topset/internal/storage"
	"github.com/gregmcinnes/topset/internal/units"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) (*Server, *storage.MemStore) {
	t.Helper()
	return newTestServerOpts(t, Options{})
}

func newTestServerOpts(t *testing.T, opts Options) (*Server, *storage.MemStore) {
	t.Helper()
	store := storage.NewMemStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := schedule.NewResolver(schedule.Classic(), nil, store, log)
	s := New(store, nil, resolver, opts, testAPIKey, log)
	return s, store
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateSessionRequiresAPIKey(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString(`{"week":1,"day":1}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	if err := store.PutTrainingMax(ctx, "Squat", 1, 300); err != nil {
		t.Fatalf("PutTrainingMax: %v", err)
	}

	rec := doJSON(t, s, http.MethodPost, "/api/v1/sessions", map[string]int{"week": 1, "day": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body %s", rec.Code, rec.Body)
	}
	snap := decode[session.Snapshot](t, rec)
	if len(snap.Exercises) == 0 {
		t.Fatal("snapshot has no exercises")
	}
	base := "/api/v1/sessions/" + snap.ID.String()

	rec = doJSON(t, s, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get state status = %d", rec.Code)
	}

	// Squat day, week 1: sets 1 and 2 advance; set 3 is the rep-out.
	for set := 1; set <= 2; set++ {
		rec = doJSON(t, s, http.MethodPost, base+"/complete", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("complete set %d status = %d, body %s", set, rec.Code, rec.Body)
		}
	}
	rec = doJSON(t, s, http.MethodPost, base+"/complete", nil)
	resp := decode[struct {
		Event session.Event `json:"event"`
	}](t, rec)
	if resp.Event.Kind != session.EventAMRAPInput {
		t.Fatalf("set 3 event = %q, want amrap_input", resp.Event.Kind)
	}

	// Completing again while the rep count is outstanding conflicts.
	rec = doJSON(t, s, http.MethodPost, base+"/complete", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("complete while pending status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, base+"/reps", map[string]int{"reps": 8})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit reps status = %d, body %s", rec.Code, rec.Body)
	}
	repResp := decode[struct {
		Outcome *struct {
			NextMax float64 `json:"next_max"`
			IsNewPR bool    `json:"is_new_pr"`
		} `json:"outcome"`
	}](t, rec)
	if repResp.Outcome == nil || !repResp.Outcome.IsNewPR {
		t.Errorf("outcome = %+v, want a new PR", repResp.Outcome)
	}

	rec = doJSON(t, s, http.MethodGet, base+"/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	summary := decode[session.Summary](t, rec)
	if len(summary.Records) != 1 {
		t.Errorf("summary records = %+v, want one PR", summary.Records)
	}

	rec = doJSON(t, s, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions/0b37e1a6-53c3-4a4e-9c3e-000000000000", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed session ID status = %d, want 400", rec.Code)
	}
}

func TestPrescriptionsEndpoint(t *testing.T) {
	s, store := newTestServer(t)
	if err := store.PutTrainingMax(context.Background(), "Squat", 1, 300); err != nil {
		t.Fatalf("PutTrainingMax: %v", err)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/prescriptions?week=1&day=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Mains []struct {
			Lift       string    `json:"lift"`
			SetWeights []float64 `json:"set_weights"`
		} `json:"mains"`
	}](t, rec)
	if len(resp.Mains) != 1 || resp.Mains[0].Lift != "Squat" {
		t.Fatalf("mains = %+v, want Squat", resp.Mains)
	}
	if got := resp.Mains[0].SetWeights[2]; got != 255 {
		t.Errorf("top set = %v, want 255", got)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/prescriptions?week=1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing day status = %d, want 400", rec.Code)
	}
}

func TestPutMaxAndHistory(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/v1/lifts/Squat/max", map[string]any{"week": 1, "value": 300.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("put max status = %d, body %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, s, http.MethodPut, "/api/v1/lifts/Squat/max", map[string]any{"week": 1, "value": -5.0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative max status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/lifts/Squat/maxes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	history := decode[[]struct {
		Week  int     `json:"week"`
		Value float64 `json:"value"`
	}](t, rec)
	if len(history) != 1 || history[0].Value != 300 {
		t.Errorf("history = %+v, want one week at 300", history)
	}
}

func TestStartCycle(t *testing.T) {
	s, store := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/cycles", map[string]any{
		"carry_over": false,
		"custom":     map[string]float64{"Squat": 305},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start cycle status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Maxes map[string]float64 `json:"maxes"`
	}](t, rec)
	if resp.Maxes["Squat"] != 305 {
		t.Errorf("Squat = %v, want custom 305", resp.Maxes["Squat"])
	}
	if resp.Maxes["Bench"] != 200 {
		t.Errorf("Bench = %v, want program default 200", resp.Maxes["Bench"])
	}

	stored, err := store.TrainingMax(context.Background(), "Squat", 1)
	if err != nil || stored != 305 {
		t.Errorf("stored Squat max = %v (%v), want 305", stored, err)
	}
}

func TestScoreEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/strength/score", map[string]any{
		"formula": "wilks", "total_kg": 500.0, "bodyweight_kg": 83.0, "male": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("score status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Score  float64 `json:"score"`
		Rating string  `json:"rating"`
	}](t, rec)
	if resp.Score < 333 || resp.Score > 335 {
		t.Errorf("Wilks score = %v, want ~333.75", resp.Score)
	}
	if resp.Rating != "Intermediate" {
		t.Errorf("rating = %q, want Intermediate", resp.Rating)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/strength/score", map[string]any{
		"formula": "wilks", "total_kg": 0.0, "bodyweight_kg": 83.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero total status = %d, want 400", rec.Code)
	}
}

func TestPercentileEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	path := fmt.Sprintf("/api/v1/strength/percentile?lift=squat&lift_kg=%v&bodyweight_kg=%v", 220.0, 83.0)
	rec := doJSON(t, s, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("percentile status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Percentile  int    `json:"percentile"`
		WeightClass string `json:"weight_class"`
	}](t, rec)
	if resp.WeightClass != "83" {
		t.Errorf("weight class = %q, want 83", resp.WeightClass)
	}
	if resp.Percentile < 0 || resp.Percentile > 99 {
		t.Errorf("percentile = %d, want within [0, 99]", resp.Percentile)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/strength/percentile?lift=squat", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing params status = %d, want 400", rec.Code)
	}
}

func TestFinishCycleArchivesAndCarriesOver(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/cycles", map[string]any{
		"custom": map[string]float64{"Squat": 305},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start cycle status = %d, body %s", rec.Code, rec.Body)
	}

	// The cycle progresses: a higher max lands at week 4.
	rec = doJSON(t, s, http.MethodPut, "/api/v1/lifts/Squat/max", map[string]any{"week": 4, "value": 320.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("put max status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/cycles/finish", map[string]any{
		"started_at": time.Now().AddDate(0, 0, -28).UTC(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("finish cycle status = %d, body %s", rec.Code, rec.Body)
	}
	cycle := decode[models.CompletedCycle](t, rec)
	if cycle.StartingMaxes["Squat"] != 305 {
		t.Errorf("starting Squat = %v, want 305", cycle.StartingMaxes["Squat"])
	}
	if cycle.EndingMaxes["Squat"] != 320 {
		t.Errorf("ending Squat = %v, want 320", cycle.EndingMaxes["Squat"])
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/cycles/latest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("latest cycle status = %d, want 200 after finish", rec.Code)
	}

	// The next cycle's carry-over seeds from the archived ending maxes.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/cycles", map[string]any{"carry_over": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("second start cycle status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Maxes map[string]float64 `json:"maxes"`
	}](t, rec)
	if resp.Maxes["Squat"] != 320 {
		t.Errorf("carried-over Squat = %v, want 320", resp.Maxes["Squat"])
	}
}

func TestPutUniversalMaxSeedsCycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/v1/lifts/Bench/universal-max", map[string]any{"value": 215.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("put universal max status = %d, body %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, s, http.MethodPut, "/api/v1/lifts/Bench/universal-max", map[string]any{"value": -1.0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative universal max status = %d, want 400", rec.Code)
	}

	// Universal beats the program default (200) when no prior cycle or
	// custom value applies.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/cycles", map[string]any{})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start cycle status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Maxes map[string]float64 `json:"maxes"`
	}](t, rec)
	if resp.Maxes["Bench"] != 215 {
		t.Errorf("Bench = %v, want universal 215", resp.Maxes["Bench"])
	}
}

func TestWeekLogBestEntry(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	for _, e := range []models.LogEntry{
		{ID: uuid.New(), Lift: "Squat", Week: 1, Day: 1, Weight: 255, Reps: 5, EstimatedMax: 297.5, LoggedAt: time.Now().Add(-time.Hour)},
		{ID: uuid.New(), Lift: "Squat", Week: 1, Day: 1, Weight: 255, Reps: 8, EstimatedMax: 323, LoggedAt: time.Now()},
	} {
		if err := store.AppendLogEntry(ctx, e); err != nil {
			t.Fatalf("AppendLogEntry: %v", err)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/lifts/Squat/logs?week=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("week logs status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Entries []models.LogEntry `json:"entries"`
		Best    *models.LogEntry  `json:"best"`
	}](t, rec)
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(resp.Entries))
	}
	if resp.Best == nil || resp.Best.EstimatedMax != 323 {
		t.Errorf("best = %+v, want the 323 e1RM entry", resp.Best)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/lifts/Squat/logs?week=zero", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid week status = %d, want 400", rec.Code)
	}
}

func TestSettingsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/v1/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("settings status = %d", rec.Code)
	}
	resp := decode[struct {
		Unit string `json:"unit"`
	}](t, rec)
	if resp.Unit != "lb" {
		t.Errorf("unit = %q, want lb default", resp.Unit)
	}

	s, _ = newTestServerOpts(t, Options{Unit: "kg"})
	rec = doJSON(t, s, http.MethodGet, "/api/v1/settings", nil)
	resp = decode[struct {
		Unit string `json:"unit"`
	}](t, rec)
	if resp.Unit != "kg" {
		t.Errorf("unit = %q, want kg", resp.Unit)
	}
}

// A kg deployment accepts max values in kilograms and returns them the
// same way; storage stays in pounds.
func TestPutMaxKilogramsRoundTrip(t *testing.T) {
	s, store := newTestServerOpts(t, Options{Unit: "kg"})

	rec := doJSON(t, s, http.MethodPut, "/api/v1/lifts/Squat/max", map[string]any{"week": 1, "value": 100.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("put max status = %d, body %s", rec.Code, rec.Body)
	}

	stored, err := store.TrainingMax(context.Background(), "Squat", 1)
	if err != nil {
		t.Fatalf("TrainingMax: %v", err)
	}
	wantLb := 100.0 / units.KilogramsPerPound
	if math.Abs(stored-wantLb) > 1e-9 {
		t.Errorf("stored = %v lb, want %v lb", stored, wantLb)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/v1/lifts/Squat/maxes", nil)
	history := decode[[]models.TrainingMax](t, rec)
	if len(history) != 1 || math.Abs(history[0].Value-100) > 1e-9 {
		t.Errorf("history = %+v, want one week at 100 kg", history)
	}
}
