package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gregmcinnes/topset/internal/progression"
	"github.com/gregmcinnes/topset/internal/session"
	"github.com/gregmcinnes/topset/internal/storage"
	"github.com/gregmcinnes/topset/internal/strength"
	"github.com/gregmcinnes/topset/internal/units"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"unit":         s.displayUnit(),
		"rest_seconds": int(s.opts.RestDuration / time.Second),
		"supersets":    s.opts.SupersetsEnabled,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Week int `json:"week"`
		Day  int `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Week < 1 || req.Day < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week and day must be >= 1"})
		return
	}

	mains, accessories, err := s.resolver.DayPrescriptions(r.Context(), req.Week, req.Day)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	workout, err := session.New(s.sessionConfig(req.Week, req.Day), mains, accessories)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.sessions.add(workout)
	writeJSON(w, http.StatusCreated, workout.Snapshot())
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, workout.Snapshot())
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, workout.Summary())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	s.sessions.remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	ev, err := workout.CompleteSet(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": ev, "state": workout.Snapshot()})
}

func (s *Server) handleFailSet(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	ev, err := workout.FailSet(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": ev, "state": workout.Snapshot()})
}

func (s *Server) handleSubmitReps(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Reps int `json:"reps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	ev, outcome, err := workout.SubmitReps(r.Context(), req.Reps)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":   ev,
		"outcome": outcome,
		"state":   workout.Snapshot(),
	})
}

func (s *Server) handleConfirmLinear(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	outcome, err := workout.ConfirmLinear(r.Context(), req.Success)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcome": outcome, "state": workout.Snapshot()})
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Exercise int `json:"exercise"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := workout.JumpTo(req.Exercise); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout.Snapshot())
}

func (s *Server) handlePauseTimer(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	workout.PauseTimer()
	writeJSON(w, http.StatusOK, workout.Snapshot())
}

func (s *Server) handleResumeTimer(w http.ResponseWriter, r *http.Request) {
	workout, ok := s.session(w, r)
	if !ok {
		return
	}
	workout.ResumeTimer()
	writeJSON(w, http.StatusOK, workout.Snapshot())
}

func (s *Server) handlePrescriptions(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil || week < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week parameter required"})
		return
	}
	day, err := strconv.Atoi(r.URL.Query().Get("day"))
	if err != nil || day < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day parameter required"})
		return
	}

	mains, accessories, err := s.resolver.DayPrescriptions(r.Context(), week, day)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mains": mains, "accessories": accessories})
}

func (s *Server) handleMaxHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.TrainingMaxHistory(r.Context(), chi.URLParam(r, "lift"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	for i := range history {
		history[i].Value = units.Convert(history[i].Value, s.metric())
	}
	writeJSON(w, http.StatusOK, history)
}

// handleLogHistory returns a lift's recent entries, or — with a week
// parameter — the entries for that week plus the one the progression
// engine treats as authoritative when the week holds conflicting logs.
func (s *Server) handleLogHistory(w http.ResponseWriter, r *http.Request) {
	lift := chi.URLParam(r, "lift")

	if v := r.URL.Query().Get("week"); v != "" {
		week, err := strconv.Atoi(v)
		if err != nil || week < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week"})
			return
		}
		entries, err := s.store.LogEntries(r.Context(), lift, week)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"entries": entries,
			"best":    progression.BestWeekEntry(entries),
		})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := s.store.LogHistory(r.Context(), lift, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePutMax(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Week  int     `json:"week"`
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Week < 1 || req.Value <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week must be >= 1 and value positive"})
		return
	}

	lift := chi.URLParam(r, "lift")
	value := units.FromDisplay(req.Value, s.metric())
	if err := s.store.PutTrainingMax(r.Context(), lift, req.Week, value); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lift": lift, "week": req.Week, "value": req.Value, "unit": s.displayUnit()})
}

// handlePutUniversalMax stores a max that persists across cycles and
// programs, the third source in the cycle-start fallback chain.
func (s *Server) handlePutUniversalMax(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Value <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value must be positive"})
		return
	}

	lift := chi.URLParam(r, "lift")
	value := units.FromDisplay(req.Value, s.metric())
	if err := s.store.PutUniversalMax(r.Context(), lift, value); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lift": lift, "value": req.Value, "unit": s.displayUnit()})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.PersonalRecords(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStartCycle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CarryOver bool               `json:"carry_over"`
		Custom    map[string]float64 `json:"custom,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	maxes, err := s.resolver.StartCycle(r.Context(), req.CarryOver, req.Custom)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"maxes": maxes})
}

// handleFinishCycle archives the current cycle's starting and ending
// maxes so the next cycle's carry-over can seed from them.
func (s *Server) handleFinishCycle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartedAt time.Time `json:"started_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	cycle, err := s.resolver.FinishCycle(r.Context(), req.StartedAt)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, cycle)
}

func (s *Server) handleLatestCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := s.store.LatestCycle(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if cycle == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed cycles"})
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Formula      string  `json:"formula"`
		TotalKg      float64 `json:"total_kg"`
		BodyweightKg float64 `json:"bodyweight_kg"`
		Male         bool    `json:"male"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	formula := strength.Formula(req.Formula)
	score, err := strength.Score(formula, req.TotalKg, req.BodyweightKg, req.Male)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"formula": req.Formula,
		"score":   score,
		"rating":  strength.RatingFor(formula, score),
	})
}

func (s *Server) handlePercentile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	liftKg, err1 := strconv.ParseFloat(q.Get("lift_kg"), 64)
	bodyweightKg, err2 := strconv.ParseFloat(q.Get("bodyweight_kg"), 64)
	if err1 != nil || err2 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lift_kg and bodyweight_kg parameters required"})
		return
	}
	male := q.Get("sex") != "female"

	lift := strength.CompetitionLift(q.Get("lift"))
	pct, err := strength.Percentile(lift, liftKg, bodyweightKg, male)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lift":         lift,
		"percentile":   pct,
		"weight_class": strength.WeightClass(bodyweightKg, male),
	})
}

// session resolves the {id} route param to an active workout, writing the
// error response itself when the lookup fails.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Workout, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return nil, false
	}
	workout, ok := s.sessions.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return workout, true
}

// writeSessionError maps state-machine errors to HTTP statuses: bad input
// is 400, transitions invalid in the current state are 409.
func writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidReps):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrSessionComplete),
		errors.Is(err, session.ErrConfirmationPending),
		errors.Is(err, session.ErrNoPendingInput):
		status = http.StatusConflict
	case errors.Is(err, progression.ErrZeroMax):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
