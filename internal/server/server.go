package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gregmcinnes/topset/internal/progression"
	"github.com/gregmcinnes/topset/internal/schedule"
	"github.com/gregmcinnes/topset/internal/session"
	"github.com/gregmcinnes/topset/internal/storage"
)

// Options tunes per-session behavior set from config.
type Options struct {
	// Unit is the display unit ("lb" or "kg"). Training-max endpoints
	// accept and return values in this unit; storage stays in pounds.
	Unit                 string
	RestDuration         time.Duration
	SupersetsEnabled     bool
	LinearIncrement      float64
	LinearThreshold      int
	LinearDeloadFraction float64
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    storage.Store
	engine   *progression.Engine
	resolver *schedule.Resolver
	sessions *registry
	opts     Options
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(store storage.Store, engine *progression.Engine, resolver *schedule.Resolver, opts Options, apiKey string, log *slog.Logger) *Server {
	if engine == nil {
		engine = progression.New(progression.DefaultConfig())
	}
	s := &Server{
		store:    store,
		engine:   engine,
		resolver: resolver,
		sessions: newRegistry(),
		opts:     opts,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/settings", s.handleSettings)
	s.router.Get("/api/v1/sessions/{id}", s.handleSessionState)
	s.router.Get("/api/v1/sessions/{id}/summary", s.handleSessionSummary)
	s.router.Get("/api/v1/prescriptions", s.handlePrescriptions)
	s.router.Get("/api/v1/lifts/{lift}/maxes", s.handleMaxHistory)
	s.router.Get("/api/v1/lifts/{lift}/logs", s.handleLogHistory)
	s.router.Get("/api/v1/records", s.handleRecords)
	s.router.Get("/api/v1/cycles/latest", s.handleLatestCycle)
	s.router.Get("/api/v1/strength/percentile", s.handlePercentile)
	s.router.Post("/api/v1/strength/score", s.handleScore)

	// Mutating endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/sessions", s.handleCreateSession)
		r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
		r.Post("/api/v1/sessions/{id}/complete", s.handleCompleteSet)
		r.Post("/api/v1/sessions/{id}/fail", s.handleFailSet)
		r.Post("/api/v1/sessions/{id}/reps", s.handleSubmitReps)
		r.Post("/api/v1/sessions/{id}/linear", s.handleConfirmLinear)
		r.Post("/api/v1/sessions/{id}/jump", s.handleJump)
		r.Post("/api/v1/sessions/{id}/timer/pause", s.handlePauseTimer)
		r.Post("/api/v1/sessions/{id}/timer/resume", s.handleResumeTimer)
		r.Put("/api/v1/lifts/{lift}/max", s.handlePutMax)
		r.Put("/api/v1/lifts/{lift}/universal-max", s.handlePutUniversalMax)
		r.Post("/api/v1/cycles", s.handleStartCycle)
		r.Post("/api/v1/cycles/finish", s.handleFinishCycle)
	})
}

// displayUnit returns the configured display unit, defaulting to pounds.
func (s *Server) displayUnit() string {
	if s.opts.Unit == "" {
		return "lb"
	}
	return s.opts.Unit
}

func (s *Server) metric() bool {
	return s.opts.Unit == "kg"
}

// sessionConfig builds the per-workout config from server options.
func (s *Server) sessionConfig(week, day int) session.Config {
	return session.Config{
		Week:                 week,
		Day:                  day,
		RestDuration:         s.opts.RestDuration,
		SupersetsEnabled:     s.opts.SupersetsEnabled,
		Engine:               s.engine,
		Store:                s.store,
		Log:                  s.log,
		LinearIncrement:      s.opts.LinearIncrement,
		LinearThreshold:      s.opts.LinearThreshold,
		LinearDeloadFraction: s.opts.LinearDeloadFraction,
	}
}
