package server

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gregmcinnes/topset/internal/session"
)

// registry tracks active workouts by session ID. Sessions live in memory
// only; a restart loses them by design, with log entries and maxes already
// persisted as they happened.
type registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session.Workout
}

func newRegistry() *registry {
	return &registry{sessions: make(map[uuid.UUID]*session.Workout)}
}

func (r *registry) add(w *session.Workout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[w.ID()] = w
}

func (r *registry) get(id uuid.UUID) (*session.Workout, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.sessions[id]
	return w, ok
}

func (r *registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
