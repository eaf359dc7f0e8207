package tickets

import (
	"context"
	"sync"

	"github.com/spec-kit/rental-portal/internal/events"
)

// Registry keeps one controller per session so in-flight markers span the
// requests of that session.
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
	build       func(sessionID string) *Controller
}

// NewRegistry creates a registry that builds controllers on first use.
func NewRegistry(build func(sessionID string) *Controller) *Registry {
	return &Registry{controllers: make(map[string]*Controller), build: build}
}

// For returns the controller of a session, creating it when needed.
func (r *Registry) For(sessionID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[sessionID]; ok {
		return c
	}
	c := r.build(sessionID)
	r.controllers[sessionID] = c
	return c
}

// Release closes and forgets the controller of a session.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	c, ok := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}

// Len reports how many sessions hold a controller.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Sessions lists the session ids that hold a controller.
func (r *Registry) Sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.controllers))
	for id := range r.controllers {
		ids = append(ids, id)
	}
	return ids
}

// ReleaseOnSignOut is an event handler that drops a session's controller when it ends.
func (r *Registry) ReleaseOnSignOut(_ context.Context, e events.Event) error {
	if e.Type == events.EventSessionSignedOut {
		r.Release(e.SessionID)
	}
	return nil
}
