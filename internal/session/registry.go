package session

import (
	"github.com/billie-coop/sift/internal/csync"
)

// Registry tracks open sessions so the app can tear them down on navigation
// and on exit.
type Registry struct {
	deps     Deps
	sessions *csync.Map[string, *Controller]
}

// NewRegistry creates a registry whose sessions share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		sessions: csync.NewMap[string, *Controller](),
	}
}

// OpenSandbox creates and registers a sandbox session.
func (r *Registry) OpenSandbox() (*Controller, error) {
	c, err := NewSandbox(r.deps)
	if err != nil {
		return nil, err
	}
	r.sessions.Set(c.ID(), c)
	return c, nil
}

// OpenProject creates and registers a project session. The caller runs Load.
func (r *Registry) OpenProject(projectID int, path string) (*Controller, error) {
	c, err := NewProjectView(r.deps, projectID, path)
	if err != nil {
		return nil, err
	}
	r.sessions.Set(c.ID(), c)
	return c, nil
}

// Close closes and forgets one session. It reports whether it was open.
func (r *Registry) Close(id string) bool {
	c, ok := r.sessions.Take(id)
	if ok {
		c.Close()
	}
	return ok
}

// CloseAll closes every open session.
func (r *Registry) CloseAll() {
	for _, c := range r.sessions.Drain() {
		c.Close()
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	return r.sessions.Len()
}
