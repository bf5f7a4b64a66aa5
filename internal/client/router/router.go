// Package router tracks which view the client is showing. It distinguishes
// soft navigation (push a path) from hard redirects, which discard history
// and in-progress view state the way a full page load does.
package router

import (
	"slices"
	"sync"
)

// View paths.
const (
	HomePath      = "/"
	LoginPath     = "/auth/login"
	RegisterPath  = "/auth/register"
	DashboardPath = "/dashboard"
)

// protectedPaths require an authenticated session.
var protectedPaths = []string{DashboardPath}

// IsProtected reports whether path needs an authenticated session.
func IsProtected(path string) bool {
	return slices.Contains(protectedPaths, path)
}

// Known reports whether path names a view.
func Known(path string) bool {
	switch path {
	case HomePath, LoginPath, RegisterPath, DashboardPath:
		return true
	}
	return false
}

// Router is safe for concurrent use.
type Router struct {
	mu         sync.Mutex
	history    []string
	onRedirect []func(path string)
}

func New(start string) *Router {
	if start == "" {
		start = HomePath
	}
	return &Router{history: []string{start}}
}

// Current returns the path being shown.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[len(r.history)-1]
}

// Navigate pushes path onto the history. Navigating to the current path is
// a no-op.
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.history[len(r.history)-1] == path {
		return
	}
	r.history = append(r.history, path)
}

// Replace swaps the current entry for path without touching the rest of
// the history and without running redirect hooks.
func (r *Router) Replace(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[len(r.history)-1] = path
}

// Back pops one entry and reports whether it could.
func (r *Router) Back() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) < 2 {
		return false
	}
	r.history = r.history[:len(r.history)-1]
	return true
}

// Redirect replaces the whole history with path and then runs the hooks
// registered with OnRedirect, outside the router lock.
func (r *Router) Redirect(path string) {
	r.mu.Lock()
	r.history = []string{path}
	hooks := slices.Clone(r.onRedirect)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(path)
	}
}

// OnRedirect registers fn to run after every hard redirect.
func (r *Router) OnRedirect(fn func(path string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRedirect = append(r.onRedirect, fn)
}
