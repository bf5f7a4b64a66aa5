// Package services contains application services for the client. The
// session manager owns the authenticated user and drives token restoration
// at startup along with the login, register and logout flows.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authclient/internal/client/client"
	"github.com/dmitrijs2005/authclient/internal/client/models"
	"github.com/dmitrijs2005/authclient/internal/client/tokenstore"
	"github.com/dmitrijs2005/authclient/internal/logging"
	"github.com/dmitrijs2005/authclient/internal/metrics"
)

var (
	// ErrSessionChanged is returned by a call whose result was discarded
	// because the session was logged out or reloaded while it was in flight.
	ErrSessionChanged = errors.New("session changed while request was in flight")

	// ErrProfileFetch wraps the failure of the profile fetch that follows a
	// successful login.
	ErrProfileFetch = errors.New("profile fetch failed")

	// ErrNotAuthenticated is returned by calls that need a logged-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// SessionOption customises a SessionManager.
type SessionOption func(*SessionManager)

// WithMetrics records logins and state transitions.
func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *SessionManager) {
		s.metrics = m
	}
}

// SessionManager owns the in-memory session {user, loading}. Create one per
// running client and pass it to the views that need it.
//
// Two counters guard against stale completions: gen advances on Logout and
// Reload, and nothing started under an older gen may write the token or the
// user; load advances on Reload and identifies which restoration is allowed
// to clear the loading flag. Overlapping logins share a gen, so the last one
// to finish wins. A login that stores its token while a restoration is
// pending advances gen once, so that restoration cannot later clear the
// token or the user the login produced.
type SessionManager struct {
	api     client.Client
	store   tokenstore.Store
	logger  logging.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	state   models.State
	gen     uint64
	load    uint64
	ready   chan struct{}
	subs    map[int]chan models.State
	nextSub int

	// gen the pending restoration runs under
	restoreGen uint64
}

// NewSessionManager returns a manager in the loading state and starts
// restoring the session from the stored token in the background. Ready is
// closed once restoration settles.
func NewSessionManager(ctx context.Context, api client.Client, store tokenstore.Store, logger logging.Logger, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		api:    api,
		store:  store,
		logger: logger.With("component", "session"),
		state:  models.State{Loading: true},
		ready:  make(chan struct{}),
		subs:   make(map[int]chan models.State),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.restore(ctx, m.load, m.gen)
	return m
}

// State returns a snapshot of the session.
func (m *SessionManager) State() models.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the authenticated user, or nil.
func (m *SessionManager) User() *models.User {
	return m.State().User
}

// Loading reports whether a restoration is still pending.
func (m *SessionManager) Loading() bool {
	return m.State().Loading
}

// IsAuthenticated is derived from the user on every call.
func (m *SessionManager) IsAuthenticated() bool {
	return m.State().IsAuthenticated()
}

// Ready is closed when the current restoration has settled.
func (m *SessionManager) Ready() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// WaitReady blocks until restoration settles or ctx is done.
func (m *SessionManager) WaitReady(ctx context.Context) error {
	select {
	case <-m.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe delivers the current state and then every transition. Slow
// readers only see the latest state. The returned func unsubscribes and
// closes the channel.
func (m *SessionManager) Subscribe() (<-chan models.State, func()) {
	ch := make(chan models.State, 1)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.state
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

// Login submits credentials, stores the returned token and adopts the
// outcome of the profile fetch that follows. A rejected login leaves the
// session as it was and writes no token.
func (m *SessionManager) Login(ctx context.Context, data models.LoginData) error {
	gen := m.generation()

	tr, err := m.api.Login(ctx, data)
	if m.metrics != nil {
		m.metrics.ObserveLogin(err)
	}
	if err != nil {
		m.logger.Info(ctx, "login rejected", "username", data.Username, "error", err)
		return err
	}

	gen, err = m.writeToken(ctx, gen, tr.AccessToken)
	if err != nil {
		return err
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		m.logger.Warn(ctx, "profile fetch after login failed", "error", err)
		m.clearToken(ctx, gen)
		m.commit(gen, nil)
		return fmt.Errorf("%w: %w", ErrProfileFetch, err)
	}

	if !m.commit(gen, user) {
		return ErrSessionChanged
	}
	m.logger.Info(ctx, "logged in", "username", user.Username)
	return nil
}

// Register creates the account and then logs in with the same credentials.
// It returns only after that login has finished.
func (m *SessionManager) Register(ctx context.Context, data models.RegisterData) error {
	if _, err := m.api.Register(ctx, data); err != nil {
		m.logger.Info(ctx, "registration rejected", "username", data.Username, "error", err)
		return err
	}
	m.logger.Info(ctx, "registered", "username", data.Username)
	return m.Login(ctx, data.Credentials())
}

// Logout clears the stored token and the user without contacting the API.
// The user is cleared even when the store fails; that failure is returned.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	err := m.store.Clear(ctx)
	m.state.User = nil
	m.publishLocked()

	if err != nil {
		m.logger.Error(ctx, "failed to clear token on logout", "error", err)
		return fmt.Errorf("clear token: %w", err)
	}
	m.logger.Info(ctx, "logged out")
	return nil
}

// UpdateProfile changes the profile and adopts the returned user.
func (m *SessionManager) UpdateProfile(ctx context.Context, upd models.UserUpdate) error {
	gen := m.generation()
	if !m.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	user, err := m.api.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	if !m.commit(gen, user) {
		return ErrSessionChanged
	}
	m.logger.Info(ctx, "profile updated", "username", user.Username)
	return nil
}

// Reload discards the in-memory session and restores it again from the
// stored token, as if the client had just started. In-flight calls from
// before the reload can no longer change the session.
func (m *SessionManager) Reload(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	m.load++
	if !m.state.Loading {
		m.ready = make(chan struct{})
	}
	m.state = models.State{Loading: true}
	m.restoreGen = m.gen
	load, gen := m.load, m.gen
	m.publishLocked()
	m.mu.Unlock()

	go m.restore(ctx, load, gen)
}

func (m *SessionManager) restore(ctx context.Context, load, gen uint64) {
	token, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Error(ctx, "failed to read stored token", "error", err)
		m.settle(load, gen, nil)
		return
	}
	if token == "" {
		m.settle(load, gen, nil)
		return
	}

	user, err := m.api.Me(ctx)
	if err != nil {
		m.recoverRestore(ctx, load, gen, err)
		return
	}

	m.logger.Info(ctx, "session restored", "username", user.Username)
	m.settle(load, gen, user)
}

// recoverRestore is the failure branch of restoration. A rejected token and
// an unreachable API end the same way: the token is dropped and the session
// resolves unauthenticated. Nothing is surfaced to the views. Only our own
// cancellation keeps the token, since it says nothing about its validity.
func (m *SessionManager) recoverRestore(ctx context.Context, load, gen uint64, err error) {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		m.logger.Info(ctx, "stored token rejected", "error", err)
	case ctx.Err() != nil:
		m.logger.Info(ctx, "session restore cancelled")
		m.settle(load, gen, nil)
		return
	default:
		m.logger.Warn(ctx, "session restore failed", "error", err)
	}

	m.clearToken(context.WithoutCancel(ctx), gen)
	m.settle(load, gen, nil)
}

func (m *SessionManager) generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// writeToken stores token if gen is still current and returns the gen the
// rest of the login must run under.
func (m *SessionManager) writeToken(ctx context.Context, gen uint64, token string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return gen, ErrSessionChanged
	}
	if err := m.store.Set(ctx, token); err != nil {
		return gen, fmt.Errorf("store token: %w", err)
	}
	if m.state.Loading && m.gen == m.restoreGen {
		m.gen++
	}
	return m.gen, nil
}

func (m *SessionManager) clearToken(ctx context.Context, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error(ctx, "failed to clear token", "error", err)
	}
}

// commit sets the user if gen is still current.
func (m *SessionManager) commit(gen uint64, user *models.User) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	m.state.User = user
	m.publishLocked()
	return true
}

// settle ends a restoration: the user is adopted if gen is current and the
// loading flag is cleared if load is current.
func (m *SessionManager) settle(load, gen uint64, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	if gen == m.gen {
		m.state.User = user
		changed = true
	}
	if load == m.load && m.state.Loading {
		m.state.Loading = false
		close(m.ready)
		changed = true
	}
	if changed {
		m.publishLocked()
	}
}

func (m *SessionManager) publishLocked() {
	s := m.state
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
	if m.metrics != nil {
		m.metrics.ObserveTransition(s.Phase())
	}
}
