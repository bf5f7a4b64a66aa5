package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/authclient/internal/client/models"
	"github.com/dmitrijs2005/authclient/internal/client/router"
	"github.com/dmitrijs2005/authclient/internal/client/tokenstore"
	"github.com/dmitrijs2005/authclient/internal/logging"
	"github.com/dmitrijs2005/authclient/internal/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNav records hard redirects.
type fakeNav struct {
	mu        sync.Mutex
	redirects []string
}

func (n *fakeNav) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, path)
}

func (n *fakeNav) got() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.redirects...)
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context) (string, error) { return "", f.err }
func (f failingStore) Clear(context.Context) error         { return f.err }

func newTestClient(t *testing.T, h http.Handler, store Store, nav Navigator) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Settings{BaseURL: srv.URL, Store: store, Nav: nav, Logger: logging.Discard()})
	require.NoError(t, err)
	return c
}

func TestBearerToken_AttachesStoredToken(t *testing.T) {
	store := tokenstore.NewMemoryStore("tok-123")
	var auth, reqID string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `{"id":1,"username":"alice"}`)
	}), store, &fakeNav{})

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", auth)
	_, err = uuid.Parse(reqID)
	assert.NoError(t, err, "request id must be a uuid")
}

func TestBearerToken_AbsentTokenSendsUnauthenticated(t *testing.T) {
	var hasAuth bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	}), tokenstore.NewMemoryStore(""), &fakeNav{})

	require.NoError(t, c.Ping(context.Background()))
	assert.False(t, hasAuth)
}

func TestBearerToken_StoreFailureAbortsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }),
		failingStore{err: errors.New("disk gone")}, &fakeNav{})

	_, err := c.Me(context.Background())
	require.ErrorContains(t, err, "read token")
	assert.False(t, called)
}

// Every endpoint that answers 401 leaves the store empty and redirects to login.
func TestExpireOnUnauthorized_AnyEndpoint(t *testing.T) {
	calls := map[string]func(c *RESTClient) error{
		"me": func(c *RESTClient) error { _, err := c.Me(context.Background()); return err },
		"login": func(c *RESTClient) error {
			_, err := c.Login(context.Background(), models.LoginData{Username: "alice", Password: "bad"})
			return err
		},
		"register": func(c *RESTClient) error {
			_, err := c.Register(context.Background(), models.RegisterData{Email: "a@b.com", Username: "alice", Password: "p"})
			return err
		},
		"profile": func(c *RESTClient) error {
			_, err := c.UpdateProfile(context.Background(), models.UserUpdate{Email: "x@b.com"})
			return err
		},
		"ping": func(c *RESTClient) error { return c.Ping(context.Background()) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			store := tokenstore.NewMemoryStore("stale")
			nav := &fakeNav{}
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
			}), store, nav)

			err := call(c)

			require.ErrorIs(t, err, ErrUnauthorized, "original failure is propagated")
			tok, _ := store.Get(context.Background())
			assert.Empty(t, tok)
			assert.Equal(t, []string{router.LoginPath}, nav.got())
		})
	}
}

func TestExpireOnUnauthorized_IgnoresOtherFailures(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		store := tokenstore.NewMemoryStore("keep")
		nav := &fakeNav{}
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}), store, nav)

		_, err := c.Me(context.Background())

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, status, apiErr.StatusCode)
		tok, _ := store.Get(context.Background())
		assert.Equal(t, "keep", tok, "status %d must not clear the token", status)
		assert.Empty(t, nav.got())
	}
}

func TestExpireOnUnauthorized_ClearFailureStillRedirects(t *testing.T) {
	nav := &fakeNav{}
	stage := ExpireOnUnauthorized(failingStore{err: errors.New("locked")}, nav, logging.Discard())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	orig := &APIError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}

	err := stage(&Exchange{Request: req, Err: orig})

	assert.Same(t, orig, err)
	assert.Equal(t, []string{router.LoginPath}, nav.got())
}

func TestObserveExchange_RecordsRequestsAndUnauthorized(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/me" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	}))
	defer srv.Close()

	c, err := New(Settings{BaseURL: srv.URL, Store: tokenstore.NewMemoryStore(""), Nav: &fakeNav{}, Logger: logging.Discard(), Metrics: m})
	require.NoError(t, err)

	require.NoError(t, c.Ping(context.Background()))
	_, err = c.Me(context.Background())
	require.Error(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unauthorized.WithLabelValues("/auth/me")))
}
