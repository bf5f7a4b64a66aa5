package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authclient/internal/client/config"
	"github.com/dmitrijs2005/authclient/internal/client/router"
	"github.com/dmitrijs2005/authclient/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetMode(t *testing.T) {
	env := newTestApp(t, &fakeAPI{}, "", nil, true)
	assert.Equal(t, Mode(""), env.app.Mode())

	env.app.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, env.app.Mode())
	env.app.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, env.app.Mode())
}

func TestCheckOnline(t *testing.T) {
	api := &fakeAPI{}
	env := newTestApp(t, api, "", nil, true)

	env.app.checkOnline(context.Background())
	assert.Equal(t, ModeOnline, env.app.Mode())

	api.mu.Lock()
	api.pingErr = errors.New("connection refused")
	api.mu.Unlock()
	env.app.checkOnline(context.Background())
	assert.Equal(t, ModeOffline, env.app.Mode())
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	api := &fakeAPI{}
	env := newTestApp(t, api, "", nil, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.app.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.pings >= 3
	}, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, ModeOnline, env.app.Mode())
}

func TestRun_ExitsWithREPL(t *testing.T) {
	env := newTestApp(t, &fakeAPI{user: alice}, "tok", strings.NewReader("dashboard\nlogout\nexit\n"), false)

	done := make(chan error, 1)
	go func() { done <- env.app.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}

	out := env.out.String()
	assert.Contains(t, out, "Welcome, alice!")
	assert.Contains(t, out, "Logged out.")
	assert.Contains(t, out, "Bye!")
	assert.Equal(t, router.LoginPath, env.app.router.Current())
}

func TestServeMetrics_StopsOnCancel(t *testing.T) {
	env := newTestApp(t, &fakeAPI{}, "", nil, true)
	env.app.registry = prometheus.NewRegistry()
	env.app.config.MetricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.app.serveMetrics(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("metrics listener did not stop")
	}
}

func TestNewApp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIURL = srv.URL
	cfg.DBPath = filepath.Join(t.TempDir(), "client.db")

	a, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.db.Close() })

	require.NotNil(t, a.registry)
	assert.Len(t, a.views, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, a.session.WaitReady(ctx))
	assert.False(t, a.isLoggedIn(), "fresh database holds no token")

	a.checkOnline(ctx)
	assert.Equal(t, ModeOnline, a.Mode())
}

func TestNewApp_BadURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIURL = "localhost:8000"
	cfg.DBPath = filepath.Join(t.TempDir(), "client.db")

	_, err := NewApp(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}
