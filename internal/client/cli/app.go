package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/authclient/internal/client/client"
	"github.com/dmitrijs2005/authclient/internal/client/config"
	"github.com/dmitrijs2005/authclient/internal/client/guard"
	"github.com/dmitrijs2005/authclient/internal/client/router"
	"github.com/dmitrijs2005/authclient/internal/client/services"
	"github.com/dmitrijs2005/authclient/internal/client/tokenstore"
	"github.com/dmitrijs2005/authclient/internal/logging"
	"github.com/dmitrijs2005/authclient/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	api      client.Client
	session  *services.SessionManager
	router   *router.Router
	registry *prometheus.Registry
	views    map[string]guard.View
	reader   *bufio.Reader
	out      io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp opens the local database and wires the API client, router and
// session manager. Session restoration starts immediately in the background.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store := tokenstore.NewSQLiteStore(db)
	r := router.New(router.HomePath)
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	api, err := client.New(client.Settings{
		BaseURL: c.APIURL,
		Timeout: c.RequestTimeout,
		Store:   store,
		Nav:     r,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	session := services.NewSessionManager(ctx, api, store, logger, services.WithMetrics(m))
	r.OnRedirect(func(path string) {
		logger.Info(ctx, "session expired, reloading", "path", path)
		session.Reload(ctx)
	})

	a := newApp(c, logger, api, session, r, os.Stdin, os.Stdout)
	a.db = db
	a.registry = reg
	return a, nil
}

func newApp(c *config.Config, logger logging.Logger, api client.Client, session *services.SessionManager, r *router.Router, in io.Reader, out io.Writer) *App {
	a := &App{
		config:  c,
		logger:  logger,
		api:     api,
		session: session,
		router:  r,
		reader:  bufio.NewReader(in),
		out:     out,
	}
	a.views = a.buildViews()
	return a
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// Run starts the background workers and blocks in the REPL until the user
// exits. Workers are stopped before Run returns.
func (a *App) Run(ctx context.Context) error {
	if a.db != nil {
		defer a.db.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.StartOnlineStatusWatcher(gCtx, a.config.OnlineCheckInterval)
		return nil
	})

	updates, unsubscribe := a.session.Subscribe()
	defer unsubscribe()
	g.Go(func() error {
		err := guard.Watch(gCtx, updates, a.router, router.IsProtected)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if a.config.MetricsAddr != "" && a.registry != nil {
		g.Go(func() error { return a.serveMetrics(gCtx) })
	}

	g.Go(func() error {
		defer cancel()
		a.Root(gCtx)
		return nil
	})

	return g.Wait()
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher probes the API health endpoint once right away
// and then every interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "metrics listener starting", "addr", a.config.MetricsAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics listener: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error(ctx, "metrics listener shutdown failed", "error", err)
		}
		return nil
	}
}
