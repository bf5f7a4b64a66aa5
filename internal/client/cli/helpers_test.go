package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authclient/internal/client/client"
	"github.com/dmitrijs2005/authclient/internal/client/config"
	"github.com/dmitrijs2005/authclient/internal/client/models"
	"github.com/dmitrijs2005/authclient/internal/client/router"
	"github.com/dmitrijs2005/authclient/internal/client/services"
	"github.com/dmitrijs2005/authclient/internal/client/tokenstore"
	"github.com/dmitrijs2005/authclient/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeAPI implements client.Client with a single account.
type fakeAPI struct {
	mu sync.Mutex

	user   *models.User
	meGate chan struct{}

	loginErr    error
	registerErr error
	updateErr   error
	pingErr     error

	logins    []models.LoginData
	registers []models.RegisterData
	updates   []models.UserUpdate
	pings     int
}

func (f *fakeAPI) Register(_ context.Context, data models.RegisterData) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers = append(f.registers, data)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.user = &models.User{ID: 7, Email: data.Email, Username: data.Username, IsActive: true, CreatedAt: "2024-05-01T10:00:00"}
	return f.user, nil
}

func (f *fakeAPI) Login(_ context.Context, data models.LoginData) (*models.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, data)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.TokenResponse{AccessToken: "tok-" + data.Username, TokenType: "bearer"}, nil
}

func (f *fakeAPI) Me(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	gate := f.meGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil, &client.APIError{StatusCode: 401, Status: "401 Unauthorized"}
	}
	u := *f.user
	return &u, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, upd models.UserUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u := *f.user
	if upd.Email != "" {
		u.Email = upd.Email
	}
	if upd.Username != "" {
		u.Username = upd.Username
	}
	f.user = &u
	return &u, nil
}

func (f *fakeAPI) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

// syncBuffer is a bytes.Buffer safe for a writer and a reader goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var alice = &models.User{ID: 1, Email: "alice@example.com", Username: "alice", IsActive: true, CreatedAt: "2024-05-01T10:00:00"}

type testEnv struct {
	app   *App
	api   *fakeAPI
	store *tokenstore.MemoryStore
	out   *syncBuffer
}

// newTestApp builds an App around api. A non-empty token starts the session
// restored from it; with wait the session is settled before returning.
func newTestApp(t *testing.T, api *fakeAPI, token string, in io.Reader, wait bool) *testEnv {
	t.Helper()
	if in == nil {
		in = strings.NewReader("")
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.OnlineCheckInterval = time.Hour

	store := tokenstore.NewMemoryStore(token)
	sm := services.NewSessionManager(context.Background(), api, store, logging.Discard())
	if wait {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, sm.WaitReady(ctx))
	}

	out := &syncBuffer{}
	a := newApp(cfg, logging.Discard(), api, sm, router.New(router.HomePath), in, out)
	return &testEnv{app: a, api: api, store: store, out: out}
}

// stubInputs answers text prompts from answers in order and every password
// prompt with password.
func stubInputs(t *testing.T, password string, answers ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})

	var mu sync.Mutex
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(io.Writer) ([]byte, error) { return []byte(password), nil }
}
