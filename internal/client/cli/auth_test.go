package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/authclient/internal/client/client"
	"github.com/dmitrijs2005/authclient/internal/client/models"
	"github.com/dmitrijs2005/authclient/internal/client/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedToken(t *testing.T, env *testEnv) string {
	t.Helper()
	tok, err := env.store.Get(context.Background())
	require.NoError(t, err)
	return tok
}

func TestLogin_Success(t *testing.T) {
	api := &fakeAPI{user: alice}
	env := newTestApp(t, api, "", nil, true)
	stubInputs(t, "pw", "alice")

	require.NoError(t, env.app.Login(context.Background()))

	assert.Equal(t, []models.LoginData{{Username: "alice", Password: "pw"}}, api.logins)
	assert.True(t, env.app.isLoggedIn())
	assert.Equal(t, router.DashboardPath, env.app.router.Current())
	assert.Equal(t, "tok-alice", storedToken(t, env))
	assert.Contains(t, env.out.String(), "Welcome, alice!")
}

func TestLogin_Rejected(t *testing.T) {
	api := &fakeAPI{loginErr: &client.APIError{StatusCode: 401, Status: "401 Unauthorized", Detail: "Incorrect username or password"}}
	env := newTestApp(t, api, "", nil, true)
	stubInputs(t, "wrong", "alice")

	require.NoError(t, env.app.Login(context.Background()))

	assert.False(t, env.app.isLoggedIn())
	assert.Equal(t, router.LoginPath, env.app.router.Current())
	assert.Empty(t, storedToken(t, env))
	assert.Contains(t, env.out.String(), "Login failed: Incorrect username or password")
}

func TestLogin_RequiresFields(t *testing.T) {
	api := &fakeAPI{}
	env := newTestApp(t, api, "", nil, true)
	stubInputs(t, "", "alice")

	require.NoError(t, env.app.Login(context.Background()))

	assert.Empty(t, api.logins)
	assert.Contains(t, env.out.String(), "Username and password are required.")
}

func TestLogin_InputError(t *testing.T) {
	env := newTestApp(t, &fakeAPI{}, "", nil, true)
	stubInputs(t, "pw")

	assert.Error(t, env.app.Login(context.Background()), "no answers left means EOF")
}

func TestRegister_Success(t *testing.T) {
	api := &fakeAPI{}
	env := newTestApp(t, api, "", nil, true)
	stubInputs(t, "secret", "alice@example.org", "alice")

	require.NoError(t, env.app.Register(context.Background()))

	require.Len(t, api.registers, 1)
	assert.Equal(t, models.RegisterData{Email: "alice@example.org", Username: "alice", Password: "secret"}, api.registers[0])
	assert.Equal(t, []models.LoginData{{Username: "alice", Password: "secret"}}, api.logins)
	assert.True(t, env.app.isLoggedIn())
	assert.Equal(t, router.DashboardPath, env.app.router.Current())
}

func TestRegister_Rejected(t *testing.T) {
	api := &fakeAPI{registerErr: &client.APIError{StatusCode: 400, Status: "400 Bad Request", Detail: "Email already registered"}}
	env := newTestApp(t, api, "", nil, true)
	stubInputs(t, "secret", "alice@example.org", "alice")

	require.NoError(t, env.app.Register(context.Background()))

	assert.Empty(t, api.logins)
	assert.Equal(t, router.RegisterPath, env.app.router.Current())
	assert.Contains(t, env.out.String(), "Registration failed: Email already registered")
}

func TestLogout(t *testing.T) {
	env := newTestApp(t, &fakeAPI{user: alice}, "tok", nil, true)
	require.True(t, env.app.isLoggedIn())

	require.NoError(t, env.app.Logout(context.Background()))

	assert.False(t, env.app.isLoggedIn())
	assert.Empty(t, storedToken(t, env))
	assert.Equal(t, router.LoginPath, env.app.router.Current())
	assert.Contains(t, env.out.String(), "Logged out.")
}

func TestProfile_Update(t *testing.T) {
	api := &fakeAPI{user: alice}
	env := newTestApp(t, api, "tok", nil, true)
	stubInputs(t, "", "alice@new.example.com", "")

	require.NoError(t, env.app.Profile(context.Background()))

	assert.Equal(t, []models.UserUpdate{{Email: "alice@new.example.com"}}, api.updates)
	assert.Equal(t, "alice@new.example.com", env.app.session.User().Email)
	assert.Contains(t, env.out.String(), "Profile updated.")
}

func TestProfile_NothingToUpdate(t *testing.T) {
	api := &fakeAPI{user: alice}
	env := newTestApp(t, api, "tok", nil, true)
	stubInputs(t, "", "", "alice")

	require.NoError(t, env.app.Profile(context.Background()))

	assert.Empty(t, api.updates)
	assert.Contains(t, env.out.String(), "Nothing to update.")
}

func TestProfile_Failure(t *testing.T) {
	api := &fakeAPI{user: alice, updateErr: &client.APIError{StatusCode: 400, Status: "400 Bad Request", Detail: "Username already taken"}}
	env := newTestApp(t, api, "tok", nil, true)
	stubInputs(t, "", "", "bob")

	require.NoError(t, env.app.Profile(context.Background()))
	assert.Contains(t, env.out.String(), "Update failed: Username already taken")
	assert.Equal(t, "alice", env.app.session.User().Username)
}

func TestProfile_RequiresSession(t *testing.T) {
	api := &fakeAPI{}
	env := newTestApp(t, api, "", nil, true)

	require.NoError(t, env.app.Profile(context.Background()))
	assert.Contains(t, env.out.String(), "Please log in first.")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Username already registered",
		describe(&client.APIError{StatusCode: 400, Status: "400 Bad Request", Detail: "Username already registered"}))
	assert.Equal(t, "server unavailable, try again later", describe(client.ErrUnavailable))
	assert.Equal(t, "api error: 500 Internal Server Error",
		describe(&client.APIError{StatusCode: 500, Status: "500 Internal Server Error"}))
	assert.Equal(t, "boom", describe(errors.New("boom ")))
}

func TestLoginForm_WaitsForRestore(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{meGate: gate}
	env := newTestApp(t, api, "stale", nil, false)
	stubInputs(t, "pw", "alice")
	api.mu.Lock()
	api.user = alice
	api.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- env.app.Login(context.Background()) }()

	require.Eventually(t, func() bool {
		return env.out.String() == "Loading...\n"
	}, 2*time.Second, time.Millisecond)
	close(gate)

	require.NoError(t, <-done)
	assert.Equal(t, router.DashboardPath, env.app.router.Current())
	assert.Len(t, api.logins, 1)
}
