package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/authclient/internal/client/client"
	"github.com/dmitrijs2005/authclient/internal/client/guard"
	"github.com/dmitrijs2005/authclient/internal/client/models"
	"github.com/dmitrijs2005/authclient/internal/client/router"
	"github.com/dmitrijs2005/authclient/internal/common"
)

// maxHops bounds how many navigations a single show may follow.
const maxHops = 4

func (a *App) buildViews() map[string]guard.View {
	return map[string]guard.View{
		router.HomePath:     guard.ViewFunc(a.renderLanding),
		router.LoginPath:    guard.ViewFunc(a.loginForm),
		router.RegisterPath: guard.ViewFunc(a.registerForm),
		router.DashboardPath: guard.Protected{
			Session: a.session,
			Nav:     a.router,
			Content: guard.ViewFunc(a.renderDashboard),
		},
	}
}

// show renders the view for the current path. Views that navigate are
// followed, and a view rendered while the session was loading is rendered
// again once it settles.
func (a *App) show(ctx context.Context) error {
	for hop := 0; hop < maxHops; hop++ {
		path := a.router.Current()
		view, ok := a.views[path]
		if !ok {
			return fmt.Errorf("no view for %s", path)
		}

		wasLoading := a.session.Loading()
		if err := view.Render(ctx, a.out); err != nil {
			return err
		}
		if a.router.Current() != path {
			continue
		}
		if !wasLoading {
			return nil
		}
		if err := a.session.WaitReady(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) renderLanding(_ context.Context, w io.Writer) error {
	st := a.session.State()
	switch {
	case st.Loading:
		_, err := fmt.Fprintln(w, guard.DefaultPlaceholder)
		return err
	case st.IsAuthenticated():
		a.router.Navigate(router.DashboardPath)
		return nil
	}

	_, err := fmt.Fprint(w, "Welcome\n"+
		"Get started with your authentication app\n"+
		"  login     sign in to an existing account\n"+
		"  register  create a new account\n")
	return err
}

func (a *App) renderDashboard(_ context.Context, w io.Writer) error {
	u := a.session.User()
	if u == nil {
		return nil
	}

	memberSince := "N/A"
	if u.CreatedAt != "" {
		if t, err := u.CreatedAtTime(); err == nil {
			memberSince = t.Format("2006-01-02")
		}
	}

	_, err := fmt.Fprintf(w, "Dashboard\n\nWelcome, %s!\n"+
		"  Email:          %s\n"+
		"  Username:       %s\n"+
		"  Account Status: %s\n"+
		"  Member Since:   %s\n",
		u.Username, u.Email, u.Username, u.Status(), memberSince)
	return err
}

func (a *App) loginForm(ctx context.Context, w io.Writer) error {
	if a.session.Loading() {
		_, err := fmt.Fprintln(w, guard.DefaultPlaceholder)
		return err
	}

	fmt.Fprintln(w, "Sign in")
	username, err := getSimpleText(a.reader, "Username", w)
	if err != nil {
		return err
	}
	password, err := getPassword(w)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if username == "" || len(password) == 0 {
		fmt.Fprintln(w, "Username and password are required.")
		return nil
	}

	err = a.session.Login(ctx, models.LoginData{Username: username, Password: string(password)})
	if err != nil {
		a.logger.Info(ctx, "login failed", "username", username, "error", err)
		fmt.Fprintln(w, "Login failed:", describe(err))
		return nil
	}

	a.router.Navigate(router.DashboardPath)
	return nil
}

func (a *App) registerForm(ctx context.Context, w io.Writer) error {
	if a.session.Loading() {
		_, err := fmt.Fprintln(w, guard.DefaultPlaceholder)
		return err
	}

	fmt.Fprintln(w, "Create an account")
	email, err := getSimpleText(a.reader, "Email", w)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Username", w)
	if err != nil {
		return err
	}
	password, err := getPassword(w)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if email == "" || username == "" || len(password) == 0 {
		fmt.Fprintln(w, "Email, username and password are required.")
		return nil
	}

	data := models.RegisterData{Email: email, Username: username, Password: string(password)}
	if err := a.session.Register(ctx, data); err != nil {
		a.logger.Info(ctx, "registration failed", "username", username, "error", err)
		fmt.Fprintln(w, "Registration failed:", describe(err))
		return nil
	}

	a.router.Navigate(router.DashboardPath)
	return nil
}

// describe turns an API error into the message shown next to a form.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return apiErr.Detail
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	default:
		return strings.TrimSpace(err.Error())
	}
}
