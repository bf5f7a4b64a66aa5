package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authclient/internal/client/models"
	"github.com/dmitrijs2005/authclient/internal/client/router"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login opens the login form.
func (a *App) Login(ctx context.Context) error {
	a.router.Navigate(router.LoginPath)
	return a.show(ctx)
}

// Register opens the registration form. A successful registration signs the
// user in and continues to the dashboard.
func (a *App) Register(ctx context.Context) error {
	a.router.Navigate(router.RegisterPath)
	return a.show(ctx)
}

// Logout ends the session locally and returns to the login view without
// prompting. The user is logged out even when the token store fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.session.Logout(ctx)
	a.router.Navigate(router.LoginPath)
	fmt.Fprintln(a.out, "Logged out.")
	return err
}

// Profile prompts for a new email and username and updates the profile.
// Empty answers keep the current value. Failures are reported to the user.
func (a *App) Profile(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		fmt.Fprintln(a.out, "Please log in first.")
		return nil
	}

	email, err := getSimpleText(a.reader, fmt.Sprintf("Email [%s]", u.Email), a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, fmt.Sprintf("Username [%s]", u.Username), a.out)
	if err != nil {
		return err
	}

	upd := models.UserUpdate{}
	if email != u.Email {
		upd.Email = email
	}
	if username != u.Username {
		upd.Username = username
	}
	if upd.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing to update.")
		return nil
	}

	if err := a.session.UpdateProfile(ctx, upd); err != nil {
		fmt.Fprintln(a.out, "Update failed:", describe(err))
		return nil
	}
	fmt.Fprintln(a.out, "Profile updated.")
	return nil
}
