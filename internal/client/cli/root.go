package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authclient/internal/client/router"
)

func (a *App) getStatus() string {
	var parts []string
	if u := a.session.User(); u != nil {
		parts = append(parts, u.Username)
	}
	if m := a.Mode(); m != "" {
		parts = append(parts, string(m))
	}

	s := a.router.Current()
	if len(parts) > 0 {
		s += fmt.Sprintf(" (%s)", strings.Join(parts, " "))
	}
	return s
}

// Root shows the landing view and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Auth client (type 'help' for commands)")
	if err := a.show(ctx); err != nil {
		a.logger.Error(ctx, "render failed", "error", err)
	}
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) Dashboard(ctx context.Context) error {
	a.router.Navigate(router.DashboardPath)
	return a.show(ctx)
}

func (a *App) Home(ctx context.Context) error {
	a.router.Navigate(router.HomePath)
	return a.show(ctx)
}

// Show renders the current view again.
func (a *App) Show(ctx context.Context) error {
	return a.show(ctx)
}

func (a *App) Back(ctx context.Context) error {
	if !a.router.Back() {
		fmt.Fprintln(a.out, "Nothing to go back to.")
		return nil
	}
	return a.show(ctx)
}
