// Package guard decides whether protected views may be shown for the
// current session and keeps that decision current as the session changes.
package guard

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/authclient/internal/client/models"
	"github.com/dmitrijs2005/authclient/internal/client/router"
)

// Decision is the outcome of evaluating a session against a protected view.
type Decision int

const (
	// Wait means the session is still being restored.
	Wait Decision = iota
	// Deny means there is no session; the user belongs on the login view.
	Deny
	// Allow means the protected content may be shown.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

func Evaluate(s models.State) Decision {
	switch {
	case s.Loading:
		return Wait
	case s.IsAuthenticated():
		return Allow
	default:
		return Deny
	}
}

// View renders one screen of the client.
type View interface {
	Render(ctx context.Context, w io.Writer) error
}

// ViewFunc adapts a function to View.
type ViewFunc func(ctx context.Context, w io.Writer) error

func (f ViewFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Session is the part of the session manager the guard reads.
type Session interface {
	State() models.State
}

// Navigator is the part of the router the guard drives.
type Navigator interface {
	Current() string
	Replace(path string)
}

const DefaultPlaceholder = "Loading..."

// Protected wraps Content so it is only rendered for an authenticated
// session. While the session is loading only Placeholder is rendered; an
// unauthenticated session is sent to the login view and nothing is rendered.
type Protected struct {
	Session Session
	Nav     Navigator
	Content View
	// Placeholder defaults to DefaultPlaceholder.
	Placeholder View
}

func (p Protected) Render(ctx context.Context, w io.Writer) error {
	switch Evaluate(p.Session.State()) {
	case Wait:
		if p.Placeholder != nil {
			return p.Placeholder.Render(ctx, w)
		}
		_, err := fmt.Fprintln(w, DefaultPlaceholder)
		return err
	case Deny:
		p.Nav.Replace(router.LoginPath)
		return nil
	default:
		return p.Content.Render(ctx, w)
	}
}

// Watch re-evaluates every session update against the current path and
// moves the user to the login view when a protected path loses its session.
// It returns when updates is closed or ctx is done.
func Watch(ctx context.Context, updates <-chan models.State, nav Navigator, isProtected func(path string) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-updates:
			if !ok {
				return nil
			}
			if Evaluate(s) == Deny && isProtected(nav.Current()) {
				nav.Replace(router.LoginPath)
			}
		}
	}
}
