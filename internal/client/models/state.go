package models

// State is the session as seen by views. User is non-nil exactly when the
// session is authenticated; Loading is true only while a stored token is
// being restored.
type State struct {
	User    *User
	Loading bool
}

func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Phase names the state for logs and metrics.
func (s State) Phase() string {
	switch {
	case s.Loading:
		return "loading"
	case s.User != nil:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}
