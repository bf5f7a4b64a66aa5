// Package models defines the values exchanged with the authentication API
// and the in-memory session state derived from them.
package models

import (
	"fmt"
	"time"
)

// User is the profile returned by GET /auth/me. It is replaced wholesale on
// every fetch and never mutated locally.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// timestamp layouts the API is known to emit; naive ISO timestamps carry no zone.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// CreatedAtTime parses CreatedAt. Timestamps without a zone are read as UTC.
func (u *User) CreatedAtTime() (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, u.CreatedAt); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised created_at %q", u.CreatedAt)
}

// Status renders IsActive the way the dashboard shows it.
func (u *User) Status() string {
	if u.IsActive {
		return "Active"
	}
	return "Inactive"
}
