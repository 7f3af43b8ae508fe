package models

import "time"

// Session is the client-held proof of authentication.
type Session struct {
	User      User      `json:"user"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session carries a known expiry that has passed.
func (s Session) Expired(reference time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !reference.Before(s.ExpiresAt)
}
