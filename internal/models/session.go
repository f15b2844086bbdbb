package models

import "time"

// Session identifies a browser across requests via a signed cookie.
type Session struct {
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its lifetime.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
