package models

import "time"

// CaptchaChallenge is the stored state for one session's challenge.
// A session owns at most one challenge at a time; generating a new
// one discards the previous.
type CaptchaChallenge struct {
	SessionID string
	Answer    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Attempts  int
	Verified  bool
}

// Expired reports whether the challenge's expiry clock has elapsed.
func (c *CaptchaChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// CaptchaImage is the payload returned to the browser after a
// generate call.
type CaptchaImage struct {
	Image     string    `json:"image"`
	ExpiresAt time.Time `json:"expires_at"`
}
