package models

import "time"

// RateLimitDecision is the outcome of checking every applicable
// counter for a request. When denied, RetryAfter is the time until
// the nearest limiting window resets and Scope names the counter that
// tripped.
type RateLimitDecision struct {
	Allowed    bool
	Scope      string
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}
