package domain

import "time"

// CachedAnswer is an answer held by the answer cache together with the
// moment it stops being valid.
type CachedAnswer struct {
	Key       string
	Answer    Answer
	ExpiresAt time.Time
}

// IsExpired reports whether the entry is no longer valid at now.
func (c CachedAnswer) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Remaining returns the whole seconds left before expiry, or 0.
func (c CachedAnswer) Remaining(now time.Time) uint32 {
	d := c.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return uint32(d / time.Second)
}
