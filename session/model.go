package session

import "time"

// DefaultLifetime is the refresh-session lifetime applied when none is configured.
const DefaultLifetime = 10 * 24 * time.Hour

// Session is one refresh-token session embedded in a user document.
//
// Token is an opaque random string; ExpiresAt is in unix seconds.
type Session struct {
	Token     string `json:"token" bson:"token"`
	ExpiresAt int64  `json:"expiresAt" bson:"expiresAt"`
}

// HasExpired reports whether a session with the given expiry is no longer usable at now.
// The boundary is exclusive: a session expiring exactly at now is expired.
func HasExpired(expiresAt int64, now time.Time) bool {
	return now.Unix() >= expiresAt
}

// NewExpiry returns the unix-seconds expiry for a session created at now.
// A non-positive lifetime falls back to DefaultLifetime.
func NewExpiry(now time.Time, lifetime time.Duration) int64 {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return now.Unix() + int64(lifetime/time.Second)
}

// Expired reports whether s has expired at now.
func (s Session) Expired(now time.Time) bool {
	return HasExpired(s.ExpiresAt, now)
}
