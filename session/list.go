package session

import "time"

// Lookup is the outcome of scanning a session list for a token.
type Lookup int

const (
	// LookupMissing means no session carries the token.
	LookupMissing Lookup = iota
	// LookupExpired means at least one session carries the token, but all such sessions have expired.
	LookupExpired
	// LookupValid means a session carrying the token has not expired.
	LookupValid
)

// Find scans sessions in order and classifies token at now.
//
// Every session whose token matches is considered; the lookup is valid if any of
// them is unexpired.
func Find(sessions []Session, token string, now time.Time) Lookup {
	result := LookupMissing
	for _, s := range sessions {
		if s.Token != token {
			continue
		}
		if !s.Expired(now) {
			return LookupValid
		}
		result = LookupExpired
	}
	return result
}

// Valid reports whether token matches an unexpired session in sessions.
func Valid(sessions []Session, token string, now time.Time) bool {
	return Find(sessions, token, now) == LookupValid
}

// Prune returns a new slice without the sessions that have expired at now.
// Order is preserved and the input is not modified.
func Prune(sessions []Session, now time.Time) []Session {
	kept := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Expired(now) {
			kept = append(kept, s)
		}
	}
	return kept
}

// Cap drops the oldest sessions so that at most limit remain, leaving room for
// reserve new entries. A non-positive limit disables the cap.
func Cap(sessions []Session, limit, reserve int) []Session {
	if limit <= 0 {
		return sessions
	}
	keep := limit - reserve
	if keep < 0 {
		keep = 0
	}
	if len(sessions) <= keep {
		return sessions
	}
	return sessions[len(sessions)-keep:]
}

// Clone returns an independent copy of sessions.
func Clone(sessions []Session) []Session {
	if sessions == nil {
		return nil
	}
	out := make([]Session, len(sessions))
	copy(out, sessions)
	return out
}
