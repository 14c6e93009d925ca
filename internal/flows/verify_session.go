package flows

import (
	"context"
	"errors"
	"time"

	"github.com/albi2/CourseAppApi/session"
)

// VerifySessionFailureKind classifies refresh-guard failures for root-level mapping.
type VerifySessionFailureKind int

const (
	VerifySessionFailureNone VerifySessionFailureKind = iota
	VerifySessionFailureNotFound
	VerifySessionFailureExpired
	VerifySessionFailureStore
)

// VerifySessionResult reports whether a (user id, refresh token) pair names a live session.
type VerifySessionResult struct {
	Failure VerifySessionFailureKind
	Err     error
}

// VerifySessionDeps captures refresh-guard dependencies.
type VerifySessionDeps struct {
	Now             func() time.Time
	ValidTokenShape func(string) bool
	// FindSessions returns the sessions of the user matching id and token, or NotFound.
	FindSessions func(context.Context, string, string) ([]session.Session, error)
	NotFound     error
}

// RunVerifySession looks up the user by id and token and scans its sessions.
// Malformed tokens are rejected before any store lookup.
func RunVerifySession(ctx context.Context, userID, token string, deps VerifySessionDeps) VerifySessionResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if userID == "" || token == "" {
		return VerifySessionResult{Failure: VerifySessionFailureNotFound}
	}
	if deps.ValidTokenShape != nil && !deps.ValidTokenShape(token) {
		return VerifySessionResult{Failure: VerifySessionFailureNotFound}
	}

	sessions, err := deps.FindSessions(ctx, userID, token)
	if err != nil {
		if deps.NotFound != nil && errors.Is(err, deps.NotFound) {
			return VerifySessionResult{Failure: VerifySessionFailureNotFound, Err: err}
		}
		return VerifySessionResult{Failure: VerifySessionFailureStore, Err: err}
	}

	switch session.Find(sessions, token, deps.Now()) {
	case session.LookupValid:
		return VerifySessionResult{}
	case session.LookupExpired:
		return VerifySessionResult{Failure: VerifySessionFailureExpired}
	default:
		// The store matched on token but the scan did not; treat as stale.
		return VerifySessionResult{Failure: VerifySessionFailureExpired}
	}
}
