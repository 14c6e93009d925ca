package flows

import (
	"context"
	"time"

	"github.com/albi2/CourseAppApi/session"
)

// CreateSessionFailureKind classifies create-session failures for root-level mapping.
type CreateSessionFailureKind int

const (
	CreateSessionFailureNone CreateSessionFailureKind = iota
	CreateSessionFailureGenerate
	CreateSessionFailurePersist
)

// CreateSessionResult carries the new token and the list that was persisted.
type CreateSessionResult struct {
	Failure   CreateSessionFailureKind
	Err       error
	Token     string
	ExpiresAt int64
	Dropped   int
	Sessions  []session.Session
}

// CreateSessionDeps captures create-session dependencies.
type CreateSessionDeps struct {
	Now             func() time.Time
	Lifetime        time.Duration
	PruneExpired    bool
	MaxSessions     int
	NewRefreshToken func() (string, error)
	Persist         func(context.Context, []session.Session) error
}

// RunCreateSession generates a refresh token, appends it to a maintained copy of
// existing and persists the result. existing is never modified.
func RunCreateSession(ctx context.Context, existing []session.Session, deps CreateSessionDeps) CreateSessionResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	token, err := deps.NewRefreshToken()
	if err != nil {
		return CreateSessionResult{Failure: CreateSessionFailureGenerate, Err: err}
	}

	now := deps.Now()
	next := session.Clone(existing)
	if deps.PruneExpired {
		next = session.Prune(next, now)
	}
	next = session.Cap(next, deps.MaxSessions, 1)
	dropped := len(existing) - len(next)

	expiresAt := session.NewExpiry(now, deps.Lifetime)
	next = append(next, session.Session{Token: token, ExpiresAt: expiresAt})

	if err := deps.Persist(ctx, next); err != nil {
		return CreateSessionResult{Failure: CreateSessionFailurePersist, Err: err}
	}

	return CreateSessionResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Dropped:   dropped,
		Sessions:  next,
	}
}
