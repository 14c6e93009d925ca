package flows

import (
	"context"
	"errors"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	Rehashed     bool
}

// LoginUserRecord is a flow-local user model used by the login flow.
type LoginUserRecord struct {
	UserID       string
	Email        string
	PasswordHash string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	PasswordRehashed int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	UserNotFound       error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	PasswordUpgradeOnLogin bool

	GetUserByEmail       func(context.Context, string) (LoginUserRecord, error)
	VerifyPassword       func(string, string) (bool, error)
	PasswordNeedsUpgrade func(string) (bool, error)
	// StagePasswordUpgrade queues plaintext for rehashing; the session save persists it.
	StagePasswordUpgrade    func(string)
	IssueLoginSessionTokens func(context.Context, LoginUserRecord) (string, string, error)

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin verifies credentials and issues a session token pair.
//
// An unknown email and a wrong password produce the same InvalidCredentials error.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.GetUserByEmail == nil ||
		deps.VerifyPassword == nil ||
		deps.IssueLoginSessionTokens == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(userID, reason string) (*LoginResult, error) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, userID, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     reason,
			}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	if email == "" || password == "" {
		return fail("", "empty_credentials")
	}

	user, err := deps.GetUserByEmail(ctx, email)
	if err != nil {
		if deps.Errors.UserNotFound != nil && !errors.Is(err, deps.Errors.UserNotFound) {
			return nil, err
		}
		return fail("", "user_not_found")
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return fail(user.UserID, "password_mismatch")
	}

	rehashed := false
	if deps.PasswordUpgradeOnLogin && deps.PasswordNeedsUpgrade != nil && deps.StagePasswordUpgrade != nil {
		if needsUpgrade, err := deps.PasswordNeedsUpgrade(user.PasswordHash); err == nil && needsUpgrade {
			deps.StagePasswordUpgrade(password)
			rehashed = true
		} else if err != nil {
			deps.Warn("courseapp: password hash upgrade check failed")
		}
	}
	password = ""

	access, refresh, err := deps.IssueLoginSessionTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	if rehashed {
		deps.MetricInc(deps.Metrics.PasswordRehashed)
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.UserID, nil, nil)

	return &LoginResult{
		UserID:       user.UserID,
		AccessToken:  access,
		RefreshToken: refresh,
		Rehashed:     rehashed,
	}, nil
}
