package courseapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/albi2/CourseAppApi/internal"
	"github.com/albi2/CourseAppApi/internal/flows"
	"github.com/albi2/CourseAppApi/jwt"
	"github.com/albi2/CourseAppApi/password"
	"github.com/albi2/CourseAppApi/session"
	"github.com/sirupsen/logrus"

	internalaudit "github.com/albi2/CourseAppApi/internal/audit"
)

// Engine runs signup, login, session and enrollment operations against the
// configured stores.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	users        UserStore
	courses      CourseStore
	flows        flows.Service
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	passwordHash *password.Bcrypt
	jwtManager   *jwt.Manager
	logger       logrus.FieldLogger
	now          func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of all in-process counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AccessTTL returns the configured access-token lifetime.
func (e *Engine) AccessTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.AccessTTL
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warn(format string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warnf(format, args...)
}

func (e *Engine) ready() bool {
	return e != nil && e.users != nil && e.courses != nil && e.flows.Initialized()
}

func (e *Engine) flowDeps() flows.Deps {
	return flows.Deps{
		CreateSession: flows.CreateSessionDeps{
			Now:             e.now,
			Lifetime:        e.config.Session.RefreshTTL,
			PruneExpired:    e.config.Session.PruneExpired,
			MaxSessions:     e.config.Session.MaxSessionsPerUser,
			NewRefreshToken: internal.NewRefreshToken,
		},
		Login: flows.LoginDeps{
			PasswordUpgradeOnLogin: e.config.Password.UpgradeOnLogin,
			VerifyPassword:         e.passwordHash.Verify,
			PasswordNeedsUpgrade:   e.passwordHash.NeedsUpgrade,
			MetricInc:              func(id int) { e.metricInc(MetricID(id)) },
			EmitAudit:              e.emitAudit,
			Warn:                   e.warn,
			Metrics: flows.LoginMetrics{
				LoginSuccess:     int(MetricLoginSuccess),
				LoginFailure:     int(MetricLoginFailure),
				PasswordRehashed: int(MetricPasswordRehashed),
			},
			Events: flows.LoginEvents{
				LoginSuccess: auditEventLoginSuccess,
				LoginFailure: auditEventLoginFailure,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				UserNotFound:       ErrUserNotFound,
			},
		},
		VerifySession: flows.VerifySessionDeps{
			Now:             e.now,
			ValidTokenShape: internal.ValidRefreshTokenShape,
			NotFound:        ErrUserNotFound,
		},
		Validate: flows.ValidateDeps{
			ParseAccess:  e.jwtManager.ParseAccess,
			Now:          e.now,
			MaxClockSkew: e.config.JWT.Leeway,
		},
	}
}

// storeError passes classified store errors through and marks everything else as a
// persistence failure.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrDuplicateUser),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return errors.Join(ErrPersistence, err)
}

// saveUser is the password hashing hook: a staged plaintext is hashed right before
// write. On write failure the previous hash is restored and the plaintext stays staged.
func (e *Engine) saveUser(ctx context.Context, u *User, write func(context.Context, *User) error) error {
	prevHash := u.Password
	pending := u.passwordPending

	if pending {
		hash, err := e.passwordHash.Hash(u.pendingPassword)
		if err != nil {
			if errors.Is(err, password.ErrTooShort) || errors.Is(err, password.ErrTooLong) {
				return errors.Join(ErrPasswordPolicy, err)
			}
			return err
		}
		u.Password = hash
	}

	if err := write(ctx, u); err != nil {
		u.Password = prevHash
		return storeError(err)
	}

	if pending {
		u.clearPendingPassword()
	}
	return nil
}

func (e *Engine) insertUser(ctx context.Context, u *User) error {
	return e.saveUser(ctx, u, e.users.InsertUser)
}

func (e *Engine) updateUser(ctx context.Context, u *User) error {
	return e.saveUser(ctx, u, e.users.UpdateUser)
}

// Signup validates req, stores a new user, creates its first session and issues an
// access token. Duplicate usernames or emails return ErrDuplicateUser.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	req = normalizeSignup(req)
	if err := validateStruct(req); err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", err, func() map[string]string {
			return map[string]string{"identifier": req.Email}
		})
		return nil, err
	}

	u := &User{
		Username:  req.Username,
		Email:     req.Email,
		UserType:  req.UserType,
		CourseIDs: []string{},
	}
	u.SetPassword(req.Password)
	req.Password = ""

	if err := e.insertUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, auditEventSignupDuplicate, false, "", err, func() map[string]string {
				return map[string]string{"identifier": req.Email}
			})
			return nil, err
		}
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", err, func() map[string]string {
			return map[string]string{"identifier": req.Email}
		})
		return nil, err
	}

	refresh, err := e.CreateSession(ctx, u)
	if err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, u.ID, err, nil)
		return nil, err
	}
	access, err := e.IssueAccessToken(u)
	if err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, auditEventSignupFailure, false, u.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignupSuccess, true, u.ID, nil, nil)

	return &SessionResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Login verifies email and password, creates a session and issues an access token.
//
// Unknown emails and wrong passwords both return ErrInvalidCredentials. When the stored
// hash was produced with a lower bcrypt cost, the password is rehashed and persisted
// together with the new session.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*SessionResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var loaded *User
	result, err := e.flows.Login(ctx, strings.TrimSpace(email), plaintext, flows.LoginBindings{
		GetUserByEmail: func(ctx context.Context, email string) (flows.LoginUserRecord, error) {
			u, err := e.users.FindUserByEmail(ctx, email)
			if err != nil {
				return flows.LoginUserRecord{}, storeError(err)
			}
			loaded = u
			return flows.LoginUserRecord{
				UserID:       u.ID,
				Email:        u.Email,
				PasswordHash: u.Password,
			}, nil
		},
		StagePasswordUpgrade: func(p string) {
			if len(p) >= e.config.Password.MinLength && len(p) <= 72 {
				loaded.SetPassword(p)
			}
		},
		IssueLoginSessionTokens: func(ctx context.Context, _ flows.LoginUserRecord) (string, string, error) {
			refresh, err := e.CreateSession(ctx, loaded)
			if err != nil {
				return "", "", err
			}
			access, err := e.IssueAccessToken(loaded)
			if err != nil {
				return "", "", err
			}
			return access, refresh, nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		User:         loaded,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}

// CreateSession generates a refresh token, appends a session expiring after
// Config.Session.RefreshTTL and persists u. Expired sessions are pruned and the list
// is capped first. On failure u.Sessions is left as it was and the error wraps
// ErrSessionCreationFailed.
func (e *Engine) CreateSession(ctx context.Context, u *User) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if u == nil || u.ID == "" {
		return "", errors.Join(ErrSessionCreationFailed, ErrUserNotFound)
	}

	prev := u.Sessions
	result := e.flows.CreateSession(ctx, u.Sessions, func(ctx context.Context, next []session.Session) error {
		u.Sessions = next
		if err := e.updateUser(ctx, u); err != nil {
			u.Sessions = prev
			return err
		}
		return nil
	})

	if result.Failure != flows.CreateSessionFailureNone {
		err := errors.Join(ErrSessionCreationFailed, result.Err)
		e.metricInc(MetricSessionCreationFailed)
		e.emitAudit(ctx, auditEventSessionCreationFailed, false, u.ID, err, nil)
		return "", err
	}

	e.metricInc(MetricSessionCreated)
	e.metrics.Add(MetricSessionPruned, uint64(result.Dropped))
	e.emitAudit(ctx, auditEventSessionCreated, true, u.ID, nil, nil)

	return result.Token, nil
}

// FindByIDAndToken returns the user whose id is userID and who holds a session with
// token, expired or not.
func (e *Engine) FindByIDAndToken(ctx context.Context, userID, token string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	u, err := e.users.FindUserByIDAndToken(ctx, userID, token)
	if err != nil {
		return nil, storeError(err)
	}
	return u, nil
}

// VerifySession is the refresh guard check. It returns the user when token names an
// unexpired session of userID, ErrSessionNotFound when no such user exists and
// ErrSessionExpired when every matching session has expired.
func (e *Engine) VerifySession(ctx context.Context, userID, token string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var found *User
	result := e.flows.VerifySession(ctx, userID, token, func(ctx context.Context, id, tok string) ([]session.Session, error) {
		u, err := e.FindByIDAndToken(ctx, id, tok)
		if err != nil {
			return nil, err
		}
		found = u
		return u.Sessions, nil
	})

	switch result.Failure {
	case flows.VerifySessionFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, found.ID, nil, nil)
		return found, nil
	case flows.VerifySessionFailureNotFound:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, userID, ErrSessionNotFound, nil)
		return nil, ErrSessionNotFound
	case flows.VerifySessionFailureExpired:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, userID, ErrSessionExpired, nil)
		return nil, ErrSessionExpired
	default:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, userID, result.Err, nil)
		return nil, result.Err
	}
}

// RefreshAccess issues a new access token for a user that passed the refresh guard.
// The refresh token itself is not rotated.
func (e *Engine) RefreshAccess(ctx context.Context, u *User) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if u == nil || u.ID == "" {
		return "", ErrUserNotFound
	}
	return e.IssueAccessToken(u)
}

// IssueAccessToken signs a fresh access token for u.
func (e *Engine) IssueAccessToken(u *User) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	token, err := e.jwtManager.CreateAccess(u.ID)
	if err != nil {
		return "", err
	}
	e.metricInc(MetricAccessIssued)
	return token, nil
}

// ValidateAccess verifies an access token without touching the store.
// Every failure returns ErrInvalidToken.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	result := e.flows.Validate(ctx, token)
	if result.Failure != flows.ValidateFailureNone {
		e.metricInc(MetricAccessRejected)
		return nil, ErrInvalidToken
	}

	out := &AuthResult{UserID: result.Claims.UserID}
	if result.Claims.IssuedAt != nil {
		out.IssuedAt = result.Claims.IssuedAt.Time
	}
	if result.Claims.ExpiresAt != nil {
		out.ExpiresAt = result.Claims.ExpiresAt.Time
	}
	return out, nil
}

// ChangePassword replaces the password of userID after verifying oldPassword.
// Existing sessions are kept.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	u, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		err = storeError(err)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, err, nil)
		return err
	}

	ok, err := e.passwordHash.Verify(oldPassword, u.Password)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, userID, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}
	if oldPassword == newPassword {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChangeReuse, false, userID, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	u.SetPassword(newPassword)
	if err := e.updateUser(ctx, u); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, err, nil)
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, nil, nil)
	return nil
}

// Me loads the user document of userID.
func (e *Engine) Me(ctx context.Context, userID string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	u, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return u, nil
}
