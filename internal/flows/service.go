package flows

import (
	"context"

	"github.com/albi2/CourseAppApi/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.ParseAccess != nil
}

// CreateSession runs the create-session flow. Persist is supplied per call because
// it closes over the user document being extended.
func (s Service) CreateSession(ctx context.Context, existing []session.Session, persist func(context.Context, []session.Session) error) CreateSessionResult {
	deps := s.deps.CreateSession
	deps.Persist = persist
	return RunCreateSession(ctx, existing, deps)
}

// LoginBindings are the login dependencies that close over the user being loaded.
type LoginBindings struct {
	GetUserByEmail          func(context.Context, string) (LoginUserRecord, error)
	StagePasswordUpgrade    func(string)
	IssueLoginSessionTokens func(context.Context, LoginUserRecord) (string, string, error)
}

func (s Service) Login(ctx context.Context, email, password string, b LoginBindings) (*LoginResult, error) {
	deps := s.deps.Login
	deps.GetUserByEmail = b.GetUserByEmail
	deps.StagePasswordUpgrade = b.StagePasswordUpgrade
	deps.IssueLoginSessionTokens = b.IssueLoginSessionTokens
	return RunLogin(ctx, email, password, deps)
}

func (s Service) VerifySession(ctx context.Context, userID, token string, find func(context.Context, string, string) ([]session.Session, error)) VerifySessionResult {
	deps := s.deps.VerifySession
	deps.FindSessions = find
	return RunVerifySession(ctx, userID, token, deps)
}

func (s Service) Validate(ctx context.Context, tokenStr string) ValidateResult {
	return RunValidate(ctx, tokenStr, s.deps.Validate)
}
