package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	courseapp "github.com/albi2/CourseAppApi"
)

// Header names carrying credentials.
const (
	HeaderAccessToken  = "x-access-token"
	HeaderRefreshToken = "x-refresh-token"
	HeaderUserID       = "_id"
)

// AuthMethod names the guard that authenticated a request.
type AuthMethod int

const (
	// AuthAccess marks requests authenticated by an access token.
	AuthAccess AuthMethod = iota + 1
	// AuthRefresh marks requests authenticated by a refresh session.
	AuthRefresh
)

func (m AuthMethod) String() string {
	switch m {
	case AuthAccess:
		return "access"
	case AuthRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// Auth is the identity bound to a request by a guard. User and RefreshToken are only
// set by [RequireSession].
type Auth struct {
	UserID       string
	User         *courseapp.User
	RefreshToken string
	Method       AuthMethod
}

type authContextKey struct{}

// AuthFromContext returns the identity bound by a guard, if any.
func AuthFromContext(ctx context.Context) (*Auth, bool) {
	a, ok := ctx.Value(authContextKey{}).(*Auth)
	return a, ok
}

// WithAuth binds a to ctx.
func WithAuth(ctx context.Context, a *Auth) context.Context {
	return context.WithValue(ctx, authContextKey{}, a)
}

// RequireAccess admits requests whose x-access-token header holds a valid access
// token. Everything else gets 401 and the wrapped handler is not called.
func RequireAccess(engine *courseapp.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				unauthorized(w, courseapp.ErrEngineNotReady)
				return
			}

			token := strings.TrimSpace(r.Header.Get(HeaderAccessToken))
			if token == "" {
				unauthorized(w, courseapp.ErrInvalidToken)
				return
			}

			res, err := engine.ValidateAccess(r.Context(), token)
			if err != nil {
				unauthorized(w, err)
				return
			}

			ctx := WithAuth(r.Context(), &Auth{
				UserID: res.UserID,
				Method: AuthAccess,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession admits requests whose _id and x-refresh-token headers name an
// unexpired session. Everything else gets 401 and the wrapped handler is not called.
func RequireSession(engine *courseapp.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				unauthorized(w, courseapp.ErrEngineNotReady)
				return
			}

			userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
			token := strings.TrimSpace(r.Header.Get(HeaderRefreshToken))

			u, err := engine.VerifySession(r.Context(), userID, token)
			if err != nil {
				unauthorized(w, err)
				return
			}

			ctx := WithAuth(r.Context(), &Auth{
				UserID:       u.ID,
				User:         u,
				RefreshToken: token,
				Method:       AuthRefresh,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// unauthorized writes a 401. Only the guard-level sentinels are echoed; store
// failures are reported generically.
func unauthorized(w http.ResponseWriter, err error) {
	msg := "unauthorized"
	switch err {
	case courseapp.ErrInvalidToken, courseapp.ErrSessionNotFound, courseapp.ErrSessionExpired:
		msg = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
