package courseapp

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by Login and ChangePassword when the
	// email is unknown or the password does not verify. The two cases are
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when an access token is missing, malformed, forged or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionNotFound is returned by VerifySession when no user carries the refresh token.
	ErrSessionNotFound = errors.New("user not found, make sure the id and refresh token are correct")
	// ErrSessionExpired is returned by VerifySession when every matching session has expired.
	ErrSessionExpired = errors.New("refresh token has expired or the session is invalid")
	// ErrSessionCreationFailed is returned when a new session could not be persisted.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrPersistence wraps unclassified document store failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrDuplicateUser is returned when the username or email is already taken.
	ErrDuplicateUser = errors.New("username or email already exists")
	// ErrUserNotFound is returned when a user lookup matches nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrCourseNotFound is returned when a course lookup matches nothing.
	ErrCourseNotFound = errors.New("course not found")
	// ErrAlreadyEnrolled is returned by Enroll when the user already holds the course.
	ErrAlreadyEnrolled = errors.New("user already enrolled in course")
	// ErrInvalidInput is the sentinel wrapped by every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPasswordPolicy is returned when a plaintext password violates the length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when the new password equals the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrEngineNotReady is returned by methods called on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError reports field-level input problems. It unwraps to ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
