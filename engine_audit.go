package courseapp

import (
	"context"
	"errors"
)

const (
	auditEventSignupSuccess            = "signup_success"
	auditEventSignupFailure            = "signup_failure"
	auditEventSignupDuplicate          = "signup_duplicate"
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventSessionCreated           = "session_created"
	auditEventSessionCreationFailed    = "session_creation_failed"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshInvalid           = "refresh_invalid"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeInvalidOld = "password_change_invalid_old"
	auditEventPasswordChangeReuse      = "password_change_reuse_attempt"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventEnrollmentSuccess        = "enrollment_success"
	auditEventEnrollmentFailure        = "enrollment_failure"
	auditEventCourseCreated            = "course_created"
	auditEventCourseUpdated            = "course_updated"
	auditEventCourseDeleted            = "course_deleted"
)

// AuditErrorCode is the stable, non-sensitive failure code recorded on audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrInvalidToken          AuditErrorCode = "invalid_token"
	auditErrSessionNotFound       AuditErrorCode = "session_not_found"
	auditErrSessionExpired        AuditErrorCode = "session_expired"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrUserNotFound          AuditErrorCode = "user_not_found"
	auditErrCourseNotFound        AuditErrorCode = "course_not_found"
	auditErrAlreadyEnrolled       AuditErrorCode = "already_enrolled"
	auditErrDuplicate             AuditErrorCode = "duplicate"
	auditErrInvalidInput          AuditErrorCode = "invalid_input"
	auditErrPasswordPolicy        AuditErrorCode = "password_policy"
	auditErrPasswordReuse         AuditErrorCode = "password_reuse"
	auditErrPersistence           AuditErrorCode = "persistence"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	// The dispatcher stamps id, time and request identity.
	event := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrCourseNotFound):
		return auditErrCourseNotFound
	case errors.Is(err, ErrAlreadyEnrolled):
		return auditErrAlreadyEnrolled
	case errors.Is(err, ErrDuplicateUser):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrPersistence):
		return auditErrPersistence
	default:
		return auditErrInternal
	}
}
