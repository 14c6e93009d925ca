package courseapp

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/albi2/CourseAppApi/internal/audit"
	"github.com/albi2/CourseAppApi/session"
	"github.com/sirupsen/logrus"
)

// UserType classifies an account. It is optional; the empty value means unspecified.
type UserType string

const (
	// UserTypeAdmin marks an administrator account.
	UserTypeAdmin UserType = "admin"
	// UserTypeStudent marks a student account.
	UserTypeStudent UserType = "student"
	// UserTypeLecturer marks a lecturer account.
	UserTypeLecturer UserType = "lecturer"
)

// User is the account document. Password and Sessions are never serialized to JSON.
//
// Once persisted, Password always holds a bcrypt hash. A new plaintext is staged with
// [User.SetPassword] and hashed by the Engine on the next save.
type User struct {
	ID        string            `json:"_id"`
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	Password  string            `json:"-"`
	UserType  UserType          `json:"userType,omitempty"`
	CourseIDs []string          `json:"courseIds"`
	Sessions  []session.Session `json:"-"`

	pendingPassword string
	passwordPending bool
}

// SetPassword stages plain to be hashed on the next Engine save.
func (u *User) SetPassword(plain string) {
	u.pendingPassword = plain
	u.passwordPending = true
}

// PasswordPending reports whether a staged plaintext is waiting to be hashed.
func (u *User) PasswordPending() bool {
	return u != nil && u.passwordPending
}

func (u *User) clearPendingPassword() {
	u.pendingPassword = ""
	u.passwordPending = false
}

// Clone returns a deep copy of u, including any staged password.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.CourseIDs != nil {
		out.CourseIDs = append([]string(nil), u.CourseIDs...)
	}
	out.Sessions = session.Clone(u.Sessions)
	return &out
}

// HasCourse reports whether courseID is already in the user's course list.
func (u *User) HasCourse(courseID string) bool {
	for _, id := range u.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// Course is a catalog entry. Number is the human-facing course number, distinct from
// the store-assigned ID.
type Course struct {
	ID           string    `json:"_id"`
	Number       int       `json:"id" validate:"min=1"`
	CourseName   string    `json:"courseName" validate:"required,min=2"`
	Credits      float64   `json:"credits" validate:"required"`
	Lecturer     string    `json:"lecturer" validate:"required,min=3"`
	NoOfStudents int       `json:"noOfStudents" validate:"min=0"`
	StartDate    time.Time `json:"startDate"`
	NoOfWeeks    int       `json:"noOfWeeks" validate:"min=0"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Description  string    `json:"description,omitempty"`
}

// CoursePatch carries the fields of a partial course update. Nil fields are left unchanged.
type CoursePatch struct {
	Number       *int       `json:"id,omitempty"`
	CourseName   *string    `json:"courseName,omitempty"`
	Credits      *float64   `json:"credits,omitempty"`
	Lecturer     *string    `json:"lecturer,omitempty"`
	NoOfStudents *int       `json:"noOfStudents,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	NoOfWeeks    *int       `json:"noOfWeeks,omitempty"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
	Description  *string    `json:"description,omitempty"`
}

// SignupRequest is the input of [Engine.Signup].
type SignupRequest struct {
	Username string   `json:"username" validate:"required"`
	Email    string   `json:"email" validate:"required,min=3"`
	Password string   `json:"password" validate:"required"`
	UserType UserType `json:"userType" validate:"omitempty,oneof=admin student lecturer"`
}

// SessionResult is returned by [Engine.Signup] and [Engine.Login].
type SessionResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by [Engine.ValidateAccess].
type AuthResult struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// UserStore persists user documents.
//
// Implementations return ErrUserNotFound when a lookup matches nothing and
// ErrDuplicateUser on a username or email uniqueness violation. Returned users must
// be independent copies.
type UserStore interface {
	// InsertUser stores a new user and assigns u.ID.
	InsertUser(ctx context.Context, u *User) error
	// UpdateUser replaces the stored document with u. Last write wins.
	UpdateUser(ctx context.Context, u *User) error
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// FindUserByIDAndToken matches the id exactly and any session carrying token.
	FindUserByIDAndToken(ctx context.Context, id, token string) (*User, error)
}

// CourseStore persists catalog entries.
//
// Implementations return ErrCourseNotFound when a lookup matches nothing.
type CourseStore interface {
	ListCourses(ctx context.Context) ([]Course, error)
	FindCourseByID(ctx context.Context, id string) (*Course, error)
	// FindCoursesByIDs returns the courses in the order of ids, skipping ids that match nothing.
	FindCoursesByIDs(ctx context.Context, ids []string) ([]Course, error)
	// InsertCourse stores a new course and assigns c.ID.
	InsertCourse(ctx context.Context, c *Course) error
	UpdateCourse(ctx context.Context, c *Course) error
	// DeleteCourse removes the course and returns the removed document.
	DeleteCourse(ctx context.Context, id string) (*Course, error)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// LogrusSink is an [AuditSink] that writes each event as a structured log entry.
type LogrusSink = internalaudit.LogrusSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLogrusSink creates a [LogrusSink] that logs through logger.
func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink {
	return internalaudit.NewLogrusSink(logger)
}
