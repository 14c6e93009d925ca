package internaldefs

import (
	courseapp "github.com/albi2/CourseAppApi"
)

// CounterDef maps an engine counter to its exported name.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   courseapp.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   courseapp.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: courseapp.MetricSignupSuccess, Name: "courseapp_signup_success_total", Help: "Successful signups."},
	{ID: courseapp.MetricSignupDuplicate, Name: "courseapp_signup_duplicate_total", Help: "Signups rejected for a duplicate username or email."},
	{ID: courseapp.MetricSignupFailure, Name: "courseapp_signup_failure_total", Help: "Failed signups."},
	{ID: courseapp.MetricLoginSuccess, Name: "courseapp_login_success_total", Help: "Successful login attempts."},
	{ID: courseapp.MetricLoginFailure, Name: "courseapp_login_failure_total", Help: "Failed login attempts."},
	{ID: courseapp.MetricPasswordRehashed, Name: "courseapp_password_rehashed_total", Help: "Password hashes upgraded on login."},
	{ID: courseapp.MetricSessionCreated, Name: "courseapp_session_created_total", Help: "Created sessions."},
	{ID: courseapp.MetricSessionCreationFailed, Name: "courseapp_session_creation_failed_total", Help: "Session creations that could not be persisted."},
	{ID: courseapp.MetricSessionPruned, Name: "courseapp_session_pruned_total", Help: "Sessions dropped at session creation because they expired or exceeded the per-user cap."},
	{ID: courseapp.MetricRefreshSuccess, Name: "courseapp_refresh_success_total", Help: "Refresh sessions accepted by the refresh guard."},
	{ID: courseapp.MetricRefreshFailure, Name: "courseapp_refresh_failure_total", Help: "Refresh sessions rejected by the refresh guard."},
	{ID: courseapp.MetricAccessIssued, Name: "courseapp_access_issued_total", Help: "Issued access tokens."},
	{ID: courseapp.MetricAccessRejected, Name: "courseapp_access_rejected_total", Help: "Access tokens rejected by the access guard."},
	{ID: courseapp.MetricPasswordChangeSuccess, Name: "courseapp_password_change_success_total", Help: "Successful password changes."},
	{ID: courseapp.MetricPasswordChangeInvalidOld, Name: "courseapp_password_change_invalid_old_total", Help: "Password change attempts with invalid old password."},
	{ID: courseapp.MetricPasswordChangeReuseRejected, Name: "courseapp_password_change_reuse_rejected_total", Help: "Password change attempts rejected for reuse."},
	{ID: courseapp.MetricEnrollmentSuccess, Name: "courseapp_enrollment_success_total", Help: "Successful course enrollments."},
	{ID: courseapp.MetricEnrollmentDuplicate, Name: "courseapp_enrollment_duplicate_total", Help: "Enrollments rejected because the user was already enrolled."},
	{ID: courseapp.MetricEnrollmentFailure, Name: "courseapp_enrollment_failure_total", Help: "Failed course enrollments."},
	{ID: courseapp.MetricCourseCreated, Name: "courseapp_course_created_total", Help: "Created courses."},
	{ID: courseapp.MetricCourseUpdated, Name: "courseapp_course_updated_total", Help: "Updated courses."},
	{ID: courseapp.MetricCourseDeleted, Name: "courseapp_course_deleted_total", Help: "Deleted courses."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: courseapp.MetricValidateLatency, Name: "courseapp_access_validate_latency_seconds", Help: "Access token validation latency."},
}

// HistogramBounds are the upper bucket bounds in seconds, matching the engine histogram.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramUpperBounds are the finite bounds of HistogramBounds as numbers.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix renders HistogramBounds for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
