package courseapp

import (
	"context"
	"errors"
)

// AddCourse appends courseID to u.CourseIDs and persists u. On failure u.CourseIDs is
// left as it was.
func (e *Engine) AddCourse(ctx context.Context, u *User, courseID string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if u == nil || u.ID == "" {
		return nil, ErrUserNotFound
	}

	prev := u.CourseIDs
	next := make([]string, 0, len(prev)+1)
	next = append(next, prev...)
	u.CourseIDs = append(next, courseID)

	if err := e.updateUser(ctx, u); err != nil {
		u.CourseIDs = prev
		return nil, err
	}
	return u, nil
}

// Enroll adds courseID to the course list of userID and increments the course's
// student count. Unknown courses return ErrCourseNotFound. Unless
// Config.Enrollment.AllowDuplicate is set, enrolling twice returns ErrAlreadyEnrolled.
func (e *Engine) Enroll(ctx context.Context, userID, courseID string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	fail := func(err error) (*User, error) {
		if errors.Is(err, ErrAlreadyEnrolled) {
			e.metricInc(MetricEnrollmentDuplicate)
		} else {
			e.metricInc(MetricEnrollmentFailure)
		}
		e.emitAudit(ctx, auditEventEnrollmentFailure, false, userID, err, func() map[string]string {
			return map[string]string{"course_id": courseID}
		})
		return nil, err
	}

	if courseID == "" {
		return fail(fieldError("courseId", "The field 'courseId' is required."))
	}

	course, err := e.courses.FindCourseByID(ctx, courseID)
	if err != nil {
		return fail(storeError(err))
	}
	u, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		return fail(storeError(err))
	}
	if !e.config.Enrollment.AllowDuplicate && u.HasCourse(course.ID) {
		return fail(ErrAlreadyEnrolled)
	}

	course.NoOfStudents++
	course.LastUpdated = e.now().UTC()
	if err := e.courses.UpdateCourse(ctx, course); err != nil {
		return fail(storeError(err))
	}

	updated, err := e.AddCourse(ctx, u, course.ID)
	if err != nil {
		if rerr := e.releaseSeat(ctx, course.ID); rerr != nil {
			e.warn("courseapp: enrollment rollback failed for course %s: %v", course.ID, rerr)
		}
		return fail(err)
	}

	e.metricInc(MetricEnrollmentSuccess)
	e.emitAudit(ctx, auditEventEnrollmentSuccess, true, userID, nil, func() map[string]string {
		return map[string]string{"course_id": course.ID}
	})
	return updated, nil
}

// releaseSeat undoes one student-count increment against the stored course rather
// than restoring an earlier snapshot, so enrollments committed in between survive.
// The read and the write are still separate calls; a write landing between them is
// lost, as with any last-write-wins update.
func (e *Engine) releaseSeat(ctx context.Context, courseID string) error {
	course, err := e.courses.FindCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course.NoOfStudents > 0 {
		course.NoOfStudents--
	}
	course.LastUpdated = e.now().UTC()
	return e.courses.UpdateCourse(ctx, course)
}

// UserCourses returns the courses userID is enrolled in, in enrollment order.
// Course ids that no longer resolve are skipped.
func (e *Engine) UserCourses(ctx context.Context, userID string) ([]Course, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	u, err := e.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if len(u.CourseIDs) == 0 {
		return []Course{}, nil
	}
	courses, err := e.courses.FindCoursesByIDs(ctx, u.CourseIDs)
	if err != nil {
		return nil, storeError(err)
	}
	return courses, nil
}
