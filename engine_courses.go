package courseapp

import (
	"context"
)

const defaultNoOfWeeks = 15

// ListCourses returns the whole catalog.
func (e *Engine) ListCourses(ctx context.Context) ([]Course, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	courses, err := e.courses.ListCourses(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	if courses == nil {
		courses = []Course{}
	}
	return courses, nil
}

// GetCourse returns a single course.
func (e *Engine) GetCourse(ctx context.Context, id string) (*Course, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	c, err := e.courses.FindCourseByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// CreateCourse validates c, applies defaults and stores it. A zero LastUpdated is
// stamped with the current time. Any ID on c is replaced
// by the store-assigned one.
func (e *Engine) CreateCourse(ctx context.Context, c Course) (*Course, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	c.ID = ""
	if c.NoOfWeeks == 0 {
		c.NoOfWeeks = defaultNoOfWeeks
	}
	if c.LastUpdated.IsZero() {
		c.LastUpdated = e.now().UTC()
	}
	if err := validateCourse(&c); err != nil {
		return nil, err
	}

	if err := e.courses.InsertCourse(ctx, &c); err != nil {
		return nil, storeError(err)
	}

	e.metricInc(MetricCourseCreated)
	e.emitAudit(ctx, auditEventCourseCreated, true, "", nil, func() map[string]string {
		return map[string]string{"course_id": c.ID}
	})
	return &c, nil
}

// UpdateCourse applies the non-nil fields of patch to course id and stores the result.
func (e *Engine) UpdateCourse(ctx context.Context, id string, patch CoursePatch) (*Course, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	c, err := e.courses.FindCourseByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	applyCoursePatch(c, patch)
	if err := validateCourse(c); err != nil {
		return nil, err
	}
	if err := e.courses.UpdateCourse(ctx, c); err != nil {
		return nil, storeError(err)
	}

	e.metricInc(MetricCourseUpdated)
	e.emitAudit(ctx, auditEventCourseUpdated, true, "", nil, func() map[string]string {
		return map[string]string{"course_id": c.ID}
	})
	return c, nil
}

// DeleteCourse removes course id and returns the removed document. User course lists
// are not rewritten; dangling ids are skipped by [Engine.UserCourses].
func (e *Engine) DeleteCourse(ctx context.Context, id string) (*Course, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	c, err := e.courses.DeleteCourse(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	e.metricInc(MetricCourseDeleted)
	e.emitAudit(ctx, auditEventCourseDeleted, true, "", nil, func() map[string]string {
		return map[string]string{"course_id": c.ID}
	})
	return c, nil
}
