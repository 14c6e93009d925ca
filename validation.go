package courseapp

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

var validationMessages = map[string]string{
	"required": "The field '%s' is required.",
	"min":      "The field '%s' must be at least %s.",
	"max":      "The field '%s' must be at most %s.",
	"oneof":    "The field '%s' must be one of [%s].",
}

func fieldMessage(e validator.FieldError) string {
	msg, ok := validationMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("The field '%s' is invalid: %s.", e.Field(), e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}

// validateStruct runs the struct tags of s and converts failures to a *ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Join(ErrInvalidInput, err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func normalizeSignup(req SignupRequest) SignupRequest {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	return req
}

func normalizeCourse(c *Course) {
	c.CourseName = strings.TrimSpace(c.CourseName)
	c.Lecturer = strings.TrimSpace(c.Lecturer)
	c.Description = strings.TrimSpace(c.Description)
}

// validateCourse checks c after defaults and trimming have been applied.
func validateCourse(c *Course) error {
	normalizeCourse(c)

	err := validateStruct(c)
	var verr *ValidationError
	if err != nil && !errors.As(err, &verr) {
		return err
	}
	if verr == nil {
		verr = &ValidationError{Fields: map[string]string{}}
	}
	if c.StartDate.IsZero() {
		verr.Fields["startDate"] = "The field 'startDate' is required."
	}
	if c.LastUpdated.IsZero() {
		verr.Fields["lastUpdated"] = "The field 'lastUpdated' is required."
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func applyCoursePatch(c *Course, p CoursePatch) {
	if p.Number != nil {
		c.Number = *p.Number
	}
	if p.CourseName != nil {
		c.CourseName = *p.CourseName
	}
	if p.Credits != nil {
		c.Credits = *p.Credits
	}
	if p.Lecturer != nil {
		c.Lecturer = *p.Lecturer
	}
	if p.NoOfStudents != nil {
		c.NoOfStudents = *p.NoOfStudents
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.NoOfWeeks != nil {
		c.NoOfWeeks = *p.NoOfWeeks
	}
	if p.LastUpdated != nil {
		c.LastUpdated = *p.LastUpdated
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
}
