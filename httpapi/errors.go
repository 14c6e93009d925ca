package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	courseapp "github.com/albi2/CourseAppApi"
	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// publicErrors lists the sentinels whose message is safe to return, in match order.
var publicErrors = []struct {
	err    error
	status int
}{
	{courseapp.ErrInvalidCredentials, http.StatusUnauthorized},
	{courseapp.ErrInvalidToken, http.StatusUnauthorized},
	{courseapp.ErrSessionNotFound, http.StatusUnauthorized},
	{courseapp.ErrSessionExpired, http.StatusUnauthorized},
	{courseapp.ErrCourseNotFound, http.StatusNotFound},
	{courseapp.ErrUserNotFound, http.StatusNotFound},
	{courseapp.ErrDuplicateUser, http.StatusConflict},
	{courseapp.ErrAlreadyEnrolled, http.StatusConflict},
	{courseapp.ErrPasswordPolicy, http.StatusBadRequest},
	{courseapp.ErrPasswordReuse, http.StatusBadRequest},
	{courseapp.ErrSessionCreationFailed, http.StatusBadRequest},
	{courseapp.ErrPersistence, http.StatusBadRequest},
	{courseapp.ErrInvalidInput, http.StatusBadRequest},
	{courseapp.ErrEngineNotReady, http.StatusServiceUnavailable},
}

func classify(err error) (int, errorBody) {
	var verr *courseapp.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorBody{Error: courseapp.ErrInvalidInput.Error(), Fields: verr.Fields}
	}
	for _, pe := range publicErrors {
		if errors.Is(err, pe.err) {
			return pe.status, errorBody{Error: pe.err.Error()}
		}
	}
	return http.StatusInternalServerError, errorBody{Error: "internal server error"}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError || errors.Is(err, courseapp.ErrPersistence) {
		s.logger.WithFields(logrus.Fields{
			"request_id": courseapp.RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.Join(courseapp.ErrInvalidInput, errors.New("empty body"))
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(courseapp.ErrInvalidInput, err)
	}
	return nil
}
