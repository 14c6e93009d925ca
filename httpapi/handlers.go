package httpapi

import (
	"net/http"

	courseapp "github.com/albi2/CourseAppApi"
	"github.com/albi2/CourseAppApi/middleware"
	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeSession(w http.ResponseWriter, res *courseapp.SessionResult) {
	w.Header().Set(middleware.HeaderAccessToken, res.AccessToken)
	w.Header().Set(middleware.HeaderRefreshToken, res.RefreshToken)
	writeJSON(w, http.StatusOK, res.User)
}

// auth returns the identity bound by the route guard. Routes are only mounted behind a
// guard, so a missing identity is a wiring bug.
func (s *Server) auth(w http.ResponseWriter, r *http.Request) (*middleware.Auth, bool) {
	a, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		s.writeError(w, r, courseapp.ErrInvalidToken)
		return nil, false
	}
	return a, true
}

/*
====================================
USERS
====================================
*/

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req courseapp.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.engine.Signup(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSession(w, res)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSession(w, res)
}

func (s *Server) newAccessToken(w http.ResponseWriter, r *http.Request) {
	a, ok := s.auth(w, r)
	if !ok {
		return
	}

	token, err := s.engine.RefreshAccess(r.Context(), a.User)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set(middleware.HeaderAccessToken, token)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	a, ok := s.auth(w, r)
	if !ok {
		return
	}

	u, err := s.engine.Me(r.Context(), a.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	a, ok := s.auth(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.ChangePassword(r.Context(), a.UserID, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) enroll(w http.ResponseWriter, r *http.Request) {
	a, ok := s.auth(w, r)
	if !ok {
		return
	}

	if _, err := s.engine.Enroll(r.Context(), a.UserID, chi.URLParam(r, "courseId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User enrolled successfully!"})
}

/*
====================================
COURSES
====================================
*/

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.engine.ListCourses(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) userCourses(w http.ResponseWriter, r *http.Request) {
	a, ok := s.auth(w, r)
	if !ok {
		return
	}

	courses, err := s.engine.UserCourses(r.Context(), a.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) createCourse(w http.ResponseWriter, r *http.Request) {
	var c courseapp.Course
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.engine.CreateCourse(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getCourse(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCourse(w http.ResponseWriter, r *http.Request) {
	var patch courseapp.CoursePatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.engine.UpdateCourse(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Document updated"})
}

func (s *Server) deleteCourse(w http.ResponseWriter, r *http.Request) {
	removed, err := s.engine.DeleteCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}
