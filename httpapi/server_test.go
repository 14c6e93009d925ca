package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	courseapp "github.com/albi2/CourseAppApi"
	"github.com/albi2/CourseAppApi/middleware"
	"github.com/albi2/CourseAppApi/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"
)

type apiHarness struct {
	t       *testing.T
	handler http.Handler
	hook    *logtest.Hook
}

func newAPIHarness(t *testing.T, cfg Config) *apiHarness {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	engineCfg := courseapp.DefaultConfig()
	engineCfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	engineCfg.Password.Cost = bcrypt.MinCost

	store := redisstore.New(rdb, "api")
	engine, err := courseapp.New().
		WithConfig(engineCfg).
		WithUserStore(store).
		WithCourseStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	logger, hook := logtest.NewNullLogger()
	if cfg.Health == nil {
		cfg.Health = store.Ping
	}
	return &apiHarness{
		t:       t,
		handler: New(engine, logger, cfg).Handler(),
		hook:    hook,
	}
}

func (h *apiHarness) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func (h *apiHarness) signup(username, email string) (id, access, refresh string) {
	h.t.Helper()
	rr := h.do(http.MethodPost, "/users", map[string]string{
		"username": username,
		"email":    email,
		"password": "correct-horse",
		"userType": "student",
	}, nil)
	if rr.Code != http.StatusOK {
		h.t.Fatalf("signup: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	user := decode[map[string]any](h.t, rr)
	if _, leaked := user["password"]; leaked {
		h.t.Fatal("password must not be serialized")
	}
	if _, leaked := user["sessions"]; leaked {
		h.t.Fatal("sessions must not be serialized")
	}
	return user["_id"].(string), rr.Header().Get(middleware.HeaderAccessToken), rr.Header().Get(middleware.HeaderRefreshToken)
}

func course() map[string]any {
	return map[string]any{
		"id":          101,
		"courseName":  "Distributed Systems",
		"credits":     6,
		"lecturer":    "Dr. Lamport",
		"startDate":   "2024-09-01T00:00:00Z",
		"lastUpdated": "2024-08-01T00:00:00Z",
	}
}

func TestSignupLoginAndRefresh(t *testing.T) {
	h := newAPIHarness(t, Config{})

	id, access, refresh := h.signup("ada", "ada@example.com")
	if access == "" || len(refresh) != 128 {
		t.Fatalf("expected token headers, got %q / %q", access, refresh)
	}

	rr := h.do(http.MethodPost, "/users", map[string]string{
		"username": "ada2", "email": "ada@example.com", "password": "correct-horse",
	}, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", rr.Code)
	}

	rr = h.do(http.MethodPost, "/users", map[string]string{"email": "x@example.com"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid signup: expected 400, got %d", rr.Code)
	}
	if body := decode[errorBody](t, rr); body.Fields["username"] == "" || body.Fields["password"] == "" {
		t.Fatalf("expected field errors, got %+v", body)
	}

	rr = h.do(http.MethodPost, "/users/login", loginRequest{Email: "ada@example.com", Password: "nope"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rr.Code)
	}

	rr = h.do(http.MethodPost, "/users/login", loginRequest{Email: "ada@example.com", Password: "correct-horse"}, nil)
	if rr.Code != http.StatusOK || rr.Header().Get(middleware.HeaderRefreshToken) == "" {
		t.Fatalf("login: expected 200 with tokens, got %d", rr.Code)
	}

	rr = h.do(http.MethodGet, "/users/me", nil, map[string]string{middleware.HeaderAccessToken: access})
	if rr.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rr.Code)
	}
	if me := decode[map[string]any](t, rr); me["email"] != "ada@example.com" {
		t.Fatalf("unexpected me: %v", me)
	}

	rr = h.do(http.MethodGet, "/users/me", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: expected 401, got %d", rr.Code)
	}

	rr = h.do(http.MethodGet, "/users/me/new-access-token", nil, map[string]string{
		middleware.HeaderUserID:       id,
		middleware.HeaderRefreshToken: refresh,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	fresh := rr.Header().Get(middleware.HeaderAccessToken)
	if body := decode[map[string]string](t, rr); body["accessToken"] != fresh || fresh == "" {
		t.Fatalf("expected new access token in header and body, got %v", body)
	}

	rr = h.do(http.MethodGet, "/users/me/new-access-token", nil, map[string]string{
		middleware.HeaderUserID:       id,
		middleware.HeaderRefreshToken: access,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("refresh with access token: expected 401, got %d", rr.Code)
	}
}

func TestChangePassword(t *testing.T) {
	h := newAPIHarness(t, Config{})
	_, access, _ := h.signup("ada", "ada@example.com")
	auth := map[string]string{middleware.HeaderAccessToken: access}

	rr := h.do(http.MethodPatch, "/users/me/password", changePasswordRequest{OldPassword: "wrong", NewPassword: "next-password"}, auth)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong old password: expected 401, got %d", rr.Code)
	}
	rr = h.do(http.MethodPatch, "/users/me/password", changePasswordRequest{OldPassword: "correct-horse", NewPassword: "next-password"}, auth)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("change password: expected 204, got %d", rr.Code)
	}
	rr = h.do(http.MethodPost, "/users/login", loginRequest{Email: "ada@example.com", Password: "next-password"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d", rr.Code)
	}
}

func TestCourseRoutesAndEnrollment(t *testing.T) {
	h := newAPIHarness(t, Config{})
	_, access, _ := h.signup("ada", "ada@example.com")
	auth := map[string]string{middleware.HeaderAccessToken: access}

	if rr := h.do(http.MethodPost, "/courses", course(), nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("unguarded create: expected 401, got %d", rr.Code)
	}

	rr := h.do(http.MethodPost, "/courses", course(), auth)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create course: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[courseapp.Course](t, rr)
	if created.ID == "" || created.NoOfWeeks != 15 {
		t.Fatalf("unexpected created course: %+v", created)
	}

	rr = h.do(http.MethodPost, "/courses", map[string]any{"courseName": "X"}, auth)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid course: expected 400, got %d", rr.Code)
	}

	rr = h.do(http.MethodGet, "/all-courses", nil, auth)
	if all := decode[[]courseapp.Course](t, rr); len(all) != 1 {
		t.Fatalf("expected one course, got %d", len(all))
	}

	rr = h.do(http.MethodPatch, "/users/"+created.ID, nil, auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("enroll: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if msg := decode[messageResponse](t, rr); msg.Message != "User enrolled successfully!" {
		t.Fatalf("unexpected enroll message %q", msg.Message)
	}
	if rr := h.do(http.MethodPatch, "/users/"+created.ID, nil, auth); rr.Code != http.StatusConflict {
		t.Fatalf("second enroll: expected 409, got %d", rr.Code)
	}
	if rr := h.do(http.MethodPatch, "/users/missing-course", nil, auth); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown course: expected 404, got %d", rr.Code)
	}

	rr = h.do(http.MethodGet, "/courses", nil, auth)
	mine := decode[[]courseapp.Course](t, rr)
	if len(mine) != 1 || mine[0].NoOfStudents != 1 {
		t.Fatalf("unexpected user courses: %+v", mine)
	}

	rr = h.do(http.MethodPatch, "/courses/"+created.ID, map[string]any{"lecturer": "Prof. Liskov"}, auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch course: expected 200, got %d", rr.Code)
	}
	if msg := decode[messageResponse](t, rr); msg.Message != "Document updated" {
		t.Fatalf("unexpected patch message %q", msg.Message)
	}
	rr = h.do(http.MethodGet, "/courses/"+created.ID, nil, auth)
	if got := decode[courseapp.Course](t, rr); got.Lecturer != "Prof. Liskov" || got.CourseName != "Distributed Systems" {
		t.Fatalf("unexpected patched course: %+v", got)
	}

	rr = h.do(http.MethodDelete, "/courses/"+created.ID, nil, auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}
	if removed := decode[courseapp.Course](t, rr); removed.ID != created.ID {
		t.Fatalf("expected removed document, got %+v", removed)
	}
	if rr := h.do(http.MethodDelete, "/courses/"+created.ID, nil, auth); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}
}

func TestMalformedJSON(t *testing.T) {
	h := newAPIHarness(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHealthMetricsAndRequestID(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	h := newAPIHarness(t, Config{MetricsHandler: metrics})

	rr := h.do(http.MethodGet, "/health", nil, map[string]string{HeaderRequestID: "req-42"})
	if rr.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rr.Code)
	}
	if rr.Header().Get(HeaderRequestID) != "req-42" {
		t.Fatalf("expected request id echo, got %q", rr.Header().Get(HeaderRequestID))
	}

	rr = h.do(http.MethodGet, "/metrics", nil, nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "# metrics\n" {
		t.Fatalf("metrics: unexpected %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(HeaderRequestID) == "" {
		t.Fatal("expected generated request id")
	}

	entry := h.hook.LastEntry()
	if entry == nil || entry.Message != "http.request" || entry.Level != logrus.InfoLevel {
		t.Fatalf("expected request log entry, got %+v", entry)
	}
	if entry.Data["path"] != "/metrics" || entry.Data["status"] != http.StatusOK {
		t.Fatalf("unexpected log fields: %v", entry.Data)
	}
}

func TestHealthUnavailable(t *testing.T) {
	h := newAPIHarness(t, Config{Health: func(context.Context) error { return errors.New("down") }})

	rr := h.do(http.MethodGet, "/health", nil, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{courseapp.ErrInvalidCredentials, http.StatusUnauthorized},
		{courseapp.ErrSessionExpired, http.StatusUnauthorized},
		{courseapp.ErrCourseNotFound, http.StatusNotFound},
		{courseapp.ErrAlreadyEnrolled, http.StatusConflict},
		{errors.Join(courseapp.ErrSessionCreationFailed, courseapp.ErrPersistence, errors.New("io")), http.StatusBadRequest},
		{&courseapp.ValidationError{Fields: map[string]string{"email": "bad"}}, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, body := classify(tc.err)
		if status != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, status)
		}
		if status == http.StatusInternalServerError && body.Error != "internal server error" {
			t.Fatalf("unclassified errors must not leak, got %q", body.Error)
		}
	}
}
