package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	courseapp "github.com/albi2/CourseAppApi"
	"github.com/albi2/CourseAppApi/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Config wires optional server features.
type Config struct {
	CORS middleware.CORSConfig
	// MetricsHandler is mounted at GET /metrics when set.
	MetricsHandler http.Handler
	// Health is called by GET /health. Nil reports healthy.
	Health func(ctx context.Context) error
}

// Server exposes the Engine over HTTP.
type Server struct {
	engine *courseapp.Engine
	logger logrus.FieldLogger
	config Config
}

// New returns a Server. A nil logger falls back to the logrus standard logger.
func New(engine *courseapp.Engine, logger logrus.FieldLogger, cfg Config) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		engine: engine,
		logger: logger,
		config: cfg,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestContext)
	r.Use(s.requestLogging)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(s.config.CORS))

	r.Get("/health", s.health)
	if s.config.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.config.MetricsHandler)
	}

	r.Post("/users", s.signup)
	r.Post("/users/login", s.login)
	r.With(middleware.RequireSession(s.engine)).Get("/users/me/new-access-token", s.newAccessToken)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccess(s.engine))

		r.Get("/users/me", s.me)
		r.Patch("/users/me/password", s.changePassword)
		r.Patch("/users/{courseId}", s.enroll)

		r.Get("/all-courses", s.listCourses)
		r.Get("/courses", s.userCourses)
		r.Post("/courses", s.createCourse)
		r.Get("/courses/{id}", s.getCourse)
		r.Patch("/courses/{id}", s.updateCourse)
		r.Delete("/courses/{id}", s.deleteCourse)
	})

	return r
}

// requestContext assigns a request id and records the client address for audit events.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		ctx := courseapp.WithRequestID(r.Context(), id)
		ctx = courseapp.WithClientIP(ctx, host)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      status,
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  courseapp.RequestIDFromContext(r.Context()),
			"remote":      r.RemoteAddr,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("http.request")
			return
		}
		entry.Info("http.request")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.config.Health != nil {
		if err := s.config.Health(r.Context()); err != nil {
			s.logger.WithError(err).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
