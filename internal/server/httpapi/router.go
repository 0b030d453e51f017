package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chat_practice_service/pkg/logger"
)

type Handlers struct {
	Courses     *CourseHandler
	Assignments *AssignmentHandler
	Sessions    *SessionHandler
	Students    *StudentHandler
}

// NewRouter assembles the service's HTTP surface. Everything except the
// health check sits behind the auth middleware.
func NewRouter(log *logger.Logger, jwtSecret string, handlers Handlers) chi.Router {
	authMiddleware := NewAuthMiddleware(jwtSecret)

	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(log))
	r.Use(func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, 1<<20) // 1 MB
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/courses", func(r chi.Router) {
		handlers.Courses.RegisterRoutes(r, authMiddleware)
	})

	r.Route("/assignments", func(r chi.Router) {
		handlers.Assignments.RegisterRoutes(r, authMiddleware)
		handlers.Sessions.RegisterRoutes(r, authMiddleware)
	})

	handlers.Students.RegisterRoutes(r, authMiddleware)

	return r
}
