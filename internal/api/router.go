package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/examforge/internal/api/middleware"
	"github.com/kiranshivaraju/examforge/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	LoginHandler  http.HandlerFunc

	GenerateHandler     http.HandlerFunc
	TaskStatusHandler   http.HandlerFunc
	ListTasksHandler    http.HandlerFunc
	DeleteTaskHandler   http.HandlerFunc
	GetAPIKeyHandler    http.HandlerFunc
	UpdateAPIKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/health", orNotImplemented(deps.HealthHandler))
	r.Post("/auth/login", orNotImplemented(deps.LoginHandler))

	r.Route("/ai-exam", func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/generate", orNotImplemented(deps.GenerateHandler))
		r.Get("/task/{task_id}", orNotImplemented(deps.TaskStatusHandler))
		r.Delete("/task/{task_id}", orNotImplemented(deps.DeleteTaskHandler))
		r.Get("/tasks", orNotImplemented(deps.ListTasksHandler))

		r.Get("/api-key", orNotImplemented(deps.GetAPIKeyHandler))
		r.Put("/api-key", orNotImplemented(deps.UpdateAPIKeyHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
