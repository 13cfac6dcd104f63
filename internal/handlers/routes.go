package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Routes returns the full API with middleware applied.
func (h *Handler) Routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(h.NotFound)
	router.MethodNotAllowed = http.HandlerFunc(h.MethodNotAllowed)

	router.HandlerFunc(http.MethodGet, "/api/health", h.Health)

	router.HandlerFunc(http.MethodPost, "/api/register", h.RateLimit(h.Register))
	router.HandlerFunc(http.MethodPost, "/api/login", h.RateLimit(h.Login))
	router.HandlerFunc(http.MethodGet, "/api/me", h.RequireAuth(h.Me))

	router.HandlerFunc(http.MethodGet, "/api/movies", h.ListMovies)
	router.HandlerFunc(http.MethodPost, "/api/movies", h.RequireAuth(h.CreateMovie))
	router.HandlerFunc(http.MethodGet, "/api/movies/:id", h.GetMovie)
	router.HandlerFunc(http.MethodDelete, "/api/movies/:id", h.RequireAdmin(h.DeleteMovie))
	router.HandlerFunc(http.MethodPost, "/api/movies/:id/vote", h.RequireAuth(h.Vote))
	router.HandlerFunc(http.MethodGet, "/api/movies/:id/comments", h.MovieComments)
	router.HandlerFunc(http.MethodPost, "/api/movies/:id/comments", h.RequireAuth(h.CreateComment))

	router.HandlerFunc(http.MethodPut, "/api/comments/:id", h.RequireAuth(h.UpdateComment))
	router.HandlerFunc(http.MethodDelete, "/api/comments/:id", h.RequireAuth(h.DeleteComment))

	router.HandlerFunc(http.MethodGet, "/api/admin/users", h.RequireAdmin(h.AdminUsers))
	router.HandlerFunc(http.MethodGet, "/api/admin/comments", h.RequireAdmin(h.AdminComments))

	return h.wrap(router)
}

// wrap applies the middleware chain. Logging is outermost so recovered
// panics are logged with their 500.
func (h *Handler) wrap(next http.Handler) http.Handler {
	return h.WithLogging(h.WithRecover(h.WithCORS(next)))
}
