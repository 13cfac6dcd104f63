package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"moviehub/internal/auth"
	"moviehub/internal/store"
)

type Config struct {
	CORSOrigin string
	// RateLimit applies to register and login. Zero disables it.
	RateLimit rate.Limit
	Burst     int
}

type Handler struct {
	users    *store.Users
	movies   *store.Movies
	votes    *store.Votes
	comments *store.Comments
	tokens   *auth.Manager
	log      zerolog.Logger

	cors    *cors.Cors
	limiter *rate.Limiter
}

// New wires every store to the same injected handle.
func New(db store.DBTX, tokens *auth.Manager, cfg Config, log zerolog.Logger) *Handler {
	h := &Handler{
		users:    store.NewUsers(db),
		movies:   store.NewMovies(db),
		votes:    store.NewVotes(db),
		comments: store.NewComments(db),
		tokens:   tokens,
		log:      log,
	}
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	h.cors = cors.New(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	return h
}

type envelope map[string]any

// writeJSON sends v with the given status. The header is already out by the
// time encoding fails, so the failure can only be logged.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug().Err(err).Int("status", status).Msg("write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, envelope{"error": msg})
}

// fail maps a store error to its status code. Anything that is not a
// client error is logged and answered with a 500 carrying fallback.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var se *store.Error
	if errors.As(err, &se) {
		switch {
		case errors.Is(se, store.ErrNotFound):
			h.writeError(w, http.StatusNotFound, se.Message)
			return
		case errors.Is(se, store.ErrInvalid), errors.Is(se, store.ErrConflict):
			h.writeError(w, http.StatusBadRequest, se.Message)
			return
		}
	}
	h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(fallback)
	h.writeError(w, http.StatusInternalServerError, fallback)
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(dst)
}

// pathID parses the :id route parameter. It writes a 400 and returns false
// when the value is not a positive integer.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := httprouter.ParamsFromContext(r.Context()).ByName("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		h.writeError(w, http.StatusBadRequest, "Invalid ID")
		return 0, false
	}
	return id, true
}

// claims is only called behind RequireAuth.
func claims(r *http.Request) *auth.Claims {
	c, _ := auth.FromContext(r.Context())
	return c
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, "Not found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
