package handlers

import (
	"net/http"
	"strings"
	"time"

	"moviehub/internal/auth"
)

// WithRecover wraps an http.Handler and recovers from panics,
// returning HTTP 500 instead of crashing the server.
func (h *Handler) WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error().Interface("panic", rec).Str("method", r.Method).Str("path", r.URL.Path).Msg("recovered")
				w.Header().Set("Connection", "close")
				h.writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// WithCORS lets the two front-ends call the API from their own origins and
// answers preflight requests directly.
func (h *Handler) WithCORS(next http.Handler) http.Handler {
	return h.cors.Handler(next)
}

// RateLimit throttles credential endpoints with a single token bucket.
func (h *Handler) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	if h.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			h.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth rejects the request with 401 unless it carries a valid
// bearer token, and stores the verified claims in the request context.
func (h *Handler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			h.writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		c, err := h.tokens.Verify(token)
		if err != nil {
			h.log.Debug().Err(err).Str("path", r.URL.Path).Msg("token rejected")
			h.writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r.WithContext(auth.WithClaims(r.Context(), c)))
	}
}

// RequireAdmin is RequireAuth plus a 403 for non-admin identities.
func (h *Handler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !claims(r).IsAdmin() {
			h.writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}
