package handlers

import (
	"errors"
	"net/http"
	"strings"

	"moviehub/internal/auth"
	"moviehub/internal/models"
	"moviehub/internal/store"
)

type userView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func viewOf(u models.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Name, email, and password are required")
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.fail(w, r, err, "Registration failed")
		return
	}
	u, err := h.users.Create(r.Context(), in.Name, in.Email, hash)
	if err != nil {
		h.fail(w, r, err, "Registration failed")
		return
	}
	h.log.Info().Int64("user_id", u.ID).Msg("user registered")
	h.writeJSON(w, http.StatusCreated, envelope{"id": u.ID, "name": u.Name, "email": u.Email})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	u, err := h.users.ByEmail(r.Context(), in.Email)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	} else if err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}
	if !auth.CheckPassword(in.Password, u.PasswordHash) {
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		h.fail(w, r, err, "Login failed")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"token": token, "user": viewOf(u)})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.ByID(r.Context(), claims(r).UserID)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch profile")
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch users")
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}
