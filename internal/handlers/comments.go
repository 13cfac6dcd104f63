package handlers

import (
	"net/http"

	"moviehub/internal/models"
	"moviehub/internal/store"
)

type commentInput struct {
	Body string `json:"body"`
}

func (h *Handler) MovieComments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	comments, err := h.comments.ListForMovie(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch comments")
		return
	}
	h.writeJSON(w, http.StatusOK, comments)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in commentInput
	if err := readJSON(w, r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	c, err := h.comments.Add(r.Context(), id, claims(r).UserID, in.Body)
	if err != nil {
		h.fail(w, r, err, "Failed to add comment")
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

// ownedComment loads the :id comment and checks that the caller owns it or
// is an admin. Existence is checked first, so a missing comment is a 404
// for everyone.
func (h *Handler) ownedComment(w http.ResponseWriter, r *http.Request) (models.Comment, bool) {
	id, ok := h.pathID(w, r)
	if !ok {
		return models.Comment{}, false
	}
	c, err := h.comments.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch comment")
		return models.Comment{}, false
	}
	if !claims(r).CanModify(c.UserID) {
		h.writeError(w, http.StatusForbidden, "Not permitted")
		return models.Comment{}, false
	}
	return c, true
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedComment(w, r)
	if !ok {
		return
	}
	var in commentInput
	if err := readJSON(w, r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	updated, err := h.comments.Update(r.Context(), c.ID, in.Body)
	if err != nil {
		h.fail(w, r, err, "Failed to update comment")
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedComment(w, r)
	if !ok {
		return
	}
	if err := h.comments.Delete(r.Context(), c.ID); err != nil {
		h.fail(w, r, err, "Failed to delete comment")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"message": "Comment deleted successfully"})
}

func (h *Handler) AdminComments(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	page, err := h.comments.Search(r.Context(), store.ParsePage(qs.Get("q"), qs.Get("page"), qs.Get("limit")))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch comments")
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}
