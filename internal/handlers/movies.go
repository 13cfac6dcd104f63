package handlers

import (
	"net/http"

	"moviehub/internal/store"
)

func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	page, err := h.movies.List(r.Context(), store.ParsePage(qs.Get("q"), qs.Get("page"), qs.Get("limit")))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch movies")
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	m, err := h.movies.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch movie")
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

func (h *Handler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := readJSON(w, r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	m, err := h.movies.Add(r.Context(), in.Title, in.Description, claims(r).UserID)
	if err != nil {
		h.fail(w, r, err, "Failed to add movie")
		return
	}
	h.writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.movies.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "Failed to delete movie")
		return
	}
	h.log.Info().Int64("movie_id", id).Int64("by", claims(r).UserID).Msg("movie deleted")
	h.writeJSON(w, http.StatusOK, envelope{"message": "Movie deleted successfully"})
}

// Vote accepts {"voteType": 1} or {"voteType": -1}; any other value,
// including the strings "1" and "-1", is rejected.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		VoteType any `json:"voteType"`
	}
	if err := readJSON(w, r, &in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid vote type")
		return
	}
	v, isNum := in.VoteType.(float64)
	if !isNum || (v != store.Upvote && v != store.Downvote) {
		h.writeError(w, http.StatusBadRequest, "Invalid vote type")
		return
	}

	score, err := h.votes.Cast(r.Context(), claims(r).UserID, id, int(v))
	if err != nil {
		h.fail(w, r, err, "Failed to process vote")
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"votes": score})
}
