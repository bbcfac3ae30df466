package handler

import (
	"net/http"

	"github.com/reelshare/reelshare/internal/ctxkeys"
	"github.com/reelshare/reelshare/internal/service"
)

type ratingHandler struct {
	ratingService *service.RatingService
}

func NewRatingHandler(ratingService *service.RatingService) *ratingHandler {
	return &ratingHandler{ratingService: ratingService}
}

// Rate sets or replaces the caller's score for a film.
func (h *ratingHandler) Rate(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Score int `json:"score"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	rating, err := h.ratingService.Rate(user, r.PathValue("id"), req.Score)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"rating": rating.Public()})
}

// Mine returns the caller's rating for a film, or null.
func (h *ratingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	rating, err := h.ratingService.ForViewer(user.ID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if rating == nil {
		respondJSON(w, http.StatusOK, map[string]any{"rating": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"rating": rating.Public()})
}

func (h *ratingHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.ratingService.Remove(user.ID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "rating removed"})
}
