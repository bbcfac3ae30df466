package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/reelshare/reelshare/internal/repository"
	"github.com/reelshare/reelshare/internal/service"
)

// errorResponse is the uniform error envelope every endpoint returns.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// respondServiceError maps service sentinel errors to HTTP responses.
// Unknown errors become a logged 500 with no detail leaked.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, service.ErrAccountLocked):
		respondError(w, http.StatusLocked, "account_locked", "account temporarily locked after repeated failed logins")
	case errors.Is(err, service.ErrAccountDeactivated):
		respondError(w, http.StatusForbidden, "account_deactivated", "account is deactivated")
	case errors.Is(err, service.ErrEmailNotVerified):
		respondError(w, http.StatusForbidden, "email_not_verified", "verify your email address first")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		respondError(w, http.StatusConflict, "email_exists", "an account with this email already exists")
	case errors.Is(err, service.ErrInvalidEmail):
		respondError(w, http.StatusBadRequest, "invalid_email", "invalid email address")
	case errors.Is(err, service.ErrInvalidToken):
		respondError(w, http.StatusBadRequest, "invalid_token", "invalid or expired token")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		respondError(w, http.StatusUnauthorized, "invalid_refresh_token", "invalid refresh token")
	case errors.Is(err, service.ErrSessionRevoked):
		respondError(w, http.StatusUnauthorized, "session_revoked", "session revoked or expired")
	case errors.Is(err, service.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, service.ErrFilmNotFound):
		respondError(w, http.StatusNotFound, "not_found", "film not found")
	case errors.Is(err, service.ErrCommentNotFound):
		respondError(w, http.StatusNotFound, "not_found", "comment not found")
	case errors.Is(err, service.ErrNotFilmOwner), errors.Is(err, service.ErrNotCommentOwner):
		respondError(w, http.StatusForbidden, "forbidden", "you do not own this resource")
	case errors.Is(err, service.ErrInvalidScore):
		respondError(w, http.StatusBadRequest, "invalid_score", "score must be between 1 and 5")
	case errors.Is(err, service.ErrRatingOwnFilm):
		respondError(w, http.StatusBadRequest, "rating_own_film", "you cannot rate your own film")
	case errors.Is(err, service.ErrNoRating):
		respondError(w, http.StatusNotFound, "not_found", "no rating to remove")
	case errors.Is(err, service.ErrLastAdmin):
		respondError(w, http.StatusConflict, "last_admin", "cannot demote or remove the last admin")
	case errors.Is(err, repository.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "session not found")
	default:
		slog.Error("internal error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}

// respondValidationError reports failed input checks as 400.
func respondValidationError(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, "validation_error", err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	return true
}

// listResponse wraps paginated collections.
type listResponse struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// pagination parses limit/offset query params with sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
