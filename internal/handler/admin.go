package handler

import (
	"net/http"

	"github.com/reelshare/reelshare/internal/ctxkeys"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/service"
)

type adminHandler struct {
	userService    *service.UserService
	filmService    *service.FilmService
	commentService *service.CommentService
}

func NewAdminHandler(userService *service.UserService, filmService *service.FilmService, commentService *service.CommentService) *adminHandler {
	return &adminHandler{
		userService:    userService,
		filmService:    filmService,
		commentService: commentService,
	}
}

// Stats powers the dashboard overview: totals plus moderation queue depth.
func (h *adminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.Count()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	pending, err := h.filmService.CountByStatus(model.FilmStatusPending)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	approved, err := h.filmService.CountByStatus(model.FilmStatusApproved)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	rejected, err := h.filmService.CountByStatus(model.FilmStatusRejected)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	comments, err := h.commentService.Count()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"films": map[string]int64{
			"pending":  pending,
			"approved": approved,
			"rejected": rejected,
		},
		"comments": comments,
	})
}

// Queue lists films awaiting moderation.
func (h *adminHandler) Queue(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	films, total, err := h.filmService.ModerationQueue(r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	items := make([]model.PublicFilm, 0, len(films))
	for _, film := range films {
		items = append(items, film.Public(true))
	}

	respondJSON(w, http.StatusOK, listResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *adminHandler) ApproveFilm(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())

	film, err := h.filmService.Approve(admin.ID, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"film": film.Public(true)})
}

func (h *adminHandler) RejectFilm(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())

	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	film, err := h.filmService.Reject(admin.ID, r.PathValue("id"), req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"film": film.Public(true)})
}

// Users lists accounts with optional name/email search.
func (h *adminHandler) Users(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	users, total, err := h.userService.List(r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	items := make([]model.PublicUser, 0, len(users))
	for _, user := range users {
		items = append(items, user.Public())
	}

	respondJSON(w, http.StatusOK, listResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *adminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.SetRole(r.PathValue("id"), req.Role)
	if err != nil {
		switch err {
		case service.ErrUserNotFound, service.ErrLastAdmin:
			respondServiceError(w, err)
		default:
			respondValidationError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

func (h *adminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	targetID := r.PathValue("id")

	if targetID == admin.ID {
		respondError(w, http.StatusConflict, "self_deactivation", "use account deletion to remove your own account")
		return
	}

	user, err := h.userService.Deactivate(targetID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

func (h *adminHandler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Reactivate(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

func (h *adminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := ctxkeys.User(r.Context())
	targetID := r.PathValue("id")

	if targetID == admin.ID {
		respondError(w, http.StatusConflict, "self_deletion", "use the account endpoint to delete your own account")
		return
	}

	err := h.userService.DeleteAccount(targetID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
