package handler

import (
	"net/http"

	"github.com/reelshare/reelshare/internal/ctxkeys"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/service"
)

type commentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *commentHandler {
	return &commentHandler{commentService: commentService}
}

func (h *commentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Body string `json:"body"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Create(user, r.PathValue("id"), req.Body)
	if err != nil {
		if err == service.ErrFilmNotFound {
			respondServiceError(w, err)
			return
		}
		respondValidationError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"comment": comment.Public()})
}

func (h *commentHandler) ListByFilm(w http.ResponseWriter, r *http.Request) {
	viewer := ctxkeys.User(r.Context())
	limit, offset := pagination(r)

	comments, total, err := h.commentService.ByFilm(viewer, r.PathValue("id"), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	items := make([]model.PublicComment, 0, len(comments))
	for _, comment := range comments {
		items = append(items, comment.Public())
	}

	respondJSON(w, http.StatusOK, listResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *commentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Body string `json:"body"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.Update(user, r.PathValue("id"), req.Body)
	if err != nil {
		switch err {
		case service.ErrCommentNotFound, service.ErrNotCommentOwner:
			respondServiceError(w, err)
		default:
			respondValidationError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"comment": comment.Public()})
}

func (h *commentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.commentService.Delete(user, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}
