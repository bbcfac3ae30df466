package handler

import (
	"errors"
	"net/http"

	"github.com/reelshare/reelshare/internal/ctxkeys"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/service"
	"github.com/reelshare/reelshare/internal/validation"
)

type accountHandler struct {
	authService *service.AuthService
	userService *service.UserService
	fileService *service.FileService
}

func NewAccountHandler(authService *service.AuthService, userService *service.UserService, fileService *service.FileService) *accountHandler {
	return &accountHandler{
		authService: authService,
		userService: userService,
		fileService: fileService,
	}
}

func (h *accountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

func (h *accountHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.userService.UpdateName(user.ID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondServiceError(w, err)
			return
		}
		respondValidationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": updated.Public()})
}

func (h *accountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(validation.ImageConstraints.MaxSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "could not parse upload")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "avatar file is required")
		return
	}
	defer file.Close()

	err = validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		respondValidationError(w, err)
		return
	}

	// Replace the old avatar, if any
	err = h.fileService.DeleteUserAvatar(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	avatar, err := h.fileService.Upload(user.ID, model.OwnerTypeUser, user.ID, model.FileTypeAvatar, file, header, true)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"avatar_url": h.fileService.URL(avatar)})
}

func (h *accountHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.fileService.DeleteUserAvatar(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "avatar removed"})
}

func (h *accountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.authService.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword, ctxkeys.SessionID(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondServiceError(w, err)
			return
		}
		respondValidationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password changed, other sessions were logged out"})
}

// Sessions lists the caller's active sessions, flagging the current one.
func (h *accountHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	currentID := ctxkeys.SessionID(r.Context())

	sessions, err := h.authService.Sessions(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]model.PublicSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Public(currentID))
	}

	respondJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *accountHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	sessionID := r.PathValue("id")

	err := h.authService.RevokeSession(user.ID, sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "session revoked"})
}

func (h *accountHandler) RevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.authService.RevokeAllSessions(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "all sessions revoked"})
}

func (h *accountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.userService.DeleteAccount(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
