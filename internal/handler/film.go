package handler

import (
	"net/http"
	"strconv"

	"github.com/reelshare/reelshare/internal/ctxkeys"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/service"
	"github.com/reelshare/reelshare/internal/validation"
)

type filmHandler struct {
	filmService *service.FilmService
}

func NewFilmHandler(filmService *service.FilmService) *filmHandler {
	return &filmHandler{filmService: filmService}
}

// Create accepts a multipart upload: metadata fields plus a "video" part
// and an optional "poster" part.
func (h *filmHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(64 << 20) // fields in memory, files spill to disk
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "could not parse upload")
		return
	}

	duration, _ := strconv.Atoi(r.FormValue("duration_seconds"))
	input := service.CreateFilmInput{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		Genre:           r.FormValue("genre"),
		DurationSeconds: duration,
	}

	video, videoHeader, err := r.FormFile("video")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "video file is required")
		return
	}
	defer video.Close()

	err = validation.ValidateFile(videoHeader, validation.VideoConstraints)
	if err != nil {
		respondValidationError(w, err)
		return
	}

	poster, posterHeader, err := r.FormFile("poster")
	if err == nil {
		defer poster.Close()
		err = validation.ValidateFile(posterHeader, validation.ImageConstraints)
		if err != nil {
			respondValidationError(w, err)
			return
		}
	} else {
		poster, posterHeader = nil, nil
	}

	film, err := h.filmService.Create(user.ID, input, video, videoHeader, poster, posterHeader)
	if err != nil {
		if err == service.ErrFilmNotFound {
			respondServiceError(w, err)
			return
		}
		respondValidationError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"film": film.Public(true)})
}

// List serves the public catalog: approved films only.
func (h *filmHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	q := r.URL.Query()

	films, total, err := h.filmService.Browse(q.Get("q"), q.Get("genre"), q.Get("sort"), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	items := make([]model.PublicFilm, 0, len(films))
	for _, film := range films {
		items = append(items, film.Public(false))
	}

	respondJSON(w, http.StatusOK, listResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// Mine lists the caller's own films, including pending and rejected ones.
func (h *filmHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	limit, offset := pagination(r)

	films, total, err := h.filmService.ListByUser(user.ID, limit, offset)
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

func (h *filmHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := ctxkeys.User(r.Context())

	film, err := h.filmService.ByID(r.PathValue("id"), viewer)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Owners and admins see moderation state
	includeStatus := viewer != nil && (viewer.ID == film.UserID || viewer.IsAdmin())
	respondJSON(w, http.StatusOK, map[string]any{"film": film.Public(includeStatus)})
}

func (h *filmHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Title           *string `json:"title"`
		Description     *string `json:"description"`
		Genre           *string `json:"genre"`
		DurationSeconds *int    `json:"duration_seconds"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	film, err := h.filmService.Update(user, r.PathValue("id"), service.UpdateFilmInput{
		Title:           req.Title,
		Description:     req.Description,
		Genre:           req.Genre,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		switch err {
		case service.ErrFilmNotFound, service.ErrNotFilmOwner:
			respondServiceError(w, err)
		default:
			respondValidationError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"film": film.Public(true)})
}

func (h *filmHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.filmService.Delete(user, r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "film deleted"})
}

// View records a playback view. Only approved films count.
func (h *filmHandler) View(w http.ResponseWriter, r *http.Request) {
	viewer := ctxkeys.User(r.Context())

	film, err := h.filmService.ByID(r.PathValue("id"), viewer)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !film.IsApproved() {
		respondError(w, http.StatusConflict, "not_published", "views only count for published films")
		return
	}

	err = h.filmService.RecordView(film.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "view recorded"})
}
