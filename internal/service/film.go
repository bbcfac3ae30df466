package service

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/repository"
	"github.com/reelshare/reelshare/internal/validation"
)

var (
	ErrFilmNotFound = errors.New("film not found")
	ErrNotFilmOwner = errors.New("not the film owner")
)

type FilmService struct {
	filmRepository repository.FilmRepository
	userRepository repository.UserRepository
	fileService    *FileService
	emailService   *EmailService
}

func NewFilmService(
	filmRepository repository.FilmRepository,
	userRepository repository.UserRepository,
	fileService *FileService,
	emailService *EmailService,
) *FilmService {
	return &FilmService{
		filmRepository: filmRepository,
		userRepository: userRepository,
		fileService:    fileService,
		emailService:   emailService,
	}
}

// CreateFilmInput carries the metadata of an upload.
type CreateFilmInput struct {
	Title           string
	Description     string
	Genre           string
	DurationSeconds int
}

// Create stores the video (and optional poster) and files the film into
// the moderation queue as pending.
func (s *FilmService) Create(userID string, input CreateFilmInput, video multipart.File, videoHeader *multipart.FileHeader, poster multipart.File, posterHeader *multipart.FileHeader) (*model.Film, error) {
	input.Title = strings.TrimSpace(input.Title)

	err := validation.ValidateFilmTitle(input.Title)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	film := &model.Film{
		ID:              uuid.New().String(),
		UserID:          userID,
		Title:           input.Title,
		Description:     strings.TrimSpace(input.Description),
		Genre:           strings.TrimSpace(strings.ToLower(input.Genre)),
		DurationSeconds: input.DurationSeconds,
		Status:          model.FilmStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.filmRepository.Create(film)
	if err != nil {
		return nil, fmt.Errorf("failed to create film: %w", err)
	}

	// Videos stay private (short-lived presigned URLs); posters are public
	_, err = s.fileService.Upload(userID, model.OwnerTypeFilm, film.ID, model.FileTypeVideo, video, videoHeader, false)
	if err != nil {
		delErr := s.filmRepository.Delete(film.ID)
		if delErr != nil {
			slog.Error("failed to delete film after upload failure", "error", delErr, "film_id", film.ID)
		}
		return nil, fmt.Errorf("failed to store video: %w", err)
	}

	if poster != nil && posterHeader != nil {
		_, err = s.fileService.Upload(userID, model.OwnerTypeFilm, film.ID, model.FileTypePoster, poster, posterHeader, true)
		if err != nil {
			// Film stays; poster can be re-uploaded via edit
			slog.Warn("failed to store poster", "error", err, "film_id", film.ID)
		}
	}

	s.attachMedia(film)
	slog.Info("film submitted for review", "film_id", film.ID, "user_id", userID, "title", film.Title)
	return film, nil
}

// ByID fetches a film, enforcing visibility: pending and rejected films
// are only shown to their owner and admins.
func (s *FilmService) ByID(id string, viewer *model.User) (*model.Film, error) {
	film, err := s.filmRepository.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}

	if !film.VisibleTo(viewer) {
		// Do not leak existence of unpublished films
		return nil, ErrFilmNotFound
	}

	s.attachMedia(film)
	return film, nil
}

func (s *FilmService) attachMedia(film *model.Film) {
	video, err := s.fileService.FileFor(model.OwnerTypeFilm, film.ID, model.FileTypeVideo)
	if err == nil {
		film.VideoURL = s.fileService.URL(video)
	}
	poster, err := s.fileService.FileFor(model.OwnerTypeFilm, film.ID, model.FileTypePoster)
	if err == nil {
		film.PosterURL = s.fileService.URL(poster)
	}
}

// Browse lists approved films for the public catalog.
func (s *FilmService) Browse(query, genre, sort string, limit, offset int) ([]*model.Film, int64, error) {
	filter := repository.FilmFilter{
		Status: model.FilmStatusApproved,
		Genre:  genre,
		Query:  query,
		Sort:   sort,
		Limit:  limit,
		Offset: offset,
	}

	return s.list(filter)
}

// ListByUser lists a user's own films in every status.
func (s *FilmService) ListByUser(userID string, limit, offset int) ([]*model.Film, int64, error) {
	filter := repository.FilmFilter{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	}

	return s.list(filter)
}

// ModerationQueue lists films awaiting review, oldest first is not needed:
// admins work from the same newest-first ordering the catalog uses.
func (s *FilmService) ModerationQueue(status string, limit, offset int) ([]*model.Film, int64, error) {
	if status == "" {
		status = model.FilmStatusPending
	}

	filter := repository.FilmFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	}

	return s.list(filter)
}

func (s *FilmService) list(filter repository.FilmFilter) ([]*model.Film, int64, error) {
	films, err := s.filmRepository.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list films: %w", err)
	}

	total, err := s.filmRepository.CountFiltered(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count films: %w", err)
	}

	for _, film := range films {
		s.attachMedia(film)
	}

	return films, total, nil
}

// UpdateFilmInput carries metadata edits. Nil fields are left unchanged.
type UpdateFilmInput struct {
	Title           *string
	Description     *string
	Genre           *string
	DurationSeconds *int
}

// Update edits film metadata. Only the owner may edit; editing an
// approved film sends it back through the moderation queue.
func (s *FilmService) Update(actor *model.User, filmID string, input UpdateFilmInput) (*model.Film, error) {
	film, err := s.filmRepository.ByID(filmID)
	if err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}

	if film.UserID != actor.ID {
		return nil, ErrNotFilmOwner
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		err = validation.ValidateFilmTitle(title)
		if err != nil {
			return nil, err
		}
		film.Title = title
	}
	if input.Description != nil {
		film.Description = strings.TrimSpace(*input.Description)
	}
	if input.Genre != nil {
		film.Genre = strings.TrimSpace(strings.ToLower(*input.Genre))
	}
	if input.DurationSeconds != nil {
		film.DurationSeconds = *input.DurationSeconds
	}

	// Edited content needs a fresh review
	if film.Status == model.FilmStatusApproved || film.Status == model.FilmStatusRejected {
		film.Status = model.FilmStatusPending
		film.ReviewNote = nil
		film.ReviewedBy = nil
		film.ReviewedAt = nil
	}

	err = s.filmRepository.Update(film)
	if err != nil {
		return nil, fmt.Errorf("failed to update film: %w", err)
	}

	s.attachMedia(film)
	return film, nil
}

// Delete removes a film and its stored media. Owner or admin only.
func (s *FilmService) Delete(actor *model.User, filmID string) error {
	film, err := s.filmRepository.ByID(filmID)
	if err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return ErrFilmNotFound
		}
		return err
	}

	if film.UserID != actor.ID && !actor.IsAdmin() {
		return ErrNotFilmOwner
	}

	err = s.fileService.DeleteOwnerFiles(model.OwnerTypeFilm, film.ID)
	if err != nil {
		slog.Warn("failed to delete film media", "error", err, "film_id", film.ID)
	}

	err = s.filmRepository.Delete(filmID)
	if err != nil {
		return fmt.Errorf("failed to delete film: %w", err)
	}

	slog.Info("film deleted", "film_id", filmID, "actor_id", actor.ID)
	return nil
}

// RecordView bumps the view counter.
func (s *FilmService) RecordView(filmID string) error {
	err := s.filmRepository.IncrementViews(filmID)
	if err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return ErrFilmNotFound
		}
		return err
	}
	return nil
}

// Approve publishes a pending film. The first approval sets published_at;
// re-approval after an edit keeps the original publish date.
func (s *FilmService) Approve(adminID, filmID string) (*model.Film, error) {
	film, err := s.filmRepository.ByID(filmID)
	if err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}

	now := time.Now()
	film.Status = model.FilmStatusApproved
	film.ReviewNote = nil
	film.ReviewedBy = &adminID
	film.ReviewedAt = &now
	if film.PublishedAt == nil {
		film.PublishedAt = &now
	}

	err = s.filmRepository.Update(film)
	if err != nil {
		return nil, fmt.Errorf("failed to approve film: %w", err)
	}

	s.notifyReview(film, true, "")
	slog.Info("film approved", "film_id", filmID, "admin_id", adminID)

	s.attachMedia(film)
	return film, nil
}

// Reject declines a pending film with a reason shown to the uploader.
func (s *FilmService) Reject(adminID, filmID, reason string) (*model.Film, error) {
	film, err := s.filmRepository.ByID(filmID)
	if err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}

	now := time.Now()
	reason = strings.TrimSpace(reason)
	film.Status = model.FilmStatusRejected
	film.ReviewedBy = &adminID
	film.ReviewedAt = &now
	film.ReviewNote = nil
	if reason != "" {
		film.ReviewNote = &reason
	}

	err = s.filmRepository.Update(film)
	if err != nil {
		return nil, fmt.Errorf("failed to reject film: %w", err)
	}

	s.notifyReview(film, false, reason)
	slog.Info("film rejected", "film_id", filmID, "admin_id", adminID, "reason", reason)

	s.attachMedia(film)
	return film, nil
}

func (s *FilmService) notifyReview(film *model.Film, approved bool, reason string) {
	uploader, err := s.userRepository.ByID(film.UserID)
	if err != nil {
		return
	}

	if approved {
		err = s.emailService.SendFilmApprovedEmail(uploader.Email, uploader.Name, film.Title)
	} else {
		err = s.emailService.SendFilmRejectedEmail(uploader.Email, uploader.Name, film.Title, reason)
	}
	if err != nil {
		slog.Warn("failed to send review notification", "error", err, "film_id", film.ID)
	}
}

// CountByStatus reports queue depth and catalog size for admin stats.
func (s *FilmService) CountByStatus(status string) (int64, error) {
	return s.filmRepository.CountByStatus(status)
}
