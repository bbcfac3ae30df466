package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/repository"
	"github.com/reelshare/reelshare/internal/validation"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotCommentOwner = errors.New("not the comment owner")
)

type CommentService struct {
	commentRepository repository.CommentRepository
	filmRepository    repository.FilmRepository
}

func NewCommentService(
	commentRepository repository.CommentRepository,
	filmRepository repository.FilmRepository,
) *CommentService {
	return &CommentService{
		commentRepository: commentRepository,
		filmRepository:    filmRepository,
	}
}

// Create posts a comment on a film the actor can see.
func (s *CommentService) Create(actor *model.User, filmID, body string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	err := validation.ValidateCommentBody(body)
	if err != nil {
		return nil, err
	}

	film, err := s.filmRepository.ByID(filmID)
	if err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}
	if !film.VisibleTo(actor) {
		return nil, ErrFilmNotFound
	}

	now := time.Now()
	comment := &model.Comment{
		ID:         uuid.New().String(),
		FilmID:     film.ID,
		UserID:     actor.ID,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
		AuthorName: actor.Name,
	}

	err = s.commentRepository.Create(comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

// ByFilm lists a visible film's comments, newest first.
func (s *CommentService) ByFilm(viewer *model.User, filmID string, limit, offset int) ([]*model.Comment, int64, error) {
	film, err := s.filmRepository.ByID(filmID)
	if err != nil {
		if errors.Is(err, repository.ErrFilmNotFound) {
			return nil, 0, ErrFilmNotFound
		}
		return nil, 0, err
	}
	if !film.VisibleTo(viewer) {
		return nil, 0, ErrFilmNotFound
	}

	comments, err := s.commentRepository.ByFilm(filmID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}

	total, err := s.commentRepository.CountByFilm(filmID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return comments, total, nil
}

// Update edits a comment's body. Author only.
func (s *CommentService) Update(actor *model.User, commentID, body string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	err := validation.ValidateCommentBody(body)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepository.ByID(commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	if comment.UserID != actor.ID {
		return nil, ErrNotCommentOwner
	}

	comment.Body = body
	err = s.commentRepository.Update(comment)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// Delete removes a comment. The author, the film's owner, and admins may
// delete.
func (s *CommentService) Delete(actor *model.User, commentID string) error {
	comment, err := s.commentRepository.ByID(commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if comment.UserID != actor.ID && !actor.IsAdmin() {
		film, err := s.filmRepository.ByID(comment.FilmID)
		if err != nil || film.UserID != actor.ID {
			return ErrNotCommentOwner
		}
	}

	err = s.commentRepository.Delete(commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	slog.Info("comment deleted", "comment_id", commentID, "actor_id", actor.ID)
	return nil
}

// Count reports the total number of comments for admin stats.
func (s *CommentService) Count() (int64, error) {
	return s.commentRepository.Count()
}
