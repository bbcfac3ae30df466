package service

import (
	"errors"
	"fmt"

	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/repository"
)

var (
	ErrInvalidScore  = errors.New("score must be between 1 and 5")
	ErrRatingOwnFilm = errors.New("cannot rate your own film")
	ErrNoRating      = errors.New("no rating to remove")
)

type RatingService struct {
	ratingRepository repository.RatingRepository
	filmRepository   repository.FilmRepository
}

func NewRatingService(
	ratingRepository repository.RatingRepository,
	filmRepository repository.FilmRepository,
) *RatingService {
	return &RatingService{
		ratingRepository: ratingRepository,
		filmRepository:   filmRepository,
	}
}

// Rate records the actor's score for a film, replacing any earlier score.
func (s *RatingService) Rate(actor *model.User, filmID string, score int) (*model.Rating, error) {
	if score < 1 || score > 5 {
		return nil, ErrInvalidScore
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
	if film.UserID == actor.ID {
		return nil, ErrRatingOwnFilm
	}

	rating := &model.Rating{
		FilmID: film.ID,
		UserID: actor.ID,
		Score:  score,
	}

	err = s.ratingRepository.Upsert(rating)
	if err != nil {
		return nil, fmt.Errorf("failed to save rating: %w", err)
	}

	return rating, nil
}

// ForViewer returns the actor's own rating for a film, or nil if they
// haven't rated it.
func (s *RatingService) ForViewer(userID, filmID string) (*model.Rating, error) {
	rating, err := s.ratingRepository.ByFilmAndUser(filmID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rating, nil
}

// Remove withdraws the actor's rating for a film.
func (s *RatingService) Remove(userID, filmID string) error {
	err := s.ratingRepository.Delete(filmID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) {
			return ErrNoRating
		}
		return fmt.Errorf("failed to remove rating: %w", err)
	}
	return nil
}
