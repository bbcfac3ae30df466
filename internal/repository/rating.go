package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/reelshare/reelshare/internal/model"
)

var (
	ErrRatingNotFound = errors.New("rating not found")
)

type RatingRepository interface {
	Upsert(rating *model.Rating) error
	ByFilmAndUser(filmID, userID string) (*model.Rating, error)
	Delete(filmID, userID string) error
}

type ratingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert writes the viewer's score, replacing any previous one. The
// UNIQUE(film_id, user_id) constraint drives the conflict target.
func (r *ratingRepository) Upsert(rating *model.Rating) error {
	if rating.ID == "" {
		rating.ID = uuid.New().String()
	}
	now := time.Now()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	rating.UpdatedAt = now

	query := `
		INSERT INTO ratings (id, film_id, user_id, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (film_id, user_id)
		DO UPDATE SET score = $4, updated_at = $6
	`
	_, err := r.db.Exec(query,
		rating.ID,
		rating.FilmID,
		rating.UserID,
		rating.Score,
		rating.CreatedAt,
		rating.UpdatedAt,
	)
	return err
}

func (r *ratingRepository) ByFilmAndUser(filmID, userID string) (*model.Rating, error) {
	rating := &model.Rating{}
	query := `SELECT * FROM ratings WHERE film_id = $1 AND user_id = $2`

	err := r.db.Get(rating, query, filmID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrRatingNotFound
	}

	return rating, err
}

func (r *ratingRepository) Delete(filmID, userID string) error {
	result, err := r.db.Exec(`DELETE FROM ratings WHERE film_id = $1 AND user_id = $2`, filmID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRatingNotFound
	}

	return nil
}
