package model

import (
	"time"
)

// Rating is one user's 1-5 score for a film. UNIQUE(film_id, user_id) in
// the schema keeps it to one row per viewer; writes are upserts.
type Rating struct {
	ID        string    `db:"id"`
	FilmID    string    `db:"film_id"`
	UserID    string    `db:"user_id"`
	Score     int       `db:"score"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type PublicRating struct {
	FilmID    string    `json:"film_id"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Rating) Public() PublicRating {
	return PublicRating{
		FilmID:    r.FilmID,
		Score:     r.Score,
		UpdatedAt: r.UpdatedAt,
	}
}
