package model

import (
	"time"
)

// Film moderation states. Uploads start in pending and enter the
// moderation queue; only approved films are publicly listed.
const (
	FilmStatusPending  = "pending"
	FilmStatusApproved = "approved"
	FilmStatusRejected = "rejected"
)

type Film struct {
	ID              string     `db:"id"`
	UserID          string     `db:"user_id"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	Genre           string     `db:"genre"`
	DurationSeconds int        `db:"duration_seconds"`
	Status          string     `db:"status"`
	ReviewNote      *string    `db:"review_note"`
	ReviewedBy      *string    `db:"reviewed_by"`
	ReviewedAt      *time.Time `db:"reviewed_at"`
	Views           int64      `db:"views"`
	PublishedAt     *time.Time `db:"published_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`

	// Joined in by the repository (not columns of films)
	AvgRating    float64 `db:"avg_rating"`
	RatingCount  int     `db:"rating_count"`
	UploaderName string  `db:"uploader_name"`

	// Computed fields (not in database)
	VideoURL  string `db:"-"`
	PosterURL string `db:"-"`
}

func (f *Film) IsApproved() bool {
	return f.Status == FilmStatusApproved
}

// VisibleTo reports whether the film may be shown to the given viewer.
// Pending and rejected films are visible only to their owner and admins.
func (f *Film) VisibleTo(viewer *User) bool {
	if f.IsApproved() {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.ID == f.UserID || viewer.IsAdmin()
}

// PublicFilm is the JSON shape for catalog responses.
type PublicFilm struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Genre           string      `json:"genre,omitempty"`
	DurationSeconds int         `json:"duration_seconds"`
	Status          string      `json:"status,omitempty"`
	ReviewNote      string      `json:"review_note,omitempty"`
	Views           int64       `json:"views"`
	AvgRating       float64     `json:"avg_rating"`
	RatingCount     int         `json:"rating_count"`
	VideoURL        string      `json:"video_url,omitempty"`
	PosterURL       string      `json:"poster_url,omitempty"`
	PublishedAt     *time.Time  `json:"published_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	Uploader        *PublicUser `json:"uploader,omitempty"`
}

// Public returns the client-facing view. Status and review note are only
// meaningful to the owner and admins; public catalog listings are always
// approved so clients treat the empty status as approved.
func (f *Film) Public(includeStatus bool) PublicFilm {
	p := PublicFilm{
		ID:              f.ID,
		Title:           f.Title,
		Description:     f.Description,
		Genre:           f.Genre,
		DurationSeconds: f.DurationSeconds,
		Views:           f.Views,
		AvgRating:       f.AvgRating,
		RatingCount:     f.RatingCount,
		VideoURL:        f.VideoURL,
		PosterURL:       f.PosterURL,
		PublishedAt:     f.PublishedAt,
		CreatedAt:       f.CreatedAt,
	}
	if f.UploaderName != "" {
		p.Uploader = &PublicUser{ID: f.UserID, Name: f.UploaderName}
	}
	if includeStatus {
		p.Status = f.Status
		if f.ReviewNote != nil {
			p.ReviewNote = *f.ReviewNote
		}
	}
	return p
}
