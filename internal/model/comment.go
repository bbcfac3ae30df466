package model

import (
	"time"
)

type Comment struct {
	ID        string    `db:"id"`
	FilmID    string    `db:"film_id"`
	UserID    string    `db:"user_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Joined in by the repository
	AuthorName string `db:"author_name"`
}

type PublicComment struct {
	ID        string      `json:"id"`
	FilmID    string      `json:"film_id"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Author    *PublicUser `json:"author,omitempty"`
}

func (c *Comment) Public() PublicComment {
	p := PublicComment{
		ID:        c.ID,
		FilmID:    c.FilmID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.AuthorName != "" {
		p.Author = &PublicUser{ID: c.UserID, Name: c.AuthorName}
	}
	return p
}
