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
	ErrCommentNotFound = errors.New("comment not found")
)

type CommentRepository interface {
	Create(comment *model.Comment) error
	ByID(id string) (*model.Comment, error)
	ByFilm(filmID string, limit, offset int) ([]*model.Comment, error)
	Update(comment *model.Comment) error
	Delete(id string) error
	CountByFilm(filmID string) (int64, error)
	Count() (int64, error)
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = now
	}

	query := `INSERT INTO comments (id, film_id, user_id, body, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		comment.ID,
		comment.FilmID,
		comment.UserID,
		comment.Body,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	return err
}

const commentColumns = `c.*, u.name AS author_name`

func (r *commentRepository) ByID(id string) (*model.Comment, error) {
	comment := &model.Comment{}
	query := `SELECT ` + commentColumns + ` FROM comments c JOIN users u ON u.id = c.user_id WHERE c.id = $1`

	err := r.db.Get(comment, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrCommentNotFound
	}

	return comment, err
}

func (r *commentRepository) ByFilm(filmID string, limit, offset int) ([]*model.Comment, error) {
	if limit <= 0 {
		limit = 20
	}

	var comments []*model.Comment
	query := `SELECT ` + commentColumns + ` FROM comments c JOIN users u ON u.id = c.user_id
	          WHERE c.film_id = $1 ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`

	err := r.db.Select(&comments, query, filmID, limit, offset)
	return comments, err
}

func (r *commentRepository) Update(comment *model.Comment) error {
	comment.UpdatedAt = time.Now()
	query := `UPDATE comments SET body = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, comment.Body, comment.UpdatedAt, comment.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func (r *commentRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}

	return nil
}

func (r *commentRepository) CountByFilm(filmID string) (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM comments WHERE film_id = $1`, filmID)
	return count, err
}

func (r *commentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM comments`)
	return count, err
}
