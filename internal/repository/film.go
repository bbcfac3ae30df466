package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/reelshare/reelshare/internal/model"
)

var (
	ErrFilmNotFound = errors.New("film not found")
)

// FilmFilter narrows List and CountFiltered. Zero values mean "no filter".
type FilmFilter struct {
	Status string
	UserID string
	Genre  string
	Query  string // matched against title, case-insensitive
	Sort   string // newest (default), views, rating
	Limit  int
	Offset int
}

type FilmRepository interface {
	Create(film *model.Film) error
	ByID(id string) (*model.Film, error)
	Update(film *model.Film) error
	Delete(id string) error
	List(filter FilmFilter) ([]*model.Film, error)
	CountFiltered(filter FilmFilter) (int64, error)
	IncrementViews(id string) error
	CountByStatus(status string) (int64, error)
}

type filmRepository struct {
	db *sqlx.DB
}

func NewFilmRepository(db *sqlx.DB) FilmRepository {
	return &filmRepository{db: db}
}

// ratingJoin attaches per-film rating aggregates to every film row.
// The CAST keeps the average a float on both Postgres and SQLite.
const ratingJoin = `
	LEFT JOIN (
		SELECT film_id,
		       CAST(AVG(score) AS DOUBLE PRECISION) AS avg_rating,
		       COUNT(*) AS rating_count
		FROM ratings
		GROUP BY film_id
	) r ON r.film_id = f.id
`

const filmColumns = `f.*, COALESCE(r.avg_rating, 0) AS avg_rating, COALESCE(r.rating_count, 0) AS rating_count, u.name AS uploader_name`

const uploaderJoin = `JOIN users u ON u.id = f.user_id`

func (r *filmRepository) Create(film *model.Film) error {
	query := `INSERT INTO films (id, user_id, title, description, genre, duration_seconds, status, review_note, reviewed_by, reviewed_at, views, published_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(query,
		film.ID,
		film.UserID,
		film.Title,
		film.Description,
		film.Genre,
		film.DurationSeconds,
		film.Status,
		film.ReviewNote,
		film.ReviewedBy,
		film.ReviewedAt,
		film.Views,
		film.PublishedAt,
		film.CreatedAt,
		film.UpdatedAt,
	)
	return err
}

func (r *filmRepository) ByID(id string) (*model.Film, error) {
	film := &model.Film{}
	query := fmt.Sprintf(`SELECT %s FROM films f %s %s WHERE f.id = $1`, filmColumns, uploaderJoin, ratingJoin)

	err := r.db.Get(film, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFilmNotFound
	}

	return film, err
}

func (r *filmRepository) Update(film *model.Film) error {
	film.UpdatedAt = time.Now()
	query := `UPDATE films
	          SET title = $1, description = $2, genre = $3, duration_seconds = $4,
	              status = $5, review_note = $6, reviewed_by = $7, reviewed_at = $8,
	              published_at = $9, updated_at = $10
	          WHERE id = $11`

	result, err := r.db.Exec(query,
		film.Title,
		film.Description,
		film.Genre,
		film.DurationSeconds,
		film.Status,
		film.ReviewNote,
		film.ReviewedBy,
		film.ReviewedAt,
		film.PublishedAt,
		film.UpdatedAt,
		film.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFilmNotFound
	}

	return nil
}

func (r *filmRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM films WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFilmNotFound
	}

	return nil
}

// filterClauses builds the WHERE clause for a filter, returning the SQL
// fragment and its positional args.
func filterClauses(filter FilmFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("f.status = $%d", filter.Status)
	}
	if filter.UserID != "" {
		add("f.user_id = $%d", filter.UserID)
	}
	if filter.Genre != "" {
		add("LOWER(f.genre) = LOWER($%d)", filter.Genre)
	}
	if filter.Query != "" {
		add("LOWER(f.title) LIKE LOWER($%d)", "%"+filter.Query+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(sort string) string {
	switch sort {
	case "views":
		return "ORDER BY f.views DESC, f.created_at DESC"
	case "rating":
		return "ORDER BY COALESCE(r.avg_rating, 0) DESC, COALESCE(r.rating_count, 0) DESC, f.created_at DESC"
	default:
		// Pending films have no published_at yet
		return "ORDER BY COALESCE(f.published_at, f.created_at) DESC"
	}
}

func (r *filmRepository) List(filter FilmFilter) ([]*model.Film, error) {
	where, args := filterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	offsetClause := fmt.Sprintf("OFFSET $%d", len(args))

	query := fmt.Sprintf(`SELECT %s FROM films f %s %s %s %s %s %s`,
		filmColumns, uploaderJoin, ratingJoin, where, orderClause(filter.Sort), limitClause, offsetClause)

	var films []*model.Film
	err := r.db.Select(&films, query, args...)
	return films, err
}

func (r *filmRepository) CountFiltered(filter FilmFilter) (int64, error) {
	where, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM films f %s`, where)

	var count int64
	err := r.db.Get(&count, query, args...)
	return count, err
}

func (r *filmRepository) IncrementViews(id string) error {
	result, err := r.db.Exec(`UPDATE films SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFilmNotFound
	}

	return nil
}

func (r *filmRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM films WHERE status = $1`, status)
	return count, err
}
