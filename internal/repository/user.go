package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/reelshare/reelshare/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	Delete(id string) error
	List(search string, limit, offset int) ([]*model.User, error)
	Count() (int64, error)
	CountSearch(search string) (int64, error)
	CountByRole(role string) (int64, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, email, password_hash, name, role, email_verified_at, failed_login_attempts, locked_until, deactivated_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.EmailVerifiedAt,
		user.FailedLoginAttempts,
		user.LockedUntil,
		user.DeactivatedAt,
		user.CreatedAt,
	)
	if err != nil {
		// Unique constraint message differs between SQLite and Postgres
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.Get(user, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) Update(user *model.User) error {
	query := `UPDATE users
	          SET email = $1, password_hash = $2, name = $3, role = $4,
	              email_verified_at = $5, failed_login_attempts = $6,
	              locked_until = $7, deactivated_at = $8
	          WHERE id = $9`

	_, err := r.db.Exec(query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.EmailVerifiedAt,
		user.FailedLoginAttempts,
		user.LockedUntil,
		user.DeactivatedAt,
		user.ID,
	)
	return err
}

func (r *userRepository) Delete(id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) List(search string, limit, offset int) ([]*model.User, error) {
	var users []*model.User

	if search != "" {
		query := `SELECT * FROM users
		          WHERE LOWER(email) LIKE LOWER($1) OR LOWER(name) LIKE LOWER($1)
		          ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		err := r.db.Select(&users, query, "%"+search+"%", limit, offset)
		return users, err
	}

	query := `SELECT * FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	err := r.db.Select(&users, query, limit, offset)
	return users, err
}

func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM users`)
	return count, err
}

// CountSearch counts the users a List call with the same search matches.
func (r *userRepository) CountSearch(search string) (int64, error) {
	if search == "" {
		return r.Count()
	}

	var count int64
	query := `SELECT COUNT(*) FROM users
	          WHERE LOWER(email) LIKE LOWER($1) OR LOWER(name) LIKE LOWER($1)`
	err := r.db.Get(&count, query, "%"+search+"%")
	return count, err
}

// CountByRole counts active accounts with the given role.
func (r *userRepository) CountByRole(role string) (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM users WHERE role = $1 AND deactivated_at IS NULL`, role)
	return count, err
}
