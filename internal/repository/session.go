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
	ErrSessionNotFound = errors.New("session not found")
)

type SessionRepository interface {
	Create(session *model.Session) error
	ByID(id string) (*model.Session, error)
	ByRefreshTokenHash(hash string) (*model.Session, error)
	ByPrevTokenHash(hash string) (*model.Session, error)
	ActiveByUser(userID string) ([]*model.Session, error)
	RotateRefreshToken(id, newHash string, newExpiry time.Time) error
	Revoke(id string) error
	RevokeAllForUser(userID string) error
	RevokeAllForUserExcept(userID, keepID string) error
	DeleteExpired(olderThan time.Duration) (int64, error)
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, prev_token_hash, user_agent, ip, expires_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(query,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		session.PrevTokenHash,
		session.UserAgent,
		session.IP,
		session.ExpiresAt,
		session.RevokedAt,
		session.CreatedAt,
	)
	return err
}

func (r *sessionRepository) ByID(id string) (*model.Session, error) {
	session := &model.Session{}
	query := `SELECT * FROM sessions WHERE id = $1`

	err := r.db.Get(session, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}

	return session, err
}

func (r *sessionRepository) ByRefreshTokenHash(hash string) (*model.Session, error) {
	session := &model.Session{}
	query := `SELECT * FROM sessions WHERE refresh_token_hash = $1`

	err := r.db.Get(session, query, hash)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}

	return session, err
}

func (r *sessionRepository) ActiveByUser(userID string) ([]*model.Session, error) {
	var sessions []*model.Session
	query := `SELECT * FROM sessions
	          WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
	          ORDER BY created_at DESC`

	err := r.db.Select(&sessions, query, userID, time.Now())
	return sessions, err
}

// ByPrevTokenHash finds the session whose previous (already rotated out)
// refresh token matches. A hit here means an old token was replayed.
func (r *sessionRepository) ByPrevTokenHash(hash string) (*model.Session, error) {
	session := &model.Session{}
	query := `SELECT * FROM sessions WHERE prev_token_hash = $1`

	err := r.db.Get(session, query, hash)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}

	return session, err
}

// RotateRefreshToken swaps the refresh token hash in a single statement,
// keeping the outgoing hash for replay detection. The WHERE clause
// requires the session to still be active, so a stolen old token cannot
// win a race against the legitimate rotation.
func (r *sessionRepository) RotateRefreshToken(id, newHash string, newExpiry time.Time) error {
	query := `UPDATE sessions
	          SET prev_token_hash = refresh_token_hash, refresh_token_hash = $1, expires_at = $2
	          WHERE id = $3 AND revoked_at IS NULL AND expires_at > $4`

	result, err := r.db.Exec(query, newHash, newExpiry, id, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) Revoke(id string) error {
	query := `UPDATE sessions SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`
	_, err := r.db.Exec(query, time.Now(), id)
	return err
}

func (r *sessionRepository) RevokeAllForUser(userID string) error {
	query := `UPDATE sessions SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`
	_, err := r.db.Exec(query, time.Now(), userID)
	return err
}

func (r *sessionRepository) RevokeAllForUserExcept(userID, keepID string) error {
	query := `UPDATE sessions SET revoked_at = $1 WHERE user_id = $2 AND id != $3 AND revoked_at IS NULL`
	_, err := r.db.Exec(query, time.Now(), userID, keepID)
	return err
}

// DeleteExpired removes sessions that expired or were revoked more than
// olderThan ago. Optional maintenance for long-running deployments.
func (r *sessionRepository) DeleteExpired(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `DELETE FROM sessions
	          WHERE (revoked_at IS NOT NULL AND revoked_at < $1)
	             OR (expires_at < $1)`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
