package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/reelshare/reelshare/internal/model"
)

// ResetRepository performs the password reset as one transaction: consume
// the reset token, set the new hash, clear lockout state, and revoke every
// session. Either all of it lands or none of it does.
type ResetRepository interface {
	ResetPassword(tokenValue, passwordHash string) (userID string, err error)
}

type resetRepository struct {
	db *sqlx.DB
}

func NewResetRepository(db *sqlx.DB) ResetRepository {
	return &resetRepository{db: db}
}

func (r *resetRepository) ResetPassword(tokenValue, passwordHash string) (string, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()

	var token model.Token
	err = tx.Get(&token, `
		UPDATE tokens
		SET used_at = $1
		WHERE token = $2
		AND type = $3
		AND used_at IS NULL
		AND expires_at > $4
		RETURNING *
	`, now, tokenValue, model.TokenTypePasswordReset, now)
	if err == sql.ErrNoRows {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(`
		UPDATE users
		SET password_hash = $1, failed_login_attempts = 0, locked_until = NULL
		WHERE id = $2
	`, passwordHash, token.UserID)
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(`
		UPDATE sessions SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL
	`, now, token.UserID)
	if err != nil {
		return "", err
	}

	err = tx.Commit()
	if err != nil {
		return "", fmt.Errorf("failed to commit password reset: %w", err)
	}

	return token.UserID, nil
}
