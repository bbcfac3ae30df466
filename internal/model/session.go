package model

import (
	"time"
)

// Session is a server-tracked login session. The refresh token itself is
// never stored, only its SHA-256 hex digest. The JWT carries the session
// ID so access tokens die with the session.
type Session struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	RefreshTokenHash string     `db:"refresh_token_hash"`
	PrevTokenHash    *string    `db:"prev_token_hash"`
	UserAgent        string     `db:"user_agent"`
	IP               string     `db:"ip"`
	ExpiresAt        time.Time  `db:"expires_at"`
	RevokedAt        *time.Time `db:"revoked_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) IsActive(now time.Time) bool {
	return !s.IsRevoked() && !s.IsExpired(now)
}

// PublicSession is the JSON shape for the session list in account settings.
type PublicSession struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IP        string    `json:"ip"`
	Current   bool      `json:"current"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Public(currentID string) PublicSession {
	return PublicSession{
		ID:        s.ID,
		UserAgent: s.UserAgent,
		IP:        s.IP,
		Current:   s.ID == currentID,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}
}
