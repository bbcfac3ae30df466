package service

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repository fakes. They mirror the SQL implementations closely
// enough for the auth flows to behave like production.

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) Create(user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) ByID(id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserRepo) ByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) Update(user *model.User) error {
	_, ok := f.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) Delete(id string) error {
	_, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) List(search string, limit, offset int) ([]*model.User, error) {
	var out []*model.User
	for _, u := range f.users {
		if search == "" || strings.Contains(u.Email, search) || strings.Contains(u.Name, search) {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Count() (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) CountSearch(search string) (int64, error) {
	users, err := f.List(search, 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (f *fakeUserRepo) CountByRole(role string) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.Role == role && u.DeactivatedAt == nil {
			n++
		}
	}
	return n, nil
}

type fakeSessionRepo struct {
	sessions map[string]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.Session{}}
}

func (f *fakeSessionRepo) Create(session *model.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeSessionRepo) ByID(id string) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSessionRepo) ByRefreshTokenHash(hash string) (*model.Session, error) {
	for _, s := range f.sessions {
		if s.RefreshTokenHash == hash {
			clone := *s
			return &clone, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) ByPrevTokenHash(hash string) (*model.Session, error) {
	for _, s := range f.sessions {
		if s.PrevTokenHash != nil && *s.PrevTokenHash == hash {
			clone := *s
			return &clone, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) ActiveByUser(userID string) ([]*model.Session, error) {
	var out []*model.Session
	now := time.Now()
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive(now) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) RotateRefreshToken(id, newHash string, newExpiry time.Time) error {
	s, ok := f.sessions[id]
	if !ok || !s.IsActive(time.Now()) {
		return repository.ErrSessionNotFound
	}
	prev := s.RefreshTokenHash
	s.PrevTokenHash = &prev
	s.RefreshTokenHash = newHash
	s.ExpiresAt = newExpiry
	return nil
}

func (f *fakeSessionRepo) Revoke(id string) error {
	s, ok := f.sessions[id]
	if !ok {
		return nil
	}
	now := time.Now()
	s.RevokedAt = &now
	return nil
}

func (f *fakeSessionRepo) RevokeAllForUser(userID string) error {
	now := time.Now()
	for _, s := range f.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeSessionRepo) RevokeAllForUserExcept(userID, keepID string) error {
	now := time.Now()
	for _, s := range f.sessions {
		if s.UserID == userID && s.ID != keepID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(olderThan time.Duration) (int64, error) {
	return 0, nil
}

type fakeTokenRepo struct {
	tokens map[string]*model.Token
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: map[string]*model.Token{}}
}

func (f *fakeTokenRepo) Create(token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	clone := *token
	f.tokens[token.Token] = &clone
	return nil
}

func (f *fakeTokenRepo) ConsumeToken(tokenValue string) (*model.Token, error) {
	tok, ok := f.tokens[tokenValue]
	if !ok || tok.UsedAt != nil || time.Now().After(tok.ExpiresAt) {
		return nil, repository.ErrTokenNotFound
	}
	now := time.Now()
	tok.UsedAt = &now
	clone := *tok
	return &clone, nil
}

func (f *fakeTokenRepo) DeleteByUserAndType(userID, tokenType string) error {
	for value, tok := range f.tokens {
		if tok.UserID == userID && tok.Type == tokenType && tok.UsedAt == nil {
			delete(f.tokens, value)
		}
	}
	return nil
}

// lastTokenFor finds the pending token of a type for a user, as a user
// would from their inbox.
func (f *fakeTokenRepo) lastTokenFor(userID, tokenType string) string {
	for value, tok := range f.tokens {
		if tok.UserID == userID && tok.Type == tokenType && tok.UsedAt == nil {
			return value
		}
	}
	return ""
}

type fakeResetRepo struct {
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	tokens   *fakeTokenRepo
}

func (f *fakeResetRepo) ResetPassword(tokenValue, passwordHash string) (string, error) {
	tok, err := f.tokens.ConsumeToken(tokenValue)
	if err != nil {
		return "", err
	}
	if tok.Type != model.TokenTypePasswordReset {
		return "", repository.ErrTokenNotFound
	}

	user, err := f.users.ByID(tok.UserID)
	if err != nil {
		return "", err
	}
	user.PasswordHash = &passwordHash
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	_ = f.users.Update(user)
	_ = f.sessions.RevokeAllForUser(tok.UserID)
	return tok.UserID, nil
}

type authFixture struct {
	service  *AuthService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	tokens   *fakeTokenRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	tokens := newFakeTokenRepo()
	reset := &fakeResetRepo{users: users, sessions: sessions, tokens: tokens}
	email := NewEmailService("", "test@example.com", "http://localhost:5173", "Reelshare", true)

	svc := NewAuthService(users, sessions, tokens, reset, email, AuthConfig{
		JWTSecret:                "test-secret",
		AccessTokenExpiry:        15 * time.Minute,
		RefreshTokenExpiry:       24 * time.Hour,
		TokenEmailVerifyExpiry:   time.Hour,
		TokenPasswordResetExpiry: time.Hour,
		MaxFailedLogins:          3,
		LockoutDuration:          30 * time.Minute,
	})

	return &authFixture{service: svc, users: users, sessions: sessions, tokens: tokens}
}

// registerVerified registers an account and completes email verification.
func (fx *authFixture) registerVerified(t *testing.T, email, password string) *model.User {
	t.Helper()

	user, err := fx.service.Register(email, password, "Test User")
	require.NoError(t, err)

	tokenValue := fx.tokens.lastTokenFor(user.ID, model.TokenTypeEmailVerify)
	require.NotEmpty(t, tokenValue)

	verified, err := fx.service.VerifyEmail(tokenValue)
	require.NoError(t, err)
	return verified
}

const testPassword = "correct-horse-battery"

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Register("dup@example.com", testPassword, "One")
	require.NoError(t, err)

	_, err = fx.service.Register("dup@example.com", testPassword, "Two")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Register("unverified@example.com", testPassword, "New")
	require.NoError(t, err)

	_, _, err = fx.service.Login("unverified@example.com", testPassword, "ua", "ip")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLoginSuccessIssuesTokenPair(t *testing.T) {
	fx := newAuthFixture(t)
	fx.registerVerified(t, "ok@example.com", testPassword)

	user, pair, err := fx.service.Login("ok@example.com", testPassword, "ua", "ip")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.EqualValues(t, 15*60, pair.ExpiresIn)

	claims, err := fx.service.VerifyJWT(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NoError(t, fx.service.ValidateSession(claims.SessionID))
}

func TestLoginFailuresLockAccount(t *testing.T) {
	fx := newAuthFixture(t)
	user := fx.registerVerified(t, "lock@example.com", testPassword)

	// Two wrong attempts increment the counter
	for i := 0; i < 2; i++ {
		_, _, err := fx.service.Login("lock@example.com", "wrong-password", "ua", "ip")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored, err := fx.users.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.FailedLoginAttempts)

	// Third failure trips the lock; the counter resets so the next
	// lockout window starts fresh
	_, _, err = fx.service.Login("lock@example.com", "wrong-password", "ua", "ip")
	assert.ErrorIs(t, err, ErrAccountLocked)

	stored, err = fx.users.ByID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.After(time.Now()))

	// Even the right password is refused while locked
	_, _, err = fx.service.Login("lock@example.com", testPassword, "ua", "ip")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginSuccessResetsFailureCounter(t *testing.T) {
	fx := newAuthFixture(t)
	user := fx.registerVerified(t, "resetcount@example.com", testPassword)

	_, _, err := fx.service.Login("resetcount@example.com", "wrong-password", "ua", "ip")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = fx.service.Login("resetcount@example.com", testPassword, "ua", "ip")
	require.NoError(t, err)

	stored, err := fx.users.ByID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestLoginExpiredLockReopens(t *testing.T) {
	fx := newAuthFixture(t)
	user := fx.registerVerified(t, "expiredlock@example.com", testPassword)

	past := time.Now().Add(-time.Minute)
	stored, _ := fx.users.ByID(user.ID)
	stored.LockedUntil = &past
	require.NoError(t, fx.users.Update(stored))

	_, _, err := fx.service.Login("expiredlock@example.com", testPassword, "ua", "ip")
	assert.NoError(t, err)
}

func TestLoginUnknownEmail(t *testing.T) {
	fx := newAuthFixture(t)

	_, _, err := fx.service.Login("ghost@example.com", testPassword, "ua", "ip")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	fx := newAuthFixture(t)
	fx.registerVerified(t, "rotate@example.com", testPassword)

	_, pair, err := fx.service.Login("rotate@example.com", testPassword, "ua", "ip")
	require.NoError(t, err)

	_, newPair, err := fx.service.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)
	assert.NotEmpty(t, newPair.AccessToken)

	// The rotated-out token no longer refreshes
	_, _, err = fx.service.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshReplayRevokesSession(t *testing.T) {
	fx := newAuthFixture(t)
	fx.registerVerified(t, "replay@example.com", testPassword)

	_, pair, err := fx.service.Login("replay@example.com", testPassword, "ua", "ip")
	require.NoError(t, err)

	_, newPair, err := fx.service.Refresh(pair.RefreshToken)
	require.NoError(t, err)

	// Replaying the old token kills the whole session
	_, _, err = fx.service.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// So the legitimate holder's new token is dead too
	_, _, err = fx.service.Refresh(newPair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogoutInvalidatesAccessToken(t *testing.T) {
	fx := newAuthFixture(t)
	fx.registerVerified(t, "logout@example.com", testPassword)

	_, pair, err := fx.service.Login("logout@example.com", testPassword, "ua", "ip")
	require.NoError(t, err)

	claims, err := fx.service.VerifyJWT(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, fx.service.Logout(claims.SessionID))

	// JWT still parses but the session behind it is gone
	_, err = fx.service.VerifyJWT(pair.AccessToken)
	require.NoError(t, err)
	assert.ErrorIs(t, fx.service.ValidateSession(claims.SessionID), ErrSessionRevoked)
}

func TestPasswordResetFlow(t *testing.T) {
	fx := newAuthFixture(t)
	user := fx.registerVerified(t, "forgot@example.com", testPassword)

	_, _, err := fx.service.Login("forgot@example.com", testPassword, "ua", "ip")
	require.NoError(t, err)

	require.NoError(t, fx.service.RequestPasswordReset("forgot@example.com"))

	tokenValue := fx.tokens.lastTokenFor(user.ID, model.TokenTypePasswordReset)
	require.NotEmpty(t, tokenValue)

	const newPassword = "an-entirely-new-passphrase"
	require.NoError(t, fx.service.ResetPassword(tokenValue, newPassword))

	// Old password is out, new one works
	_, _, err = fx.service.Login("forgot@example.com", testPassword, "ua", "ip")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = fx.service.Login("forgot@example.com", newPassword, "ua", "ip")
	assert.NoError(t, err)

	// Token is single use
	assert.ErrorIs(t, fx.service.ResetPassword(tokenValue, "yet-another-passphrase"), ErrInvalidToken)
}

func TestRequestPasswordResetSilentForUnknownEmail(t *testing.T) {
	fx := newAuthFixture(t)
	assert.NoError(t, fx.service.RequestPasswordReset("nobody@example.com"))
}

func TestChangePasswordRevokesOtherSessions(t *testing.T) {
	fx := newAuthFixture(t)
	user := fx.registerVerified(t, "change@example.com", testPassword)

	_, pairA, err := fx.service.Login("change@example.com", testPassword, "ua-a", "ip")
	require.NoError(t, err)
	_, pairB, err := fx.service.Login("change@example.com", testPassword, "ua-b", "ip")
	require.NoError(t, err)

	claimsA, err := fx.service.VerifyJWT(pairA.AccessToken)
	require.NoError(t, err)
	claimsB, err := fx.service.VerifyJWT(pairB.AccessToken)
	require.NoError(t, err)

	const newPassword = "a-whole-new-passphrase"
	require.NoError(t, fx.service.ChangePassword(user.ID, testPassword, newPassword, claimsA.SessionID))

	assert.NoError(t, fx.service.ValidateSession(claimsA.SessionID))
	assert.ErrorIs(t, fx.service.ValidateSession(claimsB.SessionID), ErrSessionRevoked)
}

func TestOAuthLoginCreatesVerifiedAccount(t *testing.T) {
	fx := newAuthFixture(t)

	user, pair, err := fx.service.OAuthLogin("oauth@example.com", "OAuth User", "google", "ua", "ip")
	require.NoError(t, err)
	assert.NotNil(t, user.EmailVerifiedAt)
	assert.NotEmpty(t, pair.AccessToken)

	// Second login reuses the account
	again, _, err := fx.service.OAuthLogin("oauth@example.com", "OAuth User", "google", "ua", "ip")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	// Password login is refused for OAuth-only accounts
	_, _, err = fx.service.Login("oauth@example.com", "whatever-password", "ua", "ip")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyJWTRejectsTampering(t *testing.T) {
	fx := newAuthFixture(t)
	fx.registerVerified(t, "jwt@example.com", testPassword)

	_, pair, err := fx.service.Login("jwt@example.com", testPassword, "ua", "ip")
	require.NoError(t, err)

	_, err = fx.service.VerifyJWT(pair.AccessToken + "x")
	assert.Error(t, err)

	_, err = fx.service.VerifyJWT("not-a-jwt")
	assert.Error(t, err)
}
