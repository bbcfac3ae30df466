package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/repository"
	"github.com/reelshare/reelshare/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrAccountLocked       = errors.New("account temporarily locked")
	ErrAccountDeactivated  = errors.New("account deactivated")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionRevoked      = errors.New("session revoked or expired")
)

// AuthConfig carries the tunable security parameters.
type AuthConfig struct {
	JWTSecret                string
	AccessTokenExpiry        time.Duration
	RefreshTokenExpiry       time.Duration
	TokenEmailVerifyExpiry   time.Duration
	TokenPasswordResetExpiry time.Duration
	MaxFailedLogins          int
	LockoutDuration          time.Duration
}

type AuthService struct {
	userRepository    repository.UserRepository
	sessionRepository repository.SessionRepository
	tokenRepository   repository.TokenRepository
	resetRepository   repository.ResetRepository
	emailService      *EmailService
	cfg               AuthConfig
}

// TokenPair is what a successful login or refresh hands to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // access token lifetime in seconds
}

// Claims are the JWT claims the API issues. SessionID ties the stateless
// token back to the server-side session so revocation works.
type Claims struct {
	UserID    string
	SessionID string
	Role      string
}

func NewAuthService(
	userRepository repository.UserRepository,
	sessionRepository repository.SessionRepository,
	tokenRepository repository.TokenRepository,
	resetRepository repository.ResetRepository,
	emailService *EmailService,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		userRepository:    userRepository,
		sessionRepository: sessionRepository,
		tokenRepository:   tokenRepository,
		resetRepository:   resetRepository,
		emailService:      emailService,
		cfg:               cfg,
	}
}

// Register creates an account and sends the email verification link.
func (s *AuthService) Register(email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}
	err = validation.ValidateName(name)
	if err != nil {
		return nil, err
	}
	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hashedPassword,
		Name:         name,
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = s.sendEmailVerification(user)
	if err != nil {
		// Account exists; the user can request another link
		slog.Warn("failed to send verification email", "error", err, "user_id", user.ID)
	}

	slog.Info("user registered", "user_id", user.ID, "email", email)
	return user, nil
}

func (s *AuthService) sendEmailVerification(user *model.User) error {
	err := s.tokenRepository.DeleteByUserAndType(user.ID, model.TokenTypeEmailVerify)
	if err != nil {
		slog.Warn("failed to delete old verification tokens", "error", err, "user_id", user.ID)
	}

	verificationToken, err := s.GenerateToken()
	if err != nil {
		return err
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeEmailVerify,
		Token:     verificationToken,
		ExpiresAt: time.Now().Add(s.cfg.TokenEmailVerifyExpiry),
	}
	err = s.tokenRepository.Create(token)
	if err != nil {
		return err
	}

	return s.emailService.SendVerificationEmail(user.Email, verificationToken, user.Name)
}

// ResendEmailVerification sends a fresh verification link. Silent for
// unknown or already verified addresses to prevent enumeration.
func (s *AuthService) ResendEmailVerification(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		slog.Info("verification resend requested for unknown email", "email", email)
		return nil
	}
	if user.EmailVerifiedAt != nil {
		return nil
	}

	return s.sendEmailVerification(user)
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(tokenValue string) (*model.User, error) {
	token, err := s.tokenRepository.ConsumeToken(tokenValue)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if token.Type != model.TokenTypeEmailVerify {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepository.ByID(token.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.EmailVerifiedAt == nil {
		now := time.Now()
		user.EmailVerifiedAt = &now
		err = s.userRepository.Update(user)
		if err != nil {
			return nil, fmt.Errorf("failed to mark email verified: %w", err)
		}
	}

	slog.Info("email verified", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and opens a session. Each wrong password
// increments the failure counter; reaching the limit locks the account
// for the configured lockout window. A login attempt during the lock
// fails before bcrypt runs.
func (s *AuthService) Login(email, password, userAgent, ip string) (*model.User, *TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsDeactivated() {
		return nil, nil, ErrAccountDeactivated
	}

	now := time.Now()
	if user.IsLocked(now) {
		return nil, nil, ErrAccountLocked
	}

	if !user.HasPassword() {
		// OAuth-only account
		return nil, nil, ErrInvalidCredentials
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, nil, s.recordFailedLogin(user, now)
	}

	if user.EmailVerifiedAt == nil {
		return nil, nil, ErrEmailNotVerified
	}

	// Success clears any previous failures
	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
		err = s.userRepository.Update(user)
		if err != nil {
			slog.Warn("failed to reset login attempts", "error", err, "user_id", user.ID)
		}
	}

	pair, err := s.openSession(user, userAgent, ip)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	return user, pair, nil
}

func (s *AuthService) recordFailedLogin(user *model.User, now time.Time) error {
	user.FailedLoginAttempts++

	result := ErrInvalidCredentials
	if user.FailedLoginAttempts >= s.cfg.MaxFailedLogins {
		lockedUntil := now.Add(s.cfg.LockoutDuration)
		user.LockedUntil = &lockedUntil
		user.FailedLoginAttempts = 0
		result = ErrAccountLocked
		slog.Warn("account locked after repeated failed logins",
			"user_id", user.ID, "locked_until", lockedUntil)
	}

	err := s.userRepository.Update(user)
	if err != nil {
		slog.Error("failed to record failed login", "error", err, "user_id", user.ID)
	}

	return result
}

// openSession creates the session row and issues the token pair.
func (s *AuthService) openSession(user *model.User, userAgent, ip string) (*TokenPair, error) {
	refreshToken, err := s.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := &model.Session{
		ID:               uuid.New().String(),
		UserID:           user.ID,
		RefreshTokenHash: HashToken(refreshToken),
		UserAgent:        userAgent,
		IP:               ip,
		ExpiresAt:        time.Now().Add(s.cfg.RefreshTokenExpiry),
	}
	err = s.sessionRepository.Create(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, err := s.GenerateJWT(user, session.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenExpiry.Seconds()),
	}, nil
}

// Refresh rotates the refresh token and issues a new access token.
// Presenting an already rotated token is treated as theft: the whole
// session is revoked.
func (s *AuthService) Refresh(refreshToken string) (*model.User, *TokenPair, error) {
	hash := HashToken(refreshToken)

	session, err := s.sessionRepository.ByRefreshTokenHash(hash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			s.revokeOnReplay(hash)
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if !session.IsActive(time.Now()) {
		return nil, nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepository.ByID(session.UserID)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}
	if user.IsDeactivated() {
		return nil, nil, ErrAccountDeactivated
	}

	newRefreshToken, err := s.GenerateToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	err = s.sessionRepository.RotateRefreshToken(session.ID, HashToken(newRefreshToken), time.Now().Add(s.cfg.RefreshTokenExpiry))
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	accessToken, err := s.GenerateJWT(user, session.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenExpiry.Seconds()),
	}, nil
}

// revokeOnReplay kills the session whose rotated-out token was replayed.
func (s *AuthService) revokeOnReplay(hash string) {
	session, err := s.sessionRepository.ByPrevTokenHash(hash)
	if err != nil {
		return
	}

	err = s.sessionRepository.Revoke(session.ID)
	if err != nil {
		slog.Error("failed to revoke session after token replay", "error", err, "session_id", session.ID)
		return
	}
	slog.Warn("refresh token replay detected, session revoked",
		"session_id", session.ID, "user_id", session.UserID)
}

// Logout revokes the session behind the presented access token.
func (s *AuthService) Logout(sessionID string) error {
	err := s.sessionRepository.Revoke(sessionID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	slog.Info("user logged out", "session_id", sessionID)
	return nil
}

// Sessions lists the user's active sessions.
func (s *AuthService) Sessions(userID string) ([]*model.Session, error) {
	return s.sessionRepository.ActiveByUser(userID)
}

// RevokeSession revokes one of the user's own sessions.
func (s *AuthService) RevokeSession(userID, sessionID string) error {
	session, err := s.sessionRepository.ByID(sessionID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return repository.ErrSessionNotFound
	}
	return s.sessionRepository.Revoke(sessionID)
}

// RevokeAllSessions revokes every session of the user (admin deactivation,
// account deletion).
func (s *AuthService) RevokeAllSessions(userID string) error {
	return s.sessionRepository.RevokeAllForUser(userID)
}

// RequestPasswordReset emails a reset link. Always succeeds from the
// caller's point of view so addresses cannot be probed.
func (s *AuthService) RequestPasswordReset(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		slog.Info("password reset requested for unknown email", "email", email)
		return nil
	}

	if !user.HasPassword() {
		slog.Info("password reset requested for OAuth-only account", "email", email)
		return nil
	}

	err = s.tokenRepository.DeleteByUserAndType(user.ID, model.TokenTypePasswordReset)
	if err != nil {
		slog.Warn("failed to delete old reset tokens", "error", err, "user_id", user.ID)
	}

	resetToken, err := s.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypePasswordReset,
		Token:     resetToken,
		ExpiresAt: time.Now().Add(s.cfg.TokenPasswordResetExpiry),
	}
	err = s.tokenRepository.Create(token)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}

	err = s.emailService.SendPasswordResetEmail(user.Email, resetToken, user.Name)
	if err != nil {
		slog.Error("failed to send password reset email", "error", err, "email", user.Email)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("password reset link sent", "email", user.Email)
	return nil
}

// ResetPassword sets a new password from a reset link. Token consumption,
// the hash update, lockout clearing, and session revocation happen in one
// transaction.
func (s *AuthService) ResetPassword(tokenValue, newPassword string) error {
	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.resetRepository.ResetPassword(tokenValue, hashedPassword)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.Info("password reset completed", "user_id", userID)
	return nil
}

// ChangePassword updates the password for a logged-in user and revokes
// every other session.
func (s *AuthService) ChangePassword(userID, currentPassword, newPassword, currentSessionID string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.HasPassword() {
		err = s.ComparePassword(currentPassword, *user.PasswordHash)
		if err != nil {
			return ErrInvalidCredentials
		}
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = &hashedPassword
	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	err = s.sessionRepository.RevokeAllForUserExcept(userID, currentSessionID)
	if err != nil {
		slog.Warn("failed to revoke other sessions", "error", err, "user_id", userID)
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}

// OAuthLogin authenticates via an OAuth provider, creating a verified
// account on first login, and opens a session.
func (s *AuthService) OAuthLogin(email, name, provider, userAgent, ip string) (*model.User, *TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, fmt.Errorf("failed to lookup user: %w", err)
		}

		now := time.Now()
		user = &model.User{
			ID:              uuid.New().String(),
			Email:           email,
			Name:            strings.TrimSpace(name),
			Role:            model.RoleUser,
			EmailVerifiedAt: &now, // provider has verified the address
			CreatedAt:       now,
		}

		err = s.userRepository.Create(user)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new OAuth user created", "email", email, "user_id", user.ID, "provider", provider)
	}

	if user.IsDeactivated() {
		return nil, nil, ErrAccountDeactivated
	}

	if user.EmailVerifiedAt == nil {
		now := time.Now()
		user.EmailVerifiedAt = &now
		err = s.userRepository.Update(user)
		if err != nil {
			slog.Warn("failed to mark email as verified", "error", err, "user_id", user.ID)
		}
	}

	pair, err := s.openSession(user, userAgent, ip)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user authenticated via OAuth", "user_id", user.ID, "provider", provider)
	return user, pair, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateToken returns 32 bytes of hex-encoded randomness, used for
// refresh tokens and email link tokens.
func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// HashToken returns the SHA-256 hex digest under which opaque tokens are
// stored. A database leak exposes only hashes.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *AuthService) GenerateJWT(user *model.User, sessionID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"sid":  sessionID,
		"role": user.Role,
		"exp":  now.Add(s.cfg.AccessTokenExpiry).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, _ := mapClaims["sub"].(string)
	sessionID, _ := mapClaims["sid"].(string)
	role, _ := mapClaims["role"].(string)
	if userID == "" || sessionID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &Claims{UserID: userID, SessionID: sessionID, Role: role}, nil
}

// ValidateSession checks that the session behind a JWT is still alive.
// This is what makes the "stateless" tokens revocable.
func (s *AuthService) ValidateSession(sessionID string) error {
	session, err := s.sessionRepository.ByID(sessionID)
	if err != nil {
		return ErrSessionRevoked
	}
	if !session.IsActive(time.Now()) {
		return ErrSessionRevoked
	}
	return nil
}
