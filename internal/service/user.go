package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/repository"
	"github.com/reelshare/reelshare/internal/validation"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrLastAdmin    = errors.New("cannot demote or remove the last admin")
)

type UserService struct {
	userRepository    repository.UserRepository
	sessionRepository repository.SessionRepository
	fileService       *FileService
}

func NewUserService(
	userRepository repository.UserRepository,
	sessionRepository repository.SessionRepository,
	fileService *FileService,
) *UserService {
	return &UserService{
		userRepository:    userRepository,
		sessionRepository: sessionRepository,
		fileService:       fileService,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	user, err := s.userRepository.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.attachAvatarURL(user)
	return user, nil
}

func (s *UserService) attachAvatarURL(user *model.User) {
	avatar, err := s.fileService.Avatar(user.ID)
	if err == nil {
		user.AvatarURL = s.fileService.URL(avatar)
	}
}

func (s *UserService) UpdateName(userID, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	err := validation.ValidateName(name)
	if err != nil {
		return nil, err
	}

	user, err := s.ByID(userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// guardLastAdmin fails when only one active admin would remain without it.
func (s *UserService) guardLastAdmin() error {
	admins, err := s.userRepository.CountByRole(model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// DeleteAccount removes the user, their sessions, and their stored files.
// Films, comments, and ratings go with the user via FK cascade.
func (s *UserService) DeleteAccount(userID string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// Deactivated admins no longer count toward the active-admin total,
	// so deleting one cannot orphan the admin role
	if user.IsAdmin() && !user.IsDeactivated() {
		err = s.guardLastAdmin()
		if err != nil {
			return err
		}
	}

	err = s.sessionRepository.RevokeAllForUser(userID)
	if err != nil {
		slog.Warn("failed to revoke sessions during account deletion", "error", err, "user_id", userID)
	}

	err = s.fileService.DeleteAllUserFiles(userID)
	if err != nil {
		slog.Warn("failed to delete user files during account deletion", "error", err, "user_id", userID)
	}

	err = s.userRepository.Delete(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("account deleted", "user_id", userID)
	return nil
}

// List returns users for the admin dashboard, with the total the same
// search matches so pagination stays consistent.
func (s *UserService) List(search string, limit, offset int) ([]*model.User, int64, error) {
	users, err := s.userRepository.List(search, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.userRepository.CountSearch(search)
	if err != nil {
		return nil, 0, err
	}

	for _, user := range users {
		s.attachAvatarURL(user)
	}
	return users, total, nil
}

func (s *UserService) Count() (int64, error) {
	return s.userRepository.Count()
}

// SetRole changes a user's role (admin operation).
func (s *UserService) SetRole(userID, role string) (*model.User, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	user, err := s.ByID(userID)
	if err != nil {
		return nil, err
	}

	if user.IsAdmin() && role != model.RoleAdmin {
		err = s.guardLastAdmin()
		if err != nil {
			return nil, err
		}
	}

	user.Role = role
	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	slog.Info("user role changed", "user_id", userID, "role", role)
	return user, nil
}

// Deactivate disables the account and revokes every session so existing
// tokens stop working immediately.
func (s *UserService) Deactivate(userID string) (*model.User, error) {
	user, err := s.ByID(userID)
	if err != nil {
		return nil, err
	}

	if user.IsDeactivated() {
		return user, nil
	}

	if user.IsAdmin() {
		err = s.guardLastAdmin()
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	user.DeactivatedAt = &now
	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate user: %w", err)
	}

	err = s.sessionRepository.RevokeAllForUser(userID)
	if err != nil {
		slog.Warn("failed to revoke sessions on deactivation", "error", err, "user_id", userID)
	}

	slog.Info("user deactivated", "user_id", userID)
	return user, nil
}

func (s *UserService) Reactivate(userID string) (*model.User, error) {
	user, err := s.ByID(userID)
	if err != nil {
		return nil, err
	}

	user.DeactivatedAt = nil
	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to reactivate user: %w", err)
	}

	slog.Info("user reactivated", "user_id", userID)
	return user, nil
}
