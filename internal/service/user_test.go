package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	service  *UserService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	storage  *fakeStorage
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()

	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	store := newFakeStorage()
	fileService := NewFileService(&fakeFileRepo{}, store)

	return &userFixture{
		service:  NewUserService(users, sessions, fileService),
		users:    users,
		sessions: sessions,
		storage:  store,
	}
}

func (fx *userFixture) seedUser(t *testing.T, name, role string) *model.User {
	t.Helper()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     name + "@example.com",
		Name:      name,
		Role:      role,
		CreatedAt: time.Now(),
	}
	require.NoError(t, fx.users.Create(user))
	return user
}

func TestSetRolePromoteAndDemote(t *testing.T) {
	fx := newUserFixture(t)
	fx.seedUser(t, "root", model.RoleAdmin)
	member := fx.seedUser(t, "member", model.RoleUser)

	promoted, err := fx.service.SetRole(member.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, promoted.Role)

	demoted, err := fx.service.SetRole(member.ID, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, demoted.Role)

	_, err = fx.service.SetRole(member.ID, "superuser")
	assert.Error(t, err)
}

func TestSetRoleProtectsLastAdmin(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seedUser(t, "onlyadmin", model.RoleAdmin)

	_, err := fx.service.SetRole(admin.ID, model.RoleUser)
	assert.ErrorIs(t, err, ErrLastAdmin)

	// With a second admin the demotion goes through
	fx.seedUser(t, "backup", model.RoleAdmin)
	_, err = fx.service.SetRole(admin.ID, model.RoleUser)
	assert.NoError(t, err)
}

func TestDeactivateRevokesSessions(t *testing.T) {
	fx := newUserFixture(t)
	member := fx.seedUser(t, "member", model.RoleUser)

	require.NoError(t, fx.sessions.Create(&model.Session{
		UserID:           member.ID,
		RefreshTokenHash: "hash",
		ExpiresAt:        time.Now().Add(time.Hour),
	}))

	deactivated, err := fx.service.Deactivate(member.ID)
	require.NoError(t, err)
	assert.True(t, deactivated.IsDeactivated())

	active, err := fx.sessions.ActiveByUser(member.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Idempotent
	_, err = fx.service.Deactivate(member.ID)
	assert.NoError(t, err)

	reactivated, err := fx.service.Reactivate(member.ID)
	require.NoError(t, err)
	assert.False(t, reactivated.IsDeactivated())
}

func TestDeactivateProtectsLastAdmin(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seedUser(t, "onlyadmin", model.RoleAdmin)

	_, err := fx.service.Deactivate(admin.ID)
	assert.ErrorIs(t, err, ErrLastAdmin)
}

func TestDeleteAccountProtectsLastAdmin(t *testing.T) {
	fx := newUserFixture(t)
	admin := fx.seedUser(t, "onlyadmin", model.RoleAdmin)

	assert.ErrorIs(t, fx.service.DeleteAccount(admin.ID), ErrLastAdmin)

	fx.seedUser(t, "backup", model.RoleAdmin)
	assert.NoError(t, fx.service.DeleteAccount(admin.ID))

	_, err := fx.service.ByID(admin.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteAccountAllowsDeactivatedAdmin(t *testing.T) {
	fx := newUserFixture(t)
	fx.seedUser(t, "active", model.RoleAdmin)
	retired := fx.seedUser(t, "retired", model.RoleAdmin)

	now := time.Now()
	retired.DeactivatedAt = &now
	require.NoError(t, fx.users.Update(retired))

	// Only one active admin remains, but the deactivated one does not
	// count toward it
	assert.NoError(t, fx.service.DeleteAccount(retired.ID))
}

func TestListReturnsSearchTotal(t *testing.T) {
	fx := newUserFixture(t)
	fx.seedUser(t, "alice", model.RoleUser)
	fx.seedUser(t, "alina", model.RoleUser)
	fx.seedUser(t, "bob", model.RoleUser)

	users, total, err := fx.service.List("ali", 20, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.EqualValues(t, 2, total)

	_, total, err = fx.service.List("", 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestUpdateName(t *testing.T) {
	fx := newUserFixture(t)
	member := fx.seedUser(t, "member", model.RoleUser)

	updated, err := fx.service.UpdateName(member.ID, "  New Name ")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	_, err = fx.service.UpdateName(member.ID, "   ")
	assert.Error(t, err)
}
