package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/reelshare/reelshare/internal/db"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/stretchr/testify/require"
)

// testDB opens an in-memory SQLite database with all migrations applied.
// A single connection is forced because each :memory: connection is its
// own database.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	return database
}

func seedUser(t *testing.T, repo UserRepository, email, name string) *model.User {
	t.Helper()

	hash := "$2a$10$notarealhashbutlongenoughtostore0000000000000000000"
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hash,
		Name:         name,
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(user))
	return user
}

func seedFilm(t *testing.T, repo FilmRepository, userID, title, genre, status string) *model.Film {
	t.Helper()

	now := time.Now()
	film := &model.Film{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Genre:     genre,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == model.FilmStatusApproved {
		film.PublishedAt = &now
	}
	require.NoError(t, repo.Create(film))
	return film
}
