package repository

import (
	"fmt"
	"testing"

	"github.com/reelshare/reelshare/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreateAndListWithAuthor(t *testing.T) {
	database := testDB(t)
	userRepo := NewUserRepository(database)
	filmRepo := NewFilmRepository(database)
	repo := NewCommentRepository(database)

	uploader := seedUser(t, userRepo, "up@example.com", "Up")
	author := seedUser(t, userRepo, "author@example.com", "Critic")
	film := seedFilm(t, filmRepo, uploader.ID, "Discussed", "", model.FilmStatusApproved)

	comment := &model.Comment{FilmID: film.ID, UserID: author.ID, Body: "great pacing"}
	require.NoError(t, repo.Create(comment))

	got, err := repo.ByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "Critic", got.AuthorName)
	assert.Equal(t, "great pacing", got.Body)

	comments, err := repo.ByFilm(film.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Critic", comments[0].AuthorName)

	count, err := repo.CountByFilm(film.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCommentPagination(t *testing.T) {
	database := testDB(t)
	userRepo := NewUserRepository(database)
	filmRepo := NewFilmRepository(database)
	repo := NewCommentRepository(database)

	uploader := seedUser(t, userRepo, "up3@example.com", "Up3")
	film := seedFilm(t, filmRepo, uploader.ID, "Busy", "", model.FilmStatusApproved)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(&model.Comment{
			FilmID: film.ID,
			UserID: uploader.ID,
			Body:   fmt.Sprintf("comment %d", i),
		}))
	}

	page, err := repo.ByFilm(film.ID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := repo.ByFilm(film.ID, 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestCommentUpdateAndDelete(t *testing.T) {
	database := testDB(t)
	userRepo := NewUserRepository(database)
	filmRepo := NewFilmRepository(database)
	repo := NewCommentRepository(database)

	uploader := seedUser(t, userRepo, "up4@example.com", "Up4")
	film := seedFilm(t, filmRepo, uploader.ID, "Edited", "", model.FilmStatusApproved)

	comment := &model.Comment{FilmID: film.ID, UserID: uploader.ID, Body: "first take"}
	require.NoError(t, repo.Create(comment))

	comment.Body = "second take"
	require.NoError(t, repo.Update(comment))

	got, err := repo.ByID(comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "second take", got.Body)

	require.NoError(t, repo.Delete(comment.ID))
	_, err = repo.ByID(comment.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}
