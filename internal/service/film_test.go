package service

import (
	"io"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/repository"
	"github.com/reelshare/reelshare/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFilmRepo struct {
	films map[string]*model.Film
}

func newFakeFilmRepo() *fakeFilmRepo {
	return &fakeFilmRepo{films: map[string]*model.Film{}}
}

func (f *fakeFilmRepo) Create(film *model.Film) error {
	clone := *film
	f.films[film.ID] = &clone
	return nil
}

func (f *fakeFilmRepo) ByID(id string) (*model.Film, error) {
	film, ok := f.films[id]
	if !ok {
		return nil, repository.ErrFilmNotFound
	}
	clone := *film
	return &clone, nil
}

func (f *fakeFilmRepo) Update(film *model.Film) error {
	_, ok := f.films[film.ID]
	if !ok {
		return repository.ErrFilmNotFound
	}
	clone := *film
	f.films[film.ID] = &clone
	return nil
}

func (f *fakeFilmRepo) Delete(id string) error {
	_, ok := f.films[id]
	if !ok {
		return repository.ErrFilmNotFound
	}
	delete(f.films, id)
	return nil
}

func (f *fakeFilmRepo) matches(film *model.Film, filter repository.FilmFilter) bool {
	if filter.Status != "" && film.Status != filter.Status {
		return false
	}
	if filter.UserID != "" && film.UserID != filter.UserID {
		return false
	}
	if filter.Genre != "" && film.Genre != filter.Genre {
		return false
	}
	if filter.Query != "" && !strings.Contains(strings.ToLower(film.Title), strings.ToLower(filter.Query)) {
		return false
	}
	return true
}

func (f *fakeFilmRepo) List(filter repository.FilmFilter) ([]*model.Film, error) {
	var out []*model.Film
	for _, film := range f.films {
		if f.matches(film, filter) {
			clone := *film
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeFilmRepo) CountFiltered(filter repository.FilmFilter) (int64, error) {
	var n int64
	for _, film := range f.films {
		if f.matches(film, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeFilmRepo) IncrementViews(id string) error {
	film, ok := f.films[id]
	if !ok {
		return repository.ErrFilmNotFound
	}
	film.Views++
	return nil
}

func (f *fakeFilmRepo) CountByStatus(status string) (int64, error) {
	var n int64
	for _, film := range f.films {
		if film.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeFileRepo struct {
	files []*model.File
}

func (f *fakeFileRepo) Create(file *model.File) error {
	clone := *file
	f.files = append(f.files, &clone)
	return nil
}

func (f *fakeFileRepo) ByID(id string) (*model.File, error) {
	for _, file := range f.files {
		if file.ID == id {
			clone := *file
			return &clone, nil
		}
	}
	return nil, repository.ErrFileNotFound
}

func (f *fakeFileRepo) FileByType(ownerType, ownerID, fileType string) (*model.File, error) {
	for i := len(f.files) - 1; i >= 0; i-- {
		file := f.files[i]
		if file.OwnerType == ownerType && file.OwnerID == ownerID && file.Type == fileType {
			clone := *file
			return &clone, nil
		}
	}
	return nil, repository.ErrFileNotFound
}

func (f *fakeFileRepo) Files(ownerType, ownerID string) ([]*model.File, error) {
	var out []*model.File
	for _, file := range f.files {
		if file.OwnerType == ownerType && file.OwnerID == ownerID {
			clone := *file
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeFileRepo) AllUserFiles(userID string) ([]*model.File, error) {
	var out []*model.File
	for _, file := range f.files {
		if file.UserID == userID {
			clone := *file
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeFileRepo) Delete(id string) error {
	for i, file := range f.files {
		if file.ID == id {
			f.files = append(f.files[:i], f.files[i+1:]...)
			return nil
		}
	}
	return repository.ErrFileNotFound
}

type fakeStorage struct {
	objects map[string]bool
}

var _ storage.Storage = (*fakeStorage)(nil)

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]bool{}}
}

func (f *fakeStorage) Save(path string, file io.Reader) error {
	f.objects[path] = true
	return nil
}

func (f *fakeStorage) Delete(path string) error {
	delete(f.objects, path)
	return nil
}

func (f *fakeStorage) URL(path string) string {
	return "/media/" + path
}

type filmFixture struct {
	service  *FilmService
	films    *fakeFilmRepo
	users    *fakeUserRepo
	fileRepo *fakeFileRepo
	storage  *fakeStorage
}

func newFilmFixture(t *testing.T) *filmFixture {
	t.Helper()

	films := newFakeFilmRepo()
	users := newFakeUserRepo()
	fileRepo := &fakeFileRepo{}
	store := newFakeStorage()
	fileService := NewFileService(fileRepo, store)
	email := NewEmailService("", "test@example.com", "http://localhost:5173", "Reelshare", true)

	return &filmFixture{
		service:  NewFilmService(films, users, fileService, email),
		films:    films,
		users:    users,
		fileRepo: fileRepo,
		storage:  store,
	}
}

func (fx *filmFixture) seedUser(t *testing.T, name, role string) *model.User {
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

func (fx *filmFixture) seedFilm(t *testing.T, userID, title, status string) *model.Film {
	t.Helper()
	now := time.Now()
	film := &model.Film{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, fx.films.Create(film))
	return film
}

func videoHeader() *multipart.FileHeader {
	return &multipart.FileHeader{Filename: "clip.mp4", Size: 1024}
}

func TestFilmCreateEntersModerationQueue(t *testing.T) {
	fx := newFilmFixture(t)
	uploader := fx.seedUser(t, "uploader", model.RoleUser)

	film, err := fx.service.Create(uploader.ID, CreateFilmInput{
		Title:           "  First Cut ",
		Description:     "a short about waiting",
		Genre:           "Drama",
		DurationSeconds: 420,
	}, nil, videoHeader(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, model.FilmStatusPending, film.Status)
	assert.Equal(t, "First Cut", film.Title)
	assert.Equal(t, "drama", film.Genre)
	assert.Nil(t, film.PublishedAt)

	// Video stored privately and linked back
	video, err := fx.fileRepo.FileByType(model.OwnerTypeFilm, film.ID, model.FileTypeVideo)
	require.NoError(t, err)
	assert.False(t, video.Public)
	assert.True(t, fx.storage.objects[video.StoragePath])
	assert.NotEmpty(t, film.VideoURL)
}

func TestFilmCreateRequiresTitle(t *testing.T) {
	fx := newFilmFixture(t)
	uploader := fx.seedUser(t, "uploader", model.RoleUser)

	_, err := fx.service.Create(uploader.ID, CreateFilmInput{Title: "   "}, nil, videoHeader(), nil, nil)
	assert.Error(t, err)
}

func TestFilmByIDVisibility(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)
	stranger := fx.seedUser(t, "stranger", model.RoleUser)
	admin := fx.seedUser(t, "admin", model.RoleAdmin)

	pending := fx.seedFilm(t, owner.ID, "Unreviewed", model.FilmStatusPending)

	_, err := fx.service.ByID(pending.ID, nil)
	assert.ErrorIs(t, err, ErrFilmNotFound)

	_, err = fx.service.ByID(pending.ID, stranger)
	assert.ErrorIs(t, err, ErrFilmNotFound)

	_, err = fx.service.ByID(pending.ID, owner)
	assert.NoError(t, err)

	_, err = fx.service.ByID(pending.ID, admin)
	assert.NoError(t, err)
}

func TestFilmUpdateOwnerOnly(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)
	stranger := fx.seedUser(t, "stranger", model.RoleUser)

	film := fx.seedFilm(t, owner.ID, "Mine", model.FilmStatusPending)

	title := "Not Yours"
	_, err := fx.service.Update(stranger, film.ID, UpdateFilmInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotFilmOwner)
}

func TestFilmUpdateApprovedResetsToPending(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)
	admin := fx.seedUser(t, "admin", model.RoleAdmin)

	film := fx.seedFilm(t, owner.ID, "Live", model.FilmStatusPending)
	approved, err := fx.service.Approve(admin.ID, film.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.PublishedAt)
	firstPublished := *approved.PublishedAt

	title := "Live, recut"
	updated, err := fx.service.Update(owner, film.ID, UpdateFilmInput{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, model.FilmStatusPending, updated.Status)
	assert.Nil(t, updated.ReviewNote)
	assert.Nil(t, updated.ReviewedBy)
	assert.Nil(t, updated.ReviewedAt)

	// Re-approval keeps the original publish date
	reapproved, err := fx.service.Approve(admin.ID, film.ID)
	require.NoError(t, err)
	require.NotNil(t, reapproved.PublishedAt)
	assert.True(t, firstPublished.Equal(*reapproved.PublishedAt))
}

func TestFilmRejectStoresReason(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)
	admin := fx.seedUser(t, "admin", model.RoleAdmin)

	film := fx.seedFilm(t, owner.ID, "Shaky", model.FilmStatusPending)

	rejected, err := fx.service.Reject(admin.ID, film.ID, "  audio is clipped  ")
	require.NoError(t, err)
	assert.Equal(t, model.FilmStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ReviewNote)
	assert.Equal(t, "audio is clipped", *rejected.ReviewNote)
	require.NotNil(t, rejected.ReviewedBy)
	assert.Equal(t, admin.ID, *rejected.ReviewedBy)

	// Empty reason leaves no note
	other := fx.seedFilm(t, owner.ID, "Other", model.FilmStatusPending)
	rejected, err = fx.service.Reject(admin.ID, other.ID, "   ")
	require.NoError(t, err)
	assert.Nil(t, rejected.ReviewNote)
}

func TestFilmDeletePermissions(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)
	stranger := fx.seedUser(t, "stranger", model.RoleUser)
	admin := fx.seedUser(t, "admin", model.RoleAdmin)

	film := fx.seedFilm(t, owner.ID, "Doomed", model.FilmStatusApproved)

	assert.ErrorIs(t, fx.service.Delete(stranger, film.ID), ErrNotFilmOwner)
	require.NoError(t, fx.service.Delete(admin, film.ID))

	_, err := fx.films.ByID(film.ID)
	assert.ErrorIs(t, err, repository.ErrFilmNotFound)
}

func TestFilmDeleteRemovesMedia(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)

	film, err := fx.service.Create(owner.ID, CreateFilmInput{Title: "Transient"}, nil, videoHeader(), nil, nil)
	require.NoError(t, err)
	require.Len(t, fx.storage.objects, 1)

	require.NoError(t, fx.service.Delete(owner, film.ID))
	assert.Empty(t, fx.storage.objects)
	assert.Empty(t, fx.fileRepo.files)
}

func TestFilmBrowseListsApprovedOnly(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)

	fx.seedFilm(t, owner.ID, "Public", model.FilmStatusApproved)
	fx.seedFilm(t, owner.ID, "Hidden", model.FilmStatusPending)

	films, total, err := fx.service.Browse("", "", "", 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, films, 1)
	assert.Equal(t, "Public", films[0].Title)
}

func TestFilmModerationQueueDefaultsToPending(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)

	fx.seedFilm(t, owner.ID, "Waiting", model.FilmStatusPending)
	fx.seedFilm(t, owner.ID, "Done", model.FilmStatusApproved)

	films, total, err := fx.service.ModerationQueue("", 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, films, 1)
	assert.Equal(t, "Waiting", films[0].Title)
}

func TestFilmRecordView(t *testing.T) {
	fx := newFilmFixture(t)
	owner := fx.seedUser(t, "owner", model.RoleUser)
	film := fx.seedFilm(t, owner.ID, "Watched", model.FilmStatusApproved)

	require.NoError(t, fx.service.RecordView(film.ID))
	got, err := fx.films.ByID(film.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)

	assert.ErrorIs(t, fx.service.RecordView("missing"), ErrFilmNotFound)
}
