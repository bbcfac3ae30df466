package service

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/repository"
	"github.com/reelshare/reelshare/internal/storage"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// Upload streams a file to object storage and records it. Validation
// (type, size, content sniffing) is the caller's job.
func (s *FileService) Upload(userID, ownerType, ownerID, fileType string, file multipart.File, header *multipart.FileHeader, isPublic bool) (*model.File, error) {
	ext := filepath.Ext(header.Filename)
	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	prefix := "private"
	if isPublic {
		prefix = "public"
	}
	storagePath := path.Join(prefix, fileType+"s", filename)

	err := s.storage.Save(storagePath, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	fileModel := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		StoragePath:  storagePath,
		Public:       isPublic,
		CreatedAt:    time.Now(),
	}

	err = s.fileRepo.Create(fileModel)
	if err != nil {
		// Orphaned object cleanup, best effort
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return fileModel, nil
}

// FileFor retrieves the newest file of a given type for an owner.
func (s *FileService) FileFor(ownerType, ownerID, fileType string) (*model.File, error) {
	return s.fileRepo.FileByType(ownerType, ownerID, fileType)
}

// URL returns the access URL for a file: long-lived presigned URL for
// public files, short-lived for private ones.
func (s *FileService) URL(file *model.File) string {
	if file == nil {
		return ""
	}

	s3Storage, ok := s.storage.(*storage.S3Storage)
	if ok {
		if file.Public {
			return s3Storage.PublicURL(file.StoragePath)
		}
		url, err := s3Storage.PresignedURL(file.StoragePath, s3Storage.PresignExpiryPrivate())
		if err != nil {
			return s3Storage.PublicURL(file.StoragePath)
		}
		return url
	}

	return s.storage.URL(file.StoragePath)
}

// Delete removes a file from storage and the database.
func (s *FileService) Delete(fileID string) error {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	delErr := s.storage.Delete(file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err = s.fileRepo.Delete(fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// DeleteOwnerFiles removes every stored object belonging to an owner
// (e.g. a film's video and poster when the film is deleted).
func (s *FileService) DeleteOwnerFiles(ownerType, ownerID string) error {
	files, err := s.fileRepo.Files(ownerType, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list owner files: %w", err)
	}

	for _, file := range files {
		err = s.Delete(file.ID)
		if err != nil {
			slog.Warn("failed to delete owner file", "error", err, "file_id", file.ID)
		}
	}

	return nil
}

// Avatar retrieves the user's avatar file.
func (s *FileService) Avatar(userID string) (*model.File, error) {
	return s.fileRepo.FileByType(model.OwnerTypeUser, userID, model.FileTypeAvatar)
}

// DeleteUserAvatar deletes the user's avatar, if any.
func (s *FileService) DeleteUserAvatar(userID string) error {
	file, err := s.Avatar(userID)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return nil
		}
		return err
	}

	return s.Delete(file.ID)
}

// DeleteAllUserFiles removes every file a user ever uploaded. Used on
// account deletion.
func (s *FileService) DeleteAllUserFiles(userID string) error {
	files, err := s.fileRepo.AllUserFiles(userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(file.StoragePath)
		if err != nil {
			// Physical object may already be gone
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}

	return nil
}
