package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/storage"
)

// Listing page sizes.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

const defaultContentType = "application/octet-stream"

// UploadRequest is one file received from a client.
type UploadRequest struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// FileService stores files and keeps the ownership ledger for them. Every
// read or delete goes through the ownership rule in package auth.
type FileService struct {
	repomanager repomanager.RepositoryManager
	storage     storage.Storage
	extensions  *ExtensionPolicy
	maxFileSize int64
	log         logging.Logger
}

func NewFileService(m repomanager.RepositoryManager, st storage.Storage, extensions *ExtensionPolicy,
	maxFileSize int64, log logging.Logger) *FileService {
	return &FileService{
		repomanager: m,
		storage:     st,
		extensions:  extensions,
		maxFileSize: maxFileSize,
		log:         log.With("module", "files"),
	}
}

// Upload validates the name, streams the body into storage under a fresh
// storage name and records it for ownerID. If recording fails the stored
// object is removed again.
func (s *FileService) Upload(ctx context.Context, ownerID int64, req UploadRequest) (*models.File, error) {
	if strings.TrimSpace(req.FileName) == "" {
		return nil, common.NewValidationError("Filename is required")
	}

	name := SanitizeFilename(req.FileName)
	ext, err := s.extensions.Check(name)
	if err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	storageName := NewStorageName(ext)
	size, err := s.storage.Write(ctx, storageName, &limitedReader{r: req.Body, remaining: s.maxFileSize})
	if err != nil {
		var berr *bodyReadError
		switch {
		case errors.Is(err, common.ErrorTooLarge):
			return nil, fmt.Errorf("%w: maximum allowed size is %d bytes", common.ErrorTooLarge, s.maxFileSize)
		case errors.As(err, &berr):
			s.log.Warn(ctx, "upload body read failed", "owner_id", ownerID, "error", berr.err)
			return nil, fmt.Errorf("%w: %v", common.ErrorBodyRead, berr.err)
		}
		return nil, fmt.Errorf("%w: write %s: %v", common.ErrorStorage, storageName, err)
	}

	f, err := s.RecordUpload(ctx, ownerID, storageName, name, contentType, size)
	if err != nil {
		if derr := s.storage.Delete(ctx, storageName); derr != nil {
			s.log.Error(ctx, "failed to remove object after ledger error", "storage_name", storageName, "error", derr)
		}
		return nil, err
	}

	s.log.Info(ctx, "file uploaded", "file_id", f.ID, "owner_id", ownerID, "size", size)
	return f, nil
}

// RecordUpload adds a ledger entry for an object already in storage.
func (s *FileService) RecordUpload(ctx context.Context, ownerID int64, storageName, originalName, contentType string, size int64) (*models.File, error) {
	f, err := s.repomanager.Files().Create(ctx, &models.File{
		OwnerID:      ownerID,
		StorageName:  storageName,
		OriginalName: originalName,
		ContentType:  contentType,
		Size:         size,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: record upload: %v", common.ErrorInternal, err)
	}
	return f, nil
}

// Get returns the ledger entry for fileID. An unknown id is
// common.ErrorNotFound; someone else's file is common.ErrorForbidden.
func (s *FileService) Get(ctx context.Context, fileID, requesterID int64) (*models.File, error) {
	f, err := s.repomanager.Files().GetByID(ctx, fileID)
	if err != nil {
		return nil, lookupError(err)
	}
	if err := auth.CheckOwner(requesterID, f.OwnerID); err != nil {
		return nil, err
	}
	return f, nil
}

// Download opens the stored object for fileID after Get's checks. A ledger
// entry whose object is gone is reported as common.ErrorNotFound.
func (s *FileService) Download(ctx context.Context, fileID, requesterID int64) (*models.File, io.ReadCloser, error) {
	f, err := s.Get(ctx, fileID, requesterID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Open(ctx, f.StorageName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			s.log.Warn(ctx, "ledger entry without stored object", "file_id", f.ID, "storage_name", f.StorageName)
			return nil, nil, fmt.Errorf("%w: file not found in storage", common.ErrorNotFound)
		}
		return nil, nil, fmt.Errorf("%w: open %s: %v", common.ErrorStorage, f.StorageName, err)
	}
	return f, rc, nil
}

// List returns ownerID's files ordered by id.
func (s *FileService) List(ctx context.Context, ownerID int64, skip, limit int) ([]*models.File, error) {
	if skip < 0 {
		return nil, common.NewValidationError("skip must not be negative")
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, common.NewValidationError("limit must be between 1 and %d", MaxListLimit)
	}

	files, err := s.repomanager.Files().ListByOwner(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list files: %v", common.ErrorInternal, err)
	}
	return files, nil
}

// Remove deletes the stored object and then the ledger entry, with the row
// locked meanwhile. If the object can't be deleted the entry stays and
// common.ErrorStorage is returned. If the object is gone but the entry can't
// be deleted, common.ErrorOrphanedRecord is returned.
func (s *FileService) Remove(ctx context.Context, fileID, requesterID int64) error {
	var objectDeleted bool
	var storageName string

	err := s.repomanager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		f, err := repos.Files().GetByIDForUpdate(ctx, fileID)
		if err != nil {
			return lookupError(err)
		}
		if err := auth.CheckOwner(requesterID, f.OwnerID); err != nil {
			return err
		}

		storageName = f.StorageName
		if err := s.storage.Delete(ctx, f.StorageName); err != nil && !errors.Is(err, storage.ErrNotExist) {
			return fmt.Errorf("%w: delete %s: %v", common.ErrorStorage, f.StorageName, err)
		}
		objectDeleted = true

		return repos.Files().Delete(ctx, f.ID)
	})

	switch {
	case err == nil:
		s.log.Info(ctx, "file deleted", "file_id", fileID, "owner_id", requesterID)
		return nil
	case objectDeleted:
		s.log.Error(ctx, "stored object deleted but ledger entry remains",
			"file_id", fileID, "storage_name", storageName, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorOrphanedRecord, err)
	case errors.Is(err, common.ErrorStorage):
		s.log.Error(ctx, "failed to delete stored object", "file_id", fileID, "error", err)
		return err
	default:
		return err
	}
}

// lookupError keeps common.ErrorNotFound and hides anything else behind
// common.ErrorInternal.
func lookupError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}

// bodyReadError marks a failure of the client's body, as opposed to the
// storage it is copied into.
type bodyReadError struct {
	err error
}

func (e *bodyReadError) Error() string { return "read body: " + e.err.Error() }
func (e *bodyReadError) Unwrap() error { return e.err }

// limitedReader fails with common.ErrorTooLarge once more than remaining
// bytes have been read. Other read errors come back as *bodyReadError.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, common.ErrorTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	if err != nil && err != io.EOF {
		err = &bodyReadError{err: err}
	}
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, common.ErrorTooLarge
	}
	return n, err
}
