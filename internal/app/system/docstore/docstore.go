// Package docstore uploads tender documents to object storage and removes
// them again. It is the only code that talks to the storage.Store.
//
// The adapter never retries; retry and compensation belong to the upload
// orchestrator and the orphan sweeper.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/tenderhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrStorage marks every failure reported by a storage backend.
var ErrStorage = errors.New("storage failure")

// StorageError wraps a backend failure with the operation and object key.
type StorageError struct {
	Op  string // "put" or "delete"
	Ref string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Ref, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) true for every StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// File is one uploaded file as buffered by the HTTP layer. Path points at a
// local temporary copy that is owned by the docstore once the file is handed
// to Put or Discard.
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Path     string
}

// Store adapts a storage.Store to tender Documents.
type Store struct {
	objects storage.Store
	log     *zap.Logger
	now     func() time.Time
}

// New constructs a Store on top of objects.
func New(objects storage.Store, logger *zap.Logger) *Store {
	return &Store{objects: objects, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Put uploads f and returns the Document describing the stored object.
// The temporary copy at f.Path is deleted whatever the outcome.
func (s *Store) Put(ctx context.Context, f File) (models.Document, error) {
	defer s.discard(f)

	now := s.now()
	key := NewKey(f.Name, now)

	fh, err := os.Open(f.Path)
	if err != nil {
		return models.Document{}, &StorageError{Op: "put", Ref: key, Err: err}
	}
	defer fh.Close()

	if err := s.objects.Put(ctx, key, fh, &storage.PutOptions{ContentType: f.MIMEType}); err != nil {
		return models.Document{}, &StorageError{Op: "put", Ref: key, Err: err}
	}

	return models.Document{
		ID:           primitive.NewObjectID(),
		OriginalName: f.Name,
		StorageRef:   key,
		URL:          s.objects.URL(key),
		Size:         f.Size,
		MIMEType:     f.MIMEType,
		UploadedAt:   now,
	}, nil
}

// Remove deletes the stored object referenced by storageRef. An object that
// is already gone counts as removed.
func (s *Store) Remove(ctx context.Context, storageRef string) error {
	if storageRef == "" {
		return nil
	}
	if err := s.objects.Delete(ctx, storageRef); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return &StorageError{Op: "delete", Ref: storageRef, Err: err}
	}
	return nil
}

func (s *Store) discard(f File) {
	if err := removeTemp(f.Path); err != nil {
		s.log.Warn("failed to remove temporary upload", zap.String("path", f.Path), zap.Error(err))
	}
}

// Discard deletes the temporary copies of files that will never reach Put.
// It is safe to call on files that were already stored.
func Discard(files ...File) {
	for _, f := range files {
		_ = removeTemp(f.Path)
	}
}

func removeTemp(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
