package lifecycle

import "errors"

var (
	// ErrNoDocuments is returned when a create carries no files.
	ErrNoDocuments = errors.New("at least one document is required")
	// ErrInvalidStatus is returned for a status outside pending/approved/rejected.
	ErrInvalidStatus = errors.New("status must be one of: pending, approved, rejected")
	// ErrDocumentNotFound is returned when the tender has no such document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrCleanupBlocked is returned in blocking cleanup mode when some stored
	// documents could not be removed; the tender is kept holding only those.
	ErrCleanupBlocked = errors.New("tender documents could not be removed from storage; tender kept")
)
