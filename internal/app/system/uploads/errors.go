package uploads

import (
	"errors"
	"fmt"
)

// ErrUploadFailed marks a batch that could not be stored. Compensation has
// already been attempted when a caller sees it.
var ErrUploadFailed = errors.New("document upload failed")

// UploadError reports the file whose store call failed the batch.
type UploadError struct {
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed: %v", e.File, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUploadFailed) true for every UploadError.
func (e *UploadError) Is(target error) bool { return target == ErrUploadFailed }

// RejectedFileError reports a file refused before any store call.
type RejectedFileError struct {
	File   string
	Reason string
}

func (e *RejectedFileError) Error() string {
	return fmt.Sprintf("File %q %s.", e.File, e.Reason)
}
