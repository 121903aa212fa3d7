// internal/app/features/tenders/errors.go
package tenders

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	"github.com/dalemusser/tenderhub/internal/app/policy/tenderpolicy"
	tenderstore "github.com/dalemusser/tenderhub/internal/app/store/tenders"
	"github.com/dalemusser/tenderhub/internal/app/system/inputval"
	"github.com/dalemusser/tenderhub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenderhub/internal/app/system/uploads"
)

// Stable response messages.
const (
	msgNoDocuments      = "At least one document is required."
	msgInvalidStatus    = "Invalid status. Must be one of: pending, approved, rejected."
	msgDuplicate        = "A tender with this ID already exists."
	msgConflict         = "The tender was modified by another request. Reload and try again."
	msgForbidden        = "You are not authorized to perform this action."
	msgUnauthenticated  = "Authentication required."
	msgTenderNotFound   = "Tender not found."
	msgDocumentNotFound = "Document not found."
	msgLastDocument     = "Cannot delete the last document. A tender must have at least one document."
	msgUploadFailed     = "File upload failed."
	msgCleanupBlocked   = "Tender documents could not be removed from storage. The tender was kept."
	msgServerError      = "Server error."
	msgInvalidForm      = "Invalid form data."
	msgInvalidJSON      = "Invalid JSON body."
)

// writeError maps a lifecycle error onto its response. Server-side failures
// are logged at Error; everything else is a client error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *inputval.ValidationError
	var rejected *uploads.RejectedFileError

	switch {
	case errors.As(err, &verr):
		errorsfeature.WriteMessage(w, http.StatusBadRequest, verr.Message)
	case errors.As(err, &rejected):
		errorsfeature.WriteMessage(w, http.StatusBadRequest, rejected.Error())
	case errors.Is(err, lifecycle.ErrNoDocuments):
		errorsfeature.WriteMessage(w, http.StatusBadRequest, msgNoDocuments)
	case errors.Is(err, lifecycle.ErrInvalidStatus):
		errorsfeature.WriteMessage(w, http.StatusBadRequest, msgInvalidStatus)
	case errors.Is(err, tenderpolicy.ErrLastDocument):
		errorsfeature.WriteMessage(w, http.StatusBadRequest, msgLastDocument)
	case errors.Is(err, tenderpolicy.ErrUnauthenticated):
		errorsfeature.WriteMessage(w, http.StatusUnauthorized, msgUnauthenticated)
	case errors.Is(err, tenderpolicy.ErrForbidden):
		errorsfeature.WriteMessage(w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, tenderstore.ErrNotFound):
		errorsfeature.WriteMessage(w, http.StatusNotFound, msgTenderNotFound)
	case errors.Is(err, lifecycle.ErrDocumentNotFound):
		errorsfeature.WriteMessage(w, http.StatusNotFound, msgDocumentNotFound)
	case errors.Is(err, tenderstore.ErrDuplicateTenderID):
		errorsfeature.WriteMessage(w, http.StatusConflict, msgDuplicate)
	case errors.Is(err, tenderstore.ErrConflict):
		errorsfeature.WriteMessage(w, http.StatusConflict, msgConflict)
	case errors.Is(err, uploads.ErrUploadFailed):
		h.ErrLog.LogServerError(w, r, op+": upload failed", err, msgUploadFailed)
	case errors.Is(err, lifecycle.ErrCleanupBlocked):
		h.ErrLog.LogServerError(w, r, op+": cleanup blocked", err, msgCleanupBlocked)
	case errors.Is(err, context.DeadlineExceeded):
		h.ErrLog.LogServerError(w, r, op+": timed out", err, msgServerError)
	default:
		h.ErrLog.LogServerError(w, r, op+" failed", err, msgServerError)
	}
}
