// internal/app/features/tenders/delete.go
package tenders

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	"github.com/dalemusser/tenderhub/internal/app/system/auth"
	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
	"github.com/dalemusser/tenderhub/internal/domain/models"
)

type documentDeleted struct {
	Message string        `json:"message"`
	Tender  models.Tender `json:"tender"`
}

// HandleDelete handles DELETE /tenders/{id}. Admin only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		errorsfeature.WriteMessage(w, http.StatusNotFound, msgTenderNotFound)
		return
	}
	p, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Tenders.Delete(ctx, p, id); err != nil {
		h.writeError(w, r, "delete tender", err)
		return
	}
	errorsfeature.WriteMessage(w, http.StatusOK, "Tender removed")
}

// HandleDeleteDocument handles DELETE /tenders/{id}/documents/{docID}.
// The last document of a tender cannot be deleted.
func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		errorsfeature.WriteMessage(w, http.StatusNotFound, msgTenderNotFound)
		return
	}
	docID, ok := objectIDParam(r, "docID")
	if !ok {
		errorsfeature.WriteMessage(w, http.StatusNotFound, msgDocumentNotFound)
		return
	}
	p, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tenders.DeleteDocument(ctx, p, id, docID)
	if err != nil {
		h.writeError(w, r, "delete document", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, documentDeleted{
		Message: "Document deleted successfully",
		Tender:  t,
	})
}
