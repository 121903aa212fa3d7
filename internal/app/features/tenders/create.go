// internal/app/features/tenders/create.go
package tenders

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	"github.com/dalemusser/tenderhub/internal/app/system/auth"
	"github.com/dalemusser/tenderhub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
)

// HandleCreate handles POST /tenders (multipart/form-data).
//
// Text fields: tenderId, organization, description, dueDate, price and,
// for admins, attributes (JSON array of {key, value}). Files: documents.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	// Files reaching the store are removed there; this catches the rest.
	defer form.discard()

	in := lifecycle.CreateInput{
		TenderID:     form.value("tenderId"),
		Organization: form.value("organization"),
		Description:  form.value("description"),
		DueDate:      form.value("dueDate"),
		Price:        form.value("price"),
		Attributes:   form.value("attributes"),
		Files:        form.files,
	}

	p, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	t, err := h.Tenders.Create(ctx, p, in)
	if err != nil {
		h.writeError(w, r, "create tender", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusCreated, t)
}
