// internal/app/features/tenders/update.go
package tenders

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	"github.com/dalemusser/tenderhub/internal/app/system/auth"
	"github.com/dalemusser/tenderhub/internal/app/system/lifecycle"
	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
)

// updateJSON is the body of a JSON update. Attributes stays raw so the
// attribute parser sees exactly what the client sent.
type updateJSON struct {
	TenderID     string          `json:"tenderId"`
	Organization string          `json:"organization"`
	Description  string          `json:"description"`
	DueDate      string          `json:"dueDate"`
	Price        json.Number     `json:"price"`
	Attributes   json.RawMessage `json:"attributes"`
}

// HandleUpdate handles PUT /tenders/{id}.
//
// The body is multipart/form-data (required to replace documents) or JSON.
// Omitted or empty fields keep their stored values; uploaded files replace
// the whole document set.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		errorsfeature.WriteMessage(w, http.StatusNotFound, msgTenderNotFound)
		return
	}

	var in lifecycle.UpdateInput
	if isJSON(r) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var body updateJSON
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.ErrLog.LogBadRequest(w, r, "decode update body failed", err, msgInvalidJSON)
			return
		}
		in = lifecycle.UpdateInput{
			TenderID:     body.TenderID,
			Organization: body.Organization,
			Description:  body.Description,
			DueDate:      body.DueDate,
			Price:        body.Price.String(),
		}
		if len(body.Attributes) > 0 {
			raw := string(body.Attributes)
			in.Attributes = &raw
		}
	} else {
		form, ok := h.readUpload(w, r)
		if !ok {
			return
		}
		defer form.discard()

		in = lifecycle.UpdateInput{
			TenderID:     form.value("tenderId"),
			Organization: form.value("organization"),
			Description:  form.value("description"),
			DueDate:      form.value("dueDate"),
			Price:        form.value("price"),
			Files:        form.files,
		}
		if raw, sent := form.lookup("attributes"); sent {
			in.Attributes = &raw
		}
	}

	p, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	t, err := h.Tenders.Update(ctx, p, id, in)
	if err != nil {
		h.writeError(w, r, "update tender", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, t)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
