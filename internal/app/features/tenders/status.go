// internal/app/features/tenders/status.go
package tenders

import (
	"context"
	"encoding/json"
	"net/http"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	"github.com/dalemusser/tenderhub/internal/app/system/auth"
	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
)

type statusBody struct {
	Status string `json:"status"`
}

// HandleStatus handles PATCH /tenders/{id}/status with {"status": "..."}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		errorsfeature.WriteMessage(w, http.StatusNotFound, msgTenderNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var body statusBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode status body failed", err, msgInvalidJSON)
		return
	}

	p, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tenders.SetStatus(ctx, p, id, body.Status)
	if err != nil {
		h.writeError(w, r, "set tender status", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, t)
}
