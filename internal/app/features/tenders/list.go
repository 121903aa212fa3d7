// internal/app/features/tenders/list.go
package tenders

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/tenderhub/internal/app/features/errors"
	"github.com/dalemusser/tenderhub/internal/app/store/queries/tenderqueries"
	"github.com/dalemusser/tenderhub/internal/app/system/auth"
	"github.com/dalemusser/tenderhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /tenders?status=&organization=&search=&page=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.CurrentPrincipal(r)

	params := tenderqueries.ParseParams(
		query.Get(r, "status"),
		query.Get(r, "organization"),
		query.Get(r, "search"),
		query.Get(r, "page"),
		query.Get(r, "limit"),
	)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Tenders.List(ctx, p, params)
	if err != nil {
		h.writeError(w, r, "list tenders", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, res)
}

// ServeTender handles GET /tenders/{id}.
func (h *Handler) ServeTender(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		errorsfeature.WriteMessage(w, http.StatusNotFound, msgTenderNotFound)
		return
	}
	p, _ := auth.CurrentPrincipal(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tenders.Get(ctx, p, id)
	if err != nil {
		h.writeError(w, r, "get tender", err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, t)
}
