// Package tenderpolicy decides what a principal may do with a tender.
//
// Authorization rules:
//   - Any authenticated principal may create and read tenders
//   - Fields and documents may be updated by the owner or an admin
//   - Attributes are only honored for admins; others' attributes are ignored
//   - Status changes and tender deletion are admin-only
//   - A single document may be deleted by the owner or an admin, but never
//     the tender's last remaining document
package tenderpolicy

import (
	"errors"

	"github.com/dalemusser/tenderhub/internal/domain/models"
)

var (
	// ErrUnauthenticated is returned when no principal is acting.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the principal may not perform the action.
	ErrForbidden = errors.New("not authorized")
	// ErrLastDocument is returned for deleting a tender's only document.
	ErrLastDocument = errors.New("cannot delete the last document of a tender")
)

// Action names an operation on tenders.
type Action string

const (
	ActionCreate           Action = "create"
	ActionRead             Action = "read"
	ActionUpdate           Action = "update"
	ActionUpdateAttributes Action = "update_attributes"
	ActionStatus           Action = "status"
	ActionDelete           Action = "delete"
	ActionDeleteDocument   Action = "delete_document"
)

// Decide returns nil when p may perform action on t. t may be nil for
// actions that do not target an existing tender.
func Decide(p models.Principal, action Action, t *models.Tender) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}

	switch action {
	case ActionCreate, ActionRead:
		return nil

	case ActionUpdate:
		if p.IsPrivileged() || isOwner(p, t) {
			return nil
		}
		return ErrForbidden

	case ActionUpdateAttributes, ActionStatus, ActionDelete:
		if p.IsPrivileged() {
			return nil
		}
		return ErrForbidden

	case ActionDeleteDocument:
		if !p.IsPrivileged() && !isOwner(p, t) {
			return ErrForbidden
		}
		if t == nil || len(t.Documents) <= 1 {
			return ErrLastDocument
		}
		return nil
	}

	return ErrForbidden
}

// CanEditAttributes reports whether attributes supplied by p are applied.
// Attributes from anyone else are dropped, not rejected.
func CanEditAttributes(p models.Principal) bool {
	return Decide(p, ActionUpdateAttributes, nil) == nil
}

func isOwner(p models.Principal, t *models.Tender) bool {
	return t != nil && t.IsOwnedBy(p.ID)
}
