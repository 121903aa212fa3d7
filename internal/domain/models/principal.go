// internal/domain/models/principal.go
package models

import "strings"

// Principal roles supplied by the identity collaborator.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated actor behind a request. It is produced by
// the identity collaborator and consumed read-only.
type Principal struct {
	ID   string
	Role string
	Name string
}

// IsPrivileged reports whether the principal holds the elevated role.
func (p Principal) IsPrivileged() bool {
	return strings.EqualFold(strings.TrimSpace(p.Role), RoleAdmin)
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.ID) != ""
}

// Submitter returns the reference stored on tenders created by p.
func (p Principal) Submitter() Submitter {
	return Submitter{ID: p.ID, Name: p.Name}
}
