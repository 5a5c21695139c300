package service

import (
	"backend/internal/model"

	"github.com/google/uuid"
)

// Principal is an immutable snapshot of the acting user, captured once
// at the request boundary and threaded through every service call. It
// carries the union of the cadet's role names and permission names, so
// authorization decisions never touch mutable shared state.
type Principal struct {
	ID          uuid.UUID
	Username    string
	permissions map[string]struct{}
}

// NewPrincipal builds a snapshot from an id, username and authority names.
func NewPrincipal(id uuid.UUID, username string, permissions []string) Principal {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return Principal{ID: id, Username: username, permissions: set}
}

// PrincipalFromCadet snapshots a loaded cadet (roles and permissions
// must be preloaded).
func PrincipalFromCadet(cadet *model.Cadet) Principal {
	return NewPrincipal(cadet.ID, cadet.Username, cadet.PermissionNames())
}

// HasPermission reports whether the principal holds the named authority.
func (p Principal) HasPermission(name string) bool {
	_, ok := p.permissions[name]
	return ok
}

// CanMutate implements the ownership-or-override policy: the principal
// may mutate a resource iff it owns the resource or holds the resource's
// override permission (e.g. "mission:edit_any").
func CanMutate(p Principal, ownerID uuid.UUID, overridePermission string) bool {
	return p.ID == ownerID || p.HasPermission(overridePermission)
}
