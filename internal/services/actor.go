package services

import (
	"slices"

	"github.com/yukikurage/projectdesk/internal/policy"
)

// Actor is the authenticated caller of a service operation together with
// the grant the policy gave it for that operation.
type Actor struct {
	UserID    uint64
	Roles     []string
	IPAddress string
	RequestID string
	Scope     policy.Scope
}

// HasRole reports whether the actor holds the named role.
func (a Actor) HasRole(name string) bool {
	return slices.Contains(a.Roles, name)
}

// Owns reports whether the actor may act on an entity owned by any of
// ownerIDs. An unrestricted grant owns everything.
func (a Actor) Owns(ownerIDs ...uint64) bool {
	if a.Scope == policy.ScopeAny {
		return true
	}
	if a.Scope != policy.ScopeOwn {
		return false
	}
	return slices.Contains(ownerIDs, a.UserID)
}

// requireOwnership fails with ErrForbidden unless the actor owns the entity.
func (a Actor) requireOwnership(ownerIDs ...uint64) error {
	if !a.Owns(ownerIDs...) {
		return ErrForbidden
	}
	return nil
}
