// Package permission holds the authenticated actor and the declarative table
// of permissions each command requires.
package permission

import (
	"slices"
	"sort"

	"github.com/example/mkc/internal/apperr"
)

// AllFunctions grants every permission.
const AllFunctions = "ALL_FUNCTIONS"

// Actor is the authenticated identity performing a call.
type Actor struct {
	ID          int64
	Username    string
	Permissions []string
}

// NewActor builds an actor with a de-duplicated, sorted permission set.
func NewActor(id int64, username string, permissions []string) *Actor {
	perms := slices.Clone(permissions)
	sort.Strings(perms)
	return &Actor{ID: id, Username: username, Permissions: slices.Compact(perms)}
}

// HasPermission reports whether the actor holds p.
func (a *Actor) HasPermission(p string) bool {
	return slices.Contains(a.Permissions, p)
}

// HasAny reports whether the actor holds at least one of allowed.
func (a *Actor) HasAny(allowed []string) bool {
	for _, p := range allowed {
		if a.HasPermission(p) {
			return true
		}
	}
	return false
}

// RequirePermission fails with an authorization error unless the actor holds
// one of allowed. name is the function being attempted and only appears in
// the error.
func (a *Actor) RequirePermission(name string, allowed []string) error {
	if a == nil {
		return apperr.New(apperr.CodeAuthentication, "no authenticated user")
	}
	if a.HasAny(allowed) {
		return nil
	}
	return apperr.Authorization(a.Username, name)
}
