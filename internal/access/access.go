// Package access decides what a principal may see and touch. Handlers and
// services derive a Scope from the authenticated principal; store methods
// take that Scope and turn it into an owner predicate.
package access

import (
	"context"

	"github.com/Sakhawat2/Datawarehouse/internal/models"
)

// CanRead reports whether p may read a resource owned by ownerID.
// Unowned resources are visible to admins only.
func CanRead(p models.Principal, ownerID *string) bool {
	return ScopeFor(p).Allows(ownerID)
}

// CanWrite reports whether p may modify a resource owned by ownerID.
func CanWrite(p models.Principal, ownerID *string) bool {
	return CanRead(p, ownerID)
}

// Scope restricts store queries to the rows a principal may see.
// The zero Scope matches nothing.
type Scope struct {
	all     bool
	ownerID string
}

// ScopeFor derives the scope of p.
func ScopeFor(p models.Principal) Scope {
	if p.IsAdmin {
		return Scope{all: true}
	}
	return Scope{ownerID: p.ID}
}

// AdminScope is the unrestricted scope used by maintenance jobs.
func AdminScope() Scope {
	return Scope{all: true}
}

// IsAdmin reports whether the scope is unrestricted.
func (s Scope) IsAdmin() bool { return s.all }

// OwnerID is the owner the scope is restricted to, empty for admin or deny scopes.
func (s Scope) OwnerID() string { return s.ownerID }

// Allows reports whether a row owned by ownerID is inside the scope.
func (s Scope) Allows(ownerID *string) bool {
	if s.all {
		return true
	}
	return s.ownerID != "" && ownerID != nil && *ownerID == s.ownerID
}

// Predicate renders the scope as a SQL boolean over column, with '?'
// placeholders.
func (s Scope) Predicate(column string) (string, []interface{}) {
	switch {
	case s.all:
		return "1=1", nil
	case s.ownerID != "":
		return column + " = ?", []interface{}{s.ownerID}
	default:
		return "1=0", nil
	}
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok
}
