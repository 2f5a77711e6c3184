// Package auth holds the authorization policy and the credential plumbing
// around it: signed tokens, password hashing and token revocation.
package auth

import (
	"context"
	"time"

	"github.com/garnizeh/jobly/pkg/apperr"
)

// Identity is the authenticated caller. A nil *Identity is anonymous.
type Identity struct {
	Username  string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

// Requirement is the access level an operation needs.
type Requirement int

const (
	Anyone Requirement = iota
	LoggedIn
	Admin
	SelfOrAdmin
)

func (r Requirement) String() string {
	switch r {
	case Anyone:
		return "anyone"
	case LoggedIn:
		return "logged-in"
	case Admin:
		return "admin"
	case SelfOrAdmin:
		return "self-or-admin"
	}
	return "unknown"
}

// Authorize decides whether id may perform an operation with requirement
// req. owner is the username owning the target resource and is only
// consulted for SelfOrAdmin. Denials are apperr Unauthorized errors.
func Authorize(id *Identity, req Requirement, owner string) error {
	switch req {
	case Anyone:
		return nil
	case LoggedIn:
		if id != nil {
			return nil
		}
	case Admin:
		if id != nil && id.IsAdmin {
			return nil
		}
	case SelfOrAdmin:
		if id != nil && (id.IsAdmin || (owner != "" && id.Username == owner)) {
			return nil
		}
	}
	return apperr.Unauthorized()
}

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the caller, or nil when anonymous.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
