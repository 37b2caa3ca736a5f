package auth

import (
	"context"
	"slices"

	"github.com/taskhub/apiserver/types"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    int64        `json:"id"`
	Email string       `json:"email"`
	Name  string       `json:"name,omitempty"`
	Roles []types.Role `json:"roles"`
}

// PrincipalFromUser builds a principal from a stored user record.
func PrincipalFromUser(user types.User) Principal {
	return Principal{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Roles: slices.Clone(user.Roles),
	}
}

// HasRole reports whether the principal holds role.
func (p *Principal) HasRole(role types.Role) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// IsAdmin reports whether the principal holds types.RoleAdmin.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(types.RoleAdmin)
}

// RequireRole fails with ErrUnauthenticated when p is nil and with
// ErrForbidden when p lacks role.
func RequireRole(p *Principal, role types.Role) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if !p.HasRole(role) {
		return ErrForbidden
	}
	return nil
}

type principalContextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &p)
}

// PrincipalFromContext returns the principal attached by WithPrincipal,
// or nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
