package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/apiserver/types"
)

func TestRequireRole(t *testing.T) {
	user := &Principal{ID: 1, Roles: []types.Role{types.RoleUser}}
	admin := &Principal{ID: 2, Roles: []types.Role{types.RoleAdmin}}

	assert.ErrorIs(t, RequireRole(nil, types.RoleUser), ErrUnauthenticated)
	assert.NoError(t, RequireRole(user, types.RoleUser))
	assert.ErrorIs(t, RequireRole(user, types.RoleAdmin), ErrForbidden)
	assert.NoError(t, RequireRole(admin, types.RoleAdmin))
	assert.ErrorIs(t, RequireRole(admin, types.RoleUser), ErrForbidden, "ADMIN does not imply USER")
}

func TestPrincipalNilSafe(t *testing.T) {
	var p *Principal
	assert.False(t, p.HasRole(types.RoleUser))
	assert.False(t, p.IsAdmin())
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, PrincipalFromContext(ctx))

	ctx = WithPrincipal(ctx, Principal{ID: 5, Email: "ada@example.com", Roles: []types.Role{types.RoleAdmin}})
	p := PrincipalFromContext(ctx)
	require.NotNil(t, p)
	assert.Equal(t, int64(5), p.ID)
	assert.True(t, p.IsAdmin())
}

func TestPrincipalFromUserCopiesRoles(t *testing.T) {
	user := types.User{ID: 3, Email: "ada@example.com", Name: "Ada", Roles: []types.Role{types.RoleUser}}
	p := PrincipalFromUser(user)
	user.Roles[0] = types.RoleAdmin

	assert.Equal(t, []types.Role{types.RoleUser}, p.Roles)
	assert.Equal(t, "Ada", p.Name)
}
