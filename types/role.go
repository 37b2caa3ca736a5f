package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Role is an authorization tag attached to a user.
type Role string

// Supported roles.
const (
	// RoleUser is granted to every registered account.
	RoleUser Role = "USER"

	// RoleAdmin grants access to administrative operations such as
	// creating and deleting tasks or managing other users' roles.
	RoleAdmin Role = "ADMIN"
)

var knownRoles = []Role{RoleUser, RoleAdmin}

// KnownRoles returns every role the system understands.
func KnownRoles() []Role {
	out := make([]Role, len(knownRoles))
	copy(out, knownRoles)
	return out
}

// ParseRole converts a role name into a Role. Matching is case-insensitive
// and tolerates the "ROLE_" prefix used by some clients.
func ParseRole(raw string) (Role, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "ROLE_")
	for _, role := range knownRoles {
		if string(role) == name {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// ParseRoles converts role names into a de-duplicated role set,
// preserving first-seen order.
func ParseRoles(raw []string) ([]Role, error) {
	roles := make([]Role, 0, len(raw))
	seen := make(map[Role]struct{}, len(raw))
	for _, name := range raw {
		role, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles, nil
}

// RoleNames returns the string form of each role.
func RoleNames(roles []Role) []string {
	return lo.Map(roles, func(role Role, _ int) string {
		return string(role)
	})
}

func (r Role) String() string {
	return string(r)
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
