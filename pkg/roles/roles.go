// Package roles defines the membership roles that mark an account as part of
// the member directory. Search results are restricted to accounts carrying
// at least one registered role name.
package roles

import (
	"github.com/castlegateit/memberdir/pkg/hooks"
)

// Role describes one membership role.
type Role struct {
	// Key identifies the role within the registry.
	Key string `json:"key"`

	// Name is the role marker stored against an account and matched by the
	// search query's role predicate.
	Name string `json:"name"`

	// Label is the human-readable role name.
	Label string `json:"label"`

	// Capabilities grants coarse permissions to role holders.
	Capabilities []string `json:"capabilities,omitempty"`
}

// CapEditMembers lets a role holder edit any member's profile.
const CapEditMembers = "edit_members"

// Hook is the extension point applied to the role set on construction.
type Hook = hooks.Point[[]Role]

// Registry is the set of registered membership roles. Like the field schema
// it is rebuilt per use from static configuration and carries no state.
type Registry struct {
	roles []Role
}

// defaultRoles returns the built-in role set: a single member role with no
// capabilities.
func defaultRoles() []Role {
	return []Role{
		{
			Key:   "network_member",
			Name:  "network_member",
			Label: "Network Member",
		},
	}
}

// NewRegistry builds a role registry, passing the default set through the
// hook. A hook may add, relabel, or remove roles entirely; an empty set
// disables the role restriction in search.
func NewRegistry(hook *Hook) *Registry {
	roles := defaultRoles()
	if hook != nil {
		roles = hook.Apply(roles)
	}
	return &Registry{roles: roles}
}

// Roles returns every registered role.
func (r *Registry) Roles() []Role {
	out := make([]Role, len(r.roles))
	copy(out, r.roles)
	return out
}

// Names returns the role names used by the search role predicate. Roles
// without a name are skipped.
func (r *Registry) Names() []string {
	var names []string
	for _, role := range r.roles {
		if role.Name == "" {
			continue
		}
		names = append(names, role.Name)
	}
	return names
}

// Default returns the role assigned to newly created members: the first
// registered role. ok is false when no roles are registered.
func (r *Registry) Default() (Role, bool) {
	if len(r.roles) == 0 {
		return Role{}, false
	}
	return r.roles[0], true
}

// Info returns one role by key.
func (r *Registry) Info(key string) (Role, bool) {
	for _, role := range r.roles {
		if role.Key == key {
			return role, true
		}
	}
	return Role{}, false
}

// IsMember reports whether any of the given role names belongs to a
// registered role.
func (r *Registry) IsMember(names []string) bool {
	for _, name := range names {
		for _, role := range r.roles {
			if role.Name != "" && role.Name == name {
				return true
			}
		}
	}
	return false
}

// CanEditMembers reports whether any of the given role names grants the
// edit_members capability.
func (r *Registry) CanEditMembers(names []string) bool {
	for _, name := range names {
		for _, role := range r.roles {
			if role.Name != name {
				continue
			}
			for _, cap := range role.Capabilities {
				if cap == CapEditMembers {
					return true
				}
			}
		}
	}
	return false
}
