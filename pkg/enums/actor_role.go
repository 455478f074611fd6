package enums

import "fmt"

// ActorRole identifies who is driving a saved-cart operation.
type ActorRole string

const (
	// RoleMember is a regular buying-organization member.
	RoleMember ActorRole = "member"
	// RoleApprover reviews discount requests.
	RoleApprover ActorRole = "approver"
)

var validActorRoles = []ActorRole{
	RoleMember,
	RoleApprover,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
