package gatekeeper

// Role is the closed set of authorization roles. Anything outside the set
// is treated as no role at all and denied everywhere.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// Operation names a guarded action for policy lookups.
type Operation string

const (
	OpContactRead  Operation = "contacts:read"
	OpContactWrite Operation = "contacts:write"
	OpAvatarUpdate Operation = "profile:avatar"
	OpUserManage   Operation = "users:manage"
)

// Policy maps operations to the roles allowed to perform them. A Policy is
// built once and never mutated afterward.
type Policy map[Operation][]Role

// DefaultPolicy grants every confirmed role the contact operations,
// reserves avatar updates for admins, and user management for admins and
// moderators.
func DefaultPolicy() Policy {
	return Policy{
		OpContactRead:  {RoleAdmin, RoleModerator, RoleUser},
		OpContactWrite: {RoleAdmin, RoleModerator, RoleUser},
		OpAvatarUpdate: {RoleAdmin},
		OpUserManage:   {RoleAdmin, RoleModerator},
	}
}

// Allows reports whether role may perform op. Unknown operations and
// invalid roles deny.
func (p Policy) Allows(op Operation, role Role) bool {
	if !role.Valid() {
		return false
	}
	for _, allowed := range p[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Authorize reports whether identity holds one of the allowed roles. Pure:
// no I/O, no clock, no mutation. An empty allowed set denies.
func Authorize(identity Identity, allowed ...Role) bool {
	if !identity.Role.Valid() {
		return false
	}
	for _, role := range allowed {
		if role == identity.Role {
			return true
		}
	}
	return false
}
