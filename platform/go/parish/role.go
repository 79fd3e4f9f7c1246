package parish

// Role is the closed set of roles a user may hold within a parish. A user
// holds at most one active role per parish.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleParishAdmin Role = "parish_admin"
	RoleClergy      Role = "clergy"
	RoleStaff       Role = "staff"
	RoleCoordinator Role = "coordinator"
	RolePosOperator Role = "pos_operator"
	RoleMember      Role = "member"

	// RoleNone is the zero value: the caller holds no role in the parish.
	RoleNone Role = ""
)

// roleRank orders roles for HasMinRole comparisons. Clergy sits between
// parish admin and staff so it can gate intention moderation without holding
// admin capabilities.
var roleRank = map[Role]int{
	RoleSuperAdmin:  100,
	RoleParishAdmin: 80,
	RoleClergy:      70,
	RoleStaff:       60,
	RoleCoordinator: 40,
	RolePosOperator: 20,
	RoleMember:      10,
}

// RoleFromString maps a stored role value onto the enum. Unknown values map
// to RoleNone so a corrupted row never grants access.
func RoleFromString(s string) Role {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return RoleNone
	}
	return r
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// HasMinRole reports whether r ranks at or above the threshold role.
// RoleNone never satisfies any threshold.
func HasMinRole(r, threshold Role) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	tr, ok := roleRank[threshold]
	if !ok {
		return false
	}
	return rr >= tr
}

// CanManage reports whether r may manage parish content (staff or above).
func CanManage(r Role) bool {
	return HasMinRole(r, RoleStaff)
}

// CanAdmin reports whether r may administer the parish itself.
func CanAdmin(r Role) bool {
	return HasMinRole(r, RoleParishAdmin)
}

// CanOperatePos reports whether r may operate a point of sale. A dedicated
// operator qualifies even though it ranks below staff.
func CanOperatePos(r Role) bool {
	return r == RolePosOperator || HasMinRole(r, RoleStaff)
}

// CanModerateIntentions reports whether r may approve or reject submissions.
func CanModerateIntentions(r Role) bool {
	return HasMinRole(r, RoleClergy)
}

// Capabilities is the set of boolean flags derived from a resolved role.
// Every flag is a pure function of the role value.
type Capabilities struct {
	IsMember      bool `json:"isMember"`
	IsAdmin       bool `json:"isAdmin"`
	IsClergy      bool `json:"isClergy"`
	IsStaff       bool `json:"isStaff"`
	IsCoordinator bool `json:"isCoordinator"`
	IsPosOperator bool `json:"isPosOperator"`
	IsMemberRole  bool `json:"isMemberRole"`
}

// DeriveCapabilities projects a role onto its capability flags. RoleNone
// yields the zero value: no membership, no capability.
func DeriveCapabilities(r Role) Capabilities {
	if !r.Valid() {
		return Capabilities{}
	}
	return Capabilities{
		IsMember:      true,
		IsAdmin:       r == RoleParishAdmin || r == RoleSuperAdmin,
		IsClergy:      r == RoleClergy,
		IsStaff:       r == RoleStaff,
		IsCoordinator: r == RoleCoordinator,
		IsPosOperator: r == RolePosOperator,
		IsMemberRole:  r == RoleMember,
	}
}
