package types

import "time"

// Project member roles. Owners and managers can mutate board structure and
// delete other members' tasks; plain members can create and edit tasks.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleMember  = "member"
)

// validRoles is the set of recognized member role values.
var validRoles = map[string]bool{
	RoleOwner:   true,
	RoleManager: true,
	RoleMember:  true,
}

// ValidRole reports whether role is a recognized member role.
func ValidRole(role string) bool { return validRoles[role] }

// Project is the ownership boundary for every other entity. Deleting a
// project cascades to its tasks, boards, and everything below them.
type Project struct {
	ProjectID string    // UUID v7, generated on creation.
	Name      string    // Human-readable name (required, non-empty).
	OwnerID   string    // Member ID of the creating owner.
	CreatedAt time.Time // Timestamp of creation.
}

// Member associates a user with a project under a role.
type Member struct {
	ProjectID string
	MemberID  string
	Role      string // One of the Role constants.
	AddedAt   time.Time
}

// Milestone is an optional grouping target for tasks within a project.
type Milestone struct {
	MilestoneID string
	ProjectID   string
	Title       string
	DueDate     *time.Time
	CreatedAt   time.Time
}
