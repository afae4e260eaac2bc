// Project, membership, and milestone accessors. Every other operation in
// this package funnels its authorization through the helpers here.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/launchdeck/workbench/pkg/types"
)

// CreateProject creates a project and enrolls the owner as its first member.
func (b *Backend) CreateProject(name, ownerID string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("project name is required: %w", types.ErrInvalidArgument)
	}
	if ownerID == "" {
		return "", fmt.Errorf("owner is required: %w", types.ErrInvalidArgument)
	}

	id := generateID()
	now := formatTime(time.Now())

	err := b.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"INSERT INTO projects (project_id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
			id, name, ownerID, now,
		); err != nil {
			return fmt.Errorf("inserting project: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO project_members (project_id, member_id, role, added_at) VALUES (?, ?, ?, ?)",
			id, ownerID, types.RoleOwner, now,
		); err != nil {
			return fmt.Errorf("inserting owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddMember enrolls memberID in the project under the given role. The caller
// must hold the owner or manager role.
func (b *Backend) AddMember(projectID, callerID, memberID, role string) error {
	if memberID == "" {
		return fmt.Errorf("member is required: %w", types.ErrInvalidArgument)
	}
	if !types.ValidRole(role) {
		return fmt.Errorf("unknown role %q: %w", role, types.ErrInvalidArgument)
	}

	return b.withTx(func(tx *sql.Tx) error {
		if err := requireRole(tx, projectID, callerID, types.RoleOwner, types.RoleManager); err != nil {
			return err
		}
		existing, err := memberRole(tx, projectID, memberID)
		if err != nil {
			return err
		}
		if existing != "" {
			return fmt.Errorf("member already enrolled: %w", types.ErrConflict)
		}
		if _, err := tx.Exec(
			"INSERT INTO project_members (project_id, member_id, role, added_at) VALUES (?, ?, ?, ?)",
			projectID, memberID, role, formatTime(time.Now()),
		); err != nil {
			return fmt.Errorf("inserting membership: %w", err)
		}
		return nil
	})
}

// CreateMilestone creates a milestone in the project.
func (b *Backend) CreateMilestone(projectID, callerID, title string, dueDate *time.Time) (string, error) {
	if title == "" {
		return "", fmt.Errorf("milestone title is required: %w", types.ErrInvalidArgument)
	}

	id := generateID()
	err := b.withTx(func(tx *sql.Tx) error {
		if err := requireMember(tx, projectID, callerID); err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO milestones (milestone_id, project_id, title, due_date, created_at) VALUES (?, ?, ?, ?, ?)",
			id, projectID, title, formatNullableTime(dueDate), formatTime(time.Now()),
		); err != nil {
			return fmt.Errorf("inserting milestone: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// memberRole returns the caller's role in the project, or "" when the caller
// is not a member. A missing project is reported as ErrNotFound.
func memberRole(q dbtx, projectID, memberID string) (string, error) {
	var exists int
	err := q.QueryRow("SELECT 1 FROM projects WHERE project_id = ?", projectID).Scan(&exists)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("project %s: %w", projectID, types.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("checking project existence: %w", err)
	}

	var role string
	err = q.QueryRow(
		"SELECT role FROM project_members WHERE project_id = ? AND member_id = ?",
		projectID, memberID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying membership: %w", err)
	}
	return role, nil
}

// requireMember rejects callers that are not members of the project.
func requireMember(q dbtx, projectID, callerID string) error {
	role, err := memberRole(q, projectID, callerID)
	if err != nil {
		return err
	}
	if role == "" {
		return fmt.Errorf("caller is not a project member: %w", types.ErrForbidden)
	}
	return nil
}

// requireRole rejects callers whose project role is not one of the given
// roles. Non-members are rejected the same way.
func requireRole(q dbtx, projectID, callerID string, roles ...string) error {
	role, err := memberRole(q, projectID, callerID)
	if err != nil {
		return err
	}
	for _, r := range roles {
		if role == r {
			return nil
		}
	}
	return fmt.Errorf("caller lacks the required role: %w", types.ErrForbidden)
}

// milestoneInProject verifies that the milestone exists and belongs to the
// project.
func milestoneInProject(q dbtx, projectID, milestoneID string) error {
	var exists int
	err := q.QueryRow(
		"SELECT 1 FROM milestones WHERE milestone_id = ? AND project_id = ?",
		milestoneID, projectID,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("milestone %s: %w", milestoneID, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking milestone: %w", err)
	}
	return nil
}
