package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdeck/workbench/pkg/types"
)

func TestCreateProject(t *testing.T) {
	b := setupBackend(t)

	t.Run("requires a name", func(t *testing.T) {
		_, err := b.CreateProject("", alice)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("requires an owner", func(t *testing.T) {
		_, err := b.CreateProject("Runway", "")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("enrolls the creator as owner", func(t *testing.T) {
		projectID, err := b.CreateProject("Runway", alice)
		require.NoError(t, err)

		// Owners can add members; that proves the owner role landed.
		assert.NoError(t, b.AddMember(projectID, alice, bob, types.RoleManager))
	})
}

func TestAddMember(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	tests := []struct {
		name    string
		caller  string
		member  string
		role    string
		wantErr error
	}{
		{name: "manager can add members", caller: bob, member: dave, role: types.RoleMember},
		{name: "plain member cannot add", caller: carol, member: "erin", role: types.RoleMember, wantErr: types.ErrForbidden},
		{name: "outsider cannot add", caller: "erin", member: "frank", role: types.RoleMember, wantErr: types.ErrForbidden},
		{name: "unknown role rejected", caller: alice, member: "erin", role: "admin", wantErr: types.ErrInvalidArgument},
		{name: "duplicate membership rejected", caller: alice, member: bob, role: types.RoleMember, wantErr: types.ErrConflict},
		{name: "unknown project", caller: alice, member: "erin", role: types.RoleMember, wantErr: types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := projectID
			if tt.wantErr == types.ErrNotFound {
				project = "missing"
			}
			err := b.AddMember(project, tt.caller, tt.member, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateMilestone(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	t.Run("requires a title", func(t *testing.T) {
		_, err := b.CreateMilestone(projectID, alice, "", nil)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("members can create milestones", func(t *testing.T) {
		due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		id, err := b.CreateMilestone(projectID, carol, "Beta launch", &due)
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		// A task can reference it.
		_, err = b.CreateTask(projectID, carol, types.TaskFields{
			Title:       strPtr("Ship beta"),
			MilestoneID: &id,
		})
		assert.NoError(t, err)
	})

	t.Run("outsiders are rejected", func(t *testing.T) {
		_, err := b.CreateMilestone(projectID, dave, "Sneaky", nil)
		assert.ErrorIs(t, err, types.ErrForbidden)
	})
}
