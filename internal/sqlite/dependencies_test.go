package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdeck/workbench/pkg/types"
)

func TestAddDependency(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	t.Run("defaults to finish_to_start", func(t *testing.T) {
		a := createTask(t, b, projectID, "Design schema", types.StatusToDo)
		c := createTask(t, b, projectID, "Write migrations", types.StatusToDo)

		_, err := b.AddDependency(c, carol, a, "")
		require.NoError(t, err)

		deps, err := b.GetTaskDependencies(c, carol)
		require.NoError(t, err)
		require.Len(t, deps.Prerequisites, 1)
		assert.Equal(t, a, deps.Prerequisites[0].TaskID)
		assert.Equal(t, types.DepFinishToStart, deps.Prerequisites[0].Type)
	})

	t.Run("self-dependency rejected", func(t *testing.T) {
		a := createTask(t, b, projectID, "Narcissus", types.StatusToDo)
		_, err := b.AddDependency(a, carol, a, "")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("unknown dependency type rejected", func(t *testing.T) {
		a := createTask(t, b, projectID, "Typed A", types.StatusToDo)
		c := createTask(t, b, projectID, "Typed B", types.StatusToDo)
		_, err := b.AddDependency(c, carol, a, "eventually")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("duplicate edge rejected", func(t *testing.T) {
		a := createTask(t, b, projectID, "Dup A", types.StatusToDo)
		c := createTask(t, b, projectID, "Dup B", types.StatusToDo)
		_, err := b.AddDependency(c, carol, a, "")
		require.NoError(t, err)
		_, err = b.AddDependency(c, carol, a, types.DepStartToStart)
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("cross-project edge rejected", func(t *testing.T) {
		otherProject, err := b.CreateProject("Elsewhere", alice)
		require.NoError(t, err)
		foreignTitle := "Foreign"
		foreign, err := b.CreateTask(otherProject, alice, types.TaskFields{Title: &foreignTitle})
		require.NoError(t, err)
		local := createTask(t, b, projectID, "Local", types.StatusToDo)

		_, err = b.AddDependency(local, alice, foreign, "")
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("requires membership", func(t *testing.T) {
		a := createTask(t, b, projectID, "Locked A", types.StatusToDo)
		c := createTask(t, b, projectID, "Locked B", types.StatusToDo)
		_, err := b.AddDependency(c, dave, a, "")
		assert.ErrorIs(t, err, types.ErrForbidden)
	})
}

func TestDependencyCycles(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	t.Run("direct cycle rejected and first edge survives", func(t *testing.T) {
		a := createTask(t, b, projectID, "A", types.StatusToDo)
		c := createTask(t, b, projectID, "B", types.StatusToDo)

		_, err := b.AddDependency(a, carol, c, "")
		require.NoError(t, err)

		_, err = b.AddDependency(c, carol, a, "")
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.ErrorContains(t, err, "circular dependency")

		deps, err := b.GetTaskDependencies(a, carol)
		require.NoError(t, err)
		require.Len(t, deps.Prerequisites, 1)
		assert.Equal(t, c, deps.Prerequisites[0].TaskID)
	})

	t.Run("transitive cycle rejected", func(t *testing.T) {
		a := createTask(t, b, projectID, "chain a", types.StatusToDo)
		c := createTask(t, b, projectID, "chain b", types.StatusToDo)
		d := createTask(t, b, projectID, "chain c", types.StatusToDo)

		_, err := b.AddDependency(a, carol, c, "")
		require.NoError(t, err)
		_, err = b.AddDependency(c, carol, d, "")
		require.NoError(t, err)

		_, err = b.AddDependency(d, carol, a, "")
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		top := createTask(t, b, projectID, "diamond top", types.StatusToDo)
		left := createTask(t, b, projectID, "diamond left", types.StatusToDo)
		right := createTask(t, b, projectID, "diamond right", types.StatusToDo)
		bottom := createTask(t, b, projectID, "diamond bottom", types.StatusToDo)

		for _, pair := range [][2]string{{left, top}, {right, top}, {bottom, left}, {bottom, right}} {
			_, err := b.AddDependency(pair[0], carol, pair[1], "")
			require.NoError(t, err)
		}

		deps, err := b.GetTaskDependencies(bottom, carol)
		require.NoError(t, err)
		assert.Len(t, deps.Prerequisites, 2)
	})
}

func TestRemoveDependency(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	a := createTask(t, b, projectID, "Gatekeeper", types.StatusToDo)
	c := createTask(t, b, projectID, "Gated", types.StatusToDo)

	depID, err := b.AddDependency(c, carol, a, "")
	require.NoError(t, err)

	t.Run("requires membership", func(t *testing.T) {
		assert.ErrorIs(t, b.RemoveDependency(depID, dave), types.ErrForbidden)
	})

	t.Run("removing reopens the edge", func(t *testing.T) {
		require.NoError(t, b.RemoveDependency(depID, carol))

		deps, err := b.GetTaskDependencies(c, carol)
		require.NoError(t, err)
		assert.Empty(t, deps.Prerequisites)

		// The reverse edge is legal once the original is gone.
		_, err = b.AddDependency(a, carol, c, "")
		assert.NoError(t, err)
	})

	t.Run("unknown dependency", func(t *testing.T) {
		assert.ErrorIs(t, b.RemoveDependency("missing", carol), types.ErrNotFound)
	})
}

func TestGetTaskDependencies(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	a := createTask(t, b, projectID, "Incorporate", types.StatusDone)
	c := createTask(t, b, projectID, "Open bank account", types.StatusToDo)
	d := createTask(t, b, projectID, "Run payroll", types.StatusBacklog)

	_, err := b.AddDependency(c, carol, a, "")
	require.NoError(t, err)
	_, err = b.AddDependency(d, carol, c, "")
	require.NoError(t, err)

	deps, err := b.GetTaskDependencies(c, carol)
	require.NoError(t, err)

	require.Len(t, deps.Prerequisites, 1)
	assert.Equal(t, "Incorporate", deps.Prerequisites[0].Title)
	assert.Equal(t, types.StatusDone, deps.Prerequisites[0].Status)

	require.Len(t, deps.Dependents, 1)
	assert.Equal(t, d, deps.Dependents[0].TaskID)
	assert.Equal(t, "Run payroll", deps.Dependents[0].Title)

	t.Run("requires membership", func(t *testing.T) {
		_, err := b.GetTaskDependencies(c, dave)
		assert.ErrorIs(t, err, types.ErrForbidden)
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := b.GetTaskDependencies("missing", carol)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
