package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdeck/workbench/pkg/types"
)

func TestCreateBoard(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	t.Run("requires owner or manager", func(t *testing.T) {
		_, err := b.CreateBoard(projectID, carol, types.BoardFields{Title: "Denied"})
		assert.ErrorIs(t, err, types.ErrForbidden)
	})

	t.Run("requires a title", func(t *testing.T) {
		_, err := b.CreateBoard(projectID, alice, types.BoardFields{})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})

	t.Run("seeds five columns with roles", func(t *testing.T) {
		boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Delivery"})
		require.NoError(t, err)

		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		require.Len(t, view.Columns, 5)

		wantTitles := []string{"Backlog", "To Do", "In Progress", "In Review", "Done"}
		wantRoles := []string{types.StatusBacklog, types.StatusToDo, types.StatusInProgress,
			types.StatusInReview, types.StatusDone}
		for i, cv := range view.Columns {
			assert.Equal(t, wantTitles[i], cv.Column.Title)
			assert.Equal(t, wantRoles[i], cv.Column.SemanticRole)
			assert.Equal(t, i+1, cv.Column.Position)
			assert.Nil(t, cv.Column.WIPLimit)
		}

		// The first board of a project becomes the default.
		assert.True(t, view.Board.IsDefault)
	})

	t.Run("new default demotes the previous one", func(t *testing.T) {
		firstID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "First"})
		require.NoError(t, err)
		secondID, err := b.CreateBoard(projectID, bob, types.BoardFields{Title: "Second", IsDefault: true})
		require.NoError(t, err)

		first, err := b.GetBoard(firstID, alice)
		require.NoError(t, err)
		second, err := b.GetBoard(secondID, alice)
		require.NoError(t, err)
		assert.False(t, first.Board.IsDefault)
		assert.True(t, second.Board.IsDefault)
	})
}

func TestUpdateBoard(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	defaultID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Main"})
	require.NoError(t, err)
	otherID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Side"})
	require.NoError(t, err)

	t.Run("promoting flips the default", func(t *testing.T) {
		require.NoError(t, b.UpdateBoard(otherID, bob, types.BoardUpdate{IsDefault: boolPtr(true)}))

		main, err := b.GetBoard(defaultID, alice)
		require.NoError(t, err)
		side, err := b.GetBoard(otherID, alice)
		require.NoError(t, err)
		assert.False(t, main.Board.IsDefault)
		assert.True(t, side.Board.IsDefault)
	})

	t.Run("demoting the default directly is rejected", func(t *testing.T) {
		err := b.UpdateBoard(otherID, bob, types.BoardUpdate{IsDefault: boolPtr(false)})
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("members cannot update boards", func(t *testing.T) {
		err := b.UpdateBoard(otherID, carol, types.BoardUpdate{Title: strPtr("Renamed")})
		assert.ErrorIs(t, err, types.ErrForbidden)
	})
}

func TestDeleteBoard(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)

	t.Run("only board is protected", func(t *testing.T) {
		boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Solo"})
		require.NoError(t, err)

		err = b.DeleteBoard(boardID, alice)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.ErrorContains(t, err, "only kanban board")
	})

	t.Run("default board is protected", func(t *testing.T) {
		_, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Extra"})
		require.NoError(t, err)

		view, err := b.GetBoard(mustDefaultBoard(t, b, projectID), alice)
		require.NoError(t, err)
		err = b.DeleteBoard(view.Board.BoardID, alice)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.ErrorContains(t, err, "default kanban board")
	})

	t.Run("placements migrate to the default board by status", func(t *testing.T) {
		b := setupBackend(t)
		projectID := seedProject(t, b)

		defaultID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Main"})
		require.NoError(t, err)
		doomedID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Doomed"})
		require.NoError(t, err)

		// Tasks land on the default board; move them onto the doomed one.
		taskA := createTask(t, b, projectID, "Alpha", types.StatusToDo)
		taskB := createTask(t, b, projectID, "Beta", types.StatusInProgress)
		doomedTodo := columnByTitle(t, b, doomedID, "To Do")
		doomedProg := columnByTitle(t, b, doomedID, "In Progress")
		require.NoError(t, b.MoveTask(taskA, carol, doomedTodo.Column.ColumnID, 1))
		require.NoError(t, b.MoveTask(taskB, carol, doomedProg.Column.ColumnID, 1))

		require.NoError(t, b.DeleteBoard(doomedID, alice))

		_, err = b.GetBoard(doomedID, alice)
		assert.ErrorIs(t, err, types.ErrNotFound)

		todo := columnByTitle(t, b, defaultID, "To Do")
		require.Len(t, todo.Cards, 1)
		assert.Equal(t, taskA, todo.Cards[0].Placement.TaskID)

		prog := columnByTitle(t, b, defaultID, "In Progress")
		require.Len(t, prog.Cards, 1)
		assert.Equal(t, taskB, prog.Cards[0].Placement.TaskID)

		assertDense(t, b, defaultID)
	})

	t.Run("unmatched status falls back to the target's first column", func(t *testing.T) {
		b := setupBackend(t)
		projectID := seedProject(t, b)

		defaultID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Main"})
		require.NoError(t, err)
		doomedID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Doomed"})
		require.NoError(t, err)

		// The default board loses its In Review column, so a migrated
		// in_review task has no role match there.
		review := columnByTitle(t, b, defaultID, "In Review")
		require.NoError(t, b.DeleteColumn(review.Column.ColumnID, carol))

		taskID := createTask(t, b, projectID, "Homeless on return", types.StatusInReview)
		doomedReview := columnByTitle(t, b, doomedID, "In Review")
		require.NoError(t, b.MoveTask(taskID, carol, doomedReview.Column.ColumnID, 1))

		require.NoError(t, b.DeleteBoard(doomedID, alice))

		backlog := columnByTitle(t, b, defaultID, "Backlog")
		require.Len(t, backlog.Cards, 1)
		assert.Equal(t, taskID, backlog.Cards[0].Placement.TaskID)
		assert.Equal(t, 1, backlog.Cards[0].Placement.Position)

		task, err := b.GetTask(taskID, carol)
		require.NoError(t, err)
		assert.Equal(t, types.StatusInReview, task.Status)
		assertDense(t, b, defaultID)
	})

	t.Run("requires owner or manager", func(t *testing.T) {
		boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Another"})
		require.NoError(t, err)
		assert.ErrorIs(t, b.DeleteBoard(boardID, carol), types.ErrForbidden)
	})
}

func TestCreateColumn(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)
	boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Delivery"})
	require.NoError(t, err)

	t.Run("appends at the end by default", func(t *testing.T) {
		id, err := b.CreateColumn(boardID, carol, types.ColumnFields{Title: "Blocked"})
		require.NoError(t, err)

		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		last := view.Columns[len(view.Columns)-1]
		assert.Equal(t, id, last.Column.ColumnID)
		assert.Equal(t, 6, last.Column.Position)
	})

	t.Run("explicit position shifts later columns", func(t *testing.T) {
		_, err := b.CreateColumn(boardID, carol, types.ColumnFields{
			Title:    "Triage",
			Position: intPtr(2),
		})
		require.NoError(t, err)

		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		assert.Equal(t, "Triage", view.Columns[1].Column.Title)
		assertDense(t, b, boardID)
	})

	t.Run("role derives from the title", func(t *testing.T) {
		id, err := b.CreateColumn(boardID, carol, types.ColumnFields{Title: "Code Review"})
		require.NoError(t, err)

		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		for _, cv := range view.Columns {
			if cv.Column.ColumnID == id {
				assert.Equal(t, types.StatusInReview, cv.Column.SemanticRole)
			}
		}
	})

	t.Run("explicit role wins over the title", func(t *testing.T) {
		id, err := b.CreateColumn(boardID, carol, types.ColumnFields{
			Title:        "Done-ish",
			SemanticRole: strPtr(types.RoleNone),
		})
		require.NoError(t, err)

		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		for _, cv := range view.Columns {
			if cv.Column.ColumnID == id {
				assert.Equal(t, types.RoleNone, cv.Column.SemanticRole)
			}
		}
	})

	t.Run("validation", func(t *testing.T) {
		_, err := b.CreateColumn(boardID, carol, types.ColumnFields{})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		_, err = b.CreateColumn(boardID, carol, types.ColumnFields{Title: "Capped", WIPLimit: intPtr(0)})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		_, err = b.CreateColumn(boardID, carol, types.ColumnFields{Title: "Odd", SemanticRole: strPtr("paused")})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})
}

func TestUpdateColumn(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)
	boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Delivery"})
	require.NoError(t, err)
	col := columnByTitle(t, b, boardID, "In Progress")

	t.Run("renaming keeps the role", func(t *testing.T) {
		require.NoError(t, b.UpdateColumn(col.Column.ColumnID, carol, types.ColumnUpdate{
			Title: strPtr("Doing"),
		}))
		updated := columnByTitle(t, b, boardID, "Doing")
		assert.Equal(t, types.StatusInProgress, updated.Column.SemanticRole)
	})

	t.Run("wip limit set and cleared", func(t *testing.T) {
		require.NoError(t, b.UpdateColumn(col.Column.ColumnID, carol, types.ColumnUpdate{
			WIPLimit: intPtr(3),
		}))
		updated := columnByTitle(t, b, boardID, "Doing")
		require.NotNil(t, updated.Column.WIPLimit)
		assert.Equal(t, 3, *updated.Column.WIPLimit)

		require.NoError(t, b.UpdateColumn(col.Column.ColumnID, carol, types.ColumnUpdate{
			ClearWIPLimit: true,
		}))
		updated = columnByTitle(t, b, boardID, "Doing")
		assert.Nil(t, updated.Column.WIPLimit)
	})

	t.Run("role is editable", func(t *testing.T) {
		require.NoError(t, b.UpdateColumn(col.Column.ColumnID, carol, types.ColumnUpdate{
			SemanticRole: strPtr(types.StatusInReview),
		}))
		updated := columnByTitle(t, b, boardID, "Doing")
		assert.Equal(t, types.StatusInReview, updated.Column.SemanticRole)
	})
}

func TestDeleteColumn(t *testing.T) {
	t.Run("migrates placements to the second column", func(t *testing.T) {
		// A board with two columns holding 3 and 2 placements; deleting the
		// first leaves the second with all 5, positions 1..5.
		b := setupBackend(t)
		projectID := seedProject(t, b)
		boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Two lanes"})
		require.NoError(t, err)

		// Trim the seeded board down to Backlog and To Do.
		for _, title := range []string{"In Progress", "In Review", "Done"} {
			cv := columnByTitle(t, b, boardID, title)
			require.NoError(t, b.DeleteColumn(cv.Column.ColumnID, carol))
		}

		for i, status := range []string{types.StatusBacklog, types.StatusBacklog, types.StatusBacklog,
			types.StatusToDo, types.StatusToDo} {
			createTask(t, b, projectID, string(rune('a'+i)), status)
		}
		backlog := columnByTitle(t, b, boardID, "Backlog")
		require.Len(t, backlog.Cards, 3)

		require.NoError(t, b.DeleteColumn(backlog.Column.ColumnID, carol))

		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		require.Len(t, view.Columns, 1)
		require.Len(t, view.Columns[0].Cards, 5)
		for i, card := range view.Columns[0].Cards {
			assert.Equal(t, i+1, card.Placement.Position)
		}
	})

	t.Run("only column is protected", func(t *testing.T) {
		b := setupBackend(t)
		projectID := seedProject(t, b)
		boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Shrinking"})
		require.NoError(t, err)

		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		for _, cv := range view.Columns[1:] {
			require.NoError(t, b.DeleteColumn(cv.Column.ColumnID, carol))
		}

		err = b.DeleteColumn(view.Columns[0].Column.ColumnID, carol)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.ErrorContains(t, err, "only column")
	})

	t.Run("remaining columns are renumbered", func(t *testing.T) {
		b := setupBackend(t)
		projectID := seedProject(t, b)
		boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Delivery"})
		require.NoError(t, err)

		mid := columnByTitle(t, b, boardID, "In Progress")
		require.NoError(t, b.DeleteColumn(mid.Column.ColumnID, carol))

		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		require.Len(t, view.Columns, 4)
		assertDense(t, b, boardID)
	})
}

func TestReorderColumns(t *testing.T) {
	b := setupBackend(t)
	projectID := seedProject(t, b)
	boardID, err := b.CreateBoard(projectID, alice, types.BoardFields{Title: "Delivery"})
	require.NoError(t, err)

	currentOrder := func() []string {
		view, err := b.GetBoard(boardID, carol)
		require.NoError(t, err)
		ids := make([]string, len(view.Columns))
		for i, cv := range view.Columns {
			ids[i] = cv.Column.ColumnID
		}
		return ids
	}

	t.Run("assigns positions in the supplied order", func(t *testing.T) {
		ids := currentOrder()
		reversed := make([]string, len(ids))
		for i, id := range ids {
			reversed[len(ids)-1-i] = id
		}

		require.NoError(t, b.ReorderColumns(boardID, carol, reversed))
		assert.Equal(t, reversed, currentOrder())
		assertDense(t, b, boardID)
	})

	t.Run("missing column rejected without changes", func(t *testing.T) {
		before := currentOrder()
		err := b.ReorderColumns(boardID, carol, before[:len(before)-1])
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		assert.ErrorContains(t, err, "Invalid column order")
		assert.Equal(t, before, currentOrder())
	})

	t.Run("duplicate column rejected", func(t *testing.T) {
		before := currentOrder()
		dup := append([]string{before[0]}, before[:len(before)-1]...)
		err := b.ReorderColumns(boardID, carol, dup)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		assert.Equal(t, before, currentOrder())
	})

	t.Run("foreign column rejected", func(t *testing.T) {
		before := currentOrder()
		foreign := append([]string{"not-a-column"}, before[:len(before)-1]...)
		err := b.ReorderColumns(boardID, carol, foreign)
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		assert.Equal(t, before, currentOrder())
	})
}

// mustDefaultBoard finds the project's default board through the placement
// path: it creates a probe task and reads its placement's board.
func mustDefaultBoard(t *testing.T, b *Backend, projectID string) string {
	t.Helper()
	id := createTask(t, b, projectID, "probe", types.StatusBacklog)
	db, err := b.reader()
	require.NoError(t, err)
	p, err := placementForTask(db, id)
	require.NoError(t, err)
	require.NotNil(t, p, "probe task should be placed on the default board")
	require.NoError(t, b.DeleteTask(id, carol))
	return p.BoardID
}
