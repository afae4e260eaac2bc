// Placement synchronizer: keeps task status and kanban placement in
// agreement through column semantic roles, and maintains the position
// density invariant (1..N per column) across every structural change.
//
// Step order inside MoveTask is significant: remove, then shift, then
// insert, then renumber. Reordering the steps breaks density.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/launchdeck/workbench/pkg/types"
)

// MoveTask places a task at (column, position) and re-derives the task's
// status from the column's semantic role. Entering a column that is at its
// WIP limit is rejected; moves within the same column never trip the limit.
func (b *Backend) MoveTask(taskID, callerID, columnID string, position int) error {
	return b.withTx(func(tx *sql.Tx) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, task.ProjectID, callerID); err != nil {
			return err
		}

		col, err := getColumn(tx, columnID)
		if err != nil {
			return err
		}
		var boardProject string
		if err := tx.QueryRow(
			"SELECT project_id FROM boards WHERE board_id = ?", col.BoardID,
		).Scan(&boardProject); err != nil {
			return fmt.Errorf("querying board: %w", err)
		}
		if boardProject != task.ProjectID {
			return fmt.Errorf("column %s: %w", columnID, types.ErrNotFound)
		}

		current, err := placementForTask(tx, taskID)
		if err != nil {
			return err
		}

		entering := current == nil || current.ColumnID != col.ColumnID
		if entering && col.WIPLimit != nil {
			count, err := countPlacements(tx, col.ColumnID)
			if err != nil {
				return err
			}
			if count >= *col.WIPLimit {
				return fmt.Errorf("WIP limit of %d reached: %w", *col.WIPLimit, types.ErrConflict)
			}
		}

		if current != nil {
			// Removing the old row shifts later items up, so a move to a
			// later slot in the same column lands one short.
			if current.ColumnID == col.ColumnID && current.Position < position {
				position--
			}
			if _, err := tx.Exec(
				"DELETE FROM task_placements WHERE placement_id = ?", current.PlacementID,
			); err != nil {
				return fmt.Errorf("removing placement: %w", err)
			}
			// Compact the source column before shifting; the position
			// adjustment above assumes later items moved up.
			if err := renumberPlacements(tx, current.ColumnID); err != nil {
				return err
			}
		}

		count, err := countPlacements(tx, col.ColumnID)
		if err != nil {
			return err
		}
		if position < 1 {
			position = 1
		}
		if position > count+1 {
			position = count + 1
		}

		if _, err := tx.Exec(
			"UPDATE task_placements SET position = position + 1 WHERE column_id = ? AND position >= ?",
			col.ColumnID, position,
		); err != nil {
			return fmt.Errorf("shifting placements: %w", err)
		}
		if err := insertPlacement(tx, taskID, col, position); err != nil {
			return err
		}

		if col.SemanticRole != types.RoleNone && col.SemanticRole != task.Status {
			if _, err := tx.Exec(
				"UPDATE tasks SET status = ?, updated_at = ? WHERE task_id = ?",
				col.SemanticRole, formatTime(time.Now()), taskID,
			); err != nil {
				return fmt.Errorf("updating task status: %w", err)
			}
		}

		return renumberPlacements(tx, col.ColumnID)
	})
}

// placeNewTask inserts a placement for a freshly created task: the project's
// default board, the column whose role matches the task's status, falling
// back to the board's first column. A project without boards, or a board
// without columns, leaves the task unplaced.
func (b *Backend) placeNewTask(tx *sql.Tx, task *types.Task) error {
	var boardID string
	err := tx.QueryRow(
		"SELECT board_id FROM boards WHERE project_id = ? AND is_default = 1", task.ProjectID,
	).Scan(&boardID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("querying default board: %w", err)
	}

	col, err := matchColumn(tx, boardID, task.Status)
	if err != nil {
		return err
	}
	if col == nil {
		if col, err = firstColumn(tx, boardID); err != nil {
			return err
		}
	}
	if col == nil {
		return nil
	}
	return appendPlacement(tx, task.TaskID, col)
}

// syncTaskStatus realigns a task's placement after a direct status change.
// When the board holding the task has no column for the new status, the
// placement stays where it is; status and board may legitimately diverge.
func (b *Backend) syncTaskStatus(tx *sql.Tx, task *types.Task) error {
	current, err := placementForTask(tx, task.TaskID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	curCol, err := getColumn(tx, current.ColumnID)
	if err != nil {
		return err
	}
	if curCol.SemanticRole == task.Status {
		return nil
	}

	target, err := matchColumn(tx, current.BoardID, task.Status)
	if err != nil {
		return err
	}
	if target == nil || target.ColumnID == current.ColumnID {
		return nil
	}

	if _, err := tx.Exec(
		"DELETE FROM task_placements WHERE placement_id = ?", current.PlacementID,
	); err != nil {
		return fmt.Errorf("removing placement: %w", err)
	}
	if err := renumberPlacements(tx, current.ColumnID); err != nil {
		return err
	}
	return appendPlacement(tx, task.TaskID, target)
}

// removePlacement deletes a task's placement, if any, and restores density
// in the column it left.
func (b *Backend) removePlacement(tx *sql.Tx, taskID string) error {
	current, err := placementForTask(tx, taskID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	if _, err := tx.Exec(
		"DELETE FROM task_placements WHERE placement_id = ?", current.PlacementID,
	); err != nil {
		return fmt.Errorf("removing placement: %w", err)
	}
	return renumberPlacements(tx, current.ColumnID)
}

// appendPlacement inserts a placement at the end of the column.
func appendPlacement(tx *sql.Tx, taskID string, col *types.Column) error {
	count, err := countPlacements(tx, col.ColumnID)
	if err != nil {
		return err
	}
	return insertPlacement(tx, taskID, col, count+1)
}

func insertPlacement(tx *sql.Tx, taskID string, col *types.Column, position int) error {
	_, err := tx.Exec(
		`INSERT INTO task_placements (placement_id, task_id, column_id, board_id, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		generateID(), taskID, col.ColumnID, col.BoardID, position, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("inserting placement: %w", err)
	}
	return nil
}

// renumberPlacements rewrites the column's placement positions to a dense
// 1..N sequence, preserving the current order.
func renumberPlacements(tx *sql.Tx, columnID string) error {
	rows, err := tx.Query(
		"SELECT placement_id FROM task_placements WHERE column_id = ? ORDER BY position ASC, created_at ASC",
		columnID,
	)
	if err != nil {
		return fmt.Errorf("querying placements for renumber: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scanning placement: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating placements: %w", err)
	}

	for i, id := range ids {
		if _, err := tx.Exec(
			"UPDATE task_placements SET position = ? WHERE placement_id = ?", i+1, id,
		); err != nil {
			return fmt.Errorf("renumbering placement: %w", err)
		}
	}
	return nil
}

// placementForTask returns the task's placement, or nil when unplaced.
func placementForTask(q dbtx, taskID string) (*types.Placement, error) {
	row := q.QueryRow(
		"SELECT placement_id, task_id, column_id, board_id, position, created_at FROM task_placements WHERE task_id = ?",
		taskID,
	)
	p, err := hydratePlacement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying placement: %w", err)
	}
	return p, nil
}

func hydratePlacement(row rowScanner) (*types.Placement, error) {
	var p types.Placement
	var createdAt string
	if err := row.Scan(&p.PlacementID, &p.TaskID, &p.ColumnID, &p.BoardID, &p.Position, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// countPlacements returns the number of placements in the column.
func countPlacements(q dbtx, columnID string) (int, error) {
	var count int
	if err := q.QueryRow(
		"SELECT COUNT(*) FROM task_placements WHERE column_id = ?", columnID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting placements: %w", err)
	}
	return count, nil
}

// matchColumn returns the column on the board whose semantic role equals
// role, or nil when the board has none. Ties go to the leftmost column.
func matchColumn(q dbtx, boardID, role string) (*types.Column, error) {
	if role == types.RoleNone {
		return nil, nil
	}
	row := q.QueryRow(
		"SELECT "+columnColumns+" FROM kanban_columns WHERE board_id = ? AND semantic_role = ? ORDER BY position ASC LIMIT 1",
		boardID, role,
	)
	col, err := hydrateColumn(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("matching column: %w", err)
	}
	return col, nil
}

// firstColumn returns the board's column at the lowest position, or nil when
// the board has no columns.
func firstColumn(q dbtx, boardID string) (*types.Column, error) {
	row := q.QueryRow(
		"SELECT "+columnColumns+" FROM kanban_columns WHERE board_id = ? ORDER BY position ASC LIMIT 1",
		boardID,
	)
	col, err := hydrateColumn(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying first column: %w", err)
	}
	return col, nil
}
