// Kanban structure manager: boards and their ordered columns. Structural
// deletions migrate placements before removing rows, and column positions on
// a board stay dense (1..M) after every operation.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/launchdeck/workbench/pkg/types"
)

// CreateBoard creates a board with the five seed columns. Requires the owner
// or manager role. The first board of a project always becomes the default;
// making a later board default demotes the previous one.
func (b *Backend) CreateBoard(projectID, callerID string, fields types.BoardFields) (string, error) {
	if fields.Title == "" {
		return "", fmt.Errorf("board title is required: %w", types.ErrInvalidArgument)
	}

	id := generateID()
	err := b.withTx(func(tx *sql.Tx) error {
		if err := requireRole(tx, projectID, callerID, types.RoleOwner, types.RoleManager); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(
			"SELECT COUNT(*) FROM boards WHERE project_id = ?", projectID,
		).Scan(&count); err != nil {
			return fmt.Errorf("counting boards: %w", err)
		}
		isDefault := fields.IsDefault || count == 0

		if isDefault && count > 0 {
			if _, err := tx.Exec(
				"UPDATE boards SET is_default = 0 WHERE project_id = ?", projectID,
			); err != nil {
				return fmt.Errorf("demoting default board: %w", err)
			}
		}

		now := formatTime(time.Now())
		if _, err := tx.Exec(
			`INSERT INTO boards (board_id, project_id, title, description, is_default, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, projectID, fields.Title, fields.Description, boolToInt(isDefault), now, now,
		); err != nil {
			return fmt.Errorf("inserting board: %w", err)
		}

		for i, seed := range types.SeedColumns {
			if _, err := tx.Exec(
				`INSERT INTO kanban_columns (column_id, board_id, title, description, position, wip_limit, semantic_role, created_at)
				 VALUES (?, ?, ?, '', ?, NULL, ?, ?)`,
				generateID(), id, seed.Title, i+1, seed.Role, now,
			); err != nil {
				return fmt.Errorf("seeding column %q: %w", seed.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateBoard merges the given fields into the board. Promoting a board to
// default demotes the project's previous default; demoting the current
// default directly is rejected, since a project with boards must keep
// exactly one.
func (b *Backend) UpdateBoard(boardID, callerID string, fields types.BoardUpdate) error {
	if fields.Title != nil && *fields.Title == "" {
		return fmt.Errorf("board title is required: %w", types.ErrInvalidArgument)
	}

	return b.withTx(func(tx *sql.Tx) error {
		board, err := getBoard(tx, boardID)
		if err != nil {
			return err
		}
		if err := requireRole(tx, board.ProjectID, callerID, types.RoleOwner, types.RoleManager); err != nil {
			return err
		}

		if fields.Title != nil {
			board.Title = *fields.Title
		}
		if fields.Description != nil {
			board.Description = *fields.Description
		}
		if fields.IsDefault != nil {
			if !*fields.IsDefault && board.IsDefault {
				return fmt.Errorf("a project must keep one default kanban board: %w", types.ErrConflict)
			}
			if *fields.IsDefault && !board.IsDefault {
				if _, err := tx.Exec(
					"UPDATE boards SET is_default = 0 WHERE project_id = ?", board.ProjectID,
				); err != nil {
					return fmt.Errorf("demoting default board: %w", err)
				}
				board.IsDefault = true
			}
		}

		if _, err := tx.Exec(
			"UPDATE boards SET title = ?, description = ?, is_default = ?, updated_at = ? WHERE board_id = ?",
			board.Title, board.Description, boolToInt(board.IsDefault), formatTime(time.Now()), boardID,
		); err != nil {
			return fmt.Errorf("updating board: %w", err)
		}
		return nil
	})
}

// DeleteBoard removes a board after migrating every placement on it to the
// project's default board (or any other board). Deleting the only board or
// the default board is rejected.
func (b *Backend) DeleteBoard(boardID, callerID string) error {
	return b.withTx(func(tx *sql.Tx) error {
		board, err := getBoard(tx, boardID)
		if err != nil {
			return err
		}
		if err := requireRole(tx, board.ProjectID, callerID, types.RoleOwner, types.RoleManager); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(
			"SELECT COUNT(*) FROM boards WHERE project_id = ?", board.ProjectID,
		).Scan(&count); err != nil {
			return fmt.Errorf("counting boards: %w", err)
		}
		if count == 1 {
			return fmt.Errorf("cannot delete the only kanban board: %w", types.ErrConflict)
		}
		if board.IsDefault {
			return fmt.Errorf("cannot delete the default kanban board: %w", types.ErrConflict)
		}

		target, err := migrationTarget(tx, board.ProjectID, boardID)
		if err != nil {
			return err
		}
		if err := b.migrateBoardPlacements(tx, boardID, target); err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM kanban_columns WHERE board_id = ?", boardID); err != nil {
			return fmt.Errorf("deleting columns: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM boards WHERE board_id = ?", boardID); err != nil {
			return fmt.Errorf("deleting board: %w", err)
		}
		return nil
	})
}

// GetBoard returns the board with its columns and cards, ordered by
// position, for display.
func (b *Backend) GetBoard(boardID, callerID string) (*types.BoardView, error) {
	db, err := b.reader()
	if err != nil {
		return nil, err
	}
	board, err := getBoard(db, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(db, board.ProjectID, callerID); err != nil {
		return nil, err
	}

	cols, err := boardColumns(db, boardID)
	if err != nil {
		return nil, err
	}

	view := &types.BoardView{Board: *board}
	for _, col := range cols {
		cv := types.ColumnView{Column: *col, Cards: []types.Card{}}

		rows, err := db.Query(
			`SELECT p.placement_id, p.task_id, p.column_id, p.board_id, p.position, p.created_at,
			        t.title, t.status
			 FROM task_placements p JOIN tasks t ON t.task_id = p.task_id
			 WHERE p.column_id = ? ORDER BY p.position ASC`,
			col.ColumnID,
		)
		if err != nil {
			return nil, fmt.Errorf("querying cards: %w", err)
		}
		for rows.Next() {
			var card types.Card
			var createdAt string
			if err := rows.Scan(&card.Placement.PlacementID, &card.Placement.TaskID,
				&card.Placement.ColumnID, &card.Placement.BoardID, &card.Placement.Position,
				&createdAt, &card.TaskTitle, &card.Status); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning card: %w", err)
			}
			if card.Placement.CreatedAt, err = parseTime(createdAt); err != nil {
				rows.Close()
				return nil, err
			}
			cv.Cards = append(cv.Cards, card)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating cards: %w", err)
		}
		view.Columns = append(view.Columns, cv)
	}
	return view, nil
}

// CreateColumn adds a column to the board. Without an explicit position the
// column is appended at the end; an explicit position shifts later columns
// right. The semantic role defaults to one derived from the title.
func (b *Backend) CreateColumn(boardID, callerID string, fields types.ColumnFields) (string, error) {
	if fields.Title == "" {
		return "", fmt.Errorf("column title is required: %w", types.ErrInvalidArgument)
	}
	role := types.RoleFromTitle(fields.Title)
	if fields.SemanticRole != nil {
		if !types.ValidSemanticRole(*fields.SemanticRole) {
			return "", fmt.Errorf("unknown semantic role %q: %w", *fields.SemanticRole, types.ErrInvalidArgument)
		}
		role = *fields.SemanticRole
	}
	if fields.WIPLimit != nil && *fields.WIPLimit < 1 {
		return "", fmt.Errorf("WIP limit must be positive: %w", types.ErrInvalidArgument)
	}

	id := generateID()
	err := b.withTx(func(tx *sql.Tx) error {
		board, err := getBoard(tx, boardID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, board.ProjectID, callerID); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(
			"SELECT COUNT(*) FROM kanban_columns WHERE board_id = ?", boardID,
		).Scan(&count); err != nil {
			return fmt.Errorf("counting columns: %w", err)
		}

		position := count + 1
		if fields.Position != nil {
			position = *fields.Position
			if position < 1 {
				position = 1
			}
			if position > count+1 {
				position = count + 1
			}
			if _, err := tx.Exec(
				"UPDATE kanban_columns SET position = position + 1 WHERE board_id = ? AND position >= ?",
				boardID, position,
			); err != nil {
				return fmt.Errorf("shifting columns: %w", err)
			}
		}

		var wip any
		if fields.WIPLimit != nil {
			wip = *fields.WIPLimit
		}
		if _, err := tx.Exec(
			`INSERT INTO kanban_columns (column_id, board_id, title, description, position, wip_limit, semantic_role, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, boardID, fields.Title, fields.Description, position, wip, role, formatTime(time.Now()),
		); err != nil {
			return fmt.Errorf("inserting column: %w", err)
		}
		return renumberColumns(tx, boardID)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateColumn merges the given fields into the column. Renaming a column
// does not touch its semantic role; the role changes only when set
// explicitly.
func (b *Backend) UpdateColumn(columnID, callerID string, fields types.ColumnUpdate) error {
	if fields.Title != nil && *fields.Title == "" {
		return fmt.Errorf("column title is required: %w", types.ErrInvalidArgument)
	}
	if fields.WIPLimit != nil && *fields.WIPLimit < 1 {
		return fmt.Errorf("WIP limit must be positive: %w", types.ErrInvalidArgument)
	}
	if fields.SemanticRole != nil && !types.ValidSemanticRole(*fields.SemanticRole) {
		return fmt.Errorf("unknown semantic role %q: %w", *fields.SemanticRole, types.ErrInvalidArgument)
	}

	return b.withTx(func(tx *sql.Tx) error {
		col, err := getColumn(tx, columnID)
		if err != nil {
			return err
		}
		board, err := getBoard(tx, col.BoardID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, board.ProjectID, callerID); err != nil {
			return err
		}

		if fields.Title != nil {
			col.Title = *fields.Title
		}
		if fields.Description != nil {
			col.Description = *fields.Description
		}
		if fields.ClearWIPLimit {
			col.WIPLimit = nil
		} else if fields.WIPLimit != nil {
			col.WIPLimit = fields.WIPLimit
		}
		if fields.SemanticRole != nil {
			col.SemanticRole = *fields.SemanticRole
		}

		var wip any
		if col.WIPLimit != nil {
			wip = *col.WIPLimit
		}
		if _, err := tx.Exec(
			"UPDATE kanban_columns SET title = ?, description = ?, wip_limit = ?, semantic_role = ? WHERE column_id = ?",
			col.Title, col.Description, wip, col.SemanticRole, columnID,
		); err != nil {
			return fmt.Errorf("updating column: %w", err)
		}
		return nil
	})
}

// DeleteColumn removes a column after migrating its placements to the
// nearest remaining column, appended at the end there. Deleting the only
// column on a board is rejected. Remaining columns are renumbered densely.
func (b *Backend) DeleteColumn(columnID, callerID string) error {
	return b.withTx(func(tx *sql.Tx) error {
		col, err := getColumn(tx, columnID)
		if err != nil {
			return err
		}
		board, err := getBoard(tx, col.BoardID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, board.ProjectID, callerID); err != nil {
			return err
		}

		cols, err := boardColumns(tx, col.BoardID)
		if err != nil {
			return err
		}
		if len(cols) == 1 {
			return fmt.Errorf("cannot delete the only column on a board: %w", types.ErrConflict)
		}

		target := nearestColumn(cols, col)
		if _, err := tx.Exec(
			`UPDATE task_placements
			 SET column_id = ?, position = position + (SELECT COUNT(*) FROM task_placements WHERE column_id = ?)
			 WHERE column_id = ?`,
			target.ColumnID, target.ColumnID, columnID,
		); err != nil {
			return fmt.Errorf("migrating placements: %w", err)
		}
		if err := renumberPlacements(tx, target.ColumnID); err != nil {
			return err
		}

		if _, err := tx.Exec("DELETE FROM kanban_columns WHERE column_id = ?", columnID); err != nil {
			return fmt.Errorf("deleting column: %w", err)
		}
		return renumberColumns(tx, col.BoardID)
	})
}

// ReorderColumns assigns positions 1..len(columnIDs) in the supplied order.
// The supplied list must be exactly the board's current column set: every
// column present, none duplicated, none foreign.
func (b *Backend) ReorderColumns(boardID, callerID string, columnIDs []string) error {
	return b.withTx(func(tx *sql.Tx) error {
		board, err := getBoard(tx, boardID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, board.ProjectID, callerID); err != nil {
			return err
		}

		cols, err := boardColumns(tx, boardID)
		if err != nil {
			return err
		}
		current := make(map[string]bool, len(cols))
		for _, c := range cols {
			current[c.ColumnID] = true
		}

		if len(columnIDs) != len(cols) {
			return fmt.Errorf("Invalid column order: %w", types.ErrInvalidArgument)
		}
		seen := make(map[string]bool, len(columnIDs))
		for _, id := range columnIDs {
			if !current[id] || seen[id] {
				return fmt.Errorf("Invalid column order: %w", types.ErrInvalidArgument)
			}
			seen[id] = true
		}

		for i, id := range columnIDs {
			if _, err := tx.Exec(
				"UPDATE kanban_columns SET position = ? WHERE column_id = ?", i+1, id,
			); err != nil {
				return fmt.Errorf("reordering columns: %w", err)
			}
		}
		return nil
	})
}

// migrationTarget picks the board that receives placements from a deleted
// board: the project's default board, or failing that any other board.
func migrationTarget(q dbtx, projectID, excludeBoardID string) (string, error) {
	var boardID string
	err := q.QueryRow(
		"SELECT board_id FROM boards WHERE project_id = ? AND is_default = 1 AND board_id != ?",
		projectID, excludeBoardID,
	).Scan(&boardID)
	if err == sql.ErrNoRows {
		err = q.QueryRow(
			"SELECT board_id FROM boards WHERE project_id = ? AND board_id != ? ORDER BY created_at ASC LIMIT 1",
			projectID, excludeBoardID,
		).Scan(&boardID)
	}
	if err != nil {
		return "", fmt.Errorf("selecting migration target: %w", err)
	}
	return boardID, nil
}

// migrateBoardPlacements moves every placement on the board to the target
// board, matching each task's status to a column role there and falling back
// to the target's first column, appended at the end.
func (b *Backend) migrateBoardPlacements(tx *sql.Tx, boardID, targetBoardID string) error {
	rows, err := tx.Query(
		`SELECT p.placement_id, p.task_id, t.status
		 FROM task_placements p
		 JOIN tasks t ON t.task_id = p.task_id
		 JOIN kanban_columns c ON c.column_id = p.column_id
		 WHERE p.board_id = ?
		 ORDER BY c.position ASC, p.position ASC`,
		boardID,
	)
	if err != nil {
		return fmt.Errorf("querying placements for migration: %w", err)
	}
	type moved struct {
		placementID string
		taskID      string
		status      string
	}
	var items []moved
	for rows.Next() {
		var m moved
		if err := rows.Scan(&m.placementID, &m.taskID, &m.status); err != nil {
			rows.Close()
			return fmt.Errorf("scanning placement for migration: %w", err)
		}
		items = append(items, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating placements for migration: %w", err)
	}

	fallback, err := firstColumn(tx, targetBoardID)
	if err != nil {
		return err
	}

	for _, m := range items {
		if _, err := tx.Exec(
			"DELETE FROM task_placements WHERE placement_id = ?", m.placementID,
		); err != nil {
			return fmt.Errorf("removing migrated placement: %w", err)
		}
		target, err := matchColumn(tx, targetBoardID, m.status)
		if err != nil {
			return err
		}
		if target == nil {
			target = fallback
		}
		if target == nil {
			continue
		}
		if err := appendPlacement(tx, m.taskID, target); err != nil {
			return err
		}
	}
	return nil
}

// nearestColumn returns the remaining column closest in position to the
// deleted one, preferring the lower position on a tie.
func nearestColumn(cols []*types.Column, deleted *types.Column) *types.Column {
	var best *types.Column
	bestDist := 0
	for _, c := range cols {
		if c.ColumnID == deleted.ColumnID {
			continue
		}
		dist := c.Position - deleted.Position
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist || (dist == bestDist && c.Position < best.Position) {
			best = c
			bestDist = dist
		}
	}
	return best
}

// renumberColumns rewrites the board's column positions to a dense 1..M
// sequence, preserving the current order.
func renumberColumns(tx *sql.Tx, boardID string) error {
	rows, err := tx.Query(
		"SELECT column_id FROM kanban_columns WHERE board_id = ? ORDER BY position ASC, created_at ASC",
		boardID,
	)
	if err != nil {
		return fmt.Errorf("querying columns for renumber: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scanning column: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}

	for i, id := range ids {
		if _, err := tx.Exec(
			"UPDATE kanban_columns SET position = ? WHERE column_id = ?", i+1, id,
		); err != nil {
			return fmt.Errorf("renumbering column: %w", err)
		}
	}
	return nil
}

const columnColumns = "column_id, board_id, title, description, position, wip_limit, semantic_role, created_at"

// hydrateColumn converts one row selected with columnColumns into a
// *types.Column.
func hydrateColumn(row rowScanner) (*types.Column, error) {
	var c types.Column
	var wip sql.NullInt64
	var createdAt string
	if err := row.Scan(&c.ColumnID, &c.BoardID, &c.Title, &c.Description, &c.Position,
		&wip, &c.SemanticRole, &createdAt); err != nil {
		return nil, err
	}
	if wip.Valid {
		limit := int(wip.Int64)
		c.WIPLimit = &limit
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// getColumn loads a column by ID.
func getColumn(q dbtx, columnID string) (*types.Column, error) {
	row := q.QueryRow("SELECT "+columnColumns+" FROM kanban_columns WHERE column_id = ?", columnID)
	col, err := hydrateColumn(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("column %s: %w", columnID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting column %s: %w", columnID, err)
	}
	return col, nil
}

// getBoard loads a board by ID.
func getBoard(q dbtx, boardID string) (*types.Board, error) {
	var board types.Board
	var isDefault int
	var createdAt, updatedAt string
	err := q.QueryRow(
		"SELECT board_id, project_id, title, description, is_default, created_at, updated_at FROM boards WHERE board_id = ?",
		boardID,
	).Scan(&board.BoardID, &board.ProjectID, &board.Title, &board.Description, &isDefault, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("board %s: %w", boardID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting board %s: %w", boardID, err)
	}
	board.IsDefault = isDefault != 0
	if board.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if board.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &board, nil
}

// boardColumns returns the board's columns ordered by position.
func boardColumns(q dbtx, boardID string) ([]*types.Column, error) {
	rows, err := q.Query(
		"SELECT "+columnColumns+" FROM kanban_columns WHERE board_id = ? ORDER BY position ASC",
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var cols []*types.Column
	for rows.Next() {
		col, err := hydrateColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating column: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	return cols, nil
}

// boolToInt maps a bool onto the 0/1 SQLite stores.
func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
