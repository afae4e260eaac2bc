// Task store: task CRUD with membership checks, satellite records, and the
// filtered project listing. Creation and status-changing updates hand the
// task to the placement synchronizer inside the same transaction.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/launchdeck/workbench/pkg/types"
)

// CreateTask creates a task in the project and places it on the default
// board. The creator must be a project member; the assignee and milestone,
// when given, must belong to the project.
func (b *Backend) CreateTask(projectID, callerID string, fields types.TaskFields) (string, error) {
	if fields.Title == nil || *fields.Title == "" {
		return "", fmt.Errorf("task title is required: %w", types.ErrInvalidArgument)
	}

	task := &types.Task{
		TaskID:    generateID(),
		ProjectID: projectID,
		Title:     *fields.Title,
		Status:    types.StatusBacklog,
		Priority:  types.PriorityMedium,
		CreatedBy: callerID,
	}
	if err := applyTaskFields(task, fields); err != nil {
		return "", err
	}

	err := b.withTx(func(tx *sql.Tx) error {
		if err := requireMember(tx, projectID, callerID); err != nil {
			return err
		}
		if task.AssigneeID != "" {
			if err := requireMember(tx, projectID, task.AssigneeID); err != nil {
				return fmt.Errorf("assignee: %w", err)
			}
		}
		if task.MilestoneID != "" {
			if err := milestoneInProject(tx, projectID, task.MilestoneID); err != nil {
				return err
			}
		}

		now := time.Now()
		task.CreatedAt = now
		task.UpdatedAt = now

		tags, err := json.Marshal(task.Tags)
		if err != nil {
			return fmt.Errorf("encoding tags: %w", err)
		}
		if task.Tags == nil {
			tags = []byte("[]")
		}

		_, err = tx.Exec(
			`INSERT INTO tasks (task_id, project_id, milestone_id, title, description, status,
			    priority, created_by, assignee_id, start_date, due_date, tags, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			task.TaskID, task.ProjectID, nullable(task.MilestoneID), task.Title, task.Description,
			task.Status, task.Priority, task.CreatedBy, nullable(task.AssigneeID),
			formatNullableTime(task.StartDate), formatNullableTime(task.DueDate),
			string(tags), formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting task: %w", err)
		}

		return b.placeNewTask(tx, task)
	})
	if err != nil {
		return "", err
	}
	return task.TaskID, nil
}

// UpdateTask merges the given fields into the task. A status change is
// forwarded to the placement synchronizer so the task's card follows its
// status on the board it currently sits on.
func (b *Backend) UpdateTask(taskID, callerID string, fields types.TaskFields) error {
	if fields.Title != nil && *fields.Title == "" {
		return fmt.Errorf("task title is required: %w", types.ErrInvalidArgument)
	}

	return b.withTx(func(tx *sql.Tx) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, task.ProjectID, callerID); err != nil {
			return err
		}

		prevStatus := task.Status
		if err := applyTaskFields(task, fields); err != nil {
			return err
		}
		if task.AssigneeID != "" && fields.AssigneeID != nil {
			if err := requireMember(tx, task.ProjectID, task.AssigneeID); err != nil {
				return fmt.Errorf("assignee: %w", err)
			}
		}
		if task.MilestoneID != "" && fields.MilestoneID != nil {
			if err := milestoneInProject(tx, task.ProjectID, task.MilestoneID); err != nil {
				return err
			}
		}

		task.UpdatedAt = time.Now()

		tags, err := json.Marshal(task.Tags)
		if err != nil {
			return fmt.Errorf("encoding tags: %w", err)
		}
		if task.Tags == nil {
			tags = []byte("[]")
		}

		_, err = tx.Exec(
			`UPDATE tasks SET milestone_id = ?, title = ?, description = ?, status = ?, priority = ?,
			    assignee_id = ?, start_date = ?, due_date = ?, tags = ?, updated_at = ?
			 WHERE task_id = ?`,
			nullable(task.MilestoneID), task.Title, task.Description, task.Status, task.Priority,
			nullable(task.AssigneeID), formatNullableTime(task.StartDate),
			formatNullableTime(task.DueDate), string(tags), formatTime(task.UpdatedAt), taskID,
		)
		if err != nil {
			return fmt.Errorf("updating task: %w", err)
		}

		if task.Status != prevStatus {
			return b.syncTaskStatus(tx, task)
		}
		return nil
	})
}

// DeleteTask removes a task and cascades its subtasks, comments, time
// entries, dependency edges (both directions), and placement. Allowed for
// the task's creator or assignee, and for project owners and managers.
func (b *Backend) DeleteTask(taskID, callerID string) error {
	return b.withTx(func(tx *sql.Tx) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		role, err := memberRole(tx, task.ProjectID, callerID)
		if err != nil {
			return err
		}
		allowed := callerID == task.CreatedBy || callerID == task.AssigneeID ||
			role == types.RoleOwner || role == types.RoleManager
		if !allowed {
			return fmt.Errorf("caller may not delete this task: %w", types.ErrForbidden)
		}

		if err := b.removePlacement(tx, taskID); err != nil {
			return err
		}

		for _, stmt := range []string{
			"DELETE FROM subtasks WHERE task_id = ?",
			"DELETE FROM task_comments WHERE task_id = ?",
			"DELETE FROM time_entries WHERE task_id = ?",
		} {
			if _, err := tx.Exec(stmt, taskID); err != nil {
				return fmt.Errorf("cascading task delete: %w", err)
			}
		}
		if _, err := tx.Exec(
			"DELETE FROM task_dependencies WHERE task_id = ? OR depends_on_id = ?", taskID, taskID,
		); err != nil {
			return fmt.Errorf("cascading dependency delete: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM tasks WHERE task_id = ?", taskID); err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}
		return nil
	})
}

// GetTask retrieves a task visible to the caller.
func (b *Backend) GetTask(taskID, callerID string) (*types.Task, error) {
	db, err := b.reader()
	if err != nil {
		return nil, err
	}
	task, err := getTask(db, taskID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(db, task.ProjectID, callerID); err != nil {
		return nil, err
	}
	return task, nil
}

// GetProjectTasks lists the project's tasks matching the filter.
func (b *Backend) GetProjectTasks(projectID, callerID string, filter types.TaskFilter) ([]*types.Task, error) {
	db, err := b.reader()
	if err != nil {
		return nil, err
	}
	if err := requireMember(db, projectID, callerID); err != nil {
		return nil, err
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE project_id = ?"
	args := []any{projectID}

	if filter.Status != "" {
		if !types.ValidStatus(filter.Status) {
			return nil, fmt.Errorf("unknown status %q: %w", filter.Status, types.ErrInvalidArgument)
		}
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		if !types.ValidPriority(filter.Priority) {
			return nil, fmt.Errorf("unknown priority %q: %w", filter.Priority, types.ErrInvalidArgument)
		}
		query += " AND priority = ?"
		args = append(args, filter.Priority)
	}
	if filter.AssigneeID != "" {
		query += " AND assignee_id = ?"
		args = append(args, filter.AssigneeID)
	}
	if filter.MilestoneID != "" {
		query += " AND milestone_id = ?"
		args = append(args, filter.MilestoneID)
	}
	if filter.Search != "" {
		query += " AND (title LIKE ? OR description LIKE ?)"
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Tag != "" {
		// Tags are stored as a JSON array of strings; match the quoted form.
		query += " AND tags LIKE ?"
		args = append(args, `%"`+filter.Tag+`"%`)
	}

	if filter.DueDateBucket != "" {
		now := time.Now()
		today := now.UTC().Truncate(24 * time.Hour)
		switch filter.DueDateBucket {
		case types.DueOverdue:
			query += " AND due_date IS NOT NULL AND due_date < ? AND status NOT IN (?, ?)"
			args = append(args, formatTime(now), types.StatusDone, types.StatusCancelled)
		case types.DueToday:
			query += " AND due_date IS NOT NULL AND due_date >= ? AND due_date < ?"
			args = append(args, formatTime(today), formatTime(today.Add(24*time.Hour)))
		case types.DueWeek:
			query += " AND due_date IS NOT NULL AND due_date >= ? AND due_date < ?"
			args = append(args, formatTime(today), formatTime(today.Add(7*24*time.Hour)))
		case types.DueNone:
			query += " AND due_date IS NULL"
		default:
			return nil, fmt.Errorf("unknown due date bucket %q: %w", filter.DueDateBucket, types.ErrInvalidArgument)
		}
	}

	switch filter.Sort {
	case types.SortPriority:
		query += ` ORDER BY CASE priority
			WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, created_at DESC`
	case types.SortDueDate:
		query += " ORDER BY due_date IS NULL, due_date ASC, created_at DESC"
	case types.SortCreatedAt, "":
		query += " ORDER BY created_at DESC"
	default:
		return nil, fmt.Errorf("unknown sort %q: %w", filter.Sort, types.ErrInvalidArgument)
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*types.Task{}
	for rows.Next() {
		task, err := hydrateTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// AddSubtask appends a checklist item to the task.
func (b *Backend) AddSubtask(taskID, callerID, title string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("subtask title is required: %w", types.ErrInvalidArgument)
	}
	id := generateID()
	err := b.withTx(func(tx *sql.Tx) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, task.ProjectID, callerID); err != nil {
			return err
		}
		_, err = tx.Exec(
			"INSERT INTO subtasks (subtask_id, task_id, title, done, created_at) VALUES (?, ?, ?, 0, ?)",
			id, taskID, title, formatTime(time.Now()),
		)
		if err != nil {
			return fmt.Errorf("inserting subtask: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ToggleSubtask flips the done flag on a subtask.
func (b *Backend) ToggleSubtask(subtaskID, callerID string) error {
	return b.withTx(func(tx *sql.Tx) error {
		var taskID string
		err := tx.QueryRow("SELECT task_id FROM subtasks WHERE subtask_id = ?", subtaskID).Scan(&taskID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("subtask %s: %w", subtaskID, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("querying subtask: %w", err)
		}
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, task.ProjectID, callerID); err != nil {
			return err
		}
		if _, err := tx.Exec(
			"UPDATE subtasks SET done = NOT done WHERE subtask_id = ?", subtaskID,
		); err != nil {
			return fmt.Errorf("toggling subtask: %w", err)
		}
		return nil
	})
}

// AddComment appends a comment to the task.
func (b *Backend) AddComment(taskID, callerID, body string) (string, error) {
	if body == "" {
		return "", fmt.Errorf("comment body is required: %w", types.ErrInvalidArgument)
	}
	id := generateID()
	err := b.withTx(func(tx *sql.Tx) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, task.ProjectID, callerID); err != nil {
			return err
		}
		_, err = tx.Exec(
			"INSERT INTO task_comments (comment_id, task_id, author_id, body, created_at) VALUES (?, ?, ?, ?, ?)",
			id, taskID, callerID, body, formatTime(time.Now()),
		)
		if err != nil {
			return fmt.Errorf("inserting comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddTimeEntry logs minutes worked against the task.
func (b *Backend) AddTimeEntry(taskID, callerID string, minutes int, note string) (string, error) {
	if minutes <= 0 {
		return "", fmt.Errorf("minutes must be positive: %w", types.ErrInvalidArgument)
	}
	id := generateID()
	err := b.withTx(func(tx *sql.Tx) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, task.ProjectID, callerID); err != nil {
			return err
		}
		_, err = tx.Exec(
			"INSERT INTO time_entries (entry_id, task_id, member_id, minutes, note, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			id, taskID, callerID, minutes, note, formatTime(time.Now()),
		)
		if err != nil {
			return fmt.Errorf("inserting time entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// applyTaskFields merges non-nil fields into task, validating enum values.
func applyTaskFields(task *types.Task, fields types.TaskFields) error {
	if fields.Title != nil {
		task.Title = *fields.Title
	}
	if fields.Description != nil {
		task.Description = *fields.Description
	}
	if fields.Status != nil {
		if !types.ValidStatus(*fields.Status) {
			return fmt.Errorf("unknown status %q: %w", *fields.Status, types.ErrInvalidArgument)
		}
		task.Status = *fields.Status
	}
	if fields.Priority != nil {
		if !types.ValidPriority(*fields.Priority) {
			return fmt.Errorf("unknown priority %q: %w", *fields.Priority, types.ErrInvalidArgument)
		}
		task.Priority = *fields.Priority
	}
	if fields.AssigneeID != nil {
		task.AssigneeID = *fields.AssigneeID
	}
	if fields.MilestoneID != nil {
		task.MilestoneID = *fields.MilestoneID
	}
	if fields.StartDate != nil {
		task.StartDate = fields.StartDate
	}
	if fields.DueDate != nil {
		task.DueDate = fields.DueDate
	}
	if fields.Tags != nil {
		task.Tags = *fields.Tags
	}
	return nil
}

const taskColumns = `task_id, project_id, milestone_id, title, description, status,
	priority, created_by, assignee_id, start_date, due_date, tags, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateTask converts one row selected with taskColumns into a *types.Task.
func hydrateTask(row rowScanner) (*types.Task, error) {
	var t types.Task
	var milestone, assignee, startDate, dueDate sql.NullString
	var tags, createdAt, updatedAt string

	err := row.Scan(&t.TaskID, &t.ProjectID, &milestone, &t.Title, &t.Description, &t.Status,
		&t.Priority, &t.CreatedBy, &assignee, &startDate, &dueDate, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.MilestoneID = milestone.String
	t.AssigneeID = assignee.String
	if t.StartDate, err = parseNullableTime(startDate); err != nil {
		return nil, err
	}
	if t.DueDate, err = parseNullableTime(dueDate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// getTask loads a task by ID.
func getTask(q dbtx, taskID string) (*types.Task, error) {
	row := q.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE task_id = ?", taskID)
	task, err := hydrateTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", taskID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}
	return task, nil
}

// nullable maps an empty string to a SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
