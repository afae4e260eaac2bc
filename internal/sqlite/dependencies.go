// Dependency graph manager. The edge set over tasks stays a DAG: adds are
// rejected when the prerequisite already reaches the dependent task. The
// reachability walk is iterative (explicit stack plus visited set) so it is
// bounded on deep chains and terminates even on degenerate pre-existing data.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/launchdeck/workbench/pkg/types"
)

// AddDependency records that taskID depends on dependsOnID. Both tasks must
// belong to the same project. Self-dependencies, duplicate edges, and edges
// that would close a cycle are rejected.
func (b *Backend) AddDependency(taskID, callerID, dependsOnID, depType string) (string, error) {
	if depType == "" {
		depType = types.DepFinishToStart
	}
	if !types.ValidDependencyType(depType) {
		return "", fmt.Errorf("unknown dependency type %q: %w", depType, types.ErrInvalidArgument)
	}
	if taskID == dependsOnID {
		return "", fmt.Errorf("a task cannot depend on itself: %w", types.ErrInvalidArgument)
	}

	id := generateID()
	err := b.withTx(func(tx *sql.Tx) error {
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		prereq, err := getTask(tx, dependsOnID)
		if err != nil {
			return err
		}
		if task.ProjectID != prereq.ProjectID {
			return fmt.Errorf("tasks belong to different projects: %w", types.ErrInvalidArgument)
		}
		if err := requireMember(tx, task.ProjectID, callerID); err != nil {
			return err
		}

		var exists int
		err = tx.QueryRow(
			"SELECT 1 FROM task_dependencies WHERE task_id = ? AND depends_on_id = ?",
			taskID, dependsOnID,
		).Scan(&exists)
		if err == nil {
			return fmt.Errorf("dependency already exists: %w", types.ErrConflict)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("checking duplicate dependency: %w", err)
		}

		reachable, err := dependsTransitively(tx, dependsOnID, taskID)
		if err != nil {
			return err
		}
		if reachable {
			return fmt.Errorf("circular dependency: %s already depends on %s: %w",
				dependsOnID, taskID, types.ErrConflict)
		}

		if _, err := tx.Exec(
			`INSERT INTO task_dependencies (dependency_id, task_id, depends_on_id, dep_type, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			id, taskID, dependsOnID, depType, formatTime(time.Now()),
		); err != nil {
			return fmt.Errorf("inserting dependency: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveDependency deletes a dependency edge unconditionally.
func (b *Backend) RemoveDependency(dependencyID, callerID string) error {
	return b.withTx(func(tx *sql.Tx) error {
		var taskID string
		err := tx.QueryRow(
			"SELECT task_id FROM task_dependencies WHERE dependency_id = ?", dependencyID,
		).Scan(&taskID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("dependency %s: %w", dependencyID, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("querying dependency: %w", err)
		}
		task, err := getTask(tx, taskID)
		if err != nil {
			return err
		}
		if err := requireMember(tx, task.ProjectID, callerID); err != nil {
			return err
		}
		if _, err := tx.Exec(
			"DELETE FROM task_dependencies WHERE dependency_id = ?", dependencyID,
		); err != nil {
			return fmt.Errorf("deleting dependency: %w", err)
		}
		return nil
	})
}

// GetTaskDependencies returns the task's direct prerequisites and direct
// dependents, each enriched with the referenced task's title and status.
func (b *Backend) GetTaskDependencies(taskID, callerID string) (*types.TaskDependencies, error) {
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

	deps := &types.TaskDependencies{
		Prerequisites: []types.DependencyRef{},
		Dependents:    []types.DependencyRef{},
	}

	if deps.Prerequisites, err = dependencyRefs(db,
		`SELECT d.dependency_id, d.depends_on_id, d.dep_type, t.title, t.status
		 FROM task_dependencies d JOIN tasks t ON t.task_id = d.depends_on_id
		 WHERE d.task_id = ? ORDER BY d.created_at ASC`, taskID); err != nil {
		return nil, err
	}
	if deps.Dependents, err = dependencyRefs(db,
		`SELECT d.dependency_id, d.task_id, d.dep_type, t.title, t.status
		 FROM task_dependencies d JOIN tasks t ON t.task_id = d.task_id
		 WHERE d.depends_on_id = ? ORDER BY d.created_at ASC`, taskID); err != nil {
		return nil, err
	}
	return deps, nil
}

// dependencyRefs runs one of the enrichment queries above.
func dependencyRefs(q dbtx, query, taskID string) ([]types.DependencyRef, error) {
	rows, err := q.Query(query, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying dependencies: %w", err)
	}
	defer rows.Close()

	refs := []types.DependencyRef{}
	for rows.Next() {
		var r types.DependencyRef
		if err := rows.Scan(&r.DependencyID, &r.TaskID, &r.Type, &r.Title, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return refs, nil
}

// dependsTransitively reports whether fromID reaches targetID by walking
// dependency edges. The visited set both bounds the walk and makes it safe
// on data that already contains a cycle.
func dependsTransitively(tx *sql.Tx, fromID, targetID string) (bool, error) {
	visited := map[string]bool{fromID: true}
	stack := []string{fromID}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rows, err := tx.Query(
			"SELECT depends_on_id FROM task_dependencies WHERE task_id = ?", node,
		)
		if err != nil {
			return false, fmt.Errorf("querying prerequisites: %w", err)
		}
		var next []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return false, fmt.Errorf("scanning prerequisite: %w", err)
			}
			next = append(next, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return false, fmt.Errorf("iterating prerequisites: %w", err)
		}

		for _, id := range next {
			if id == targetID {
				return true, nil
			}
			if !visited[id] {
				visited[id] = true
				stack = append(stack, id)
			}
		}
	}
	return false, nil
}
