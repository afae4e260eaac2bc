package types

import (
	"strings"
	"time"
)

// Board is a named kanban view over one project's tasks, composed of ordered
// columns. Once a project has any board, exactly one of them is the default;
// new tasks are placed on the default board.
type Board struct {
	BoardID     string    // UUID v7, generated on creation.
	ProjectID   string    // Owning project.
	Title       string    // Required, non-empty.
	Description string    //
	IsDefault   bool      // Exactly one default board per project.
	CreatedAt   time.Time //
	UpdatedAt   time.Time //
}

// RoleNone marks a column that carries no status semantics; moving a task
// into such a column never rewrites the task's status.
const RoleNone = ""

// Column is an ordered lane on a board. Column positions on a board are
// dense: exactly 1..M with no gaps or duplicates.
//
// SemanticRole ties the column to a task status. It is one of the Status
// constants or RoleNone, set at creation (derived from the title when not
// given) and editable afterwards. The placement synchronizer matches on the
// role only; renaming a column never changes its semantics.
type Column struct {
	ColumnID     string    // UUID v7, generated on creation.
	BoardID      string    // Owning board.
	Title        string    // Required, non-empty.
	Description  string    //
	Position     int       // 1-based, dense, unique per board.
	WIPLimit     *int      // Max concurrent placements; nil means unlimited.
	SemanticRole string    // Status constant or RoleNone.
	CreatedAt    time.Time //
}

// Placement pins one task to one column at one position. A task has at most
// one placement system-wide. Positions within a column are dense: exactly
// 1..N with no gaps or duplicates.
type Placement struct {
	PlacementID string
	TaskID      string
	ColumnID    string
	BoardID     string
	Position    int // 1-based, dense, unique per column.
	CreatedAt   time.Time
}

// ValidSemanticRole reports whether role is RoleNone or a recognized status.
func ValidSemanticRole(role string) bool {
	return role == RoleNone || validStatuses[role]
}

// RoleFromTitle derives a semantic role from a column title. This is the
// historical substring mapping, used only once at column creation to pick an
// initial role for columns created without an explicit one.
func RoleFromTitle(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "backlog"):
		return StatusBacklog
	case strings.Contains(t, "to do"), strings.Contains(t, "todo"):
		return StatusToDo
	case strings.Contains(t, "progress"):
		return StatusInProgress
	case strings.Contains(t, "review"):
		return StatusInReview
	case strings.Contains(t, "done"), strings.Contains(t, "complete"):
		return StatusDone
	default:
		return RoleNone
	}
}

// SeedColumn describes one of the columns created with every new board.
type SeedColumn struct {
	Title string
	Role  string
}

// SeedColumns lists the five columns seeded on board creation, in position
// order 1..5.
var SeedColumns = []SeedColumn{
	{Title: "Backlog", Role: StatusBacklog},
	{Title: "To Do", Role: StatusToDo},
	{Title: "In Progress", Role: StatusInProgress},
	{Title: "In Review", Role: StatusInReview},
	{Title: "Done", Role: StatusDone},
}
