package types

import "time"

// TaskFields carries the mutable fields of a task. Nil pointers mean "leave
// unchanged" on update and "use the default" on create. Title is required on
// create.
type TaskFields struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssigneeID  *string // Empty string clears the assignee.
	MilestoneID *string // Empty string clears the milestone.
	StartDate   *time.Time
	DueDate     *time.Time
	Tags        *[]string
}

// Due date buckets accepted by TaskFilter.DueDateBucket.
const (
	DueOverdue = "overdue"
	DueToday   = "today"
	DueWeek    = "week"
	DueNone    = "none"
)

// Sort orders accepted by TaskFilter.Sort. The zero value sorts by creation
// time, newest first.
const (
	SortPriority  = "priority"
	SortDueDate   = "due_date"
	SortCreatedAt = "created_at"
)

// TaskFilter narrows GetProjectTasks results. Zero-valued fields are ignored.
type TaskFilter struct {
	Status        string
	Priority      string
	AssigneeID    string
	MilestoneID   string
	Search        string // Substring match on title and description.
	DueDateBucket string // One of the Due constants.
	Tag           string // Exact match against one tag.
	Sort          string // One of the Sort constants.
	Limit         int
	Offset        int
}

// BoardFields carries the fields for board creation.
type BoardFields struct {
	Title       string
	Description string
	IsDefault   bool
}

// BoardUpdate carries the mutable fields of a board. Nil means unchanged.
// Setting IsDefault true demotes the project's previous default board.
type BoardUpdate struct {
	Title       *string
	Description *string
	IsDefault   *bool
}

// ColumnFields carries the fields for column creation. A nil Position
// appends the column at the end of the board. A nil SemanticRole derives the
// role from the title.
type ColumnFields struct {
	Title        string
	Description  string
	Position     *int
	WIPLimit     *int
	SemanticRole *string
}

// ColumnUpdate carries the mutable fields of a column. Nil means unchanged;
// ClearWIPLimit removes the limit.
type ColumnUpdate struct {
	Title         *string
	Description   *string
	WIPLimit      *int
	ClearWIPLimit bool
	SemanticRole  *string
}

// BoardView is a board with its columns and their placements, hydrated for
// display. Columns are ordered by position, placements within each column
// likewise.
type BoardView struct {
	Board   Board
	Columns []ColumnView
}

// ColumnView is a column plus its placements enriched with task titles.
type ColumnView struct {
	Column Column
	Cards  []Card
}

// Card is one placement row hydrated with the task it pins.
type Card struct {
	Placement Placement
	TaskTitle string
	Status    string
}

// Engine is the workflow facade consumed by controllers. Every mutating
// operation runs as one atomic transaction: validation and authorization
// happen before any write, and a mid-operation failure rolls back all partial
// writes. All operations require the caller to be a member of the relevant
// project unless noted otherwise.
type Engine interface {
	// Attach connects the engine to the store described by config, creating
	// the data directory and schema as needed. Returns ErrAlreadyAttached if
	// called while attached.
	Attach(config Config) error

	// Detach releases store resources. Idempotent. After Detach, operations
	// return ErrEngineDetached.
	Detach() error

	// Projects and membership.
	CreateProject(name, ownerID string) (string, error)
	AddMember(projectID, callerID, memberID, role string) error
	CreateMilestone(projectID, callerID, title string, dueDate *time.Time) (string, error)

	// Tasks.
	CreateTask(projectID, callerID string, fields TaskFields) (string, error)
	UpdateTask(taskID, callerID string, fields TaskFields) error
	DeleteTask(taskID, callerID string) error
	GetTask(taskID, callerID string) (*Task, error)
	GetProjectTasks(projectID, callerID string, filter TaskFilter) ([]*Task, error)

	// Task satellites.
	AddSubtask(taskID, callerID, title string) (string, error)
	ToggleSubtask(subtaskID, callerID string) error
	AddComment(taskID, callerID, body string) (string, error)
	AddTimeEntry(taskID, callerID string, minutes int, note string) (string, error)

	// Boards and columns. Board creation and deletion require the owner or
	// manager role.
	CreateBoard(projectID, callerID string, fields BoardFields) (string, error)
	UpdateBoard(boardID, callerID string, fields BoardUpdate) error
	DeleteBoard(boardID, callerID string) error
	GetBoard(boardID, callerID string) (*BoardView, error)
	CreateColumn(boardID, callerID string, fields ColumnFields) (string, error)
	UpdateColumn(columnID, callerID string, fields ColumnUpdate) error
	DeleteColumn(columnID, callerID string) error
	ReorderColumns(boardID, callerID string, columnIDs []string) error

	// Placement.
	MoveTask(taskID, callerID, columnID string, position int) error

	// Dependencies.
	AddDependency(taskID, callerID, dependsOnID, depType string) (string, error)
	RemoveDependency(dependencyID, callerID string) error
	GetTaskDependencies(taskID, callerID string) (*TaskDependencies, error)
}
