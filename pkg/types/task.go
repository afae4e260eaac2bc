package types

import "time"

// Task statuses. A task progresses through these states during its lifecycle;
// the kanban placement of a task tracks its status through column semantic
// roles (see Column).
const (
	StatusBacklog    = "backlog"
	StatusToDo       = "to_do"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"
)

// validStatuses is the set of recognized task status values.
var validStatuses = map[string]bool{
	StatusBacklog:    true,
	StatusToDo:       true,
	StatusInProgress: true,
	StatusInReview:   true,
	StatusDone:       true,
	StatusCancelled:  true,
}

// ValidStatus reports whether s is a recognized task status.
func ValidStatus(s string) bool { return validStatuses[s] }

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// validPriorities is the set of recognized task priority values.
var validPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// ValidPriority reports whether p is a recognized task priority.
func ValidPriority(p string) bool { return validPriorities[p] }

// Task represents one unit of project work.
type Task struct {
	TaskID      string     // UUID v7, generated on creation.
	ProjectID   string     // Owning project.
	MilestoneID string     // Optional milestone reference ("" when unset).
	Title       string     // Required, non-empty.
	Description string     //
	Status      string     // One of the Status constants.
	Priority    string     // One of the Priority constants.
	CreatedBy   string     // Member ID of the creator.
	AssigneeID  string     // Optional assignee; must be a project member.
	StartDate   *time.Time //
	DueDate     *time.Time //
	Tags        []string   // Free-text labels.
	CreatedAt   time.Time  //
	UpdatedAt   time.Time  //
}

// Subtask is a checklist item owned by a task.
type Subtask struct {
	SubtaskID string
	TaskID    string
	Title     string
	Done      bool
	CreatedAt time.Time
}

// Comment is a discussion entry on a task.
type Comment struct {
	CommentID string
	TaskID    string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// TimeEntry records work logged against a task.
type TimeEntry struct {
	EntryID   string
	TaskID    string
	MemberID  string
	Minutes   int
	Note      string
	CreatedAt time.Time
}
