package types

import "time"

// Dependency edge types.
const (
	DepFinishToStart  = "finish_to_start"
	DepStartToStart   = "start_to_start"
	DepFinishToFinish = "finish_to_finish"
	DepStartToFinish  = "start_to_finish"
)

// validDependencyTypes is the set of recognized dependency edge types.
var validDependencyTypes = map[string]bool{
	DepFinishToStart:  true,
	DepStartToStart:   true,
	DepFinishToFinish: true,
	DepStartToFinish:  true,
}

// ValidDependencyType reports whether t is a recognized dependency type.
func ValidDependencyType(t string) bool { return validDependencyTypes[t] }

// Dependency is a directed edge: TaskID depends on DependsOnID. The edge set,
// viewed as a directed graph over tasks, stays acyclic.
type Dependency struct {
	DependencyID string
	TaskID       string // The dependent task.
	DependsOnID  string // The prerequisite task.
	Type         string // One of the Dep constants.
	CreatedAt    time.Time
}

// DependencyRef is a dependency edge enriched with the referenced task's
// title and status for display.
type DependencyRef struct {
	DependencyID string
	TaskID       string // The referenced task (prerequisite or dependent).
	Type         string
	Title        string
	Status       string
}

// TaskDependencies holds both directions of a task's direct edges.
type TaskDependencies struct {
	Prerequisites []DependencyRef // Tasks this task depends on.
	Dependents    []DependencyRef // Tasks that depend on this task.
}
