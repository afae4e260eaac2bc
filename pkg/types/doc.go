// Package types defines the entity types, the Engine interface, and the
// standard errors for the Workbench task and kanban workflow engine.
package types
