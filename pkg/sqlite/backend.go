// Package sqlite provides the public API for the SQLite workflow engine.
// It exposes the factory function while keeping implementation details
// internal.
package sqlite

import (
	"github.com/launchdeck/workbench/internal/sqlite"
	"github.com/launchdeck/workbench/pkg/types"
)

// NewEngine creates a new SQLite-backed workflow engine. The engine is not
// attached; call Attach with a Config to initialize.
//
// Example:
//
//	engine := sqlite.NewEngine()
//	err := engine.Attach(types.Config{DataDir: ".workbench"})
//	defer engine.Detach()
func NewEngine() types.Engine {
	return sqlite.NewBackend()
}
