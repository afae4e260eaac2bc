// Package cli implements the workbench command-line interface: thin wrappers
// over the workflow engine, one subcommand per facade operation.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/launchdeck/workbench/internal/sqlite"
	"github.com/launchdeck/workbench/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Version is the workbench release version.
const Version = "0.1.0"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	memberID  string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "workbench" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "workbench",
		Short: "A task and kanban workflow engine for project work",
		Long: "Workbench manages projects, tasks, kanban boards, and task dependencies\n" +
			"on a local SQLite store, keeping task status and board placement in sync.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .workbench)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .workbench-db)")
	root.PersistentFlags().StringVar(&flags.memberID, "as", "", "member ID to act as (default: $WORKBENCH_MEMBER or $USER)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newProjectCmd())
	root.AddCommand(newTaskCmd())
	root.AddCommand(newBoardCmd())
	root.AddCommand(newDepCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// resolveConfigDir returns the config directory from flag, env, or default.
func resolveConfigDir() string {
	if flags.configDir != "" {
		return flags.configDir
	}
	if v := os.Getenv("WORKBENCH_CONFIG_DIR"); v != "" {
		return v
	}
	return ".workbench"
}

// resolveDataDir returns the data directory from flag or default. The caller
// may further override this with a value from config.yaml.
func resolveDataDir() string {
	if flags.dataDir != "" {
		return flags.dataDir
	}
	return ""
}

// callerID returns the member ID commands act as.
func callerID() string {
	if flags.memberID != "" {
		return flags.memberID
	}
	if v := os.Getenv("WORKBENCH_MEMBER"); v != "" {
		return v
	}
	return os.Getenv("USER")
}

// openEngine attaches the engine to the resolved data directory. The caller
// must Detach when done.
func openEngine() (types.Engine, error) {
	dataDir := resolveDataDir()
	if dataDir == "" {
		dataDir = loadDataDirFromConfig(resolveConfigDir())
	}
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	engine := sqlite.NewBackend()
	if err := engine.Attach(types.Config{DataDir: dataDir}); err != nil {
		return nil, fmt.Errorf("attach engine: %w", err)
	}
	return engine, nil
}
