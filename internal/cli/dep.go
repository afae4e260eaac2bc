package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newDepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage task dependencies",
	}
	cmd.AddCommand(newDepAddCmd())
	cmd.AddCommand(newDepRemoveCmd())
	cmd.AddCommand(newDepListCmd())
	return cmd
}

func newDepAddCmd() *cobra.Command {
	var depType string
	cmd := &cobra.Command{
		Use:   "add TASK_ID DEPENDS_ON_TASK_ID",
		Short: "Record that a task depends on another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			id, err := engine.AddDependency(args[0], callerID(), args[1], depType)
			if err != nil {
				return err
			}
			return printID(cmd, "dependency", id)
		},
	}
	cmd.Flags().StringVar(&depType, "type", "", "dependency type (default: finish_to_start)")
	return cmd
}

func newDepRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove DEPENDENCY_ID",
		Short: "Remove a dependency edge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			if err := engine.RemoveDependency(args[0], callerID()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dependency removed")
			return nil
		},
	}
}

func newDepListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list TASK_ID",
		Short: "List a task's prerequisites and dependents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			deps, err := engine.GetTaskDependencies(args[0], callerID())
			if err != nil {
				return err
			}

			if flags.jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(deps)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "depends on:")
			for _, d := range deps.Prerequisites {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  [%s]  %s\n", d.TaskID, d.Status, d.Title)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "depended on by:")
			for _, d := range deps.Dependents {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  [%s]  %s\n", d.TaskID, d.Status, d.Title)
			}
			return nil
		},
	}
}
