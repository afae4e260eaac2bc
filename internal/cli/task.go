package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/launchdeck/workbench/pkg/types"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskMoveCmd())
	cmd.AddCommand(newTaskStatusCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var status, priority, assignee, milestone, description, due string
	var tags []string
	cmd := &cobra.Command{
		Use:   "add PROJECT_ID TITLE",
		Short: "Create a task and place it on the default board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			fields := types.TaskFields{Title: &args[1]}
			if status != "" {
				fields.Status = &status
			}
			if priority != "" {
				fields.Priority = &priority
			}
			if assignee != "" {
				fields.AssigneeID = &assignee
			}
			if milestone != "" {
				fields.MilestoneID = &milestone
			}
			if description != "" {
				fields.Description = &description
			}
			if len(tags) > 0 {
				fields.Tags = &tags
			}
			if due != "" {
				t, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("parse --due: %w", err)
				}
				fields.DueDate = &t
			}

			id, err := engine.CreateTask(args[0], callerID(), fields)
			if err != nil {
				return err
			}
			return printID(cmd, "task", id)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "initial status (default: backlog)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (default: medium)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee member ID")
	cmd.Flags().StringVar(&milestone, "milestone", "", "milestone ID")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var filter types.TaskFilter
	cmd := &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List tasks in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			tasks, err := engine.GetProjectTasks(args[0], callerID(), filter)
			if err != nil {
				return err
			}

			if flags.jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(tasks)
			}
			for _, t := range tasks {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s/%s]  %s\n", t.TaskID, t.Status, t.Priority, t.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&filter.Priority, "priority", "", "filter by priority")
	cmd.Flags().StringVar(&filter.AssigneeID, "assignee", "", "filter by assignee")
	cmd.Flags().StringVar(&filter.MilestoneID, "milestone", "", "filter by milestone")
	cmd.Flags().StringVar(&filter.Search, "search", "", "substring match on title and description")
	cmd.Flags().StringVar(&filter.DueDateBucket, "due", "", "due bucket (overdue, today, week, none)")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "filter by tag")
	cmd.Flags().StringVar(&filter.Sort, "sort", "", "sort order (priority, due_date, created_at)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum results")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "results to skip")
	return cmd
}

func newTaskMoveCmd() *cobra.Command {
	var position int
	cmd := &cobra.Command{
		Use:   "move TASK_ID COLUMN_ID",
		Short: "Move a task to a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			if err := engine.MoveTask(args[0], callerID(), args[1], position); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "task moved")
			return nil
		},
	}
	cmd.Flags().IntVar(&position, "position", 1, "1-based position in the column")
	return cmd
}

func newTaskStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status TASK_ID STATUS",
		Short: "Set a task's status, moving its card on the board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			if err := engine.UpdateTask(args[0], callerID(), types.TaskFields{Status: &args[1]}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status updated")
			return nil
		},
	}
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Delete a task and its subtasks, comments, and time entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			if err := engine.DeleteTask(args[0], callerID()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "task deleted")
			return nil
		},
	}
}
