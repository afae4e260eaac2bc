package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/launchdeck/workbench/pkg/types"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Manage kanban boards and columns",
	}
	cmd.AddCommand(newBoardCreateCmd())
	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardDeleteCmd())
	cmd.AddCommand(newColumnAddCmd())
	cmd.AddCommand(newColumnDeleteCmd())
	cmd.AddCommand(newColumnReorderCmd())
	return cmd
}

func newBoardCreateCmd() *cobra.Command {
	var description string
	var isDefault bool
	cmd := &cobra.Command{
		Use:   "create PROJECT_ID TITLE",
		Short: "Create a board with the five standard columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			id, err := engine.CreateBoard(args[0], callerID(), types.BoardFields{
				Title:       args[1],
				Description: description,
				IsDefault:   isDefault,
			})
			if err != nil {
				return err
			}
			return printID(cmd, "board", id)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "board description")
	cmd.Flags().BoolVar(&isDefault, "default", false, "make this the project's default board")
	return cmd
}

func newBoardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show BOARD_ID",
		Short: "Show a board's columns and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			view, err := engine.GetBoard(args[0], callerID())
			if err != nil {
				return err
			}

			if flags.jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(view)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", view.Board.Title, view.Board.BoardID)
			for _, col := range view.Columns {
				limit := ""
				if col.Column.WIPLimit != nil {
					limit = fmt.Sprintf(" (WIP %d)", *col.Column.WIPLimit)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s%s\n", col.Column.Position, col.Column.Title, limit)
				for _, card := range col.Cards {
					fmt.Fprintf(cmd.OutOrStdout(), "     %d. %s  %s\n", card.Placement.Position, card.Placement.TaskID, card.TaskTitle)
				}
			}
			return nil
		},
	}
}

func newBoardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete BOARD_ID",
		Short: "Delete a board, migrating its cards to another board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			if err := engine.DeleteBoard(args[0], callerID()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "board deleted")
			return nil
		},
	}
}

func newColumnAddCmd() *cobra.Command {
	var description, role string
	var position, wipLimit int
	cmd := &cobra.Command{
		Use:   "add-column BOARD_ID TITLE",
		Short: "Add a column to a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			fields := types.ColumnFields{Title: args[1], Description: description}
			if cmd.Flags().Changed("position") {
				fields.Position = &position
			}
			if cmd.Flags().Changed("wip-limit") {
				fields.WIPLimit = &wipLimit
			}
			if cmd.Flags().Changed("role") {
				fields.SemanticRole = &role
			}

			id, err := engine.CreateColumn(args[0], callerID(), fields)
			if err != nil {
				return err
			}
			return printID(cmd, "column", id)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "column description")
	cmd.Flags().StringVar(&role, "role", "", "semantic role (a task status, or empty for none)")
	cmd.Flags().IntVar(&position, "position", 0, "1-based position (default: append at end)")
	cmd.Flags().IntVar(&wipLimit, "wip-limit", 0, "work-in-progress limit")
	return cmd
}

func newColumnDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-column COLUMN_ID",
		Short: "Delete a column, migrating its cards to the nearest column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			if err := engine.DeleteColumn(args[0], callerID()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "column deleted")
			return nil
		},
	}
}

func newColumnReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder BOARD_ID COLUMN_ID...",
		Short: "Reorder a board's columns",
		Long:  "Assign column positions in the supplied order. The list must contain every column of the board exactly once.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			if err := engine.ReorderColumns(args[0], callerID(), args[1:]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "columns reordered")
			return nil
		},
	}
}
