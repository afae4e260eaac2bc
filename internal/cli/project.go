package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/launchdeck/workbench/pkg/types"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and membership",
	}
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectAddMemberCmd())
	cmd.AddCommand(newProjectMilestoneCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project owned by the calling member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			id, err := engine.CreateProject(args[0], callerID())
			if err != nil {
				return err
			}
			return printID(cmd, "project", id)
		},
	}
}

func newProjectAddMemberCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "add-member PROJECT_ID MEMBER_ID",
		Short: "Enroll a member in a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			if err := engine.AddMember(args[0], callerID(), args[1], role); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "member added")
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", types.RoleMember, "member role (owner, manager, member)")
	return cmd
}

func newProjectMilestoneCmd() *cobra.Command {
	var due string
	cmd := &cobra.Command{
		Use:   "milestone PROJECT_ID TITLE",
		Short: "Create a milestone in a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Detach()

			var dueDate *time.Time
			if due != "" {
				t, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("parse --due: %w", err)
				}
				dueDate = &t
			}

			id, err := engine.CreateMilestone(args[0], callerID(), args[1], dueDate)
			if err != nil {
				return err
			}
			return printID(cmd, "milestone", id)
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}

// printID reports a newly created entity ID in plain or JSON form.
func printID(cmd *cobra.Command, kind, id string) error {
	if flags.jsonMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{kind + "_id": id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", kind, id)
	return nil
}
