package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func householdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "household",
		Short: "Share recipes and plans with a household",
	}

	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a household and copy local data into it",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			h, err := e.ctrl.CreateHousehold(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Created %q. Invite code: %s\n", h.Name, h.InviteCode)
			return nil
		}),
	}

	join := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a household by invite code",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			h, err := e.ctrl.JoinHousehold(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if h == nil {
				fmt.Fprintln(e.out, "No household found for that code.")
				return nil
			}
			fmt.Fprintf(e.out, "Joined %q. Local data was merged.\n", h.Name)
			return nil
		}),
	}

	leave := &cobra.Command{
		Use:   "leave",
		Short: "Leave the household and return to local-only mode",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			if err := e.ctrl.LeaveHousehold(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Left the household.")
			return nil
		}),
	}

	rename := &cobra.Command{
		Use:   "rename <name>",
		Short: "Rename the household for every member",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			return e.ctrl.RenameHousehold(cmd.Context(), args[0])
		}),
	}

	cmd.AddCommand(create, join, leave, rename)
	return cmd
}
