package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/canteen-backend/internal/app"
	"github.com/AnshRaj112/canteen-backend/internal/models"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show household, sync and data summary",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			s := e.ctrl.State()
			fmt.Fprintln(e.out, s.Profile.Titles.Home)
			fmt.Fprintln(e.out, strings.Repeat("=", 30))
			fmt.Fprintf(e.out, "Device:    %s\n", e.deviceID)
			if s.Household != nil {
				fmt.Fprintf(e.out, "Household: %s (code %s, revision %d)\n", s.Household.Name, s.Household.InviteCode, s.Revision)
			} else {
				fmt.Fprintln(e.out, "Household: none (local only)")
			}
			fmt.Fprintf(e.out, "Recipes:   %d\n", len(models.Dishes(s.Entries)))
			fmt.Fprintf(e.out, "Messages:  %d\n", len(models.Messages(s.Entries)))
			fmt.Fprintf(e.out, "Planned:   %d\n", len(s.Plan))
			fmt.Fprintf(e.out, "Profile:   %s %s\n", s.Profile.Avatar, s.Profile.Name)
			if s.LastError != nil {
				fmt.Fprintf(e.out, "Last error: %v\n", s.LastError)
			}
			return nil
		}),
	}
}

func messageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Household message board",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show messages, newest first",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			for _, m := range e.ctrl.Messages() {
				at := time.UnixMilli(m.CreatedAt).Format("01-02 15:04")
				fmt.Fprintf(e.out, "%s %s %s: %s  (%s)\n", at, m.Avatar, m.Author, m.Text, m.ID)
			}
			return nil
		}),
	}

	post := &cobra.Command{
		Use:   "post <text>",
		Short: "Post a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			_, err := e.ctrl.PostMessage(cmd.Context(), strings.Join(args, " "))
			return err
		}),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			return e.ctrl.DeleteMessage(cmd.Context(), args[0])
		}),
	}

	cmd.AddCommand(list, post, del)
	return cmd
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload everything from the household store",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			if err := e.ctrl.Refresh(cmd.Context()); err != nil {
				return err
			}
			s := e.ctrl.State()
			fmt.Fprintf(e.out, "Loaded %d entries and %d plan items (revision %d).\n", len(s.Entries), len(s.Plan), s.Revision)
			return nil
		}),
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow household changes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := make(chan struct{}, 1)
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			if e.ctrl.State().Household == nil {
				return fmt.Errorf("not in a household; run 'canteen household join <code>' first")
			}

			e.ctrl.OnChange(func(s app.State) {
				if s.Loading || s.Syncing {
					return
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			fmt.Fprintf(e.out, "Watching %s. Ctrl-C to stop.\n", e.ctrl.State().Household.Name)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-changes:
					s := e.ctrl.State()
					fmt.Fprintf(e.out, "%s  revision %d: %d entries, %d plan items\n",
						time.Now().Format("15:04:05"), s.Revision, len(s.Entries), len(s.Plan))
				}
			}
		},
	}
}

func generateCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "generate <idea>",
		Short: "Draft a recipe with AI",
		Args:  cobra.MinimumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			d, err := e.ctrl.GenerateDraft(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("%w (try again)", err)
			}
			printDish(e, d)
			if !save {
				return nil
			}
			added, err := e.ctrl.AddRecipe(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "\nSaved as %s\n", added.ID)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&save, "save", false, "Save the draft as a recipe")
	return cmd
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all local recipes, plans and the household reference",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			if err := e.ctrl.ResetAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "All local data cleared.")
			return nil
		}),
	}
}
