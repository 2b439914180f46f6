package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

func shoppingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopping",
		Short: "Shopping list for the planned week",
	}

	var days int
	show := &cobra.Command{
		Use:   "show",
		Short: "Show ingredients of planned meals plus manual items",
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			from := time.Now()
			to := from.AddDate(0, 0, days-1)
			items := e.ctrl.ShoppingItems(from.Format(models.DateLayout), to.Format(models.DateLayout))
			if len(items) == 0 {
				fmt.Fprintln(e.out, "Shopping list is empty.")
				return nil
			}
			for _, it := range items {
				box := "[ ]"
				if it.Checked {
					box = "[x]"
				}
				line := it.Name
				if len(it.Amounts) > 0 {
					line += "  " + strings.Join(it.Amounts, " + ")
				}
				if it.Manual {
					line += "  (" + it.Key + ")"
				}
				fmt.Fprintf(e.out, "%s %s\n", box, line)
			}
			return nil
		}),
	}
	show.Flags().IntVarP(&days, "days", "d", 7, "Number of days starting today")

	add := &cobra.Command{
		Use:   "add <item>",
		Short: "Add a manual item",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			id, err := e.ctrl.AddShoppingItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Added %s (%s)\n", args[0], id)
			return nil
		}),
	}

	check := &cobra.Command{
		Use:   "check <ingredient-or-item-id>",
		Short: "Toggle the checked state of an item",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			return e.ctrl.ToggleShoppingItem(cmd.Context(), args[0])
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a manual item",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			return e.ctrl.RemoveShoppingItem(cmd.Context(), args[0])
		}),
	}

	cmd.AddCommand(show, add, check, remove)
	return cmd
}
