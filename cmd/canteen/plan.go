package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage the meal plan",
	}

	add := &cobra.Command{
		Use:   "add <date> <breakfast|lunch|dinner|snack> <recipe-id>",
		Short: "Put a recipe in a meal slot",
		Args:  cobra.ExactArgs(3),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			date, err := parseDate(args[0])
			if err != nil {
				return err
			}
			if _, ok := e.ctrl.Dish(args[2]); !ok {
				return fmt.Errorf("unknown recipe %s", args[2])
			}
			item, err := e.ctrl.AddToPlan(cmd.Context(), date, models.MealType(args[1]), args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Planned %s %s (%s)\n", item.Date, item.Type, item.ID)
			return nil
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a plan item",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			return e.ctrl.RemovePlanItem(cmd.Context(), args[0])
		}),
	}

	day := &cobra.Command{
		Use:   "day [date]",
		Short: "Show the meals of a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			date := time.Now().Format(models.DateLayout)
			if len(args) == 1 {
				var err error
				if date, err = parseDate(args[0]); err != nil {
					return err
				}
			}
			meals := e.ctrl.MealsForDate(date)
			if len(meals) == 0 {
				fmt.Fprintf(e.out, "Nothing planned for %s.\n", date)
				return nil
			}
			for _, m := range meals {
				title := "(deleted recipe)"
				if m.Dish != nil {
					title = m.Dish.Title
				}
				fmt.Fprintf(e.out, "%-10s %-14s %s\n", m.Item.Type, m.Item.ID, title)
			}
			return nil
		}),
	}

	cmd.AddCommand(add, remove, day)
	return cmd
}

// parseDate accepts YYYY-MM-DD, "today" and "tomorrow".
func parseDate(s string) (string, error) {
	now := time.Now()
	switch s {
	case "today":
		return now.Format(models.DateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(models.DateLayout), nil
	}
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return s, nil
}
