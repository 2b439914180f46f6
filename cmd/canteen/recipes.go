package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/canteen-backend/internal/app"
	"github.com/AnshRaj112/canteen-backend/internal/models"
)

func recipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List and edit recipes",
	}

	var category string
	var favorites bool
	list := &cobra.Command{
		Use:   "list [query]",
		Short: "List recipes, most planned this week first",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			var dishes []models.Dish
			if favorites {
				dishes = e.ctrl.Favorites()
			} else {
				query := ""
				if len(args) == 1 {
					query = args[0]
				}
				dishes = e.ctrl.VisibleDishes(query, category)
			}
			if len(dishes) == 0 {
				fmt.Fprintln(e.out, "No recipes.")
				return nil
			}
			for _, d := range dishes {
				fav := " "
				if d.IsFavorite {
					fav = "*"
				}
				fmt.Fprintf(e.out, "%s %-14s %-8s %s %s\n", fav, d.ID, d.Category, stars(d.Rating), d.Title)
			}
			return nil
		}),
	}
	list.Flags().StringVarP(&category, "category", "c", app.CategoryAll, "Category filter")
	list.Flags().BoolVarP(&favorites, "favorites", "f", false, "Only favorites")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recipe",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			d, ok := e.ctrl.Dish(args[0])
			if !ok {
				return fmt.Errorf("recipe %s: %w", args[0], app.ErrNotFound)
			}
			printDish(e, d)
			return nil
		}),
	}

	var ingredients, steps, tags string
	var cat string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			d := models.Dish{
				Title:       args[0],
				Category:    models.Category(cat),
				Ingredients: models.ParseIngredientLines(strings.ReplaceAll(ingredients, ";", "\n")),
				Tags:        splitList(tags),
			}
			for _, s := range splitList(steps) {
				d.Steps = append(d.Steps, models.Step{Description: s})
			}
			added, err := e.ctrl.AddRecipe(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Added %s (%s)\n", added.Title, added.ID)
			return nil
		}),
	}
	add.Flags().StringVarP(&cat, "category", "c", string(models.CategoryMainMeal), "Category")
	add.Flags().StringVarP(&ingredients, "ingredients", "i", "", `Ingredients as "name amount;name amount"`)
	add.Flags().StringVarP(&steps, "steps", "s", "", "Steps separated by ;")
	add.Flags().StringVarP(&tags, "tags", "t", "", "Tags separated by ,")

	favorite := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle the favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			if err := e.ctrl.ToggleFavorite(cmd.Context(), args[0]); err != nil {
				return err
			}
			d, _ := e.ctrl.Dish(args[0])
			fmt.Fprintf(e.out, "%s favorite: %t\n", d.Title, d.IsFavorite)
			return nil
		}),
	}

	rate := &cobra.Command{
		Use:   "rate <id> <0-5>",
		Short: "Rate a recipe",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
			}
			return e.ctrl.RateRecipe(cmd.Context(), args[0], n)
		}),
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recipe and its plan entries",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, e *env, args []string) error {
			return e.ctrl.DeleteRecipe(cmd.Context(), args[0])
		}),
	}

	cmd.AddCommand(list, show, add, favorite, rate, del)
	return cmd
}

func printDish(e *env, d models.Dish) {
	fmt.Fprintf(e.out, "%s  %s  %s\n", d.Title, d.Category, stars(d.Rating))
	if d.Description != "" {
		fmt.Fprintln(e.out, d.Description)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(e.out, "Tags: %s\n", strings.Join(d.Tags, ", "))
	}
	if len(d.Ingredients) > 0 {
		fmt.Fprintln(e.out, "\nIngredients:")
		fmt.Fprintln(e.out, models.FormatIngredientLines(d.Ingredients))
	}
	if len(d.Steps) > 0 {
		fmt.Fprintln(e.out, "\nSteps:")
		for i, s := range d.Steps {
			fmt.Fprintf(e.out, "%d. %s\n", i+1, s.Description)
		}
	}
}

func stars(n int) string {
	n = models.ClampRating(n)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
