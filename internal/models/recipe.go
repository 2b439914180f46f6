package models

import (
	"strings"
)

// Category is the stored category string of a recipes-bucket entry. Two values
// (message and shopping list) are storage overloads rather than dish categories.
type Category string

const (
	CategoryMainMeal     Category = "正餐"
	CategoryBreakfast    Category = "早餐"
	CategorySnack        Category = "小食/甜点"
	CategoryDrink        Category = "饮品"
	CategoryOther        Category = "其他"
	CategoryMessage      Category = "留言"
	CategoryShoppingList Category = "购物清单"
)

// DishCategories lists the categories a dish or an AI draft may carry.
var DishCategories = []Category{
	CategoryMainMeal,
	CategoryBreakfast,
	CategorySnack,
	CategoryDrink,
	CategoryOther,
}

// IsDish reports whether c is one of the five dish categories.
func (c Category) IsDish() bool {
	for _, d := range DishCategories {
		if c == d {
			return true
		}
	}
	return false
}

// DefaultIngredientAmount is used when an ingredient line carries no amount.
const DefaultIngredientAmount = "适量"

type Ingredient struct {
	Name   string `json:"name" bson:"name"`
	Amount string `json:"amount" bson:"amount"`
}

type Step struct {
	Description string `json:"description" bson:"description"`
	Image       string `json:"image,omitempty" bson:"image,omitempty"`
}

// Recipe is the stored shape of one entry in the recipes bucket. The JSON keys
// match the local-storage format of the web client, so buckets written by either
// side stay readable by the other.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       string       `json:"image"`
	Category    Category     `json:"category"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
	CreatedAt   int64        `json:"createdAt"`
	Rating      int          `json:"rating,omitempty"`
	IsFavorite  bool         `json:"isFavorite,omitempty"`
	Tags        []string     `json:"tags"`
}

// normalized replaces nil slices with empty ones so they encode as [] instead of null.
func (r Recipe) normalized() Recipe {
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	if r.Steps == nil {
		r.Steps = []Step{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}

// ParseIngredientLines turns "name amount" lines into ingredients. Blank lines are
// skipped and a missing amount becomes DefaultIngredientAmount.
func ParseIngredientLines(text string) []Ingredient {
	var out []Ingredient
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, " ")
		amount := strings.TrimSpace(strings.Join(parts[1:], " "))
		if amount == "" {
			amount = DefaultIngredientAmount
		}
		out = append(out, Ingredient{Name: parts[0], Amount: amount})
	}
	return out
}

// FormatIngredientLines is the inverse of ParseIngredientLines.
func FormatIngredientLines(ingredients []Ingredient) string {
	lines := make([]string, 0, len(ingredients))
	for _, i := range ingredients {
		lines = append(lines, i.Name+" "+i.Amount)
	}
	return strings.Join(lines, "\n")
}

// ClampRating keeps a rating inside 0..5.
func ClampRating(rating int) int {
	if rating < 0 {
		return 0
	}
	if rating > 5 {
		return 5
	}
	return rating
}
