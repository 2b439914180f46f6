package models

import (
	"strings"
	"time"
)

// PlaceholderImage is used for dishes created from an AI draft.
const PlaceholderImage = "https://images.unsplash.com/photo-1495521821757-a1efb6729352?w=800"

// RecipeDraft is the structured output of the recipe-generation collaborator.
type RecipeDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	Tags        []string     `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
}

type GenerateRecipeRequest struct {
	Idea string `json:"idea"`
}

type GenerateRecipeResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Draft   *RecipeDraft `json:"draft,omitempty"`
}

// Normalize trims the draft and coerces an unknown category to CategoryOther.
func (d RecipeDraft) Normalize() RecipeDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if !d.Category.IsDish() {
		d.Category = CategoryOther
	}
	ings := make([]Ingredient, 0, len(d.Ingredients))
	for _, i := range d.Ingredients {
		name := strings.TrimSpace(i.Name)
		if name == "" {
			continue
		}
		amount := strings.TrimSpace(i.Amount)
		if amount == "" {
			amount = DefaultIngredientAmount
		}
		ings = append(ings, Ingredient{Name: name, Amount: amount})
	}
	d.Ingredients = ings
	steps := make([]string, 0, len(d.Steps))
	for _, s := range d.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	d.Steps = steps
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

// ToDish turns a draft into a new unrated dish.
func (d RecipeDraft) ToDish(now time.Time) Dish {
	d = d.Normalize()
	steps := make([]Step, 0, len(d.Steps))
	for _, s := range d.Steps {
		steps = append(steps, Step{Description: s})
	}
	return Dish{
		ID:          NewEntryID("", now),
		Title:       d.Title,
		Description: d.Description,
		Image:       PlaceholderImage,
		Category:    d.Category,
		Ingredients: d.Ingredients,
		Steps:       steps,
		CreatedAt:   now.UnixMilli(),
		Tags:        d.Tags,
	}
}
