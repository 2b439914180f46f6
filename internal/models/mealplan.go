package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar date format used by plan items.
const DateLayout = "2006-01-02"

// MealType is a meal slot within a day.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// Order ranks slots within a day: breakfast, lunch, dinner, snack.
func (t MealType) Order() int {
	switch t {
	case MealBreakfast:
		return 1
	case MealLunch:
		return 2
	case MealDinner:
		return 3
	case MealSnack:
		return 4
	}
	return 5
}

// DefaultCategory is the dish category the picker opens on for this slot.
func (t MealType) DefaultCategory() Category {
	switch t {
	case MealBreakfast:
		return CategoryBreakfast
	case MealSnack:
		return CategorySnack
	default:
		return CategoryMainMeal
	}
}

type MealPlanItem struct {
	ID       string   `json:"id"`
	Date     string   `json:"date"`
	Type     MealType `json:"type"`
	RecipeID string   `json:"recipeId"`
}

// Validate checks the slot and the date format.
func (p MealPlanItem) Validate() error {
	if !p.Type.Valid() {
		return fmt.Errorf("invalid meal type %q", p.Type)
	}
	if _, err := time.Parse(DateLayout, p.Date); err != nil {
		return fmt.Errorf("invalid plan date %q: %w", p.Date, err)
	}
	return nil
}

// AddToPlan appends item. For every slot except snack, any existing item on the
// same date and slot is removed first, so the most recent add wins.
func AddToPlan(plan []MealPlanItem, item MealPlanItem) []MealPlanItem {
	out := make([]MealPlanItem, 0, len(plan)+1)
	for _, p := range plan {
		if item.Type != MealSnack && p.Date == item.Date && p.Type == item.Type {
			continue
		}
		out = append(out, p)
	}
	return append(out, item)
}

func RemovePlanItem(plan []MealPlanItem, id string) []MealPlanItem {
	out := make([]MealPlanItem, 0, len(plan))
	for _, p := range plan {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// RemoveRecipeFromPlan drops every plan item pointing at recipeID.
func RemoveRecipeFromPlan(plan []MealPlanItem, recipeID string) []MealPlanItem {
	out := make([]MealPlanItem, 0, len(plan))
	for _, p := range plan {
		if p.RecipeID != recipeID {
			out = append(out, p)
		}
	}
	return out
}

// ItemsForDate returns the items on date ordered by slot.
func ItemsForDate(plan []MealPlanItem, date string) []MealPlanItem {
	var out []MealPlanItem
	for _, p := range plan {
		if p.Date == date {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Type.Order() < out[j].Type.Order() })
	return out
}

func HasPlanOn(plan []MealPlanItem, date string) bool {
	for _, p := range plan {
		if p.Date == date {
			return true
		}
	}
	return false
}

// UsageSince counts plan items per recipe dated on or after since.
func UsageSince(plan []MealPlanItem, since string) map[string]int {
	counts := make(map[string]int)
	for _, p := range plan {
		if p.Date >= since {
			counts[p.RecipeID]++
		}
	}
	return counts
}

func MarshalPlan(plan []MealPlanItem) (json.RawMessage, error) {
	if plan == nil {
		plan = []MealPlanItem{}
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}
	return data, nil
}

func UnmarshalPlan(data []byte) ([]MealPlanItem, error) {
	if len(data) == 0 || string(data) == "null" {
		return []MealPlanItem{}, nil
	}
	var plan []MealPlanItem
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return plan, nil
}
