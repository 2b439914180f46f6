package app

import (
	"sort"
	"strings"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

// CategoryAll selects every dish category in VisibleDishes.
const CategoryAll = "全部"

// usageWindowDays is how far back plan usage counts toward dish ordering.
const usageWindowDays = 7

// VisibleDishes returns the dishes matching query and category, most planned
// in the last week first, then newest. The query matches the title, an
// ingredient name or a tag, case-insensitively.
func (c *Controller) VisibleDishes(query, category string) []models.Dish {
	s := c.State()
	q := strings.ToLower(strings.TrimSpace(query))

	var out []models.Dish
	for _, d := range models.Dishes(s.Entries) {
		if category != "" && category != CategoryAll && string(d.Category) != category {
			continue
		}
		if q != "" && !dishMatches(d, q) {
			continue
		}
		out = append(out, d)
	}

	since := c.now().AddDate(0, 0, -usageWindowDays).Format(models.DateLayout)
	usage := models.UsageSince(s.Plan, since)
	sort.SliceStable(out, func(i, j int) bool {
		ui, uj := usage[out[i].ID], usage[out[j].ID]
		if ui != uj {
			return ui > uj
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

func dishMatches(d models.Dish, q string) bool {
	if strings.Contains(strings.ToLower(d.Title), q) {
		return true
	}
	for _, i := range d.Ingredients {
		if strings.Contains(strings.ToLower(i.Name), q) {
			return true
		}
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (c *Controller) Favorites() []models.Dish {
	var out []models.Dish
	for _, d := range models.Dishes(c.State().Entries) {
		if d.IsFavorite {
			out = append(out, d)
		}
	}
	return out
}

// Dish looks up a dish by id.
func (c *Controller) Dish(id string) (models.Dish, bool) {
	for _, d := range models.Dishes(c.State().Entries) {
		if d.ID == id {
			return d, true
		}
	}
	return models.Dish{}, false
}

// Messages returns the household messages, newest first.
func (c *Controller) Messages() []models.Message {
	msgs := models.Messages(c.State().Entries)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt > msgs[j].CreatedAt })
	return msgs
}

// ShoppingList decodes the stored manual items and checked state.
func (c *Controller) ShoppingList() models.ShoppingList {
	if blob, ok := models.FindShoppingList(c.State().Entries); ok {
		return blob.List()
	}
	return models.ShoppingList{ManualItems: []models.ManualItem{}, CheckedItems: []string{}}
}

// ShoppingItems derives the shopping list for plan dates in [from, to].
func (c *Controller) ShoppingItems(from, to string) []models.ShoppingItem {
	s := c.State()
	list := models.ShoppingList{}
	if blob, ok := models.FindShoppingList(s.Entries); ok {
		list = blob.List()
	}
	return models.BuildShoppingList(models.Dishes(s.Entries), s.Plan, from, to, list)
}

// PlannedMeal is a plan item with its dish resolved. Dish is nil when the
// recipe no longer exists.
type PlannedMeal struct {
	Item models.MealPlanItem
	Dish *models.Dish
}

// MealsForDate returns the plan of one day in slot order.
func (c *Controller) MealsForDate(date string) []PlannedMeal {
	s := c.State()
	byID := make(map[string]models.Dish)
	for _, d := range models.Dishes(s.Entries) {
		byID[d.ID] = d
	}
	items := models.ItemsForDate(s.Plan, date)
	out := make([]PlannedMeal, 0, len(items))
	for _, it := range items {
		pm := PlannedMeal{Item: it}
		if d, ok := byID[it.RecipeID]; ok {
			pm.Dish = &d
		}
		out = append(out, pm)
	}
	return out
}

func (c *Controller) HasPlanOn(date string) bool {
	return models.HasPlanOn(c.State().Plan, date)
}
