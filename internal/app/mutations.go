package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

const deleteMessagePrompt = "删除这条留言?"

func findEntry(entries []models.Entry, id string) int {
	for i, e := range entries {
		if e.EntryID() == id {
			return i
		}
	}
	return -1
}

func (c *Controller) updateDish(ctx context.Context, id string, fn func(d *models.Dish)) error {
	return c.mutate(ctx, models.BucketRecipes, func(s *State) error {
		i := findEntry(s.Entries, id)
		if i < 0 {
			return fmt.Errorf("recipe %s: %w", id, ErrNotFound)
		}
		d, ok := s.Entries[i].(models.Dish)
		if !ok {
			return fmt.Errorf("entry %s is not a recipe: %w", id, ErrNotFound)
		}
		fn(&d)
		s.Entries = replaceAt(s.Entries, i, d)
		return nil
	})
}

// replaceAt returns a copy of entries with position i set to e, so snapshots
// handed out earlier never observe the change.
func replaceAt(entries []models.Entry, i int, e models.Entry) []models.Entry {
	out := make([]models.Entry, len(entries))
	copy(out, entries)
	out[i] = e
	return out
}

func prepend(entries []models.Entry, e models.Entry) []models.Entry {
	out := make([]models.Entry, 0, len(entries)+1)
	out = append(out, e)
	return append(out, entries...)
}

// AddRecipe stores a new dish at the top of the list. The id, rating and
// favorite flag are assigned here.
func (c *Controller) AddRecipe(ctx context.Context, d models.Dish) (models.Dish, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return models.Dish{}, fmt.Errorf("recipe title is required")
	}
	now := c.now()
	d.ID = models.NewEntryID("", now)
	d.CreatedAt = now.UnixMilli()
	d.Rating = 0
	d.IsFavorite = false
	if !d.Category.IsDish() {
		d.Category = models.CategoryOther
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}

	err := c.mutate(ctx, models.BucketRecipes, func(s *State) error {
		s.Entries = prepend(s.Entries, d)
		return nil
	})
	return d, err
}

// UpdateRecipe replaces the editable fields of a dish. Creation time, rating
// and favorite flag are kept.
func (c *Controller) UpdateRecipe(ctx context.Context, d models.Dish) error {
	return c.updateDish(ctx, d.ID, func(cur *models.Dish) {
		d.CreatedAt = cur.CreatedAt
		d.Rating = cur.Rating
		d.IsFavorite = cur.IsFavorite
		if !d.Category.IsDish() {
			d.Category = cur.Category
		}
		if d.Tags == nil {
			d.Tags = []string{}
		}
		*cur = d
	})
}

// DeleteRecipe removes a dish and every plan item that refers to it.
func (c *Controller) DeleteRecipe(ctx context.Context, id string) error {
	return c.mutateBuckets(ctx, func(s *State) ([]models.Bucket, error) {
		i := findEntry(s.Entries, id)
		if i < 0 {
			return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
		}
		s.Entries = removeAt(s.Entries, i)
		changed := []models.Bucket{models.BucketRecipes}
		if plan := models.RemoveRecipeFromPlan(s.Plan, id); len(plan) != len(s.Plan) {
			s.Plan = plan
			changed = append(changed, models.BucketPlan)
		}
		return changed, nil
	})
}

func removeAt(entries []models.Entry, i int) []models.Entry {
	out := make([]models.Entry, 0, len(entries)-1)
	out = append(out, entries[:i]...)
	return append(out, entries[i+1:]...)
}

func (c *Controller) ToggleFavorite(ctx context.Context, id string) error {
	return c.updateDish(ctx, id, func(d *models.Dish) {
		d.IsFavorite = !d.IsFavorite
	})
}

// RateRecipe sets the rating, clamped to 0-5.
func (c *Controller) RateRecipe(ctx context.Context, id string, rating int) error {
	return c.updateDish(ctx, id, func(d *models.Dish) {
		d.Rating = models.ClampRating(rating)
	})
}

// PostMessage adds a household message signed with the profile name and avatar.
func (c *Controller) PostMessage(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, fmt.Errorf("message text is required")
	}
	now := c.now()
	var m models.Message
	err := c.mutate(ctx, models.BucketRecipes, func(s *State) error {
		m = models.Message{
			ID:        models.NewEntryID(models.MessageIDPrefix, now),
			Text:      text,
			Author:    s.Profile.Name,
			Avatar:    s.Profile.Avatar,
			CreatedAt: now.UnixMilli(),
		}
		s.Entries = prepend(s.Entries, m)
		return nil
	})
	return m, err
}

// DeleteMessage removes a message after confirmation.
func (c *Controller) DeleteMessage(ctx context.Context, id string) error {
	if !c.confirm(deleteMessagePrompt) {
		return ErrCancelled
	}
	return c.mutate(ctx, models.BucketRecipes, func(s *State) error {
		i := findEntry(s.Entries, id)
		if i < 0 {
			return fmt.Errorf("message %s: %w", id, ErrNotFound)
		}
		if _, ok := s.Entries[i].(models.Message); !ok {
			return fmt.Errorf("entry %s is not a message: %w", id, ErrNotFound)
		}
		s.Entries = removeAt(s.Entries, i)
		return nil
	})
}

// UpdateShoppingList rewrites the shopping-list blob, creating it on first use.
func (c *Controller) UpdateShoppingList(ctx context.Context, fn func(models.ShoppingList) models.ShoppingList) error {
	now := c.now()
	return c.mutate(ctx, models.BucketRecipes, func(s *State) error {
		for i, e := range s.Entries {
			if blob, ok := e.(models.ShoppingListBlob); ok {
				s.Entries = replaceAt(s.Entries, i, blob.WithList(fn(blob.List())))
				return nil
			}
		}
		blob := models.ShoppingListBlob{
			ID:        models.NewEntryID(models.ShoppingListIDPrefix, now),
			CreatedAt: now.UnixMilli(),
		}
		empty := models.ShoppingList{ManualItems: []models.ManualItem{}, CheckedItems: []string{}}
		s.Entries = append(append([]models.Entry{}, s.Entries...), blob.WithList(fn(empty)))
		return nil
	})
}

// AddShoppingItem appends a manual item and returns its id.
func (c *Controller) AddShoppingItem(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("item name is required")
	}
	id := models.NewEntryID("manual-", c.now())
	err := c.UpdateShoppingList(ctx, func(l models.ShoppingList) models.ShoppingList {
		l.ManualItems = append(append([]models.ManualItem{}, l.ManualItems...), models.ManualItem{ID: id, Name: name})
		return l
	})
	return id, err
}

// ToggleShoppingItem flips the checked state of an item key: an ingredient
// name or a manual item id.
func (c *Controller) ToggleShoppingItem(ctx context.Context, key string) error {
	return c.UpdateShoppingList(ctx, func(l models.ShoppingList) models.ShoppingList {
		return l.Toggle(key)
	})
}

// RemoveShoppingItem drops a manual item and its checked state.
func (c *Controller) RemoveShoppingItem(ctx context.Context, id string) error {
	return c.UpdateShoppingList(ctx, func(l models.ShoppingList) models.ShoppingList {
		items := make([]models.ManualItem, 0, len(l.ManualItems))
		for _, m := range l.ManualItems {
			if m.ID != id {
				items = append(items, m)
			}
		}
		l.ManualItems = items
		if l.IsChecked(id) {
			l = l.Toggle(id)
		}
		return l
	})
}

// AddToPlan places a recipe in a meal slot. Breakfast, lunch and dinner hold
// one item per date, so an earlier item in that slot is replaced.
func (c *Controller) AddToPlan(ctx context.Context, date string, mealType models.MealType, recipeID string) (models.MealPlanItem, error) {
	item := models.MealPlanItem{
		ID:       models.NewEntryID("", c.now()),
		Date:     date,
		Type:     mealType,
		RecipeID: recipeID,
	}
	if err := item.Validate(); err != nil {
		return models.MealPlanItem{}, err
	}
	err := c.mutate(ctx, models.BucketPlan, func(s *State) error {
		s.Plan = models.AddToPlan(s.Plan, item)
		return nil
	})
	return item, err
}

func (c *Controller) RemovePlanItem(ctx context.Context, id string) error {
	return c.mutate(ctx, models.BucketPlan, func(s *State) error {
		plan := models.RemovePlanItem(s.Plan, id)
		if len(plan) == len(s.Plan) {
			return fmt.Errorf("plan item %s: %w", id, ErrNotFound)
		}
		s.Plan = plan
		return nil
	})
}

func (c *Controller) UpdateProfile(ctx context.Context, fn func(models.UserProfile) models.UserProfile) error {
	return c.mutate(ctx, models.BucketProfile, func(s *State) error {
		s.Profile = fn(s.Profile)
		return nil
	})
}

// SetTitle overrides one view title.
func (c *Controller) SetTitle(ctx context.Context, key models.TitleKey, value string) error {
	return c.mutate(ctx, models.BucketProfile, func(s *State) error {
		p, err := s.Profile.SetTitle(key, value)
		if err != nil {
			return err
		}
		s.Profile = p
		return nil
	})
}

// GenerateDraft asks the AI collaborator for a recipe and returns it as an
// unsaved dish. Failures are returned as-is; there is no retry.
func (c *Controller) GenerateDraft(ctx context.Context, idea string) (models.Dish, error) {
	if c.generator == nil {
		return models.Dish{}, fmt.Errorf("recipe generation is not configured")
	}
	draft, err := c.generator.GenerateRecipe(ctx, idea)
	if err != nil {
		return models.Dish{}, fmt.Errorf("failed to generate recipe: %w", err)
	}
	return draft.ToDish(c.now()), nil
}
