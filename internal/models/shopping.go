package models

import (
	"encoding/json"
	"sort"
)

type ManualItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShoppingList is the decoded content of a ShoppingListBlob.
type ShoppingList struct {
	ManualItems  []ManualItem `json:"manualItems"`
	CheckedItems []string     `json:"checkedItems"`
}

// EncodeShoppingList serializes l. Nil slices encode as empty arrays.
func EncodeShoppingList(l ShoppingList) string {
	if l.ManualItems == nil {
		l.ManualItems = []ManualItem{}
	}
	if l.CheckedItems == nil {
		l.CheckedItems = []string{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return `{"manualItems":[],"checkedItems":[]}`
	}
	return string(data)
}

// DecodeShoppingList parses a stored blob. Anything malformed decodes to an
// empty list; each field falls back on its own, so a valid manualItems survives
// a broken checkedItems.
func DecodeShoppingList(s string) ShoppingList {
	out := ShoppingList{ManualItems: []ManualItem{}, CheckedItems: []string{}}

	var raw struct {
		ManualItems  json.RawMessage `json:"manualItems"`
		CheckedItems json.RawMessage `json:"checkedItems"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return out
	}

	var manual []ManualItem
	if len(raw.ManualItems) > 0 && json.Unmarshal(raw.ManualItems, &manual) == nil && manual != nil {
		out.ManualItems = manual
	}
	var checked []string
	if len(raw.CheckedItems) > 0 && json.Unmarshal(raw.CheckedItems, &checked) == nil && checked != nil {
		out.CheckedItems = checked
	}
	return out
}

// IsChecked reports whether key is in the checked set.
func (l ShoppingList) IsChecked(key string) bool {
	for _, c := range l.CheckedItems {
		if c == key {
			return true
		}
	}
	return false
}

// Toggle flips the checked state of key.
func (l ShoppingList) Toggle(key string) ShoppingList {
	checked := make([]string, 0, len(l.CheckedItems)+1)
	found := false
	for _, c := range l.CheckedItems {
		if c == key {
			found = true
			continue
		}
		checked = append(checked, c)
	}
	if !found {
		checked = append(checked, key)
	}
	l.CheckedItems = checked
	return l
}

// ShoppingItem is one line of the derived shopping list.
type ShoppingItem struct {
	Key     string
	Name    string
	Amounts []string
	Manual  bool
	Checked bool
}

// BuildShoppingList derives the shopping list for plan items dated within
// [from, to] (inclusive, YYYY-MM-DD). Ingredients of planned dishes are merged by
// name, keyed by name; manual items follow, keyed by their id.
func BuildShoppingList(dishes []Dish, plan []MealPlanItem, from, to string, list ShoppingList) []ShoppingItem {
	byID := make(map[string]Dish, len(dishes))
	for _, d := range dishes {
		byID[d.ID] = d
	}

	index := make(map[string]int)
	var items []ShoppingItem
	for _, p := range plan {
		if p.Date < from || p.Date > to {
			continue
		}
		dish, ok := byID[p.RecipeID]
		if !ok {
			continue
		}
		for _, ing := range dish.Ingredients {
			if i, seen := index[ing.Name]; seen {
				items[i].Amounts = append(items[i].Amounts, ing.Amount)
				continue
			}
			index[ing.Name] = len(items)
			items = append(items, ShoppingItem{
				Key:     ing.Name,
				Name:    ing.Name,
				Amounts: []string{ing.Amount},
			})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	for _, m := range list.ManualItems {
		items = append(items, ShoppingItem{Key: m.ID, Name: m.Name, Manual: true})
	}
	for i := range items {
		items[i].Checked = list.IsChecked(items[i].Key)
	}
	return items
}
