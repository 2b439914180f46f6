package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoppingList_RoundTrip(t *testing.T) {
	in := ShoppingList{
		ManualItems:  []ManualItem{{ID: "m1", Name: "牛奶"}, {ID: "m2", Name: "面包"}},
		CheckedItems: []string{"鸡蛋", "m1"},
	}
	assert.Equal(t, in, DecodeShoppingList(EncodeShoppingList(in)))
}

func TestShoppingList_EncodeNil(t *testing.T) {
	assert.JSONEq(t, `{"manualItems":[],"checkedItems":[]}`, EncodeShoppingList(ShoppingList{}))
}

func TestDecodeShoppingList_Malformed(t *testing.T) {
	empty := ShoppingList{ManualItems: []ManualItem{}, CheckedItems: []string{}}
	cases := map[string]string{
		"garbage":          "not json",
		"empty":            "",
		"array":            "[]",
		"null":             "null",
		"checked not list": `{"manualItems":[],"checkedItems":"x"}`,
		"manual not list":  `{"manualItems":{},"checkedItems":[]}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, empty, DecodeShoppingList(in))
		})
	}
}

func TestDecodeShoppingList_PartialFallback(t *testing.T) {
	got := DecodeShoppingList(`{"manualItems":[{"id":"a","name":"盐"}],"checkedItems":5}`)
	assert.Equal(t, []ManualItem{{ID: "a", Name: "盐"}}, got.ManualItems)
	assert.Empty(t, got.CheckedItems)
}

func TestShoppingList_Toggle(t *testing.T) {
	l := ShoppingList{}
	l = l.Toggle("鸡蛋")
	assert.True(t, l.IsChecked("鸡蛋"))
	l = l.Toggle("鸡蛋")
	assert.False(t, l.IsChecked("鸡蛋"))
}

func TestShoppingListBlob_WithList(t *testing.T) {
	blob := ShoppingListBlob{ID: "sl-1", Data: "broken"}
	assert.Empty(t, blob.List().ManualItems)

	blob = blob.WithList(ShoppingList{ManualItems: []ManualItem{{ID: "x", Name: "葱"}}})
	assert.Equal(t, "葱", blob.List().ManualItems[0].Name)
	assert.Equal(t, ShoppingListTitle, blob.ToRecipe().Title)
}

func TestBuildShoppingList(t *testing.T) {
	dishes := []Dish{
		{ID: "1", Ingredients: []Ingredient{{Name: "鸡蛋", Amount: "3个"}, {Name: "番茄", Amount: "2个"}}},
		{ID: "2", Ingredients: []Ingredient{{Name: "鸡蛋", Amount: "1个"}}},
	}
	plan := []MealPlanItem{
		{ID: "p1", Date: "2024-05-01", Type: MealLunch, RecipeID: "1"},
		{ID: "p2", Date: "2024-05-02", Type: MealBreakfast, RecipeID: "2"},
		{ID: "p3", Date: "2024-05-09", Type: MealDinner, RecipeID: "1"},
		{ID: "p4", Date: "2024-05-02", Type: MealDinner, RecipeID: "gone"},
	}
	list := ShoppingList{
		ManualItems:  []ManualItem{{ID: "m1", Name: "牛奶"}},
		CheckedItems: []string{"番茄", "m1"},
	}

	items := BuildShoppingList(dishes, plan, "2024-05-01", "2024-05-07", list)
	require.Len(t, items, 3)

	byKey := map[string]ShoppingItem{}
	for _, it := range items {
		byKey[it.Key] = it
	}
	assert.Equal(t, []string{"3个", "1个"}, byKey["鸡蛋"].Amounts)
	assert.False(t, byKey["鸡蛋"].Checked)
	assert.True(t, byKey["番茄"].Checked)
	assert.True(t, byKey["m1"].Manual)
	assert.True(t, byKey["m1"].Checked)
	assert.Equal(t, "m1", items[2].Key)
}
