package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToPlan_OnePerSlot(t *testing.T) {
	var plan []MealPlanItem
	for i, id := range []string{"a", "b", "c"} {
		plan = AddToPlan(plan, MealPlanItem{ID: id, Date: "2024-05-01", Type: MealLunch, RecipeID: string(rune('1' + i))})
	}
	require.Len(t, plan, 1)
	assert.Equal(t, "c", plan[0].ID)
}

func TestAddToPlan_SlotsAreIndependent(t *testing.T) {
	var plan []MealPlanItem
	plan = AddToPlan(plan, MealPlanItem{ID: "a", Date: "2024-05-01", Type: MealLunch})
	plan = AddToPlan(plan, MealPlanItem{ID: "b", Date: "2024-05-01", Type: MealDinner})
	plan = AddToPlan(plan, MealPlanItem{ID: "c", Date: "2024-05-02", Type: MealLunch})
	plan = AddToPlan(plan, MealPlanItem{ID: "d", Date: "2024-05-01", Type: MealLunch})
	assert.Len(t, plan, 3)

	seen := map[[2]string]int{}
	for _, p := range plan {
		seen[[2]string{p.Date, string(p.Type)}]++
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, "slot %v", k)
	}
}

func TestAddToPlan_SnacksAccumulate(t *testing.T) {
	var plan []MealPlanItem
	for _, id := range []string{"s1", "s2", "s3"} {
		plan = AddToPlan(plan, MealPlanItem{ID: id, Date: "2024-05-01", Type: MealSnack})
	}
	assert.Len(t, plan, 3)
}

func TestItemsForDate_Ordered(t *testing.T) {
	plan := []MealPlanItem{
		{ID: "1", Date: "2024-05-01", Type: MealSnack},
		{ID: "2", Date: "2024-05-01", Type: MealDinner},
		{ID: "3", Date: "2024-05-02", Type: MealBreakfast},
		{ID: "4", Date: "2024-05-01", Type: MealBreakfast},
		{ID: "5", Date: "2024-05-01", Type: MealLunch},
	}
	var ids []string
	for _, p := range ItemsForDate(plan, "2024-05-01") {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"4", "5", "2", "1"}, ids)
	assert.True(t, HasPlanOn(plan, "2024-05-02"))
	assert.False(t, HasPlanOn(plan, "2024-05-03"))
}

func TestRemoveFromPlan(t *testing.T) {
	plan := []MealPlanItem{
		{ID: "1", RecipeID: "r1"},
		{ID: "2", RecipeID: "r2"},
		{ID: "3", RecipeID: "r1"},
	}
	assert.Len(t, RemovePlanItem(plan, "2"), 2)
	assert.Equal(t, []MealPlanItem{{ID: "2", RecipeID: "r2"}}, RemoveRecipeFromPlan(plan, "r1"))
}

func TestUsageSince(t *testing.T) {
	plan := []MealPlanItem{
		{Date: "2024-04-20", RecipeID: "a"},
		{Date: "2024-05-01", RecipeID: "a"},
		{Date: "2024-05-02", RecipeID: "a"},
		{Date: "2024-05-02", RecipeID: "b"},
	}
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, UsageSince(plan, "2024-04-26"))
}

func TestMealPlanItem_Validate(t *testing.T) {
	assert.NoError(t, MealPlanItem{Date: "2024-05-01", Type: MealLunch}.Validate())
	assert.Error(t, MealPlanItem{Date: "2024-05-01", Type: "brunch"}.Validate())
	assert.Error(t, MealPlanItem{Date: "05/01/2024", Type: MealLunch}.Validate())
}

func TestPlanJSON(t *testing.T) {
	data, err := MarshalPlan(nil)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))

	in := []MealPlanItem{{ID: "1", Date: "2024-05-01", Type: MealSnack, RecipeID: "r"}}
	data, err = MarshalPlan(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","date":"2024-05-01","type":"snack","recipeId":"r"}]`, string(data))

	out, err := UnmarshalPlan(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
