package models

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecipe_Variants(t *testing.T) {
	recipes := []Recipe{
		{ID: "1", Title: "番茄炒蛋", Category: CategoryMainMeal, CreatedAt: 10},
		{ID: "msg-2", Title: "晚上吃啥", Description: "小企鹅", Image: "🐧", Category: CategoryMessage, CreatedAt: 20},
		{ID: "sl-3", Title: ShoppingListTitle, Description: `{"manualItems":[],"checkedItems":[]}`, Category: CategoryShoppingList, CreatedAt: 30},
	}

	entries := DecodeEntries(recipes)
	require.Len(t, entries, 3)

	dish, ok := entries[0].(Dish)
	require.True(t, ok)
	assert.Equal(t, "番茄炒蛋", dish.Title)

	msg, ok := entries[1].(Message)
	require.True(t, ok)
	assert.Equal(t, "晚上吃啥", msg.Text)
	assert.Equal(t, "小企鹅", msg.Author)
	assert.Equal(t, "🐧", msg.Avatar)

	blob, ok := entries[2].(ShoppingListBlob)
	require.True(t, ok)
	assert.Equal(t, KindShoppingList, blob.Kind())
	assert.Equal(t, int64(30), blob.CreatedAtMillis())
}

func TestMarshalEntries_KeepsStoredShape(t *testing.T) {
	in := `[{"id":"msg-1","title":"hi","description":"me","image":"🐧","category":"留言","ingredients":[],"steps":[],"createdAt":5,"tags":[]}]`

	entries, err := UnmarshalEntries([]byte(in))
	require.NoError(t, err)

	out, err := MarshalEntries(entries)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestUnmarshalEntries_Empty(t *testing.T) {
	for _, in := range []string{"", "null", "[]"} {
		entries, err := UnmarshalEntries([]byte(in))
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

func TestUnmarshalEntries_Malformed(t *testing.T) {
	_, err := UnmarshalEntries([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}

func TestDishRoundTrip(t *testing.T) {
	d := Dish{
		ID:          "42",
		Title:       "红烧肉",
		Category:    CategoryMainMeal,
		Ingredients: []Ingredient{{Name: "五花肉", Amount: "500克"}},
		Steps:       []Step{{Description: "炖", Image: "data:image/png;base64,xx"}},
		CreatedAt:   1,
		Rating:      3,
		IsFavorite:  true,
		Tags:        []string{"硬菜"},
	}
	got := FromRecipe(d.ToRecipe())
	if diff := cmp.Diff(Entry(d), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFilters(t *testing.T) {
	entries := []Entry{
		Dish{ID: "1"},
		Message{ID: "msg-1"},
		ShoppingListBlob{ID: "sl-1"},
		Dish{ID: "2"},
	}
	assert.Len(t, Dishes(entries), 2)
	assert.Len(t, Messages(entries), 1)

	blob, ok := FindShoppingList(entries)
	require.True(t, ok)
	assert.Equal(t, "sl-1", blob.ID)

	_, ok = FindShoppingList(entries[:2])
	assert.False(t, ok)
}

func TestNewEntryID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.True(t, strings.HasPrefix(NewEntryID("", now), "1700000000123"))
	assert.True(t, strings.HasPrefix(NewEntryID(MessageIDPrefix, now), "msg-1700000000123"))
	assert.True(t, strings.HasPrefix(NewEntryID(ShoppingListIDPrefix, now), "sl-1700000000123"))

	later := time.Now().Add(24 * time.Hour)
	assert.Equal(t, strconv.FormatInt(later.UnixMilli(), 10), NewEntryID("", later))
}

func TestNewEntryIDUniqueWithinMillisecond(t *testing.T) {
	now := time.UnixMilli(1700000000456)
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := NewEntryID("", now)
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
	for id := range seen {
		assert.True(t, strings.HasPrefix(id, "1700000000456"), id)
	}
}

func TestStarterDishes(t *testing.T) {
	starters := StarterDishes()
	require.NotEmpty(t, starters)
	for _, e := range starters {
		d, ok := e.(Dish)
		require.True(t, ok)
		assert.True(t, d.Category.IsDish(), d.Title)
	}
}
