package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// EntryKind tells the variants of the recipes bucket apart.
type EntryKind string

const (
	KindDish         EntryKind = "dish"
	KindMessage      EntryKind = "message"
	KindShoppingList EntryKind = "shopping_list"
)

// Entry is one element of the recipes bucket: a Dish, a Message or a
// ShoppingListBlob. The set is closed; only this package implements it.
type Entry interface {
	EntryID() string
	CreatedAtMillis() int64
	Kind() EntryKind
	ToRecipe() Recipe
	isEntry()
}

// Dish is a real recipe.
type Dish struct {
	ID          string
	Title       string
	Description string
	Image       string
	Category    Category
	Ingredients []Ingredient
	Steps       []Step
	CreatedAt   int64
	Rating      int
	IsFavorite  bool
	Tags        []string
}

func (d Dish) EntryID() string        { return d.ID }
func (d Dish) CreatedAtMillis() int64 { return d.CreatedAt }
func (d Dish) Kind() EntryKind        { return KindDish }
func (Dish) isEntry()                 {}

func (d Dish) ToRecipe() Recipe {
	return Recipe{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Image:       d.Image,
		Category:    d.Category,
		Ingredients: d.Ingredients,
		Steps:       d.Steps,
		CreatedAt:   d.CreatedAt,
		Rating:      d.Rating,
		IsFavorite:  d.IsFavorite,
		Tags:        d.Tags,
	}.normalized()
}

// HasTag reports whether the dish carries tag.
func (d Dish) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Message is a household message-board post. It is stored in the recipes bucket
// with title = text, description = author and image = avatar.
type Message struct {
	ID        string
	Text      string
	Author    string
	Avatar    string
	CreatedAt int64
}

func (m Message) EntryID() string        { return m.ID }
func (m Message) CreatedAtMillis() int64 { return m.CreatedAt }
func (m Message) Kind() EntryKind        { return KindMessage }
func (Message) isEntry()                 {}

func (m Message) ToRecipe() Recipe {
	return Recipe{
		ID:          m.ID,
		Title:       m.Text,
		Description: m.Author,
		Image:       m.Avatar,
		Category:    CategoryMessage,
		CreatedAt:   m.CreatedAt,
	}.normalized()
}

// ShoppingListTitle is the fixed title of the stored shopping-list entry.
const ShoppingListTitle = "Shopping List Data"

// ShoppingListBlob holds the manual shopping items and checked state as a JSON
// string in the description of a recipes-bucket entry. Data is kept verbatim so
// a blob that fails to decode is not rewritten until the list is next updated.
type ShoppingListBlob struct {
	ID        string
	CreatedAt int64
	Data      string
}

func (s ShoppingListBlob) EntryID() string        { return s.ID }
func (s ShoppingListBlob) CreatedAtMillis() int64 { return s.CreatedAt }
func (s ShoppingListBlob) Kind() EntryKind        { return KindShoppingList }
func (ShoppingListBlob) isEntry()                 {}

func (s ShoppingListBlob) ToRecipe() Recipe {
	return Recipe{
		ID:          s.ID,
		Title:       ShoppingListTitle,
		Description: s.Data,
		Category:    CategoryShoppingList,
		CreatedAt:   s.CreatedAt,
	}.normalized()
}

// List decodes the blob, falling back to an empty list.
func (s ShoppingListBlob) List() ShoppingList {
	return DecodeShoppingList(s.Data)
}

// WithList returns a copy of the blob holding l.
func (s ShoppingListBlob) WithList(l ShoppingList) ShoppingListBlob {
	s.Data = EncodeShoppingList(l)
	return s
}

// FromRecipe maps a stored recipe onto its variant by category.
func FromRecipe(r Recipe) Entry {
	switch r.Category {
	case CategoryMessage:
		return Message{
			ID:        r.ID,
			Text:      r.Title,
			Author:    r.Description,
			Avatar:    r.Image,
			CreatedAt: r.CreatedAt,
		}
	case CategoryShoppingList:
		return ShoppingListBlob{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			Data:      r.Description,
		}
	default:
		return Dish{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Image:       r.Image,
			Category:    r.Category,
			Ingredients: r.Ingredients,
			Steps:       r.Steps,
			CreatedAt:   r.CreatedAt,
			Rating:      r.Rating,
			IsFavorite:  r.IsFavorite,
			Tags:        r.Tags,
		}
	}
}

func DecodeEntries(recipes []Recipe) []Entry {
	out := make([]Entry, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, FromRecipe(r))
	}
	return out
}

func EncodeEntries(entries []Entry) []Recipe {
	out := make([]Recipe, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToRecipe())
	}
	return out
}

// MarshalEntries encodes entries in the stored bucket format.
func MarshalEntries(entries []Entry) (json.RawMessage, error) {
	data, err := json.Marshal(EncodeEntries(entries))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipes: %w", err)
	}
	return data, nil
}

// UnmarshalEntries decodes a stored recipes bucket. Empty input is an empty bucket.
func UnmarshalEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 || string(data) == "null" {
		return []Entry{}, nil
	}
	var recipes []Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipes: %w", err)
	}
	return DecodeEntries(recipes), nil
}

// Dishes returns the dish entries in bucket order.
func Dishes(entries []Entry) []Dish {
	var out []Dish
	for _, e := range entries {
		if d, ok := e.(Dish); ok {
			out = append(out, d)
		}
	}
	return out
}

// Messages returns the message entries in bucket order.
func Messages(entries []Entry) []Message {
	var out []Message
	for _, e := range entries {
		if m, ok := e.(Message); ok {
			out = append(out, m)
		}
	}
	return out
}

// FindShoppingList returns the first shopping-list entry, if any.
func FindShoppingList(entries []Entry) (ShoppingListBlob, bool) {
	for _, e := range entries {
		if s, ok := e.(ShoppingListBlob); ok {
			return s, true
		}
	}
	return ShoppingListBlob{}, false
}

var entryIDs = struct {
	sync.Mutex
	last map[string]int64
	seq  int64
}{last: make(map[string]int64)}

// NewEntryID returns the millisecond-timestamp identifier used for new entries,
// optionally prefixed ("msg-", "sl-"). A timestamp not newer than the last one
// issued for the prefix gets a process-wide sequence suffix, so ids from the
// same millisecond stay distinct.
func NewEntryID(prefix string, now time.Time) string {
	ms := now.UnixMilli()
	id := prefix + strconv.FormatInt(ms, 10)

	entryIDs.Lock()
	defer entryIDs.Unlock()
	if last, ok := entryIDs.last[prefix]; !ok || ms > last {
		entryIDs.last[prefix] = ms
		return id
	}
	entryIDs.seq++
	return id + "-" + strconv.FormatInt(entryIDs.seq, 10)
}

const (
	MessageIDPrefix      = "msg-"
	ShoppingListIDPrefix = "sl-"
)
