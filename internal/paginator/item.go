package paginator

import "strings"

// Fields holds the text of an item that search runs against.
type Fields struct {
	Title       string
	Subtitle    string
	Description string
}

// SearchText joins the trimmed fields with single spaces and lowercases the
// result.
func (f Fields) SearchText() string {
	return strings.ToLower(
		strings.TrimSpace(f.Title) + " " +
			strings.TrimSpace(f.Subtitle) + " " +
			strings.TrimSpace(f.Description),
	)
}

// Extractor pulls the searchable fields out of an item.
type Extractor[T any] func(T) Fields

// Item pairs a value with its precomputed search text.
type Item[T any] struct {
	Value T
	text  string
	index int
}

// NewItem builds an Item for value at position index of its set.
func NewItem[T any](value T, fields Fields, index int) Item[T] {
	return Item[T]{Value: value, text: fields.SearchText(), index: index}
}

// Text returns the lowercase search text.
func (it Item[T]) Text() string { return it.text }

// Index returns the item's position in the full set.
func (it Item[T]) Index() int { return it.index }

// Matches reports whether the item contains the normalized query. The empty
// query matches everything.
func (it Item[T]) Matches(query string) bool {
	return strings.Contains(it.text, query)
}

// NormalizeQuery trims and lowercases raw user input.
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Filter returns the items matching the normalized query, in their original
// order. An empty query returns items itself.
func Filter[T any](items []Item[T], query string) []Item[T] {
	if query == "" {
		return items
	}
	matched := make([]Item[T], 0, len(items))
	for _, it := range items {
		if it.Matches(query) {
			matched = append(matched, it)
		}
	}
	return matched
}
