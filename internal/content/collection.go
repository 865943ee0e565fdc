package content

import (
	"sort"
	"strings"
)

// Collection returns the books tagged tag, newest first. Undated books come
// last and ties are ordered by title.
func Collection(books []*Book, tag string) []*Book {
	var out []*Book
	for _, b := range books {
		if b.HasTag(tag) {
			out = append(out, b)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Dated() != b.Dated() {
			return a.Dated()
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
	return out
}

// Tags returns every tag used by books, sorted.
func Tags(books []*Book) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, b := range books {
		for _, t := range b.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
