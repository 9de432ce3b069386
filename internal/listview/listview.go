// Package listview derives filtered, sorted views over in-memory lists without
// touching the source slice.
package listview

import (
	"cmp"
	"slices"
	"strings"
)

// All disables the categorical filter.
const All = "All"

// Query is the user input driving a view
type Query struct {
	Search   string
	Category string
	SortKey  string
}

// Schema describes how a list of T is searched, filtered and ordered
type Schema[T any] struct {
	// SearchFields returns the fields the free-text search matches against.
	SearchFields func(T) []string
	// Matches reports whether an item belongs to the selected category.
	// Nil means the entity has no categorical filter.
	Matches func(item T, category string) bool
	// Sorts maps a sort key to a comparator. Unknown keys keep input order.
	Sorts map[string]func(a, b T) int
}

// Apply filters src by q and sorts the result stably. src is never mutated.
func Apply[T any](src []T, q Query, schema Schema[T]) []T {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]T, 0, len(src))

	for _, item := range src {
		if needle != "" && !matchesSearch(schema.SearchFields(item), needle) {
			continue
		}
		if filtering(q.Category) && schema.Matches != nil && !schema.Matches(item, q.Category) {
			continue
		}
		out = append(out, item)
	}

	if cmpFn, ok := schema.Sorts[q.SortKey]; ok {
		slices.SortStableFunc(out, cmpFn)
	}
	return out
}

func filtering(category string) bool {
	return category != "" && category != All
}

func matchesSearch(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Distinct returns the distinct non-empty values of key in first-seen order,
// prefixed with All. Used to populate filter dropdowns.
func Distinct[T any](src []T, key func(T) string) []string {
	seen := make(map[string]bool)
	out := []string{All}
	for _, item := range src {
		v := key(item)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func compareFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

func desc[V cmp.Ordered](a, b V) int {
	return cmp.Compare(b, a)
}
