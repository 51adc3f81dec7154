package derive

import (
	"strings"

	"refero-cli/internal/model"
)

// FindDuplicates returns the items that share a normalized title + first
// author with at least one other item. Items with an empty title are never
// considered. Output order follows first appearance: the original, then each
// matching occurrence, each item at most once.
func FindDuplicates(items []model.Item) []model.Item {
	seen := make(map[string]model.Item)
	added := make(map[string]bool)
	var out []model.Item

	for _, it := range items {
		title := strings.ToLower(strings.TrimSpace(it.Data.Title))
		if title == "" {
			continue
		}
		author := ""
		if c, ok := it.Data.FirstCreator(); ok {
			author = strings.ToLower(strings.TrimSpace(c.LastName + " " + c.FirstName))
		}
		key := title + "|" + author

		original, dup := seen[key]
		if !dup {
			seen[key] = it
			continue
		}
		if !added[original.Key] {
			out = append(out, original)
			added[original.Key] = true
		}
		if !added[it.Key] {
			out = append(out, it)
			added[it.Key] = true
		}
	}
	return out
}
