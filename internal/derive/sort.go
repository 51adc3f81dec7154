package derive

import (
	"sort"
	"strings"
	"time"

	"refero-cli/internal/model"
)

// SortItems returns a new slice ordered by the chosen column and direction.
// The sort is stable: equal keys preserve input order.
func SortItems(items []model.Item, column model.SortColumn, direction model.SortDirection) []model.Item {
	if len(items) == 0 {
		return items
	}
	out := append([]model.Item(nil), items...)

	less := lessFunc(column)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if direction == model.SortDesc {
			i, j = j, i
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(column model.SortColumn) func(a, b model.Item) bool {
	switch column {
	case model.SortByTitle:
		return func(a, b model.Item) bool {
			return strings.ToLower(a.Data.Title) < strings.ToLower(b.Data.Title)
		}
	case model.SortByAuthor:
		return func(a, b model.Item) bool {
			return firstAuthorLastName(a) < firstAuthorLastName(b)
		}
	case model.SortByModified:
		return func(a, b model.Item) bool {
			return ModifiedTime(a).Before(ModifiedTime(b))
		}
	case model.SortByType:
		return func(a, b model.Item) bool {
			return strings.ToLower(a.Data.ItemType) < strings.ToLower(b.Data.ItemType)
		}
	}
	return nil
}

func firstAuthorLastName(it model.Item) string {
	if c, ok := it.Data.FirstCreator(); ok {
		return strings.ToLower(c.LastName)
	}
	return ""
}

// ModifiedTime parses the item's modification date, falling back to the
// added date and finally to the epoch when neither parses.
func ModifiedTime(it model.Item) time.Time {
	if t, ok := parseAPITime(it.Data.DateModified); ok {
		return t
	}
	if t, ok := parseAPITime(it.DateAdded); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}

func parseAPITime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
