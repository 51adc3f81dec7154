package derive

import (
	"strings"
	"unicode/utf8"

	"refero-cli/internal/model"
)

// MinQueryLength is the shortest query worth filtering on, counted in
// characters. Anything shorter returns the input unchanged.
const MinQueryLength = 2

// FilterItems keeps items whose title or first author contains the query,
// case-insensitively. The author haystack is "first last", matching what the
// list renders.
func FilterItems(items []model.Item, query string) []model.Item {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return items
	}
	term := strings.ToLower(query)

	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Data.Title), term) {
			out = append(out, it)
			continue
		}
		if c, ok := it.Data.FirstCreator(); ok {
			author := strings.ToLower(c.FirstName + " " + c.LastName)
			if strings.Contains(author, term) {
				out = append(out, it)
			}
		}
	}
	return out
}
