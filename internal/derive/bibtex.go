package derive

import (
	"regexp"
	"strings"

	"refero-cli/internal/model"
)

var yearRe = regexp.MustCompile(`\d{4}`)

// Year extracts the first 4-digit run from a date field, or "" if none.
func Year(date string) string {
	return yearRe.FindString(date)
}

func bibtexEntryType(itemType string) string {
	switch itemType {
	case "journalArticle":
		return "article"
	case "book":
		return "book"
	case "bookSection":
		return "incollection"
	default:
		return "misc"
	}
}

// CitationKey synthesizes the BibTeX key: first author's last name (or
// "Unknown") followed by the publication year when one can be found.
func CitationKey(it model.Item) string {
	name := "Unknown"
	if c, ok := it.Data.FirstCreator(); ok && c.LastName != "" {
		name = c.LastName
	}
	return name + Year(it.Data.Date)
}

// BibTeX renders one item as a BibTeX entry. Empty fields are omitted.
func BibTeX(it model.Item) string {
	data := it.Data

	var b strings.Builder
	b.WriteString("@" + bibtexEntryType(data.ItemType) + "{" + CitationKey(it) + ",\n")
	b.WriteString("  title = {" + data.Title + "},\n")

	var authors []string
	for _, c := range data.Creators {
		if c.CreatorType != model.CreatorTypeAuthor {
			continue
		}
		if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
			authors = append(authors, name)
		}
	}
	if len(authors) > 0 {
		b.WriteString("  author = {" + strings.Join(authors, " and ") + "},\n")
	}

	if data.Date != "" {
		year := Year(data.Date)
		if year == "" {
			year = data.Date
		}
		b.WriteString("  year = {" + year + "},\n")
	}
	if data.Publisher != "" {
		b.WriteString("  publisher = {" + data.Publisher + "},\n")
	}
	if data.URL != "" {
		b.WriteString("  url = {" + data.URL + "},\n")
	}

	b.WriteString("}")
	return b.String()
}

// BibTeXAll renders a whole item list as one .bib document.
func BibTeXAll(items []model.Item) string {
	entries := make([]string, 0, len(items))
	for _, it := range items {
		entries = append(entries, BibTeX(it))
	}
	return strings.Join(entries, "\n\n")
}
