package model

import "sort"

// ItemTypeDef describes one supported bibliographic item type: its display
// label and the data fields the detail form should offer for it.
type ItemTypeDef struct {
	Label  string
	Fields []string
}

var ItemTypes = map[string]ItemTypeDef{
	"book": {
		Label:  "Book",
		Fields: []string{"title", "creators", "date", "publisher", "place", "ISBN", "edition", "volume", "series", "numPages", "language", "abstractNote", "url", "extra"},
	},
	"bookSection": {
		Label:  "Book section",
		Fields: []string{"title", "creators", "bookTitle", "date", "publisher", "place", "pages", "ISBN", "language", "abstractNote", "url", "extra"},
	},
	"journalArticle": {
		Label:  "Journal article",
		Fields: []string{"title", "creators", "publicationTitle", "volume", "issue", "pages", "date", "DOI", "ISSN", "language", "abstractNote", "url", "extra"},
	},
	"magazineArticle": {
		Label:  "Magazine article",
		Fields: []string{"title", "creators", "publicationTitle", "volume", "issue", "pages", "date", "ISSN", "language", "abstractNote", "url", "extra"},
	},
	"newspaperArticle": {
		Label:  "Newspaper article",
		Fields: []string{"title", "creators", "publicationTitle", "pages", "date", "place", "language", "abstractNote", "url", "extra"},
	},
	"conferencePaper": {
		Label:  "Conference paper",
		Fields: []string{"title", "creators", "proceedingsTitle", "conferenceName", "place", "date", "pages", "DOI", "language", "abstractNote", "url", "extra"},
	},
	"webpage": {
		Label:  "Web page",
		Fields: []string{"title", "creators", "websiteTitle", "websiteType", "date", "accessDate", "language", "abstractNote", "url", "extra"},
	},
	"thesis": {
		Label:  "Thesis",
		Fields: []string{"title", "creators", "thesisType", "university", "place", "date", "numPages", "language", "abstractNote", "url", "extra"},
	},
	"document": {
		Label:  "Document",
		Fields: []string{"title", "creators", "date", "publisher", "place", "language", "abstractNote", "url", "extra"},
	},
}

// ItemTypeLabel returns the display label for a type, falling back to the
// raw type name for types we list but do not special-case.
func ItemTypeLabel(itemType string) string {
	if def, ok := ItemTypes[itemType]; ok {
		return def.Label
	}
	return itemType
}

// ItemTypeNames returns the supported type names in stable (sorted) order.
func ItemTypeNames() []string {
	names := make([]string, 0, len(ItemTypes))
	for name := range ItemTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultItemData is the starting point for the create form.
func DefaultItemData() ItemData {
	return ItemData{
		ItemType: "book",
		Creators: []Creator{{CreatorType: CreatorTypeAuthor}},
	}
}
