package derive

import (
	"strings"
	"testing"

	"refero-cli/internal/model"
)

func TestBibTeX_JournalArticle(t *testing.T) {
	it := model.Item{
		Key: "A",
		Data: model.ItemData{
			ItemType:  "journalArticle",
			Title:     "Conjectures on World Literature",
			Creators:  []model.Creator{author("Franco", "Moretti")},
			Date:      "January 2000",
			URL:       "https://example.org/conjectures",
			Publisher: "New Left Review",
		},
	}
	got := BibTeX(it)

	if !strings.HasPrefix(got, "@article{Moretti2000,\n") {
		t.Fatalf("bad entry head:\n%s", got)
	}
	for _, want := range []string{
		"  title = {Conjectures on World Literature},",
		"  author = {Franco Moretti},",
		"  year = {2000},",
		"  publisher = {New Left Review},",
		"  url = {https://example.org/conjectures},",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "}") {
		t.Fatalf("entry not closed:\n%s", got)
	}
}

func TestBibTeX_EntryTypeMapping(t *testing.T) {
	cases := map[string]string{
		"journalArticle": "@article",
		"book":           "@book",
		"bookSection":    "@incollection",
		"webpage":        "@misc",
		"thesis":         "@misc",
	}
	for itemType, want := range cases {
		it := model.Item{Data: model.ItemData{ItemType: itemType, Title: "T"}}
		if got := BibTeX(it); !strings.HasPrefix(got, want+"{") {
			t.Fatalf("%s: expected prefix %s, got:\n%s", itemType, want, got)
		}
	}
}

func TestBibTeX_OmitsEmptyFields(t *testing.T) {
	it := model.Item{Data: model.ItemData{ItemType: "book", Title: "Bare"}}
	got := BibTeX(it)
	for _, forbidden := range []string{"author =", "year =", "publisher =", "url ="} {
		if strings.Contains(got, forbidden) {
			t.Fatalf("empty field %q rendered:\n%s", forbidden, got)
		}
	}
	if !strings.HasPrefix(got, "@book{Unknown,") {
		t.Fatalf("missing-author key should be Unknown:\n%s", got)
	}
}

func TestBibTeX_NonAuthorCreatorsExcluded(t *testing.T) {
	it := model.Item{Data: model.ItemData{
		ItemType: "book",
		Title:    "Edited Volume",
		Creators: []model.Creator{
			{CreatorType: "editor", FirstName: "Ed", LastName: "Itor"},
			author("Real", "Author"),
		},
	}}
	got := BibTeX(it)
	if strings.Contains(got, "Itor") {
		t.Fatalf("editor leaked into author list:\n%s", got)
	}
	if !strings.Contains(got, "author = {Real Author},") {
		t.Fatalf("author missing:\n%s", got)
	}
}

func TestBibTeX_YearFallsBackToRawDate(t *testing.T) {
	it := model.Item{Data: model.ItemData{ItemType: "book", Title: "T", Date: "n.d."}}
	if got := BibTeX(it); !strings.Contains(got, "year = {n.d.},") {
		t.Fatalf("raw date not used when no 4-digit run:\n%s", got)
	}
}

func TestBibTeXAll_JoinsWithBlankLine(t *testing.T) {
	items := []model.Item{
		{Data: model.ItemData{ItemType: "book", Title: "One"}},
		{Data: model.ItemData{ItemType: "book", Title: "Two"}},
	}
	got := BibTeXAll(items)
	if strings.Count(got, "@book{") != 2 {
		t.Fatalf("expected two entries:\n%s", got)
	}
	if !strings.Contains(got, "}\n\n@book{") {
		t.Fatalf("entries not separated by blank line:\n%s", got)
	}
}
