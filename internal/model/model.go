package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type LibraryType string

const (
	LibraryTypeUser  LibraryType = "user"
	LibraryTypeGroup LibraryType = "group"
)

// Library is a top-level bibliographic namespace (the personal library or a
// shared group). Immutable once fetched; replaced wholesale on re-auth.
type Library struct {
	ID   int64       `json:"id"`
	Name string      `json:"name"`
	Type LibraryType `json:"type"`

	// Collections caches the library's collection list after first fetch.
	Collections []Collection `json:"collections,omitempty"`
}

// Collection is a named, hierarchical grouping of items. The wire shape
// mirrors the remote API: identity and version live on the envelope,
// user-editable fields under "data".
type Collection struct {
	Key     string         `json:"key"`
	Version int            `json:"version"`
	Data    CollectionData `json:"data"`
}

type CollectionData struct {
	Name             string    `json:"name"`
	ParentCollection ParentKey `json:"parentCollection,omitempty"`
}

func (c Collection) Name() string { return c.Data.Name }

// ParentKey is a collection key, or empty for a root collection.
// The remote API encodes "no parent" as the JSON literal false.
type ParentKey string

func (p ParentKey) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("false"), nil
	}
	return json.Marshal(string(p))
}

func (p *ParentKey) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("false")) || bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("parentCollection: %w", err)
	}
	*p = ParentKey(s)
	return nil
}

// Creator is a named contributor with a role (author, editor, translator...).
type Creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
}

const CreatorTypeAuthor = "author"

// Item is a bibliographic record. Version is the optimistic-concurrency
// token: every mutation must echo the last-known value.
type Item struct {
	Key       string   `json:"key"`
	Version   int      `json:"version"`
	DateAdded string   `json:"dateAdded,omitempty"`
	Data      ItemData `json:"data"`
}

// ItemData holds the user-editable fields of an item. Only fields relevant
// to the selected item type are populated; the rest stay empty and are
// omitted on the wire.
type ItemData struct {
	ItemType     string    `json:"itemType"`
	Title        string    `json:"title,omitempty"`
	Creators     []Creator `json:"creators,omitempty"`
	Date         string    `json:"date,omitempty"`
	DateAdded    string    `json:"dateAdded,omitempty"`
	DateModified string    `json:"dateModified,omitempty"`
	Collections  []string  `json:"collections,omitempty"`

	AbstractNote     string `json:"abstractNote,omitempty"`
	Language         string `json:"language,omitempty"`
	Publisher        string `json:"publisher,omitempty"`
	Place            string `json:"place,omitempty"`
	URL              string `json:"url,omitempty"`
	AccessDate       string `json:"accessDate,omitempty"`
	Extra            string `json:"extra,omitempty"`
	Edition          string `json:"edition,omitempty"`
	Volume           string `json:"volume,omitempty"`
	Series           string `json:"series,omitempty"`
	NumPages         string `json:"numPages,omitempty"`
	ISBN             string `json:"ISBN,omitempty"`
	BookTitle        string `json:"bookTitle,omitempty"`
	Pages            string `json:"pages,omitempty"`
	PublicationTitle string `json:"publicationTitle,omitempty"`
	Issue            string `json:"issue,omitempty"`
	DOI              string `json:"DOI,omitempty"`
	ISSN             string `json:"ISSN,omitempty"`
	ConferenceName   string `json:"conferenceName,omitempty"`
	ProceedingsTitle string `json:"proceedingsTitle,omitempty"`
	University       string `json:"university,omitempty"`
	ThesisType       string `json:"thesisType,omitempty"`
	WebsiteTitle     string `json:"websiteTitle,omitempty"`
	WebsiteType      string `json:"websiteType,omitempty"`
}

const ItemTypeAttachment = "attachment"

// FirstCreator returns the first creator, or false when there is none.
func (d ItemData) FirstCreator() (Creator, bool) {
	if len(d.Creators) == 0 {
		return Creator{}, false
	}
	return d.Creators[0], true
}

// Clone returns an independent deep copy. Used for the edit buffer: edits
// must never alias the canonical item.
func (i Item) Clone() Item {
	out := i
	out.Data = i.Data.Clone()
	return out
}

func (d ItemData) Clone() ItemData {
	out := d
	if d.Creators != nil {
		out.Creators = append([]Creator(nil), d.Creators...)
	}
	if d.Collections != nil {
		out.Collections = append([]string(nil), d.Collections...)
	}
	return out
}

type SortColumn string

const (
	SortByTitle    SortColumn = "title"
	SortByAuthor   SortColumn = "author"
	SortByModified SortColumn = "modified"
	SortByType     SortColumn = "type"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}
