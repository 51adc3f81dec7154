package store

import (
	"context"
	"unicode/utf8"

	"refero-cli/internal/model"
)

// Storage keys, namespaced like the hosted client so the two can share
// conventions in documentation.
const (
	keyAPIKey              = "refero-api-key"
	keySelectedLibraryID   = "refero-selected-library-id"
	keySelectedLibraryType = "refero-selected-library-type"
	keySelectedCollection  = "refero-selected-collection"
	keyUIPreferences       = "refero-ui-preferences"
	keySearchHistory       = "refero-search-history"
)

const maxSearchHistory = 10

// UIPreferences are presentational only: losing them can never lose data.
type UIPreferences struct {
	CollectionsWidth int                 `json:"collectionsWidth"`
	DetailsWidth     int                 `json:"detailsWidth"`
	SortColumn       model.SortColumn    `json:"sortColumn"`
	SortDirection    model.SortDirection `json:"sortDirection"`
}

func DefaultUIPreferences() UIPreferences {
	return UIPreferences{
		CollectionsWidth: 250,
		DetailsWidth:     300,
		SortColumn:       model.SortByTitle,
		SortDirection:    model.SortAsc,
	}
}

func (s Store) APIKey(ctx context.Context) string {
	var key string
	s.Get(ctx, keyAPIKey, &key)
	return key
}

func (s Store) SetAPIKey(ctx context.Context, key string) {
	s.Set(ctx, keyAPIKey, key)
}

// StoredLibrary identifies the last selected library.
type StoredLibrary struct {
	ID   int64
	Type model.LibraryType
}

func (s Store) SelectedLibrary(ctx context.Context) (StoredLibrary, bool) {
	var lib StoredLibrary
	okID := s.Get(ctx, keySelectedLibraryID, &lib.ID)
	okType := s.Get(ctx, keySelectedLibraryType, &lib.Type)
	return lib, okID && okType
}

func (s Store) SetSelectedLibrary(ctx context.Context, lib model.Library) {
	s.Set(ctx, keySelectedLibraryID, lib.ID)
	s.Set(ctx, keySelectedLibraryType, lib.Type)
}

func (s Store) SelectedCollection(ctx context.Context) model.CollectionRef {
	var raw string
	s.Get(ctx, keySelectedCollection, &raw)
	return model.ParseCollectionRef(raw)
}

func (s Store) SetSelectedCollection(ctx context.Context, ref model.CollectionRef) {
	s.Set(ctx, keySelectedCollection, ref.String())
}

func (s Store) UIPreferences(ctx context.Context) UIPreferences {
	prefs := DefaultUIPreferences()
	s.Get(ctx, keyUIPreferences, &prefs)
	return prefs
}

func (s Store) SetUIPreferences(ctx context.Context, prefs UIPreferences) {
	s.Set(ctx, keyUIPreferences, prefs)
}

func (s Store) SearchHistory(ctx context.Context) []string {
	var history []string
	s.Get(ctx, keySearchHistory, &history)
	return history
}

// AddSearchHistory pushes a query to the front of the history, de-duplicated
// and bounded. Queries under two characters are not worth remembering.
func (s Store) AddSearchHistory(ctx context.Context, query string) {
	if utf8.RuneCountInString(query) < 2 {
		return
	}
	history := s.SearchHistory(ctx)
	updated := make([]string, 0, len(history)+1)
	updated = append(updated, query)
	for _, q := range history {
		if q != query {
			updated = append(updated, q)
		}
	}
	if len(updated) > maxSearchHistory {
		updated = updated[:maxSearchHistory]
	}
	s.Set(ctx, keySearchHistory, updated)
}
