// Package app is the reactive core of the client. The Store owns canonical
// session state (credentials, libraries, collections, items, selections, UI
// flags) and keeps its derived projections (flattened collection tree,
// filtered and sorted item views) consistent with it: every canonical change
// recomputes them before subscribers are told anything changed.
//
// Canonical state is mutated only through Store actions; views read
// snapshots and never write back.
package app

import (
	"context"
	"log/slog"
	"sync"
	"unicode/utf8"

	"refero-cli/internal/api"
	"refero-cli/internal/derive"
	"refero-cli/internal/model"
	"refero-cli/internal/store"
)

// State is one consistent snapshot of the session.
type State struct {
	Authenticated bool
	// AuthPrompt asks the presentation layer to surface the key prompt.
	AuthPrompt   bool
	Loading      bool
	LoadingItems bool
	LastError    string

	Libraries          []model.Library
	SelectedLibrary    *model.Library
	Collections        []model.Collection
	SelectedCollection model.CollectionRef
	Items              []model.Item
	SelectedItem       *model.Item
	// EditingItem is an independent working copy; it only reaches canonical
	// state through a successful UpdateItem commit.
	EditingItem *model.Item

	SearchQuery   string
	SortColumn    model.SortColumn
	SortDirection model.SortDirection
	Preferences   store.UIPreferences

	// Derived projections. Never stale: recomputed on every canonical change.
	FlatCollections []derive.FlatCollection
	FilteredItems   []model.Item
	SortedItems     []model.Item
	TreeError       string
}

// Store is the application state store.
type Store struct {
	client *api.Client
	prefs  store.Store
	log    *slog.Logger

	mu      sync.Mutex
	state   State
	subs    map[int]func()
	nextSub int
}

func NewStore(client *api.Client, prefs store.Store, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		client: client,
		prefs:  prefs,
		log:    log,
		state: State{
			SortColumn:    model.SortByTitle,
			SortDirection: model.SortAsc,
			Preferences:   store.DefaultUIPreferences(),
		},
		subs: map[int]func(){},
	}
}

// Client exposes the remote client for action handlers that need raw API
// access (collection CRUD, exports).
func (s *Store) Client() *api.Client { return s.client }

// Snapshot returns a copy of the current state. Slices and pointers in the
// snapshot are shared read-only views; callers must not mutate them.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a callback invoked after every state change. The
// returned cancel func unregisters it.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// update applies a mutation under the lock, recomputes derived state and
// notifies subscribers. All canonical mutation funnels through here.
func (s *Store) update(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	s.recompute()
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// recompute rebuilds every derived projection from canonical state.
// Invariant: SortedItems == sort(filter(Items, SearchQuery), SortColumn,
// SortDirection) at all times. Caller holds the lock.
func (s *Store) recompute() {
	st := &s.state

	roots, err := derive.BuildTree(st.Collections)
	if err != nil {
		st.FlatCollections = nil
		st.TreeError = err.Error()
	} else {
		st.FlatCollections = derive.Flatten(roots)
		st.TreeError = ""
	}

	st.FilteredItems = derive.FilterItems(st.Items, st.SearchQuery)
	st.SortedItems = derive.SortItems(st.FilteredItems, st.SortColumn, st.SortDirection)
}

// Init restores a previous session from persisted state: preferences always,
// then credentials, library and collection when they are still valid. Any
// restore failure falls back to an unauthenticated state with the auth
// prompt surfaced; Init itself never fails.
func (s *Store) Init(ctx context.Context) {
	prefs := s.prefs.UIPreferences(ctx)
	s.update(func(st *State) {
		st.Preferences = prefs
		st.SortColumn = prefs.SortColumn
		st.SortDirection = prefs.SortDirection
	})

	key := s.prefs.APIKey(ctx)
	if key == "" {
		s.update(func(st *State) { st.AuthPrompt = true })
		return
	}

	if err := s.Authenticate(ctx, key, true); err != nil {
		s.log.Warn("session restore failed", "error", err)
		s.Logout(ctx)
		return
	}

	stored, ok := s.prefs.SelectedLibrary(ctx)
	if !ok {
		return
	}
	var lib *model.Library
	for _, l := range s.Snapshot().Libraries {
		if l.ID == stored.ID && l.Type == stored.Type {
			found := l
			lib = &found
			break
		}
	}
	if lib == nil {
		return
	}
	if err := s.SelectLibrary(ctx, *lib); err != nil {
		s.log.Warn("session restore failed", "error", err)
		s.Logout(ctx)
		return
	}

	if ref := s.prefs.SelectedCollection(ctx); !ref.IsZero() {
		if err := s.SelectCollection(ctx, ref); err != nil {
			s.log.Warn("stored collection no longer loads", "error", err)
		}
	}
}

// Authenticate validates the key, loads the library list and persists the
// key. Success always dismisses the auth prompt. On failure an interactive
// attempt re-raises the prompt; a silent restore leaves prompt handling to
// the caller.
func (s *Store) Authenticate(ctx context.Context, key string, silent bool) error {
	s.update(func(st *State) {
		st.LastError = ""
		st.Loading = true
	})
	defer s.update(func(st *State) { st.Loading = false })

	if _, err := s.client.Authenticate(ctx, key); err != nil {
		s.update(func(st *State) {
			st.LastError = err.Error()
			if !silent {
				st.AuthPrompt = true
			}
		})
		return err
	}
	libs, err := s.client.ListLibraries(ctx)
	if err != nil {
		s.update(func(st *State) {
			st.LastError = err.Error()
			if !silent {
				st.AuthPrompt = true
			}
		})
		return err
	}

	s.prefs.SetAPIKey(ctx, key)
	s.update(func(st *State) {
		st.Authenticated = true
		st.Libraries = libs
		st.AuthPrompt = false
	})
	s.log.Info("authenticated", "libraries", len(libs))
	return nil
}

// SelectLibrary makes lib current, loads its collections (cached for the
// personal library, fetched for groups) and auto-selects the first
// collection of the sorted tree when one exists.
func (s *Store) SelectLibrary(ctx context.Context, lib model.Library) error {
	s.update(func(st *State) {
		st.LastError = ""
		st.Loading = true
	})
	defer s.update(func(st *State) { st.Loading = false })

	cols := lib.Collections
	if lib.Type == model.LibraryTypeGroup || cols == nil {
		fetched, err := s.client.ListCollections(ctx, api.Ref(lib))
		if err != nil {
			s.update(func(st *State) { st.LastError = err.Error() })
			return err
		}
		cols = fetched
	}
	lib.Collections = cols
	s.prefs.SetSelectedLibrary(ctx, lib)

	s.update(func(st *State) {
		st.SelectedLibrary = &lib
		st.Collections = cols
		st.Items = nil
		st.SelectedItem = nil
		st.EditingItem = nil
		st.SelectedCollection = model.CollectionRef{}
		st.AuthPrompt = false
	})

	if flat := s.Snapshot().FlatCollections; len(flat) > 0 {
		return s.SelectCollection(ctx, model.RealCollection(flat[0].Key))
	}
	return nil
}

// SelectCollection makes ref current and reloads its items. Selecting the
// zero ref clears the selection and the item list.
func (s *Store) SelectCollection(ctx context.Context, ref model.CollectionRef) error {
	s.prefs.SetSelectedCollection(ctx, ref)
	s.update(func(st *State) {
		st.SelectedCollection = ref
		st.SelectedItem = nil
		st.EditingItem = nil
		if ref.IsZero() {
			st.Items = nil
		}
	})
	if ref.IsZero() {
		return nil
	}
	return s.LoadItems(ctx)
}

// LoadItems refreshes the item list for the current selection. Without a
// library and collection selected it is a no-op.
func (s *Store) LoadItems(ctx context.Context) error {
	st := s.Snapshot()
	if st.SelectedLibrary == nil || st.SelectedCollection.IsZero() {
		return nil
	}
	lib := *st.SelectedLibrary

	s.update(func(st *State) {
		st.LastError = ""
		st.LoadingItems = true
	})
	defer s.update(func(st *State) { st.LoadingItems = false })

	items, err := s.client.ListItems(ctx, api.Ref(lib), st.SelectedCollection, api.ListOptions{})
	if err != nil {
		s.update(func(st *State) {
			st.LastError = err.Error()
			st.Items = nil
		})
		return err
	}
	s.update(func(st *State) { st.Items = items })
	s.log.Debug("items loaded", "collection", st.SelectedCollection.String(), "count", len(items))
	return nil
}

// ReloadCollections refetches the collection list for the selected library,
// keeping the library's cached copy in sync.
func (s *Store) ReloadCollections(ctx context.Context) error {
	st := s.Snapshot()
	if st.SelectedLibrary == nil {
		return validationErr("no library selected")
	}
	cols, err := s.client.ListCollections(ctx, api.Ref(*st.SelectedLibrary))
	if err != nil {
		s.update(func(st *State) { st.LastError = err.Error() })
		return err
	}
	s.update(func(st *State) {
		st.Collections = cols
		if st.SelectedLibrary != nil {
			lib := *st.SelectedLibrary
			lib.Collections = cols
			st.SelectedLibrary = &lib
		}
	})
	return nil
}

// CreateItem creates an item in the selected collection, reloads the list
// and selects the new item. Creating inside a special collection is refused
// client-side; the request never reaches the server.
func (s *Store) CreateItem(ctx context.Context, data model.ItemData) (string, error) {
	st := s.Snapshot()
	if st.SelectedLibrary == nil {
		return "", validationErr("no library selected")
	}
	if st.SelectedCollection.IsZero() {
		return "", validationErr("no collection selected")
	}
	if st.SelectedCollection.IsSpecial() {
		return "", validationErr("cannot create items in a special collection")
	}

	key, err := s.client.CreateItem(ctx, api.Ref(*st.SelectedLibrary), data, []string{st.SelectedCollection.Key()})
	if err != nil {
		s.update(func(st *State) { st.LastError = err.Error() })
		return "", err
	}

	if err := s.LoadItems(ctx); err != nil {
		return key, err
	}
	s.update(func(st *State) {
		st.EditingItem = nil
		st.SelectedItem = findItem(st.Items, key)
	})
	return key, nil
}

// UpdateItem commits the given data over item, conditional on item's
// version, then reloads and re-selects the item by key. If the item left the
// current view (say, it moved collections) the selection clears.
func (s *Store) UpdateItem(ctx context.Context, item model.Item, data model.ItemData) error {
	st := s.Snapshot()
	if st.SelectedLibrary == nil {
		return validationErr("no library selected")
	}
	if item.Version == 0 {
		return validationErr("item has no version")
	}

	if err := s.client.UpdateItem(ctx, api.Ref(*st.SelectedLibrary), item.Key, data, item.Version); err != nil {
		s.update(func(st *State) { st.LastError = err.Error() })
		return err
	}

	if err := s.LoadItems(ctx); err != nil {
		return err
	}
	s.update(func(st *State) {
		st.EditingItem = nil
		st.SelectedItem = findItem(st.Items, item.Key)
	})
	return nil
}

// DeleteItem removes the item, conditional on its version, then reloads and
// clears edit state and selection.
func (s *Store) DeleteItem(ctx context.Context, item model.Item) error {
	st := s.Snapshot()
	if st.SelectedLibrary == nil {
		return validationErr("no library selected")
	}
	if item.Version == 0 {
		return validationErr("item has no version")
	}

	if err := s.client.DeleteItem(ctx, api.Ref(*st.SelectedLibrary), item.Key, item.Version); err != nil {
		s.update(func(st *State) { st.LastError = err.Error() })
		return err
	}

	if err := s.LoadItems(ctx); err != nil {
		return err
	}
	s.update(func(st *State) {
		st.EditingItem = nil
		st.SelectedItem = nil
	})
	return nil
}

// EditItem opens an independent working copy of item in the edit buffer.
// The canonical list item stays untouched until UpdateItem commits.
func (s *Store) EditItem(item model.Item) {
	working := item.Clone()
	s.update(func(st *State) {
		st.EditingItem = &working
		st.SelectedItem = findItem(st.Items, item.Key)
	})
}

// SelectItem highlights an item and discards any in-progress edit.
func (s *Store) SelectItem(item model.Item) {
	s.update(func(st *State) {
		st.SelectedItem = findItem(st.Items, item.Key)
		st.EditingItem = nil
	})
}

// ResetForm clears edit state and selection.
func (s *Store) ResetForm() {
	s.update(func(st *State) {
		st.EditingItem = nil
		st.SelectedItem = nil
	})
}

// SetSearchQuery updates the live filter. Queries worth filtering on also
// land in the persisted search history.
func (s *Store) SetSearchQuery(ctx context.Context, query string) {
	s.update(func(st *State) { st.SearchQuery = query })
	if utf8.RuneCountInString(query) >= derive.MinQueryLength {
		s.prefs.AddSearchHistory(ctx, query)
	}
}

// SearchHistory returns recent queries, most recent first.
func (s *Store) SearchHistory(ctx context.Context) []string {
	return s.prefs.SearchHistory(ctx)
}

// SetSort changes the item ordering and persists it as a preference.
func (s *Store) SetSort(ctx context.Context, column model.SortColumn, direction model.SortDirection) {
	s.update(func(st *State) {
		st.SortColumn = column
		st.SortDirection = direction
		st.Preferences.SortColumn = column
		st.Preferences.SortDirection = direction
	})
	s.prefs.SetUIPreferences(ctx, s.Snapshot().Preferences)
}

// UpdatePreferences merges new presentational preferences and persists them.
func (s *Store) UpdatePreferences(ctx context.Context, prefs store.UIPreferences) {
	s.update(func(st *State) { st.Preferences = prefs })
	s.prefs.SetUIPreferences(ctx, prefs)
}

// Logout drops the session and all persisted credentials/selection, and
// surfaces the auth prompt.
func (s *Store) Logout(ctx context.Context) {
	s.prefs.Clear(ctx)
	s.update(func(st *State) {
		*st = State{
			AuthPrompt:    true,
			SortColumn:    model.SortByTitle,
			SortDirection: model.SortAsc,
			Preferences:   store.DefaultUIPreferences(),
		}
	})
	s.log.Info("logged out")
}

// ClearError dismisses the last error message.
func (s *Store) ClearError() {
	s.update(func(st *State) { st.LastError = "" })
}

func findItem(items []model.Item, key string) *model.Item {
	for i := range items {
		if items[i].Key == key {
			found := items[i]
			return &found
		}
	}
	return nil
}
