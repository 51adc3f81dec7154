package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"refero-cli/internal/api"
	appstate "refero-cli/internal/app"
	"refero-cli/internal/logging"
	"refero-cli/internal/model"
	"refero-cli/internal/store"
)

func testStore(t *testing.T) *appstate.Store {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/keys/current", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"userID": 3})
	})
	mux.HandleFunc("/users/3/groups", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/users/3/collections", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"key":"CC","version":1,"data":{"name":"Papers","parentCollection":false}}]`))
	})
	mux.HandleFunc("/users/3/collections/CC/items", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"key":"K1","version":1,"data":{"itemType":"book","title":"Beta","creators":[{"creatorType":"author","firstName":"A","lastName":"One"}]}},
			{"key":"K2","version":1,"data":{"itemType":"book","title":"Alpha","creators":[{"creatorType":"author","firstName":"B","lastName":"Two"}]}}
		]`))
	})
	mux.HandleFunc("/users/3/items/top", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/users/3/items/trash", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := api.New(srv.URL, logging.Discard())
	prefs := store.Store{Dir: t.TempDir(), Log: logging.Discard()}
	st := appstate.NewStore(client, prefs, logging.Discard())

	ctx := context.Background()
	if err := st.Authenticate(ctx, "key", true); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := st.SelectLibrary(ctx, st.Snapshot().Libraries[0]); err != nil {
		t.Fatalf("select library: %v", err)
	}
	return st
}

func press(t *testing.T, m appModel, keys ...string) appModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		if len(k) == 1 {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		} else {
			switch k {
			case "enter":
				msg = tea.KeyMsg{Type: tea.KeyEnter}
			case "esc":
				msg = tea.KeyMsg{Type: tea.KeyEsc}
			case "tab":
				msg = tea.KeyMsg{Type: tea.KeyTab}
			default:
				t.Fatalf("unknown key %q", k)
			}
		}
		next, _ := m.Update(msg)
		m = next.(appModel)
	}
	return m
}

func TestCollectionsList_AppendsSpecials(t *testing.T) {
	m := newAppModel(testStore(t))

	rows := m.collectionsList.Items()
	if len(rows) != 4 {
		t.Fatalf("expected 1 collection + 3 specials; got %d rows", len(rows))
	}
	last := rows[3].(collectionRow)
	if last.ref.Special() != model.SpecialTrash {
		t.Fatalf("expected trash last; got %v", last.ref)
	}
}

func TestSortKeys_CycleColumnAndDirection(t *testing.T) {
	st := testStore(t)
	m := newAppModel(st)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(appModel)

	m = press(t, m, "s")
	if got := st.Snapshot().SortColumn; got != model.SortByAuthor {
		t.Fatalf("expected author after one cycle; got %q", got)
	}
	m = press(t, m, "S")
	if got := st.Snapshot().SortDirection; got != model.SortDesc {
		t.Fatalf("expected desc after flip; got %q", got)
	}
	_ = m
}

func TestSearch_LiveFiltersItems(t *testing.T) {
	st := testStore(t)
	m := newAppModel(st)

	m = press(t, m, "/", "a", "l", "p", "h", "a")
	snap := st.Snapshot()
	if snap.SearchQuery != "alpha" {
		t.Fatalf("expected live query; got %q", snap.SearchQuery)
	}
	if len(snap.SortedItems) != 1 || snap.SortedItems[0].Key != "K2" {
		t.Fatalf("expected only Alpha visible; got %#v", snap.SortedItems)
	}
	if len(m.itemsList.Items()) != 1 {
		t.Fatalf("expected the list to track the filter; got %d rows", len(m.itemsList.Items()))
	}

	// Esc clears the filter entirely.
	m = press(t, m, "esc")
	if got := st.Snapshot().SearchQuery; got != "" {
		t.Fatalf("expected cleared query; got %q", got)
	}
}

func TestResize_ClampsAndClears(t *testing.T) {
	st := testStore(t)
	m := newAppModel(st)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(appModel)

	// Push far past the lower clamp.
	for i := 0; i < 20; i++ {
		m = press(t, m, "<")
	}
	prefs := st.Snapshot().Preferences
	if prefs.CollectionsWidth != 200 {
		t.Fatalf("expected clamp at 200; got %d", prefs.CollectionsWidth)
	}
	if !m.resizing {
		t.Fatalf("expected resizing flag while keys repeat")
	}

	// A stale clear (older seq) must not clear; the final one must.
	next, _ = m.Update(resizeClearMsg{seq: m.resizeSeq - 1})
	m = next.(appModel)
	if !m.resizing {
		t.Fatalf("stale clear must be ignored")
	}
	next, _ = m.Update(resizeClearMsg{seq: m.resizeSeq})
	m = next.(appModel)
	if m.resizing {
		t.Fatalf("expected resizing to clear")
	}
}

func TestActionOutcome_FlowsThroughNotifications(t *testing.T) {
	st := testStore(t)
	m := newAppModel(st)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(appModel)

	m = press(t, m, "R")

	latest, ok := m.notify.Latest()
	if !ok {
		t.Fatalf("expected the action outcome in the notification center")
	}
	if latest.Level != appstate.LevelSuccess {
		t.Fatalf("expected a success notification; got %q", latest.Level)
	}
	if !strings.Contains(m.View(), latest.Message) {
		t.Fatalf("status line should render the latest notification")
	}

	next, _ = m.Update(noticeClearMsg{id: latest.ID})
	m = next.(appModel)
	if _, ok := m.notify.Latest(); ok {
		t.Fatalf("expected the clear tick to drop the notification")
	}
}

func TestItemForm_MergePreservesHiddenFields(t *testing.T) {
	item := model.Item{
		Key:     "K9",
		Version: 4,
		Data: model.ItemData{
			ItemType:     "journalArticle",
			Title:        "Old Title",
			AbstractNote: "kept",
			Creators:     []model.Creator{{CreatorType: model.CreatorTypeAuthor, FirstName: "A", LastName: "B"}},
		},
	}
	f := newItemForm(item, true)
	f.inputs[formFieldTitle].SetValue("New Title")

	data := f.itemData()
	if data.Title != "New Title" {
		t.Fatalf("expected edited title; got %q", data.Title)
	}
	if data.AbstractNote != "kept" {
		t.Fatalf("expected unsurfaced fields preserved; got %q", data.AbstractNote)
	}
	if data.ItemType != "journalArticle" {
		t.Fatalf("expected type preserved; got %q", data.ItemType)
	}
}
