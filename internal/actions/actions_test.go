package actions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"refero-cli/internal/api"
	"refero-cli/internal/app"
	"refero-cli/internal/logging"
	"refero-cli/internal/model"
	"refero-cli/internal/store"
)

type fakeRemote struct {
	mu       sync.Mutex
	requests []string
	deleted  []string
}

func (f *fakeRemote) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/keys/current":
		_ = json.NewEncoder(w).Encode(map[string]any{"userID": 7})
	case r.URL.Path == "/users/7/groups":
		_, _ = w.Write([]byte(`[]`))
	case r.URL.Path == "/users/7/collections" && r.Method == http.MethodGet:
		f.mu.Lock()
		gone := len(f.deleted) > 0
		f.mu.Unlock()
		if gone {
			_, _ = w.Write([]byte(`[{"key":"C2","version":2,"data":{"name":"Second","parentCollection":false}}]`))
			return
		}
		_, _ = w.Write([]byte(`[
			{"key":"C1","version":1,"data":{"name":"First","parentCollection":false}},
			{"key":"C2","version":2,"data":{"name":"Second","parentCollection":false}}
		]`))
	case r.URL.Path == "/users/7/collections" && r.Method == http.MethodPost:
		_, _ = w.Write([]byte(`{"successful":{"0":{"key":"NEWC"}}}`))
	case r.URL.Path == "/users/7/collections/C1/items" || r.URL.Path == "/users/7/collections/C2/items":
		_, _ = w.Write([]byte(`[
			{"key":"I1","version":3,"data":{"itemType":"journalArticle","title":"Tides","creators":[{"creatorType":"author","firstName":"Ada","lastName":"Shore"}],"date":"2019-04-01"}}
		]`))
	case r.Method == http.MethodDelete:
		f.mu.Lock()
		f.deleted = append(f.deleted, r.URL.Path)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPut:
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/users/7/items" && r.Method == http.MethodPost:
		_, _ = w.Write([]byte(`{"successful":{"0":{"key":"I9"}}}`))
	case r.URL.Path == "/users/7/items/top" || r.URL.Path == "/users/7/items/trash":
		_, _ = w.Write([]byte(`[]`))
	default:
		http.NotFound(w, r)
	}
}

func newApp(t *testing.T, fake *fakeRemote) *app.Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := api.New(srv.URL, logging.Discard())
	prefs := store.Store{Dir: t.TempDir(), Log: logging.Discard()}
	s := app.NewStore(client, prefs, logging.Discard())
	ctx := context.Background()
	require.NoError(t, s.Authenticate(ctx, "key", true))
	require.NoError(t, s.SelectLibrary(ctx, s.Snapshot().Libraries[0]))
	return s
}

type memClipboard struct {
	text string
	err  error
}

func (c *memClipboard) WriteText(s string) error {
	if c.err != nil {
		return c.err
	}
	c.text = s
	return nil
}

type memFiles struct {
	names map[string][]byte
}

func (f *memFiles) Save(name string, data []byte) error {
	if f.names == nil {
		f.names = map[string][]byte{}
	}
	f.names[name] = data
	return nil
}

func denyConfirm() Confirmer { return ConfirmFunc(func(string) bool { return false }) }

func TestItemDuplicate_CreatesCopyWithMarkedTitle(t *testing.T) {
	fake := &fakeRemote{}
	s := newApp(t, fake)
	clip := &memClipboard{}
	a := ItemActions{App: s, Clip: clip, Confirm: AlwaysConfirm}

	item := s.Snapshot().Items[0]
	res := a.Duplicate(context.Background(), item)

	require.True(t, res.OK, res.Message)
	require.Equal(t, 1, fake.count(http.MethodPost, "/users/7/items"))
	// the original stays untouched in the buffer we passed
	require.Equal(t, "Tides", item.Data.Title)
}

func TestItemExport_PrefersClipboard(t *testing.T) {
	s := newApp(t, &fakeRemote{})
	clip := &memClipboard{}
	files := &memFiles{}
	a := ItemActions{App: s, Clip: clip, Files: files}

	res := a.Export(context.Background(), s.Snapshot().Items[0])

	require.True(t, res.OK)
	require.Contains(t, clip.text, "@article{Shore2019")
	require.Empty(t, files.names)
}

func TestItemExport_FallsBackToFile(t *testing.T) {
	s := newApp(t, &fakeRemote{})
	clip := &memClipboard{err: errors.New("no clipboard")}
	files := &memFiles{}
	a := ItemActions{App: s, Clip: clip, Files: files}

	res := a.Export(context.Background(), s.Snapshot().Items[0])

	require.True(t, res.OK)
	require.Contains(t, string(files.names["Tides.bib"]), "title = {Tides}")
}

func TestItemCopyURL_WarnsWhenMissing(t *testing.T) {
	s := newApp(t, &fakeRemote{})
	a := ItemActions{App: s, Clip: &memClipboard{}}

	res := a.CopyURL(s.Snapshot().Items[0])

	require.False(t, res.OK)
	require.Equal(t, app.LevelWarning, res.Level)
}

func TestItemDelete_CancelledMakesNoCall(t *testing.T) {
	fake := &fakeRemote{}
	s := newApp(t, fake)
	a := ItemActions{App: s, Confirm: denyConfirm()}

	res := a.Delete(context.Background(), s.Snapshot().Items[0])

	require.True(t, res.Cancelled)
	require.Zero(t, fake.count(http.MethodDelete, "/users/7/items/I1"))
}

func TestCollectionCreate_RefreshesTree(t *testing.T) {
	fake := &fakeRemote{}
	s := newApp(t, fake)
	a := CollectionActions{App: s}

	res := a.Create(context.Background(), "Reading", "")

	require.True(t, res.OK, res.Message)
	require.Equal(t, 1, fake.count(http.MethodPost, "/users/7/collections"))
	// create + refresh: the collection list was fetched again after the post
	require.GreaterOrEqual(t, fake.count(http.MethodGet, "/users/7/collections"), 2)
}

func TestCollectionCreate_RejectsEmptyName(t *testing.T) {
	fake := &fakeRemote{}
	s := newApp(t, fake)
	a := CollectionActions{App: s}

	res := a.Create(context.Background(), "   ", "")

	require.False(t, res.OK)
	require.Zero(t, fake.count(http.MethodPost, "/users/7/collections"))
}

func TestCollectionDelete_MovesSelectionOffDeleted(t *testing.T) {
	fake := &fakeRemote{}
	s := newApp(t, fake)
	ctx := context.Background()
	require.NoError(t, s.SelectCollection(ctx, model.RealCollection("C1")))
	col := s.Snapshot().Collections[0]
	require.Equal(t, "C1", col.Key)

	a := CollectionActions{App: s, Confirm: AlwaysConfirm}
	res := a.Delete(ctx, col)

	require.True(t, res.OK, res.Message)
	require.Equal(t, 1, fake.count(http.MethodDelete, "/users/7/collections/C1"))
	// Selection falls to the first surviving collection and its items load,
	// so the deleted collection's items are gone from the view.
	st := s.Snapshot()
	require.Equal(t, "C2", st.SelectedCollection.Key())
	require.GreaterOrEqual(t, fake.count(http.MethodGet, "/users/7/collections/C2/items"), 1)
}

func TestCollectionExport_WritesBibFile(t *testing.T) {
	s := newApp(t, &fakeRemote{})
	files := &memFiles{}
	a := CollectionActions{App: s, Files: files}
	col := s.Snapshot().Collections[0]

	res := a.Export(context.Background(), col)

	require.True(t, res.OK, res.Message)
	require.Contains(t, string(files.names[col.Data.Name+".bib"]), "@article{Shore2019")
}

func TestCollectionProperties_SummarizesCollection(t *testing.T) {
	s := newApp(t, &fakeRemote{})
	a := CollectionActions{App: s}
	col := s.Snapshot().Collections[0]

	res := a.Properties(context.Background(), col)

	require.True(t, res.OK)
	require.Equal(t, app.LevelInfo, res.Level)
	require.Contains(t, res.Message, "Name: First")
	require.Contains(t, res.Message, "Items: 1")
}

func TestResultPublish_RoutesByOutcome(t *testing.T) {
	n := app.NewNotifier()

	success("done").Publish(n)
	latest, ok := n.Latest()
	require.True(t, ok)
	require.Equal(t, app.LevelSuccess, latest.Level)

	failure("broke").Publish(n)
	latest, ok = n.Latest()
	require.True(t, ok)
	require.Equal(t, app.LevelError, latest.Level)

	before := len(n.List())
	cancelled().Publish(n)
	require.Len(t, n.List(), before)
}
