package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"refero-cli/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, nil), srv
}

func authedClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/keys/current", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"userID": 42})
	})
	mux.HandleFunc("/", handler)
	c, _ := newTestClient(t, mux)
	_, err := c.Authenticate(context.Background(), "test-key")
	require.NoError(t, err)
	return c
}

func TestVersionHeaderRoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, 5, 1234567} {
		got, err := ParseVersion(RenderVersion(v))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestAuthenticate_EmptyKeyFailsFast(t *testing.T) {
	called := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := c.Authenticate(context.Background(), "")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.False(t, called, "no request should be issued for an empty key")
	require.False(t, c.Authenticated())
}

func TestAuthenticate_Success(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/keys/current", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"userID": 42})
	}))

	userID, err := c.Authenticate(context.Background(), "secret")
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
	require.True(t, c.Authenticated())
}

func TestAuthenticate_RejectedKey(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.Authenticate(context.Background(), "bad-key")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.False(t, c.Authenticated())
}

func TestListLibraries_RequiresAuthentication(t *testing.T) {
	c := New("http://localhost:0", nil)
	_, err := c.ListLibraries(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestListLibraries_JoinsPersonalAndGroups(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/42/collections":
			_, _ = w.Write([]byte(`[{"key":"COL1","version":3,"data":{"name":"Readings","parentCollection":false}}]`))
		case "/users/42/groups":
			_, _ = w.Write([]byte(`[{"id":900,"data":{"name":"Lab Group"}}]`))
		default:
			http.NotFound(w, r)
		}
	})

	libs, err := c.ListLibraries(context.Background())
	require.NoError(t, err)
	require.Len(t, libs, 2)

	require.Equal(t, model.LibraryTypeUser, libs[0].Type)
	require.Equal(t, int64(42), libs[0].ID)
	require.Len(t, libs[0].Collections, 1)
	require.Equal(t, "Readings", libs[0].Collections[0].Data.Name)

	require.Equal(t, model.LibraryTypeGroup, libs[1].Type)
	require.Equal(t, "Lab Group", libs[1].Name)
}

func itemJSON(key, itemType, title string, collections []string) map[string]any {
	data := map[string]any{"itemType": itemType, "title": title}
	if collections != nil {
		data["collections"] = collections
	}
	return map[string]any{"key": key, "version": 1, "data": data}
}

func TestListItems_RealCollectionExcludesAttachments(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/42/collections/COL1/items", r.URL.Path)
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		require.Equal(t, "0", r.URL.Query().Get("start"))
		_ = json.NewEncoder(w).Encode([]any{
			itemJSON("A", "book", "A Book", nil),
			itemJSON("B", "attachment", "scan.pdf", nil),
		})
	})

	items, err := c.ListItems(context.Background(), LibraryRef{ID: 42, Type: model.LibraryTypeUser},
		model.RealCollection("COL1"), ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "A", items[0].Key)
}

func TestListItems_UncategorizedFiltersMemberships(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/42/items/top", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]any{
			itemJSON("A", "book", "Filed", []string{"COL1"}),
			itemJSON("B", "book", "Loose", nil),
			itemJSON("C", "book", "Empty memberships", []string{}),
		})
	})

	items, err := c.ListItems(context.Background(), LibraryRef{ID: 42, Type: model.LibraryTypeUser},
		model.SpecialCollection(model.SpecialUncategorized), ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "B", items[0].Key)
	require.Equal(t, "C", items[1].Key)
}

func TestListItems_DuplicatesRunsDetection(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/42/items/top", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]any{
			itemJSON("A", "book", "Same Title", nil),
			itemJSON("B", "book", "Same Title", nil),
			itemJSON("C", "book", "Unique", nil),
		})
	})

	items, err := c.ListItems(context.Background(), LibraryRef{ID: 42, Type: model.LibraryTypeUser},
		model.SpecialCollection(model.SpecialDuplicates), ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestListItems_TrashEndpoint(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/groups/900/items/trash", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]any{itemJSON("T", "book", "Discarded", nil)})
	})

	items, err := c.ListItems(context.Background(), LibraryRef{ID: 900, Type: model.LibraryTypeGroup},
		model.SpecialCollection(model.SpecialTrash), ListOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestCreateItem_PostsSingletonArrayAndReturnsKey(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/42/items", r.URL.Path)

		var body []model.ItemData
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		require.Equal(t, []string{"COL1"}, body[0].Collections)

		_, _ = w.Write([]byte(`{"successful":{"0":{"key":"NEWKEY"}}}`))
	})

	key, err := c.CreateItem(context.Background(), LibraryRef{ID: 42, Type: model.LibraryTypeUser},
		model.ItemData{ItemType: "book", Title: "New"}, []string{"COL1"})
	require.NoError(t, err)
	require.Equal(t, "NEWKEY", key)
}

func TestCreateItem_BareStringWriteResult(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":{"0":"ABCD1234"}}`))
	})

	key, err := c.CreateItem(context.Background(), LibraryRef{ID: 42, Type: model.LibraryTypeUser},
		model.ItemData{ItemType: "book"}, nil)
	require.NoError(t, err)
	require.Equal(t, "ABCD1234", key)
}

func TestUpdateItem_SendsVersionPrecondition(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/users/42/items/KEY1", r.URL.Path)
		require.Equal(t, "5", r.Header.Get(VersionHeader))

		var body model.ItemData
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Empty(t, body.Collections, "memberships must be stripped from updates")
	})

	err := c.UpdateItem(context.Background(), LibraryRef{ID: 42, Type: model.LibraryTypeUser},
		"KEY1", model.ItemData{ItemType: "book", Title: "T", Collections: []string{"COL1"}}, 5)
	require.NoError(t, err)
}

func TestUpdateItem_StaleVersionSurfacesAsRequestError(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
	})

	err := c.UpdateItem(context.Background(), LibraryRef{ID: 42, Type: model.LibraryTypeUser},
		"KEY1", model.ItemData{ItemType: "book"}, 5)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusPreconditionFailed, reqErr.Status)
}

func TestDeleteCollection_SendsVersion(t *testing.T) {
	c := authedClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/users/42/collections/COL1", r.URL.Path)
		require.Equal(t, "7", r.Header.Get(VersionHeader))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.DeleteCollection(context.Background(), LibraryRef{ID: 42, Type: model.LibraryTypeUser}, "COL1", 7)
	require.NoError(t, err)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := New(srv.URL, nil)
	_, err := c.Authenticate(context.Background(), "key")
	require.Error(t, err)

	srv.Close() // further calls hit a dead socket
	c.apiKey = "key"
	_, listErr := c.ListCollections(context.Background(), LibraryRef{ID: 1, Type: model.LibraryTypeUser})
	var netErr *NetworkError
	if !errors.As(listErr, &netErr) {
		t.Fatalf("expected NetworkError, got %v", listErr)
	}
}
