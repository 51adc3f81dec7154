// Package api implements the client for the remote bibliographic web API
// (Zotero-compatible). All calls are plain HTTP/JSON with bearer-token auth;
// mutations carry the entity version as an If-Unmodified-Since-Version
// precondition so concurrent edits fail instead of clobbering each other.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"refero-cli/internal/derive"
	"refero-cli/internal/model"
)

const DefaultBaseURL = "https://api.zotero.org"

// DefaultPageLimit matches the server's maximum page size.
const DefaultPageLimit = 100

// VersionHeader is the optimistic-concurrency precondition header.
const VersionHeader = "If-Unmodified-Since-Version"

// RenderVersion formats a version for the concurrency header.
func RenderVersion(v int) string { return strconv.Itoa(v) }

// ParseVersion is the inverse of RenderVersion.
func ParseVersion(s string) (int, error) { return strconv.Atoi(s) }

// LibraryRef addresses a library in request paths.
type LibraryRef struct {
	ID   int64
	Type model.LibraryType
}

func Ref(lib model.Library) LibraryRef { return LibraryRef{ID: lib.ID, Type: lib.Type} }

func (r LibraryRef) basePath() string {
	if r.Type == model.LibraryTypeGroup {
		return fmt.Sprintf("/groups/%d", r.ID)
	}
	return fmt.Sprintf("/users/%d", r.ID)
}

// Client issues authenticated calls to the remote API. Authenticate must
// succeed before any other call; the validated key and user id are kept for
// the rest of the session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	apiKey string
	userID int64
}

func New(baseURL string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (c *Client) Authenticated() bool { return c.apiKey != "" }
func (c *Client) UserID() int64       { return c.userID }

// Authenticate validates the key against /keys/current and keeps it for
// subsequent calls. A rejected or empty key leaves the client
// unauthenticated.
func (c *Client) Authenticate(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, &AuthError{Reason: "API key is required"}
	}

	var resp struct {
		UserID int64 `json:"userID"`
	}
	err := c.doWithKey(ctx, key, http.MethodGet, "/keys/current", nil, nil, nil, &resp)
	if err != nil {
		c.apiKey = ""
		c.userID = 0
		var reqErr *RequestError
		if errors.As(err, &reqErr) && (reqErr.Status == http.StatusUnauthorized || reqErr.Status == http.StatusForbidden) {
			return 0, &AuthError{Reason: "key rejected by server"}
		}
		return 0, err
	}

	c.apiKey = key
	c.userID = resp.UserID
	c.log.Debug("authenticated", "user_id", resp.UserID)
	return resp.UserID, nil
}

// ListLibraries enumerates the personal library plus all group libraries.
// The personal collection list and the group list are fetched in parallel
// and joined before anything is returned; partial results are never exposed.
func (c *Client) ListLibraries(ctx context.Context) ([]model.Library, error) {
	if !c.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	userRef := LibraryRef{ID: c.userID, Type: model.LibraryTypeUser}

	var (
		userCollections []model.Collection
		groups          []struct {
			ID   int64 `json:"id"`
			Data struct {
				Name string `json:"name"`
			} `json:"data"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cols, err := c.ListCollections(gctx, userRef)
		if err != nil {
			return err
		}
		userCollections = cols
		return nil
	})
	g.Go(func() error {
		return c.do(gctx, http.MethodGet, fmt.Sprintf("/users/%d/groups", c.userID), nil, nil, nil, &groups)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	libs := []model.Library{{
		ID:          c.userID,
		Name:        "My Library",
		Type:        model.LibraryTypeUser,
		Collections: userCollections,
	}}
	for _, grp := range groups {
		libs = append(libs, model.Library{
			ID:   grp.ID,
			Name: grp.Data.Name,
			Type: model.LibraryTypeGroup,
		})
	}
	return libs, nil
}

func (c *Client) ListCollections(ctx context.Context, lib LibraryRef) ([]model.Collection, error) {
	var cols []model.Collection
	if err := c.do(ctx, http.MethodGet, lib.basePath()+"/collections", nil, nil, nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// ListOptions controls item pagination.
type ListOptions struct {
	Limit int
	Start int
}

func (o ListOptions) values() url.Values {
	limit := o.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("start", strconv.Itoa(o.Start))
	return v
}

// ListItems fetches the items behind a collection ref. Real collections load
// their membership; uncategorized loads top-level items without memberships;
// duplicates loads top-level items and runs duplicate detection; trash loads
// the trash endpoint. Attachments are excluded in every case, before any
// further filtering.
func (c *Client) ListItems(ctx context.Context, lib LibraryRef, ref model.CollectionRef, opts ListOptions) ([]model.Item, error) {
	base := lib.basePath()
	var path string
	switch ref.Special() {
	case model.SpecialTrash:
		path = base + "/items/trash"
	case model.SpecialUncategorized, model.SpecialDuplicates:
		path = base + "/items/top"
	default:
		path = base + "/collections/" + ref.Key() + "/items"
	}

	var items []model.Item
	if err := c.do(ctx, http.MethodGet, path, opts.values(), nil, nil, &items); err != nil {
		return nil, err
	}

	filtered := items[:0:0]
	for _, it := range items {
		if it.Data.ItemType != model.ItemTypeAttachment {
			filtered = append(filtered, it)
		}
	}

	switch ref.Special() {
	case model.SpecialUncategorized:
		uncategorized := filtered[:0:0]
		for _, it := range filtered {
			if len(it.Data.Collections) == 0 {
				uncategorized = append(uncategorized, it)
			}
		}
		return uncategorized, nil
	case model.SpecialDuplicates:
		return derive.FindDuplicates(filtered), nil
	}
	return filtered, nil
}

// CreateItem posts a new item into the given collections and returns the key
// the server assigned to it.
func (c *Client) CreateItem(ctx context.Context, lib LibraryRef, data model.ItemData, collectionKeys []string) (string, error) {
	payload := data.Clone()
	payload.Collections = collectionKeys

	var result writeResult
	if err := c.do(ctx, http.MethodPost, lib.basePath()+"/items", nil, []model.ItemData{payload}, nil, &result); err != nil {
		return "", err
	}
	return result.firstKey(), nil
}

// UpdateItem replaces an item's data, conditional on version. Collection
// memberships are managed separately and stripped from the payload.
func (c *Client) UpdateItem(ctx context.Context, lib LibraryRef, key string, data model.ItemData, version int) error {
	payload := data.Clone()
	payload.Collections = nil
	return c.do(ctx, http.MethodPut, lib.basePath()+"/items/"+key, nil, payload, &version, nil)
}

func (c *Client) DeleteItem(ctx context.Context, lib LibraryRef, key string, version int) error {
	return c.do(ctx, http.MethodDelete, lib.basePath()+"/items/"+key, nil, nil, &version, nil)
}

// CreateCollection creates a collection, optionally under a parent, and
// returns the new key.
func (c *Client) CreateCollection(ctx context.Context, lib LibraryRef, name string, parentKey string) (string, error) {
	body := []model.CollectionData{{Name: name, ParentCollection: model.ParentKey(parentKey)}}
	var result writeResult
	if err := c.do(ctx, http.MethodPost, lib.basePath()+"/collections", nil, body, nil, &result); err != nil {
		return "", err
	}
	return result.firstKey(), nil
}

// RenameCollection updates a collection's name, preserving its parent,
// conditional on version.
func (c *Client) RenameCollection(ctx context.Context, lib LibraryRef, col model.Collection, newName string) error {
	body := model.CollectionData{Name: newName, ParentCollection: col.Data.ParentCollection}
	version := col.Version
	return c.do(ctx, http.MethodPut, lib.basePath()+"/collections/"+col.Key, nil, body, &version, nil)
}

func (c *Client) DeleteCollection(ctx context.Context, lib LibraryRef, key string, version int) error {
	return c.do(ctx, http.MethodDelete, lib.basePath()+"/collections/"+key, nil, nil, &version, nil)
}

// writeResult is the server's write envelope. Depending on API version the
// successful entries are full objects or bare key strings.
type writeResult struct {
	Successful map[string]json.RawMessage `json:"successful"`
	Success    map[string]string          `json:"success"`
}

func (r writeResult) firstKey() string {
	if raw, ok := r.Successful["0"]; ok {
		var obj struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Key != "" {
			return obj.Key
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return r.Success["0"]
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, version *int, out any) error {
	if !c.Authenticated() {
		return ErrNotAuthenticated
	}
	return c.doWithKey(ctx, c.apiKey, method, path, params, body, version, out)
}

func (c *Client) doWithKey(ctx context.Context, key, method, path string, params url.Values, body any, version *int, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	if version != nil {
		req.Header.Set(VersionHeader, RenderVersion(*version))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("api request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
