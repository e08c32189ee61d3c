package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagconcierge/compass/internal/index"
	"github.com/tagconcierge/compass/internal/search"
	"github.com/tagconcierge/compass/internal/store"
)

func newTestServer(t *testing.T, cfg Config) (*Server, store.Store) {
	t.Helper()

	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	engine, err := search.NewEngine(s, search.Config{})
	require.NoError(t, err)

	rebuilder := index.NewRebuilder(s, index.RebuilderConfig{})
	coordinator := index.NewCoordinator(s, rebuilder, 0)

	return New(cfg, engine, index.NewIndexer(s), coordinator), s
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_SearchEndpoint(t *testing.T) {
	srv, s := newTestServer(t, Config{})
	require.NoError(t, s.Upsert(context.Background(), &store.Entry{
		ItemID: 1, ItemType: store.TypeContent, Title: "Hello World",
		Content: "lorem ipsum", EditURL: "https://example.test/edit/1"}))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/search",
		map[string]string{"query": "hello"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Hello World", resp.Results[0].Title)
}

func TestServer_SearchEmptyQueryReturnsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/search",
		map[string]string{"query": "   "}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestServer_RebuildEndpointSchedulesAndReturns202(t *testing.T) {
	srv, s := newTestServer(t, Config{})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/rebuild", nil, nil)

	require.Equal(t, http.StatusAccepted, rec.Code)

	// The manual path requests the settings pass via the one-shot flag.
	requested, err := s.ConsumeSettingsReindex(context.Background())
	require.NoError(t, err)
	assert.True(t, requested)
}

func TestServer_StatusEndpoint(t *testing.T) {
	srv, s := newTestServer(t, Config{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status index.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Running)

	ok, err := s.TryStartRebuild(context.Background(), time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Running)
	assert.NotZero(t, status.StartedAt)
}

func TestServer_ItemSavedAndDeleted(t *testing.T) {
	srv, s := newTestServer(t, Config{})
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/items", itemPayload{
		ID: 7, Type: store.TypeContent, Title: "Fresh document",
		Content: "body", EditURL: "https://example.test/edit/7"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := s.Search(context.Background(), "%fresh%", 15)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/items/7", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err = s.Search(context.Background(), "%fresh%", 15)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// faultyStore fails deletes with a backend error unrelated to the request.
type faultyStore struct {
	store.Store
}

func (f *faultyStore) DeleteByItemID(context.Context, int64) error {
	return fmt.Errorf("disk I/O error")
}

func TestServer_ItemSavedStoreFaultReturns500(t *testing.T) {
	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	faulty := &faultyStore{Store: s}
	engine, err := search.NewEngine(faulty, search.Config{})
	require.NoError(t, err)
	coordinator := index.NewCoordinator(faulty, index.NewRebuilder(faulty, index.RebuilderConfig{}), 0)
	srv := New(Config{}, engine, index.NewIndexer(faulty), coordinator)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/items", itemPayload{
		ID: 7, Type: store.TypeContent, Title: "Valid payload", EditURL: "u"}, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "indexing failed")
	assert.NotContains(t, rec.Body.String(), "disk I/O",
		"backend error text must not leak to the caller")
}

func TestServer_ItemSavedRejectsInvalidPayload(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/items",
		itemPayload{ID: 0, Type: store.TypeContent, Title: "No id"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestServer_ItemDeletedRejectsBadID(t *testing.T) {
	srv, _ := newTestServer(t, Config{})

	rec := doJSON(t, srv.Handler(), http.MethodDelete, "/api/v1/items/abc", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AuthRequiredWhenSecretSet(t *testing.T) {
	srv, _ := newTestServer(t, Config{AuthSecret: "test-secret"})
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/search",
		map[string]string{"query": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/search",
		map[string]string{"query": "x"},
		map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "host-app",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/search",
		map[string]string{"query": "x"},
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_AuthRejectsWrongKey(t *testing.T) {
	srv, _ := newTestServer(t, Config{AuthSecret: "right-secret"})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/search",
		map[string]string{"query": "x"},
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_HealthzSkipsAuth(t *testing.T) {
	srv, _ := newTestServer(t, Config{AuthSecret: "secret"})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RequestIDEchoed(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = doJSON(t, handler, http.MethodGet, "/healthz", nil,
		map[string]string{"X-Request-ID": "fixed-id"})
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
