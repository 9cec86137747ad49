package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hupe1980/contactbook"
	"github.com/hupe1980/contactbook/metric/prom"
	"github.com/hupe1980/contactbook/model"
	"github.com/hupe1980/contactbook/page"
	"github.com/hupe1980/contactbook/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config, optFns ...contactbook.Option) (*Server, *contactbook.Book) {
	t.Helper()
	b, err := contactbook.Open(context.Background(), store.NewMemoryStore(), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return New(b, cfg), b
}

func do(t *testing.T, h http.Handler, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_ContactLifecycle(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/contacts", map[string]string{"name": "Alice Smith", "email": "alice@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Contact](t, rec)
	assert.Equal(t, "Alice Smith", created.Name)
	assert.Equal(t, "alice@example.com", created.Email)

	rec = do(t, h, http.MethodPut, "/contacts", map[string]string{"email": "alice@example.com", "name": "Alice Jones"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice Jones", decode[model.Contact](t, rec).Name)

	rec = do(t, h, http.MethodPatch, "/contacts/email", map[string]string{"email": "alice@example.com", "new_email": "aj@example.org"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "aj@example.org", decode[model.Contact](t, rec).Email)

	rec = do(t, h, http.MethodGet, "/search?key=jon", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[page.Page[model.Entry]](t, rec)
	assert.Equal(t, []model.Entry{{Name: "alice jones", Email: "aj@example.org"}}, res.Items)

	rec = do(t, h, http.MethodDelete, "/contacts?email=aj@example.org", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/contacts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[page.Page[model.Contact]](t, rec).Total)
}

func TestServer_Errors(t *testing.T) {
	s, b := newTestServer(t, Config{})
	h := s.Handler()
	_, err := b.Create(context.Background(), "Bob", "bob@example.com")
	require.NoError(t, err)

	t.Run("Validation", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/contacts", map[string]string{"name": " ", "email": "nope"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		fields := decode[map[string]string](t, rec)
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "email")
	})

	t.Run("Duplicate", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/contacts", map[string]string{"name": "Other", "email": "BOB@example.com"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[map[string]string](t, rec), "email")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/contacts", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("RenameMissing", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/contacts", map[string]string{"email": "ghost@example.com", "name": "Ghost"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/contacts?email=ghost@example.com", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("DeleteWithoutEmail", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/contacts", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/search", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServer_Pagination(t *testing.T) {
	s, b := newTestServer(t, Config{}, contactbook.WithPageSize(2))
	ctx := context.Background()
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		_, err := b.Create(ctx, "Name "+email[:1], email)
		require.NoError(t, err)
	}

	rec := do(t, s.Handler(), http.MethodGet, "/contacts?page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[page.Page[model.Contact]](t, rec)
	assert.Equal(t, 2, p.Number)
	assert.Equal(t, 2, p.NumPages)
	assert.Equal(t, 3, p.Total)
	assert.Len(t, p.Items, 1)
	assert.True(t, p.HasPrev)
	assert.False(t, p.HasNext)
}

func TestServer_Auth(t *testing.T) {
	s, _ := newTestServer(t, Config{Tokens: []string{"s3cret"}})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/contacts", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = do(t, h, http.MethodGet, "/contacts", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/contacts", nil, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health checks stay open.
	rec = do(t, h, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RateLimit(t *testing.T) {
	s, _ := newTestServer(t, Config{RateLimit: 0.001, RateBurst: 2})
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/contacts", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/contacts", nil).Code)

	rec := do(t, h, http.MethodGet, "/contacts", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestServer_Health(t *testing.T) {
	s, b := newTestServer(t, Config{})
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/live", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", nil).Code)

	require.NoError(t, b.Close())
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/contacts", nil).Code)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, _ := newTestServer(t, Config{Gatherer: reg}, contactbook.WithMetricsCollector(prom.NewCollector(reg)))
	h := s.Handler()

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/contacts", map[string]string{"name": "Eve", "email": "eve@example.com"}).Code)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `contactbook_operations_total{op="create",status="ok"} 1`)
}
