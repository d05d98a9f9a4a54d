package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/your-org/wanted/internal/cache"
	"github.com/your-org/wanted/internal/domain"
	"github.com/your-org/wanted/internal/middleware"
	"github.com/your-org/wanted/internal/usecases"
)

// fakeSource answers from canned data and counts calls
type fakeSource struct {
	list     domain.Payload
	person   domain.Payload
	err      error
	calls    int
	lastList domain.ListParams
}

func (f *fakeSource) List(_ context.Context, params domain.ListParams) (domain.Payload, error) {
	f.calls++
	f.lastList = params
	if f.err != nil {
		return nil, f.err
	}
	return f.list.Clone(), nil
}

func (f *fakeSource) Person(_ context.Context, id string) (domain.Payload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.person == nil {
		return nil, fmt.Errorf("person %s: %w", id, domain.ErrNotFound)
	}
	return f.person.Clone(), nil
}

func newTestRouter(t *testing.T, source *fakeSource) (http.Handler, *cache.Cache) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	c := cache.New(cache.Options{Source: source}, logger)
	c.Clear()

	uc := usecases.NewWantedUsecase(source, c, logger, 4)
	wanted := NewWantedHandler(uc, logger)
	admin := NewCacheHandler(c, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
	r.Get("/health", admin.Health)
	r.Route("/api/cache", func(r chi.Router) {
		r.Get("/stats", admin.Stats)
		r.Post("/clear", admin.Clear)
		r.Post("/warmup", admin.Warmup)
	})
	r.Route("/api/wanted", wanted.Routes)

	return r, c
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func errorMessage(body map[string]interface{}) string {
	detail, _ := body["error"].(map[string]interface{})
	msg, _ := detail["message"].(string)
	return msg
}

func TestListWantedCachesSecondRequest(t *testing.T) {
	source := &fakeSource{list: domain.Payload{"total": 100, "items": []interface{}{}}}
	h, _ := newTestRouter(t, source)

	rec, body := do(t, h, http.MethodGet, "/api/wanted?page=2&pageSize=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, domain.ListParams{Page: 2, PageSize: 10}, source.lastList)

	rec, body = do(t, h, http.MethodGet, "/api/wanted?page=2&pageSize=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, "list", body["cacheType"])
	assert.Equal(t, 1, source.calls)
}

func TestListWantedPaginationDefaults(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.ListParams
	}{
		{"no params", "", domain.ListParams{Page: 1, PageSize: 20}},
		{"garbage", "?page=abc&pageSize=-3", domain.ListParams{Page: 1, PageSize: 20}},
		{"capped", "?page=3&pageSize=500", domain.ListParams{Page: 3, PageSize: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &fakeSource{list: domain.Payload{"items": []interface{}{}}}
			h, _ := newTestRouter(t, source)

			rec, _ := do(t, h, http.MethodGet, "/api/wanted"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, source.lastList)
		})
	}
}

func TestListWantedUpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"rate limited", domain.ErrRateLimited, "Rate limit exceeded. Please try again later."},
		{"timeout", domain.ErrUpstreamTimeout, "Request timeout. Please try again."},
		{"other", fmt.Errorf("status 502: %w", domain.ErrUpstream), "Failed to fetch data from FBI API"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, &fakeSource{err: tt.err})

			rec, body := do(t, h, http.MethodGet, "/api/wanted")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.msg, errorMessage(body))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestSearchWanted(t *testing.T) {
	source := &fakeSource{list: domain.Payload{"total": 1, "items": []interface{}{}}}
	h, _ := newTestRouter(t, source)

	rec, body := do(t, h, http.MethodGet, "/api/wanted/search?query=John")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "John", body["searchQuery"])
	assert.Equal(t, "John", source.lastList.Title)

	rec, body = do(t, h, http.MethodGet, "/api/wanted/search?query=John")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "search", body["cacheType"])
}

func TestSearchWantedRequiresQuery(t *testing.T) {
	source := &fakeSource{}
	h, _ := newTestRouter(t, source)

	for _, target := range []string{"/api/wanted/search", "/api/wanted/search?query=%20%20"} {
		rec, body := do(t, h, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Search query is required", errorMessage(body))
	}
	assert.Zero(t, source.calls)
}

func TestFilterOptions(t *testing.T) {
	source := &fakeSource{list: domain.Payload{"items": []interface{}{
		map[string]interface{}{"hair_raw": "Brown", "race_raw": "White"},
		map[string]interface{}{"hair_raw": "Black", "race_raw": "White"},
	}}}
	h, _ := newTestRouter(t, source)

	rec, body := do(t, h, http.MethodGet, "/api/wanted/filters/options")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"Black", "Brown"}, body["hairColors"])
	assert.Equal(t, []interface{}{"White"}, body["races"])
}

func TestGetPerson(t *testing.T) {
	source := &fakeSource{person: domain.Payload{"uid": "abc123", "title": "Jane Roe"}}
	h, _ := newTestRouter(t, source)

	rec, body := do(t, h, http.MethodGet, "/api/wanted/abc123")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", body["uid"])
	assert.Equal(t, "Jane Roe", body["title"])

	_, body = do(t, h, http.MethodGet, "/api/wanted/abc123")
	assert.Equal(t, "detail", body["cacheType"])
}

func TestGetPersonNotFound(t *testing.T) {
	h, _ := newTestRouter(t, &fakeSource{})

	rec, body := do(t, h, http.MethodGet, "/api/wanted/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Person not found", errorMessage(body))
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestRouter(t, &fakeSource{})

	rec, body := do(t, h, http.MethodGet, "/api/nothing-here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", errorMessage(body))
}

func TestCacheAdminEndpoints(t *testing.T) {
	source := &fakeSource{list: domain.Payload{"total": 100, "items": []interface{}{}}}
	h, c := newTestRouter(t, source)

	rec, body := do(t, h, http.MethodPost, "/api/cache/warmup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Cache warmup completed", body["message"])
	_, ok := c.Get(cache.ListKey(1, 20), domain.CategoryList)
	assert.True(t, ok)

	rec, body = do(t, h, http.MethodGet, "/api/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "enhanced-memory", body["cache"])
	stats, _ := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["totalKeys"])

	rec, body = do(t, h, http.MethodPost, "/api/cache/clear")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cache cleared successfully", body["message"])
	assert.Zero(t, c.Stats().TotalKeys)
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, &fakeSource{})

	rec, body := do(t, h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "stats")
}

// stubAuth accepts admin/secret
type stubAuth struct{}

func (stubAuth) Login(username, password string) (string, domain.User, error) {
	if username == "admin" && password == "secret" {
		return "token-123", domain.User{Username: "admin", Role: "admin"}, nil
	}
	return "", domain.User{}, domain.ErrInvalidCredentials
}

func TestLogin(t *testing.T) {
	h := NewAuthHandler(stubAuth{}, zaptest.NewLogger(t))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"username":"admin","password":"secret"}`, http.StatusOK},
		{"wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"malformed", `{"username":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)

			if tt.status == http.StatusOK {
				var resp LoginResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "token-123", resp.Token)
				assert.Equal(t, "admin", resp.User.Username)
			}
		})
	}
}
