package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapekit/config"
	"github.com/use-agent/scrapekit/engine"
	"github.com/use-agent/scrapekit/history"
	"github.com/use-agent/scrapekit/models"
)

type stubFetcher struct {
	body string
	err  error
}

func (s stubFetcher) Fetch(context.Context, string) (string, error) { return s.body, s.err }

type stubSessions int

func (s stubSessions) ActiveSessions() int { return int(s) }

func newTestRouter(t *testing.T, f engine.Fetcher, mutate func(*config.Config)) (http.Handler, *history.Memory) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Auth.Keys = map[string]string{"k-alice": "alice"}
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	if mutate != nil {
		mutate(cfg)
	}

	store := history.NewMemory(10)
	r := NewRouter(cfg, Deps{
		Dispatcher: engine.NewDispatcher(f, nil),
		Store:      store,
		Recorder:   store,
		Sessions:   stubSessions(2),
		StartTime:  time.Now(),
	})
	return r, store
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, stubFetcher{}, nil)

	w := do(t, r, http.MethodGet, "/api/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.Sessions)
}

func TestScrape_AnonymousIsNotRecorded(t *testing.T) {
	r, store := newTestRouter(t, stubFetcher{body: "<p>hi</p>"}, nil)

	w := do(t, r, http.MethodPost, "/api/v1/scrape",
		map[string]any{"url": "www.example.com", "strategy": "plain"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.ScrapeResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "https://example.com", resp.URL)
	assert.Equal(t, "plain", resp.Strategy)
	assert.Equal(t, "<p>hi</p>", resp.Content)
	assert.False(t, resp.Recorded)
	assert.Zero(t, store.Len())
}

func TestScrape_RecordsAndListsHistory(t *testing.T) {
	r, _ := newTestRouter(t, stubFetcher{body: "<p>Hello   world</p>"}, nil)
	auth := map[string]string{"Authorization": "Bearer k-alice"}

	w := do(t, r, http.MethodPost, "/api/v1/scrape",
		map[string]any{"url": "https://example.com", "scraping_method": "bs4", "clean": true}, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.ScrapeResponse](t, w).Recorded)

	w = do(t, r, http.MethodGet, "/api/v1/history", nil, map[string]string{"X-API-Key": "k-alice"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.HistoryResponse](t, w)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "https://example.com", resp.Records[0].URL)
	assert.Equal(t, "parsed", resp.Records[0].Strategy)
	assert.Equal(t, "# Untitled\n\n- Hello world\n", resp.Records[0].Content)
	assert.NotEmpty(t, resp.Records[0].Date)
}

func TestScrape_FailureIsNotRecorded(t *testing.T) {
	r, store := newTestRouter(t, stubFetcher{err: models.UpstreamNonSuccess(404, "https://example.com")}, nil)

	w := do(t, r, http.MethodPost, "/api/v1/scrape",
		map[string]any{"url": "https://example.com", "strategy": "plain"},
		map[string]string{"X-API-Key": "k-alice"})
	require.Equal(t, http.StatusBadGateway, w.Code)

	resp := decode[models.ScrapeResponse](t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeUpstreamNonSuccess, resp.Error.Code)
	assert.Equal(t, 404, resp.Error.StatusCode)
	assert.Zero(t, store.Len())
}

func TestScrape_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t, stubFetcher{}, nil)

	tests := []struct {
		name string
		body any
	}{
		{"missing body", nil},
		{"missing url", map[string]any{"strategy": "plain"}},
		{"unknown strategy", map[string]any{"url": "https://example.com", "strategy": "wget"}},
		{"browser without label", map[string]any{"url": "https://example.com", "strategy": "browser"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/scrape", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[models.ScrapeResponse](t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, models.ErrCodeBadRequest, resp.Error.Code)
		})
	}
}

func TestIdentity(t *testing.T) {
	r, _ := newTestRouter(t, stubFetcher{body: "x"}, nil)

	w := do(t, r, http.MethodPost, "/api/v1/scrape",
		map[string]any{"url": "https://example.com", "strategy": "plain"},
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/history", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/auth", nil, map[string]string{"Authorization": "Bearer k-alice"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.AuthResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "alice", resp.UserID)
}

func TestRateLimit(t *testing.T) {
	r, _ := newTestRouter(t, stubFetcher{body: "x"}, func(cfg *config.Config) {
		cfg.RateLimit.RequestsPerSecond = 0.001
		cfg.RateLimit.Burst = 1
	})
	body := map[string]any{"url": "https://example.com", "strategy": "plain"}

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/v1/scrape", body, nil).Code)

	w := do(t, r, http.MethodPost, "/api/v1/scrape", body, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, models.ErrCodeRateLimited, decode[models.ScrapeResponse](t, w).Error.Code)
}
