package main

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
	"github.com/use-agent/scrapekit/models"
)

func TestScrapeOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Hi</title></head><body><p>there</p></body></html>`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := scrapeOnce(context.Background(), config.Default(),
		models.ScrapeRequest{URL: srv.URL, Strategy: "parsed", Clean: true}, false, &out)
	require.NoError(t, err)
	assert.Equal(t, "# Hi\n\n- Hi there\n", out.String())
}

func TestScrapeOnce_JSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	var out bytes.Buffer
	err := scrapeOnce(context.Background(), config.Default(),
		models.ScrapeRequest{URL: srv.URL, Strategy: "plain"}, true, &out)
	require.Error(t, err)

	var resp models.ScrapeResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrCodeUpstreamNonSuccess, resp.Error.Code)
	assert.Equal(t, http.StatusNotFound, resp.Error.StatusCode)
}

func TestScrapeOnce_BadRequest(t *testing.T) {
	var out bytes.Buffer
	err := scrapeOnce(context.Background(), config.Default(),
		models.ScrapeRequest{URL: "https://example.com", Strategy: "browser"}, false, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.ErrCodeBadRequest)
	assert.Empty(t, out.String())
}

func TestDrainWindow_CoversWorstCaseBrowserRun(t *testing.T) {
	cfg := config.Default()
	_, _, driver, err := newDispatcher(cfg)
	require.NoError(t, err)

	b := cfg.Browser
	worst := b.NavigationTimeout + 5*b.ElementWait + 3*b.SettleDelay
	assert.Greater(t, drainWindow(driver), worst)

	cfg.Browser.NavigationTimeout = 2 * time.Minute
	_, _, driver, err = newDispatcher(cfg)
	require.NoError(t, err)
	assert.Greater(t, drainWindow(driver), 2*time.Minute+5*b.ElementWait)
}
