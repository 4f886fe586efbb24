package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"plain", PlainFetch},
		{"parsed", ParsedFetch},
		{"browser", BrowserAutomated},
		{"requests", PlainFetch},
		{"bs4", ParsedFetch},
		{" Selenium ", BrowserAutomated},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}

	_, err := ParseStrategy("curl")
	assert.Error(t, err)
	assert.False(t, StrategyUnknown.Valid())
	assert.Equal(t, "unknown", StrategyUnknown.String())
}

func TestStrategyName_LegacyField(t *testing.T) {
	r := ScrapeRequest{ScrapingMethod: "bs4"}
	assert.Equal(t, "bs4", r.StrategyName())

	r.Strategy = "plain"
	assert.Equal(t, "plain", r.StrategyName())
}

func TestAsScrapeError(t *testing.T) {
	se := UpstreamNonSuccess(404, "https://example.com")
	wrapped := fmt.Errorf("dispatch: %w", se)
	assert.Same(t, se, AsScrapeError(wrapped))

	plain := errors.New("boom")
	got := AsScrapeError(plain)
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.ErrorIs(t, got, plain)

	assert.Nil(t, AsScrapeError(nil))
}

func TestToDetail(t *testing.T) {
	d := AutomationFailure("select_result", "element not found", nil).ToDetail()
	assert.Equal(t, ErrCodeAutomation, d.Code)
	assert.Equal(t, "select_result", d.Step)

	d = UpstreamNonSuccess(503, "https://example.com").ToDetail()
	assert.Equal(t, 503, d.StatusCode)
}

func TestHistoryRecord_WireFields(t *testing.T) {
	e := HistoryEntry{
		ID:        "id-1",
		URL:       "https://example.com",
		Strategy:  ParsedFetch,
		Content:   "# Example",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	b, err := json.Marshal(e.Record())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.Equal(t, map[string]any{
		"id":       "id-1",
		"url":      "https://example.com",
		"strategy": "parsed",
		"content":  "# Example",
		"date":     "2026-01-02 03:04:05",
	}, fields)
}
