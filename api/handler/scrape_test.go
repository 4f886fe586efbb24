package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/scrapekit/models"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *models.ScrapeError
		want int
	}{
		{"bad request", models.BadRequest("url is required"), http.StatusBadRequest},
		{"upstream", models.UpstreamNonSuccess(404, "https://example.com"), http.StatusBadGateway},
		{"transport", models.TransportFailure("request", errors.New("connection refused")), http.StatusBadGateway},
		{"transport deadline", models.TransportFailure("request", fmt.Errorf("get: %w", context.DeadlineExceeded)), http.StatusGatewayTimeout},
		{"automation", models.AutomationFailure("select_result", "step failed", nil), http.StatusBadGateway},
		{"unauthorized", models.NewScrapeError(models.ErrCodeUnauthorized, "no", nil), http.StatusUnauthorized},
		{"rate limited", models.NewScrapeError(models.ErrCodeRateLimited, "slow", nil), http.StatusTooManyRequests},
		{"internal", models.AsScrapeError(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorToStatus(tt.err))
		})
	}
}
