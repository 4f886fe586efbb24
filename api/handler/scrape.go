package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapekit/api/middleware"
	"github.com/use-agent/scrapekit/engine"
	"github.com/use-agent/scrapekit/history"
	"github.com/use-agent/scrapekit/models"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// The result is recorded in the caller's history only when the dispatch
// succeeded and the request carried an identity. A recording failure is
// logged and reported through the recorded flag; it never fails the request.
func Scrape(d *engine.Dispatcher, rec history.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeBadRequest,
					Message: err.Error(),
				},
			})
			return
		}

		dispatchStart := time.Now()
		result, err := d.Dispatch(c.Request.Context(), req)
		dispatchMs := time.Since(dispatchStart).Milliseconds()

		if err != nil {
			respondError(c, err, models.TimingInfo{
				TotalMs:    time.Since(totalStart).Milliseconds(),
				DispatchMs: dispatchMs,
			})
			return
		}

		resp := models.ScrapeResponse{
			Success:  true,
			URL:      result.URL,
			Strategy: result.Strategy.String(),
			Content:  result.Content,
			Metadata: result.Metadata,
		}

		if userID := middleware.UserID(c); userID != "" && rec != nil {
			entry := &models.HistoryEntry{
				UserID:   userID,
				URL:      result.URL,
				Strategy: result.Strategy,
				Content:  result.Content,
			}
			if err := rec.Record(context.WithoutCancel(c.Request.Context()), entry); err != nil {
				slog.Warn("history record failed", "user_id", userID, "url", result.URL, "error", err)
			} else {
				resp.Recorded = true
			}
		}

		resp.Timing = models.TimingInfo{
			TotalMs:    time.Since(totalStart).Milliseconds(),
			DispatchMs: dispatchMs,
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr := models.AsScrapeError(err)
	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeBadRequest:
		return http.StatusBadRequest // 400
	case models.ErrCodeTransport:
		if errors.Is(e, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout // 504
		}
		return http.StatusBadGateway // 502
	case models.ErrCodeUpstreamNonSuccess, models.ErrCodeAutomation:
		return http.StatusBadGateway // 502
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
