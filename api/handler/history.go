package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapekit/api/middleware"
	"github.com/use-agent/scrapekit/history"
	"github.com/use-agent/scrapekit/models"
)

// History returns a handler for GET /api/v1/history. It lists the caller's
// entries newest first and must run behind a required Identity.
func History(store history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.List(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			se := models.NewScrapeError(models.ErrCodeInternal, "failed to list history", err)
			c.JSON(http.StatusInternalServerError, models.HistoryResponse{
				Success: false,
				Records: []models.HistoryRecord{},
				Error:   se.ToDetail(),
			})
			return
		}

		records := make([]models.HistoryRecord, 0, len(entries))
		for i := range entries {
			records = append(records, entries[i].Record())
		}
		c.JSON(http.StatusOK, models.HistoryResponse{
			Success: true,
			Records: records,
		})
	}
}

// Auth returns a handler for GET /api/v1/auth. It reports the user id the
// credentials resolve to and must run behind a required Identity.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.AuthResponse{
			Success: true,
			UserID:  middleware.UserID(c),
		})
	}
}
