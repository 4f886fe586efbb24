package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapekit/models"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// SessionCounter reports live browser sessions.
type SessionCounter interface {
	ActiveSessions() int
}

// Health returns a handler for GET /api/v1/health. sessions may be nil when
// browser automation is disabled.
func Health(sessions SessionCounter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := 0
		if sessions != nil {
			active = sessions.ActiveSessions()
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   "healthy",
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Sessions: active,
			Version:  Version,
		})
	}
}
