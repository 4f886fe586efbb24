package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapekit/models"
)

// userIDKey is the gin context key holding the authenticated user id.
const userIDKey = "user_id"

// Identity returns API-key identity middleware. keys maps an API key to the
// user id it authenticates.
//
// Supports two header styles:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// A request without credentials continues anonymously unless required is
// set. Unknown keys are always rejected with 401.
func Identity(keys map[string]string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractAPIKey(c)
		if key == "" {
			if required {
				abortUnauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
				return
			}
			c.Next()
			return
		}

		userID, ok := keys[key]
		if !ok {
			abortUnauthorized(c, "invalid API key")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ScrapeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}

// extractAPIKey tries X-API-Key first, then Authorization: Bearer.
func extractAPIKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
