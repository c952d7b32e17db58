package middleware

import "github.com/gin-gonic/gin"

// userIDKey carries the authenticated user's ID in the request context. The
// typed key keeps it from colliding with other packages' context values.
const userIDKey = contextKey("userID")

// GetUserIDFromContext returns the caller's user ID as placed in the request
// context by AuthMiddleware. The gin context map is checked as a fallback for
// handlers invoked outside the middleware chain.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if id, ok := c.Request.Context().Value(userIDKey).(string); ok && id != "" {
		return id, true
	}
	if v, exists := c.Get(string(userIDKey)); exists {
		if id, ok := v.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}
