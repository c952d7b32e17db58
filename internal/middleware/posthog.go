package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groupcart/groupcart_backend/internal/utils"
)

// untrackedPaths are probe endpoints that would drown real product events.
var untrackedPaths = map[string]bool{
	"/health": true,
}

// routeEventName turns a route template into an analytics event name, e.g.
// "/api/v1/campaigns/:campaignID/join" -> "api_v1_campaigns_:campaignID_join".
// Empty for unmatched routes (404s), which are not worth tracking.
func routeEventName(c *gin.Context) string {
	return strings.ReplaceAll(strings.TrimPrefix(c.FullPath(), "/"), "/", "_")
}

// PosthogMiddleware records one analytics event per successfully handled
// authenticated request, named after the matched route.
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if posthogClient == nil || !posthogClient.IsInitialized() || untrackedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		// Failed requests are visible in logs already; analytics only counts
		// completed actions.
		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		userID, authenticated := GetUserIDFromContext(c)
		if !authenticated {
			return
		}

		eventName := routeEventName(c)
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
		}
		if len(c.Params) > 0 {
			params := make(map[string]string, len(c.Params))
			for _, p := range c.Params {
				params[p.Key] = p.Value
			}
			props["params"] = params
		}

		posthogClient.Enqueue(userID, eventName, props)
	}
}

// PosthogEvent sends a custom named event from a handler, annotated with the
// request method and path.
func PosthogEvent(c *gin.Context, posthogClient *utils.PosthogClientWrapper, eventName string, properties map[string]any) {
	if posthogClient == nil || !posthogClient.IsInitialized() {
		return
	}
	userID, authenticated := GetUserIDFromContext(c)
	if !authenticated {
		return
	}

	if properties == nil {
		properties = make(map[string]any)
	}
	properties["method"] = c.Request.Method
	properties["path"] = c.Request.URL.Path

	posthogClient.Enqueue(userID, eventName, properties)
}
