package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// InternalAPIKeyHeader carries the shared secret for /internal routes.
const InternalAPIKeyHeader = "X-Internal-API-Key"

// InternalAuthMiddleware guards service-to-service routes with the key from
// INTERNAL_API_KEY.
func InternalAuthMiddleware() gin.HandlerFunc {
	return InternalAuth(os.Getenv("INTERNAL_API_KEY"))
}

// InternalAuth guards routes with apiKey. An empty key locks the routes
// with a 500 so a missing secret is noticed instead of silently open.
func InternalAuth(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: INTERNAL_API_KEY not set",
			})
		}
	}
	want := []byte(apiKey)

	return func(c *gin.Context) {
		got := []byte(c.GetHeader(InternalAPIKeyHeader))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
