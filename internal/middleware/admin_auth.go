package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuth returns a middleware that validates the admin API key.
// If apiKey is empty, authentication is disabled.
func AdminAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		// "Bearer <token>", "ApiKey <token>" or ?api_key=
		auth := c.GetHeader("Authorization")
		if auth == "" {
			auth = c.Query("api_key")
			if auth == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":  401,
					"error": "unauthorized: missing API key",
				})
				return
			}
		} else {
			auth = strings.TrimPrefix(auth, "Bearer ")
			auth = strings.TrimPrefix(auth, "ApiKey ")
		}

		if subtle.ConstantTimeCompare([]byte(auth), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":  403,
				"error": "forbidden: invalid API key",
			})
			return
		}

		c.Next()
	}
}
