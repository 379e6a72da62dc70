// Package middleware holds the HTTP cross-cutting concerns.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminAuth gates admin routes behind a static token. Role policy
// beyond this check is out of scope.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-Admin-Token")
		if presented == "" ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
