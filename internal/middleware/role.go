package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole lets a request through only when AuthMiddleware stored one
// of allowedRoles. The router uses it to keep the /vendor config checks
// to VENDOR accounts.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyUserRole)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role missing"})
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
