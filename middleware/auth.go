package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"room-service/services"
)

// TokenParser is satisfied by *services.AuthService.
type TokenParser interface {
	ParseToken(raw string) (*services.Claims, error)
}

// RequireRole rejects requests without a valid Bearer token for one of roles.
func RequireRole(auth TokenParser, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header required"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Bearer token required"})
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, r := range roles {
				if r == claims.Role {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Access denied"})
				return
			}
		}

		c.Set("username", claims.Username)
		c.Set("role", claims.Role)
		c.Next()
	}
}
