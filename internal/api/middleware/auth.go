package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rail-service/bridge_service/pkg/auth"
)

// AdminAuth requires a Bearer token carrying the admin role. An empty secret
// leaves the route open.
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":       "UNAUTHORIZED",
				"message":    "Authorization header required",
				"request_id": c.GetString("request_id"),
			})
			return
		}

		// Extract token from "Bearer <token>"
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":       "UNAUTHORIZED",
				"message":    "Invalid authorization format",
				"request_id": c.GetString("request_id"),
			})
			return
		}

		claims, err := auth.RequireRole(tokenParts[1], secret, auth.RoleAdmin)
		if errors.Is(err, auth.ErrForbidden) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":       "FORBIDDEN",
				"message":    "Admin access required",
				"request_id": c.GetString("request_id"),
			})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":       "UNAUTHORIZED",
				"message":    "Invalid token",
				"request_id": c.GetString("request_id"),
			})
			return
		}

		c.Set("operator", claims.Subject)
		c.Next()
	}
}
