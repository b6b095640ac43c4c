package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/peoplehub/hrops/internal/repository"
)

// Context keys set by the middleware
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Middleware validates the bearer token and loads the caller's role
// into the request context.
func Middleware(service *Service, users *repository.UserRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := service.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		role, err := users.RoleName(claims.UserID)
		if err != nil {
			logger.Error("Failed to resolve role", zap.Int64("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Failed to resolve user",
			})
			return
		}
		if role == "" {
			abortUnauthorized(c, "Unknown user")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allowed set.
// It must run after Middleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		role := RoleFrom(c)
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// UserIDFrom returns the authenticated user's ID, or 0 when absent.
func UserIDFrom(c *gin.Context) int64 {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// RoleFrom returns the authenticated user's role name, or "" when
// absent.
func RoleFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextRole); ok {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
	})
}
