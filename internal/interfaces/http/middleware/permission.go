package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig lets the request through when the role of
// the authenticated user grants at least one of permissions.
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.HasAnyPermission(permissions...) {
			if cfg.Logger != nil {
				fields := []zap.Field{
					zap.Strings("required_permissions", permissions),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				}
				if claims != nil {
					fields = append(fields, zap.String("user_id", claims.UserID), zap.String("role", claims.Role))
				}
				cfg.Logger.Warn("Permission denied", fields...)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Access denied: insufficient permissions", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// HasPermission reports whether the authenticated user holds permission
func HasPermission(c *gin.Context, permission string) bool {
	claims := GetJWTClaims(c)
	return claims != nil && claims.HasPermission(permission)
}
