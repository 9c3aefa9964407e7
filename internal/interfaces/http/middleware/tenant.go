package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PlatformKeyHeader carries the key of the cross-tenant administration routes
const PlatformKeyHeader = "X-Platform-Key"

// TenantStatusChecker reports whether a company may still use the API
type TenantStatusChecker interface {
	IsActive(ctx context.Context, tenantID uuid.UUID) (bool, error)
}

// RequireActiveTenant rejects requests of deactivated companies even while
// their access tokens are still valid. Place it after the JWT middleware.
func RequireActiveTenant(checker TenantStatusChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantIDStr := GetJWTTenantID(c)
		if tenantIDStr == "" {
			c.Next()
			return
		}
		tenantID, err := uuid.Parse(tenantIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeTokenInvalid, "Invalid token", GetRequestID(c)))
			return
		}

		active, err := checker.IsActive(c.Request.Context(), tenantID)
		if err != nil {
			if log != nil {
				log.Error("Tenant status lookup failed", zap.String("tenant_id", tenantIDStr), zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
			return
		}
		if !active {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				"COMPANY_INACTIVE", "Company is inactive", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// RequirePlatformKey guards the platform administration routes. An empty key
// disables them.
func RequirePlatformKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(PlatformKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Access denied", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
