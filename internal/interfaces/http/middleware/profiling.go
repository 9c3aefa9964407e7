package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
)

// Profiling labels the CPU samples taken while serving a request with its
// route, method and tenant so Pyroscope can slice profiles by endpoint.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || strings.HasPrefix(path, "/swagger") {
			c.Next()
			return
		}

		labels := map[string]string{telemetry.ProfilingLabelMethod: c.Request.Method}
		if route := c.FullPath(); route != "" {
			labels[telemetry.ProfilingLabelRoute] = route
		}
		if tenantID := GetJWTTenantID(c); tenantID != "" {
			labels[telemetry.ProfilingLabelTenantID] = tenantID
		}

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
