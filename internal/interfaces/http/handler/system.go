package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

// HealthCheck checks one dependency; a nil error means healthy
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]HealthCheck
	poolStats func() (DatabaseStats, error)
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, checks map[string]HealthCheck) *SystemHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
	}
}

// SetDatabaseStats makes system info report the database connection pool
func (h *SystemHandler) SetDatabaseStats(fn func() (DatabaseStats, error)) {
	h.poolStats = fn
}

// DatabaseStats is the state of the database connection pool
type DatabaseStats struct {
	MaxOpenConnections int    `json:"max_open_connections" example:"25"`
	OpenConnections    int    `json:"open_connections" example:"4"`
	InUse              int    `json:"in_use" example:"1"`
	Idle               int    `json:"idle" example:"3"`
	WaitCount          int64  `json:"wait_count" example:"0"`
	WaitDuration       string `json:"wait_duration" example:"0s"`
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string         `json:"name" example:"retailpos"`
	Version   string         `json:"version" example:"1.0.0"`
	GoVersion string         `json:"go_version" example:"go1.25.5"`
	Uptime    string         `json:"uptime" example:"1h30m45s"`
	Database  *DatabaseStats `json:"database,omitempty"`
}

// HealthResponse reports the state of each dependency
type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks"`
	Time   time.Time         `json:"time"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Pings the database and cache. Answers 503 when any dependency fails.
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names)), Time: time.Now().UTC()}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Get system information
// @Description  Returns the service name, version, uptime and database pool usage
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	resp := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.poolStats != nil {
		// pool stats are informational; an unreadable pool leaves them out
		if stats, err := h.poolStats(); err == nil {
			resp.Database = &stats
		}
	}
	h.Success(c, resp)
}
