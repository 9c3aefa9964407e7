package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
)

func swaggerRequest(cfg config.SwaggerConfig, remoteAddr string) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	t.Run("disabled answers not found", func(t *testing.T) {
		w := swaggerRequest(config.SwaggerConfig{Enabled: false}, "10.0.0.5:1234")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("enabled without restrictions", func(t *testing.T) {
		w := swaggerRequest(config.SwaggerConfig{Enabled: true}, "203.0.113.9:1234")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("allowed by ip or cidr", func(t *testing.T) {
		cfg := config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.1.20", "10.0.0.0/8"}}

		assert.Equal(t, http.StatusOK, swaggerRequest(cfg, "192.168.1.20:1234").Code)
		assert.Equal(t, http.StatusOK, swaggerRequest(cfg, "10.4.2.1:1234").Code)
		assert.Equal(t, http.StatusForbidden, swaggerRequest(cfg, "192.168.1.21:1234").Code)
	})
}
