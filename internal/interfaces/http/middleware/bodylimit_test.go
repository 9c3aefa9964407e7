package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bodyLimitRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(BodyLimit(limit))
	handler := func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "cut off")
			return
		}
		c.String(http.StatusOK, "ok")
	}
	router.POST("/api/v1/sales", handler)
	router.GET("/api/v1/sales", handler)
	return router
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := bodyLimitRouter(64)

	t.Run("small sale payload passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{"payment_method":"cash"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("declared oversized body is refused before the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(strings.Repeat("x", 200)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	})

	t.Run("chunked body is cut off while reading", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(strings.Repeat("x", 200)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "cut off", w.Body.String())
	})

	t.Run("requests without body are untouched", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
