package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	}
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService) (*auth.TokenPair, auth.GenerateTokenInput) {
	t.Helper()
	input := auth.GenerateTokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "caixa1",
		Role:        "cashier",
		Permissions: []string{"product:read", "sale:create"},
	}
	pair, err := jwtService.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair, input
}

func serveWithToken(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCodeOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	pair, input := newTestTokenPair(t, jwtService)

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService, nil))
	router.GET("/api/v1/products", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), GetJWTUserID(c))
		assert.Equal(t, input.TenantID.String(), GetJWTTenantID(c))
		assert.Equal(t, "cashier", GetJWTRole(c))
		assert.Equal(t, input.Permissions, GetJWTPermissions(c))
		assert.Equal(t, input.TenantID, logger.GetTenantID(c.Request.Context()))
		assert.Equal(t, input.UserID, logger.GetUserID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	rec := serveWithToken(router, "/api/v1/products", BearerPrefix+pair.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	pair, _ := newTestTokenPair(t, jwtService)

	expiredCfg := testJWTConfig()
	expiredCfg.AccessTokenExpiration = -time.Hour
	expiredPair, _ := newTestTokenPair(t, auth.NewJWTService(expiredCfg))

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService, nil))
	router.GET("/api/v1/sales", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeTokenInvalid},
		{"not bearer", "Basic abc", dto.ErrCodeTokenInvalid},
		{"empty token", BearerPrefix, dto.ErrCodeTokenInvalid},
		{"garbage token", BearerPrefix + "not-a-jwt", dto.ErrCodeTokenInvalid},
		{"refresh token as access", BearerPrefix + pair.RefreshToken, dto.ErrCodeTokenInvalid},
		{"expired", BearerPrefix + expiredPair.AccessToken, dto.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWithToken(router, "/api/v1/sales", tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCodeOf(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService, nil))
	for _, path := range []string{"/api/v1/health", "/api/v1/auth/login", "/api/v1/auth/register", "/swagger/index.html"} {
		router.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })
	}
	router.GET("/api/v1/auth/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/v1/health", "/api/v1/auth/login", "/api/v1/auth/register", "/swagger/index.html"} {
		assert.Equal(t, http.StatusOK, serveWithToken(router, path, "").Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, serveWithToken(router, "/api/v1/auth/me", "").Code)
}

func TestJWTAuthMiddleware_Blacklist(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	ctx := context.Background()

	newRouter := func(blacklist auth.TokenBlacklist) *gin.Engine {
		router := gin.New()
		router.Use(JWTAuthMiddleware(jwtService, blacklist))
		router.GET("/api/v1/auth/me", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	t.Run("revoked jti", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		pair, _ := newTestTokenPair(t, jwtService)
		claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.NoError(t, blacklist.Revoke(ctx, claims.ID, time.Minute))

		rec := serveWithToken(newRouter(blacklist), "/api/v1/auth/me", BearerPrefix+pair.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_REVOKED", errorCodeOf(t, rec))
	})

	t.Run("user sessions revoked", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		pair, input := newTestTokenPair(t, jwtService)
		require.NoError(t, blacklist.RevokeUser(ctx, input.UserID, time.Hour))

		rec := serveWithToken(newRouter(blacklist), "/api/v1/auth/me", BearerPrefix+pair.AccessToken)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("other tokens unaffected", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.RevokeUser(ctx, uuid.New(), time.Hour))
		pair, _ := newTestTokenPair(t, jwtService)

		rec := serveWithToken(newRouter(blacklist), "/api/v1/auth/me", BearerPrefix+pair.AccessToken)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTTenantID(c))
	assert.Nil(t, GetJWTPermissions(c))
}
