// Package testutil holds the repository mocks and the request helpers shared
// by the package tests and the integration suite.
package testutil

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retailpos/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(testNamespace, []byte(seed))
}

func TestTenantID() uuid.UUID { return NewTestUUID("test-tenant") }

func TestUserID() uuid.UUID { return NewTestUUID("test-user") }

// WithIdentity marks the request as authenticated the way the JWT middleware
// does, without issuing a token
func WithIdentity(c *gin.Context, tenantID, userID uuid.UUID) {
	c.Set(middleware.JWTTenantIDKey, tenantID.String())
	c.Set(middleware.JWTUserIDKey, userID.String())
}

// AuthenticatedAs returns middleware applying WithIdentity to every request
func AuthenticatedAs(tenantID, userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		WithIdentity(c, tenantID, userID)
		c.Next()
	}
}
