package testutil

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/middleware"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/services"
)

// BearerToken issues a signed access token for the principal and returns it as an Authorization header value
func BearerToken(t *testing.T, cfg *config.Config, id uint, role models.Role) string {
	t.Helper()

	token, _, err := services.NewAuthService(cfg).IssueToken(id, role, "test-"+role.String())
	if err != nil {
		t.Fatalf("failed to issue test token: %v", err)
	}
	return "Bearer " + token
}

// MockPrincipal returns a middleware that authenticates every request as the given principal.
// Use it to mount handlers without going through JWT validation.
func MockPrincipal(id uint, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, middleware.Principal{ID: id, Role: role, Username: "test-" + role.String()})
		c.Next()
	}
}
