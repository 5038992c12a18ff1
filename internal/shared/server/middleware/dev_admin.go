package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/shared/server/respond"
)

// DevAdminHeader carries the shared admin token for dev routes.
const DevAdminHeader = "X-Admin-Token"

// DevAdmin guards dev-only routes. An empty token leaves them open, which
// config only allows in dev-like environments.
func DevAdmin(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := strings.TrimSpace(c.GetHeader(DevAdminHeader))
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			respond.Error(c, http.StatusForbidden, "forbidden", "admin token required", nil)
			return
		}
		c.Next()
	}
}
