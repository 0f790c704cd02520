package middleware

import (
	"net/http"

	"checkout-backend/internal/shared"
	"checkout-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the authenticated role is one
// of roles. Must run after an auth middleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(shared.ContextKeyRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, "FORBIDDEN", "access denied: role not allowed")
	}
}
