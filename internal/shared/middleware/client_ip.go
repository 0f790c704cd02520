package middleware

import (
	"checkout-backend/internal/shared"
	"checkout-backend/internal/shared/utils"

	"github.com/gin-gonic/gin"
)

// ClientIPMiddleware stores the caller address for Logger. Register it
// before Logger.
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(shared.ContextKeyClientIP, utils.ExtractClientIP(c))
		c.Next()
	}
}
