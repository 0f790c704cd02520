package middleware

import (
	"net/http"
	"runtime/debug"

	"checkout-backend/internal/shared"
	"checkout-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Recovery turns a handler panic into a 500 envelope and logs the stack
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.Error().
				Str("request_id", c.GetString(shared.ContextKeyRequestID)).
				Str("route", c.FullPath()).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.Abort(c, http.StatusInternalServerError, "SYS_001", "Internal server error")
		}()

		c.Next()
	}
}
