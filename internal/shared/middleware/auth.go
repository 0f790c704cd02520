package middleware

import (
	"net/http"
	"strings"

	"checkout-backend/internal/shared"
	"checkout-backend/internal/shared/response"
	"checkout-backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleware verifies the bearer token and puts the customer id and
// role into the gin context.
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return authenticate(manager, jwt.TokenTypeAccess)
}

// ServiceAuthMiddleware accepts only service tokens
func ServiceAuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return authenticate(manager, jwt.TokenTypeService)
}

func authenticate(manager *jwt.Manager, tokenType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
			return
		}

		claims, err := manager.ValidateTyped(parts[1], tokenType)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}

		c.Set(shared.ContextKeyRole, claims.Role)

		if tokenType == jwt.TokenTypeAccess {
			customerID, err := uuid.Parse(claims.UserID)
			if err != nil {
				response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user ID in token")
				return
			}
			c.Set(shared.ContextKeyCustomerID, customerID)
		}

		c.Next()
	}
}

// CustomerID reads the id set by AuthMiddleware
func CustomerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(shared.ContextKeyCustomerID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
