package main

import (
	"context"
	"net/http"
	"time"

	"checkout-backend/internal/shared/middleware"
	"checkout-backend/pkg/container"
	"checkout-backend/pkg/jwt"
	"checkout-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	serverMetrics := metrics.NewServerMetrics(c.Registry, "api")

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.ClientIPMiddleware(),
		middleware.Logger(),
		middleware.Metrics(serverMetrics),
	)

	router.GET("/metrics", gin.WrapH(metrics.HandlerFor(c.Registry)))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupCheckoutRoutes(v1, c)
		setupInternalRoutes(v1, c)
	}

	return router
}

// ========================================
// CHECKOUT ROUTES
// ========================================
func setupCheckoutRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.CheckoutHandler

	checkout := v1.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		checkout.POST("", h.StartCheckout)
		checkout.GET("/active", h.GetActiveSession)
		checkout.GET("/payment-methods", h.PaymentMethods)
		checkout.GET("/shipping-options", h.ShippingOptions)

		checkout.GET("/:id", h.GetSession)
		checkout.GET("/:id/review", h.ReviewSession)
		checkout.PUT("/:id/buyer-info", h.SubmitBuyerInfo)
		checkout.PUT("/:id/delivery", h.SubmitDelivery)
		checkout.PUT("/:id/payment", h.SubmitPayment)
		checkout.POST("/:id/back", h.GoBack)
		checkout.POST("/:id/confirm", h.Confirm)
		checkout.POST("/:id/abandon", h.Abandon)
	}
}

// ========================================
// INTERNAL ROUTES (service tokens only)
// ========================================
func setupInternalRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.CheckoutHandler

	internal := v1.Group("/internal/checkout")
	internal.Use(
		middleware.ServiceAuthMiddleware(c.JWTManager),
		middleware.RequireRole(jwt.RoleSystem),
	)
	{
		internal.POST("/:id/complete", h.Complete)
		internal.POST("/:id/expire", h.Expire)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		dbStatus := "memory"
		if appCtx.DB != nil {
			dbStatus = "ok"
			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = "error: " + err.Error()
				status = "degraded"
			}
		}

		redisStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			redisStatus = "error: " + err.Error()
		}

		kafkaStatus := "disabled"
		if appCtx.Kafka.Enabled() {
			kafkaStatus = "configured"
		}

		statusCode := http.StatusOK
		if status != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
				"kafka":    kafkaStatus,
			},
		})
	}
}
