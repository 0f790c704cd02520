package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"checkout-backend/pkg/container"
	"checkout-backend/pkg/logger"
	"checkout-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	redisClient *redis.Client
	container   *container.Container
}

// startServices runs the startup checks and exposes health and metrics
func startServices(c *container.Container) error {
	checker := &HealthChecker{
		redisClient: redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
			MaintNotificationsConfig: &maintnotifications.Config{
				Mode: maintnotifications.ModeDisabled,
			},
		}),
		container: c,
	}
	defer checker.redisClient.Close()

	if err := checker.checkAll(); err != nil {
		return err
	}

	go startHealthCheckServer(c)
	return nil
}

func (h *HealthChecker) checkAll() error {
	checks := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"redis", h.checkRedis},
		{"database", h.checkDatabase},
	}

	for _, check := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := check.fn(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("%s check failed: %w", check.name, err)
		}
		logger.Info("startup check passed", map[string]interface{}{"check": check.name})
	}
	return nil
}

func (h *HealthChecker) checkRedis(ctx context.Context) error {
	return h.redisClient.Ping(ctx).Err()
}

// checkDatabase is a no-op with the memory storage driver
func (h *HealthChecker) checkDatabase(ctx context.Context) error {
	if h.container.DB == nil {
		return nil
	}
	return h.container.DB.HealthCheck(ctx)
}

func healthRouter(c *container.Container) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "UP", "service": "checkout-worker"})
	})
	r.GET("/ready", func(ctx *gin.Context) {
		if c.DB != nil {
			if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY", "error": err.Error()})
				return
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "READY"})
	})
	r.GET("/metrics", gin.WrapH(metrics.HandlerFor(c.Registry)))
	return r
}

func startHealthCheckServer(c *container.Container) {
	addr := ":" + c.Config.App.MetricsPort
	logger.Info("health server starting", map[string]interface{}{"addr": addr})

	srv := &http.Server{
		Addr:              addr,
		Handler:           healthRouter(c),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("health server failed", err)
	}
}
