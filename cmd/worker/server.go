package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"checkout-backend/internal/shared"
	"checkout-backend/pkg/container"
	"checkout-backend/pkg/logger"
)

// asynqServer wraps asynq.Server with shutdown logging
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates the server and starts processing in the background
func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		container.RedisOpt(c.Config),
		asynq.Config{
			Queues:      shared.QueuePriorities,
			Concurrency: c.Config.Job.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.ErrorWithFields("task failed", err, map[string]interface{}{
					"type":      task.Type(),
					"retry":     retried,
					"max_retry": maxRetry,
				})
			}),
		},
	)

	go func() {
		logger.Info("worker starting", map[string]interface{}{"queues": shared.QueuePriorities})
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] Failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for in-flight tasks up to asynq's ShutdownTimeout
func (s *asynqServer) Shutdown() {
	s.Server.Shutdown()
	logger.Info("worker server stopped", nil)
}
