package main

import (
	"log"

	"checkout-backend/internal/infrastructure/queue"
	"checkout-backend/pkg/container"
	"checkout-backend/pkg/logger"
)

// asynqScheduler wraps queue.Scheduler with start/stop logging
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers the checkout cron jobs and starts the scheduler
func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := queue.NewScheduler(container.RedisOpt(c.Config), c.Config.Job)

	if err := scheduler.RegisterCheckoutJobs(); err != nil {
		log.Fatalf("[Scheduler] Failed to register: %v", err)
	}

	go func() {
		logger.Info("scheduler starting", map[string]interface{}{"expire_cron": c.Config.Job.ExpireSweepCron})
		if err := scheduler.Start(); err != nil {
			log.Fatalf("[Scheduler] Failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func (s *asynqScheduler) Shutdown() {
	s.Scheduler.Shutdown()
	logger.Info("scheduler stopped", nil)
}
