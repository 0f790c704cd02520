package queue

import (
	"encoding/json"
	"time"

	"checkout-backend/internal/config"
	"checkout-backend/internal/shared"
	"checkout-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// TaskRegistrar is satisfied by *asynq.Scheduler
type TaskRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

type Scheduler struct {
	scheduler *asynq.Scheduler
	registrar TaskRegistrar
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		registrar: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterCheckoutJobs() error {
	return s.registerExpireStaleSessionsJob()
}

// ================================================
// JOB: Expire stale checkout sessions (cron from config)
// ================================================
// Runs well inside the session TTL so an idle session never lingers
// more than one interval past it.
func (s *Scheduler) registerExpireStaleSessionsJob() error {
	payload, err := json.Marshal(shared.ExpireStaleSessionsPayload{
		BatchSize: s.jobConfig.ExpireBatchSize,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeExpireStaleSessions, payload)

	_, err = s.registrar.Register(
		s.jobConfig.ExpireSweepCron,
		task,
		asynq.Queue(shared.QueueCheckout),
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
		// one sweep at a time even if a run overlaps the next tick
		asynq.Unique(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register ExpireStaleSessions job", err)
		return err
	}

	logger.Info("Registered ExpireStaleSessions", map[string]interface{}{
		"cron":       s.jobConfig.ExpireSweepCron,
		"batch_size": s.jobConfig.ExpireBatchSize,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
