package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/internal/shared"

	"github.com/hibiken/asynq"
)

// Enqueuer is satisfied by *asynq.Client
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher enqueues one checkout:event task per event. The task id
// is the event id, so a retried publish never enqueues twice.
type AsynqPublisher struct {
	client Enqueuer
}

func NewAsynqPublisher(client Enqueuer) *AsynqPublisher {
	return &AsynqPublisher{client: client}
}

func (p *AsynqPublisher) Publish(ctx context.Context, events ...model.Event) error {
	for _, e := range events {
		env, err := model.NewEnvelope(e)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope %s: %w", env.EventType, err)
		}

		task := asynq.NewTask(shared.TypeCheckoutEvent, payload)
		_, err = p.client.EnqueueContext(ctx, task,
			asynq.Queue(shared.QueueEvents),
			asynq.TaskID(env.EventID.String()),
			asynq.MaxRetry(10),
			asynq.Retention(24*time.Hour),
		)
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			return fmt.Errorf("enqueue event %s: %w", env.EventType, err)
		}
	}
	return nil
}
