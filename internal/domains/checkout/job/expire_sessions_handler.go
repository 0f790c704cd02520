package job

import (
	"context"
	"fmt"
	"time"

	"checkout-backend/internal/shared"
	"checkout-backend/internal/shared/utils"
	"checkout-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// SessionExpirer is the slice of the checkout service the sweep needs
type SessionExpirer interface {
	ExpireStaleSessions(ctx context.Context, batchSize int) (int, error)
}

// ExpireSessionsHandler runs the periodic stale session sweep
type ExpireSessionsHandler struct {
	expirer   SessionExpirer
	batchSize int
}

func NewExpireSessionsHandler(expirer SessionExpirer, batchSize int) *ExpireSessionsHandler {
	return &ExpireSessionsHandler{expirer: expirer, batchSize: batchSize}
}

func (h *ExpireSessionsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.ExpireStaleSessionsPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	batch := payload.BatchSize
	if batch <= 0 {
		batch = h.batchSize
	}

	start := time.Now()
	expired, err := h.expirer.ExpireStaleSessions(ctx, batch)
	if err != nil {
		logger.Error("Stale session sweep failed", err)
		return fmt.Errorf("expire stale sessions: %w", err)
	}

	logger.Info("Stale session sweep finished", map[string]interface{}{
		"expired":     expired,
		"batch_size":  batch,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}
