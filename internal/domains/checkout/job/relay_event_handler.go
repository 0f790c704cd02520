package job

import (
	"context"
	"encoding/json"
	"fmt"

	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/internal/domains/checkout/publisher"
	"checkout-backend/pkg/logger"
	"checkout-backend/pkg/metrics"

	"github.com/hibiken/asynq"
)

// RelayEventHandler forwards queued checkout events to Kafka. With no
// writer configured the event is only logged, which keeps local setups
// working without a broker.
type RelayEventHandler struct {
	writer  publisher.MessageWriter
	metrics *metrics.CheckoutMetrics
}

func NewRelayEventHandler(writer publisher.MessageWriter, m *metrics.CheckoutMetrics) *RelayEventHandler {
	return &RelayEventHandler{writer: writer, metrics: m}
}

func (h *RelayEventHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var env model.EventEnvelope
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %v: %w", err, asynq.SkipRetry)
	}
	// unknown or corrupt payloads will never succeed
	if _, err := env.Decode(); err != nil {
		logger.ErrorWithFields("Dropping undecodable checkout event", err, map[string]interface{}{
			"event_id":   env.EventID.String(),
			"event_type": env.EventType,
		})
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	fields := map[string]interface{}{
		"event_id":    env.EventID.String(),
		"event_type":  env.EventType,
		"session_id":  env.SessionID.String(),
		"integration": env.Integration,
	}

	if h.writer == nil {
		logger.Info("Checkout event (no broker configured)", fields)
		h.metrics.RecordRelayed(env.EventType)
		return nil
	}

	msg, err := publisher.EnvelopeMessage(env)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := h.writer.WriteMessages(ctx, msg); err != nil {
		h.metrics.RecordPublishFailure("kafka")
		logger.ErrorWithFields("Failed to relay checkout event", err, fields)
		return fmt.Errorf("relay event %s: %w", env.EventID, err)
	}

	h.metrics.RecordRelayed(env.EventType)
	logger.Debug("Checkout event relayed " + env.EventID.String())
	return nil
}
