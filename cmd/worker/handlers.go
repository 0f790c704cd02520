package main

import (
	"github.com/hibiken/asynq"

	checkoutJob "checkout-backend/internal/domains/checkout/job"
	"checkout-backend/internal/domains/checkout/publisher"
	"checkout-backend/internal/shared"
	"checkout-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	expireSessions *checkoutJob.ExpireSessionsHandler
	relayEvent     *checkoutJob.RelayEventHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	// a nil *kafka.Writer must not become a non-nil interface
	var writer publisher.MessageWriter
	if c.KafkaWriter != nil {
		writer = c.KafkaWriter
	}

	return &HandlerRegistry{
		expireSessions: checkoutJob.NewExpireSessionsHandler(c.CheckoutService, c.Config.Job.ExpireBatchSize),
		relayEvent:     checkoutJob.NewRelayEventHandler(writer, c.CheckoutMetrics),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeExpireStaleSessions, h.expireSessions.ProcessTask)
	mux.HandleFunc(shared.TypeCheckoutEvent, h.relayEvent.ProcessTask)
}
