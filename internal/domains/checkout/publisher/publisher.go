package publisher

import (
	"context"
	"errors"

	"checkout-backend/internal/domains/checkout/model"
)

// Publisher hands recorded events to a transport. It is called only after
// the session was saved.
type Publisher interface {
	Publish(ctx context.Context, events ...model.Event) error
}

// NopPublisher drops events
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...model.Event) error { return nil }

// MultiPublisher publishes to every target and joins the failures
type MultiPublisher struct {
	targets []Publisher
}

func NewMultiPublisher(targets ...Publisher) *MultiPublisher {
	return &MultiPublisher{targets: targets}
}

func (m *MultiPublisher) Publish(ctx context.Context, events ...model.Event) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
