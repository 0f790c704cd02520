package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"checkout-backend/internal/domains/checkout/model"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "checkout-events"

// MessageWriter is satisfied by *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes envelopes keyed by session id, so one session's
// events land on one partition in order.
type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...model.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		env, err := model.NewEnvelope(e)
		if err != nil {
			return err
		}
		msg, err := EnvelopeMessage(env)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d checkout events: %w", len(msgs), err)
	}
	return nil
}

// EnvelopeMessage builds the Kafka message for an envelope
func EnvelopeMessage(env model.EventEnvelope) (kafka.Message, error) {
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal envelope %s: %w", env.EventType, err)
	}
	integration := "false"
	if env.Integration {
		integration = "true"
	}
	return kafka.Message{
		Key:   []byte(env.SessionID.String()),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "event_id", Value: []byte(env.EventID.String())},
			{Key: "integration", Value: []byte(integration)},
		},
	}, nil
}
