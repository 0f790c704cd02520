package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// EVENT TYPES
// =====================================================
const (
	EventSessionStarted       = "checkout.session_started"
	EventBuyerInfoSubmitted   = "checkout.buyer_info_submitted"
	EventDeliverySubmitted    = "checkout.delivery_submitted"
	EventPaymentSubmitted     = "checkout.payment_submitted"
	EventStepReverted         = "checkout.step_reverted"
	EventCheckoutConfirmed    = "checkout.confirmed"
	EventCheckoutCompleted    = "checkout.completed"
	EventCheckoutAbandoned    = "checkout.abandoned"
	EventCheckoutExpired      = "checkout.expired"
	CurrentEventSchemaVersion = 1
)

// Event is an immutable fact recorded by a session operation
type Event interface {
	EventID() uuid.UUID
	EventType() string
	SessionID() uuid.UUID
	OccurredAt() time.Time
	SchemaVersion() int
	// IsIntegration marks events shaped for other bounded contexts
	IsIntegration() bool
}

// EventMeta carries the fields common to every event
type EventMeta struct {
	ID        uuid.UUID `json:"event_id"`
	Type      string    `json:"event_type"`
	Session   uuid.UUID `json:"session_id"`
	Timestamp time.Time `json:"occurred_at"`
	Version   int       `json:"schema_version"`
}

func newEventMeta(eventType string, sessionID uuid.UUID) EventMeta {
	return EventMeta{
		ID:        uuid.New(),
		Type:      eventType,
		Session:   sessionID,
		Timestamp: time.Now().UTC(),
		Version:   CurrentEventSchemaVersion,
	}
}

func (m EventMeta) EventID() uuid.UUID    { return m.ID }
func (m EventMeta) EventType() string     { return m.Type }
func (m EventMeta) SessionID() uuid.UUID  { return m.Session }
func (m EventMeta) OccurredAt() time.Time { return m.Timestamp }
func (m EventMeta) SchemaVersion() int    { return m.Version }
func (m EventMeta) IsIntegration() bool   { return false }

// =====================================================
// DOMAIN EVENTS
// =====================================================

type SessionStarted struct {
	EventMeta
	CartID     uuid.UUID       `json:"cart_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	ItemCount  int             `json:"item_count"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type BuyerInfoSubmitted struct {
	EventMeta
	Email string `json:"email"`
}

type DeliverySubmitted struct {
	EventMeta
	Country      string          `json:"country"`
	ShippingCode string          `json:"shipping_code"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
}

type PaymentSubmitted struct {
	EventMeta
	Method string `json:"method"`
}

type StepReverted struct {
	EventMeta
	FromStep CheckoutStep `json:"from_step"`
	ToStep   CheckoutStep `json:"to_step"`
}

// CheckoutConfirmed is the integration event consumed by the order and
// inventory contexts. Items are DTOs, not session entities.
type CheckoutConfirmed struct {
	EventMeta
	CartID        uuid.UUID       `json:"cart_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Email         string          `json:"email"`
	Items         []LineItemDTO   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	ShippingCode  string          `json:"shipping_code"`
}

func (CheckoutConfirmed) IsIntegration() bool { return true }

type CheckoutCompleted struct {
	EventMeta
	OrderReference string `json:"order_reference"`
}

type CheckoutAbandoned struct {
	EventMeta
	PreviousStatus SessionStatus `json:"previous_status"`
	Step           CheckoutStep  `json:"step"`
	Reason         string        `json:"reason,omitempty"`
}

type CheckoutExpired struct {
	EventMeta
	PreviousStatus SessionStatus `json:"previous_status"`
	Step           CheckoutStep  `json:"step"`
}

// =====================================================
// ENVELOPE
// =====================================================

// EventEnvelope is the transport shape of an event
type EventEnvelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	SessionID     uuid.UUID       `json:"session_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SchemaVersion int             `json:"schema_version"`
	Integration   bool            `json:"integration"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope serialises an event into its envelope
func NewEnvelope(e Event) (EventEnvelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal event %s: %w", e.EventType(), err)
	}
	return EventEnvelope{
		EventID:       e.EventID(),
		EventType:     e.EventType(),
		SessionID:     e.SessionID(),
		OccurredAt:    e.OccurredAt(),
		SchemaVersion: e.SchemaVersion(),
		Integration:   e.IsIntegration(),
		Payload:       payload,
	}, nil
}

// Decode unmarshals the payload back into its concrete event type
func (env EventEnvelope) Decode() (Event, error) {
	var target Event
	switch env.EventType {
	case EventSessionStarted:
		target = &SessionStarted{}
	case EventBuyerInfoSubmitted:
		target = &BuyerInfoSubmitted{}
	case EventDeliverySubmitted:
		target = &DeliverySubmitted{}
	case EventPaymentSubmitted:
		target = &PaymentSubmitted{}
	case EventStepReverted:
		target = &StepReverted{}
	case EventCheckoutConfirmed:
		target = &CheckoutConfirmed{}
	case EventCheckoutCompleted:
		target = &CheckoutCompleted{}
	case EventCheckoutAbandoned:
		target = &CheckoutAbandoned{}
	case EventCheckoutExpired:
		target = &CheckoutExpired{}
	default:
		return nil, fmt.Errorf("unknown event type %q", env.EventType)
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return nil, fmt.Errorf("unmarshal event %s: %w", env.EventType, err)
	}
	return target, nil
}
