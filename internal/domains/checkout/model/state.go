package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// PERSISTENCE MEMENTO
// =====================================================

// SessionState is the flat persisted form of a session. Only repository
// adapters should build or read it.
type SessionState struct {
	ID             uuid.UUID         `json:"id"`
	CartID         uuid.UUID         `json:"cart_id"`
	CustomerID     uuid.UUID         `json:"customer_id"`
	LineItems      []LineItem        `json:"line_items"`
	Totals         Totals            `json:"totals"`
	CurrentStep    CheckoutStep      `json:"current_step"`
	Status         SessionStatus     `json:"status"`
	BuyerInfo      *BuyerInfo        `json:"buyer_info,omitempty"`
	Delivery       *DeliveryChoice   `json:"delivery,omitempty"`
	Payment        *PaymentSelection `json:"payment,omitempty"`
	OrderReference string            `json:"order_reference,omitempty"`
	Version        int               `json:"version"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// State snapshots the session for persistence
func (s *Session) State() SessionState {
	return SessionState{
		ID:             s.id,
		CartID:         s.cartID,
		CustomerID:     s.customerID,
		LineItems:      s.LineItems(),
		Totals:         s.totals,
		CurrentStep:    s.currentStep,
		Status:         s.status,
		BuyerInfo:      s.buyerInfo.Ptr(),
		Delivery:       s.delivery.Ptr(),
		Payment:        s.payment.Ptr(),
		OrderReference: s.orderReference,
		Version:        s.version,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}
}

// RehydrateSession rebuilds a session from persisted state
func RehydrateSession(st SessionState) (*Session, error) {
	if len(st.LineItems) == 0 {
		return nil, fmt.Errorf("rehydrate session %s: %w", st.ID, ErrEmptyLineItems)
	}
	if !st.CurrentStep.IsValid() {
		return nil, fmt.Errorf("rehydrate session %s: %w: %q", st.ID, ErrUnknownStep, st.CurrentStep)
	}
	if _, err := ParseStatus(string(st.Status)); err != nil {
		return nil, fmt.Errorf("rehydrate session %s: %w", st.ID, err)
	}

	items := make([]LineItem, len(st.LineItems))
	copy(items, st.LineItems)

	return &Session{
		id:             st.ID,
		cartID:         st.CartID,
		customerID:     st.CustomerID,
		lineItems:      items,
		totals:         st.Totals,
		currentStep:    st.CurrentStep,
		status:         st.Status,
		buyerInfo:      SubmissionFromPtr(st.BuyerInfo),
		delivery:       SubmissionFromPtr(st.Delivery),
		payment:        SubmissionFromPtr(st.Payment),
		orderReference: st.OrderReference,
		version:        st.Version,
		createdAt:      st.CreatedAt,
		updatedAt:      st.UpdatedAt,
	}, nil
}
