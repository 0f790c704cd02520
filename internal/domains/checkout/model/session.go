package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// AGGREGATE: CHECKOUT SESSION
// =====================================================

// DeliveryChoice is the data of the delivery step: where and how to ship
type DeliveryChoice struct {
	Address  DeliveryAddress `json:"address"`
	Shipping ShippingOption  `json:"shipping"`
}

// Session is one customer's checkout of one cart. All mutation goes
// through its methods; each successful call returns exactly one event and
// a failed call leaves the session untouched.
type Session struct {
	id         uuid.UUID
	cartID     uuid.UUID
	customerID uuid.UUID

	lineItems []LineItem
	totals    Totals

	currentStep CheckoutStep
	status      SessionStatus

	buyerInfo Submission[BuyerInfo]
	delivery  Submission[DeliveryChoice]
	payment   Submission[PaymentSelection]

	orderReference string

	version   int
	createdAt time.Time
	updatedAt time.Time
}

// StartSession creates an active session at the buyer info step from the
// cart's line items. A session is never created empty.
func StartSession(cartID, customerID uuid.UUID, items []LineItem) (*Session, Event, error) {
	if len(items) == 0 {
		return nil, nil, ErrEmptyLineItems
	}

	seen := make(map[uuid.UUID]struct{}, len(items))
	captured := make([]LineItem, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid line item %s: %w", item.ProductID, err)
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateLineItem, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		captured = append(captured, item)
	}

	now := time.Now().UTC()
	s := &Session{
		id:          uuid.New(),
		cartID:      cartID,
		customerID:  customerID,
		lineItems:   captured,
		totals:      CalculateTotals(Subtotal(captured), decimal.Zero, decimal.Zero),
		currentStep: StepBuyerInfo,
		status:      StatusActive,
		createdAt:   now,
		updatedAt:   now,
	}

	return s, &SessionStarted{
		EventMeta:  newEventMeta(EventSessionStarted, s.id),
		CartID:     cartID,
		CustomerID: customerID,
		ItemCount:  len(captured),
		Subtotal:   s.totals.Subtotal,
	}, nil
}

// =====================================================
// ACCESSORS
// =====================================================

func (s *Session) ID() uuid.UUID              { return s.id }
func (s *Session) CartID() uuid.UUID          { return s.cartID }
func (s *Session) CustomerID() uuid.UUID      { return s.customerID }
func (s *Session) Status() SessionStatus      { return s.status }
func (s *Session) CurrentStep() CheckoutStep  { return s.currentStep }
func (s *Session) Totals() Totals             { return s.totals }
func (s *Session) OrderReference() string     { return s.orderReference }
func (s *Session) Version() int               { return s.version }
func (s *Session) UpdatedAt() time.Time       { return s.updatedAt }
func (s *Session) IsOwnedBy(c uuid.UUID) bool { return s.customerID == c }

// LineItems returns a copy of the captured items
func (s *Session) LineItems() []LineItem {
	out := make([]LineItem, len(s.lineItems))
	copy(out, s.lineItems)
	return out
}

// IsStale reports whether an active session has been idle since before cutoff
func (s *Session) IsStale(cutoff time.Time) bool {
	return s.status == StatusActive && s.updatedAt.Before(cutoff)
}

// MarkSaved records the version assigned by the repository
func (s *Session) MarkSaved(version int) {
	s.version = version
}

// =====================================================
// STEP SUBMISSION
// =====================================================

// SubmitBuyerInfo stores buyer contact data. No prerequisite.
func (s *Session) SubmitBuyerInfo(info BuyerInfo) (Event, error) {
	if err := s.checkSubmittable(StepBuyerInfo); err != nil {
		return nil, err
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("invalid buyer info: %w", err)
	}

	s.buyerInfo = Submitted(info)
	s.advanceFrom(StepBuyerInfo)
	s.touch()

	return &BuyerInfoSubmitted{
		EventMeta: newEventMeta(EventBuyerInfoSubmitted, s.id),
		Email:     info.Email,
	}, nil
}

// SubmitDelivery stores address and shipping choice and recomputes totals.
// Resubmitting with another shipping option just recomputes.
func (s *Session) SubmitDelivery(address DeliveryAddress, shipping ShippingOption) (Event, error) {
	if err := s.checkSubmittable(StepDelivery); err != nil {
		return nil, err
	}
	if !s.buyerInfo.IsSubmitted() {
		return nil, fmt.Errorf("%w: buyer info", ErrPrerequisiteMissing)
	}
	if err := address.Validate(); err != nil {
		return nil, fmt.Errorf("invalid delivery address: %w", err)
	}
	if err := shipping.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shipping option: %w", err)
	}

	s.delivery = Submitted(DeliveryChoice{Address: address, Shipping: shipping})
	s.totals = s.totals.WithShipping(shipping.Cost)
	s.advanceFrom(StepDelivery)
	s.touch()

	return &DeliverySubmitted{
		EventMeta:    newEventMeta(EventDeliverySubmitted, s.id),
		Country:      address.Country,
		ShippingCode: shipping.Code,
		ShippingCost: shipping.Cost,
		Total:        s.totals.Total,
	}, nil
}

// SubmitPayment stores the payment selection. Requires buyer and delivery.
func (s *Session) SubmitPayment(selection PaymentSelection) (Event, error) {
	if err := s.checkSubmittable(StepPayment); err != nil {
		return nil, err
	}
	if !s.buyerInfo.IsSubmitted() {
		return nil, fmt.Errorf("%w: buyer info", ErrPrerequisiteMissing)
	}
	if !s.delivery.IsSubmitted() {
		return nil, fmt.Errorf("%w: delivery", ErrPrerequisiteMissing)
	}
	if err := selection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payment selection: %w", err)
	}

	s.payment = Submitted(selection)
	s.advanceFrom(StepPayment)
	s.touch()

	return &PaymentSubmitted{
		EventMeta: newEventMeta(EventPaymentSubmitted, s.id),
		Method:    selection.Method,
	}, nil
}

// =====================================================
// NAVIGATION
// =====================================================

// GoBackTo moves the current step back. Only while active, only to a step
// at or before the current one, never to confirmation.
func (s *Session) GoBackTo(step CheckoutStep) (Event, error) {
	if s.status != StatusActive {
		return nil, ErrSessionNotActive
	}
	if !step.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	if step == StepConfirmation || step.After(s.currentStep) {
		return nil, fmt.Errorf("%w: %s (current %s)", ErrInvalidStepTarget, step, s.currentStep)
	}

	from := s.currentStep
	s.currentStep = step
	s.touch()

	return &StepReverted{
		EventMeta: newEventMeta(EventStepReverted, s.id),
		FromStep:  from,
		ToStep:    step,
	}, nil
}

// =====================================================
// STATUS TRANSITIONS
// =====================================================

// CanConfirm checks the confirm preconditions that do not depend on
// article data.
func (s *Session) CanConfirm() error {
	if s.status != StatusActive {
		return ErrSessionNotActive
	}
	if s.currentStep != StepReview {
		return fmt.Errorf("%w: current step is %s", ErrNotAtReview, s.currentStep)
	}
	if _, ok := s.buyerInfo.Get(); !ok {
		return fmt.Errorf("%w: buyer info", ErrPrerequisiteMissing)
	}
	if _, ok := s.delivery.Get(); !ok {
		return fmt.Errorf("%w: delivery", ErrPrerequisiteMissing)
	}
	if _, ok := s.payment.Get(); !ok {
		return fmt.Errorf("%w: payment", ErrPrerequisiteMissing)
	}
	return nil
}

// Confirm moves a fully filled session at review to confirmed. cart must
// be a fresh enrichment of exactly this session's line items; if any item
// became unavailable or under-stocked the result lists the problems and
// nothing changes.
func (s *Session) Confirm(cart EnrichedCart) (Event, ValidationResult, error) {
	none := ValidationResult{}
	if err := s.CanConfirm(); err != nil {
		return nil, none, err
	}
	buyer, _ := s.buyerInfo.Get()
	delivery, _ := s.delivery.Get()
	payment, _ := s.payment.Get()
	if !cart.covers(s.lineItems) {
		return nil, none, ErrEnrichedCartMismatch
	}

	result := cart.Validate()
	if !result.IsValid() {
		return nil, result, nil
	}

	s.status = StatusConfirmed
	s.currentStep = StepConfirmation
	s.touch()

	items := make([]LineItemDTO, 0, len(s.lineItems))
	for _, item := range s.lineItems {
		items = append(items, item.ToDTO())
	}

	return &CheckoutConfirmed{
		EventMeta:     newEventMeta(EventCheckoutConfirmed, s.id),
		CartID:        s.cartID,
		CustomerID:    s.customerID,
		Email:         buyer.Email,
		Items:         items,
		Subtotal:      s.totals.Subtotal,
		Shipping:      s.totals.Shipping,
		Tax:           s.totals.Tax,
		Total:         s.totals.Total,
		PaymentMethod: payment.Method,
		ShippingCode:  delivery.Shipping.Code,
	}, result, nil
}

// Complete closes a confirmed session once the order exists
func (s *Session) Complete(orderReference string) (Event, error) {
	if s.status != StatusConfirmed {
		return nil, fmt.Errorf("%w: status is %s", ErrNotConfirmed, s.status)
	}

	s.status = StatusCompleted
	s.orderReference = orderReference
	s.touch()

	return &CheckoutCompleted{
		EventMeta:      newEventMeta(EventCheckoutCompleted, s.id),
		OrderReference: orderReference,
	}, nil
}

// Abandon is the customer walking away
func (s *Session) Abandon(reason string) (Event, error) {
	if !s.status.CanTransitionTo(StatusAbandoned) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.status, StatusAbandoned)
	}

	previous := s.status
	s.status = StatusAbandoned
	s.touch()

	return &CheckoutAbandoned{
		EventMeta:      newEventMeta(EventCheckoutAbandoned, s.id),
		PreviousStatus: previous,
		Step:           s.currentStep,
		Reason:         reason,
	}, nil
}

// Expire is the timeout path, driven by the stale session sweep
func (s *Session) Expire() (Event, error) {
	if !s.status.CanTransitionTo(StatusExpired) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.status, StatusExpired)
	}

	previous := s.status
	s.status = StatusExpired
	s.touch()

	return &CheckoutExpired{
		EventMeta:      newEventMeta(EventCheckoutExpired, s.id),
		PreviousStatus: previous,
		Step:           s.currentStep,
	}, nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *Session) checkSubmittable(step CheckoutStep) error {
	if s.status != StatusActive {
		return ErrSessionNotActive
	}
	if s.currentStep.Before(step) {
		return fmt.Errorf("%w: %s (current %s)", ErrStepSkipped, step, s.currentStep)
	}
	return nil
}

// advanceFrom moves to the next step only when the submission targets the
// current step, so resubmitting never advances twice.
func (s *Session) advanceFrom(step CheckoutStep) {
	if s.currentStep == step {
		s.currentStep = step.Next()
	}
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}
