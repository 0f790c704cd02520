package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// READ-MODEL PUSH PROTOCOL
// =====================================================

// SessionVisitor receives the state of a session, one call per piece.
// The optional Visit* calls only happen when the step was submitted.
// Embed NopVisitor to get no-op defaults.
type SessionVisitor interface {
	VisitID(id uuid.UUID)
	VisitCartID(id uuid.UUID)
	VisitCustomerID(id uuid.UUID)
	VisitStatus(status SessionStatus)
	VisitCurrentStep(step CheckoutStep)
	VisitLineItem(item LineItem)
	VisitSubtotal(subtotal decimal.Decimal)
	VisitTotals(totals Totals)
	VisitBuyerInfo(info BuyerInfo)
	VisitDeliveryAddress(address DeliveryAddress)
	VisitShippingOption(option ShippingOption)
	VisitPaymentSelection(selection PaymentSelection)
	VisitOrderReference(ref string)
	VisitUpdatedAt(t time.Time)
}

// NopVisitor implements SessionVisitor with no-ops
type NopVisitor struct{}

func (NopVisitor) VisitID(uuid.UUID)                       {}
func (NopVisitor) VisitCartID(uuid.UUID)                   {}
func (NopVisitor) VisitCustomerID(uuid.UUID)               {}
func (NopVisitor) VisitStatus(SessionStatus)               {}
func (NopVisitor) VisitCurrentStep(CheckoutStep)           {}
func (NopVisitor) VisitLineItem(LineItem)                  {}
func (NopVisitor) VisitSubtotal(decimal.Decimal)           {}
func (NopVisitor) VisitTotals(Totals)                      {}
func (NopVisitor) VisitBuyerInfo(BuyerInfo)                {}
func (NopVisitor) VisitDeliveryAddress(DeliveryAddress)    {}
func (NopVisitor) VisitShippingOption(ShippingOption)      {}
func (NopVisitor) VisitPaymentSelection(PaymentSelection)  {}
func (NopVisitor) VisitOrderReference(string)              {}
func (NopVisitor) VisitUpdatedAt(time.Time)                {}

// Project pushes the session state into v
func (s *Session) Project(v SessionVisitor) {
	v.VisitID(s.id)
	v.VisitCartID(s.cartID)
	v.VisitCustomerID(s.customerID)
	v.VisitStatus(s.status)
	v.VisitCurrentStep(s.currentStep)
	for _, item := range s.lineItems {
		v.VisitLineItem(item)
	}
	v.VisitSubtotal(s.totals.Subtotal)
	v.VisitTotals(s.totals)

	if info, ok := s.buyerInfo.Get(); ok {
		v.VisitBuyerInfo(info)
	}
	if d, ok := s.delivery.Get(); ok {
		v.VisitDeliveryAddress(d.Address)
		v.VisitShippingOption(d.Shipping)
	}
	if p, ok := s.payment.Get(); ok {
		v.VisitPaymentSelection(p)
	}
	if s.orderReference != "" {
		v.VisitOrderReference(s.orderReference)
	}
	v.VisitUpdatedAt(s.updatedAt)
}

// =====================================================
// SESSION SNAPSHOT
// =====================================================

// SessionSnapshot is the immutable display view of a session
type SessionSnapshot struct {
	ID               uuid.UUID         `json:"id"`
	CartID           uuid.UUID         `json:"cart_id"`
	CustomerID       uuid.UUID         `json:"customer_id"`
	Status           SessionStatus     `json:"status"`
	CurrentStep      CheckoutStep      `json:"current_step"`
	Items            []LineItemView    `json:"items"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	Shipping         decimal.Decimal   `json:"shipping"`
	Tax              decimal.Decimal   `json:"tax"`
	Total            decimal.Decimal   `json:"total"`
	BuyerInfo        *BuyerInfo        `json:"buyer_info,omitempty"`
	DeliveryAddress  *DeliveryAddress  `json:"delivery_address,omitempty"`
	ShippingOption   *ShippingOption   `json:"shipping_option,omitempty"`
	PaymentSelection *PaymentSelection `json:"payment_selection,omitempty"`
	OrderReference   string            `json:"order_reference,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// LineItemView is a display row
type LineItemView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

var ErrSnapshotIncomplete = errors.New("session snapshot is missing required state")

// SnapshotBuilder collects pushed state and builds a SessionSnapshot
type SnapshotBuilder struct {
	NopVisitor

	snap       SessionSnapshot
	hasID      bool
	hasStep    bool
	hasTotals  bool
	itemsCount int
}

func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{}
}

func (b *SnapshotBuilder) VisitID(id uuid.UUID) {
	b.snap.ID = id
	b.hasID = true
}

func (b *SnapshotBuilder) VisitCartID(id uuid.UUID)         { b.snap.CartID = id }
func (b *SnapshotBuilder) VisitCustomerID(id uuid.UUID)     { b.snap.CustomerID = id }
func (b *SnapshotBuilder) VisitStatus(status SessionStatus) { b.snap.Status = status }

func (b *SnapshotBuilder) VisitCurrentStep(step CheckoutStep) {
	b.snap.CurrentStep = step
	b.hasStep = true
}

func (b *SnapshotBuilder) VisitLineItem(item LineItem) {
	b.snap.Items = append(b.snap.Items, LineItemView{
		ProductID: item.ProductID,
		Name:      item.Name,
		ImageURL:  item.ImageURL,
		UnitPrice: item.UnitPrice,
		Quantity:  item.Quantity,
		LineTotal: item.LineTotal(),
	})
	b.itemsCount++
}

func (b *SnapshotBuilder) VisitSubtotal(subtotal decimal.Decimal) {
	b.snap.Subtotal = subtotal
}

func (b *SnapshotBuilder) VisitTotals(t Totals) {
	b.snap.Shipping = t.Shipping
	b.snap.Tax = t.Tax
	b.snap.Total = t.Total
	b.hasTotals = true
}

func (b *SnapshotBuilder) VisitBuyerInfo(info BuyerInfo) {
	b.snap.BuyerInfo = &info
}

func (b *SnapshotBuilder) VisitDeliveryAddress(address DeliveryAddress) {
	b.snap.DeliveryAddress = &address
}

func (b *SnapshotBuilder) VisitShippingOption(option ShippingOption) {
	b.snap.ShippingOption = &option
}

func (b *SnapshotBuilder) VisitPaymentSelection(selection PaymentSelection) {
	b.snap.PaymentSelection = &selection
}

func (b *SnapshotBuilder) VisitOrderReference(ref string) { b.snap.OrderReference = ref }
func (b *SnapshotBuilder) VisitUpdatedAt(t time.Time)     { b.snap.UpdatedAt = t }

// Build returns the snapshot once id, step, totals and at least one item
// have been pushed.
func (b *SnapshotBuilder) Build() (SessionSnapshot, error) {
	if !b.hasID || !b.hasStep || !b.hasTotals || b.itemsCount == 0 {
		return SessionSnapshot{}, ErrSnapshotIncomplete
	}
	snap := b.snap
	snap.Items = append([]LineItemView(nil), b.snap.Items...)
	return snap, nil
}

// SnapshotOf is a shortcut for projecting a session into a SessionSnapshot
func SnapshotOf(s *Session) (SessionSnapshot, error) {
	b := NewSnapshotBuilder()
	s.Project(b)
	return b.Build()
}

// =====================================================
// PROGRESS PROJECTION
// =====================================================

// StepProgress is one row of a checkout progress bar
type StepProgress struct {
	Step      CheckoutStep `json:"step"`
	Completed bool         `json:"completed"`
	Current   bool         `json:"current"`
}

// ProgressProjection derives which steps are done from what was pushed,
// without knowing how the session stores it.
type ProgressProjection struct {
	NopVisitor

	current  CheckoutStep
	status   SessionStatus
	buyer    bool
	delivery bool
	payment  bool
}

func (p *ProgressProjection) VisitCurrentStep(step CheckoutStep)     { p.current = step }
func (p *ProgressProjection) VisitStatus(status SessionStatus)       { p.status = status }
func (p *ProgressProjection) VisitBuyerInfo(BuyerInfo)               { p.buyer = true }
func (p *ProgressProjection) VisitDeliveryAddress(DeliveryAddress)   { p.delivery = true }
func (p *ProgressProjection) VisitPaymentSelection(PaymentSelection) { p.payment = true }

// Steps returns the progress rows in flow order
func (p *ProgressProjection) Steps() []StepProgress {
	done := map[CheckoutStep]bool{
		StepBuyerInfo:    p.buyer,
		StepDelivery:     p.delivery,
		StepPayment:      p.payment,
		StepReview:       p.status == StatusConfirmed || p.status == StatusCompleted,
		StepConfirmation: p.status == StatusCompleted,
	}
	out := make([]StepProgress, 0, len(orderedSteps))
	for _, step := range orderedSteps {
		out = append(out, StepProgress{
			Step:      step,
			Completed: done[step],
			Current:   step == p.current,
		})
	}
	return out
}
