package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSession(t *testing.T) {
	cartID, customerID := uuid.New(), uuid.New()
	items := testItems(t)

	s, ev, err := StartSession(cartID, customerID, items)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, s.Status())
	assert.Equal(t, StepBuyerInfo, s.CurrentStep())
	assert.Equal(t, cartID, s.CartID())
	assert.True(t, s.IsOwnedBy(customerID))
	assert.Equal(t, "104.8", s.Totals().Subtotal.String())
	assert.True(t, s.Totals().Shipping.IsZero())
	assert.True(t, s.Totals().Total.Equal(s.Totals().Subtotal))

	started, ok := ev.(*SessionStarted)
	require.True(t, ok)
	assert.Equal(t, EventSessionStarted, started.EventType())
	assert.Equal(t, s.ID(), started.SessionID())
	assert.Equal(t, 2, started.ItemCount)
	assert.False(t, started.IsIntegration())
}

func TestStartSession_RejectsBadItems(t *testing.T) {
	_, _, err := StartSession(uuid.New(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrEmptyLineItems)

	items := testItems(t)
	dup := append(items, items[0])
	_, _, err = StartSession(uuid.New(), uuid.New(), dup)
	assert.ErrorIs(t, err, ErrDuplicateLineItem)

	bad := []LineItem{{ProductID: uuid.New(), Name: "x", UnitPrice: decimal.NewFromInt(1), Quantity: 0}}
	_, _, err = StartSession(uuid.New(), uuid.New(), bad)
	assert.Error(t, err)
}

func TestSession_LineItemsAreCopied(t *testing.T) {
	s := newTestSession(t)
	items := s.LineItems()
	items[0].Quantity = 99

	assert.NotEqual(t, 99, s.LineItems()[0].Quantity)
}

func TestSession_HappyPath(t *testing.T) {
	s := newTestSession(t)

	ev, err := s.SubmitBuyerInfo(testBuyer(t))
	require.NoError(t, err)
	assert.Equal(t, EventBuyerInfoSubmitted, ev.EventType())
	assert.Equal(t, "jane@example.com", ev.(*BuyerInfoSubmitted).Email)
	assert.Equal(t, StepDelivery, s.CurrentStep())

	ev, err = s.SubmitDelivery(testAddress(t), testShipping(t, "4.99"))
	require.NoError(t, err)
	assert.Equal(t, EventDeliverySubmitted, ev.EventType())
	assert.Equal(t, StepPayment, s.CurrentStep())
	assert.Equal(t, "109.79", s.Totals().Total.String())

	ev, err = s.SubmitPayment(testPayment(t))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSubmitted, ev.EventType())
	assert.Equal(t, StepReview, s.CurrentStep())

	ev, result, err := s.Confirm(enrichedFor(t, s))
	require.NoError(t, err)
	assert.True(t, result.IsValid())
	confirmed, ok := ev.(*CheckoutConfirmed)
	require.True(t, ok)
	assert.True(t, confirmed.IsIntegration())
	assert.Len(t, confirmed.Items, 2)
	assert.Equal(t, "mock_card", confirmed.PaymentMethod)
	assert.Equal(t, StatusConfirmed, s.Status())
	assert.Equal(t, StepConfirmation, s.CurrentStep())

	ev, err = s.Complete("ORD-20261019-ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, ev.EventType())
	assert.Equal(t, StatusCompleted, s.Status())
	assert.Equal(t, "ORD-20261019-ABCDEF", s.OrderReference())
}

func TestSession_SkippingAheadLeavesStateUnchanged(t *testing.T) {
	s := newTestSession(t)
	before := s.State()

	ev, err := s.SubmitDelivery(testAddress(t), testShipping(t, "4.99"))
	assert.ErrorIs(t, err, ErrStepSkipped)
	assert.Nil(t, ev)

	_, err = s.SubmitPayment(testPayment(t))
	assert.ErrorIs(t, err, ErrStepSkipped)

	assert.Equal(t, before, s.State())
	assert.True(t, IsPreconditionError(err))
}

func TestSession_InvalidDataLeavesStateUnchanged(t *testing.T) {
	s := newTestSession(t)
	before := s.State()

	_, err := s.SubmitBuyerInfo(BuyerInfo{Email: "not-an-email", FirstName: "J", LastName: "D"})
	assert.Error(t, err)
	assert.False(t, IsPreconditionError(err))
	assert.Equal(t, before, s.State())
}

func TestSession_ResubmitDoesNotAdvance(t *testing.T) {
	s := sessionAtReview(t)

	_, err := s.SubmitDelivery(testAddress(t), testShipping(t, "10.00"))
	require.NoError(t, err)

	assert.Equal(t, StepReview, s.CurrentStep())
	assert.Equal(t, "114.8", s.Totals().Total.String())
}

func TestSession_GoBackTo(t *testing.T) {
	s := sessionAtReview(t)

	ev, err := s.GoBackTo(StepDelivery)
	require.NoError(t, err)
	reverted := ev.(*StepReverted)
	assert.Equal(t, StepReview, reverted.FromStep)
	assert.Equal(t, StepDelivery, reverted.ToStep)
	assert.Equal(t, StepDelivery, s.CurrentStep())

	// data already submitted survives the navigation
	state := s.State()
	assert.NotNil(t, state.BuyerInfo)
	assert.NotNil(t, state.Delivery)
	assert.NotNil(t, state.Payment)

	// cannot jump forward, even to a step whose data exists
	_, err = s.GoBackTo(StepReview)
	assert.ErrorIs(t, err, ErrInvalidStepTarget)

	// resubmitting the reverted step advances one step from there
	_, err = s.SubmitDelivery(testAddress(t), testShipping(t, "4.99"))
	require.NoError(t, err)
	assert.Equal(t, StepPayment, s.CurrentStep())
}

func TestSession_GoBackToRejectsConfirmationAndUnknown(t *testing.T) {
	s := sessionAtReview(t)

	_, err := s.GoBackTo(StepConfirmation)
	assert.ErrorIs(t, err, ErrInvalidStepTarget)

	_, err = s.GoBackTo(CheckoutStep("shipping"))
	assert.ErrorIs(t, err, ErrUnknownStep)

	ev, err := s.GoBackTo(StepReview)
	require.NoError(t, err)
	assert.Equal(t, StepReview, ev.(*StepReverted).ToStep)
}

func TestSession_ConfirmPreconditions(t *testing.T) {
	s := newTestSession(t)
	_, err := s.SubmitBuyerInfo(testBuyer(t))
	require.NoError(t, err)

	_, _, err = s.Confirm(enrichedFor(t, s))
	assert.ErrorIs(t, err, ErrNotAtReview)

	s = sessionAtReview(t)
	other := newTestSession(t)
	_, _, err = s.Confirm(enrichedFor(t, other))
	assert.ErrorIs(t, err, ErrEnrichedCartMismatch)
	assert.Equal(t, StatusActive, s.Status())
}

func TestSession_CanConfirm(t *testing.T) {
	s := newTestSession(t)
	assert.ErrorIs(t, s.CanConfirm(), ErrNotAtReview)

	s = sessionAtReview(t)
	assert.NoError(t, s.CanConfirm())

	_, err := s.Abandon("changed my mind")
	require.NoError(t, err)
	assert.ErrorIs(t, s.CanConfirm(), ErrSessionNotActive)
}

func TestSession_ConfirmRejectsInvalidCart(t *testing.T) {
	s := sessionAtReview(t)
	before := s.State()

	items := s.LineItems()
	data := articleDataFor(items)
	snap := data[items[0].ProductID]
	snap.AvailableStock = 0
	data[items[0].ProductID] = snap
	cart, err := Enrich(items, data)
	require.NoError(t, err)

	ev, result, err := s.Confirm(cart)
	require.NoError(t, err)
	assert.Nil(t, ev)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ValidationInsufficientStock, result.Errors[0].Type)
	assert.Equal(t, before, s.State())
}

func TestSession_ConfirmIgnoresPriceDrift(t *testing.T) {
	s := sessionAtReview(t)
	items := s.LineItems()
	data := articleDataFor(items)
	snap := data[items[1].ProductID]
	snap.Price = decimal.RequireFromString("30.00")
	data[items[1].ProductID] = snap
	cart, err := Enrich(items, data)
	require.NoError(t, err)

	ev, result, err := s.Confirm(cart)
	require.NoError(t, err)
	assert.True(t, result.IsValid())
	assert.Equal(t, "104.8", ev.(*CheckoutConfirmed).Subtotal.String())
}

func TestSession_CompleteRequiresConfirmed(t *testing.T) {
	s := sessionAtReview(t)

	_, err := s.Complete("ORD-1")
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, StatusActive, s.Status())
}

func TestSession_AbandonAndExpire(t *testing.T) {
	s := newTestSession(t)
	ev, err := s.Abandon("changed my mind")
	require.NoError(t, err)
	abandoned := ev.(*CheckoutAbandoned)
	assert.Equal(t, StatusActive, abandoned.PreviousStatus)
	assert.Equal(t, "changed my mind", abandoned.Reason)
	assert.Equal(t, StatusAbandoned, s.Status())

	_, err = s.Abandon("again")
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = s.Expire()
	assert.ErrorIs(t, err, ErrIllegalTransition)

	s = newTestSession(t)
	ev, err = s.Expire()
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutExpired, ev.EventType())
	assert.Equal(t, StatusExpired, s.Status())
}

func TestSession_ConfirmedCannotBeAbandoned(t *testing.T) {
	s := sessionAtReview(t)
	_, _, err := s.Confirm(enrichedFor(t, s))
	require.NoError(t, err)

	_, err = s.Abandon("")
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = s.Expire()
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestSession_TerminalRejectsEverything(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Abandon("")
	require.NoError(t, err)
	before := s.State()

	_, err = s.SubmitBuyerInfo(testBuyer(t))
	assert.ErrorIs(t, err, ErrSessionNotActive)
	_, err = s.GoBackTo(StepBuyerInfo)
	assert.ErrorIs(t, err, ErrSessionNotActive)
	_, _, err = s.Confirm(enrichedFor(t, s))
	assert.ErrorIs(t, err, ErrSessionNotActive)
	_, err = s.Complete("ORD-1")
	assert.ErrorIs(t, err, ErrNotConfirmed)

	assert.Equal(t, before, s.State())
}

func TestSession_IsStale(t *testing.T) {
	s := newTestSession(t)

	assert.False(t, s.IsStale(time.Now().Add(-time.Hour)))
	assert.True(t, s.IsStale(time.Now().Add(time.Hour)))

	_, err := s.Abandon("")
	require.NoError(t, err)
	assert.False(t, s.IsStale(time.Now().Add(time.Hour)))
}

func TestSession_StateRoundTrip(t *testing.T) {
	s := sessionAtReview(t)
	s.MarkSaved(4)

	restored, err := RehydrateSession(s.State())
	require.NoError(t, err)

	assert.Equal(t, s.State(), restored.State())
	assert.Equal(t, 4, restored.Version())

	// the restored session keeps behaving like the original
	_, _, err = restored.Confirm(enrichedFor(t, restored))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, restored.Status())
}

func TestRehydrateSession_RejectsCorruptState(t *testing.T) {
	state := newTestSession(t).State()

	bad := state
	bad.LineItems = nil
	_, err := RehydrateSession(bad)
	assert.ErrorIs(t, err, ErrEmptyLineItems)

	bad = state
	bad.CurrentStep = "shipping"
	_, err = RehydrateSession(bad)
	assert.ErrorIs(t, err, ErrUnknownStep)

	bad = state
	bad.Status = "paused"
	_, err = RehydrateSession(bad)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
