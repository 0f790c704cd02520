package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testItems(t *testing.T) []LineItem {
	t.Helper()
	a, err := NewLineItem(uuid.New(), "The Go Programming Language", decimal.RequireFromString("39.90"), 2)
	require.NoError(t, err)
	b, err := NewLineItem(uuid.New(), "Concurrency in Go", decimal.RequireFromString("25.00"), 1)
	require.NoError(t, err)
	return []LineItem{a, b}
}

func testBuyer(t *testing.T) BuyerInfo {
	t.Helper()
	b, err := NewBuyerInfo("Jane@Example.com", "Jane", "Doe", "+14155550100")
	require.NoError(t, err)
	return b
}

func testAddress(t *testing.T) DeliveryAddress {
	t.Helper()
	a, err := NewDeliveryAddress("Jane Doe", "Main Street 1", "Berlin", "10115", "de", "")
	require.NoError(t, err)
	return a
}

func testShipping(t *testing.T, cost string) ShippingOption {
	t.Helper()
	o, err := NewShippingOption("standard", "Standard", decimal.RequireFromString(cost), 3)
	require.NoError(t, err)
	return o
}

func testPayment(t *testing.T) PaymentSelection {
	t.Helper()
	p, err := NewPaymentSelection("mock_card", "Card")
	require.NoError(t, err)
	return p
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, _, err := StartSession(uuid.New(), uuid.New(), testItems(t))
	require.NoError(t, err)
	return s
}

// sessionAtReview returns a session with every step submitted
func sessionAtReview(t *testing.T) *Session {
	t.Helper()
	s := newTestSession(t)
	_, err := s.SubmitBuyerInfo(testBuyer(t))
	require.NoError(t, err)
	_, err = s.SubmitDelivery(testAddress(t), testShipping(t, "4.99"))
	require.NoError(t, err)
	_, err = s.SubmitPayment(testPayment(t))
	require.NoError(t, err)
	require.Equal(t, StepReview, s.CurrentStep())
	return s
}

// articleDataFor returns in-stock snapshots at the captured prices
func articleDataFor(items []LineItem) ArticleData {
	data := make(ArticleData, len(items))
	for _, item := range items {
		data[item.ProductID] = ArticleSnapshot{
			ProductID:      item.ProductID,
			Price:          item.UnitPrice,
			IsAvailable:    true,
			AvailableStock: item.Quantity + 10,
		}
	}
	return data
}

func enrichedFor(t *testing.T, s *Session) EnrichedCart {
	t.Helper()
	cart, err := Enrich(s.LineItems(), articleDataFor(s.LineItems()))
	require.NoError(t, err)
	return cart
}
