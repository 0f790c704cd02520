package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateTotals(t *testing.T) {
	d := decimal.RequireFromString

	totals := CalculateTotals(d("100.00"), d("4.99"), d("0.50"))
	assert.True(t, totals.Total.Equal(d("105.49")))

	reshipped := totals.WithShipping(d("0"))
	assert.True(t, reshipped.Total.Equal(d("100.50")))
	assert.True(t, reshipped.Subtotal.Equal(totals.Subtotal))

	assert.True(t, totals.Equal(CalculateTotals(d("100"), d("4.990"), d("0.5"))))
	assert.False(t, totals.Equal(reshipped))
}

func TestLineItem_Validate(t *testing.T) {
	items := testItems(t)
	assert.Equal(t, "79.8", items[0].LineTotal().String())
	assert.Equal(t, "104.8", Subtotal(items).String())

	bad := items[0]
	bad.Quantity = 101
	assert.Error(t, bad.Validate())

	bad = items[0]
	bad.UnitPrice = decimal.NewFromInt(-1)
	assert.Error(t, bad.Validate())

	dto := items[0].ToDTO()
	assert.Equal(t, "39.90", dto.UnitPrice)
	assert.Equal(t, "79.80", dto.LineTotal)
}

func TestStepData_Validation(t *testing.T) {
	_, err := NewBuyerInfo("jane@example.com", "", "Doe", "")
	assert.Error(t, err)

	_, err = NewDeliveryAddress("Jane", "Street 1", "Berlin", "10115", "XX", "")
	assert.Error(t, err)

	_, err = NewShippingOption("express", "Express", decimal.NewFromInt(-5), 1)
	assert.Error(t, err)

	_, err = NewPaymentSelection("  ", "")
	assert.Error(t, err)

	p, err := NewPaymentSelection(" Mock_Card ", "")
	assert.NoError(t, err)
	assert.Equal(t, "mock_card", p.Method)
}

func TestSubmission(t *testing.T) {
	empty := NotSubmitted[BuyerInfo]()
	assert.False(t, empty.IsSubmitted())
	assert.Nil(t, empty.Ptr())

	b := BuyerInfo{Email: "a@b.co", FirstName: "A", LastName: "B"}
	s := Submitted(b)
	got, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, b, got)
	assert.Equal(t, s, SubmissionFromPtr(s.Ptr()))
	assert.Equal(t, "A B", got.FullName())
}
