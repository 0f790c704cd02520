package model

import "github.com/shopspring/decimal"

// =====================================================
// TOTALS
// =====================================================

// Totals is the derived money summary of a session
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CalculateTotals combines the parts into a total. Tax is passed in as an
// amount; computing it is outside checkout.
func CalculateTotals(subtotal, shipping, tax decimal.Decimal) Totals {
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// WithShipping recomputes the totals for a new shipping cost
func (t Totals) WithShipping(shipping decimal.Decimal) Totals {
	return CalculateTotals(t.Subtotal, shipping, t.Tax)
}

// Equal compares amounts numerically
func (t Totals) Equal(other Totals) bool {
	return t.Subtotal.Equal(other.Subtotal) &&
		t.Shipping.Equal(other.Shipping) &&
		t.Tax.Equal(other.Tax) &&
		t.Total.Equal(other.Total)
}
