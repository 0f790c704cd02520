package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultShippingOptions is the built-in shipping catalog
func DefaultShippingOptions() map[string]ShippingOption {
	return map[string]ShippingOption{
		"standard": {Code: "standard", Name: "Standard delivery", Cost: decimal.RequireFromString("4.99"), EstimatedDays: 4},
		"express":  {Code: "express", Name: "Express delivery", Cost: decimal.RequireFromString("9.99"), EstimatedDays: 1},
		"pickup":   {Code: "pickup", Name: "Store pickup", Cost: decimal.Zero, EstimatedDays: 2},
	}
}

// SortedShippingOptions lists options cheapest first
func SortedShippingOptions(options map[string]ShippingOption) []ShippingOption {
	out := make([]ShippingOption, 0, len(options))
	for _, o := range options {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Cost.Cmp(out[j].Cost); c != 0 {
			return c < 0
		}
		return out[i].Code < out[j].Code
	})
	return out
}
