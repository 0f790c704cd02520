package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// VALIDATION RESULT
// =====================================================

type ValidationErrorType string

const (
	ValidationProductUnavailable ValidationErrorType = "PRODUCT_UNAVAILABLE"
	ValidationInsufficientStock  ValidationErrorType = "INSUFFICIENT_STOCK"
)

// ValidationError is one per-product business problem
type ValidationError struct {
	Type           ValidationErrorType `json:"type"`
	ProductID      uuid.UUID           `json:"product_id"`
	ProductName    string              `json:"product_name"`
	Requested      int                 `json:"requested"`
	AvailableStock int                 `json:"available_stock"`
	Message        string              `json:"message"`
}

// ValidationResult is the expected-outcome report of enrichment.
// Empty means valid.
type ValidationResult struct {
	Errors []ValidationError `json:"errors"`
}

func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ErrorsOfType filters errors by type
func (r ValidationResult) ErrorsOfType(t ValidationErrorType) []ValidationError {
	var out []ValidationError
	for _, e := range r.Errors {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// =====================================================
// ENRICHED LINE ITEM
// =====================================================

// EnrichedLineItem pairs a captured line item with fresh article data
type EnrichedLineItem struct {
	Item    LineItem
	Article ArticleSnapshot
}

func NewEnrichedLineItem(item LineItem, article ArticleSnapshot) EnrichedLineItem {
	return EnrichedLineItem{Item: item, Article: article}
}

// CurrentLineTotal is fresh price times quantity
func (e EnrichedLineItem) CurrentLineTotal() decimal.Decimal {
	return e.Article.Price.Mul(decimal.NewFromInt(int64(e.Item.Quantity)))
}

// OriginalLineTotal is captured price times quantity
func (e EnrichedLineItem) OriginalLineTotal() decimal.Decimal {
	return e.Item.LineTotal()
}

// PriceDelta is current minus original line total; positive means the
// item got more expensive.
func (e EnrichedLineItem) PriceDelta() decimal.Decimal {
	return e.CurrentLineTotal().Sub(e.OriginalLineTotal())
}

func (e EnrichedLineItem) HasPriceChanged() bool {
	return !e.Article.Price.Equal(e.Item.UnitPrice)
}

func (e EnrichedLineItem) HasSufficientStock() bool {
	return e.Article.AvailableStock >= e.Item.Quantity
}

// IsValidForCheckout is available AND sufficient stock
func (e EnrichedLineItem) IsValidForCheckout() bool {
	return e.Article.IsAvailable && e.HasSufficientStock()
}

// ValidationErrors lists what is wrong with the item. Unavailable items
// report only ProductUnavailable.
func (e EnrichedLineItem) ValidationErrors() []ValidationError {
	if !e.Article.IsAvailable {
		return []ValidationError{{
			Type:           ValidationProductUnavailable,
			ProductID:      e.Item.ProductID,
			ProductName:    e.Item.Name,
			Requested:      e.Item.Quantity,
			AvailableStock: e.Article.AvailableStock,
			Message:        fmt.Sprintf("%s is no longer available", e.Item.Name),
		}}
	}
	if !e.HasSufficientStock() {
		return []ValidationError{{
			Type:           ValidationInsufficientStock,
			ProductID:      e.Item.ProductID,
			ProductName:    e.Item.Name,
			Requested:      e.Item.Quantity,
			AvailableStock: e.Article.AvailableStock,
			Message: fmt.Sprintf("only %d of %s left, %d requested",
				e.Article.AvailableStock, e.Item.Name, e.Item.Quantity),
		}}
	}
	return nil
}

// =====================================================
// ENRICHED CART
// =====================================================

// EnrichedCart is every line item of a session paired with fresh data
type EnrichedCart struct {
	items []EnrichedLineItem
}

// Enrich pairs each line item with its article snapshot. A product
// missing from data is a programming error and fails the whole call.
func Enrich(items []LineItem, data ArticleData) (EnrichedCart, error) {
	enriched := make([]EnrichedLineItem, 0, len(items))
	for _, item := range items {
		article, ok := data[item.ProductID]
		if !ok {
			return EnrichedCart{}, fmt.Errorf("%w: product %s", ErrMissingArticleData, item.ProductID)
		}
		enriched = append(enriched, NewEnrichedLineItem(item, article))
	}
	return EnrichedCart{items: enriched}, nil
}

func (c EnrichedCart) Items() []EnrichedLineItem {
	out := make([]EnrichedLineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c EnrichedCart) IsValidForCheckout() bool {
	for _, item := range c.items {
		if !item.IsValidForCheckout() {
			return false
		}
	}
	return true
}

func (c EnrichedCart) InvalidItems() []EnrichedLineItem {
	var out []EnrichedLineItem
	for _, item := range c.items {
		if !item.IsValidForCheckout() {
			out = append(out, item)
		}
	}
	return out
}

func (c EnrichedCart) PriceChangedItems() []EnrichedLineItem {
	var out []EnrichedLineItem
	for _, item := range c.items {
		if item.HasPriceChanged() {
			out = append(out, item)
		}
	}
	return out
}

func (c EnrichedCart) Validate() ValidationResult {
	result := ValidationResult{Errors: []ValidationError{}}
	for _, item := range c.items {
		result.Errors = append(result.Errors, item.ValidationErrors()...)
	}
	return result
}

// CurrentSubtotal sums fresh line totals
func (c EnrichedCart) CurrentSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.CurrentLineTotal())
	}
	return sum
}

// OriginalSubtotal sums captured line totals
func (c EnrichedCart) OriginalSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.OriginalLineTotal())
	}
	return sum
}

// covers reports whether the cart holds exactly the given line items
func (c EnrichedCart) covers(items []LineItem) bool {
	if len(c.items) != len(items) {
		return false
	}
	seen := make(map[uuid.UUID]int, len(items))
	for _, e := range c.items {
		seen[e.Item.ID] = e.Item.Quantity
	}
	for _, item := range items {
		qty, ok := seen[item.ID]
		if !ok || qty != item.Quantity {
			return false
		}
	}
	return true
}
