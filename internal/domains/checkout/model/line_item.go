package model

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// LINE ITEM
// =====================================================

// LineItem is a product captured from the cart when checkout starts.
// UnitPrice is the snapshot at add-to-cart time, not the current price.
type LineItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// NewLineItem creates a validated line item with a fresh id
func NewLineItem(productID uuid.UUID, name string, unitPrice decimal.Decimal, quantity int) (LineItem, error) {
	item := LineItem{
		ID:        uuid.New(),
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	}
	if err := item.Validate(); err != nil {
		return LineItem{}, fmt.Errorf("invalid line item %s: %w", productID, err)
	}
	return item, nil
}

func (li LineItem) Validate() error {
	return validation.ValidateStruct(&li,
		validation.Field(&li.ProductID, validation.By(requiredUUID)),
		validation.Field(&li.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&li.UnitPrice, validation.By(nonNegativeAmount)),
		validation.Field(&li.Quantity, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// LineTotal is the captured price times quantity
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Subtotal sums the captured line totals
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// LineItemDTO is the lightweight shape carried by integration events.
// Only shared identifiers and primitive values.
type LineItemDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

func (li LineItem) ToDTO() LineItemDTO {
	return LineItemDTO{
		ProductID: li.ProductID.String(),
		Name:      li.Name,
		Quantity:  li.Quantity,
		UnitPrice: li.UnitPrice.StringFixed(2),
		LineTotal: li.LineTotal().StringFixed(2),
	}
}

func requiredUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
}
