package model

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// PRICE / STOCK RESOLVER PORT
// =====================================================

// ArticleSnapshot is the currently-true price and stock of one product,
// fetched when needed and never stored on the session.
type ArticleSnapshot struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Price          decimal.Decimal `json:"price"`
	IsAvailable    bool            `json:"is_available"`
	AvailableStock int             `json:"available_stock"`
}

// ArticleResolver maps a product id to its current price and stock.
// Implementations live outside the session; the session never calls one.
type ArticleResolver interface {
	Resolve(ctx context.Context, productID uuid.UUID) (ArticleSnapshot, error)
}

// ArticleData is a complete resolver result for a set of products
type ArticleData map[uuid.UUID]ArticleSnapshot
