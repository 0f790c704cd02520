package resolver

import (
	"context"
	"fmt"

	"checkout-backend/internal/domains/checkout/model"

	"github.com/google/uuid"
)

// Func adapts a plain function to model.ArticleResolver
type Func func(ctx context.Context, productID uuid.UUID) (model.ArticleSnapshot, error)

func (f Func) Resolve(ctx context.Context, productID uuid.UUID) (model.ArticleSnapshot, error) {
	return f(ctx, productID)
}

// BatchResolver is implemented by resolvers that can fetch many products
// in one round trip
type BatchResolver interface {
	ResolveMany(ctx context.Context, productIDs []uuid.UUID) (model.ArticleData, error)
}

// ResolveAll builds the article data for every item. The result is
// complete or an error is returned.
func ResolveAll(ctx context.Context, r model.ArticleResolver, items []model.LineItem) (model.ArticleData, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	if batch, ok := r.(BatchResolver); ok {
		data, err := batch.ResolveMany(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, ok := data[id]; !ok {
				return nil, fmt.Errorf("resolve article %s: %w", id, model.ErrArticleNotFound)
			}
		}
		return data, nil
	}

	data := make(model.ArticleData, len(ids))
	for _, id := range ids {
		snap, err := r.Resolve(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve article %s: %w", id, err)
		}
		data[id] = snap
	}
	return data, nil
}

// EnrichItems resolves and enriches in one call
func EnrichItems(ctx context.Context, r model.ArticleResolver, items []model.LineItem) (model.EnrichedCart, error) {
	data, err := ResolveAll(ctx, r, items)
	if err != nil {
		return model.EnrichedCart{}, err
	}
	return model.Enrich(items, data)
}
