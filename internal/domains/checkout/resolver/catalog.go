package resolver

import (
	"context"
	"fmt"
	"sync"

	"checkout-backend/internal/domains/checkout/model"

	"github.com/google/uuid"
)

// Catalog is an in-process resolver used with the memory storage driver
type Catalog struct {
	mu       sync.RWMutex
	articles map[uuid.UUID]model.ArticleSnapshot
}

func NewCatalog(snapshots ...model.ArticleSnapshot) *Catalog {
	c := &Catalog{articles: make(map[uuid.UUID]model.ArticleSnapshot, len(snapshots))}
	for _, s := range snapshots {
		c.articles[s.ProductID] = s
	}
	return c
}

// Put inserts or replaces a product
func (c *Catalog) Put(snapshot model.ArticleSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.articles[snapshot.ProductID] = snapshot
}

func (c *Catalog) Resolve(_ context.Context, productID uuid.UUID) (model.ArticleSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.articles[productID]
	if !ok {
		return model.ArticleSnapshot{}, fmt.Errorf("%w: %s", model.ErrArticleNotFound, productID)
	}
	return snap, nil
}

func (c *Catalog) ResolveMany(ctx context.Context, productIDs []uuid.UUID) (model.ArticleData, error) {
	data := make(model.ArticleData, len(productIDs))
	for _, id := range productIDs {
		snap, err := c.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		data[id] = snap
	}
	return data, nil
}
