package resolver

import (
	"context"
	"fmt"
	"time"

	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/pkg/cache"
	"checkout-backend/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// CachedResolver puts a short-lived cache in front of another resolver.
// Concurrent misses for the same product share one upstream call.
// A zero TTL disables caching, every call goes upstream.
type CachedResolver struct {
	next  model.ArticleResolver
	cache cache.Cache
	ttl   time.Duration
	sfg   singleflight.Group
}

func NewCachedResolver(next model.ArticleResolver, c cache.Cache, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, cache: c, ttl: ttl}
}

func (r *CachedResolver) Resolve(ctx context.Context, productID uuid.UUID) (model.ArticleSnapshot, error) {
	if r.ttl <= 0 || r.cache == nil {
		return r.next.Resolve(ctx, productID)
	}

	key := articleCacheKey(productID)
	v, err, _ := r.sfg.Do(key, func() (interface{}, error) {
		var snap model.ArticleSnapshot
		found, err := r.cache.Get(ctx, key, &snap)
		if err != nil {
			// cache trouble never blocks checkout
			logger.Warn("article cache get failed", map[string]interface{}{
				"product_id": productID.String(),
				"error":      err.Error(),
			})
		}
		if found {
			return snap, nil
		}

		snap, err = r.next.Resolve(ctx, productID)
		if err != nil {
			return nil, err
		}

		if err := r.cache.Set(ctx, key, snap, r.ttl); err != nil {
			logger.Warn("article cache set failed", map[string]interface{}{
				"product_id": productID.String(),
				"error":      err.Error(),
			})
		}
		return snap, nil
	})
	if err != nil {
		return model.ArticleSnapshot{}, err
	}
	return v.(model.ArticleSnapshot), nil
}

// ResolveMany serves hits from the cache and looks the misses up in one
// upstream batch when next supports it.
func (r *CachedResolver) ResolveMany(ctx context.Context, productIDs []uuid.UUID) (model.ArticleData, error) {
	if r.ttl <= 0 || r.cache == nil {
		return r.resolveUpstream(ctx, productIDs)
	}

	data := make(model.ArticleData, len(productIDs))
	var misses []uuid.UUID
	for _, id := range productIDs {
		var snap model.ArticleSnapshot
		found, err := r.cache.Get(ctx, articleCacheKey(id), &snap)
		if err != nil {
			logger.Warn("article cache get failed", map[string]interface{}{
				"product_id": id.String(),
				"error":      err.Error(),
			})
		}
		if found {
			data[id] = snap
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return data, nil
	}

	fetched, err := r.resolveUpstream(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, snap := range fetched {
		data[id] = snap
		if err := r.cache.Set(ctx, articleCacheKey(id), snap, r.ttl); err != nil {
			logger.Warn("article cache set failed", map[string]interface{}{
				"product_id": id.String(),
				"error":      err.Error(),
			})
		}
	}
	return data, nil
}

func (r *CachedResolver) resolveUpstream(ctx context.Context, productIDs []uuid.UUID) (model.ArticleData, error) {
	if batch, ok := r.next.(BatchResolver); ok {
		return batch.ResolveMany(ctx, productIDs)
	}
	data := make(model.ArticleData, len(productIDs))
	for _, id := range productIDs {
		snap, err := r.next.Resolve(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve article %s: %w", id, err)
		}
		data[id] = snap
	}
	return data, nil
}

// Invalidate drops cached snapshots, for example after a price change
func (r *CachedResolver) Invalidate(ctx context.Context, productIDs ...uuid.UUID) error {
	if r.cache == nil || len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = articleCacheKey(id)
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate article cache: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached snapshot
func (r *CachedResolver) InvalidateAll(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.DeletePattern(ctx, "article:*")
}

func articleCacheKey(id uuid.UUID) string {
	return "article:" + id.String()
}
