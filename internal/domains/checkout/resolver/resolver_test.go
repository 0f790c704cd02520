package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"checkout-backend/internal/domains/checkout/model"
	infraCache "checkout-backend/internal/infrastructure/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingResolver returns in-stock snapshots and counts upstream calls
type countingResolver struct {
	calls atomic.Int32
	fail  error
}

func (c *countingResolver) Resolve(_ context.Context, id uuid.UUID) (model.ArticleSnapshot, error) {
	c.calls.Add(1)
	if c.fail != nil {
		return model.ArticleSnapshot{}, c.fail
	}
	return model.ArticleSnapshot{
		ProductID:      id,
		Price:          decimal.RequireFromString("12.50"),
		IsAvailable:    true,
		AvailableStock: 3,
	}, nil
}

type batchResolver struct {
	countingResolver
	data    model.ArticleData
	batches atomic.Int32
	lastIDs []uuid.UUID
}

func (b *batchResolver) ResolveMany(_ context.Context, ids []uuid.UUID) (model.ArticleData, error) {
	b.batches.Add(1)
	b.lastIDs = ids
	out := make(model.ArticleData, len(ids))
	for _, id := range ids {
		if snap, ok := b.data[id]; ok {
			out[id] = snap
		}
	}
	return out, nil
}

func lineItems(t *testing.T, n int) []model.LineItem {
	t.Helper()
	items := make([]model.LineItem, 0, n)
	for i := 0; i < n; i++ {
		item, err := model.NewLineItem(uuid.New(), "book", decimal.NewFromInt(10), 1)
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func TestFunc(t *testing.T) {
	id := uuid.New()
	r := Func(func(_ context.Context, pid uuid.UUID) (model.ArticleSnapshot, error) {
		return model.ArticleSnapshot{ProductID: pid, IsAvailable: true}, nil
	})

	snap, err := r.Resolve(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ProductID)
}

func TestResolveAll(t *testing.T) {
	items := lineItems(t, 3)
	r := &countingResolver{}

	data, err := ResolveAll(context.Background(), r, items)
	require.NoError(t, err)
	assert.Len(t, data, 3)
	assert.Equal(t, int32(3), r.calls.Load())

	cart, err := model.Enrich(items, data)
	require.NoError(t, err)
	assert.True(t, cart.IsValidForCheckout())
}

func TestResolveAll_PropagatesFailure(t *testing.T) {
	boom := errors.New("catalog down")
	_, err := ResolveAll(context.Background(), &countingResolver{fail: boom}, lineItems(t, 2))
	assert.ErrorIs(t, err, boom)
}

func TestResolveAll_BatchMustBeComplete(t *testing.T) {
	items := lineItems(t, 2)
	b := &batchResolver{data: model.ArticleData{
		items[0].ProductID: {ProductID: items[0].ProductID, IsAvailable: true, AvailableStock: 1},
	}}

	_, err := ResolveAll(context.Background(), b, items)
	assert.ErrorIs(t, err, model.ErrArticleNotFound)
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestEnrichItems(t *testing.T) {
	items := lineItems(t, 2)
	cart, err := EnrichItems(context.Background(), &countingResolver{}, items)
	require.NoError(t, err)
	assert.Len(t, cart.PriceChangedItems(), 2)
}

func newCached(t *testing.T, next model.ArticleResolver, ttl time.Duration) (*CachedResolver, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCachedResolver(next, infraCache.NewRedisCache(client, "checkout"), ttl), mr
}

func TestCachedResolver_HitsCache(t *testing.T) {
	upstream := &countingResolver{}
	r, mr := newCached(t, upstream, time.Minute)
	id := uuid.New()
	ctx := context.Background()

	first, err := r.Resolve(ctx, id)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, int32(1), upstream.calls.Load())
	assert.True(t, first.Price.Equal(second.Price))
	assert.True(t, mr.Exists("checkout:article:"+id.String()))

	mr.FastForward(2 * time.Minute)
	_, err = r.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.calls.Load())
}

func TestCachedResolver_ZeroTTLBypasses(t *testing.T) {
	upstream := &countingResolver{}
	r, mr := newCached(t, upstream, 0)
	id := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), id)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), upstream.calls.Load())
	assert.False(t, mr.Exists("checkout:article:"+id.String()))
}

func TestCachedResolver_ErrorsAreNotCached(t *testing.T) {
	upstream := &countingResolver{fail: model.ErrArticleNotFound}
	r, mr := newCached(t, upstream, time.Minute)
	id := uuid.New()

	_, err := r.Resolve(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrArticleNotFound)
	assert.False(t, mr.Exists("checkout:article:"+id.String()))
}

func TestCachedResolver_ConcurrentCallers(t *testing.T) {
	upstream := &countingResolver{}
	r, _ := newCached(t, upstream, time.Minute)
	id := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, upstream.calls.Load(), int32(20))
	assert.GreaterOrEqual(t, upstream.calls.Load(), int32(1))
}

func TestCachedResolver_ResolveManyBatchesMisses(t *testing.T) {
	items := lineItems(t, 3)
	data := make(model.ArticleData, len(items))
	for _, item := range items {
		data[item.ProductID] = model.ArticleSnapshot{
			ProductID:      item.ProductID,
			Price:          decimal.RequireFromString("10.00"),
			IsAvailable:    true,
			AvailableStock: 5,
		}
	}
	upstream := &batchResolver{data: data}
	r, mr := newCached(t, upstream, time.Minute)
	ctx := context.Background()

	got, err := ResolveAll(ctx, r, items)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, int32(1), upstream.batches.Load())
	assert.Len(t, upstream.lastIDs, 3)
	for _, item := range items {
		assert.True(t, mr.Exists("checkout:article:"+item.ProductID.String()))
	}

	got, err = ResolveAll(ctx, r, items)
	require.NoError(t, err)
	assert.Equal(t, int32(1), upstream.batches.Load())
	assert.True(t, got[items[0].ProductID].Price.Equal(decimal.RequireFromString("10.00")))

	require.NoError(t, r.Invalidate(ctx, items[2].ProductID))
	_, err = ResolveAll(ctx, r, items)
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.batches.Load())
	assert.Equal(t, []uuid.UUID{items[2].ProductID}, upstream.lastIDs)
	assert.Equal(t, int32(0), upstream.calls.Load())
}

func TestCachedResolver_ResolveManyWithoutBatchUpstream(t *testing.T) {
	upstream := &countingResolver{}
	r, _ := newCached(t, upstream, time.Minute)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	data, err := r.ResolveMany(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, data, 2)
	assert.Equal(t, int32(2), upstream.calls.Load())

	_, err = r.ResolveMany(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.calls.Load())
}

func TestCachedResolver_Invalidate(t *testing.T) {
	upstream := &countingResolver{}
	r, mr := newCached(t, upstream, time.Minute)
	a, b := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err := r.Resolve(ctx, a)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, b)
	require.NoError(t, err)

	require.NoError(t, r.Invalidate(ctx, a))
	assert.False(t, mr.Exists("checkout:article:"+a.String()))
	assert.True(t, mr.Exists("checkout:article:"+b.String()))

	require.NoError(t, r.InvalidateAll(ctx))
	assert.False(t, mr.Exists("checkout:article:"+b.String()))
}

func TestCatalog(t *testing.T) {
	items := lineItems(t, 2)
	catalog := NewCatalog(model.ArticleSnapshot{
		ProductID:      items[0].ProductID,
		Price:          decimal.RequireFromString("9.99"),
		IsAvailable:    true,
		AvailableStock: 4,
	})

	_, err := ResolveAll(context.Background(), catalog, items)
	assert.ErrorIs(t, err, model.ErrArticleNotFound)

	catalog.Put(model.ArticleSnapshot{
		ProductID:      items[1].ProductID,
		Price:          decimal.RequireFromString("1.00"),
		IsAvailable:    true,
		AvailableStock: 1,
	})
	data, err := ResolveAll(context.Background(), catalog, items)
	require.NoError(t, err)
	assert.Len(t, data, 2)
	assert.True(t, data[items[0].ProductID].Price.Equal(decimal.RequireFromString("9.99")))
}
