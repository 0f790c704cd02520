package resolver

import (
	"context"
	"errors"
	"fmt"

	"checkout-backend/internal/domains/checkout/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresResolver reads current price and stock from the catalog tables.
// Available stock is summed over warehouses, minus reservations.
type PostgresResolver struct {
	pool *pgxpool.Pool
}

func NewPostgresResolver(pool *pgxpool.Pool) *PostgresResolver {
	return &PostgresResolver{pool: pool}
}

const articleQuery = `
	SELECT
		b.id,
		b.price,
		b.is_active AND b.deleted_at IS NULL AS is_available,
		COALESCE(inv.total_available, 0) AS available_stock
	FROM books b
	LEFT JOIN (
		SELECT
			book_id,
			SUM(quantity - reserved) AS total_available
		FROM warehouse_inventory
		GROUP BY book_id
	) inv ON b.id = inv.book_id
`

func (r *PostgresResolver) Resolve(ctx context.Context, productID uuid.UUID) (model.ArticleSnapshot, error) {
	var (
		snap  model.ArticleSnapshot
		stock int64
	)
	err := r.pool.QueryRow(ctx, articleQuery+` WHERE b.id = $1`, productID).Scan(
		&snap.ProductID,
		&snap.Price,
		&snap.IsAvailable,
		&stock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ArticleSnapshot{}, fmt.Errorf("%w: %s", model.ErrArticleNotFound, productID)
		}
		return model.ArticleSnapshot{}, fmt.Errorf("failed to resolve article: %w", err)
	}
	snap.AvailableStock = clampStock(stock)
	return snap, nil
}

func (r *PostgresResolver) ResolveMany(ctx context.Context, productIDs []uuid.UUID) (model.ArticleData, error) {
	data := make(model.ArticleData, len(productIDs))
	if len(productIDs) == 0 {
		return data, nil
	}

	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, articleQuery+` WHERE b.id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			snap  model.ArticleSnapshot
			stock int64
		)
		if err := rows.Scan(&snap.ProductID, &snap.Price, &snap.IsAvailable, &stock); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		snap.AvailableStock = clampStock(stock)
		data[snap.ProductID] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}

	return data, nil
}

// clampStock guards against over-reservation showing as negative stock
func clampStock(n int64) int {
	if n < 0 {
		return 0
	}
	return int(n)
}
