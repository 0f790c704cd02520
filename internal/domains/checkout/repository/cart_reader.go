package repository

import (
	"context"
	"errors"
	"fmt"

	"checkout-backend/internal/domains/checkout/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresCartReader struct {
	pool *pgxpool.Pool
}

// NewPostgresCartReader reads carts from the cart context tables.
// Items carry the price captured when they were added to the cart.
func NewPostgresCartReader(pool *pgxpool.Pool) CartReader {
	return &postgresCartReader{pool: pool}
}

func (r *postgresCartReader) GetCart(ctx context.Context, cartID uuid.UUID) (*CartSnapshot, error) {
	cart := &CartSnapshot{ID: cartID}

	var userID *uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT user_id FROM carts WHERE id = $1 AND expires_at > NOW()`,
		cartID,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if userID != nil {
		cart.CustomerID = *userID
	}

	query := `
		SELECT
			ci.id,
			ci.book_id,
			COALESCE(b.title, ''),
			COALESCE(b.slug, ''),
			COALESCE(b.cover_url, ''),
			ci.price,
			ci.quantity
		FROM cart_items ci
		LEFT JOIN books b ON ci.book_id = b.id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.LineItem
		if err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.Name,
			&item.Slug,
			&item.ImageURL,
			&item.UnitPrice,
			&item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return cart, nil
}
