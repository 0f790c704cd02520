package repository

import (
	"context"
	"time"

	"checkout-backend/internal/domains/checkout/model"

	"github.com/google/uuid"
)

// SessionRepository persists checkout sessions.
//
// Save is an upsert guarded by optimistic locking: the stored version must
// equal session.Version() (0 for a new session). On success the session is
// marked with the new version. A stale version yields model.ErrVersionConflict
// and a second active session for the same customer yields
// model.ErrActiveSessionExists.
type SessionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	FindActiveByCartID(ctx context.Context, cartID uuid.UUID) (*model.Session, error)
	FindActiveByCustomerID(ctx context.Context, customerID uuid.UUID) (*model.Session, error)

	// FindExpiredSessions returns active sessions not updated since cutoff
	FindExpiredSessions(ctx context.Context, cutoff time.Time, limit int) ([]*model.Session, error)

	Save(ctx context.Context, session *model.Session) error

	// SaveReplacing saves previous and next atomically with the same rules
	// as Save. Used when a new session supersedes the customer's old one.
	SaveReplacing(ctx context.Context, previous, next *model.Session) error
}

// CartSnapshot is what checkout needs from the cart context
type CartSnapshot struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Items      []model.LineItem
}

// CartReader reads carts owned by the cart context
type CartReader interface {
	// GetCart returns model.ErrCartNotFound when the cart does not exist
	GetCart(ctx context.Context, cartID uuid.UUID) (*CartSnapshot, error)
}
