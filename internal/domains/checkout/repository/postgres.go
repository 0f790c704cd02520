package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const activeCustomerIndex = "uq_checkout_sessions_active_customer"

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) SessionRepository {
	return &postgresRepository{pool: pool}
}

const sessionColumns = `
	id, cart_id, customer_id, status, current_step, line_items,
	subtotal, shipping, tax, total,
	buyer_info, delivery, payment, order_reference,
	version, created_at, updated_at
`

// =====================================================
// QUERIES
// =====================================================

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresRepository) FindActiveByCartID(ctx context.Context, cartID uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM checkout_sessions
		WHERE cart_id = $1 AND status = 'active'
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, cartID)
}

func (r *postgresRepository) FindActiveByCustomerID(ctx context.Context, customerID uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM checkout_sessions
		WHERE customer_id = $1 AND status = 'active'
	`
	return r.findOne(ctx, query, customerID)
}

func (r *postgresRepository) FindExpiredSessions(ctx context.Context, cutoff time.Time, limit int) ([]*model.Session, error) {
	if limit <= 0 {
		limit = 500
	}
	query := `
		SELECT ` + sessionColumns + `
		FROM checkout_sessions
		WHERE status = 'active' AND updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func (r *postgresRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// =====================================================
// SAVE (OPTIMISTIC LOCKING)
// =====================================================

func (r *postgresRepository) Save(ctx context.Context, session *model.Session) error {
	return r.saveAll(ctx, session)
}

// SaveReplacing writes previous and next in one transaction. previous is
// written first so the partial unique index on active sessions never sees
// two rows for the customer.
func (r *postgresRepository) SaveReplacing(ctx context.Context, previous, next *model.Session) error {
	return r.saveAll(ctx, previous, next)
}

func (r *postgresRepository) saveAll(ctx context.Context, sessions ...*model.Session) error {
	versions := make([]int, len(sessions))
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		for i, session := range sessions {
			v, err := saveTx(ctx, tx, session.State())
			if err != nil {
				return err
			}
			versions[i] = v
		}
		return nil
	})
	if err != nil {
		return mapWriteError(err)
	}

	for i, session := range sessions {
		session.MarkSaved(versions[i])
	}
	return nil
}

// saveTx upserts one session inside tx and returns its new version
func saveTx(ctx context.Context, tx pgx.Tx, state model.SessionState) (int, error) {
	row, err := encodeState(state)
	if err != nil {
		return 0, err
	}

	var (
		storedVersion int
		storedStatus  string
	)
	err = tx.QueryRow(ctx,
		`SELECT version, status FROM checkout_sessions WHERE id = $1 FOR UPDATE`,
		state.ID,
	).Scan(&storedVersion, &storedStatus)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if state.Version != 0 {
			return 0, model.ErrVersionConflict
		}
		if err := insertSession(ctx, tx, state, row); err != nil {
			return 0, err
		}
		return 1, insertHistory(ctx, tx, state.ID, "", state, 1)

	case err != nil:
		return 0, fmt.Errorf("failed to lock session: %w", err)
	}

	if storedVersion != state.Version {
		return 0, model.ErrVersionConflict
	}
	newVersion := storedVersion + 1
	if err := updateSession(ctx, tx, state, row); err != nil {
		return 0, err
	}
	if storedStatus != string(state.Status) {
		return newVersion, insertHistory(ctx, tx, state.ID, storedStatus, state, newVersion)
	}
	return newVersion, nil
}

func insertSession(ctx context.Context, tx pgx.Tx, st model.SessionState, row encodedState) error {
	query := `
		INSERT INTO checkout_sessions (
			id, cart_id, customer_id, status, current_step, line_items,
			subtotal, shipping, tax, total,
			buyer_info, delivery, payment, order_reference,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, $15, $16)
	`
	_, err := tx.Exec(ctx, query,
		st.ID, st.CartID, st.CustomerID, st.Status, st.CurrentStep, row.lineItems,
		st.Totals.Subtotal, st.Totals.Shipping, st.Totals.Tax, st.Totals.Total,
		row.buyerInfo, row.delivery, row.payment, nullString(st.OrderReference),
		st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func updateSession(ctx context.Context, tx pgx.Tx, st model.SessionState, row encodedState) error {
	query := `
		UPDATE checkout_sessions SET
			status = $2,
			current_step = $3,
			line_items = $4,
			subtotal = $5,
			shipping = $6,
			tax = $7,
			total = $8,
			buyer_info = $9,
			delivery = $10,
			payment = $11,
			order_reference = $12,
			updated_at = $13,
			version = version + 1
		WHERE id = $1 AND version = $14
	`
	result, err := tx.Exec(ctx, query,
		st.ID, st.Status, st.CurrentStep, row.lineItems,
		st.Totals.Subtotal, st.Totals.Shipping, st.Totals.Tax, st.Totals.Total,
		row.buyerInfo, row.delivery, row.payment, nullString(st.OrderReference),
		st.UpdatedAt, st.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}
	return nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, id uuid.UUID, from string, st model.SessionState, version int) error {
	query := `
		INSERT INTO checkout_status_history (session_id, from_status, to_status, step, version, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.Exec(ctx, query, id, nullString(from), st.Status, st.CurrentStep, version, st.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}
	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeCustomerIndex {
		return model.ErrActiveSessionExists
	}
	return err
}

// =====================================================
// ROW MAPPING
// =====================================================

type encodedState struct {
	lineItems []byte
	buyerInfo []byte
	delivery  []byte
	payment   []byte
}

func encodeState(st model.SessionState) (encodedState, error) {
	var (
		row encodedState
		err error
	)
	if row.lineItems, err = json.Marshal(st.LineItems); err != nil {
		return row, fmt.Errorf("failed to encode line items: %w", err)
	}
	if row.buyerInfo, err = marshalOptional(st.BuyerInfo); err != nil {
		return row, fmt.Errorf("failed to encode buyer info: %w", err)
	}
	if row.delivery, err = marshalOptional(st.Delivery); err != nil {
		return row, fmt.Errorf("failed to encode delivery: %w", err)
	}
	if row.payment, err = marshalOptional(st.Payment); err != nil {
		return row, fmt.Errorf("failed to encode payment: %w", err)
	}
	return row, nil
}

func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalOptional[T any](data []byte) (*T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var (
		st             model.SessionState
		lineItems      []byte
		buyerInfo      []byte
		delivery       []byte
		payment        []byte
		orderReference *string
	)
	err := row.Scan(
		&st.ID,
		&st.CartID,
		&st.CustomerID,
		&st.Status,
		&st.CurrentStep,
		&lineItems,
		&st.Totals.Subtotal,
		&st.Totals.Shipping,
		&st.Totals.Tax,
		&st.Totals.Total,
		&buyerInfo,
		&delivery,
		&payment,
		&orderReference,
		&st.Version,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if err := json.Unmarshal(lineItems, &st.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	if st.BuyerInfo, err = unmarshalOptional[model.BuyerInfo](buyerInfo); err != nil {
		return nil, fmt.Errorf("failed to decode buyer info: %w", err)
	}
	if st.Delivery, err = unmarshalOptional[model.DeliveryChoice](delivery); err != nil {
		return nil, fmt.Errorf("failed to decode delivery: %w", err)
	}
	if st.Payment, err = unmarshalOptional[model.PaymentSelection](payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}
	if orderReference != nil {
		st.OrderReference = *orderReference
	}

	return model.RehydrateSession(st)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
