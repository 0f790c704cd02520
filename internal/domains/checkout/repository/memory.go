package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"checkout-backend/internal/domains/checkout/model"

	"github.com/google/uuid"
)

// memoryRepository keeps session state in a map. Same contract as the
// Postgres implementation, used by tests and the memory storage driver.
type memoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]model.SessionState
}

func NewMemoryRepository() SessionRepository {
	return &memoryRepository{sessions: make(map[uuid.UUID]model.SessionState)}
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return model.RehydrateSession(state)
}

func (r *memoryRepository) FindActiveByCartID(_ context.Context, cartID uuid.UUID) (*model.Session, error) {
	return r.findActive(func(st model.SessionState) bool { return st.CartID == cartID })
}

func (r *memoryRepository) FindActiveByCustomerID(_ context.Context, customerID uuid.UUID) (*model.Session, error) {
	return r.findActive(func(st model.SessionState) bool { return st.CustomerID == customerID })
}

func (r *memoryRepository) findActive(match func(model.SessionState) bool) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, st := range r.sessions {
		if st.Status == model.StatusActive && match(st) {
			return model.RehydrateSession(st)
		}
	}
	return nil, model.ErrSessionNotFound
}

func (r *memoryRepository) FindExpiredSessions(_ context.Context, cutoff time.Time, limit int) ([]*model.Session, error) {
	r.mu.RLock()
	var stale []model.SessionState
	for _, st := range r.sessions {
		if st.Status == model.StatusActive && st.UpdatedAt.Before(cutoff) {
			stale = append(stale, st)
		}
	}
	r.mu.RUnlock()

	sort.Slice(stale, func(i, j int) bool { return stale[i].UpdatedAt.Before(stale[j].UpdatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}

	out := make([]*model.Session, 0, len(stale))
	for _, st := range stale {
		s, err := model.RehydrateSession(st)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryRepository) Save(_ context.Context, session *model.Session) error {
	return r.saveAll(session)
}

func (r *memoryRepository) SaveReplacing(_ context.Context, previous, next *model.Session) error {
	return r.saveAll(previous, next)
}

// saveAll checks every session before writing any of them
func (r *memoryRepository) saveAll(sessions ...*model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[uuid.UUID]model.SessionState, len(sessions))
	for _, session := range sessions {
		state := session.State()
		if r.sessions[state.ID].Version != state.Version {
			return model.ErrVersionConflict
		}
		staged[state.ID] = state
	}

	for _, state := range staged {
		if state.Status == model.StatusActive && r.hasOtherActive(state, staged) {
			return model.ErrActiveSessionExists
		}
	}

	for _, session := range sessions {
		state := staged[session.ID()]
		state.Version++
		r.sessions[state.ID] = state
		session.MarkSaved(state.Version)
	}
	return nil
}

// hasOtherActive looks at stored sessions as they would be after staged is written
func (r *memoryRepository) hasOtherActive(state model.SessionState, staged map[uuid.UUID]model.SessionState) bool {
	sameCustomer := func(id uuid.UUID, other model.SessionState) bool {
		return id != state.ID && other.Status == model.StatusActive && other.CustomerID == state.CustomerID
	}
	for id, other := range r.sessions {
		if next, ok := staged[id]; ok {
			other = next
		}
		if sameCustomer(id, other) {
			return true
		}
	}
	for id, other := range staged {
		if sameCustomer(id, other) {
			return true
		}
	}
	return false
}

// MemoryCartReader serves carts registered with Put. Used with the memory
// storage driver and in tests.
type MemoryCartReader struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]CartSnapshot
}

func NewMemoryCartReader() *MemoryCartReader {
	return &MemoryCartReader{carts: make(map[uuid.UUID]CartSnapshot)}
}

// Put registers or replaces a cart
func (r *MemoryCartReader) Put(cart CartSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]model.LineItem, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	r.carts[cart.ID] = cart
}

func (r *MemoryCartReader) GetCart(_ context.Context, cartID uuid.UUID) (*CartSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[cartID]
	if !ok {
		return nil, model.ErrCartNotFound
	}
	items := make([]model.LineItem, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return &cart, nil
}
