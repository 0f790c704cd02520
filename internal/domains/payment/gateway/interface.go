package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// PROVIDER INTERFACE
// =====================================================

// Provider is one payment method a buyer can pick at checkout
type Provider interface {
	Code() string
	DisplayName() string

	// CreatePaymentIntent reserves the payment for a confirmed checkout.
	// Called once per confirmation; implementations must be idempotent
	// on IntentRequest.IdempotencyKey.
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*PaymentIntent, error)
}

// =====================================================
// REQUEST/RESPONSE TYPES
// =====================================================

type IntentRequest struct {
	SessionID      uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Description    string
	IdempotencyKey string
}

type PaymentIntent struct {
	ID          string          `json:"id"`
	Provider    string          `json:"provider"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	RedirectURL string          `json:"redirect_url,omitempty"`
	// RequiresAction is false for methods settled on delivery
	RequiresAction bool `json:"requires_action"`
}

// MethodInfo is the public listing of a provider
type MethodInfo struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// =====================================================
// REGISTRY
// =====================================================

var (
	ErrUnknownProvider   = errors.New("payment provider not registered")
	ErrDuplicateProvider = errors.New("payment provider already registered")
)

// Registry looks providers up by code
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Code()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Code())
	}
	r.providers[p.Code()] = p
	return nil
}

func (r *Registry) Get(code string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, code)
	}
	return p, nil
}

func (r *Registry) Has(code string) bool {
	_, err := r.Get(code)
	return err == nil
}

// Methods lists registered providers sorted by code
func (r *Registry) Methods() []MethodInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]MethodInfo, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, MethodInfo{Code: p.Code(), DisplayName: p.DisplayName()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
