package mock

import (
	"context"
	"fmt"
	"sync"

	"checkout-backend/internal/domains/payment/gateway"
)

// =====================================================
// MOCK PAYMENT PROVIDERS
// =====================================================

const (
	CodeCard   = "mock_card"
	CodeWallet = "mock_wallet"
	CodeCOD    = "cod"
)

// MockProvider answers every intent with a fake redirect, remembering
// intents by idempotency key.
type MockProvider struct {
	code           string
	displayName    string
	baseURL        string
	requiresAction bool

	mu         sync.Mutex
	shouldFail bool
	intents    map[string]*gateway.PaymentIntent
	calls      int
}

func NewMockProvider(code, displayName, baseURL string, requiresAction bool) *MockProvider {
	return &MockProvider{
		code:           code,
		displayName:    displayName,
		baseURL:        baseURL,
		requiresAction: requiresAction,
		intents:        make(map[string]*gateway.PaymentIntent),
	}
}

func (m *MockProvider) Code() string        { return m.code }
func (m *MockProvider) DisplayName() string { return m.displayName }

func (m *MockProvider) CreatePaymentIntent(_ context.Context, req gateway.IntentRequest) (*gateway.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.shouldFail {
		return nil, fmt.Errorf("mock %s intent creation failed", m.code)
	}
	if existing, ok := m.intents[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return existing, nil
	}

	id := fmt.Sprintf("MOCK_%s_%s", m.code, req.SessionID.String()[:8])
	intent := &gateway.PaymentIntent{
		ID:             id,
		Provider:       m.code,
		Amount:         req.Amount,
		Currency:       req.Currency,
		RequiresAction: m.requiresAction,
	}
	if m.requiresAction {
		intent.RedirectURL = fmt.Sprintf("%s/pay?intent=%s&amount=%s", m.baseURL, id, req.Amount.StringFixed(2))
	}
	if req.IdempotencyKey != "" {
		m.intents[req.IdempotencyKey] = intent
	}
	return intent, nil
}

// SetFail makes subsequent intent creation fail
func (m *MockProvider) SetFail(shouldFail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
}

// Calls is the number of CreatePaymentIntent calls so far
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// DefaultProviders builds the providers named in codes. Unknown codes are
// an error so a typo in config fails at start-up.
func DefaultProviders(baseURL string, codes []string) ([]gateway.Provider, error) {
	out := make([]gateway.Provider, 0, len(codes))
	for _, code := range codes {
		switch code {
		case CodeCard:
			out = append(out, NewMockProvider(CodeCard, "Credit card (test)", baseURL, true))
		case CodeWallet:
			out = append(out, NewMockProvider(CodeWallet, "E-wallet (test)", baseURL, true))
		case CodeCOD:
			out = append(out, NewMockProvider(CodeCOD, "Cash on delivery", baseURL, false))
		default:
			return nil, fmt.Errorf("%w: %s", gateway.ErrUnknownProvider, code)
		}
	}
	return out, nil
}
