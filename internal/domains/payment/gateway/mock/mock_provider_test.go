package mock

import (
	"context"
	"testing"

	"checkout-backend/internal/domains/payment/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_WithDefaultProviders(t *testing.T) {
	providers, err := DefaultProviders("https://pay.test", []string{CodeCOD, CodeCard, CodeWallet})
	require.NoError(t, err)
	reg, err := gateway.NewRegistry(providers...)
	require.NoError(t, err)

	methods := reg.Methods()
	require.Len(t, methods, 3)
	assert.Equal(t, CodeCOD, methods[0].Code)
	assert.Equal(t, CodeCard, methods[1].Code)
	assert.True(t, reg.Has(CodeWallet))
	assert.False(t, reg.Has("bitcoin"))

	_, err = reg.Get("bitcoin")
	assert.ErrorIs(t, err, gateway.ErrUnknownProvider)

	err = reg.Register(NewMockProvider(CodeCard, "again", "", true))
	assert.ErrorIs(t, err, gateway.ErrDuplicateProvider)
}

func TestDefaultProviders_UnknownCode(t *testing.T) {
	_, err := DefaultProviders("", []string{"paypal"})
	assert.ErrorIs(t, err, gateway.ErrUnknownProvider)
}

func TestMockProvider_IntentIsIdempotent(t *testing.T) {
	p := NewMockProvider(CodeCard, "Card", "https://pay.test", true)
	req := gateway.IntentRequest{
		SessionID:      uuid.New(),
		Amount:         decimal.RequireFromString("19.99"),
		Currency:       "EUR",
		IdempotencyKey: "session-1",
	}

	first, err := p.CreatePaymentIntent(context.Background(), req)
	require.NoError(t, err)
	second, err := p.CreatePaymentIntent(context.Background(), req)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Contains(t, first.RedirectURL, "amount=19.99")
	assert.Equal(t, 2, p.Calls())
}

func TestMockProvider_CODNeedsNoAction(t *testing.T) {
	p := NewMockProvider(CodeCOD, "Cash", "https://pay.test", false)
	intent, err := p.CreatePaymentIntent(context.Background(), gateway.IntentRequest{SessionID: uuid.New()})
	require.NoError(t, err)
	assert.False(t, intent.RequiresAction)
	assert.Empty(t, intent.RedirectURL)

	p.SetFail(true)
	_, err = p.CreatePaymentIntent(context.Background(), gateway.IntentRequest{SessionID: uuid.New()})
	assert.Error(t, err)
}
