package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutStep_Ordering(t *testing.T) {
	steps := Steps()
	require.Len(t, steps, 5)

	for i, step := range steps {
		assert.Equal(t, i, step.Rank())
		if i > 0 {
			assert.True(t, step.After(steps[i-1]))
			assert.True(t, steps[i-1].Before(step))
			assert.Equal(t, step, steps[i-1].Next())
		}
	}
	assert.Equal(t, StepConfirmation, StepConfirmation.Next())
	assert.Equal(t, -1, CheckoutStep("gift_wrap").Rank())
}

func TestParseStep(t *testing.T) {
	step, err := ParseStep("payment")
	require.NoError(t, err)
	assert.Equal(t, StepPayment, step)

	_, err = ParseStep("Payment")
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestSessionStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to SessionStatus
		allowed  bool
	}{
		{StatusActive, StatusConfirmed, true},
		{StatusActive, StatusAbandoned, true},
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusAbandoned, false},
		{StatusConfirmed, StatusExpired, false},
		{StatusCompleted, StatusActive, false},
		{StatusAbandoned, StatusActive, false},
		{StatusExpired, StatusAbandoned, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusAbandoned.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())

	_, err := ParseStatus("paused")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
