package model

import "fmt"

// =====================================================
// CHECKOUT STEP
// =====================================================

// CheckoutStep is one stage of the checkout flow. The set is closed and
// totally ordered by Rank.
type CheckoutStep string

const (
	StepBuyerInfo    CheckoutStep = "buyer_info"
	StepDelivery     CheckoutStep = "delivery"
	StepPayment      CheckoutStep = "payment"
	StepReview       CheckoutStep = "review"
	StepConfirmation CheckoutStep = "confirmation"
)

// orderedSteps is the checkout flow in order
var orderedSteps = []CheckoutStep{
	StepBuyerInfo,
	StepDelivery,
	StepPayment,
	StepReview,
	StepConfirmation,
}

// Steps returns the checkout steps in flow order
func Steps() []CheckoutStep {
	out := make([]CheckoutStep, len(orderedSteps))
	copy(out, orderedSteps)
	return out
}

// ParseStep converts a wire value into a CheckoutStep
func ParseStep(s string) (CheckoutStep, error) {
	step := CheckoutStep(s)
	if step.Rank() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, s)
	}
	return step, nil
}

// Rank is the position of the step in the flow, -1 for unknown values
func (s CheckoutStep) Rank() int {
	for i, step := range orderedSteps {
		if step == s {
			return i
		}
	}
	return -1
}

// Before reports whether s comes strictly before other
func (s CheckoutStep) Before(other CheckoutStep) bool {
	return s.Rank() < other.Rank()
}

// After reports whether s comes strictly after other
func (s CheckoutStep) After(other CheckoutStep) bool {
	return s.Rank() > other.Rank()
}

// Next returns the following step. Confirmation has no successor and
// returns itself.
func (s CheckoutStep) Next() CheckoutStep {
	r := s.Rank()
	if r < 0 || r+1 >= len(orderedSteps) {
		return s
	}
	return orderedSteps[r+1]
}

func (s CheckoutStep) IsValid() bool {
	return s.Rank() >= 0
}

func (s CheckoutStep) String() string {
	return string(s)
}
