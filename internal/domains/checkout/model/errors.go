package model

import "errors"

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeSessionNotFound       = "CHK001"
	ErrCodeSessionNotActive      = "CHK002"
	ErrCodeStepSkipped           = "CHK003"
	ErrCodePrerequisiteMissing   = "CHK004"
	ErrCodeInvalidStepTarget     = "CHK005"
	ErrCodeVersionConflict       = "CHK006"
	ErrCodeInvalidInput          = "CHK007"
	ErrCodeCartEmpty             = "CHK008"
	ErrCodeCartNotFound          = "CHK009"
	ErrCodeValidationFailed      = "CHK010"
	ErrCodeUnauthorized          = "CHK011"
	ErrCodeActiveSessionExists   = "CHK012"
	ErrCodeInvalidPaymentMethod  = "CHK013"
	ErrCodeIllegalTransition     = "CHK014"
	ErrCodeArticleDataIncomplete = "CHK015"
	ErrCodeInternal              = "CHK099"
)

// =====================================================
// PRECONDITION ERRORS
// =====================================================
// Caller misuse. The operation is aborted and the session is left untouched.
var (
	ErrSessionNotActive     = errors.New("checkout session is not active")
	ErrStepSkipped          = errors.New("checkout step cannot be submitted before reaching it")
	ErrPrerequisiteMissing  = errors.New("a required previous checkout step has not been submitted")
	ErrNotAtReview          = errors.New("checkout can only be confirmed from the review step")
	ErrNotConfirmed         = errors.New("checkout session is not confirmed")
	ErrIllegalTransition    = errors.New("illegal checkout status transition")
	ErrInvalidStepTarget    = errors.New("cannot go back to the requested step")
	ErrEmptyLineItems       = errors.New("checkout session requires at least one line item")
	ErrUnknownStep          = errors.New("unknown checkout step")
	ErrUnknownStatus        = errors.New("unknown checkout status")
	ErrMissingArticleData   = errors.New("article data missing for line item")
	ErrEnrichedCartMismatch = errors.New("enriched cart does not match session line items")
	ErrDuplicateLineItem    = errors.New("duplicate product in line items")
)

// =====================================================
// LOOKUP / PERSISTENCE ERRORS
// =====================================================
var (
	ErrSessionNotFound      = errors.New("checkout session not found")
	ErrVersionConflict      = errors.New("version mismatch - concurrent modification detected")
	ErrActiveSessionExists  = errors.New("customer already has an active checkout session")
	ErrCartNotFound         = errors.New("cart not found")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrUnauthorized         = errors.New("checkout session does not belong to customer")
	ErrInvalidPaymentMethod = errors.New("payment method is not available")
	ErrArticleNotFound      = errors.New("article not found")
)

// IsPreconditionError reports whether err is a caller-misuse failure of
// the session state machine.
func IsPreconditionError(err error) bool {
	for _, target := range []error{
		ErrSessionNotActive,
		ErrStepSkipped,
		ErrPrerequisiteMissing,
		ErrNotAtReview,
		ErrNotConfirmed,
		ErrIllegalTransition,
		ErrInvalidStepTarget,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type CheckoutError struct {
	Code    string
	Message string
	Err     error
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// NewCheckoutError creates a new CheckoutError
func NewCheckoutError(code, message string, err error) *CheckoutError {
	return &CheckoutError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
