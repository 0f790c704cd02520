package model

import (
	"checkout-backend/internal/domains/payment/gateway"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// REQUEST DTOs
// =====================================================

type StartCheckoutRequest struct {
	CartID string `json:"cart_id"`
}

func (r StartCheckoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CartID, validation.Required, is.UUID),
	)
}

type BuyerInfoRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (r BuyerInfoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.LastName, validation.Required),
	)
}

type DeliveryRequest struct {
	RecipientName string `json:"recipient_name"`
	Street        string `json:"street"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
	ShippingCode  string `json:"shipping_code"`
}

func (r DeliveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RecipientName, validation.Required),
		validation.Field(&r.Street, validation.Required),
		validation.Field(&r.City, validation.Required),
		validation.Field(&r.PostalCode, validation.Required),
		validation.Field(&r.Country, validation.Required, validation.Length(2, 2)),
		validation.Field(&r.ShippingCode, validation.Required),
	)
}

type PaymentRequest struct {
	Method string `json:"method"`
}

func (r PaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Method, validation.Required),
	)
}

type GoBackRequest struct {
	Step string `json:"step"`
}

func (r GoBackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Step, validation.Required),
	)
}

type AbandonRequest struct {
	Reason string `json:"reason"`
}

func (r AbandonRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Length(0, 255)),
	)
}

type CompleteRequest struct {
	OrderReference string `json:"order_reference"`
}

func (r CompleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderReference, validation.Length(0, 64)),
	)
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// SessionResponse is the snapshot plus progress and version
type SessionResponse struct {
	SessionSnapshot
	Progress []StepProgress `json:"progress"`
	Version  int            `json:"version"`
}

type StartCheckoutResult struct {
	Session    *SessionResponse  `json:"session,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty"`
	Resumed    bool              `json:"resumed"`
}

type ConfirmResult struct {
	Session       *SessionResponse       `json:"session,omitempty"`
	Validation    *ValidationResult      `json:"validation,omitempty"`
	PaymentIntent *gateway.PaymentIntent `json:"payment_intent,omitempty"`
}

// ReviewLine compares the captured and the current state of one item
type ReviewLine struct {
	ProductID         uuid.UUID       `json:"product_id"`
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	CapturedUnitPrice decimal.Decimal `json:"captured_unit_price"`
	CurrentUnitPrice  decimal.Decimal `json:"current_unit_price"`
	PriceDelta        decimal.Decimal `json:"price_delta"`
	IsAvailable       bool            `json:"is_available"`
	AvailableStock    int             `json:"available_stock"`
	ValidForCheckout  bool            `json:"valid_for_checkout"`
}

type ReviewResponse struct {
	Session          *SessionResponse `json:"session"`
	Lines            []ReviewLine     `json:"lines"`
	CapturedSubtotal decimal.Decimal  `json:"captured_subtotal"`
	CurrentSubtotal  decimal.Decimal  `json:"current_subtotal"`
	PriceChanged     bool             `json:"price_changed"`
	Validation       ValidationResult `json:"validation"`
}

// NewReviewResponse builds the review view of an enriched cart
func NewReviewResponse(session *SessionResponse, cart EnrichedCart) *ReviewResponse {
	items := cart.Items()
	lines := make([]ReviewLine, 0, len(items))
	for _, e := range items {
		lines = append(lines, ReviewLine{
			ProductID:         e.Item.ProductID,
			Name:              e.Item.Name,
			Quantity:          e.Item.Quantity,
			CapturedUnitPrice: e.Item.UnitPrice,
			CurrentUnitPrice:  e.Article.Price,
			PriceDelta:        e.PriceDelta(),
			IsAvailable:       e.Article.IsAvailable,
			AvailableStock:    e.Article.AvailableStock,
			ValidForCheckout:  e.IsValidForCheckout(),
		})
	}
	return &ReviewResponse{
		Session:          session,
		Lines:            lines,
		CapturedSubtotal: cart.OriginalSubtotal(),
		CurrentSubtotal:  cart.CurrentSubtotal(),
		PriceChanged:     len(cart.PriceChangedItems()) > 0,
		Validation:       cart.Validate(),
	}
}

// NewSessionResponse projects a session into its response
func NewSessionResponse(s *Session) (*SessionResponse, error) {
	snap, err := SnapshotOf(s)
	if err != nil {
		return nil, err
	}
	progress := &ProgressProjection{}
	s.Project(progress)
	return &SessionResponse{
		SessionSnapshot: snap,
		Progress:        progress.Steps(),
		Version:         s.Version(),
	}, nil
}
