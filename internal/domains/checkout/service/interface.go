package service

import (
	"context"

	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/internal/domains/payment/gateway"

	"github.com/google/uuid"
)

// ServiceInterface is the checkout use case surface used by the HTTP
// handler and the worker jobs.
type ServiceInterface interface {
	// StartCheckout resumes the active session of the cart or starts a new
	// one. An invalid cart yields a validation result and no session.
	StartCheckout(ctx context.Context, customerID, cartID uuid.UUID) (*model.StartCheckoutResult, error)

	GetSession(ctx context.Context, customerID, sessionID uuid.UUID) (*model.SessionResponse, error)
	GetActiveSession(ctx context.Context, customerID uuid.UUID) (*model.SessionResponse, error)

	// ReviewSession compares captured prices with fresh article data.
	// Read only.
	ReviewSession(ctx context.Context, customerID, sessionID uuid.UUID) (*model.ReviewResponse, error)

	SubmitBuyerInfo(ctx context.Context, customerID, sessionID uuid.UUID, req model.BuyerInfoRequest) (*model.SessionResponse, error)
	SubmitDelivery(ctx context.Context, customerID, sessionID uuid.UUID, req model.DeliveryRequest) (*model.SessionResponse, error)
	SubmitPayment(ctx context.Context, customerID, sessionID uuid.UUID, req model.PaymentRequest) (*model.SessionResponse, error)
	GoBackTo(ctx context.Context, customerID, sessionID uuid.UUID, step string) (*model.SessionResponse, error)

	// Confirm re-validates stock, reserves the payment and confirms
	Confirm(ctx context.Context, customerID, sessionID uuid.UUID) (*model.ConfirmResult, error)

	Abandon(ctx context.Context, customerID, sessionID uuid.UUID, reason string) (*model.SessionResponse, error)

	// Complete and Expire are system transitions without ownership checks
	Complete(ctx context.Context, sessionID uuid.UUID, orderReference string) (*model.SessionResponse, error)
	Expire(ctx context.Context, sessionID uuid.UUID) (*model.SessionResponse, error)

	// ExpireStaleSessions expires every active session idle longer than
	// the session TTL and returns how many were expired
	ExpireStaleSessions(ctx context.Context, batchSize int) (int, error)

	PaymentMethods() []gateway.MethodInfo
	ShippingOptions() []model.ShippingOption
}
