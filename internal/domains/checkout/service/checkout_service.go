package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/internal/domains/checkout/publisher"
	"checkout-backend/internal/domains/checkout/repository"
	"checkout-backend/internal/domains/checkout/resolver"
	"checkout-backend/internal/domains/payment/gateway"
	"checkout-backend/pkg/logger"
	"checkout-backend/pkg/metrics"

	"github.com/google/uuid"
)

const (
	defaultSessionTTL = 30 * time.Minute
	defaultBatchSize  = 200
	defaultCurrency   = "EUR"

	reasonSuperseded = "superseded by a new checkout"
)

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
	SessionTTL      time.Duration
	ExpireBatchSize int
	Currency        string
	ShippingOptions map[string]model.ShippingOption
}

// Deps are the ports the service orchestrates. Resolver may cache and only
// serves the review page. FreshResolver must read the catalog directly, it
// gates starting and confirming a checkout; nil falls back to Resolver.
type Deps struct {
	Sessions      repository.SessionRepository
	Carts         repository.CartReader
	Resolver      model.ArticleResolver
	FreshResolver model.ArticleResolver
	Payments      *gateway.Registry
	Publisher     publisher.Publisher
	Metrics       *metrics.CheckoutMetrics
}

type CheckoutService struct {
	sessions  repository.SessionRepository
	carts     repository.CartReader
	resolver  model.ArticleResolver
	fresh     model.ArticleResolver
	payments  *gateway.Registry
	publisher publisher.Publisher
	metrics   *metrics.CheckoutMetrics

	sessionTTL time.Duration
	batchSize  int
	currency   string
	shipping   map[string]model.ShippingOption
	now        func() time.Time
}

func NewCheckoutService(deps Deps, cfg Config) *CheckoutService {
	s := &CheckoutService{
		sessions:   deps.Sessions,
		carts:      deps.Carts,
		resolver:   deps.Resolver,
		fresh:      deps.FreshResolver,
		payments:   deps.Payments,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		sessionTTL: cfg.SessionTTL,
		batchSize:  cfg.ExpireBatchSize,
		currency:   cfg.Currency,
		shipping:   cfg.ShippingOptions,
		now:        time.Now,
	}
	if s.fresh == nil {
		s.fresh = s.resolver
	}
	if s.publisher == nil {
		s.publisher = publisher.NopPublisher{}
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = defaultSessionTTL
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.currency == "" {
		s.currency = defaultCurrency
	}
	if len(s.shipping) == 0 {
		s.shipping = model.DefaultShippingOptions()
	}
	return s
}

var _ ServiceInterface = (*CheckoutService)(nil)

// =====================================================
// START
// =====================================================

func (s *CheckoutService) StartCheckout(ctx context.Context, customerID, cartID uuid.UUID) (*model.StartCheckoutResult, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.CustomerID != uuid.Nil && cart.CustomerID != customerID {
		return nil, model.ErrUnauthorized
	}
	if len(cart.Items) == 0 {
		return nil, model.ErrCartEmpty
	}

	existing, err := s.sessions.FindActiveByCartID(ctx, cartID)
	switch {
	case err == nil && existing.IsOwnedBy(customerID):
		resp, err := model.NewSessionResponse(existing)
		if err != nil {
			return nil, err
		}
		logger.Info("checkout resumed", map[string]interface{}{
			"session_id":  existing.ID().String(),
			"customer_id": customerID.String(),
		})
		return &model.StartCheckoutResult{Session: resp, Resumed: true}, nil
	case err == nil:
		return nil, model.ErrUnauthorized
	case !errors.Is(err, model.ErrSessionNotFound):
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}

	enriched, err := resolver.EnrichItems(ctx, s.fresh, cart.Items)
	if err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeArticleDataIncomplete, "could not resolve article data", err)
	}
	if result := enriched.Validate(); !result.IsValid() {
		s.recordValidation(result)
		logger.Info("checkout start rejected by validation", map[string]interface{}{
			"cart_id":     cartID.String(),
			"customer_id": customerID.String(),
			"errors":      len(result.Errors),
		})
		return &model.StartCheckoutResult{Validation: &result}, nil
	}

	session, ev, err := model.StartSession(cartID, customerID, cart.Items)
	if err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeInvalidInput, "cart cannot be checked out", err)
	}
	if err := s.saveReplacingPrevious(ctx, session); err != nil {
		return nil, err
	}
	s.publish(ctx, session, ev)

	resp, err := model.NewSessionResponse(session)
	if err != nil {
		return nil, err
	}
	return &model.StartCheckoutResult{Session: resp}, nil
}

// saveReplacingPrevious saves a new session. The customer's other active
// session, if any, is abandoned in the same write.
func (s *CheckoutService) saveReplacingPrevious(ctx context.Context, session *model.Session) error {
	previous, err := s.sessions.FindActiveByCustomerID(ctx, session.CustomerID())
	if errors.Is(err, model.ErrSessionNotFound) {
		return s.save(ctx, session)
	}
	if err != nil {
		return fmt.Errorf("failed to look up customer session: %w", err)
	}

	abandoned, err := previous.Abandon(reasonSuperseded)
	if err != nil {
		return err
	}
	if err := s.sessions.SaveReplacing(ctx, previous, session); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			s.metrics.RecordVersionConflict()
		}
		return err
	}
	s.publish(ctx, previous, abandoned)
	return nil
}

// =====================================================
// QUERIES
// =====================================================

func (s *CheckoutService) GetSession(ctx context.Context, customerID, sessionID uuid.UUID) (*model.SessionResponse, error) {
	session, err := s.loadOwned(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	return model.NewSessionResponse(session)
}

func (s *CheckoutService) GetActiveSession(ctx context.Context, customerID uuid.UUID) (*model.SessionResponse, error) {
	session, err := s.sessions.FindActiveByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return model.NewSessionResponse(session)
}

func (s *CheckoutService) ReviewSession(ctx context.Context, customerID, sessionID uuid.UUID) (*model.ReviewResponse, error) {
	session, err := s.loadOwned(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	enriched, err := resolver.EnrichItems(ctx, s.resolver, session.LineItems())
	if err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeArticleDataIncomplete, "could not resolve article data", err)
	}
	resp, err := model.NewSessionResponse(session)
	if err != nil {
		return nil, err
	}
	return model.NewReviewResponse(resp, enriched), nil
}

func (s *CheckoutService) PaymentMethods() []gateway.MethodInfo {
	if s.payments == nil {
		return nil
	}
	return s.payments.Methods()
}

func (s *CheckoutService) ShippingOptions() []model.ShippingOption {
	return model.SortedShippingOptions(s.shipping)
}

// =====================================================
// STEP SUBMISSION
// =====================================================

func (s *CheckoutService) SubmitBuyerInfo(ctx context.Context, customerID, sessionID uuid.UUID, req model.BuyerInfoRequest) (*model.SessionResponse, error) {
	info, err := model.NewBuyerInfo(req.Email, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeInvalidInput, "invalid buyer info", err)
	}
	return s.mutateOwned(ctx, customerID, sessionID, func(session *model.Session) (model.Event, error) {
		return session.SubmitBuyerInfo(info)
	})
}

func (s *CheckoutService) SubmitDelivery(ctx context.Context, customerID, sessionID uuid.UUID, req model.DeliveryRequest) (*model.SessionResponse, error) {
	address, err := model.NewDeliveryAddress(req.RecipientName, req.Street, req.City, req.PostalCode, req.Country, req.Phone)
	if err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeInvalidInput, "invalid delivery address", err)
	}
	option, ok := s.shipping[strings.TrimSpace(req.ShippingCode)]
	if !ok {
		return nil, model.NewCheckoutError(model.ErrCodeInvalidInput,
			fmt.Sprintf("unknown shipping option %q", req.ShippingCode), nil)
	}
	return s.mutateOwned(ctx, customerID, sessionID, func(session *model.Session) (model.Event, error) {
		return session.SubmitDelivery(address, option)
	})
}

func (s *CheckoutService) SubmitPayment(ctx context.Context, customerID, sessionID uuid.UUID, req model.PaymentRequest) (*model.SessionResponse, error) {
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if s.payments == nil {
		return nil, model.ErrInvalidPaymentMethod
	}
	provider, err := s.payments.Get(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidPaymentMethod, method)
	}
	selection, err := model.NewPaymentSelection(provider.Code(), provider.DisplayName())
	if err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeInvalidInput, "invalid payment selection", err)
	}
	return s.mutateOwned(ctx, customerID, sessionID, func(session *model.Session) (model.Event, error) {
		return session.SubmitPayment(selection)
	})
}

func (s *CheckoutService) GoBackTo(ctx context.Context, customerID, sessionID uuid.UUID, step string) (*model.SessionResponse, error) {
	target, err := model.ParseStep(step)
	if err != nil {
		return nil, err
	}
	return s.mutateOwned(ctx, customerID, sessionID, func(session *model.Session) (model.Event, error) {
		return session.GoBackTo(target)
	})
}

// =====================================================
// TRANSITIONS
// =====================================================

// Confirm runs the session transition in memory first. The payment intent
// is created before saving so a failed intent leaves the stored session
// untouched; intents are keyed by session id, so a retry after a failed
// save gets the same intent back.
func (s *CheckoutService) Confirm(ctx context.Context, customerID, sessionID uuid.UUID) (*model.ConfirmResult, error) {
	session, err := s.loadOwned(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.CanConfirm(); err != nil {
		return nil, err
	}

	enriched, err := resolver.EnrichItems(ctx, s.fresh, session.LineItems())
	if err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeArticleDataIncomplete, "could not resolve article data", err)
	}

	ev, result, err := session.Confirm(enriched)
	if err != nil {
		return nil, err
	}
	if !result.IsValid() {
		s.recordValidation(result)
		resp, err := model.NewSessionResponse(session)
		if err != nil {
			return nil, err
		}
		return &model.ConfirmResult{Session: resp, Validation: &result}, nil
	}

	confirmed, ok := ev.(*model.CheckoutConfirmed)
	if !ok {
		return nil, fmt.Errorf("unexpected confirm event %T", ev)
	}
	intent, err := s.createPaymentIntent(ctx, session, confirmed)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	s.publish(ctx, session, ev)

	resp, err := model.NewSessionResponse(session)
	if err != nil {
		return nil, err
	}
	return &model.ConfirmResult{Session: resp, PaymentIntent: intent}, nil
}

func (s *CheckoutService) createPaymentIntent(ctx context.Context, session *model.Session, ev *model.CheckoutConfirmed) (*gateway.PaymentIntent, error) {
	if s.payments == nil {
		return nil, model.ErrInvalidPaymentMethod
	}
	provider, err := s.payments.Get(ev.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidPaymentMethod, ev.PaymentMethod)
	}
	intent, err := provider.CreatePaymentIntent(ctx, gateway.IntentRequest{
		SessionID:      session.ID(),
		CustomerID:     session.CustomerID(),
		Amount:         ev.Total,
		Currency:       s.currency,
		Description:    fmt.Sprintf("Checkout %s", session.ID()),
		IdempotencyKey: "checkout:" + session.ID().String(),
	})
	if err != nil {
		return nil, model.NewCheckoutError(model.ErrCodeInternal, "payment provider rejected the intent", err)
	}
	return intent, nil
}

func (s *CheckoutService) Complete(ctx context.Context, sessionID uuid.UUID, orderReference string) (*model.SessionResponse, error) {
	ref := strings.TrimSpace(orderReference)
	if ref == "" {
		ref = GenerateOrderReference(s.now())
	}
	return s.mutate(ctx, sessionID, nil, func(session *model.Session) (model.Event, error) {
		return session.Complete(ref)
	})
}

func (s *CheckoutService) Abandon(ctx context.Context, customerID, sessionID uuid.UUID, reason string) (*model.SessionResponse, error) {
	return s.mutateOwned(ctx, customerID, sessionID, func(session *model.Session) (model.Event, error) {
		return session.Abandon(strings.TrimSpace(reason))
	})
}

func (s *CheckoutService) Expire(ctx context.Context, sessionID uuid.UUID) (*model.SessionResponse, error) {
	return s.mutate(ctx, sessionID, nil, func(session *model.Session) (model.Event, error) {
		return session.Expire()
	})
}

// ExpireStaleSessions sweeps in batches. A session touched between the
// query and the save loses the race to its owner and is skipped.
func (s *CheckoutService) ExpireStaleSessions(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}
	cutoff := s.now().Add(-s.sessionTTL)

	stale, err := s.sessions.FindExpiredSessions(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale sessions: %w", err)
	}

	expired := 0
	for _, session := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		ev, err := session.Expire()
		if err != nil {
			continue
		}
		if err := s.save(ctx, session); err != nil {
			if errors.Is(err, model.ErrVersionConflict) {
				continue
			}
			logger.ErrorWithFields("failed to expire session", err, map[string]interface{}{
				"session_id": session.ID().String(),
			})
			continue
		}
		s.publish(ctx, session, ev)
		expired++
	}

	s.metrics.RecordExpired(expired)
	if len(stale) > 0 {
		logger.Info("stale checkout sessions expired", map[string]interface{}{
			"found":   len(stale),
			"expired": expired,
			"cutoff":  cutoff,
		})
	}
	return expired, nil
}

// GenerateOrderReference returns ORD-YYYYMMDD-XXXXXXXX
func GenerateOrderReference(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", t.UTC().Format("20060102"), suffix)
}

// =====================================================
// HELPERS
// =====================================================

func (s *CheckoutService) loadOwned(ctx context.Context, customerID, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOwnedBy(customerID) {
		return nil, model.ErrUnauthorized
	}
	return session, nil
}

func (s *CheckoutService) mutateOwned(ctx context.Context, customerID, sessionID uuid.UUID, op func(*model.Session) (model.Event, error)) (*model.SessionResponse, error) {
	return s.mutate(ctx, sessionID, &customerID, op)
}

// mutate is load, one session call, save, publish
func (s *CheckoutService) mutate(ctx context.Context, sessionID uuid.UUID, owner *uuid.UUID, op func(*model.Session) (model.Event, error)) (*model.SessionResponse, error) {
	var (
		session *model.Session
		err     error
	)
	if owner != nil {
		session, err = s.loadOwned(ctx, *owner, sessionID)
	} else {
		session, err = s.sessions.FindByID(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	ev, err := op(session)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	s.publish(ctx, session, ev)

	return model.NewSessionResponse(session)
}

func (s *CheckoutService) save(ctx context.Context, session *model.Session) error {
	if err := s.sessions.Save(ctx, session); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			s.metrics.RecordVersionConflict()
		}
		return err
	}
	return nil
}

// publish runs after a successful save. Failures are logged, the state
// change already happened.
func (s *CheckoutService) publish(ctx context.Context, session *model.Session, ev model.Event) {
	if ev == nil {
		return
	}
	s.metrics.RecordEvent(ev.EventType())
	logger.Info("checkout event recorded", map[string]interface{}{
		"session_id":  session.ID().String(),
		"customer_id": session.CustomerID().String(),
		"event_type":  ev.EventType(),
		"status":      session.Status().String(),
		"step":        session.CurrentStep().String(),
	})

	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.RecordPublishFailure("checkout")
		logger.ErrorWithFields("failed to publish checkout event", err, map[string]interface{}{
			"session_id": session.ID().String(),
			"event_type": ev.EventType(),
			"event_id":   ev.EventID().String(),
		})
	}
}

func (s *CheckoutService) recordValidation(result model.ValidationResult) {
	for _, e := range result.Errors {
		s.metrics.RecordValidationFailure(string(e.Type))
	}
}
