package handler

import (
	"errors"
	"net/http"

	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/internal/domains/checkout/service"
	"checkout-backend/internal/shared/middleware"
	"checkout-backend/internal/shared/response"
	"checkout-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// genericFailure is the only message class-1 failures expose
const genericFailure = "Could not process checkout request"

// CheckoutHandler handles HTTP requests for checkout sessions
type CheckoutHandler struct {
	service service.ServiceInterface
}

func NewCheckoutHandler(svc service.ServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{service: svc}
}

// ===================================
// API 1: POST /checkout
// ===================================

// StartCheckout handles POST /checkout
// @Summary Start or resume checkout for a cart
// @Description 201 with a new session, 200 when an active session is resumed,
// @Description 422 with per-product problems when the cart cannot be checked out
// @Router /checkout [post]
func (h *CheckoutHandler) StartCheckout(c *gin.Context) {
	customerID, ok := h.customer(c)
	if !ok {
		return
	}

	var req model.StartCheckoutRequest
	if !bind(c, &req) {
		return
	}

	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid cart id")
		return
	}

	result, err := h.service.StartCheckout(c.Request.Context(), customerID, cartID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if result.Validation != nil {
		validationFailed(c, *result.Validation)
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	response.Success(c, status, result.Session)
}

// ===================================
// API 2: GET /checkout/active
// ===================================

// GetActiveSession handles GET /checkout/active
// @Summary Current active checkout of the caller
// @Router /checkout/active [get]
func (h *CheckoutHandler) GetActiveSession(c *gin.Context) {
	customerID, ok := h.customer(c)
	if !ok {
		return
	}

	resp, err := h.service.GetActiveSession(c.Request.Context(), customerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// ===================================
// API 3: GET /checkout/:id
// ===================================

// GetSession handles GET /checkout/:id
// @Summary Session snapshot with step progress
// @Router /checkout/{id} [get]
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	customerID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}

	resp, err := h.service.GetSession(c.Request.Context(), customerID, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// ===================================
// API 4: GET /checkout/:id/review
// ===================================

// ReviewSession handles GET /checkout/:id/review
// @Summary Captured vs current prices and stock of every line
// @Router /checkout/{id}/review [get]
func (h *CheckoutHandler) ReviewSession(c *gin.Context) {
	customerID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}

	resp, err := h.service.ReviewSession(c.Request.Context(), customerID, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// ===================================
// API 5-7: PUT /checkout/:id/{buyer-info,delivery,payment}
// ===================================

// SubmitBuyerInfo handles PUT /checkout/:id/buyer-info
func (h *CheckoutHandler) SubmitBuyerInfo(c *gin.Context) {
	customerID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}
	var req model.BuyerInfoRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.service.SubmitBuyerInfo(c.Request.Context(), customerID, sessionID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// SubmitDelivery handles PUT /checkout/:id/delivery
func (h *CheckoutHandler) SubmitDelivery(c *gin.Context) {
	customerID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}
	var req model.DeliveryRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.service.SubmitDelivery(c.Request.Context(), customerID, sessionID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// SubmitPayment handles PUT /checkout/:id/payment
func (h *CheckoutHandler) SubmitPayment(c *gin.Context) {
	customerID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}
	var req model.PaymentRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.service.SubmitPayment(c.Request.Context(), customerID, sessionID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// ===================================
// API 8: POST /checkout/:id/back
// ===================================

// GoBack handles POST /checkout/:id/back
// @Summary Return to an earlier step to edit it
// @Router /checkout/{id}/back [post]
func (h *CheckoutHandler) GoBack(c *gin.Context) {
	customerID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}
	var req model.GoBackRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.service.GoBackTo(c.Request.Context(), customerID, sessionID, req.Step)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// ===================================
// API 9: POST /checkout/:id/confirm
// ===================================

// Confirm handles POST /checkout/:id/confirm
// @Summary Re-validate stock and confirm
// @Description 422 with per-product problems when an item became unavailable
// @Router /checkout/{id}/confirm [post]
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	customerID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}

	result, err := h.service.Confirm(c.Request.Context(), customerID, sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if result.Validation != nil {
		validationFailed(c, *result.Validation)
		return
	}
	response.OK(c, result)
}

// ===================================
// API 10: POST /checkout/:id/abandon
// ===================================

// Abandon handles POST /checkout/:id/abandon. The body is optional.
func (h *CheckoutHandler) Abandon(c *gin.Context) {
	customerID, sessionID, ok := h.ids(c)
	if !ok {
		return
	}
	var req model.AbandonRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}

	resp, err := h.service.Abandon(c.Request.Context(), customerID, sessionID, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// ===================================
// API 11-12: catalogs
// ===================================

// PaymentMethods handles GET /checkout/payment-methods
func (h *CheckoutHandler) PaymentMethods(c *gin.Context) {
	response.OK(c, h.service.PaymentMethods())
}

// ShippingOptions handles GET /checkout/shipping-options
func (h *CheckoutHandler) ShippingOptions(c *gin.Context) {
	response.OK(c, h.service.ShippingOptions())
}

// ===================================
// INTERNAL: system transitions
// ===================================

// Complete handles POST /internal/checkout/:id/complete, called by the
// order service once the order exists.
func (h *CheckoutHandler) Complete(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	var req model.CompleteRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}

	resp, err := h.service.Complete(c.Request.Context(), sessionID, req.OrderReference)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// Expire handles POST /internal/checkout/:id/expire
func (h *CheckoutHandler) Expire(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}

	resp, err := h.service.Expire(c.Request.Context(), sessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.OK(c, resp)
}

// ===================================
// HELPERS
// ===================================

func (h *CheckoutHandler) customer(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CustomerID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return uuid.Nil, false
	}
	return id, true
}

func (h *CheckoutHandler) ids(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	customerID, ok := h.customer(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, ok := sessionParam(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return customerID, sessionID, true
}

func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid checkout session id")
		return uuid.Nil, false
	}
	return id, true
}

type validatable interface {
	Validate() error
}

// bind decodes the JSON body and runs the DTO's ozzo rules
func bind(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
		return false
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request", err)
		return false
	}
	return true
}

// validationFailed renders class-2 outcomes against the affected products
func validationFailed(c *gin.Context, result model.ValidationResult) {
	response.ErrorWithDetails(c, http.StatusUnprocessableEntity, model.ErrCodeValidationFailed,
		"Some items in your cart can no longer be checked out", result.Errors)
}

// handleError maps service errors to HTTP responses. The message is
// always generic; the code tells clients which case they hit.
func (h *CheckoutHandler) handleError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithFields("Checkout request failed", err, map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		})
	}
	response.ErrorResponse(c, status, code, genericFailure)
}

func classify(err error) (int, string) {
	var checkoutErr *model.CheckoutError
	if errors.As(err, &checkoutErr) {
		return statusForCode(checkoutErr.Code), checkoutErr.Code
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, model.ErrCodeInternal
}

var errorMappings = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrSessionNotFound, http.StatusNotFound, model.ErrCodeSessionNotFound},
	{model.ErrCartNotFound, http.StatusNotFound, model.ErrCodeCartNotFound},
	{model.ErrUnauthorized, http.StatusForbidden, model.ErrCodeUnauthorized},
	{model.ErrVersionConflict, http.StatusConflict, model.ErrCodeVersionConflict},
	{model.ErrActiveSessionExists, http.StatusConflict, model.ErrCodeActiveSessionExists},
	{model.ErrCartEmpty, http.StatusBadRequest, model.ErrCodeCartEmpty},
	{model.ErrInvalidPaymentMethod, http.StatusBadRequest, model.ErrCodeInvalidPaymentMethod},
	{model.ErrUnknownStep, http.StatusBadRequest, model.ErrCodeInvalidInput},
	{model.ErrSessionNotActive, http.StatusConflict, model.ErrCodeSessionNotActive},
	{model.ErrStepSkipped, http.StatusConflict, model.ErrCodeStepSkipped},
	{model.ErrNotAtReview, http.StatusConflict, model.ErrCodeStepSkipped},
	{model.ErrPrerequisiteMissing, http.StatusConflict, model.ErrCodePrerequisiteMissing},
	{model.ErrInvalidStepTarget, http.StatusConflict, model.ErrCodeInvalidStepTarget},
	{model.ErrNotConfirmed, http.StatusConflict, model.ErrCodeIllegalTransition},
	{model.ErrIllegalTransition, http.StatusConflict, model.ErrCodeIllegalTransition},
}

func statusForCode(code string) int {
	statusMap := map[string]int{
		model.ErrCodeSessionNotFound:       http.StatusNotFound,
		model.ErrCodeCartNotFound:          http.StatusNotFound,
		model.ErrCodeUnauthorized:          http.StatusForbidden,
		model.ErrCodeVersionConflict:       http.StatusConflict,
		model.ErrCodeActiveSessionExists:   http.StatusConflict,
		model.ErrCodeInvalidInput:          http.StatusBadRequest,
		model.ErrCodeCartEmpty:             http.StatusBadRequest,
		model.ErrCodeInvalidPaymentMethod:  http.StatusBadRequest,
		model.ErrCodeValidationFailed:      http.StatusUnprocessableEntity,
		model.ErrCodeArticleDataIncomplete: http.StatusUnprocessableEntity,
		model.ErrCodeSessionNotActive:      http.StatusConflict,
		model.ErrCodeStepSkipped:           http.StatusConflict,
		model.ErrCodePrerequisiteMissing:   http.StatusConflict,
		model.ErrCodeInvalidStepTarget:     http.StatusConflict,
		model.ErrCodeIllegalTransition:     http.StatusConflict,
	}

	if status, exists := statusMap[code]; exists {
		return status
	}
	return http.StatusInternalServerError
}
