// Package api contains the HTTP handlers and routing for the order service.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fitstack/fitstack-orders/internal/domain"
	"github.com/fitstack/fitstack-orders/internal/orders"
)

// OrderService is the service surface the handlers depend on.
type OrderService interface {
	StartCheckout(ctx context.Context, userID, packageID string, customer domain.CustomerInfo) (*orders.CheckoutResult, error)
	VerifyPayment(ctx context.Context, sessionID string) (*orders.VerifyResult, error)
	ProcessGatewayNotification(ctx context.Context, paymentID string) error
	GetOrder(ctx context.Context, orderNumber, userID string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error)
	UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) (*domain.Order, error)
	CancelSubscription(ctx context.Context, orderNumber, userID string) (*domain.Order, error)
	SubscriptionStatus(ctx context.Context, orderNumber, userID string) (bool, *domain.Order, error)
}

// Handler contains the HTTP handlers for the order API.
type Handler struct {
	svc           OrderService
	validator     domain.WebhookValidator
	webhookSecret string
	log           *zap.SugaredLogger
}

// NewHandler creates a new API handler.
func NewHandler(svc OrderService, validator domain.WebhookValidator, webhookSecret string, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		svc:           svc,
		validator:     validator,
		webhookSecret: webhookSecret,
		log:           logger,
	}
}

// CheckoutRequest represents the JSON body for the checkout endpoint.
type CheckoutRequest struct {
	PackageID string `json:"package_id" binding:"required"`
	Customer  struct {
		FullName string `json:"full_name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Phone    string `json:"phone"`
		Country  string `json:"country"`
		Address  string `json:"address"`
		City     string `json:"city"`
		ZipCode  string `json:"zip_code"`
	} `json:"customer" binding:"required"`
}

// CheckoutResponse represents the response from the checkout endpoint.
type CheckoutResponse struct {
	Success     bool   `json:"success"`
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
	OrderNumber string `json:"order_number"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// CreateCheckout handles POST /api/v1/payments/checkout.
// Creates a gateway checkout transaction plus a pending order and returns
// the redirect URL.
func (h *Handler) CreateCheckout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	customer := domain.CustomerInfo{
		FullName: req.Customer.FullName,
		Email:    req.Customer.Email,
		Phone:    req.Customer.Phone,
		Country:  req.Customer.Country,
		Address:  req.Customer.Address,
		City:     req.Customer.City,
		ZipCode:  req.Customer.ZipCode,
	}

	result, err := h.svc.StartCheckout(c.Request.Context(), userID(c), req.PackageID, customer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{
		Success:     true,
		CheckoutURL: result.CheckoutURL,
		SessionID:   result.SessionID,
		OrderNumber: result.OrderNumber,
	})
}

// VerifyPayment handles GET /api/v1/payments/verify?session_id=...
// Reconciles the order against the gateway's payment state for the session.
func (h *Handler) VerifyPayment(c *gin.Context) {
	result, err := h.svc.VerifyPayment(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"paid":    result.Paid,
		"order":   result.Order,
	})
}

// GetOrder handles GET /api/v1/orders/:number.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("number"), userID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// ListMyOrders handles GET /api/v1/orders for the calling user.
func (h *Handler) ListMyOrders(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   "X-User-ID header required",
			Code:    "UNAUTHORIZED",
		})
		return
	}

	filter := listFilter(c)
	filter.UserID = uid
	h.list(c, filter)
}

// ListAllOrders handles GET /api/v1/admin/orders (admin-only).
func (h *Handler) ListAllOrders(c *gin.Context) {
	h.list(c, listFilter(c))
}

func (h *Handler) list(c *gin.Context, filter domain.OrderFilter) {
	list, total, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  list,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

// UpdateStatusRequest represents the JSON body for the admin status update.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /api/v1/admin/orders/:number/status (admin-only).
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	order, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("number"), domain.OrderStatus(req.Status))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// CancelSubscription handles POST /api/v1/orders/:number/cancel.
func (h *Handler) CancelSubscription(c *gin.Context) {
	order, err := h.svc.CancelSubscription(c.Request.Context(), c.Param("number"), userID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// SubscriptionStatus handles GET /api/v1/orders/:number/subscription.
func (h *Handler) SubscriptionStatus(c *gin.Context) {
	active, order, err := h.svc.SubscriptionStatus(c.Request.Context(), c.Param("number"), userID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"active":   active,
		"status":   order.Status,
		"end_date": order.Subscription.EndDate,
	})
}

// WebhookRequest represents the JSON body from Mercado Pago webhooks.
type WebhookRequest struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
	LiveMode    bool   `json:"live_mode"`
	DateCreated string `json:"date_created"`
}

// HandleWebhook handles POST /webhook.
// Receives notifications from Mercado Pago. The signature is verified here,
// at the transport boundary, before anything reaches the reconciler; a
// processing failure is still acknowledged with 200 so the gateway does not
// storm us with redeliveries.
func (h *Handler) HandleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Mercado Pago might send different formats, log and accept
		h.log.Infof("Webhook parsing error: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	if h.webhookSecret != "" {
		xSignature := c.GetHeader("x-signature")
		xRequestID := c.GetHeader("x-request-id")
		if !h.validator.ValidateSignature(xSignature, xRequestID, req.Data.ID, h.webhookSecret) {
			h.log.Infof("Webhook signature validation failed for payment %s", req.Data.ID)
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "invalid webhook signature",
				Code:    "INVALID_SIGNATURE",
			})
			return
		}
	}

	// Only payment notifications carry reconcilable state
	if req.Type != "payment" {
		h.log.Infof("Ignoring webhook type: %s", req.Type)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.svc.ProcessGatewayNotification(c.Request.Context(), req.Data.ID); err != nil {
		h.log.Infof("Webhook processing error for payment %s: %v", req.Data.ID, err)
		// Still return 200 to prevent MP from retrying
		c.JSON(http.StatusOK, gin.H{"status": "processed_with_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "fitstack-orders",
	})
}

// userID extracts the authenticated user from the X-User-ID header, set by
// the upstream gateway after JWT validation. Empty for guest requests.
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// listFilter builds an order filter from list query parameters.
func listFilter(c *gin.Context) domain.OrderFilter {
	var filter domain.OrderFilter
	filter.Status = domain.OrderStatus(c.Query("status"))
	filter.PaymentStatus = domain.PaymentStatus(c.Query("payment_status"))
	filter.Search = c.Query("search")
	filter.Page = intQuery(c, "page")
	filter.Limit = intQuery(c, "limit")
	return filter
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

// handleServiceError maps domain errors to HTTP responses.
func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var orderErr *domain.OrderError
	if errors.As(err, &orderErr) {
		statusCode := http.StatusInternalServerError

		switch {
		case errors.Is(orderErr.Err, domain.ErrOrderNotFound),
			errors.Is(orderErr.Err, domain.ErrPackageNotFound):
			statusCode = http.StatusNotFound
		case errors.Is(orderErr.Err, domain.ErrInvalidOrder),
			errors.Is(orderErr.Err, domain.ErrInvalidStatus),
			errors.Is(orderErr.Err, domain.ErrInvalidPrice):
			statusCode = http.StatusBadRequest
		case errors.Is(orderErr.Err, domain.ErrPackageInactive):
			statusCode = http.StatusForbidden
		case errors.Is(orderErr.Err, domain.ErrAlreadyCancelled):
			statusCode = http.StatusConflict
		case errors.Is(orderErr.Err, domain.ErrPaymentGatewayError),
			errors.Is(orderErr.Err, domain.ErrCatalogAPIError):
			statusCode = http.StatusBadGateway
		case errors.Is(orderErr.Err, domain.ErrStoreUnavailable):
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, ErrorResponse{
			Success: false,
			Error:   orderErr.Message,
			Code:    orderErr.Code,
		})
		return
	}

	h.log.Infof("Unhandled service error: %v", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   "Internal server error",
		Code:    "INTERNAL_ERROR",
	})
}
