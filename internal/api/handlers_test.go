package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitstack/fitstack-orders/internal/domain"
	"github.com/fitstack/fitstack-orders/internal/orders"
)

type stubService struct {
	checkoutResult *orders.CheckoutResult
	checkoutErr    error
	processErr     error
	processedIDs   []string
	getOrderErr    error
	order          *domain.Order
	cancelErr      error
	listUserID     string
}

func (s *stubService) StartCheckout(_ context.Context, _, _ string, _ domain.CustomerInfo) (*orders.CheckoutResult, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return s.checkoutResult, nil
}

func (s *stubService) VerifyPayment(_ context.Context, _ string) (*orders.VerifyResult, error) {
	return &orders.VerifyResult{Paid: true, Order: s.order}, nil
}

func (s *stubService) ProcessGatewayNotification(_ context.Context, paymentID string) error {
	s.processedIDs = append(s.processedIDs, paymentID)
	return s.processErr
}

func (s *stubService) GetOrder(_ context.Context, _, _ string) (*domain.Order, error) {
	if s.getOrderErr != nil {
		return nil, s.getOrderErr
	}
	return s.order, nil
}

func (s *stubService) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	s.listUserID = filter.UserID
	return []domain.Order{}, 0, nil
}

func (s *stubService) UpdateStatus(_ context.Context, _ string, _ domain.OrderStatus) (*domain.Order, error) {
	return s.order, nil
}

func (s *stubService) CancelSubscription(_ context.Context, _, _ string) (*domain.Order, error) {
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return s.order, nil
}

func (s *stubService) SubscriptionStatus(_ context.Context, _, _ string) (bool, *domain.Order, error) {
	return true, s.order, nil
}

type stubValidator struct {
	valid bool
}

func (v *stubValidator) ValidateSignature(_, _, _, _ string) bool {
	return v.valid
}

func newTestRouter(svc *stubService, validator domain.WebhookValidator, webhookSecret, adminKey string) *gin.Engine {
	handler := NewHandler(svc, validator, webhookSecret, zap.NewNop().Sugar())
	return SetupRouter(handler, gin.TestMode, adminKey)
}

func doJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateCheckoutReturnsRedirect(t *testing.T) {
	svc := &stubService{checkoutResult: &orders.CheckoutResult{
		CheckoutURL: "https://mp.example/init/abc",
		SessionID:   "pref-123",
		OrderNumber: "PKG26080001",
	}}
	router := newTestRouter(svc, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodPost, "/api/v1/payments/checkout", gin.H{
		"package_id": "pkg-1",
		"customer":   gin.H{"full_name": "Ayesha Khan", "email": "ayesha@example.com"},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://mp.example/init/abc", resp.CheckoutURL)
	assert.Equal(t, "PKG26080001", resp.OrderNumber)
}

func TestCreateCheckoutRejectsInvalidBody(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodPost, "/api/v1/payments/checkout", gin.H{
		"package_id": "pkg-1",
		"customer":   gin.H{"full_name": "Ayesha Khan", "email": "not-an-email"},
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestServiceErrorsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", domain.NewOrderError(domain.ErrOrderNotFound, "not found", "ORDER_NOT_FOUND"), http.StatusNotFound},
		{"package inactive", domain.NewOrderError(domain.ErrPackageInactive, "inactive", "PACKAGE_INACTIVE"), http.StatusForbidden},
		{"gateway error", domain.NewOrderError(domain.ErrPaymentGatewayError, "gateway down", "GATEWAY_ERROR"), http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{getOrderErr: tc.err, checkoutErr: tc.err}
			router := newTestRouter(svc, &stubValidator{valid: true}, "", "")

			rec := doJSON(router, http.MethodGet, "/api/v1/orders/PKG26080001", nil, nil)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCancelConflictWhenAlreadyCancelled(t *testing.T) {
	svc := &stubService{cancelErr: domain.NewOrderError(domain.ErrAlreadyCancelled, "already cancelled", "ALREADY_CANCELLED")}
	router := newTestRouter(svc, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodPost, "/api/v1/orders/PKG26080001/cancel", nil, map[string]string{"X-User-ID": "user-1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListMyOrdersRequiresUser(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodGet, "/api/v1/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListMyOrdersScopesToCaller(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodGet, "/api/v1/orders?page=2&limit=5", nil, map[string]string{"X-User-ID": "user-7"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-7", svc.listUserID)
}

func TestAdminRoutesRequireAPIKey(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubValidator{valid: true}, "", "admin-secret")

	rec := doJSON(router, http.MethodGet, "/api/v1/admin/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/admin/orders", nil, map[string]string{"X-Admin-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/admin/orders", nil, map[string]string{"X-Admin-API-Key": "admin-secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookProcessesPaymentNotification(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodPost, "/webhook", gin.H{
		"id":   12345,
		"type": "payment",
		"data": gin.H{"id": "987654"},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processed")
	assert.Equal(t, []string{"987654"}, svc.processedIDs)
}

func TestWebhookIgnoresOtherTypes(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodPost, "/webhook", gin.H{
		"id":   12345,
		"type": "merchant_order",
		"data": gin.H{"id": "111"},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
	assert.Empty(t, svc.processedIDs)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, &stubValidator{valid: false}, "secret", "")

	rec := doJSON(router, http.MethodPost, "/webhook", gin.H{
		"id":   12345,
		"type": "payment",
		"data": gin.H{"id": "987654"},
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.processedIDs)
}

func TestWebhookAcksProcessingFailure(t *testing.T) {
	svc := &stubService{processErr: domain.NewOrderError(domain.ErrStoreUnavailable, "db down", "STORE_UNAVAILABLE")}
	router := newTestRouter(svc, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodPost, "/webhook", gin.H{
		"id":   12345,
		"type": "payment",
		"data": gin.H{"id": "987654"},
	}, nil)

	// The gateway retries on non-2xx; failures are logged, not surfaced.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processed_with_error")
}

func TestWebhookAcksUnparsableBody(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubValidator{valid: true}, "", "")

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "received")
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubValidator{valid: true}, "", "")

	rec := doJSON(router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fitstack-orders")
}
