// Package mercadopago implements the PaymentGateway interface using the Mercado Pago SDK.
package mercadopago

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// Adapter implements the domain.PaymentGateway interface using Mercado Pago SDK.
type Adapter struct {
	cfg           *config.Config
	publicBaseURL string
	apiBaseURL    string
}

// NewAdapter creates a new Mercado Pago adapter. The base URLs are used to
// build the customer-facing back URLs and the webhook notification URL.
func NewAdapter(accessToken, publicBaseURL, apiBaseURL string) (*Adapter, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP config: %w", err)
	}
	return &Adapter{
		cfg:           cfg,
		publicBaseURL: publicBaseURL,
		apiBaseURL:    apiBaseURL,
	}, nil
}

// CreateCheckoutTransaction creates a Checkout Pro preference.
// The order number travels as the external reference so webhook notifications
// and payment searches can be correlated back to the order.
func (a *Adapter) CreateCheckoutTransaction(ctx context.Context, req domain.CheckoutTransactionRequest) (*domain.CheckoutTransaction, error) {
	client := preference.NewClient(a.cfg)

	metadata := make(map[string]any, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	request := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:       req.Title,
				Description: req.Description,
				Quantity:    1,
				UnitPrice:   float64(req.AmountMinor) / 100,
				CurrencyID:  req.Currency,
			},
		},
		Payer: &preference.PayerRequest{
			Email: req.CustomerEmail,
		},
		ExternalReference: req.OrderNumber,
		Metadata:          metadata,
		AutoReturn:        "approved",
		BackURLs: &preference.BackURLsRequest{
			Success: fmt.Sprintf("%s/payment/success", a.publicBaseURL),
			Failure: fmt.Sprintf("%s/payment/failure", a.publicBaseURL),
			Pending: fmt.Sprintf("%s/payment/pending", a.publicBaseURL),
		},
		NotificationURL: fmt.Sprintf("%s/webhook", a.apiBaseURL),
	}

	result, err := client.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create preference: %w", err)
	}

	return &domain.CheckoutTransaction{
		SessionID:   result.ID,
		RedirectURL: result.InitPoint,
	}, nil
}

// RetrieveTransaction fetches the authoritative payment state for a checkout
// session by searching payments that carry the order's external reference.
// A session with no approved payment is reported as unpaid.
func (a *Adapter) RetrieveTransaction(ctx context.Context, sessionID, correlationToken string) (*domain.TransactionState, error) {
	client := payment.NewClient(a.cfg)

	result, err := client.Search(ctx, payment.SearchRequest{
		Filters: map[string]string{
			"external_reference": correlationToken,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search payments for %s: %w", correlationToken, err)
	}

	state := &domain.TransactionState{Status: "unpaid"}
	for _, p := range result.Results {
		if p.Status != "approved" {
			continue
		}
		state.Paid = true
		state.Status = p.Status
		state.TransactionID = strconv.Itoa(p.ID)
		state.PaidAt = p.DateApproved
		break
	}
	return state, nil
}

// RetrievePayment retrieves payment information from Mercado Pago.
// Used when processing webhooks to get the current payment status.
func (a *Adapter) RetrievePayment(ctx context.Context, paymentID string) (*domain.PaymentInfo, error) {
	client := payment.NewClient(a.cfg)

	// SDK uses int for payment IDs
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment ID format: %w", err)
	}

	result, err := client.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment info: %w", err)
	}

	approvedAt := result.DateApproved
	if approvedAt.IsZero() {
		approvedAt = time.Now()
	}

	return &domain.PaymentInfo{
		PaymentID:    paymentID,
		Status:       result.Status,
		StatusDetail: result.StatusDetail,
		ExternalRef:  result.ExternalReference,
		Amount:       result.TransactionAmount,
		PayerEmail:   result.Payer.Email,
		ApprovedAt:   approvedAt,
	}, nil
}
