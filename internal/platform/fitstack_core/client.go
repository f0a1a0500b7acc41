// Package fitstackcore implements the CatalogRepository and ActivationNotifier
// interfaces by communicating with the FitStack Core API.
package fitstackcore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// Client implements domain.CatalogRepository and domain.ActivationNotifier
// by making HTTP requests to the FitStack Core API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new FitStack Core client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// packageResponse represents the JSON response from the Core catalog API.
type packageResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Currency string   `json:"currency"`
	Period   string   `json:"period"`
	Features []string `json:"features"`
	IsActive bool     `json:"is_active"`
}

// GetPackage fetches a catalog package from FitStack Core.
func (c *Client) GetPackage(ctx context.Context, packageID string) (*domain.Package, error) {
	url := fmt.Sprintf("%s/api/internal/packages/%s/", c.baseURL, packageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Add internal API authentication
	req.Header.Set("X-Internal-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success - continue
	case http.StatusNotFound:
		return nil, domain.ErrPackageNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("authentication failed with Core API")
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var pkgResp packageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pkgResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &domain.Package{
		ID:       pkgResp.ID,
		Name:     pkgResp.Name,
		Price:    pkgResp.Price,
		Currency: pkgResp.Currency,
		Period:   pkgResp.Period,
		Features: pkgResp.Features,
		IsActive: pkgResp.IsActive,
	}, nil
}

// activationRequest represents the JSON request notifying Core of an
// activated subscription.
type activationRequest struct {
	OrderNumber string  `json:"order_number"`
	UserID      string  `json:"user_id,omitempty"`
	PackageID   string  `json:"package_id"`
	PackageName string  `json:"package_name"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PayerEmail  string  `json:"payer_email"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

// NotifyActivated reports an activated subscription to FitStack Core.
// The Core will handle updating the registration store, sending receipts, etc.
func (c *Client) NotifyActivated(ctx context.Context, order *domain.Order) error {
	url := fmt.Sprintf("%s/api/internal/orders/activated/", c.baseURL)

	payload := activationRequest{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		PackageID:   order.PackageID,
		PackageName: order.Package.Name,
		Amount:      order.Payment.Amount,
		Currency:    order.Payment.Currency,
		PayerEmail:  order.Customer.Email,
	}
	if order.Subscription.StartDate != nil {
		payload.StartDate = order.Subscription.StartDate.Format(time.RFC3339)
	}
	if order.Subscription.EndDate != nil {
		payload.EndDate = order.Subscription.EndDate.Format(time.RFC3339)
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Internal-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Core API returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
