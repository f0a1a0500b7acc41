package orders

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// CheckoutResult is returned after a checkout transaction has been created.
type CheckoutResult struct {
	CheckoutURL string
	SessionID   string
	OrderNumber string
}

// StartCheckout handles the checkout flow:
//  1. Resolves the package from the catalog and checks it is active
//  2. Parses the display price and normalizes the currency
//  3. Reserves a fresh order number for the current month
//  4. Creates a checkout transaction in Mercado Pago
//  5. Persists a pending order with the package/customer snapshot
//
// If the gateway call fails no order is persisted. If persisting the order
// fails after the gateway transaction was created, the transaction is
// orphaned and must be reconciled or expired out-of-band; the service does
// not retry.
func (s *Service) StartCheckout(ctx context.Context, userID, packageID string, customer domain.CustomerInfo) (*CheckoutResult, error) {
	if packageID == "" {
		return nil, domain.NewOrderError(domain.ErrInvalidOrder,
			"package_id is required", "VALIDATION_ERROR")
	}
	if customer.Email == "" {
		return nil, domain.NewOrderError(domain.ErrInvalidOrder,
			"customer email is required", "VALIDATION_ERROR")
	}

	// Step 1: Resolve the package
	pkg, err := s.catalog.GetPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, domain.ErrPackageNotFound) {
			return nil, domain.NewOrderError(err,
				fmt.Sprintf("package '%s' not found", packageID),
				"PACKAGE_NOT_FOUND")
		}
		return nil, domain.NewOrderError(domain.ErrCatalogAPIError,
			"failed to fetch package from catalog",
			"CATALOG_ERROR")
	}
	if !pkg.IsActive {
		return nil, domain.NewOrderError(domain.ErrPackageInactive,
			fmt.Sprintf("package '%s' is not active", packageID),
			"PACKAGE_INACTIVE")
	}

	// Step 2: Parse price and currency
	amount, err := parsePrice(pkg.Price)
	if err != nil {
		s.log.Infof("Package %s has unparsable price %q", packageID, pkg.Price)
		return nil, domain.NewOrderError(domain.ErrInvalidPrice,
			fmt.Sprintf("package '%s' has an invalid price", packageID),
			"INVALID_PRICE")
	}
	currency := normalizeCurrency(pkg.Currency)

	// Step 3: Reserve an order number
	orderNumber, err := s.repo.NextOrderNumber(ctx, s.now())
	if err != nil {
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to reserve order number", "STORE_ERROR")
	}

	// Step 4: Create the gateway checkout transaction.
	// The order number travels as the external reference; the package and
	// customer context go along as metadata for later retrieval.
	txn, err := s.gateway.CreateCheckoutTransaction(ctx, domain.CheckoutTransactionRequest{
		OrderNumber:   orderNumber,
		Title:         pkg.Name,
		Description:   fmt.Sprintf("%s (%s)", pkg.Name, pkg.Period),
		AmountMinor:   int64(math.Round(amount * 100)),
		Currency:      currency,
		CustomerEmail: customer.Email,
		Metadata: map[string]string{
			"order_number": orderNumber,
			"package_id":   packageID,
			"package_name": pkg.Name,
			"user_id":      userID,
		},
	})
	if err != nil {
		s.log.Infof("Failed to create checkout transaction for package %s: %v", packageID, err)
		return nil, domain.NewOrderError(domain.ErrPaymentGatewayError,
			"failed to create checkout transaction",
			"GATEWAY_ERROR")
	}

	// Step 5: Persist the pending order with the denormalized snapshot
	order := &domain.Order{
		OrderNumber: orderNumber,
		UserID:      userID,
		PackageID:   packageID,
		Package: domain.PackageSnapshot{
			Name:     pkg.Name,
			Price:    pkg.Price,
			Currency: currency,
			Period:   pkg.Period,
			Features: pkg.Features,
		},
		Customer: customer,
		Payment: domain.PaymentDetail{
			Method:    "mercadopago",
			SessionID: txn.SessionID,
			Amount:    amount,
			Currency:  currency,
			Status:    domain.PaymentStatusPending,
		},
		Status: domain.OrderStatusPending,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		s.log.Errorf("Order %s not persisted after creating gateway session %s: %v",
			orderNumber, txn.SessionID, err)
		return nil, domain.NewOrderError(domain.ErrStoreUnavailable,
			"failed to persist order", "STORE_ERROR")
	}

	s.log.Infof("Created checkout %s for package %s, amount: %.2f %s",
		orderNumber, packageID, amount, currency)

	return &CheckoutResult{
		CheckoutURL: txn.RedirectURL,
		SessionID:   txn.SessionID,
		OrderNumber: orderNumber,
	}, nil
}
