package domain

import (
	"context"
	"time"
)

// CatalogRepository defines the interface for resolving catalog packages.
// This is a "port" in hexagonal architecture - the domain defines what it needs,
// and infrastructure provides the implementation.
type CatalogRepository interface {
	// GetPackage retrieves a catalog package by its id.
	// Returns ErrPackageNotFound if the package doesn't exist.
	GetPackage(ctx context.Context, packageID string) (*Package, error)
}

// OrderRepository is the persistence port for orders. It is the sole point of
// shared mutable state: each order's transitions rely on the store's
// single-row read-modify-write atomicity.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *Order) error

	// GetByNumber retrieves an order by its order number.
	// Returns ErrOrderNotFound if absent.
	GetByNumber(ctx context.Context, number string) (*Order, error)

	// GetBySessionID retrieves an order by the gateway checkout session id.
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)

	// GetByPaymentIntentID retrieves an order by the gateway payment-intent id.
	GetByPaymentIntentID(ctx context.Context, intentID string) (*Order, error)

	// List returns the orders matching the filter plus the total match count
	// before pagination.
	List(ctx context.Context, filter OrderFilter) ([]Order, int64, error)

	// Save persists mutations to an existing order.
	Save(ctx context.Context, order *Order) error

	// NextOrderNumber atomically reserves the next order number for the
	// calendar month containing now.
	NextOrderNumber(ctx context.Context, now time.Time) (string, error)
}

// OrderFilter selects and paginates orders for listing.
type OrderFilter struct {
	UserID        string
	Status        OrderStatus
	PaymentStatus PaymentStatus

	// Search matches order number, customer email, or customer name.
	Search string

	Page  int
	Limit int
}

// Offset normalizes the pagination values and returns the row offset and
// page size. Limits are capped at 100; defaults are page 1, 20 per page.
func (f *OrderFilter) Offset() (int, int) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return (f.Page - 1) * f.Limit, f.Limit
}

// PaymentGateway defines the interface for interacting with the payment provider.
// This abstracts away the details of Mercado Pago SDK usage.
type PaymentGateway interface {
	// CreateCheckoutTransaction creates a checkout transaction (a Checkout
	// Pro preference) and returns the session id plus the redirect URL for
	// the customer to complete payment.
	CreateCheckoutTransaction(ctx context.Context, req CheckoutTransactionRequest) (*CheckoutTransaction, error)

	// RetrieveTransaction fetches the authoritative payment state for a
	// checkout session. The correlation token (order number) is used to
	// locate payments belonging to the session.
	RetrieveTransaction(ctx context.Context, sessionID, correlationToken string) (*TransactionState, error)

	// RetrievePayment fetches payment details by gateway payment id.
	// Used to process webhook callbacks.
	RetrievePayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
}

// ActivationNotifier informs the FitStack Core backend about subscription
// changes so the registration store stays in sync.
type ActivationNotifier interface {
	// NotifyActivated reports that an order's subscription became active.
	NotifyActivated(ctx context.Context, order *Order) error
}

// ReconcileLocker serializes reconciliation attempts for a single order.
// A webhook delivery racing a synchronous verify call on the same session
// must not interleave read-modify-write cycles.
type ReconcileLocker interface {
	// Acquire takes the lock for the given key. Returns false when another
	// reconciliation currently holds it.
	Acquire(ctx context.Context, key string) (bool, error)

	// Release frees the lock for the given key.
	Release(ctx context.Context, key string) error
}

// WebhookValidator validates Mercado Pago webhook signatures.
type WebhookValidator interface {
	// ValidateSignature validates the x-signature header from Mercado Pago.
	ValidateSignature(xSignature, xRequestID, dataID, secret string) bool
}
