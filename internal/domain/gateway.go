package domain

import "time"

// CheckoutTransactionRequest describes the checkout transaction the gateway
// should create for a new order. AmountMinor is the line-item amount in minor
// units (e.g. cents); the order number travels as the external reference so a
// later payment event can be correlated back to the order.
type CheckoutTransactionRequest struct {
	OrderNumber   string
	Title         string
	Description   string
	AmountMinor   int64
	Currency      string
	CustomerEmail string

	// Metadata carries the package/customer context as opaque key-value
	// pairs, retrievable when the payment is reconciled.
	Metadata map[string]string
}

// CheckoutTransaction is the gateway's representation of a pending payment
// attempt: the session id (a Checkout Pro preference id) and the URL the
// customer is redirected to.
type CheckoutTransaction struct {
	SessionID   string
	RedirectURL string
}

// TransactionState is the gateway's authoritative view of a checkout
// transaction, fetched during synchronous verification.
type TransactionState struct {
	Paid          bool
	TransactionID string
	Status        string
	PaidAt        time.Time
}

// EventKind is the closed set of gateway notification kinds the reconciler
// understands. Anything else is logged and ignored.
type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout.completed"
	EventPaymentSucceeded  EventKind = "payment.succeeded"
	EventPaymentFailed     EventKind = "payment.failed"
)

// GatewayEvent is a normalized asynchronous payment notification. The order
// is located by whichever correlation id is present: payment-intent id,
// session id, or the order-number correlation token.
type GatewayEvent struct {
	Kind             EventKind
	SessionID        string
	PaymentIntentID  string
	CorrelationToken string
	TransactionID    string
	OccurredAt       time.Time
}

// PaymentInfo contains the details of a gateway payment fetched while
// processing a webhook notification.
type PaymentInfo struct {
	PaymentID    string
	Status       string
	StatusDetail string
	ExternalRef  string
	Amount       float64
	PayerEmail   string
	ApprovedAt   time.Time
}
