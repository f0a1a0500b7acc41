package domain

import "errors"

// Domain errors represent business rule violations.
// These are used to communicate specific error conditions from the domain layer.
var (
	// ErrPackageNotFound is returned when a catalog package cannot be found.
	ErrPackageNotFound = errors.New("package not found")

	// ErrPackageInactive is returned when attempting to check out a package
	// that is no longer offered.
	ErrPackageInactive = errors.New("package is not active")

	// ErrInvalidPrice is returned when the catalog display price cannot be
	// parsed into a positive amount.
	ErrInvalidPrice = errors.New("invalid package price")

	// ErrOrderNotFound is returned when an order cannot be found.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidOrder is returned when the checkout input data is invalid.
	ErrInvalidOrder = errors.New("invalid order data")

	// ErrInvalidStatus is returned for an unrecognized order status value.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrAlreadyCancelled is returned when cancelling an order whose
	// subscription is already cancelled.
	ErrAlreadyCancelled = errors.New("subscription already cancelled")

	// ErrPaymentGatewayError is returned when there's an error communicating
	// with Mercado Pago.
	ErrPaymentGatewayError = errors.New("payment gateway error")

	// ErrWebhookValidationFailed is returned when webhook signature validation fails.
	ErrWebhookValidationFailed = errors.New("webhook validation failed")

	// ErrCatalogAPIError is returned when there's an error communicating with
	// the FitStack Core catalog.
	ErrCatalogAPIError = errors.New("error communicating with FitStack Core")

	// ErrStoreUnavailable is returned when the order store cannot complete a
	// read or write. Callers may retry; the service never retries internally.
	ErrStoreUnavailable = errors.New("order store unavailable")
)

// OrderError wraps a domain error with additional context.
type OrderError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *OrderError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with OrderError.
func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError with the given error and message.
func NewOrderError(err error, message, code string) *OrderError {
	return &OrderError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
