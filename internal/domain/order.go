// Package domain contains the core business entities and interfaces for the
// package-order service. This is the innermost layer of the Clean Architecture -
// it has no dependencies on external frameworks or infrastructure.
package domain

import (
	"fmt"
	"regexp"
	"time"
)

// OrderStatus describes the overall lifecycle state of an order.
// It is distinct from the payment status: a paid order can be
// administratively suspended without touching its payment record.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusSuspended OrderStatus = "suspended"
)

// ValidOrderStatus reports whether s is a recognized overall status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusActive, OrderStatusExpired,
		OrderStatusCancelled, OrderStatusSuspended:
		return true
	}
	return false
}

// PaymentStatus describes the state of the payment sub-record.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// PackageSnapshot is the denormalized copy of the catalog entry taken at
// checkout time. It never changes after order creation, even if the source
// package is edited or deleted later.
type PackageSnapshot struct {
	Name     string   `json:"name"`
	Price    string   `json:"price"` // display price as shown in the catalog, e.g. "13,000"
	Currency string   `json:"currency" gorm:"size:3"`
	Period   string   `json:"period" gorm:"size:50"` // billing cadence text, e.g. "3 months"
	Features []string `json:"features" gorm:"serializer:json"`
}

// CustomerInfo is captured once at checkout and immutable afterward.
type CustomerInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Address  string `json:"address"`
	City     string `json:"city"`
	ZipCode  string `json:"zip_code"`
}

// PaymentDetail is the payment sub-record of an order.
type PaymentDetail struct {
	Method          string        `json:"method" gorm:"size:30"` // e.g. "mercadopago"
	SessionID       string        `json:"session_id" gorm:"index;size:100"`
	IntentID        string        `json:"intent_id" gorm:"index;size:100"` // gateway payment-intent id
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency" gorm:"size:3"`
	Status          PaymentStatus `json:"status" gorm:"size:20;index"`
	PaidAt          *time.Time    `json:"paid_at"`
	TransactionID   string        `json:"transaction_id" gorm:"size:100"`
}

// SubscriptionDetail is the subscription sub-record of an order.
type SubscriptionDetail struct {
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    bool       `json:"is_active"`
	AutoRenew   bool       `json:"auto_renew"`
	RenewalDate *time.Time `json:"renewal_date"`
}

// Order is the central entity: one purchase attempt for a catalog package and
// the subscription that results from it. Orders are never physically deleted
// in normal operation; terminal states are soft.
type Order struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// OrderNumber is immutable once assigned and globally unique.
	OrderNumber string `json:"order_number" gorm:"uniqueIndex;size:16"`

	// UserID is empty for guest checkout.
	UserID    string `json:"user_id" gorm:"index;size:64"`
	PackageID string `json:"package_id" gorm:"index;size:64"`

	Package      PackageSnapshot    `json:"package" gorm:"embedded;embeddedPrefix:package_"`
	Customer     CustomerInfo       `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Payment      PaymentDetail      `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	Subscription SubscriptionDetail `json:"subscription" gorm:"embedded;embeddedPrefix:subscription_"`

	Status OrderStatus `json:"status" gorm:"size:20;index"`

	Notes    string            `json:"notes"`
	Metadata map[string]string `json:"metadata" gorm:"serializer:json"`
}

// IsSubscriptionActive reports whether the subscription is usable right now.
// All four conditions must hold simultaneously: the active flag is set, the
// end date has not passed (or is unset), the payment is paid, and the order
// overall status is active.
func (o *Order) IsSubscriptionActive(now time.Time) bool {
	if !o.Subscription.IsActive {
		return false
	}
	if o.Subscription.EndDate != nil && !now.Before(*o.Subscription.EndDate) {
		return false
	}
	if o.Payment.Status != PaymentStatusPaid {
		return false
	}
	return o.Status == OrderStatusActive
}

// orderNumberPattern matches PKG + YYMM + 4-digit sequence.
var orderNumberPattern = regexp.MustCompile(`^PKG\d{2}\d{2}\d{4}$`)

// ValidOrderNumber reports whether s is a syntactically valid order number.
func ValidOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}

// OrderNumberPrefix returns the year+month prefix for order numbers issued
// at time t, e.g. "PKG2608" for August 2026. The sequence resets with every
// new prefix.
func OrderNumberPrefix(t time.Time) string {
	return "PKG" + t.Format("0601")
}

// FormatOrderNumber builds a full order number from a monthly prefix and a
// sequence value, zero-padding the sequence to four digits.
func FormatOrderNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}
