package billing

import (
	"time"

	"github.com/dmitrymomot/chatbill/pkg/subscription"
)

// OrderStatus tracks an order through its lifecycle. Orders start as
// created and move to paid exactly once; failed and expired are terminal.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
	OrderStatusExpired OrderStatus = "expired"
)

// orderTTL bounds how long a created order may be completed. Orders older
// than this are rejected at verification time regardless of stored status.
const orderTTL = 24 * time.Hour

// Order is a pending purchase created against the payment gateway before
// the user is redirected to checkout. RazorpayOrderID is the gateway-side
// identifier the checkout signature is computed over.
type Order struct {
	ID              string
	UserID          string
	PlanID          string
	RazorpayOrderID string
	Amount          int64
	Currency        string
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Expired reports whether the order's completion window has passed.
func (o Order) Expired(now time.Time) bool {
	return now.Sub(o.CreatedAt) > orderTTL
}

// Payment is an append-only audit row recorded when a payment event is
// applied. The gateway payment id carries a unique constraint, which is
// what makes event application idempotent under concurrent delivery.
type Payment struct {
	ID                string
	UserID            string
	OrderID           string
	RazorpayPaymentID string
	RazorpayOrderID   string
	Amount            int64
	Currency          string
	Status            string
	CreatedAt         time.Time
}

// CreateOrderRequest is the validated input to Service.CreateOrder.
type CreateOrderRequest struct {
	PlanID string `json:"planId" validate:"required"`
}

// VerifyPaymentRequest carries the checkout callback fields the client
// receives from the gateway after a successful payment.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
}

// CreateOrderResponse is returned to the client to open the gateway's
// checkout widget. KeyID is the publishable key, never the secret.
type CreateOrderResponse struct {
	OrderID         string `json:"orderId"`
	RazorpayOrderID string `json:"razorpayOrderId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	KeyID           string `json:"keyId"`
	PlanID          string `json:"planId"`
	PlanName        string `json:"planName"`
}

// AccessResponse is the subscription snapshot returned to clients.
type AccessResponse struct {
	HasAccess     bool                      `json:"hasAccess"`
	Status        subscription.Status       `json:"status"`
	Tier          subscription.Tier         `json:"tier"`
	DaysRemaining int                       `json:"daysRemaining"`
	Restrictions  subscription.Restrictions `json:"restrictions"`
}
