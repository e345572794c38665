package billing

import (
	"context"
	"time"

	"github.com/dmitrymomot/chatbill/pkg/subscription"
)

// ProfileStore persists subscription profiles. GetProfile returns
// ErrProfileNotFound when no row exists for the user.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*subscription.Profile, error)
	// EnsureProfile returns the profile for userID, creating an empty
	// free-tier row first if none exists.
	EnsureProfile(ctx context.Context, userID string) (*subscription.Profile, error)
	UpdateProfile(ctx context.Context, p *subscription.Profile) error
}

// OrderStore persists orders. Orders are looked up by the gateway-side id
// because that is the only identifier webhook and checkout payloads carry.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrderByRazorpayID(ctx context.Context, razorpayOrderID string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) error
	// CountRecentOrders returns how many orders the user created since the
	// given time, feeding the suspicious-activity tracker.
	CountRecentOrders(ctx context.Context, userID string, since time.Time) (int, error)
}

// PaymentStore records applied payments. InsertPayment must be atomic with
// respect to the gateway payment id: it reports false, without error, when
// a row with the same RazorpayPaymentID already exists. That single
// guarantee is what makes webhook replay and concurrent delivery safe.
type PaymentStore interface {
	InsertPayment(ctx context.Context, p *Payment) (inserted bool, err error)
	CountRecentFailures(ctx context.Context, userID string, since time.Time) (int, error)
}

// Store bundles the persistence surfaces the service needs.
type Store interface {
	ProfileStore
	OrderStore
	PaymentStore
}
