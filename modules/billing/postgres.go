package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/chatbill/pkg/pg"
	"github.com/dmitrymomot/chatbill/pkg/subscription"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const profileColumns = `user_id, status, tier, trial_ends_at, subscription_ends_at,
	has_used_trial, razorpay_payment_id, razorpay_order_id, updated_at`

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*subscription.Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM subscription_profiles WHERE user_id = $1`, userID)

	var p subscription.Profile
	err := row.Scan(&p.ID, &p.Status, &p.Tier, &p.TrialEndsAt, &p.SubscriptionEndsAt,
		&p.HasUsedTrial, &p.RazorpayPaymentID, &p.RazorpayOrderID, &p.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) EnsureProfile(ctx context.Context, userID string) (*subscription.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO subscription_profiles (user_id, status, tier, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING `+profileColumns,
		userID, subscription.StatusNone, subscription.TierFree)

	var p subscription.Profile
	if err := row.Scan(&p.ID, &p.Status, &p.Tier, &p.TrialEndsAt, &p.SubscriptionEndsAt,
		&p.HasUsedTrial, &p.RazorpayPaymentID, &p.RazorpayOrderID, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, p *subscription.Profile) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscription_profiles
		SET status = $2, tier = $3, trial_ends_at = $4, subscription_ends_at = $5,
			has_used_trial = $6, razorpay_payment_id = $7, razorpay_order_id = $8,
			updated_at = now()
		WHERE user_id = $1`,
		p.ID, p.Status, p.Tier, p.TrialEndsAt, p.SubscriptionEndsAt,
		p.HasUsedTrial, p.RazorpayPaymentID, p.RazorpayOrderID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o *Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (id, user_id, plan_id, razorpay_order_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		o.ID, o.UserID, o.PlanID, o.RazorpayOrderID, o.Amount, o.Currency, o.Status, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrderByRazorpayID(ctx context.Context, razorpayOrderID string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, plan_id, razorpay_order_id, amount, currency, status, created_at, updated_at
		FROM orders WHERE razorpay_order_id = $1`, razorpayOrderID)

	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.PlanID, &o.RazorpayOrderID,
		&o.Amount, &o.Currency, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *PostgresStore) CountRecentOrders(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM orders WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent orders: %w", err)
	}
	return n, nil
}

// InsertPayment relies on the unique index over razorpay_payment_id: the
// ON CONFLICT DO NOTHING makes the duplicate path race-free, so two
// concurrent deliveries of the same payment produce exactly one row.
func (s *PostgresStore) InsertPayment(ctx context.Context, p *Payment) (bool, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO payments (id, user_id, order_id, razorpay_payment_id, razorpay_order_id, amount, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (razorpay_payment_id) DO NOTHING`,
		p.ID, p.UserID, p.OrderID, p.RazorpayPaymentID, p.RazorpayOrderID,
		p.Amount, p.Currency, p.Status, p.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert payment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) CountRecentFailures(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM payments WHERE user_id = $1 AND status = 'failed' AND created_at >= $2`,
		userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent failures: %w", err)
	}
	return n, nil
}
