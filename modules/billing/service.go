package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/chatbill/pkg/subscription"
	"github.com/dmitrymomot/chatbill/pkg/webhook"
)

// Service holds the billing use cases: order creation, payment
// verification, webhook-driven subscription transitions, trial grants,
// and access snapshots.
type Service struct {
	store    Store
	gateway  Gateway
	catalog  subscription.Catalog
	cfg      Config
	log      *slog.Logger
	activity *activityTracker
	now      func() time.Time
}

type ServiceOption func(*Service)

// WithClock injects the time source, used by tests to pin boundaries.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, gateway Gateway, catalog subscription.Catalog, cfg Config, log *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		gateway: gateway,
		catalog: catalog,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// The tracker shares the service clock, which options may have replaced.
	s.activity = newActivityTracker(store, store, log, s.now)
	return s
}

// CreateOrder opens a gateway order for the plan and records it locally.
// The user and plan ids travel in the gateway notes so webhook payloads
// can be tied back to the purchase without a lookup table on the gateway
// side.
func (s *Service) CreateOrder(ctx context.Context, userID, planID string) (*CreateOrderResponse, error) {
	plan, err := s.catalog.Get(planID)
	if err != nil {
		return nil, errors.Join(ErrInvalidPlan, err)
	}

	if _, err := s.store.EnsureProfile(ctx, userID); err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	gwOrder, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		Amount:   plan.Amount,
		Currency: plan.Currency,
		Receipt:  orderID,
		Notes:    map[string]string{"user_id": userID, "plan_id": plan.ID},
	})
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:              orderID,
		UserID:          userID,
		PlanID:          plan.ID,
		RazorpayOrderID: gwOrder.ID,
		Amount:          plan.Amount,
		Currency:        plan.Currency,
		Status:          OrderStatusCreated,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.activity.noteOrderCreated(ctx, userID)

	return &CreateOrderResponse{
		OrderID:         order.ID,
		RazorpayOrderID: order.RazorpayOrderID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		KeyID:           s.cfg.RazorpayKeyID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
	}, nil
}

// ValidateOrderSecurity runs the gate sequence guarding payment
// application. Gates run in a fixed order so logs attribute a rejection
// to the first violated rule: ownership, replay, expiry, amount.
// ownerID may be empty for webhook deliveries whose notes carry no user
// id; the ownership gate is skipped then, the remaining gates still run.
func (s *Service) ValidateOrderSecurity(ctx context.Context, order *Order, ownerID string, amount int64) error {
	if ownerID != "" && order.UserID != ownerID {
		s.securityEvent(ctx, "order_ownership_violation", order, ownerID)
		return ErrOrderOwnershipViolation
	}
	if order.Status == OrderStatusPaid {
		s.securityEvent(ctx, "order_already_processed", order, ownerID)
		return ErrOrderAlreadyProcessed
	}
	if order.Expired(s.now()) {
		s.securityEvent(ctx, "order_expired", order, ownerID)
		return ErrOrderExpired
	}
	if amount != order.Amount {
		s.log.WarnContext(ctx, "security event",
			slog.String("event", "amount_mismatch"),
			slog.String("order_id", order.ID),
			slog.Int64("expected_amount", order.Amount),
			slog.Int64("received_amount", amount))
		return ErrAmountMismatch
	}
	return nil
}

// lookupOrder fetches an order by its gateway id, logging the miss as a
// security event: payment references to orders this system never created
// are the same class of signal as the other gate violations.
func (s *Service) lookupOrder(ctx context.Context, razorpayOrderID, actor string) (*Order, error) {
	order, err := s.store.GetOrderByRazorpayID(ctx, razorpayOrderID)
	if errors.Is(err, ErrOrderNotFound) {
		s.log.WarnContext(ctx, "security event",
			slog.String("event", "order_not_found"),
			slog.String("razorpay_order_id", razorpayOrderID),
			slog.String("actor_user_id", actor))
	}
	return order, err
}

func (s *Service) securityEvent(ctx context.Context, event string, order *Order, actor string) {
	s.log.WarnContext(ctx, "security event",
		slog.String("event", event),
		slog.String("order_id", order.ID),
		slog.String("order_user_id", order.UserID),
		slog.String("actor_user_id", actor))
}

// VerifyPayment handles the checkout callback: the client posts the
// gateway's order id, payment id, and checkout signature after a
// successful payment. A valid signature plus passing gates activates the
// subscription immediately instead of waiting for the webhook; whichever
// path lands second becomes a no-op through the payments table.
func (s *Service) VerifyPayment(ctx context.Context, userID string, req VerifyPaymentRequest) (*subscription.Access, error) {
	if err := webhook.VerifyCheckoutSignature(s.cfg.RazorpayKeySecret,
		req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		s.log.WarnContext(ctx, "security event",
			slog.String("event", "checkout_signature_mismatch"),
			slog.String("user_id", userID),
			slog.String("razorpay_order_id", req.RazorpayOrderID))
		return nil, webhook.ErrSignatureMismatch
	}

	order, err := s.lookupOrder(ctx, req.RazorpayOrderID, userID)
	if err != nil {
		return nil, err
	}

	// The checkout signature covers only the two ids, so the paid amount is
	// read back from the gateway instead of trusting the client.
	payment, err := s.gateway.FetchPayment(ctx, req.RazorpayPaymentID)
	if err != nil {
		return nil, err
	}
	if payment.OrderID != order.RazorpayOrderID {
		s.securityEvent(ctx, "payment_order_mismatch", order, userID)
		return nil, ErrOrderOwnershipViolation
	}

	if err := s.ValidateOrderSecurity(ctx, order, userID, payment.Amount); err != nil {
		return nil, err
	}

	if err := s.applyPayment(ctx, order, req.RazorpayPaymentID, payment.Amount, payment.Currency); err != nil &&
		!errors.Is(err, webhook.ErrAlreadyProcessed) {
		return nil, err
	}

	return s.GetAccess(ctx, userID)
}

// applyPayment records the payment and activates the subscription. The
// payment row insert is the idempotency pivot: losing the insert race
// means another delivery already applied this payment, reported as
// webhook.ErrAlreadyProcessed so callers can acknowledge instead of fail.
func (s *Service) applyPayment(ctx context.Context, order *Order, paymentID string, amount int64, currency string) error {
	inserted, err := s.store.InsertPayment(ctx, &Payment{
		UserID:            order.UserID,
		OrderID:           order.ID,
		RazorpayPaymentID: paymentID,
		RazorpayOrderID:   order.RazorpayOrderID,
		Amount:            amount,
		Currency:          currency,
		Status:            "captured",
		CreatedAt:         s.now().UTC(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		return webhook.ErrAlreadyProcessed
	}

	plan, err := s.catalog.Get(order.PlanID)
	if err != nil {
		return errors.Join(ErrInvalidPlan, err)
	}

	profile, err := s.store.EnsureProfile(ctx, order.UserID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	end := plan.TermEnd(now)
	profile.Status = subscription.StatusActive
	profile.Tier = plan.Tier
	profile.SubscriptionEndsAt = &end
	profile.RazorpayPaymentID = paymentID
	profile.RazorpayOrderID = order.RazorpayOrderID
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return err
	}

	if err := s.store.UpdateOrderStatus(ctx, order.ID, OrderStatusPaid); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "subscription activated",
		slog.String("user_id", order.UserID),
		slog.String("plan_id", plan.ID),
		slog.String("tier", string(plan.Tier)),
		slog.Time("ends_at", end))
	return nil
}

// HandlePaymentCaptured applies a captured (or authorized) payment event.
func (s *Service) HandlePaymentCaptured(ctx context.Context, event *webhook.Event) error {
	order, err := s.lookupOrder(ctx, event.OrderID, event.UserID)
	if err != nil {
		return err
	}
	if err := s.ValidateOrderSecurity(ctx, order, event.UserID, event.Amount); err != nil {
		if errors.Is(err, ErrOrderAlreadyProcessed) {
			return webhook.ErrAlreadyProcessed
		}
		return err
	}
	return s.applyPayment(ctx, order, event.PaymentID, event.Amount, event.Currency)
}

// HandlePaymentFailed records the failure for the activity tracker and
// marks the order failed. It never reduces an existing subscription.
func (s *Service) HandlePaymentFailed(ctx context.Context, event *webhook.Event) error {
	order, err := s.lookupOrder(ctx, event.OrderID, event.UserID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			// A failure for an order this system never created carries no
			// state to update; acknowledge it.
			return nil
		}
		return err
	}

	inserted, err := s.store.InsertPayment(ctx, &Payment{
		UserID:            order.UserID,
		OrderID:           order.ID,
		RazorpayPaymentID: event.PaymentID,
		RazorpayOrderID:   order.RazorpayOrderID,
		Amount:            event.Amount,
		Currency:          event.Currency,
		Status:            "failed",
		CreatedAt:         s.now().UTC(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		return webhook.ErrAlreadyProcessed
	}

	if order.Status == OrderStatusCreated {
		if err := s.store.UpdateOrderStatus(ctx, order.ID, OrderStatusFailed); err != nil {
			return err
		}
	}

	s.activity.noteFailure(ctx, order.UserID)
	return nil
}

// HandleSubscriptionActivated mirrors a gateway-side activation. It only
// refreshes status; term dates come from payment application.
func (s *Service) HandleSubscriptionActivated(ctx context.Context, event *webhook.Event) error {
	return s.transitionProfile(ctx, event, subscription.StatusActive)
}

// HandleSubscriptionPaused marks the profile past due. Access survives
// until the paid term runs out.
func (s *Service) HandleSubscriptionPaused(ctx context.Context, event *webhook.Event) error {
	return s.transitionProfile(ctx, event, subscription.StatusPastDue)
}

// HandleSubscriptionCancelled marks the profile canceled. Access survives
// until the paid term runs out.
func (s *Service) HandleSubscriptionCancelled(ctx context.Context, event *webhook.Event) error {
	return s.transitionProfile(ctx, event, subscription.StatusCanceled)
}

func (s *Service) transitionProfile(ctx context.Context, event *webhook.Event, status subscription.Status) error {
	if event.UserID == "" {
		// Without a user id in the notes there is nothing to transition;
		// acknowledged so the gateway stops retrying.
		s.log.WarnContext(ctx, "subscription event without user id",
			slog.String("event", string(event.Type)))
		return nil
	}

	profile, err := s.store.GetProfile(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			s.log.WarnContext(ctx, "subscription event for unknown profile",
				slog.String("event", string(event.Type)),
				slog.String("user_id", event.UserID))
			return nil
		}
		return err
	}

	if profile.Status == status {
		return webhook.ErrAlreadyProcessed
	}
	profile.Status = status
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "subscription status changed",
		slog.String("user_id", event.UserID),
		slog.String("status", string(status)))
	return nil
}

// RegisterHandlers wires the service's event handlers into the dispatcher.
func (s *Service) RegisterHandlers(d *webhook.Dispatcher) {
	d.Register(webhook.EventPaymentAuthorized, s.HandlePaymentCaptured)
	d.Register(webhook.EventPaymentCaptured, s.HandlePaymentCaptured)
	d.Register(webhook.EventPaymentFailed, s.HandlePaymentFailed)
	d.Register(webhook.EventSubscriptionActivated, s.HandleSubscriptionActivated)
	d.Register(webhook.EventSubscriptionPaused, s.HandleSubscriptionPaused)
	d.Register(webhook.EventSubscriptionCancelled, s.HandleSubscriptionCancelled)
}

// StartTrial grants the one-time trial. Users with an active paid
// subscription or a spent trial flag are refused.
func (s *Service) StartTrial(ctx context.Context, userID string) (*subscription.Access, error) {
	profile, err := s.store.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.HasUsedTrial {
		return nil, ErrTrialAlreadyUsed
	}
	if access := subscription.CalculateAccess(profile, s.now()); access.HasAccess {
		return nil, ErrTrialUnavailable
	}

	end := subscription.TrialEnd(s.now())
	profile.Status = subscription.StatusTrial
	profile.Tier = subscription.TrialTier
	profile.TrialEndsAt = &end
	profile.HasUsedTrial = true
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "trial started",
		slog.String("user_id", userID),
		slog.Time("ends_at", end))

	return s.GetAccess(ctx, userID)
}

// GetAccess returns the derived access snapshot. A missing profile is a
// valid free-tier answer, not an error.
func (s *Service) GetAccess(ctx context.Context, userID string) (*subscription.Access, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			access := subscription.CalculateAccess(nil, s.now())
			return &access, nil
		}
		return nil, err
	}
	access := subscription.CalculateAccess(profile, s.now())
	return &access, nil
}
