package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the gateway's declared event name.
type EventType string

const (
	EventPaymentAuthorized     EventType = "payment.authorized"
	EventPaymentCaptured       EventType = "payment.captured"
	EventPaymentFailed         EventType = "payment.failed"
	EventSubscriptionActivated EventType = "subscription.activated"
	EventSubscriptionPaused    EventType = "subscription.paused"
	EventSubscriptionCancelled EventType = "subscription.cancelled"
)

// Known reports whether t is an event type this system processes.
func (t EventType) Known() bool {
	switch t {
	case EventPaymentAuthorized, EventPaymentCaptured, EventPaymentFailed,
		EventSubscriptionActivated, EventSubscriptionPaused, EventSubscriptionCancelled:
		return true
	}
	return false
}

// Event is the normalized, validated form of a gateway delivery. It is
// used exactly once to drive a state transition, then discarded.
type Event struct {
	Type      EventType
	PaymentID string
	OrderID   string
	Amount    int64
	Currency  string
	Status    string
	UserID    string
	PlanID    string
	Timestamp time.Time
}

// envelope mirrors the gateway's webhook JSON. Fields the payload does not
// declare stay zero and are caught by shape validation below.
type envelope struct {
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity *paymentEntity `json:"entity"`
		} `json:"payment"`
		Subscription struct {
			Entity *subscriptionEntity `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID       string            `json:"id"`
	OrderID  string            `json:"order_id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

type subscriptionEntity struct {
	ID     string            `json:"id"`
	PlanID string            `json:"plan_id"`
	Status string            `json:"status"`
	Notes  map[string]string `json:"notes"`
}

// ParseEvent validates the envelope shape and normalizes it into an Event.
// Fields are only trusted after the signature has been verified AND the
// shape matches a known event family; optimistic field access on an
// externally-controlled payload is how type-confusion bugs happen.
//
// Unknown event types parse successfully with Known()==false so the
// dispatcher can acknowledge them as no-ops.
func ParseEvent(body []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrInvalidPayload)
	}

	event := &Event{Type: EventType(env.Event)}
	if env.CreatedAt > 0 {
		event.Timestamp = time.Unix(env.CreatedAt, 0).UTC()
	}

	switch event.Type {
	case EventPaymentAuthorized, EventPaymentCaptured, EventPaymentFailed:
		entity := env.Payload.Payment.Entity
		if entity == nil || entity.ID == "" {
			return nil, fmt.Errorf("%w: %s without payment entity", ErrInvalidPayload, env.Event)
		}
		event.PaymentID = entity.ID
		event.OrderID = entity.OrderID
		event.Amount = entity.Amount
		event.Currency = entity.Currency
		event.Status = entity.Status
		event.UserID = entity.Notes["user_id"]
		event.PlanID = entity.Notes["plan_id"]

	case EventSubscriptionActivated, EventSubscriptionPaused, EventSubscriptionCancelled:
		entity := env.Payload.Subscription.Entity
		if entity == nil || entity.ID == "" {
			return nil, fmt.Errorf("%w: %s without subscription entity", ErrInvalidPayload, env.Event)
		}
		event.PaymentID = entity.ID // subscription id doubles as the idempotency handle
		event.PlanID = entity.PlanID
		event.Status = entity.Status
		event.UserID = entity.Notes["user_id"]
	}

	return event, nil
}
