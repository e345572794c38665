package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Handler processes one verified, parsed event. Returning
// ErrAlreadyProcessed acknowledges an idempotent replay; any other error
// propagates so the gateway redelivers.
type Handler func(ctx context.Context, event *Event) error

// Dispatcher routes verified events by declared type to a fixed registry
// of handlers.
type Dispatcher struct {
	registry map[EventType]Handler
	log      *slog.Logger
}

// NewDispatcher creates an empty dispatcher logging through log.
func NewDispatcher(log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: make(map[EventType]Handler),
		log:      log,
	}
}

// Register binds a handler to an event type. Registration happens at
// wiring time; Dispatch never mutates the registry.
func (d *Dispatcher) Register(t EventType, h Handler) {
	if h == nil {
		panic(fmt.Sprintf("webhook: nil handler for event type %q", t))
	}
	d.registry[t] = h
}

// Dispatch runs the handler registered for event's type.
//
// Unknown or unregistered types return nil: the gateway retries any
// non-2xx indefinitely, and redelivering events this system intentionally
// ignores is pure waste. Replays return nil for the same reason. Only a
// genuine new-transition failure returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) error {
	handler, ok := d.registry[event.Type]
	if !ok {
		d.log.InfoContext(ctx, "unhandled webhook event acknowledged",
			"event_type", string(event.Type))
		return nil
	}

	if err := handler(ctx, event); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			d.log.InfoContext(ctx, "webhook replay acknowledged",
				"event_type", string(event.Type),
				"payment_id", event.PaymentID)
			return nil
		}
		return fmt.Errorf("dispatch %s: %w", event.Type, err)
	}

	return nil
}
