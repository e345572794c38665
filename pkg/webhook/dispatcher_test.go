package webhook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatbill/pkg/webhook"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("routes by event type", func(t *testing.T) {
		t.Parallel()
		d := webhook.NewDispatcher(discardLogger())

		var handled []webhook.EventType
		d.Register(webhook.EventPaymentCaptured, func(ctx context.Context, e *webhook.Event) error {
			handled = append(handled, e.Type)
			return nil
		})
		d.Register(webhook.EventPaymentFailed, func(ctx context.Context, e *webhook.Event) error {
			handled = append(handled, e.Type)
			return nil
		})

		err := d.Dispatch(context.Background(), &webhook.Event{Type: webhook.EventPaymentCaptured})
		require.NoError(t, err)
		assert.Equal(t, []webhook.EventType{webhook.EventPaymentCaptured}, handled)
	})

	t.Run("unknown type is an acknowledged no-op", func(t *testing.T) {
		t.Parallel()
		d := webhook.NewDispatcher(discardLogger())
		err := d.Dispatch(context.Background(), &webhook.Event{Type: webhook.EventType("refund.created")})
		assert.NoError(t, err)
	})

	t.Run("replay is acknowledged", func(t *testing.T) {
		t.Parallel()
		d := webhook.NewDispatcher(discardLogger())
		d.Register(webhook.EventPaymentCaptured, func(ctx context.Context, e *webhook.Event) error {
			return webhook.ErrAlreadyProcessed
		})

		err := d.Dispatch(context.Background(), &webhook.Event{Type: webhook.EventPaymentCaptured, PaymentID: "pay_1"})
		assert.NoError(t, err)
	})

	t.Run("new transition failure propagates", func(t *testing.T) {
		t.Parallel()
		storeErr := errors.New("db write failed")
		d := webhook.NewDispatcher(discardLogger())
		d.Register(webhook.EventPaymentCaptured, func(ctx context.Context, e *webhook.Event) error {
			return storeErr
		})

		err := d.Dispatch(context.Background(), &webhook.Event{Type: webhook.EventPaymentCaptured})
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("nil handler panics at wiring time", func(t *testing.T) {
		t.Parallel()
		d := webhook.NewDispatcher(discardLogger())
		assert.Panics(t, func() { d.Register(webhook.EventPaymentCaptured, nil) })
	})
}
