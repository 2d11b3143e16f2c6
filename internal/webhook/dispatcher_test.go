package webhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseEventNestedPayment(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"eventType": "PAYMENT_CAPTURED",
		"data": {
			"payment": {
				"id": "pay_123",
				"orderId": "ORDER-1700000000000-ABCDEF12",
				"amount": 1000,
				"currencyCode": "GBP",
				"status": "SETTLED"
			}
		}
	}`)

	event, err := ParseEvent(body)
	require.NoError(t, err)
	require.Equal(t, "PAYMENT_CAPTURED", event.EventType)
	require.Equal(t, "pay_123", event.Payment.ID)
	require.Equal(t, "ORDER-1700000000000-ABCDEF12", event.Payment.OrderID)
	require.Equal(t, int64(1000), event.Payment.Amount)
	require.Equal(t, "SETTLED", event.Payment.Status)
}

func TestParseEventTopLevelPaymentFallback(t *testing.T) {
	t.Parallel()

	event, err := ParseEvent([]byte(`{"eventType":"PAYMENT_FAILED","payment":{"id":"pay_9","failureReason":"declined"}}`))
	require.NoError(t, err)
	require.Equal(t, "pay_9", event.Payment.ID)
	require.Equal(t, "declined", event.Payment.FailureReason)
}

func TestParseEventRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := ParseEvent([]byte(`{"eventType":`))
	require.Error(t, err)
}

func TestDispatchRoutesEveryKnownType(t *testing.T) {
	t.Parallel()

	seen := map[EventType]int{}
	handlers := make(map[EventType]HandlerFunc, len(EventTypes))
	for _, eventType := range EventTypes {
		et := eventType
		handlers[et] = func(context.Context, Event) error {
			seen[et]++
			return nil
		}
	}
	d := &Dispatcher{Handlers: handlers, Logger: zerolog.Nop()}

	for _, eventType := range EventTypes {
		ack := d.Dispatch(context.Background(), Event{EventType: string(eventType), Payment: Payment{ID: "pay_1"}})
		require.True(t, ack.Received)
		require.Equal(t, string(eventType), ack.EventType)
		require.Equal(t, "pay_1", ack.PaymentID)
	}
	for _, eventType := range EventTypes {
		require.Equal(t, 1, seen[eventType], "handler for %s", eventType)
	}
}

func TestDispatchAcknowledgesUnknownType(t *testing.T) {
	t.Parallel()

	d := &Dispatcher{Handlers: DefaultHandlers(zerolog.Nop()), Logger: zerolog.Nop()}

	ack := d.Dispatch(context.Background(), Event{EventType: "PAYMENT_EXPIRED", Payment: Payment{ID: "pay_2"}})
	require.True(t, ack.Received)
	require.Equal(t, "PAYMENT_EXPIRED", ack.EventType)
	require.Equal(t, "pay_2", ack.PaymentID)
}

func TestDispatchSwallowsHandlerError(t *testing.T) {
	t.Parallel()

	d := &Dispatcher{
		Handlers: map[EventType]HandlerFunc{
			EventPaymentFailed: func(context.Context, Event) error { return errors.New("fulfilment down") },
		},
		Logger: zerolog.Nop(),
	}

	ack := d.Dispatch(context.Background(), Event{EventType: string(EventPaymentFailed)})
	require.True(t, ack.Received)
}

func TestDispatchTimestampFormat(t *testing.T) {
	t.Parallel()

	fixed := time.UnixMilli(1700000000000)
	d := &Dispatcher{
		Handlers: DefaultHandlers(zerolog.Nop()),
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return fixed },
	}

	ack := d.Dispatch(context.Background(), Event{EventType: string(EventPaymentCreated)})
	require.Equal(t, fixed.UTC().Format(time.RFC3339), ack.Timestamp)
}
