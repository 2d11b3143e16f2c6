package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// EventType enumerates the notifications the processor delivers.
type EventType string

const (
	EventPaymentCreated    EventType = "PAYMENT_CREATED"
	EventPaymentAuthorized EventType = "PAYMENT_AUTHORIZED"
	EventPaymentCaptured   EventType = "PAYMENT_CAPTURED"
	EventPaymentFailed     EventType = "PAYMENT_FAILED"
	EventPaymentCancelled  EventType = "PAYMENT_CANCELLED"
)

// EventTypes lists every recognised event type.
var EventTypes = []EventType{
	EventPaymentCreated,
	EventPaymentAuthorized,
	EventPaymentCaptured,
	EventPaymentFailed,
	EventPaymentCancelled,
}

// Payment is the notification's payment snapshot. Used for routing and
// logging only; the signature check already happened on the raw bytes.
type Payment struct {
	ID                string `json:"id"`
	OrderID           string `json:"orderId"`
	Amount            int64  `json:"amount"`
	CurrencyCode      string `json:"currencyCode"`
	Status            string `json:"status"`
	FailureReason     string `json:"failureReason,omitempty"`
	PaymentMethodType string `json:"paymentMethodType,omitempty"`
}

// Event is one parsed inbound notification.
type Event struct {
	EventType string
	Payment   Payment
}

// ParseEvent decodes the notification envelope. The payment object nests
// under data.payment; a top-level payment is accepted as a fallback.
func ParseEvent(body []byte) (Event, error) {
	var envelope struct {
		EventType string `json:"eventType"`
		Data      struct {
			Payment *Payment `json:"payment"`
		} `json:"data"`
		Payment *Payment `json:"payment"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Event{}, fmt.Errorf("decode webhook event: %w", err)
	}
	event := Event{EventType: envelope.EventType}
	switch {
	case envelope.Data.Payment != nil:
		event.Payment = *envelope.Data.Payment
	case envelope.Payment != nil:
		event.Payment = *envelope.Payment
	}
	return event, nil
}

// HandlerFunc is a side-effect hook for one event type.
type HandlerFunc func(ctx context.Context, event Event) error

// Ack is the unconditional acknowledgement returned for every dispatched
// event. The processor must never read uncertainty into our response and
// retry-storm the endpoint, so recognised and unrecognised events alike get
// the same 200 contract.
type Ack struct {
	Received  bool   `json:"received"`
	EventType string `json:"eventType"`
	PaymentID string `json:"paymentId"`
	Timestamp string `json:"timestamp"`
}

// Dispatcher maps event types to their handlers.
type Dispatcher struct {
	Handlers map[EventType]HandlerFunc
	Logger   zerolog.Logger
	Now      func() time.Time
}

// DefaultHandlers returns log-only stubs for every recognised event type.
// Fulfilment, receipts and reconciliation hook in here.
func DefaultHandlers(logger zerolog.Logger) map[EventType]HandlerFunc {
	handlers := make(map[EventType]HandlerFunc, len(EventTypes))
	for _, eventType := range EventTypes {
		et := eventType
		handlers[et] = func(_ context.Context, event Event) error {
			logger.Info().
				Str("event_type", string(et)).
				Str("payment_id", event.Payment.ID).
				Str("order_id", event.Payment.OrderID).
				Str("status", event.Payment.Status).
				Msg("payment event received")
			return nil
		}
	}
	return handlers
}

// Dispatch routes one event to its handler and returns the acknowledgement.
// Handler failures are logged and swallowed: a downstream fulfilment problem
// is ours to deal with, not a delivery failure the processor should retry.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) Ack {
	handler, known := d.Handlers[EventType(event.EventType)]
	if !known {
		d.Logger.Info().
			Str("event_type", event.EventType).
			Str("payment_id", event.Payment.ID).
			Msg("unhandled webhook event type")
	} else if err := handler(ctx, event); err != nil {
		d.Logger.Error().Err(err).
			Str("event_type", event.EventType).
			Str("payment_id", event.Payment.ID).
			Msg("webhook handler failed")
	}
	return Ack{
		Received:  true,
		EventType: event.EventType,
		PaymentID: event.Payment.ID,
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
