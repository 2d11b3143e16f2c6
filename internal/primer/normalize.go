package primer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyBody is returned when the inbound session request has no usable fields.
var ErrEmptyBody = errors.New("primer: empty session request")

// Generator produces order identifiers and idempotency keys. Now and NewID
// are injectable so normalization is deterministic under test; zero values
// fall back to the wall clock and a random UUID.
type Generator struct {
	Now   func() time.Time
	NewID func() string
}

func (g Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g Generator) entropy() string {
	id := ""
	if g.NewID != nil {
		id = g.NewID()
	}
	if id == "" {
		id = uuid.NewString()
	}
	return strings.ReplaceAll(id, "-", "")
}

// OrderID builds a fresh order identifier: a fixed prefix, the millisecond
// timestamp and a short random hex suffix, uppercased. Uniqueness is
// probabilistic; there is no server-side collision check.
func (g Generator) OrderID() string {
	suffix := g.entropy()
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("ORDER-%d-%s", g.now().UnixMilli(), strings.ToUpper(suffix))
}

// IdempotencyKey builds the per-call key attached to charge requests so the
// processor collapses duplicate-looking retries into one logical operation.
func (g Generator) IdempotencyKey() string {
	suffix := g.entropy()
	if len(suffix) > 12 {
		suffix = suffix[:12]
	}
	return fmt.Sprintf("charge-%d-%s", g.now().UnixMilli(), suffix)
}

// nativeKeys are the top-level fields the gateway models in the processor's
// shape; anything else is passed through verbatim.
var nativeKeys = map[string]struct{}{
	"orderId": {}, "currencyCode": {}, "currency": {}, "amount": {},
	"customerId": {}, "customerEmail": {}, "customer": {}, "order": {},
	"paymentMethod": {}, "paymentType": {}, "metadata": {},
}

// ParseSessionRequest decodes the raw body into exactly one of the two
// accepted variants. The shape is discriminated up front: a body carrying
// orderId, currencyCode or order is treated as processor-native, everything
// else as the simplified internal shape.
func ParseSessionRequest(data []byte) (SessionRequest, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return SessionRequest{}, fmt.Errorf("decode session request: %w", err)
	}
	if len(keys) == 0 {
		return SessionRequest{}, ErrEmptyBody
	}

	_, hasOrderID := keys["orderId"]
	_, hasCurrencyCode := keys["currencyCode"]
	_, hasOrder := keys["order"]
	if hasOrderID || hasCurrencyCode || hasOrder {
		var native NativeSession
		if err := json.Unmarshal(data, &native); err != nil {
			return SessionRequest{}, fmt.Errorf("decode native session: %w", err)
		}
		for key, raw := range keys {
			if _, known := nativeKeys[key]; known {
				continue
			}
			if native.Extra == nil {
				native.Extra = make(map[string]json.RawMessage)
			}
			native.Extra[key] = raw
		}
		return SessionRequest{Native: &native}, nil
	}

	var simplified SimplifiedSession
	if err := json.Unmarshal(data, &simplified); err != nil {
		return SessionRequest{}, fmt.Errorf("decode simplified session: %w", err)
	}
	return SessionRequest{Simplified: &simplified}, nil
}

// Normalizer derives the canonical client-session payload from either
// inbound variant.
type Normalizer struct {
	Gen             Generator
	DefaultCurrency string
	DefaultCountry  string
}

func (n Normalizer) currency() string {
	if strings.TrimSpace(n.DefaultCurrency) != "" {
		return n.DefaultCurrency
	}
	return DefaultCurrency
}

func (n Normalizer) country() string {
	if strings.TrimSpace(n.DefaultCountry) != "" {
		return n.DefaultCountry
	}
	return DefaultCountry
}

// Normalize produces exactly one ClientSessionPayload for the request.
func (n Normalizer) Normalize(req SessionRequest) (ClientSessionPayload, error) {
	switch {
	case req.Native != nil:
		return n.normalizeNative(req.Native), nil
	case req.Simplified != nil:
		return n.normalizeSimplified(req.Simplified), nil
	default:
		return ClientSessionPayload{}, ErrEmptyBody
	}
}

// normalizeNative passes caller fields through and backfills documented
// defaults for whatever is absent. Caller-supplied customer, order and
// paymentMethod objects are forwarded raw so that nested fields the gateway
// does not model reach the processor unmodified; defaults are synthesized
// only when the sub-object is missing entirely.
func (n Normalizer) normalizeNative(in *NativeSession) ClientSessionPayload {
	extra := make(map[string]json.RawMessage, len(in.Extra)+3)
	for k, v := range in.Extra {
		extra[k] = v
	}

	payload := ClientSessionPayload{
		OrderID:      in.OrderID,
		CurrencyCode: in.CurrencyCode,
		Amount:       in.Amount,
		CustomerID:   in.CustomerID,
		PaymentType:  in.PaymentType,
		Metadata:     in.Metadata,
		Extra:        extra,
	}
	if payload.OrderID == "" {
		payload.OrderID = n.Gen.OrderID()
	}
	if payload.CurrencyCode == "" {
		payload.CurrencyCode = in.Currency
	}
	if payload.CurrencyCode == "" {
		payload.CurrencyCode = n.currency()
	}
	if payload.Amount == 0 {
		payload.Amount = defaultNativeAmount
	}

	if rawPresent(in.Customer) {
		extra["customer"] = in.Customer
	} else {
		payload.Customer = &Customer{EmailAddress: emailOrPlaceholder(in.CustomerEmail)}
	}
	if rawPresent(in.Order) {
		extra["order"] = in.Order
	} else {
		payload.Order = &Order{
			CountryCode: n.country(),
			LineItems: []LineItem{{
				ItemID:      "item-1",
				Description: "Purchase",
				Amount:      payload.Amount,
				Quantity:    1,
			}},
		}
	}
	if rawPresent(in.PaymentMethod) {
		extra["paymentMethod"] = in.PaymentMethod
	}
	return payload
}

// rawPresent reports whether a raw sub-object carries a value. A JSON null is
// treated the same as an absent key.
func rawPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// normalizeSimplified maps the internal shape onto the processor's, always
// generating a fresh order identifier.
func (n Normalizer) normalizeSimplified(in *SimplifiedSession) ClientSessionPayload {
	currency := in.Currency
	if currency == "" {
		currency = n.currency()
	}

	order := &Order{CountryCode: n.country()}
	if len(in.Items) > 0 {
		order.LineItems = make([]LineItem, 0, len(in.Items))
		for _, item := range in.Items {
			quantity := item.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			order.LineItems = append(order.LineItems, LineItem{
				ItemID:      item.ID,
				Description: item.Name,
				Amount:      item.Amount,
				Quantity:    quantity,
			})
		}
	} else {
		order.LineItems = []LineItem{{
			ItemID:      "item-1",
			Description: "Purchase",
			Amount:      in.Amount,
			Quantity:    1,
		}}
	}

	payload := ClientSessionPayload{
		OrderID:      n.Gen.OrderID(),
		CurrencyCode: currency,
		Amount:       in.Amount,
		CustomerID:   in.CustomerID,
		Customer:     &Customer{EmailAddress: emailOrPlaceholder(in.CustomerEmail)},
		Order:        order,
	}

	method := &PaymentMethodOptions{}
	if in.CustomerID != "" {
		// Vault the method so a returning customer can be charged by token.
		method.VaultOnSuccess = true
	}
	if in.ApplePay != nil {
		method.ApplePayOptions = applePayOptions(in.ApplePay, in.Amount)
	}
	if method.VaultOnSuccess || method.ApplePayOptions != nil {
		payload.PaymentMethod = method
	}
	return payload
}

// applePayOptions applies at most one of the three payment-mode flags,
// checked as recurring, then deferred, then autoReload, so later flags
// override earlier ones when several are set.
func applePayOptions(in *ApplePayRequest, amount int64) *ApplePayOptions {
	opts := &ApplePayOptions{MerchantName: in.MerchantName}
	if in.Recurring {
		opts.Capabilities = []string{"supportsRecurring"}
		opts.TotalItem = &ApplePaySummaryItem{Label: "Recurring payment", Amount: amount, Type: "final"}
	}
	if in.Deferred {
		opts.Capabilities = []string{"supportsDeferred"}
		opts.TotalItem = &ApplePaySummaryItem{Label: "Deferred payment", Amount: amount, Type: "pending"}
	}
	if in.AutoReload {
		opts.Capabilities = []string{"supportsAutoReload"}
		opts.TotalItem = &ApplePaySummaryItem{Label: "Auto-reload payment", Amount: amount, Type: "final"}
	}
	if opts.MerchantName == "" && opts.Capabilities == nil {
		return nil
	}
	return opts
}

// ChargePayloadFrom maps a validated charge request onto the outbound body,
// generating an order identifier when the caller did not supply one.
func (n Normalizer) ChargePayloadFrom(req ChargeRequest) ChargePayload {
	orderID := req.OrderID
	if orderID == "" {
		orderID = n.Gen.OrderID()
	}
	payload := ChargePayload{
		OrderID:            orderID,
		Amount:             req.Amount,
		CurrencyCode:       req.CurrencyCode,
		PaymentMethodToken: req.PaymentMethodToken,
		PaymentType:        req.PaymentType,
		FirstPaymentReason: req.FirstPaymentReason,
		CustomerID:         req.CustomerID,
		Description:        req.Description,
		Metadata:           req.Metadata,
	}
	if req.CustomerEmail != "" {
		payload.Customer = &Customer{EmailAddress: req.CustomerEmail}
	}
	return payload
}

func emailOrPlaceholder(email string) string {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return placeholderEmail
	}
	return trimmed
}
