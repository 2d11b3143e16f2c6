package primer

import "encoding/json"

// Amounts are integer minor units throughout (pence for GBP); nothing in the
// gateway does floating-point money arithmetic.
const (
	// MaxAmount is the ceiling accepted for any inbound amount, in minor units.
	MaxAmount = 10_000_000

	DefaultCurrency = "GBP"
	DefaultCountry  = "GB"

	// defaultNativeAmount backfills a processor-native request that carries
	// neither an amount nor an order to derive one from.
	defaultNativeAmount = 1000

	placeholderEmail = "customer@example.com"
)

// Currencies accepted on inbound requests.
var AllowedCurrencies = []string{"GBP", "USD", "EUR", "AUD", "CAD", "SGD"}

// SimplifiedItem is one cart line in the simplified inbound shape.
type SimplifiedItem struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Amount   int64  `json:"amount" validate:"gt=0,lte=10000000"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// ApplePayRequest carries the simplified shape's Apple Pay knobs. At most one
// of the three payment-mode flags takes effect; they are checked in the order
// recurring, deferred, autoReload, so a later flag wins when several are set.
type ApplePayRequest struct {
	MerchantName string `json:"merchantName,omitempty"`
	Recurring    bool   `json:"recurring,omitempty"`
	Deferred     bool   `json:"deferred,omitempty"`
	AutoReload   bool   `json:"autoReload,omitempty"`
}

// SimplifiedSession is the internal inbound shape used by the merchant's own
// frontend: major concepts only, the gateway derives the processor payload.
type SimplifiedSession struct {
	UserID        string           `json:"userId,omitempty"`
	CartID        string           `json:"cartId,omitempty"`
	Amount        int64            `json:"amount" validate:"required,gt=0,lte=10000000"`
	Currency      string           `json:"currency,omitempty" validate:"omitempty,oneof=GBP USD EUR AUD CAD SGD"`
	CustomerID    string           `json:"customerId,omitempty"`
	CustomerEmail string           `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Items         []SimplifiedItem `json:"items,omitempty" validate:"omitempty,dive"`
	ApplePay      *ApplePayRequest `json:"applePay,omitempty"`
}

// NativeSession is the pass-through inbound shape mirroring the processor's
// client-session API. The customer, order and paymentMethod sub-objects stay
// raw: decoding them into typed structs would drop nested fields the gateway
// does not model, and the contract is byte-for-byte forwarding. Unknown
// top-level fields survive in Extra.
type NativeSession struct {
	OrderID       string          `json:"orderId,omitempty"`
	CurrencyCode  string          `json:"currencyCode,omitempty" validate:"omitempty,oneof=GBP USD EUR AUD CAD SGD"`
	Currency      string          `json:"currency,omitempty" validate:"omitempty,oneof=GBP USD EUR AUD CAD SGD"`
	Amount        int64           `json:"amount,omitempty" validate:"omitempty,gt=0,lte=10000000"`
	CustomerID    string          `json:"customerId,omitempty"`
	CustomerEmail string          `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Customer      json.RawMessage `json:"customer,omitempty"`
	Order         json.RawMessage `json:"order,omitempty"`
	PaymentMethod json.RawMessage `json:"paymentMethod,omitempty"`
	PaymentType   string          `json:"paymentType,omitempty" validate:"omitempty,oneof=FIRST_PAYMENT ECOMMERCE SUBSCRIPTION UNSCHEDULED MOTO"`
	Metadata      map[string]any  `json:"metadata,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// SessionRequest is the parsed inbound payload: exactly one variant is set.
type SessionRequest struct {
	Simplified *SimplifiedSession
	Native     *NativeSession
}

// Customer identifies the buyer to the processor.
type Customer struct {
	EmailAddress string `json:"emailAddress,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
}

// LineItem is one order line in the canonical payload.
type LineItem struct {
	ItemID      string `json:"itemId"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Quantity    int    `json:"quantity"`
}

// Order groups the goods being paid for.
type Order struct {
	CountryCode string     `json:"countryCode,omitempty"`
	LineItems   []LineItem `json:"lineItems,omitempty"`
}

// ApplePaySummaryItem is the single summary line Apple Pay renders on the
// payment sheet. Type is "final" or "pending".
type ApplePaySummaryItem struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
}

// ApplePayOptions configures the hosted widget's Apple Pay sheet.
type ApplePayOptions struct {
	MerchantName string               `json:"merchantName,omitempty"`
	Capabilities []string             `json:"capabilities,omitempty"`
	TotalItem    *ApplePaySummaryItem `json:"totalItem,omitempty"`
}

// PaymentMethodOptions tunes vaulting and wallet behaviour for the session.
type PaymentMethodOptions struct {
	VaultOnSuccess     bool             `json:"vaultOnSuccess,omitempty"`
	FirstPaymentReason string           `json:"firstPaymentReason,omitempty"`
	ApplePayOptions    *ApplePayOptions `json:"applePayOptions,omitempty"`
}

// ClientSessionPayload is the single canonical shape sent to the processor's
// client-session endpoint, whichever inbound variant produced it. It is built
// once per request and never mutated afterwards.
type ClientSessionPayload struct {
	OrderID       string                `json:"orderId"`
	CurrencyCode  string                `json:"currencyCode"`
	Amount        int64                 `json:"amount"`
	CustomerID    string                `json:"customerId,omitempty"`
	Customer      *Customer             `json:"customer,omitempty"`
	Order         *Order                `json:"order,omitempty"`
	PaymentMethod *PaymentMethodOptions `json:"paymentMethod,omitempty"`
	PaymentType   string                `json:"paymentType,omitempty"`
	Metadata      map[string]any        `json:"metadata,omitempty"`

	// Extra carries raw fields forwarded unmodified for forward compatibility
	// with the processor API: unknown top-level keys, and for the native
	// variant the caller's whole customer/order/paymentMethod objects (the
	// typed pointers above stay nil in that case).
	Extra map[string]json.RawMessage `json:"-"`
}

// MarshalJSON merges the modelled fields over any passed-through extras. A
// raw sub-object in Extra survives only while its typed counterpart is nil.
func (p ClientSessionPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.Extra)+9)
	for key, value := range p.Extra {
		out[key] = value
	}
	set := func(key string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		out[key] = raw
		return nil
	}
	if err := set("orderId", p.OrderID); err != nil {
		return nil, err
	}
	if err := set("currencyCode", p.CurrencyCode); err != nil {
		return nil, err
	}
	if err := set("amount", p.Amount); err != nil {
		return nil, err
	}
	if p.CustomerID != "" {
		if err := set("customerId", p.CustomerID); err != nil {
			return nil, err
		}
	}
	if p.Customer != nil {
		if err := set("customer", p.Customer); err != nil {
			return nil, err
		}
	}
	if p.Order != nil {
		if err := set("order", p.Order); err != nil {
			return nil, err
		}
	}
	if p.PaymentMethod != nil {
		if err := set("paymentMethod", p.PaymentMethod); err != nil {
			return nil, err
		}
	}
	if p.PaymentType != "" {
		if err := set("paymentType", p.PaymentType); err != nil {
			return nil, err
		}
	}
	if len(p.Metadata) > 0 {
		if err := set("metadata", p.Metadata); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// ClientSession is the processor's answer to a session creation: the opaque
// credential the browser widget authenticates with.
type ClientSession struct {
	ClientToken string `json:"clientToken"`
	ExpiresAt   string `json:"expiresAt"`
}

// ChargeRequest is the validated inbound payload to charge a vaulted
// payment-method token (merchant-initiated payment).
type ChargeRequest struct {
	PaymentMethodToken string         `json:"paymentMethodToken" validate:"required"`
	Amount             int64          `json:"amount" validate:"required,gt=0,lte=10000000"`
	CurrencyCode       string         `json:"currencyCode" validate:"required,oneof=GBP USD EUR AUD CAD SGD"`
	OrderID            string         `json:"orderId,omitempty"`
	PaymentType        string         `json:"paymentType,omitempty" validate:"omitempty,oneof=FIRST_PAYMENT ECOMMERCE SUBSCRIPTION UNSCHEDULED MOTO"`
	FirstPaymentReason string         `json:"firstPaymentReason,omitempty" validate:"omitempty,oneof=CardOnFile Recurring Unscheduled"`
	CustomerID         string         `json:"customerId,omitempty"`
	CustomerEmail      string         `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Description        string         `json:"description,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// ChargePayload is the outbound body for the processor's payments endpoint.
type ChargePayload struct {
	OrderID            string         `json:"orderId"`
	Amount             int64          `json:"amount"`
	CurrencyCode       string         `json:"currencyCode"`
	PaymentMethodToken string         `json:"paymentMethodToken"`
	PaymentType        string         `json:"paymentType,omitempty"`
	FirstPaymentReason string         `json:"firstPaymentReason,omitempty"`
	CustomerID         string         `json:"customerId,omitempty"`
	Customer           *Customer      `json:"customer,omitempty"`
	Description        string         `json:"description,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}
