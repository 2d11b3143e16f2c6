package primer_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/primer-gateway/internal/primer"
)

func fixedGen() primer.Generator {
	return primer.Generator{
		Now:   func() time.Time { return time.UnixMilli(1700000000000) },
		NewID: func() string { return "abcdef12-3456-7890-abcd-ef1234567890" },
	}
}

func TestGeneratorOrderIDFormat(t *testing.T) {
	t.Parallel()

	id := fixedGen().OrderID()
	require.Equal(t, "ORDER-1700000000000-ABCDEF12", id)
}

func TestGeneratorIdempotencyKeyFormat(t *testing.T) {
	t.Parallel()

	key := fixedGen().IdempotencyKey()
	require.Equal(t, "charge-1700000000000-abcdef123456", key)
}

func TestParseSessionRequestDetectsShapes(t *testing.T) {
	t.Parallel()

	req, err := primer.ParseSessionRequest([]byte(`{"amount":1000,"currency":"GBP"}`))
	require.NoError(t, err)
	require.NotNil(t, req.Simplified)
	require.Nil(t, req.Native)

	req, err = primer.ParseSessionRequest([]byte(`{"orderId":"ORD-1","amount":500}`))
	require.NoError(t, err)
	require.NotNil(t, req.Native)
	require.Nil(t, req.Simplified)

	req, err = primer.ParseSessionRequest([]byte(`{"currencyCode":"USD","amount":500}`))
	require.NoError(t, err)
	require.NotNil(t, req.Native)

	req, err = primer.ParseSessionRequest([]byte(`{"order":{"lineItems":[]},"amount":500}`))
	require.NoError(t, err)
	require.NotNil(t, req.Native)
}

func TestParseSessionRequestRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := primer.ParseSessionRequest([]byte(`not json`))
	require.Error(t, err)

	_, err = primer.ParseSessionRequest([]byte(`{}`))
	require.ErrorIs(t, err, primer.ErrEmptyBody)
}

func TestNormalizeSimplifiedMinimal(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	req, err := primer.ParseSessionRequest([]byte(`{"amount":1000,"currency":"GBP"}`))
	require.NoError(t, err)

	payload, err := n.Normalize(req)
	require.NoError(t, err)
	require.Equal(t, "ORDER-1700000000000-ABCDEF12", payload.OrderID)
	require.Equal(t, "GBP", payload.CurrencyCode)
	require.EqualValues(t, 1000, payload.Amount)
	require.NotNil(t, payload.Customer)
	require.Equal(t, "customer@example.com", payload.Customer.EmailAddress)
	require.NotNil(t, payload.Order)
	require.Equal(t, "GB", payload.Order.CountryCode)
	require.Len(t, payload.Order.LineItems, 1)
	require.EqualValues(t, 1000, payload.Order.LineItems[0].Amount)
	require.Equal(t, 1, payload.Order.LineItems[0].Quantity)
	require.Nil(t, payload.PaymentMethod)
}

func TestNormalizeSimplifiedItemsAndVaulting(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	body := `{
		"amount": 1500,
		"currency": "EUR",
		"customerId": "cus_1",
		"customerEmail": "jo@example.com",
		"items": [
			{"id": "sku-1", "name": "Shirt", "amount": 1000, "quantity": 1},
			{"id": "sku-2", "name": "Socks", "amount": 250, "quantity": 2}
		]
	}`
	req, err := primer.ParseSessionRequest([]byte(body))
	require.NoError(t, err)

	payload, err := n.Normalize(req)
	require.NoError(t, err)
	require.Equal(t, "EUR", payload.CurrencyCode)
	require.Equal(t, "jo@example.com", payload.Customer.EmailAddress)
	require.Equal(t, "cus_1", payload.CustomerID)
	require.Len(t, payload.Order.LineItems, 2)
	require.Equal(t, primer.LineItem{ItemID: "sku-1", Description: "Shirt", Amount: 1000, Quantity: 1}, payload.Order.LineItems[0])
	require.Equal(t, primer.LineItem{ItemID: "sku-2", Description: "Socks", Amount: 250, Quantity: 2}, payload.Order.LineItems[1])
	require.NotNil(t, payload.PaymentMethod)
	require.True(t, payload.PaymentMethod.VaultOnSuccess)
}

func TestNormalizeSimplifiedApplePayPrecedence(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}

	cases := []struct {
		name         string
		applePay     string
		capability   string
		summaryType  string
	}{
		{"recurring", `{"recurring":true}`, "supportsRecurring", "final"},
		{"deferred", `{"deferred":true}`, "supportsDeferred", "pending"},
		{"autoReload", `{"autoReload":true}`, "supportsAutoReload", "final"},
		{"deferred overrides recurring", `{"recurring":true,"deferred":true}`, "supportsDeferred", "pending"},
		{"autoReload overrides all", `{"recurring":true,"deferred":true,"autoReload":true}`, "supportsAutoReload", "final"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := primer.ParseSessionRequest([]byte(`{"amount":2000,"applePay":` + tc.applePay + `}`))
			require.NoError(t, err)
			payload, err := n.Normalize(req)
			require.NoError(t, err)
			require.NotNil(t, payload.PaymentMethod)
			opts := payload.PaymentMethod.ApplePayOptions
			require.NotNil(t, opts)
			require.Equal(t, []string{tc.capability}, opts.Capabilities)
			require.NotNil(t, opts.TotalItem)
			require.Equal(t, tc.summaryType, opts.TotalItem.Type)
			require.EqualValues(t, 2000, opts.TotalItem.Amount)
		})
	}
}

func TestNormalizeSimplifiedApplePayMerchantNameOnly(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	req, err := primer.ParseSessionRequest([]byte(`{"amount":500,"applePay":{"merchantName":"Acme Shop"}}`))
	require.NoError(t, err)
	payload, err := n.Normalize(req)
	require.NoError(t, err)
	opts := payload.PaymentMethod.ApplePayOptions
	require.NotNil(t, opts)
	require.Equal(t, "Acme Shop", opts.MerchantName)
	require.Nil(t, opts.Capabilities)
	require.Nil(t, opts.TotalItem)
}

func TestNormalizeNativePassThrough(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	body := `{
		"orderId": "ORD-77",
		"currencyCode": "USD",
		"amount": 4200,
		"customerId": "cus_9",
		"customer": {"emailAddress": "a@b.com", "firstName": "Ada"},
		"order": {"countryCode": "US", "lineItems": [{"itemId": "i1", "description": "Thing", "amount": 4200, "quantity": 1}]},
		"paymentMethod": {"vaultOnSuccess": true},
		"paymentType": "ECOMMERCE",
		"metadata": {"source": "native"}
	}`
	req, err := primer.ParseSessionRequest([]byte(body))
	require.NoError(t, err)

	payload, err := n.Normalize(req)
	require.NoError(t, err)
	require.Equal(t, "ORD-77", payload.OrderID)
	require.Equal(t, "USD", payload.CurrencyCode)
	require.EqualValues(t, 4200, payload.Amount)
	require.Equal(t, "cus_9", payload.CustomerID)
	require.Equal(t, "ECOMMERCE", payload.PaymentType)
	require.Equal(t, map[string]any{"source": "native"}, payload.Metadata)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)

	var round map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &round))
	require.JSONEq(t, `{"emailAddress": "a@b.com", "firstName": "Ada"}`, string(round["customer"]))
	require.JSONEq(t, `{"countryCode": "US", "lineItems": [{"itemId": "i1", "description": "Thing", "amount": 4200, "quantity": 1}]}`, string(round["order"]))
	require.JSONEq(t, `{"vaultOnSuccess": true}`, string(round["paymentMethod"]))
}

func TestNormalizeNativeNestedUnknownFieldsForwarded(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	body := `{
		"orderId": "ORD-88",
		"currencyCode": "GBP",
		"amount": 900,
		"customer": {
			"emailAddress": "a@b.com",
			"billingAddress": {"addressLine1": "1 High St", "postalCode": "E1 6AN"}
		},
		"order": {
			"countryCode": "GB",
			"lineItems": [{"itemId": "i1", "amount": 900, "quantity": 1, "productType": "DIGITAL"}]
		},
		"paymentMethod": {"vaultOnSuccess": true, "descriptor": "ACME*ORDER"}
	}`
	req, err := primer.ParseSessionRequest([]byte(body))
	require.NoError(t, err)

	payload, err := n.Normalize(req)
	require.NoError(t, err)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(encoded, &round))

	customer, ok := round["customer"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "a@b.com", customer["emailAddress"])
	require.Equal(t, map[string]any{"addressLine1": "1 High St", "postalCode": "E1 6AN"}, customer["billingAddress"])

	order, ok := round["order"].(map[string]any)
	require.True(t, ok)
	items, ok := order["lineItems"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item, ok := items[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "DIGITAL", item["productType"])

	method, ok := round["paymentMethod"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ACME*ORDER", method["descriptor"])
}

func TestNormalizeNativeNullSubObjectsSynthesized(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	req, err := primer.ParseSessionRequest([]byte(`{"currencyCode":"EUR","customer":null,"order":null}`))
	require.NoError(t, err)

	payload, err := n.Normalize(req)
	require.NoError(t, err)
	require.NotNil(t, payload.Customer)
	require.Equal(t, "customer@example.com", payload.Customer.EmailAddress)
	require.NotNil(t, payload.Order)
	require.Len(t, payload.Order.LineItems, 1)
}

func TestNormalizeNativeSynthesizesDefaults(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	req, err := primer.ParseSessionRequest([]byte(`{"currencyCode":"USD"}`))
	require.NoError(t, err)

	payload, err := n.Normalize(req)
	require.NoError(t, err)
	require.Equal(t, "ORDER-1700000000000-ABCDEF12", payload.OrderID)
	require.Equal(t, "USD", payload.CurrencyCode)
	require.EqualValues(t, 1000, payload.Amount)
	require.Equal(t, "customer@example.com", payload.Customer.EmailAddress)
	require.Len(t, payload.Order.LineItems, 1)
	require.EqualValues(t, 1000, payload.Order.LineItems[0].Amount)
}

func TestNormalizeNativeUnknownFieldsForwarded(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	req, err := primer.ParseSessionRequest([]byte(`{"orderId":"ORD-1","amount":100,"riskParams":{"score":3}}`))
	require.NoError(t, err)

	payload, err := n.Normalize(req)
	require.NoError(t, err)

	encoded, err := json.Marshal(payload)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(encoded, &round))
	require.Equal(t, "ORD-1", round["orderId"])
	require.Equal(t, map[string]any{"score": float64(3)}, round["riskParams"])
}

func TestNormalizeIsDeterministicWithFixedGenerator(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	req, err := primer.ParseSessionRequest([]byte(`{"amount":1000,"currency":"GBP","customerId":"cus_1"}`))
	require.NoError(t, err)

	first, err := n.Normalize(req)
	require.NoError(t, err)
	second, err := n.Normalize(req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestChargePayloadFrom(t *testing.T) {
	t.Parallel()

	n := primer.Normalizer{Gen: fixedGen()}
	payload := n.ChargePayloadFrom(primer.ChargeRequest{
		PaymentMethodToken: "tok_1",
		Amount:             750,
		CurrencyCode:       "GBP",
		CustomerEmail:      "jo@example.com",
	})
	require.Equal(t, "ORDER-1700000000000-ABCDEF12", payload.OrderID)
	require.Equal(t, "tok_1", payload.PaymentMethodToken)
	require.EqualValues(t, 750, payload.Amount)
	require.Equal(t, "jo@example.com", payload.Customer.EmailAddress)

	kept := n.ChargePayloadFrom(primer.ChargeRequest{
		PaymentMethodToken: "tok_1",
		Amount:             750,
		CurrencyCode:       "GBP",
		OrderID:            "ORD-KEEP",
	})
	require.Equal(t, "ORD-KEEP", kept.OrderID)
	require.Nil(t, kept.Customer)
}
