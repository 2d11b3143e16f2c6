package primer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/primer-gateway/internal/obs"
	"github.com/noah-isme/primer-gateway/internal/resilience"
)

// ErrNotConfigured is returned when the server-held API key is absent or
// still the placeholder value. A deployment fault, detected per request.
var ErrNotConfigured = errors.New("primer: api key not configured")

// UpstreamError carries a non-2xx processor response: its status code and
// the error detail parsed from the body (an empty object when unparsable).
type UpstreamError struct {
	Status int
	Body   map[string]any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("primer: upstream status %d", e.Status)
}

// HTTPClient returns an HTTP client configured for processor calls, with the
// per-call timeout and an instrumented transport.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Client performs the outbound HTTP calls to the processor: create client
// session, charge a vaulted token, query payment status. Session and charge
// calls are wrapped in the retry executor; status lookups fail fast.
type Client struct {
	BaseURL    string
	APIKey     string
	APIVersion string
	UserAgent  string
	HTTP       *http.Client
	Retry      resilience.Policy
	Breaker    *resilience.Breaker
	Gen        Generator
	Logger     zerolog.Logger
}

func (c *Client) configured() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && !strings.HasPrefix(key, "YOUR_")
}

// CreateClientSession posts the canonical order payload and returns the
// client token the browser widget needs.
func (c *Client) CreateClientSession(ctx context.Context, payload ClientSessionPayload) (*ClientSession, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}
	return resilience.Do(ctx, c.Retry, func(ctx context.Context) (*ClientSession, error) {
		var session ClientSession
		if err := c.call(ctx, "create_session", http.MethodPost, "/client-session", payload, nil, &session); err != nil {
			return nil, err
		}
		return &session, nil
	})
}

// ChargePaymentMethod charges a previously vaulted payment-method token. A
// fresh idempotency key accompanies the call so processor-side duplicates of
// our retries collapse into one logical payment.
func (c *Client) ChargePaymentMethod(ctx context.Context, payload ChargePayload) (json.RawMessage, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}
	headers := map[string]string{"X-Idempotency-Key": c.Gen.IdempotencyKey()}
	return resilience.Do(ctx, c.Retry, func(ctx context.Context) (json.RawMessage, error) {
		var payment json.RawMessage
		if err := c.call(ctx, "charge", http.MethodPost, "/payments", payload, headers, &payment); err != nil {
			return nil, err
		}
		return payment, nil
	})
}

// GetPayment fetches the raw payment object by id. Lookups are idempotent
// and safe to fail fast, so no retry wrapper.
func (c *Client) GetPayment(ctx context.Context, id string) (json.RawMessage, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}
	var payment json.RawMessage
	if err := c.call(ctx, "get_payment", http.MethodGet, "/payments/"+url.PathEscape(id), nil, nil, &payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// call performs one outbound attempt: required headers, breaker accounting,
// metrics, and non-2xx to UpstreamError mapping.
func (c *Client) call(ctx context.Context, operation, method, path string, body any, headers map[string]string, out any) error {
	if c.Breaker != nil && !c.Breaker.Allow(ctx) {
		return resilience.ErrOpenCircuit
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", operation, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("X-Api-Key", c.APIKey)
	req.Header.Set("X-Api-Version", c.apiVersion())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent())
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.observe(operation, start, false)
		c.report(ctx, false)
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(operation, start, false)
		c.report(ctx, false)
		return fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := map[string]any{}
		_ = json.Unmarshal(data, &detail)
		c.observe(operation, start, false)
		c.report(ctx, resp.StatusCode < 500)
		c.Logger.Warn().
			Str("operation", operation).
			Int("status", resp.StatusCode).
			Msg("upstream call failed")
		return &UpstreamError{Status: resp.StatusCode, Body: detail}
	}
	c.observe(operation, start, true)
	c.report(ctx, true)

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) report(ctx context.Context, success bool) {
	if c.Breaker != nil {
		c.Breaker.Report(ctx, success)
	}
}

func (c *Client) observe(operation string, start time.Time, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	if obs.UpstreamAttemptsTotal != nil {
		obs.UpstreamAttemptsTotal.WithLabelValues(operation, result).Inc()
	}
	if obs.UpstreamLatency != nil {
		obs.UpstreamLatency.WithLabelValues(operation).Observe(obs.DurationMillis(time.Since(start)))
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) apiVersion() string {
	if strings.TrimSpace(c.APIVersion) != "" {
		return c.APIVersion
	}
	return "2.4"
}

func (c *Client) userAgent() string {
	if strings.TrimSpace(c.UserAgent) != "" {
		return c.UserAgent
	}
	return "primer-gateway/1.0"
}
