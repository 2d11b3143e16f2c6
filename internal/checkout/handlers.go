package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/noah-isme/primer-gateway/internal/common"
	"github.com/noah-isme/primer-gateway/internal/obs"
	"github.com/noah-isme/primer-gateway/internal/primer"
)

// Gateway is the outbound surface the handlers need from the processor
// client.
type Gateway interface {
	CreateClientSession(ctx context.Context, payload primer.ClientSessionPayload) (*primer.ClientSession, error)
	ChargePaymentMethod(ctx context.Context, payload primer.ChargePayload) (json.RawMessage, error)
	GetPayment(ctx context.Context, id string) (json.RawMessage, error)
}

// Handler serves the merchant-facing checkout endpoints.
type Handler struct {
	Gateway    Gateway
	Normalizer primer.Normalizer
	Validate   *validator.Validate
	Logger     zerolog.Logger

	// Debug attaches upstream error bodies to responses. Off in production
	// so processor internals never reach a browser.
	Debug bool
}

// NewValidator returns the shared request validator with field names taken
// from json tags, so validation details read like the wire format.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// CreateClientSession accepts either inbound session shape, normalizes it to
// the canonical processor payload and creates the client session upstream.
func (h *Handler) CreateClientSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		count(obs.ClientSessionTotal, "read_error")
		h.writeError(w, common.ValidationError([]string{"Unable to read request body"}), "")
		return
	}

	req, err := primer.ParseSessionRequest(body)
	if err != nil {
		count(obs.ClientSessionTotal, "validation_error")
		h.writeError(w, common.ValidationError([]string{"Request body must be a valid JSON object"}), "")
		return
	}

	var toValidate any
	if req.Simplified != nil {
		toValidate = req.Simplified
	} else {
		toValidate = req.Native
	}
	if err := h.Validate.Struct(toValidate); err != nil {
		count(obs.ClientSessionTotal, "validation_error")
		h.writeError(w, common.ValidationError(validationDetails(err)), "")
		return
	}

	payload, err := h.Normalizer.Normalize(req)
	if err != nil {
		count(obs.ClientSessionTotal, "validation_error")
		h.writeError(w, common.ValidationError([]string{err.Error()}), "")
		return
	}

	session, err := h.Gateway.CreateClientSession(r.Context(), payload)
	if err != nil {
		count(obs.ClientSessionTotal, "upstream_error")
		h.writeError(w, err, "Failed to create client session")
		return
	}

	count(obs.ClientSessionTotal, "success")
	h.Logger.Info().
		Str("order_id", payload.OrderID).
		Int64("amount", payload.Amount).
		Str("currency", payload.CurrencyCode).
		Msg("client session created")
	common.JSON(w, http.StatusOK, map[string]any{
		"clientToken": session.ClientToken,
		"orderId":     payload.OrderID,
		"amount":      payload.Amount,
		"currency":    payload.CurrencyCode,
		"expiresAt":   session.ExpiresAt,
	})
}

// ChargePaymentMethod charges a vaulted payment-method token server side.
func (h *Handler) ChargePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req primer.ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		count(obs.ChargeTotal, "validation_error")
		h.writeError(w, common.ValidationError([]string{"Request body must be a valid JSON object"}), "")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		count(obs.ChargeTotal, "validation_error")
		h.writeError(w, common.ValidationError(validationDetails(err)), "")
		return
	}

	payload := h.Normalizer.ChargePayloadFrom(req)
	payment, err := h.Gateway.ChargePaymentMethod(r.Context(), payload)
	if err != nil {
		count(obs.ChargeTotal, "upstream_error")
		h.writeError(w, err, "Failed to charge payment method")
		return
	}

	count(obs.ChargeTotal, "success")
	h.Logger.Info().
		Str("order_id", payload.OrderID).
		Int64("amount", payload.Amount).
		Str("currency", payload.CurrencyCode).
		Msg("payment method charged")
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"payment": payment,
		"message": "Payment charged successfully",
	})
}

// GetPayment proxies a payment status lookup, returning the processor's
// payment object untouched.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, common.ValidationError([]string{"Payment ID is required"}), "")
		return
	}

	payment, err := h.Gateway.GetPayment(r.Context(), id)
	if err != nil {
		var upstream *primer.UpstreamError
		if errors.As(err, &upstream) {
			common.JSON(w, upstreamStatus(upstream), map[string]any{
				"error":   "Failed to fetch payment status",
				"details": upstream.Body,
			})
			return
		}
		h.writeError(w, err, "Failed to fetch payment status")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payment)
}

// writeError maps the error taxonomy onto the response contract: validation
// details as 400 lists, configuration faults as fixed 500s, upstream failures
// with the processor's status and optional debug body.
func (h *Handler) writeError(w http.ResponseWriter, err error, message string) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case common.CodeValidation:
			details, _ := appErr.Details.([]string)
			common.JSONValidationError(w, details)
		default:
			common.JSONError(w, appErr.HTTPStatus, appErr.Message, nil, false)
		}
		return
	}

	if errors.Is(err, primer.ErrNotConfigured) {
		cfgErr := common.ConfigurationError("Primer API key is not configured. Set PRIMER_API_KEY in the environment.")
		common.JSONError(w, cfgErr.HTTPStatus, cfgErr.Message, nil, false)
		return
	}

	var upstream *primer.UpstreamError
	if errors.As(err, &upstream) {
		h.Logger.Error().Int("status", upstream.Status).Msg(message)
		common.JSONError(w, upstreamStatus(upstream), message, upstream.Body, h.Debug)
		return
	}

	h.Logger.Error().Err(err).Msg(message)
	var debug any
	if h.Debug {
		debug = err.Error()
	}
	common.JSONError(w, http.StatusInternalServerError, message, debug, h.Debug)
}

// upstreamStatus maps the processor's status onto our response, falling back
// to 500 for anything that is not a valid HTTP status.
func upstreamStatus(e *primer.UpstreamError) int {
	if e.Status >= 400 && e.Status <= 599 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldDetail(fe))
	}
	return details
}

func fieldDetail(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.Join(strings.Fields(fe.Param()), ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func count(vec *prometheus.CounterVec, result string) {
	if vec != nil {
		vec.WithLabelValues(result).Inc()
	}
}
