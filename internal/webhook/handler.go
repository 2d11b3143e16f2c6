package webhook

import (
	"io"
	"net/http"

	"github.com/noah-isme/primer-gateway/internal/common"
	"github.com/noah-isme/primer-gateway/internal/obs"
)

// Handler receives the processor's webhook notifications: verify the
// signature on the raw bytes, parse, dispatch, acknowledge.
type Handler struct {
	Verifier   Verifier
	Dispatcher *Dispatcher
}

// Handle processes one inbound notification. Once the signature check and
// JSON parse succeed the response is always 200; handler-level failures stay
// internal (see Dispatcher.Dispatch).
func (h Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// A failed body read is a transport fault, not a malformed payload.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.count("unknown", "read_error")
		common.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Unable to read payload"})
		return
	}

	if !h.Verifier.Verify(body, r.Header.Get(SignatureHeader)) {
		h.count("unknown", "invalid_signature")
		common.JSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		return
	}

	event, err := ParseEvent(body)
	if err != nil {
		h.count("unknown", "malformed")
		common.JSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload"})
		return
	}

	ack := h.Dispatcher.Dispatch(r.Context(), event)
	h.count(event.EventType, "ok")
	common.JSON(w, http.StatusOK, ack)
}

func (h Handler) count(eventType, result string) {
	if obs.WebhookEventsTotal != nil {
		obs.WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
	}
}
