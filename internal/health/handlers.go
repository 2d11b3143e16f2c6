package health

import (
	"net/http"
	"time"

	"github.com/noah-isme/primer-gateway/internal/common"
)

// Handler exposes HTTP handlers for health endpoints. The gateway is
// stateless, so health is a matter of process liveness plus the readiness
// gate flipped during graceful shutdown.
type Handler struct {
	Env     string
	Version string
	Now     func() time.Time
}

// Health reports overall service status for the merchant frontend.
func (h Handler) Health(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"environment": h.Env,
		"version":     h.Version,
	})
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports whether the process should receive traffic. It flips to 503
// as soon as shutdown begins so load balancers drain before the listener
// closes.
func (h Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !IsReady() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
