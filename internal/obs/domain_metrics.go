package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ClientSessionTotal counts checkout session creation outcomes.
	ClientSessionTotal *prometheus.CounterVec
	// ChargeTotal counts vaulted-token charge outcomes.
	ChargeTotal *prometheus.CounterVec
	// UpstreamAttemptsTotal counts individual outbound calls to the processor,
	// including retries.
	UpstreamAttemptsTotal *prometheus.CounterVec
	// UpstreamLatency records outbound call latency in milliseconds.
	UpstreamLatency *prometheus.HistogramVec
	// WebhookEventsTotal counts inbound webhook processing outcomes.
	WebhookEventsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ClientSessionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_session_total",
			Help:      "Count of client session creation outcomes.",
		}, []string{"result"})
		ChargeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charge_total",
			Help:      "Count of payment-method charge outcomes.",
		}, []string{"result"})
		UpstreamAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_attempts_total",
			Help:      "Outbound processor call attempts by operation and outcome.",
		}, []string{"operation", "result"})
		UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_attempt_duration_ms",
			Help:      "Latency of outbound processor call attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"operation"})
		WebhookEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Count of processed webhook notifications by event type and outcome.",
		}, []string{"event_type", "result"})

		mustRegisterCollector(reg, ClientSessionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ClientSessionTotal = v
			}
		})
		mustRegisterCollector(reg, ChargeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ChargeTotal = v
			}
		})
		mustRegisterCollector(reg, UpstreamAttemptsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				UpstreamAttemptsTotal = v
			}
		})
		mustRegisterCollector(reg, UpstreamLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				UpstreamLatency = v
			}
		})
		mustRegisterCollector(reg, WebhookEventsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				WebhookEventsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
