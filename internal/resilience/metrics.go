package resilience

import "github.com/prometheus/client_golang/prometheus"

// Breaker collectors share the gateway's metric namespace so dashboards can
// correlate open-circuit windows with upstream attempt failures.
var (
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "primer_gateway",
			Name:      "breaker_state",
			Help:      "Current breaker state per upstream target: 0=closed,1=open,2=half-open",
		},
		[]string{"target"},
	)
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primer_gateway",
			Name:      "breaker_transition_total",
			Help:      "Count of breaker state transitions per upstream target",
		},
		[]string{"target", "from", "to"},
	)
	BreakerOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primer_gateway",
			Name:      "breaker_open_total",
			Help:      "Number of times a breaker opened against an upstream target",
		},
		[]string{"target"},
	)
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal)
}
