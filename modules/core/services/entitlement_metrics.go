package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entitlementChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "entitlements",
		Subsystem: "evaluator",
		Name:      "checks_total",
		Help:      "Total number of entitlement evaluations broken down by capability and result.",
	}, []string{"capability", "result"})

	entitlementLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "entitlements",
		Subsystem: "evaluator",
		Name:      "latency_seconds",
		Help:      "Latency distribution for entitlement evaluations.",
		Buckets: []float64{
			0.0005, 0.001, 0.002, 0.005,
			0.01, 0.02, 0.05, 0.1,
			0.2, 0.5, 1, 2,
		},
	}, []string{"capability", "result"})
)

func recordCheckMetrics(capability string, allowed bool, latency time.Duration) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	labels := prometheus.Labels{
		"capability": capability,
		"result":     result,
	}
	entitlementChecks.With(labels).Inc()
	entitlementLatency.With(labels).Observe(latency.Seconds())
}
