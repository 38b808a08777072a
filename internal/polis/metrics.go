package polis

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	legacyConversionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "polis",
		Name:      "legacy_conversions_total",
		Help:      "Rich fields converted from the legacy editor format on write",
	})
	materializedUploadsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "polis",
		Name:      "materialized_uploads_total",
		Help:      "Inline widget uploads persisted as file assets",
	})
)

func init() {
	prometheus.MustRegister(legacyConversionsCounter, materializedUploadsCounter)
}
