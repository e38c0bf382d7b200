package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider calls are the expensive, failure-prone edge of this system, so
// they get the finest-grained counters.
var (
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelfort_provider_calls_total",
			Help: "Outbound DNS/TLS provider calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	DomainsProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelfort_domains_provisioned_total",
			Help: "Domain create attempts by result",
		},
		[]string{"result"},
	)

	CompensationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pixelfort_provider_compensation_failures_total",
			Help: "Rollback deletes that failed and leaked an orphaned provider hostname",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelfort_http_requests_total",
			Help: "Inbound API requests by route pattern and status class",
		},
		[]string{"route", "class"},
	)
)
