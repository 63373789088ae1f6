// Package observability holds the Prometheus metric collectors and the
// OpenTelemetry tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marina_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marina_rate_limit_rejections_total",
		Help: "Total number of requests rejected by the rate limiter",
	}, []string{"resource"})

	// CarrierAssignments counts load attach and detach operations by outcome.
	CarrierAssignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marina_carrier_assignments_total",
		Help: "Total number of load attach and detach operations by outcome",
	}, []string{"operation", "outcome"})
)
