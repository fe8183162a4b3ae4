package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcpkit_requests_total",
			Help: "Total number of MCP endpoint requests",
		},
		[]string{"handler", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "mcpkit_request_duration_seconds",
			Help: "MCP endpoint request duration in seconds",
		},
		[]string{"handler"},
	)

	MiddlewareOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcpkit_middleware_outcomes_total",
			Help: "Middleware completions by outcome (explicit, continued, implicit)",
		},
		[]string{"middleware", "outcome"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcpkit_tool_invocations_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcpkit_cache_lookups_total",
			Help: "Response cache lookups by result (hit, stale, miss, error)",
		},
		[]string{"group", "result"},
	)

	CacheSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mcpkit_cache_swept_total",
			Help: "Total number of expired cache entries removed",
		},
	)

	RegistryCapabilities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcpkit_registry_capabilities",
			Help: "Number of compiled capabilities per kind",
		},
		[]string{"kind"},
	)

	RegistryOverrides = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcpkit_registry_overrides",
			Help: "Number of overridden definition files per kind",
		},
		[]string{"kind"},
	)
)
