package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConsoleMetrics counts poll and command activity for the /metrics endpoint.
type ConsoleMetrics struct {
	PollsTotal        *prometheus.CounterVec
	PollFailuresTotal *prometheus.CounterVec
	StaleDropsTotal   *prometheus.CounterVec

	CommandsTotal  *prometheus.CounterVec
	RollbacksTotal *prometheus.CounterVec
}

func NewConsoleMetrics() *ConsoleMetrics {
	return &ConsoleMetrics{
		PollsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_polls_total",
				Help: "Completed poll fetches by resource class",
			},
			[]string{"resource"},
		),
		PollFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_poll_failures_total",
				Help: "Poll fetches skipped due to transport failure",
			},
			[]string{"resource"},
		),
		StaleDropsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_stale_poll_drops_total",
				Help: "Poll responses dropped because the cache moved on",
			},
			[]string{"resource"},
		),
		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_commands_total",
				Help: "Dispatched device commands by command and outcome",
			},
			[]string{"cmd", "outcome"},
		),
		RollbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_rollbacks_total",
				Help: "Optimistic updates rolled back after a failed send",
			},
			[]string{"cmd"},
		),
	}
}
