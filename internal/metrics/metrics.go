// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripwiser",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPCs handled.",
		},
		[]string{"procedure", "code"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tripwiser",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of RPCs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"procedure"},
	)

	settlementSuggestions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tripwiser",
			Subsystem: "settlements",
			Name:      "suggestions_total",
			Help:      "Total number of settlement transactions suggested.",
		},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tripwiser",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Total number of background job runs.",
		},
		[]string{"job", "success"},
	)

	invitationsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tripwiser",
			Subsystem: "collaborators",
			Name:      "invitations_expired_total",
			Help:      "Total number of pending invitations expired by the sweep.",
		},
	)
)

func init() {
	Registry.MustRegister(
		rpcRequests,
		rpcDuration,
		settlementSuggestions,
		jobRuns,
		invitationsExpired,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRPC records one completed RPC. code is "ok" on success.
func RecordRPC(procedure, code string, duration time.Duration) {
	rpcRequests.WithLabelValues(procedure, code).Inc()
	rpcDuration.WithLabelValues(procedure).Observe(duration.Seconds())
}

// RecordSettlementSuggestions counts the transactions of one settlement plan.
func RecordSettlementSuggestions(n int) {
	settlementSuggestions.Add(float64(n))
}

// RecordJobRun records the outcome of a background job run.
func RecordJobRun(job string, err error) {
	success := "true"
	if err != nil {
		success = "false"
	}
	jobRuns.WithLabelValues(job, success).Inc()
}

// RecordInvitationsExpired counts invitations expired by one sweep.
func RecordInvitationsExpired(n int64) {
	invitationsExpired.Add(float64(n))
}
