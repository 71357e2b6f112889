// Package metrics provides Prometheus instrumentation for the search
// protection pipeline: verdict and block-reason counters, verification
// call latency, cache effectiveness and retention activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueriesTotal counts evaluated queries, labeled by verdict:
	// "allow" or "block".
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "searchguard_queries_total",
		Help: "Total number of search queries evaluated",
	}, []string{"verdict"})

	// BlockedTotal counts blocked queries by reason.
	BlockedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "searchguard_blocked_total",
		Help: "Total number of blocked search queries by reason",
	}, []string{"reason"})

	// VerificationSeconds records the latency of bot-verification calls.
	VerificationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "searchguard_verification_seconds",
		Help:    "Bot verification call latency in seconds",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	// AuditWriteFailures counts log inserts that failed. The verdict is
	// unaffected; this is the observability signal for storage faults.
	AuditWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "searchguard_audit_write_failures_total",
		Help: "Total number of failed block event inserts",
	})

	// CacheReads counts aggregate view reads, labeled "hit" or "miss".
	CacheReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "searchguard_cache_reads_total",
		Help: "Aggregate view cache reads by result",
	}, []string{"result"})

	// EventsPurged counts block events removed by retention cleanup.
	EventsPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "searchguard_events_purged_total",
		Help: "Total number of block events removed by retention cleanup",
	})
)

func init() {
	prometheus.MustRegister(
		QueriesTotal,
		BlockedTotal,
		VerificationSeconds,
		AuditWriteFailures,
		CacheReads,
		EventsPurged,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
