// Package observability holds the prometheus collectors shared by the client
// and the sync loop.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	graphqlRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthsync",
		Subsystem: "graphql",
		Name:      "requests_total",
		Help:      "GraphQL calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	graphqlDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "healthsync",
		Subsystem: "graphql",
		Name:      "request_duration_seconds",
		Help:      "Wall time of GraphQL calls from send to parsed response.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	lastSyncGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthsync",
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent accepted totals sync.",
	})
)

func init() {
	prometheus.MustRegister(graphqlRequests, graphqlDuration, lastSyncGauge)
}

// RecordRequest counts one GraphQL call and its latency.
func RecordRequest(operation, outcome string, elapsed time.Duration) {
	graphqlRequests.WithLabelValues(operation, outcome).Inc()
	graphqlDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func RecordSync(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastSyncGauge.Set(float64(ts.Unix()))
}
