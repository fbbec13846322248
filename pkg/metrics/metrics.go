// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled HTTP requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulselog_http_requests_total",
		Help: "Handled HTTP requests.",
	}, []string{"method", "path", "status"})

	// SnapshotFlushes counts snapshot flush attempts by outcome.
	SnapshotFlushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulselog_snapshot_flush_total",
		Help: "Snapshot flush attempts.",
	}, []string{"status"})

	// RecordAccesses counts audited record accesses by kind.
	RecordAccesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulselog_record_access_total",
		Help: "Audited record accesses.",
	}, []string{"kind"})

	// StoreMutations counts document store writes by collection and operation.
	StoreMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulselog_store_mutations_total",
		Help: "Document store mutations.",
	}, []string{"collection", "op"})
)

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
