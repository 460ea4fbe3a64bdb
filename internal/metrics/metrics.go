// Package metrics exports search and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	astar "github.com/pdrpinto/gridastar"
)

// Metrics implements astar.Observer. Label values are bounded: heuristic
// names come from a fixed set plus "custom", and endpoints are route
// patterns, never raw URLs.
type Metrics struct {
	gatherer prometheus.Gatherer

	searches       *prometheus.CounterVec
	expanded       *prometheus.HistogramVec
	searchDuration *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestTotal   *prometheus.CounterVec
	rejected       *prometheus.CounterVec
}

var _ astar.Observer = (*Metrics)(nil)

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWith(reg, reg)
}

// NewWith registers the collectors on reg and serves them from gatherer.
func NewWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,

		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridastar_searches_total",
			Help: "Finished searches by outcome",
		}, []string{"heuristic", "status", "layers"}),

		expanded: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridastar_search_expanded_nodes",
			Help:    "Nodes closed per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"heuristic"}),

		searchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridastar_search_duration_seconds",
			Help:    "Time spent in a search",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"heuristic"}),

		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridastar_cache_lookups_total",
			Help: "Path cache lookups",
		}, []string{"result"}), // "hit" or "miss"

		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridastar_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),

		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridastar_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "endpoint", "status"}),

		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridastar_http_rejected_total",
			Help: "Requests rejected before reaching a handler",
		}, []string{"reason"}), // "rate_limit"
	}
}

func (m *Metrics) SearchFinished(layers int, heuristic string, status astar.Status, expanded int, elapsed time.Duration) {
	dims := "2d"
	if layers > 1 {
		dims = "3d"
	}
	m.searches.WithLabelValues(heuristic, status.String(), dims).Inc()
	m.expanded.WithLabelValues(heuristic).Observe(float64(expanded))
	m.searchDuration.WithLabelValues(heuristic).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordRequest records HTTP request metrics.
func (m *Metrics) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	m.requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// RecordRejected counts a request turned away by middleware.
func (m *Metrics) RecordRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
