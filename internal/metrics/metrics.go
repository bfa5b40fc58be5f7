// Package metrics provides Prometheus metrics for the dfm server.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dfm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dfm_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Document metrics
	treeSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dfm_tree_size",
			Help: "Number of folders and files in the most recently loaded tree",
		},
		[]string{"source"},
	)

	documentLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dfm_document_load_duration_seconds",
			Help:    "Time to fetch and parse an explorer document",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	documentLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dfm_document_loads_total",
			Help: "Document loads by source type and outcome",
		},
		[]string{"type", "result"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dfm_tree_cache_lookups_total",
			Help: "Parsed tree cache lookups",
		},
		[]string{"result"},
	)

	// Navigation metrics
	searchQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dfm_search_queries_total",
			Help: "Total search queries",
		},
	)

	searchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dfm_search_results",
			Help:    "Number of matches per search query",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		},
	)

	navigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dfm_navigation_operations_total",
			Help: "Navigation operations by kind",
		},
		[]string{"op"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dfm_sessions_active",
			Help: "Number of open explorer sessions",
		},
	)

	// Event stream metrics
	streamConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dfm_stream_connections_active",
			Help: "Number of active event stream connections",
		},
		[]string{"transport"},
	)

	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dfm_events_total",
			Help: "Total events published",
		},
		[]string{"type"},
	)

	eventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dfm_events_dropped_total",
			Help: "Events dropped because a subscriber was too slow",
		},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dfm_auth_attempts_total",
			Help: "Total bearer token checks",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetTreeSize sets the node count of the tree loaded from source.
func SetTreeSize(source string, size int) {
	treeSize.WithLabelValues(source).Set(float64(size))
}

// RecordDocumentLoad records a fetch-and-parse of a document.
func RecordDocumentLoad(sourceType string, duration time.Duration, success bool) {
	documentLoadDuration.WithLabelValues(sourceType).Observe(duration.Seconds())
	result := "success"
	if !success {
		result = "error"
	}
	documentLoadsTotal.WithLabelValues(sourceType, result).Inc()
}

// RecordCacheLookup records a parsed tree cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordSearch records a search query and its match count.
func RecordSearch(matches int) {
	searchQueriesTotal.Inc()
	searchResults.Observe(float64(matches))
}

// RecordNavigation records a navigation operation such as "navigate" or "back".
func RecordNavigation(op string) {
	navigationsTotal.WithLabelValues(op).Inc()
}

// SetSessionsActive sets the number of open sessions.
func SetSessionsActive(count int) {
	sessionsActive.Set(float64(count))
}

// StreamOpened and StreamClosed track event stream connections by transport.
func StreamOpened(transport string) {
	streamConnectionsActive.WithLabelValues(transport).Inc()
}

func StreamClosed(transport string) {
	streamConnectionsActive.WithLabelValues(transport).Dec()
}

// RecordEvent records an event publication.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordEventDropped records an event a subscriber could not receive.
func RecordEventDropped() {
	eventsDroppedTotal.Inc()
}

// RecordAuthAttempt records a bearer token check.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, RouteLabel(r.URL.Path), rw.statusCode, time.Since(start))
	})
}

// RouteLabel collapses session IDs so paths stay low-cardinality:
// /api/v1/sessions/<id>/children becomes /api/v1/sessions/{id}/children.
func RouteLabel(path string) string {
	const prefix = "/api/v1/sessions/"
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok || rest == "" {
		return path
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return prefix + "{id}" + rest[i:]
	}
	return prefix + "{id}"
}
