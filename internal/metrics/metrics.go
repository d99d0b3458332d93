package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay 结果标签
const (
	RelayStreamed            = "streamed"
	RelayInvalidRequest      = "invalid_request"
	RelayNotFound            = "not_found"
	RelayInvalidTarget       = "invalid_target"
	RelayUpstreamUnavailable = "upstream_unavailable"
	RelayUpstreamStatus      = "upstream_status"
	RelayStoreError          = "store_error"
	RelayStreamAborted       = "stream_aborted"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlink_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, including streamed bodies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// 注册
	LinksRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_links_registered_total",
			Help: "Total number of short links written to the store",
		},
	)

	CodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_code_collisions_total",
			Help: "Generated codes that were already present in the store",
		},
	)

	CodeAllocationExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_code_allocation_exhausted_total",
			Help: "Registrations that used the last generated code after every attempt collided",
		},
	)

	LinksStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortlink_links_stored",
			Help: "Number of short links in the store, refreshed by the maintenance job",
		},
	)

	// 代理
	RelayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_relay_requests_total",
			Help: "Relay requests by outcome",
		},
		[]string{"result"},
	)

	RelayBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_relay_bytes_total",
			Help: "Bytes streamed from upstream origins to clients",
		},
	)

	UpstreamLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shortlink_upstream_response_seconds",
			Help:    "Time until upstream response headers were received",
			Buckets: prometheus.DefBuckets,
		},
	)

	// 定时任务
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_maintenance_runs_total",
			Help: "Maintenance task runs by task and result",
		},
		[]string{"task", "result"},
	)
)

// RecordHTTPRequest 记录一次 HTTP 请求
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRelay 记录一次代理结果
func RecordRelay(result string) {
	RelayRequests.WithLabelValues(result).Inc()
}
