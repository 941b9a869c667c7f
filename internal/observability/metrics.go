// Package observability provides Prometheus metrics for the application.
package observability

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ytgrab"

// Pipeline stages timed by StageDuration.
const (
	StageProbe    = "probe"
	StageDownload = "download"
	StageUpload   = "upload"
)

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	// Request metrics
	RequestsTotal      *prometheus.CounterVec
	RequestsFailed     *prometheus.CounterVec
	RequestsSucceeded  prometheus.Counter
	RequestsInProgress prometheus.Gauge
	StageDuration      *prometheus.HistogramVec
	UploadedBytes      prometheus.Counter

	// Cleanup metrics
	CleanupFilesTotal    prometheus.Counter
	CleanupFailuresTotal prometheus.Counter

	ThumbnailFailures prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Proxy metrics
	ProxyRequestsTotal *prometheus.CounterVec
	ProxyFailures      *prometheus.CounterVec
	ProxiesAvailable   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates all application metrics and registers them with reg.
// Passing a fresh prometheus.NewRegistry() keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "total",
			Help:      "Total number of media requests by quality tag",
		}, []string{"quality"}),
		RequestsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "failed_total",
			Help:      "Total number of failed media requests by error kind",
		}, []string{"kind"}),
		RequestsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "succeeded_total",
			Help:      "Total number of media requests delivered successfully",
		}),
		RequestsInProgress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "in_progress",
			Help:      "Number of media requests currently in progress",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "stage_duration_seconds",
			Help:      "Histogram of pipeline stage duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		UploadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "uploaded_bytes_total",
			Help:      "Total bytes handed to the delivery channel",
		}),

		CleanupFilesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "files_total",
			Help:      "Total number of files removed",
		}),
		CleanupFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleanup",
			Name:      "failures_total",
			Help:      "Total number of files that could not be removed",
		}),

		ThumbnailFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "thumbnail",
			Name:      "failures_total",
			Help:      "Total number of preview image fetches that failed",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ProxyRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Total number of requests made through proxies",
		}, []string{"proxy"}),
		ProxyFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "failures_total",
			Help:      "Total number of proxy failures",
		}, []string{"proxy"}),
		ProxiesAvailable: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "available",
			Help:      "Number of currently available proxies",
		}),

		gatherer: reg,
	}
}

// Handler returns the Prometheus HTTP handler for the registry the metrics live in.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}

	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// StageTimer returns a function that records the duration of stage when called.
func (m *Metrics) StageTimer(stage string) func() {
	start := time.Now()

	return func() {
		if m == nil {
			return
		}

		m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// RecordRequestStarted counts a new request for quality.
func (m *Metrics) RecordRequestStarted(quality string) {
	if m == nil {
		return
	}

	m.RequestsTotal.WithLabelValues(quality).Inc()
	m.RequestsInProgress.Inc()
}

// RecordRequestSucceeded records a delivered request.
func (m *Metrics) RecordRequestSucceeded() {
	if m == nil {
		return
	}

	m.RequestsSucceeded.Inc()
	m.RequestsInProgress.Dec()
}

// RecordRequestFailed records a failed request of the given error kind.
func (m *Metrics) RecordRequestFailed(kind string) {
	if m == nil {
		return
	}

	m.RequestsFailed.WithLabelValues(kind).Inc()
	m.RequestsInProgress.Dec()
}

// RecordUpload adds size bytes to the uploaded total.
func (m *Metrics) RecordUpload(size int64) {
	if m == nil || size <= 0 {
		return
	}

	m.UploadedBytes.Add(float64(size))
}

// RecordCleanup records removed and failed file counts.
func (m *Metrics) RecordCleanup(removed, failed int) {
	if m == nil {
		return
	}

	m.CleanupFilesTotal.Add(float64(removed))
	m.CleanupFailuresTotal.Add(float64(failed))
}

// RecordThumbnailFailure counts a failed preview image fetch.
func (m *Metrics) RecordThumbnailFailure() {
	if m == nil {
		return
	}

	m.ThumbnailFailures.Inc()
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProxyRequest records a proxy request.
func (m *Metrics) RecordProxyRequest(proxy string) {
	if m == nil {
		return
	}

	m.ProxyRequestsTotal.WithLabelValues(proxy).Inc()
}

// RecordProxyFailure records a proxy failure.
func (m *Metrics) RecordProxyFailure(proxy string) {
	if m == nil {
		return
	}

	m.ProxyFailures.WithLabelValues(proxy).Inc()
}

// SetProxiesAvailable sets the number of available proxies.
func (m *Metrics) SetProxiesAvailable(count int) {
	if m == nil {
		return
	}

	m.ProxiesAvailable.Set(float64(count))
}

// Goroutines reports the current goroutine count for readiness output.
func Goroutines() int {
	return runtime.NumGoroutine()
}
