package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Report pipeline metrics
	ReportsGenerated   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	ReportPages        prometheus.Histogram
	OutlinesDrafted    *prometheus.CounterVec
	Retries            prometheus.Counter
	Downloads          *prometheus.CounterVec
	StaleReportsFailed prometheus.Counter

	// Database metrics
	DBConnections prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New registers every metric on the default registerer
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers every metric on reg. Tests pass their own registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 5000000},
			},
			[]string{"method", "path"},
		),

		// Report pipeline metrics
		ReportsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reports_generated_total",
				Help: "Report generation runs by outcome",
			},
			[]string{"status", "report_type"}, // completed, failed, skipped
		),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_generation_duration_seconds",
			Help:    "End-to-end report generation time",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ReportPages: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_pages",
			Help:    "Page count of rendered reports",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 20},
		}),
		OutlinesDrafted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_outlines_total",
				Help: "AI outline drafts by outcome",
			},
			[]string{"status"}, // success, configuration_error, malformed_response, error
		),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "report_retries_total",
			Help: "Manual report retries requested",
		}),
		Downloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "report_downloads_total",
				Help: "Server-mediated report downloads by outcome",
			},
			[]string{"status"},
		),
		StaleReportsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "stale_reports_failed_total",
			Help: "Reports failed by the stale processing sweeper",
		}),

		// Database metrics
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		}),

		// Cache metrics
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			req := c.Request()

			err := next(c)

			// Route pattern, not actual path (e.g., /api/v1/reports/:id)
			path := c.Path()
			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, status).Observe(time.Since(start).Seconds())
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordGeneration records one generation run
func (m *Metrics) RecordGeneration(status, reportType string, duration time.Duration, pages int) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(status, reportType).Inc()
	m.GenerationDuration.Observe(duration.Seconds())
	if pages > 0 {
		m.ReportPages.Observe(float64(pages))
	}
}

// RecordOutline records one AI outline attempt
func (m *Metrics) RecordOutline(status string) {
	if m == nil {
		return
	}
	m.OutlinesDrafted.WithLabelValues(status).Inc()
}

// RecordRetry increments the manual retry counter
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}

// RecordDownload records one server-mediated download
func (m *Metrics) RecordDownload(success bool) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.Downloads.WithLabelValues(status).Inc()
}

// RecordStaleFailed counts reports failed by the sweeper
func (m *Metrics) RecordStaleFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StaleReportsFailed.Add(float64(n))
}

// RecordCache records a cache hit or miss
func (m *Metrics) RecordCache(cacheType string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}

// UpdateDBConnections updates active database connections gauge
func (m *Metrics) UpdateDBConnections(count float64) {
	if m == nil {
		return
	}
	m.DBConnections.Set(count)
}
