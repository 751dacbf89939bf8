package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "vaccination_engine"

// Metrics stores Prometheus collectors used by the API, reminders and cleanup.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDuration        *prometheus.HistogramVec
	vaccinationsScheduledTotal prometheus.Counter
	vaccinationsCompletedTotal prometheus.Counter
	remindersSentTotal         *prometheus.CounterVec
	remindersFailedTotal       *prometheus.CounterVec
	reminderSendDuration       *prometheus.HistogramVec
	cleanupRunsTotal           *prometheus.CounterVec
	cleanupDeletedTotal        prometheus.Counter
	cleanupDuration            prometheus.Histogram
	cleanupLastSuccess         prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		vaccinationsScheduledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vaccinations_scheduled_total",
			Help:      "Total number of vaccinations scheduled.",
		}),
		vaccinationsCompletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vaccinations_completed_total",
			Help:      "Total number of completion requests that succeeded.",
		}),
		remindersSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reminders_sent_total",
				Help:      "Total number of reminders delivered by channel.",
			},
			[]string{"channel"},
		),
		remindersFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reminders_failed_total",
				Help:      "Total number of reminder deliveries that failed by channel and reason.",
			},
			[]string{"channel", "reason"},
		),
		reminderSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "reminder_send_duration_seconds",
				Help:      "Provider send duration in seconds grouped by channel.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"channel"},
		),
		cleanupRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cleanup_runs_total",
				Help:      "Total number of cleanup runs by result.",
			},
			[]string{"result"},
		),
		cleanupDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cleanup_deleted_total",
			Help:      "Total number of stale vaccinations deleted by cleanup.",
		}),
		cleanupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "cleanup_duration_seconds",
			Help:      "Cleanup run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		cleanupLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "cleanup_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful cleanup run.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.vaccinationsScheduledTotal,
		m.vaccinationsCompletedTotal,
		m.remindersSentTotal,
		m.remindersFailedTotal,
		m.reminderSendDuration,
		m.cleanupRunsTotal,
		m.cleanupDeletedTotal,
		m.cleanupDuration,
		m.cleanupLastSuccess,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncVaccinationScheduled() {
	if m == nil {
		return
	}
	m.vaccinationsScheduledTotal.Inc()
}

func (m *Metrics) IncVaccinationCompleted() {
	if m == nil {
		return
	}
	m.vaccinationsCompletedTotal.Inc()
}

func (m *Metrics) IncReminderSent(channel string) {
	if m == nil {
		return
	}
	m.remindersSentTotal.WithLabelValues(normalizeLabel(channel)).Inc()
}

func (m *Metrics) IncReminderFailed(channel string, reason string) {
	if m == nil {
		return
	}
	m.remindersFailedTotal.WithLabelValues(normalizeLabel(channel), normalizeLabel(reason)).Inc()
}

func (m *Metrics) ObserveReminderSendDuration(channel string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reminderSendDuration.WithLabelValues(normalizeLabel(channel)).Observe(nonNegativeSeconds(duration))
}

// ObserveCleanupRun records one cleanup run. deleted is only counted on success.
func (m *Metrics) ObserveCleanupRun(err error, deleted int64, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}

	m.cleanupDuration.Observe(nonNegativeSeconds(duration))
	if err != nil {
		m.cleanupRunsTotal.WithLabelValues("failure").Inc()
		return
	}

	m.cleanupRunsTotal.WithLabelValues("success").Inc()
	m.cleanupDeletedTotal.Add(float64(deleted))
	m.cleanupLastSuccess.Set(float64(finishedAt.Unix()))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}

func nonNegativeSeconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
