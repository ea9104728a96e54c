package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "energy_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	authAttempts *prometheus.CounterVec

	deviceOperations *prometheus.CounterVec

	profileUpdates *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		authAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "auth_attempts_total",
				Help: "Total login/register attempts by kind and result",
			},
			[]string{"kind", "result"},
		)
		deviceOperations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_operations_total",
				Help: "Total device mutations by operation and result",
			},
			[]string{"operation", "result"},
		)
		profileUpdates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "profile_updates_total",
				Help: "Total profile updates by result",
			},
			[]string{"result"},
		)
		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total fleet report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Fleet report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status class",
			},
			[]string{"method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		prometheus.MustRegister(
			authAttempts,
			deviceOperations,
			profileUpdates,
			reportExportTotal,
			reportExportLatency,
			httpRequests,
			httpLatency,
		)

		registerDBMetrics(db, logger)
	})
}

// RecordAuthAttempt counts a login or register attempt.
func RecordAuthAttempt(kind string, success bool) {
	if authAttempts == nil {
		return
	}
	authAttempts.WithLabelValues(kind, resultLabel(success)).Inc()
}

// RecordDeviceOperation counts a device mutation.
func RecordDeviceOperation(operation string, success bool) {
	if deviceOperations == nil {
		return
	}
	deviceOperations.WithLabelValues(operation, resultLabel(success)).Inc()
}

// RecordProfileUpdate counts a profile update.
func RecordProfileUpdate(success bool) {
	if profileUpdates == nil {
		return
	}
	profileUpdates.WithLabelValues(resultLabel(success)).Inc()
}

// RecordReportExport counts a fleet report export and its latency.
func RecordReportExport(format string, success bool, elapsed time.Duration) {
	if reportExportTotal == nil {
		return
	}
	result := resultLabel(success)
	reportExportTotal.WithLabelValues(format, result).Inc()
	reportExportLatency.WithLabelValues(format, result).Observe(elapsed.Seconds())
}

// RecordHTTPRequest counts a served request and its latency.
func RecordHTTPRequest(method string, status int, elapsed time.Duration) {
	if httpRequests == nil {
		return
	}
	httpRequests.WithLabelValues(method, statusClass(status)).Inc()
	httpLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func resultLabel(success bool) string {
	if success {
		return resultSuccess
	}
	return resultError
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
