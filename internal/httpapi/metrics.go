package httpapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/agreementd/internal/pipeline"
)

// Serving-layer Prometheus metrics, scraped at /metrics. The pipeline's
// internal metrics are OpenTelemetry; these cover the HTTP surface.
var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agreementd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, endpoint and status class",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agreementd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds by method and endpoint",
			Buckets:   []float64{0.005, 0.05, 0.25, 1, 5, 15, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agreementd",
			Name:      "extractions_total",
			Help:      "Total extraction runs by envelope status",
		},
		[]string{"status"},
	)

	extractionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "agreementd",
			Name:      "extraction_confidence",
			Help:      "Confidence scores of extraction runs",
			Buckets:   []float64{0.0, 0.2, 0.4, 0.6, 0.8, 1.0},
		},
	)
)

// metricsMiddleware records request count and duration per endpoint.
func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "/"
			}
			requestsTotal.WithLabelValues(method, endpoint, statusLabel(c.Response().Status)).Inc()
			requestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// observeRun records envelope-level outcomes.
func observeRun(result *pipeline.Result) {
	if result == nil {
		return
	}
	extractionsTotal.WithLabelValues(string(result.Status)).Inc()
	if result.Agreement != nil {
		extractionConfidence.Observe(result.Agreement.ConfidenceScore)
	}
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
