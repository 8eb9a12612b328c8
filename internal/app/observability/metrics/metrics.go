package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal    metric.Int64Counter
	HTTPRequestDuration  metric.Float64Histogram
	SignalsIngestedTotal metric.Int64Counter
	RiskEvaluationsTotal metric.Int64Counter
	RiskDetectionsTotal  metric.Int64Counter
	AlertDispatchesTotal metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("tripwatch")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.SignalsIngestedTotal, err = meter.Int64Counter(
			"signals_ingested_total",
			metric.WithDescription("Total number of location and motion signals ingested"),
			metric.WithUnit("{signal}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create signals_ingested_total: %v", err)
		}

		m.RiskEvaluationsTotal, err = meter.Int64Counter(
			"risk_evaluations_total",
			metric.WithDescription("Total number of risk evaluation cycles"),
			metric.WithUnit("{evaluation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create risk_evaluations_total: %v", err)
		}

		m.RiskDetectionsTotal, err = meter.Int64Counter(
			"risk_detections_total",
			metric.WithDescription("Total number of risk rule detections by rule"),
			metric.WithUnit("{detection}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create risk_detections_total: %v", err)
		}

		m.AlertDispatchesTotal, err = meter.Int64Counter(
			"alert_dispatches_total",
			metric.WithDescription("Total number of guardian alert dispatches by channel outcome"),
			metric.WithUnit("{dispatch}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create alert_dispatches_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
