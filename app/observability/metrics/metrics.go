package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	LocationEventsTotal     metric.Int64Counter
	CooldownRejectionsTotal metric.Int64Counter
	EmptyResultsTotal       metric.Int64Counter
	NarrationsTotal         metric.Int64Counter
	VoiceRepliesTotal       metric.Int64Counter
	UpstreamErrorsTotal     metric.Int64Counter
	PipelineDurationSeconds metric.Float64Histogram
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("NearbyGuideBot")
		var err error
		m := &AppMetrics{}

		m.LocationEventsTotal, err = meter.Int64Counter(
			"location_events_total",
			metric.WithDescription("Total number of location events received"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create location_events_total: %v", err)
		}

		m.CooldownRejectionsTotal, err = meter.Int64Counter(
			"cooldown_rejections_total",
			metric.WithDescription("Total number of events rejected by the per-user cooldown"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create cooldown_rejections_total: %v", err)
		}

		m.EmptyResultsTotal, err = meter.Int64Counter(
			"empty_results_total",
			metric.WithDescription("Total number of pipelines that found no fresh candidates"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create empty_results_total: %v", err)
		}

		m.NarrationsTotal, err = meter.Int64Counter(
			"narrations_total",
			metric.WithDescription("Total number of narrations delivered"),
			metric.WithUnit("{reply}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create narrations_total: %v", err)
		}

		m.VoiceRepliesTotal, err = meter.Int64Counter(
			"voice_replies_total",
			metric.WithDescription("Total number of narrations delivered as voice attachments"),
			metric.WithUnit("{reply}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create voice_replies_total: %v", err)
		}

		m.UpstreamErrorsTotal, err = meter.Int64Counter(
			"upstream_errors_total",
			metric.WithDescription("Total number of upstream call failures (suggest, model, speech)"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create upstream_errors_total: %v", err)
		}

		m.PipelineDurationSeconds, err = meter.Float64Histogram(
			"pipeline_duration_seconds",
			metric.WithDescription("Duration of accepted location pipelines in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create pipeline_duration_seconds: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		// This indicates a programming error - InitAppMetrics must be called at startup.
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
