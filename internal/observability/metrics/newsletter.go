// Package metrics provides Prometheus metrics for the newsletter pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NewsletterMetrics contains Prometheus metrics for selection and delivery
// operations.
type NewsletterMetrics struct {
	registry *prometheus.Registry

	selectionsTotal   *prometheus.CounterVec
	deliveriesTotal   *prometheus.CounterVec
	forecastFetches   *prometheus.CounterVec
	batchDuration     prometheus.Histogram
	batchProfiles     prometheus.Gauge
	selectionDuration prometheus.Histogram
}

// NewNewsletterMetrics creates and registers new newsletter metrics.
func NewNewsletterMetrics(registry *prometheus.Registry) (*NewsletterMetrics, error) {
	m := &NewsletterMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *NewsletterMetrics) initMetrics() {
	m.selectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_selections_total",
			Help: "Total number of recommendation selections by outcome",
		},
		[]string{"status"}, // status: selected, no_match, missing_data, error
	)

	m.deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_deliveries_total",
			Help: "Total number of outbound deliveries by channel and outcome",
		},
		[]string{"channel", "status"}, // status: success, error, skipped
	)

	m.forecastFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsletter_forecast_fetches_total",
			Help: "Total number of environmental data fetches",
		},
		[]string{"status"},
	)

	m.batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_batch_duration_seconds",
			Help:    "Duration of newsletter batch runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	m.batchProfiles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsletter_batch_profiles",
			Help: "Number of profiles evaluated by the last batch run",
		},
	)

	m.selectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_selection_duration_seconds",
			Help:    "Duration of a single profile's selection",
			Buckets: prometheus.DefBuckets,
		},
	)
}

// Describe implements prometheus.Collector.
func (m *NewsletterMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.selectionsTotal.Describe(ch)
	m.deliveriesTotal.Describe(ch)
	m.forecastFetches.Describe(ch)
	m.batchDuration.Describe(ch)
	m.batchProfiles.Describe(ch)
	m.selectionDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *NewsletterMetrics) Collect(ch chan<- prometheus.Metric) {
	m.selectionsTotal.Collect(ch)
	m.deliveriesTotal.Collect(ch)
	m.forecastFetches.Collect(ch)
	m.batchDuration.Collect(ch)
	m.batchProfiles.Collect(ch)
	m.selectionDuration.Collect(ch)
}

// RecordSelection increments the selection counter for an outcome.
func (m *NewsletterMetrics) RecordSelection(status string) {
	m.selectionsTotal.WithLabelValues(status).Inc()
}

// RecordSelectionDuration observes one profile's selection duration.
func (m *NewsletterMetrics) RecordSelectionDuration(d time.Duration) {
	m.selectionDuration.Observe(d.Seconds())
}

// RecordDelivery increments the delivery counter for a channel and outcome.
func (m *NewsletterMetrics) RecordDelivery(channel, status string) {
	m.deliveriesTotal.WithLabelValues(channel, status).Inc()
}

// RecordForecastFetch increments the forecast fetch counter.
func (m *NewsletterMetrics) RecordForecastFetch(status string) {
	m.forecastFetches.WithLabelValues(status).Inc()
}

// RecordBatch records the duration and size of a completed batch run.
func (m *NewsletterMetrics) RecordBatch(d time.Duration, profiles int) {
	m.batchDuration.Observe(d.Seconds())
	m.batchProfiles.Set(float64(profiles))
}
