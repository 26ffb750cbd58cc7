package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// weather sampling service.
type Metrics struct {
	FetchSuccess  prometheus.Counter
	FetchFailures prometheus.Counter
	FetchNoData   prometheus.Counter
	Replacements  prometheus.Counter
	FetchDuration prometheus.Histogram

	BulletinsGenerated prometheus.Counter
	BulletinDuration   prometheus.Histogram
	LastBatchSize      prometheus.Gauge
	UnavailableRegions prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchSuccess,
		m.FetchFailures,
		m.FetchNoData,
		m.Replacements,
		m.FetchDuration,
		m.BulletinsGenerated,
		m.BulletinDuration,
		m.LastBatchSize,
		m.UnavailableRegions,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_sampler",
			Name:      "fetch_success_total",
			Help:      "Forecast fetches that returned usable data.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_sampler",
			Name:      "fetch_failures_total",
			Help:      "Forecast fetches that failed at the transport layer.",
		}),
		FetchNoData: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_sampler",
			Name:      "fetch_no_data_total",
			Help:      "Forecast fetches where upstream had no data for the region.",
		}),
		Replacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_sampler",
			Name:      "replacements_total",
			Help:      "Failed regions replaced by another city from the same timezone.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_sampler",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single upstream forecast fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		BulletinsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_sampler",
			Name:      "bulletins_generated_total",
			Help:      "Bulletins produced, scheduled and on-demand.",
		}),
		BulletinDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_sampler",
			Name:      "bulletin_duration_seconds",
			Help:      "Duration of a complete sample-fetch-normalize cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastBatchSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_sampler",
			Name:      "last_batch_size",
			Help:      "Number of regions in the most recent bulletin.",
		}),
		UnavailableRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_sampler",
			Name:      "unavailable_regions",
			Help:      "Regions marked unavailable in the most recent bulletin.",
		}),
	}
}
