package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// warning monitor.
type Metrics struct {
	RefreshTotal    *prometheus.CounterVec // labels: outcome={success,network_error,decode_error}
	RefreshDuration prometheus.Histogram
	ActiveWarnings  prometheus.Gauge
	FetchStatus     prometheus.Gauge // 0=idle 1=fetching 2=success 3=error

	// IPMA client metrics.
	FeedRequestDuration *prometheus.HistogramVec // labels: feed={warnings,forecast}

	// Safety query metrics.
	Evaluations    *prometheus.CounterVec // labels: verdict={safe,unsafe}
	ForecastsCache *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all monitor metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RefreshTotal,
		m.RefreshDuration,
		m.ActiveWarnings,
		m.FetchStatus,
		m.FeedRequestDuration,
		m.Evaluations,
		m.ForecastsCache,
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
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aviso",
			Name:      "refresh_total",
			Help:      "Warning feed refresh attempts by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aviso",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete warnings refresh (fetch + index swap).",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ActiveWarnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aviso",
			Name:      "indexed_warnings",
			Help:      "Number of warning records in the current index.",
		}),
		FetchStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aviso",
			Name:      "fetch_status",
			Help:      "Current fetch state: 0 idle, 1 fetching, 2 success, 3 error.",
		}),
		FeedRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aviso",
			Name:      "ipma_request_duration_seconds",
			Help:      "IPMA open-data request duration by feed.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"feed"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aviso",
			Name:      "evaluations_total",
			Help:      "Safety evaluations by verdict.",
		}, []string{"verdict"}),
		ForecastsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aviso",
			Name:      "forecast_cache_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
	}
}
