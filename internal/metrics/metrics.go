package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for an extraction run.
type Metrics struct {
	Registry          *prometheus.Registry
	StrategyAttempts  *prometheus.CounterVec
	ProductsExtracted prometheus.Counter
	PopupsDismissed   prometheus.Counter
	RunDuration       prometheus.Histogram
	RunsTotal         *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_strategy_attempts_total",
			Help: "Acquisition strategies attempted, by strategy and result.",
		},
		[]string{"strategy", "result"},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "extractor_products_extracted_total",
			Help: "Product records retained from live pages.",
		},
	)
	popups := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "extractor_popups_dismissed_total",
			Help: "Interstitials and popups dismissed during navigation.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extractor_run_duration_seconds",
			Help:    "Wall time of a full extraction run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractor_runs_total",
			Help: "Extraction runs by final status.",
		},
		[]string{"status"},
	)

	registry.MustRegister(attempts, products, popups, duration, runs)

	return &Metrics{
		Registry:          registry,
		StrategyAttempts:  attempts,
		ProductsExtracted: products,
		PopupsDismissed:   popups,
		RunDuration:       duration,
		RunsTotal:         runs,
	}
}

// ObserveStrategy records one strategy attempt.
func (m *Metrics) ObserveStrategy(strategy string, ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.StrategyAttempts.WithLabelValues(strategy, result).Inc()
}

func (m *Metrics) AddProducts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ProductsExtracted.Add(float64(n))
}

func (m *Metrics) AddPopups(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PopupsDismissed.Add(float64(n))
}

// ObserveRun records the final status and duration of a run.
func (m *Metrics) ObserveRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
