// Package metrics records per-run pipeline metrics and writes them in the
// Prometheus text format for a node-exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the run metrics. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	rowsLoaded    prometheus.Gauge
	rowsSkipped   prometheus.Gauge
	viewRows      *prometheus.GaugeVec
	viewFailures  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	geoMatched    prometheus.Gauge
	geoPolygons   prometheus.Gauge
	regressionR2  prometheus.Gauge
	lastRunUnix   prometheus.Gauge
}

// NewManager creates a manager on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "malstat",
		subsystem:        "report",
		histogramBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registry = prometheus.NewRegistry()
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	m.rowsLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rows_loaded", Help: "Observations loaded from the source dataset",
	})
	m.rowsSkipped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rows_skipped", Help: "Source rows rejected while loading",
	})
	m.viewRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "view_rows", Help: "Rows in each derived view",
	}, []string{"view"})
	m.viewFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "view_failures_total", Help: "Derived views that could not be built",
	}, []string{"view"})
	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "stage_duration_seconds", Help: "Time spent per pipeline stage",
		Buckets: m.histogramBuckets,
	}, []string{"stage"})
	m.geoMatched = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "geo_matched_entities", Help: "Snapshot entities joined to a polygon",
	})
	m.geoPolygons = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "geo_polygons", Help: "Polygons in the basemap",
	})
	m.regressionR2 = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "regression_r_squared", Help: "R squared of the covariate regression",
	})
	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "last_run_timestamp_seconds", Help: "Unix time of the last report run",
	})
}

// Registry exposes the underlying registry for gathering.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordLoad sets the dataset load counters.
func (m *Manager) RecordLoad(loaded, skipped int) {
	if m == nil {
		return
	}
	m.rowsLoaded.Set(float64(loaded))
	m.rowsSkipped.Set(float64(skipped))
}

// RecordView sets the row count of a view.
func (m *Manager) RecordView(view string, rows int) {
	if m == nil {
		return
	}
	m.viewRows.WithLabelValues(view).Set(float64(rows))
}

// RecordFailure counts a view that could not be built.
func (m *Manager) RecordFailure(view string) {
	if m == nil {
		return
	}
	m.viewFailures.WithLabelValues(view).Inc()
}

// ObserveStage records the time since start for a stage.
func (m *Manager) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordGeo sets the join coverage gauges.
func (m *Manager) RecordGeo(matched, polygons int) {
	if m == nil {
		return
	}
	m.geoMatched.Set(float64(matched))
	m.geoPolygons.Set(float64(polygons))
}

// RecordRegression sets the fit quality gauge.
func (m *Manager) RecordRegression(r2 float64) {
	if m == nil {
		return
	}
	m.regressionR2.Set(r2)
}

// MarkRun stamps the run time.
func (m *Manager) MarkRun(t time.Time) {
	if m == nil {
		return
	}
	m.lastRunUnix.Set(float64(t.Unix()))
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
