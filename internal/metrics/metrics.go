// Package metrics exposes cycle and battery telemetry in Prometheus form.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "transit_board"

// Metrics owns a private registry so tests and the binary never collide on
// the global one.
type Metrics struct {
	Registry *prometheus.Registry

	Cycles          *prometheus.CounterVec
	FetchFailures   *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	BatteryMV       prometheus.Gauge
	BatteryPercent  prometheus.Gauge
	SleepSeconds    prometheus.Gauge
	DeparturesShown prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Refresh cycles by result.",
		}, []string{"result"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed data fetches by source and error kind.",
		}, []string{"source", "kind"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time from wake to sleep decision.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
		}),
		BatteryMV: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_millivolts",
			Help:      "Last battery voltage reading.",
		}),
		BatteryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_percent",
			Help:      "Estimated battery charge.",
		}),
		SleepSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sleep_seconds",
			Help:      "Sleep scheduled after the last cycle.",
		}),
		DeparturesShown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "departures_shown",
			Help:      "Departure rows drawn in the last frame.",
		}),
	}
	m.Registry.MustRegister(
		m.Cycles,
		m.FetchFailures,
		m.CycleDuration,
		m.BatteryMV,
		m.BatteryPercent,
		m.SleepSeconds,
		m.DeparturesShown,
	)
	return m
}

func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	m.Cycles.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) FetchFailed(source, kind string) {
	m.FetchFailures.WithLabelValues(source, kind).Inc()
}

func (m *Metrics) SetBattery(mv, percent int) {
	m.BatteryMV.Set(float64(mv))
	m.BatteryPercent.Set(float64(percent))
}

func (m *Metrics) SetSleep(d time.Duration) { m.SleepSeconds.Set(d.Seconds()) }

func (m *Metrics) SetDeparturesShown(n int) { m.DeparturesShown.Set(float64(n)) }

// WriteTextfile dumps the registry for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
