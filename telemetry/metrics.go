package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors the simulation updates every tick.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	stepDuration     prometheus.Histogram
	phaseDuration    *prometheus.HistogramVec
	neighbors        prometheus.Histogram
	undefinedOutputs prometheus.Counter
	rebuilds         prometheus.Counter
	agents           prometheus.Gauge
	staleness        prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fuzzyflock",
			Name:      "step_duration_seconds",
			Help:      "Wall time of one simulation tick.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		phaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fuzzyflock",
			Name:      "phase_duration_seconds",
			Help:      "Wall time of one tick phase.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}, []string{"phase"}),
		neighbors: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fuzzyflock",
			Name:      "neighbors",
			Help:      "Neighbour list length per agent per tick.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		}),
		undefinedOutputs: f.NewCounter(prometheus.CounterOpts{
			Namespace: "fuzzyflock",
			Name:      "undefined_outputs_total",
			Help:      "Outputs that no rule fired for.",
		}),
		rebuilds: f.NewCounter(prometheus.CounterOpts{
			Namespace: "fuzzyflock",
			Name:      "forest_rebuilds_total",
			Help:      "Rule forest rebuilds from drive toggles and model reloads.",
		}),
		agents: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "fuzzyflock",
			Name:      "agents",
			Help:      "Live agents.",
		}),
		staleness: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "fuzzyflock",
			Name:      "neighborhood_staleness_frames",
			Help:      "Age of the neighbour lists in frames; -1 before the first result.",
		}),
	}
}

// ObserveStep records a tick's wall time.
func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.Observe(d.Seconds())
}

// ObservePhases records the phase timings of a tick.
func (m *Metrics) ObservePhases(phases map[string]time.Duration) {
	if m == nil {
		return
	}
	for name, d := range phases {
		m.phaseDuration.WithLabelValues(name).Observe(d.Seconds())
	}
}

// ObserveAgent records one agent's neighbour count and undefined outputs.
func (m *Metrics) ObserveAgent(neighbors, undefined int) {
	if m == nil {
		return
	}
	m.neighbors.Observe(float64(neighbors))
	if undefined > 0 {
		m.undefinedOutputs.Add(float64(undefined))
	}
}

// IncRebuilds counts forest rebuilds.
func (m *Metrics) IncRebuilds(n int) {
	if m == nil {
		return
	}
	m.rebuilds.Add(float64(n))
}

// SetAgents sets the live agent gauge.
func (m *Metrics) SetAgents(n int) {
	if m == nil {
		return
	}
	m.agents.Set(float64(n))
}

// SetStaleness sets the staleness gauge.
func (m *Metrics) SetStaleness(frames int) {
	if m == nil {
		return
	}
	m.staleness.Set(float64(frames))
}
