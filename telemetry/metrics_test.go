package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveStep(2 * time.Millisecond)
	m.ObservePhases(map[string]time.Duration{PhaseFuzzy: time.Millisecond})
	m.ObserveAgent(3, 0)
	m.ObserveAgent(0, 2)
	m.IncRebuilds(5)
	m.SetAgents(2)
	m.SetStaleness(-1)

	if got := testutil.ToFloat64(m.undefinedOutputs); got != 2 {
		t.Errorf("undefined outputs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rebuilds); got != 5 {
		t.Errorf("rebuilds = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.agents); got != 2 {
		t.Errorf("agents = %v", got)
	}
	if got := testutil.ToFloat64(m.staleness); got != -1 {
		t.Errorf("staleness = %v", got)
	}
	if n := testutil.CollectAndCount(m.neighbors); n != 1 {
		t.Errorf("neighbors histogram series = %d", n)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) != 7 {
		t.Errorf("registered families = %d, want 7", len(families))
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveStep(time.Second)
	m.ObservePhases(map[string]time.Duration{PhaseFuzzy: 1})
	m.ObserveAgent(1, 1)
	m.IncRebuilds(1)
	m.SetAgents(1)
	m.SetStaleness(1)
}
