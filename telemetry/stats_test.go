package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeSpread(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	mean, std, p10, p50, p90 := ComputeSpread(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if math.Abs(std-0.2872) > 0.001 {
		t.Errorf("std = %v, want ~0.287", std)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}
}

func TestComputeSpreadEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeSpread([]float64{})

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1, 2)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("window ticks = %d, want 10", c.WindowDurationTicks())
	}

	for tick := int32(0); tick < 10; tick++ {
		c.BeginTick()
		c.RecordAgent(0, 2, 0, 0, 0)
		c.RecordAgent(4, 0, 1, 0.5, 2)
		c.RecordAgent(8, 1, -1, 1, 4)
		c.RecordStaleness(int(tick % 3))
	}
	c.RecordRebuild()

	if c.ShouldFlush(9) {
		t.Error("flushed before the window ended")
	}
	if !c.ShouldFlush(10) {
		t.Error("window should be due at tick 10")
	}

	s := c.Flush(10)
	if s.Agents != 3 {
		t.Errorf("Agents = %d, want 3 (last tick only)", s.Agents)
	}
	if math.Abs(s.NeighborsMean-4) > 1e-9 || s.NeighborsP50 != 4 {
		t.Errorf("neighbors mean/p50 = %v/%v, want 4/4", s.NeighborsMean, s.NeighborsP50)
	}
	if math.Abs(s.IsolatedRatio-1.0/3) > 1e-9 {
		t.Errorf("IsolatedRatio = %v", s.IsolatedRatio)
	}
	// 3 undefined per tick out of 6 outputs read.
	if math.Abs(s.UndefinedRatio-0.5) > 1e-9 {
		t.Errorf("UndefinedRatio = %v, want 0.5", s.UndefinedRatio)
	}
	if s.TurnMean != 0 || math.Abs(s.TurnAbsMean-2.0/3) > 1e-9 {
		t.Errorf("turn mean/abs = %v/%v", s.TurnMean, s.TurnAbsMean)
	}
	if math.Abs(s.ThrottleMean-0.5) > 1e-9 || math.Abs(s.SpeedMean-2) > 1e-9 {
		t.Errorf("throttle/speed = %v/%v", s.ThrottleMean, s.SpeedMean)
	}
	if s.Staleness != 0 || s.StalenessMax != 2 {
		t.Errorf("staleness = %d max %d, want 0 max 2", s.Staleness, s.StalenessMax)
	}
	if s.Rebuilds != 1 {
		t.Errorf("Rebuilds = %d", s.Rebuilds)
	}
	if math.Abs(s.SimTimeSec-1.0) > 1e-6 {
		t.Errorf("SimTimeSec = %v", s.SimTimeSec)
	}

	// Counters reset; the next window starts where this one ended.
	next := c.Flush(20)
	if next.WindowStartTick != 10 || next.Rebuilds != 0 || next.UndefinedRatio != 0 {
		t.Errorf("second window = %+v", next)
	}
}

func TestCollectorStalenessBeforeFirstResult(t *testing.T) {
	c := NewCollector(1, 1, 1)
	s := c.Flush(1)
	if s.Staleness != -1 || s.StalenessMax != -1 {
		t.Errorf("staleness = %d/%d, want -1/-1", s.Staleness, s.StalenessMax)
	}
}
