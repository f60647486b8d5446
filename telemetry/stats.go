package telemetry

import (
	"log/slog"
	"math"
	"sort"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Agents int `csv:"agents"`

	// Neighbour counts (sampled on the last tick of the window)
	NeighborsMean float64 `csv:"neighbors_mean"`
	NeighborsStd  float64 `csv:"neighbors_std"`
	NeighborsP10  float64 `csv:"neighbors_p10"`
	NeighborsP50  float64 `csv:"neighbors_p50"`
	NeighborsP90  float64 `csv:"neighbors_p90"`
	IsolatedRatio float64 `csv:"isolated_ratio"` // agents seeing nobody

	// Inference over the whole window
	UndefinedRatio float64 `csv:"undefined_ratio"` // undefined outputs / outputs read
	TurnMean       float64 `csv:"turn_mean"`
	TurnAbsMean    float64 `csv:"turn_abs_mean"`
	ThrottleMean   float64 `csv:"throttle_mean"`
	SpeedMean      float64 `csv:"speed_mean"`

	// Neighbourhood provider
	Staleness    int `csv:"staleness"` // frames, -1 before the first result
	StalenessMax int `csv:"staleness_max"`

	// Forest rebuilds (drive toggles and reloads)
	Rebuilds int `csv:"rebuilds"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSpread calculates mean, std, and percentiles of values.
func ComputeSpread(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	var sqDiffSum float64
	for _, v := range values {
		d := v - mean
		sqDiffSum += d * d
	}
	std = math.Sqrt(sqDiffSum / float64(n))

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Float64("neighbors_mean", s.NeighborsMean),
		slog.Float64("neighbors_std", s.NeighborsStd),
		slog.Float64("neighbors_p10", s.NeighborsP10),
		slog.Float64("neighbors_p50", s.NeighborsP50),
		slog.Float64("neighbors_p90", s.NeighborsP90),
		slog.Float64("isolated_ratio", s.IsolatedRatio),
		slog.Float64("undefined_ratio", s.UndefinedRatio),
		slog.Float64("turn_mean", s.TurnMean),
		slog.Float64("turn_abs_mean", s.TurnAbsMean),
		slog.Float64("throttle_mean", s.ThrottleMean),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Int("staleness", s.Staleness),
		slog.Int("staleness_max", s.StalenessMax),
		slog.Int("rebuilds", s.Rebuilds),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
