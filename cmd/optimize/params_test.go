package main

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/fuzzyflock/config"
	"github.com/pthm-cable/fuzzyflock/telemetry"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := make([]float64, pv.Dim())
	for i, s := range pv.Specs {
		raw[i] = (s.Min + s.Max) / 3
	}
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		assert.InDelta(t, raw[i], back[i], 1e-9, pv.Specs[i].Name)
	}
}

func TestApplyToConfigClampsAndRefreshes(t *testing.T) {
	pv := NewParamVector()
	cfg, err := config.Load("")
	require.NoError(t, err)

	v := pv.ExtractFromConfig(cfg)
	v[0] = 1000 // perception radius far above the bound
	require.NoError(t, pv.ApplyToConfig(cfg, v))

	assert.Equal(t, pv.Specs[0].Max, cfg.Agents.PerceptionRadius)
	assert.Equal(t, pv.Specs[0].Max, cfg.Derived.Perception.Radius)
}

func TestScore(t *testing.T) {
	fe := NewFitnessEvaluator(NewParamVector(), 0, nil, nil, 6)

	warm := []telemetry.WindowStats{{}, {}}
	assert.InDelta(t, 1.0, fe.score(warm).Fitness, 1e-12)

	ideal := append(warm, telemetry.WindowStats{NeighborsMean: 6})
	assert.InDelta(t, 0, fe.score(ideal).Fitness, 1e-12)

	lonely := append(warm, telemetry.WindowStats{NeighborsMean: 0.5, IsolatedRatio: 0.6, UndefinedRatio: 0.1})
	s := fe.score(lonely)
	assert.Greater(t, s.Fitness, 0.2)
	assert.InDelta(t, 0.6, s.IsolatedRatio, 1e-12)
}

func TestEvaluateShortRun(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Agents.Count = 20
	cfg.Telemetry.StatsWindow = cfg.World.DT * 5
	require.NoError(t, cfg.Refresh())

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, 30, []int64{1, 2}, cfg, 4)
	f := fe.Evaluate(context.Background(), pv.ExtractFromConfig(cfg))

	assert.False(t, math.IsInf(f, 0))
	assert.GreaterOrEqual(t, f, 0.0)
	assert.Equal(t, f, fe.Last().Fitness)
}
