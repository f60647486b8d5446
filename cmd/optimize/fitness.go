package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/fuzzyflock/config"
	"github.com/pthm-cable/fuzzyflock/game"
	"github.com/pthm-cable/fuzzyflock/telemetry"
)

// Fitness component weights.
const (
	weightNeighbors = 0.5
	weightIsolated  = 0.3
	weightUndefined = 0.2

	warmupWindows = 2 // skip first N windows while the flock forms
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params          *ParamVector
	maxTicks        int32
	seeds           []int64
	baseConfig      *config.Config
	targetNeighbors float64

	mu          sync.Mutex
	bestFitness float64
	last        Score
}

// Score is the averaged outcome of one evaluation.
type Score struct {
	Fitness        float64
	NeighborsMean  float64
	IsolatedRatio  float64
	UndefinedRatio float64
}

// NewFitnessEvaluator creates a new evaluator. targetNeighbors is the
// neighbour count the flock should settle at.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config, targetNeighbors float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:          params,
		maxTicks:        maxTicks,
		seeds:           seeds,
		baseConfig:      baseCfg,
		targetNeighbors: targetNeighbors,
		bestFitness:     math.Inf(1),
	}
}

// Last returns the score of the most recent Evaluate call.
func (fe *FitnessEvaluator) Last() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run in parallel; a run that fails scores as the worst case.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return math.Inf(1)
	}

	scores := make([]Score, len(fe.seeds))
	g, ctx := errgroup.WithContext(ctx)
	for i, seed := range fe.seeds {
		g.Go(func() error {
			windows, err := fe.runSimulation(ctx, cfg, seed)
			if err != nil {
				return err
			}
			scores[i] = fe.score(windows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1)
	}

	var avg Score
	for _, s := range scores {
		avg.Fitness += s.Fitness
		avg.NeighborsMean += s.NeighborsMean
		avg.IsolatedRatio += s.IsolatedRatio
		avg.UndefinedRatio += s.UndefinedRatio
	}
	n := float64(len(scores))
	avg.Fitness /= n
	avg.NeighborsMean /= n
	avg.IsolatedRatio /= n
	avg.UndefinedRatio /= n

	fe.mu.Lock()
	fe.bestFitness = min(fe.bestFitness, avg.Fitness)
	fe.last = avg
	fe.mu.Unlock()

	return avg.Fitness
}

// runSimulation executes a single headless run and returns the window
// stats it produced. The config is shared read-only between seeds.
func (fe *FitnessEvaluator) runSimulation(ctx context.Context, cfg *config.Config, seed int64) ([]telemetry.WindowStats, error) {
	var windows []telemetry.WindowStats
	g, err := game.NewGame(game.Options{
		Config:   cfg,
		Seed:     seed,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Headless: true,
		StatsCallback: func(s telemetry.WindowStats) {
			windows = append(windows, s)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		if err := g.Step(ctx); err != nil {
			return nil, err
		}
	}
	return windows, nil
}

// score folds window stats into a Score. Fitness is 0 for a flock that
// holds the target neighbour count with nobody isolated and every output
// defined, and grows from there.
func (fe *FitnessEvaluator) score(windows []telemetry.WindowStats) Score {
	if len(windows) <= warmupWindows {
		return Score{Fitness: weightNeighbors + weightIsolated + weightUndefined, IsolatedRatio: 1, UndefinedRatio: 1}
	}
	valid := windows[warmupWindows:]

	var s Score
	for _, w := range valid {
		s.NeighborsMean += w.NeighborsMean
		s.IsolatedRatio += w.IsolatedRatio
		s.UndefinedRatio += w.UndefinedRatio
	}
	n := float64(len(valid))
	s.NeighborsMean /= n
	s.IsolatedRatio /= n
	s.UndefinedRatio /= n

	miss := 1.0
	if fe.targetNeighbors > 0 {
		miss = math.Log((s.NeighborsMean + 1) / (fe.targetNeighbors + 1))
		miss = 1 - math.Exp(-miss*miss)
	}
	s.Fitness = weightNeighbors*miss + weightIsolated*s.IsolatedRatio + weightUndefined*s.UndefinedRatio
	return s
}
