package game

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/neighborhood"
	"github.com/pthm-cable/fuzzyflock/telemetry"
)

// Update handles viewer input, then runs StepsPerUpdate ticks unless
// paused.
func (g *Game) Update() {
	if g.view != nil {
		g.handleInput()
	}
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		if !g.stepOnce() {
			return
		}
	}
}

// stepOnce runs one tick for the viewer. A failed step pauses the game.
func (g *Game) stepOnce() bool {
	if err := g.Step(context.Background()); err != nil {
		g.logger.Error("simulation step failed", "tick", g.tick, "error", err)
		g.paused = true
		return false
	}
	return true
}

// UpdateHeadless runs StepsPerUpdate ticks without touching raylib.
func (g *Game) UpdateHeadless(ctx context.Context) error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Step runs a single tick: snapshot, neighbourhood, sensors, fuzzy,
// physics, telemetry. Every phase finishes for all agents before the
// next starts.
func (g *Game) Step(ctx context.Context) error {
	g.applyQueuedReload()

	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseSnapshot)
	n := g.snapshot()

	g.perf.StartPhase(telemetry.PhaseNeighborhood)
	g.provider.Update(int(g.tick), g.parallel.movers)

	g.perf.StartPhase(telemetry.PhaseSensors)
	if err := g.parallel.forEach(ctx, n, g.sense); err != nil {
		return fmt.Errorf("sensors: %w", err)
	}

	g.perf.StartPhase(telemetry.PhaseFuzzy)
	if err := g.parallel.forEach(ctx, n, g.think); err != nil {
		return fmt.Errorf("fuzzy: %w", err)
	}

	g.perf.StartPhase(telemetry.PhasePhysics)
	if err := g.parallel.forEach(ctx, n, g.move); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	g.applyIntents()

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.recordTelemetry()

	g.perf.EndTick()
	g.observeTick()

	g.tick++
	g.flushTelemetry()
	return nil
}

// recordTelemetry feeds this tick's per-agent results to the collector
// and metrics.
func (g *Game) recordTelemetry() {
	g.collector.BeginTick()
	for i := range g.parallel.intents {
		it := &g.parallel.intents[i]
		g.collector.RecordAgent(it.Readings.Count, it.Out.Undefined, it.Out.Turn, it.Out.Throttle, r3.Norm(it.Body.Vel))
		g.metrics.ObserveAgent(it.Readings.Count, it.Out.Undefined)
	}
	stale := neighborhood.Staleness(g.provider)
	g.collector.RecordStaleness(stale)
	g.metrics.SetStaleness(stale)
}

// observeTick publishes the last tick's timings.
func (g *Game) observeTick() {
	if g.metrics == nil {
		return
	}
	sample := g.perf.Last()
	g.metrics.ObserveStep(sample.TickDuration)
	g.metrics.ObservePhases(sample.Phases)
}
