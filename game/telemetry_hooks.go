package game

import (
	"fmt"
	"maps"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and writes
// the window out.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick)
	perfStats := g.perf.Stats()
	g.metrics.SetAgents(stats.Agents)
	if g.view != nil {
		g.view.lastStats = stats
	}

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.output.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}
}

// Snapshot captures the current population.
func (g *Game) Snapshot() *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		RNGSeed: g.rngSeed,
		Tick:    g.tick,
		Model:   g.model.Name,
		Drives:  maps.Clone(g.drives),
	}

	query := g.agentFilter.Query()
	for query.Next() {
		pos, vel, head, _, brain, agent := query.Get()
		snapshot.Agents = append(snapshot.Agents, telemetry.AgentState{
			ID:        agent.ID,
			Pos:       telemetry.VecOf(pos.Vec),
			Vel:       telemetry.VecOf(vel.Vec),
			Dir:       telemetry.VecOf(head.Dir),
			Turn:      brain.Turn,
			Throttle:  brain.Throttle,
			NoiseSeed: agent.NoiseSeed,
		})
	}

	return snapshot
}

// SaveSnapshot writes a snapshot into the output directory, if any.
func (g *Game) SaveSnapshot() {
	path, err := g.output.WriteSnapshot(g.Snapshot())
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}
	if path != "" {
		g.logger.Info("snapshot saved", "path", path, "tick", g.tick)
	}
}

// Restore replaces the population with the agents in s and resumes at
// its tick. Drive flags in s that the current model does not define are
// ignored. Nothing changes if an engine cannot be built.
func (g *Game) Restore(s *telemetry.Snapshot) error {
	if s.Model != g.model.Name {
		g.logger.Warn("restoring snapshot taken with another model",
			"snapshot_model", s.Model,
			"model", g.model.Name,
		)
	}

	prev := maps.Clone(g.drives)
	for name, on := range s.Drives {
		if _, ok := g.drives[name]; ok {
			g.drives[name] = on
		}
	}
	engines := make([]*fuzzy.Engine, len(s.Agents))
	for i := range engines {
		e, err := g.newEngine()
		if err != nil {
			g.drives = prev
			return fmt.Errorf("restore: %w", err)
		}
		engines[i] = e
	}
	// Results in flight belong to the old population and timeline.
	provider, err := newProvider(g.cfg, g.logger)
	if err != nil {
		g.drives = prev
		return fmt.Errorf("restore: %w", err)
	}

	var old []ecs.Entity
	query := g.agentFilter.Query()
	for query.Next() {
		old = append(old, query.Entity())
	}
	for _, e := range old {
		g.world.RemoveEntity(e)
	}

	g.nextID = 0
	for i, a := range s.Agents {
		g.addAgent(engines[i], a)
		g.nextID = max(g.nextID, a.ID+1)
	}
	g.tick = s.Tick
	g.provider = provider
	g.metrics.SetAgents(len(s.Agents))

	g.logger.Info("snapshot restored",
		"tick", s.Tick,
		"agents", len(s.Agents),
		"drives", g.enabledDrives(),
	)
	return nil
}
