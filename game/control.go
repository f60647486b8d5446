package game

import (
	"fmt"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/telemetry"
)

// SetDriveEnabled toggles a drive on every agent. Each engine rebuilds
// its forest; if any rebuild fails, engines already switched are switched
// back and the error is returned.
func (g *Game) SetDriveEnabled(name string, enabled bool) error {
	current, ok := g.drives[name]
	if !ok {
		return fmt.Errorf("drive %q: %w", name, fuzzy.ErrUnknownDrive)
	}
	if current == enabled {
		return nil
	}

	engines := g.engines()
	for i, e := range engines {
		if err := e.SetDriveEnabled(name, enabled); err != nil {
			for _, done := range engines[:i] {
				// Restoring a forest that assembled before cannot fail.
				_ = done.SetDriveEnabled(name, current)
			}
			g.recordEvent(telemetry.Event{
				Tick:    g.tick,
				Type:    telemetry.EventRebuildFailed,
				Subject: name,
				Detail:  err.Error(),
			})
			return fmt.Errorf("toggle drive %q: %w", name, err)
		}
		g.collector.RecordRebuild()
	}
	g.metrics.IncRebuilds(len(engines))

	g.drives[name] = enabled
	g.recordEvent(telemetry.NewDriveEvent(g.tick, name, enabled))
	g.logger.Info("drive toggled",
		"drive", name,
		"enabled", enabled,
		"engines", len(engines),
		"tick", g.tick,
	)
	return nil
}

// QueueReload hands a model to the simulation from another goroutine. It
// is installed at the start of the next tick; a model queued before the
// previous one was picked up replaces it.
func (g *Game) QueueReload(m *fuzzy.Model) {
	for {
		select {
		case g.reloads <- m:
			return
		default:
		}
		select {
		case <-g.reloads:
		default:
		}
	}
}

func (g *Game) applyQueuedReload() {
	select {
	case m := <-g.reloads:
		if err := g.Reload(m); err != nil {
			g.logger.Error("model reload rejected", "model", m.Name, "error", err)
		}
	default:
	}
}

// Reload swaps every agent onto a new model. The library and all engines
// are built before anything is replaced, so a model that fails to
// assemble leaves the running population untouched. Drives the new model
// shares with the old one keep their runtime on/off state.
func (g *Game) Reload(m *fuzzy.Model) error {
	err := g.reload(m)
	g.recordEvent(telemetry.NewReloadEvent(g.tick, m.Name, err))
	return err
}

func (g *Game) reload(m *fuzzy.Model) error {
	lib, err := fuzzy.NewLibrary(m,
		fuzzy.WithSampleCount(g.cfg.Fuzzy.SampleCount),
		fuzzy.WithBuckets(g.cfg.Fuzzy.Buckets),
	)
	if err != nil {
		return fmt.Errorf("model %q: %w", m.Name, err)
	}

	drives := make(map[string]bool, len(m.Drives))
	for _, d := range m.Drives {
		drives[d.Name] = d.Enabled
		if on, ok := g.drives[d.Name]; ok {
			drives[d.Name] = on
		}
	}

	opts := append([]fuzzy.EngineOption(nil), g.engineOpts...)
	opts = append(opts, fuzzy.WithDriveFlags(drives))

	n := g.AgentCount()
	engines := make([]*fuzzy.Engine, n)
	for i := range engines {
		e, err := fuzzy.NewEngine(lib, opts...)
		if err != nil {
			return fmt.Errorf("model %q: %w", m.Name, err)
		}
		engines[i] = e
	}

	i := 0
	query := g.agentFilter.Query()
	for query.Next() {
		_, _, _, _, brain, _ := query.Get()
		brain.Engine = engines[i]
		i++
	}

	g.model = m
	g.lib = lib
	g.drives = drives
	for range engines {
		g.collector.RecordRebuild()
	}
	g.metrics.IncRebuilds(n)
	g.logger.Info("model installed",
		"model", m.Name,
		"drives", g.enabledDrives(),
		"engines", n,
		"tick", g.tick,
	)
	return nil
}

// engines returns every agent's engine in query order.
func (g *Game) engines() []*fuzzy.Engine {
	var out []*fuzzy.Engine
	query := g.agentFilter.Query()
	for query.Next() {
		_, _, _, _, brain, _ := query.Get()
		out = append(out, brain.Engine)
	}
	return out
}

func (g *Game) recordEvent(e telemetry.Event) {
	if err := g.output.WriteEvent(e); err != nil {
		g.logger.Error("failed to write event", "error", err)
	}
}
