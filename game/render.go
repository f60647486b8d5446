package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fuzzyflock/components"
	"github.com/pthm-cable/fuzzyflock/neighborhood"
	"github.com/pthm-cable/fuzzyflock/renderer"
	"github.com/pthm-cable/fuzzyflock/spatial"
	"github.com/pthm-cable/fuzzyflock/ui"
)

var (
	backgroundColor = rl.Color{R: 10, G: 12, B: 16, A: 255}
	linkColor       = rl.Color{R: 120, G: 200, B: 160, A: 70}
	perceptionColor = rl.Color{R: 255, G: 220, B: 120, A: 200}
	velocityColor   = rl.Color{R: 200, G: 200, B: 255, A: 120}
)

// Draw renders the game. Headless games draw nothing.
func (g *Game) Draw() {
	v := g.view
	if v == nil {
		return
	}
	g.perf.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	v.floor.Draw(v.cam)

	// Search overlays go under the agents
	if v.overlays.IsEnabled(ui.OverlayOctree) {
		renderer.DrawOctree(v.cam, octreeOf(g.provider))
	}
	if v.overlays.IsEnabled(ui.OverlayLinks) {
		v.links = g.neighborLinks(v.links[:0])
		renderer.DrawLinks(v.cam, v.links, linkColor)
	}

	v.sprites = g.agentSprites(v.sprites[:0])
	v.agents.Draw(v.cam, v.sprites)

	if v.overlays.IsEnabled(ui.OverlayHeadings) {
		query := g.agentFilter.Query()
		for query.Next() {
			pos, vel, _, _, _, _ := query.Get()
			renderer.DrawHeading(v.cam, pos.Vec, vel.Vec, 0.5, velocityColor)
		}
	}

	if e, ok := g.selectedAgent(); ok && v.overlays.IsEnabled(ui.OverlayPerception) {
		pos, _, head, sense, _, _ := g.agentMap.Get(e)
		renderer.DrawPerception(v.cam, pos.Vec, head.Dir, sense.Perception, perceptionColor)
	}

	g.drawUI()

	rl.EndDrawing()
}

// agentSprites appends one sprite per agent to dst.
func (g *Game) agentSprites(dst []renderer.AgentSprite) []renderer.AgentSprite {
	selected, hasSelection := g.selectedAgent()
	query := g.agentFilter.Query()
	for query.Next() {
		pos, _, head, _, brain, _ := query.Get()
		dst = append(dst, renderer.AgentSprite{
			Pos:       pos.Vec,
			Dir:       head.Dir,
			Throttle:  brain.Throttle,
			Undefined: brain.Undefined > 0,
			Selected:  hasSelection && query.Entity() == selected,
		})
	}
	return dst
}

// neighborLinks appends the links the provider served last tick. With a
// selection only the selected agent's links are drawn.
func (g *Game) neighborLinks(dst []renderer.Link) []renderer.Link {
	movers := g.parallel.movers
	add := func(i int) {
		for _, j := range g.provider.Neighbors(i) {
			if j >= 0 && j < len(movers) {
				dst = append(dst, renderer.Link{From: movers[i].Position(), To: movers[j].Position()})
			}
		}
	}

	if e, ok := g.selectedAgent(); ok {
		if i := g.agentIndex(e); i >= 0 && i < len(movers) {
			add(i)
		}
		return dst
	}
	for i := range movers {
		add(i)
	}
	return dst
}

// octreeOf digs the octree out of a provider, looking through a throttle.
func octreeOf(p neighborhood.Provider) *spatial.Octree {
	if t, ok := p.(*neighborhood.Throttle); ok {
		p = t.Inner()
	}
	if o, ok := p.(*neighborhood.Octree); ok {
		return o.Tree()
	}
	return nil
}

// drawUI renders the HUD and panels and applies panel input.
func (g *Game) drawUI() {
	v := g.view
	v.panels = v.panels[:0]
	perfStats := g.perf.Stats()

	v.hud.Draw(ui.HUDData{
		Title:        "Fuzzy Flock",
		Agents:       g.AgentCount(),
		Tick:         g.tick,
		Speed:        g.stepsPerUpdate,
		FPS:          int32(perfStats.FPS + 0.5),
		Paused:       g.paused,
		Neighborhood: g.provider.Mode().String(),
		FuzzyMode:    g.cfg.Fuzzy.Mode.String(),
		Staleness:    neighborhood.Staleness(g.provider),
	})

	if v.controls.IsVisible() {
		bottom := v.controls.Draw(v.overlays)
		g.stepsPerUpdate = ui.SpeedSlider(20, bottom+4, 200, g.stepsPerUpdate, maxStepsPerUpdate)
		v.panels = append(v.panels, rl.Rectangle{X: 10, Y: 100, Width: 220, Height: float32(bottom-100) + 40})
	}

	right := v.screenW - 10
	if v.overlays.IsEnabled(ui.OverlayDrives) {
		g.drawDrivesPanel()
		right = v.screenW - 240
	}

	if e, ok := g.selectedAgent(); ok {
		data := g.inspectorData(e)
		x := int32(right) - 260
		v.inspector.SetPosition(x, 10)
		v.inspector.Draw(data)
		v.panels = append(v.panels, rl.Rectangle{X: float32(x), Y: 10, Width: 260, Height: float32(v.inspector.Height(data))})
	}

	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perf.Draw(ui.PerfPanelData{
			PhaseTimes: perfStats.PhaseAvg,
			Total:      perfStats.AvgTickDuration,
			TicksPerS:  perfStats.TicksPerSecond,
		})
	}

	if v.lastStats.WindowEndTick > 0 {
		v.quick.Draw(ui.QuickStatsData{
			NeighborsMean:  v.lastStats.NeighborsMean,
			IsolatedRatio:  v.lastStats.IsolatedRatio,
			UndefinedRatio: v.lastStats.UndefinedRatio,
			TurnAbsMean:    v.lastStats.TurnAbsMean,
			SpeedMean:      v.lastStats.SpeedMean,
		})
	}

	v.hud.DrawControls(int32(v.screenW), int32(v.screenH),
		"[Space] pause  [N] step  [</>] speed  [Tab] overlays  [R] drives  [S] snapshot  [Click] select")
}

// drawDrivesPanel draws the drive checkboxes and applies any the user
// flipped.
func (g *Game) drawDrivesPanel() {
	v := g.view
	names := g.Drives()
	rows := make([]ui.DriveToggle, len(names))
	for i, name := range names {
		rows[i] = ui.DriveToggle{Name: name, Enabled: g.drives[name]}
	}

	for _, c := range v.drives.Draw(g.model.Name, rows) {
		if err := g.SetDriveEnabled(c.Name, c.Enabled); err != nil {
			g.logger.Error("drive toggle failed", "drive", c.Name, "error", err)
		}
	}
	v.panels = append(v.panels, rl.Rectangle{X: v.screenW - 230, Y: 10, Width: 220, Height: float32(60 + 22*len(rows))})
}

// inspectorData gathers the selected agent's panel contents.
func (g *Game) inspectorData(e ecs.Entity) ui.InspectorData {
	pos, vel, _, _, brain, agent := g.agentMap.Get(e)

	data := ui.InspectorData{
		ID:     agent.ID,
		Fields: components.AgentFieldDescriptors(g.cfg.Agents.MaxSpeed),
		Value: func(id string) float64 {
			return components.AgentValue(pos, vel, brain, id)
		},
	}
	if i := g.agentIndex(e); i >= 0 && i < len(g.parallel.intents) {
		data.Neighbors = g.parallel.intents[i].Readings.Count
	}

	lib := brain.Engine.Library()
	for _, name := range lib.InputNames() {
		data.Variables = append(data.Variables, ui.VariableReading{Name: name, Value: brain.Engine.GetValue(name)})
	}
	for _, name := range lib.OutputNames() {
		data.Variables = append(data.Variables, ui.VariableReading{Name: name, Value: brain.Engine.GetValue(name), Output: true})
	}
	for _, name := range lib.DriveNames() {
		data.Drives = append(data.Drives, ui.DriveToggle{Name: name, Enabled: brain.Engine.DriveEnabled(name)})
	}
	return data
}
