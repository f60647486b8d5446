package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fuzzyflock/camera"
	"github.com/pthm-cable/fuzzyflock/renderer"
	"github.com/pthm-cable/fuzzyflock/telemetry"
	"github.com/pthm-cable/fuzzyflock/ui"
)

// maxStepsPerUpdate caps the speed control.
const maxStepsPerUpdate = 10

// viewer holds everything the windowed mode draws with. Headless games
// have none.
type viewer struct {
	cam      *camera.Camera
	floor    *renderer.FloorRenderer
	agents   *renderer.AgentRenderer
	overlays *ui.OverlayRegistry

	hud       *ui.HUD
	controls  *ui.ControlsPanel
	drives    *ui.DrivesPanel
	quick     *ui.QuickStatsPanel
	perf      *ui.PerfPanel
	inspector *ui.Inspector

	screenW, screenH float32

	selected     ecs.Entity
	hasSelection bool

	// Latest flushed telemetry window
	lastStats telemetry.WindowStats

	// Screen areas covered by panels this frame; clicks there do not
	// select agents.
	panels []rl.Rectangle

	// Per-frame buffers
	sprites []renderer.AgentSprite
	links   []renderer.Link
}

func newViewer(g *Game) *viewer {
	cfg := g.cfg
	bounds := cfg.Derived.Bounds
	w, h := cfg.Derived.ScreenW32, cfg.Derived.ScreenH32

	return &viewer{
		cam: camera.New(w, h,
			float32(bounds.Min.X), float32(bounds.Min.Z),
			float32(bounds.Max.X), float32(bounds.Max.Z),
		),
		floor:     renderer.NewFloorRenderer(18, 24, 32, float32(cfg.Agents.PerceptionRadius)),
		agents:    renderer.NewAgentRenderer(float32(cfg.Agents.PerceptionRadius)/4, bounds.Min.Y, bounds.Max.Y),
		overlays:  ui.NewOverlayRegistry(),
		hud:       ui.NewHUD(),
		controls:  ui.NewControlsPanel(10, 100, 220),
		drives:    ui.NewDrivesPanel(int32(w)-230, 10, 220),
		quick:     ui.NewQuickStatsPanel(10, int32(h)-150, 200),
		perf:      ui.NewPerfPanel(int32(w)-300, int32(h)-160),
		inspector: ui.NewInspector(int32(w)-270, 10, 260),
		screenW:   w,
		screenH:   h,
	}
}

// resize moves screen-anchored panels after a window resize.
func (v *viewer) resize(w, h float32) {
	v.screenW, v.screenH = w, h
	v.cam.Resize(w, h)
	v.drives.SetPosition(int32(w)-230, 10)
	v.quick.SetPosition(10, int32(h)-150)
	v.perf.SetPosition(int32(w)-300, int32(h)-160)
	v.inspector.SetPosition(int32(w)-270, 10)
}

// overPanel reports whether a screen point lies on a panel drawn last
// frame.
func (v *viewer) overPanel(p rl.Vector2) bool {
	for _, r := range v.panels {
		if rl.CheckCollisionPointRec(p, r) {
			return true
		}
	}
	return false
}
