package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/camera"
)

// AgentSprite is the per-agent data the renderer needs.
type AgentSprite struct {
	Pos       r3.Vec
	Dir       r3.Vec
	Throttle  float64
	Undefined bool
	Selected  bool
}

// AgentRenderer draws agents as oriented triangles, shaded by altitude.
type AgentRenderer struct {
	Size       float32 // body length in world units
	MinY, MaxY float64 // altitude range mapped onto the color ramp

	Low, High rl.Color
	Undefined rl.Color
	Selected  rl.Color
}

// NewAgentRenderer creates a renderer for bodies of the given length in a
// world spanning altitudes minY to maxY.
func NewAgentRenderer(size float32, minY, maxY float64) *AgentRenderer {
	return &AgentRenderer{
		Size:      size,
		MinY:      minY,
		MaxY:      maxY,
		Low:       rl.Color{R: 60, G: 110, B: 200, A: 255},
		High:      rl.Color{R: 230, G: 240, B: 255, A: 255},
		Undefined: rl.Color{R: 230, G: 90, B: 80, A: 255},
		Selected:  rl.Yellow,
	}
}

// Draw renders every visible sprite.
func (r *AgentRenderer) Draw(cam *camera.Camera, sprites []AgentSprite) {
	for i := range sprites {
		s := &sprites[i]
		if !cam.IsVisible(float32(s.Pos.X), float32(s.Pos.Z), r.Size) {
			continue
		}
		r.drawOne(cam, s)
	}
}

func (r *AgentRenderer) drawOne(cam *camera.Camera, s *AgentSprite) {
	color := r.altitudeColor(s.Pos.Y)
	if s.Undefined {
		color = r.Undefined
	}
	color.A = uint8(140 + 115*min(max(s.Throttle, 0), 1))

	x, y := cam.WorldToScreen(float32(s.Pos.X), float32(s.Pos.Z))
	heading := float32(math.Atan2(s.Dir.Z, s.Dir.X))
	size := max(r.Size*cam.Zoom, 3)
	drawOrientedTriangle(x, y, heading, size, color)

	if s.Selected {
		rl.DrawCircleLines(int32(x), int32(y), size*1.2, r.Selected)
	}
}

// altitudeColor blends from Low at MinY to High at MaxY.
func (r *AgentRenderer) altitudeColor(y float64) rl.Color {
	t := float32(0.5)
	if r.MaxY > r.MinY {
		t = float32((y - r.MinY) / (r.MaxY - r.MinY))
	}
	t = min(max(t, 0), 1)
	return rl.Color{
		R: lerp8(r.Low.R, r.High.R, t),
		G: lerp8(r.Low.G, r.High.G, t),
		B: lerp8(r.Low.B, r.High.B, t),
		A: 255,
	}
}

// drawOrientedTriangle draws a triangle pointing along heading (screen
// radians) with its tip size/2 ahead of (x, y).
func drawOrientedTriangle(x, y, heading, size float32, color rl.Color) {
	cos := float32(math.Cos(float64(heading)))
	sin := float32(math.Sin(float64(heading)))

	tip := rl.Vector2{X: x + cos*size*0.6, Y: y + sin*size*0.6}
	left := rl.Vector2{X: x - cos*size*0.4 + sin*size*0.35, Y: y - sin*size*0.4 - cos*size*0.35}
	right := rl.Vector2{X: x - cos*size*0.4 - sin*size*0.35, Y: y - sin*size*0.4 + cos*size*0.35}

	// raylib wants counter-clockwise winding in screen space
	rl.DrawTriangle(tip, left, right, color)
}

func lerp8(a, b uint8, t float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*t)
}
