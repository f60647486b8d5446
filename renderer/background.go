// Package renderer draws the simulation with raylib primitives.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fuzzyflock/camera"
)

// FloorRenderer draws the world footprint with a grid so camera motion
// reads against something.
type FloorRenderer struct {
	Fill    rl.Color
	Grid    rl.Color
	Border  rl.Color
	Spacing float32 // world units between grid lines
}

// NewFloorRenderer creates a floor renderer with the given base color.
func NewFloorRenderer(baseR, baseG, baseB uint8, spacing float32) *FloorRenderer {
	return &FloorRenderer{
		Fill:    rl.Color{R: baseR, G: baseG, B: baseB, A: 255},
		Grid:    rl.Color{R: baseR + 12, G: baseG + 14, B: baseB + 18, A: 255},
		Border:  rl.Color{R: 90, G: 110, B: 130, A: 255},
		Spacing: spacing,
	}
}

// Draw renders the floor under cam.
func (f *FloorRenderer) Draw(cam *camera.Camera) {
	x0, y0 := cam.WorldToScreen(cam.MinX, cam.MinZ)
	x1, y1 := cam.WorldToScreen(cam.MaxX, cam.MaxZ)
	rl.DrawRectangleV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1 - x0, Y: y1 - y0}, f.Fill)

	if f.Spacing > 0 && f.Spacing*cam.Zoom >= 8 {
		minX, minZ, maxX, maxZ := cam.VisibleWorldBounds()
		minX, maxX = max(minX, cam.MinX), min(maxX, cam.MaxX)
		minZ, maxZ = max(minZ, cam.MinZ), min(maxZ, cam.MaxZ)

		start := float32(math.Ceil(float64(minX/f.Spacing))) * f.Spacing
		for x := start; x <= maxX; x += f.Spacing {
			sx, _ := cam.WorldToScreen(x, 0)
			rl.DrawLineV(rl.Vector2{X: sx, Y: max(y0, 0)}, rl.Vector2{X: sx, Y: min(y1, cam.ViewportH)}, f.Grid)
		}
		start = float32(math.Ceil(float64(minZ/f.Spacing))) * f.Spacing
		for z := start; z <= maxZ; z += f.Spacing {
			_, sy := cam.WorldToScreen(0, z)
			rl.DrawLineV(rl.Vector2{X: max(x0, 0), Y: sy}, rl.Vector2{X: min(x1, cam.ViewportW), Y: sy}, f.Grid)
		}
	}

	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 2, f.Border)
}
