package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/camera"
	"github.com/pthm-cable/fuzzyflock/spatial"
)

// levelColors tints octree cells by depth.
var levelColors = []rl.Color{
	{R: 120, G: 120, B: 140, A: 160},
	{R: 90, G: 160, B: 200, A: 140},
	{R: 90, G: 200, B: 150, A: 120},
	{R: 200, G: 200, B: 90, A: 110},
	{R: 220, G: 140, B: 80, A: 100},
	{R: 220, G: 90, B: 120, A: 90},
}

// DrawOctree outlines the XZ footprint of every occupied octree cell.
// Cells are drawn shallow to deep so finer subdivisions sit on top.
func DrawOctree(cam *camera.Camera, tree *spatial.Octree) {
	if tree == nil || tree.Len() == 0 {
		return
	}
	tree.Walk(func(box r3.Box, level, count int) {
		if count == 0 && level > 0 {
			return
		}
		x0, y0 := cam.WorldToScreen(float32(box.Min.X), float32(box.Min.Z))
		x1, y1 := cam.WorldToScreen(float32(box.Max.X), float32(box.Max.Z))
		if x1 < 0 || y1 < 0 || x0 > cam.ViewportW || y0 > cam.ViewportH {
			return
		}
		color := levelColors[min(level, len(levelColors)-1)]
		rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, color)
	})
}

// Link joins an agent to one of its neighbours.
type Link struct {
	From, To r3.Vec
}

// DrawLinks draws neighbour links on the XZ plane.
func DrawLinks(cam *camera.Camera, links []Link, color rl.Color) {
	for _, l := range links {
		ax, ay := cam.WorldToScreen(float32(l.From.X), float32(l.From.Z))
		bx, by := cam.WorldToScreen(float32(l.To.X), float32(l.To.Z))
		rl.DrawLineV(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, color)
	}
}

// DrawPerception draws an agent's sensing radius and the horizontal
// field-of-view wedge around its heading.
func DrawPerception(cam *camera.Camera, pos, dir r3.Vec, p spatial.Perception, color rl.Color) {
	x, y := cam.WorldToScreen(float32(pos.X), float32(pos.Z))
	radius := float32(p.Radius) * cam.Zoom
	rl.DrawCircleLines(int32(x), int32(y), radius, color)

	if p.HorizontalFOV >= 360 {
		return
	}
	heading := math.Atan2(dir.Z, dir.X) * 180 / math.Pi
	half := p.HorizontalFOV / 2
	fill := color
	fill.A /= 4
	rl.DrawCircleSector(rl.Vector2{X: x, Y: y}, radius, float32(heading-half), float32(heading+half), 24, fill)
	for _, a := range []float64{heading - half, heading + half} {
		rad := a * math.Pi / 180
		ex := x + radius*float32(math.Cos(rad))
		ey := y + radius*float32(math.Sin(rad))
		rl.DrawLineV(rl.Vector2{X: x, Y: y}, rl.Vector2{X: ex, Y: ey}, color)
	}
}

// DrawHeading draws a short velocity ray ahead of the agent.
func DrawHeading(cam *camera.Camera, pos, vel r3.Vec, scale float32, color rl.Color) {
	ax, ay := cam.WorldToScreen(float32(pos.X), float32(pos.Z))
	bx, by := cam.WorldToScreen(float32(pos.X)+float32(vel.X)*scale, float32(pos.Z)+float32(vel.Z)*scale)
	rl.DrawLineV(rl.Vector2{X: ax, Y: ay}, rl.Vector2{X: bx, Y: by}, color)
}
