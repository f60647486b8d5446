// Package camera provides a top-down camera over the world's XZ plane.
package camera

// Camera controls the viewport into the simulation volume, looking down
// the Y axis. Screen x follows world X and screen y follows world Z.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Z float32

	// Zoom level in screen pixels per world unit
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World footprint on the XZ plane
	MinX, MinZ, MaxX, MaxZ float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// maxZoomFactor bounds magnification relative to the fit-to-screen zoom.
const maxZoomFactor = 16

// New creates a camera centered on the world, zoomed so the whole
// footprint fits the viewport.
func New(viewportW, viewportH, minX, minZ, maxX, maxZ float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinX:      minX,
		MinZ:      minZ,
		MaxX:      maxX,
		MaxZ:      maxZ,
	}
	c.updateZoomLimits()
	c.Reset()
	return c
}

// WorldW returns the footprint width along X.
func (c *Camera) WorldW() float32 { return c.MaxX - c.MinX }

// WorldH returns the footprint depth along Z.
func (c *Camera) WorldH() float32 { return c.MaxZ - c.MinZ }

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wz float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wz-c.Z)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wz float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wz = c.Z + (sy-c.ViewportH/2)/c.Zoom
	return wx, wz
}

// IsVisible returns true if a circle at (wx, wz) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wz, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wz-c.Z) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateZoomLimits()
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels. The center
// stays inside the world footprint.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, c.MinX, c.MaxX)
	c.Z = clamp(c.Z+dy/c.Zoom, c.MinZ, c.MaxZ)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the camera and fits the world to the viewport.
func (c *Camera) Reset() {
	c.X = (c.MinX + c.MaxX) / 2
	c.Z = (c.MinZ + c.MaxZ) / 2
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible
// area as (minX, minZ, maxX, maxZ).
func (c *Camera) VisibleWorldBounds() (minX, minZ, maxX, maxZ float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.X - halfW, c.Z - halfH, c.X + halfW, c.Z + halfH
}

// updateZoomLimits sets MinZoom to the zoom at which the whole footprint
// fits on screen.
func (c *Camera) updateZoomLimits() {
	fit := min(c.ViewportW/c.WorldW(), c.ViewportH/c.WorldH())
	c.MinZoom = fit
	c.MaxZoom = fit * maxZoomFactor
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
