package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, -100, -50, 100, 50)

	// Should be centered on world
	if cam.X != 0 || cam.Z != 0 {
		t.Errorf("expected camera at (0, 0), got (%f, %f)", cam.X, cam.Z)
	}
	// min(1280/200, 720/100) = min(6.4, 7.2) = 6.4
	if math.Abs(float64(cam.Zoom-6.4)) > 1e-4 {
		t.Errorf("expected zoom 6.4, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 0, 0, 200, 100)

	sx, sy := cam.WorldToScreen(100, 50)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 0, 0, 200, 100)
	cam.ZoomBy(2)
	cam.Pan(100, -40)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wz := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wz)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wz, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1280, 720, 0, 0, 200, 100)

	cam.Pan(-1e6, 1e6)
	if cam.X != 0 || cam.Z != 100 {
		t.Errorf("expected center clamped to (0, 100), got (%f, %f)", cam.X, cam.Z)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(800, 600, 0, 0, 1600, 800)

	// MinZoom = min(800/1600, 600/800) = min(0.5, 0.75) = 0.5
	if math.Abs(float64(cam.MinZoom-0.5)) > 1e-6 {
		t.Errorf("expected MinZoom 0.5, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestMinZoomFitsWorld(t *testing.T) {
	cam := New(800, 600, 0, 0, 1600, 800)
	cam.SetZoom(cam.MinZoom)

	// Limiting dimension is X: 800 / 0.5 = 1600 = world width.
	visibleW := cam.ViewportW / cam.Zoom
	if math.Abs(float64(visibleW-cam.WorldW())) > 0.01 {
		t.Errorf("at min zoom, visible width %f should equal world width %f", visibleW, cam.WorldW())
	}
}

func TestResizeKeepsZoomInRange(t *testing.T) {
	cam := New(800, 600, 0, 0, 100, 100)
	cam.Resize(1600, 1200)

	if cam.MinZoom != 12 {
		t.Errorf("expected MinZoom 12 after resize, got %f", cam.MinZoom)
	}
	if cam.Zoom < cam.MinZoom {
		t.Errorf("zoom %f below MinZoom %f after resize", cam.Zoom, cam.MinZoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 0, 0, 2560, 1440)
	cam.SetZoom(1)

	// Visible range: (640, 360) to (1920, 1080)
	if !cam.IsVisible(1280, 720, 10) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(2400, 1300, 10) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(600, 720, 100) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestVisibleWorldBounds(t *testing.T) {
	cam := New(1280, 720, 0, 0, 2560, 1440)
	cam.SetZoom(1)

	minX, minZ, maxX, maxZ := cam.VisibleWorldBounds()
	if minX != 640 || minZ != 360 || maxX != 1920 || maxZ != 1080 {
		t.Errorf("bounds = (%f, %f, %f, %f)", minX, minZ, maxX, maxZ)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 0, 0, 200, 100)
	cam.Pan(300, 300)
	cam.ZoomBy(2.5)

	cam.Reset()

	if cam.X != 100 || cam.Z != 50 {
		t.Errorf("expected position (100, 50), got (%f, %f)", cam.X, cam.Z)
	}
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom %f, got %f", cam.MinZoom, cam.Zoom)
	}
}
