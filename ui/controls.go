package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsPanel renders the left-side controls panel with overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	// Calculate panel height based on content
	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(totalItems)*lineHeight + padding*3 + lineHeight // Extra for title

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding

	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range categories {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			enabled := overlays.IsEnabled(desc.ID)
			c.drawToggle(c.x+padding, y, desc, enabled, c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "search":
		return "Neighbour Search"
	case "agents":
		return "Agents"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

// DriveToggle is one row of the drives panel.
type DriveToggle struct {
	Name    string
	Enabled bool
}

// DrivesPanel lists the model's drives with a checkbox each.
type DrivesPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewDrivesPanel creates a new drives panel.
func NewDrivesPanel(x, y, width int32) *DrivesPanel {
	return &DrivesPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (d *DrivesPanel) SetPosition(x, y int32) {
	d.x = x
	d.y = y
}

// Draw renders one checkbox per drive and returns the rows the user
// flipped this frame, carrying the requested state.
func (d *DrivesPanel) Draw(model string, drives []DriveToggle) []DriveToggle {
	r := d.renderer
	padding := r.Theme.Padding
	rowHeight := int32(22)

	panelHeight := padding*2 + r.Theme.LineHeight*2 + rowHeight*int32(len(drives))
	r.DrawPanel(d.x, d.y, d.width, panelHeight)

	y := d.y + padding
	rl.DrawText("Drives", d.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 2
	rl.DrawText(model, d.x+padding, y, r.Theme.FontSize, r.Theme.MutedColor)
	y += r.Theme.LineHeight

	var changed []DriveToggle
	for _, drive := range drives {
		bounds := rl.Rectangle{X: float32(d.x + padding), Y: float32(y + 3), Width: 14, Height: 14}
		if on := gui.CheckBox(bounds, drive.Name, drive.Enabled); on != drive.Enabled {
			changed = append(changed, DriveToggle{Name: drive.Name, Enabled: on})
		}
		y += rowHeight
	}
	return changed
}

// SpeedSlider draws a steps-per-update slider and returns the chosen value.
func SpeedSlider(x, y, width int32, steps, maxSteps int) int {
	rl.DrawText("Steps / frame", x, y, 12, rl.LightGray)
	v := gui.SliderBar(
		rl.Rectangle{X: float32(x), Y: float32(y + 16), Width: float32(width - 40), Height: 14},
		"", fmt.Sprintf("%d", steps),
		float32(steps), 1, float32(maxSteps),
	)
	return min(max(int(v+0.5), 1), maxSteps)
}

// QuickStatsData holds the latest telemetry window for display.
type QuickStatsData struct {
	NeighborsMean  float64
	IsolatedRatio  float64
	UndefinedRatio float64
	TurnAbsMean    float64
	SpeedMean      float64
}

// QuickStatsPanel renders quick statistics.
type QuickStatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewQuickStatsPanel creates a new quick stats panel.
func NewQuickStatsPanel(x, y, width int32) *QuickStatsPanel {
	return &QuickStatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (q *QuickStatsPanel) SetPosition(x, y int32) {
	q.x = x
	q.y = y
}

// Draw renders the quick stats panel.
func (q *QuickStatsPanel) Draw(data QuickStatsData) int32 {
	r := q.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	panelHeight := lineHeight*6 + padding*2 + 2

	r.DrawPanel(q.x, q.y, q.width, panelHeight)

	y := q.y + padding

	rl.DrawText("Last Window", q.x+padding, y, 14, rl.White)
	y += lineHeight + 2

	y = r.DrawLabelValue(q.x+padding, y, "Neighbours", fmt.Sprintf("%.1f", data.NeighborsMean))
	y = r.DrawLabelValue(q.x+padding, y, "Isolated", fmt.Sprintf("%.0f%%", data.IsolatedRatio*100))
	y = r.DrawLabelValue(q.x+padding, y, "Undefined", fmt.Sprintf("%.1f%%", data.UndefinedRatio*100))
	y = r.DrawLabelValue(q.x+padding, y, "|Turn|", fmt.Sprintf("%.2f", data.TurnAbsMean))
	y = r.DrawLabelValue(q.x+padding, y, "Speed", fmt.Sprintf("%.2f", data.SpeedMean))

	return y
}
