package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fuzzyflock/components"
	"github.com/pthm-cable/fuzzyflock/fuzzy"
)

// VariableReading is one engine variable's current crisp value.
type VariableReading struct {
	Name   string
	Value  fuzzy.Value
	Output bool
}

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	ID        uint32
	Neighbors int
	Fields    []components.FieldDescriptor
	Value     func(fieldID string) float64
	Variables []VariableReading
	Drives    []DriveToggle
}

// Inspector renders the selected agent's panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Height returns the panel height needed for data.
func (ins *Inspector) Height(data InspectorData) int32 {
	t := ins.renderer.Theme
	rows := 2 + len(data.Fields) + len(data.Variables) + len(data.Drives) + 6
	return t.Padding*2 + int32(rows)*(t.LineHeight+2)
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2
	x := ins.x + padding

	r.DrawPanel(ins.x, ins.y, ins.width, ins.Height(data))
	y := ins.y + padding

	rl.DrawText(fmt.Sprintf("Agent #%d", data.ID), x, y, 16, rl.White)
	y += r.Theme.LineHeight + 4
	y = r.DrawLabelValue(x, y, "Neighbours", fmt.Sprintf("%d", data.Neighbors))
	y = r.DrawSpacer(y, 4)

	y = ins.drawComponentSections(x, y, data, contentWidth)
	y = ins.drawVariables(x, y, data)

	if len(data.Drives) > 0 {
		y = r.DrawSectionHeader(x, y, "Drives")
		for _, d := range data.Drives {
			state := "off"
			if d.Enabled {
				state = "on"
			}
			y = r.DrawLabelValue(x, y, d.Name, state)
		}
	}

	return y
}

// drawComponentSections draws the component fields grouped as the
// component metadata groups them.
func (ins *Inspector) drawComponentSections(x, y int32, data InspectorData, width int32) int32 {
	for _, group := range components.AgentGroups() {
		sd := SectionDescriptor{ID: group, Title: groupTitle(group)}
		for _, fd := range data.Fields {
			if fd.Group != group {
				continue
			}
			f := FieldFromComponent(fd)
			id := fd.ID
			f.Getter = func(any) float32 { return float32(data.Value(id)) }
			sd.Fields = append(sd.Fields, f)
		}
		if len(sd.Fields) > 0 {
			y = ins.renderer.DrawSection(x, y, sd, nil, width)
		}
	}
	return y
}

// drawVariables lists the engine's inputs, then its outputs.
func (ins *Inspector) drawVariables(x, y int32, data InspectorData) int32 {
	r := ins.renderer
	for _, outputs := range []bool{false, true} {
		title := "Inputs"
		if outputs {
			title = "Outputs"
		}
		y = r.DrawSectionHeader(x, y, title)
		for _, v := range data.Variables {
			if v.Output == outputs {
				y = r.DrawFuzzyValue(x, y, v.Name, v.Value)
			}
		}
		y = r.DrawSpacer(y, 4)
	}
	return y
}

func groupTitle(group string) string {
	switch group {
	case "motion":
		return "Motion"
	case "brain":
		return "Steering"
	default:
		return group
	}
}
