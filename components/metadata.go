package components

import "gonum.org/v1/gonum/spatial/r3"

// FieldDescriptor describes a component field for UI display.
type FieldDescriptor struct {
	ID         string  // Unique identifier
	Label      string  // Display name
	Format     string  // Printf format (e.g., "%.2f")
	Min        float64 // Minimum value (for bars)
	Max        float64 // Maximum value (for bars)
	IsCentered bool    // True for centered bar display
	IsBar      bool    // True to render as progress bar
	Group      string  // Logical grouping
}

// AgentFieldDescriptors returns metadata for the selected-agent panel.
// Field IDs must match cases in AgentValue().
func AgentFieldDescriptors(maxSpeed float64) []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "speed", Label: "Speed", Format: "%.2f", Min: 0, Max: maxSpeed, IsBar: true, Group: "motion"},
		{ID: "altitude", Label: "Altitude", Format: "%.1f", Group: "motion"},
		{ID: "turn", Label: "Turn", Format: "%+.2f", Min: -1, Max: 1, IsCentered: true, IsBar: true, Group: "brain"},
		{ID: "throttle", Label: "Throttle", Format: "%.2f", Min: 0, Max: 1, IsBar: true, Group: "brain"},
		{ID: "undefined", Label: "Undefined", Format: "%.0f", Group: "brain"},
	}
}

// AgentGroups returns the logical groupings for agent fields.
func AgentGroups() []string {
	return []string{"motion", "brain"}
}

// AgentValue extracts an agent field value by ID.
func AgentValue(pos *Position, vel *Velocity, brain *Brain, fieldID string) float64 {
	switch fieldID {
	case "speed":
		return r3.Norm(vel.Vec)
	case "altitude":
		return pos.Y
	case "turn":
		return brain.Turn
	case "throttle":
		return brain.Throttle
	case "undefined":
		return float64(brain.Undefined)
	default:
		return 0
	}
}
