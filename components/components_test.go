package components

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestAgentValueCoversDescriptors(t *testing.T) {
	pos := &Position{r3.Vec{Y: 4}}
	vel := &Velocity{r3.Vec{X: 3, Z: 4}}
	brain := &Brain{Turn: -0.5, Throttle: 0.25, Undefined: 1}

	want := map[string]float64{
		"speed":     5,
		"altitude":  4,
		"turn":      -0.5,
		"throttle":  0.25,
		"undefined": 1,
	}
	for _, fd := range AgentFieldDescriptors(10) {
		got := AgentValue(pos, vel, brain, fd.ID)
		if got != want[fd.ID] {
			t.Errorf("AgentValue(%q) = %v, want %v", fd.ID, got, want[fd.ID])
		}
	}
	if AgentValue(pos, vel, brain, "nope") != 0 {
		t.Error("unknown field should read 0")
	}
}

func TestMoverImplementsAgent(t *testing.T) {
	m := Mover{Pos: r3.Vec{X: 1}, Dir: r3.Vec{Z: 1}}
	m.Sense.Radius = 2
	if m.Position().X != 1 || m.Direction().Z != 1 || m.Perception().Radius != 2 {
		t.Errorf("Mover accessors = %v %v %v", m.Position(), m.Direction(), m.Perception())
	}
}
