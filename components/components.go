// Package components defines ECS components for the simulation.
package components

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/spatial"
)

// Position represents an entity's world position.
type Position struct {
	r3.Vec
}

// Velocity represents an entity's velocity in world units per second.
type Velocity struct {
	r3.Vec
}

// Heading is the unit facing direction. It is kept separately from
// Velocity so a stopped agent still has a viewing frame.
type Heading struct {
	Dir r3.Vec
}

// Perception is the agent's sensing volume.
type Perception struct {
	spatial.Perception
}

// Brain owns an agent's inference engine and its last applied outputs.
type Brain struct {
	Engine *fuzzy.Engine

	Turn     float64 // last applied turn, -1 to +1
	Throttle float64 // last applied throttle, 0 to 1

	// Undefined counts outputs that came back undefined on the last step.
	Undefined int
}

// Agent holds identity and per-agent constants.
type Agent struct {
	ID        uint32
	NoiseSeed float64 // offset into the wander noise field
}

// Mover adapts component values to spatial.Agent for the neighbour index.
type Mover struct {
	Pos   r3.Vec
	Dir   r3.Vec
	Sense spatial.Perception
}

func (m Mover) Position() r3.Vec               { return m.Pos }
func (m Mover) Direction() r3.Vec              { return m.Dir }
func (m Mover) Perception() spatial.Perception { return m.Sense }
