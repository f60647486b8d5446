// Package systems contains the per-agent steps the game runs each tick:
// sensing, inference, wander and motion.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/spatial"
)

// Readings are the crisp sensor values for one agent.
type Readings struct {
	Count    int
	Nearest  int     // index of the nearest neighbour, -1 when none
	Distance float64 // to the nearest neighbour
	Bearing  float64 // horizontal angle to the nearest neighbour, degrees
	Speed    float64
}

// Sense reduces agent i's neighbour list to readings. The list is used
// as given: a stale list may name agents that have since moved, and the
// distance and bearing are taken from their current positions.
func Sense(agents []spatial.Agent, i int, neighbors []int, speed float64) Readings {
	r := Readings{Nearest: -1, Speed: speed}
	self := agents[i]
	pos := self.Position()
	best := math.Inf(1)
	for _, j := range neighbors {
		if j < 0 || j >= len(agents) || j == i {
			continue
		}
		r.Count++
		if d2 := r3.Norm2(r3.Sub(agents[j].Position(), pos)); d2 < best {
			best = d2
			r.Nearest = j
		}
	}
	if r.Nearest >= 0 {
		d := r3.Sub(agents[r.Nearest].Position(), pos)
		r.Distance = math.Sqrt(best)
		r.Bearing, _ = spatial.Basis(self.Direction()).Angles(d)
	}
	return r
}

// Apply writes the readings into e, clamped to each variable's domain.
// With no neighbour the distance and bearing inputs are cleared, so rules
// that depend on them do not fire.
func (r Readings) Apply(e *fuzzy.Engine) {
	lib := e.Library()
	set(e, lib, fuzzy.VarNeighborCount, float64(r.Count))
	set(e, lib, fuzzy.VarSpeed, r.Speed)
	if r.Nearest < 0 {
		e.ClearValue(fuzzy.VarNearestDistance)
		e.ClearValue(fuzzy.VarNearestBearing)
		return
	}
	set(e, lib, fuzzy.VarNearestDistance, r.Distance)
	set(e, lib, fuzzy.VarNearestBearing, r.Bearing)
}

func set(e *fuzzy.Engine, lib *fuzzy.Library, name string, x float64) {
	v, ok := lib.Variable(name)
	if !ok {
		return
	}
	e.SetValue(name, clamp(x, v.Lower, v.Upper))
}
