package systems

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// Wander perturbs headings with smooth noise so agents without neighbours
// do not fly dead straight. Each agent samples its own track through the
// noise field.
type Wander struct {
	yaw      opensimplex.Noise
	pitch    opensimplex.Noise
	strength float64 // radians per second at full noise
	scale    float64 // noise frequency in 1/seconds
}

// NewWander creates a wander source. A zero strength disables it.
func NewWander(seed int64, strength, scale float64) *Wander {
	return &Wander{
		yaw:      opensimplex.New(seed),
		pitch:    opensimplex.New(seed + 1),
		strength: strength,
		scale:    scale,
	}
}

// Apply returns dir nudged by the noise at time t for the agent whose
// track starts at offset. Pitch noise is halved and pulled toward level
// flight so the flock stays in a layer.
func (w *Wander) Apply(dir r3.Vec, offset, t, dt float64) r3.Vec {
	if w == nil || w.strength == 0 {
		return dir
	}
	x := t * w.scale
	dir = Turn(dir, w.yaw.Eval2(x, offset)*w.strength*dt)
	level := -math.Asin(clamp(unitOr(dir, r3.Vec{Z: 1}).Y, -1, 1))
	pitch := 0.5*w.pitch.Eval2(x, offset)*w.strength + 0.5*level
	return Pitch(dir, pitch*dt)
}
