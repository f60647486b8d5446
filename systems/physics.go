package systems

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Motion holds the movement limits shared by every agent.
type Motion struct {
	MaxSpeed float64
	TurnRate float64 // radians per second at full turn
	Accel    float64 // share of the speed error closed per second
	Bounds   r3.Box
}

// Body is the kinematic state of one agent.
type Body struct {
	Pos r3.Vec
	Vel r3.Vec
	Dir r3.Vec
}

// Step advances b by dt under the given steering command. The heading
// turns first, speed eases toward throttle*MaxSpeed, and the agent moves
// along its new heading. Walls reflect position, velocity and heading.
func (m Motion) Step(b Body, cmd Outputs, dt float64) Body {
	dir := Turn(b.Dir, cmd.Turn*m.TurnRate*dt)

	speed := r3.Norm(b.Vel)
	target := clamp(cmd.Throttle, 0, 1) * m.MaxSpeed
	speed += (target - speed) * clamp(m.Accel*dt, 0, 1)
	speed = clamp(speed, 0, m.MaxSpeed)

	out := Body{Dir: dir, Vel: r3.Scale(speed, dir)}
	out.Pos = r3.Add(b.Pos, r3.Scale(dt, out.Vel))
	m.reflect(&out)
	return out
}

// reflect folds a position that left the box back inside and mirrors the
// motion on that axis.
func (m Motion) reflect(b *Body) {
	lo, hi := m.Bounds.Min, m.Bounds.Max
	b.Pos.X, b.Vel.X, b.Dir.X = fold(b.Pos.X, b.Vel.X, b.Dir.X, lo.X, hi.X)
	b.Pos.Y, b.Vel.Y, b.Dir.Y = fold(b.Pos.Y, b.Vel.Y, b.Dir.Y, lo.Y, hi.Y)
	b.Pos.Z, b.Vel.Z, b.Dir.Z = fold(b.Pos.Z, b.Vel.Z, b.Dir.Z, lo.Z, hi.Z)
}

func fold(p, v, d, lo, hi float64) (float64, float64, float64) {
	switch {
	case p < lo:
		p = clamp(2*lo-p, lo, hi)
		if v < 0 {
			v = -v
		}
		if d < 0 {
			d = -d
		}
	case p > hi:
		p = clamp(2*hi-p, lo, hi)
		if v > 0 {
			v = -v
		}
		if d > 0 {
			d = -d
		}
	}
	return p, v, d
}
