// Package spatial provides the neighbour index: an octree rebuilt every
// cycle, a brute-force reference search and the field-of-view test both
// share.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WorldUp is the up axis used to build an agent's viewing frame.
var WorldUp = r3.Vec{Y: 1}

// Perception describes what an agent can see. Angles are full widths in
// degrees; the test compares against half of each.
type Perception struct {
	Radius        float64 `yaml:"radius"`
	HorizontalFOV float64 `yaml:"horizontal_fov"`
	VerticalFOV   float64 `yaml:"vertical_fov"`
}

// Agent is anything the index can place and query for.
type Agent interface {
	Position() r3.Vec
	Direction() r3.Vec
	Perception() Perception
}

// Body is a plain Agent value.
type Body struct {
	Pos   r3.Vec
	Dir   r3.Vec
	Sense Perception
}

func (b Body) Position() r3.Vec       { return b.Pos }
func (b Body) Direction() r3.Vec      { return b.Dir }
func (b Body) Perception() Perception { return b.Sense }

// Frame is an orthonormal viewing basis.
type Frame struct {
	Forward r3.Vec
	Side    r3.Vec
	Up      r3.Vec
}

// Basis builds the viewing frame for direction dir. A zero direction
// faces +Z; a direction parallel to WorldUp borrows +Z as its reference.
func Basis(dir r3.Vec) Frame {
	f := r3.Vec{Z: 1}
	if n := r3.Norm(dir); n > 0 {
		f = r3.Scale(1/n, dir)
	}
	side := r3.Cross(f, WorldUp)
	if r3.Norm2(side) < 1e-12 {
		side = r3.Cross(f, r3.Vec{Z: 1})
	}
	side = r3.Unit(side)
	return Frame{Forward: f, Side: side, Up: r3.Cross(side, f)}
}

// Angles returns the horizontal and vertical angles of offset d in the
// frame, in degrees. Positive horizontal is toward Side.
func (fr Frame) Angles(d r3.Vec) (horizontal, vertical float64) {
	fwd := r3.Dot(fr.Forward, d)
	horizontal = math.Atan2(r3.Dot(fr.Side, d), fwd) * 180 / math.Pi
	vertical = math.Atan2(r3.Dot(fr.Up, d), fwd) * 180 / math.Pi
	return horizontal, vertical
}

// InFieldOfView reports whether target is visible from an agent at pos
// with frame fr and perception p: within the radius and inside both
// half-angles.
func InFieldOfView(pos, target r3.Vec, fr Frame, p Perception) bool {
	d := r3.Sub(target, pos)
	if r3.Norm2(d) > p.Radius*p.Radius {
		return false
	}
	h, v := fr.Angles(d)
	return math.Abs(h) <= p.HorizontalFOV/2 && math.Abs(v) <= p.VerticalFOV/2
}

// BoxSphereIntersect reports whether the sphere at c with radius r
// touches box. Touching counts.
func BoxSphereIntersect(box r3.Box, c r3.Vec, r float64) bool {
	d2 := 0.0
	for _, ax := range [3][3]float64{
		{c.X, box.Min.X, box.Max.X},
		{c.Y, box.Min.Y, box.Max.Y},
		{c.Z, box.Min.Z, box.Max.Z},
	} {
		switch {
		case ax[0] < ax[1]:
			d2 += (ax[1] - ax[0]) * (ax[1] - ax[0])
		case ax[0] > ax[2]:
			d2 += (ax[0] - ax[2]) * (ax[0] - ax[2])
		}
	}
	return d2 <= r*r
}

// BoundsOf returns the smallest box holding every agent, grown by a small
// margin so no agent sits exactly on the outer faces.
func BoundsOf(agents []Agent) r3.Box {
	if len(agents) == 0 {
		return r3.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
	}
	lo := agents[0].Position()
	hi := lo
	for _, a := range agents[1:] {
		p := a.Position()
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	const margin = 1e-3
	pad := r3.Vec{X: margin, Y: margin, Z: margin}
	return r3.Box{Min: r3.Sub(lo, pad), Max: r3.Add(hi, pad)}
}

// BruteForce appends to dst every agent visible to agents[i], checking
// all pairs.
func BruteForce(agents []Agent, i int, dst []int) []int {
	self := agents[i]
	pos := self.Position()
	p := self.Perception()
	fr := Basis(self.Direction())
	for j, other := range agents {
		if j == i {
			continue
		}
		if InFieldOfView(pos, other.Position(), fr, p) {
			dst = append(dst, j)
		}
	}
	return dst
}
