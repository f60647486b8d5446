package fuzzy

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultSampleCount is the resolution every membership curve is
// discretised to.
const DefaultSampleCount = 257

// TangentMode controls how a keyframe tangent is derived.
type TangentMode uint8

const (
	// TangentFree uses the stored tangent as-is.
	TangentFree TangentMode = iota
	// TangentLinear points the tangent at the neighbouring key.
	TangentLinear
	// TangentConstant holds the key value until the next key.
	TangentConstant
)

var tangentModeNames = [...]string{"free", "linear", "constant"}

func (m TangentMode) String() string {
	if int(m) < len(tangentModeNames) {
		return tangentModeNames[m]
	}
	return fmt.Sprintf("TangentMode(%d)", m)
}

// MarshalText implements encoding.TextMarshaler.
func (m TangentMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *TangentMode) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	for i, name := range tangentModeNames {
		if s == name {
			*m = TangentMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tangent mode %q", s)
}

// Keyframe is one control point of a membership curve.
// Weights and weighted mode are kept for round-tripping authored data;
// evaluation is unweighted Hermite.
type Keyframe struct {
	X            float64     `yaml:"x" json:"x"`
	Y            float64     `yaml:"y" json:"y"`
	InTangent    float64     `yaml:"in_tangent,omitempty" json:"in_tangent,omitempty"`
	OutTangent   float64     `yaml:"out_tangent,omitempty" json:"out_tangent,omitempty"`
	InWeight     float64     `yaml:"in_weight,omitempty" json:"in_weight,omitempty"`
	OutWeight    float64     `yaml:"out_weight,omitempty" json:"out_weight,omitempty"`
	WeightedMode int         `yaml:"weighted_mode,omitempty" json:"weighted_mode,omitempty"`
	LeftMode     TangentMode `yaml:"left_mode" json:"left_mode"`
	RightMode    TangentMode `yaml:"right_mode" json:"right_mode"`
}

// Linear returns a keyframe whose tangents follow its neighbours.
func Linear(x, y float64) Keyframe {
	return Keyframe{X: x, Y: y, LeftMode: TangentLinear, RightMode: TangentLinear}
}

// Curve is a piecewise cubic membership function ordered by X.
type Curve []Keyframe

// Sorted returns a copy of c ordered by X.
func (c Curve) Sorted() Curve {
	out := make(Curve, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// resolve fills in linear tangents. c must be sorted.
func (c Curve) resolve() Curve {
	out := make(Curve, len(c))
	copy(out, c)
	for i := range out {
		if out[i].LeftMode == TangentLinear {
			out[i].InTangent = 0
			if i > 0 {
				out[i].InTangent = slope(out[i-1], out[i])
			}
		}
		if out[i].RightMode == TangentLinear {
			out[i].OutTangent = 0
			if i < len(out)-1 {
				out[i].OutTangent = slope(out[i], out[i+1])
			}
		}
	}
	return out
}

func slope(a, b Keyframe) float64 {
	dx := b.X - a.X
	if dx == 0 {
		return 0
	}
	return (b.Y - a.Y) / dx
}

// Evaluate returns the curve height at x. Outside the key range the
// nearest end key is held. An empty curve is zero everywhere.
func (c Curve) Evaluate(x float64) float64 {
	return c.Sorted().resolve().eval(x)
}

// eval assumes c is sorted and resolved.
func (c Curve) eval(x float64) float64 {
	switch {
	case len(c) == 0:
		return 0
	case x <= c[0].X:
		return c[0].Y
	case x >= c[len(c)-1].X:
		return c[len(c)-1].Y
	}

	i := sort.Search(len(c), func(i int) bool { return c[i].X > x }) - 1
	k0, k1 := c[i], c[i+1]
	dx := k1.X - k0.X
	if dx == 0 || k0.RightMode == TangentConstant || k1.LeftMode == TangentConstant {
		return k0.Y
	}

	t := (x - k0.X) / dx
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h00*k0.Y + h10*dx*k0.OutTangent + h01*k1.Y + h11*dx*k1.InTangent
}

// Sample is a discretised curve: parallel x and y arrays.
type Sample struct {
	X []float64
	Y []float64
}

// Len returns the number of sample points.
func (s Sample) Len() int {
	return len(s.X)
}

// Copy returns a deep copy.
func (s Sample) Copy() Sample {
	x := make([]float64, len(s.X))
	y := make([]float64, len(s.Y))
	copy(x, s.X)
	copy(y, s.Y)
	return Sample{X: x, Y: y}
}

// Discretise samples c at n evenly spaced points over v's domain,
// clamping heights to [0, 1].
func (c Curve) Discretise(v Variable, n int) Sample {
	if n < 2 {
		n = 2
	}
	r := c.Sorted().resolve()
	s := Sample{X: make([]float64, n), Y: make([]float64, n)}
	step := (v.Upper - v.Lower) / float64(n-1)
	for i := 0; i < n; i++ {
		x := v.Lower + float64(i)*step
		if i == n-1 {
			x = v.Upper
		}
		s.X[i] = x
		s.Y[i] = clamp01(r.eval(x))
	}
	return s
}

// RepairBounds drops keys outside v's domain and inserts linear keys at
// any missing bound, so the curve covers [Lower, Upper] explicitly.
// A curve left with a single key gets an upper key at height 1.
func (c Curve) RepairBounds(v Variable) Curve {
	out := make(Curve, 0, len(c)+2)
	hasLower, hasUpper := false, false
	for _, k := range c {
		if k.X < v.Lower || k.X > v.Upper {
			continue
		}
		if k.X == v.Lower {
			hasLower = true
		}
		if k.X == v.Upper {
			hasUpper = true
		}
		out = append(out, k)
	}
	if !hasLower {
		out = append(out, Linear(v.Lower, 0))
	}
	if !hasUpper {
		y := 0.0
		if len(out) <= 1 {
			y = 1
		}
		out = append(out, Linear(v.Upper, y))
	}
	return out.Sorted()
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	if math.IsNaN(x) {
		return 0
	}
	return x
}
