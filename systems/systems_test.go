package systems

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/spatial"
)

var wide = spatial.Perception{Radius: 10, HorizontalFOV: 360, VerticalFOV: 360}

func body(x, y, z float64) spatial.Agent {
	return spatial.Body{Pos: r3.Vec{X: x, Y: y, Z: z}, Dir: r3.Vec{Z: 1}, Sense: wide}
}

func flockEngine(t *testing.T, disabled ...string) *fuzzy.Engine {
	t.Helper()
	lib, err := fuzzy.NewLibrary(fuzzy.FlockingModel(10, 16, 5))
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	e, err := fuzzy.NewEngine(lib, fuzzy.WithDisabledDrives(disabled...))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestSenseNearest(t *testing.T) {
	agents := []spatial.Agent{
		body(0, 0, 0),
		body(0, 0, 6),
		body(0, 0, 3),
		body(50, 0, 0),
	}
	r := Sense(agents, 0, []int{1, 2, 9, 0}, 2.5)
	if r.Count != 2 {
		t.Errorf("Count = %d, want 2 (out-of-range and self ignored)", r.Count)
	}
	if r.Nearest != 2 {
		t.Errorf("Nearest = %d, want 2", r.Nearest)
	}
	if math.Abs(r.Distance-3) > 1e-9 {
		t.Errorf("Distance = %v, want 3", r.Distance)
	}
	if math.Abs(r.Bearing) > 1e-9 {
		t.Errorf("Bearing = %v, want 0 (dead ahead)", r.Bearing)
	}
	if r.Speed != 2.5 {
		t.Errorf("Speed = %v", r.Speed)
	}
}

func TestSenseNoNeighbors(t *testing.T) {
	agents := []spatial.Agent{body(0, 0, 0)}
	r := Sense(agents, 0, nil, 1)
	if r.Count != 0 || r.Nearest != -1 {
		t.Errorf("readings = %+v, want empty", r)
	}
}

func TestReadingsApply(t *testing.T) {
	e := flockEngine(t)
	Readings{Count: 40, Nearest: 1, Distance: 25, Bearing: -30, Speed: 2}.Apply(e)

	// Count and distance are clamped into their domains.
	if v := e.GetValue(fuzzy.VarNeighborCount); !v.OK || v.V != 16 {
		t.Errorf("neighbor_count = %v, want 16", v)
	}
	if v := e.GetValue(fuzzy.VarNearestDistance); !v.OK || v.V != 10 {
		t.Errorf("nearest_distance = %v, want 10", v)
	}
	if v := e.GetValue(fuzzy.VarNearestBearing); !v.OK || v.V != -30 {
		t.Errorf("nearest_bearing = %v, want -30", v)
	}

	Readings{Nearest: -1, Speed: 1}.Apply(e)
	if e.GetValue(fuzzy.VarNearestDistance).OK || e.GetValue(fuzzy.VarNearestBearing).OK {
		t.Error("nearest inputs should be cleared with no neighbour")
	}
	if v := e.GetValue(fuzzy.VarNeighborCount); !v.OK || v.V != 0 {
		t.Errorf("neighbor_count = %v, want 0", v)
	}
}

func TestThinkHoldsUndefinedOutputs(t *testing.T) {
	e := flockEngine(t)
	Readings{Nearest: -1, Speed: 0}.Apply(e)

	prev := Outputs{Turn: 0.3, Throttle: 0.1}
	out, err := Think(context.Background(), e, prev)
	if err != nil {
		t.Fatal(err)
	}
	// Nothing fires on turn without a neighbour; slow fires boost.
	if out.Turn != 0.3 {
		t.Errorf("Turn = %v, want held 0.3", out.Turn)
	}
	if out.Throttle < 0.6 {
		t.Errorf("Throttle = %v, want boost", out.Throttle)
	}
	if out.Undefined != 1 {
		t.Errorf("Undefined = %d, want 1", out.Undefined)
	}
}

func TestThinkAllDrivesDisabled(t *testing.T) {
	e := flockEngine(t, "avoid", "cohesion", "cruise")
	Readings{Count: 3, Nearest: 0, Distance: 1, Bearing: 10, Speed: 1}.Apply(e)
	prev := Outputs{Turn: -0.2, Throttle: 0.7}
	out, err := Think(context.Background(), e, prev)
	if err != nil {
		t.Fatal(err)
	}
	if out.Turn != prev.Turn || out.Throttle != prev.Throttle || out.Undefined != 2 {
		t.Errorf("out = %+v, want prev with 2 undefined", out)
	}
}

func TestAvoidTurnsAway(t *testing.T) {
	e := flockEngine(t)
	// Neighbour close on the left: avoid turns right.
	Readings{Count: 1, Nearest: 0, Distance: 1, Bearing: -60, Speed: 2.5}.Apply(e)
	out, err := Think(context.Background(), e, Outputs{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Turn <= 0 {
		t.Errorf("Turn = %v, want positive (away from a left neighbour)", out.Turn)
	}
}

func TestTurnReducesBearing(t *testing.T) {
	dir := r3.Vec{Z: 1}
	target := r3.Vec{X: -3, Z: 3}
	before, _ := spatial.Basis(dir).Angles(target)
	if before <= 0 {
		t.Fatalf("fixture bearing %v should be positive", before)
	}
	after, _ := spatial.Basis(Turn(dir, 0.2)).Angles(target)
	if after >= before {
		t.Errorf("bearing %v -> %v, turning toward the target should reduce it", before, after)
	}
	if n := r3.Norm(Turn(dir, 1.3)); math.Abs(n-1) > 1e-12 {
		t.Errorf("|Turn| = %v, want 1", n)
	}
}

func TestMotionStep(t *testing.T) {
	m := Motion{
		MaxSpeed: 10,
		TurnRate: 1,
		Accel:    2,
		Bounds:   r3.Box{Max: r3.Vec{X: 100, Y: 100, Z: 100}},
	}
	b := Body{Pos: r3.Vec{X: 50, Y: 50, Z: 50}, Dir: r3.Vec{Z: 1}}
	for i := 0; i < 600; i++ {
		b = m.Step(b, Outputs{Throttle: 0.5}, 1.0/60)
	}
	if s := r3.Norm(b.Vel); math.Abs(s-5) > 0.05 {
		t.Errorf("speed = %v, want to settle near 5", s)
	}
	if b.Pos.X != 50 || b.Pos.Y != 50 {
		t.Errorf("straight flight drifted: %v", b.Pos)
	}
}

func TestMotionReflects(t *testing.T) {
	m := Motion{
		MaxSpeed: 10,
		Accel:    1000,
		Bounds:   r3.Box{Max: r3.Vec{X: 10, Y: 10, Z: 10}},
	}
	b := Body{Pos: r3.Vec{X: 5, Y: 5, Z: 9.9}, Dir: r3.Vec{Z: 1}, Vel: r3.Vec{Z: 10}}
	b = m.Step(b, Outputs{Throttle: 1}, 0.1)
	if b.Pos.Z > 10 || b.Pos.Z < 9 {
		t.Errorf("Pos.Z = %v, want folded back inside", b.Pos.Z)
	}
	if b.Vel.Z >= 0 || b.Dir.Z >= 0 {
		t.Errorf("vel %v dir %v should point back into the box", b.Vel, b.Dir)
	}
}

func TestWander(t *testing.T) {
	dir := r3.Vec{Z: 1}
	if got := (*Wander)(nil).Apply(dir, 0, 1, 0.1); got != dir {
		t.Errorf("nil wander changed dir: %v", got)
	}
	if got := NewWander(1, 0, 1).Apply(dir, 0, 1, 0.1); got != dir {
		t.Errorf("zero strength changed dir: %v", got)
	}

	a := NewWander(7, 2, 0.5)
	b := NewWander(7, 2, 0.5)
	for i := 0; i < 50; i++ {
		tm := float64(i) * 0.1
		da, db := a.Apply(dir, 3, tm, 0.1), b.Apply(dir, 3, tm, 0.1)
		if da != db {
			t.Fatalf("same seed diverged at step %d: %v vs %v", i, da, db)
		}
		if n := r3.Norm(da); math.Abs(n-1) > 1e-9 {
			t.Fatalf("|dir| = %v", n)
		}
	}
}
