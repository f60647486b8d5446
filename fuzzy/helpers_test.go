package fuzzy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// speedFixture is a one-rule model: Output(fast) = Or(slow, fast) over
// speed in [0, 10].
type speedFixture struct {
	model   *Model
	speed   Variable
	out     Variable
	slow    VariableValue
	fast    VariableValue
	outFast VariableValue
	outSlow VariableValue
	drive   string
}

func newSpeedFixture(t *testing.T) *speedFixture {
	t.Helper()
	f := &speedFixture{drive: "rules"}
	f.speed = NewVariable("speed", 0, 10)
	f.out = NewVariable("output_var", 0, 10)
	f.slow = NewTriangle(f.speed, "slow", 0, 0, 10)
	f.fast = NewTriangle(f.speed, "fast", 0, 10, 10)
	f.outSlow = NewTriangle(f.out, "slow", 0, 0, 5)
	f.outFast = NewTriangle(f.out, "fast", 5, 10, 10)

	d := NewDrive(f.drive)
	inSlow := d.AddInput(f.speed, f.slow)
	inFast := d.AddInput(f.speed, f.fast)
	or := d.AddOperator(KindOr)
	out := d.AddOutput(f.out, f.outFast)
	require.NoError(t, d.Connect(inSlow, or))
	require.NoError(t, d.Connect(inFast, or))
	require.NoError(t, d.Connect(or, out))

	f.model = &Model{
		Inputs:  []Variable{f.speed},
		Outputs: []Variable{f.out},
		Values:  []VariableValue{f.slow, f.fast, f.outSlow, f.outFast},
	}
	f.model.AddDrive(d)
	return f
}

func (f *speedFixture) engine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	lib, err := NewLibrary(f.model)
	require.NoError(t, err)
	e, err := NewEngine(lib, opts...)
	require.NoError(t, err)
	return e
}

// gateFixture has two inputs a and b in [0, 1] with identity ramps, and
// one output o in [0, 10] with a symmetric triangle peaking at 5.
type gateFixture struct {
	model *Model
	a, b  Variable
	o     Variable
	rampA VariableValue
	rampB VariableValue
	peak  VariableValue
}

func newGateFixture() *gateFixture {
	g := &gateFixture{}
	g.a = NewVariable("a", 0, 1)
	g.b = NewVariable("b", 0, 1)
	g.o = NewVariable("o", 0, 10)
	g.rampA = NewValue(g.a, "ramp", Curve{Linear(0, 0), Linear(1, 1)})
	g.rampB = NewValue(g.b, "ramp", Curve{Linear(0, 0), Linear(1, 1)})
	g.peak = NewTriangle(g.o, "peak", 3, 5, 7)
	g.model = &Model{
		Inputs:  []Variable{g.a, g.b},
		Outputs: []Variable{g.o},
		Values:  []VariableValue{g.rampA, g.rampB, g.peak},
	}
	return g
}

// addDrive builds a drive with wire and appends it to the model.
func (g *gateFixture) addDrive(name string, wire func(d *Drive, a, b, out uuid.UUID)) *Drive {
	d := NewDrive(name)
	a := d.AddInput(g.a, g.rampA)
	b := d.AddInput(g.b, g.rampB)
	out := d.AddOutput(g.o, g.peak)
	wire(d, a, b, out)
	return g.model.AddDrive(d)
}

func mustEngine(t *testing.T, m *Model, opts ...EngineOption) *Engine {
	t.Helper()
	lib, err := NewLibrary(m)
	require.NoError(t, err)
	e, err := NewEngine(lib, opts...)
	require.NoError(t, err)
	return e
}
