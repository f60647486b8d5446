package fuzzy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeedScenario(t *testing.T) {
	f := newSpeedFixture(t)
	for _, mode := range []Mode{ModeMinMax, ModeProductSum} {
		t.Run(mode.String(), func(t *testing.T) {
			e := f.engine(t, WithMode(mode))
			require.True(t, e.SetValue("speed", 10))
			e.Step()

			got := e.GetValue("output_var")
			require.True(t, got.OK)
			want := CenterOfGravity(f.outFast.Samples.X, f.outFast.Samples.Y)
			assert.InDelta(t, want.V, got.V, 1e-9)
			assert.InDelta(t, 25.0/3, got.V, 0.05)
		})
	}
}

func TestSymmetricTriangleCentroid(t *testing.T) {
	g := newGateFixture()
	g.addDrive("pass", func(d *Drive, a, _, out uuid.UUID) {
		require.NoError(t, d.Connect(a, out))
	})
	for _, strength := range []float64{1, 0.5, 0.25} {
		for _, mode := range []Mode{ModeMinMax, ModeProductSum} {
			e := mustEngine(t, g.model, WithMode(mode))
			require.True(t, e.SetValue("a", strength))
			e.Step()
			got := e.GetValue("o")
			require.True(t, got.OK)
			assert.InDelta(t, 5.0, got.V, 1e-9, "mode=%s strength=%g", mode, strength)
		}
	}
}

func TestZeroFiringIsUndefined(t *testing.T) {
	g := newGateFixture()
	g.addDrive("pass", func(d *Drive, a, _, out uuid.UUID) {
		require.NoError(t, d.Connect(a, out))
	})
	e := mustEngine(t, g.model)
	require.True(t, e.SetValue("a", 0))
	e.Step()
	assert.False(t, e.GetValue("o").OK)
}

func TestDisabledDriveLeavesOutputsUndefined(t *testing.T) {
	f := newSpeedFixture(t)
	e := f.engine(t)
	require.True(t, e.SetValue("speed", 10))
	e.Step()
	require.True(t, e.GetValue("output_var").OK)

	require.NoError(t, e.SetDriveEnabled(f.drive, false))
	assert.False(t, e.DriveEnabled(f.drive))
	e.Step()
	assert.False(t, e.GetValue("output_var").OK)
	assert.Empty(t, e.Forest().Roots)
}

func TestToggleRoundTrip(t *testing.T) {
	m := FlockingModel(10, 16, 5)
	e := mustEngine(t, m)
	inputs := map[string]float64{
		VarNeighborCount:   3,
		VarNearestDistance: 2.5,
		VarNearestBearing:  -20,
		VarSpeed:           1.5,
	}
	set := func() {
		for k, v := range inputs {
			require.True(t, e.SetValue(k, v), k)
		}
	}
	set()
	e.Step()
	before := map[string]Value{}
	for _, name := range e.Library().OutputNames() {
		before[name] = e.GetValue(name)
	}
	roots := len(e.Forest().Roots)

	require.NoError(t, e.SetDriveEnabled("avoid", false))
	require.NoError(t, e.SetDriveEnabled("avoid", true))
	set()
	e.Step()

	assert.Len(t, e.Forest().Roots, roots)
	for name, want := range before {
		got := e.GetValue(name)
		assert.Equal(t, want.OK, got.OK, name)
		assert.InDelta(t, want.V, got.V, 1e-12, name)
	}
}

func TestSetValueRejects(t *testing.T) {
	f := newSpeedFixture(t)
	e := f.engine(t)
	require.True(t, e.SetValue("speed", 4))

	assert.False(t, e.SetValue("speed", 10.5))
	assert.False(t, e.SetValue("speed", -0.1))
	assert.False(t, e.SetValue("nope", 1))
	assert.Equal(t, Some(4), e.GetValue("speed"))
	assert.False(t, e.GetValue("nope").OK)

	e.Reset()
	assert.False(t, e.GetValue("speed").OK)
}

func TestUnsetInputsGiveUndefinedOutputs(t *testing.T) {
	f := newSpeedFixture(t)
	e := f.engine(t)
	e.Step()
	assert.False(t, e.GetValue("output_var").OK)
}

func TestNotEvaluation(t *testing.T) {
	g := newGateFixture()
	var not uuid.UUID
	var in uuid.UUID
	g.addDrive("not", func(d *Drive, a, _, out uuid.UUID) {
		in = a
		not = d.AddOperator(KindNot)
		require.NoError(t, d.Connect(a, not))
		require.NoError(t, d.Connect(not, out))
	})
	e := mustEngine(t, g.model)
	f := e.Forest()

	for _, x := range []float64{0, 0.2, 0.5, 0.9, 1} {
		require.True(t, e.SetValue("a", x))
		child := f.Evaluate(f.Index[in], e.crisp, MinMax{}, SkipUndefined)
		got := f.Evaluate(f.Index[not], e.crisp, MinMax{}, SkipUndefined)
		require.True(t, child.OK)
		require.True(t, got.OK)
		assert.InDelta(t, 1-child.V, got.V, 1e-12)
	}

	e.ClearValue("a")
	assert.False(t, f.Evaluate(f.Index[not], e.crisp, MinMax{}, SkipUndefined).OK)
}

func TestStrictPolicyShortCircuits(t *testing.T) {
	g := newGateFixture()
	g.addDrive("and", func(d *Drive, a, b, out uuid.UUID) {
		and := d.AddOperator(KindAnd)
		require.NoError(t, d.Connect(a, and))
		require.NoError(t, d.Connect(b, and))
		require.NoError(t, d.Connect(and, out))
	})

	skip := mustEngine(t, g.model, WithPolicy(SkipUndefined))
	require.True(t, skip.SetValue("a", 0.6))
	skip.Step()
	assert.True(t, skip.GetValue("o").OK)

	strict := mustEngine(t, g.model, WithPolicy(StrictUndefined))
	require.True(t, strict.SetValue("a", 0.6))
	strict.Step()
	assert.False(t, strict.GetValue("o").OK)

	require.True(t, strict.SetValue("b", 0.4))
	strict.Step()
	assert.True(t, strict.GetValue("o").OK)
}

func TestSharedAccumulatorCombinesDrives(t *testing.T) {
	g := newGateFixture()
	g.addDrive("first", func(d *Drive, a, _, out uuid.UUID) {
		require.NoError(t, d.Connect(a, out))
	})
	g.addDrive("second", func(d *Drive, _, b, out uuid.UUID) {
		require.NoError(t, d.Connect(b, out))
	})
	e := mustEngine(t, g.model)
	f := e.Forest()
	require.Len(t, f.Roots, 1)
	assert.Len(t, f.Nodes[f.Roots[0]].Children, 2)

	// Only b fires; the shared root still produces the output.
	require.True(t, e.SetValue("b", 0.7))
	e.Step()
	assert.True(t, e.GetValue("o").OK)

	strength := f.Evaluate(f.Roots[0], e.crisp, MinMax{}, SkipUndefined)
	assert.InDelta(t, 0.7, strength.V, 1e-2)
}

func TestAggregatesValuesOfOneVariable(t *testing.T) {
	f := newSpeedFixture(t)
	d, ok := f.model.Drive(f.drive)
	require.True(t, ok)
	in := d.AddInput(f.speed, f.slow)
	out := d.AddOutput(f.out, f.outSlow)
	require.NoError(t, d.Connect(in, out))

	e := f.engine(t)
	require.Len(t, e.Forest().Roots, 2)
	require.True(t, e.SetValue("speed", 5))
	e.Step()
	got := e.GetValue("output_var")
	require.True(t, got.OK)
	// Both sets clipped at one half and mirrored around 5.
	assert.InDelta(t, 5.0, got.V, 1e-2)
}

func TestStepContextMatchesStep(t *testing.T) {
	m := FlockingModel(10, 16, 5)
	seq := mustEngine(t, m)
	par := mustEngine(t, m, WithParallelRoots(4))
	for _, e := range []*Engine{seq, par} {
		require.True(t, e.SetValue(VarNeighborCount, 6))
		require.True(t, e.SetValue(VarNearestDistance, 1))
		require.True(t, e.SetValue(VarNearestBearing, 30))
		require.True(t, e.SetValue(VarSpeed, 4))
	}
	seq.Step()
	require.NoError(t, par.StepContext(context.Background()))
	for _, name := range seq.Library().OutputNames() {
		assert.Equal(t, seq.GetValue(name), par.GetValue(name), name)
	}
}

func TestSetDriveEnabledUnknown(t *testing.T) {
	f := newSpeedFixture(t)
	e := f.engine(t)
	assert.ErrorIs(t, e.SetDriveEnabled("missing", true), ErrUnknownDrive)
}

func TestWithDisabledDrives(t *testing.T) {
	m := FlockingModel(10, 16, 5)
	e := mustEngine(t, m, WithDisabledDrives("avoid", "cohesion"))
	assert.False(t, e.DriveEnabled("avoid"))
	assert.True(t, e.DriveEnabled("cruise"))
	assert.Equal(t, []string{"cruise"}, e.Forest().Drives())
}

func TestWithDriveFlags(t *testing.T) {
	m := FlockingModel(10, 16, 5)
	m.Drives[0].Enabled = false
	e := mustEngine(t, m, WithDriveFlags(map[string]bool{
		m.Drives[0].Name: true,
		"cohesion":       false,
		"missing":        true,
	}))
	assert.True(t, e.DriveEnabled(m.Drives[0].Name))
	assert.False(t, e.DriveEnabled("cohesion"))
	assert.False(t, e.DriveEnabled("missing"))
}

func TestCenterOfGravity(t *testing.T) {
	assert.False(t, CenterOfGravity([]float64{1, 2}, []float64{0, 0}).OK)
	assert.Equal(t, Some(2), CenterOfGravity([]float64{1, 2, 3}, []float64{1, 1, 1}))
}

func BenchmarkEngineStep(b *testing.B) {
	m := FlockingModel(10, 16, 5)
	lib, err := NewLibrary(m)
	if err != nil {
		b.Fatal(err)
	}
	e, err := NewEngine(lib)
	if err != nil {
		b.Fatal(err)
	}
	e.SetValue(VarNeighborCount, 5)
	e.SetValue(VarNearestDistance, 3)
	e.SetValue(VarNearestBearing, -40)
	e.SetValue(VarSpeed, 2)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Step()
	}
}
