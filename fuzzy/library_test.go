package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketTablesRows(t *testing.T) {
	y := []float64{0, 0.3, 0.8, 1}
	clamp, scale := bucketTables(y, DefaultBuckets)
	require.Len(t, clamp, DefaultBuckets)
	require.Len(t, scale, DefaultBuckets)

	assert.Equal(t, []float64{0, 0, 0, 0}, clamp[0])
	assert.Equal(t, []float64{0, 0, 0, 0}, scale[0])

	assert.InDeltaSlice(t, []float64{0, 0.3, 0.5, 0.5}, clamp[50], 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.15, 0.4, 0.5}, scale[50], 1e-12)

	assert.InDeltaSlice(t, []float64{0, 0.2, 0.2, 0.2}, clamp[20], 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.06, 0.16, 0.2}, scale[20], 1e-12)

	assert.InDeltaSlice(t, y, clamp[100], 1e-12)
	assert.InDeltaSlice(t, y, scale[100], 1e-12)
}

func TestBucketRounding(t *testing.T) {
	lib, err := NewLibrary(newGateFixture().model)
	require.NoError(t, err)

	assert.Equal(t, 0, lib.bucket(0.004))
	assert.Equal(t, 1, lib.bucket(0.006))
	assert.Equal(t, 50, lib.bucket(0.5))
	assert.Equal(t, 0, lib.bucket(-1))
	assert.Equal(t, DefaultBuckets-1, lib.bucket(2))

	coarse, err := NewLibrary(newGateFixture().model, WithBuckets(11))
	require.NoError(t, err)
	assert.Equal(t, 0, coarse.bucket(0.04))
	assert.Equal(t, 1, coarse.bucket(0.06))
	assert.Equal(t, 10, coarse.bucket(1))
}

func TestTableFollowsMode(t *testing.T) {
	g := newGateFixture()
	lib, err := NewLibrary(g.model)
	require.NoError(t, err)
	val := lib.values[g.peak.GUID]
	require.NotNil(t, val)

	assert.Equal(t, val.scale[30], lib.table(val, ModeProductSum, 0.3))
	assert.Equal(t, val.clamp[30], lib.table(val, ModeMinMax, 0.3))
	assert.NotEqual(t, val.scale[30], val.clamp[30])

	// Input values carry no tables.
	assert.Nil(t, lib.values[g.rampA.GUID].clamp)
}

// splitModel has one output o in [0, 10] split into a low set falling
// from 0 to 4 and a high set rising from 4 to 10. Drive "low" fires the
// low set from a, drive "high" fires the high set from b.
type splitModel struct {
	model     *Model
	low, high VariableValue
}

func newSplitModel(t *testing.T) *splitModel {
	t.Helper()
	a := NewVariable("a", 0, 1)
	b := NewVariable("b", 0, 1)
	o := NewVariable("o", 0, 10)
	rampA := NewValue(a, "ramp", Curve{Linear(0, 0), Linear(1, 1)})
	rampB := NewValue(b, "ramp", Curve{Linear(0, 0), Linear(1, 1)})
	s := &splitModel{
		low:  NewTriangle(o, "low", 0, 0, 4),
		high: NewTriangle(o, "high", 4, 10, 10),
	}
	s.model = &Model{
		Inputs:  []Variable{a, b},
		Outputs: []Variable{o},
		Values:  []VariableValue{rampA, rampB, s.low, s.high},
	}
	wire := func(name string, in Variable, ramp, out VariableValue) {
		d := NewDrive(name)
		src := d.AddInput(in, ramp)
		dst := d.AddOutput(o, out)
		require.NoError(t, d.Connect(src, dst))
		s.model.AddDrive(d)
	}
	wire("low", a, rampA, s.low)
	wire("high", b, rampB, s.high)
	return s
}

func TestProductSumScalesOutputSets(t *testing.T) {
	s := newSplitModel(t)
	lib, err := NewLibrary(s.model)
	require.NoError(t, err)

	const a, b = 0.9, 0.3
	low := lib.values[s.low.GUID].Samples
	high := lib.values[s.high.GUID].Samples

	clamped := make([]float64, low.Len())
	scaled := make([]float64, low.Len())
	for i := range clamped {
		lc, hc := min(low.Y[i], a), min(high.Y[i], b)
		clamped[i] = max(lc, hc)
		ls, hs := low.Y[i]*a, high.Y[i]*b
		scaled[i] = ls + hs - ls*hs
	}
	wantMinMax := CenterOfGravity(low.X, clamped)
	wantProduct := CenterOfGravity(low.X, scaled)
	require.True(t, wantMinMax.OK)
	require.True(t, wantProduct.OK)

	// Clamping flattens the strong low set into a plateau; scaling keeps
	// its slope and pulls the centroid further left.
	assert.InDelta(t, 3.985, wantMinMax.V, 0.01)
	assert.InDelta(t, 3.546, wantProduct.V, 0.01)
	assert.Greater(t, wantMinMax.V-wantProduct.V, 0.3)

	run := func(opts ...EngineOption) Value {
		e, err := NewEngine(lib, opts...)
		require.NoError(t, err)
		require.True(t, e.SetValue("a", a))
		require.True(t, e.SetValue("b", b))
		e.Step()
		return e.GetValue("o")
	}

	got := run(WithMode(ModeMinMax))
	require.True(t, got.OK)
	assert.InDelta(t, wantMinMax.V, got.V, 1e-9)

	got = run(WithMode(ModeProductSum))
	require.True(t, got.OK)
	assert.InDelta(t, wantProduct.V, got.V, 1e-9)

	got = run(WithOperations(ProductSum{}))
	require.True(t, got.OK)
	assert.InDelta(t, wantProduct.V, got.V, 1e-9)
}
