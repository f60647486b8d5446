package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveEvaluateLinear(t *testing.T) {
	c := Curve{Linear(2, 0), Linear(0, 0), Linear(1, 1)}

	tests := []struct {
		x, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.25},
		{0.5, 0.5},
		{1, 1},
		{1.5, 0.5},
		{2, 0},
		{3, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, c.Evaluate(tt.x), 1e-12, "x=%g", tt.x)
	}
}

func TestCurveEvaluateConstant(t *testing.T) {
	c := Curve{
		{X: 0, Y: 0.2, RightMode: TangentConstant},
		{X: 1, Y: 0.8, LeftMode: TangentConstant},
	}
	assert.Equal(t, 0.2, c.Evaluate(0.5))
	assert.Equal(t, 0.2, c.Evaluate(0.999))
	assert.Equal(t, 0.8, c.Evaluate(1))
}

func TestCurveEvaluateFreeTangents(t *testing.T) {
	// Flat tangents give a smoothstep between the keys.
	c := Curve{{X: 0, Y: 0}, {X: 1, Y: 1}}
	assert.InDelta(t, 0.5, c.Evaluate(0.5), 1e-12)
	assert.InDelta(t, 0.15625, c.Evaluate(0.25), 1e-12)
}

func TestEmptyCurve(t *testing.T) {
	assert.Equal(t, 0.0, Curve(nil).Evaluate(3))
}

func TestDiscretise(t *testing.T) {
	v := NewVariable("speed", 0, 10)
	s := Curve{Linear(0, -1), Linear(10, 2)}.Discretise(v, DefaultSampleCount)

	require.Equal(t, DefaultSampleCount, s.Len())
	assert.Equal(t, 0.0, s.X[0])
	assert.Equal(t, 10.0, s.X[s.Len()-1])
	assert.InDelta(t, 10.0/256, s.X[1], 1e-12)
	for _, y := range s.Y {
		assert.GreaterOrEqual(t, y, 0.0)
		assert.LessOrEqual(t, y, 1.0)
	}

	cp := s.Copy()
	cp.Y[0] = 42
	assert.NotEqual(t, 42.0, s.Y[0])
}

func TestRepairBounds(t *testing.T) {
	v := NewVariable("d", 0, 10)

	tests := []struct {
		name  string
		curve Curve
		want  []Keyframe
	}{
		{
			name:  "already covered",
			curve: Curve{Linear(0, 1), Linear(10, 0)},
			want:  []Keyframe{Linear(0, 1), Linear(10, 0)},
		},
		{
			name:  "drops keys outside",
			curve: Curve{Linear(-5, 1), Linear(5, 1), Linear(15, 0)},
			want:  []Keyframe{Linear(0, 0), Linear(5, 1), Linear(10, 0)},
		},
		{
			name:  "single key gets upper at one",
			curve: Curve{Linear(-3, 1)},
			want:  []Keyframe{Linear(0, 0), Linear(10, 1)},
		},
		{
			name:  "empty",
			curve: nil,
			want:  []Keyframe{Linear(0, 0), Linear(10, 1)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.curve.RepairBounds(v)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.Equal(t, tt.want[i].X, got[i].X)
				assert.Equal(t, tt.want[i].Y, got[i].Y)
			}
		})
	}
}

func TestTriangleMembership(t *testing.T) {
	v := NewVariable("x", 0, 10)
	tri := NewTriangle(v, "mid", 2.5, 5, 7.5)
	assert.InDelta(t, 1.0, tri.Membership(v, 5), 1e-12)
	assert.InDelta(t, 0.5, tri.Membership(v, 6.25), 1e-12)
	assert.Equal(t, 0.0, tri.Membership(v, 0))
	assert.Equal(t, 0.0, tri.Membership(v, 9))
}

func TestTangentModeText(t *testing.T) {
	var m TangentMode
	require.NoError(t, m.UnmarshalText([]byte("Constant")))
	assert.Equal(t, TangentConstant, m)
	b, err := TangentLinear.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "linear", string(b))
	assert.Error(t, m.UnmarshalText([]byte("bezier")))
}
