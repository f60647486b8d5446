package fuzzy

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assembleErr(t *testing.T, m *Model) error {
	t.Helper()
	lib, err := NewLibrary(m)
	require.NoError(t, err)
	_, err = NewEngine(lib)
	require.Error(t, err)
	return err
}

func TestAssembleStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		wire func(t *testing.T, d *Drive, a, b, out uuid.UUID)
		want error
	}{
		{
			name: "dangling reference",
			wire: func(t *testing.T, d *Drive, a, _, out uuid.UUID) {
				d.Connections = append(d.Connections, Connection{From: uuid.New(), To: out})
			},
			want: ErrDanglingReference,
		},
		{
			name: "not without input",
			wire: func(t *testing.T, d *Drive, _, _, out uuid.UUID) {
				not := d.AddOperator(KindNot)
				require.NoError(t, d.Connect(not, out))
			},
			want: ErrNotArity,
		},
		{
			name: "not with two inputs",
			wire: func(t *testing.T, d *Drive, a, b, out uuid.UUID) {
				not := d.AddOperator(KindNot)
				require.NoError(t, d.Connect(a, not))
				d.Connections = append(d.Connections, Connection{From: b, To: not})
				require.NoError(t, d.Connect(not, out))
			},
			want: ErrNotArity,
		},
		{
			name: "cycle",
			wire: func(t *testing.T, d *Drive, a, _, out uuid.UUID) {
				x := d.AddOperator(KindAnd)
				y := d.AddOperator(KindOr)
				require.NoError(t, d.Connect(a, x))
				require.NoError(t, d.Connect(x, y))
				require.NoError(t, d.Connect(y, x))
				require.NoError(t, d.Connect(y, out))
			},
			want: ErrCycle,
		},
		{
			name: "output as source",
			wire: func(t *testing.T, d *Drive, a, _, out uuid.UUID) {
				or := d.AddOperator(KindOr)
				d.Connections = append(d.Connections, Connection{From: out, To: or})
			},
			want: ErrOutputAsSource,
		},
		{
			name: "input as target",
			wire: func(t *testing.T, d *Drive, a, b, _ uuid.UUID) {
				d.Connections = append(d.Connections, Connection{From: a, To: b})
			},
			want: ErrInputAsTarget,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateFixture()
			g.addDrive("broken", func(d *Drive, a, b, out uuid.UUID) {
				tt.wire(t, d, a, b, out)
			})
			err := assembleErr(t, g.model)
			assert.ErrorIs(t, err, tt.want)
			var ae *AssemblyError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, "broken", ae.Drive)
		})
	}
}

func TestOutputNodeNeedsOutputVariable(t *testing.T) {
	g := newGateFixture()
	d := NewDrive("wrong")
	a := d.AddInput(g.a, g.rampA)
	out := d.AddNode(Node{Kind: KindOutput, VariableGUID: g.b.GUID, ValueGUID: g.rampB.GUID})
	require.NoError(t, d.Connect(a, out))
	g.model.AddDrive(d)
	assert.ErrorIs(t, assembleErr(t, g.model), ErrOutputVariable)
}

func TestConnectRules(t *testing.T) {
	g := newGateFixture()
	d := NewDrive("rules")
	a := d.AddInput(g.a, g.rampA)
	b := d.AddInput(g.b, g.rampB)
	out := d.AddOutput(g.o, g.peak)
	not := d.AddOperator(KindNot)
	and := d.AddOperator(KindAnd)

	assert.ErrorIs(t, d.Connect(out, and), ErrOutputAsSource)
	assert.ErrorIs(t, d.Connect(and, a), ErrInputAsTarget)
	assert.ErrorIs(t, d.Connect(and, and), ErrSelfConnection)
	assert.ErrorIs(t, d.Connect(uuid.New(), and), ErrDanglingReference)

	require.NoError(t, d.Connect(a, not))
	require.NoError(t, d.Connect(a, not))
	assert.Len(t, d.Connections, 1)
	assert.ErrorIs(t, d.Connect(b, not), ErrNotArity)

	d.Disconnect(a, not)
	assert.Empty(t, d.Connections)
	require.NoError(t, d.Connect(b, not))

	d.RemoveNode(b)
	assert.Empty(t, d.Connections)
	assert.Len(t, d.Nodes, 4)
}

func TestFailedRebuildKeepsForest(t *testing.T) {
	g := newGateFixture()
	g.addDrive("good", func(d *Drive, a, _, out uuid.UUID) {
		require.NoError(t, d.Connect(a, out))
	})
	bad := g.addDrive("bad", func(d *Drive, _, _, out uuid.UUID) {
		not := d.AddOperator(KindNot)
		require.NoError(t, d.Connect(not, out))
	})
	bad.Enabled = false

	e := mustEngine(t, g.model)
	before := e.Forest()
	assert.ErrorIs(t, e.SetDriveEnabled("bad", true), ErrNotArity)
	assert.False(t, e.DriveEnabled("bad"))
	assert.Same(t, before, e.Forest())
}

func TestAccumulatorGUIDStable(t *testing.T) {
	g := newGateFixture()
	g.addDrive("pass", func(d *Drive, a, _, out uuid.UUID) {
		require.NoError(t, d.Connect(a, out))
	})
	e := mustEngine(t, g.model)
	first := e.Forest().Nodes[e.Forest().Roots[0]].GUID
	require.NoError(t, e.Rebuild())
	assert.Equal(t, first, e.Forest().Nodes[e.Forest().Roots[0]].GUID)
	assert.NotEqual(t, g.peak.GUID, first)
}

func TestOrphansCounted(t *testing.T) {
	g := newGateFixture()
	g.addDrive("pass", func(d *Drive, a, _, out uuid.UUID) {
		d.AddOperator(KindOr)
		require.NoError(t, d.Connect(a, out))
	})
	e := mustEngine(t, g.model)
	// The unused b input and the loose or node.
	assert.Equal(t, 2, e.Forest().Orphans)
}

func TestForestDump(t *testing.T) {
	f := newSpeedFixture(t)
	e := f.engine(t)
	var buf bytes.Buffer
	require.NoError(t, e.Forest().Dump(&buf))
	assert.Equal(t,
		"accumulator output_var=fast\n"+
			"  or\n"+
			"    input speed=slow\n"+
			"    input speed=fast\n",
		buf.String())
}

func TestConnectedComponents(t *testing.T) {
	m := FlockingModel(10, 16, 5)
	n, err := m.ConnectedComponents("avoid")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = m.ConnectedComponents("cohesion")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = m.ConnectedComponents("cruise")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = m.ConnectedComponents("missing")
	assert.ErrorIs(t, err, ErrUnknownDrive)
}
