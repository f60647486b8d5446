package fuzzy

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// accumulatorSpace derives stable GUIDs for shared output roots so the
// same value always gets the same accumulator across rebuilds.
var accumulatorSpace = uuid.MustParse("6f1c7a52-3d0e-4b8e-9a55-0c2f4e7d9b13")

// treeNode is one arena slot of the evaluation forest. Children are
// arena indices; a node reachable from several parents is evaluated once
// per parent.
type treeNode struct {
	Kind     NodeKind
	GUID     uuid.UUID
	Drive    string
	Value    *libValue
	Children []int
}

// Forest is the merged, read-only evaluation structure for one set of
// enabled drives. Roots are the shared accumulators, one per distinct
// output value, in order of first reference.
type Forest struct {
	Nodes []treeNode
	Roots []int
	Index map[uuid.UUID]int
	// Orphans counts authored nodes not reachable from any root.
	Orphans int

	drives []string
}

// Assemble merges drives into one forest. Any structural violation
// aborts assembly; no partial forest is returned.
func Assemble(lib *Library, drives []*Drive) (*Forest, error) {
	f := &Forest{Index: make(map[uuid.UUID]int)}
	nodeDrive := make(map[uuid.UUID]*Drive)

	for _, d := range drives {
		f.drives = append(f.drives, d.Name)
		for _, n := range d.Nodes {
			if _, dup := f.Index[n.GUID]; dup {
				return nil, &AssemblyError{Drive: d.Name, Node: n.GUID, Err: ErrDuplicateGUID}
			}
			tn := treeNode{Kind: n.Kind, GUID: n.GUID, Drive: d.Name}
			if n.IsGraph() {
				val, err := graphValue(lib, n)
				if err != nil {
					return nil, &AssemblyError{Drive: d.Name, Node: n.GUID, Err: err}
				}
				tn.Value = val
			}
			f.Index[n.GUID] = len(f.Nodes)
			f.Nodes = append(f.Nodes, tn)
			nodeDrive[n.GUID] = d
		}
	}

	// One shared accumulator per distinct output value.
	acc := make(map[uuid.UUID]int)
	for _, d := range drives {
		for _, n := range d.Nodes {
			if n.Kind != KindOutput {
				continue
			}
			if _, ok := acc[n.ValueGUID]; ok {
				continue
			}
			src := f.Nodes[f.Index[n.GUID]]
			id := uuid.NewSHA1(accumulatorSpace, n.ValueGUID[:])
			acc[n.ValueGUID] = len(f.Nodes)
			f.Roots = append(f.Roots, len(f.Nodes))
			f.Index[id] = len(f.Nodes)
			f.Nodes = append(f.Nodes, treeNode{Kind: kindAccumulator, GUID: id, Value: src.Value})
		}
	}

	for _, d := range drives {
		for _, c := range d.Connections {
			from, ok := f.Index[c.From]
			if !ok || nodeDrive[c.From] != d {
				return nil, &AssemblyError{Drive: d.Name, Node: c.From, Err: ErrDanglingReference}
			}
			to, ok := f.Index[c.To]
			if !ok || nodeDrive[c.To] != d {
				return nil, &AssemblyError{Drive: d.Name, Node: c.To, Err: ErrDanglingReference}
			}
			src, dst := f.Nodes[from], f.Nodes[to]
			if err := checkEdge(Node{GUID: src.GUID, Kind: src.Kind}, Node{GUID: dst.GUID, Kind: dst.Kind}); err != nil {
				return nil, &AssemblyError{Drive: d.Name, Node: c.To, Err: err}
			}
			if dst.Kind == KindOutput {
				to = acc[dst.Value.GUID]
			}
			f.Nodes[to].Children = append(f.Nodes[to].Children, from)
		}
	}

	for _, n := range f.Nodes {
		if n.Kind == KindNot && len(n.Children) != 1 {
			return nil, &AssemblyError{Drive: n.Drive, Node: n.GUID, Err: ErrNotArity}
		}
	}
	if err := f.checkAcyclic(); err != nil {
		return nil, err
	}
	f.Orphans = f.countOrphans()
	return f, nil
}

func graphValue(lib *Library, n Node) (*libValue, error) {
	lv, ok := lib.vars[n.VariableGUID]
	if !ok {
		return nil, fmt.Errorf("variable %s: %w", n.VariableGUID, ErrUnknownVariable)
	}
	val, err := lib.lookupValue(n.ValueGUID)
	if err != nil {
		return nil, err
	}
	if val.variable != lv {
		return nil, fmt.Errorf("value %q does not belong to %q: %w", val.Name, lv.Name, ErrUnknownValue)
	}
	if n.Kind == KindOutput && !lv.output {
		return nil, fmt.Errorf("variable %q: %w", lv.Name, ErrOutputVariable)
	}
	return val, nil
}

func (f *Forest) checkAcyclic() error {
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, len(f.Nodes))
	var visit func(i int) error
	visit = func(i int) error {
		color[i] = grey
		for _, c := range f.Nodes[i].Children {
			switch color[c] {
			case grey:
				n := f.Nodes[c]
				return &AssemblyError{Drive: n.Drive, Node: n.GUID, Err: ErrCycle}
			case white:
				if err := visit(c); err != nil {
					return err
				}
			}
		}
		color[i] = black
		return nil
	}
	for i := range f.Nodes {
		if color[i] == white {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Forest) countOrphans() int {
	seen := make([]bool, len(f.Nodes))
	var mark func(i int)
	mark = func(i int) {
		if seen[i] {
			return
		}
		seen[i] = true
		for _, c := range f.Nodes[i].Children {
			mark(c)
		}
	}
	for _, r := range f.Roots {
		mark(r)
	}
	n := 0
	for i, node := range f.Nodes {
		// Output nodes are merged into their accumulator.
		if !seen[i] && node.Kind != KindOutput {
			n++
		}
	}
	return n
}

// Evaluate computes the value of node idx against the crisp inputs,
// which are indexed by variable slot.
func (f *Forest) Evaluate(idx int, crisp []Value, ops SetOperations, p Policy) Value {
	n := &f.Nodes[idx]
	eval := func(i int) Value {
		return f.Evaluate(n.Children[i], crisp, ops, p)
	}
	switch n.Kind {
	case KindInput:
		x := crisp[n.Value.variable.slot]
		if !x.OK {
			return Undefined
		}
		return Some(n.Value.Membership(n.Value.variable.Variable, x.V))
	case KindAnd:
		return ops.Intersection(len(n.Children), eval, p)
	case KindOr, KindOutput, kindAccumulator:
		return ops.Union(len(n.Children), eval, p)
	case KindNot:
		v := eval(0)
		if !v.OK {
			return Undefined
		}
		return Some(1 - v.V)
	}
	return Undefined
}

// Drives lists the drives the forest was assembled from.
func (f *Forest) Drives() []string {
	return f.drives
}

// Dump writes an indented view of every root, for debugging.
func (f *Forest) Dump(w io.Writer) error {
	var walk func(i, depth int) error
	walk = func(i, depth int) error {
		n := f.Nodes[i]
		label := n.Kind.String()
		if n.Value != nil {
			label = fmt.Sprintf("%s %s=%s", label, n.Value.variable.Name, n.Value.Name)
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), label); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range f.Roots {
		if err := walk(r, 0); err != nil {
			return err
		}
	}
	return nil
}
