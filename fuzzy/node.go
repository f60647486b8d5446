package fuzzy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeKind tags the variants of a rule node.
type NodeKind uint8

const (
	KindInput NodeKind = iota
	KindOutput
	KindAnd
	KindOr
	KindNot
	// kindAccumulator is the synthesized shared root for one output value.
	kindAccumulator
)

var nodeKindNames = [...]string{"input", "output", "and", "or", "not", "accumulator"}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", k)
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *NodeKind) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	for i, name := range nodeKindNames[:kindAccumulator] {
		if s == name {
			*k = NodeKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown node kind %q", s)
}

// Node is one authored rule node. Input and output nodes reference a
// variable and one of its values; operator nodes reference neither.
// X and Y are layout coordinates and play no part in evaluation.
type Node struct {
	GUID         uuid.UUID `yaml:"guid" json:"guid"`
	Kind         NodeKind  `yaml:"kind" json:"kind"`
	VariableGUID uuid.UUID `yaml:"variable,omitempty" json:"variable,omitempty"`
	ValueGUID    uuid.UUID `yaml:"value,omitempty" json:"value,omitempty"`
	X            float64   `yaml:"x,omitempty" json:"x,omitempty"`
	Y            float64   `yaml:"y,omitempty" json:"y,omitempty"`
}

// IsGraph reports whether n is an input or output node.
func (n Node) IsGraph() bool {
	return n.Kind == KindInput || n.Kind == KindOutput
}

// Connection is a directed edge: From's result feeds To's aggregation.
type Connection struct {
	From uuid.UUID `yaml:"from" json:"from"`
	To   uuid.UUID `yaml:"to" json:"to"`
}

// Drive is an independently toggleable bundle of rule nodes.
type Drive struct {
	GUID        uuid.UUID    `yaml:"guid" json:"guid"`
	Name        string       `yaml:"name" json:"name"`
	Enabled     bool         `yaml:"enabled" json:"enabled"`
	Nodes       []Node       `yaml:"nodes" json:"nodes"`
	Connections []Connection `yaml:"connections" json:"connections"`
}

// NewDrive creates an empty, enabled drive.
func NewDrive(name string) *Drive {
	return &Drive{GUID: uuid.New(), Name: name, Enabled: true}
}

// Node looks up a node by GUID.
func (d *Drive) Node(id uuid.UUID) (Node, bool) {
	for _, n := range d.Nodes {
		if n.GUID == id {
			return n, true
		}
	}
	return Node{}, false
}

// AddInput adds an input node reading value of v.
func (d *Drive) AddInput(v Variable, value VariableValue) uuid.UUID {
	return d.AddNode(Node{Kind: KindInput, VariableGUID: v.GUID, ValueGUID: value.GUID})
}

// AddOutput adds an output node targeting value of v.
func (d *Drive) AddOutput(v Variable, value VariableValue) uuid.UUID {
	return d.AddNode(Node{Kind: KindOutput, VariableGUID: v.GUID, ValueGUID: value.GUID})
}

// AddOperator adds an And, Or or Not node.
func (d *Drive) AddOperator(kind NodeKind) uuid.UUID {
	return d.AddNode(Node{Kind: kind})
}

// AddNode appends n, assigning a GUID when it has none.
func (d *Drive) AddNode(n Node) uuid.UUID {
	if n.GUID == uuid.Nil {
		n.GUID = uuid.New()
	}
	d.Nodes = append(d.Nodes, n)
	return n.GUID
}

// RemoveNode deletes a node and every connection touching it.
func (d *Drive) RemoveNode(id uuid.UUID) {
	nodes := d.Nodes[:0]
	for _, n := range d.Nodes {
		if n.GUID != id {
			nodes = append(nodes, n)
		}
	}
	d.Nodes = nodes
	conns := d.Connections[:0]
	for _, c := range d.Connections {
		if c.From != id && c.To != id {
			conns = append(conns, c)
		}
	}
	d.Connections = conns
}

// Connect adds the edge from -> to after checking the authoring rules:
// outputs never feed other nodes, inputs never receive edges, a not
// node takes a single input, and duplicate edges are ignored.
func (d *Drive) Connect(from, to uuid.UUID) error {
	src, ok := d.Node(from)
	if !ok {
		return &AssemblyError{Drive: d.Name, Node: from, Err: ErrDanglingReference}
	}
	dst, ok := d.Node(to)
	if !ok {
		return &AssemblyError{Drive: d.Name, Node: to, Err: ErrDanglingReference}
	}
	if err := checkEdge(src, dst); err != nil {
		return &AssemblyError{Drive: d.Name, Node: to, Err: err}
	}
	for _, c := range d.Connections {
		if c.From == from && c.To == to {
			return nil
		}
		if dst.Kind == KindNot && c.To == to {
			return &AssemblyError{Drive: d.Name, Node: to, Err: ErrNotArity}
		}
	}
	d.Connections = append(d.Connections, Connection{From: from, To: to})
	return nil
}

// Disconnect removes the edge from -> to if present.
func (d *Drive) Disconnect(from, to uuid.UUID) {
	for i, c := range d.Connections {
		if c.From == from && c.To == to {
			d.Connections = append(d.Connections[:i], d.Connections[i+1:]...)
			return
		}
	}
}

func checkEdge(src, dst Node) error {
	switch {
	case src.GUID == dst.GUID:
		return ErrSelfConnection
	case src.Kind == KindOutput:
		return ErrOutputAsSource
	case dst.Kind == KindInput:
		return ErrInputAsTarget
	}
	return nil
}

// ConnectedComponents counts the weakly connected components of the
// drive's graph. An isolated node is its own component.
func (d *Drive) ConnectedComponents() int {
	parent := make(map[uuid.UUID]uuid.UUID, len(d.Nodes))
	for _, n := range d.Nodes {
		parent[n.GUID] = n.GUID
	}
	var find func(uuid.UUID) uuid.UUID
	find = func(x uuid.UUID) uuid.UUID {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	count := len(d.Nodes)
	for _, c := range d.Connections {
		if _, ok := parent[c.From]; !ok {
			continue
		}
		if _, ok := parent[c.To]; !ok {
			continue
		}
		a, b := find(c.From), find(c.To)
		if a != b {
			parent[a] = b
			count--
		}
	}
	return count
}
