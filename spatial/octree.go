package spatial

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// QueryMode selects how Octree.Neighbors gathers candidates.
type QueryMode uint8

const (
	// ModeFull visits every node whose box touches the perception sphere.
	ModeFull QueryMode = iota
	// ModeDirect descends straight to the querying agent's own cell. It
	// is cheaper and misses neighbours across cell boundaries.
	ModeDirect
)

func (m QueryMode) String() string {
	if m == ModeDirect {
		return "direct"
	}
	return "full"
}

const noChild = -1

// octNode is one arena slot. Children are created lazily and addressed
// by octant: bit 0 is +X, bit 1 is +Y, bit 2 is +Z.
type octNode struct {
	box      r3.Box
	budget   int
	level    int
	split    bool
	children [8]int32
	items    []int
}

// Octree partitions agent positions. It is rebuilt from scratch each
// cycle with Build (or Reset plus Insert) and must be complete before it
// is queried. Node storage is reused across rebuilds.
type Octree struct {
	maxDepth int
	bucket   int

	nodes  []octNode
	points []r3.Vec
	count  int
}

// New creates an empty octree over bounds. A node holds up to bucket
// agents before splitting; nodes maxDepth levels down never split.
func New(bounds r3.Box, maxDepth, bucket int) *Octree {
	if bucket < 1 {
		bucket = 1
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	o := &Octree{maxDepth: maxDepth, bucket: bucket}
	o.Reset(bounds)
	return o
}

// Reset empties the tree and sets new root bounds.
func (o *Octree) Reset(bounds r3.Box) {
	o.nodes = o.nodes[:0]
	o.count = 0
	o.alloc(bounds, o.maxDepth, 0)
}

// Build resets the tree to the agents' bounds and inserts them all, using
// each agent's slice index as its id.
func (o *Octree) Build(agents []Agent) {
	o.Reset(BoundsOf(agents))
	for i, a := range agents {
		o.Insert(i, a.Position())
	}
}

func (o *Octree) alloc(box r3.Box, budget, level int) int32 {
	idx := len(o.nodes)
	if idx < cap(o.nodes) {
		o.nodes = o.nodes[:idx+1]
		n := &o.nodes[idx]
		items := n.items[:0]
		*n = octNode{box: box, budget: budget, level: level, items: items}
	} else {
		o.nodes = append(o.nodes, octNode{box: box, budget: budget, level: level})
	}
	for i := range o.nodes[idx].children {
		o.nodes[idx].children[i] = noChild
	}
	return int32(idx)
}

// Insert adds agent id at pos.
func (o *Octree) Insert(id int, pos r3.Vec) {
	for len(o.points) <= id {
		o.points = append(o.points, r3.Vec{})
	}
	o.points[id] = pos
	o.count++
	o.insert(0, id)
}

func (o *Octree) insert(n int32, id int) {
	for {
		node := &o.nodes[n]
		if !node.split {
			if len(node.items) < o.bucket || node.budget == 0 {
				node.items = append(node.items, id)
				return
			}
			o.split(n)
			node = &o.nodes[n]
		}
		n = o.child(n, o.points[id])
	}
}

// split turns a full leaf into an inner node and pushes its bucket down.
func (o *Octree) split(n int32) {
	node := &o.nodes[n]
	node.split = true
	moved := node.items
	node.items = nil
	for _, id := range moved {
		o.insert(o.child(n, o.points[id]), id)
	}
	// Hand the old backing array back so it is reused on the next build.
	o.nodes[n].items = moved[:0]
}

// child returns the octant child of n holding p, creating it if needed.
// Coordinates strictly above the midpoint go to the upper half.
func (o *Octree) child(n int32, p r3.Vec) int32 {
	node := &o.nodes[n]
	oct, box := octant(node.box, p)
	if c := node.children[oct]; c != noChild {
		return c
	}
	budget, level := node.budget-1, node.level+1
	c := o.alloc(box, budget, level)
	o.nodes[n].children[oct] = c
	return c
}

func octant(box r3.Box, p r3.Vec) (int, r3.Box) {
	mid := r3.Scale(0.5, r3.Add(box.Min, box.Max))
	sub := r3.Box{Min: box.Min, Max: mid}
	oct := 0
	if p.X > mid.X {
		oct |= 1
		sub.Min.X, sub.Max.X = mid.X, box.Max.X
	}
	if p.Y > mid.Y {
		oct |= 2
		sub.Min.Y, sub.Max.Y = mid.Y, box.Max.Y
	}
	if p.Z > mid.Z {
		oct |= 4
		sub.Min.Z, sub.Max.Z = mid.Z, box.Max.Z
	}
	return oct, sub
}

// Neighbors appends to dst the agents visible to agents[i]. Candidates
// come from the tree; each is then filtered by distance and field of
// view. The querying agent is never included.
func (o *Octree) Neighbors(agents []Agent, i int, mode QueryMode, dst []int) []int {
	if len(o.nodes) == 0 {
		return dst
	}
	self := agents[i]
	pos := self.Position()
	p := self.Perception()
	fr := Basis(self.Direction())

	visit := func(items []int) {
		for _, j := range items {
			if j == i || j >= len(agents) {
				continue
			}
			if InFieldOfView(pos, o.points[j], fr, p) {
				dst = append(dst, j)
			}
		}
	}

	if mode == ModeDirect {
		n := int32(0)
		for {
			node := &o.nodes[n]
			if len(node.items) > 0 || !node.split {
				visit(node.items)
				return dst
			}
			oct, _ := octant(node.box, pos)
			if n = node.children[oct]; n == noChild {
				return dst
			}
		}
	}

	stack := []int32{0}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &o.nodes[n]
		if !BoxSphereIntersect(node.box, pos, p.Radius) {
			continue
		}
		visit(node.items)
		for _, c := range node.children {
			if c != noChild {
				stack = append(stack, c)
			}
		}
	}
	return dst
}

// Len returns the number of inserted agents.
func (o *Octree) Len() int { return o.count }

// Nodes returns the number of allocated nodes.
func (o *Octree) Nodes() int { return len(o.nodes) }

// Depth returns the deepest level in use; the root is level 0.
func (o *Octree) Depth() int {
	d := 0
	for i := range o.nodes {
		if o.nodes[i].level > d {
			d = o.nodes[i].level
		}
	}
	return d
}

// Leaves returns the number of nodes that never split.
func (o *Octree) Leaves() int {
	n := 0
	for i := range o.nodes {
		if !o.nodes[i].split {
			n++
		}
	}
	return n
}

// Bounds returns the root box.
func (o *Octree) Bounds() r3.Box {
	return o.nodes[0].box
}

// Walk calls fn for every node in depth-first order.
func (o *Octree) Walk(fn func(box r3.Box, level, count int)) {
	if len(o.nodes) == 0 {
		return
	}
	var walk func(n int32)
	walk = func(n int32) {
		node := &o.nodes[n]
		fn(node.box, node.level, len(node.items))
		for _, c := range node.children {
			if c != noChild {
				walk(c)
			}
		}
	}
	walk(0)
}
