// Package neighborhood selects and runs the neighbour search backend the
// host queries every cycle: brute force, CPU octree, or an asynchronous
// offload device.
package neighborhood

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/fuzzyflock/spatial"
)

// Mode names a backend.
type Mode uint8

const (
	ModeBruteForce Mode = iota
	ModeOctree
	ModeOffload
)

var modeNames = [...]string{"brute_force", "octree", "offload"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	for i, name := range modeNames {
		if s == name {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown neighborhood mode %q", s)
}

// Provider computes per-agent neighbour lists. Update is called once per
// frame with the current agents; Neighbors returns the latest lists,
// indexed like the agents slice. Before the first completed update every
// list is empty.
type Provider interface {
	Update(frame int, agents []spatial.Agent)
	Neighbors(i int) []int
	Mode() Mode
}

// Options configures New.
type Options struct {
	Mode Mode
	// Every runs the search on every Nth frame only; 0 or 1 is every
	// frame.
	Every int
	// Parallel fans agent queries out over this many goroutines.
	Parallel int

	OctreeDepth  int
	OctreeBucket int
	Direct       bool

	Slots         int
	Workers       int
	LatencyFrames int

	Logger *slog.Logger
}

// New builds the provider described by opts.
func New(opts Options) (Provider, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var p Provider
	switch opts.Mode {
	case ModeBruteForce:
		p = NewBruteForce(opts.Parallel)
	case ModeOctree:
		query := spatial.ModeFull
		if opts.Direct {
			query = spatial.ModeDirect
		}
		p = NewOctree(opts.OctreeDepth, opts.OctreeBucket, query, opts.Parallel)
	case ModeOffload:
		dev := NewCPUDevice(opts.Workers, opts.OctreeDepth, opts.OctreeBucket)
		p = NewOffload(dev, opts.Slots, opts.LatencyFrames, opts.Logger)
	default:
		return nil, fmt.Errorf("neighborhood: unknown mode %d", opts.Mode)
	}
	if opts.Every > 1 {
		p = NewThrottle(p, opts.Every)
	}
	opts.Logger.Info("neighborhood provider",
		"mode", opts.Mode.String(),
		"every", opts.Every,
		"direct", opts.Direct,
	)
	return p, nil
}

// lists holds one reusable neighbour slice per agent.
type lists [][]int

func (l *lists) resize(n int) {
	if cap(*l) < n {
		grown := make([][]int, n)
		copy(grown, *l)
		*l = grown
		return
	}
	*l = (*l)[:n]
}

func (l lists) get(i int) []int {
	if i < 0 || i >= len(l) {
		return nil
	}
	return l[i]
}

// fill runs query for every agent, splitting the index range across up
// to parallel goroutines. Each goroutine owns a disjoint range of l.
func (l lists) fill(parallel int, query func(i int, dst []int) []int) {
	n := len(l)
	if parallel <= 1 || n < 2*parallel {
		for i := range l {
			l[i] = query(i, l[i][:0])
		}
		return
	}
	var g errgroup.Group
	chunk := (n + parallel - 1) / parallel
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				l[i] = query(i, l[i][:0])
			}
			return nil
		})
	}
	_ = g.Wait()
}

// BruteForce checks every pair. It is the reference the other backends
// are measured against.
type BruteForce struct {
	parallel int
	lists    lists
}

// NewBruteForce creates a brute-force provider.
func NewBruteForce(parallel int) *BruteForce {
	return &BruteForce{parallel: parallel}
}

func (b *BruteForce) Update(_ int, agents []spatial.Agent) {
	b.lists.resize(len(agents))
	b.lists.fill(b.parallel, func(i int, dst []int) []int {
		return spatial.BruteForce(agents, i, dst)
	})
}

func (b *BruteForce) Neighbors(i int) []int { return b.lists.get(i) }

func (b *BruteForce) Mode() Mode { return ModeBruteForce }

// Octree rebuilds a spatial.Octree each update and queries it per agent.
type Octree struct {
	tree     *spatial.Octree
	query    spatial.QueryMode
	parallel int
	lists    lists
}

// NewOctree creates an octree provider.
func NewOctree(depth, bucket int, query spatial.QueryMode, parallel int) *Octree {
	return &Octree{
		tree:     spatial.New(spatial.BoundsOf(nil), depth, bucket),
		query:    query,
		parallel: parallel,
	}
}

func (o *Octree) Update(_ int, agents []spatial.Agent) {
	// Build is a barrier: the tree is complete before any query runs.
	o.tree.Build(agents)
	o.lists.resize(len(agents))
	o.lists.fill(o.parallel, func(i int, dst []int) []int {
		return o.tree.Neighbors(agents, i, o.query, dst)
	})
}

func (o *Octree) Neighbors(i int) []int { return o.lists.get(i) }

func (o *Octree) Mode() Mode { return ModeOctree }

// Tree exposes the last built tree for overlays and stats.
func (o *Octree) Tree() *spatial.Octree { return o.tree }

// QueryMode returns the candidate gathering mode.
func (o *Octree) QueryMode() spatial.QueryMode { return o.query }

// Throttle runs its inner provider only on every Nth update. Between
// runs the inner provider's lists are served unchanged.
type Throttle struct {
	inner Provider
	every int
	count int
	frame int
	ran   int
}

// NewThrottle wraps inner.
func NewThrottle(inner Provider, every int) *Throttle {
	if every < 1 {
		every = 1
	}
	return &Throttle{inner: inner, every: every, ran: -1}
}

func (t *Throttle) Update(frame int, agents []spatial.Agent) {
	if frame < t.frame {
		// Rewound: restart the cadence so the inner provider runs now.
		t.count = 0
		t.ran = -1
	}
	t.frame = frame
	if t.count%t.every == 0 {
		t.inner.Update(frame, agents)
		t.ran = frame
	}
	t.count++
}

func (t *Throttle) Neighbors(i int) []int { return t.inner.Neighbors(i) }

func (t *Throttle) Mode() Mode { return t.inner.Mode() }

// Staleness adds the frames since the inner provider last ran to the
// inner provider's own staleness.
func (t *Throttle) Staleness() int {
	if t.ran < 0 {
		return -1
	}
	inner := Staleness(t.inner)
	if inner < 0 {
		return -1
	}
	return inner + t.frame - t.ran
}

// Inner returns the wrapped provider.
func (t *Throttle) Inner() Provider { return t.inner }

// Staleness reports how many frames old p's lists are, or -1 before p
// has produced any. Providers that answer in the frame they run are
// always fresh.
func Staleness(p Provider) int {
	if s, ok := p.(interface{ Staleness() int }); ok {
		return s.Staleness()
	}
	return 0
}
