package game

import (
	"context"
	"runtime"

	"github.com/mlange-42/ark/ecs"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/components"
	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/spatial"
	"github.com/pthm-cable/fuzzyflock/systems"
)

// parallelThreshold is the minimum agent count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// agentSnapshot captures the state an agent's step reads.
type agentSnapshot struct {
	Entity    ecs.Entity
	Body      systems.Body
	Engine    *fuzzy.Engine
	Prev      systems.Outputs
	NoiseSeed float64
}

// intent captures computed results to apply after the parallel phases.
type intent struct {
	Readings systems.Readings
	Out      systems.Outputs
	Body     systems.Body
}

// parallelState holds the per-tick buffers shared by the phases.
type parallelState struct {
	snapshots []agentSnapshot
	movers    []spatial.Agent
	intents   []intent
	workers   int
}

func newParallelState(workers int) *parallelState {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		workers:   workers,
		snapshots: make([]agentSnapshot, 0, 512),
		movers:    make([]spatial.Agent, 0, 512),
		intents:   make([]intent, 0, 512),
	}
}

// forEach calls fn for every index in [0, n), split into one contiguous
// chunk per worker when n is large enough. Each index is visited by
// exactly one goroutine.
func (p *parallelState) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n < parallelThreshold || p.workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	chunk := (n + p.workers - 1) / p.workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		eg.Go(func() error {
			for i := start; i < end; i++ {
				if err := fn(ctx, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

// snapshot copies every agent's state into the flat buffers the phases
// index by position. The neighbour provider sees the same order.
func (g *Game) snapshot() int {
	p := g.parallel
	p.snapshots = p.snapshots[:0]
	p.movers = p.movers[:0]

	query := g.agentFilter.Query()
	for query.Next() {
		pos, vel, head, sense, brain, agent := query.Get()
		p.snapshots = append(p.snapshots, agentSnapshot{
			Entity:    query.Entity(),
			Body:      systems.Body{Pos: pos.Vec, Vel: vel.Vec, Dir: head.Dir},
			Engine:    brain.Engine,
			Prev:      systems.Outputs{Turn: brain.Turn, Throttle: brain.Throttle},
			NoiseSeed: agent.NoiseSeed,
		})
		p.movers = append(p.movers, components.Mover{Pos: pos.Vec, Dir: head.Dir, Sense: sense.Perception})
	}

	n := len(p.snapshots)
	if cap(p.intents) < n {
		p.intents = make([]intent, n)
	}
	p.intents = p.intents[:n]
	return n
}

// sense computes and applies crisp inputs for agent i.
func (g *Game) sense(_ context.Context, i int) error {
	p := g.parallel
	snap := &p.snapshots[i]
	r := systems.Sense(p.movers, i, g.provider.Neighbors(i), r3.Norm(snap.Body.Vel))
	r.Apply(snap.Engine)
	p.intents[i].Readings = r
	return nil
}

// think runs agent i's inference step.
func (g *Game) think(ctx context.Context, i int) error {
	p := g.parallel
	snap := &p.snapshots[i]
	out, err := systems.Think(ctx, snap.Engine, snap.Prev)
	if err != nil {
		return err
	}
	p.intents[i].Out = out
	return nil
}

// move integrates agent i's motion for one tick.
func (g *Game) move(_ context.Context, i int) error {
	p := g.parallel
	snap := &p.snapshots[i]
	it := &p.intents[i]
	dt := g.cfg.World.DT
	b := g.motion.Step(snap.Body, it.Out, dt)
	b.Dir = g.wander.Apply(b.Dir, snap.NoiseSeed, float64(g.tick)*dt, dt)
	it.Body = b
	return nil
}

// applyIntents writes computed results back to ECS components.
func (g *Game) applyIntents() {
	for i, snap := range g.parallel.snapshots {
		it := &g.parallel.intents[i]

		if !g.world.Alive(snap.Entity) {
			continue
		}
		pos, vel, head, _, brain, _ := g.agentMap.Get(snap.Entity)
		pos.Vec = it.Body.Pos
		vel.Vec = it.Body.Vel
		head.Dir = it.Body.Dir
		brain.Turn = it.Out.Turn
		brain.Throttle = it.Out.Throttle
		brain.Undefined = it.Out.Undefined
	}
}
