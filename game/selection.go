package game

import (
	"github.com/mlange-42/ark/ecs"
)

// pickRadius is the click tolerance in screen pixels.
const pickRadius = 12

// selectAt selects the agent nearest to a screen point, or clears the
// selection when nobody is within reach.
func (g *Game) selectAt(sx, sy float32) {
	v := g.view
	wx, wz := v.cam.ScreenToWorld(sx, sy)
	v.selected, v.hasSelection = g.nearestAgent(float64(wx), float64(wz), pickRadius/float64(v.cam.Zoom))
}

// nearestAgent returns the agent whose XZ footprint is closest to
// (x, z), if any lies within maxDist.
func (g *Game) nearestAgent(x, z, maxDist float64) (ecs.Entity, bool) {
	var best ecs.Entity
	bestD2 := maxDist * maxDist
	found := false

	query := g.agentFilter.Query()
	for query.Next() {
		pos, _, _, _, _, _ := query.Get()
		dx, dz := pos.X-x, pos.Z-z
		if d2 := dx*dx + dz*dz; d2 <= bestD2 {
			bestD2 = d2
			best = query.Entity()
			found = true
		}
	}
	return best, found
}

// selectedAgent returns the selected entity if it is still alive.
func (g *Game) selectedAgent() (ecs.Entity, bool) {
	v := g.view
	if v == nil || !v.hasSelection || !g.world.Alive(v.selected) {
		return ecs.Entity{}, false
	}
	return v.selected, true
}

// agentIndex returns the position of e in the last tick's snapshot, or
// -1. Neighbour lists are indexed by it.
func (g *Game) agentIndex(e ecs.Entity) int {
	for i := range g.parallel.snapshots {
		if g.parallel.snapshots[i].Entity == e {
			return i
		}
	}
	return -1
}
