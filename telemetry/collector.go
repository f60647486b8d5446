package telemetry

// Collector accumulates per-agent samples within time windows and
// produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float32
	outputs             int // outputs read per agent step

	// Current window tracking
	windowStartTick int32

	// Accumulated over the window
	samples      int
	undefined    int
	turnSum      float64
	turnAbsSum   float64
	throttleSum  float64
	speedSum     float64
	staleness    int
	stalenessMax int
	rebuilds     int

	// Latest tick only
	neighbors []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
// outputs: how many outputs each agent reads per step
func NewCollector(windowDurationSec float64, dt float32, outputs int) *Collector {
	ticksPerWindow := int32(windowDurationSec/float64(dt) + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		outputs:             max(1, outputs),
		staleness:           -1,
		stalenessMax:        -1,
	}
}

// BeginTick starts a new sampling tick. Neighbour counts from the
// previous tick are discarded.
func (c *Collector) BeginTick() {
	c.neighbors = c.neighbors[:0]
}

// RecordAgent records one agent's step.
func (c *Collector) RecordAgent(neighbors, undefined int, turn, throttle, speed float64) {
	c.neighbors = append(c.neighbors, float64(neighbors))
	c.samples++
	c.undefined += undefined
	c.turnSum += turn
	if turn < 0 {
		c.turnAbsSum -= turn
	} else {
		c.turnAbsSum += turn
	}
	c.throttleSum += throttle
	c.speedSum += speed
}

// RecordStaleness records the provider's staleness for this tick.
func (c *Collector) RecordStaleness(frames int) {
	c.staleness = frames
	if frames > c.stalenessMax {
		c.stalenessMax = frames
	}
}

// RecordRebuild records a forest rebuild.
func (c *Collector) RecordRebuild() {
	c.rebuilds++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),
		Agents:          len(c.neighbors),
		Staleness:       c.staleness,
		StalenessMax:    c.stalenessMax,
		Rebuilds:        c.rebuilds,
	}

	stats.NeighborsMean, stats.NeighborsStd, stats.NeighborsP10, stats.NeighborsP50, stats.NeighborsP90 = ComputeSpread(c.neighbors)
	if len(c.neighbors) > 0 {
		isolated := 0
		for _, n := range c.neighbors {
			if n == 0 {
				isolated++
			}
		}
		stats.IsolatedRatio = float64(isolated) / float64(len(c.neighbors))
	}

	if c.samples > 0 {
		n := float64(c.samples)
		stats.UndefinedRatio = float64(c.undefined) / (n * float64(c.outputs))
		stats.TurnMean = c.turnSum / n
		stats.TurnAbsMean = c.turnAbsSum / n
		stats.ThrottleMean = c.throttleSum / n
		stats.SpeedMean = c.speedSum / n
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.samples = 0
	c.undefined = 0
	c.turnSum = 0
	c.turnAbsSum = 0
	c.throttleSum = 0
	c.speedSum = 0
	c.stalenessMax = c.staleness
	c.rebuilds = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
