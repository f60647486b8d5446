// Package game hosts the flocking simulation: an ark ECS world of agents,
// each steered by its own fuzzy inference engine over a shared library.
package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/components"
	"github.com/pthm-cable/fuzzyflock/config"
	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/neighborhood"
	"github.com/pthm-cable/fuzzyflock/systems"
	"github.com/pthm-cable/fuzzyflock/telemetry"
)

// outputsPerAgent is the number of outputs each engine is read for.
const outputsPerAgent = 2

// Game holds the complete simulation state.
type Game struct {
	cfg    *config.Config
	logger *slog.Logger
	world  *ecs.World
	rng    *rand.Rand

	rngSeed int64

	agentMap *ecs.Map6[
		components.Position,
		components.Velocity,
		components.Heading,
		components.Perception,
		components.Brain,
		components.Agent,
	]
	agentFilter *ecs.Filter6[
		components.Position,
		components.Velocity,
		components.Heading,
		components.Perception,
		components.Brain,
		components.Agent,
	]

	// Inference
	model      *fuzzy.Model
	lib        *fuzzy.Library
	engineOpts []fuzzy.EngineOption
	drives     map[string]bool
	reloads    chan *fuzzy.Model

	// Neighbour search and motion
	provider neighborhood.Provider
	motion   systems.Motion
	wander   *systems.Wander
	parallel *parallelState

	// Telemetry
	perf          *telemetry.PerfCollector
	collector     *telemetry.Collector
	metrics       *telemetry.Metrics
	output        *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	// State
	tick           int32
	nextID         uint32
	paused         bool
	stepsPerUpdate int

	view *viewer
}

// NewGame creates a simulation from opts and spawns the initial population.
func NewGame(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model := opts.Model
	if model == nil {
		model = fuzzy.FlockingModel(cfg.Agents.PerceptionRadius, float64(cfg.Agents.MaxNeighbors), cfg.Agents.MaxSpeed)
	}

	provider, err := newProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:     cfg,
		logger:  logger,
		world:   world,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		rngSeed: opts.Seed,
		agentMap: ecs.NewMap6[
			components.Position,
			components.Velocity,
			components.Heading,
			components.Perception,
			components.Brain,
			components.Agent,
		](world),
		agentFilter: ecs.NewFilter6[
			components.Position,
			components.Velocity,
			components.Heading,
			components.Perception,
			components.Brain,
			components.Agent,
		](world),
		engineOpts: []fuzzy.EngineOption{
			fuzzy.WithMode(cfg.Fuzzy.Mode),
			fuzzy.WithPolicy(cfg.Fuzzy.Policy),
			fuzzy.WithParallelRoots(cfg.Fuzzy.ParallelRoots),
			fuzzy.WithLogger(logger),
		},
		reloads:  make(chan *fuzzy.Model, 1),
		provider: provider,
		motion: systems.Motion{
			MaxSpeed: cfg.Agents.MaxSpeed,
			TurnRate: cfg.Agents.TurnRate,
			Accel:    cfg.Agents.Accel,
			Bounds:   cfg.Derived.Bounds,
		},
		wander:         systems.NewWander(opts.Seed, cfg.Agents.WanderStrength, cfg.Agents.WanderScale),
		parallel:       newParallelState(cfg.Neighborhood.Workers),
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32, outputsPerAgent),
		metrics:        opts.Metrics,
		output:         opts.Output,
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		stepsPerUpdate: max(1, opts.StepsPerUpdate),
	}

	if err := g.installModel(model, cfg.Fuzzy.Disabled); err != nil {
		return nil, err
	}
	if err := g.spawnInitialPopulation(); err != nil {
		return nil, err
	}
	g.metrics.SetAgents(g.AgentCount())

	if !opts.Headless {
		g.view = newViewer(g)
	}

	logger.Info("simulation ready",
		"agents", g.AgentCount(),
		"model", model.Name,
		"drives", g.enabledDrives(),
		"neighborhood", provider.Mode().String(),
		"fuzzy_mode", cfg.Fuzzy.Mode.String(),
		"seed", opts.Seed,
	)
	return g, nil
}

// newProvider builds the neighbour provider the config selects.
func newProvider(cfg *config.Config, logger *slog.Logger) (neighborhood.Provider, error) {
	p, err := neighborhood.New(neighborhood.Options{
		Mode:          cfg.Neighborhood.Mode,
		Every:         cfg.Neighborhood.Every,
		Parallel:      cfg.Neighborhood.Parallel,
		OctreeDepth:   cfg.Neighborhood.OctreeDepth,
		OctreeBucket:  cfg.Neighborhood.OctreeBucket,
		Direct:        cfg.Neighborhood.Direct,
		Slots:         cfg.Neighborhood.Slots,
		Workers:       cfg.Neighborhood.Workers,
		LatencyFrames: cfg.Neighborhood.LatencyFrames,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("neighbour provider: %w", err)
	}
	return p, nil
}

// installModel builds the shared library for m and records its drive
// flags, with the names in disabled forced off.
func (g *Game) installModel(m *fuzzy.Model, disabled []string) error {
	lib, err := fuzzy.NewLibrary(m,
		fuzzy.WithSampleCount(g.cfg.Fuzzy.SampleCount),
		fuzzy.WithBuckets(g.cfg.Fuzzy.Buckets),
	)
	if err != nil {
		return fmt.Errorf("model %q: %w", m.Name, err)
	}
	drives := make(map[string]bool, len(m.Drives))
	for _, d := range m.Drives {
		drives[d.Name] = d.Enabled
	}
	for _, name := range disabled {
		if _, ok := drives[name]; !ok {
			return fmt.Errorf("disable %q: %w", name, fuzzy.ErrUnknownDrive)
		}
		drives[name] = false
	}
	g.model = m
	g.lib = lib
	g.drives = drives
	return nil
}

// newEngine creates an engine over the current library with the current
// drive flags.
func (g *Game) newEngine() (*fuzzy.Engine, error) {
	opts := append([]fuzzy.EngineOption(nil), g.engineOpts...)
	opts = append(opts, fuzzy.WithDriveFlags(g.drives))
	return fuzzy.NewEngine(g.lib, opts...)
}

// spawnInitialPopulation creates the starting agents inside the spawn box.
func (g *Game) spawnInitialPopulation() error {
	box := g.cfg.Derived.Spawn
	for i := 0; i < g.cfg.Agents.Count; i++ {
		pos := r3.Vec{
			X: box.Min.X + g.rng.Float64()*(box.Max.X-box.Min.X),
			Y: box.Min.Y + g.rng.Float64()*(box.Max.Y-box.Min.Y),
			Z: box.Min.Z + g.rng.Float64()*(box.Max.Z-box.Min.Z),
		}
		yaw := g.rng.Float64() * 2 * math.Pi
		dir := r3.Vec{X: math.Sin(yaw), Z: math.Cos(yaw)}
		if _, err := g.spawnAgent(pos, dir); err != nil {
			return err
		}
	}
	return nil
}

// spawnAgent creates an agent at pos facing dir, at a third of top speed.
func (g *Game) spawnAgent(pos, dir r3.Vec) (ecs.Entity, error) {
	engine, err := g.newEngine()
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("agent engine: %w", err)
	}

	id := g.nextID
	g.nextID++

	return g.addAgent(engine, telemetry.AgentState{
		ID:        id,
		Pos:       telemetry.VecOf(pos),
		Vel:       telemetry.VecOf(r3.Scale(g.cfg.Agents.MaxSpeed/3, dir)),
		Dir:       telemetry.VecOf(dir),
		Throttle:  1.0 / 3,
		NoiseSeed: g.rng.Float64() * 1000,
	}), nil
}

// addAgent creates the entity for one agent state.
func (g *Game) addAgent(engine *fuzzy.Engine, s telemetry.AgentState) ecs.Entity {
	p := components.Position{Vec: s.Pos.R3()}
	v := components.Velocity{Vec: s.Vel.R3()}
	h := components.Heading{Dir: s.Dir.R3()}
	sense := components.Perception{Perception: g.cfg.Derived.Perception}
	brain := components.Brain{Engine: engine, Turn: s.Turn, Throttle: s.Throttle}
	agent := components.Agent{ID: s.ID, NoiseSeed: s.NoiseSeed}

	return g.agentMap.NewEntity(&p, &v, &h, &sense, &brain, &agent)
}

// AgentCount returns the number of live agents.
func (g *Game) AgentCount() int {
	n := 0
	query := g.agentFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Model returns the model the engines currently run.
func (g *Game) Model() *fuzzy.Model {
	return g.model
}

// Provider returns the neighbour provider.
func (g *Game) Provider() neighborhood.Provider {
	return g.provider
}

// Perf returns the performance collector.
func (g *Game) Perf() *telemetry.PerfCollector {
	return g.perf
}

// Drives lists the model's drives in model order.
func (g *Game) Drives() []string {
	return g.lib.DriveNames()
}

// DriveEnabled reports whether a drive is on for the population.
func (g *Game) DriveEnabled(name string) bool {
	return g.drives[name]
}

func (g *Game) enabledDrives() []string {
	var on []string
	for _, name := range g.lib.DriveNames() {
		if g.drives[name] {
			on = append(on, name)
		}
	}
	return on
}

// Unload closes the output files. The game owns the output manager it
// was given.
func (g *Game) Unload() {
	if err := g.output.Close(); err != nil {
		g.logger.Error("failed to close output", "error", err)
	}
}
