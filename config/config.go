// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/neighborhood"
	"github.com/pthm-cable/fuzzyflock/spatial"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen       ScreenConfig       `yaml:"screen"`
	World        WorldConfig        `yaml:"world"`
	Agents       AgentsConfig       `yaml:"agents"`
	Fuzzy        FuzzyConfig        `yaml:"fuzzy"`
	Neighborhood NeighborhoodConfig `yaml:"neighborhood"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Vec3 is a point in world units.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3) Vec() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the simulation volume. Agents reflect off its walls.
type WorldConfig struct {
	Min Vec3    `yaml:"min"`
	Max Vec3    `yaml:"max"`
	DT  float64 `yaml:"dt"`
}

// AgentsConfig holds population and per-agent motion parameters.
type AgentsConfig struct {
	Count            int     `yaml:"count"`
	SpawnMin         Vec3    `yaml:"spawn_min"`
	SpawnMax         Vec3    `yaml:"spawn_max"`
	PerceptionRadius float64 `yaml:"perception_radius"`
	HorizontalFOV    float64 `yaml:"horizontal_fov"` // degrees, full angle
	VerticalFOV      float64 `yaml:"vertical_fov"`   // degrees, full angle
	MaxSpeed         float64 `yaml:"max_speed"`
	TurnRate         float64 `yaml:"turn_rate"` // radians per second at turn=±1
	Accel            float64 `yaml:"accel"`     // fraction of the speed error closed per second
	MaxNeighbors     int     `yaml:"max_neighbors"`
	WanderStrength   float64 `yaml:"wander_strength"`
	WanderScale      float64 `yaml:"wander_scale"`
}

// FuzzyConfig holds inference engine parameters.
type FuzzyConfig struct {
	Model         string        `yaml:"model"` // empty = built-in flocking model
	Mode          fuzzy.Mode    `yaml:"mode"`
	Policy        fuzzy.Policy  `yaml:"policy"`
	SampleCount   int           `yaml:"sample_count"`
	Buckets       int           `yaml:"buckets"`
	ParallelRoots int           `yaml:"parallel_roots"`
	Disabled      []string      `yaml:"disabled"`
	Watch         bool          `yaml:"watch"`
	Debounce      time.Duration `yaml:"debounce"`
}

// NeighborhoodConfig holds neighbour search parameters.
type NeighborhoodConfig struct {
	Mode          neighborhood.Mode `yaml:"mode"`
	Every         int               `yaml:"every"`
	Parallel      int               `yaml:"parallel"`
	OctreeDepth   int               `yaml:"octree_depth"`
	OctreeBucket  int               `yaml:"octree_bucket"`
	Direct        bool              `yaml:"direct"`
	Slots         int               `yaml:"slots"`
	Workers       int               `yaml:"workers"`
	LatencyFrames int               `yaml:"latency_frames"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // seconds of sim time
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	MetricsAddr         string  `yaml:"metrics_addr"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32 // World.DT as float32
	ScreenW32   float32
	ScreenH32   float32
	Bounds      r3.Box
	Spawn       r3.Box
	Perception  spatial.Perception
	StatsWindow int // ticks per stats window
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate checks the loaded settings and joins every problem it finds.
func (c *Config) Validate() error {
	var errs []error
	if c.World.DT <= 0 {
		errs = append(errs, errors.New("world.dt must be positive"))
	}
	if c.World.Min.X >= c.World.Max.X || c.World.Min.Y >= c.World.Max.Y || c.World.Min.Z >= c.World.Max.Z {
		errs = append(errs, errors.New("world.min must be below world.max on every axis"))
	}
	if c.Agents.Count < 0 {
		errs = append(errs, errors.New("agents.count must not be negative"))
	}
	if c.Agents.PerceptionRadius <= 0 {
		errs = append(errs, errors.New("agents.perception_radius must be positive"))
	}
	if c.Agents.HorizontalFOV <= 0 || c.Agents.HorizontalFOV > 360 {
		errs = append(errs, errors.New("agents.horizontal_fov must be in (0, 360]"))
	}
	if c.Agents.VerticalFOV <= 0 || c.Agents.VerticalFOV > 360 {
		errs = append(errs, errors.New("agents.vertical_fov must be in (0, 360]"))
	}
	if c.Agents.MaxSpeed <= 0 {
		errs = append(errs, errors.New("agents.max_speed must be positive"))
	}
	if c.Agents.MaxNeighbors < 1 {
		errs = append(errs, errors.New("agents.max_neighbors must be at least 1"))
	}
	if c.Fuzzy.SampleCount < 2 {
		errs = append(errs, errors.New("fuzzy.sample_count must be at least 2"))
	}
	if c.Fuzzy.Buckets < 2 {
		errs = append(errs, errors.New("fuzzy.buckets must be at least 2"))
	}
	if c.Neighborhood.OctreeBucket < 1 {
		errs = append(errs, errors.New("neighborhood.octree_bucket must be at least 1"))
	}
	if c.Neighborhood.OctreeDepth < 0 {
		errs = append(errs, errors.New("neighborhood.octree_depth must not be negative"))
	}
	if c.Neighborhood.Mode == neighborhood.ModeOffload && c.Neighborhood.Slots < 1 {
		errs = append(errs, errors.New("neighborhood.slots must be at least 1 in offload mode"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Refresh validates the settings and recomputes Derived after fields
// were changed in code.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Fuzzy.Disabled = append([]string(nil), c.Fuzzy.Disabled...)
	return &out
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.World.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.Bounds = r3.Box{Min: c.World.Min.Vec(), Max: c.World.Max.Vec()}

	// Spawn box defaults to the world and is clipped to it.
	spawn := r3.Box{Min: c.Agents.SpawnMin.Vec(), Max: c.Agents.SpawnMax.Vec()}
	if spawn.Empty() {
		spawn = c.Derived.Bounds
	}
	spawn.Min = r3.Vec{
		X: max(spawn.Min.X, c.Derived.Bounds.Min.X),
		Y: max(spawn.Min.Y, c.Derived.Bounds.Min.Y),
		Z: max(spawn.Min.Z, c.Derived.Bounds.Min.Z),
	}
	spawn.Max = r3.Vec{
		X: min(spawn.Max.X, c.Derived.Bounds.Max.X),
		Y: min(spawn.Max.Y, c.Derived.Bounds.Max.Y),
		Z: min(spawn.Max.Z, c.Derived.Bounds.Max.Z),
	}
	c.Derived.Spawn = spawn

	c.Derived.Perception = spatial.Perception{
		Radius:        c.Agents.PerceptionRadius,
		HorizontalFOV: c.Agents.HorizontalFOV,
		VerticalFOV:   c.Agents.VerticalFOV,
	}

	c.Derived.StatsWindow = max(1, int(c.Telemetry.StatsWindow/c.World.DT+0.5))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
