package game

import (
	"log/slog"

	"github.com/pthm-cable/fuzzyflock/config"
	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/telemetry"
)

// Options configures NewGame.
type Options struct {
	Config *config.Config // nil = embedded defaults
	Model  *fuzzy.Model   // nil = built-in flocking model
	Seed   int64
	Logger *slog.Logger

	Metrics       *telemetry.Metrics       // nil = no Prometheus metrics
	Output        *telemetry.OutputManager // nil = no CSV output
	LogStats      bool
	StatsCallback func(telemetry.WindowStats)

	// Headless skips all raylib resources.
	Headless bool
	// StepsPerUpdate is the number of ticks each Update runs.
	StepsPerUpdate int
}
