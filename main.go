package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/fuzzyflock/config"
	"github.com/pthm-cable/fuzzyflock/fuzzy"
	"github.com/pthm-cable/fuzzyflock/game"
	"github.com/pthm-cable/fuzzyflock/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	modelPath := flag.String("model", "", "Path to a fuzzy model file (empty = config, then built-in flocking model)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and model copies, snapshots")
	snapshotPath := flag.String("snapshot", "", "Restore population from a snapshot file")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty = config)")
	watch := flag.Bool("watch", false, "Reload the model file when it changes")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger, runOptions{
		configPath:     *configPath,
		modelPath:      *modelPath,
		headless:       *headless,
		logStats:       *logStats,
		outputDir:      *outputDir,
		snapshotPath:   *snapshotPath,
		seed:           *seed,
		maxTicks:       *maxTicks,
		stepsPerUpdate: *stepsPerUpdate,
		metricsAddr:    *metricsAddr,
		watch:          *watch,
	}); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configPath     string
	modelPath      string
	headless       bool
	logStats       bool
	outputDir      string
	snapshotPath   string
	seed           int64
	maxTicks       int
	stepsPerUpdate int
	metricsAddr    string
	watch          bool
}

func run(logger *slog.Logger, o runOptions) error {
	// Initialize config before anything else
	if err := config.Init(o.configPath); err != nil {
		return err
	}
	cfg := config.Cfg()

	rngSeed := o.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	modelPath := o.modelPath
	if modelPath == "" {
		modelPath = cfg.Fuzzy.Model
	}
	var model *fuzzy.Model
	if modelPath != "" {
		m, err := fuzzy.LoadModel(modelPath)
		if err != nil {
			return err
		}
		model = m
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	var metrics *telemetry.Metrics
	addr := o.metricsAddr
	if addr == "" {
		addr = cfg.Telemetry.MetricsAddr
	}
	if addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = telemetry.NewMetrics(reg)
		srv := serveMetrics(addr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	output, err := telemetry.NewOutputManager(o.outputDir)
	if err != nil {
		return err
	}

	g, err := game.NewGame(game.Options{
		Config:         cfg,
		Model:          model,
		Seed:           rngSeed,
		Logger:         logger,
		Metrics:        metrics,
		Output:         output,
		LogStats:       o.logStats,
		Headless:       o.headless,
		StepsPerUpdate: o.stepsPerUpdate,
	})
	if err != nil {
		output.Close()
		return err
	}
	defer g.Unload()

	if err := output.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config", "error", err)
	}
	if err := output.WriteModel(g.Model()); err != nil {
		logger.Error("failed to write model", "error", err)
	}

	if o.snapshotPath != "" {
		snap, err := telemetry.LoadSnapshot(o.snapshotPath)
		if err != nil {
			return err
		}
		if err := g.Restore(snap); err != nil {
			return err
		}
	}

	if o.watch || cfg.Fuzzy.Watch {
		if modelPath == "" {
			logger.Warn("model watch requested without a model file")
		} else {
			w, err := fuzzy.NewWatcher(modelPath, cfg.Fuzzy.Debounce, g.QueueReload, logger)
			if err != nil {
				return err
			}
			w.Start(ctx)
			defer w.Stop()
		}
	}

	if o.headless {
		return runHeadless(ctx, g, logger, rngSeed, o)
	}
	runWindowed(ctx, g, cfg, o)
	g.SaveSnapshot()
	return nil
}

// runHeadless steps until max ticks or a signal, then saves a snapshot.
func runHeadless(ctx context.Context, g *game.Game, logger *slog.Logger, seed int64, o runOptions) error {
	logger.Info("starting headless simulation",
		"seed", seed,
		"max_ticks", o.maxTicks,
		"steps_per_update", o.stepsPerUpdate,
	)
	defer g.SaveSnapshot()

	for {
		if err := g.UpdateHeadless(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("interrupted", "tick", g.Tick())
				return nil
			}
			return err
		}

		if o.maxTicks > 0 && int(g.Tick()) >= o.maxTicks {
			logger.Info("max ticks reached", "tick", g.Tick())
			return nil
		}
	}
}

// runWindowed drives the raylib loop until the window closes.
func runWindowed(ctx context.Context, g *game.Game, cfg *config.Config, o runOptions) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Fuzzy Flock")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()

		if o.maxTicks > 0 && int(g.Tick()) >= o.maxTicks {
			break
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
