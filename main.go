package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/game"
	"github.com/pthm-cable/kinetics/sim"
	"github.com/pthm-cable/kinetics/stream"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml overlaid on the defaults (empty = none)")
	preset := flag.String("preset", "", "Scenario preset: "+strings.Join(config.Presets(), ", "))
	headless := flag.Bool("headless", false, "Run without graphics")
	listen := flag.String("listen", "", "Serve reports over websockets at this address, e.g. :8080")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark snapshots")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*preset, *configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindow:    *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		Headless:       *headless || *listen != "",
		AutoStart:      *headless && *listen == "",
		StepsPerUpdate: *stepsPerUpdate,
		Logger:         logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case *listen != "":
		err = serve(ctx, cfg, opts, *listen, *maxTicks)
	case *headless:
		err = runHeadless(ctx, cfg, opts, *maxTicks)
	default:
		err = runGraphical(cfg, opts, *maxTicks)
	}
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// runHeadless runs ticks in a tight loop and prints a count chart at the end.
func runHeadless(ctx context.Context, cfg *config.Config, opts game.Options, maxTicks int) error {
	g, err := game.NewGame(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for ctx.Err() == nil {
		g.UpdateHeadless()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}

	if chart := g.Summary(); chart != "" {
		fmt.Fprintln(os.Stderr, chart)
	}
	return nil
}

// runGraphical drives ticks from the raylib frame loop.
func runGraphical(cfg *config.Config, opts game.Options, maxTicks int) error {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Kinetics")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGame(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
	return nil
}

// serve drives ticks from a ticker and streams reports to websocket
// clients at /ws. Clients start the engine.
func serve(ctx context.Context, cfg *config.Config, opts game.Options, addr string, maxTicks int) error {
	g, err := game.NewGame(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()
	engine := g.Engine()

	hub, err := stream.NewHub(engine, stream.Options{
		EveryN: cfg.Stream.EveryNTick,
		Buffer: cfg.Stream.Buffer,
		Logger: opts.Logger,
		Hello: map[string]any{
			"seed":      opts.Seed,
			"container": cfg.Container,
			"species":   engine.Catalog().All(),
			"reactions": reactionEquations(engine, len(cfg.Reactions)),
			"counts":    engine.Counts(),
		},
	})
	if err != nil {
		return err
	}
	defer hub.Close()

	engine.AddPresenter(hub)
	engine.Subscribe(func(c sim.AggregateCounts) {
		hub.PublishCounts(engine.Tick(), c)
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	slog.Info("serving", "addr", addr, "tick_rate", cfg.Stream.TickRate, "every_n_ticks", cfg.Stream.EveryNTick)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Stream.TickRate))
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			break loop
		case <-ticker.C:
			g.UpdateHeadless()
			if maxTicks > 0 && int(g.Tick()) >= maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				break loop
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func reactionEquations(e *sim.Engine, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = e.Equation(i)
	}
	return out
}
