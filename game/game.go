// Package game wires the engine to the raylib window: the arena view,
// control panels, inspector and run telemetry.
package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/camera"
	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/inspector"
	"github.com/pthm-cable/kinetics/recorder"
	"github.com/pthm-cable/kinetics/renderer"
	"github.com/pthm-cable/kinetics/sim"
	"github.com/pthm-cable/kinetics/systems"
	"github.com/pthm-cable/kinetics/telemetry"
	"github.com/pthm-cable/kinetics/ui"
)

// Game holds the engine and everything around it.
type Game struct {
	cfg    *config.Config
	engine *sim.Engine
	logger *slog.Logger

	// Telemetry
	perfCollector *telemetry.PerfCollector
	stages        *systems.StageRegistry
	recorder      *recorder.Recorder

	// Rendering (nil when headless)
	arena     *renderer.Arena
	camera    *camera.Camera
	inspector *inspector.Inspector

	// UI
	hud          *ui.HUD
	legend       *ui.Legend
	controls     *ui.ControlsPanel
	statsPanel   *ui.StatsPanel
	histogram    *ui.HistogramPanel
	perfPanel    *ui.PerfPanel
	uiOverlays   *ui.OverlayRegistry
	speciesColor []rl.Color
	counts       sim.AggregateCounts

	headless       bool
	stepsPerUpdate int
	screenWidth    float32
	screenHeight   float32
}

// NewGame creates the engine and, unless headless, the view around it.
// Graphical games must be created after rl.InitWindow.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StatsWindow > 0 {
		cfg.Telemetry.StatsWindow = opts.StatsWindow
	}

	g := &Game{
		cfg:            cfg,
		logger:         opts.Logger,
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		stages:         systems.NewStageRegistry(),
		headless:       opts.Headless,
		stepsPerUpdate: max(opts.StepsPerUpdate, MinStepsPerUpdate),
	}
	if !opts.Headless {
		g.stepsPerUpdate = clampSteps(opts.StepsPerUpdate)
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config copy: %w", err)
	}

	engineOpts := []sim.Option{
		sim.WithSeed(opts.Seed),
		sim.WithLogger(opts.Logger),
		sim.WithPerf(g.perfCollector),
	}
	if !opts.Headless {
		g.arena = renderer.NewArena()
		engineOpts = append(engineOpts, sim.WithPresenter(g.arena))
	}

	g.engine, err = sim.New(cfg, engineOpts...)
	if err != nil {
		output.Close()
		return nil, err
	}

	g.recorder = recorder.New(g.engine, cfg.Container.Width, cfg.Container.Height, recorder.Options{
		WindowTicks:       cfg.Telemetry.StatsWindow,
		SpeedMultiplier:   cfg.Physics.SpeedMultiplier,
		HistogramBins:     cfg.Telemetry.HistogramBins,
		HistogramMaxSpeed: cfg.Telemetry.HistogramMaxSpeed,
		LogStats:          opts.LogStats,
		SnapshotDir:       opts.SnapshotDir,
		Perf:              g.perfCollector,
		Output:            output,
		Logger:            opts.Logger,
	})
	g.engine.AddPresenter(g.recorder)
	g.trackCounts()
	for _, p := range opts.Presenters {
		g.engine.AddPresenter(p)
	}

	if !opts.Headless {
		g.initView()
	}

	// First report so the view has something to draw before Start.
	g.engine.AdvanceTick()
	if opts.AutoStart {
		g.engine.Start()
	}
	return g, nil
}

// initView builds the camera and the panels.
func (g *Game) initView() {
	g.screenWidth = float32(rl.GetScreenWidth())
	g.screenHeight = float32(rl.GetScreenHeight())

	arenaW := g.screenWidth - float32(g.cfg.Screen.PanelWidth)
	g.camera = camera.New(0, 0, arenaW, g.screenHeight,
		float32(g.cfg.Container.Width), float32(g.cfg.Container.Height))

	g.inspector = inspector.NewInspector(10, 100)
	g.hud = ui.NewHUD()

	panelW := int32(g.cfg.Screen.PanelWidth) - 20
	g.controls = ui.NewControlsPanel(g.engine, 0, 0, panelW)
	g.legend = ui.NewLegend(0, 0, panelW)
	g.statsPanel = ui.NewStatsPanel(0, 0, panelW, ui.MaxTemperature)
	g.histogram = ui.NewHistogramPanel(0, 0, panelW, 140)
	g.perfPanel = ui.NewPerfPanel(g.stages, 0, 0)
	g.uiOverlays = ui.NewOverlayRegistry()

	cat := g.engine.Catalog()
	g.speciesColor = make([]rl.Color, cat.Len())
	for i := range g.speciesColor {
		g.speciesColor[i] = renderer.ToColor(cat.At(uint16(i)).Color)
	}

	g.layout()
}

// layout positions the panels for the current screen size.
func (g *Game) layout() {
	arenaW := g.screenWidth - float32(g.cfg.Screen.PanelWidth)
	g.camera.Resize(0, 0, arenaW, g.screenHeight)

	px := int32(arenaW) + 10
	g.controls.SetPosition(px, 10)
	g.perfPanel.SetPosition(10, int32(g.screenHeight)-160)
	g.inspector.SetPosition(10, 100)
}

// Update handles input and advances the engine by the configured number
// of steps. A paused engine still gets one tick per update so control
// requests are applied.
func (g *Game) Update() {
	g.handleInput()
	g.step()
}

// UpdateHeadless advances the engine without touching raylib.
func (g *Game) UpdateHeadless() {
	g.step()
}

func (g *Game) step() {
	for range g.stepsPerUpdate {
		if !g.engine.AdvanceTick().Advanced {
			return
		}
	}
}

// Engine returns the simulation engine.
func (g *Game) Engine() *sim.Engine {
	return g.engine
}

// Recorder returns the run telemetry recorder.
func (g *Game) Recorder() *recorder.Recorder {
	return g.recorder
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int64 {
	return g.engine.Tick()
}

// Unload flushes telemetry and closes output files.
func (g *Game) Unload() {
	if err := g.recorder.Close(); err != nil {
		g.logger.Error("closing output", "error", err)
	}
}

func clampSteps(n int) int {
	return max(MinStepsPerUpdate, min(n, MaxStepsPerUpdate))
}
