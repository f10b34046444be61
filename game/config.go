package game

import (
	"log/slog"

	"github.com/pthm-cable/kinetics/sim"
)

// Options holds configuration for game initialization.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindow    int    // ticks per stats window, 0 = use config
	SnapshotDir    string // bookmark snapshots, empty = output dir
	OutputDir      string // CSV logs and config copy, empty = disabled
	Headless       bool
	AutoStart      bool
	StepsPerUpdate int // clamped to [1, 10] unless headless
	Logger         *slog.Logger

	// Presenters receive every tick report after the arena and recorder.
	Presenters []sim.Presenter
}

// Limits for steps per update.
const (
	MinStepsPerUpdate = 1
	MaxStepsPerUpdate = 10
)

// SpawnClickCount is how many particles a click in the arena adds.
const SpawnClickCount = 5

// spawnClickSize is the side of the square region a click spawns into,
// in container units.
const spawnClickSize = 40.0
