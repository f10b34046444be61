// Package recorder turns tick reports into run telemetry: window stats,
// bookmarks, snapshots, speed histograms and the CSV/JSON output files.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/pthm-cable/kinetics/sim"
	"github.com/pthm-cable/kinetics/telemetry"
)

// Options configures a Recorder.
type Options struct {
	WindowTicks       int
	SpeedMultiplier   float64
	HistogramBins     int
	HistogramMaxSpeed float64

	// LogStats logs every window and bookmark through slog.
	LogStats bool
	// SnapshotDir receives a JSON snapshot per bookmark. Empty means the
	// output directory's snapshots folder, or no snapshots without one.
	SnapshotDir string

	Perf   *telemetry.PerfCollector
	Output *telemetry.OutputManager
	Logger *slog.Logger
}

// Source is the engine state the recorder reads besides the reports.
type Source interface {
	Catalog() *sim.Catalog
	Equation(rule int) string
	Seed() int64
}

// Recorder is a sim.Presenter that aggregates reports into stats windows
// and writes them out. It must be fed from the ticking goroutine.
type Recorder struct {
	src    Source
	opts   Options
	logger *slog.Logger

	species []string
	width   float64
	height  float64

	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	pending   []telemetry.ReactionRecord

	lastTick  int64
	latest    telemetry.WindowStats
	hasLatest bool
	histogram telemetry.Histogram
	history   map[string][]float64
	marks     []telemetry.Bookmark

	errs []error
}

// New creates a recorder for a run of the given container size.
func New(src Source, width, height float64, opts Options) *Recorder {
	if opts.WindowTicks < 1 {
		opts.WindowTicks = 60
	}
	if opts.HistogramBins < 1 {
		opts.HistogramBins = 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	species := src.Catalog().IDs()
	r := &Recorder{
		src:       src,
		opts:      opts,
		logger:    opts.Logger,
		species:   species,
		width:     width,
		height:    height,
		collector: telemetry.NewCollector(opts.WindowTicks, opts.SpeedMultiplier),
		bookmarks: telemetry.NewBookmarkDetector(10),
		history:   make(map[string][]float64, len(species)),
		histogram: telemetry.SpeedHistogram(nil, opts.HistogramBins, opts.HistogramMaxSpeed),
	}
	return r
}

// Present implements sim.Presenter.
func (r *Recorder) Present(rep sim.TickReport) {
	if rep.Tick < r.lastTick {
		r.restart()
	}
	r.lastTick = rep.Tick

	if rep.CountsChanged {
		r.check(r.opts.Output.WriteCounts(telemetry.CountRecords(rep.Tick, r.species, rep.Counts)))
	}
	if !rep.Advanced {
		return
	}

	for _, ev := range rep.Reactions {
		r.collector.RecordReaction(ev.RuleIndex)
		r.pending = append(r.pending, telemetry.NewReactionRecord(
			ev.Tick, ev.RuleIndex, r.src.Equation(ev.RuleIndex), ev.ReactantIDs, ev.ProductIDs,
		))
	}
	r.collector.RecordWallHits(rep.WallHits)

	if r.collector.ShouldFlush(rep.Tick) {
		r.flush(rep)
	}
}

// restart drops window state after an engine reset.
func (r *Recorder) restart() {
	r.flushReactions()
	r.collector.Reset()
	r.bookmarks = telemetry.NewBookmarkDetector(10)
	r.logger.Info("recorder_restart", "after_tick", r.lastTick)
}

// flush closes the current stats window.
func (r *Recorder) flush(rep sim.TickReport) {
	samples := make([]telemetry.ParticleSample, len(rep.Particles))
	speeds := make([]float64, len(rep.Particles))
	for i, p := range rep.Particles {
		s := p.Speed()
		samples[i] = telemetry.ParticleSample{Speed: s, Mass: p.Mass}
		speeds[i] = s
	}

	stats := r.collector.Flush(rep.Tick, rep.Counts, samples, rep.Temperature)
	r.latest, r.hasLatest = stats, true
	r.histogram = telemetry.SpeedHistogram(speeds, r.opts.HistogramBins, r.opts.HistogramMaxSpeed)
	for _, id := range r.species {
		r.history[id] = append(r.history[id], float64(rep.Counts[id]))
	}

	perfStats := r.opts.Perf.Stats()
	if r.opts.LogStats {
		stats.LogStats()
		if r.opts.Perf != nil {
			perfStats.LogStats()
		}
	}

	r.check(r.opts.Output.WriteTelemetry(stats))
	if r.opts.Perf != nil {
		r.check(r.opts.Output.WritePerf(perfStats, stats.WindowEndTick))
	}
	r.flushReactions()

	for _, bm := range r.bookmarks.Check(stats) {
		r.marks = append(r.marks, bm)
		if r.opts.LogStats {
			bm.LogBookmark()
		}
		r.check(r.opts.Output.WriteBookmark(bm))
		r.saveSnapshot(rep, &bm)
	}
}

func (r *Recorder) flushReactions() {
	r.check(r.opts.Output.WriteReactions(r.pending))
	r.pending = r.pending[:0]
}

// saveSnapshot writes the particle state at a bookmark.
func (r *Recorder) saveSnapshot(rep sim.TickReport, bm *telemetry.Bookmark) {
	if r.opts.SnapshotDir == "" && r.opts.Output == nil {
		return
	}
	snap := Snapshot(rep, r.src.Seed(), r.width, r.height)
	snap.Bookmark = bm

	var path string
	var err error
	if r.opts.SnapshotDir != "" {
		path, err = telemetry.SaveSnapshot(snap, r.opts.SnapshotDir)
	} else {
		path, err = r.opts.Output.WriteSnapshot(snap)
	}
	if err != nil {
		r.logger.Error("failed to save snapshot", "error", err)
		return
	}
	r.logger.Info("snapshot saved", "path", path, "tick", rep.Tick)
}

// check logs and keeps output errors without stopping the run.
func (r *Recorder) check(err error) {
	if err == nil {
		return
	}
	r.logger.Error("failed to write output", "error", err)
	r.errs = append(r.errs, err)
}

// Latest returns the most recent window stats.
func (r *Recorder) Latest() (telemetry.WindowStats, bool) {
	return r.latest, r.hasLatest
}

// Histogram returns the speed histogram of the most recent window.
func (r *Recorder) Histogram() telemetry.Histogram {
	return r.histogram
}

// Bookmarks returns every bookmark raised so far.
func (r *Recorder) Bookmarks() []telemetry.Bookmark {
	return r.marks
}

// History returns the per-window count series of a species.
func (r *Recorder) History(species string) []float64 {
	return r.history[species]
}

// TotalReactions returns the reactions recorded since the recorder started.
func (r *Recorder) TotalReactions() int {
	return r.collector.TotalReactions()
}

// Summary plots the species count history as an ASCII chart.
func (r *Recorder) Summary() string {
	var series [][]float64
	var names []string
	for _, id := range r.species {
		if h := r.history[id]; len(h) > 0 {
			series = append(series, h)
			names = append(names, id)
		}
	}
	if len(series) == 0 {
		return ""
	}
	caption := fmt.Sprintf("species counts per %d-tick window (%s)", r.collector.WindowTicks(), strings.Join(names, ", "))
	return asciigraph.PlotMany(series, asciigraph.Height(12), asciigraph.Width(72), asciigraph.Caption(caption))
}

// Close writes pending reaction records and closes the output files.
// Returns every output error seen during the run.
func (r *Recorder) Close() error {
	r.flushReactions()
	r.check(r.opts.Output.Close())
	return errors.Join(r.errs...)
}

// Snapshot converts a report into a snapshot.
func Snapshot(rep sim.TickReport, seed int64, width, height float64) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:         telemetry.SnapshotVersion,
		RNGSeed:         seed,
		ContainerWidth:  width,
		ContainerHeight: height,
		Tick:            rep.Tick,
		Temperature:     rep.Temperature,
		Counts:          rep.Counts.Clone(),
		Particles:       make([]telemetry.ParticleState, len(rep.Particles)),
	}
	for i, p := range rep.Particles {
		snap.Particles[i] = telemetry.ParticleState{
			ID:      p.ID,
			Species: p.Species,
			X:       p.Position.X,
			Y:       p.Position.Y,
			VelX:    p.Velocity.X,
			VelY:    p.Velocity.Y,
		}
	}
	return snap
}
