package recorder

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/sim"
	"github.com/pthm-cable/kinetics/telemetry"
)

type fakeSource struct {
	catalog *sim.Catalog
}

func (f fakeSource) Catalog() *sim.Catalog { return f.catalog }
func (f fakeSource) Equation(int) string   { return "A + B -> C" }
func (f fakeSource) Seed() int64           { return 7 }

func newSource(t *testing.T) fakeSource {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default: %v", err)
	}
	return fakeSource{catalog: sim.NewCatalog(cfg.Species)}
}

func newRecorder(t *testing.T, opts Options) *Recorder {
	t.Helper()
	opts.WindowTicks = 5
	opts.Logger = slog.New(slog.DiscardHandler)
	return New(newSource(t), 200, 100, opts)
}

// report builds an advanced tick with two particles and optionally one
// reaction.
func report(tick int64, react bool) sim.TickReport {
	r := sim.TickReport{
		Tick:     tick,
		Advanced: true,
		Running:  true,
		Particles: []sim.ParticleView{
			{ID: 1, Species: "A", Velocity: r2.Vec{X: 3, Y: 4}, Mass: 1},
			{ID: 2, Species: "C", Velocity: r2.Vec{X: 1}, Mass: 2},
		},
		Counts:      sim.AggregateCounts{"A": 1, "B": 0, "C": 1},
		Temperature: 300,
		WallHits:    1,
	}
	if react {
		r.Reactions = []sim.ReactionEvent{{
			Tick:        tick,
			RuleIndex:   0,
			ReactantIDs: [2]uint64{3, 4},
			ProductIDs:  []uint64{2},
		}}
		r.CountsChanged = true
	}
	return r
}

func TestRecorder_FlushesWindows(t *testing.T) {
	rec := newRecorder(t, Options{})

	if _, ok := rec.Latest(); ok {
		t.Fatal("Latest() before any window")
	}
	for tick := int64(1); tick <= 10; tick++ {
		rec.Present(report(tick, tick == 2))
	}

	stats, ok := rec.Latest()
	if !ok {
		t.Fatal("no window flushed")
	}
	if stats.WindowEndTick != 10 || stats.WindowStartTick != 5 {
		t.Errorf("window = [%d, %d], want [5, 10]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.Reactions != 0 || stats.WallHits != 5 {
		t.Errorf("second window reactions=%d wall_hits=%d, want 0 and 5", stats.Reactions, stats.WallHits)
	}
	if stats.Particles != 2 {
		t.Errorf("particles = %d, want 2", stats.Particles)
	}
	if rec.TotalReactions() != 1 {
		t.Errorf("TotalReactions() = %d, want 1", rec.TotalReactions())
	}
	if got := rec.History("A"); len(got) != 2 || got[1] != 1 {
		t.Errorf("History(A) = %v, want [1 1]", got)
	}

	var total float64
	for _, c := range rec.Histogram().Counts {
		total += c
	}
	if total != 2 {
		t.Errorf("histogram holds %v samples, want 2", total)
	}

	marks := rec.Bookmarks()
	if len(marks) == 0 || marks[0].Type != telemetry.BookmarkFirstReaction || marks[0].Tick != 5 {
		t.Errorf("bookmarks = %+v, want first_reaction at 5", marks)
	}
}

func TestRecorder_PausedReportsIgnored(t *testing.T) {
	rec := newRecorder(t, Options{})

	for range 20 {
		r := report(0, false)
		r.Advanced = false
		rec.Present(r)
	}
	if _, ok := rec.Latest(); ok {
		t.Error("paused reports flushed a window")
	}
}

func TestRecorder_RestartsOnReset(t *testing.T) {
	rec := newRecorder(t, Options{})

	for tick := int64(1); tick <= 7; tick++ {
		rec.Present(report(tick, true))
	}

	reset := report(0, false)
	reset.Advanced = false
	rec.Present(reset)
	for tick := int64(1); tick <= 5; tick++ {
		rec.Present(report(tick, tick == 3))
	}

	stats, ok := rec.Latest()
	if !ok {
		t.Fatal("no window flushed")
	}
	if stats.WindowStartTick != 0 || stats.WindowEndTick != 5 {
		t.Errorf("window = [%d, %d], want [0, 5]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.Reactions != 1 {
		t.Errorf("reactions = %d, want 1", stats.Reactions)
	}
}

func TestRecorder_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	rec := newRecorder(t, Options{Output: out, Perf: telemetry.NewPerfCollector(10)})

	for tick := int64(1); tick <= 10; tick++ {
		rec.Present(report(tick, tick == 2 || tick == 9))
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := func(name string) []string {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	if got := lines("telemetry.csv"); len(got) != 3 {
		t.Errorf("telemetry.csv has %d lines, want header + 2", len(got))
	}
	if got := lines("perf.csv"); len(got) != 3 {
		t.Errorf("perf.csv has %d lines, want header + 2", len(got))
	}
	reactions := lines("reactions.csv")
	if len(reactions) != 3 {
		t.Errorf("reactions.csv has %d lines, want header + 2", len(reactions))
	} else if !strings.Contains(reactions[1], "A + B -> C") {
		t.Errorf("reaction row %q lacks the equation", reactions[1])
	}
	// Three species per changed tick.
	if got := lines("counts.csv"); len(got) != 7 {
		t.Errorf("counts.csv has %d lines, want header + 6", len(got))
	}

	snaps, err := filepath.Glob(filepath.Join(dir, "snapshots", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) == 0 {
		t.Error("no bookmark snapshot written")
	}
}

func TestRecorder_Summary(t *testing.T) {
	rec := newRecorder(t, Options{})
	if got := rec.Summary(); got != "" {
		t.Errorf("Summary() before any window = %q, want empty", got)
	}

	for tick := int64(1); tick <= 15; tick++ {
		rec.Present(report(tick, false))
	}
	if got := rec.Summary(); !strings.Contains(got, "species counts per 5-tick window") {
		t.Errorf("Summary() = %q", got)
	}
}

func TestSnapshot(t *testing.T) {
	snap := Snapshot(report(4, false), 9, 200, 100)

	if snap.Version != telemetry.SnapshotVersion || snap.RNGSeed != 9 || snap.Tick != 4 {
		t.Errorf("header = %+v", snap)
	}
	if snap.ContainerWidth != 200 || snap.ContainerHeight != 100 {
		t.Errorf("container = %vx%v", snap.ContainerWidth, snap.ContainerHeight)
	}
	if len(snap.Particles) != 2 || snap.Particles[0].VelX != 3 || snap.Particles[1].Species != "C" {
		t.Errorf("particles = %+v", snap.Particles)
	}
	if snap.Counts["C"] != 1 {
		t.Errorf("counts = %v", snap.Counts)
	}
}
