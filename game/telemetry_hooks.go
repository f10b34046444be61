package game

import (
	"github.com/pthm-cable/kinetics/sim"
)

// trackCounts keeps the legend counts current through the engine's count
// notifications. The callback runs inside AdvanceTick on the game goroutine.
func (g *Game) trackCounts() {
	g.counts = g.engine.Counts()
	g.engine.Subscribe(func(c sim.AggregateCounts) {
		g.counts = c
	})
}

// Summary logs the run totals and returns a chart of species counts per
// stats window. Empty when no window has completed.
func (g *Game) Summary() string {
	attrs := []any{
		"tick", g.engine.Tick(),
		"reactions", g.recorder.TotalReactions(),
		"bookmarks", len(g.recorder.Bookmarks()),
	}
	counts := g.engine.Counts()
	for _, id := range g.engine.Catalog().IDs() {
		attrs = append(attrs, "n_"+id, counts[id])
	}
	g.logger.Info("run_summary", attrs...)
	return g.recorder.Summary()
}
