package game

import (
	"strings"

	"github.com/pthm-cable/kinetics/ui"
)

// drawActiveOverlays renders the enabled telemetry panels stacked from
// (x, y) down the panel column. The perf panel sits in the arena corner.
func (g *Game) drawActiveOverlays(x, y int32) {
	for _, desc := range g.uiOverlays.All() {
		if !g.uiOverlays.IsEnabled(desc.ID) {
			continue
		}
		switch desc.ID {
		case ui.OverlayStats:
			if stats, ok := g.recorder.Latest(); ok {
				g.statsPanel.SetPosition(x, y)
				y = g.statsPanel.Draw(stats) + 10
			}
		case ui.OverlayHistogram:
			g.histogram.SetPosition(x, y)
			y = g.histogram.Draw(g.recorder.Histogram()) + 10
		case ui.OverlayPerf:
			g.perfPanel.Draw(g.perfCollector.Stats())
		// Highlights and flashes are drawn by the arena
		}
	}
}

// overlayHelp lists the overlay toggle keys.
func (g *Game) overlayHelp() string {
	var parts []string
	for _, desc := range g.uiOverlays.All() {
		if desc.KeyLabel == "" {
			continue
		}
		state := "off"
		if g.uiOverlays.IsEnabled(desc.ID) {
			state = "on"
		}
		parts = append(parts, desc.KeyLabel+" "+strings.ToLower(desc.Name)+" "+state)
	}
	return strings.Join(parts, ", ")
}
