package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/sim"
	"github.com/pthm-cable/kinetics/systems"
	"github.com/pthm-cable/kinetics/ui"
)

var (
	colorBackdrop = rl.Color{R: 12, G: 14, B: 18, A: 255}
	colorSidebar  = rl.Color{R: 16, G: 19, B: 24, A: 255}
)

const controlsHelp = "SPACE start/pause | BKSP reset | click spawn | 1-9 species | </> speed | arrows/wheel camera"

// Draw renders the arena and the panels.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(colorBackdrop)

	report := g.arena.Last()
	g.arena.Draw(g.camera)
	g.inspector.DrawSelectionHighlight(g.camera, report.Particles)

	g.drawUI(report)

	rl.EndDrawing()
}

// drawUI renders the HUD, the right-hand panel column and the inspector.
func (g *Game) drawUI(report sim.TickReport) {
	g.hud.Draw(ui.HUDData{
		Title:          "Kinetics",
		Particles:      len(report.Particles),
		Reactions:      g.recorder.TotalReactions(),
		Tick:           report.Tick,
		StepsPerUpdate: g.stepsPerUpdate,
		FPS:            rl.GetFPS(),
		Running:        report.Running,
	})

	panelX := int32(g.screenWidth) - int32(g.cfg.Screen.PanelWidth)
	rl.DrawRectangle(panelX, 0, int32(g.cfg.Screen.PanelWidth), int32(g.screenHeight), colorSidebar)

	species := g.speciesEntries()
	y := g.controls.Draw(ui.ControlState{
		Running:     report.Running,
		Tick:        report.Tick,
		Temperature: report.Temperature,
		Species:     species,
	}) + 10

	g.legend.SetPosition(panelX+10, y)
	y = g.legend.Draw(species) + 10

	g.drawActiveOverlays(panelX+10, y)

	cat := g.engine.Catalog()
	g.inspector.Draw(report.Particles,
		func(id string) string {
			if i, ok := cat.Lookup(id); ok {
				return cat.At(i).Label
			}
			return id
		},
		func(mass float64) float64 {
			return systems.TargetSpeed(report.Temperature, g.cfg.Physics.SpeedMultiplier, mass)
		},
	)

	g.hud.DrawControls(int32(g.screenHeight), fmt.Sprintf("%s | %s", controlsHelp, g.overlayHelp()))
}

// speciesEntries lists the catalog with the latest notified counts.
func (g *Game) speciesEntries() []ui.SpeciesEntry {
	cat := g.engine.Catalog()
	entries := make([]ui.SpeciesEntry, cat.Len())
	for i := range entries {
		s := cat.At(uint16(i))
		entries[i] = ui.SpeciesEntry{
			ID:    s.ID,
			Label: s.Label,
			Color: g.speciesColor[i],
			Count: g.counts[s.ID],
		}
	}
	return entries
}
