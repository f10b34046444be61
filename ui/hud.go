package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/systems"
	"github.com/pthm-cable/kinetics/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title          string
	Particles      int
	Reactions      int
	Tick           int64
	StepsPerUpdate int
	FPS            int32
	Running        bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Particles: %d | Reactions: %d", data.Particles, data.Reactions),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d", data.Tick, data.StepsPerUpdate, data.FPS),
		10, 55, 16, rl.LightGray,
	)
	if !data.Running {
		rl.DrawText("PAUSED", 10, 75, 16, rl.Yellow)
	}
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// Legend lists species with their color and live count.
type Legend struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewLegend creates a new legend.
func NewLegend(x, y, width int32) *Legend {
	return &Legend{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the legend position.
func (l *Legend) SetPosition(x, y int32) {
	l.x, l.y = x, y
}

// Draw renders one row per species and returns the Y below the legend.
func (l *Legend) Draw(species []SpeciesEntry) int32 {
	r := l.renderer
	padding := r.Theme.Padding
	height := padding*2 + r.Theme.LineHeight*int32(len(species)+1)
	r.DrawPanel(l.x, l.y, l.width, height)

	y := l.y + padding
	y = r.DrawSectionHeader(l.x+padding, y, "Counts")
	for _, s := range species {
		rl.DrawRectangle(l.x+padding, y+1, 12, 12, s.Color)
		rl.DrawText(s.Label, l.x+padding+18, y, r.Theme.FontSize, r.Theme.LabelColor)
		count := fmt.Sprint(s.Count)
		rl.DrawText(count, l.x+l.width-padding-rl.MeasureText(count, r.Theme.FontSize), y, r.Theme.FontSize, r.Theme.ValueColor)
		y += r.Theme.LineHeight
	}
	return l.y + height
}

// StatsPanel shows the latest telemetry window.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	section  SectionDescriptor
}

// NewStatsPanel creates a new window stats panel.
func NewStatsPanel(x, y, width int32, maxTemperature float32) *StatsPanel {
	stats := func(d any) telemetry.WindowStats { return d.(telemetry.WindowStats) }
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		section: SectionDescriptor{
			ID:    "window",
			Title: "Window stats",
			Fields: []FieldDescriptor{
				{ID: "end", Label: "Window end", Widget: WidgetText, Format: "%.0f",
					Getter: func(d any) float32 { return float32(stats(d).WindowEndTick) }},
				{ID: "reactions", Label: "Reactions", Widget: WidgetText, Format: "%.0f",
					Getter: func(d any) float32 { return float32(stats(d).Reactions) }},
				{ID: "wall_hits", Label: "Wall hits", Widget: WidgetText, Format: "%.0f",
					Getter: func(d any) float32 { return float32(stats(d).WallHits) }},
				{ID: "speed", Label: "Speed mean/std", Widget: WidgetText,
					TextGetter: func(d any) string {
						s := stats(d)
						return fmt.Sprintf("%.2f / %.2f", s.SpeedMean, s.SpeedStd)
					}},
				{ID: "ke", Label: "KE total", Widget: WidgetText, Format: "%.1f",
					Getter: func(d any) float32 { return float32(stats(d).KineticEnergyTotal) }},
				{ID: "temp", Label: "Temperature", Widget: WidgetBar, Range: FieldRange{Max: maxTemperature},
					Getter: func(d any) float32 { return float32(stats(d).Temperature) }},
				{ID: "est_temp", Label: "Estimated T", Widget: WidgetBar, Range: FieldRange{Max: maxTemperature},
					Getter: func(d any) float32 { return float32(stats(d).EstimatedTemp) }},
			},
		},
	}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x, s.y = x, y
}

// Draw renders the panel and returns the Y below it.
func (s *StatsPanel) Draw(stats telemetry.WindowStats) int32 {
	r := s.renderer
	padding := r.Theme.Padding
	height := padding*2 + r.Theme.LineHeight*int32(len(s.section.Fields)+1) + 4
	r.DrawPanel(s.x, s.y, s.width, height)
	r.DrawSection(s.x+padding, s.y+padding, s.section, stats, s.width-2*padding)
	return s.y + height
}

// PerfPanel renders the per-stage timing breakdown.
type PerfPanel struct {
	renderer *Renderer
	registry *systems.StageRegistry
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(registry *systems.StageRegistry, x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), registry: registry, x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// Draw renders the performance panel, stages in pipeline order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, stage := range p.registry.All() {
		avg := stats.PhaseAvg[stage.ID]
		pct := stats.PhasePct[stage.ID]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", stage.Name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
