package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/config"
)

// MaxTemperature is the top of the temperature slider.
const MaxTemperature = 1000

// Controller is the control surface the panel drives.
// *sim.Engine satisfies it.
type Controller interface {
	Start()
	Pause()
	Reset()
	AddParticles(config.SpawnGroup)
	RemoveParticles(species string, n int)
	SetTemperature(t float64)
}

// SpeciesEntry is one species row in the control panel and legend.
type SpeciesEntry struct {
	ID    string
	Label string
	Color rl.Color
	Count int
}

// ControlState is what the panel displays each frame.
type ControlState struct {
	Running     bool
	Tick        int64
	Temperature float64
	Species     []SpeciesEntry
}

// ControlsPanel renders the right-side control panel: run controls, the
// temperature slider and per-species add/remove buttons.
type ControlsPanel struct {
	renderer *Renderer
	ctrl     Controller
	x, y     int32
	width    int32

	// Step is the number of particles added or removed per click.
	Step int

	selected int
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(ctrl Controller, x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		ctrl:     ctrl,
		x:        x,
		y:        y,
		width:    width,
		Step:     10,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// Selected returns the index of the species chosen for click-to-spawn.
func (c *ControlsPanel) Selected() int {
	return c.selected
}

// Select chooses the species for click-to-spawn.
func (c *ControlsPanel) Select(i int) {
	c.selected = i
}

// Draw renders the panel and forwards button presses to the controller.
// Returns the Y position below the panel.
func (c *ControlsPanel) Draw(state ControlState) int32 {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	innerW := float32(c.width - 2*padding)
	x := float32(c.x + padding)

	panelHeight := 150 + int32(len(state.Species))*(lineHeight+10)
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	rl.DrawText("Controls", c.x+padding, y, 16, rl.White)
	status, statusColor := "PAUSED", rl.Yellow
	if state.Running {
		status, statusColor = "RUNNING", r.Theme.Active
	}
	rl.DrawText(status, c.x+c.width-padding-rl.MeasureText(status, 14), y+2, 14, statusColor)
	y += lineHeight + 6

	// Run controls
	half := (innerW - 10) / 2
	runLabel := "Start"
	if state.Running {
		runLabel = "Pause"
	}
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 26}, runLabel) {
		if state.Running {
			c.ctrl.Pause()
		} else {
			c.ctrl.Start()
		}
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: float32(y), Width: half, Height: 26}, "Reset") {
		c.ctrl.Reset()
	}
	y += 36

	// Temperature
	rl.DrawText(fmt.Sprintf("Temperature: %.0f", state.Temperature), c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	current := float32(state.Temperature)
	next := gui.SliderBar(
		rl.Rectangle{X: x + 16, Y: float32(y), Width: innerW - 56, Height: 18},
		"0", fmt.Sprint(MaxTemperature),
		current, 0, MaxTemperature,
	)
	if next != current {
		c.ctrl.SetTemperature(float64(next))
	}
	y += 30

	// Species rows
	y = r.DrawSectionHeader(c.x+padding, y, "Species")
	btnW := float32(40)
	for i, s := range state.Species {
		rowY := float32(y)
		rl.DrawRectangle(int32(x), y+4, 12, 12, s.Color)

		label := s.Label
		if i == c.selected {
			label = "> " + label
		}
		if gui.Button(rl.Rectangle{X: x + 18, Y: rowY, Width: innerW - 18 - 2*btnW - 12, Height: 20}, label) {
			c.selected = i
		}
		if gui.Button(rl.Rectangle{X: x + innerW - 2*btnW - 6, Y: rowY, Width: btnW, Height: 20}, fmt.Sprintf("+%d", c.Step)) {
			c.ctrl.AddParticles(config.SpawnGroup{Species: s.ID, Count: c.Step})
		}
		if gui.Button(rl.Rectangle{X: x + innerW - btnW, Y: rowY, Width: btnW, Height: 20}, fmt.Sprintf("-%d", c.Step)) {
			c.ctrl.RemoveParticles(s.ID, c.Step)
		}
		y += lineHeight + 10
	}

	return c.y + panelHeight
}
