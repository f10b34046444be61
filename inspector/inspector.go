// Package inspector shows details of a particle picked with the mouse.
package inspector

import (
	"cmp"
	"math"
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/camera"
	"github.com/pthm-cable/kinetics/sim"
)

// Panel dimensions
const (
	PanelWidth   = 280
	PanelPadding = 10
	HeaderHeight = 28
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
)

// Details is the inspected view of one particle.
type Details struct {
	ID            uint64  `inspect:"label"`
	Species       string  `inspect:"label"`
	X             float64 `inspect:"label,fmt:%.1f"`
	Y             float64 `inspect:"label,fmt:%.1f"`
	Speed         float64 `inspect:"label,fmt:%.3f"`
	Heading       float64 `inspect:"angle"`
	KineticEnergy float64 `inspect:"label,fmt:%.3f,name:Kinetic E"`
	Thermal       float64 `inspect:"bar,max:2,name:v / v(T)"`
	Radius        float64 `inspect:"label,fmt:%.1f"`
	Mass          float64 `inspect:"label,fmt:%.2f"`
}

// NewDetails builds the inspected view of p. targetSpeed is the speed the
// current temperature implies for p's mass; Thermal is zero when it is.
func NewDetails(p sim.ParticleView, label string, targetSpeed float64) Details {
	d := Details{
		ID:            p.ID,
		Species:       label,
		X:             p.Position.X,
		Y:             p.Position.Y,
		Speed:         p.Speed(),
		Heading:       math.Atan2(p.Velocity.Y, p.Velocity.X),
		KineticEnergy: p.KineticEnergy,
		Radius:        p.Radius,
		Mass:          p.Mass,
	}
	if targetSpeed > 0 {
		d.Thermal = d.Speed / targetSpeed
	}
	return d
}

// Inspector manages particle selection and panel rendering.
type Inspector struct {
	selected    uint64
	hasSelected bool
	panelX      int32
	panelY      int32
}

// NewInspector creates an inspector whose panel sits at (x, y).
func NewInspector(x, y int32) *Inspector {
	return &Inspector{panelX: x, panelY: y}
}

// SetPosition moves the panel.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.panelX, ins.panelY = x, y
}

// HandleInput selects the particle under a left click and clears the
// selection on right click or Escape. Returns true if the click was used.
func (ins *Inspector) HandleInput(mouseX, mouseY float32, cam *camera.Camera, particles []sim.ParticleView) bool {
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) || rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return false
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) || !cam.Contains(mouseX, mouseY) {
		return false
	}

	wx, wy := cam.ScreenToWorld(mouseX, mouseY)
	id, ok := Pick(particles, float64(wx), float64(wy))
	if !ok {
		return false
	}
	ins.selected, ins.hasSelected = id, true
	return true
}

// Pick returns the id of the particle whose disc contains (x, y). When
// discs overlap the most recently created particle wins.
func Pick(particles []sim.ParticleView, x, y float64) (uint64, bool) {
	for i := len(particles) - 1; i >= 0; i-- {
		p := &particles[i]
		dx, dy := p.Position.X-x, p.Position.Y-y
		if dx*dx+dy*dy <= p.Radius*p.Radius {
			return p.ID, true
		}
	}
	return 0, false
}

// Deselect clears the selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the selected particle id.
func (ins *Inspector) Selected() (uint64, bool) {
	return ins.selected, ins.hasSelected
}

// find looks up the selected particle in an id-sorted snapshot.
func (ins *Inspector) find(particles []sim.ParticleView) (*sim.ParticleView, bool) {
	if !ins.hasSelected {
		return nil, false
	}
	i, ok := slices.BinarySearchFunc(particles, ins.selected, func(p sim.ParticleView, id uint64) int {
		return cmp.Compare(p.ID, id)
	})
	if !ok {
		return nil, false
	}
	return &particles[i], true
}

// Draw renders the panel for the selected particle. A selection whose
// particle has reacted away is cleared.
func (ins *Inspector) Draw(particles []sim.ParticleView, labelOf func(string) string, targetSpeed func(mass float64) float64) {
	p, ok := ins.find(particles)
	if !ok {
		ins.Deselect()
		return
	}

	fields := ExtractFields(NewDetails(*p, labelOf(p.Species), targetSpeed(p.Mass)))
	panelHeight := int32(HeaderHeight + PanelPadding*2)
	for _, f := range fields {
		if f.Widget == WidgetAngle {
			panelHeight += 40
		} else {
			panelHeight += 18
		}
	}

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1, ColorPanelBorder,
	)
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText("PARTICLE", ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	x := ins.panelX + PanelPadding
	y := ins.panelY + HeaderHeight + PanelPadding
	for _, f := range fields {
		y += DrawField(x, y, f)
	}
}

// DrawSelectionHighlight circles the selected particle in the arena.
func (ins *Inspector) DrawSelectionHighlight(cam *camera.Camera, particles []sim.ParticleView) {
	p, ok := ins.find(particles)
	if !ok {
		return
	}
	sx, sy := cam.WorldToScreen(float32(p.Position.X), float32(p.Position.Y))
	rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, cam.Scale(float32(p.Radius))+4, rl.Yellow)
}
