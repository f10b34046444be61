package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/camera"
	"github.com/pthm-cable/kinetics/sim"
)

// flashFrames is how long a reaction flash stays on screen.
const flashFrames = 20

// Flash is an expanding ring marking a reaction site.
type Flash struct {
	X, Y    float32
	Life    int
	MaxLife int
}

// ParticleRenderer renders species particles and reaction flashes.
type ParticleRenderer struct {
	flashes []Flash
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{}
}

// AddFlashes queues a flash for every reaction event.
func (r *ParticleRenderer) AddFlashes(events []sim.ReactionEvent) {
	for _, ev := range events {
		r.flashes = append(r.flashes, Flash{
			X:       float32(ev.Position.X),
			Y:       float32(ev.Position.Y),
			Life:    flashFrames,
			MaxLife: flashFrames,
		})
	}
}

// ClearFlashes drops every pending flash.
func (r *ParticleRenderer) ClearFlashes() {
	r.flashes = r.flashes[:0]
}

// Update ages flashes by one frame and drops expired ones.
func (r *ParticleRenderer) Update() {
	alive := r.flashes[:0]
	for _, f := range r.flashes {
		f.Life--
		if f.Life > 0 {
			alive = append(alive, f)
		}
	}
	r.flashes = alive
}

// Draw renders all particles as filled circles with an optional outline.
func (r *ParticleRenderer) Draw(cam *camera.Camera, particles []sim.ParticleView) {
	for i := range particles {
		p := &particles[i]
		wx, wy := float32(p.Position.X), float32(p.Position.Y)
		radius := float32(p.Radius)
		if !cam.IsVisible(wx, wy, radius) {
			continue
		}

		sx, sy := cam.WorldToScreen(wx, wy)
		size := cam.Scale(radius)
		if size < 1 {
			size = 1
		}
		center := rl.Vector2{X: sx, Y: sy}
		rl.DrawCircleV(center, size, ToColor(p.Color))
		if p.Stroke.A > 0 {
			rl.DrawCircleLinesV(center, size, ToColor(p.Stroke))
		}
	}
}

// DrawFlashes renders the reaction rings, fading as they expand.
func (r *ParticleRenderer) DrawFlashes(cam *camera.Camera) {
	for i := range r.flashes {
		f := &r.flashes[i]
		lifeRatio := float32(f.Life) / float32(f.MaxLife)

		color := rl.Color{R: 255, G: 230, B: 120, A: uint8(lifeRatio * 220)}
		sx, sy := cam.WorldToScreen(f.X, f.Y)
		radius := cam.Scale(6 + 14*(1-lifeRatio))
		center := rl.Vector2{X: sx, Y: sy}
		rl.DrawCircleLinesV(center, radius, color)
		rl.DrawCircleLinesV(center, radius-1, color)
	}
}
