// Package renderer draws the arena with raylib.
package renderer

import (
	"github.com/pthm-cable/kinetics/camera"
	"github.com/pthm-cable/kinetics/sim"
)

// Arena presents tick reports on screen. It keeps the latest report and
// draws it on demand, so it must be fed and drawn from the raylib thread.
type Arena struct {
	background *BackgroundRenderer
	particles  *ParticleRenderer

	last     sim.TickReport
	lastTick int64

	ShowHighlights bool
	ShowFlashes    bool
}

// NewArena creates an arena presenter.
func NewArena() *Arena {
	return &Arena{
		background: NewBackgroundRenderer(),
		particles:  NewParticleRenderer(),
		lastTick:   -1,

		ShowHighlights: true,
		ShowFlashes:    true,
	}
}

// Present implements sim.Presenter.
func (a *Arena) Present(r sim.TickReport) {
	// Tick going backwards means the engine was reset
	if r.Tick < a.lastTick {
		a.particles.ClearFlashes()
	}
	a.particles.AddFlashes(r.Reactions)
	a.last = r
	a.lastTick = r.Tick
}

// Last returns the most recently presented report.
func (a *Arena) Last() sim.TickReport {
	return a.last
}

// Draw renders the container, highlights, particles and flashes, then ages
// the flashes by one frame.
func (a *Arena) Draw(cam *camera.Camera) {
	a.background.Draw(cam)
	if a.ShowHighlights {
		a.background.DrawHighlights(cam, a.last.Highlights)
	}
	a.particles.Draw(cam, a.last.Particles)
	if a.ShowFlashes {
		a.particles.DrawFlashes(cam)
	}
	a.particles.Update()
}
