package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		if g.engine.Running() {
			g.engine.Pause()
		} else {
			g.engine.Start()
		}
	}
	if rl.IsKeyPressed(rl.KeyBackspace) {
		g.engine.Reset()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > MinStepsPerUpdate {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < MaxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	// Species selection for click-to-spawn
	for i, key := range []int32{rl.KeyOne, rl.KeyTwo, rl.KeyThree, rl.KeyFour, rl.KeyFive, rl.KeySix, rl.KeySeven, rl.KeyEight, rl.KeyNine} {
		if i < g.engine.Catalog().Len() && rl.IsKeyPressed(key) {
			g.controls.Select(i)
		}
	}

	g.uiOverlays.HandleKeys()
	g.arena.ShowHighlights = g.uiOverlays.IsEnabled(ui.OverlayHighlights)
	g.arena.ShowFlashes = g.uiOverlays.IsEnabled(ui.OverlayFlashes)

	// Camera controls
	g.handleCameraInput()

	// Inspector gets the click first; otherwise a click in the arena spawns.
	mouse := rl.GetMousePosition()
	particles := g.arena.Last().Particles
	if g.inspector.HandleInput(mouse.X, mouse.Y, g.camera, particles) {
		return
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && g.camera.Contains(mouse.X, mouse.Y) {
		g.spawnAt(mouse.X, mouse.Y)
	}
}

// spawnAt adds SpawnClickCount particles of the selected species in a small
// square around the screen point.
func (g *Game) spawnAt(sx, sy float32) {
	cat := g.engine.Catalog()
	sel := g.controls.Selected()
	if sel < 0 || sel >= cat.Len() {
		return
	}
	wx, wy := g.camera.ScreenToWorld(sx, sy)
	g.engine.AddParticles(config.SpawnGroup{
		Species: cat.At(uint16(sel)).ID,
		Count:   SpawnClickCount,
		Region: &config.Region{
			X:      float64(wx) - spawnClickSize/2,
			Y:      float64(wy) - spawnClickSize/2,
			Width:  spawnClickSize,
			Height: spawnClickSize,
		},
	})
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.layout()
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed in screen pixels per frame
	const panSpeed = 8.0

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom controls: mouse wheel over the arena or +/- keys
	mouse := rl.GetMousePosition()
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 && g.camera.Contains(mouse.X, mouse.Y) {
		g.camera.ZoomBy(1.0 + wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
