package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/camera"
	"github.com/pthm-cable/kinetics/config"
)

// BackgroundRenderer renders the container: backdrop, faint grid, outline
// and the configured region highlights.
type BackgroundRenderer struct {
	Backdrop rl.Color
	Floor    rl.Color
	Grid     rl.Color
	Outline  rl.Color

	// GridStep is the grid spacing in arena units; 0 disables the grid.
	GridStep float32
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer() *BackgroundRenderer {
	return &BackgroundRenderer{
		Backdrop: rl.Color{R: 12, G: 14, B: 18, A: 255},
		Floor:    rl.Color{R: 22, G: 26, B: 32, A: 255},
		Grid:     rl.Color{R: 34, G: 40, B: 48, A: 255},
		Outline:  rl.Color{R: 120, G: 130, B: 145, A: 255},
		GridStep: 50,
	}
}

// Draw paints the container floor, grid lines and outline.
func (b *BackgroundRenderer) Draw(cam *camera.Camera) {
	rl.DrawRectangle(int32(cam.ViewportX), int32(cam.ViewportY), int32(cam.ViewportW), int32(cam.ViewportH), b.Backdrop)

	x0, y0 := cam.WorldToScreen(0, 0)
	x1, y1 := cam.WorldToScreen(cam.WorldW, cam.WorldH)
	floor := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	rl.DrawRectangleRec(floor, b.Floor)

	if b.GridStep > 0 {
		for gx := b.GridStep; gx < cam.WorldW; gx += b.GridStep {
			sx, _ := cam.WorldToScreen(gx, 0)
			rl.DrawLineV(rl.Vector2{X: sx, Y: y0}, rl.Vector2{X: sx, Y: y1}, b.Grid)
		}
		for gy := b.GridStep; gy < cam.WorldH; gy += b.GridStep {
			_, sy := cam.WorldToScreen(0, gy)
			rl.DrawLineV(rl.Vector2{X: x0, Y: sy}, rl.Vector2{X: x1, Y: sy}, b.Grid)
		}
	}

	rl.DrawRectangleLinesEx(floor, 2, b.Outline)
}

// DrawHighlights paints translucent region overlays with their labels.
func (b *BackgroundRenderer) DrawHighlights(cam *camera.Camera, highlights []config.HighlightConfig) {
	for _, h := range highlights {
		x0, y0 := cam.WorldToScreen(float32(h.X), float32(h.Y))
		x1, y1 := cam.WorldToScreen(float32(h.X+h.Width), float32(h.Y+h.Height))
		rect := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}

		c := ToColor(config.ColorOrWhite(h.Color))
		rl.DrawRectangleRec(rect, c)

		edge := c
		edge.A = 200
		rl.DrawRectangleLinesEx(rect, 1, edge)
		if h.Label != "" {
			rl.DrawText(h.Label, int32(x0)+6, int32(y0)+6, 12, edge)
		}
	}
}

// ToColor converts a config color to a raylib color.
func ToColor(c config.RGBA) rl.Color {
	return rl.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
