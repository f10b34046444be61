// Package camera maps the arena onto a screen viewport.
package camera

// Camera controls the viewport into the arena.
// At zoom 1 the whole arena is fitted into the viewport with a uniform
// scale and letterboxed; zooming magnifies around X, Y.
type Camera struct {
	// Position is the point of the arena shown at the viewport centre
	X, Y float32

	// Zoom level on top of the fit scale (1.0 = whole arena visible)
	Zoom float32

	// Viewport rectangle on screen
	ViewportX, ViewportY float32
	ViewportW, ViewportH float32

	// Arena dimensions
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32

	// Margin in pixels kept around the arena at zoom 1
	Margin float32
}

// New creates a camera that fits an arena of worldW x worldH into the
// viewport at (x, y) of size viewportW x viewportH.
func New(x, y, viewportW, viewportH, worldW, worldH float32) *Camera {
	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportX: x,
		ViewportY: y,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   1.0,
		MaxZoom:   6.0,
		Margin:    12,
	}
}

// FitScale returns the pixels-per-unit scale that fits the whole arena
// into the viewport, ignoring zoom.
func (c *Camera) FitScale() float32 {
	w := c.ViewportW - 2*c.Margin
	h := c.ViewportH - 2*c.Margin
	if w <= 0 || h <= 0 || c.WorldW <= 0 || c.WorldH <= 0 {
		return 1
	}
	return min(w/c.WorldW, h/c.WorldH)
}

// PixelsPerUnit returns the current scale including zoom.
func (c *Camera) PixelsPerUnit() float32 {
	return c.FitScale() * c.Zoom
}

// Scale converts an arena length (e.g. a radius) to pixels.
func (c *Camera) Scale(length float32) float32 {
	return length * c.PixelsPerUnit()
}

// WorldToScreen converts arena coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.PixelsPerUnit()
	sx = c.ViewportX + c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportY + c.ViewportH/2 + (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to arena coordinates.
// The result may lie outside the arena.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.PixelsPerUnit()
	wx = c.X + (sx-c.ViewportX-c.ViewportW/2)/s
	wy = c.Y + (sy-c.ViewportY-c.ViewportH/2)/s
	return wx, wy
}

// Contains reports whether a screen point falls on the arena.
func (c *Camera) Contains(sx, sy float32) bool {
	if sx < c.ViewportX || sx > c.ViewportX+c.ViewportW ||
		sy < c.ViewportY || sy > c.ViewportY+c.ViewportH {
		return false
	}
	wx, wy := c.ScreenToWorld(sx, sy)
	return wx >= 0 && wx <= c.WorldW && wy >= 0 && wy <= c.WorldH
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible in the viewport (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return wx+radius >= minX && wx-radius <= maxX &&
		wy+radius >= minY && wy-radius <= maxY
}

// Resize updates the viewport rectangle.
func (c *Camera) Resize(x, y, viewportW, viewportH float32) {
	c.ViewportX, c.ViewportY = x, y
	c.ViewportW, c.ViewportH = viewportW, viewportH
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.PixelsPerUnit()
	c.X += dx / s
	c.Y += dy / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the fitted view.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the arena-coordinate bounds of the viewport.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	s := c.PixelsPerUnit()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// clampCenter keeps the view centre on the arena so it cannot be panned
// into empty space.
func (c *Camera) clampCenter() {
	c.X = clamp(c.X, 0, c.WorldW)
	c.Y = clamp(c.Y, 0, c.WorldH)
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
