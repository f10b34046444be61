package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/kinetics/telemetry"
)

// HistogramPanel draws the particle speed distribution as bars.
type HistogramPanel struct {
	renderer      *Renderer
	x, y          int32
	width, height int32
}

// NewHistogramPanel creates a new histogram panel.
func NewHistogramPanel(x, y, width, height int32) *HistogramPanel {
	return &HistogramPanel{renderer: NewRenderer(), x: x, y: y, width: width, height: height}
}

// SetPosition updates the panel position.
func (h *HistogramPanel) SetPosition(x, y int32) {
	h.x, h.y = x, y
}

// Draw renders the histogram and returns the Y below the panel.
func (h *HistogramPanel) Draw(hist telemetry.Histogram) int32 {
	r := h.renderer
	padding := r.Theme.Padding
	r.DrawPanel(h.x, h.y, h.width, h.height)
	r.DrawSectionHeader(h.x+padding, h.y+padding, "Speed distribution")

	plotX := h.x + padding
	plotY := h.y + padding + r.Theme.LineHeight
	plotW := h.width - 2*padding
	plotH := h.height - 2*padding - 2*r.Theme.LineHeight
	rl.DrawRectangle(plotX, plotY, plotW, plotH, r.Theme.BarBg)

	peak := hist.Max()
	if n := len(hist.Counts); n > 0 && peak > 0 {
		barW := float32(plotW) / float32(n)
		for i, c := range hist.Counts {
			bh := float32(plotH) * float32(c/peak)
			rl.DrawRectangleRec(rl.Rectangle{
				X:      float32(plotX) + float32(i)*barW + 1,
				Y:      float32(plotY+plotH) - bh,
				Width:  max(barW-2, 1),
				Height: bh,
			}, r.Theme.BarFill)
		}
	}

	axisY := plotY + plotH + 4
	rl.DrawText("0", plotX, axisY, r.Theme.FontSize, r.Theme.LabelColor)
	if len(hist.Edges) > 0 {
		top := fmt.Sprintf("%.1f", hist.Edges[len(hist.Edges)-1])
		rl.DrawText(top, plotX+plotW-rl.MeasureText(top, r.Theme.FontSize), axisY, r.Theme.FontSize, r.Theme.LabelColor)
	}
	return h.y + h.height
}
