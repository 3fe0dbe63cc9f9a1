package camera

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var regionColor = color.RGBA{G: 255, A: 255}

// Preview is the live display surface for a capture session. Key presses
// observed through it are the operator's cancellation signal.
type Preview struct {
	window  *gocv.Window
	delayMs int
}

// NewPreview opens a named preview window. delayMs is the per-tick key poll
// delay handed to WaitKey.
func NewPreview(title string, delayMs int) *Preview {
	return &Preview{
		window:  gocv.NewWindow(title),
		delayMs: delayMs,
	}
}

// Show renders the frame and polls for a key press once. It returns the
// pressed key code, or -1 when no key was pressed during the poll delay.
func (p *Preview) Show(m *gocv.Mat) int {
	p.window.IMShow(*m)
	return p.window.WaitKey(p.delayMs)
}

// Close destroys the window.
func (p *Preview) Close() error {
	return p.window.Close()
}

// DrawRegions outlines the detected face regions on the frame for display.
func DrawRegions(m *gocv.Mat, regions []image.Rectangle) {
	for _, r := range regions {
		gocv.Rectangle(m, r, regionColor, 2)
		pt := image.Pt(r.Min.X, r.Min.Y-10)
		gocv.PutText(m, "Face Detected", pt, gocv.FontHersheySimplex, 0.5, regionColor, 2)
	}
}
