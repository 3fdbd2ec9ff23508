package aspen

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// fpsInterval is how often, in seconds, the counter refreshes its text.
const fpsInterval = 0.5

// FPSCounter is a Text showing ebiten's measured FPS and TPS, refreshed
// twice a second. It draws above everything at z 127.
type FPSCounter struct {
	Text  *Text
	since float32
}

// NewFPSCounter creates a counter at pos using f. A nil f uses the
// renderer's default font when drawn.
func NewFPSCounter(f Font, pos Point2D) *FPSCounter {
	t := NewText(f, "FPS: -\nTPS: -", pos)
	t.Z = 127
	return &FPSCounter{Text: t, since: fpsInterval}
}

// Update refreshes the text when the interval has passed.
func (c *FPSCounter) Update(gt GameTime) {
	c.since += float32(gt.Delta.Seconds())
	if c.since < fpsInterval {
		return
	}
	c.since = 0
	c.Text.Content = fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
}

// Render draws the counter.
func (c *FPSCounter) Render(r *Renderer) {
	if c.Text.Font == nil {
		c.Text.Font = r.DefaultFont()
	}
	r.RenderText(c.Text)
}
