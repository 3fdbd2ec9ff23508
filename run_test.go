package aspen

import (
	"errors"
	"image/color"
	"testing"
	"time"
)

type recordingGame struct {
	fixed    []GameTime
	variable []GameTime
	render   func(*Renderer)
}

func (g *recordingGame) FixedUpdate(gt GameTime) { g.fixed = append(g.fixed, gt) }
func (g *recordingGame) Update(gt GameTime)      { g.variable = append(g.variable, gt) }
func (g *recordingGame) Render(r *Renderer) {
	if g.render != nil {
		g.render(r)
	}
}

func TestGameTimeDeltaSeconds(t *testing.T) {
	if got := (GameTime{Delta: 250 * time.Millisecond}).DeltaSeconds(); got != 0.25 {
		t.Errorf("variable = %v, want 0.25", got)
	}
	gt := GameTime{Delta: 250 * time.Millisecond, FixedDelta: 500 * time.Millisecond}
	if got := gt.DeltaSeconds(); got != 0.5 {
		t.Errorf("fixed = %v, want 0.5", got)
	}
}

func TestHostStepRunsFixedUpdates(t *testing.T) {
	g := &recordingGame{}
	h := &host{game: g, settings: DefaultSettings()}
	t0 := time.Unix(1000, 0)
	h.start, h.last = t0, t0

	h.step(t0.Add(50 * time.Millisecond))
	if len(g.fixed) != 2 || len(g.variable) != 1 {
		t.Fatalf("after 50ms: %d fixed, %d variable", len(g.fixed), len(g.variable))
	}
	if g.fixed[0].FixedDelta != 20*time.Millisecond {
		t.Errorf("fixed step = %+v", g.fixed[0])
	}
	if v := g.variable[0]; v.Delta != 50*time.Millisecond || v.FixedDelta != 0 || v.Frame != 1 {
		t.Errorf("variable step = %+v", v)
	}

	// The 10ms remainder carries over.
	h.step(t0.Add(60 * time.Millisecond))
	if len(g.fixed) != 3 {
		t.Errorf("after 60ms: %d fixed, want 3", len(g.fixed))
	}
	if e := g.variable[1].Elapsed; e != 60*time.Millisecond {
		t.Errorf("elapsed = %v", e)
	}
}

func TestHostStepBoundsCatchUp(t *testing.T) {
	g := &recordingGame{}
	h := &host{game: g, settings: DefaultSettings()}
	t0 := time.Unix(1000, 0)
	h.start, h.last = t0, t0

	h.step(t0.Add(time.Second))
	if len(g.fixed) != maxFixedSteps {
		t.Errorf("fixed updates after a stall = %d, want %d", len(g.fixed), maxFixedSteps)
	}
	// The backlog is dropped rather than replayed.
	h.step(t0.Add(time.Second + 10*time.Millisecond))
	if len(g.fixed) != maxFixedSteps {
		t.Errorf("fixed updates = %d, want %d", len(g.fixed), maxFixedSteps)
	}
}

func TestHostDrawSurvivesDroppedSegment(t *testing.T) {
	r, dev := newTestRenderer(t, 16, 16)
	tex := whiteTexture(t, r)
	rt, err := r.NewRenderTarget(8, 8, FormatRGBA, 1)
	if err != nil {
		t.Fatal(err)
	}
	g := &recordingGame{render: func(r *Renderer) {
		_ = r.SetRenderTarget(rt)
		r.Render(newTestSprite(t, tex, 0, 0, 4, 4))
		_ = r.SetRenderTarget(nil)
		r.Render(newTestSprite(t, tex, 0, 0, 16, 16))
		dev.DestroyTexture(rt.attachments[0])
	}}
	h := &host{game: g, r: r}

	h.Draw(nil)
	if h.err != nil {
		t.Fatalf("host stopped on %v", h.err)
	}
	assertPixel(t, dev, 4, 4, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})

	g.render = nil
	dev.Lose()
	h.Draw(nil)
	if !errors.Is(h.err, ErrRendererFailed) {
		t.Errorf("err = %v, want ErrRendererFailed", h.err)
	}
}
