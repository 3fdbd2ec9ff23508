package aspen

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// GameTime is the clock passed to update callbacks.
type GameTime struct {
	// Delta is the time since the previous variable update.
	Delta time.Duration
	// FixedDelta is the fixed timestep. Zero during variable updates.
	FixedDelta time.Duration
	// Elapsed is the time since the game started.
	Elapsed time.Duration
	// Frame counts variable updates, starting at 1.
	Frame uint64
}

// DeltaSeconds returns the step that applies to this update in seconds:
// FixedDelta during fixed updates, Delta otherwise.
func (gt GameTime) DeltaSeconds() float32 {
	if gt.FixedDelta > 0 {
		return float32(gt.FixedDelta.Seconds())
	}
	return float32(gt.Delta.Seconds())
}

// Game is driven once per frame by Run: any number of fixed updates, one
// variable update, then Render between BeginFrame and EndFrame.
type Game interface {
	FixedUpdate(gt GameTime)
	Update(gt GameTime)
	Render(r *Renderer)
}

// Initializer is implemented by games that load resources once the graphics
// context is live.
type Initializer interface {
	Init(r *Renderer) error
}

// ErrQuit may be returned from Init, or passed to Renderer.Quit, to end Run
// without an error.
var ErrQuit = errors.New("aspen: quit")

// maxFixedSteps bounds catch-up after a stall so one slow frame cannot
// trigger an ever-growing number of fixed updates.
const maxFixedSteps = 8

// host adapts a Game to ebiten.Game.
type host struct {
	game     Game
	dev      *EbitenDevice
	r        *Renderer
	settings GameSettings

	started bool
	start   time.Time
	last    time.Time
	acc     time.Duration
	frame   uint64
	err     error
}

// Run opens a window configured by settings and drives game until the window
// closes or a callback fails.
func Run(game Game, settings GameSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	dev := NewEbitenDevice()
	r, err := NewRenderer(dev, settings)
	if err != nil {
		return err
	}
	h := &host{game: game, dev: dev, r: r, settings: settings}

	ebiten.SetWindowSize(settings.WindowWidth, settings.WindowHeight)
	ebiten.SetWindowTitle(settings.Title)
	ebiten.SetVsyncEnabled(settings.VSync)
	if settings.FPSLimit > 0 {
		ebiten.SetTPS(settings.FPSLimit)
	} else {
		ebiten.SetTPS(ebiten.SyncWithFPS)
	}
	switch settings.Mode {
	case ModeFullscreen:
		ebiten.SetFullscreen(true)
	case ModeBorderlessWindow:
		ebiten.SetWindowDecorated(false)
	case ModeBorderlessFullscreen:
		ebiten.SetWindowDecorated(false)
		ebiten.SetFullscreen(true)
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	Logger().Info("aspen: starting", "device", dev.Name(),
		"window", fmt.Sprintf("%dx%d", settings.WindowWidth, settings.WindowHeight),
		"mode", settings.Mode, "policy", settings.Policy)

	err = ebiten.RunGame(h)
	dev.Stop()
	r.Close()
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

func (h *host) Update() error {
	if h.err != nil {
		return h.err
	}
	now := time.Now()
	if !h.started {
		h.started = true
		h.start, h.last = now, now
		h.dev.Start()
		if w, ht := ebiten.Monitor().Size(); w > 0 && ht > 0 {
			h.r.SetDesktop(Size{W: w, H: ht}, h.settings.FPSLimit)
		}
		if init, ok := h.game.(Initializer); ok {
			if err := init.Init(h.r); err != nil {
				return err
			}
		}
	}

	h.step(now)
	return h.r.quitErr()
}

// step runs the fixed updates due by now, then one variable update.
func (h *host) step(now time.Time) {
	delta := now.Sub(h.last)
	h.last = now
	h.frame++

	fixed := h.settings.FixedTimestep.Duration()
	h.acc += delta
	for steps := 0; h.acc >= fixed && steps < maxFixedSteps; steps++ {
		h.acc -= fixed
		h.game.FixedUpdate(GameTime{FixedDelta: fixed, Elapsed: now.Sub(h.start), Frame: h.frame})
	}
	if h.acc > fixed {
		h.acc = 0
	}
	h.game.Update(GameTime{Delta: delta, Elapsed: now.Sub(h.start), Frame: h.frame})
}

func (h *host) Draw(screen *ebiten.Image) {
	if h.err != nil {
		return
	}
	if h.dev != nil {
		h.dev.SetScreen(screen)
	}
	if h.fatal(h.r.BeginFrame()) {
		return
	}
	h.game.Render(h.r)
	h.fatal(h.r.EndFrame())
}

// fatal latches errors that end the loop and logs the rest.
func (h *host) fatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRendererFailed) || errors.Is(err, ErrNoContext) {
		h.err = err
		return true
	}
	Logger().Warn("aspen: frame error", "frame", h.frame, "error", err)
	return false
}

func (h *host) Layout(outsideWidth, outsideHeight int) (int, int) {
	if s := h.r.Resolution().Window; s.W != outsideWidth || s.H != outsideHeight {
		h.r.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
