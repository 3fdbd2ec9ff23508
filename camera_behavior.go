package aspen

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ScrollBehavior tweens the camera's focal point to a destination, then
// leaves the camera where it arrived.
type ScrollBehavior struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// NewScrollBehavior animates from the camera's current position to to over
// duration seconds. A nil easeFn is linear.
func NewScrollBehavior(c *Camera, to Point2D, duration float32, easeFn ease.TweenFunc) *ScrollBehavior {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	from := c.Position()
	return &ScrollBehavior{
		tweenX: gween.New(from.X, to.X, duration, easeFn),
		tweenY: gween.New(from.Y, to.Y, duration, easeFn),
	}
}

// ScrollTo installs a ScrollBehavior on c and returns it.
func ScrollTo(c *Camera, to Point2D, duration float32, easeFn ease.TweenFunc) *ScrollBehavior {
	s := NewScrollBehavior(c, to, duration, easeFn)
	c.SetBehavior(s)
	return s
}

// Done reports whether both axes have arrived.
func (s *ScrollBehavior) Done() bool { return s.doneX && s.doneY }

// Update implements CameraBehavior.
func (s *ScrollBehavior) Update(c *Camera, gt GameTime) {
	if s.Done() {
		return
	}
	dt := gt.DeltaSeconds()
	p := c.Position()
	if !s.doneX {
		p.X, s.doneX = s.tweenX.Update(dt)
	}
	if !s.doneY {
		p.Y, s.doneY = s.tweenY.Update(dt)
	}
	c.LookAt(p)
}

// FollowBehavior moves the camera a fraction of the way toward a target
// every update. A Lerp of 1 snaps.
type FollowBehavior struct {
	Target func() Point2D
	Offset Point2D
	Lerp   float32
}

// Update implements CameraBehavior.
func (f *FollowBehavior) Update(c *Camera, _ GameTime) {
	if f.Target == nil {
		return
	}
	t := f.Target()
	t.X += f.Offset.X
	t.Y += f.Offset.Y
	p := c.Position()
	p.X += (t.X - p.X) * f.Lerp
	p.Y += (t.Y - p.Y) * f.Lerp
	c.LookAt(p)
}
