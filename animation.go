package aspen

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float32 fields of a sprite, tile or text
// together. Create one with the Tween* constructors and call Update each
// frame; values are written back on every update.
//
// There is no global animation manager; callers own the groups.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float32
	Done   bool
}

func newTweenGroup(duration float32, fn ease.TweenFunc, pairs ...tweenPair) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	g := &TweenGroup{count: len(pairs)}
	for i, p := range pairs {
		g.tweens[i] = gween.New(*p.field, p.to, duration, fn)
		g.fields[i] = p.field
	}
	return g
}

type tweenPair struct {
	field *float32
	to    float32
}

// Update advances every tween by dt seconds.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// UpdateTime is Update driven by a GameTime.
func (g *TweenGroup) UpdateTime(gt GameTime) { g.Update(gt.DeltaSeconds()) }

// TweenPosition animates a sprite's top-left corner to `to`.
func TweenPosition(s *Sprite, to Point2D, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn, tweenPair{&s.X, to.X}, tweenPair{&s.Y, to.Y})
}

// TweenScale animates a sprite's uniform scale.
func TweenScale(s *Sprite, to float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn, tweenPair{&s.Scale, to})
}

// TweenSize animates the drawn width and height.
func TweenSize(a *Appearance, w, h float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn, tweenPair{&a.Width, w}, tweenPair{&a.Height, h})
}

// TweenColour animates all four colour components.
func TweenColour(a *Appearance, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn,
		tweenPair{&a.Colour.R, to.R},
		tweenPair{&a.Colour.G, to.G},
		tweenPair{&a.Colour.B, to.B},
		tweenPair{&a.Colour.A, to.A},
	)
}

// TweenOpacity animates opacity.
func TweenOpacity(a *Appearance, to float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn, tweenPair{&a.Opacity, to})
}

// TweenRotation animates rotation in radians.
func TweenRotation(a *Appearance, to float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn, tweenPair{&a.Rotation, to})
}

// TweenTextPosition animates a text's baseline origin.
func TweenTextPosition(t *Text, to Point2D, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(duration, fn, tweenPair{&t.Position.X, to.X}, tweenPair{&t.Position.Y, to.Y})
}
