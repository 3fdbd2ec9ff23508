package aspen

import "fmt"

// MinZoom is the smallest zoom Translate will produce. SetZoom rejects values
// at or below zero outright.
const MinZoom float32 = 0.01

// CameraView is an axis-aligned world-space rectangle: what is visible.
// Min is never greater than Max on either axis.
type CameraView struct {
	MinX, MaxX float32
	MinY, MaxY float32
}

// Width returns MaxX - MinX.
func (v CameraView) Width() float32 { return v.MaxX - v.MinX }

// Height returns MaxY - MinY.
func (v CameraView) Height() float32 { return v.MaxY - v.MinY }

// Centre returns the midpoint of the view.
func (v CameraView) Centre() Point2D {
	return Point2D{X: (v.MinX + v.MaxX) / 2, Y: (v.MinY + v.MaxY) / 2}
}

// Contains reports whether p lies inside the view, edges included.
func (v CameraView) Contains(p Point2D) bool {
	return p.X >= v.MinX && p.X <= v.MaxX && p.Y >= v.MinY && p.Y <= v.MaxY
}

// Intersects reports whether two views overlap.
func (v CameraView) Intersects(o CameraView) bool {
	return v.MinX < o.MaxX && v.MaxX > o.MinX && v.MinY < o.MaxY && v.MaxY > o.MinY
}

// CameraBehavior moves a camera once per frame. Implementations replace the
// overridable update hook of classic engines; a camera without one stays put.
type CameraBehavior interface {
	Update(c *Camera, gt GameTime)
}

// Camera derives a CameraView from a focal point, a logical frame size and a
// zoom factor. A zoom of 2 shows twice as much of the world.
type Camera struct {
	width, height float32
	zoom          float32
	focal         Point2D

	bounds  CameraView
	clamped bool

	behavior CameraBehavior
}

// NewCamera creates a camera with the given frame size, looking at the origin.
func NewCamera(width, height float32) *Camera {
	return &Camera{width: width, height: height, zoom: 1}
}

// NewCameraAt creates a camera with the given frame size looking at focal.
func NewCameraAt(focal Point2D, width, height float32) *Camera {
	c := NewCamera(width, height)
	c.focal = focal
	return c
}

// Position returns the focal point.
func (c *Camera) Position() Point2D { return c.focal }

// Zoom returns the current zoom factor.
func (c *Camera) Zoom() float32 { return c.zoom }

// Size returns the logical frame size.
func (c *Camera) Size() (w, h float32) { return c.width, c.height }

// LookAt recentres the camera on p.
func (c *Camera) LookAt(p Point2D) { c.focal = p }

// SetZoom sets the zoom factor. Zoom must be greater than zero.
func (c *Camera) SetZoom(z float32) error {
	if z <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidZoom, z)
	}
	c.zoom = z
	return nil
}

// Translate moves the focal point and zoom by the given deltas.
func (c *Camera) Translate(dx, dy, dzoom float32) {
	c.focal.X += dx
	c.focal.Y += dy
	c.TranslateZ(dzoom)
}

// TranslateX moves the focal point horizontally.
func (c *Camera) TranslateX(dx float32) { c.focal.X += dx }

// TranslateY moves the focal point vertically.
func (c *Camera) TranslateY(dy float32) { c.focal.Y += dy }

// TranslateZ adds dzoom to the zoom, never going below MinZoom.
func (c *Camera) TranslateZ(dzoom float32) {
	c.zoom += dzoom
	if c.zoom < MinZoom {
		c.zoom = MinZoom
	}
}

// Resize changes the logical frame size without moving the focal point.
func (c *Camera) Resize(w, h float32) {
	c.width = w
	c.height = h
}

// Clamp keeps every subsequent View inside bounds. A bounds with Min greater
// than Max is normalised first.
func (c *Camera) Clamp(bounds CameraView) {
	if bounds.MinX > bounds.MaxX {
		bounds.MinX, bounds.MaxX = bounds.MaxX, bounds.MinX
	}
	if bounds.MinY > bounds.MaxY {
		bounds.MinY, bounds.MaxY = bounds.MaxY, bounds.MinY
	}
	c.bounds = bounds
	c.clamped = true
}

// ClampSlice is Clamp for a {minX, maxX, minY, maxY} slice.
func (c *Camera) ClampSlice(b []float32) error {
	if len(b) != 4 {
		return lengthError("camera clamp", 4, len(b))
	}
	c.Clamp(CameraView{MinX: b[0], MaxX: b[1], MinY: b[2], MaxY: b[3]})
	return nil
}

// ClearClamp removes the clamp bounds.
func (c *Camera) ClearClamp() { c.clamped = false }

// Bounds returns the clamp bounds and whether clamping is on.
func (c *Camera) Bounds() (CameraView, bool) { return c.bounds, c.clamped }

// SetBehavior installs the per-frame motion strategy. Nil removes it.
func (c *Camera) SetBehavior(b CameraBehavior) { c.behavior = b }

// Behavior returns the installed motion strategy, or nil.
func (c *Camera) Behavior() CameraBehavior { return c.behavior }

// Update runs the installed behaviour once.
func (c *Camera) Update(gt GameTime) {
	if c.behavior != nil {
		c.behavior.Update(c, gt)
	}
}

// View returns the visible world rectangle, clamped when bounds are set.
func (c *Camera) View() CameraView {
	halfW := c.width * 0.5 * c.zoom
	halfH := c.height * 0.5 * c.zoom
	v := CameraView{
		MinX: c.focal.X - halfW,
		MaxX: c.focal.X + halfW,
		MinY: c.focal.Y - halfH,
		MaxY: c.focal.Y + halfH,
	}
	if c.clamped {
		v = clampView(v, c.bounds)
	}
	return v
}

// clampView translates v so it lies inside b. An axis on which v is larger
// than b is centred on b instead. The extent of v never changes.
func clampView(v, b CameraView) CameraView {
	v.MinX, v.MaxX = clampSpan(v.MinX, v.MaxX, b.MinX, b.MaxX)
	v.MinY, v.MaxY = clampSpan(v.MinY, v.MaxY, b.MinY, b.MaxY)
	return v
}

func clampSpan(lo, hi, blo, bhi float32) (float32, float32) {
	size := hi - lo
	if size > bhi-blo {
		mid := (blo + bhi) / 2
		return mid - size/2, mid + size/2
	}
	if lo < blo {
		return blo, blo + size
	}
	if hi > bhi {
		return bhi - size, bhi
	}
	return lo, hi
}

// ScreenToWorld converts a pixel position inside vp to world space for the
// current view.
func (c *Camera) ScreenToWorld(vp Viewport, sx, sy float32) Point2D {
	x, y := unproject(viewProjection(c.View(), vp), sx, sy)
	return Point2D{X: x, Y: y}
}

// WorldToScreen converts a world position to a pixel position inside vp.
func (c *Camera) WorldToScreen(vp Viewport, p Point2D) (sx, sy float32) {
	return project(viewProjection(c.View(), vp), p.X, p.Y)
}
