package aspen

import "fmt"

// RenderTarget is an offscreen surface with one or more colour attachments,
// multisampled when GameSettings.MSAA asks for it. Attachments cannot be
// sampled directly: Resolve copies one into a plain Texture.
//
// Resolved textures exist from construction but have no storage and report
// Stale until their first Resolve. Drawing into the target marks all of
// them stale again.
type RenderTarget struct {
	r             *Renderer
	width, height int
	format        Format
	samples       int
	attachments   []uint32
	resolved      []*Texture
	active        int
	destroyed     bool
}

// NewRenderTarget creates a target with count attachments of w×h pixels.
func (r *Renderer) NewRenderTarget(w, h int, f Format, count int) (*RenderTarget, error) {
	if err := r.checkDevice(); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: render target needs at least one attachment, got %d", ErrIndex, count)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("aspen: render target size %dx%d must be positive", w, h)
	}
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrFormat, f)
	}
	rt := &RenderTarget{r: r, width: w, height: h, format: f, samples: r.settings.Samples()}
	if err := rt.allocate(count); err != nil {
		return nil, err
	}
	Logger().Debug("aspen: render target created", "width", w, "height", h,
		"format", f, "attachments", count, "samples", rt.samples)
	return rt, nil
}

func (rt *RenderTarget) allocate(count int) error {
	desc := TextureDesc{
		Width: rt.width, Height: rt.height, Format: rt.format,
		Samples: rt.samples, RenderTarget: true,
	}
	for i := 0; i < count; i++ {
		id, err := rt.r.dev.CreateTexture(desc, nil)
		if err != nil {
			rt.release()
			return rt.r.deviceErr("create render target", err)
		}
		rt.attachments = append(rt.attachments, id)
		rt.resolved = append(rt.resolved, rt.r.rm.placeholder(rt.width, rt.height, rt.format))
	}
	return nil
}

// release frees attachments and resolved textures.
func (rt *RenderTarget) release() {
	for _, id := range rt.attachments {
		rt.r.dev.DestroyTexture(id)
	}
	for _, t := range rt.resolved {
		rt.r.rm.destroyTexture(t)
	}
	rt.attachments = rt.attachments[:0]
	rt.resolved = rt.resolved[:0]
}

// Width returns the width in pixels.
func (rt *RenderTarget) Width() int { return rt.width }

// Height returns the height in pixels.
func (rt *RenderTarget) Height() int { return rt.height }

// Format returns the attachment format.
func (rt *RenderTarget) Format() Format { return rt.format }

// Samples returns the MSAA sample count, 1 when not multisampled.
func (rt *RenderTarget) Samples() int { return rt.samples }

// Count returns the number of attachments.
func (rt *RenderTarget) Count() int { return len(rt.attachments) }

// Active returns the attachment draws go to.
func (rt *RenderTarget) Active() int { return rt.active }

// SetActive selects the attachment subsequent draws go to.
func (rt *RenderTarget) SetActive(i int) error {
	if err := rt.checkIndex(i); err != nil {
		return err
	}
	if i != rt.active && rt.r.target == rt {
		rt.r.needSegment = true
	}
	rt.active = i
	return nil
}

func (rt *RenderTarget) checkIndex(i int) error {
	if rt.destroyed {
		return fmt.Errorf("%w: render target", ErrDestroyed)
	}
	if i < 0 || i >= len(rt.attachments) {
		return fmt.Errorf("%w: attachment %d of %d", ErrIndex, i, len(rt.attachments))
	}
	return nil
}

// Buffers returns the resolved textures without resolving them.
func (rt *RenderTarget) Buffers() []*Texture {
	return append([]*Texture(nil), rt.resolved...)
}

// Resolve flushes pending draws and copies attachment i into resolved
// texture i, allocating it on first use.
func (rt *RenderTarget) Resolve(i int) (*Texture, error) {
	if err := rt.checkIndex(i); err != nil {
		return nil, err
	}
	if err := rt.r.Flush(); err != nil {
		return nil, err
	}
	if err := rt.r.checkDevice(); err != nil {
		return nil, err
	}
	tex := rt.resolved[i]
	if !tex.Valid() {
		return nil, fmt.Errorf("%w: resolved texture %d", ErrDestroyed, i)
	}
	if err := tex.allocate(false); err != nil {
		return nil, rt.r.deviceErr("resolve", err)
	}
	if err := rt.r.dev.Resolve(rt.attachments[i], tex.id); err != nil {
		return nil, rt.r.deviceErr("resolve", err)
	}
	tex.stale = false
	tex.mips = 1
	return tex, nil
}

// ResolveAll resolves every attachment in index order.
func (rt *RenderTarget) ResolveAll() ([]*Texture, error) {
	out := make([]*Texture, 0, len(rt.attachments))
	for i := range rt.attachments {
		t, err := rt.Resolve(i)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Clear flushes pending draws and fills every attachment with c.
func (rt *RenderTarget) Clear(c Color) error {
	if rt.destroyed {
		return fmt.Errorf("%w: render target", ErrDestroyed)
	}
	if err := rt.r.Flush(); err != nil {
		return err
	}
	if err := rt.r.checkDevice(); err != nil {
		return err
	}
	for _, id := range rt.attachments {
		if err := rt.r.dev.Clear(id, c); err != nil {
			return rt.r.deviceErr("clear render target", err)
		}
	}
	rt.markDirty()
	return nil
}

// Resize recreates every attachment at w×h. Contents are lost and the
// resolved textures are replaced by new unresolved ones.
func (rt *RenderTarget) Resize(w, h int) error {
	if rt.destroyed {
		return fmt.Errorf("%w: render target", ErrDestroyed)
	}
	if w == rt.width && h == rt.height {
		return nil
	}
	if err := rt.r.Flush(); err != nil {
		return err
	}
	count := len(rt.attachments)
	rt.release()
	rt.width, rt.height = w, h
	if err := rt.allocate(count); err != nil {
		return err
	}
	rt.active = min(rt.active, count-1)
	if rt.r.target == rt {
		rt.r.applyResolution()
	}
	return nil
}

// Destroy releases the attachments and the resolved textures. Draws already
// queued into the target are flushed first, and a bound target is unbound.
func (rt *RenderTarget) Destroy() {
	if rt.destroyed {
		return
	}
	if rt.r.target == rt || rt.r.queuesInto(rt.attachments) {
		if err := rt.r.Flush(); err != nil {
			Logger().Warn("aspen: flush before destroying render target", "error", err)
		}
	}
	if rt.r.target == rt {
		_ = rt.r.SetRenderTarget(nil)
	}
	rt.release()
	rt.destroyed = true
}

func (rt *RenderTarget) markDirty() {
	for _, t := range rt.resolved {
		t.stale = true
	}
}
