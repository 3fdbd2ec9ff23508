package aspen

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// renderCommand is one quad waiting to be sorted and batched. Vertices are
// already projected into target pixels.
type renderCommand struct {
	z       int16
	shader  uint32
	texture uint32
	seq     int

	tex     *Texture
	prog    *Shader
	sampler SamplerState
	quad    [4]Vertex
}

// segment is a run of commands drawn into one target through one viewport.
// Segments are submitted in the order they were opened.
type segment struct {
	start, end int
	target     uint32
	viewport   Viewport
}

// Renderer records draw calls, sorts them by (z, shader, texture,
// submission), coalesces them into batches and submits them to a Device.
//
// Changing the render target, viewport or projection closes the current
// segment; commands are only reordered within a segment.
//
// A Renderer is bound to the goroutine that owns the device.
type Renderer struct {
	dev      Device
	rm       *ResourceManager
	settings GameSettings

	target   *RenderTarget
	viewport Viewport
	view     CameraView
	proj     [6]float32
	shader   *Shader
	clear    Color

	base    Size
	window  Size
	desktop Size
	refresh int
	policy  ResolutionPolicy
	res     Resolution

	commands    []renderCommand
	sortBuf     []renderCommand
	segments    []segment
	needSegment bool
	seq         int

	batches []Batch
	verts   []Vertex
	indices []uint32

	failed error
	quit   bool

	defaultFont Font
	frame       FrameStats
	screenshots []string
}

// NewRenderer creates a renderer and its resource manager on dev.
func NewRenderer(dev Device, settings GameSettings) (*Renderer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	r := &Renderer{
		dev:         dev,
		rm:          NewResourceManager(dev),
		settings:    settings,
		clear:       ColorBlack,
		base:        settings.BaseResolution,
		window:      Size{W: settings.WindowWidth, H: settings.WindowHeight},
		policy:      settings.Policy,
		needSegment: true,
	}
	r.rm.SetDefaultSampler(SamplerState{Mag: settings.MagFilter})
	r.rm.beforeRead = r.Flush
	r.applyResolution()
	Logger().Info("aspen: renderer created", "device", dev.Name(),
		"base", fmt.Sprintf("%dx%d", r.base.W, r.base.H), "policy", r.policy)
	return r, nil
}

// Resources returns the manager that owns this renderer's textures and
// shaders.
func (r *Renderer) Resources() *ResourceManager { return r.rm }

// Device returns the graphics device.
func (r *Renderer) Device() Device { return r.dev }

// Settings returns the settings the renderer was created with.
func (r *Renderer) Settings() GameSettings { return r.settings }

// Err returns a non-nil error once the renderer has failed.
func (r *Renderer) Err() error {
	if r.failed == nil {
		return nil
	}
	return r.failedErr()
}

func (r *Renderer) failedErr() error {
	return fmt.Errorf("%w: %w", ErrRendererFailed, r.failed)
}

// fail records a fatal device error and drops every queued command.
// Resources stay owned by the manager.
func (r *Renderer) fail(err error) error {
	r.failed = err
	r.reset()
	Logger().Error("aspen: renderer failed", "device", r.dev.Name(), "error", err)
	return r.failedErr()
}

// checkDevice reports a fatal error for any failure of dev.Ready.
func (r *Renderer) checkDevice() error {
	if r.failed != nil {
		return r.failedErr()
	}
	if err := r.dev.Ready(); err != nil {
		return r.fail(err)
	}
	return nil
}

// deviceErr turns a device call's error into the renderer's error model.
func (r *Renderer) deviceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNoContext) {
		return r.fail(err)
	}
	return fmt.Errorf("aspen: %s: %w", op, err)
}

// Quit asks Run to return after the current frame.
func (r *Renderer) Quit() { r.quit = true }

func (r *Renderer) quitErr() error {
	if r.quit {
		return ErrQuit
	}
	return nil
}

// Close flushes nothing and releases every resource.
func (r *Renderer) Close() {
	r.reset()
	r.rm.Close()
}

// --- Frame lifecycle ---

// BeginFrame completes pending pixel downloads, restores the window as the
// target with the default shader, reapplies the resolution policy and
// clears the window.
func (r *Renderer) BeginFrame() error {
	flushErr := r.Flush()
	if err := r.checkDevice(); err != nil {
		return err
	}
	r.frame = FrameStats{}
	r.frame.Transfers = r.rm.completeTransfers()
	r.target = nil
	r.shader = nil
	r.applyResolution()
	return errors.Join(flushErr, r.deviceErr("clear", r.dev.Clear(0, r.clear)))
}

// EndFrame flushes the remaining commands and writes queued screenshots.
// A dropped segment is reported after the frame is finished.
func (r *Renderer) EndFrame() error {
	err := r.Flush()
	if r.failed != nil {
		return err
	}
	r.flushScreenshots()
	r.logStats(r.frame)
	return err
}

// Sync flushes queued commands and completes every pending download.
func (r *Renderer) Sync() error {
	if err := r.Flush(); err != nil {
		return err
	}
	r.frame.Transfers += r.rm.completeTransfers()
	return nil
}

// Stats returns the counters accumulated since BeginFrame.
func (r *Renderer) Stats() FrameStats { return r.frame }

// Flush sorts, batches and submits every queued command.
func (r *Renderer) Flush() error {
	if r.failed != nil {
		return r.failedErr()
	}
	if len(r.commands) == 0 {
		return nil
	}
	if err := r.checkDevice(); err != nil {
		return err
	}
	var errs []error
	for _, seg := range r.segments {
		cmds := r.commands[seg.start:seg.end]
		if len(cmds) == 0 {
			continue
		}
		t0 := time.Now()
		sortCommands(cmds, &r.sortBuf)
		t1 := time.Now()
		batches := r.buildBatches(cmds)
		t2 := time.Now()
		err := r.dev.Submit(Pass{Target: seg.target, Viewport: seg.viewport, Batches: batches})
		t3 := time.Now()

		r.frame.SortTime += t1.Sub(t0)
		r.frame.BatchTime += t2.Sub(t1)
		r.frame.SubmitTime += t3.Sub(t2)

		if err != nil {
			if errors.Is(err, ErrNoContext) {
				return r.fail(err)
			}
			// The segment is lost; later segments still draw.
			r.frame.Skipped += len(cmds)
			Logger().Warn("aspen: submit failed, segment dropped", "target", seg.target, "commands", len(cmds), "error", err)
			errs = append(errs, err)
			continue
		}
		r.frame.Commands += len(cmds)
		r.frame.Passes++
		r.frame.Batches += len(batches)
	}
	r.reset()
	if len(errs) > 0 {
		return fmt.Errorf("aspen: submit: %w", errors.Join(errs...))
	}
	return nil
}

// queuesInto reports whether a queued segment draws into one of ids.
func (r *Renderer) queuesInto(ids []uint32) bool {
	for _, seg := range r.segments {
		if seg.end > seg.start && slices.Contains(ids, seg.target) {
			return true
		}
	}
	return false
}

// reset drops queued commands and opens a fresh segment on the next draw.
func (r *Renderer) reset() {
	clear(r.commands)
	r.commands = r.commands[:0]
	r.segments = r.segments[:0]
	r.needSegment = true
	r.seq = 0
}

// --- State ---

// SetRenderTarget directs draws to rt's active attachment, or to the window
// when rt is nil. The resolution policy is remapped onto the new target.
func (r *Renderer) SetRenderTarget(rt *RenderTarget) error {
	if rt != nil && rt.destroyed {
		return fmt.Errorf("%w: render target", ErrDestroyed)
	}
	if r.target == rt {
		return nil
	}
	r.target = rt
	r.applyResolution()
	return nil
}

// RenderTarget returns the bound target, nil for the window.
func (r *Renderer) RenderTarget() *RenderTarget { return r.target }

func (r *Renderer) targetID() uint32 {
	if r.target == nil {
		return 0
	}
	return r.target.attachments[r.target.active]
}

func (r *Renderer) targetSize() Size {
	if r.target == nil {
		return r.window
	}
	return Size{W: r.target.width, H: r.target.height}
}

// applyResolution recomputes the snapshot and resets viewport and view.
func (r *Renderer) applyResolution() {
	r.res = computeResolution(r.policy, r.base, r.targetSize(), r.desktop, r.refresh)
	r.viewport = r.res.Viewport
	r.view = r.res.View
	r.updateProjection()
}

func (r *Renderer) updateProjection() {
	r.proj = affineFromMat4(viewProjection(r.view, r.viewport))
	r.needSegment = true
}

// affineFromMat4 extracts the 2D part of a column-major matrix that leaves z
// and w alone.
func affineFromMat4(m mgl32.Mat4) [6]float32 {
	return [6]float32{m[0], m[1], m[4], m[5], m[12], m[13]}
}

// SetViewport sets the target pixel rectangle the projection maps onto.
func (r *Renderer) SetViewport(vp Viewport) {
	r.viewport = vp
	r.updateProjection()
}

// Viewport returns the current viewport.
func (r *Renderer) Viewport() Viewport { return r.viewport }

// SetProjection sets the visible world rectangle.
func (r *Renderer) SetProjection(v CameraView) {
	r.view = v
	r.updateProjection()
}

// SetProjectionRect shows the world rectangle at (x, y) of size w×h.
func (r *Renderer) SetProjectionRect(x, y, w, h float32) {
	r.SetProjection(CameraView{MinX: x, MaxX: x + w, MinY: y, MaxY: y + h})
}

// SetProjectionSlice takes a {minX, maxX, minY, maxY} slice.
func (r *Renderer) SetProjectionSlice(v []float32) error {
	view, err := projectionFromSlice(v)
	if err != nil {
		return err
	}
	r.SetProjection(view)
	return nil
}

// SetCamera sets the projection to the camera's current view.
func (r *Renderer) SetCamera(c *Camera) { r.SetProjection(c.View()) }

// Projection returns the current view.
func (r *Renderer) Projection() CameraView { return r.view }

// ScreenToWorld converts a target pixel to world space under the current
// projection and viewport.
func (r *Renderer) ScreenToWorld(sx, sy float32) Point2D {
	x, y := unproject(viewProjection(r.view, r.viewport), sx, sy)
	return Point2D{X: x, Y: y}
}

// SetShader makes s the default pixel shader. Nil restores the built-in
// pipeline.
func (r *Renderer) SetShader(s *Shader) { r.shader = s }

// Shader returns the current default shader, nil for the built-in one.
func (r *Renderer) Shader() *Shader { return r.shader }

// InitPixelShader compiles a Kage pixel shader.
func (r *Renderer) InitPixelShader(src string) (*Shader, error) {
	return r.rm.CompileShader([]byte(src))
}

// LoadPixelShader compiles a Kage pixel shader read from path.
func (r *Renderer) LoadPixelShader(path string) (*Shader, error) {
	return r.rm.LoadShader(path)
}

// SetClearColour sets the colour BeginFrame fills the window with.
func (r *Renderer) SetClearColour(c Color) { r.clear = c }

// ClearColour returns the clear colour.
func (r *Renderer) ClearColour() Color { return r.clear }

// SetBaseResolution changes the design resolution and policy.
func (r *Renderer) SetBaseResolution(w, h int, policy ResolutionPolicy) {
	r.base = Size{W: w, H: h}
	r.policy = policy
	r.applyResolution()
}

// SetResolutionPolicy changes the policy only.
func (r *Renderer) SetResolutionPolicy(policy ResolutionPolicy) {
	r.policy = policy
	r.applyResolution()
}

// Resize records a new window size.
func (r *Renderer) Resize(w, h int) {
	r.window = Size{W: w, H: h}
	if wr, ok := r.dev.(WindowResizer); ok {
		wr.ResizeWindow(w, h)
	}
	Logger().Info("aspen: window resized", "width", w, "height", h)
	r.applyResolution()
}

// SetDesktop records the desktop size and refresh rate.
func (r *Renderer) SetDesktop(s Size, refresh int) {
	r.desktop = s
	r.refresh = refresh
	r.res.Desktop = s
	r.res.DesktopRefresh = refresh
}

// Resolution returns the current mapping snapshot.
func (r *Renderer) Resolution() Resolution {
	res := r.res
	res.Window = r.window
	return res
}

// --- Resources ---

// LoadTexture returns the cached texture for path.
func (r *Renderer) LoadTexture(path string) (*Texture, error) {
	t, err := r.rm.LoadTexture(path)
	if err != nil {
		Logger().Warn("aspen: texture not loaded", "path", path, "error", err)
	}
	return t, err
}

// CreateNonCachedTexture loads path into a texture the caller owns.
func (r *Renderer) CreateNonCachedTexture(path string) (*Texture, error) {
	return r.rm.CreateNonCachedTexture(path)
}

// CreateTexture creates a texture from raw bytes, or zeroed when data is nil.
func (r *Renderer) CreateTexture(w, h int, f Format, data []byte) (*Texture, error) {
	return r.rm.CreateTexture(w, h, f, data)
}

// --- Drawing ---

// Render queues a sprite.
func (r *Renderer) Render(s *Sprite) {
	tex, prog, ok := r.resolve(&s.Appearance)
	if !ok {
		return
	}
	r.push(tex, prog, s.Z, s.transform(), s.Width, s.Height, s.SrcRect, s.Flip, s.Colour, s.Opacity)
}

// RenderTile queues a tile with its top-left corner at (x, y).
func (r *Renderer) RenderTile(t *Tile, x, y float32) {
	if !t.Visible {
		return
	}
	tex, prog, ok := r.resolve(&t.Appearance)
	if !ok {
		return
	}
	m := quadTransform(x, y, t.Width, t.Height, t.Rotation, 1)
	r.push(tex, prog, t.Z, m, t.Width, t.Height, t.SrcRect, t.Flip, t.Colour, t.Opacity)
}

// RenderTileMap queues every occupied cell that overlaps the projection.
func (r *Renderer) RenderTileMap(m *TileMap) {
	c0, r0, c1, r1 := m.visibleRange(r.view)
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			idx := m.Cells[row*m.Cols+col]
			if idx < 0 || idx >= len(m.Tiles) {
				continue
			}
			x := m.OriginX + float32(col)*m.TileW
			y := m.OriginY + float32(row)*m.TileH
			r.RenderTile(m.Tiles[idx], x, y)
		}
	}
}

// RenderTexture queues tex at its native size with its top-left at (x, y).
func (r *Renderer) RenderTexture(tex *Texture, x, y float32, z int16) {
	if tex == nil {
		return
	}
	r.RenderTextureSized(tex, x, y, float32(tex.width), float32(tex.height), z)
}

// RenderTextureSized queues the whole of tex stretched to w×h.
func (r *Renderer) RenderTextureSized(tex *Texture, x, y, w, h float32, z int16) {
	if tex == nil {
		return
	}
	src := [4]float32{0, 0, float32(tex.width), float32(tex.height)}
	r.renderTexture(tex, src, x, y, w, h, z)
}

// RenderTextureRect queues the {x, y, w, h} texel rectangle rect of tex
// stretched to w×h.
func (r *Renderer) RenderTextureRect(tex *Texture, rect []float32, x, y, w, h float32, z int16) error {
	if len(rect) != 4 {
		return lengthError("source rectangle", 4, len(rect))
	}
	r.renderTexture(tex, [4]float32(rect), x, y, w, h, z)
	return nil
}

func (r *Renderer) renderTexture(tex *Texture, src [4]float32, x, y, w, h float32, z int16) {
	if !r.usable(tex) {
		return
	}
	m := quadTransform(x, y, w, h, 0, 1)
	r.push(tex, r.shader, z, m, w, h, src, FlipNone, ColorWhite, 1)
}

// resolve looks up the texture and shader a primitive references. Stale
// handles skip the draw with a warning.
func (r *Renderer) resolve(a *Appearance) (*Texture, *Shader, bool) {
	if r.failed != nil {
		return nil, nil, false
	}
	tex, err := r.rm.Texture(a.texture)
	if err != nil {
		r.frame.Skipped++
		Logger().Warn("aspen: skipping draw", "error", err)
		return nil, nil, false
	}
	if !r.usable(tex) {
		return nil, nil, false
	}
	prog := r.shader
	if !a.shader.IsZero() {
		if prog, err = r.rm.Shader(a.shader); err != nil {
			r.frame.Skipped++
			Logger().Warn("aspen: skipping draw", "error", err)
			return nil, nil, false
		}
	}
	return tex, prog, true
}

// usable reports whether tex can be sampled now.
func (r *Renderer) usable(tex *Texture) bool {
	if r.failed != nil || tex == nil {
		return false
	}
	if !tex.Valid() {
		r.frame.Skipped++
		Logger().Warn("aspen: skipping draw of destroyed texture")
		return false
	}
	if tex.id == 0 {
		r.frame.Skipped++
		Logger().Debug("aspen: skipping draw of unresolved texture", "handle", tex.handle)
		return false
	}
	return true
}

// push projects a w×h quad placed by m and queues it.
func (r *Renderer) push(tex *Texture, prog *Shader, z int16, m [6]float32, w, h float32, src [4]float32, flip FlipFlags, c Color, opacity float32) {
	a := clamp01(c.A * opacity)
	if a == 0 {
		return
	}
	toPixels := multiplyAffine(r.proj, m)
	uv := sourceCorners(src, flip)
	corners := [4][2]float32{{0, 0}, {w, 0}, {0, h}, {w, h}}

	cmd := renderCommand{
		z:       z,
		texture: tex.id,
		tex:     tex,
		prog:    prog,
		sampler: tex.sampler,
	}
	if prog != nil {
		cmd.shader = prog.id
	}
	for i := range cmd.quad {
		px, py := transformPoint(toPixels, corners[i][0], corners[i][1])
		cmd.quad[i] = Vertex{
			DstX: px, DstY: py,
			SrcX: uv[i][0], SrcY: uv[i][1],
			R: c.R * a, G: c.G * a, B: c.B * a, A: a,
		}
	}
	r.enqueue(cmd)
}

func (r *Renderer) enqueue(cmd renderCommand) {
	if r.needSegment {
		r.segments = append(r.segments, segment{
			start:    len(r.commands),
			end:      len(r.commands),
			target:   r.targetID(),
			viewport: r.viewport,
		})
		r.needSegment = false
	}
	cmd.seq = r.seq
	r.seq++
	r.commands = append(r.commands, cmd)
	r.segments[len(r.segments)-1].end = len(r.commands)
	if r.target != nil {
		r.target.markDirty()
	}
}

// --- Sorting ---

// commandLessOrEqual orders by z, then shader, then texture, then
// submission. Equal keys keep submission order.
func commandLessOrEqual(a, b *renderCommand) bool {
	if a.z != b.z {
		return a.z < b.z
	}
	if a.shader != b.shader {
		return a.shader < b.shader
	}
	if a.texture != b.texture {
		return a.texture < b.texture
	}
	return a.seq <= b.seq
}

// sortCommands sorts cmds in place with a bottom-up merge sort, using *buf
// as scratch space. No allocations once buf has reached its high-water mark.
func sortCommands(cmds []renderCommand, buf *[]renderCommand) {
	n := len(cmds)
	if n <= 1 {
		return
	}
	if cap(*buf) < n {
		*buf = make([]renderCommand, n)
	}
	*buf = (*buf)[:n]

	a, b := cmds, *buf
	swapped := false
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}
	if swapped {
		copy(cmds, *buf)
	}
}

func mergeRun(src, dst []renderCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(&src[i], &src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], src[i:mid])
	copy(dst[k:], src[j:hi])
}
