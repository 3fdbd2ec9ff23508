package aspen

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

type softTexture struct {
	desc    TextureDesc
	levels  [][]byte
	canvas  *image.RGBA // render targets draw here; levels are unused
	sampler SamplerState
}

// SoftwareDevice is a CPU Device. Textures keep their native byte layout,
// render targets and the window are premultiplied RGBA canvases, and quads
// are rasterised with golang.org/x/image/draw. Custom shaders are parsed but
// not executed; batches using them draw with the default pipeline.
//
// It backs the tests and headless tools and is always Ready until Lose is
// called.
type SoftwareDevice struct {
	window   *image.RGBA
	textures map[uint32]*softTexture
	shaders  map[uint32][]byte
	nextID   uint32
	lost     error

	drawCalls int
}

// NewSoftwareDevice creates a software device with a window of the given size.
func NewSoftwareDevice(width, height int) *SoftwareDevice {
	return &SoftwareDevice{
		window:   image.NewRGBA(image.Rect(0, 0, width, height)),
		textures: make(map[uint32]*softTexture),
		shaders:  make(map[uint32][]byte),
	}
}

// Name implements Device.
func (d *SoftwareDevice) Name() string { return "software" }

// Ready implements Device.
func (d *SoftwareDevice) Ready() error { return d.lost }

// Lose marks the device as having lost its context. Every later call fails.
func (d *SoftwareDevice) Lose() {
	d.lost = fmt.Errorf("%w: software device lost", ErrNoContext)
}

// Window returns the window canvas.
func (d *SoftwareDevice) Window() *image.RGBA { return d.window }

// ResizeWindow replaces the window canvas with a cleared one.
func (d *SoftwareDevice) ResizeWindow(width, height int) {
	d.window = image.NewRGBA(image.Rect(0, 0, width, height))
}

// DrawCalls returns the number of batches submitted since creation.
func (d *SoftwareDevice) DrawCalls() int { return d.drawCalls }

// TextureCount returns the number of live textures.
func (d *SoftwareDevice) TextureCount() int { return len(d.textures) }

func (d *SoftwareDevice) texture(id uint32) (*softTexture, error) {
	t, ok := d.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", ErrDestroyed, id)
	}
	return t, nil
}

// CreateTexture implements Device.
func (d *SoftwareDevice) CreateTexture(desc TextureDesc, data []byte) (uint32, error) {
	if d.lost != nil {
		return 0, d.lost
	}
	bpp := desc.Format.BytesPerPixel()
	if bpp == 0 {
		return 0, fmt.Errorf("%w: %d", ErrFormat, desc.Format)
	}
	size := desc.Width * desc.Height * bpp
	if data != nil && len(data) < size {
		return 0, fmt.Errorf("%w: %d bytes for %dx%d %s", ErrBufferTooSmall, len(data), desc.Width, desc.Height, desc.Format)
	}
	t := &softTexture{desc: desc}
	if desc.RenderTarget {
		t.canvas = image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
		if data != nil {
			if err := t.write(data); err != nil {
				return 0, err
			}
		}
	} else {
		level := make([]byte, size)
		copy(level, data)
		t.levels = [][]byte{level}
	}
	d.nextID++
	d.textures[d.nextID] = t
	return d.nextID, nil
}

func (t *softTexture) write(data []byte) error {
	src, err := toNRGBA(t.desc.Format, t.desc.Width, t.desc.Height, data)
	if err != nil {
		return err
	}
	draw.Draw(t.canvas, t.canvas.Bounds(), src, image.Point{}, draw.Src)
	return nil
}

// image returns a drawable view of level 0.
func (t *softTexture) image() (image.Image, error) {
	if t.canvas != nil {
		return t.canvas, nil
	}
	return toNRGBA(t.desc.Format, t.desc.Width, t.desc.Height, t.levels[0])
}

// DestroyTexture implements Device.
func (d *SoftwareDevice) DestroyTexture(id uint32) {
	delete(d.textures, id)
}

// WriteTexture implements Device.
func (d *SoftwareDevice) WriteTexture(id uint32, mip int, data []byte) error {
	if d.lost != nil {
		return d.lost
	}
	t, err := d.texture(id)
	if err != nil {
		return err
	}
	if t.canvas != nil {
		if mip != 0 {
			return fmt.Errorf("%w: %d", ErrMipLevel, mip)
		}
		return t.write(data)
	}
	if mip < 0 || mip >= len(t.levels) {
		return fmt.Errorf("%w: %d of %d", ErrMipLevel, mip, len(t.levels))
	}
	if len(data) < len(t.levels[mip]) {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferTooSmall, len(data), len(t.levels[mip]))
	}
	copy(t.levels[mip], data)
	return nil
}

// ReadTexture implements Device.
func (d *SoftwareDevice) ReadTexture(id uint32, mip int, dst []byte) error {
	if d.lost != nil {
		return d.lost
	}
	t, err := d.texture(id)
	if err != nil {
		return err
	}
	var src []byte
	if t.canvas != nil {
		if mip != 0 {
			return fmt.Errorf("%w: %d", ErrMipLevel, mip)
		}
		if src, err = fromImage(t.desc.Format, t.canvas); err != nil {
			return err
		}
	} else {
		if mip < 0 || mip >= len(t.levels) {
			return fmt.Errorf("%w: %d of %d", ErrMipLevel, mip, len(t.levels))
		}
		src = t.levels[mip]
	}
	if len(dst) < len(src) {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferTooSmall, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}

// GenerateMips implements Device. Each level is a bilinear downscale of the
// one above it.
func (d *SoftwareDevice) GenerateMips(id uint32) (int, error) {
	if d.lost != nil {
		return 0, d.lost
	}
	t, err := d.texture(id)
	if err != nil {
		return 0, err
	}
	if t.canvas != nil {
		return 1, nil
	}
	w, h, f := t.desc.Width, t.desc.Height, t.desc.Format
	n := mipCount(w, h)
	levels := [][]byte{t.levels[0]}
	prev, err := toNRGBA(f, w, h, t.levels[0])
	if err != nil {
		return 0, err
	}
	for level := 1; level < n; level++ {
		mw, mh := mipSize(w, h, level)
		next := image.NewNRGBA(image.Rect(0, 0, mw, mh))
		draw.ApproxBiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		b, err := fromImage(f, next)
		if err != nil {
			return 0, err
		}
		levels = append(levels, b)
		prev = next
	}
	t.levels = levels
	return n, nil
}

// SetSampler implements Device. Wrap modes have no effect in software.
func (d *SoftwareDevice) SetSampler(id uint32, s SamplerState) {
	if t, ok := d.textures[id]; ok {
		t.sampler = s
	}
}

// Resolve implements Device by copying the source canvas.
func (d *SoftwareDevice) Resolve(src, dst uint32) error {
	if d.lost != nil {
		return d.lost
	}
	s, err := d.texture(src)
	if err != nil {
		return err
	}
	t, err := d.texture(dst)
	if err != nil {
		return err
	}
	img, err := s.image()
	if err != nil {
		return err
	}
	if t.canvas != nil {
		draw.Draw(t.canvas, t.canvas.Bounds(), img, image.Point{}, draw.Src)
		return nil
	}
	b, err := fromImage(t.desc.Format, img)
	if err != nil {
		return err
	}
	t.levels = [][]byte{b}
	return nil
}

// CompileShader implements Device. The source is checked for uniform
// declarations and kept, but never executed.
func (d *SoftwareDevice) CompileShader(src []byte) (uint32, error) {
	if d.lost != nil {
		return 0, d.lost
	}
	if _, err := parseUniforms(src); err != nil {
		return 0, err
	}
	d.nextID++
	d.shaders[d.nextID] = append([]byte(nil), src...)
	return d.nextID, nil
}

// DestroyShader implements Device.
func (d *SoftwareDevice) DestroyShader(id uint32) {
	delete(d.shaders, id)
}

func (d *SoftwareDevice) canvas(target uint32) (*image.RGBA, error) {
	if target == 0 {
		return d.window, nil
	}
	t, err := d.texture(target)
	if err != nil {
		return nil, err
	}
	if t.canvas == nil {
		return nil, fmt.Errorf("aspen: texture %d is not a render target", target)
	}
	return t.canvas, nil
}

// Clear implements Device.
func (d *SoftwareDevice) Clear(target uint32, c Color) error {
	if d.lost != nil {
		return d.lost
	}
	dst, err := d.canvas(target)
	if err != nil {
		return err
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(premultipliedColor(c)), image.Point{}, draw.Src)
	return nil
}

// Submit implements Device. Every four vertices form one quad laid out
// top-left, top-right, bottom-left, bottom-right.
func (d *SoftwareDevice) Submit(p Pass) error {
	if d.lost != nil {
		return d.lost
	}
	dst, err := d.canvas(p.Target)
	if err != nil {
		return err
	}
	clip := image.Rect(
		int(p.Viewport.X), int(p.Viewport.Y),
		int(p.Viewport.Right()), int(p.Viewport.Bottom()),
	).Intersect(dst.Bounds())
	if clip.Empty() {
		return nil
	}
	view := dst.SubImage(clip).(*image.RGBA)

	for i := range p.Batches {
		b := &p.Batches[i]
		tex, err := d.texture(b.Texture)
		if err != nil {
			return err
		}
		src, err := tex.image()
		if err != nil {
			return err
		}
		var interp draw.Interpolator = draw.ApproxBiLinear
		if b.Sampler.Mag == FilterNearest {
			interp = draw.NearestNeighbor
		}
		for q := 0; q+3 < len(b.Vertices); q += 4 {
			drawQuad(view, src, b.Vertices[q:q+4], interp)
		}
		d.drawCalls++
	}
	return nil
}

// drawQuad maps the source parallelogram spanned by v[0], v[1], v[2] onto
// the destination parallelogram spanned by the same vertices.
func drawQuad(dst *image.RGBA, src image.Image, v []Vertex, interp draw.Interpolator) {
	srcAxes := [6]float32{
		v[1].SrcX - v[0].SrcX, v[1].SrcY - v[0].SrcY,
		v[2].SrcX - v[0].SrcX, v[2].SrcY - v[0].SrcY,
		v[0].SrcX, v[0].SrcY,
	}
	dstAxes := [6]float32{
		v[1].DstX - v[0].DstX, v[1].DstY - v[0].DstY,
		v[2].DstX - v[0].DstX, v[2].DstY - v[0].DstY,
		v[0].DstX, v[0].DstY,
	}
	m := multiplyAffine(dstAxes, invertAffine(srcAxes))

	sr := image.Rect(
		int(min(v[0].SrcX, v[3].SrcX)), int(min(v[0].SrcY, v[3].SrcY)),
		int(max(v[0].SrcX, v[3].SrcX)), int(max(v[0].SrcY, v[3].SrcY)),
	).Intersect(src.Bounds())
	if sr.Empty() {
		return
	}

	c := v[0]
	if c.R != 1 || c.G != 1 || c.B != 1 || c.A != 1 {
		src = tinted(src, sr, c)
	}

	s2d := f64.Aff3{
		float64(m[0]), float64(m[2]), float64(m[4]),
		float64(m[1]), float64(m[3]), float64(m[5]),
	}
	interp.Transform(dst, s2d, src, sr, draw.Over, nil)
}

// tinted returns the sr region of src multiplied by a premultiplied colour.
func tinted(src image.Image, sr image.Rectangle, c Vertex) *image.RGBA {
	out := image.NewRGBA(sr)
	draw.Draw(out, sr, src, sr.Min, draw.Src)
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = uint8(float32(out.Pix[i]) * c.R)
		out.Pix[i+1] = uint8(float32(out.Pix[i+1]) * c.G)
		out.Pix[i+2] = uint8(float32(out.Pix[i+2]) * c.B)
		out.Pix[i+3] = uint8(float32(out.Pix[i+3]) * c.A)
	}
	return out
}

// premultipliedColor converts a straight-alpha Color to color.RGBA.
func premultipliedColor(c Color) color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 0xff),
		G: uint8(clamp01(c.G*c.A) * 0xff),
		B: uint8(clamp01(c.B*c.A) * 0xff),
		A: uint8(clamp01(c.A) * 0xff),
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
