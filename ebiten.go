package aspen

import (
	"fmt"
	"image"
	"regexp"

	"github.com/hajimehoshi/ebiten/v2"
)

type ebitenTexture struct {
	img     *ebiten.Image
	desc    TextureDesc
	sampler SamplerState
}

// EbitenDevice drives an ebiten.Image per texture. The host installs the
// frame's screen image with SetScreen before drawing to target 0.
//
// Formats other than RGBA are expanded at the boundary. Ebiten manages
// mipmaps itself, so textures report a single level. Mirrored wrapping is
// sampled as repeat. Ebiten has no clamp-to-edge address mode, so clamped
// wrapping samples transparent black past the edge (AddressClampToZero).
type EbitenDevice struct {
	screen   *ebiten.Image
	textures map[uint32]*ebitenTexture
	shaders  map[uint32]*ebiten.Shader
	nextID   uint32
	running  bool

	scratchVerts []ebiten.Vertex
}

// NewEbitenDevice creates a device. It is not Ready until Start is called
// from inside ebiten's game loop.
func NewEbitenDevice() *EbitenDevice {
	return &EbitenDevice{
		textures: make(map[uint32]*ebitenTexture),
		shaders:  make(map[uint32]*ebiten.Shader),
	}
}

// Name implements Device.
func (d *EbitenDevice) Name() string { return "ebiten" }

// Start marks the graphics context as live.
func (d *EbitenDevice) Start() { d.running = true }

// Stop marks the graphics context as gone.
func (d *EbitenDevice) Stop() {
	d.running = false
	d.screen = nil
}

// SetScreen installs the image that target 0 renders to.
func (d *EbitenDevice) SetScreen(screen *ebiten.Image) { d.screen = screen }

// Ready implements Device.
func (d *EbitenDevice) Ready() error {
	if !d.running {
		return fmt.Errorf("%w: ebiten game loop is not running", ErrNoContext)
	}
	return nil
}

func (d *EbitenDevice) texture(id uint32) (*ebitenTexture, error) {
	t, ok := d.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", ErrDestroyed, id)
	}
	return t, nil
}

// CreateTexture implements Device.
func (d *EbitenDevice) CreateTexture(desc TextureDesc, data []byte) (uint32, error) {
	if !desc.Format.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrFormat, desc.Format)
	}
	img := ebiten.NewImage(desc.Width, desc.Height)
	if data != nil {
		pix, err := toPremultiplied(desc.Format, desc.Width, desc.Height, data)
		if err != nil {
			img.Deallocate()
			return 0, err
		}
		img.WritePixels(pix)
	}
	d.nextID++
	d.textures[d.nextID] = &ebitenTexture{img: img, desc: desc}
	return d.nextID, nil
}

// DestroyTexture implements Device.
func (d *EbitenDevice) DestroyTexture(id uint32) {
	if t, ok := d.textures[id]; ok {
		t.img.Deallocate()
		delete(d.textures, id)
	}
}

// WriteTexture implements Device.
func (d *EbitenDevice) WriteTexture(id uint32, mip int, data []byte) error {
	t, err := d.texture(id)
	if err != nil {
		return err
	}
	if mip != 0 {
		return fmt.Errorf("%w: %d", ErrMipLevel, mip)
	}
	pix, err := toPremultiplied(t.desc.Format, t.desc.Width, t.desc.Height, data)
	if err != nil {
		return err
	}
	t.img.WritePixels(pix)
	return nil
}

// ReadTexture implements Device.
func (d *EbitenDevice) ReadTexture(id uint32, mip int, dst []byte) error {
	if err := d.Ready(); err != nil {
		return err
	}
	t, err := d.texture(id)
	if err != nil {
		return err
	}
	if mip != 0 {
		return fmt.Errorf("%w: %d", ErrMipLevel, mip)
	}
	w, h := t.desc.Width, t.desc.Height
	rgba := make([]byte, w*h*4)
	t.img.ReadPixels(rgba)
	b, err := fromPremultiplied(t.desc.Format, w, h, rgba)
	if err != nil {
		return err
	}
	if len(dst) < len(b) {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferTooSmall, len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// GenerateMips implements Device. Ebiten builds mipmaps on demand.
func (d *EbitenDevice) GenerateMips(id uint32) (int, error) {
	if _, err := d.texture(id); err != nil {
		return 0, err
	}
	return 1, nil
}

// SetSampler implements Device.
func (d *EbitenDevice) SetSampler(id uint32, s SamplerState) {
	if t, ok := d.textures[id]; ok {
		t.sampler = s
	}
}

// Resolve implements Device. Ebiten resolves antialiasing per draw call, so
// a copy is all that remains.
func (d *EbitenDevice) Resolve(src, dst uint32) error {
	if err := d.Ready(); err != nil {
		return err
	}
	s, err := d.texture(src)
	if err != nil {
		return err
	}
	t, err := d.texture(dst)
	if err != nil {
		return err
	}
	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy}
	t.img.DrawImage(s.img, op)
	return nil
}

var boolUniform = regexp.MustCompile(`(?m)^(var[ \t]+[\w \t,]+?[ \t]+)(bool|bvec2)([ \t]*)$`)

// kageSource rewrites boolean uniform declarations to integers, which is the
// form Kage accepts. The uniform store still sees the original types.
func kageSource(src []byte) []byte {
	return boolUniform.ReplaceAllFunc(src, func(m []byte) []byte {
		sub := boolUniform.FindSubmatch(m)
		typ := "int"
		if string(sub[2]) == "bvec2" {
			typ = "ivec2"
		}
		out := append([]byte(nil), sub[1]...)
		out = append(out, typ...)
		return append(out, sub[3]...)
	})
}

// CompileShader implements Device.
func (d *EbitenDevice) CompileShader(src []byte) (uint32, error) {
	s, err := ebiten.NewShader(kageSource(src))
	if err != nil {
		return 0, fmt.Errorf("aspen: compile shader: %w", err)
	}
	d.nextID++
	d.shaders[d.nextID] = s
	return d.nextID, nil
}

// DestroyShader implements Device.
func (d *EbitenDevice) DestroyShader(id uint32) {
	if s, ok := d.shaders[id]; ok {
		s.Deallocate()
		delete(d.shaders, id)
	}
}

func (d *EbitenDevice) target(id uint32) (*ebiten.Image, error) {
	if id == 0 {
		if d.screen == nil {
			return nil, fmt.Errorf("%w: no screen for this frame", ErrNoContext)
		}
		return d.screen, nil
	}
	t, err := d.texture(id)
	if err != nil {
		return nil, err
	}
	return t.img, nil
}

// Clear implements Device.
func (d *EbitenDevice) Clear(target uint32, c Color) error {
	if err := d.Ready(); err != nil {
		return err
	}
	img, err := d.target(target)
	if err != nil {
		return err
	}
	img.Fill(premultipliedColor(c))
	return nil
}

// Submit implements Device.
func (d *EbitenDevice) Submit(p Pass) error {
	if err := d.Ready(); err != nil {
		return err
	}
	dst, err := d.target(p.Target)
	if err != nil {
		return err
	}
	antiAlias := false
	if p.Target != 0 {
		antiAlias = d.textures[p.Target].desc.Samples > 1
	}
	vp := image.Rect(
		int(p.Viewport.X), int(p.Viewport.Y),
		int(p.Viewport.Right()), int(p.Viewport.Bottom()),
	)
	view, ok := dst.SubImage(vp).(*ebiten.Image)
	if !ok || view.Bounds().Empty() {
		return nil
	}

	for i := range p.Batches {
		b := &p.Batches[i]
		src, err := d.texture(b.Texture)
		if err != nil {
			return err
		}
		verts := d.vertices(b.Vertices)
		if b.Shader != 0 {
			sh, ok := d.shaders[b.Shader]
			if !ok {
				return fmt.Errorf("%w: shader %d", ErrDestroyed, b.Shader)
			}
			op := &ebiten.DrawTrianglesShaderOptions{AntiAlias: antiAlias}
			op.Images[0] = src.img
			op.Uniforms = make(map[string]any, len(b.Uniforms))
			for name, v := range b.Uniforms {
				op.Uniforms[name] = shaderArg(v)
			}
			view.DrawTrianglesShader32(verts, b.Indices, sh, op)
			continue
		}
		op := &ebiten.DrawTrianglesOptions{
			ColorScaleMode: ebiten.ColorScaleModePremultipliedAlpha,
			Filter:         ebitenFilter(b.Sampler.Mag),
			Address:        ebitenAddress(b.Sampler),
			AntiAlias:      antiAlias,
		}
		view.DrawTriangles32(verts, b.Indices, src.img, op)
	}
	return nil
}

func (d *EbitenDevice) vertices(in []Vertex) []ebiten.Vertex {
	d.scratchVerts = d.scratchVerts[:0]
	for _, v := range in {
		d.scratchVerts = append(d.scratchVerts, ebiten.Vertex{
			DstX: v.DstX, DstY: v.DstY,
			SrcX: v.SrcX, SrcY: v.SrcY,
			ColorR: v.R, ColorG: v.G, ColorB: v.B, ColorA: v.A,
		})
	}
	return d.scratchVerts
}

func ebitenFilter(f MagFilter) ebiten.Filter {
	if f == FilterNearest {
		return ebiten.FilterNearest
	}
	return ebiten.FilterLinear
}

func ebitenAddress(s SamplerState) ebiten.Address {
	if s.WrapS == WrapClamp && s.WrapT == WrapClamp {
		return ebiten.AddressClampToZero
	}
	return ebiten.AddressRepeat
}
