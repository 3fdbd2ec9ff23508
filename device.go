package aspen

// Vertex is one corner of a batched triangle. Positions are target pixels,
// texture coordinates are source texels, and the colour is premultiplied.
type Vertex struct {
	DstX, DstY float32
	SrcX, SrcY float32
	R, G, B, A float32
}

// TextureDesc describes a texture to allocate on a device.
type TextureDesc struct {
	Width, Height int
	Format        Format
	// Samples is the MSAA sample count. Values below 2 mean single-sampled.
	Samples int
	// RenderTarget marks textures that will be drawn into.
	RenderTarget bool
}

// Batch is a run of triangles sharing one texture, shader and sampler.
type Batch struct {
	Vertices []Vertex
	Indices  []uint32
	Texture  uint32
	Shader   uint32
	Uniforms map[string]UniformValue
	Sampler  SamplerState
}

// Pass is an ordered list of batches drawn into one target through one
// viewport. Target 0 is the window.
type Pass struct {
	Target   uint32
	Viewport Viewport
	Batches  []Batch
}

// Device is the graphics backend the renderer drives. Every method must be
// called from the goroutine that owns the graphics context. Texture and
// shader ids are never 0; 0 means "none" (or, as a target, the window).
type Device interface {
	// Name identifies the backend in logs.
	Name() string
	// Ready returns ErrNoContext, possibly wrapped, when the device can no
	// longer accept work.
	Ready() error

	CreateTexture(desc TextureDesc, data []byte) (uint32, error)
	DestroyTexture(id uint32)
	// WriteTexture replaces mip level mip with data in the texture's format.
	WriteTexture(id uint32, mip int, data []byte) error
	// ReadTexture copies mip level mip into dst, which must be large enough.
	ReadTexture(id uint32, mip int, dst []byte) error
	// GenerateMips rebuilds the mip chain from level 0.
	GenerateMips(id uint32) (levels int, err error)
	SetSampler(id uint32, s SamplerState)
	// Resolve copies the multisampled src into the single-sampled dst.
	Resolve(src, dst uint32) error

	CompileShader(src []byte) (uint32, error)
	DestroyShader(id uint32)

	// Clear fills a target, or the window when target is 0.
	Clear(target uint32, c Color) error
	Submit(p Pass) error
}

// WindowResizer is implemented by devices that own their window surface and
// must reallocate it when the window size changes.
type WindowResizer interface {
	ResizeWindow(width, height int)
}

// mipSize returns the dimensions of the given mip level.
func mipSize(w, h, level int) (int, int) {
	return max(1, w>>level), max(1, h>>level)
}

// mipCount returns the number of levels in a full chain down to 1×1.
func mipCount(w, h int) int {
	n := 1
	for w > 1 || h > 1 {
		w, h = max(1, w>>1), max(1, h>>1)
		n++
	}
	return n
}
