package aspen

import (
	"fmt"
	"image"
)

// Texture is a device-resident image. Textures are created through a
// ResourceManager, either cached by path and shared, or owned by the caller.
//
// An id of 0 means the texture has no device storage yet; resolved render
// target textures start that way.
type Texture struct {
	rm      *ResourceManager
	handle  Handle
	id      uint32
	width   int
	height  int
	format  Format
	sampler SamplerState
	mips    int
	buffer  *PixelBuffer

	path  string // cache key, empty when not cached
	stale bool   // contents lag behind the render target they resolve
}

// ID returns the device texture id, 0 when unallocated.
func (t *Texture) ID() uint32 { return t.id }

// Handle returns the generation-checked handle sprites hold.
func (t *Texture) Handle() Handle { return t.handle }

// Width returns the width of mip level 0 in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the height of mip level 0 in pixels.
func (t *Texture) Height() int { return t.height }

// Size returns the texture dimensions.
func (t *Texture) Size() Size { return Size{W: t.width, H: t.height} }

// Format returns the pixel format.
func (t *Texture) Format() Format { return t.format }

// Path returns the cache key for cached textures, or "".
func (t *Texture) Path() string { return t.path }

// Sampler returns the wrap and filter state.
func (t *Texture) Sampler() SamplerState { return t.sampler }

// MipLevels returns the number of mip levels, at least 1.
func (t *Texture) MipLevels() int { return max(t.mips, 1) }

// Valid reports whether the texture is still owned by its manager.
func (t *Texture) Valid() bool {
	if t.rm == nil {
		return false
	}
	_, ok := t.rm.textures.get(t.handle)
	return ok
}

// Stale reports whether a resolved texture is out of date with respect to
// its render target. Ordinary textures are never stale.
func (t *Texture) Stale() bool { return t.stale }

func (t *Texture) checkLive() error {
	if !t.Valid() {
		return fmt.Errorf("%w: texture", ErrDestroyed)
	}
	return nil
}

// SetUVMode sets the wrap mode on each axis.
func (t *Texture) SetUVMode(s, u WrapMode) {
	t.sampler.WrapS, t.sampler.WrapT = s, u
	t.pushSampler()
}

// SetMagFilter sets the magnification filter.
func (t *Texture) SetMagFilter(f MagFilter) {
	t.sampler.Mag = f
	t.pushSampler()
}

func (t *Texture) pushSampler() {
	if t.id != 0 && t.Valid() {
		t.rm.dev.SetSampler(t.id, t.sampler)
	}
}

// UpdateMips regenerates the mip chain from level 0.
func (t *Texture) UpdateMips() error {
	if err := t.checkLive(); err != nil {
		return err
	}
	if t.id == 0 {
		return nil
	}
	n, err := t.rm.dev.GenerateMips(t.id)
	if err != nil {
		return fmt.Errorf("aspen: generate mips: %w", err)
	}
	t.mips = n
	return nil
}

// SetFormat converts the texture to another pixel format, keeping its
// contents. Any host buffer is discarded.
func (t *Texture) SetFormat(f Format) error {
	if err := t.checkLive(); err != nil {
		return err
	}
	if !f.Valid() {
		return fmt.Errorf("%w: %d", ErrFormat, f)
	}
	if f == t.format {
		return nil
	}
	if t.id == 0 {
		t.format = f
		t.buffer = nil
		return nil
	}
	old := make([]byte, t.width*t.height*t.format.BytesPerPixel())
	if err := t.rm.readTexture(t.id, 0, old); err != nil {
		return err
	}
	img, err := toNRGBA(t.format, t.width, t.height, old)
	if err != nil {
		return err
	}
	data, err := fromImage(f, img)
	if err != nil {
		return err
	}
	id, err := t.rm.dev.CreateTexture(TextureDesc{Width: t.width, Height: t.height, Format: f}, data)
	if err != nil {
		return fmt.Errorf("aspen: recreate texture: %w", err)
	}
	t.rm.dev.DestroyTexture(t.id)
	t.id = id
	t.format = f
	t.mips = 1
	t.rm.cancelTransfer(t.buffer)
	t.buffer = nil
	t.pushSampler()
	return nil
}

// Buffer returns the host mirror, creating it on first use from the
// device's current contents.
func (t *Texture) Buffer() (*PixelBuffer, error) {
	if t.buffer != nil {
		return t.buffer, nil
	}
	if err := t.checkLive(); err != nil {
		return nil, err
	}
	b := &PixelBuffer{tex: t, width: t.width, height: t.height, format: t.format}
	b.data = make([]byte, b.Stride()*b.height)
	if t.id != 0 {
		if err := t.rm.readTexture(t.id, 0, b.data); err != nil {
			return nil, err
		}
	}
	t.buffer = b
	return b, nil
}

// Image returns the current device contents of level 0 as an image.
func (t *Texture) Image() (image.Image, error) {
	if err := t.checkLive(); err != nil {
		return nil, err
	}
	data := make([]byte, t.width*t.height*t.format.BytesPerPixel())
	if t.id != 0 {
		if err := t.rm.readTexture(t.id, 0, data); err != nil {
			return nil, err
		}
	}
	return toNRGBA(t.format, t.width, t.height, data)
}

// Destroy releases the device texture regardless of cache references.
// Handles to it become stale.
func (t *Texture) Destroy() {
	if t.rm != nil {
		t.rm.destroyTexture(t)
	}
}

// allocate gives an unallocated texture device storage.
func (t *Texture) allocate(renderTarget bool) error {
	if t.id != 0 {
		return nil
	}
	id, err := t.rm.dev.CreateTexture(TextureDesc{
		Width: t.width, Height: t.height, Format: t.format, RenderTarget: renderTarget,
	}, nil)
	if err != nil {
		return fmt.Errorf("aspen: allocate texture: %w", err)
	}
	t.id = id
	t.mips = 1
	t.pushSampler()
	return nil
}
