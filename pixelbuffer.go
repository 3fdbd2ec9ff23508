package aspen

import (
	"fmt"
	"image/png"
	"io"
)

// transfer is a device read captured at request time and waiting to be
// copied into its buffer.
type transfer struct {
	mip           int
	width, height int
	data          []byte
}

// PixelBuffer is the host-side mirror of one texture's pixels, laid out row
// major with Stride bytes per row.
//
// Download marks the buffer stale at once. The bytes land when the transfer
// completes: at the next Renderer.BeginFrame, on Renderer.Sync, or on Wait.
// Upload never changes the stale flag.
type PixelBuffer struct {
	tex           *Texture
	width, height int
	format        Format
	mip           int
	data          []byte
	stale         bool
	pending       *transfer
}

// Width returns the width of the mirrored mip level.
func (b *PixelBuffer) Width() int { return b.width }

// Height returns the height of the mirrored mip level.
func (b *PixelBuffer) Height() int { return b.height }

// Format returns the pixel format.
func (b *PixelBuffer) Format() Format { return b.format }

// Mip returns the mip level currently mirrored.
func (b *PixelBuffer) Mip() int { return b.mip }

// Stride returns the number of bytes per row.
func (b *PixelBuffer) Stride() int { return b.width * b.format.BytesPerPixel() }

// Stale reports whether a download is still in flight.
func (b *PixelBuffer) Stale() bool { return b.stale }

// Data returns the raw bytes. Writes through the slice are seen by the next
// Upload.
func (b *PixelBuffer) Data() []byte { return b.data }

func (b *PixelBuffer) offset(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0, fmt.Errorf("%w: pixel (%d, %d) outside %dx%d", ErrIndex, x, y, b.width, b.height)
	}
	return y*b.Stride() + x*b.format.BytesPerPixel(), nil
}

// At returns the bytes of one pixel. The slice aliases the buffer.
func (b *PixelBuffer) At(x, y int) ([]byte, error) {
	off, err := b.offset(x, y)
	if err != nil {
		return nil, err
	}
	return b.data[off : off+b.format.BytesPerPixel() : off+b.format.BytesPerPixel()], nil
}

// Set writes one pixel. px must hold exactly one pixel's bytes.
func (b *PixelBuffer) Set(x, y int, px []byte) error {
	bpp := b.format.BytesPerPixel()
	if len(px) != bpp {
		return lengthError("pixel", bpp, len(px))
	}
	off, err := b.offset(x, y)
	if err != nil {
		return err
	}
	copy(b.data[off:off+bpp], px)
	return nil
}

// Row returns row y. The slice aliases the buffer.
func (b *PixelBuffer) Row(y int) ([]byte, error) {
	if y < 0 || y >= b.height {
		return nil, fmt.Errorf("%w: row %d outside height %d", ErrIndex, y, b.height)
	}
	s := b.Stride()
	return b.data[y*s : (y+1)*s : (y+1)*s], nil
}

func (b *PixelBuffer) checkMip(mip int) error {
	if mip < 0 || mip >= b.tex.MipLevels() {
		return fmt.Errorf("%w: %d of %d", ErrMipLevel, mip, b.tex.MipLevels())
	}
	return nil
}

// Download requests the device contents of mip level mip. The buffer is
// stale until the transfer completes. A second Download replaces a pending
// one.
func (b *PixelBuffer) Download(mip int) error {
	if err := b.tex.checkLive(); err != nil {
		return err
	}
	if err := b.checkMip(mip); err != nil {
		return err
	}
	w, h := mipSize(b.tex.width, b.tex.height, mip)
	tr := &transfer{mip: mip, width: w, height: h, data: make([]byte, w*h*b.format.BytesPerPixel())}
	if b.tex.id != 0 {
		if err := b.tex.rm.readTexture(b.tex.id, mip, tr.data); err != nil {
			return err
		}
	}
	b.stale = true
	b.tex.rm.queueTransfer(b, tr)
	return nil
}

// Wait completes a pending download, if any.
func (b *PixelBuffer) Wait() {
	if b.pending != nil {
		b.tex.rm.cancelTransfer(b)
		b.complete()
	}
}

// complete copies the pending transfer into the buffer.
func (b *PixelBuffer) complete() {
	tr := b.pending
	if tr == nil {
		return
	}
	b.pending = nil
	b.mip = tr.mip
	b.width, b.height = tr.width, tr.height
	b.data = tr.data
	b.stale = false
	Logger().Debug("aspen: download complete", "texture", b.tex.id, "mip", tr.mip, "bytes", len(tr.data))
}

// Upload writes the buffer to mip level mip.
func (b *PixelBuffer) Upload(mip int) error {
	return b.upload(b.data, mip)
}

// UploadBytes copies data into the buffer and writes it to mip level mip.
// data must hold at least one full level.
func (b *PixelBuffer) UploadBytes(data []byte, mip int) error {
	if err := b.checkMip(mip); err != nil {
		return err
	}
	w, h := mipSize(b.tex.width, b.tex.height, mip)
	size := w * h * b.format.BytesPerPixel()
	if len(data) < size {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferTooSmall, len(data), size)
	}
	if len(b.data) != size {
		b.data = make([]byte, size)
	}
	b.width, b.height, b.mip = w, h, mip
	copy(b.data, data[:size])
	return b.upload(b.data, mip)
}

func (b *PixelBuffer) upload(data []byte, mip int) error {
	if err := b.tex.checkLive(); err != nil {
		return err
	}
	if err := b.checkMip(mip); err != nil {
		return err
	}
	w, h := mipSize(b.tex.width, b.tex.height, mip)
	size := w * h * b.format.BytesPerPixel()
	if len(data) < size {
		return fmt.Errorf("%w: %d bytes, need %d", ErrBufferTooSmall, len(data), size)
	}
	if b.tex.id == 0 {
		if err := b.tex.allocate(false); err != nil {
			return err
		}
	}
	if err := b.tex.rm.dev.WriteTexture(b.tex.id, mip, data[:size]); err != nil {
		return fmt.Errorf("aspen: upload: %w", err)
	}
	return nil
}

// WritePNG encodes the buffer as a PNG. Monochrome formats are expanded to
// grey.
func (b *PixelBuffer) WritePNG(w io.Writer) error {
	img, err := toNRGBA(b.format, b.width, b.height, b.data)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("aspen: encode png: %w", err)
	}
	return nil
}
