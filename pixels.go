package aspen

import (
	"fmt"
	"image"
	"image/color"
)

// toNRGBA expands native pixel bytes into a straight-alpha image.
func toNRGBA(f Format, w, h int, b []byte) (*image.NRGBA, error) {
	bpp := f.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %d", ErrFormat, f)
	}
	if len(b) < w*h*bpp {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %s", ErrBufferTooSmall, len(b), w, h, f)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if f == FormatRGBA {
		copy(img.Pix, b[:w*h*4])
		return img, nil
	}
	for i, j := 0, 0; i < w*h; i, j = i+1, j+bpp {
		p := img.Pix[i*4 : i*4+4]
		switch f {
		case FormatMonochrome:
			p[0], p[1], p[2], p[3] = b[j], b[j], b[j], 0xff
		case FormatMonochromeAlpha:
			p[0], p[1], p[2], p[3] = b[j], b[j], b[j], b[j+1]
		case FormatRGB:
			p[0], p[1], p[2], p[3] = b[j], b[j+1], b[j+2], 0xff
		}
	}
	return img, nil
}

// toPremultiplied expands native pixel bytes into premultiplied RGBA bytes,
// the layout ebiten's WritePixels expects.
func toPremultiplied(f Format, w, h int, b []byte) ([]byte, error) {
	img, err := toNRGBA(f, w, h, b)
	if err != nil {
		return nil, err
	}
	out := img.Pix
	for i := 0; i < len(out); i += 4 {
		a := uint32(out[i+3])
		out[i] = uint8(uint32(out[i]) * a / 0xff)
		out[i+1] = uint8(uint32(out[i+1]) * a / 0xff)
		out[i+2] = uint8(uint32(out[i+2]) * a / 0xff)
	}
	return out, nil
}

// fromImage packs any image into native bytes of format f. Monochrome
// formats keep the red channel, which is the luminance for grey sources.
func fromImage(f Format, img image.Image) ([]byte, error) {
	bpp := f.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %d", ErrFormat, f)
	}
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	out := make([]byte, w*h*bpp)
	j := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			switch f {
			case FormatMonochrome:
				out[j] = c.R
			case FormatMonochromeAlpha:
				out[j], out[j+1] = c.R, c.A
			case FormatRGB:
				out[j], out[j+1], out[j+2] = c.R, c.G, c.B
			case FormatRGBA:
				out[j], out[j+1], out[j+2], out[j+3] = c.R, c.G, c.B, c.A
			}
			j += bpp
		}
	}
	return out, nil
}

// fromPremultiplied packs premultiplied RGBA bytes, as returned by ebiten's
// ReadPixels, into native bytes of format f.
func fromPremultiplied(f Format, w, h int, rgba []byte) ([]byte, error) {
	img := &image.RGBA{Pix: rgba, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	return fromImage(f, img)
}

// imageFormat picks the tightest format that holds img without loss.
func imageFormat(img image.Image) Format {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return FormatMonochrome
	}
	if p, ok := img.(*image.Paletted); ok {
		for _, c := range p.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return FormatRGBA
			}
		}
		return FormatRGB
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return FormatRGB
	}
	return FormatRGBA
}
