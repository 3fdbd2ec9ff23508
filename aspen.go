package aspen

import "fmt"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at batch submission time.
type Color struct {
	R, G, B, A float32
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is opaque black, the default clear colour.
var ColorBlack = Color{0, 0, 0, 1}

// Point2D is a position in world space.
type Point2D struct {
	X, Y float32
}

// Size is an integer width and height pair, used for resolutions.
type Size struct {
	W int `yaml:"width"`
	H int `yaml:"height"`
}

// AspectRatio returns W/H, or 0 when H is zero.
func (s Size) AspectRatio() float32 {
	if s.H == 0 {
		return 0
	}
	return float32(s.W) / float32(s.H)
}

// Format is the pixel layout of a texture.
type Format uint8

const (
	FormatMonochrome      Format = iota + 1 // one luminance byte
	FormatMonochromeAlpha                   // luminance and alpha
	FormatRGB                               // red, green, blue
	FormatRGBA                              // red, green, blue, alpha
)

// BytesPerPixel returns the number of bytes one pixel occupies, or 0 for an
// unknown format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatMonochrome:
		return 1
	case FormatMonochromeAlpha:
		return 2
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	default:
		return 0
	}
}

// Valid reports whether f is one of the four supported formats.
func (f Format) Valid() bool {
	return f.BytesPerPixel() != 0
}

func (f Format) String() string {
	switch f {
	case FormatMonochrome:
		return "MONOCHROME"
	case FormatMonochromeAlpha:
		return "MONOCHROME_ALPHA"
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// WrapMode controls how UVs outside [0, 1] are sampled.
type WrapMode uint8

const (
	WrapClamp    WrapMode = iota // clamp to the edge
	WrapRepeat                   // tile the texture
	WrapMirrored                 // tile, mirroring every other repeat
)

// MagFilter controls sampling when a texture is drawn larger than its size.
type MagFilter uint8

const (
	FilterLinear  MagFilter = iota // bilinear interpolation
	FilterNearest                  // nearest neighbour, keeps pixel art crisp
)

// SamplerState is the wrap and filter state attached to a texture.
type SamplerState struct {
	WrapS, WrapT WrapMode
	Mag          MagFilter
}

// FlipFlags mirror the UVs of a sprite when it is drawn.
type FlipFlags uint8

const (
	FlipNone FlipFlags = 0
	FlipX    FlipFlags = 1 << 0 // mirror horizontally
	FlipY    FlipFlags = 1 << 1 // mirror vertically
	FlipXY   FlipFlags = 1 << 2 // swap the axes (diagonal flip)
	FlipBoth           = FlipX | FlipY
)

// AttachMode is a bitmask selecting which sprite fields survive Attach.
// The zero value resets everything.
type AttachMode uint8

const (
	AttachDefault AttachMode = 0
	KeepDims      AttachMode = 1 << 0 // keep width and height
	KeepUVs       AttachMode = 1 << 1 // keep the source rectangle
	KeepTint      AttachMode = 1 << 2 // keep the colour
	KeepRotation  AttachMode = 1 << 3 // keep the rotation
	GenerateMips  AttachMode = 1 << 4 // rebuild the texture's mip chain
)

// Has reports whether every bit of flag is set in m.
func (m AttachMode) Has(flag AttachMode) bool {
	return flag != 0 && m&flag == flag
}

// Source rectangle indices, matching SrcRect ordering.
const (
	SrcStartX = iota
	SrcStartY
	SrcLengthX
	SrcLengthY
)
