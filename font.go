package aspen

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Font supplies glyph quads and metrics for Text. Positions are in pixels at
// scale 1 with Y growing downward from the baseline.
type Font interface {
	// Texture is the glyph atlas.
	Texture() *Texture
	// Glyph looks up one rune.
	Glyph(r rune) (Glyph, bool)
	// LineHeight is the distance between baselines.
	LineHeight() float32
	// Ascender is the height above the baseline.
	Ascender() float32
	// PxWide is the width of the widest line of s.
	PxWide(s string, scale float32) float32
	// PxHeight is the height from the first line's top to the last line's
	// baseline.
	PxHeight(s string, scale float32) float32
}

// Glyph places one rune relative to the pen.
type Glyph struct {
	// Src is the atlas rectangle {x, y, w, h} in texels.
	Src [4]float32
	// Offset moves the quad from the pen; negative Y is above the baseline.
	Offset Point2D
	// W and H are the quad size.
	W, H float32
	// Advance moves the pen after drawing.
	Advance float32
}

// AtlasMetrics describes a pre-generated glyph atlas. Values other than
// Size are in em units, as written by msdf-atlas-gen.
type AtlasMetrics struct {
	ID         string  `yaml:"id"`
	Ascender   float32 `yaml:"ascender"`
	Descender  float32 `yaml:"descender"`
	EmSize     float32 `yaml:"em_size"`
	LineHeight float32 `yaml:"line_height"`
	// Range is the distance field range in pixels.
	Range float32 `yaml:"range"`
	// Size is the pixel size of one em in the atlas.
	Size float32 `yaml:"size"`
}

// atlasFont is the one Font implementation. Every loader builds one.
type atlasFont struct {
	tex        *Texture
	glyphs     map[rune]Glyph
	kernings   map[[2]rune]float32
	lineHeight float32
	ascender   float32
	rangePx    float32
}

func (f *atlasFont) Texture() *Texture   { return f.tex }
func (f *atlasFont) LineHeight() float32 { return f.lineHeight }
func (f *atlasFont) Ascender() float32   { return f.ascender }

func (f *atlasFont) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

func (f *atlasFont) kern(a, b rune) float32 {
	if f.kernings == nil {
		return 0
	}
	return f.kernings[[2]rune{a, b}]
}

// PxWide implements Font.
func (f *atlasFont) PxWide(s string, scale float32) float32 {
	var widest, pen float32
	var prev rune
	hasPrev := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == '\n' {
			widest = max(widest, pen)
			pen = 0
			hasPrev = false
			continue
		}
		g, ok := f.glyphs[r]
		if !ok {
			hasPrev = false
			continue
		}
		if hasPrev {
			pen += f.kern(prev, r)
		}
		pen += g.Advance
		prev, hasPrev = r, true
	}
	return max(widest, pen) * scale
}

// PxHeight implements Font.
func (f *atlasFont) PxHeight(s string, scale float32) float32 {
	if s == "" {
		return 0
	}
	lines := strings.Count(s, "\n")
	return (f.ascender + float32(lines)*f.lineHeight) * scale
}

// glyphRange lists the runes rasterised from a TrueType font: printable
// ASCII and Latin-1.
func glyphRange() []rune {
	var out []rune
	for r := rune(32); r < 127; r++ {
		out = append(out, r)
	}
	for r := rune(160); r < 256; r++ {
		out = append(out, r)
	}
	return out
}

type rasterGlyph struct {
	r       rune
	mask    image.Image
	maskp   image.Point
	bounds  image.Rectangle
	advance float32
}

// rasteriseFont renders a TrueType or OpenType font into a glyph atlas.
// padding separates glyphs so filtering never bleeds between them.
func rasteriseFont(rm *ResourceManager, ttf []byte, size float32, padding int) (*atlasFont, error) {
	otf, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("aspen: parse font: %w", err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("aspen: open font face: %w", err)
	}
	defer face.Close()

	var glyphs []rasterGlyph
	area := 0
	for _, r := range glyphRange() {
		dr, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		glyphs = append(glyphs, rasterGlyph{r: r, mask: mask, maskp: maskp, bounds: dr, advance: fixed26ToFloat(adv)})
		area += (dr.Dx() + padding) * (dr.Dy() + padding)
	}

	// Shelf packing into a square-ish power of two atlas.
	width := 64
	for width*width < area*2 {
		width *= 2
	}
	x, y, shelf := padding, padding, 0
	placed := make([]image.Point, len(glyphs))
	for i, g := range glyphs {
		w, h := g.bounds.Dx(), g.bounds.Dy()
		if x+w+padding > width {
			x = padding
			y += shelf + padding
			shelf = 0
		}
		placed[i] = image.Pt(x, y)
		x += w + padding
		shelf = max(shelf, h)
	}
	height := 1
	for height < y+shelf+padding {
		height *= 2
	}

	alpha := image.NewAlpha(image.Rect(0, 0, width, height))
	f := &atlasFont{glyphs: make(map[rune]Glyph, len(glyphs)), rangePx: float32(padding)}
	for i, g := range glyphs {
		p := placed[i]
		dst := image.Rectangle{Min: p, Max: p.Add(g.bounds.Size())}
		draw.Draw(alpha, dst, g.mask, g.maskp, draw.Src)
		f.glyphs[g.r] = Glyph{
			Src:     [4]float32{float32(p.X), float32(p.Y), float32(g.bounds.Dx()), float32(g.bounds.Dy())},
			Offset:  Point2D{X: float32(g.bounds.Min.X), Y: float32(g.bounds.Min.Y)},
			W:       float32(g.bounds.Dx()),
			H:       float32(g.bounds.Dy()),
			Advance: g.advance,
		}
	}
	m := face.Metrics()
	f.lineHeight = fixed26ToFloat(m.Height)
	f.ascender = fixed26ToFloat(m.Ascent)

	data := make([]byte, width*height*2)
	for i, a := range alpha.Pix {
		data[i*2], data[i*2+1] = 0xff, a
	}
	tex, err := rm.CreateTexture(width, height, FormatMonochromeAlpha, data)
	if err != nil {
		return nil, err
	}
	f.tex = tex
	return f, nil
}

func fixed26ToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

// defaultFontSize is the pixel size of the built-in font.
const defaultFontSize = 24

func loadDefaultFont(rm *ResourceManager) (*atlasFont, error) {
	return rasteriseFont(rm, goregular.TTF, defaultFontSize, 2)
}

// parseAtlasCSV reads msdf-atlas-gen glyph rows:
//
//	unicode,advance,planeLeft,planeBottom,planeRight,planeTop,atlasLeft,atlasBottom,atlasRight,atlasTop
//
// Plane bounds are em units with Y up; atlas bounds are texels with the
// origin at the bottom left of an atlas atlasH texels tall.
func parseAtlasCSV(r io.Reader, m AtlasMetrics, atlasH int) (*atlasFont, error) {
	scale := m.Size
	if m.EmSize > 0 {
		scale = m.Size / m.EmSize
	}
	f := &atlasFont{
		glyphs:     make(map[rune]Glyph),
		lineHeight: m.LineHeight * scale,
		ascender:   m.Ascender * scale,
		rangePx:    m.Range,
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 10
	cr.TrimLeadingSpace = true
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("aspen: font atlas csv: %w", err)
		}
		var v [10]float64
		for i, s := range rec {
			if v[i], err = strconv.ParseFloat(s, 64); err != nil {
				if line == 1 && i == 0 {
					break
				}
				return nil, fmt.Errorf("aspen: font atlas csv line %d: %w", line, err)
			}
		}
		if err != nil {
			continue // header row
		}
		pl, pb, pr, pt := float32(v[2]), float32(v[3]), float32(v[4]), float32(v[5])
		al, ab, ar, at := float32(v[6]), float32(v[7]), float32(v[8]), float32(v[9])
		f.glyphs[rune(v[0])] = Glyph{
			Src:     [4]float32{al, float32(atlasH) - at, ar - al, at - ab},
			Offset:  Point2D{X: pl * scale, Y: -pt * scale},
			W:       (pr - pl) * scale,
			H:       (pt - pb) * scale,
			Advance: float32(v[1]) * scale,
		}
	}
	if len(f.glyphs) == 0 {
		return nil, fmt.Errorf("aspen: font atlas csv has no glyphs")
	}
	return f, nil
}

// parseBMFont reads AngelCode BMFont text descriptors. Only page 0 is used.
func parseBMFont(data []byte) (*atlasFont, error) {
	f := &atlasFont{glyphs: make(map[rune]Glyph)}
	var base float32
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tag, rest := splitTag(line)
		fields := parseFields(rest)

		switch tag {
		case "common":
			f.lineHeight = fieldFloat(fields, "lineHeight")
			base = fieldFloat(fields, "base")
		case "char":
			if fieldFloat(fields, "page") != 0 {
				continue
			}
			w, h := fieldFloat(fields, "width"), fieldFloat(fields, "height")
			f.glyphs[rune(fieldFloat(fields, "id"))] = Glyph{
				Src:     [4]float32{fieldFloat(fields, "x"), fieldFloat(fields, "y"), w, h},
				Offset:  Point2D{X: fieldFloat(fields, "xoffset"), Y: fieldFloat(fields, "yoffset") - base},
				W:       w,
				H:       h,
				Advance: fieldFloat(fields, "xadvance"),
			}
		case "kerning":
			if f.kernings == nil {
				f.kernings = make(map[[2]rune]float32)
			}
			pair := [2]rune{rune(fieldFloat(fields, "first")), rune(fieldFloat(fields, "second"))}
			f.kernings[pair] = fieldFloat(fields, "amount")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("aspen: error reading .fnt data: %w", err)
	}
	if f.lineHeight == 0 {
		return nil, fmt.Errorf("aspen: .fnt data missing common lineHeight")
	}
	if len(f.glyphs) == 0 {
		return nil, fmt.Errorf("aspen: .fnt data has no char definitions")
	}
	f.ascender = base
	return f, nil
}

// splitTag splits a BMFont line into its tag and the rest of the line.
func splitTag(line string) (string, string) {
	idx := strings.IndexByte(line, ' ')
	if idx == -1 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

// parseFields parses "key=value key=value ..." into a map.
func parseFields(s string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Fields(s) {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = val[1 : len(val)-1]
		}
		fields[key] = val
	}
	return fields
}

func fieldFloat(fields map[string]string, key string) float32 {
	v, err := strconv.ParseFloat(fields[key], 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return float32(v)
}
