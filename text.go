package aspen

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

// TextAlign controls horizontal alignment of each line about Position.X.
type TextAlign uint8

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// Text is a string drawn with a Font. Position is the left end of the first
// line's baseline.
type Text struct {
	Font     Font
	Content  string
	Position Point2D
	Colour   Color
	Opacity  float32
	Scale    float32
	Z        int16
	Align    TextAlign
	// LineSpacing multiplies the font's line height. Zero means 1.
	LineSpacing float32
}

// NewText returns white, fully opaque text at scale 1.
func NewText(f Font, content string, pos Point2D) *Text {
	return &Text{Font: f, Content: content, Position: pos, Colour: ColorWhite, Opacity: 1, Scale: 1}
}

// ValidFont reports whether the text has a font with a live atlas.
func (t *Text) ValidFont() bool {
	if t.Font == nil {
		return false
	}
	tex := t.Font.Texture()
	return tex != nil && tex.Valid()
}

func (t *Text) spacing() float32 {
	if t.LineSpacing == 0 {
		return 1
	}
	return t.LineSpacing
}

func (t *Text) lineAdvance() float32 {
	return t.Font.LineHeight() * t.spacing() * t.Scale
}

// Width returns the width of the widest line.
func (t *Text) Width() float32 {
	if t.Font == nil {
		return 0
	}
	return t.Font.PxWide(t.Content, t.Scale)
}

// Height returns the distance from the top of the first line to the
// baseline of the last.
func (t *Text) Height() float32 {
	if t.Font == nil || t.Content == "" {
		return 0
	}
	lines := strings.Count(t.Content, "\n")
	return t.Font.Ascender()*t.Scale + float32(lines)*t.lineAdvance()
}

// LocalBounds returns the text's box relative to Position.
func (t *Text) LocalBounds() SpriteBounds {
	if t.Font == nil {
		return SpriteBounds{}
	}
	w := t.Width()
	top := -t.Font.Ascender() * t.Scale
	bottom := top + t.Height()
	left := float32(0)
	switch t.Align {
	case AlignCenter:
		left = -w / 2
	case AlignRight:
		left = -w
	}
	return SpriteBounds{
		V1: Point2D{X: left, Y: top},
		V2: Point2D{X: left + w, Y: top},
		V3: Point2D{X: left + w, Y: bottom},
		V4: Point2D{X: left, Y: bottom},
	}
}

// WorldBounds returns the text's box in world space.
func (t *Text) WorldBounds() SpriteBounds {
	b := t.LocalBounds()
	for _, p := range []*Point2D{&b.V1, &b.V2, &b.V3, &b.V4} {
		p.X += t.Position.X
		p.Y += t.Position.Y
	}
	return b
}

// kerner is implemented by fonts with kerning pairs.
type kerner interface {
	kern(a, b rune) float32
}

// RenderText queues one quad per visible glyph.
func (r *Renderer) RenderText(t *Text) {
	if r.failed != nil || t.Font == nil {
		return
	}
	tex := t.Font.Texture()
	if !r.usable(tex) {
		return
	}
	k, _ := t.Font.(kerner)
	s := t.Scale
	penY := t.Position.Y
	for line := range strings.SplitSeq(t.Content, "\n") {
		penX := t.Position.X
		switch t.Align {
		case AlignCenter:
			penX -= t.Font.PxWide(line, s) / 2
		case AlignRight:
			penX -= t.Font.PxWide(line, s)
		}
		var prev rune
		hasPrev := false
		for i := 0; i < len(line); {
			ch, size := utf8.DecodeRuneInString(line[i:])
			i += size
			g, ok := t.Font.Glyph(ch)
			if !ok {
				hasPrev = false
				continue
			}
			if hasPrev && k != nil {
				penX += k.kern(prev, ch) * s
			}
			if g.W > 0 && g.H > 0 {
				x := penX + g.Offset.X*s
				y := penY + g.Offset.Y*s
				m := quadTransform(x, y, g.W*s, g.H*s, 0, 1)
				r.push(tex, r.shader, t.Z, m, g.W*s, g.H*s, g.Src, FlipNone, t.Colour, t.Opacity)
			}
			penX += g.Advance * s
			prev, hasPrev = ch, true
		}
		penY += t.lineAdvance()
	}
}

// DefaultFont returns the built-in Go Regular font, rasterising it on first
// use. It is nil only when the device cannot create the atlas.
func (r *Renderer) DefaultFont() Font {
	if r.defaultFont != nil && r.defaultFont.Texture().Valid() {
		return r.defaultFont
	}
	f, err := loadDefaultFont(r.rm)
	if err != nil {
		Logger().Error("aspen: default font", "error", err)
		return nil
	}
	r.defaultFont = f
	return f
}

// LoadFont rasterises a TrueType or OpenType font at size pixels. rangePx
// pads glyphs in the atlas. Failure logs a warning and returns a nil Font.
func (r *Renderer) LoadFont(name string, size float32, rangePx int) (Font, error) {
	data, err := r.rm.readFile(name)
	if err != nil {
		Logger().Warn("aspen: font not loaded", "path", name, "error", err)
		return nil, err
	}
	f, err := rasteriseFont(r.rm, data, size, max(rangePx, 1))
	if err != nil {
		Logger().Warn("aspen: font not loaded", "path", name, "error", err)
		return nil, err
	}
	return f, nil
}

// LoadFontAtlas imports a pre-generated atlas image and its glyph CSV.
func (r *Renderer) LoadFontAtlas(m AtlasMetrics, imagePath, csvPath string) (Font, error) {
	tex, err := r.rm.LoadTexture(imagePath)
	if err != nil {
		Logger().Warn("aspen: font atlas not loaded", "path", imagePath, "error", err)
		return nil, err
	}
	data, err := r.rm.readFile(csvPath)
	if err != nil {
		r.rm.Release(tex)
		Logger().Warn("aspen: font atlas not loaded", "path", csvPath, "error", err)
		return nil, err
	}
	f, err := parseAtlasCSV(bytes.NewReader(data), m, tex.Height())
	if err != nil {
		r.rm.Release(tex)
		return nil, err
	}
	f.tex = tex
	return f, nil
}

// LoadBitmapFont imports an AngelCode BMFont text descriptor. The page
// image is found relative to the descriptor unless pagePath is set.
func (r *Renderer) LoadBitmapFont(fntPath, pagePath string) (Font, error) {
	data, err := r.rm.readFile(fntPath)
	if err != nil {
		Logger().Warn("aspen: bitmap font not loaded", "path", fntPath, "error", err)
		return nil, err
	}
	f, err := parseBMFont(data)
	if err != nil {
		return nil, err
	}
	if pagePath == "" {
		page := bmFontPage(data)
		if page == "" {
			return nil, fmt.Errorf("aspen: %s names no page image", fntPath)
		}
		pagePath = path.Join(path.Dir(canonicalPath(fntPath)), page)
	}
	tex, err := r.rm.LoadTexture(pagePath)
	if err != nil {
		Logger().Warn("aspen: bitmap font page not loaded", "path", pagePath, "error", err)
		return nil, err
	}
	f.tex = tex
	return f, nil
}

// bmFontPage returns the file of page 0 in a BMFont descriptor.
func bmFontPage(data []byte) string {
	for line := range strings.SplitSeq(string(data), "\n") {
		tag, rest := splitTag(strings.TrimSpace(line))
		if tag != "page" {
			continue
		}
		fields := parseFields(rest)
		if fields["id"] == "0" {
			return fields["file"]
		}
	}
	return ""
}
