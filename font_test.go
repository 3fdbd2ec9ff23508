package aspen

import (
	"errors"
	"image/color"
	"strings"
	"testing"
	"testing/fstest"
)

const testBMFont = `info face="Test" size=16
common lineHeight=20 base=15 scaleW=64 scaleH=64 pages=1
page id=0 file="test.png"
chars count=4
char id=65 x=0 y=0 width=8 height=10 xoffset=1 yoffset=5 xadvance=9 page=0
char id=66 x=8 y=0 width=7 height=10 xoffset=0 yoffset=5 xadvance=8 page=0
char id=67 x=16 y=0 width=7 height=10 xoffset=0 yoffset=5 xadvance=8 page=1
char id=32 x=0 y=0 width=0 height=0 xoffset=0 yoffset=0 xadvance=4 page=0
kerning first=65 second=66 amount=-1
`

func TestParseBMFont(t *testing.T) {
	f, err := parseBMFont([]byte(testBMFont))
	if err != nil {
		t.Fatal(err)
	}
	if f.LineHeight() != 20 || f.Ascender() != 15 {
		t.Errorf("line height %v ascender %v", f.LineHeight(), f.Ascender())
	}
	a, ok := f.Glyph('A')
	if !ok {
		t.Fatal("missing glyph A")
	}
	want := Glyph{Src: [4]float32{0, 0, 8, 10}, Offset: Point2D{X: 1, Y: -10}, W: 8, H: 10, Advance: 9}
	if a != want {
		t.Errorf("glyph A = %+v, want %+v", a, want)
	}
	if _, ok := f.Glyph('C'); ok {
		t.Error("glyphs on other pages should be ignored")
	}
	if k := f.kern('A', 'B'); k != -1 {
		t.Errorf("kern(A, B) = %v", k)
	}
}

func TestBMFontMetrics(t *testing.T) {
	f, err := parseBMFont([]byte(testBMFont))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		s     string
		scale float32
		wide  float32
	}{
		{"", 1, 0},
		{"AB", 1, 16},
		{"BA", 1, 17},
		{"A B", 1, 21},
		{"AB\nA B", 2, 42},
		{"A?", 1, 9},
	}
	for _, tt := range tests {
		if got := f.PxWide(tt.s, tt.scale); got != tt.wide {
			t.Errorf("PxWide(%q, %v) = %v, want %v", tt.s, tt.scale, got, tt.wide)
		}
	}
	if h := f.PxHeight("A\nB", 1); h != 35 {
		t.Errorf("PxHeight = %v, want 35", h)
	}
	if h := f.PxHeight("", 1); h != 0 {
		t.Errorf("PxHeight(\"\") = %v", h)
	}
}

func TestParseBMFontErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no common", "char id=65 width=1 height=1\n"},
		{"no chars", "common lineHeight=10 base=8\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseBMFont([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBMFontHelpers(t *testing.T) {
	tag, rest := splitTag("page id=0 file=\"a.png\"")
	if tag != "page" || rest != "id=0 file=\"a.png\"" {
		t.Errorf("splitTag = %q, %q", tag, rest)
	}
	if tag, rest := splitTag("chars"); tag != "chars" || rest != "" {
		t.Errorf("splitTag(chars) = %q, %q", tag, rest)
	}
	fields := parseFields(`id=0 file="a.png" broken`)
	if fields["id"] != "0" || fields["file"] != "a.png" || len(fields) != 2 {
		t.Errorf("fields = %v", fields)
	}
	if p := bmFontPage([]byte(testBMFont)); p != "test.png" {
		t.Errorf("page = %q", p)
	}
	if p := bmFontPage([]byte("common lineHeight=1\n")); p != "" {
		t.Errorf("page = %q, want none", p)
	}
}

const testAtlasCSV = `unicode,advance,planeLeft,planeBottom,planeRight,planeTop,atlasLeft,atlasBottom,atlasRight,atlasTop
65,0.5,0,-0.25,0.5,0.75,1,31,17,63
32,0.25,0,0,0,0,0,0,0,0
`

func TestParseAtlasCSV(t *testing.T) {
	m := AtlasMetrics{Size: 32, EmSize: 1, LineHeight: 1.25, Ascender: 0.75, Range: 4}
	f, err := parseAtlasCSV(strings.NewReader(testAtlasCSV), m, 64)
	if err != nil {
		t.Fatal(err)
	}
	if f.LineHeight() != 40 || f.Ascender() != 24 {
		t.Errorf("line height %v ascender %v", f.LineHeight(), f.Ascender())
	}
	a, ok := f.Glyph('A')
	if !ok {
		t.Fatal("missing glyph A")
	}
	want := Glyph{Src: [4]float32{1, 1, 16, 32}, Offset: Point2D{X: 0, Y: -24}, W: 16, H: 32, Advance: 16}
	if a != want {
		t.Errorf("glyph A = %+v, want %+v", a, want)
	}
	if got := f.PxWide("A A", 1); got != 40 {
		t.Errorf("PxWide = %v, want 40", got)
	}
}

func TestParseAtlasCSVErrors(t *testing.T) {
	m := AtlasMetrics{Size: 32, EmSize: 1}
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"header only", "unicode,advance,planeLeft,planeBottom,planeRight,planeTop,atlasLeft,atlasBottom,atlasRight,atlasTop\n"},
		{"bad number", "65,0.5,0,0,1,1,0,0,x,1\n"},
		{"short row", "65,0.5,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseAtlasCSV(strings.NewReader(tt.data), m, 64); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDefaultFont(t *testing.T) {
	r, _ := newTestRenderer(t, 8, 8)
	f := r.DefaultFont()
	if f == nil {
		t.Fatal("no default font")
	}
	if f.PxWide("Hello", 1) <= 0 || f.LineHeight() <= 0 || f.Ascender() <= 0 {
		t.Errorf("metrics: wide %v line %v ascent %v", f.PxWide("Hello", 1), f.LineHeight(), f.Ascender())
	}
	if f.Texture().Format() != FormatMonochromeAlpha {
		t.Errorf("atlas format = %s", f.Texture().Format())
	}
	if g, ok := f.Glyph('W'); !ok || g.W <= 0 || g.Offset.Y >= 0 {
		t.Errorf("glyph W = %+v, %v", g, ok)
	}
	if r.DefaultFont() != f {
		t.Error("default font should be rasterised once")
	}
}

func fontFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"fonts/test.fnt":  {Data: []byte(testBMFont)},
		"fonts/test.png":  {Data: pngBytes(t, 64, 64, color.NRGBA{R: 255, G: 255, B: 255, A: 255})},
		"fonts/atlas.png": {Data: pngBytes(t, 32, 64, color.NRGBA{A: 255})},
		"fonts/atlas.csv": {Data: []byte(testAtlasCSV)},
	}
}

func TestLoadBitmapFont(t *testing.T) {
	r, _ := newTestRenderer(t, 8, 8)
	r.Resources().SetFS(fontFS(t))
	f, err := r.LoadBitmapFont("fonts/test.fnt", "")
	if err != nil {
		t.Fatal(err)
	}
	if f.Texture().Width() != 64 || f.LineHeight() != 20 {
		t.Errorf("page %dx%d line height %v", f.Texture().Width(), f.Texture().Height(), f.LineHeight())
	}
	if _, err := r.LoadBitmapFont("fonts/missing.fnt", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
}

func TestLoadFontAtlas(t *testing.T) {
	r, _ := newTestRenderer(t, 8, 8)
	r.Resources().SetFS(fontFS(t))
	m := AtlasMetrics{Size: 32, EmSize: 1, LineHeight: 1.25, Ascender: 0.75}
	f, err := r.LoadFontAtlas(m, "fonts/atlas.png", "fonts/atlas.csv")
	if err != nil {
		t.Fatal(err)
	}
	if f.Texture().Height() != 64 || f.LineHeight() != 40 {
		t.Errorf("atlas height %d line height %v", f.Texture().Height(), f.LineHeight())
	}
	if _, err := r.LoadFontAtlas(m, "fonts/atlas.png", "fonts/none.csv"); err == nil {
		t.Error("expected error for missing csv")
	}
	if got := r.Resources().RefCount(f.Texture()); got != 1 {
		t.Errorf("atlas refcount after failed load = %d, want 1", got)
	}
}

func TestLoadFontErrors(t *testing.T) {
	r, _ := newTestRenderer(t, 8, 8)
	r.Resources().SetFS(fstest.MapFS{"fonts/bad.ttf": {Data: []byte("not a font")}})
	if _, err := r.LoadFont("fonts/bad.ttf", 12, 1); err == nil {
		t.Error("expected parse error")
	}
	if _, err := r.LoadFont("fonts/none.ttf", 12, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}
