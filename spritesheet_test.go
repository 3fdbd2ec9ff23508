package aspen

import (
	"errors"
	"image/color"
	"testing"
	"testing/fstest"
)

const hashSheet = `{
  "frames": {
    "hero": {"frame": {"x": 0, "y": 0, "w": 16, "h": 32}, "rotated": false, "trimmed": true,
      "spriteSourceSize": {"x": 2, "y": 1, "w": 16, "h": 32}, "sourceSize": {"w": 20, "h": 34}},
    "coin": {"frame": {"x": 16, "y": 0, "w": 8, "h": 12}, "rotated": true, "trimmed": false,
      "spriteSourceSize": {"x": 0, "y": 0, "w": 8, "h": 12}, "sourceSize": {"w": 8, "h": 12}}
  },
  "meta": {"image": "sheet.png"}
}`

const arraySheet = `{
  "textures": [
    {"image": "a.png", "frames": {"one": {"frame": {"x": 0, "y": 0, "w": 4, "h": 4}}}},
    {"image": "b.png", "frames": {"two": {"frame": {"x": 4, "y": 0, "w": 4, "h": 4}}}}
  ]
}`

func TestParseSpriteSheetHash(t *testing.T) {
	regions, images, err := parseSpriteSheet([]byte(hashSheet))
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 || images[0] != "sheet.png" {
		t.Errorf("images = %v", images)
	}
	hero := regions["hero"]
	want := Region{Rect: [4]float32{0, 0, 16, 32}, Original: Size{W: 20, H: 34}, Offset: Point2D{X: 2, Y: 1}}
	if hero != want {
		t.Errorf("hero = %+v, want %+v", hero, want)
	}
	// Rotated frames take an h by w footprint on the page.
	coin := regions["coin"]
	if !coin.Rotated || coin.Rect != [4]float32{16, 0, 12, 8} {
		t.Errorf("coin = %+v", coin)
	}
}

func TestParseSpriteSheetArray(t *testing.T) {
	regions, images, err := parseSpriteSheet([]byte(arraySheet))
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 2 || images[1] != "b.png" {
		t.Errorf("images = %v", images)
	}
	if regions["one"].Page != 0 || regions["two"].Page != 1 {
		t.Errorf("pages: one %d two %d", regions["one"].Page, regions["two"].Page)
	}
}

func TestParseSpriteSheetErrors(t *testing.T) {
	for _, data := range []string{`not json`, `{}`, `{"frames": []}`, `{"textures": {}}`} {
		if _, _, err := parseSpriteSheet([]byte(data)); err == nil {
			t.Errorf("parseSpriteSheet(%s) should fail", data)
		}
	}
}

func TestNewSpriteSheetChecksPages(t *testing.T) {
	r, _ := newTestRenderer(t, 8, 8)
	page := newTestTexture(t, r, 16, 16, FormatRGBA, nil)
	if _, err := NewSpriteSheet([]byte(arraySheet), page); !errors.Is(err, ErrIndex) {
		t.Errorf("err = %v, want ErrIndex", err)
	}
	sheet, err := NewSpriteSheet([]byte(arraySheet), page, page)
	if err != nil {
		t.Fatal(err)
	}
	if sheet.Len() != 2 || len(sheet.Pages()) != 2 {
		t.Errorf("len %d pages %d", sheet.Len(), len(sheet.Pages()))
	}
}

func TestAttachRegion(t *testing.T) {
	r, _ := newTestRenderer(t, 8, 8)
	sheet, err := NewSpriteSheet([]byte(hashSheet), newTestTexture(t, r, 32, 32, FormatRGBA, nil))
	if err != nil {
		t.Fatal(err)
	}
	s := NewSprite()
	s.Flip = FlipX
	if err := s.AttachRegion(sheet, "hero"); err != nil {
		t.Fatal(err)
	}
	if s.Width != 16 || s.Height != 32 || s.Flip != FlipNone {
		t.Errorf("hero: %vx%v flip %d", s.Width, s.Height, s.Flip)
	}
	if err := s.AttachRegion(sheet, "coin"); err != nil {
		t.Fatal(err)
	}
	if s.Width != 8 || s.Height != 12 {
		t.Errorf("coin size = %vx%v, want 8x12", s.Width, s.Height)
	}
	if s.Flip != FlipXY|FlipY || s.SrcRect != [4]float32{16, 0, 12, 8} {
		t.Errorf("coin flip %d src %v", s.Flip, s.SrcRect)
	}
	if err := s.AttachRegion(sheet, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadSpriteSheet(t *testing.T) {
	rm, _ := newTestManager(t)
	rm.SetFS(fstest.MapFS{
		"sheets/hero.json": {Data: []byte(hashSheet)},
		"sheets/sheet.png": {Data: pngBytes(t, 32, 32, color.NRGBA{B: 255, A: 255})},
		"sheets/two.json":  {Data: []byte(arraySheet)},
		"sheets/a.png":     {Data: pngBytes(t, 8, 8, color.NRGBA{A: 255})},
	})
	sheet, err := rm.LoadSpriteSheet("sheets/hero.json")
	if err != nil {
		t.Fatal(err)
	}
	if sheet.Len() != 2 || sheet.Pages()[0].Width() != 32 {
		t.Errorf("len %d", sheet.Len())
	}
	if cached, _ := rm.LoadTexture("sheets/sheet.png"); cached != sheet.Pages()[0] {
		t.Error("pages should come from the texture cache")
	}

	// b.png is missing, so a.png is released again.
	if _, err := rm.LoadSpriteSheet("sheets/two.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	for _, p := range rm.CachedPaths() {
		if p == "sheets/a.png" {
			t.Error("a.png should have been released")
		}
	}
}
