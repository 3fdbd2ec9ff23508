package aspen

import (
	"encoding/json"
	"fmt"
	"path"
)

// Region is a named sub-rectangle of a sprite sheet page.
type Region struct {
	Page int
	// Rect is {x, y, w, h} in texels, the footprint on the page. A rotated
	// region occupies h×w texels.
	Rect [4]float32
	// Original is the untrimmed size as authored.
	Original Size
	// Offset is the trim offset inside the original frame.
	Offset Point2D
	// Rotated regions are stored 90 degrees clockwise.
	Rotated bool
}

// SpriteSheet maps frame names to regions on one or more page textures.
type SpriteSheet struct {
	pages   []*Texture
	regions map[string]Region
}

// Pages returns the page textures.
func (s *SpriteSheet) Pages() []*Texture { return s.pages }

// Region looks up a frame.
func (s *SpriteSheet) Region(name string) (Region, bool) {
	r, ok := s.regions[name]
	return r, ok
}

// Len returns the number of frames.
func (s *SpriteSheet) Len() int { return len(s.regions) }

// --- TexturePacker JSON ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame            jsonRect `json:"frame"`
	Rotated          bool     `json:"rotated"`
	Trimmed          bool     `json:"trimmed"`
	SpriteSourceSize jsonRect `json:"spriteSourceSize"`
	SourceSize       jsonSize `json:"sourceSize"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

type jsonMeta struct {
	Image string `json:"image"`
}

// parseSpriteSheet reads TexturePacker JSON in either the hash format (one
// "frames" object) or the array format ("textures" with per-page frames).
// It returns the regions and the page image names in page order.
func parseSpriteSheet(data []byte) (map[string]Region, []string, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
		Meta     jsonMeta        `json:"meta"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, nil, fmt.Errorf("aspen: failed to parse sprite sheet JSON: %w", err)
	}
	regions := make(map[string]Region)
	switch {
	case probe.Textures != nil:
		var textures []jsonTexturePage
		if err := json.Unmarshal(probe.Textures, &textures); err != nil {
			return nil, nil, fmt.Errorf("aspen: failed to parse sprite sheet textures array: %w", err)
		}
		images := make([]string, len(textures))
		for i, tex := range textures {
			images[i] = tex.Image
			for name, f := range tex.Frames {
				regions[name] = frameToRegion(f, i)
			}
		}
		return regions, images, nil
	case probe.Frames != nil:
		var frames map[string]jsonFrame
		if err := json.Unmarshal(probe.Frames, &frames); err != nil {
			return nil, nil, fmt.Errorf("aspen: failed to parse sprite sheet frames: %w", err)
		}
		for name, f := range frames {
			regions[name] = frameToRegion(f, 0)
		}
		return regions, []string{probe.Meta.Image}, nil
	default:
		return nil, nil, fmt.Errorf("aspen: sprite sheet JSON has neither \"frames\" nor \"textures\" key")
	}
}

func frameToRegion(f jsonFrame, page int) Region {
	w, h := f.Frame.W, f.Frame.H
	if f.Rotated {
		w, h = h, w
	}
	return Region{
		Page:     page,
		Rect:     [4]float32{float32(f.Frame.X), float32(f.Frame.Y), float32(w), float32(h)},
		Original: Size{W: f.SourceSize.W, H: f.SourceSize.H},
		Offset:   Point2D{X: float32(f.SpriteSourceSize.X), Y: float32(f.SpriteSourceSize.Y)},
		Rotated:  f.Rotated,
	}
}

// NewSpriteSheet builds a sheet from TexturePacker JSON and already loaded
// page textures.
func NewSpriteSheet(data []byte, pages ...*Texture) (*SpriteSheet, error) {
	regions, _, err := parseSpriteSheet(data)
	if err != nil {
		return nil, err
	}
	for name, r := range regions {
		if r.Page >= len(pages) {
			return nil, fmt.Errorf("%w: frame %q is on page %d, have %d pages", ErrIndex, name, r.Page, len(pages))
		}
	}
	return &SpriteSheet{pages: pages, regions: regions}, nil
}

// LoadSpriteSheet reads TexturePacker JSON and loads its page images,
// relative to the JSON file, through the texture cache.
func (rm *ResourceManager) LoadSpriteSheet(name string) (*SpriteSheet, error) {
	data, err := rm.readFile(name)
	if err != nil {
		return nil, err
	}
	regions, images, err := parseSpriteSheet(data)
	if err != nil {
		return nil, err
	}
	dir := path.Dir(canonicalPath(name))
	pages := make([]*Texture, 0, len(images))
	for _, img := range images {
		if img == "" {
			return nil, fmt.Errorf("aspen: sprite sheet %s names no page image", name)
		}
		tex, err := rm.LoadTexture(path.Join(dir, img))
		if err != nil {
			for _, p := range pages {
				rm.Release(p)
			}
			return nil, err
		}
		pages = append(pages, tex)
	}
	for n, r := range regions {
		if r.Page >= len(pages) {
			return nil, fmt.Errorf("%w: frame %q is on page %d, have %d pages", ErrIndex, n, r.Page, len(pages))
		}
	}
	return &SpriteSheet{pages: pages, regions: regions}, nil
}

// AttachRegion attaches the page holding frame name and selects the frame.
// The sprite takes the frame's size. Rotated frames are drawn upright by
// setting Flip; any previous flip is replaced.
func (s *Sprite) AttachRegion(sheet *SpriteSheet, name string) error {
	r, ok := sheet.Region(name)
	if !ok {
		Logger().Warn("aspen: sprite sheet frame not found", "frame", name)
		return fmt.Errorf("%w: frame %q", ErrNotFound, name)
	}
	if err := s.Attach(sheet.pages[r.Page], AttachDefault); err != nil {
		return err
	}
	s.SrcRect = r.Rect
	s.Width, s.Height = r.Rect[SrcLengthX], r.Rect[SrcLengthY]
	s.Flip = FlipNone
	if r.Rotated {
		s.Width, s.Height = s.Height, s.Width
		s.Flip = FlipXY | FlipY
	}
	return nil
}
