package aspen

import "fmt"

// Appearance holds the drawing state Sprite and Tile share: size, source
// rectangle, tint and the resources they reference.
//
// Texture and shader references are handles. Destroying a texture a sprite
// still points to is detected when the sprite is drawn; the draw is skipped.
type Appearance struct {
	// Width and Height are the drawn size in world units, independent of
	// SrcRect.
	Width, Height float32
	// Rotation is in radians, about the quad's midpoint.
	Rotation float32
	// Opacity multiplies the colour's alpha.
	Opacity float32
	Colour  Color
	// Z orders draws; lower values are drawn first.
	Z    int16
	Flip FlipFlags
	// SrcRect is {start x, start y, length x, length y} in texels. Index it
	// with SrcStartX and friends.
	SrcRect [4]float32

	rm      *ResourceManager
	texture Handle
	shader  Handle
}

func newAppearance() Appearance {
	return Appearance{Opacity: 1, Colour: ColorWhite}
}

// Attach binds tex. Fields whose Keep bit is absent from mode are reset from
// the texture: size to its dimensions, SrcRect to the whole texture, colour
// to opaque white and rotation to 0. GenerateMips rebuilds tex's mip chain.
func (a *Appearance) Attach(tex *Texture, mode AttachMode) error {
	if tex == nil {
		return fmt.Errorf("%w: nil texture", ErrNotFound)
	}
	if err := tex.checkLive(); err != nil {
		return err
	}
	a.rm = tex.rm
	a.texture = tex.handle
	w, h := float32(tex.width), float32(tex.height)
	if !mode.Has(KeepDims) {
		a.Width, a.Height = w, h
	}
	if !mode.Has(KeepUVs) {
		a.SrcRect = [4]float32{0, 0, w, h}
	}
	if !mode.Has(KeepTint) {
		a.Colour = ColorWhite
	}
	if !mode.Has(KeepRotation) {
		a.Rotation = 0
	}
	if mode.Has(GenerateMips) {
		return tex.UpdateMips()
	}
	return nil
}

// Detach drops the texture reference.
func (a *Appearance) Detach() {
	a.texture = Handle{}
}

// TextureHandle returns the attached texture's handle, zero when detached.
func (a *Appearance) TextureHandle() Handle { return a.texture }

// Texture resolves the attached texture.
func (a *Appearance) Texture() (*Texture, error) {
	if a.rm == nil || a.texture.IsZero() {
		return nil, fmt.Errorf("%w: no texture attached", ErrNotFound)
	}
	return a.rm.Texture(a.texture)
}

// SetShader selects the pixel shader used for this primitive. Nil uses the
// renderer's current shader.
func (a *Appearance) SetShader(s *Shader) {
	if s == nil {
		a.shader = Handle{}
		return
	}
	a.shader = s.handle
}

// ShaderHandle returns the shader handle, zero when unset.
func (a *Appearance) ShaderHandle() Handle { return a.shader }

// SetSrcRectSlice sets SrcRect from exactly four values.
func (a *Appearance) SetSrcRectSlice(v []float32) error {
	if len(v) != 4 {
		return lengthError("source rectangle", 4, len(v))
	}
	copy(a.SrcRect[:], v)
	return nil
}

// SetMagFilter sets the magnification filter of the attached texture. The
// texture is shared, so every primitive drawing it is affected.
func (a *Appearance) SetMagFilter(f MagFilter) error {
	tex, err := a.Texture()
	if err != nil {
		return err
	}
	tex.SetMagFilter(f)
	return nil
}

// SpriteBounds is a quad in corner order top-left, top-right, bottom-right,
// bottom-left.
type SpriteBounds struct {
	V1, V2, V3, V4 Point2D
}

// AABB returns the axis-aligned rectangle enclosing the quad.
func (b SpriteBounds) AABB() CameraView {
	v := CameraView{MinX: b.V1.X, MaxX: b.V1.X, MinY: b.V1.Y, MaxY: b.V1.Y}
	for _, p := range [...]Point2D{b.V2, b.V3, b.V4} {
		v.MinX, v.MaxX = min(v.MinX, p.X), max(v.MaxX, p.X)
		v.MinY, v.MaxY = min(v.MinY, p.Y), max(v.MaxY, p.Y)
	}
	return v
}

func boundsFromCorners(c [4]Point2D) SpriteBounds {
	return SpriteBounds{V1: c[0], V2: c[1], V3: c[2], V4: c[3]}
}

// Sprite is a textured quad placed in world space by its top-left corner.
type Sprite struct {
	Appearance
	X, Y float32
	// Scale is uniform, about the midpoint.
	Scale float32
}

// NewSprite returns a sprite with no texture, full opacity and scale 1.
func NewSprite() *Sprite {
	return &Sprite{Appearance: newAppearance(), Scale: 1}
}

// LoadTexture takes a cached reference to the texture at path and attaches
// it with AttachDefault. On failure the sprite is unchanged.
func (s *Sprite) LoadTexture(rm *ResourceManager, path string) error {
	tex, err := rm.LoadTexture(path)
	if err != nil {
		Logger().Warn("aspen: sprite texture not loaded", "path", path, "error", err)
		return err
	}
	return s.Attach(tex, AttachDefault)
}

// Position returns the top-left corner.
func (s *Sprite) Position() Point2D { return Point2D{X: s.X, Y: s.Y} }

// SetPosition moves the top-left corner.
func (s *Sprite) SetPosition(p Point2D) { s.X, s.Y = p.X, p.Y }

// Midpoint returns the centre of the unrotated quad in world space.
func (s *Sprite) Midpoint() Point2D {
	return Point2D{X: s.X + s.Width/2, Y: s.Y + s.Height/2}
}

func (s *Sprite) transform() [6]float32 {
	return quadTransform(s.X, s.Y, s.Width, s.Height, s.Rotation, s.Scale)
}

// LocalBounds returns the untransformed quad with its top-left at the origin.
func (s *Sprite) LocalBounds() SpriteBounds {
	return boundsFromCorners(quadCorners(identityTransform, s.Width, s.Height))
}

// WorldBounds returns the quad after rotation and scale about the midpoint.
func (s *Sprite) WorldBounds() SpriteBounds {
	return boundsFromCorners(quadCorners(s.transform(), s.Width, s.Height))
}

// SpriteState is everything needed to rebuild a sprite. It is tagged for
// gopkg.in/yaml.v3.
type SpriteState struct {
	X        float32    `yaml:"x"`
	Y        float32    `yaml:"y"`
	Width    float32    `yaml:"width"`
	Height   float32    `yaml:"height"`
	SrcRect  [4]float32 `yaml:"src_rect,flow"`
	Z        int16      `yaml:"z_order"`
	Rotation float32    `yaml:"rotation"`
	Scale    float32    `yaml:"scale"`
	Opacity  float32    `yaml:"opacity"`
	Flip     FlipFlags  `yaml:"flip_flags"`
	Colour   Color      `yaml:"colour,flow"`
	Texture  Handle     `yaml:"texture"`
	Shader   Handle     `yaml:"shader"`
	// TexturePath, when set, lets Restore reload a texture whose handle has
	// gone stale.
	TexturePath string `yaml:"texture_path,omitempty"`
}

// State captures the sprite.
func (s *Sprite) State() SpriteState {
	st := SpriteState{
		X: s.X, Y: s.Y,
		Width: s.Width, Height: s.Height,
		SrcRect:  s.SrcRect,
		Z:        s.Z,
		Rotation: s.Rotation,
		Scale:    s.Scale,
		Opacity:  s.Opacity,
		Flip:     s.Flip,
		Colour:   s.Colour,
		Texture:  s.texture,
		Shader:   s.shader,
	}
	if tex, err := s.Texture(); err == nil {
		st.TexturePath = tex.Path()
	}
	return st
}

// Restore applies st. Texture and shader handles are kept as stored, so a
// handle to a destroyed texture stays detectably stale, unless TexturePath
// names a file to reload from the cache.
func (s *Sprite) Restore(rm *ResourceManager, st SpriteState) error {
	s.X, s.Y = st.X, st.Y
	s.Width, s.Height = st.Width, st.Height
	s.SrcRect = st.SrcRect
	s.Z = st.Z
	s.Rotation = st.Rotation
	s.Scale = st.Scale
	s.Opacity = st.Opacity
	s.Flip = st.Flip
	s.Colour = st.Colour
	s.rm = rm
	s.texture = st.Texture
	s.shader = st.Shader

	if _, err := rm.Texture(st.Texture); err == nil || st.TexturePath == "" {
		return nil
	}
	tex, err := rm.LoadTexture(st.TexturePath)
	if err != nil {
		return err
	}
	s.texture = tex.handle
	return nil
}

// flipOrders maps FlipFlags&7 to the source corner each quad vertex samples.
// Vertices and source corners are both ordered top-left, top-right,
// bottom-left, bottom-right.
var flipOrders = buildFlipOrders()

func buildFlipOrders() [8][4]int {
	var t [8][4]int
	for f := range t {
		o := [4]int{0, 1, 2, 3}
		if FlipFlags(f)&FlipXY != 0 {
			o = [4]int{o[0], o[2], o[1], o[3]}
		}
		if FlipFlags(f)&FlipX != 0 {
			o = [4]int{o[1], o[0], o[3], o[2]}
		}
		if FlipFlags(f)&FlipY != 0 {
			o = [4]int{o[2], o[3], o[0], o[1]}
		}
		t[f] = o
	}
	return t
}

// sourceCorners returns the texel corners each vertex samples after flips.
func sourceCorners(src [4]float32, flip FlipFlags) [4][2]float32 {
	x0, y0 := src[SrcStartX], src[SrcStartY]
	x1, y1 := x0+src[SrcLengthX], y0+src[SrcLengthY]
	corners := [4][2]float32{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}}
	order := flipOrders[flip&7]
	return [4][2]float32{corners[order[0]], corners[order[1]], corners[order[2]], corners[order[3]]}
}
