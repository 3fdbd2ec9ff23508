package aspen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

type cacheEntry struct {
	tex  *Texture
	refs int
}

// ResourceManager owns every texture and shader created on one device. It
// hands out generation-checked handles, caches file-backed textures by
// canonical path with reference counts, and queues pixel buffer transfers.
//
// A ResourceManager is bound to the goroutine that owns the device.
type ResourceManager struct {
	dev      Device
	textures arena[Texture]
	shaders  arena[Shader]
	cache    map[string]*cacheEntry
	fsys     fs.FS

	pending []*PixelBuffer

	// beforeRead runs before any device read so queued draws land first.
	beforeRead func() error

	defaultSampler SamplerState
}

// NewResourceManager creates a manager for dev.
func NewResourceManager(dev Device) *ResourceManager {
	return &ResourceManager{
		dev:   dev,
		cache: make(map[string]*cacheEntry),
	}
}

// Device returns the device resources are created on.
func (rm *ResourceManager) Device() Device { return rm.dev }

// SetFS installs a virtual filesystem consulted when a path is not found on
// disk. Nil removes it.
func (rm *ResourceManager) SetFS(fsys fs.FS) { rm.fsys = fsys }

// SetDefaultSampler sets the sampler state new textures start with.
func (rm *ResourceManager) SetDefaultSampler(s SamplerState) { rm.defaultSampler = s }

// canonicalPath is the cache key for p.
func canonicalPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// readFile looks for name on disk first, then in the virtual filesystem.
func (rm *ResourceManager) readFile(name string) ([]byte, error) {
	b, err := os.ReadFile(name)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("aspen: read %s: %w", name, err)
	}
	if rm.fsys != nil {
		p := path.Clean(filepath.ToSlash(name))
		b, ferr := fs.ReadFile(rm.fsys, p)
		if ferr == nil {
			return b, nil
		}
		if !errors.Is(ferr, fs.ErrNotExist) {
			return nil, fmt.Errorf("aspen: read %s: %w", name, ferr)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// decodeImage decodes any registered format: PNG, JPEG, GIF, BMP, WebP.
func decodeImage(name string, data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("aspen: decode %s: %w", name, err)
	}
	return img, nil
}

type decoded struct {
	format Format
	width  int
	height int
	data   []byte
}

func (rm *ResourceManager) loadFile(name string) (decoded, error) {
	raw, err := rm.readFile(name)
	if err != nil {
		return decoded{}, err
	}
	return decodeBytes(name, raw)
}

func decodeBytes(name string, raw []byte) (decoded, error) {
	img, err := decodeImage(name, raw)
	if err != nil {
		return decoded{}, err
	}
	f := imageFormat(img)
	data, err := fromImage(f, img)
	if err != nil {
		return decoded{}, err
	}
	b := img.Bounds()
	return decoded{format: f, width: b.Dx(), height: b.Dy(), data: data}, nil
}

// newTexture allocates a device texture and registers it.
func (rm *ResourceManager) newTexture(desc TextureDesc, data []byte) (*Texture, error) {
	if !desc.Format.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrFormat, desc.Format)
	}
	if data != nil {
		if need := desc.Width * desc.Height * desc.Format.BytesPerPixel(); len(data) < need {
			return nil, fmt.Errorf("%w: %d bytes, need %d", ErrBufferTooSmall, len(data), need)
		}
	}
	id, err := rm.dev.CreateTexture(desc, data)
	if err != nil {
		return nil, fmt.Errorf("aspen: create texture: %w", err)
	}
	t := &Texture{
		rm:      rm,
		id:      id,
		width:   desc.Width,
		height:  desc.Height,
		format:  desc.Format,
		sampler: rm.defaultSampler,
		mips:    1,
	}
	t.handle = rm.textures.insert(t)
	rm.dev.SetSampler(id, t.sampler)
	return t, nil
}

// placeholder registers a texture with no device storage yet.
func (rm *ResourceManager) placeholder(w, h int, f Format) *Texture {
	t := &Texture{rm: rm, width: w, height: h, format: f, sampler: rm.defaultSampler, stale: true}
	t.handle = rm.textures.insert(t)
	return t
}

// CreateTexture creates an uncached texture owned by the caller. data may
// be nil for a zeroed texture; otherwise it must hold w*h*bpp bytes.
func (rm *ResourceManager) CreateTexture(w, h int, f Format, data []byte) (*Texture, error) {
	return rm.newTexture(TextureDesc{Width: w, Height: h, Format: f}, data)
}

// CreateNonCachedTexture loads an image file into a texture owned by the
// caller. Every call creates a new texture.
func (rm *ResourceManager) CreateNonCachedTexture(name string) (*Texture, error) {
	d, err := rm.loadFile(name)
	if err != nil {
		return nil, err
	}
	return rm.newTexture(TextureDesc{Width: d.width, Height: d.height, Format: d.format}, d.data)
}

// LoadTexture returns the cached texture for name, loading it on first use.
// Each call takes a reference that Release gives back.
func (rm *ResourceManager) LoadTexture(name string) (*Texture, error) {
	key := canonicalPath(name)
	if e, ok := rm.cache[key]; ok {
		e.refs++
		return e.tex, nil
	}
	d, err := rm.loadFile(name)
	if err != nil {
		return nil, err
	}
	return rm.cacheDecoded(key, d)
}

func (rm *ResourceManager) cacheDecoded(key string, d decoded) (*Texture, error) {
	t, err := rm.newTexture(TextureDesc{Width: d.width, Height: d.height, Format: d.format}, d.data)
	if err != nil {
		return nil, err
	}
	t.path = key
	rm.cache[key] = &cacheEntry{tex: t, refs: 1}
	return t, nil
}

// Release gives back one reference to a cached texture and destroys it when
// none remain. Uncached textures are destroyed immediately.
func (rm *ResourceManager) Release(t *Texture) {
	if t == nil {
		return
	}
	if e, ok := rm.cache[t.path]; ok && e.tex == t {
		e.refs--
		if e.refs > 0 {
			return
		}
	}
	rm.destroyTexture(t)
}

// RefCount returns the number of references held on a cached texture.
func (rm *ResourceManager) RefCount(t *Texture) int {
	if e, ok := rm.cache[t.path]; ok && e.tex == t {
		return e.refs
	}
	return 0
}

// CacheLen returns the number of cached textures.
func (rm *ResourceManager) CacheLen() int { return len(rm.cache) }

// TextureCount returns the number of live textures, cached or not.
func (rm *ResourceManager) TextureCount() int { return rm.textures.len() }

// Texture resolves a handle, failing with ErrStaleHandle once the texture
// has been destroyed.
func (rm *ResourceManager) Texture(h Handle) (*Texture, error) {
	t, ok := rm.textures.get(h)
	if !ok {
		return nil, fmt.Errorf("%w: texture %d/%d", ErrStaleHandle, h.Index, h.Generation)
	}
	return t, nil
}

func (rm *ResourceManager) destroyTexture(t *Texture) {
	if _, ok := rm.textures.remove(t.handle); !ok {
		return
	}
	if e, ok := rm.cache[t.path]; ok && e.tex == t {
		delete(rm.cache, t.path)
	}
	rm.cancelTransfer(t.buffer)
	if t.id != 0 {
		rm.dev.DestroyTexture(t.id)
	}
	t.id = 0
	t.buffer = nil
}

// Preload decodes image files in parallel and adds them to the cache. The
// decode runs on worker goroutines; device uploads stay on the caller's
// goroutine. Paths already cached are skipped. Each newly cached texture
// holds one reference.
func (rm *ResourceManager) Preload(ctx context.Context, names ...string) error {
	type job struct {
		key  string
		name string
		raw  []byte
		out  decoded
	}
	var jobs []*job
	seen := make(map[string]bool)
	for _, n := range names {
		key := canonicalPath(n)
		if _, ok := rm.cache[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		raw, err := rm.readFile(n)
		if err != nil {
			return err
		}
		jobs = append(jobs, &job{key: key, name: n, raw: raw})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := decodeBytes(j.name, j.raw)
			if err != nil {
				return err
			}
			j.out = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, j := range jobs {
		if _, err := rm.cacheDecoded(j.key, j.out); err != nil {
			return err
		}
	}
	Logger().Debug("aspen: preloaded textures", "count", len(jobs))
	return nil
}

// CompileShader compiles a Kage program and registers its uniforms.
func (rm *ResourceManager) CompileShader(src []byte) (*Shader, error) {
	decls, err := parseUniforms(src)
	if err != nil {
		return nil, err
	}
	id, err := rm.dev.CompileShader(src)
	if err != nil {
		return nil, fmt.Errorf("aspen: compile shader: %w", err)
	}
	s := newShader(id, decls)
	s.handle = rm.shaders.insert(s)
	return s, nil
}

// LoadShader reads and compiles a Kage program from disk or the virtual
// filesystem.
func (rm *ResourceManager) LoadShader(name string) (*Shader, error) {
	src, err := rm.readFile(name)
	if err != nil {
		return nil, err
	}
	return rm.CompileShader(src)
}

// Shader resolves a handle, failing with ErrStaleHandle once the shader has
// been destroyed.
func (rm *ResourceManager) Shader(h Handle) (*Shader, error) {
	s, ok := rm.shaders.get(h)
	if !ok {
		return nil, fmt.Errorf("%w: shader %d/%d", ErrStaleHandle, h.Index, h.Generation)
	}
	return s, nil
}

// DestroyShader releases a shader. Handles to it become stale.
func (rm *ResourceManager) DestroyShader(s *Shader) {
	if s == nil {
		return
	}
	if _, ok := rm.shaders.remove(s.handle); !ok {
		return
	}
	rm.dev.DestroyShader(s.id)
	s.destroyed = true
}

// Close destroys every texture and shader.
func (rm *ResourceManager) Close() {
	var texs []*Texture
	rm.textures.each(func(_ Handle, t *Texture) { texs = append(texs, t) })
	for _, t := range texs {
		rm.destroyTexture(t)
	}
	var shs []*Shader
	rm.shaders.each(func(_ Handle, s *Shader) { shs = append(shs, s) })
	for _, s := range shs {
		rm.DestroyShader(s)
	}
}

// CachedPaths lists the cache keys, sorted.
func (rm *ResourceManager) CachedPaths() []string {
	out := make([]string, 0, len(rm.cache))
	for k := range rm.cache {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// readTexture flushes pending draws and reads from the device.
func (rm *ResourceManager) readTexture(id uint32, mip int, dst []byte) error {
	if rm.beforeRead != nil {
		if err := rm.beforeRead(); err != nil {
			return err
		}
	}
	if err := rm.dev.ReadTexture(id, mip, dst); err != nil {
		return fmt.Errorf("aspen: read texture: %w", err)
	}
	return nil
}

// queueTransfer records tr as b's pending download, replacing any earlier one.
func (rm *ResourceManager) queueTransfer(b *PixelBuffer, tr *transfer) {
	if b.pending == nil {
		rm.pending = append(rm.pending, b)
	}
	b.pending = tr
}

func (rm *ResourceManager) cancelTransfer(b *PixelBuffer) {
	if b == nil || b.pending == nil {
		return
	}
	for i, p := range rm.pending {
		if p == b {
			rm.pending = append(rm.pending[:i], rm.pending[i+1:]...)
			break
		}
	}
}

// completeTransfers lands every pending download.
func (rm *ResourceManager) completeTransfers() int {
	n := len(rm.pending)
	for _, b := range rm.pending {
		b.complete()
	}
	rm.pending = rm.pending[:0]
	return n
}

// PendingTransfers returns the number of downloads not yet completed.
func (rm *ResourceManager) PendingTransfers() int { return len(rm.pending) }
