// Package aspen is the resource and coordinate pipeline of a 2D engine built
// on [Ebitengine].
//
// Aspen owns device textures and render targets, mirrors them in host pixel
// buffers, maps a fixed design resolution onto any window, and batches
// sprites, tiles and text by z-order and shader state.
//
// # Quick start
//
// [Run] opens a window and drives a [Game]:
//
//	type game struct{ hero *aspen.Sprite }
//
//	func (g *game) Init(r *aspen.Renderer) error {
//		g.hero = aspen.NewSprite()
//		return g.hero.LoadTexture(r.Resources(), "hero.png")
//	}
//	func (g *game) FixedUpdate(aspen.GameTime) {}
//	func (g *game) Update(gt aspen.GameTime)   { g.hero.X += 60 * gt.DeltaSeconds() }
//	func (g *game) Render(r *aspen.Renderer)   { r.Render(g.hero) }
//
//	aspen.Run(&game{}, aspen.DefaultSettings())
//
// # Devices
//
// A [Renderer] drives a [Device]. [EbitenDevice] draws with Ebitengine and
// Kage shaders; [SoftwareDevice] rasterises on the CPU with
// golang.org/x/image/draw and backs tests and headless tools.
//
// # Resources
//
// A [ResourceManager] hands out [Texture] and [Shader] values with
// generation-checked [Handle]s. Textures loaded by path are cached and
// reference counted; [ResourceManager.Preload] decodes files in parallel.
// Sprites hold handles, so drawing a sprite whose texture was destroyed is
// skipped rather than reading freed memory.
//
// # Pixel buffers
//
// [Texture.Buffer] returns a [PixelBuffer]. [PixelBuffer.Download] marks it
// stale; the bytes land at the next [Renderer.BeginFrame], on
// [Renderer.Sync] or on [PixelBuffer.Wait]. Uploads never change the flag.
//
// # Coordinates
//
// A [Camera] yields a [CameraView], the visible world rectangle. A
// [Viewport] says where on the target it is drawn. A [ResolutionPolicy]
// derives both from the design resolution and the window or bound
// [RenderTarget].
//
// # Batching
//
// Draw calls are recorded, stably sorted by (z, shader, texture) and
// coalesced into one device batch per run of equal shader, texture and
// sampler. Changing target, viewport or projection starts a new segment;
// segments are never reordered.
//
// # Logging
//
// Aspen is silent by default. Install a [log/slog] logger with [SetLogger].
//
// [Ebitengine]: https://ebitengine.org
package aspen
