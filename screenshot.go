package aspen

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WindowReader is implemented by devices that can read back the window.
type WindowReader interface {
	ReadWindow() (image.Image, error)
}

// ReadWindow implements WindowReader.
func (d *SoftwareDevice) ReadWindow() (image.Image, error) {
	if d.lost != nil {
		return nil, d.lost
	}
	out := image.NewRGBA(d.window.Bounds())
	copy(out.Pix, d.window.Pix)
	return out, nil
}

// ReadWindow implements WindowReader. It is only valid while a frame's
// screen is installed.
func (d *EbitenDevice) ReadWindow() (image.Image, error) {
	if err := d.Ready(); err != nil {
		return nil, err
	}
	screen, err := d.target(0)
	if err != nil {
		return nil, err
	}
	b := screen.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, 4*w*h)
	screen.ReadPixels(pixels)
	rgba := &image.RGBA{Pix: pixels, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	return rgba, nil
}

// Screenshot queues a labelled capture of the window, taken after the
// frame's last flush in EndFrame. Files go to GameSettings.ScreenshotDir as
// <timestamp>_<label>.png.
func (r *Renderer) Screenshot(label string) {
	r.screenshots = append(r.screenshots, label)
}

// flushScreenshots writes every queued capture.
func (r *Renderer) flushScreenshots() {
	if len(r.screenshots) == 0 {
		return
	}
	defer func() { r.screenshots = r.screenshots[:0] }()

	wr, ok := r.dev.(WindowReader)
	if !ok {
		Logger().Warn("aspen: screenshot: device cannot read the window", "device", r.dev.Name())
		return
	}
	img, err := wr.ReadWindow()
	if err != nil {
		Logger().Warn("aspen: screenshot", "error", err)
		return
	}
	dir := r.settings.ScreenshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		Logger().Warn("aspen: screenshot: mkdir", "dir", dir, "error", err)
		return
	}
	stamp := time.Now().Format("20060102_150405")
	for _, label := range r.screenshots {
		p := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(p, img); err != nil {
			Logger().Warn("aspen: screenshot", "error", err)
			continue
		}
		Logger().Info("aspen: screenshot written", "path", p)
	}
}

// WritePNG encodes the texture's level 0 as a PNG.
func (t *Texture) WritePNG(w io.Writer) error {
	img, err := t.Image()
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("aspen: encode png: %w", err)
	}
	return nil
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
