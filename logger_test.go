package aspen

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { SetLogger(nil) })

	r, _ := newTestRenderer(t, 8, 8)
	tex := whiteTexture(t, r)
	s := newTestSprite(t, tex, 0, 0, 1, 1)
	tex.Destroy()
	beginFrame(t, r)
	r.Render(s)
	endFrame(t, r)
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("log output = %q, want a warning", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("the default logger should be silent")
	}
}
