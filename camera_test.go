package aspen

import (
	"errors"
	"testing"
	"time"

	"github.com/tanema/gween/ease"
)

func assertView(t *testing.T, got, want CameraView) {
	t.Helper()
	if !approxEqual(got.MinX, want.MinX, epsilon) || !approxEqual(got.MaxX, want.MaxX, epsilon) ||
		!approxEqual(got.MinY, want.MinY, epsilon) || !approxEqual(got.MaxY, want.MaxY, epsilon) {
		t.Errorf("view = %+v, want %+v", got, want)
	}
}

func frameTime(d time.Duration) GameTime {
	return GameTime{Delta: d, FixedDelta: d}
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera(800, 600)
	if c.Zoom() != 1 {
		t.Errorf("Zoom = %v, want 1", c.Zoom())
	}
	if c.Position() != (Point2D{}) {
		t.Errorf("Position = %v, want origin", c.Position())
	}
	if _, ok := c.Bounds(); ok {
		t.Error("new camera should not be clamped")
	}
}

func TestCameraLookAtOrigin(t *testing.T) {
	c := NewCamera(1024, 768)
	c.LookAt(Point2D{})
	assertView(t, c.View(), CameraView{MinX: -512, MaxX: 512, MinY: -384, MaxY: 384})
}

func TestCameraZoomWidensView(t *testing.T) {
	c := NewCameraAt(Point2D{X: 100, Y: 100}, 200, 100)
	if err := c.SetZoom(2); err != nil {
		t.Fatal(err)
	}
	assertView(t, c.View(), CameraView{MinX: -100, MaxX: 300, MinY: 0, MaxY: 200})
}

func TestCameraSetZoomRejectsNonPositive(t *testing.T) {
	c := NewCamera(10, 10)
	for _, z := range []float32{0, -1} {
		if err := c.SetZoom(z); !errors.Is(err, ErrInvalidZoom) {
			t.Errorf("SetZoom(%v) err = %v, want ErrInvalidZoom", z, err)
		}
	}
	if c.Zoom() != 1 {
		t.Errorf("Zoom changed to %v after rejected SetZoom", c.Zoom())
	}
}

func TestCameraTranslateZFloorsAtMinZoom(t *testing.T) {
	c := NewCamera(10, 10)
	c.TranslateZ(-5)
	if c.Zoom() != MinZoom {
		t.Errorf("Zoom = %v, want %v", c.Zoom(), MinZoom)
	}
}

func TestCameraTranslate(t *testing.T) {
	c := NewCamera(10, 10)
	c.Translate(3, 4, 0.5)
	c.TranslateX(1)
	c.TranslateY(-1)
	if p := c.Position(); p != (Point2D{X: 4, Y: 3}) {
		t.Errorf("Position = %v, want {4 3}", p)
	}
	assertNear(t, "zoom", c.Zoom(), 1.5)
}

func TestCameraClampTranslatesWithoutResizing(t *testing.T) {
	c := NewCamera(100, 100)
	c.Clamp(CameraView{MinX: 0, MaxX: 1000, MinY: 0, MaxY: 1000})

	tests := []struct {
		name  string
		focal Point2D
		want  CameraView
	}{
		{"inside", Point2D{X: 500, Y: 500}, CameraView{MinX: 450, MaxX: 550, MinY: 450, MaxY: 550}},
		{"past min", Point2D{X: -50, Y: 10}, CameraView{MinX: 0, MaxX: 100, MinY: 0, MaxY: 100}},
		{"past max", Point2D{X: 990, Y: 2000}, CameraView{MinX: 900, MaxX: 1000, MinY: 900, MaxY: 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.LookAt(tt.focal)
			v := c.View()
			assertView(t, v, tt.want)
			assertNear(t, "width", v.Width(), 100)
			assertNear(t, "height", v.Height(), 100)
		})
	}
}

func TestCameraClampCentresOversizedView(t *testing.T) {
	c := NewCameraAt(Point2D{X: 0, Y: 40}, 200, 50)
	c.Clamp(CameraView{MinX: 0, MaxX: 100, MinY: 0, MaxY: 100})
	// Wider than the bounds on X: centred. Fits on Y: translated.
	assertView(t, c.View(), CameraView{MinX: -50, MaxX: 150, MinY: 15, MaxY: 65})
}

func TestCameraClampNormalisesBounds(t *testing.T) {
	c := NewCamera(10, 10)
	c.Clamp(CameraView{MinX: 100, MaxX: 0, MinY: 50, MaxY: 0})
	b, ok := c.Bounds()
	if !ok {
		t.Fatal("expected clamp")
	}
	if b != (CameraView{MinX: 0, MaxX: 100, MinY: 0, MaxY: 50}) {
		t.Errorf("bounds = %+v", b)
	}
	c.ClearClamp()
	if _, ok := c.Bounds(); ok {
		t.Error("ClearClamp left clamping on")
	}
}

func TestCameraClampSliceLength(t *testing.T) {
	c := NewCamera(10, 10)
	if err := c.ClampSlice([]float32{0, 1, 2}); !errors.Is(err, ErrLength) {
		t.Errorf("err = %v, want ErrLength", err)
	}
	if err := c.ClampSlice([]float32{0, 100, 0, 100}); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestCameraScreenWorldRoundTrip(t *testing.T) {
	c := NewCameraAt(Point2D{X: 250, Y: -40}, 400, 300)
	if err := c.SetZoom(1.5); err != nil {
		t.Fatal(err)
	}
	vp := Viewport{X: 20, Y: 10, W: 800, H: 600}

	sx, sy := c.WorldToScreen(vp, c.Position())
	assertNear(t, "centre sx", sx, 420)
	assertNear(t, "centre sy", sy, 310)

	for _, p := range []Point2D{{0, 0}, {250, -40}, {-100, 77}} {
		sx, sy := c.WorldToScreen(vp, p)
		got := c.ScreenToWorld(vp, sx, sy)
		if !approxEqual(got.X, p.X, 1e-2) || !approxEqual(got.Y, p.Y, 1e-2) {
			t.Errorf("round trip %v -> (%v, %v) -> %v", p, sx, sy, got)
		}
	}
}

func TestCameraViewHelpers(t *testing.T) {
	v := CameraView{MinX: 0, MaxX: 10, MinY: 0, MaxY: 20}
	if v.Centre() != (Point2D{X: 5, Y: 10}) {
		t.Errorf("Centre = %v", v.Centre())
	}
	if !v.Contains(Point2D{X: 10, Y: 20}) {
		t.Error("edges should be contained")
	}
	if v.Intersects(CameraView{MinX: 10, MaxX: 20, MinY: 0, MaxY: 20}) {
		t.Error("touching views should not intersect")
	}
	if !v.Intersects(CameraView{MinX: 5, MaxX: 20, MinY: 5, MaxY: 6}) {
		t.Error("overlapping views should intersect")
	}
}

func TestScrollBehaviorArrives(t *testing.T) {
	c := NewCamera(100, 100)
	s := ScrollTo(c, Point2D{X: 100, Y: -50}, 1, ease.Linear)
	if c.Behavior() != s {
		t.Fatal("ScrollTo did not install the behaviour")
	}

	c.Update(frameTime(500 * time.Millisecond))
	p := c.Position()
	assertNear(t, "halfway x", p.X, 50)
	assertNear(t, "halfway y", p.Y, -25)
	if s.Done() {
		t.Error("Done before duration elapsed")
	}

	c.Update(frameTime(600 * time.Millisecond))
	if !s.Done() {
		t.Error("not Done after duration elapsed")
	}
	if p := c.Position(); p != (Point2D{X: 100, Y: -50}) {
		t.Errorf("final position = %v", p)
	}

	c.LookAt(Point2D{X: 7, Y: 7})
	c.Update(frameTime(time.Second))
	if p := c.Position(); p != (Point2D{X: 7, Y: 7}) {
		t.Errorf("finished scroll moved the camera to %v", p)
	}
}

func TestScrollBehaviorNilEaseIsLinear(t *testing.T) {
	c := NewCamera(10, 10)
	ScrollTo(c, Point2D{X: 10}, 2, nil)
	c.Update(frameTime(time.Second))
	assertNear(t, "x", c.Position().X, 5)
}

func TestFollowBehavior(t *testing.T) {
	target := Point2D{X: 100, Y: 200}
	c := NewCamera(10, 10)
	c.SetBehavior(&FollowBehavior{
		Target: func() Point2D { return target },
		Offset: Point2D{X: 0, Y: -100},
		Lerp:   0.5,
	})
	c.Update(frameTime(time.Millisecond))
	if p := c.Position(); p != (Point2D{X: 50, Y: 50}) {
		t.Errorf("after one step = %v, want {50 50}", p)
	}
	c.Update(frameTime(time.Millisecond))
	if p := c.Position(); p != (Point2D{X: 75, Y: 75}) {
		t.Errorf("after two steps = %v, want {75 75}", p)
	}

	c.SetBehavior(nil)
	c.Update(frameTime(time.Millisecond))
	if p := c.Position(); p != (Point2D{X: 75, Y: 75}) {
		t.Errorf("camera without behaviour moved to %v", p)
	}
}
