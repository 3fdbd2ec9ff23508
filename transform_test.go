package aspen

import (
	"math"
	"testing"
)

const epsilon = 1e-4

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) < eps
}

func assertNear(t *testing.T, name string, got, want float32) {
	t.Helper()
	if !approxEqual(got, want, epsilon) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float32) {
	t.Helper()
	for i := range got {
		if !approxEqual(got[i], want[i], epsilon) {
			t.Errorf("%s[%d] = %v, want %v (full: %v)", name, i, got[i], want[i], got)
			return
		}
	}
}

func TestMultiplyAffineIdentity(t *testing.T) {
	m := [6]float32{2, 0, 0, 3, 10, 20}
	assertMatrix(t, "I*m", multiplyAffine(identityTransform, m), m)
	assertMatrix(t, "m*I", multiplyAffine(m, identityTransform), m)
}

func TestMultiplyAffineTranslateThenScale(t *testing.T) {
	translate := [6]float32{1, 0, 0, 1, 5, 7}
	scale := [6]float32{2, 0, 0, 2, 0, 0}
	// translate * scale: scale first, then translate.
	m := multiplyAffine(translate, scale)
	x, y := transformPoint(m, 1, 1)
	assertNear(t, "x", x, 7)
	assertNear(t, "y", y, 9)
}

func TestInvertAffine(t *testing.T) {
	m := [6]float32{2, 1, -1, 3, 4, -2}
	inv := invertAffine(m)
	assertMatrix(t, "m*inv", multiplyAffine(m, inv), identityTransform)
}

func TestInvertAffineSingular(t *testing.T) {
	assertMatrix(t, "singular", invertAffine([6]float32{0, 0, 0, 0, 1, 1}), identityTransform)
}

func TestQuadTransformUnrotated(t *testing.T) {
	m := quadTransform(10, 20, 30, 40, 0, 1)
	c := quadCorners(m, 30, 40)
	want := [4]Point2D{{10, 20}, {40, 20}, {40, 60}, {10, 60}}
	for i := range c {
		assertNear(t, "corner x", c[i].X, want[i].X)
		assertNear(t, "corner y", c[i].Y, want[i].Y)
	}
}

func TestQuadTransformRotatesAboutMidpoint(t *testing.T) {
	m := quadTransform(0, 0, 10, 10, math.Pi/2, 1)
	mx, my := transformPoint(m, 5, 5)
	assertNear(t, "mid x", mx, 5)
	assertNear(t, "mid y", my, 5)
	// Top-left swings to top-right under a quarter turn with Y down.
	x, y := transformPoint(m, 0, 0)
	assertNear(t, "tl x", x, 10)
	assertNear(t, "tl y", y, 0)
}

func TestQuadTransformScalesAboutMidpoint(t *testing.T) {
	m := quadTransform(0, 0, 10, 10, 0, 2)
	x, y := transformPoint(m, 0, 0)
	assertNear(t, "tl x", x, -5)
	assertNear(t, "tl y", y, -5)
	x, y = transformPoint(m, 10, 10)
	assertNear(t, "br x", x, 15)
	assertNear(t, "br y", y, 15)
}

func TestViewProjectionMapsViewOntoViewport(t *testing.T) {
	v := CameraView{MinX: -512, MaxX: 512, MinY: -384, MaxY: 384}
	vp := Viewport{X: 0, Y: 0, W: 1024, H: 768}
	m := viewProjection(v, vp)

	tests := []struct {
		name   string
		wx, wy float32
		sx, sy float32
	}{
		{"top-left", -512, -384, 0, 0},
		{"centre", 0, 0, 512, 384},
		{"bottom-right", 512, 384, 1024, 768},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := project(m, tt.wx, tt.wy)
			assertNear(t, "sx", sx, tt.sx)
			assertNear(t, "sy", sy, tt.sy)
			wx, wy := unproject(m, sx, sy)
			assertNear(t, "wx", wx, tt.wx)
			assertNear(t, "wy", wy, tt.wy)
		})
	}
}

func TestAffineFromMat4MatchesProject(t *testing.T) {
	m := viewProjection(CameraView{MinX: 0, MaxX: 800, MinY: 0, MaxY: 600},
		Viewport{X: 100, Y: 50, W: 400, H: 300})
	a := affineFromMat4(m)
	for _, p := range [][2]float32{{0, 0}, {800, 600}, {123, 456}} {
		px, py := project(m, p[0], p[1])
		ax, ay := transformPoint(a, p[0], p[1])
		assertNear(t, "x", ax, px)
		assertNear(t, "y", ay, py)
	}
}

func TestProjectionFromSlice(t *testing.T) {
	v, err := projectionFromSlice([]float32{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if v != (CameraView{MinX: 1, MaxX: 2, MinY: 3, MaxY: 4}) {
		t.Errorf("view = %+v", v)
	}
	if _, err := projectionFromSlice([]float32{1, 2, 3}); err == nil {
		t.Error("expected length error")
	}
}
