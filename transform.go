package aspen

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// identityTransform is the identity affine matrix.
var identityTransform = [6]float32{1, 0, 0, 1, 0, 0}

// multiplyAffine multiplies two 2D affine matrices: result = p * c.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float32) [6]float32 {
	return [6]float32{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float32) [6]float32 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-9 && det < 1e-9 {
		return identityTransform
	}
	invDet := 1 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float32{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float32, x, y float32) (float32, float32) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// quadTransform maps a w×h quad whose top-left sits at (x, y) into world
// space. Rotation happens about the quad's midpoint, followed by a uniform
// scale about the same point.
//
//	Translate(mid) * Scale(s) * Rotate(r) * Translate(-w/2, -h/2)
func quadTransform(x, y, w, h, rotation, scale float32) [6]float32 {
	sin, cos := math.Sincos(float64(rotation))
	s32, c32 := float32(sin), float32(cos)
	hw, hh := w/2, h/2
	a := scale * c32
	b := scale * s32
	c := -scale * s32
	d := scale * c32
	tx := x + hw - (a*hw + c*hh)
	ty := y + hh - (b*hw + d*hh)
	return [6]float32{a, b, c, d, tx, ty}
}

// quadCorners returns the four corners of a w×h quad under m, in the order
// top-left, top-right, bottom-right, bottom-left.
func quadCorners(m [6]float32, w, h float32) [4]Point2D {
	var out [4]Point2D
	out[0].X, out[0].Y = transformPoint(m, 0, 0)
	out[1].X, out[1].Y = transformPoint(m, w, 0)
	out[2].X, out[2].Y = transformPoint(m, w, h)
	out[3].X, out[3].Y = transformPoint(m, 0, h)
	return out
}

// viewProjection maps world coordinates inside v onto pixel coordinates
// inside vp. The orthographic step yields normalised device coordinates
// with min Y at the top; the viewport step takes them to pixels.
func viewProjection(v CameraView, vp Viewport) mgl32.Mat4 {
	ortho := mgl32.Ortho2D(v.MinX, v.MaxX, v.MaxY, v.MinY)
	toPixels := mgl32.Translate3D(vp.X+vp.W/2, vp.Y+vp.H/2, 0).
		Mul4(mgl32.Scale3D(vp.W/2, -vp.H/2, 1))
	return toPixels.Mul4(ortho)
}

// project applies a 2D projection built by viewProjection.
func project(m mgl32.Mat4, x, y float32) (float32, float32) {
	p := m.Mul4x1(mgl32.Vec4{x, y, 0, 1})
	return p[0], p[1]
}

// unproject inverts project. A degenerate projection maps everything to the
// origin.
func unproject(m mgl32.Mat4, x, y float32) (float32, float32) {
	if m.Det() == 0 {
		return 0, 0
	}
	return project(m.Inv(), x, y)
}

// projectionFromSlice reads a {minX, maxX, minY, maxY} slice into a view.
func projectionFromSlice(b []float32) (CameraView, error) {
	if len(b) != 4 {
		return CameraView{}, lengthError("projection", 4, len(b))
	}
	return CameraView{MinX: b[0], MaxX: b[1], MinY: b[2], MaxY: b[3]}, nil
}
