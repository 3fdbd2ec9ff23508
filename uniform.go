package aspen

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformKind is the declared type of a shader uniform.
type UniformKind uint8

const (
	KindBool UniformKind = iota + 1
	KindInt
	KindFloat
	KindBVec2
	KindVec2
	KindVec3
	KindVec4
	KindMat2
	KindMat4
)

var kindNames = map[UniformKind]string{
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindBVec2: "bvec2",
	KindVec2:  "vec2",
	KindVec3:  "vec3",
	KindVec4:  "vec4",
	KindMat2:  "mat2",
	KindMat4:  "mat4",
}

func (k UniformKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("UniformKind(%d)", uint8(k))
}

// parseKind maps a Kage type name to a kind.
func parseKind(name string) (UniformKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// UniformValue is the closed set of values a uniform can hold. The concrete
// types are Bool, Int, Float, BVec2, Vec2, Vec3, Vec4, Mat2 and Mat4.
type UniformValue interface {
	Kind() UniformKind
	isUniformValue()
}

type (
	Bool  bool
	Int   int32
	Float float32
	BVec2 [2]bool
	Vec2  mgl32.Vec2
	Vec3  mgl32.Vec3
	Vec4  mgl32.Vec4
	Mat2  mgl32.Mat2
	Mat4  mgl32.Mat4
)

func (Bool) Kind() UniformKind  { return KindBool }
func (Int) Kind() UniformKind   { return KindInt }
func (Float) Kind() UniformKind { return KindFloat }
func (BVec2) Kind() UniformKind { return KindBVec2 }
func (Vec2) Kind() UniformKind  { return KindVec2 }
func (Vec3) Kind() UniformKind  { return KindVec3 }
func (Vec4) Kind() UniformKind  { return KindVec4 }
func (Mat2) Kind() UniformKind  { return KindMat2 }
func (Mat4) Kind() UniformKind  { return KindMat4 }

func (Bool) isUniformValue()  {}
func (Int) isUniformValue()   {}
func (Float) isUniformValue() {}
func (BVec2) isUniformValue() {}
func (Vec2) isUniformValue()  {}
func (Vec3) isUniformValue()  {}
func (Vec4) isUniformValue()  {}
func (Mat2) isUniformValue()  {}
func (Mat4) isUniformValue()  {}

// zeroValue returns the value a freshly declared uniform holds. Matrices
// start as identity.
func zeroValue(k UniformKind) UniformValue {
	switch k {
	case KindBool:
		return Bool(false)
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	case KindBVec2:
		return BVec2{}
	case KindVec2:
		return Vec2{}
	case KindVec3:
		return Vec3{}
	case KindVec4:
		return Vec4{}
	case KindMat2:
		return Mat2(mgl32.Ident2())
	case KindMat4:
		return Mat4(mgl32.Ident4())
	default:
		return nil
	}
}

// shaderArg converts a value to the form ebiten expects in
// DrawTrianglesShaderOptions.Uniforms. Booleans travel as integers.
func shaderArg(v UniformValue) any {
	switch v := v.(type) {
	case Bool:
		if v {
			return int32(1)
		}
		return int32(0)
	case Int:
		return int32(v)
	case Float:
		return float32(v)
	case BVec2:
		out := make([]int32, 2)
		for i, b := range v {
			if b {
				out[i] = 1
			}
		}
		return out
	case Vec2:
		return v[:]
	case Vec3:
		return v[:]
	case Vec4:
		return v[:]
	case Mat2:
		return v[:]
	case Mat4:
		return v[:]
	default:
		return nil
	}
}

// Uniform is a typed handle on one shader uniform.
type Uniform struct {
	name  string
	kind  UniformKind
	value UniformValue
}

// Name returns the uniform's declared name.
func (u *Uniform) Name() string { return u.name }

// Kind returns the declared type.
func (u *Uniform) Kind() UniformKind { return u.kind }

// Value returns the stored value.
func (u *Uniform) Value() UniformValue { return u.value }

// Set stores v. A value of the wrong kind is rejected with a
// *UniformTypeError and the stored value is left untouched.
func (u *Uniform) Set(v UniformValue) error {
	if v == nil {
		return &UniformTypeError{Name: u.name, Want: u.kind}
	}
	var ok bool
	switch v.(type) {
	case Bool:
		ok = u.kind == KindBool
	case Int:
		ok = u.kind == KindInt
	case Float:
		ok = u.kind == KindFloat
	case BVec2:
		ok = u.kind == KindBVec2
	case Vec2:
		ok = u.kind == KindVec2
	case Vec3:
		ok = u.kind == KindVec3
	case Vec4:
		ok = u.kind == KindVec4
	case Mat2:
		ok = u.kind == KindMat2
	case Mat4:
		ok = u.kind == KindMat4
	}
	if !ok {
		return &UniformTypeError{Name: u.name, Want: u.kind, Got: v.Kind()}
	}
	u.value = v
	return nil
}
