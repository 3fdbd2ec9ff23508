package aspen

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const testShaderSource = `//kage:unit pixels
package main

var alpha float
var Flag bool
var Count int
var Centre vec2
var Tint, Glow vec4
var Mask bvec2
var Rot mat2
var Xform mat4
var Weights [4]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	return imageSrc0At(src) * color * alpha
}
`

func TestParseUniforms(t *testing.T) {
	decls, err := parseUniforms([]byte(testShaderSource))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]UniformKind{
		"alpha":  KindFloat,
		"Flag":   KindBool,
		"Count":  KindInt,
		"Centre": KindVec2,
		"Tint":   KindVec4,
		"Glow":   KindVec4,
		"Mask":   KindBVec2,
		"Rot":    KindMat2,
		"Xform":  KindMat4,
	}
	if len(decls) != len(want) {
		t.Fatalf("got %d uniforms, want %d: %v", len(decls), len(want), decls)
	}
	for _, d := range decls {
		if want[d.name] != d.kind {
			t.Errorf("%s: kind %s, want %s", d.name, d.kind, want[d.name])
		}
	}
}

func TestParseUniformsBuiltins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"alpha", AlphaShaderSource, []string{"Alpha"}},
		{"greyscale", GreyscaleShaderSource, []string{"Amount", "Invert"}},
		{"colour matrix", ColorMatrixShaderSource, []string{"Matrix", "Offset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decls, err := parseUniforms([]byte(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			s := newShader(1, decls)
			got := s.Uniforms()
			if len(got) != len(tt.want) {
				t.Fatalf("uniforms = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("uniforms = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestParseUniformsSyntaxError(t *testing.T) {
	if _, err := parseUniforms([]byte("package main\nvar x float =")); err == nil {
		t.Error("expected parse error")
	}
}

func TestUniformTypeMismatchKeepsValue(t *testing.T) {
	decls, err := parseUniforms([]byte(testShaderSource))
	if err != nil {
		t.Fatal(err)
	}
	s := newShader(1, decls)
	if err := s.Set("alpha", Float(0.5)); err != nil {
		t.Fatal(err)
	}
	err = s.Set("alpha", Bool(true))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("err = %v, want ErrTypeMismatch", err)
	}
	var te *UniformTypeError
	if !errors.As(err, &te) || te.Name != "alpha" || te.Want != KindFloat || te.Got != KindBool {
		t.Errorf("type error = %+v", te)
	}
	u, _ := s.Uniform("alpha")
	if u.Value() != Float(0.5) {
		t.Errorf("value = %v, want 0.5", u.Value())
	}
	if err := u.Set(nil); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("nil value err = %v", err)
	}
}

func TestUniformUnknownName(t *testing.T) {
	s := newShader(1, nil)
	if _, err := s.Uniform("missing"); !errors.Is(err, ErrUnknownUniform) {
		t.Errorf("err = %v, want ErrUnknownUniform", err)
	}
	if err := s.Set("missing", Int(1)); !errors.Is(err, ErrUnknownUniform) {
		t.Errorf("Set err = %v, want ErrUnknownUniform", err)
	}
}

func TestUniformZeroValues(t *testing.T) {
	decls, _ := parseUniforms([]byte(testShaderSource))
	s := newShader(1, decls)
	rot, _ := s.Uniform("Rot")
	if rot.Value() != Mat2(mgl32.Ident2()) {
		t.Errorf("mat2 zero = %v, want identity", rot.Value())
	}
	tint, _ := s.Uniform("Tint")
	if tint.Value() != (Vec4{}) || tint.Kind() != KindVec4 || tint.Name() != "Tint" {
		t.Errorf("vec4 uniform = %s %s %v", tint.Name(), tint.Kind(), tint.Value())
	}
}

func TestUniformSetEveryKind(t *testing.T) {
	decls, _ := parseUniforms([]byte(testShaderSource))
	s := newShader(1, decls)
	values := map[string]UniformValue{
		"alpha":  Float(1),
		"Flag":   Bool(true),
		"Count":  Int(3),
		"Centre": Vec2{1, 2},
		"Tint":   Vec4{1, 0, 0, 1},
		"Mask":   BVec2{true, false},
		"Rot":    Mat2{0, 1, -1, 0},
		"Xform":  Mat4(mgl32.Translate3D(1, 2, 0)),
	}
	for name, v := range values {
		if err := s.Set(name, v); err != nil {
			t.Errorf("Set(%s): %v", name, err)
		}
	}
	snap := s.snapshot()
	for name, v := range values {
		if snap[name] != v {
			t.Errorf("snapshot[%s] = %v, want %v", name, snap[name], v)
		}
	}
}

func TestShaderArg(t *testing.T) {
	if shaderArg(Bool(true)) != int32(1) || shaderArg(Bool(false)) != int32(0) {
		t.Error("bools should travel as integers")
	}
	if shaderArg(Float(0.5)) != float32(0.5) {
		t.Error("float conversion")
	}
	if got := shaderArg(BVec2{false, true}).([]int32); got[0] != 0 || got[1] != 1 {
		t.Errorf("bvec2 = %v", got)
	}
	if got := shaderArg(Vec3{1, 2, 3}).([]float32); len(got) != 3 || got[2] != 3 {
		t.Errorf("vec3 = %v", got)
	}
}

func TestCompileShaderRegistersUniforms(t *testing.T) {
	r, _ := newTestRenderer(t, 8, 8)
	s, err := r.InitPixelShader(GreyscaleShaderSource)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID() == 0 || s.Handle().IsZero() {
		t.Errorf("id %d handle %+v", s.ID(), s.Handle())
	}
	if err := s.Set("Invert", Bool(true)); err != nil {
		t.Error(err)
	}
	if err := s.Set("Amount", Int(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
	if _, err := r.InitPixelShader("not go at all {"); err == nil {
		t.Error("expected compile error")
	}
}
