package aspen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
)

// Built-in Kage programs. All use pixel units and premultiplied colour.

// AlphaShaderSource scales the sampled colour by the Alpha uniform.
const AlphaShaderSource = `//kage:unit pixels
package main

var Alpha float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	return imageSrc0At(src) * color * Alpha
}
`

// GreyscaleShaderSource converts to luminance, mixed by Amount. Invert
// flips the result when set.
const GreyscaleShaderSource = `//kage:unit pixels
package main

var Amount float
var Invert bool

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src) * color
	if c.a > 0 {
		c.rgb /= c.a
	}
	lum := 0.299*c.r + 0.587*c.g + 0.114*c.b
	rgb := mix(c.rgb, vec3(lum), Amount)
	if Invert != 0 {
		rgb = 1 - rgb
	}
	return vec4(rgb*c.a, c.a)
}
`

// ColorMatrixShaderSource applies a 4×4 colour matrix plus an offset.
const ColorMatrixShaderSource = `//kage:unit pixels
package main

var Matrix mat4
var Offset vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src) * color
	if c.a > 0 {
		c.rgb /= c.a
	}
	c = clamp(Matrix*c+Offset, 0, 1)
	return vec4(c.rgb*c.a, c.a)
}
`

// uniformDecl is one top-level uniform found in a shader source.
type uniformDecl struct {
	name string
	kind UniformKind
}

// parseUniforms lists the top-level `var Name type` declarations of a Kage
// program. Kage is Go syntax, so the Go parser reads it directly. Arrays and
// other unsupported types are skipped.
func parseUniforms(src []byte) ([]uniformDecl, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "shader.kage", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("aspen: parse shader: %w", err)
	}
	var out []uniformDecl
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			ident, ok := vs.Type.(*ast.Ident)
			if !ok {
				Logger().Debug("aspen: skipping uniform with composite type",
					"names", len(vs.Names))
				continue
			}
			kind, ok := parseKind(ident.Name)
			if !ok {
				Logger().Debug("aspen: skipping uniform with unsupported type", "type", ident.Name)
				continue
			}
			for _, n := range vs.Names {
				out = append(out, uniformDecl{name: n.Name, kind: kind})
			}
		}
	}
	return out, nil
}

// Shader is a compiled fragment program plus its uniform store. The zero
// id is the device's default pipeline.
type Shader struct {
	id        uint32
	handle    Handle
	uniforms  map[string]*Uniform
	destroyed bool
}

func newShader(id uint32, decls []uniformDecl) *Shader {
	s := &Shader{id: id, uniforms: make(map[string]*Uniform, len(decls))}
	for _, d := range decls {
		s.uniforms[d.name] = &Uniform{name: d.name, kind: d.kind, value: zeroValue(d.kind)}
	}
	return s
}

// ID returns the device shader id.
func (s *Shader) ID() uint32 { return s.id }

// Handle returns the shader's resource handle.
func (s *Shader) Handle() Handle { return s.handle }

// Uniform returns the typed handle for name.
func (s *Shader) Uniform(name string) (*Uniform, error) {
	u, ok := s.uniforms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUniform, name)
	}
	return u, nil
}

// Set is shorthand for Uniform(name) followed by Set(v).
func (s *Shader) Set(name string, v UniformValue) error {
	u, err := s.Uniform(name)
	if err != nil {
		return err
	}
	return u.Set(v)
}

// Uniforms returns the declared uniform names in sorted order. Callers
// should not depend on the order.
func (s *Shader) Uniforms() []string {
	names := make([]string, 0, len(s.uniforms))
	for n := range s.uniforms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// snapshot copies the current values for one batch.
func (s *Shader) snapshot() map[string]UniformValue {
	if len(s.uniforms) == 0 {
		return nil
	}
	out := make(map[string]UniformValue, len(s.uniforms))
	for n, u := range s.uniforms {
		out[n] = u.value
	}
	return out
}
