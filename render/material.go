package render

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// ShaderScreenTint tints the screen copy published by the decal buffers.
const ShaderScreenTint = "screen_tint"

var shaderSources = map[string][]byte{
	ShaderScreenTint: []byte(`//kage:unit pixels

package main

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	c := imageSrc0At(srcPos)
	return vec4(c.rgb*color.rgb, 1) * color.a
}
`),
}

// Material is what a decal is drawn with. Shader takes precedence over
// Image; a material with neither fills its mesh with Tint.
type Material struct {
	name   string
	Tint   color.Color
	Image  *ebiten.Image
	Shader *ebiten.Shader
}

func NewMaterial(name string, tint color.Color) *Material {
	if tint == nil {
		tint = color.White
	}
	return &Material{name: name, Tint: tint}
}

func (m *Material) Name() string { return m.name }

// colorScale returns the tint as premultiplied floats.
func (m *Material) colorScale() (r, g, b, a float32) {
	tint := m.Tint
	if tint == nil {
		tint = color.White
	}
	cr, cg, cb, ca := tint.RGBA()
	return float32(cr) / 0xffff, float32(cg) / 0xffff, float32(cb) / 0xffff, float32(ca) / 0xffff
}

// CompileShader compiles one of the built-in shaders by name.
func CompileShader(name string) (*ebiten.Shader, error) {
	src, ok := shaderSources[name]
	if !ok {
		return nil, fmt.Errorf("render: unknown shader %q", name)
	}
	sh, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("render: compile %s: %w", name, err)
	}
	return sh, nil
}
