package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/forwarddecals/decal"
	"gopkg.in/yaml.v3"
)

var (
	ErrDuplicateName   = errors.New("prefabs: duplicate name")
	ErrUnknownMaterial = errors.New("prefabs: unknown material")
	ErrMissingName     = errors.New("prefabs: missing name")
	ErrInvalidColor    = errors.New("invalid color")
)

// LoadSpec loads filename with Load and decodes it into a T.
func LoadSpec[T any](filename string) (T, error) {
	var spec T
	data, err := Load(filename)
	if err != nil {
		return spec, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		var zero T
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	return spec, nil
}

// SystemSpec configures one decal system and the decals it starts with.
type SystemSpec struct {
	Debug            bool                `yaml:"debug"`
	UpdateStaticLive bool                `yaml:"update_static_live"`
	Cameras          []CameraBindingSpec `yaml:"cameras"`
	Materials        []MaterialSpec      `yaml:"materials"`
	Decals           []DecalSpec         `yaml:"decals"`
}

// LoadSystemSpec loads and validates a system spec.
func LoadSystemSpec(filename string) (SystemSpec, error) {
	spec, err := LoadSpec[SystemSpec](filename)
	if err != nil {
		return SystemSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return SystemSpec{}, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

// Validate checks names and cross references.
func (s SystemSpec) Validate() error {
	materials := make(map[string]bool, len(s.Materials))
	for i, m := range s.Materials {
		if m.Name == "" {
			return fmt.Errorf("material %d: %w", i, ErrMissingName)
		}
		if materials[m.Name] {
			return fmt.Errorf("material %q: %w", m.Name, ErrDuplicateName)
		}
		materials[m.Name] = true
	}

	decals := make(map[string]bool, len(s.Decals))
	for i, d := range s.Decals {
		if d.Name == "" {
			return fmt.Errorf("decal %d: %w", i, ErrMissingName)
		}
		if decals[d.Name] {
			return fmt.Errorf("decal %q: %w", d.Name, ErrDuplicateName)
		}
		decals[d.Name] = true
		if d.Material != "" && !materials[d.Material] {
			return fmt.Errorf("decal %q: %w %q", d.Name, ErrUnknownMaterial, d.Material)
		}
	}

	for i, c := range s.Cameras {
		if c.Camera == "" {
			return fmt.Errorf("camera binding %d: %w", i, ErrMissingName)
		}
		if _, err := c.CameraEvent(); err != nil {
			return fmt.Errorf("camera binding %d: %w", i, err)
		}
	}
	return nil
}

// CameraBindingSpec attaches the decal buffers to a named camera.
// RenderStatic and RenderDynamic default to true.
type CameraBindingSpec struct {
	Camera        string `yaml:"camera"`
	Event         string `yaml:"event"`
	RenderStatic  *bool  `yaml:"render_static"`
	RenderDynamic *bool  `yaml:"render_dynamic"`
}

// CameraEvent parses Event, defaulting to after_everything.
func (c CameraBindingSpec) CameraEvent() (decal.CameraEvent, error) {
	if c.Event == "" {
		return decal.AfterEverything, nil
	}
	return decal.ParseCameraEvent(c.Event)
}

// Binding resolves the spec against a camera supplied by the host.
func (c CameraBindingSpec) Binding(cam decal.Camera) (decal.CameraBinding, error) {
	ev, err := c.CameraEvent()
	if err != nil {
		return decal.CameraBinding{}, err
	}
	return decal.CameraBinding{
		Camera:        cam,
		Event:         ev,
		RenderStatic:  boolOr(c.RenderStatic, true),
		RenderDynamic: boolOr(c.RenderDynamic, true),
	}, nil
}

type MaterialSpec struct {
	Name   string     `yaml:"name"`
	Color  *YAMLColor `yaml:"color"`
	Image  string     `yaml:"image"`
	Shader string     `yaml:"shader"`
}

// Tint returns the material color, white when unset.
func (m MaterialSpec) Tint() color.Color {
	if m.Color == nil || m.Color.Color == nil {
		return color.White
	}
	return m.Color.Color
}

// DecalSpec describes one decal. Static and Enabled default to true; an
// empty Mesh uses the fallback cube.
type DecalSpec struct {
	Name      string        `yaml:"name"`
	Material  string        `yaml:"material"`
	Mesh      string        `yaml:"mesh"`
	Static    *bool         `yaml:"static"`
	Enabled   *bool         `yaml:"enabled"`
	Transform TransformSpec `yaml:"transform"`
	Motion    *MotionSpec   `yaml:"motion"`
}

func (d DecalSpec) IsStatic() bool  { return boolOr(d.Static, true) }
func (d DecalSpec) IsEnabled() bool { return boolOr(d.Enabled, true) }

type TransformSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Z        float64 `yaml:"z"`
	ScaleX   float64 `yaml:"scale_x"`
	ScaleY   float64 `yaml:"scale_y"`
	ScaleZ   float64 `yaml:"scale_z"`
	Rotation float64 `yaml:"rotation"`
}

// Matrix returns translate * rotateZ * scale. A zero scale axis means 1.
func (t TransformSpec) Matrix() mgl32.Mat4 {
	sx, sy, sz := t.ScaleX, t.ScaleY, t.ScaleZ
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if sz == 0 {
		sz = 1
	}
	return mgl32.Translate3D(float32(t.X), float32(t.Y), float32(t.Z)).
		Mul4(mgl32.HomogRotate3DZ(float32(t.Rotation))).
		Mul4(mgl32.Scale3D(float32(sx), float32(sy), float32(sz)))
}

// MotionSpec animates a dynamic decal. Bob and Script may be combined.
type MotionSpec struct {
	Bob    *BobSpec           `yaml:"bob"`
	Script string             `yaml:"script"`
	Params map[string]float64 `yaml:"params"`
}

type BobSpec struct {
	Direction [3]float64 `yaml:"direction"`
	Distance  float64    `yaml:"distance"`
	Speed     float64    `yaml:"speed"`
}

// YAMLColor parses "#rrggbb" or "#rrggbbaa".
type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("prefabs: line %d: %w: want a string", value.Line, ErrInvalidColor)
	}

	hex := strings.TrimPrefix(value.Value, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return fmt.Errorf("prefabs: %w %q", ErrInvalidColor, value.Value)
	}

	channels := [4]uint8{3: 0xff}
	for i := 0; i*2 < len(hex); i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return fmt.Errorf("prefabs: %w %q: %w", ErrInvalidColor, value.Value, err)
		}
		channels[i] = uint8(v)
	}

	c.Color = color.NRGBA{R: channels[0], G: channels[1], B: channels[2], A: channels[3]}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
