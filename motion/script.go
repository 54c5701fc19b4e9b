package motion

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/forwarddecals/prefabs"
)

// Script is a tengo program that reads `elapsed` (seconds) and `params` and
// assigns `offset_x`, `offset_y` and `offset_z`.
type Script struct {
	path     string
	compiled *tengo.Compiled
}

// NewScript loads and compiles the named script.
func NewScript(name string, params map[string]float64) (*Script, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, err
	}
	return CompileScript(name, src, params)
}

// CompileScript compiles src with the given params bound.
func CompileScript(name string, src []byte, params map[string]float64) (*Script, error) {
	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	p := make(map[string]any, len(params))
	for k, v := range params {
		p[k] = v
	}
	for name, value := range map[string]any{
		"elapsed":  0.0,
		"params":   p,
		"offset_x": 0.0,
		"offset_y": 0.0,
		"offset_z": 0.0,
	} {
		if err := script.Add(name, value); err != nil {
			return nil, err
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}
	return &Script{path: name, compiled: compiled}, nil
}

// Path returns the script name it was loaded from.
func (s *Script) Path() string {
	return s.path
}

func (s *Script) Offset(t float64) (mgl32.Vec3, error) {
	if s == nil || s.compiled == nil {
		return mgl32.Vec3{}, fmt.Errorf("nil script runtime")
	}
	if err := s.compiled.Set("elapsed", t); err != nil {
		return mgl32.Vec3{}, err
	}
	if err := s.compiled.Run(); err != nil {
		return mgl32.Vec3{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return mgl32.Vec3{
		float32(s.compiled.Get("offset_x").Float()),
		float32(s.compiled.Get("offset_y").Float()),
		float32(s.compiled.Get("offset_z").Float()),
	}, nil
}
