package main

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/milk9111/forwarddecals/decal"
	"github.com/milk9111/forwarddecals/ecs"
	"github.com/milk9111/forwarddecals/motion"
	"github.com/milk9111/forwarddecals/prefabs"
	"github.com/milk9111/forwarddecals/render"
)

var (
	errUnknownCamera = errors.New("unknown camera")
	errUnknownMesh   = errors.New("unknown mesh")
)

// scene is everything built from one system spec. Cameras and the
// registry outlive it so a reload only rebuilds the scene.
type scene struct {
	spec   prefabs.SystemSpec
	world  *ecs.World
	system *decal.System
	motion *motion.System
	decals []*decal.Decal
}

func buildScene(spec prefabs.SystemSpec, cameras map[string]*render.Camera, reg *render.Registry) (*scene, error) {
	cfg, err := systemConfig(spec, cameras)
	if err != nil {
		return nil, err
	}

	for _, m := range spec.Materials {
		mat, err := buildMaterial(m, reg)
		if err != nil {
			return nil, err
		}
		reg.RegisterMaterial(mat)
	}

	w := ecs.NewWorld()
	s := &scene{
		world:  w,
		motion: motion.NewSystem(motion.DefaultStep),
		spec:   spec,
		system: decal.NewSystem(render.CubeFactory{}, cfg),
	}

	for _, ds := range spec.Decals {
		d, err := s.buildDecal(ds, reg)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("decal %q: %w", ds.Name, err)
		}
		s.decals = append(s.decals, d)
	}

	w.AddSystem(s.motion)
	w.AddSystem(s.system)
	if err := s.system.Activate(); err != nil {
		return nil, err
	}
	return s, nil
}

// systemConfig resolves the camera bindings of spec against the host cameras.
func systemConfig(spec prefabs.SystemSpec, cameras map[string]*render.Camera) (decal.Config, error) {
	bindings := make([]decal.CameraBinding, 0, len(spec.Cameras))
	for _, c := range spec.Cameras {
		cam, ok := cameras[c.Camera]
		if !ok {
			return decal.Config{}, fmt.Errorf("%w %q", errUnknownCamera, c.Camera)
		}
		b, err := c.Binding(cam)
		if err != nil {
			return decal.Config{}, err
		}
		bindings = append(bindings, b)
	}
	return decal.Config{
		Cameras:          bindings,
		Debug:            spec.Debug,
		UpdateStaticLive: spec.UpdateStaticLive,
	}, nil
}

// sameContent reports whether a and b describe the same materials and
// decals, so a reload only needs new camera bindings and flags.
func sameContent(a, b prefabs.SystemSpec) bool {
	return reflect.DeepEqual(a.Materials, b.Materials) && reflect.DeepEqual(a.Decals, b.Decals)
}

func buildMaterial(m prefabs.MaterialSpec, reg *render.Registry) (*render.Material, error) {
	mat := render.NewMaterial(m.Name, m.Tint())
	if m.Image != "" {
		img, err := reg.LoadImage(m.Image)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", m.Name, err)
		}
		mat.Image = img
	}
	if m.Shader != "" {
		sh, err := reg.Shader(m.Shader)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", m.Name, err)
		}
		mat.Shader = sh
	}
	return mat, nil
}

func (s *scene) buildDecal(ds prefabs.DecalSpec, reg *render.Registry) (*decal.Decal, error) {
	var mat decal.Material
	if ds.Material != "" {
		if m, ok := reg.Material(ds.Material); ok {
			mat = m
		}
	}
	d := decal.New(s.world, ds.Name, mat)
	if ds.Mesh != "" {
		m, ok := reg.Mesh(ds.Mesh)
		if !ok {
			return nil, fmt.Errorf("%w %q", errUnknownMesh, ds.Mesh)
		}
		d.Mesh = m
	}
	d.Static = ds.IsStatic()
	d.Enabled = ds.IsEnabled()
	d.Transform = ds.Transform.Matrix()

	drivers, err := motion.Drivers(ds.Motion)
	if err != nil {
		return nil, err
	}
	s.motion.Track(d, drivers...)
	d.Attach(s.system)
	return d, nil
}

// dynamicDecals returns the decals currently in the dynamic batch.
func (s *scene) dynamicDecals() []*decal.Decal {
	return s.system.Batches().Dynamic().Decals()
}

// takeOver closes old and reattaches s to the cameras. Every scene attaches
// buffers under the same names, so closing old also detaches those of s.
func (s *scene) takeOver(old *scene) {
	if old != nil {
		old.close()
	}
	s.system.Reassign()
}

func (s *scene) close() {
	s.system.Destroy()
	for _, d := range s.decals {
		s.world.DestroyEntity(d.Entity())
	}
	s.decals = nil
}
