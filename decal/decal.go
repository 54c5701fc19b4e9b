// Package decal batches decal draws into two recorded command buffers, one
// for static decals and one for dynamic decals, and keeps those buffers
// attached to a set of host cameras.
//
// The package never talks to a graphics API. Hosts supply a Camera per view,
// a MeshFactory for the fallback cube and a Backend that replays recorded
// buffers. All calls are expected on the host's update/render thread.
package decal

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/forwarddecals/ecs"
)

// Material is an opaque set of shading parameters owned by the host.
type Material interface {
	Name() string
}

// Mesh is opaque geometry owned by the host.
type Mesh interface {
	Name() string
}

// Decal is a positioned renderable item drawn by a System.
//
// Static decals are recorded on Rebuild (and every frame when
// Config.UpdateStaticLive is set). Dynamic decals are re-recorded every
// frame and honor Enabled.
type Decal struct {
	Name      string
	Material  Material
	Mesh      Mesh // nil uses the system's fallback cube
	Static    bool
	Enabled   bool
	Transform mgl32.Mat4

	entity ecs.Entity
	world  *ecs.World
	system *System
}

// New allocates a decal identity in w. The decal starts static, enabled and
// at the identity transform.
func New(w *ecs.World, name string, material Material) *Decal {
	return &Decal{
		Name:      name,
		Material:  material,
		Static:    true,
		Enabled:   true,
		Transform: mgl32.Ident4(),
		entity:    w.CreateEntity(),
		world:     w,
	}
}

// Entity returns the decal's identity handle.
func (d *Decal) Entity() ecs.Entity {
	if d == nil {
		return 0
	}
	return d.entity
}

// System returns the system the decal is registered with, if any.
func (d *Decal) System() *System {
	if d == nil {
		return nil
	}
	return d.system
}

// Attach registers the decal with s. A decal belongs to at most one system;
// attaching to a new system unregisters it from the old one.
func (d *Decal) Attach(s *System) {
	if d == nil || s == nil {
		return
	}
	s.Register(d)
}

// Detach unregisters the decal from its system.
func (d *Decal) Detach() {
	if d == nil || d.system == nil {
		return
	}
	d.system.Unregister(d)
}

// SetStatic changes the decal's classification and moves it to the matching
// batch of its system.
func (d *Decal) SetStatic(static bool) {
	if d == nil || d.Static == static {
		return
	}
	d.Static = static
	if d.system != nil {
		d.system.Remove(d)
		d.system.Add(d)
	}
}

// destroyed reports whether the decal's entity was destroyed in the world
// that created it. Decals built without New are never destroyed.
func (d *Decal) destroyed() bool {
	return d.world != nil && !d.world.IsAlive(d.entity)
}

func (d *Decal) label() string {
	if d == nil {
		return "<nil>"
	}
	if d.Name != "" {
		return d.Name
	}
	return "decal#" + d.entity.String()
}
