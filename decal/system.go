package decal

import (
	"log/slog"
	"slices"

	"github.com/milk9111/forwarddecals/ecs"
)

// Buffer names used as attachment identities on cameras.
const (
	StaticBufferName  = "ForwardDecalSystem_StaticBuffer"
	DynamicBufferName = "ForwardDecalSystem_DynamicBuffer"
)

// State is the lifecycle state of a System.
type State uint8

const (
	StateUninitialized State = iota
	StateActive
	StateDisabled
	StateDestroyed
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateActive:        "active",
	StateDisabled:      "disabled",
	StateDestroyed:     "destroyed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Config is the host-editable part of a System.
type Config struct {
	// Cameras lists every camera/event pair the buffers attach to.
	Cameras []CameraBinding
	// Debug enables diagnostics through the logger set with SetLogger.
	Debug bool
	// UpdateStaticLive re-records the static buffer every frame. When false,
	// static decals keep the transform they had at the last rebuild.
	UpdateStaticLive bool
}

// System owns the static and dynamic batches, their command buffers and
// the camera attachments of both buffers.
//
// Lifecycle: Activate moves an uninitialized or disabled system to active,
// Deactivate moves it to disabled and Destroy ends it. Add, Remove, Rebuild,
// Reassign and Update do nothing unless the system is active.
type System struct {
	cfg    Config
	decals []*Decal

	batches  *Batches
	fallback *FallbackMesh
	static   *CommandBuffer
	dynamic  *CommandBuffer

	state State
}

// NewSystem creates an uninitialized system. Decals whose entity has been
// destroyed in their world are skipped.
func NewSystem(meshes MeshFactory, cfg Config) *System {
	return &System{
		cfg:      cloneConfig(cfg),
		batches:  NewBatches(),
		fallback: NewFallbackMesh(meshes),
	}
}

// State returns the lifecycle state.
func (s *System) State() State {
	return s.state
}

// Config returns a copy of the current configuration.
func (s *System) Config() Config {
	return cloneConfig(s.cfg)
}

// FallbackMesh returns the cube drawn for decals without a mesh, or nil
// before the first activation.
func (s *System) FallbackMesh() Mesh {
	return s.fallback.Mesh()
}

// StaticBuffer returns the static command buffer, or nil before the first
// rebuild.
func (s *System) StaticBuffer() *CommandBuffer { return s.static }

// DynamicBuffer returns the dynamic command buffer, or nil before the first
// rebuild.
func (s *System) DynamicBuffer() *CommandBuffer { return s.dynamic }

// Batches returns the current batch membership.
func (s *System) Batches() *Batches { return s.batches }

// Decals returns a copy of the registration list.
func (s *System) Decals() []*Decal {
	return slices.Clone(s.decals)
}

// Activate creates the fallback mesh if needed and rebuilds everything.
func (s *System) Activate() error {
	switch s.state {
	case StateDestroyed:
		return ErrDestroyed
	case StateActive:
		return nil
	}
	log := s.log()
	if s.fallback.Mesh() == nil {
		if s.fallback.GetOrCreate() != nil {
			log.Debug("created fallback mesh")
		} else {
			log.Error("no mesh factory, fallback mesh unavailable")
		}
	}
	s.state = StateActive
	s.rebuild()
	return nil
}

// Deactivate detaches both buffers from every configured camera. Batches
// and buffers are kept for the next Activate.
func (s *System) Deactivate() {
	if s.state != StateActive {
		return
	}
	s.detachAll()
	s.state = StateDisabled
}

// Destroy deactivates the system and releases its buffers and fallback
// mesh. Every later call is a no-op and Activate returns ErrDestroyed.
func (s *System) Destroy() {
	if s.state == StateDestroyed {
		return
	}
	s.Deactivate()
	for _, d := range s.decals {
		if d != nil && d.system == s {
			d.system = nil
		}
	}
	s.decals = nil
	s.batches.Clear()
	s.static = nil
	s.dynamic = nil
	s.fallback.Reset()
	s.state = StateDestroyed
	s.log().Debug("destroyed")
}

// Rebuild repopulates both batches from the registration list, re-records
// both buffers and reattaches them to every configured camera. It is the
// only operation that picks up camera configuration changes.
func (s *System) Rebuild() {
	if s.state != StateActive {
		return
	}
	s.rebuild()
}

// Reassign detaches and reattaches both buffers without touching batches.
func (s *System) Reassign() {
	if s.state != StateActive || s.static == nil || s.dynamic == nil {
		return
	}
	s.detachAll()
	s.attachAll()
}

// ApplyConfig replaces the configuration. An active system detaches from
// the old cameras and rebuilds against the new ones.
func (s *System) ApplyConfig(cfg Config) {
	if s.state == StateDestroyed {
		return
	}
	if s.state == StateActive {
		s.detachAll()
	}
	s.cfg = cloneConfig(cfg)
	if s.state == StateActive {
		s.rebuild()
	}
}

// Add inserts d into the batch matching its Static flag and re-records only
// the buffers whose membership changed. Camera attachments are left alone.
func (s *System) Add(d *Decal) {
	if s.state != StateActive || d == nil {
		return
	}
	if d.destroyed() {
		s.log().Debug("ignoring decal with destroyed entity", "decal", d.label())
		return
	}
	s.applyChange(s.batches.Add(d), "adding", d)
}

// Remove deletes d from both batches and re-records each buffer it left.
func (s *System) Remove(d *Decal) {
	if s.state != StateActive || d == nil {
		return
	}
	s.applyChange(s.batches.Remove(d), "removing", d)
}

// Register appends d to the registration list and adds it to its batch.
// Registering a decal twice has no effect.
func (s *System) Register(d *Decal) {
	if s.state == StateDestroyed || d == nil {
		return
	}
	if d.system != nil && d.system != s {
		d.system.Unregister(d)
	}
	d.system = s
	if !slices.Contains(s.decals, d) {
		s.decals = append(s.decals, d)
	}
	s.Add(d)
}

// Unregister drops d from the registration list and from both batches.
func (s *System) Unregister(d *Decal) {
	if s.state == StateDestroyed || d == nil {
		return
	}
	s.decals = slices.DeleteFunc(s.decals, func(x *Decal) bool { return x == d })
	if d.system == s {
		d.system = nil
	}
	s.Remove(d)
}

// Refresh re-records the buffers for the current frame: static first when
// Config.UpdateStaticLive is set, then dynamic always.
func (s *System) Refresh() {
	if s.state != StateActive {
		return
	}
	if s.cfg.UpdateStaticLive {
		s.updateStatic()
	}
	s.updateDynamic()
}

// Update implements ecs.System by calling Refresh once per frame.
func (s *System) Update(*ecs.World) {
	s.Refresh()
}

func (s *System) rebuild() {
	s.batches.Populate(s.liveDecals())
	s.ensureBuffers()
	s.updateStatic()
	s.updateDynamic()
	s.detachAll()
	s.attachAll()
}

func (s *System) liveDecals() []*Decal {
	live := make([]*Decal, 0, len(s.decals))
	for _, d := range s.decals {
		if d == nil {
			continue
		}
		if d.destroyed() {
			s.log().Debug("skipping decal with destroyed entity", "decal", d.label())
			continue
		}
		live = append(live, d)
	}
	return live
}

func (s *System) ensureBuffers() {
	if s.static == nil {
		s.log().Debug("creating static buffer")
		s.static = NewCommandBuffer(StaticBufferName)
	}
	if s.dynamic == nil {
		s.log().Debug("creating dynamic buffer")
		s.dynamic = NewCommandBuffer(DynamicBufferName)
	}
}

func (s *System) applyChange(c Change, verb string, d *Decal) {
	if c.Static() {
		s.log().Debug(verb+" static decal", "decal", d.label())
		s.updateStatic()
	}
	if c.Dynamic() {
		s.log().Debug(verb+" dynamic decal", "decal", d.label())
		s.updateDynamic()
	}
}

func (s *System) updateStatic() {
	s.builder().Build(s.static, s.batches.Static(), s.fallback.Mesh(), StaticScreenTexture)
}

func (s *System) updateDynamic() {
	s.builder().Build(s.dynamic, s.batches.Dynamic(), s.fallback.Mesh(), DynamicScreenTexture)
}

func (s *System) detachAll() {
	a := s.attacher()
	for _, b := range s.cfg.Cameras {
		if b.Camera == nil {
			continue
		}
		a.Detach(b.Camera)
	}
}

func (s *System) attachAll() {
	a := s.attacher()
	log := s.log()
	for i, b := range s.cfg.Cameras {
		if b.Camera == nil {
			log.Warn("camera binding has no camera", "binding", i)
			continue
		}
		a.Attach(b.Camera, b.Event, b.RenderStatic, b.RenderDynamic)
	}
}

func (s *System) builder() Builder {
	return Builder{Logger: s.log()}
}

func (s *System) attacher() Attacher {
	return Attacher{Static: s.static, Dynamic: s.dynamic, Logger: s.log()}
}

func (s *System) log() *slog.Logger {
	if !s.cfg.Debug {
		return nopLogger
	}
	return Logger().With("system", "decal")
}

func cloneConfig(cfg Config) Config {
	cfg.Cameras = slices.Clone(cfg.Cameras)
	return cfg
}
