// Package motion moves decals every frame. It stands in for the engine-side
// animation that makes dynamic decals worth re-recording each frame.
package motion

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/forwarddecals/decal"
	"github.com/milk9111/forwarddecals/ecs"
	"github.com/milk9111/forwarddecals/prefabs"
)

// DefaultStep is the simulated time per update at ebiten's default 60 TPS.
const DefaultStep = 1.0 / 60.0

// Driver produces a world-space offset for time t in seconds.
type Driver interface {
	Offset(t float64) (mgl32.Vec3, error)
}

// Bob oscillates along Direction by Distance at Speed radians per second.
type Bob struct {
	Direction mgl32.Vec3
	Distance  float64
	Speed     float64
}

func (b Bob) Offset(t float64) (mgl32.Vec3, error) {
	return b.Direction.Mul(float32(math.Sin(t*b.Speed) * b.Distance)), nil
}

// Drivers builds the drivers described by spec. A nil spec yields none.
func Drivers(spec *prefabs.MotionSpec) ([]Driver, error) {
	if spec == nil {
		return nil, nil
	}
	var out []Driver
	if spec.Bob != nil {
		dir := spec.Bob.Direction
		out = append(out, Bob{
			Direction: mgl32.Vec3{float32(dir[0]), float32(dir[1]), float32(dir[2])},
			Distance:  spec.Bob.Distance,
			Speed:     spec.Bob.Speed,
		})
	}
	if spec.Script != "" {
		s, err := NewScript(spec.Script, spec.Params)
		if err != nil {
			return nil, fmt.Errorf("motion: script %q: %w", spec.Script, err)
		}
		out = append(out, s)
	}
	return out, nil
}

type track struct {
	decal   *decal.Decal
	base    mgl32.Mat4
	drivers []Driver
}

// System applies drivers to decal transforms once per frame. Add it to the
// world before the decal system so moved decals are recorded the same frame.
type System struct {
	tracks  ecs.SparseSet[*track]
	step    float64
	elapsed float64
	logger  *slog.Logger
}

// NewSystem returns a system advancing step seconds per update.
func NewSystem(step float64) *System {
	if step <= 0 {
		step = DefaultStep
	}
	return &System{step: step}
}

// SetLogger routes driver failures to l.
func (s *System) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Track animates d around its current transform. Tracking a decal again
// replaces its drivers and keeps the original base transform. Decals
// without an entity cannot be tracked.
func (s *System) Track(d *decal.Decal, drivers ...Driver) {
	if d == nil || len(drivers) == 0 {
		return
	}
	if tr, ok := s.tracks.Get(d.Entity()); ok && tr.decal == d {
		tr.drivers = drivers
		return
	}
	s.tracks.Set(d.Entity(), &track{decal: d, base: d.Transform, drivers: drivers})
}

// Untrack stops animating d and restores its base transform.
func (s *System) Untrack(d *decal.Decal) {
	tr, ok := s.tracks.Get(d.Entity())
	if !ok || tr.decal != d {
		return
	}
	d.Transform = tr.base
	s.tracks.Remove(d.Entity())
}

// Len returns the number of tracked decals.
func (s *System) Len() int {
	return s.tracks.Len()
}

// Elapsed returns the simulated time in seconds.
func (s *System) Elapsed() float64 {
	return s.elapsed
}

// Update advances time by one step and moves every tracked decal. Tracks
// whose entity is no longer alive in w are dropped, as is any driver that
// fails.
func (s *System) Update(w *ecs.World) {
	s.elapsed += s.step
	var dead []ecs.Entity
	for _, e := range s.tracks.Entities() {
		if w != nil && !w.IsAlive(e) {
			dead = append(dead, e)
			continue
		}
		tr, _ := s.tracks.Get(e)
		s.apply(tr)
	}
	for _, e := range dead {
		s.tracks.Remove(e)
	}
}

func (s *System) apply(tr *track) {
	var offset mgl32.Vec3
	kept := tr.drivers[:0]
	for _, drv := range tr.drivers {
		o, err := drv.Offset(s.elapsed)
		if err != nil {
			s.log().Warn("dropping motion driver", "decal", tr.decal.Name, "err", err)
			continue
		}
		offset = offset.Add(o)
		kept = append(kept, drv)
	}
	tr.drivers = kept
	tr.decal.Transform = mgl32.Translate3D(offset.X(), offset.Y(), offset.Z()).Mul4(tr.base)
}

func (s *System) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return decal.Logger()
}
