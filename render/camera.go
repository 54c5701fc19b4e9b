package render

import (
	"errors"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/forwarddecals/decal"
)

// Camera holds a view-projection and the command buffers attached to each
// stage of its pipeline.
type Camera struct {
	name     string
	ViewProj mgl32.Mat4
	buffers  map[decal.CameraEvent][]*decal.CommandBuffer
}

func NewCamera(name string, viewProj mgl32.Mat4) *Camera {
	return &Camera{
		name:     name,
		ViewProj: viewProj,
		buffers:  make(map[decal.CameraEvent][]*decal.CommandBuffer),
	}
}

// Ortho2D returns a view-projection centered on (cx, cy) that shows
// halfWidth and halfHeight world units on each side.
func Ortho2D(cx, cy, halfWidth, halfHeight float32) mgl32.Mat4 {
	return mgl32.Ortho(cx-halfWidth, cx+halfWidth, cy-halfHeight, cy+halfHeight, -100, 100)
}

func (c *Camera) Name() string { return c.name }

func (c *Camera) CommandBuffers(ev decal.CameraEvent) []*decal.CommandBuffer {
	return slices.Clone(c.buffers[ev])
}

func (c *Camera) AddCommandBuffer(ev decal.CameraEvent, buf *decal.CommandBuffer) {
	if buf == nil {
		return
	}
	c.buffers[ev] = append(c.buffers[ev], buf)
}

// RemoveCommandBuffer removes the first attachment of buf at ev.
func (c *Camera) RemoveCommandBuffer(ev decal.CameraEvent, buf *decal.CommandBuffer) {
	list := c.buffers[ev]
	if i := slices.Index(list, buf); i >= 0 {
		c.buffers[ev] = slices.Delete(list, i, i+1)
	}
	if len(c.buffers[ev]) == 0 {
		delete(c.buffers, ev)
	}
}

// Attached returns the number of buffers attached across all events.
func (c *Camera) Attached() int {
	n := 0
	for _, list := range c.buffers {
		n += len(list)
	}
	return n
}

// Render targets screen and runs the pipeline through b.
func (c *Camera) Render(screen *ebiten.Image, b *Backend, stage func(decal.CameraEvent)) error {
	b.Begin(screen, c.ViewProj)
	return c.Replay(b, stage)
}

// Replay walks the pipeline events in order. At each event stage runs
// first, then every buffer attached there is played back. Draw failures
// are collected and do not stop the frame.
func (c *Camera) Replay(b decal.Backend, stage func(decal.CameraEvent)) error {
	var errs []error
	for _, ev := range decal.CameraEvents() {
		if stage != nil {
			stage(ev)
		}
		for _, buf := range c.buffers[ev] {
			if err := buf.Playback(b); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
