package decal

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type testMaterial string

func (m testMaterial) Name() string { return string(m) }

type testMesh string

func (m testMesh) Name() string { return string(m) }

type cubeFactory struct {
	calls int
}

func (f *cubeFactory) NewCube() Mesh {
	f.calls++
	return testMesh("cube")
}

type testCamera struct {
	name    string
	buffers map[CameraEvent][]*CommandBuffer
	adds    int
	removes int
}

func newTestCamera(name string) *testCamera {
	return &testCamera{name: name, buffers: map[CameraEvent][]*CommandBuffer{}}
}

func (c *testCamera) Name() string { return c.name }

func (c *testCamera) CommandBuffers(ev CameraEvent) []*CommandBuffer {
	return c.buffers[ev]
}

func (c *testCamera) AddCommandBuffer(ev CameraEvent, buf *CommandBuffer) {
	c.adds++
	c.buffers[ev] = append(c.buffers[ev], buf)
}

func (c *testCamera) RemoveCommandBuffer(ev CameraEvent, buf *CommandBuffer) {
	c.removes++
	c.buffers[ev] = slices.DeleteFunc(c.buffers[ev], func(b *CommandBuffer) bool { return b == buf })
}

// attached returns the names of every buffer on the camera, keyed by event.
func (c *testCamera) attached() map[CameraEvent][]string {
	out := map[CameraEvent][]string{}
	for ev, bufs := range c.buffers {
		for _, b := range bufs {
			out[ev] = append(out[ev], b.Name())
		}
	}
	return out
}

func (c *testCamera) total() int {
	n := 0
	for _, bufs := range c.buffers {
		n += len(bufs)
	}
	return n
}

type backendCall struct {
	op   string
	arg  string
	mesh Mesh
	mat  Material
	xf   mgl32.Mat4
}

type recordingBackend struct {
	calls   []backendCall
	failFor Material
}

func (b *recordingBackend) GetTemporary(id TextureID) {
	b.calls = append(b.calls, backendCall{op: "get", arg: string(id)})
}

func (b *recordingBackend) Blit(src RenderTarget, dst TextureID) {
	b.calls = append(b.calls, backendCall{op: "blit", arg: src.String() + "->" + string(dst)})
}

func (b *recordingBackend) SetGlobalTexture(name string, id TextureID) {
	b.calls = append(b.calls, backendCall{op: "global", arg: name + "=" + string(id)})
}

func (b *recordingBackend) SetRenderTarget(color, depth RenderTarget) {
	b.calls = append(b.calls, backendCall{op: "target", arg: color.String() + "/" + depth.String()})
}

func (b *recordingBackend) DrawMesh(mesh Mesh, transform mgl32.Mat4, material Material) error {
	b.calls = append(b.calls, backendCall{op: "draw", mesh: mesh, mat: material, xf: transform})
	if b.failFor != nil && material == b.failFor {
		return errDrawFailed
	}
	return nil
}

func (b *recordingBackend) ReleaseTemporary(id TextureID) {
	b.calls = append(b.calls, backendCall{op: "release", arg: string(id)})
}

func (b *recordingBackend) ops() []string {
	out := make([]string, 0, len(b.calls))
	for _, c := range b.calls {
		out = append(out, c.op)
	}
	return out
}
