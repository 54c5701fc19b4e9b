package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/forwarddecals/decal"
)

// Mesh names used by the registry.
const (
	MeshCube = "cube"
	MeshQuad = "quad"
)

// Vertex is a model-space position with texture coordinates in [0, 1].
type Vertex struct {
	Pos  mgl32.Vec3
	U, V float32
}

// Mesh is an indexed triangle list.
type Mesh struct {
	name     string
	Vertices []Vertex
	Indices  []uint16
}

func NewMesh(name string, vertices []Vertex, indices []uint16) *Mesh {
	return &Mesh{name: name, Vertices: vertices, Indices: indices}
}

func (m *Mesh) Name() string { return m.name }

// Cube returns a unit cube centered on the origin.
func Cube() *Mesh {
	// +z, -z, +x, -x, +y, -y; each wound counter-clockwise from outside.
	faces := [6][4]mgl32.Vec3{
		{{-.5, -.5, .5}, {.5, -.5, .5}, {.5, .5, .5}, {-.5, .5, .5}},
		{{.5, -.5, -.5}, {-.5, -.5, -.5}, {-.5, .5, -.5}, {.5, .5, -.5}},
		{{.5, -.5, .5}, {.5, -.5, -.5}, {.5, .5, -.5}, {.5, .5, .5}},
		{{-.5, -.5, -.5}, {-.5, -.5, .5}, {-.5, .5, .5}, {-.5, .5, -.5}},
		{{-.5, .5, .5}, {.5, .5, .5}, {.5, .5, -.5}, {-.5, .5, -.5}},
		{{-.5, -.5, -.5}, {.5, -.5, -.5}, {.5, -.5, .5}, {-.5, -.5, .5}},
	}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint16, 0, 36)
	for f, face := range faces {
		base := uint16(f * 4)
		for i, p := range face {
			vertices = append(vertices, Vertex{Pos: p, U: uvs[i][0], V: uvs[i][1]})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(MeshCube, vertices, indices)
}

// Quad returns a unit square in the XY plane centered on the origin.
func Quad() *Mesh {
	return NewMesh(MeshQuad, []Vertex{
		{Pos: mgl32.Vec3{-.5, -.5, 0}, U: 0, V: 1},
		{Pos: mgl32.Vec3{.5, -.5, 0}, U: 1, V: 1},
		{Pos: mgl32.Vec3{.5, .5, 0}, U: 1, V: 0},
		{Pos: mgl32.Vec3{-.5, .5, 0}, U: 0, V: 0},
	}, []uint16{0, 1, 2, 0, 2, 3})
}

// CubeFactory builds fallback meshes for a decal system.
type CubeFactory struct{}

func (CubeFactory) NewCube() decal.Mesh { return Cube() }
