package decal

// MeshFactory creates primitive meshes in the host's graphics context.
type MeshFactory interface {
	NewCube() Mesh
}

// FallbackMesh lazily creates and owns the unit cube drawn for decals that
// carry no mesh of their own.
type FallbackMesh struct {
	factory MeshFactory
	mesh    Mesh
}

// NewFallbackMesh returns a provider backed by factory. Nothing is created
// until GetOrCreate.
func NewFallbackMesh(factory MeshFactory) *FallbackMesh {
	return &FallbackMesh{factory: factory}
}

// GetOrCreate returns the shared cube, creating it on first use. It returns
// nil when no factory is configured.
func (f *FallbackMesh) GetOrCreate() Mesh {
	if f == nil {
		return nil
	}
	if f.mesh == nil && f.factory != nil {
		f.mesh = f.factory.NewCube()
	}
	return f.mesh
}

// Mesh returns the cube if it has been created.
func (f *FallbackMesh) Mesh() Mesh {
	if f == nil {
		return nil
	}
	return f.mesh
}

// Reset drops the cube so the next GetOrCreate builds a new one.
func (f *FallbackMesh) Reset() {
	if f == nil {
		return
	}
	f.mesh = nil
}
