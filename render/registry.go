package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
)

// Registry resolves the names used in decal config to host resources.
type Registry struct {
	materials map[string]*Material
	meshes    map[string]*Mesh
	images    map[string]*ebiten.Image
	shaders   map[string]*ebiten.Shader
}

// NewRegistry returns a registry preloaded with the cube and quad meshes.
func NewRegistry() *Registry {
	r := &Registry{
		materials: make(map[string]*Material),
		meshes:    make(map[string]*Mesh),
		images:    make(map[string]*ebiten.Image),
		shaders:   make(map[string]*ebiten.Shader),
	}
	r.RegisterMesh(Cube())
	r.RegisterMesh(Quad())
	return r
}

// RegisterMaterial stores m by name, replacing any previous entry.
func (r *Registry) RegisterMaterial(m *Material) {
	if m == nil || m.Name() == "" {
		return
	}
	r.materials[m.Name()] = m
}

// Material returns a registered material by name.
func (r *Registry) Material(name string) (*Material, bool) {
	m, ok := r.materials[name]
	return m, ok
}

func (r *Registry) RegisterMesh(m *Mesh) {
	if m == nil || m.Name() == "" {
		return
	}
	r.meshes[m.Name()] = m
}

func (r *Registry) Mesh(name string) (*Mesh, bool) {
	m, ok := r.meshes[name]
	return m, ok
}

// RegisterImage stores an image by key.
func (r *Registry) RegisterImage(key string, img *ebiten.Image) {
	if key == "" || img == nil {
		return
	}
	r.images[key] = img
}

// Image returns a cached image by key.
func (r *Registry) Image(key string) *ebiten.Image {
	if key == "" {
		return nil
	}
	return r.images[key]
}

// LoadImage loads a PNG from the filesystem and caches it by key.
func (r *Registry) LoadImage(key string) (*ebiten.Image, error) {
	if key == "" {
		return nil, fmt.Errorf("empty image key")
	}
	if img := r.Image(key); img != nil {
		return img, nil
	}
	tried := []string{key, filepath.Join("assets", key), filepath.Base(key)}
	for _, p := range tried {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		im, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", p, err)
		}
		img := ebiten.NewImageFromImage(im)
		r.RegisterImage(key, img)
		return img, nil
	}
	return nil, fmt.Errorf("failed to load image %s", key)
}

// Shader compiles a built-in shader once and caches it.
func (r *Registry) Shader(name string) (*ebiten.Shader, error) {
	if sh, ok := r.shaders[name]; ok {
		return sh, nil
	}
	sh, err := CompileShader(name)
	if err != nil {
		return nil, err
	}
	r.shaders[name] = sh
	return sh, nil
}
