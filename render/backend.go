package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/forwarddecals/decal"
)

var (
	ErrUnsupportedMesh     = errors.New("render: unsupported mesh")
	ErrUnsupportedMaterial = errors.New("render: unsupported material")
	ErrMissingTexture      = errors.New("render: missing global texture")
	ErrNoTarget            = errors.New("render: no render target")
)

// Backend replays decal command buffers onto ebiten images. Begin binds it
// to a camera's target before each camera renders.
type Backend struct {
	screen   *ebiten.Image
	target   *ebiten.Image
	viewProj mgl32.Mat4

	temps   map[decal.TextureID]*ebiten.Image
	pool    []*ebiten.Image
	globals map[string]*ebiten.Image

	white  *ebiten.Image
	logger *slog.Logger

	vertices []ebiten.Vertex
	indices  []uint16
}

func NewBackend() *Backend {
	return &Backend{
		viewProj: mgl32.Ident4(),
		temps:    make(map[decal.TextureID]*ebiten.Image),
		globals:  make(map[string]*ebiten.Image),
	}
}

// SetLogger routes non-fatal replay failures to l.
func (b *Backend) SetLogger(l *slog.Logger) {
	b.logger = l
}

// Begin targets screen with the given view-projection.
func (b *Backend) Begin(screen *ebiten.Image, viewProj mgl32.Mat4) {
	b.screen = screen
	b.target = screen
	b.viewProj = viewProj
}

// Global returns the texture published under name, or nil.
func (b *Backend) Global(name string) *ebiten.Image {
	return b.globals[name]
}

func (b *Backend) GetTemporary(id decal.TextureID) {
	if b.screen == nil {
		b.log().Warn("temporary requested without a target", "texture", id)
		return
	}
	size := b.screen.Bounds().Size()
	if img, ok := b.temps[id]; ok {
		if img.Bounds().Size() == size {
			img.Clear()
			return
		}
		b.pool = append(b.pool, img)
	}
	b.temps[id] = b.takeFromPool(size)
}

func (b *Backend) Blit(src decal.RenderTarget, dst decal.TextureID) {
	from := b.resolve(src)
	to := b.temps[dst]
	if from == nil || to == nil {
		b.log().Warn("blit skipped", "src", src.String(), "dst", dst)
		return
	}
	to.DrawImage(from, nil)
}

func (b *Backend) SetGlobalTexture(name string, id decal.TextureID) {
	img, ok := b.temps[id]
	if !ok {
		b.log().Warn("global texture from unknown temporary", "name", name, "texture", id)
		return
	}
	b.globals[name] = img
}

// SetRenderTarget selects color. Ebiten has no depth attachment so depth is
// ignored.
func (b *Backend) SetRenderTarget(target, _ decal.RenderTarget) {
	img := b.resolve(target)
	if img == nil {
		b.log().Warn("unknown render target", "target", target.String())
		return
	}
	b.target = img
}

func (b *Backend) DrawMesh(mesh decal.Mesh, transform mgl32.Mat4, material decal.Material) error {
	m, ok := mesh.(*Mesh)
	if !ok || m == nil {
		return fmt.Errorf("%w %T", ErrUnsupportedMesh, mesh)
	}
	mat, ok := material.(*Material)
	if !ok || mat == nil {
		return fmt.Errorf("%w %T", ErrUnsupportedMaterial, material)
	}
	if b.target == nil {
		return ErrNoTarget
	}

	size := b.target.Bounds().Size()
	pts, ok := ProjectMesh(b.viewProj.Mul4(transform), m, float32(size.X), float32(size.Y))
	if !ok {
		return nil
	}
	cr, cg, cb, ca := mat.colorScale()

	switch {
	case mat.Shader != nil:
		screen := b.globals[decal.ScreenTextureName]
		if screen == nil {
			return fmt.Errorf("%w %s", ErrMissingTexture, decal.ScreenTextureName)
		}
		b.fill(m, pts, nil, cr, cg, cb, ca)
		op := &ebiten.DrawTrianglesShaderOptions{}
		op.Images[0] = screen
		b.target.DrawTrianglesShader(b.vertices, b.indices, mat.Shader, op)
	default:
		src := mat.Image
		if src == nil {
			src = b.whiteImage()
		}
		b.fill(m, pts, src, cr, cg, cb, ca)
		b.target.DrawTriangles(b.vertices, b.indices, src, &ebiten.DrawTrianglesOptions{
			ColorScaleMode: ebiten.ColorScaleModePremultipliedAlpha,
		})
	}
	return nil
}

func (b *Backend) ReleaseTemporary(id decal.TextureID) {
	img, ok := b.temps[id]
	if !ok {
		return
	}
	delete(b.temps, id)
	for name, g := range b.globals {
		if g == img {
			delete(b.globals, name)
		}
	}
	b.pool = append(b.pool, img)
}

// fill converts projected points into ebiten vertices. A nil src samples
// the screen position, which is what screen-space shaders expect.
func (b *Backend) fill(m *Mesh, pts []mgl32.Vec2, src *ebiten.Image, r, g, bl, a float32) {
	b.vertices = b.vertices[:0]
	var sw, sh float32
	var ox, oy float32
	if src != nil {
		bounds := src.Bounds()
		sw, sh = float32(bounds.Dx()), float32(bounds.Dy())
		ox, oy = float32(bounds.Min.X), float32(bounds.Min.Y)
	}
	for i, p := range pts {
		v := ebiten.Vertex{
			DstX:   p.X(),
			DstY:   p.Y(),
			SrcX:   p.X(),
			SrcY:   p.Y(),
			ColorR: r,
			ColorG: g,
			ColorB: bl,
			ColorA: a,
		}
		if src != nil {
			v.SrcX = ox + m.Vertices[i].U*sw
			v.SrcY = oy + m.Vertices[i].V*sh
		}
		b.vertices = append(b.vertices, v)
	}
	b.indices = append(b.indices[:0], m.Indices...)
}

func (b *Backend) resolve(t decal.RenderTarget) *ebiten.Image {
	if t.IsCamera() {
		return b.screen
	}
	return b.temps[t.Temporary]
}

func (b *Backend) takeFromPool(size image.Point) *ebiten.Image {
	for i, img := range b.pool {
		if img.Bounds().Size() == size {
			b.pool = append(b.pool[:i], b.pool[i+1:]...)
			img.Clear()
			return img
		}
	}
	return ebiten.NewImage(size.X, size.Y)
}

func (b *Backend) whiteImage() *ebiten.Image {
	if b.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		b.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return b.white
}

func (b *Backend) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return decal.Logger()
}

// ProjectMesh maps every vertex of m through mvp into pixel coordinates of a
// width x height target. It reports false when any vertex is behind the
// camera.
func ProjectMesh(mvp mgl32.Mat4, m *Mesh, width, height float32) ([]mgl32.Vec2, bool) {
	out := make([]mgl32.Vec2, len(m.Vertices))
	for i, v := range m.Vertices {
		p, ok := Project(mvp, v.Pos, width, height)
		if !ok {
			return nil, false
		}
		out[i] = p
	}
	return out, true
}

// Project maps a model-space point to pixel coordinates with y down.
func Project(mvp mgl32.Mat4, p mgl32.Vec3, width, height float32) (mgl32.Vec2, bool) {
	clip := mvp.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	return mgl32.Vec2{
		(ndc.X() + 1) / 2 * width,
		(1 - ndc.Y()) / 2 * height,
	}, true
}
