package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/forwarddecals/decal"
	"github.com/milk9111/forwarddecals/prefabs"
	"github.com/milk9111/forwarddecals/render"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	minimapWidth  = 320
	minimapHeight = 180
)

var (
	backgroundColor = color.NRGBA{R: 0x1e, G: 0x27, B: 0x2e, A: 0xff}
	tileColor       = color.NRGBA{R: 0x2d, G: 0x3a, B: 0x44, A: 0xff}
	skyColor        = color.NRGBA{R: 0x10, G: 0x14, B: 0x18, A: 0xff}
)

type Game struct {
	specPath string
	logger   *slog.Logger

	registry *render.Registry
	backend  *render.Backend
	cameras  map[string]*render.Camera
	minimap  *ebiten.Image
	watcher  *prefabs.Watcher

	scene   *scene
	face    text.Face
	frames  int
	drawErr error
}

func NewGame(specPath string, watch bool, logger *slog.Logger) (*Game, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	g := &Game{
		specPath: specPath,
		logger:   logger,
		registry: render.NewRegistry(),
		backend:  render.NewBackend(),
		cameras: map[string]*render.Camera{
			"main":    render.NewCamera("main", render.Ortho2D(0, 0, 8, 4.5)),
			"minimap": render.NewCamera("minimap", render.Ortho2D(0, 0, 16, 9)),
		},
		minimap: ebiten.NewImage(minimapWidth, minimapHeight),
		face:    &text.GoTextFace{Source: src, Size: 14},
	}
	g.backend.SetLogger(logger)

	if err := g.load(false); err != nil {
		return nil, err
	}

	if watch {
		dirs := []string{"prefabs", filepath.Join("prefabs", "scripts")}
		if filepath.IsAbs(specPath) {
			dirs = append(dirs, filepath.Dir(specPath))
		}
		w, err := prefabs.NewWatcher(dirs...)
		if err != nil {
			logger.Warn("hot reload disabled", "err", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

// load builds the scene from the spec on disk. A spec that fails to load
// keeps the previous scene running. When only cameras or flags changed and
// no script was touched, the running system is reconfigured in place.
func (g *Game) load(scriptsChanged bool) error {
	spec, err := prefabs.LoadSystemSpec(g.specPath)
	if err != nil {
		return err
	}
	if g.scene != nil && !scriptsChanged && sameContent(g.scene.spec, spec) {
		cfg, err := systemConfig(spec, g.cameras)
		if err != nil {
			return err
		}
		g.scene.system.ApplyConfig(cfg)
		g.scene.spec = spec
		g.logger.Info("config applied", "spec", g.specPath, "cameras", len(cfg.Cameras))
		return nil
	}

	next, err := buildScene(spec, g.cameras, g.registry)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	next.takeOver(g.scene)
	g.scene = next
	g.logger.Info("scene loaded", "spec", g.specPath, "decals", len(next.decals))
	return nil
}

func (g *Game) Update() error {
	g.frames++

	g.pollWatcher()
	g.handleInput()
	g.scene.world.Update()

	return nil
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	changed := g.watcher.Drain()
	if len(changed) == 0 {
		return
	}
	g.logger.Debug("prefab change", "files", changed)
	scripts := slices.ContainsFunc(changed, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".tengo")
	})
	if err := g.load(scripts); err != nil {
		g.logger.Error("reload failed", "err", err)
	}
}

func (g *Game) handleInput() {
	sys := g.scene.system
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if sys.State() == decal.StateActive {
			sys.Deactivate()
		} else if err := sys.Activate(); err != nil {
			g.logger.Error("activate", "err", err)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		cfg := sys.Config()
		cfg.Debug = !cfg.Debug
		sys.ApplyConfig(cfg)
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		cfg := sys.Config()
		cfg.UpdateStaticLive = !cfg.UpdateStaticLive
		sys.ApplyConfig(cfg)
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		for _, d := range g.scene.dynamicDecals() {
			d.Enabled = !d.Enabled
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		for _, d := range g.scene.decals {
			if !d.Static {
				d.SetStatic(true)
				break
			}
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		sys.Rebuild()
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		sys.Reassign()
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	var errs []error
	cam := g.cameras["main"]
	if err := cam.Render(screen, g.backend, g.stage(screen, cam)); err != nil {
		errs = append(errs, err)
	}

	g.minimap.Clear()
	mini := g.cameras["minimap"]
	if err := mini.Render(g.minimap, g.backend, g.stage(g.minimap, mini)); err != nil {
		errs = append(errs, err)
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(baseWidth-minimapWidth-16, 16)
	screen.DrawImage(g.minimap, op)

	g.reportDrawErrors(errs)
	g.drawHUD(screen)
}

// stage draws the opaque floor and the sky at their pipeline events so
// decals attached in between land on top of the floor.
func (g *Game) stage(dst *ebiten.Image, cam *render.Camera) func(decal.CameraEvent) {
	return func(ev decal.CameraEvent) {
		switch ev {
		case decal.BeforeForwardOpaque:
			dst.Fill(backgroundColor)
			g.drawFloor(dst, cam)
		case decal.BeforeSkybox:
			b := dst.Bounds()
			dst.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+b.Dy()/12)).(*ebiten.Image).Fill(skyColor)
		}
	}
}

// drawFloor fills a checkerboard of one-unit tiles.
func (g *Game) drawFloor(dst *ebiten.Image, cam *render.Camera) {
	b := dst.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	for x := -16; x < 16; x++ {
		for y := -9; y < 9; y++ {
			if (x+y)%2 == 0 {
				continue
			}
			p0, ok0 := render.Project(cam.ViewProj, floorPoint(x, y), w, h)
			p1, ok1 := render.Project(cam.ViewProj, floorPoint(x+1, y+1), w, h)
			if !ok0 || !ok1 {
				continue
			}
			r := image.Rect(int(p0.X()), int(p1.Y()), int(p1.X()), int(p0.Y())).Add(b.Min).Intersect(b)
			if r.Empty() {
				continue
			}
			dst.SubImage(r).(*ebiten.Image).Fill(tileColor)
		}
	}
}

func floorPoint(x, y int) mgl32.Vec3 {
	return mgl32.Vec3{float32(x), float32(y), 0}
}

func (g *Game) reportDrawErrors(errs []error) {
	if len(errs) == 0 {
		g.drawErr = nil
		return
	}
	msg := errs[0].Error()
	if g.drawErr == nil || g.drawErr.Error() != msg {
		g.logger.Warn("draw failed", "err", errs[0])
	}
	g.drawErr = errs[0]
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	sys := g.scene.system
	cfg := sys.Config()
	b := sys.Batches()

	var sb strings.Builder
	fmt.Fprintf(&sb, "FPS: %.2f  frame: %d\n", ebiten.ActualFPS(), g.frames)
	fmt.Fprintf(&sb, "state: %s  static: %d  dynamic: %d\n", sys.State(), b.Static().Len(), b.Dynamic().Len())
	fmt.Fprintf(&sb, "debug: %v  static live: %v  watch: %v\n", cfg.Debug, cfg.UpdateStaticLive, g.watcher != nil)
	if buf := sys.StaticBuffer(); buf != nil {
		fmt.Fprintf(&sb, "%s: %d commands\n", buf.Name(), buf.Len())
	}
	if buf := sys.DynamicBuffer(); buf != nil {
		fmt.Fprintf(&sb, "%s: %d commands\n", buf.Name(), buf.Len())
	}
	sb.WriteString("[space] toggle  [d] debug  [l] live static  [e] enable  [s] make static  [r] rebuild  [a] reassign")

	op := &text.DrawOptions{}
	op.GeoM.Translate(16, 16)
	op.LineSpacing = 20
	text.Draw(screen, sb.String(), g.face, op)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

// Close stops the watcher and tears down the scene.
func (g *Game) Close() error {
	if g.scene != nil {
		g.scene.close()
	}
	if g.watcher != nil {
		return g.watcher.Close()
	}
	return nil
}
