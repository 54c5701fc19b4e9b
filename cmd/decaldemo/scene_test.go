package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/forwarddecals/decal"
	"github.com/milk9111/forwarddecals/prefabs"
	"github.com/milk9111/forwarddecals/render"
)

const testSpec = `
cameras:
  - camera: main
    event: after_forward_opaque
  - camera: minimap
    render_dynamic: false
materials:
  - name: splat
    color: "#ff000080"
decals:
  - name: puddle
    material: splat
  - name: patch
    material: splat
    mesh: quad
  - name: lens
    material: splat
    static: false
    motion:
      bob: {direction: [0, 1, 0], distance: 1, speed: 1}
  - name: bare
    static: false
`

func loadTestSpec(t *testing.T, src string) prefabs.SystemSpec {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decals.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	spec, err := prefabs.LoadSystemSpec(path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	return spec
}

func testCameras() map[string]*render.Camera {
	return map[string]*render.Camera{
		"main":    render.NewCamera("main", mgl32.Ident4()),
		"minimap": render.NewCamera("minimap", mgl32.Ident4()),
	}
}

func TestBuildScene(t *testing.T) {
	cams := testCameras()
	s, err := buildScene(loadTestSpec(t, testSpec), cams, render.NewRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if s.system.State() != decal.StateActive {
		t.Fatalf("expected active system, got %s", s.system.State())
	}
	b := s.system.Batches()
	if b.Static().Len() != 2 || b.Dynamic().Len() != 2 {
		t.Fatalf("expected 2 static and 2 dynamic, got %d/%d", b.Static().Len(), b.Dynamic().Len())
	}
	if got := len(cams["main"].CommandBuffers(decal.AfterForwardOpaque)); got != 2 {
		t.Fatalf("main camera should carry both buffers, got %d", got)
	}
	mini := cams["minimap"].CommandBuffers(decal.AfterEverything)
	if len(mini) != 1 || mini[0].Name() != decal.StaticBufferName {
		t.Fatalf("minimap should only carry the static buffer, got %v", mini)
	}
	if s.motion.Len() != 1 {
		t.Fatalf("expected one moving decal, got %d", s.motion.Len())
	}
	// bare has no material so only lens is drawn from the dynamic batch.
	if got := len(s.system.DynamicBuffer().Draws()); got != 1 {
		t.Fatalf("expected 1 dynamic draw, got %d", got)
	}

	s.world.Update()
	if s.world.Frame() != 1 {
		t.Fatalf("expected one frame, got %d", s.world.Frame())
	}

	s.close()
	if cams["main"].Attached() != 0 || cams["minimap"].Attached() != 0 {
		t.Fatal("closing the scene must detach every buffer")
	}
	if s.system.State() != decal.StateDestroyed {
		t.Fatalf("expected destroyed system, got %s", s.system.State())
	}
}

func TestBuildSceneErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "unknown_camera",
			src:  "cameras:\n  - camera: rear\n",
			want: errUnknownCamera,
		},
		{
			name: "unknown_mesh",
			src:  "materials:\n  - name: m\ndecals:\n  - name: d\n    material: m\n    mesh: sphere\n",
			want: errUnknownMesh,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := buildScene(loadTestSpec(t, c.src), testCameras(), render.NewRegistry())
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestReconfigureInPlace(t *testing.T) {
	cams := testCameras()
	spec := loadTestSpec(t, testSpec)
	s, err := buildScene(spec, cams, render.NewRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer s.close()

	moved := loadTestSpec(t, strings.Replace(testSpec, "after_forward_opaque", "before_image_effects", 1))
	if !sameContent(spec, moved) {
		t.Fatal("a camera-only change should keep content")
	}
	cfg, err := systemConfig(moved, cams)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	s.system.ApplyConfig(cfg)

	if got := len(cams["main"].CommandBuffers(decal.AfterForwardOpaque)); got != 0 {
		t.Fatalf("old event should be empty, got %d", got)
	}
	if got := len(cams["main"].CommandBuffers(decal.BeforeImageEffects)); got != 2 {
		t.Fatalf("new event should carry both buffers, got %d", got)
	}

	recolored := loadTestSpec(t, strings.Replace(testSpec, "#ff000080", "#00ff0080", 1))
	if sameContent(spec, recolored) {
		t.Fatal("a material change must rebuild the scene")
	}
}

func TestSceneTakeOverKeepsAttachments(t *testing.T) {
	cams := testCameras()
	spec := loadTestSpec(t, testSpec)
	reg := render.NewRegistry()

	old, err := buildScene(spec, cams, reg)
	if err != nil {
		t.Fatalf("build old: %v", err)
	}
	next, err := buildScene(spec, cams, reg)
	if err != nil {
		t.Fatalf("build next: %v", err)
	}
	defer next.close()
	next.takeOver(old)

	attached := cams["main"].CommandBuffers(decal.AfterForwardOpaque)
	if len(attached) != 2 {
		t.Fatalf("main camera should carry both buffers after reload, got %d", len(attached))
	}
	for _, buf := range attached {
		if buf != next.system.StaticBuffer() && buf != next.system.DynamicBuffer() {
			t.Fatalf("buffer %s does not belong to the new scene", buf.Name())
		}
	}
	if got := cams["minimap"].Attached(); got != 1 {
		t.Fatalf("minimap should carry the static buffer, got %d", got)
	}
	if old.system.State() != decal.StateDestroyed {
		t.Fatalf("old scene should be destroyed, got %s", old.system.State())
	}
}
