package decal

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/forwarddecals/ecs"
)

type fixture struct {
	world  *ecs.World
	meshes *cubeFactory
	camera *testCamera
	system *System
	logOut *bytes.Buffer
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		world:  ecs.NewWorld(),
		meshes: &cubeFactory{},
		camera: newTestCamera("main"),
		logOut: &bytes.Buffer{},
	}
	orig := Logger()
	SetLogger(slog.New(slog.NewTextHandler(f.logOut, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(orig) })
	if cfg.Cameras == nil {
		cfg.Cameras = []CameraBinding{{Camera: f.camera, Event: AfterForwardOpaque, RenderStatic: true, RenderDynamic: true}}
	}
	f.system = NewSystem(f.meshes, cfg)
	return f
}

func TestSystemEmptyRebuild(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.system.Activate(); err != nil {
		t.Fatalf("Activate() = %v", err)
	}
	if f.system.StaticBuffer().Len() != 0 || f.system.DynamicBuffer().Len() != 0 {
		t.Fatal("expected empty buffers with no decals")
	}
	if f.system.StaticBuffer().Name() != StaticBufferName || f.system.DynamicBuffer().Name() != DynamicBufferName {
		t.Fatal("unexpected buffer names")
	}
	if got := len(f.camera.CommandBuffers(AfterForwardOpaque)); got != 2 {
		t.Fatalf("camera has %d buffers, want 2", got)
	}
}

func TestSystemStaticDecalUsesFallbackMesh(t *testing.T) {
	f := newFixture(t, Config{})
	mat := testMaterial("M")
	a := New(f.world, "A", mat)
	a.Transform = mgl32.Translate3D(1, 0, 0)
	f.system.Register(a)

	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	f.system.Rebuild()

	draws := f.system.StaticBuffer().Draws()
	if len(draws) != 1 {
		t.Fatalf("static draws = %d, want 1", len(draws))
	}
	if draws[0].Mesh != f.system.FallbackMesh() || draws[0].Material != mat {
		t.Fatalf("draw = %+v", draws[0])
	}
	if f.system.DynamicBuffer().Len() != 0 {
		t.Fatal("dynamic buffer should be empty")
	}
	if f.meshes.calls != 1 {
		t.Fatalf("fallback created %d times, want 1", f.meshes.calls)
	}
}

func TestSystemAddDynamicWithoutMaterial(t *testing.T) {
	f := newFixture(t, Config{Debug: true})
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	b := New(f.world, "B", nil)
	b.Static = false
	f.system.Add(b)

	if !f.system.Batches().Dynamic().Contains(b) {
		t.Fatal("B not in dynamic batch")
	}
	if n := len(f.system.DynamicBuffer().Draws()); n != 0 {
		t.Fatalf("dynamic draws = %d, want 0", n)
	}
	if !strings.Contains(f.logOut.String(), "no material") {
		t.Fatalf("expected a diagnostic, got %q", f.logOut.String())
	}
}

func TestSystemDiagnosticsRequireDebug(t *testing.T) {
	f := newFixture(t, Config{Debug: false})
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	b := New(f.world, "B", nil)
	f.system.Add(b)
	if f.logOut.Len() != 0 {
		t.Fatalf("expected no output with debug off, got %q", f.logOut.String())
	}
}

func TestSystemStaticOnlyCamera(t *testing.T) {
	f := newFixture(t, Config{})
	cam := newTestCamera("C")
	f.system.ApplyConfig(Config{Cameras: []CameraBinding{{Camera: cam, Event: BeforeForwardAlpha, RenderStatic: true}}})
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	f.system.Rebuild()

	got := cam.attached()
	if len(got) != 1 || len(got[BeforeForwardAlpha]) != 1 || got[BeforeForwardAlpha][0] != StaticBufferName {
		t.Fatalf("camera attachments = %v", got)
	}
}

func TestSystemFlagFlipThenRemove(t *testing.T) {
	f := newFixture(t, Config{})
	d := New(f.world, "flip", testMaterial("M"))
	f.system.Register(d)
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	if len(f.system.StaticBuffer().Draws()) != 1 {
		t.Fatal("decal should draw in the static buffer")
	}

	d.Static = false
	f.system.Remove(d)

	if f.system.Batches().Static().Contains(d) || f.system.Batches().Dynamic().Contains(d) {
		t.Fatal("decal still in a batch")
	}
	if f.system.StaticBuffer().Len() != 0 {
		t.Fatal("static buffer not rebuilt after removal")
	}
}

func TestSystemRemoveIsIdempotent(t *testing.T) {
	f := newFixture(t, Config{})
	d := New(f.world, "d", testMaterial("M"))
	f.system.Register(d)
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	f.system.Remove(d)
	static := f.system.StaticBuffer()
	before := static.Len()
	f.system.Remove(d)
	if static.Len() != before {
		t.Fatal("second Remove changed the static buffer")
	}
}

func TestSystemAddRebuildsOnlyAffectedBuffer(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	// A stale command in the static buffer survives a dynamic add.
	f.system.StaticBuffer().GetTemporary("marker")
	adds, removes := f.camera.adds, f.camera.removes

	d := New(f.world, "dyn", testMaterial("M"))
	d.Static = false
	f.system.Add(d)

	if f.system.StaticBuffer().Len() != 1 {
		t.Fatal("static buffer rebuilt on dynamic add")
	}
	if len(f.system.DynamicBuffer().Draws()) != 1 {
		t.Fatal("dynamic buffer not rebuilt")
	}
	if f.camera.adds != adds || f.camera.removes != removes {
		t.Fatal("Add touched camera bindings")
	}
}

func TestSystemIgnoresCallsBeforeActivate(t *testing.T) {
	f := newFixture(t, Config{})
	d := New(f.world, "early", testMaterial("M"))
	f.system.Add(d)
	f.system.Remove(d)
	f.system.Rebuild()
	f.system.Reassign()
	f.system.Refresh()

	if f.system.StaticBuffer() != nil || f.system.DynamicBuffer() != nil {
		t.Fatal("buffers created before activation")
	}
	if f.system.Batches().Static().Len() != 0 {
		t.Fatal("Add before activation changed batches")
	}
	if f.camera.total() != 0 {
		t.Fatal("camera touched before activation")
	}
}

func TestSystemRefresh(t *testing.T) {
	tests := []struct {
		name       string
		live       bool
		wantStatic float32
	}{
		{"static_frozen", false, 0},
		{"static_live", true, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{UpdateStaticLive: tt.live})
			s := New(f.world, "s", testMaterial("M"))
			d := New(f.world, "d", testMaterial("M"))
			d.Static = false
			f.system.Register(s)
			f.system.Register(d)
			if err := f.system.Activate(); err != nil {
				t.Fatal(err)
			}

			s.Transform = mgl32.Translate3D(5, 0, 0)
			d.Transform = mgl32.Translate3D(7, 0, 0)
			f.world.AddSystem(f.system)
			f.world.Update()

			if x := f.system.StaticBuffer().Draws()[0].Transform.Col(3).X(); x != tt.wantStatic {
				t.Errorf("static x = %v, want %v", x, tt.wantStatic)
			}
			if x := f.system.DynamicBuffer().Draws()[0].Transform.Col(3).X(); x != 7 {
				t.Errorf("dynamic x = %v, want 7", x)
			}
		})
	}
}

func TestSystemRebuildResyncsChangedEvent(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	cfg := f.system.Config()
	cfg.Cameras[0].Event = AfterEverything
	f.system.ApplyConfig(cfg)

	if len(f.camera.CommandBuffers(AfterForwardOpaque)) != 0 {
		t.Fatalf("stale attachment survived: %v", f.camera.attached())
	}
	if len(f.camera.CommandBuffers(AfterEverything)) != 2 {
		t.Fatalf("buffers not moved: %v", f.camera.attached())
	}
}

func TestSystemApplyConfigDropsRemovedCamera(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	other := newTestCamera("other")
	f.system.ApplyConfig(Config{Cameras: []CameraBinding{{Camera: other, Event: AfterEverything, RenderDynamic: true}}})

	if f.camera.total() != 0 {
		t.Fatalf("removed camera kept buffers: %v", f.camera.attached())
	}
	if got := other.attached()[AfterEverything]; len(got) != 1 || got[0] != DynamicBufferName {
		t.Fatalf("new camera attachments = %v", other.attached())
	}
}

func TestSystemSameCameraSeveralEvents(t *testing.T) {
	cam := newTestCamera("main")
	f := newFixture(t, Config{Cameras: []CameraBinding{
		{Camera: cam, Event: AfterForwardOpaque, RenderStatic: true},
		{Camera: cam, Event: AfterForwardAlpha, RenderDynamic: true},
		{Camera: nil, Event: AfterEverything, RenderStatic: true},
	}})
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	f.system.Rebuild()
	f.system.Reassign()

	got := cam.attached()
	if len(got[AfterForwardOpaque]) != 1 || got[AfterForwardOpaque][0] != StaticBufferName {
		t.Fatalf("opaque attachments = %v", got)
	}
	if len(got[AfterForwardAlpha]) != 1 || got[AfterForwardAlpha][0] != DynamicBufferName {
		t.Fatalf("alpha attachments = %v", got)
	}
}

func TestSystemLifecycle(t *testing.T) {
	f := newFixture(t, Config{})
	d := New(f.world, "d", testMaterial("M"))
	f.system.Register(d)

	if f.system.State() != StateUninitialized {
		t.Fatalf("state = %v", f.system.State())
	}
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	static := f.system.StaticBuffer()

	f.system.Deactivate()
	if f.system.State() != StateDisabled || f.camera.total() != 0 {
		t.Fatalf("after Deactivate: state=%v attached=%v", f.system.State(), f.camera.attached())
	}
	f.system.Add(New(f.world, "ignored", testMaterial("M")))
	if f.system.Batches().Static().Len() != 1 {
		t.Fatal("Add while disabled changed batches")
	}

	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	if f.system.StaticBuffer() != static {
		t.Fatal("buffer recreated on re-enable")
	}
	if f.camera.total() != 2 {
		t.Fatalf("re-enable attached %d buffers, want 2", f.camera.total())
	}
	if f.meshes.calls != 1 {
		t.Fatalf("fallback created %d times, want 1", f.meshes.calls)
	}

	f.system.Destroy()
	if f.system.State() != StateDestroyed || f.camera.total() != 0 {
		t.Fatal("Destroy did not detach")
	}
	if d.System() != nil {
		t.Fatal("decal still references a destroyed system")
	}
	if err := f.system.Activate(); !errors.Is(err, ErrDestroyed) {
		t.Fatalf("Activate after Destroy = %v, want ErrDestroyed", err)
	}
	f.system.Register(d)
	f.system.Rebuild()
	if len(f.system.Decals()) != 0 || f.camera.total() != 0 {
		t.Fatal("destroyed system accepted work")
	}
}

func TestSystemSkipsDestroyedEntities(t *testing.T) {
	f := newFixture(t, Config{})
	alive := New(f.world, "alive", testMaterial("M"))
	gone := New(f.world, "gone", testMaterial("M"))
	f.system.Register(alive)
	f.system.Register(gone)
	f.world.DestroyEntity(gone.Entity())

	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	if n := f.system.Batches().Static().Len(); n != 1 {
		t.Fatalf("static members = %d, want 1", n)
	}
}

func TestSystemDrawsDecalsWithoutSharedWorld(t *testing.T) {
	f := newFixture(t, Config{})
	other := ecs.NewWorld()
	local := New(f.world, "local", testMaterial("M"))
	foreign := New(other, "foreign", testMaterial("M"))
	bare := &Decal{Name: "bare", Material: testMaterial("M"), Static: true}
	for _, d := range []*Decal{local, foreign, bare} {
		f.system.Register(d)
	}
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	if n := len(f.system.StaticBuffer().Draws()); n != 3 {
		t.Fatalf("static draws = %d, want 3", n)
	}

	other.DestroyEntity(foreign.Entity())
	f.system.Rebuild()
	if n := f.system.Batches().Static().Len(); n != 2 {
		t.Fatalf("static members = %d, want 2 after destroying the foreign entity", n)
	}
	if f.system.Batches().Static().Contains(foreign) {
		t.Fatal("destroyed foreign decal still batched")
	}
}

func TestSystemWithoutMeshFactory(t *testing.T) {
	cam := newTestCamera("main")
	w := ecs.NewWorld()
	s := NewSystem(nil, Config{Cameras: []CameraBinding{{Camera: cam, Event: AfterEverything, RenderStatic: true, RenderDynamic: true}}})
	s.Register(New(w, "d", testMaterial("M")))
	if err := s.Activate(); err != nil {
		t.Fatal(err)
	}
	if s.FallbackMesh() != nil {
		t.Fatal("fallback mesh without a factory")
	}
	if s.StaticBuffer() == nil || s.StaticBuffer().Len() != 0 {
		t.Fatal("static buffer should exist and stay empty")
	}
	if cam.total() != 2 {
		t.Fatalf("buffers should still attach, got %v", cam.attached())
	}
}

func TestDecalLifecycleCalls(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.system.Activate(); err != nil {
		t.Fatal(err)
	}
	d := New(f.world, "d", testMaterial("M"))
	d.Attach(f.system)
	if d.System() != f.system || len(f.system.Decals()) != 1 {
		t.Fatal("Attach did not register")
	}
	d.Attach(f.system)
	if len(f.system.Decals()) != 1 {
		t.Fatal("double Attach duplicated the registration")
	}
	if !f.system.Batches().Static().Contains(d) {
		t.Fatal("decal not in static batch")
	}

	d.SetStatic(false)
	if f.system.Batches().Static().Contains(d) || !f.system.Batches().Dynamic().Contains(d) {
		t.Fatal("SetStatic did not move the decal")
	}
	if len(f.system.StaticBuffer().Draws()) != 0 || len(f.system.DynamicBuffer().Draws()) != 1 {
		t.Fatal("SetStatic did not rebuild both buffers")
	}

	d.Detach()
	if d.System() != nil || len(f.system.Decals()) != 0 || f.system.Batches().Dynamic().Len() != 0 {
		t.Fatal("Detach did not unregister")
	}
}
