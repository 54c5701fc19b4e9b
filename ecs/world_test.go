package ecs

import "testing"

func TestWorldEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, w.CreateEntity())
			}
			if w.EntityCount() != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, w.EntityCount())
			}
			if c.destroyIndex >= 0 {
				if !w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if w.IsAlive(ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return false for a dead entity")
				}
			}
		})
	}
}

func TestWorldReusesSlotWithNewGeneration(t *testing.T) {
	w := NewWorld()
	old := w.CreateEntity()
	if !w.DestroyEntity(old) {
		t.Fatal("failed to destroy entity")
	}
	reused := w.CreateEntity()
	if reused.Index() != old.Index() {
		t.Fatalf("expected slot %d to be reused, got %d", old.Index(), reused.Index())
	}
	if reused == old {
		t.Fatal("reused handle must differ from the stale one")
	}
	if w.IsAlive(old) {
		t.Fatal("stale handle must not be alive")
	}
	if !w.IsAlive(reused) {
		t.Fatal("reused handle must be alive")
	}
}

type recordingSystem struct {
	name string
	log  *[]string
}

func (s recordingSystem) Update(*World) { *s.log = append(*s.log, s.name) }

func TestWorldUpdateRunsSystemsInOrder(t *testing.T) {
	w := NewWorld()
	var log []string
	w.AddSystem(recordingSystem{name: "motion", log: &log})
	w.AddSystem(nil)
	w.AddSystem(recordingSystem{name: "decals", log: &log})

	w.Update()
	w.Update()

	want := []string{"motion", "decals", "motion", "decals"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, log)
		}
	}
	if w.Frame() != 2 {
		t.Fatalf("expected frame 2, got %d", w.Frame())
	}
}

func TestSparseSet(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "set_reports_insertion",
			run: func(t *testing.T) {
				w := NewWorld()
				e := w.CreateEntity()
				var s SparseSet[string]
				if !s.Set(e, "a") {
					t.Fatal("first Set should insert")
				}
				if s.Set(e, "b") {
					t.Fatal("second Set should update")
				}
				if v, ok := s.Get(e); !ok || v != "b" {
					t.Fatalf("expected b, got %q ok=%v", v, ok)
				}
				if s.Len() != 1 {
					t.Fatalf("expected 1 entry, got %d", s.Len())
				}
			},
		},
		{
			name: "remove_preserves_order",
			run: func(t *testing.T) {
				w := NewWorld()
				var s SparseSet[int]
				ents := []Entity{w.CreateEntity(), w.CreateEntity(), w.CreateEntity(), w.CreateEntity()}
				for i, e := range ents {
					s.Set(e, i)
				}
				if !s.Remove(ents[1]) {
					t.Fatal("expected removal")
				}
				if s.Remove(ents[1]) {
					t.Fatal("second removal should report false")
				}
				got := s.Values()
				want := []int{0, 2, 3}
				if len(got) != len(want) {
					t.Fatalf("expected %v, got %v", want, got)
				}
				for i := range want {
					if got[i] != want[i] {
						t.Fatalf("expected %v, got %v", want, got)
					}
				}
				if v, ok := s.Get(ents[3]); !ok || v != 3 {
					t.Fatalf("lookup after shift broken: %v ok=%v", v, ok)
				}
			},
		},
		{
			name: "stale_handle_misses",
			run: func(t *testing.T) {
				w := NewWorld()
				var s SparseSet[int]
				old := w.CreateEntity()
				s.Set(old, 1)
				w.DestroyEntity(old)
				reused := w.CreateEntity()
				if s.Has(reused) {
					t.Fatal("reused slot must not match stale entry")
				}
				if !s.Has(old) {
					t.Fatal("stale handle still keys its own entry")
				}
			},
		},
		{
			name: "clear",
			run: func(t *testing.T) {
				w := NewWorld()
				var s SparseSet[int]
				a, b := w.CreateEntity(), w.CreateEntity()
				s.Set(a, 1)
				s.Set(b, 2)
				s.Clear()
				if s.Len() != 0 || s.Has(a) || s.Has(b) {
					t.Fatal("clear left entries behind")
				}
				if !s.Set(a, 3) {
					t.Fatal("set after clear should insert")
				}
			},
		},
		{
			name: "nil_and_zero_entity",
			run: func(t *testing.T) {
				var s *SparseSet[int]
				if s.Has(1) || s.Len() != 0 || s.Remove(1) {
					t.Fatal("nil set must be empty")
				}
				var z SparseSet[int]
				if z.Set(0, 1) {
					t.Fatal("zero entity must be rejected")
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, tc.run)
	}
}
