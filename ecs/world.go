package ecs

// System updates a world each frame.
type System interface {
	Update(w *World)
}

// World owns entity handles and the per-frame system order.
type World struct {
	entities entityStore
	systems  []System
	frame    uint64
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	if w == nil {
		return 0
	}
	return w.entities.create()
}

// DestroyEntity invalidates an entity handle. It reports whether the entity
// was alive.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	if w == nil {
		return 0
	}
	return w.entities.count()
}

// AddSystem appends a system to the update order.
func (w *World) AddSystem(s System) {
	if w == nil || s == nil {
		return
	}
	w.systems = append(w.systems, s)
}

// Update runs all systems once, in the order they were added.
func (w *World) Update() {
	if w == nil {
		return
	}
	w.frame++
	for _, s := range w.systems {
		s.Update(w)
	}
}

// Frame returns how many times Update has run.
func (w *World) Frame() uint64 {
	if w == nil {
		return 0
	}
	return w.frame
}
