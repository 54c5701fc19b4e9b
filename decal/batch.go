package decal

import "slices"

// BatchKind distinguishes the static and dynamic batches.
type BatchKind uint8

const (
	BatchStatic BatchKind = iota
	BatchDynamic
)

func (k BatchKind) String() string {
	if k == BatchStatic {
		return "static"
	}
	return "dynamic"
}

// Change reports which batches an Add or Remove touched.
type Change uint8

const (
	ChangedStatic Change = 1 << iota
	ChangedDynamic
)

// Static reports whether the static batch changed.
func (c Change) Static() bool { return c&ChangedStatic != 0 }

// Dynamic reports whether the dynamic batch changed.
func (c Change) Dynamic() bool { return c&ChangedDynamic != 0 }

// None reports whether nothing changed.
func (c Change) None() bool { return c == 0 }

// Batch is a set of decals unique by pointer identity. Iteration follows
// insertion order.
type Batch struct {
	kind    BatchKind
	members []*Decal
	index   map[*Decal]struct{}
}

// Kind returns whether this is the static or dynamic batch.
func (b *Batch) Kind() BatchKind {
	return b.kind
}

// Len returns the number of decals in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.members)
}

// Contains reports whether d is a member.
func (b *Batch) Contains(d *Decal) bool {
	if b == nil || d == nil {
		return false
	}
	_, ok := b.index[d]
	return ok
}

// Decals returns the members in iteration order. Callers must not modify
// the returned slice.
func (b *Batch) Decals() []*Decal {
	if b == nil {
		return nil
	}
	return b.members
}

func (b *Batch) insert(d *Decal) bool {
	if d == nil || b.Contains(d) {
		return false
	}
	if b.index == nil {
		b.index = make(map[*Decal]struct{})
	}
	b.index[d] = struct{}{}
	b.members = append(b.members, d)
	return true
}

func (b *Batch) delete(d *Decal) bool {
	if !b.Contains(d) {
		return false
	}
	delete(b.index, d)
	i := slices.Index(b.members, d)
	b.members = slices.Delete(b.members, i, i+1)
	return true
}

func (b *Batch) clear() {
	clear(b.members)
	b.members = b.members[:0]
	clear(b.index)
}

func (b *Batch) change() Change {
	if b.kind == BatchStatic {
		return ChangedStatic
	}
	return ChangedDynamic
}

// Batches partitions decals into a static and a dynamic batch.
type Batches struct {
	static  Batch
	dynamic Batch
}

// NewBatches returns an empty pair of batches.
func NewBatches() *Batches {
	return &Batches{
		static:  Batch{kind: BatchStatic},
		dynamic: Batch{kind: BatchDynamic},
	}
}

// Static returns the static batch.
func (b *Batches) Static() *Batch { return &b.static }

// Dynamic returns the dynamic batch.
func (b *Batches) Dynamic() *Batch { return &b.dynamic }

// Clear empties both batches.
func (b *Batches) Clear() {
	b.static.clear()
	b.dynamic.clear()
}

// Populate clears both batches and classifies every decal by its Static
// flag. Nil decals are skipped.
func (b *Batches) Populate(decals []*Decal) {
	b.Clear()
	for _, d := range decals {
		if d == nil {
			continue
		}
		b.target(d).insert(d)
	}
}

// Add inserts d into the batch matching d.Static unless it is already
// there. A decal left in the opposite batch by a flag flip is evicted from
// it, so a decal is never a member of both.
func (b *Batches) Add(d *Decal) Change {
	if d == nil {
		return 0
	}
	var c Change
	if other := b.opposite(d); other.delete(d) {
		c |= other.change()
	}
	if target := b.target(d); target.insert(d) {
		c |= target.change()
	}
	return c
}

// Remove deletes d from both batches regardless of its current flag and
// reports which batches it was removed from.
func (b *Batches) Remove(d *Decal) Change {
	var c Change
	if b.static.delete(d) {
		c |= ChangedStatic
	}
	if b.dynamic.delete(d) {
		c |= ChangedDynamic
	}
	return c
}

func (b *Batches) target(d *Decal) *Batch {
	if d.Static {
		return &b.static
	}
	return &b.dynamic
}

func (b *Batches) opposite(d *Decal) *Batch {
	if d.Static {
		return &b.dynamic
	}
	return &b.static
}
