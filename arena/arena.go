// Package arena stores simulation records in dense slots addressed by
// generation-checked handles.
package arena

import "iter"

// Handle addresses a record. A handle goes stale when its record is removed,
// even if the slot is later reused. The zero Handle never refers to a record.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// Index returns the slot index, stable for the life of the record.
func (h Handle) Index() int {
	return int(h.index)
}

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Arena is a slot allocator with a free list. It is not safe for concurrent
// mutation.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

// New returns an arena with room for capacity records before growing.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{slots: make([]slot[T], 0, capacity)}
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) Handle {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.live = true
		return Handle{index: idx, gen: s.gen}
	}
	a.slots = append(a.slots, slot[T]{value: v, gen: 1, live: true})
	return Handle{index: uint32(len(a.slots) - 1), gen: 1}
}

// Get returns a pointer to the record for h, or nil if h is stale. The
// pointer is invalidated by the next Insert.
func (a *Arena[T]) Get(h Handle) *T {
	if int(h.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return &s.value
}

// Contains reports whether h refers to a live record.
func (a *Arena[T]) Contains(h Handle) bool {
	return a.Get(h) != nil
}

// Remove deletes the record for h. It reports false if h was already stale.
func (a *Arena[T]) Remove(h Handle) bool {
	if a.Get(h) == nil {
		return false
	}
	s := &a.slots[h.index]
	var zero T
	s.value = zero
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, h.index)
	a.live--
	return true
}

// Len returns the number of live records.
func (a *Arena[T]) Len() int {
	return a.live
}

// All iterates live records in slot order. Removing the current record is
// allowed; inserting during iteration is not.
func (a *Arena[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for i := range a.slots {
			s := &a.slots[i]
			if !s.live {
				continue
			}
			if !yield(Handle{index: uint32(i), gen: s.gen}, &s.value) {
				return
			}
		}
	}
}

// Handles appends the handles of all live records to dst.
func (a *Arena[T]) Handles(dst []Handle) []Handle {
	for h := range a.All() {
		dst = append(dst, h)
	}
	return dst
}

// Clear removes every record. Outstanding handles become stale.
func (a *Arena[T]) Clear() {
	for h := range a.All() {
		a.Remove(h)
	}
}
