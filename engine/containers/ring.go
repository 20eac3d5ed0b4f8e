package containers

import "errors"

var ErrEmptyRing = errors.New("ring has no slots")

// Ring is a fixed-size round-robin sequence of slots. It never grows and
// never drops slots; Advance only moves the cursor.
type Ring[T any] struct {
	slots []T
	index int
}

// NewRing builds a ring from the given slots. The cursor starts on the last
// slot so that the first Advance lands on slot 0.
func NewRing[T any](slots ...T) (*Ring[T], error) {
	if len(slots) == 0 {
		return nil, ErrEmptyRing
	}
	return &Ring[T]{
		slots: slots,
		index: len(slots) - 1,
	}, nil
}

// Advance moves to the next slot and returns it.
func (r *Ring[T]) Advance() T {
	r.index = (r.index + 1) % len(r.slots)
	return r.slots[r.index]
}

// Current returns the slot under the cursor.
func (r *Ring[T]) Current() T {
	return r.slots[r.index]
}

func (r *Ring[T]) Index() int {
	return r.index
}

func (r *Ring[T]) At(i int) T {
	return r.slots[i]
}

func (r *Ring[T]) Len() int {
	return len(r.slots)
}
