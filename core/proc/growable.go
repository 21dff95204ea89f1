package proc

import "math"

// growable is an append-only sequence that starts at a fixed capacity and
// doubles whenever it fills up. Indices handed out by Append never move.
type growable[T any] struct {
	items []T
	used  int
}

func newGrowable[T any](capacity int) *growable[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &growable[T]{items: make([]T, capacity)}
}

// reserve makes room for one more item.
func (g *growable[T]) reserve() error {
	if g.used < len(g.items) {
		return nil
	}
	if len(g.items) > math.MaxInt/2 {
		return &Error{Kind: AllocationExhausted, Op: "realloc"}
	}
	items := make([]T, len(g.items)*2)
	copy(items, g.items[:g.used])
	g.items = items
	return nil
}

// Append stores v and returns its index.
func (g *growable[T]) Append(v T) (int, error) {
	if err := g.reserve(); err != nil {
		return 0, err
	}
	g.items[g.used] = v
	g.used++
	return g.used - 1, nil
}

// Get returns the item at i and whether i is in range.
func (g *growable[T]) Get(i int) (T, bool) {
	if i < 0 || i >= g.used {
		var zero T
		return zero, false
	}
	return g.items[i], true
}

func (g *growable[T]) Len() int {
	return g.used
}

func (g *growable[T]) Cap() int {
	return len(g.items)
}
