// Package racefree implements a lock-free, block-allocated pool of
// pre-constructed empty slots: any goroutine can borrow a slot (which may
// already be occupied from a previous caller's use), inspect it, fill it,
// or clear it, and hand it back.
//
// Credits -> original_source/inc/race_free.hpp (p2774::race_free).
package racefree

import (
	"github.com/rs/zerolog"

	"github.com/hexfault/parapool/internal/corelf"
)

// AllocError re-exports corelf's error kind so callers never need to
// import internal/corelf directly.
type AllocError = corelf.AllocError

// slot is the node payload: an optional value, occupied or not. The Go
// stand-in for race_free.hpp's std::optional<T> field.
type slot[T any] struct {
	value    T
	occupied bool
}

// RaceFree is a pool of pre-constructed empty slots for values of type T.
// The zero value is not usable; construct with New.
type RaceFree[T any] struct {
	arena *corelf.Arena[slot[T]]
	log   zerolog.Logger
}

// Option configures a RaceFree at construction time.
type Option[T any] func(*config[T])

type config[T any] struct {
	capacity int
	log      zerolog.Logger
}

// WithBlockCapacity overrides the computed nodes-per-block.
func WithBlockCapacity[T any](n int) Option[T] {
	return func(c *config[T]) { c.capacity = n }
}

// WithLogger attaches a zerolog.Logger to the RaceFree. Defaults to a no-op
// logger. The RaceFree stores the logger but no RaceFree operation writes
// to it; block allocation is not logged.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(c *config[T]) { c.log = logger }
}

// New constructs a RaceFree pool.
//
// Unlike pool.Pool, RaceFree does not accept a custom corelf.Allocator:
// its node payload (slot[T]) is unexported, so no caller outside this
// package could implement corelf.Allocator[slot[T]] anyway.
func New[T any](opts ...Option[T]) *RaceFree[T] {
	cfg := config[T]{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RaceFree[T]{
		arena: corelf.NewArena[slot[T]](cfg.capacity, nil),
		log:   cfg.log,
	}
}

// Handle is a scoped, exclusive borrow of one slot, empty or occupied
// depending on what a previous caller left behind. Release with
// defer h.Release() to return it to the pool regardless of its final
// occupancy.
type Handle[T any] struct {
	inner *corelf.Handle[slot[T]]
}

// Occupied reports whether the slot currently holds a value.
func (h *Handle[T]) Occupied() bool { return h.inner.Value().occupied }

// Value returns the slot's value and true if occupied, or the zero value
// and false otherwise — the comma-ok idiom in place of the C++ source's
// precondition-occupied UB deref.
func (h *Handle[T]) Value() (T, bool) {
	s := h.inner.Value()
	if !s.occupied {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Emplace constructs v into the slot, overwriting any prior value.
func (h *Handle[T]) Emplace(v T) {
	s := h.inner.Value()
	s.value = v
	s.occupied = true
}

// Reset clears the slot.
func (h *Handle[T]) Reset() {
	s := h.inner.Value()
	var zero T
	s.value = zero
	s.occupied = false
}

// Release returns the slot to the pool, occupied or not, so a future
// caller sees its current state.
func (h *Handle[T]) Release() { h.inner.Release() }

// Get borrows one slot, allocating a new block first if none are free.
func (r *RaceFree[T]) Get() (*Handle[T], error) {
	inner, err := r.arena.Lease()
	if err != nil {
		return nil, err
	}
	return &Handle[T]{inner: inner}, nil
}

// Reset clears every occupied slot across every block without releasing
// any memory. Requires the same quiescence as Range: must not run
// concurrently with Get.
//
// Credits -> original_source/inc/race_free.hpp::reset.
func (r *RaceFree[T]) Reset() {
	r.arena.ForEachAllocatedNode(func(n *corelf.Node[slot[T]]) bool {
		s := n.Value()
		var zero T
		s.value = zero
		s.occupied = false
		return true
	})
}

// Range calls fn once for every currently-occupied slot's value, skipping
// empty slots, stopping early if fn returns false. Not safe to call
// concurrently with Get.
func (r *RaceFree[T]) Range(fn func(*T) bool) {
	r.arena.ForEachAllocatedNode(func(n *corelf.Node[slot[T]]) bool {
		s := n.Value()
		if !s.occupied {
			return true
		}
		return fn(&s.value)
	})
}

// BlockCount is a debug-only, not-thread-safe count of allocated blocks.
//
// Credits -> original_source/inc/race_free.hpp::block_count.
func (r *RaceFree[T]) BlockCount() int { return r.arena.BlockCount() }

// NodeCount is a debug-only, not-thread-safe count of currently-occupied
// slots across every block.
//
// Credits -> original_source/inc/race_free.hpp::node_count.
func (r *RaceFree[T]) NodeCount() int {
	count := 0
	r.arena.ForEachAllocatedNode(func(n *corelf.Node[slot[T]]) bool {
		if n.Value().occupied {
			count++
		}
		return true
	})
	return count
}
