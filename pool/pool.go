// Package pool implements a lock-free, block-allocated pool of anonymous
// reusable objects: lease one, mutate it, return it; any future caller on
// any goroutine may observe the prior state (the pool is deliberately
// "dirty" — it is the caller's contract to reset a value if that matters).
//
// Credits -> original_source/inc/object_pool.hpp (p2774::object_pool).
package pool

import (
	"github.com/rs/zerolog"

	"github.com/hexfault/parapool/internal/corelf"
)

// AllocError re-exports corelf's error kind so callers never need to
// import internal/corelf directly.
type AllocError = corelf.AllocError

// Pool is an anonymous object pool for values of type T. The zero value is
// not usable; construct with New.
type Pool[T any] struct {
	arena *corelf.Arena[T]
	log   zerolog.Logger
}

// Option configures a Pool at construction time.
type Option[T any] func(*config[T])

type config[T any] struct {
	capacity int
	alloc    corelf.Allocator[T]
	log      zerolog.Logger
}

// WithBlockCapacity overrides the computed nodes-per-block (debug/tuning
// only; the default sizes blocks to a ~512-byte budget per block).
func WithBlockCapacity[T any](n int) Option[T] {
	return func(c *config[T]) { c.capacity = n }
}

// WithAllocator overrides how a block's backing storage is obtained. The
// Go stand-in for object_pool's `Allocator` template parameter.
func WithAllocator[T any](alloc corelf.Allocator[T]) Option[T] {
	return func(c *config[T]) { c.alloc = alloc }
}

// WithLogger attaches a zerolog.Logger to the Pool. Defaults to a no-op
// logger. The Pool stores the logger but no Pool operation writes to it;
// block allocation is not logged.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(c *config[T]) { c.log = logger }
}

// New constructs a Pool. T must be safely usable at its zero value, since
// every node is constructed that way and never otherwise initialized by
// the pool itself.
func New[T any](opts ...Option[T]) *Pool[T] {
	cfg := config[T]{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Pool[T]{
		arena: corelf.NewArena[T](cfg.capacity, cfg.alloc),
		log:   cfg.log,
	}
}

// Lease borrows one value, allocating a new block first if every existing
// node is currently leased. The returned Handle must be released with
// defer h.Release() to make the value available again.
func (p *Pool[T]) Lease() (*corelf.Handle[T], error) {
	return p.arena.Lease()
}

// LeaseAll atomically detaches every currently-free value into a Snapshot.
// Values leased before the detach but not yet released are unaffected and
// are simply not part of the snapshot; releasing them later returns them
// to the pool as normal — no value is ever dropped on the floor.
func (p *Pool[T]) LeaseAll() *corelf.Snapshot[T] {
	return p.arena.LeaseAll()
}

// Size is a debug-only, not-thread-safe count of the currently-free nodes.
func (p *Pool[T]) Size() int {
	n := 0
	for c := p.arena.FreeChain(); c != nil; c = c.Next() {
		n++
	}
	return n
}
