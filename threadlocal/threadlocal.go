// Package threadlocal implements scoped thread-local storage for
// goroutines: one value per goroutine, allocated lazily on first access,
// iterable, and bulk-clearable.
//
// Credits -> original_source/inc/tls.hpp (p2774::tls).
package threadlocal

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/hexfault/parapool/internal/corelf"
	"github.com/hexfault/parapool/internal/goid"
)

// AllocError and ConstructError re-export corelf's error kinds so callers
// of this package never need to import internal/corelf directly.
type (
	AllocError     = corelf.AllocError
	ConstructError = corelf.ConstructError
)

// entry is the per-goroutine node payload: the stored value paired with the
// owning goroutine's identity, matching tls.hpp's node { value, owner,
// next }. It carries two independent links: bucketNext chains entries
// within one bucket (written once before the node is published and never
// mutated afterward), while the global iteration chain uses corelf.Node's
// own `next` field via the push-only list Stack. Keeping these separate
// means a bucket scan only ever walks that bucket's own entries, not every
// entry in the container.
type entry[T any] struct {
	value      T
	owner      goid.ID
	bucketNext *corelf.Node[entry[T]]
}

// Local is scoped thread-local storage for values of type T. The zero
// value is not usable; construct with New, NewDefault, or NewFromValue.
//
// Credits -> original_source/inc/tls.hpp.
type Local[T any] struct {
	init    func() (T, error)
	buckets []atomic.Pointer[corelf.Node[entry[T]]]
	list    corelf.Stack[entry[T]] // global list, push-only, for iteration
	log     zerolog.Logger
}

// Option configures a Local at construction time.
type Option[T any] func(*Local[T])

// WithBucketCount overrides the default bucket count
// (runtime.GOMAXPROCS(0)), fixed for the lifetime of the container: buckets
// are sized once at construction and never resized or rebalanced.
func WithBucketCount[T any](n int) Option[T] {
	return func(l *Local[T]) {
		if n > 0 {
			l.buckets = make([]atomic.Pointer[corelf.Node[entry[T]]], n)
		}
	}
}

// WithLogger attaches a zerolog.Logger; each entry allocation is logged
// at debug level. Defaults to a no-op logger.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(l *Local[T]) { l.log = logger }
}

// New constructs a Local whose value is produced by calling init once per
// goroutine on first access. init must be safe to call repeatedly from any
// goroutine and must not itself call Local or Clear on the same Local.
func New[T any](init func() (T, error), opts ...Option[T]) *Local[T] {
	l := &Local[T]{
		init:    init,
		buckets: make([]atomic.Pointer[corelf.Node[entry[T]]], defaultBucketCount()),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewDefault constructs a Local whose value is the zero value of T on
// first access from each goroutine. Never fails.
func NewDefault[T any](opts ...Option[T]) *Local[T] {
	return New(func() (T, error) {
		var zero T
		return zero, nil
	}, opts...)
}

// NewFromValue constructs a Local that copies seed into each goroutine's
// entry on first access. The Go stand-in for tls.hpp's constructor that
// forwards Args... to Type's constructor: in Go, assigning (copying) seed
// is always valid, so no "copy constructible" constraint is needed.
func NewFromValue[T any](seed T, opts ...Option[T]) *Local[T] {
	return New(func() (T, error) {
		return seed, nil
	}, opts...)
}

func defaultBucketCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

func (l *Local[T]) bucketFor(id goid.ID) (*atomic.Pointer[corelf.Node[entry[T]]], int) {
	h := int(uint64(id) % uint64(len(l.buckets)))
	return &l.buckets[h], h
}

// Local returns a pointer to the calling goroutine's value, allocating and
// running init on first access. The returned bool is true iff this call
// performed that allocation.
//
// Lookups and inserts for distinct buckets never contend; inserts within a
// bucket contend only on that bucket's head CAS. init is never called
// while holding any lock.
func (l *Local[T]) Local() (*T, bool, error) {
	id := goid.Current()
	bucket, bucketIdx := l.bucketFor(id)

	for n := bucket.Load(); n != nil; n = n.Value().bucketNext {
		if n.Value().owner == id {
			return &n.Value().value, false, nil
		}
	}

	value, err := func() (v T, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("threadlocal: initializer panicked: %v", r)
			}
		}()
		return l.init()
	}()
	if err != nil {
		return nil, false, corelf.NewConstructError(err)
	}

	n := &corelf.Node[entry[T]]{}
	for {
		head := bucket.Load()
		*n.Value() = entry[T]{value: value, owner: id, bucketNext: head}
		if bucket.CompareAndSwap(head, n) {
			break
		}
	}
	l.list.Push(n)
	l.log.Debug().Int("bucket", bucketIdx).Msg("threadlocal: allocated entry")

	return &n.Value().value, true, nil
}

// Clear destroys every stored value and resets every bucket and the
// global list to empty. Single-threaded only: must never run concurrently
// with Local or Range.
func (l *Local[T]) Clear() {
	for i := range l.buckets {
		l.buckets[i].Store(nil)
	}
	l.list = corelf.Stack[entry[T]]{}
}

// Range calls fn once for every currently stored value, in
// implementation-defined order, stopping early if fn returns false.
// Iteration follows the global insertion list (tls.hpp's atomic forward
// list), observing the set of entries linked at the moment Range starts;
// concurrently inserted entries may or may not appear. Safe to call
// concurrently with Local, but never with Clear.
func (l *Local[T]) Range(fn func(*T) bool) {
	for n := l.list.PeekChain(); n != nil; n = n.Next() {
		if !fn(&n.Value().value) {
			return
		}
	}
}
