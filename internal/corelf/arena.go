package corelf

import "sync"

// Allocator supplies the backing storage for one Block's worth of nodes.
// It stands in for object_pool.hpp's `Allocator` template parameter: Go
// facades accept it as an interface value (WithAllocator) rather than
// threading a second generic parameter through every public type.
type Allocator[P any] interface {
	// AllocateBlock returns a freshly zero-valued slice of length
	// capacity. An error here is the only way AllocError can ever be
	// produced, since Go's zero value construction itself cannot fail.
	AllocateBlock(capacity int) ([]Node[P], error)
}

// defaultAllocator is the plain make()-backed Allocator every facade uses
// unless WithAllocator overrides it.
type defaultAllocator[P any] struct{}

func (defaultAllocator[P]) AllocateBlock(capacity int) ([]Node[P], error) {
	return make([]Node[P], capacity), nil
}

// Arena owns a chain of Blocks and the free Stack they feed. Mutates the
// block chain only under mu, taken solely on the slow (block-refill) path
// — the fast path (Stack.Pop succeeding) never touches it. This is the
// block-arena allocation protocol from object_pool.hpp, reused identically
// by pool.Pool and racefree.RaceFree.
type Arena[P any] struct {
	stack Stack[P]

	mu            sync.Mutex
	blocks        *Block[P]
	blockCount    int
	nodesPerBlock int
	alloc         Allocator[P]
}

// NewArena creates an Arena. capacity overrides the computed
// nodes-per-block when positive; pass 0 to use blockCapacity[P]().
func NewArena[P any](capacity int, alloc Allocator[P]) *Arena[P] {
	if alloc == nil {
		alloc = defaultAllocator[P]{}
	}
	if capacity <= 0 {
		capacity = blockCapacity[P]()
	}
	if capacity < minBlockCapacity {
		capacity = minBlockCapacity
	}
	return &Arena[P]{nodesPerBlock: capacity, alloc: alloc}
}

// Lease pops a free node, allocating a new block first if the stack is
// empty, and hands it back wrapped in a Handle. The allocation protocol:
// re-check under lock (another goroutine may have refilled the stack
// already), allocate one block, link it onto the block chain, reserve
// node 0 for the caller, push nodes [1:] onto the free stack, release,
// return node 0.
func (a *Arena[P]) Lease() (*Handle[P], error) {
	n, err := a.leaseNode()
	if err != nil {
		return nil, err
	}
	return newHandle(&a.stack, n), nil
}

func (a *Arena[P]) leaseNode() (*Node[P], error) {
	for {
		if n := a.stack.Pop(); n != nil {
			return n, nil
		}

		a.mu.Lock()
		if n := a.stack.Pop(); n != nil {
			a.mu.Unlock()
			return n, nil
		}
		n, err := a.allocateBlockLocked()
		a.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}

// LeaseAll atomically detaches the entire free chain into a Snapshot.
func (a *Arena[P]) LeaseAll() *Snapshot[P] {
	return newSnapshot(&a.stack, a.stack.DetachAll())
}

// allocateBlockLocked must be called with mu held. It allocates one Block,
// links it onto the chain, keeps nodes[0] for the caller, and pushes the
// rest onto the free stack.
func (a *Arena[P]) allocateBlockLocked() (*Node[P], error) {
	nodes, err := a.alloc.AllocateBlock(a.nodesPerBlock)
	if err != nil {
		return nil, NewAllocError(err)
	}

	block := &Block[P]{next: a.blocks, nodes: nodes}
	a.blocks = block
	a.blockCount++

	rest := nodes[1:]
	for i := range rest {
		if i+1 < len(rest) {
			rest[i].next = &rest[i+1]
		}
	}
	if len(rest) > 0 {
		a.stack.PushChain(&rest[0], &rest[len(rest)-1])
	}

	return &nodes[0], nil
}

// Push returns n to the free stack, available to any future Lease caller.
func (a *Arena[P]) Push(n *Node[P]) { a.stack.Push(n) }

// DetachAll atomically detaches the entire free chain, for Snapshot.
func (a *Arena[P]) DetachAll() *Node[P] { return a.stack.DetachAll() }

// PushChain restores a previously detached chain in one CAS.
func (a *Arena[P]) PushChain(head, tail *Node[P]) { a.stack.PushChain(head, tail) }

// FreeChain is a debug-only, non-thread-safe peek at the currently-free
// nodes (backs Pool.Size).
func (a *Arena[P]) FreeChain() *Node[P] { return a.stack.PeekChain() }

// BlockCount is a debug-only, non-thread-safe count of allocated blocks.
func (a *Arena[P]) BlockCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.blockCount
}

// ForEachAllocatedNode walks every node ever allocated by this Arena,
// free or leased, across every block, stopping early if fn returns false.
// Debug-only: not safe to call concurrently with Lease (a block being
// linked onto the chain mid-walk may or may not be observed).
func (a *Arena[P]) ForEachAllocatedNode(fn func(*Node[P]) bool) {
	a.mu.Lock()
	block := a.blocks
	a.mu.Unlock()

	for b := block; b != nil; b = b.next {
		for i := range b.nodes {
			if !fn(&b.nodes[i]) {
				return
			}
		}
	}
}
