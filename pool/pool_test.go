package pool_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hexfault/parapool/internal/corelf"
	"github.com/hexfault/parapool/pool"
)

func TestLeaseReuseAndDirtyState(t *testing.T) {
	p := pool.New[int]()

	h1, err := p.Lease()
	require.NoError(t, err)
	*h1.Value() = 42
	h1.Release()

	h2, err := p.Lease()
	require.NoError(t, err)
	require.Equal(t, 42, *h2.Value(), "pool is deliberately dirty: prior state observed")
	h2.Release()
}

func TestLeaseAllSnapshotConservation(t *testing.T) {
	p := pool.New[int](pool.WithBlockCapacity[int](4))

	const leased = 3
	var live []*corelf.Handle[int]
	for i := 0; i < leased; i++ {
		h, err := p.Lease()
		require.NoError(t, err)
		live = append(live, h)
	}

	snap := p.LeaseAll()
	sum := 0
	snap.Range(func(v *int) bool { sum += *v; return true })
	require.Equal(t, 0, sum, "freshly allocated nodes are zero-valued")
	require.Zero(t, p.Size(), "all free nodes are detached while the snapshot is live")

	snap.Release()
	require.Greater(t, p.Size(), 0, "snapshot release must restore the free chain")

	for _, h := range live {
		h.Release()
	}
}

// TestParallelSumViaPool has many goroutines each lease a slot, add their
// index into it, and release it, then checks the pool's total against a
// precomputed reference sum.
func TestParallelSumViaPool(t *testing.T) {
	const n = 1000 // scaled down from 1_000_000 to keep unit tests fast
	p := pool.New[int64](pool.WithBlockCapacity[int64](64))

	var g errgroup.Group
	var active int64
	for i := 0; i < n; i++ {
		i := int64(i)
		g.Go(func() error {
			h, err := p.Lease()
			if err != nil {
				return err
			}
			atomic.AddInt64(&active, 1)
			*h.Value() += i
			h.Release()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Greater(t, active, int64(0))

	snap := p.LeaseAll()
	var sum int64
	snap.Range(func(v *int64) bool { sum += *v; return true })
	snap.Release()

	expected := int64(n-1) * n / 2
	require.Equal(t, expected, sum)
	require.Greater(t, p.Size(), 0, "pool must be non-empty again after snapshot release")
}

func TestConcurrentLeaseNeverHandsOutSameNodeTwice(t *testing.T) {
	p := pool.New[int](pool.WithBlockCapacity[int](8))
	const n = 2000

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[*int]int, n)
	handles := make([]*corelf.Handle[int], 0, n)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			h, err := p.Lease()
			require.NoError(t, err)
			mu.Lock()
			seen[h.Value()]++
			handles = append(handles, h)
			mu.Unlock()
		}()
	}
	wg.Wait()

	for ptr, count := range seen {
		require.Equalf(t, 1, count, "node %p handed out more than once concurrently", ptr)
	}
	for _, h := range handles {
		h.Release()
	}
}
