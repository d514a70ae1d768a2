package corelf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleReleaseReturnsNodeToStack(t *testing.T) {
	var s Stack[string]
	n := &Node[string]{}
	*n.Value() = "hello"

	h := newHandle(&s, n)
	require.Equal(t, "hello", *h.Value())
	require.Nil(t, s.Pop(), "node must not be visible while the handle is live")

	h.Release()
	require.Same(t, n, s.Pop())
}

func TestHandleReleaseIsIdempotent(t *testing.T) {
	var s Stack[int]
	n := &Node[int]{}

	h := newHandle(&s, n)
	h.Release()
	h.Release() // must not panic or double-push

	require.Same(t, n, s.Pop())
	require.Nil(t, s.Pop())
}

func TestSnapshotRangeAndRelease(t *testing.T) {
	var s Stack[int]
	for i := 0; i < 4; i++ {
		n := &Node[int]{}
		*n.Value() = i
		s.Push(n)
	}

	snap := newSnapshot(&s, s.DetachAll())
	require.Nil(t, s.Pop())

	var sum int
	snap.Range(func(v *int) bool {
		sum += *v
		return true
	})
	require.Equal(t, 0+1+2+3, sum)

	snap.Release()
	var restored int
	for s.Pop() != nil {
		restored++
	}
	require.Equal(t, 4, restored)
}

func TestSnapshotOfEmptyStackIsNoop(t *testing.T) {
	var s Stack[int]
	snap := newSnapshot(&s, s.DetachAll())
	called := false
	snap.Range(func(*int) bool { called = true; return true })
	require.False(t, called)
	snap.Release() // must not panic
}
