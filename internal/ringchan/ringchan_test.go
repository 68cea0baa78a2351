package ringchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDropsOldestWhenFull(t *testing.T) {
	rc := New[int](3)

	for i := 1; i <= 5; i++ {
		rc.Send(i)
	}

	// Only the last three survive.
	var got []int
	for len(rc.C()) > 0 {
		got = append(got, <-rc.C())
	}
	assert.Equal(t, []int{3, 4, 5}, got)
}

func TestTrySend(t *testing.T) {
	rc := New[string](1)

	require.True(t, rc.TrySend("a"))
	assert.False(t, rc.TrySend("b"), "full buffer must reject TrySend")
	assert.Equal(t, "a", <-rc.C())
}

func TestCloseIsIdempotent(t *testing.T) {
	rc := New[int](1)
	rc.Send(42)
	rc.Close()
	rc.Close()

	v, ok := <-rc.C()
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = <-rc.C()
	assert.False(t, ok, "channel must be closed after drain")
}

func TestZeroCapacityPanics(t *testing.T) {
	assert.Panics(t, func() { New[int](0) })
}
