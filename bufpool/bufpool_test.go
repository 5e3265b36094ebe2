package bufpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomem/galloc/allocator"
	"github.com/gomem/galloc/arena"
	"github.com/gomem/galloc/internal/testutils/fakeprovider"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	prov := fakeprovider.New(4096)
	a := allocator.New(prov, arena.DefaultConfig, 1)
	return New(a)
}

func TestMallocReturnsExactLength(t *testing.T) {
	p := newTestPool(t)
	buf, err := p.Malloc(10)
	require.NoError(t, err)
	assert.Len(t, buf, 10)
	assert.GreaterOrEqual(t, p.Cap(buf), 10)
}

func TestAppendGrowsInPlaceWhenCapacityAllows(t *testing.T) {
	p := newTestPool(t)
	buf, err := p.Malloc(4)
	require.NoError(t, err)
	copy(buf, "abcd")

	cap0 := p.Cap(buf)
	require.Greater(t, cap0, 4)

	grown, err := p.Append(buf, []byte("ef")...)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(grown))
}

func TestAppendStrMovesWhenOutOfCapacity(t *testing.T) {
	p := newTestPool(t)
	buf, err := p.Malloc(1)
	require.NoError(t, err)
	copy(buf, "a")

	huge := make([]byte, p.Cap(buf)*4)
	for i := range huge {
		huge[i] = 'x'
	}

	grown, err := p.AppendStr(buf, string(huge))
	require.NoError(t, err)
	assert.True(t, len(grown) > len(huge))
	assert.Equal(t, byte('a'), grown[0])
}

func TestFreeThenMallocSameSizeGivesSameCapacity(t *testing.T) {
	p := newTestPool(t)
	buf, err := p.Malloc(128)
	require.NoError(t, err)
	capBefore := p.Cap(buf)
	p.Free(buf)

	buf2, err := p.Malloc(128)
	require.NoError(t, err)
	assert.Equal(t, capBefore, p.Cap(buf2))
}
