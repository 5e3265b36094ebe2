package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomem/galloc/internal/testutils/fakeprovider"
)

func rawArena(t *testing.T, payloadSize uint64) []byte {
	t.Helper()
	buf := make([]byte, StructSize+payloadSize)
	return buf
}

func TestInitArenaIsFirstAndLast(t *testing.T) {
	buf := rawArena(t, 1024)
	b := InitArena(unsafe.Pointer(&buf[0]), 1024)

	assert.True(t, b.First())
	assert.True(t, b.Last())
	assert.False(t, b.Busy())
	assert.Equal(t, uint64(1024), b.SizeCurr())
	assert.Equal(t, uint64(0), b.Offset())
}

func TestSplitCarvesBusyFrontBlock(t *testing.T) {
	buf := rawArena(t, 1024)
	b := InitArena(unsafe.Pointer(&buf[0]), 1024)

	rest, ok := b.Split(128)
	require.True(t, ok)

	assert.True(t, b.Busy())
	assert.Equal(t, uint64(128), b.SizeCurr())
	assert.True(t, b.First())
	assert.False(t, b.Last())

	assert.False(t, rest.Busy())
	assert.True(t, rest.Last())
	assert.False(t, rest.First())
	assert.Equal(t, uint64(1024-128-StructSize), rest.SizeCurr())
	assert.Equal(t, uint64(128), rest.SizePrev())
	assert.Equal(t, b.Offset()+128+StructSize, rest.Offset())

	assert.Equal(t, b.Next().Ptr(), rest.Ptr())
	assert.Equal(t, rest.Prev().Ptr(), b.Ptr())
}

func TestSplitRefusesTooSmallRemainder(t *testing.T) {
	buf := rawArena(t, SizeMin)
	b := InitArena(unsafe.Pointer(&buf[0]), SizeMin)

	_, ok := b.Split(SizeMin - Align)
	assert.False(t, ok)
	// b is still marked busy even though the split didn't carve a remainder.
	assert.True(t, b.Busy())
	assert.Equal(t, SizeMin, b.SizeCurr())
	assert.True(t, b.Last())
}

func TestSplitThenMergeRestoresOriginalBlock(t *testing.T) {
	buf := rawArena(t, 1024)
	b := InitArena(unsafe.Pointer(&buf[0]), 1024)
	b.ClearBusy() // InitArena already leaves it free; keep explicit for clarity

	rest, ok := b.Split(128)
	require.True(t, ok)
	b.ClearBusy()

	b.Merge(rest)
	assert.Equal(t, uint64(1024), b.SizeCurr())
	assert.True(t, b.Last())
	assert.True(t, b.First())
}

func TestMergeUpdatesFollowingBlockSizePrev(t *testing.T) {
	buf := rawArena(t, 2048)
	b := InitArena(unsafe.Pointer(&buf[0]), 2048)

	mid, ok := b.Split(128)
	require.True(t, ok)
	tail, ok := mid.Split(128)
	require.True(t, ok)
	require.False(t, tail.Nil())

	b.ClearBusy()
	mid.ClearBusy()
	b.Merge(mid)

	assert.Equal(t, tail.SizePrev(), b.SizeCurr())
	assert.Equal(t, b.Next().Ptr(), tail.Ptr())
}

func TestArenaStartDerivedFromOffset(t *testing.T) {
	buf := rawArena(t, 1024)
	base := unsafe.Pointer(&buf[0])
	b := InitArena(base, 1024)

	rest, ok := b.Split(128)
	require.True(t, ok)

	assert.Equal(t, base, b.ArenaStart())
	assert.Equal(t, base, rest.ArenaStart())
}

func TestFromPayloadRoundTrips(t *testing.T) {
	buf := rawArena(t, 256)
	b := InitArena(unsafe.Pointer(&buf[0]), 256)

	got := FromPayload(b.Payload())
	assert.Equal(t, b.Ptr(), got.Ptr())
}

func TestPayloadBytesLenMatchesSizeCurr(t *testing.T) {
	buf := rawArena(t, 256)
	b := InitArena(unsafe.Pointer(&buf[0]), 256)

	p := b.PayloadBytes()
	assert.Len(t, p, 256)
}

func TestDiscardSkipsSmallBlocks(t *testing.T) {
	prov := fakeprovider.New(4096)
	buf := rawArena(t, 64)
	b := InitArena(unsafe.Pointer(&buf[0]), 64)

	b.Discard(prov, 24)
	assert.Equal(t, 0, prov.ResetCalls)
}

func TestDiscardCallsResetOnInteriorPages(t *testing.T) {
	prov := fakeprovider.New(4096)
	payload := uint64(4096 * 3)
	buf := rawArena(t, payload)
	b := InitArena(unsafe.Pointer(&buf[0]), payload)

	b.Discard(prov, 24)
	assert.Equal(t, 1, prov.ResetCalls)
}
