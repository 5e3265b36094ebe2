//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package pageprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSProviderAllocFree(t *testing.T) {
	p := NewOSProvider()
	require.Greater(t, p.PageSize(), 0)

	b, err := p.Alloc(p.PageSize())
	require.NoError(t, err)
	require.Len(t, b, p.PageSize())

	// freshly mapped anonymous memory is zeroed
	for _, v := range b {
		assert.Zero(t, v)
	}

	b[0] = 0xff
	p.Reset(b)
	p.Free(b)
}

func TestOSProviderDebugFill(t *testing.T) {
	p := NewOSProvider(WithDebugFill(true))
	b, err := p.Alloc(p.PageSize())
	require.NoError(t, err)
	defer p.Free(b)

	b[0] = 1
	p.Reset(b)
	for _, v := range b {
		assert.Equal(t, byte(0x7e), v)
	}
}

func TestOSProviderMultiplePages(t *testing.T) {
	p := NewOSProvider()
	size := p.PageSize() * 4
	b, err := p.Alloc(size)
	require.NoError(t, err)
	assert.Len(t, b, size)
	p.Free(b)
}
