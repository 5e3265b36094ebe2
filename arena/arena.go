package arena

import (
	"unsafe"

	"github.com/gomem/galloc/pageprovider"
)

// NewDefault requests a fresh default-sized arena (cfg.ArenaSize bytes)
// from p and returns its sole, first-and-last, free block. Returns
// (Block{}, false) on soft OOM.
func NewDefault(p pageprovider.Provider, cfg Config) (Block, bool) {
	return newArena(p, cfg.ArenaSize())
}

// NewOversized requests an arena sized to hold exactly one block of
// payloadSize bytes (plus its header) and returns that sole block,
// already marked busy. Returns (Block{}, false) on soft OOM.
func NewOversized(p pageprovider.Provider, payloadSize uint64) (Block, bool) {
	b, ok := newArena(p, payloadSize+StructSize)
	if !ok {
		return Block{}, false
	}
	b.SetBusy()
	return b, true
}

func newArena(p pageprovider.Provider, bytes uint64) (Block, bool) {
	mem, err := p.Alloc(int(bytes))
	if err != nil {
		return Block{}, false
	}
	b := InitArena(unsafe.Pointer(&mem[0]), bytes-StructSize)
	return b, true
}

// Release returns the whole arena owning b to the page provider. b
// must be the sole block of its arena (first and last). totalBytes is
// the exact number of bytes originally requested for this arena
// (cfg.ArenaSize() for a default arena, or SizeCurr()+StructSize for
// an oversized one) — Free requires the exact mapping length.
func Release(p pageprovider.Provider, b Block, totalBytes uint64) {
	base := b.ArenaStart()
	mem := unsafe.Slice((*byte)(base), totalBytes)
	p.Free(mem)
}
