// Package arena implements the boundary-tagged block layout that every
// allocator arena is subdivided into: a fixed header followed by a
// payload, with size_curr/size_prev/offset fields letting a block find
// its neighbours by pointer arithmetic alone, overlaid directly onto
// raw bytes instead of keeping layout metadata in a side table.
package arena

import (
	"unsafe"

	"github.com/gomem/galloc/sizeindex"
)

// Align is the platform's maximum-scalar alignment. All block sizes,
// once flag bits are masked off, are multiples of Align.
const Align = 16

// roundBytes rounds n up to the next multiple of Align.
func roundBytes(n uint64) uint64 {
	return (n + Align - 1) &^ (Align - 1)
}

// RoundBytes rounds n up to the next multiple of Align. Exported for
// callers (the allocator core) that need the same rounding applied to
// caller-supplied request sizes.
func RoundBytes(n uint64) uint64 { return roundBytes(n) }

// header is the fixed part of every block: the current (flag-overlaid)
// size, the previous block's size, and this block's byte offset from
// the start of its arena. It is never referenced through a Go struct
// value — only ever through a pointer cast directly onto arena memory,
// the same trick buddy.go uses for its 8-byte [magic|size] header.
type header struct {
	sizeCurr uint64
	sizePrev uint64
	offset   uint64
}

const (
	headerRawSize = unsafe.Sizeof(header{})

	flagBusy uint64 = 1 << 0
	flagLast uint64 = 1 << 1
	flagMask        = flagBusy | flagLast
)

// StructSize is the on-disk size of a block header, rounded up to
// Align. Every block's payload begins StructSize bytes after its
// header.
var StructSize = roundBytes(uint64(headerRawSize))

// SizeMin is the smallest payload a non-oversized block may have: the
// free-block payload must be able to host an embedded size-index node
// (sizeindex.MinNodeSize), since free blocks lend their payload bytes
// to the index for node storage.
var SizeMin = roundBytes(uint64(sizeindex.MinNodeSize))

// Config carries the arena tunables: the OS page size and the number
// of pages a default (non-oversized) arena spans.
type Config struct {
	PageSize      int
	PagesPerArena int
}

// DefaultConfig is a reasonable starting point: a 64KiB arena built
// from 16 4KiB pages.
var DefaultConfig = Config{PageSize: 4096, PagesPerArena: 16}

// Debug gates the invariant assertions scattered through this package
// and package allocator (e.g. "merged neighbour is not busy"). Off by
// default, the way a release build would be compiled with NDEBUG;
// flip it on in tests that want corruption caught close to its cause
// rather than surfacing as a garbled block much later.
var Debug = false

// Assert panics with msg if Debug is enabled and cond is false. It is
// the Go counterpart of the C assert() calls in block_merge and
// tree_add_block/tree_remove_block in the original implementation this
// package is ported from.
func Assert(cond bool, msg string) {
	if Debug && !cond {
		panic("galloc: invariant violated: " + msg)
	}
}

// ArenaSize returns the byte size of a default, non-oversized arena.
func (c Config) ArenaSize() uint64 {
	return uint64(c.PageSize) * uint64(c.PagesPerArena)
}

// SizeMax returns the largest payload a non-oversized block may have.
// Requests above this are served by a dedicated single-block arena.
func (c Config) SizeMax() uint64 {
	return c.ArenaSize() - StructSize
}

func (h *header) sizeCurrMasked() uint64 { return h.sizeCurr &^ flagMask }

func (h *header) setSizeCurr(sz uint64) { h.sizeCurr = sz | (h.sizeCurr & flagMask) }

func (h *header) busy() bool { return h.sizeCurr&flagBusy != 0 }

func (h *header) setBusy() { h.sizeCurr |= flagBusy }

func (h *header) clearBusy() { h.sizeCurr &^= flagBusy }

func (h *header) last() bool { return h.sizeCurr&flagLast != 0 }

func (h *header) setLast() { h.sizeCurr |= flagLast }

func (h *header) clearLast() { h.sizeCurr &^= flagLast }

func (h *header) first() bool { return h.sizePrev == 0 }
