package arena

import (
	"unsafe"

	"github.com/gomem/galloc/pageprovider"
)

// Block is a handle to a block header living at a fixed address inside
// an arena. It carries no other state: navigation is pure pointer
// arithmetic over the header fields, not a side table of parent/arena
// references.
type Block struct {
	ptr unsafe.Pointer
}

// Nil reports whether b is the zero Block (used as a "no remainder"
// sentinel by Split).
func (b Block) Nil() bool { return b.ptr == nil }

func (b Block) hdr() *header { return (*header)(b.ptr) }

// Ptr returns the block's header address (printed by the allocator's
// index dump).
func (b Block) Ptr() unsafe.Pointer { return b.ptr }

// SizeCurr returns the block's current payload size with flag bits masked off.
func (b Block) SizeCurr() uint64 { return b.hdr().sizeCurrMasked() }

// SizePrev returns the immediately preceding block's payload size, or 0 if b is first-in-arena.
func (b Block) SizePrev() uint64 { return b.hdr().sizePrev }

// Offset returns b's byte offset from the start of its arena.
func (b Block) Offset() uint64 { return b.hdr().offset }

// Busy reports whether b's payload is held by a caller.
func (b Block) Busy() bool { return b.hdr().busy() }

// Last reports whether b is the final block in its arena.
func (b Block) Last() bool { return b.hdr().last() }

// First reports whether b is the first block in its arena.
func (b Block) First() bool { return b.hdr().first() }

// SetBusy marks b as held by a caller.
func (b Block) SetBusy() { b.hdr().setBusy() }

// ClearBusy marks b as free.
func (b Block) ClearBusy() { b.hdr().clearBusy() }

// Payload returns a pointer to the start of b's usable bytes.
func (b Block) Payload() unsafe.Pointer {
	return unsafe.Add(b.ptr, StructSize)
}

// PayloadBytes returns b's full usable capacity as a byte slice backed
// directly by arena memory (len == cap == SizeCurr()).
func (b Block) PayloadBytes() []byte {
	n := b.SizeCurr()
	return unsafe.Slice((*byte)(b.Payload()), n)
}

// ArenaStart returns the address of the first block in b's arena,
// derived purely from b's own recorded offset — no side table needed.
func (b Block) ArenaStart() unsafe.Pointer {
	return unsafe.Add(b.ptr, -int(b.Offset()))
}

// Next returns b's right neighbour. Valid only when !b.Last().
func (b Block) Next() Block {
	return Block{unsafe.Add(b.ptr, int(StructSize+b.SizeCurr()))}
}

// Prev returns b's left neighbour. Valid only when !b.First().
func (b Block) Prev() Block {
	return Block{unsafe.Add(b.ptr, -int(StructSize+b.SizePrev()))}
}

// FromPayload recovers the block handle owning a previously returned
// payload pointer.
func FromPayload(payload unsafe.Pointer) Block {
	return Block{unsafe.Add(payload, -int(StructSize))}
}

// InitArena writes a single block spanning payloadSize bytes, marked
// both first-in-arena (size_prev == 0) and last-in-arena, at the given
// arena base address. It is free (busy bit clear).
func InitArena(base unsafe.Pointer, payloadSize uint64) Block {
	h := (*header)(base)
	h.sizeCurr = 0
	h.sizePrev = 0
	h.offset = 0
	h.setSizeCurr(payloadSize)
	h.setLast()
	return Block{base}
}

// Split carves a busy block of exactly size bytes out of b's front,
// marking b busy. If the remainder can host a header plus at least
// SizeMin of payload, a new free block covering it is written
// immediately after and returned as ok == true. Otherwise b is left
// busy at its original (larger) size and ok is false: the block ends
// up oversized for the request rather than failing the split.
func (b Block) Split(size uint64) (rest Block, ok bool) {
	h := b.hdr()
	h.setBusy()

	curr := h.sizeCurrMasked()
	sizeRest := curr - size
	if sizeRest < StructSize+SizeMin {
		return Block{}, false
	}
	sizeRest -= StructSize

	wasLast := h.last()
	h.setSizeCurr(size)

	r := Block{unsafe.Add(b.ptr, int(StructSize+size))}
	rh := r.hdr()
	rh.sizeCurr = 0
	rh.sizePrev = 0
	rh.offset = 0
	rh.setSizeCurr(sizeRest)
	rh.sizePrev = size
	rh.offset = b.Offset() + size + StructSize

	if wasLast {
		h.clearLast()
		rh.setLast()
	} else {
		next := r.Next()
		next.hdr().sizePrev = sizeRest
	}
	return r, true
}

// Merge absorbs br, b's immediate right neighbour, into b. br must be
// free. b's busy bit is left unchanged; br ceases to exist as a
// separate block.
func (b Block) Merge(br Block) {
	Assert(!br.Busy(), "block_merge: right neighbour is busy")
	Assert(b.Next().ptr == br.ptr, "block_merge: blocks are not adjacent")

	h := b.hdr()
	brh := br.hdr()

	size := h.sizeCurrMasked() + brh.sizeCurrMasked() + StructSize
	h.setSizeCurr(size)

	if brh.last() {
		h.setLast()
	} else {
		next := br.Next()
		next.hdr().sizePrev = size
	}
}

// Discard computes the page-aligned interior sub-range of a free
// block's payload that holds no live data (the embedded size-index
// node aside) and advises the page provider those pages are
// discardable. Blocks spanning a page or less beyond their embedded
// node are left untouched.
func (b Block) Discard(p pageprovider.Provider, reservedHeader uint64) {
	pageSize := uint64(p.PageSize())
	sizeCurr := b.SizeCurr()
	if sizeCurr <= reservedHeader+pageSize {
		return
	}

	offset := b.Offset()
	start := offset + StructSize + reservedHeader
	start = (start + pageSize - 1) &^ (pageSize - 1)

	end := offset + sizeCurr + StructSize
	end &^= pageSize - 1

	if start >= end {
		return
	}

	base := b.ArenaStart()
	region := unsafe.Slice((*byte)(unsafe.Add(base, start)), end-start)
	p.Reset(region)
}
