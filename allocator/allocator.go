// Package allocator implements the policy engine that ties the block
// layer (package arena), the free-block index (package sizeindex), and
// a page provider (package pageprovider) into alloc/free/realloc. It
// holds no payload state of its own, acting purely as a policy layer
// over a byte arena.
package allocator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/gomem/galloc/arena"
	"github.com/gomem/galloc/pageprovider"
	"github.com/gomem/galloc/sizeindex"
)

// ErrOutOfMemory is returned when the page provider cannot satisfy a
// mapping request; the allocator's internal state is left unchanged.
var ErrOutOfMemory = pageprovider.ErrOutOfMemory

// ErrSizeOverflow is returned when a requested size plus alignment
// padding would overflow a 64-bit byte count.
var ErrSizeOverflow = errors.New("allocator: requested size overflows address space")

const maxUint64 = ^uint64(0)

// Allocator holds a single free-block index shared by every arena it
// has opened — one index per Allocator, not one per arena. It is not
// safe for concurrent use without external synchronization (see
// sizeindex.Index).
type Allocator struct {
	prov pageprovider.Provider
	cfg  arena.Config
	idx  *sizeindex.Index
}

// New returns an Allocator drawing arenas from prov, sized per cfg.
// seed drives the size index's internal level RNG.
func New(prov pageprovider.Provider, cfg arena.Config, seed uint64) *Allocator {
	return &Allocator{prov: prov, cfg: cfg, idx: sizeindex.New(seed)}
}

func roundUpPage(n, pageSize uint64) uint64 {
	return (n + pageSize - 1) &^ (pageSize - 1)
}

func sliceData(b []byte) unsafe.Pointer {
	if len(b) == 0 && cap(b) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}

func (a *Allocator) indexInsert(b arena.Block) {
	arena.Assert(!b.Busy(), "tree_add_block: block is busy")
	level := a.idx.ChooseLevel(b.SizeCurr())
	a.idx.InsertAtLevel(b.Payload(), b.SizeCurr(), level)
}

// indexInsertAfterFree is the free-path counterpart of indexInsert: it
// reserves the node's own footprint before advising the page provider
// that the rest of the block's interior pages are discardable, so the
// node itself is never touched by the discard.
func (a *Allocator) indexInsertAfterFree(b arena.Block) {
	arena.Assert(!b.Busy(), "tree_add_block: block is busy")
	level := a.idx.ChooseLevel(b.SizeCurr())
	footprint := sizeindex.LevelFootprint(level)
	b.Discard(a.prov, footprint)
	a.idx.InsertAtLevel(b.Payload(), b.SizeCurr(), level)
}

func (a *Allocator) indexRemove(b arena.Block) {
	arena.Assert(!b.Busy(), "tree_remove_block: block is busy")
	a.idx.Remove(b.Payload())
}

func (a *Allocator) indexFindBest(size uint64) (arena.Block, bool) {
	nodePtr, ok := a.idx.FindBest(size)
	if !ok {
		return arena.Block{}, false
	}
	return arena.FromPayload(nodePtr), true
}

// Alloc returns size bytes of memory, or ErrOutOfMemory if the page
// provider can't back a fresh arena. The contents are not zeroed: a
// reused block still holds its former index node and earlier data. Requests larger than
// the configured arena's maximum payload are served from a dedicated
// single-block arena that never enters the size index and is always
// released directly back to the page provider on free.
func (a *Allocator) Alloc(size uint64) ([]byte, error) {
	if size > a.cfg.SizeMax() {
		return a.allocOversized(size)
	}

	s := size
	if s < arena.SizeMin {
		s = arena.SizeMin
	}
	s = arena.RoundBytes(s)

	b, ok := a.indexFindBest(s)
	if ok {
		a.indexRemove(b)
	} else {
		b, ok = arena.NewDefault(a.prov, a.cfg)
		if !ok {
			return nil, ErrOutOfMemory
		}
	}

	if rest, split := b.Split(s); split {
		a.indexInsert(rest)
	}
	return b.PayloadBytes()[:size], nil
}

func (a *Allocator) allocOversized(size uint64) ([]byte, error) {
	if size > maxUint64-(arena.Align-1) {
		return nil, ErrSizeOverflow
	}
	aligned := arena.RoundBytes(size)
	payloadSize := roundUpPage(aligned, uint64(a.prov.PageSize()))

	b, ok := arena.NewOversized(a.prov, payloadSize)
	if !ok {
		return nil, ErrOutOfMemory
	}
	return b.PayloadBytes()[:size], nil
}

// Free releases the payload previously returned by Alloc or Realloc.
// A nil slice is a no-op. Freeing a block merges it with any free
// neighbours and, when the whole arena becomes a single free block,
// releases the arena back to the page provider; otherwise the block's
// unused interior pages are advised discardable and it is reinserted
// into the size index.
func (a *Allocator) Free(b []byte) {
	ptr := sliceData(b)
	if ptr == nil {
		return
	}

	blk := arena.FromPayload(ptr)
	blk.ClearBusy()

	if blk.SizeCurr() > a.cfg.SizeMax() {
		arena.Release(a.prov, blk, blk.SizeCurr()+arena.StructSize)
		return
	}

	if !blk.Last() {
		r := blk.Next()
		if !r.Busy() {
			a.indexRemove(r)
			blk.Merge(r)
		}
	}
	if !blk.First() {
		l := blk.Prev()
		if !l.Busy() {
			a.indexRemove(l)
			l.Merge(blk)
			blk = l
		}
	}

	if blk.First() && blk.Last() {
		arena.Release(a.prov, blk, a.cfg.ArenaSize())
		return
	}
	a.indexInsertAfterFree(blk)
}

// Realloc resizes the block backing b to size bytes, preserving the
// leading min(old, new) bytes of content. It tries, in order: returning
// b unchanged when the rounded size doesn't change, shrinking in place
// by splitting off and reindexing the tail, growing in place by
// absorbing a free right neighbour, and finally moving to a fresh
// block when growth in place is not possible. A shrink never moves: a
// block that is last in its arena, or whose tail is too small to split
// off, is kept as it is. An oversized block moves on any size change.
func (a *Allocator) Realloc(b []byte, size uint64) ([]byte, error) {
	if b == nil {
		return a.Alloc(size)
	}

	s := size
	if s < arena.SizeMin {
		s = arena.SizeMin
	}
	s = arena.RoundBytes(s)

	blk := arena.FromPayload(sliceData(b))
	curr := blk.SizeCurr()

	if curr > a.cfg.SizeMax() {
		if s == curr {
			return blk.PayloadBytes()[:size], nil
		}
		return a.reallocMove(blk, size)
	}

	if s == curr {
		return blk.PayloadBytes()[:size], nil
	}

	if s < curr {
		// A last block, or a split that can't carve a remainder, is
		// left oversized-for-the-request rather than moved: see
		// spec.md §4.3 step 5 and the matching Open Question decision
		// in DESIGN.md.
		if !blk.Last() {
			if r, split := blk.Split(s); split {
				if !r.Last() {
					n := r.Next()
					if !n.Busy() {
						a.indexRemove(n)
						r.Merge(n)
					}
				}
				a.indexInsert(r)
			}
		}
		return blk.PayloadBytes()[:size], nil
	}

	if s > curr && !blk.Last() {
		r := blk.Next()
		if !r.Busy() {
			total := curr + r.SizeCurr() + arena.StructSize
			if total >= s {
				a.indexRemove(r)
				blk.Merge(r)
				if rest, split := blk.Split(s); split {
					a.indexInsert(rest)
				}
				return blk.PayloadBytes()[:size], nil
			}
		}
	}

	return a.reallocMove(blk, size)
}

func (a *Allocator) reallocMove(oldBlk arena.Block, size uint64) ([]byte, error) {
	oldSize := oldBlk.SizeCurr()
	newB, err := a.Alloc(size)
	if err != nil {
		return nil, err
	}
	n := oldSize
	if size < n {
		n = size
	}
	copy(newB, oldBlk.PayloadBytes()[:n])
	a.Free(oldBlk.PayloadBytes()[:oldSize])
	return newB, nil
}

// Show writes a human-readable dump of every block currently in the
// size index to the standard output channel, prefixed by caption — the
// caller-facing diagnostic operation from spec.md §6.
func (a *Allocator) Show(caption string) {
	a.ShowTo(os.Stdout, caption)
}

// ShowTo is Show with an explicit destination, so tests can assert on
// the dump without capturing stdout. It is the Go counterpart of the
// teacher-adjacent mem_show/show_node diagnostic pair.
func (a *Allocator) ShowTo(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s:\n", msg)
	if a.idx.IsEmpty() {
		fmt.Fprintln(w, "index is empty")
		return
	}
	a.idx.Walk(func(nodePtr unsafe.Pointer, _ uint64) {
		b := arena.FromPayload(nodePtr)
		fmt.Fprintf(w, "[%18p] %10d %10d free %-5s %s\n",
			b.Ptr(), b.SizeCurr(), b.SizePrev(),
			firstLabel(b), lastLabel(b))
	})
}

func firstLabel(b arena.Block) string {
	if b.First() {
		return "first"
	}
	return ""
}

func lastLabel(b arena.Block) string {
	if b.Last() {
		return "last"
	}
	return ""
}
