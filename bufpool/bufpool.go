/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bufpool offers a []byte growth API — Malloc/Free/Cap/Append/
// AppendStr — on top of an *allocator.Allocator, for callers that want
// pooled-buffer ergonomics without managing block handles themselves.
//
// Unlike a sync.Pool-backed byte pool, there is no footer magic number
// needed to validate that Free's argument belongs to this pool: every
// buffer's true capacity already lives in its block header (the
// boundary tag arena.Block.SizeCurr), so Cap just reads it back.
package bufpool

import (
	"unsafe"

	"github.com/gomem/galloc/allocator"
	"github.com/gomem/galloc/arena"
)

// Pool grows and shrinks []byte buffers backed by an allocator.
type Pool struct {
	a *allocator.Allocator
}

// New wraps a to offer the Malloc/Free/Cap/Append/AppendStr API.
func New(a *allocator.Allocator) *Pool {
	return &Pool{a: a}
}

// Malloc returns a buffer of exactly size bytes, backed by a block that
// may have spare capacity beyond size — see Cap.
func (p *Pool) Malloc(size int) ([]byte, error) {
	return p.a.Alloc(uint64(size))
}

// Cap returns the full usable capacity of buf's backing block, which
// may exceed len(buf) (the allocator rounds requests up to alignment
// and, for best-fit reuse, to whatever free block size was available).
func (p *Pool) Cap(buf []byte) int {
	if cap(buf) == 0 {
		return 0
	}
	return int(blockOf(buf).SizeCurr())
}

// Append appends b to a, growing in place when the backing block has
// spare capacity and allocating a fresh, larger block otherwise. The
// old block is freed automatically when a move happens; the caller
// must use the returned slice, not a, from here on.
func (p *Pool) Append(a []byte, b ...byte) ([]byte, error) {
	if p.Cap(a)-len(a) >= len(b) {
		return append(a, b...), nil
	}
	return p.appendSlow(a, b)
}

// AppendStr is Append for a string source, avoiding the []byte(s) copy
// Append would otherwise require.
func (p *Pool) AppendStr(a []byte, s string) ([]byte, error) {
	if p.Cap(a)-len(a) >= len(s) {
		return append(a, s...), nil
	}
	return p.appendSlow(a, []byte(s))
}

func (p *Pool) appendSlow(a, b []byte) ([]byte, error) {
	ret, err := p.Malloc(len(a) + len(b))
	if err != nil {
		return nil, err
	}
	copy(ret, a)
	copy(ret[len(a):], b)
	p.Free(a)
	return ret, nil
}

// Free returns buf's backing block to the allocator. buf must have
// been returned by Malloc, Append, or AppendStr on this Pool (or be
// nil, a no-op).
func (p *Pool) Free(buf []byte) {
	p.a.Free(buf)
}

func blockOf(buf []byte) arena.Block {
	return arena.FromPayload(unsafe.Pointer(unsafe.SliceData(buf)))
}
