/*
 * Copyright 2025 CloudWeGo Authors
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

package memres

import (
	"fmt"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/lang/mcache"
)

// block describes one contiguous byte extent handed out or held free.
// arena is the system slice the extent lives in; it pins the memory so
// split blocks stay reachable while any part of the arena is in use.
type block struct {
	ptr   unsafe.Pointer
	size  int
	arena []byte
}

// Pool is a pooling resource: freed blocks go onto a free list and are
// reused before any new memory is requested from the system.
//
// Reuse policy, relied on by callers and tests:
//   - the free list is scanned most-recently-freed first (LIFO);
//   - the first block large enough wins (first fit);
//   - a strictly larger block is split, and the leftover tail becomes
//     the most recent free entry;
//   - adjacent free blocks are never coalesced, so mixed-size churn can
//     fragment the free list. That is intentional simplicity.
//
// The end of each list is its "front" (most recent entry), so pushes
// and pops stay cheap.
type Pool struct {
	allocated []block // most recently allocated at the end
	free      []block // most recently freed at the end
	arenas    [][]byte

	limit     int // max bytes drawn from the system, 0 = unlimited
	footprint int
	cached    bool
}

// NewPool creates a pool with no byte limit, drawing fresh blocks
// directly from the runtime.
func NewPool() *Pool {
	return &Pool{}
}

// NewPoolWithLimit creates a pool that fails with ErrOutOfMemory once
// allocations would draw more than maxBytes from the system. Reuse from
// the free list is not counted against the limit.
func NewPoolWithLimit(maxBytes int) *Pool {
	return &Pool{limit: maxBytes}
}

// NewCachedPool creates a pool whose system blocks come from mcache
// size classes instead of plain allocation. Reset returns them to
// mcache, so short-lived pools recycle their arenas across instances.
func NewCachedPool() *Pool {
	return &Pool{cached: true}
}

// Allocate implements Resource.
//
// alignment is accepted but does not adjust placement or the splitting
// arithmetic; blocks are carved at exact byte offsets.
func (p *Pool) Allocate(size, alignment int) (unsafe.Pointer, error) {
	_ = alignment
	if size <= 0 {
		return nil, fmt.Errorf("memres: invalid allocation size %d", size)
	}

	// First fit, most recently freed first.
	for i := len(p.free) - 1; i >= 0; i-- {
		if p.free[i].size < size {
			continue
		}
		b := p.free[i]
		p.free = append(p.free[:i], p.free[i+1:]...)
		if b.size > size {
			// Leftover tail becomes the most recent free entry.
			p.free = append(p.free, block{
				ptr:   unsafe.Add(b.ptr, size),
				size:  b.size - size,
				arena: b.arena,
			})
		}
		p.allocated = append(p.allocated, block{ptr: b.ptr, size: size, arena: b.arena})
		return b.ptr, nil
	}

	if p.limit > 0 && p.footprint+size > p.limit {
		return nil, ErrOutOfMemory
	}

	var arena []byte
	if p.cached {
		arena = mcache.Malloc(size)
	} else {
		arena = dirtmake.Bytes(size, size)
	}
	p.arenas = append(p.arenas, arena)
	p.footprint += size

	b := block{ptr: unsafe.Pointer(&arena[0]), size: size, arena: arena}
	p.allocated = append(p.allocated, b)
	return b.ptr, nil
}

// Deallocate implements Resource. The block record moves from the
// allocated list to the front of the free list; no memory is copied or
// returned to the system. size is not consulted: blocks are identified
// by address, and the recorded size is authoritative.
//
// Panics if ptr is not currently allocated by this pool (never issued,
// or already freed). The pool's state is left intact in that case.
func (p *Pool) Deallocate(ptr unsafe.Pointer, size int) {
	for i := len(p.allocated) - 1; i >= 0; i-- {
		if p.allocated[i].ptr != ptr {
			continue
		}
		b := p.allocated[i]
		p.allocated = append(p.allocated[:i], p.allocated[i+1:]...)
		p.free = append(p.free, b)
		return
	}
	panic("memres: deallocate of address not allocated by this pool")
}

// IsEqual implements Resource.
func (p *Pool) IsEqual(other Resource) bool {
	o, ok := other.(*Pool)
	return ok && o == p
}

// Available returns the total bytes sitting on the free list.
func (p *Pool) Available() int {
	total := 0
	for i := range p.free {
		total += p.free[i].size
	}
	return total
}

// InUse returns the total bytes currently handed out.
func (p *Pool) InUse() int {
	total := 0
	for i := range p.allocated {
		total += p.allocated[i].size
	}
	return total
}

// Footprint returns the total bytes drawn from the system and still
// held by the pool, allocated or free.
func (p *Pool) Footprint() int { return p.footprint }

// NumAllocated returns the number of blocks currently handed out.
func (p *Pool) NumAllocated() int { return len(p.allocated) }

// NumFree returns the number of blocks on the free list.
func (p *Pool) NumFree() int { return len(p.free) }

// Reset drops every block record and returns the arenas to their
// source. All addresses previously handed out become invalid; the
// caller must guarantee nothing still references them.
func (p *Pool) Reset() {
	if p.cached {
		for _, a := range p.arenas {
			mcache.Free(a)
		}
	}
	p.allocated = p.allocated[:0]
	p.free = p.free[:0]
	p.arenas = p.arenas[:0]
	p.footprint = 0
}
