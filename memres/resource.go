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

// Package memres provides pluggable memory resources that hand out raw
// byte extents. A resource deals in bytes only and knows nothing about
// element types; containers built on top of it (see the dynarray
// package) are responsible for element placement and lifetime.
//
// Resources are not goroutine safe. A resource must outlive every
// container built against it.
package memres

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// ErrOutOfMemory is returned by Allocate when the underlying system
// cannot supply the requested bytes (for Pool, when the configured
// byte limit would be exceeded). It is never retried internally.
var ErrOutOfMemory = errors.New("memres: out of memory")

// Resource is the capability a container depends on. Any implementation
// is substitutable; containers never depend on a concrete type.
type Resource interface {
	// Allocate returns the address of a block of at least size bytes.
	// The memory is NOT zeroed. alignment is accepted for interface
	// compatibility but does not affect placement.
	Allocate(size, alignment int) (unsafe.Pointer, error)

	// Deallocate returns a block previously obtained from Allocate on
	// this resource. p must be the exact address Allocate returned.
	// Passing any other address is a fatal usage error and panics.
	Deallocate(p unsafe.Pointer, size int)

	// IsEqual reports whether other is the same resource instance.
	// Two distinct instances are never equal, even if interchangeable.
	IsEqual(other Resource) bool
}

// System is a pass-through resource: every Allocate draws a fresh block
// from the runtime and Deallocate simply drops it. Live blocks are
// tracked so that a foreign or repeated Deallocate is detected and
// panics instead of being silently accepted.
type System struct {
	live map[unsafe.Pointer][]byte
}

// NewSystem creates a pass-through system resource.
func NewSystem() *System {
	return &System{live: make(map[unsafe.Pointer][]byte)}
}

// Allocate implements Resource.
func (s *System) Allocate(size, alignment int) (unsafe.Pointer, error) {
	_ = alignment
	if size <= 0 {
		return nil, fmt.Errorf("memres: invalid allocation size %d", size)
	}
	buf := dirtmake.Bytes(size, size)
	p := unsafe.Pointer(&buf[0])
	s.live[p] = buf
	return p, nil
}

// Deallocate implements Resource.
// Panics if p was not allocated by this resource or was already freed.
func (s *System) Deallocate(p unsafe.Pointer, size int) {
	if _, ok := s.live[p]; !ok {
		panic("memres: deallocate of address not allocated by this resource")
	}
	delete(s.live, p)
}

// IsEqual implements Resource.
func (s *System) IsEqual(other Resource) bool {
	o, ok := other.(*System)
	return ok && o == s
}

var defaultResource = NewSystem()

// Default returns the process-wide system resource. It is used by
// containers constructed without an explicit resource.
func Default() Resource { return defaultResource }
