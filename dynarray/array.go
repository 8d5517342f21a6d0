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

// Package dynarray provides Array, a growable contiguous container that
// places elements by hand inside raw storage obtained from a
// memres.Resource. Capacity is reserved, uninitialized memory; elements
// are explicitly constructed and destroyed, never managed by a Go
// slice, so any resource satisfying the capability interface can back
// the storage.
package dynarray

import (
	"errors"
	"unsafe"

	"github.com/cloudwego/memkit/memres"
)

// ErrOutOfRange is returned by At for an index outside [0, Len()).
var ErrOutOfRange = errors.New("dynarray: index out of range")

// Relocator may be implemented by element types that must run logic
// when the array moves them into new storage during growth. Relocate is
// called on the freshly moved element; a non-nil error aborts the
// growth and propagates to the caller.
type Relocator interface {
	Relocate() error
}

// Array is a growable contiguous container of T backed by a
// memres.Resource. The resource reference is non-owning and must
// outlive the array.
//
// Storage is raw memory invisible to the garbage collector, so T should
// not contain pointers; if it does, the caller must keep the referents
// alive for as long as the elements live. Zero-size element types are
// not supported. Array is not goroutine safe.
type Array[T any] struct {
	res  memres.Resource
	data unsafe.Pointer // nil iff cap == 0
	cap  int            // reserved slots
	size int            // live elements, indices [0, size)
}

// first growth from empty reserves this many slots
const minGrowCap = 4

func sizeOf[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

func alignOf[T any]() int {
	var z T
	return int(unsafe.Alignof(z))
}

// New creates an empty array with capacity 0. No allocation is
// performed until the first element is added. A nil res selects
// memres.Default(). Panics if T has zero size.
func New[T any](res memres.Resource) *Array[T] {
	if sizeOf[T]() == 0 {
		panic("dynarray: zero-size element types are not supported")
	}
	if res == nil {
		res = memres.Default()
	}
	return &Array[T]{res: res}
}

// NewWithSize creates an array holding exactly n default-constructed
// (zero value) elements, with capacity == size == n.
func NewWithSize[T any](n int, res memres.Resource) (*Array[T], error) {
	a := New[T](res)
	if n <= 0 {
		return a, nil
	}
	p, err := a.res.Allocate(n*sizeOf[T](), alignOf[T]())
	if err != nil {
		return nil, err
	}
	a.data, a.cap = p, n
	var zero T
	for i := 0; i < n; i++ {
		*a.slot(i) = zero
	}
	a.size = n
	return a, nil
}

func (a *Array[T]) slot(i int) *T {
	return (*T)(unsafe.Add(a.data, uintptr(i)*unsafe.Sizeof(*(*T)(nil))))
}

// destroy ends the element lifetime at index i by zeroing the slot,
// returning it to the reserved-but-uninitialized state.
func (a *Array[T]) destroy(i int) {
	var zero T
	*a.slot(i) = zero
}

// grow moves every live element into a fresh block of newCap slots and
// adopts it. On any relocation failure the new block is torn down and
// released, the array is left exactly as before, and the error is
// returned (strong guarantee).
func (a *Array[T]) grow(newCap int) error {
	esz := sizeOf[T]()
	newData, err := a.res.Allocate(newCap*esz, alignOf[T]())
	if err != nil {
		return err
	}
	for i := 0; i < a.size; i++ {
		dst := (*T)(unsafe.Add(newData, uintptr(i)*uintptr(esz)))
		*dst = *a.slot(i)
		if r, ok := any(dst).(Relocator); ok {
			if err := r.Relocate(); err != nil {
				var zero T
				for j := 0; j <= i; j++ {
					*(*T)(unsafe.Add(newData, uintptr(j)*uintptr(esz))) = zero
				}
				a.res.Deallocate(newData, newCap*esz)
				return err
			}
		}
	}
	// Originals are destroyed only after every element has moved.
	for i := 0; i < a.size; i++ {
		a.destroy(i)
	}
	if a.data != nil {
		a.res.Deallocate(a.data, a.cap*esz)
	}
	a.data, a.cap = newData, newCap
	return nil
}

func (a *Array[T]) ensure() error {
	if a.size < a.cap {
		return nil
	}
	newCap := a.cap * 2
	if newCap < minGrowCap {
		newCap = minGrowCap
	}
	return a.grow(newCap)
}

// Push appends a copy of v, growing the storage if needed.
func (a *Array[T]) Push(v T) error {
	if err := a.ensure(); err != nil {
		return err
	}
	*a.slot(a.size) = v
	a.size++
	return nil
}

// Emplace constructs a new element in place: the slot is
// default-constructed, then fn (if non-nil) initializes it through the
// in-place pointer.
func (a *Array[T]) Emplace(fn func(*T)) error {
	if err := a.ensure(); err != nil {
		return err
	}
	a.destroy(a.size) // slot is dirty memory; start from the zero value
	if fn != nil {
		fn(a.slot(a.size))
	}
	a.size++
	return nil
}

// Pop destroys the last element. No-op on an empty array.
func (a *Array[T]) Pop() {
	if a.size == 0 {
		return
	}
	a.size--
	a.destroy(a.size)
}

// Clear destroys every live element. Capacity and storage are retained.
func (a *Array[T]) Clear() {
	for i := 0; i < a.size; i++ {
		a.destroy(i)
	}
	a.size = 0
}

// Resize changes the element count to n.
//
// Growth beyond capacity reallocates to max(2*cap, n) and, unlike
// Push/Emplace growth, destroys each element in place right after
// moving it: a relocation failure mid-move leaves the array invalid
// (only Free is safe afterwards) and the error is returned as-is.
// Shrinking destroys the excluded tail; growing within capacity
// default-constructs the new tail.
func (a *Array[T]) Resize(n int) error {
	if n < 0 {
		n = 0
	}
	esz := sizeOf[T]()
	switch {
	case n > a.cap:
		newCap := a.cap * 2
		if newCap < n {
			newCap = n
		}
		newData, err := a.res.Allocate(newCap*esz, alignOf[T]())
		if err != nil {
			return err
		}
		for i := 0; i < a.size; i++ {
			dst := (*T)(unsafe.Add(newData, uintptr(i)*uintptr(esz)))
			*dst = *a.slot(i)
			if r, ok := any(dst).(Relocator); ok {
				if err := r.Relocate(); err != nil {
					return err
				}
			}
			a.destroy(i)
		}
		var zero T
		for i := a.size; i < n; i++ {
			*(*T)(unsafe.Add(newData, uintptr(i)*uintptr(esz))) = zero
		}
		if a.data != nil {
			a.res.Deallocate(a.data, a.cap*esz)
		}
		a.data, a.cap = newData, newCap
	case n > a.size:
		var zero T
		for i := a.size; i < n; i++ {
			*a.slot(i) = zero
		}
	case n < a.size:
		for i := n; i < a.size; i++ {
			a.destroy(i)
		}
	}
	a.size = n
	return nil
}

// Index returns a pointer to the element at i without bounds checking.
// i outside [0, Len()) is undefined behavior.
func (a *Array[T]) Index(i int) *T { return a.slot(i) }

// At returns a pointer to the element at i, or ErrOutOfRange if i is
// outside [0, Len()).
func (a *Array[T]) At(i int) (*T, error) {
	if i < 0 || i >= a.size {
		return nil, ErrOutOfRange
	}
	return a.slot(i), nil
}

// Front returns the first element. Undefined behavior on an empty array.
func (a *Array[T]) Front() *T { return a.slot(0) }

// Back returns the last element. Undefined behavior on an empty array.
func (a *Array[T]) Back() *T { return a.slot(a.size - 1) }

// Len returns the number of live elements.
func (a *Array[T]) Len() int { return a.size }

// Cap returns the number of reserved slots.
func (a *Array[T]) Cap() int { return a.cap }

// Empty reports whether the array holds no elements.
func (a *Array[T]) Empty() bool { return a.size == 0 }

// Resource returns the resource backing this array.
func (a *Array[T]) Resource() memres.Resource { return a.res }

// Clone deep-copies every live element into fresh storage from the same
// resource. The clone reserves the source's full capacity.
func (a *Array[T]) Clone() (*Array[T], error) {
	c := &Array[T]{res: a.res}
	if a.cap == 0 {
		return c, nil
	}
	esz := sizeOf[T]()
	p, err := a.res.Allocate(a.cap*esz, alignOf[T]())
	if err != nil {
		return nil, err
	}
	c.data, c.cap = p, a.cap
	for i := 0; i < a.size; i++ {
		*c.slot(i) = *a.slot(i)
	}
	c.size = a.size
	return c, nil
}

// CopyFrom replaces this array's contents with deep copies of other's
// elements. Existing storage is reused when large enough; otherwise it
// is released and storage matching other's capacity is taken from this
// array's own resource.
func (a *Array[T]) CopyFrom(other *Array[T]) error {
	if a == other {
		return nil
	}
	a.Clear()
	esz := sizeOf[T]()
	if a.cap < other.size {
		if a.data != nil {
			a.res.Deallocate(a.data, a.cap*esz)
			a.data, a.cap = nil, 0
		}
		p, err := a.res.Allocate(other.cap*esz, alignOf[T]())
		if err != nil {
			return err
		}
		a.data, a.cap = p, other.cap
	}
	for i := 0; i < other.size; i++ {
		*a.slot(i) = *other.slot(i)
	}
	a.size = other.size
	return nil
}

// MoveFrom takes ownership of other's storage, capacity, size and
// resource reference, destroying this array's previous contents. other
// is left empty with capacity 0.
func (a *Array[T]) MoveFrom(other *Array[T]) {
	if a == other {
		return
	}
	a.Clear()
	if a.data != nil {
		a.res.Deallocate(a.data, a.cap*sizeOf[T]())
	}
	a.res, a.data, a.cap, a.size = other.res, other.data, other.cap, other.size
	other.data, other.cap, other.size = nil, 0, 0
}

// Free destroys every live element and releases the storage back to the
// resource. Using the array afterwards, other than another Free, is
// undefined behavior.
func (a *Array[T]) Free() {
	a.Clear()
	if a.data != nil {
		a.res.Deallocate(a.data, a.cap*sizeOf[T]())
		a.data, a.cap = nil, 0
	}
}

// Range calls fn on each element in index order until fn returns false.
func (a *Array[T]) Range(fn func(i int, p *T) bool) {
	for i := 0; i < a.size; i++ {
		if !fn(i, a.slot(i)) {
			return
		}
	}
}
