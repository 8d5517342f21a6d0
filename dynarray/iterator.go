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

package dynarray

import "unsafe"

// Iterator is a forward cursor over an array's contiguous storage.
// Iterators compare by address with ==, so the usual loop is
//
//	for it := a.Begin(); it != a.End(); it = it.Next() { ... }
//
// An iterator performs no bounds checking and is invalidated by any
// operation that reallocates storage (growth) or destroys the element
// it points to (Pop, Clear, a shrinking Resize).
type Iterator[T any] struct {
	p unsafe.Pointer
}

// Pointer returns the pointed-to element for reading or modification.
func (it Iterator[T]) Pointer() *T { return (*T)(it.p) }

// Value returns a copy of the pointed-to element.
func (it Iterator[T]) Value() T { return *(*T)(it.p) }

// Next returns an iterator advanced by one slot.
func (it Iterator[T]) Next() Iterator[T] {
	return Iterator[T]{p: unsafe.Add(it.p, unsafe.Sizeof(*(*T)(nil)))}
}

// Begin returns an iterator to the first element.
func (a *Array[T]) Begin() Iterator[T] {
	return Iterator[T]{p: a.data}
}

// End returns the past-the-end iterator.
func (a *Array[T]) End() Iterator[T] {
	return Iterator[T]{p: unsafe.Add(a.data, uintptr(a.size)*unsafe.Sizeof(*(*T)(nil)))}
}
