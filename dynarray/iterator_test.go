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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/memkit/memres"
)

func TestIteratorTraversal(t *testing.T) {
	a := New[int](memres.NewPool())
	for i := 0; i < 5; i++ {
		require.NoError(t, a.Push(i * 10))
	}

	i := 0
	for it := a.Begin(); it != a.End(); it = it.Next() {
		assert.Equal(t, i*10, it.Value())
		i++
	}
	assert.Equal(t, 5, i)
}

func TestIteratorEmpty(t *testing.T) {
	a := New[int](memres.NewPool())
	assert.Equal(t, a.Begin(), a.End())
}

func TestIteratorEquality(t *testing.T) {
	a := New[int](memres.NewPool())
	require.NoError(t, a.Push(1))
	require.NoError(t, a.Push(2))

	it := a.Begin()
	assert.Equal(t, a.Begin(), it)
	it = it.Next()
	assert.NotEqual(t, a.Begin(), it)
	assert.Equal(t, a.Begin().Next(), it)
	assert.NotEqual(t, a.End(), it)
	assert.Equal(t, a.End(), it.Next())
}

func TestIteratorPointerMutation(t *testing.T) {
	a := New[int](memres.NewPool())
	require.NoError(t, a.Push(1))

	*a.Begin().Pointer() = 7
	assert.Equal(t, 7, *a.Index(0))
}
