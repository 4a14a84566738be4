/*
 * Copyright 2025 the Y Monitor Authors.
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

package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryPushAndLast(t *testing.T) {
	h := NewHistory[int](3)

	_, ok := h.Last("k")
	assert.False(t, ok)

	h.Push("k", 1)
	h.Push("k", 2)

	last, ok := h.Last("k")
	require.True(t, ok)
	assert.Equal(t, 2, last)
	assert.Equal(t, 2, h.Len("k"))
}

func TestHistoryEviction(t *testing.T) {
	h := NewHistory[int](3)

	for i := 1; i <= 5; i++ {
		h.Push("k", i)
	}

	assert.Equal(t, 3, h.Len("k"))
	assert.Equal(t, []int{3, 4, 5}, h.Recent("k", 10))
}

func TestHistoryRecentOrder(t *testing.T) {
	h := NewHistory[string](10)

	h.Push("k", "a")
	h.Push("k", "b")
	h.Push("k", "c")

	assert.Equal(t, []string{"b", "c"}, h.Recent("k", 2))
}

func TestHistoryKeysIsolated(t *testing.T) {
	h := NewHistory[int](2)

	h.Push("a", 1)
	h.Push("b", 2)

	last, ok := h.Last("a")
	require.True(t, ok)
	assert.Equal(t, 1, last)

	h.DropKey("a")

	_, ok = h.Last("a")
	assert.False(t, ok)

	last, ok = h.Last("b")
	require.True(t, ok)
	assert.Equal(t, 2, last)
}
