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

import "sync"

// History is a per-key ring of the last N samples, used for rate
// calculation and short-horizon queries. Non-persistent.
type History[T any] struct {
	mu       sync.RWMutex
	capacity int
	rings    map[string][]T
}

func NewHistory[T any](capacity int) *History[T] {
	return &History[T]{
		capacity: capacity,
		rings:    make(map[string][]T),
	}
}

// Push appends a sample, evicting the oldest at capacity.
func (h *History[T]) Push(key string, sample T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ring := h.rings[key]

	if len(ring) >= h.capacity {
		ring = ring[1:]
	}

	h.rings[key] = append(ring, sample)
}

// Last returns the most recent sample for a key.
func (h *History[T]) Last(key string) (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ring := h.rings[key]
	if len(ring) == 0 {
		var zero T
		return zero, false
	}

	return ring[len(ring)-1], true
}

// Recent returns up to n most recent samples, oldest first.
func (h *History[T]) Recent(key string, n int) []T {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ring := h.rings[key]
	if len(ring) <= n {
		return append([]T(nil), ring...)
	}

	return append([]T(nil), ring[len(ring)-n:]...)
}

// Len returns the number of retained samples for a key.
func (h *History[T]) Len(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rings[key])
}

// DropKey removes a key's ring entirely.
func (h *History[T]) DropKey(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rings, key)
}
