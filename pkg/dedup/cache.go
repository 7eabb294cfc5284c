/*
 * Copyright 2025 Carver Automation Corporation.
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

// Package dedup suppresses rows that were already reported by an earlier poll.
package dedup

// Cache is a bounded set of row hashes with an occurrence counter per hash.
// Eviction is strictly first-in first-out: observing a hash again bumps its
// counter but never changes its position in the eviction order.
//
// Cache is not safe for concurrent use; each command owns one cache and is
// polled by a single goroutine at a time.
type Cache struct {
	slots []entry
	index map[string]int
	next  int
	size  int
}

type entry struct {
	hash  string
	count int
}

// NewCache creates a cache holding at most capacity hashes. A non-positive
// capacity is treated as 1.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}

	return &Cache{
		slots: make([]entry, capacity),
		index: make(map[string]int, capacity),
	}
}

// Observe reports whether hash is already cached. A cached hash has its
// counter incremented.
func (c *Cache) Observe(hash string) bool {
	slot, ok := c.index[hash]
	if !ok {
		return false
	}

	c.slots[slot].count++

	return true
}

// Insert records hash with a counter of 1, evicting the oldest entry when the
// cache is full. Inserting a hash that is already present resets its counter
// and leaves its position unchanged.
func (c *Cache) Insert(hash string) {
	if slot, ok := c.index[hash]; ok {
		c.slots[slot].count = 1
		return
	}

	if c.size == len(c.slots) {
		delete(c.index, c.slots[c.next].hash)
	} else {
		c.size++
	}

	c.slots[c.next] = entry{hash: hash, count: 1}
	c.index[hash] = c.next
	c.next = (c.next + 1) % len(c.slots)
}

// Count returns the occurrence counter of hash.
func (c *Cache) Count(hash string) (int, bool) {
	slot, ok := c.index[hash]
	if !ok {
		return 0, false
	}

	return c.slots[slot].count, true
}

// Len returns the number of cached hashes.
func (c *Cache) Len() int { return c.size }

// Capacity returns the maximum number of cached hashes.
func (c *Cache) Capacity() int { return len(c.slots) }

// Hashes returns the cached hashes from oldest to newest.
func (c *Cache) Hashes() []string {
	out := make([]string, 0, c.size)
	start := (c.next - c.size + len(c.slots)) % len(c.slots)

	for i := 0; i < c.size; i++ {
		out = append(out, c.slots[(start+i)%len(c.slots)].hash)
	}

	return out
}
