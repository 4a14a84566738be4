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

package snmp

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 300 * time.Second

// CacheStats is the hit/miss counter pair exposed for observability.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

type cacheEntry struct {
	payload   []byte
	deviceID  string
	oids      []string
	expiresAt time.Time
}

// Cache stores GET/WALK/BULKWALK responses keyed by a deterministic digest
// of (device, operation, OIDs). SET and GETNEXT results are never cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	stats   CacheStats
}

// NewCache builds a cache with the given TTL; ttl<=0 uses the 300 s default.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Cache{entries: make(map[string]cacheEntry), ttl: ttl}
}

// CacheKey builds the deterministic key:
// base64(device_ident) ":" base64(op || sorted(oids) || maxrep? || nonrep?).
func CacheKey(deviceID, op string, oids []string, maxRepetitions uint32, nonRepeaters uint8) string {
	sorted := make([]string, len(oids))
	copy(sorted, oids)
	sort.Strings(sorted)

	parts := []string{op}
	parts = append(parts, sorted...)

	if maxRepetitions > 0 {
		parts = append(parts, "maxrep="+strconv.FormatUint(uint64(maxRepetitions), 10))
	}

	if nonRepeaters > 0 {
		parts = append(parts, "nonrep="+strconv.FormatUint(uint64(nonRepeaters), 10))
	}

	return base64.StdEncoding.EncodeToString([]byte(deviceID)) + ":" +
		base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, "|")))
}

// Get returns the cached response for key, if present, unexpired, and
// still structurally valid. Invalid payloads are evicted on read so stale
// cross-version data never reaches a caller.
func (c *Cache) Get(key string) (*Response, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.miss()

		if ok {
			c.evict(key)
		}

		return nil, false
	}

	var resp Response

	if err := json.Unmarshal(entry.payload, &resp); err != nil || !validCachedResponse(&resp) {
		c.evict(key)
		c.miss()

		return nil, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()

	return &resp, true
}

// Put stores a successful response under key. Failed responses are not
// cached.
func (c *Cache) Put(key, deviceID string, oids []string, resp *Response) {
	if resp == nil || !resp.Success {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		payload:   payload,
		deviceID:  deviceID,
		oids:      oids,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// ClearDevice drops every cached entry for a device.
func (c *Cache) ClearDevice(deviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.deviceID == deviceID {
			delete(c.entries, key)
		}
	}
}

// InvalidateByOID drops entries whose OID set touches the given prefix.
func (c *Cache) InvalidateByOID(prefix string) {
	trimmed := strings.TrimPrefix(prefix, ".")

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		for _, oid := range entry.oids {
			if strings.HasPrefix(strings.TrimPrefix(oid, "."), trimmed) {
				delete(c.entries, key)
				break
			}
		}
	}
}

// Stats returns a snapshot of the hit/miss counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.stats
}

// Len reports the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) evict(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

// validCachedResponse is the schema check applied to deserialized payloads.
func validCachedResponse(resp *Response) bool {
	if !resp.Success {
		return false
	}

	for _, vb := range resp.VarBinds {
		if vb.OID == "" || vb.Value.Kind == "" {
			return false
		}
	}

	return true
}
