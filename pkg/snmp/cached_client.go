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
	"context"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// CachingClient layers the response cache over a transport. GET, WALK and
// GETBULK results are cached; SET and GETNEXT pass straight through, and a
// SET invalidates the written OIDs.
type CachingClient struct {
	inner Client
	cache *Cache
}

// NewCachingClient wraps a transport with the given cache.
func NewCachingClient(inner Client, cache *Cache) *CachingClient {
	return &CachingClient{inner: inner, cache: cache}
}

// Cache exposes the underlying cache for invalidation hooks and stats.
func (c *CachingClient) Cache() *Cache {
	return c.cache
}

func (c *CachingClient) Get(ctx context.Context, device *models.Device, oids []string) (*Response, error) {
	key := CacheKey(device.ID, "get", oids, 0, 0)

	if resp, ok := c.cache.Get(key); ok {
		return resp, nil
	}

	resp, err := c.inner.Get(ctx, device, oids)
	if err == nil {
		c.cache.Put(key, device.ID, oids, resp)
	}

	return resp, err
}

func (c *CachingClient) GetNext(ctx context.Context, device *models.Device, oids []string) (*Response, error) {
	return c.inner.GetNext(ctx, device, oids)
}

func (c *CachingClient) Walk(
	ctx context.Context, device *models.Device, baseOID string, maxRepetitions uint32) (*Response, error) {
	key := CacheKey(device.ID, "walk", []string{baseOID}, maxRepetitions, 0)

	if resp, ok := c.cache.Get(key); ok {
		return resp, nil
	}

	resp, err := c.inner.Walk(ctx, device, baseOID, maxRepetitions)
	if err == nil {
		c.cache.Put(key, device.ID, []string{baseOID}, resp)
	}

	return resp, err
}

func (c *CachingClient) GetBulk(
	ctx context.Context, device *models.Device, baseOID string, nonRepeaters uint8, maxRepetitions uint32) (*Response, error) {
	key := CacheKey(device.ID, "bulkwalk", []string{baseOID}, maxRepetitions, nonRepeaters)

	if resp, ok := c.cache.Get(key); ok {
		return resp, nil
	}

	resp, err := c.inner.GetBulk(ctx, device, baseOID, nonRepeaters, maxRepetitions)
	if err == nil {
		c.cache.Put(key, device.ID, []string{baseOID}, resp)
	}

	return resp, err
}

func (c *CachingClient) Set(ctx context.Context, device *models.Device, requests []SetRequest) (*Response, error) {
	resp, err := c.inner.Set(ctx, device, requests)

	for _, r := range requests {
		c.cache.InvalidateByOID(r.OID)
	}

	return resp, err
}

func (c *CachingClient) TestConnection(ctx context.Context, device *models.Device) (*Response, error) {
	return c.inner.TestConnection(ctx, device)
}

func (c *CachingClient) Close() {
	c.inner.Close()
}
