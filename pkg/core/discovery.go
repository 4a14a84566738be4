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

package core

import (
	"context"
	"errors"

	"github.com/ymonitor/ymonitor/pkg/db"
	"github.com/ymonitor/ymonitor/pkg/discovery"
)

// StartDiscovery launches a discovery session for one device. An empty
// module list runs a full discovery.
func (m *Monitor) StartDiscovery(ctx context.Context, deviceID string, modules []string) (*discovery.Session, error) {
	session, err := m.discovery.DiscoverDevice(ctx, deviceID, modules)

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, discovery.ErrDeviceNotFound):
		return nil, notFoundErr("device", deviceID)
	case errors.Is(err, discovery.ErrUnknownModule), errors.Is(err, discovery.ErrNoModulesSelected):
		return nil, validationErr("bad module selection: %v", err)
	case errors.Is(err, discovery.ErrEngineAtCapacity), errors.Is(err, discovery.ErrEngineStopped):
		return nil, conflictErr("discovery engine unavailable", err)
	default:
		return nil, internalErr("failed to start discovery", err)
	}
}

// StartIncrementalDiscovery refreshes the volatile inventory only.
func (m *Monitor) StartIncrementalDiscovery(ctx context.Context, deviceID string) (*discovery.Session, error) {
	session, err := m.discovery.Incremental(ctx, deviceID)

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, discovery.ErrDeviceNotFound):
		return nil, notFoundErr("device", deviceID)
	case errors.Is(err, discovery.ErrEngineAtCapacity), errors.Is(err, discovery.ErrEngineStopped):
		return nil, conflictErr("discovery engine unavailable", err)
	default:
		return nil, internalErr("failed to start discovery", err)
	}
}

// GetDiscoverySession returns a snapshot of one session.
func (m *Monitor) GetDiscoverySession(id string) (*discovery.Session, error) {
	session, err := m.discovery.GetSession(id)
	if err != nil {
		return nil, notFoundErr("discovery session", id)
	}

	return session, nil
}

// CancelDiscoverySession requests cancellation; the session transitions
// at its next module boundary.
func (m *Monitor) CancelDiscoverySession(id string) error {
	err := m.discovery.Cancel(id)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, discovery.ErrSessionNotFound):
		return notFoundErr("discovery session", id)
	case errors.Is(err, discovery.ErrSessionNotRunning):
		return conflictErr("discovery session is not running", err)
	default:
		return internalErr("failed to cancel discovery session", err)
	}
}

// DetectOS probes a device and reports the best OS guess with its
// confidence score. Nothing is persisted.
func (m *Monitor) DetectOS(ctx context.Context, deviceID string) (*discovery.OSDetection, error) {
	device, err := m.store.GetDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, notFoundErr("device", deviceID)
		}

		return nil, internalErr("failed to load device", err)
	}

	detection, err := m.discovery.ProbeOS(ctx, device)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Message: "OS probe failed", Err: err}
	}

	return detection, nil
}

// AvailableDiscoveryModules lists the registered modules in run order.
func (m *Monitor) AvailableDiscoveryModules() []discovery.ModuleInfo {
	return m.discovery.AvailableModules()
}
