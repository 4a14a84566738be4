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

package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymonitor/ymonitor/pkg/logger"
)

func newTestEngine(t *testing.T, client *fakeClient, inv *fakeInventory) *Engine {
	t.Helper()

	engine, err := NewEngine(client, inv, Config{}, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(engine.Stop)

	return engine
}

func seedReachableDevice(client *fakeClient, inv *fakeInventory) {
	device := testDevice("")
	inv.devices[device.ID] = device

	client.setStr(oidSysDescr, "Cisco IOS Software, Catalyst")
	client.set(oidSysObjectID, ciscoObjectID())
	client.setStr(oidSysName, "core-sw1")
	client.setInt(oidSysServices, svcDatalink)
}

func waitForSession(t *testing.T, engine *Engine, id string) *Session {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		session, err := engine.GetSession(id)
		require.NoError(t, err)

		if session.Status != SessionRunning {
			return session
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("session did not finish in time")

	return nil
}

func TestEngineFullDiscovery(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	seedReachableDevice(client, inv)

	// One interface so the ports module succeeds.
	seedInterface(client, "1", "Gi0/1", 6, 1, 1, 1_000_000_000)

	engine := newTestEngine(t, client, inv)

	session, err := engine.DiscoverDevice(context.Background(), "dev-1", nil)
	require.NoError(t, err)
	assert.Equal(t, SessionFull, session.Type)
	assert.Equal(t, []string{"core", "ports", "sensors", "entity", "topology"}, session.SelectedModules)

	done := waitForSession(t, engine, session.ID)
	assert.Equal(t, SessionCompleted, done.Status)
	assert.Equal(t, float64(100), done.Progress)
	assert.NotNil(t, done.EndedAt)

	// Core ran and detected the OS.
	device, err := inv.GetDevice(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "cisco-ios", device.OS)
}

func TestEngineUnreachableDeviceFails(t *testing.T) {
	client := newFakeClient()
	client.down = true

	inv := newFakeInventory()
	inv.devices["dev-1"] = testDevice("")

	engine := newTestEngine(t, client, inv)

	session, err := engine.DiscoverDevice(context.Background(), "dev-1", nil)
	require.NoError(t, err)

	done := waitForSession(t, engine, session.ID)
	assert.Equal(t, SessionFailed, done.Status)
	assert.Contains(t, done.Errors, ErrDeviceUnreachable.Error())
	assert.Empty(t, done.Results)
}

func TestEngineUnknownDevice(t *testing.T) {
	engine := newTestEngine(t, newFakeClient(), newFakeInventory())

	_, err := engine.DiscoverDevice(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestEngineUnknownModule(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	seedReachableDevice(client, inv)

	engine := newTestEngine(t, client, inv)

	_, err := engine.DiscoverDevice(context.Background(), "dev-1", []string{"bogus"})
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestEngineIncrementalSelection(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	seedReachableDevice(client, inv)

	engine := newTestEngine(t, client, inv)

	session, err := engine.Incremental(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, SessionIncremental, session.Type)
	// Priority order: ports(2), sensors(3), topology(5). Core is absent.
	assert.Equal(t, []string{"ports", "sensors", "topology"}, session.SelectedModules)

	waitForSession(t, engine, session.ID)
}

func TestEngineDependencyGating(t *testing.T) {
	client := newFakeClient()
	client.failMultiGet = true

	inv := newFakeInventory()
	device := testDevice("")
	inv.devices[device.ID] = device

	// The single-OID connectivity probe passes but the system-group GET
	// fails: core fails, so ports must be skipped with a dependency error.
	client.setStr(oidSysDescr, "probe ok")

	engine := newTestEngine(t, client, inv)

	session, err := engine.DiscoverDevice(context.Background(), "dev-1", []string{"core", "ports"})
	require.NoError(t, err)

	done := waitForSession(t, engine, session.ID)
	assert.Equal(t, SessionFailed, done.Status)

	foundGateError := false

	for _, e := range done.Errors {
		if e == "module ports skipped: dependency core did not succeed" {
			foundGateError = true
		}
	}

	assert.True(t, foundGateError)
}

func TestEngineGetSessionNotFound(t *testing.T) {
	engine := newTestEngine(t, newFakeClient(), newFakeInventory())

	_, err := engine.GetSession("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEngineCancelFinishedSession(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	seedReachableDevice(client, inv)
	seedInterface(client, "1", "Gi0/1", 6, 1, 1, 1_000_000_000)

	engine := newTestEngine(t, client, inv)

	session, err := engine.DiscoverDevice(context.Background(), "dev-1", nil)
	require.NoError(t, err)

	waitForSession(t, engine, session.ID)

	assert.ErrorIs(t, engine.Cancel(session.ID), ErrSessionNotRunning)
	assert.ErrorIs(t, engine.Cancel("nope"), ErrSessionNotFound)
}

func TestEngineAvailableModules(t *testing.T) {
	engine := newTestEngine(t, newFakeClient(), newFakeInventory())

	infos := engine.AvailableModules()
	require.Len(t, infos, 5)

	assert.Equal(t, "core", infos[0].Name)
	assert.Equal(t, "topology", infos[4].Name)

	for i := 1; i < len(infos); i++ {
		assert.GreaterOrEqual(t, infos[i].Priority, infos[i-1].Priority)
	}
}

func TestEngineProbeOS(t *testing.T) {
	client := newFakeClient()
	client.set(oidSysObjectID, ciscoObjectID())
	client.setStr(oidSysDescr, "Cisco IOS Software")

	inv := newFakeInventory()
	engine := newTestEngine(t, client, inv)

	detection, err := engine.ProbeOS(context.Background(), testDevice(""))
	require.NoError(t, err)
	assert.Equal(t, "cisco-ios", detection.OS)
	assert.Equal(t, 90, detection.Confidence)
}

func TestEnginePruneSessions(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	seedReachableDevice(client, inv)
	seedInterface(client, "1", "Gi0/1", 6, 1, 1, 1_000_000_000)

	engine := newTestEngine(t, client, inv)

	session, err := engine.DiscoverDevice(context.Background(), "dev-1", []string{"core"})
	require.NoError(t, err)

	waitForSession(t, engine, session.ID)

	engine.pruneSessions(time.Now().Add(time.Minute))

	_, err = engine.GetSession(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEngineCapacityLimit(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	seedReachableDevice(client, inv)

	engine, err := NewEngine(client, inv, Config{MaxActiveSessions: 0}, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(engine.Stop)

	// Saturate by injecting a fake running session directly.
	engine.mu.Lock()
	for i := 0; i < engine.config.MaxActiveSessions; i++ {
		id := fmt.Sprintf("running-%d", i)
		engine.sessions[id] = &Session{ID: id, Status: SessionRunning}
	}
	engine.mu.Unlock()

	_, err = engine.DiscoverDevice(context.Background(), "dev-1", nil)
	assert.ErrorIs(t, err, ErrEngineAtCapacity)
}
