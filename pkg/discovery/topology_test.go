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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
)

func TestTopologyModuleLLDP(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewTopologyModule(client, inv, logger.NewTestLogger())

	// LLDP rem index is timeMark.localPort.index.
	client.setStr(oidLLDPRemSysName+".0.5.1", "dist-sw2")
	client.setStr(oidLLDPRemChassisID+".0.5.1", "00:11:22:33:44:55")
	client.setStr(oidLLDPRemPortID+".0.5.1", "Ethernet49")
	client.setStr(oidLLDPRemSysDescr+".0.5.1", "Arista Networks EOS")

	device := testDevice("junos")
	result := module.Discover(context.Background(), device, nil)

	require.True(t, result.Success)
	require.Len(t, result.Discovered, 1)

	links, _ := inv.ListTopology(context.Background(), device.ID)
	require.Len(t, links, 1)

	link := links[0]
	assert.Equal(t, models.TopologyLLDP, link.Protocol)
	assert.Equal(t, int32(5), link.LocalPort)
	assert.Equal(t, "dist-sw2", link.RemoteHostname)
	assert.Equal(t, "Ethernet49", link.RemotePortID)
	assert.Equal(t, "00:11:22:33:44:55", link.RemoteChassisID)
	assert.True(t, link.Active)
}

func TestTopologyModuleCDPOnCiscoOnly(t *testing.T) {
	client := newFakeClient()
	// CDP rem index is ifIndex.deviceIndex.
	client.setStr(oidCDPCacheDeviceID+".3.1", "access-sw7")
	client.setStr(oidCDPCachePort+".3.1", "GigabitEthernet0/48")
	client.setStr(oidCDPCachePlatform+".3.1", "cisco WS-C2960X")

	inv := newFakeInventory()
	module := NewTopologyModule(client, inv, logger.NewTestLogger())

	// Non-Cisco device: CDP table is not consulted.
	result := module.Discover(context.Background(), testDevice("junos"), nil)
	require.True(t, result.Success)
	assert.Empty(t, result.Discovered)

	// Cisco device: CDP neighbor found.
	device := testDevice("cisco-ios")
	result = module.Discover(context.Background(), device, nil)
	require.True(t, result.Success)
	require.Len(t, result.Discovered, 1)

	links, _ := inv.ListTopology(context.Background(), device.ID)
	require.Len(t, links, 1)
	assert.Equal(t, models.TopologyCDP, links[0].Protocol)
	assert.Equal(t, int32(3), links[0].LocalPort)
	assert.Equal(t, "cisco WS-C2960X", links[0].RemotePlatform)
}

func TestTopologyModuleZeroNeighborsDoesNotPrune(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewTopologyModule(client, inv, logger.NewTestLogger())

	device := testDevice("junos")

	stale := &models.TopologyLink{
		DeviceID: device.ID, LocalPort: 1, Protocol: models.TopologyLLDP,
		RemoteHostname: "old-neighbor",
		LastUpdated:    time.Now().Add(-48 * time.Hour),
		Active:         true,
	}
	require.NoError(t, inv.UpsertTopologyLink(context.Background(), stale))

	result := module.Discover(context.Background(), device, nil)

	require.True(t, result.Success)
	assert.Zero(t, inv.pruneCalls)

	links, _ := inv.ListTopology(context.Background(), device.ID)
	require.Len(t, links, 1)
	assert.True(t, links[0].Active)
}

func TestTopologyModulePrunesStaleWithNeighbors(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewTopologyModule(client, inv, logger.NewTestLogger())

	device := testDevice("junos")

	stale := &models.TopologyLink{
		DeviceID: device.ID, LocalPort: 1, Protocol: models.TopologyLLDP,
		RemoteHostname: "old-neighbor",
		LastUpdated:    time.Now().Add(-48 * time.Hour),
		Active:         true,
	}
	require.NoError(t, inv.UpsertTopologyLink(context.Background(), stale))

	client.setStr(oidLLDPRemSysName+".0.2.1", "fresh-neighbor")

	result := module.Discover(context.Background(), device, nil)

	require.True(t, result.Success)
	assert.Equal(t, 1, inv.pruneCalls)

	links, _ := inv.ListTopology(context.Background(), device.ID)

	for _, l := range links {
		switch l.RemoteHostname {
		case "old-neighbor":
			assert.False(t, l.Active)
		case "fresh-neighbor":
			assert.True(t, l.Active)
		}
	}
}

func TestLLDPIndexParsing(t *testing.T) {
	port, ok := lldpLocalPort("0.17.4")
	require.True(t, ok)
	assert.Equal(t, int32(17), port)

	_, ok = lldpLocalPort("17.4")
	assert.False(t, ok)

	port, ok = cdpLocalPort("12.1")
	require.True(t, ok)
	assert.Equal(t, int32(12), port)

	_, ok = cdpLocalPort("12")
	assert.False(t, ok)
}
