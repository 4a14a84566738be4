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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
)

func seedInterface(c *fakeClient, idx string, name string, ifType, admin, oper int64, speed int64) {
	c.setStr(oidIfDescr+"."+idx, name)
	c.setInt(oidIfType+"."+idx, ifType)
	c.setInt(oidIfMtu+"."+idx, 1500)
	c.setInt(oidIfSpeed+"."+idx, speed)
	c.setInt(oidIfAdminStatus+"."+idx, admin)
	c.setInt(oidIfOperStatus+"."+idx, oper)
	c.setInt(oidIfInOctets+"."+idx, 1000)
	c.setInt(oidIfOutOctets+"."+idx, 2000)
}

func TestPortsModuleDiscover(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewPortsModule(client, inv, logger.NewTestLogger())

	seedInterface(client, "1", "GigabitEthernet0/1", 6, 1, 1, 1_000_000_000)
	seedInterface(client, "2", "GigabitEthernet0/2", 6, 1, 2, 1_000_000_000)
	client.setStr(oidIfAlias+".1", "uplink")
	client.setInt(oidIfHighSpeed+".1", 10_000)
	client.set(oidIfHCInOctets+".1", intCounter64(123456789))

	device := testDevice("cisco-ios")
	result := module.Discover(context.Background(), device, nil)

	require.True(t, result.Success)
	assert.Len(t, result.Discovered, 2)

	ports, err := inv.ListPorts(context.Background(), device.ID)
	require.NoError(t, err)
	require.Len(t, ports, 2)

	var uplink *models.Port

	for _, p := range ports {
		if p.IfIndex == 1 {
			uplink = p
		}
	}

	require.NotNil(t, uplink)
	assert.Equal(t, "uplink", uplink.Alias)
	assert.True(t, uplink.HasHC)
	// ifHighSpeed in Mb/s overrides ifSpeed.
	assert.Equal(t, uint64(10_000_000_000), uplink.SpeedBPS)
	assert.Equal(t, models.AdminStatusUp, uplink.AdminStatus)
}

func TestPortsModuleIgnoresLoopbackAndTemplateRules(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewPortsModule(client, inv, logger.NewTestLogger())

	seedInterface(client, "1", "lo0", 24, 1, 1, 0)
	seedInterface(client, "2", "Vlan1", 53, 1, 1, 0)
	seedInterface(client, "3", "docker0", 6, 1, 1, 0)
	seedInterface(client, "4", "eth0", 6, 1, 1, 1_000_000_000)

	templates := builtinTemplates()
	result := module.Discover(context.Background(), testDevice("linux"),
		[]*OSTemplate{templates["linux"], templates["generic"]})

	require.True(t, result.Success)
	require.Len(t, result.Discovered, 1)
	assert.Equal(t, "eth0", result.Discovered[0].Key)
}

func TestPortsModuleZeroObservedDoesNotDisable(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewPortsModule(client, inv, logger.NewTestLogger())

	device := testDevice("cisco-ios")

	// A previously discovered port exists but this pass sees nothing.
	require.NoError(t, inv.UpsertPort(context.Background(), &models.Port{
		ID: "p1", DeviceID: device.ID, IfIndex: 1, Name: "Gi0/1",
	}))

	result := module.Discover(context.Background(), device, nil)

	assert.False(t, result.Success)
	assert.Zero(t, inv.disableCalls)

	ports, _ := inv.ListPorts(context.Background(), device.ID)
	require.Len(t, ports, 1)
	assert.False(t, ports[0].Disabled)
}

func TestPortsModuleDisablesMissing(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewPortsModule(client, inv, logger.NewTestLogger())

	device := testDevice("cisco-ios")

	require.NoError(t, inv.UpsertPort(context.Background(), &models.Port{
		ID: "p1", DeviceID: device.ID, IfIndex: 1, Name: "Gi0/1",
	}))
	require.NoError(t, inv.UpsertPort(context.Background(), &models.Port{
		ID: "p9", DeviceID: device.ID, IfIndex: 9, Name: "Gi0/9",
	}))

	seedInterface(client, "1", "Gi0/1", 6, 1, 1, 1_000_000_000)

	result := module.Discover(context.Background(), device, nil)

	require.True(t, result.Success)
	assert.Equal(t, 1, inv.disableCalls)

	ports, _ := inv.ListPorts(context.Background(), device.ID)

	for _, p := range ports {
		switch p.IfIndex {
		case 1:
			assert.False(t, p.Disabled)
		case 9:
			assert.True(t, p.Disabled)
		}
	}
}

func TestPortsModulePreservesExistingID(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewPortsModule(client, inv, logger.NewTestLogger())

	device := testDevice("cisco-ios")

	require.NoError(t, inv.UpsertPort(context.Background(), &models.Port{
		ID: "stable-id", DeviceID: device.ID, IfIndex: 1, Name: "Gi0/1",
	}))

	seedInterface(client, "1", "Gi0/1", 6, 1, 1, 1_000_000_000)

	result := module.Discover(context.Background(), device, nil)
	require.True(t, result.Success)

	ports, _ := inv.ListPorts(context.Background(), device.ID)
	require.Len(t, ports, 1)
	assert.Equal(t, "stable-id", ports[0].ID)
}
