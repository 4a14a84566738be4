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

func TestSensorsModuleSkipsHostOSes(t *testing.T) {
	module := NewSensorsModule(newFakeClient(), newFakeInventory(), logger.NewTestLogger())

	assert.False(t, module.CanDiscover(testDevice("linux")))
	assert.False(t, module.CanDiscover(testDevice("windows")))
	assert.False(t, module.CanDiscover(testDevice("generic")))
	assert.True(t, module.CanDiscover(testDevice("cisco-ios")))
	assert.True(t, module.CanDiscover(testDevice("junos")))
}

func TestSensorsModuleEntitySensors(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewSensorsModule(client, inv, logger.NewTestLogger())

	// Index 1001: temperature (type 8), value 42 at unit scale.
	client.setInt(oidEntPhySensorType+".1001", 8)
	client.setInt(oidEntPhySensorScale+".1001", 9)
	client.setInt(oidEntPhySensorValue+".1001", 42)
	client.setStr(oidEntPhysicalName+".1001", "CPU board temp")

	// Index 1002: fan speed (type 10).
	client.setInt(oidEntPhySensorType+".1002", 10)
	client.setInt(oidEntPhySensorValue+".1002", 5400)

	// Type 1 (other) is not inventoried.
	client.setInt(oidEntPhySensorType+".1003", 1)

	device := testDevice("junos")
	result := module.Discover(context.Background(), device, nil)

	require.True(t, result.Success)

	sensors, err := inv.ListSensors(context.Background(), device.ID)
	require.NoError(t, err)
	require.Len(t, sensors, 2)

	byIndex := make(map[string]*models.Sensor)
	for _, s := range sensors {
		byIndex[s.Index] = s
	}

	temp := byIndex["1001"]
	require.NotNil(t, temp)
	assert.Equal(t, models.SensorTemperature, temp.Type)
	assert.Equal(t, "CPU board temp", temp.Descr)
	require.NotNil(t, temp.Value)
	assert.InDelta(t, 42, *temp.Value, 0.001)

	fan := byIndex["1002"]
	require.NotNil(t, fan)
	assert.Equal(t, models.SensorFanSpeed, fan.Type)
}

func TestSensorsModulePreservesPrevValue(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewSensorsModule(client, inv, logger.NewTestLogger())

	device := testDevice("junos")

	old := 38.5
	require.NoError(t, inv.UpsertSensor(context.Background(), &models.Sensor{
		ID: "s1", DeviceID: device.ID, Index: "1001",
		Type: models.SensorTemperature, Value: &old,
	}))

	client.setInt(oidEntPhySensorType+".1001", 8)
	client.setInt(oidEntPhySensorValue+".1001", 41)

	result := module.Discover(context.Background(), device, nil)
	require.True(t, result.Success)

	sensors, _ := inv.ListSensors(context.Background(), device.ID)
	require.Len(t, sensors, 1)

	assert.Equal(t, "s1", sensors[0].ID)
	require.NotNil(t, sensors[0].PrevValue)
	assert.InDelta(t, 38.5, *sensors[0].PrevValue, 0.001)
	require.NotNil(t, sensors[0].Value)
	assert.InDelta(t, 41, *sensors[0].Value, 0.001)
}

func TestSensorsModuleTemplateSensors(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewSensorsModule(client, inv, logger.NewTestLogger())

	warnHigh := 75.0
	tpl := &OSTemplate{OS: "junos"}
	tpl.Discovery.Sensors = map[string][]SensorDef{
		"temperature": {{
			OID:        ".1.3.6.1.4.1.2636.3.1.13.1.7",
			Descr:      "Routing engine {{ $index }} temp",
			SkipIfZero: true,
			WarnHigh:   &warnHigh,
		}},
	}
	require.NoError(t, tpl.compile())

	client.setInt(".1.3.6.1.4.1.2636.3.1.13.1.7.9", 55)
	client.setInt(".1.3.6.1.4.1.2636.3.1.13.1.7.10", 0) // skipped

	device := testDevice("junos")
	result := module.Discover(context.Background(), device, []*OSTemplate{tpl})

	require.True(t, result.Success)

	sensors, _ := inv.ListSensors(context.Background(), device.ID)
	require.Len(t, sensors, 1)

	assert.Equal(t, "Routing engine 9 temp", sensors[0].Descr)
	assert.Equal(t, models.SensorTemperature, sensors[0].Type)
	require.NotNil(t, sensors[0].WarnHigh)
	assert.InDelta(t, 75.0, *sensors[0].WarnHigh, 0.001)
	assert.Equal(t, 1.0, sensors[0].Divisor)
	assert.Equal(t, 1.0, sensors[0].Multiplier)
}

func TestSensorsModuleCiscoEnvMon(t *testing.T) {
	client := newFakeClient()
	inv := newFakeInventory()
	module := NewSensorsModule(client, inv, logger.NewTestLogger())

	client.setStr(oidCiscoEnvMonTempDescr+".1", "Chassis inlet")
	client.setInt(oidCiscoEnvMonTempValue+".1", 27)

	device := testDevice("cisco-ios")
	result := module.Discover(context.Background(), device, nil)

	require.True(t, result.Success)

	sensors, _ := inv.ListSensors(context.Background(), device.ID)
	require.Len(t, sensors, 1)

	assert.Equal(t, "envmon.1", sensors[0].Index)
	assert.Equal(t, models.SensorTemperature, sensors[0].Type)
	assert.Equal(t, "Chassis inlet", sensors[0].Descr)
	assert.Equal(t, "cisco-envmon", sensors[0].Class)
}

func TestEntitySensorScale(t *testing.T) {
	div, mul := entitySensorScale(8)
	assert.Equal(t, 1000.0, div)
	assert.Equal(t, 1.0, mul)

	div, mul = entitySensorScale(9)
	assert.Equal(t, 1.0, div)
	assert.Equal(t, 1.0, mul)

	div, mul = entitySensorScale(10)
	assert.Equal(t, 1.0, div)
	assert.Equal(t, 1000.0, mul)
}
