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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
)

func newSensorFixture(t *testing.T) (*SensorPoller, *fakeClient, *fakeStore, *fakeWriter, *fakeSink) {
	t.Helper()

	client := newFakeClient()
	store := newFakeStore()
	writer := &fakeWriter{}
	sink := &fakeSink{}
	p := NewSensorPoller(client, store, writer, sink, Config{}, logger.NewTestLogger())

	return p, client, store, writer, sink
}

func seedSensor(store *fakeStore, deviceID string, sensorType models.SensorType, oid string) *models.Sensor {
	sensor := &models.Sensor{
		ID:         "sensor-" + oid,
		DeviceID:   deviceID,
		Index:      "1001",
		Type:       sensorType,
		Descr:      "Chassis " + string(sensorType),
		OID:        oid,
		Divisor:    1,
		Multiplier: 1,
	}
	store.sensors[deviceID] = append(store.sensors[deviceID], sensor)

	return sensor
}

func TestSensorPollerCycle(t *testing.T) {
	p, client, store, writer, sink := newSensorFixture(t)

	device := testDevice()
	store.devices = append(store.devices, device)
	seedSensor(store, device.ID, models.SensorTemperature, ".1.3.6.1.4.1.9.9.13.1.3.1.3.1")
	client.setInt(".1.3.6.1.4.1.9.9.13.1.3.1.3.1", 42)

	p.Run(context.Background())

	require.Len(t, writer.sensorRows, 1)

	reading := writer.sensorRows[0]
	assert.Equal(t, device.ID, reading.DeviceID)
	assert.Equal(t, models.SensorTemperature, reading.SensorType)
	assert.InDelta(t, 42, reading.Value, 1e-9)

	assert.Len(t, sink.sensors, 1)

	// Current and previous values rotate on the relational row.
	sensor := store.sensors[device.ID][0]
	require.NotNil(t, sensor.Value)
	assert.InDelta(t, 42, *sensor.Value, 1e-9)
	assert.Nil(t, sensor.PrevValue)
}

func TestSensorPollerRotatesPrevValue(t *testing.T) {
	p, client, store, _, _ := newSensorFixture(t)

	device := testDevice()
	store.devices = append(store.devices, device)
	seedSensor(store, device.ID, models.SensorTemperature, ".1.3.6.1.4.1.9.9.13.1.3.1.3.1")

	client.setInt(".1.3.6.1.4.1.9.9.13.1.3.1.3.1", 40)
	p.Run(context.Background())

	client.setInt(".1.3.6.1.4.1.9.9.13.1.3.1.3.1", 45)
	p.Run(context.Background())

	sensor := store.sensors[device.ID][0]
	require.NotNil(t, sensor.Value)
	require.NotNil(t, sensor.PrevValue)
	assert.InDelta(t, 45, *sensor.Value, 1e-9)
	assert.InDelta(t, 40, *sensor.PrevValue, 1e-9)
}

func TestSensorPollerAppliesDivisor(t *testing.T) {
	p, client, store, writer, _ := newSensorFixture(t)

	device := testDevice()
	store.devices = append(store.devices, device)

	sensor := seedSensor(store, device.ID, models.SensorVoltage, ".1.3.6.1.2.1.99.1.1.1.4.2001")
	sensor.Divisor = 100
	client.setInt(".1.3.6.1.2.1.99.1.1.1.4.2001", 1195)

	p.Run(context.Background())

	require.Len(t, writer.sensorRows, 1)
	assert.InDelta(t, 11.95, writer.sensorRows[0].Value, 1e-9)
}

func TestSensorPollerSkipsDisabled(t *testing.T) {
	p, client, store, writer, _ := newSensorFixture(t)

	device := testDevice()
	store.devices = append(store.devices, device)

	sensor := seedSensor(store, device.ID, models.SensorTemperature, ".1.3.6.1.4.1.9.9.13.1.3.1.3.1")
	sensor.Disabled = true
	client.setInt(".1.3.6.1.4.1.9.9.13.1.3.1.3.1", 42)

	p.Run(context.Background())

	assert.Empty(t, writer.sensorRows)
}

func TestSensorPollerMarksDeviceDown(t *testing.T) {
	p, client, store, writer, _ := newSensorFixture(t)

	device := testDevice()
	store.devices = append(store.devices, device)
	seedSensor(store, device.ID, models.SensorTemperature, ".1.3.6.1.4.1.9.9.13.1.3.1.3.1")
	client.down = true

	p.Run(context.Background())

	assert.Equal(t, models.DeviceStatusDown, store.status(device.ID))
	assert.Empty(t, writer.sensorRows)
}

func TestSensorPollerSkipsDevicesWithoutSensors(t *testing.T) {
	p, client, store, _, _ := newSensorFixture(t)

	device := testDevice()
	store.devices = append(store.devices, device)
	client.down = true

	p.Run(context.Background())

	// No sensors means no probe and no status change.
	assert.Equal(t, models.DeviceStatus(""), store.status(device.ID))
}

func TestSensorThresholdExplicitLimit(t *testing.T) {
	p, _, _, _, sink := newSensorFixture(t)

	limit := 75.0
	sensor := &models.Sensor{
		ID:        "s-1",
		Index:     "1001",
		Type:      models.SensorTemperature,
		Descr:     "Intake",
		LimitHigh: &limit,
	}
	reading := &models.SensorReading{Value: 78, Unit: "C"}

	p.checkSensorThresholds(testDevice(), sensor, reading)

	triggers := sink.triggered()
	require.Len(t, triggers, 1)
	assert.Equal(t, TriggerSensorMonitoring, triggers[0].RuleID)
	assert.Equal(t, models.SeverityCritical, triggers[0].Severity)
}

func TestSensorThresholdWarnBand(t *testing.T) {
	p, _, _, _, sink := newSensorFixture(t)

	limit, warn := 80.0, 70.0
	sensor := &models.Sensor{
		Index:     "1001",
		Type:      models.SensorTemperature,
		Descr:     "Intake",
		LimitHigh: &limit,
		WarnHigh:  &warn,
	}
	reading := &models.SensorReading{Value: 72, Unit: "C"}

	p.checkSensorThresholds(testDevice(), sensor, reading)

	triggers := sink.triggered()
	require.Len(t, triggers, 1)
	assert.Equal(t, models.SeverityWarning, triggers[0].Severity)
}

func TestSensorThresholdTypeDefaults(t *testing.T) {
	p, _, _, _, sink := newSensorFixture(t)

	// No explicit limits: the temperature defaults apply.
	sensor := &models.Sensor{Index: "1001", Type: models.SensorTemperature, Descr: "Intake"}

	p.checkSensorThresholds(testDevice(), sensor, &models.SensorReading{Value: 85, Unit: "C"})
	p.checkSensorThresholds(testDevice(), sensor, &models.SensorReading{Value: 72, Unit: "C"})
	p.checkSensorThresholds(testDevice(), sensor, &models.SensorReading{Value: 45, Unit: "C"})

	triggers := sink.triggered()
	require.Len(t, triggers, 2)
	assert.Equal(t, models.SeverityCritical, triggers[0].Severity)
	assert.Equal(t, models.SeverityWarning, triggers[1].Severity)
}

func TestSensorThresholdExplicitLimitsSuppressDefaults(t *testing.T) {
	p, _, _, _, sink := newSensorFixture(t)

	// 85 C would breach the type default, but the explicit limit is higher.
	limit := 95.0
	sensor := &models.Sensor{
		Index:     "1001",
		Type:      models.SensorTemperature,
		Descr:     "Hot aisle",
		LimitHigh: &limit,
	}

	p.checkSensorThresholds(testDevice(), sensor, &models.SensorReading{Value: 85, Unit: "C"})

	assert.Empty(t, sink.triggered())
}
