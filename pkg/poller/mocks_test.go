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
	"strings"
	"sync"

	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

// fakeClient serves scripted varbinds keyed by OID.
type fakeClient struct {
	mu     sync.Mutex
	values map[string]snmp.Value
	down   bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{values: make(map[string]snmp.Value)}
}

func (c *fakeClient) setInt(oid string, v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[oid] = snmp.Value{Kind: snmp.KindInteger, Int: v}
}

func (c *fakeClient) setCounter64(oid string, v uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[oid] = snmp.Value{Kind: snmp.KindCounter64, Uint: v}
}

func (c *fakeClient) setStr(oid, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[oid] = snmp.Value{Kind: snmp.KindOctetString, Str: v}
}

func (c *fakeClient) Get(_ context.Context, _ *models.Device, oids []string) (*snmp.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return &snmp.Response{Success: false, Error: "timeout"}, nil
	}

	resp := &snmp.Response{Success: true}

	for _, oid := range oids {
		value, ok := c.values[oid]
		if !ok {
			value = snmp.Value{Kind: snmp.KindNoSuchObject}
		}

		resp.VarBinds = append(resp.VarBinds, snmp.VarBind{OID: oid, Value: value})
	}

	return resp, nil
}

func (c *fakeClient) GetNext(ctx context.Context, device *models.Device, oids []string) (*snmp.Response, error) {
	return c.Get(ctx, device, oids)
}

func (c *fakeClient) Walk(_ context.Context, _ *models.Device, baseOID string, _ uint32) (*snmp.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return &snmp.Response{Success: false, Error: "timeout"}, nil
	}

	resp := &snmp.Response{Success: true}

	for oid, value := range c.values {
		if strings.HasPrefix(oid, baseOID+".") {
			resp.VarBinds = append(resp.VarBinds, snmp.VarBind{OID: oid, Value: value})
		}
	}

	return resp, nil
}

func (c *fakeClient) GetBulk(
	ctx context.Context, device *models.Device, baseOID string, _ uint8, max uint32) (*snmp.Response, error) {
	return c.Walk(ctx, device, baseOID, max)
}

func (c *fakeClient) Set(_ context.Context, _ *models.Device, _ []snmp.SetRequest) (*snmp.Response, error) {
	return &snmp.Response{Success: true}, nil
}

func (c *fakeClient) TestConnection(_ context.Context, _ *models.Device) (*snmp.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down {
		return &snmp.Response{Success: false, Error: "timeout"}, nil
	}

	return &snmp.Response{Success: true}, nil
}

func (c *fakeClient) Close() {}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu       sync.Mutex
	devices  []*models.Device
	ports    map[string][]*models.Port
	sensors  map[string][]*models.Sensor
	statuses map[string]models.DeviceStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ports:    make(map[string][]*models.Port),
		sensors:  make(map[string][]*models.Sensor),
		statuses: make(map[string]models.DeviceStatus),
	}
}

func (s *fakeStore) ListDevices(_ context.Context, _ bool) ([]*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*models.Device(nil), s.devices...), nil
}

func (s *fakeStore) SetDeviceStatus(_ context.Context, id string, status models.DeviceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses[id] = status

	return nil
}

func (s *fakeStore) ListPorts(_ context.Context, deviceID string) ([]*models.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*models.Port(nil), s.ports[deviceID]...), nil
}

func (s *fakeStore) UpsertPort(_ context.Context, port *models.Port) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.ports[port.DeviceID] {
		if existing.IfIndex == port.IfIndex {
			s.ports[port.DeviceID][i] = port
			return nil
		}
	}

	s.ports[port.DeviceID] = append(s.ports[port.DeviceID], port)

	return nil
}

func (s *fakeStore) ListSensors(_ context.Context, deviceID string) ([]*models.Sensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*models.Sensor(nil), s.sensors[deviceID]...), nil
}

func (s *fakeStore) UpsertSensor(_ context.Context, sensor *models.Sensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.sensors[sensor.DeviceID] {
		if existing.Index == sensor.Index && existing.Type == sensor.Type {
			s.sensors[sensor.DeviceID][i] = sensor
			return nil
		}
	}

	s.sensors[sensor.DeviceID] = append(s.sensors[sensor.DeviceID], sensor)

	return nil
}

func (s *fakeStore) status(id string) models.DeviceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.statuses[id]
}

// fakeWriter records time-series writes.
type fakeWriter struct {
	mu             sync.Mutex
	interfaceRows  []*models.InterfaceMetrics
	deviceRows     []*models.DeviceMetrics
	sensorRows     []*models.SensorReading
	alertRowsCount int
}

func (w *fakeWriter) WriteInterfaceMetrics(_ context.Context, rows []*models.InterfaceMetrics) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.interfaceRows = append(w.interfaceRows, rows...)

	return nil
}

func (w *fakeWriter) WriteDeviceMetrics(_ context.Context, row *models.DeviceMetrics) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.deviceRows = append(w.deviceRows, row)

	return nil
}

func (w *fakeWriter) WriteSensorReadings(_ context.Context, rows []*models.SensorReading) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sensorRows = append(w.sensorRows, rows...)

	return nil
}

func (w *fakeWriter) WriteAlertMetric(_ context.Context, _, _ string, _ models.Severity, _ int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.alertRowsCount++

	return nil
}

// fakeSink records observations and triggers.
type fakeSink struct {
	mu         sync.Mutex
	interfaces []*models.InterfaceMetrics
	sensors    []*models.SensorReading
	devices    []*models.DeviceMetrics
	triggers   []*SyntheticTrigger
}

func (s *fakeSink) ObserveInterface(m *models.InterfaceMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interfaces = append(s.interfaces, m)
}

func (s *fakeSink) ObserveSensor(r *models.SensorReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sensors = append(s.sensors, r)
}

func (s *fakeSink) ObserveDevice(m *models.DeviceMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices = append(s.devices, m)
}

func (s *fakeSink) Trigger(t *SyntheticTrigger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.triggers = append(s.triggers, t)
}

func (s *fakeSink) triggered() []*SyntheticTrigger {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*SyntheticTrigger(nil), s.triggers...)
}

func testDevice() *models.Device {
	return &models.Device{
		ID:       "dev-1",
		Hostname: "sw1.example.net",
		Address:  "192.0.2.10",
		Status:   models.DeviceStatusUp,
	}
}
