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
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

// fakeClient serves scripted varbinds: Get answers per-OID, Walk answers
// every scripted OID under the requested subtree.
type fakeClient struct {
	mu       sync.Mutex
	values   map[string]snmp.Value
	down     bool
	walkErrs map[string]error

	// failMultiGet fails GETs with more than one OID while leaving the
	// single-OID connectivity probe working.
	failMultiGet bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		values:   make(map[string]snmp.Value),
		walkErrs: make(map[string]error),
	}
}

func (f *fakeClient) set(oid string, v snmp.Value) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[oid] = v
}

func (f *fakeClient) setInt(oid string, v int64) {
	f.set(oid, snmp.Value{Kind: snmp.KindInteger, Int: v})
}

func (f *fakeClient) setStr(oid, v string) {
	f.set(oid, snmp.Value{Kind: snmp.KindOctetString, Str: v})
}

func intCounter64(v uint64) snmp.Value {
	return snmp.Value{Kind: snmp.KindCounter64, Uint: v}
}

func ciscoObjectID() snmp.Value {
	return snmp.Value{Kind: snmp.KindOID, Str: ".1.3.6.1.4.1.9.1.516"}
}

func (f *fakeClient) Get(_ context.Context, _ *models.Device, oids []string) (*snmp.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		return &snmp.Response{Success: false, Error: "timeout"}, snmp.ErrTimeout
	}

	if f.failMultiGet && len(oids) > 1 {
		return &snmp.Response{Success: false, Error: "timeout"}, snmp.ErrTimeout
	}

	resp := &snmp.Response{Success: true}

	for _, oid := range oids {
		if v, ok := f.values[oid]; ok {
			resp.VarBinds = append(resp.VarBinds, snmp.VarBind{OID: oid, Value: v})
		} else {
			resp.VarBinds = append(resp.VarBinds, snmp.VarBind{
				OID: oid, Value: snmp.Value{Kind: snmp.KindNoSuchObject}})
		}
	}

	return resp, nil
}

func (f *fakeClient) GetNext(ctx context.Context, device *models.Device, oids []string) (*snmp.Response, error) {
	return f.Get(ctx, device, oids)
}

func (f *fakeClient) Walk(
	_ context.Context, _ *models.Device, baseOID string, _ uint32) (*snmp.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		return &snmp.Response{Success: false, Error: "timeout"}, snmp.ErrTimeout
	}

	if err, ok := f.walkErrs[baseOID]; ok {
		return &snmp.Response{Success: false, Error: "timeout"}, err
	}

	resp := &snmp.Response{Success: true}
	prefix := strings.TrimSuffix(baseOID, ".") + "."

	for oid, v := range f.values {
		if strings.HasPrefix(oid, prefix) {
			resp.VarBinds = append(resp.VarBinds, snmp.VarBind{OID: oid, Value: v})
		}
	}

	return resp, nil
}

func (f *fakeClient) GetBulk(
	ctx context.Context, device *models.Device, baseOID string, _ uint8, maxRep uint32) (*snmp.Response, error) {
	return f.Walk(ctx, device, baseOID, maxRep)
}

func (f *fakeClient) Set(
	_ context.Context, _ *models.Device, _ []snmp.SetRequest) (*snmp.Response, error) {
	return &snmp.Response{Success: true}, nil
}

func (f *fakeClient) TestConnection(ctx context.Context, device *models.Device) (*snmp.Response, error) {
	return f.Get(ctx, device, []string{oidSysDescr})
}

func (f *fakeClient) Close() {}

// fakeInventory is an in-memory Inventory recording mutations.
type fakeInventory struct {
	mu       sync.Mutex
	devices  map[string]*models.Device
	ports    map[string]map[int32]*models.Port
	sensors  map[string][]*models.Sensor
	entities map[string][]*models.PhysicalEntity
	links    map[string][]*models.TopologyLink

	disableCalls int
	pruneCalls   int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		devices:  make(map[string]*models.Device),
		ports:    make(map[string]map[int32]*models.Port),
		sensors:  make(map[string][]*models.Sensor),
		entities: make(map[string][]*models.PhysicalEntity),
		links:    make(map[string][]*models.TopologyLink),
	}
}

func (f *fakeInventory) GetDevice(_ context.Context, id string) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[id]
	if !ok {
		return nil, errors.New("no such device")
	}

	return d, nil
}

func (f *fakeInventory) UpdateDevice(_ context.Context, device *models.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[device.ID] = device

	return nil
}

func (f *fakeInventory) ListPorts(_ context.Context, deviceID string) ([]*models.Port, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Port
	for _, p := range f.ports[deviceID] {
		out = append(out, p)
	}

	return out, nil
}

func (f *fakeInventory) UpsertPort(_ context.Context, port *models.Port) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ports[port.DeviceID] == nil {
		f.ports[port.DeviceID] = make(map[int32]*models.Port)
	}

	f.ports[port.DeviceID][port.IfIndex] = port

	return nil
}

func (f *fakeInventory) DisablePortsExcept(_ context.Context, deviceID string, keep []int32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.disableCalls++

	keepSet := make(map[int32]struct{}, len(keep))
	for _, i := range keep {
		keepSet[i] = struct{}{}
	}

	disabled := 0

	for idx, p := range f.ports[deviceID] {
		if _, ok := keepSet[idx]; !ok && !p.Disabled {
			p.Disabled = true
			disabled++
		}
	}

	return disabled, nil
}

func (f *fakeInventory) ListSensors(_ context.Context, deviceID string) ([]*models.Sensor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*models.Sensor(nil), f.sensors[deviceID]...), nil
}

func (f *fakeInventory) UpsertSensor(_ context.Context, sensor *models.Sensor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, s := range f.sensors[sensor.DeviceID] {
		if s.Index == sensor.Index && s.Type == sensor.Type {
			f.sensors[sensor.DeviceID][i] = sensor
			return nil
		}
	}

	f.sensors[sensor.DeviceID] = append(f.sensors[sensor.DeviceID], sensor)

	return nil
}

func (f *fakeInventory) UpsertEntity(_ context.Context, entity *models.PhysicalEntity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities[entity.DeviceID] = append(f.entities[entity.DeviceID], entity)

	return nil
}

func (f *fakeInventory) ListTopology(_ context.Context, deviceID string) ([]*models.TopologyLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*models.TopologyLink(nil), f.links[deviceID]...), nil
}

func (f *fakeInventory) UpsertTopologyLink(_ context.Context, link *models.TopologyLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, l := range f.links[link.DeviceID] {
		if l.Protocol == link.Protocol && l.LocalPort == link.LocalPort &&
			l.RemoteHostname == link.RemoteHostname {
			f.links[link.DeviceID][i] = link
			return nil
		}
	}

	f.links[link.DeviceID] = append(f.links[link.DeviceID], link)

	return nil
}

func (f *fakeInventory) PruneTopology(_ context.Context, deviceID string, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pruneCalls++

	pruned := 0

	for _, l := range f.links[deviceID] {
		if l.Active && l.LastUpdated.Before(cutoff) {
			l.Active = false
			pruned++
		}
	}

	return pruned, nil
}

func testDevice(os string) *models.Device {
	return &models.Device{
		ID:       "dev-1",
		Hostname: "core-sw1",
		Address:  "192.0.2.10",
		OS:       os,
		SNMP: models.SNMPConfig{
			Version:   models.SNMPVersion2c,
			Port:      161,
			TimeoutMS: 5000,
			Retries:   1,
			Community: "public",
		},
	}
}
