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
	"fmt"
	"sync"
	"time"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
	"github.com/ymonitor/ymonitor/pkg/timeseries"
)

// InterfacePoller samples every enabled port each cycle and derives
// utilization and error rates against the in-memory last sample.
type InterfacePoller struct {
	client  snmp.Client
	store   Store
	writer  timeseries.Writer
	sink    Sink
	history *History[*models.InterfaceMetrics]
	config  Config
	logger  logger.Logger
}

func NewInterfacePoller(
	client snmp.Client,
	store Store,
	writer timeseries.Writer,
	sink Sink,
	config Config,
	log logger.Logger) *InterfacePoller {
	config.Defaults()

	return &InterfacePoller{
		client:  client,
		store:   store,
		writer:  writer,
		sink:    sink,
		history: NewHistory[*models.InterfaceMetrics](config.InterfaceHistorySize),
		config:  config,
		logger:  log.WithComponent("poller.interfaces"),
	}
}

// Run executes one poll cycle: batches run sequentially, devices within
// a batch concurrently.
func (p *InterfacePoller) Run(ctx context.Context) {
	devices, err := p.store.ListDevices(ctx, true)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to enumerate devices")
		return
	}

	for _, batch := range chunkDevices(devices, p.config.InterfaceBatchSize) {
		var wg sync.WaitGroup

		for _, device := range batch {
			wg.Add(1)

			go func(device *models.Device) {
				defer wg.Done()
				p.pollDevice(ctx, device)
			}(device)
		}

		wg.Wait()

		if ctx.Err() != nil {
			return
		}
	}
}

func (p *InterfacePoller) pollDevice(ctx context.Context, device *models.Device) {
	probe, err := p.client.TestConnection(ctx, device)
	if err != nil || !probe.Success {
		p.logger.Warn().Str("device_id", device.ID).Msg("device unreachable, poll aborted")

		if err := p.store.SetDeviceStatus(ctx, device.ID, models.DeviceStatusDown); err != nil {
			p.logger.Error().Err(err).Str("device_id", device.ID).Msg("failed to mark device down")
		}

		return
	}

	ports, err := p.store.ListPorts(ctx, device.ID)
	if err != nil {
		p.logger.Error().Err(err).Str("device_id", device.ID).Msg("failed to list ports")
		return
	}

	now := time.Now()
	samples := make([]*models.InterfaceMetrics, 0, len(ports))

	for _, port := range ports {
		if port.Disabled {
			continue
		}

		sample, err := p.pollPort(ctx, device, port, now)
		if err != nil {
			p.logger.Debug().Err(err).
				Str("device_id", device.ID).
				Int32("if_index", port.IfIndex).
				Msg("port poll failed")

			continue
		}

		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return
	}

	if err := p.writer.WriteInterfaceMetrics(ctx, samples); err != nil {
		p.logger.Error().Err(err).Str("device_id", device.ID).Msg("time-series write failed")
	}

	for _, sample := range samples {
		p.sink.ObserveInterface(sample)
		p.checkThresholds(device, sample)
	}
}

// pollPort issues one GET for all counter OIDs of the port and derives
// rates against the previous in-memory sample.
func (p *InterfacePoller) pollPort(
	ctx context.Context, device *models.Device, port *models.Port, now time.Time) (*models.InterfaceMetrics, error) {
	idx := fmt.Sprintf("%d", port.IfIndex)

	oids := []string{
		oidIfAdminStatus + "." + idx,
		oidIfOperStatus + "." + idx,
		oidIfInOctets + "." + idx,
		oidIfInUcast + "." + idx,
		oidIfInDiscards + "." + idx,
		oidIfInErrors + "." + idx,
		oidIfOutOctets + "." + idx,
		oidIfOutUcast + "." + idx,
		oidIfOutDiscards + "." + idx,
		oidIfOutErrors + "." + idx,
	}

	if port.HasHC {
		oids = append(oids, oidIfHCInOctets+"."+idx, oidIfHCOutOctets+"."+idx)
	}

	resp, err := p.client.Get(ctx, device, oids)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("get failed: %s", resp.Error)
	}

	sample := &models.InterfaceMetrics{
		DeviceID:  device.ID,
		PortID:    port.ID,
		IfIndex:   port.IfIndex,
		Timestamp: now,
		SpeedBPS:  port.SpeedBPS,
		HasHC:     port.HasHC,
	}

	for _, vb := range resp.VarBinds {
		if !vb.Value.Present() {
			continue
		}

		switch trimIndex(vb.OID, idx) {
		case oidIfAdminStatus:
			code, _ := vb.Value.AsInt64()
			sample.AdminStatus = models.AdminStatusFromIfValue(code)
		case oidIfOperStatus:
			code, _ := vb.Value.AsInt64()
			sample.OperStatus = models.OperStatusFromIfValue(code)
		case oidIfInOctets:
			sample.InOctets, _ = vb.Value.AsUint64()
		case oidIfInUcast:
			sample.InUcast, _ = vb.Value.AsUint64()
		case oidIfInDiscards:
			sample.InDiscards, _ = vb.Value.AsUint64()
		case oidIfInErrors:
			sample.InErrors, _ = vb.Value.AsUint64()
		case oidIfOutOctets:
			sample.OutOctets, _ = vb.Value.AsUint64()
		case oidIfOutUcast:
			sample.OutUcast, _ = vb.Value.AsUint64()
		case oidIfOutDiscards:
			sample.OutDiscards, _ = vb.Value.AsUint64()
		case oidIfOutErrors:
			sample.OutErrors, _ = vb.Value.AsUint64()
		case oidIfHCInOctets:
			sample.HCInOctets, _ = vb.Value.AsUint64()
		case oidIfHCOutOctets:
			sample.HCOutOctets, _ = vb.Value.AsUint64()
		}
	}

	key := device.ID + ":" + idx

	previous, _ := p.history.Last(key)
	derive(sample, previous)
	p.history.Push(key, sample)

	p.updatePortRow(ctx, port, sample, now)

	return sample, nil
}

// updatePortRow copies the fresh counters and statuses into the
// relational current-state row.
func (p *InterfacePoller) updatePortRow(
	ctx context.Context, port *models.Port, sample *models.InterfaceMetrics, now time.Time) {
	port.AdminStatus = sample.AdminStatus
	port.OperStatus = sample.OperStatus
	port.InOctets = sample.InOctets
	port.OutOctets = sample.OutOctets
	port.InUcast = sample.InUcast
	port.OutUcast = sample.OutUcast
	port.InDiscards = sample.InDiscards
	port.OutDiscards = sample.OutDiscards
	port.InErrors = sample.InErrors
	port.OutErrors = sample.OutErrors
	port.HCInOctets = sample.HCInOctets
	port.HCOutOctets = sample.HCOutOctets
	port.LastPolled = &now

	if err := p.store.UpsertPort(ctx, port); err != nil {
		p.logger.Error().Err(err).
			Str("device_id", port.DeviceID).
			Int32("if_index", port.IfIndex).
			Msg("failed to update port row")
	}
}

// trimIndex strips the trailing ".<idx>" to recover the column OID.
func trimIndex(oid, idx string) string {
	suffix := "." + idx
	if len(oid) > len(suffix) && oid[len(oid)-len(suffix):] == suffix {
		return oid[:len(oid)-len(suffix)]
	}

	return oid
}
