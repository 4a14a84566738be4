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
	"time"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
	"github.com/ymonitor/ymonitor/pkg/timeseries"
)

// DevicePoller runs the one-minute status probe: reachability, response
// time, uptime and CPU load where exposed.
type DevicePoller struct {
	client snmp.Client
	store  Store
	writer timeseries.Writer
	sink   Sink
	config Config
	logger logger.Logger

	mu           sync.Mutex
	availability map[string]*availabilityWindow
}

// availabilityWindow tracks the probe success ratio over a rolling
// sample count.
type availabilityWindow struct {
	samples []bool
}

const availabilityWindowSize = 60

func (w *availabilityWindow) observe(up bool) float64 {
	if len(w.samples) >= availabilityWindowSize {
		w.samples = w.samples[1:]
	}

	w.samples = append(w.samples, up)

	ups := 0

	for _, s := range w.samples {
		if s {
			ups++
		}
	}

	return float64(ups) / float64(len(w.samples)) * 100
}

func NewDevicePoller(
	client snmp.Client,
	store Store,
	writer timeseries.Writer,
	sink Sink,
	config Config,
	log logger.Logger) *DevicePoller {
	config.Defaults()

	return &DevicePoller{
		client:       client,
		store:        store,
		writer:       writer,
		sink:         sink,
		config:       config,
		logger:       log.WithComponent("poller.device"),
		availability: make(map[string]*availabilityWindow),
	}
}

// Run executes one device status cycle.
func (p *DevicePoller) Run(ctx context.Context) {
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

func (p *DevicePoller) pollDevice(ctx context.Context, device *models.Device) {
	start := time.Now()
	probe, err := p.client.Get(ctx, device, []string{oidSysDescr, oidSysUptime})
	responseTime := float64(time.Since(start).Microseconds()) / 1000

	up := err == nil && probe.Success
	status := models.DeviceStatusUp

	if !up {
		status = models.DeviceStatusDown
	}

	p.mu.Lock()

	window, ok := p.availability[device.ID]
	if !ok {
		window = &availabilityWindow{}
		p.availability[device.ID] = window
	}

	availability := window.observe(up)
	p.mu.Unlock()

	sample := &models.DeviceMetrics{
		DeviceID:       device.ID,
		Hostname:       device.Hostname,
		Status:         status,
		ResponseTimeMS: responseTime,
		Availability:   availability,
		Timestamp:      start,
	}

	if up {
		for _, vb := range probe.VarBinds {
			if strings.HasPrefix(vb.OID, oidSysUptime) {
				sample.Uptime, _ = vb.Value.AsInt64()
			}
		}

		if cpu, ok := p.pollCPU(ctx, device); ok {
			sample.CPUUsage = &cpu
		}
	}

	if err := p.store.SetDeviceStatus(ctx, device.ID, status); err != nil {
		p.logger.Error().Err(err).Str("device_id", device.ID).Msg("failed to update device status")
	}

	if err := p.writer.WriteDeviceMetrics(ctx, sample); err != nil {
		p.logger.Error().Err(err).Str("device_id", device.ID).Msg("time-series write failed")
	}

	p.sink.ObserveDevice(sample)
}

// pollCPU averages hrProcessorLoad over all processor rows; absent on
// most network gear.
func (p *DevicePoller) pollCPU(ctx context.Context, device *models.Device) (float64, bool) {
	resp, err := p.client.Walk(ctx, device, oidHrProcessorLoad, 0)
	if err != nil || !resp.Success || len(resp.VarBinds) == 0 {
		return 0, false
	}

	var sum int64

	count := 0

	for _, vb := range resp.VarBinds {
		if load, ok := vb.Value.AsInt64(); ok {
			sum += load
			count++
		}
	}

	if count == 0 {
		return 0, false
	}

	return float64(sum) / float64(count), true
}
