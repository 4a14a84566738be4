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

// SensorPoller samples every enabled sensor each cycle, scales the raw
// readings and forwards them to the time-series store and alert engine.
type SensorPoller struct {
	client  snmp.Client
	store   Store
	writer  timeseries.Writer
	sink    Sink
	history *History[*models.SensorReading]
	config  Config
	logger  logger.Logger
}

func NewSensorPoller(
	client snmp.Client,
	store Store,
	writer timeseries.Writer,
	sink Sink,
	config Config,
	log logger.Logger) *SensorPoller {
	config.Defaults()

	return &SensorPoller{
		client:  client,
		store:   store,
		writer:  writer,
		sink:    sink,
		history: NewHistory[*models.SensorReading](config.SensorHistorySize),
		config:  config,
		logger:  log.WithComponent("poller.sensors"),
	}
}

// Run executes one sensor poll cycle.
func (p *SensorPoller) Run(ctx context.Context) {
	devices, err := p.store.ListDevices(ctx, true)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to enumerate devices")
		return
	}

	for _, batch := range chunkDevices(devices, p.config.SensorBatchSize) {
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

func (p *SensorPoller) pollDevice(ctx context.Context, device *models.Device) {
	sensors, err := p.store.ListSensors(ctx, device.ID)
	if err != nil {
		p.logger.Error().Err(err).Str("device_id", device.ID).Msg("failed to list sensors")
		return
	}

	if len(sensors) == 0 {
		return
	}

	probe, err := p.client.TestConnection(ctx, device)
	if err != nil || !probe.Success {
		p.logger.Warn().Str("device_id", device.ID).Msg("device unreachable, poll aborted")

		if err := p.store.SetDeviceStatus(ctx, device.ID, models.DeviceStatusDown); err != nil {
			p.logger.Error().Err(err).Str("device_id", device.ID).Msg("failed to mark device down")
		}

		return
	}

	now := time.Now()
	readings := make([]*models.SensorReading, 0, len(sensors))

	for _, sensor := range sensors {
		if sensor.Disabled {
			continue
		}

		reading, err := p.pollSensor(ctx, device, sensor, now)
		if err != nil {
			p.logger.Debug().Err(err).
				Str("device_id", device.ID).
				Str("sensor", sensor.Index).
				Msg("sensor poll failed")

			continue
		}

		readings = append(readings, reading)
	}

	if len(readings) == 0 {
		return
	}

	if err := p.writer.WriteSensorReadings(ctx, readings); err != nil {
		p.logger.Error().Err(err).Str("device_id", device.ID).Msg("time-series write failed")
	}

	for _, reading := range readings {
		p.sink.ObserveSensor(reading)
	}
}

func (p *SensorPoller) pollSensor(
	ctx context.Context, device *models.Device, sensor *models.Sensor, now time.Time) (*models.SensorReading, error) {
	resp, err := p.client.Get(ctx, device, []string{sensor.OID})
	if err != nil {
		return nil, err
	}

	if !resp.Success || len(resp.VarBinds) == 0 {
		return nil, fmt.Errorf("get failed: %s", resp.Error)
	}

	raw, ok := resp.VarBinds[0].Value.AsInt64()
	if !ok {
		return nil, fmt.Errorf("sensor %s returned no numeric value", sensor.Index)
	}

	value := scaleSensor(float64(raw), sensor)

	reading := &models.SensorReading{
		DeviceID:   device.ID,
		SensorID:   sensor.ID,
		SensorType: sensor.Type,
		Unit:       models.SensorUnit(sensor.Type),
		Value:      value,
		Timestamp:  now,
	}

	key := device.ID + ":" + sensor.Index + ":" + string(sensor.Type)
	p.history.Push(key, reading)

	// Shift the current value into prev_value before overwriting.
	sensor.PrevValue = sensor.Value
	sensor.Value = &value

	if err := p.store.UpsertSensor(ctx, sensor); err != nil {
		p.logger.Error().Err(err).
			Str("device_id", device.ID).
			Str("sensor", sensor.Index).
			Msg("failed to update sensor row")
	}

	p.checkSensorThresholds(device, sensor, reading)

	return reading, nil
}
