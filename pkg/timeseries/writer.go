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

// Package timeseries writes metric samples to the Timescale hypertables.
package timeseries

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ymonitor/ymonitor/pkg/db"
	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
)

// Writer appends samples to interface_metrics, device_metrics,
// sensor_metrics and alert_metrics. Writes are append-only.
type Writer interface {
	WriteInterfaceMetrics(ctx context.Context, samples []*models.InterfaceMetrics) error
	WriteDeviceMetrics(ctx context.Context, sample *models.DeviceMetrics) error
	WriteSensorReadings(ctx context.Context, samples []*models.SensorReading) error
	WriteAlertMetric(ctx context.Context, deviceID, alertType string, severity models.Severity, count int) error
}

type writer struct {
	q      db.Querier
	logger logger.Logger
}

func NewWriter(q db.Querier, log logger.Logger) Writer {
	return &writer{q: q, logger: log.WithComponent("timeseries")}
}

const insertInterfaceMetricSQL = `INSERT INTO interface_metrics (
time, device_id, port_id, if_index, admin_status, oper_status,
if_in_octets, if_out_octets, if_in_ucast_pkts, if_out_ucast_pkts,
if_in_discards, if_out_discards, if_in_errors, if_out_errors,
if_hc_in_octets, if_hc_out_octets,
utilization, in_utilization, out_utilization, error_rate, discard_rate
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`

func (w *writer) WriteInterfaceMetrics(ctx context.Context, samples []*models.InterfaceMetrics) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, m := range samples {
		var hcIn, hcOut *uint64

		if m.HasHC {
			hcIn, hcOut = &m.HCInOctets, &m.HCOutOctets
		}

		batch.Queue(insertInterfaceMetricSQL,
			m.Timestamp, m.DeviceID, m.PortID, m.IfIndex, m.AdminStatus, m.OperStatus,
			m.InOctets, m.OutOctets, m.InUcast, m.OutUcast,
			m.InDiscards, m.OutDiscards, m.InErrors, m.OutErrors,
			hcIn, hcOut,
			m.Utilization, m.InUtilization, m.OutUtilization, m.ErrorRate, m.DiscardRate)
	}

	return w.send(ctx, batch, "interface metrics")
}

const insertDeviceMetricSQL = `INSERT INTO device_metrics (
time, device_id, hostname, status, response_time, availability, uptime,
cpu_usage, memory_usage, disk_usage
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

func (w *writer) WriteDeviceMetrics(ctx context.Context, sample *models.DeviceMetrics) error {
	_, err := w.q.Exec(ctx, insertDeviceMetricSQL,
		sample.Timestamp, sample.DeviceID, sample.Hostname, sample.Status,
		sample.ResponseTimeMS, sample.Availability, sample.Uptime,
		sample.CPUUsage, sample.MemoryUsage, sample.DiskUsage)

	return err
}

const insertSensorReadingSQL = `INSERT INTO sensor_metrics (
time, device_id, sensor_id, sensor_type, unit, value
) VALUES ($1,$2,$3,$4,$5,$6)`

func (w *writer) WriteSensorReadings(ctx context.Context, samples []*models.SensorReading) error {
	if len(samples) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, r := range samples {
		batch.Queue(insertSensorReadingSQL,
			r.Timestamp, r.DeviceID, r.SensorID, r.SensorType, r.Unit, r.Value)
	}

	return w.send(ctx, batch, "sensor readings")
}

const insertAlertMetricSQL = `INSERT INTO alert_metrics (
time, device_id, alert_type, severity, count
) VALUES (now(),$1,$2,$3,$4)`

func (w *writer) WriteAlertMetric(
	ctx context.Context, deviceID, alertType string, severity models.Severity, count int) error {
	_, err := w.q.Exec(ctx, insertAlertMetricSQL, deviceID, alertType, severity, count)

	return err
}

func (w *writer) send(ctx context.Context, batch *pgx.Batch, what string) error {
	results := w.q.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			w.logger.Warn().Err(err).Str("what", what).Msg("batch close failed")
		}
	}()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}
