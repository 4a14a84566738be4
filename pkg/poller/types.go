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
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// Synthetic rule IDs for threshold breaches forwarded to the alert
// engine outside the user-defined rule set.
const (
	TriggerInterfaceMonitoring = "interface-monitoring"
	TriggerSensorMonitoring    = "sensor-monitoring"
)

// SyntheticTrigger is a threshold breach emitted by a poller.
type SyntheticTrigger struct {
	RuleID   string            `json:"rule_id"`
	DeviceID string            `json:"device_id"`
	Severity models.Severity   `json:"severity"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
}

// Sink receives every sample and threshold breach; implemented by the
// alert engine.
type Sink interface {
	ObserveInterface(m *models.InterfaceMetrics)
	ObserveSensor(r *models.SensorReading)
	ObserveDevice(m *models.DeviceMetrics)
	Trigger(t *SyntheticTrigger)
}

// Store is the slice of the relational layer the pollers touch;
// implemented by pkg/db.
type Store interface {
	ListDevices(ctx context.Context, enabledOnly bool) ([]*models.Device, error)
	SetDeviceStatus(ctx context.Context, id string, status models.DeviceStatus) error
	ListPorts(ctx context.Context, deviceID string) ([]*models.Port, error)
	UpsertPort(ctx context.Context, port *models.Port) error
	ListSensors(ctx context.Context, deviceID string) ([]*models.Sensor, error)
	UpsertSensor(ctx context.Context, sensor *models.Sensor) error
}

// Config tunes cadences, batch sizes and thresholds.
type Config struct {
	InterfaceInterval models.Duration `json:"interface_interval"`
	SensorInterval    models.Duration `json:"sensor_interval"`
	DeviceInterval    models.Duration `json:"device_interval"`

	InterfaceBatchSize int `json:"interface_batch_size"`
	SensorBatchSize    int `json:"sensor_batch_size"`

	InterfaceHistorySize int `json:"interface_history_size"`
	SensorHistorySize    int `json:"sensor_history_size"`

	// ErrorThreshold is the error-rate percentage above which a WARNING
	// trigger fires.
	ErrorThreshold float64 `json:"error_threshold"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.InterfaceInterval <= 0 {
		c.InterfaceInterval = models.Duration(5 * time.Minute)
	}

	if c.SensorInterval <= 0 {
		c.SensorInterval = models.Duration(2 * time.Minute)
	}

	if c.DeviceInterval <= 0 {
		c.DeviceInterval = models.Duration(time.Minute)
	}

	if c.InterfaceBatchSize <= 0 {
		c.InterfaceBatchSize = 10
	}

	if c.SensorBatchSize <= 0 {
		c.SensorBatchSize = 5
	}

	if c.InterfaceHistorySize <= 0 {
		c.InterfaceHistorySize = 100
	}

	if c.SensorHistorySize <= 0 {
		c.SensorHistorySize = 200
	}

	if c.ErrorThreshold <= 0 {
		c.ErrorThreshold = 1
	}
}

// MIB OIDs polled on every cycle.
const (
	oidSysDescr  = ".1.3.6.1.2.1.1.1.0"
	oidSysUptime = ".1.3.6.1.2.1.1.3.0"

	oidIfAdminStatus = ".1.3.6.1.2.1.2.2.1.7"
	oidIfOperStatus  = ".1.3.6.1.2.1.2.2.1.8"
	oidIfInOctets    = ".1.3.6.1.2.1.2.2.1.10"
	oidIfInUcast     = ".1.3.6.1.2.1.2.2.1.11"
	oidIfInDiscards  = ".1.3.6.1.2.1.2.2.1.13"
	oidIfInErrors    = ".1.3.6.1.2.1.2.2.1.14"
	oidIfOutOctets   = ".1.3.6.1.2.1.2.2.1.16"
	oidIfOutUcast    = ".1.3.6.1.2.1.2.2.1.17"
	oidIfOutDiscards = ".1.3.6.1.2.1.2.2.1.19"
	oidIfOutErrors   = ".1.3.6.1.2.1.2.2.1.20"
	oidIfHCInOctets  = ".1.3.6.1.2.1.31.1.1.1.6"
	oidIfHCOutOctets = ".1.3.6.1.2.1.31.1.1.1.10"

	oidHrProcessorLoad = ".1.3.6.1.2.1.25.3.3.1.2"
)

// chunkDevices splits the device list into poll batches.
func chunkDevices(devices []*models.Device, size int) [][]*models.Device {
	if size <= 0 {
		size = 1
	}

	var batches [][]*models.Device

	for start := 0; start < len(devices); start += size {
		end := start + size
		if end > len(devices) {
			end = len(devices)
		}

		batches = append(batches, devices[start:end])
	}

	return batches
}
