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
	"fmt"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// Interface utilization thresholds.
const (
	utilizationCritical = 95
	utilizationWarning  = 90
)

// Type-specific sensor defaults, applied when the sensor carries no
// explicit limits.
const (
	tempWarnDefault     = 70
	tempCritDefault     = 80
	humidityHighDefault = 80
	humidityLowDefault  = 10
	voltageWarnDefault  = 10
	voltageCritDefault  = 5
)

// checkThresholds emits synthetic interface-monitoring triggers for
// every breach in the sample.
func (p *InterfacePoller) checkThresholds(device *models.Device, m *models.InterfaceMetrics) {
	details := map[string]string{
		"if_index":    fmt.Sprintf("%d", m.IfIndex),
		"port_id":     m.PortID,
		"utilization": fmt.Sprintf("%.2f", m.Utilization),
		"error_rate":  fmt.Sprintf("%.3f", m.ErrorRate),
	}

	switch {
	case m.Utilization >= utilizationCritical:
		p.sink.Trigger(&SyntheticTrigger{
			RuleID:   TriggerInterfaceMonitoring,
			DeviceID: device.ID,
			Severity: models.SeverityCritical,
			Title:    fmt.Sprintf("Interface %d utilization critical", m.IfIndex),
			Message:  fmt.Sprintf("Utilization %.1f%% on %s ifIndex %d", m.Utilization, device.Hostname, m.IfIndex),
			Details:  details,
		})
	case m.Utilization >= utilizationWarning:
		p.sink.Trigger(&SyntheticTrigger{
			RuleID:   TriggerInterfaceMonitoring,
			DeviceID: device.ID,
			Severity: models.SeverityWarning,
			Title:    fmt.Sprintf("Interface %d utilization high", m.IfIndex),
			Message:  fmt.Sprintf("Utilization %.1f%% on %s ifIndex %d", m.Utilization, device.Hostname, m.IfIndex),
			Details:  details,
		})
	}

	if m.ErrorRate > p.config.ErrorThreshold {
		p.sink.Trigger(&SyntheticTrigger{
			RuleID:   TriggerInterfaceMonitoring,
			DeviceID: device.ID,
			Severity: models.SeverityWarning,
			Title:    fmt.Sprintf("Interface %d error rate high", m.IfIndex),
			Message:  fmt.Sprintf("Error rate %.2f%% on %s ifIndex %d", m.ErrorRate, device.Hostname, m.IfIndex),
			Details:  details,
		})
	}

	if m.AdminStatus == models.AdminStatusUp && m.OperStatus == models.OperStatusDown {
		p.sink.Trigger(&SyntheticTrigger{
			RuleID:   TriggerInterfaceMonitoring,
			DeviceID: device.ID,
			Severity: models.SeverityWarning,
			Title:    fmt.Sprintf("Interface %d down", m.IfIndex),
			Message:  fmt.Sprintf("ifIndex %d on %s is admin up but oper down", m.IfIndex, device.Hostname),
			Details:  details,
		})
	}
}

// checkSensorThresholds applies per-sensor limits first, then the
// type-specific defaults.
func (p *SensorPoller) checkSensorThresholds(
	device *models.Device, sensor *models.Sensor, reading *models.SensorReading) {
	value := reading.Value
	details := map[string]string{
		"sensor_id":   sensor.ID,
		"sensor_type": string(sensor.Type),
		"value":       fmt.Sprintf("%.2f", value),
		"unit":        reading.Unit,
	}

	trigger := func(severity models.Severity, what string) {
		p.sink.Trigger(&SyntheticTrigger{
			RuleID:   TriggerSensorMonitoring,
			DeviceID: device.ID,
			Severity: severity,
			Title:    fmt.Sprintf("Sensor %s %s", sensor.Descr, what),
			Message: fmt.Sprintf("%s on %s reads %.2f%s",
				sensor.Descr, device.Hostname, value, reading.Unit),
			Details: details,
		})
	}

	if sensor.LimitHigh != nil && value > *sensor.LimitHigh {
		trigger(models.SeverityCritical, "above limit")
		return
	}

	if sensor.LimitLow != nil && value < *sensor.LimitLow {
		trigger(models.SeverityCritical, "below limit")
		return
	}

	if sensor.WarnHigh != nil && value > *sensor.WarnHigh {
		trigger(models.SeverityWarning, "above warning threshold")
		return
	}

	if sensor.WarnLow != nil && value < *sensor.WarnLow {
		trigger(models.SeverityWarning, "below warning threshold")
		return
	}

	// No explicit limits; fall back to the type defaults.
	if sensor.LimitHigh != nil || sensor.LimitLow != nil ||
		sensor.WarnHigh != nil || sensor.WarnLow != nil {
		return
	}

	switch sensor.Type {
	case models.SensorTemperature:
		if value > tempCritDefault {
			trigger(models.SeverityCritical, "temperature critical")
		} else if value > tempWarnDefault {
			trigger(models.SeverityWarning, "temperature high")
		}
	case models.SensorHumidity:
		if value > humidityHighDefault || value < humidityLowDefault {
			trigger(models.SeverityWarning, "humidity out of range")
		}
	case models.SensorVoltage:
		if value < voltageCritDefault {
			trigger(models.SeverityCritical, "voltage critical")
		} else if value < voltageWarnDefault {
			trigger(models.SeverityWarning, "voltage low")
		}
	}
}
