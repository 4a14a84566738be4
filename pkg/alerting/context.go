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

// Package alerting evaluates user-defined rules against the latest poll
// samples and manages the alert lifecycle.
package alerting

import (
	"strings"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// MetricContext is the nested value tree a rule's conditions are
// resolved against. Leaves are scalars; interior nodes are maps.
type MetricContext map[string]interface{}

// Resolve walks a dotted path left-to-right. The second return is false
// when any segment is missing, which fails every operator.
func (mc MetricContext) Resolve(path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(mc)

	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}

		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// set stores a nested subtree under a top-level key.
func (mc MetricContext) set(key string, value interface{}) {
	mc[key] = value
}

// buildContext assembles the evaluation tree for one device from the
// latest retained samples.
func buildContext(
	device *models.Device,
	deviceSample *models.DeviceMetrics,
	interfaceSamples map[int32]*models.InterfaceMetrics,
	sensorSamples map[string]*models.SensorReading) MetricContext {
	mc := MetricContext{}

	deviceNode := map[string]interface{}{
		"id":       device.ID,
		"hostname": device.Hostname,
		"address":  device.Address,
		"os":       device.OS,
		"vendor":   device.Vendor,
		"location": device.Location,
		"status":   string(device.Status),
	}

	if deviceSample != nil {
		deviceNode["status"] = string(deviceSample.Status)
		deviceNode["response_time"] = deviceSample.ResponseTimeMS
		deviceNode["availability"] = deviceSample.Availability
		deviceNode["uptime"] = float64(deviceSample.Uptime)

		if deviceSample.CPUUsage != nil {
			deviceNode["cpu"] = *deviceSample.CPUUsage
		}

		if deviceSample.MemoryUsage != nil {
			deviceNode["memory"] = *deviceSample.MemoryUsage
		}
	}

	mc.set("device", deviceNode)

	if len(interfaceSamples) > 0 {
		var maxUtil, maxErrors float64

		downCount := 0

		for _, sample := range interfaceSamples {
			if sample.Utilization > maxUtil {
				maxUtil = sample.Utilization
			}

			if sample.ErrorRate > maxErrors {
				maxErrors = sample.ErrorRate
			}

			if sample.AdminStatus == models.AdminStatusUp && sample.OperStatus == models.OperStatusDown {
				downCount++
			}
		}

		mc.set("interfaces", map[string]interface{}{
			"max_utilization": maxUtil,
			"max_error_rate":  maxErrors,
			"down_count":      float64(downCount),
			"count":           float64(len(interfaceSamples)),
		})
	}

	if len(sensorSamples) > 0 {
		sensorNode := map[string]interface{}{}

		// Per type, keep the highest reading of the cycle.
		for _, reading := range sensorSamples {
			key := string(reading.SensorType)

			if existing, ok := sensorNode[key].(float64); !ok || reading.Value > existing {
				sensorNode[key] = reading.Value
			}
		}

		mc.set("sensors", sensorNode)
	}

	return mc
}
