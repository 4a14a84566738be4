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

import "github.com/ymonitor/ymonitor/pkg/models"

const counter32Modulus = uint64(1) << 32

// counterDelta computes the increase between two samples of a counter.
// 32-bit counters that appear to run backwards have rolled over; the
// delta wraps at 2^32. 64-bit HC counters wrap modulo 2^64, which native
// uint64 subtraction already provides.
func counterDelta(current, previous uint64, hc bool) uint64 {
	if hc {
		return current - previous
	}

	if current < previous {
		return current + (counter32Modulus - previous)
	}

	return current - previous
}

// clampPercent bounds a percentage to [0, 100].
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return v
}

// derive fills the utilization and rate fields of current from the
// deltas against previous. A non-positive interval zeroes every derived
// field.
func derive(current, previous *models.InterfaceMetrics) {
	if previous == nil {
		return
	}

	dt := current.Timestamp.Sub(previous.Timestamp).Seconds()
	if dt <= 0 {
		return
	}

	var deltaIn, deltaOut uint64

	if current.HasHC && previous.HasHC {
		deltaIn = counterDelta(current.HCInOctets, previous.HCInOctets, true)
		deltaOut = counterDelta(current.HCOutOctets, previous.HCOutOctets, true)
	} else {
		deltaIn = counterDelta(current.InOctets, previous.InOctets, false)
		deltaOut = counterDelta(current.OutOctets, previous.OutOctets, false)
	}

	if current.SpeedBPS > 0 {
		speed := float64(current.SpeedBPS)
		current.InUtilization = clampPercent(float64(deltaIn) * 8 / dt / speed * 100)
		current.OutUtilization = clampPercent(float64(deltaOut) * 8 / dt / speed * 100)

		current.Utilization = current.InUtilization
		if current.OutUtilization > current.Utilization {
			current.Utilization = current.OutUtilization
		}
	}

	deltaInErr := counterDelta(current.InErrors, previous.InErrors, false)
	deltaOutErr := counterDelta(current.OutErrors, previous.OutErrors, false)
	deltaInDisc := counterDelta(current.InDiscards, previous.InDiscards, false)
	deltaOutDisc := counterDelta(current.OutDiscards, previous.OutDiscards, false)
	deltaInUcast := counterDelta(current.InUcast, previous.InUcast, false)
	deltaOutUcast := counterDelta(current.OutUcast, previous.OutUcast, false)

	if pkts := deltaInUcast + deltaOutUcast; pkts > 0 {
		current.ErrorRate = float64(deltaInErr+deltaOutErr) / float64(pkts) * 100
		current.DiscardRate = float64(deltaInDisc+deltaOutDisc) / float64(pkts) * 100
	}
}

// transformSensorValue rescales obviously mis-scaled raw readings before
// the per-sensor divisor/multiplier is applied. Agents frequently report
// tenths of degrees, millivolts or milliwatts without advertising it.
func transformSensorValue(value float64, sensorType models.SensorType) float64 {
	abs := value
	if abs < 0 {
		abs = -abs
	}

	switch sensorType {
	case models.SensorTemperature:
		if abs > 100 {
			return value / 10
		}
	case models.SensorVoltage:
		if abs > 1000 {
			return value / 1000
		}
	case models.SensorPower:
		if abs > 100000 {
			return value / 1000
		}
	}

	return value
}

// scaleSensor applies the raw transform then the sensor's multiplier and
// divisor.
func scaleSensor(raw float64, sensor *models.Sensor) float64 {
	v := transformSensorValue(raw, sensor.Type)

	divisor := sensor.Divisor
	if divisor == 0 {
		divisor = 1
	}

	multiplier := sensor.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}

	return v * multiplier / divisor
}
