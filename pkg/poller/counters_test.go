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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ymonitor/ymonitor/pkg/models"
)

func TestCounterDelta(t *testing.T) {
	assert.Equal(t, uint64(100), counterDelta(1100, 1000, false))
	assert.Equal(t, uint64(0), counterDelta(500, 500, false))

	// 32-bit rollover: previous near the top, current wrapped past zero.
	prev := uint64(1)<<32 - 1000
	assert.Equal(t, uint64(2000), counterDelta(1000, prev, false))

	// HC counters wrap modulo 2^64 via native subtraction.
	assert.Equal(t, uint64(3), counterDelta(1, ^uint64(0)-1, true))
}

func interfaceSample(ts time.Time, inOctets, outOctets uint64) *models.InterfaceMetrics {
	return &models.InterfaceMetrics{
		DeviceID:  "dev-1",
		IfIndex:   1,
		Timestamp: ts,
		SpeedBPS:  1_000_000_000,
		InOctets:  inOctets,
		OutOctets: outOctets,
	}
}

func TestDeriveUtilization(t *testing.T) {
	t0 := time.Now()
	previous := interfaceSample(t0, 900_000_000, 0)
	current := interfaceSample(t0.Add(300*time.Second), 1_000_000_000, 0)

	derive(current, previous)

	// 100 MB over 300 s on a 1 Gb/s link.
	assert.InDelta(t, 0.2667, current.InUtilization, 1e-3)
	assert.InDelta(t, 0, current.OutUtilization, 1e-9)
	assert.InDelta(t, current.InUtilization, current.Utilization, 1e-9)
}

func TestDeriveRolloverUtilization(t *testing.T) {
	t0 := time.Now()
	previous := interfaceSample(t0, uint64(1)<<32-1000, 0)
	current := interfaceSample(t0.Add(10*time.Second), 1000, 0)

	derive(current, previous)

	// Delta 2000 bytes over 10 s on 1 Gb/s.
	assert.InDelta(t, 0.00016, current.InUtilization, 1e-6)
}

func TestDeriveNonPositiveInterval(t *testing.T) {
	t0 := time.Now()
	previous := interfaceSample(t0, 0, 0)
	current := interfaceSample(t0, 1_000_000, 0)

	derive(current, previous)

	assert.Zero(t, current.InUtilization)
	assert.Zero(t, current.ErrorRate)
}

func TestDeriveNoPrevious(t *testing.T) {
	current := interfaceSample(time.Now(), 1_000_000, 0)

	derive(current, nil)

	assert.Zero(t, current.Utilization)
}

func TestDeriveErrorRate(t *testing.T) {
	t0 := time.Now()
	previous := interfaceSample(t0, 0, 0)
	previous.InUcast = 1000
	previous.OutUcast = 1000

	current := interfaceSample(t0.Add(60*time.Second), 0, 0)
	current.InUcast = 2000
	current.OutUcast = 2000
	current.InErrors = 10
	current.OutErrors = 10

	derive(current, previous)

	// 20 errors over 2000 packets.
	assert.InDelta(t, 1.0, current.ErrorRate, 1e-9)
}

func TestDeriveUsesHCCounters(t *testing.T) {
	t0 := time.Now()

	previous := interfaceSample(t0, 0, 0)
	previous.HasHC = true
	previous.HCInOctets = 1_000_000

	current := interfaceSample(t0.Add(100*time.Second), 0, 0)
	current.HasHC = true
	current.HCInOctets = 2_000_000
	// 32-bit columns deliberately absurd; HC must win.
	current.InOctets = 999

	derive(current, previous)

	// 1 MB over 100 s on 1 Gb/s = 0.008%.
	assert.InDelta(t, 0.008, current.InUtilization, 1e-6)
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, float64(0), clampPercent(-5))
	assert.Equal(t, float64(100), clampPercent(250))
	assert.Equal(t, 42.5, clampPercent(42.5))
}

func TestTransformSensorValue(t *testing.T) {
	// Tenths of degrees.
	assert.InDelta(t, 45.5, transformSensorValue(455, models.SensorTemperature), 1e-9)
	assert.InDelta(t, 45, transformSensorValue(45, models.SensorTemperature), 1e-9)

	// Millivolts.
	assert.InDelta(t, 12, transformSensorValue(12000, models.SensorVoltage), 1e-9)
	assert.InDelta(t, 230, transformSensorValue(230, models.SensorVoltage), 1e-9)

	// Milliwatts.
	assert.InDelta(t, 150, transformSensorValue(150000, models.SensorPower), 1e-9)

	// Other types pass through.
	assert.InDelta(t, 5400, transformSensorValue(5400, models.SensorFanSpeed), 1e-9)
}

func TestScaleSensor(t *testing.T) {
	sensor := &models.Sensor{Type: models.SensorTemperature, Divisor: 1, Multiplier: 1}
	assert.InDelta(t, 42, scaleSensor(42, sensor), 1e-9)

	sensor = &models.Sensor{Type: models.SensorVoltage, Divisor: 100, Multiplier: 1}
	assert.InDelta(t, 2.3, scaleSensor(230, sensor), 1e-9)

	// Zero divisor/multiplier default to 1.
	sensor = &models.Sensor{Type: models.SensorFanSpeed}
	assert.InDelta(t, 5400, scaleSensor(5400, sensor), 1e-9)
}
