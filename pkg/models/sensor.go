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

package models

// SensorType classifies an environmental sensor.
type SensorType string

const (
	SensorTemperature SensorType = "temperature"
	SensorHumidity    SensorType = "humidity"
	SensorVoltage     SensorType = "voltage"
	SensorCurrent     SensorType = "current"
	SensorPower       SensorType = "power"
	SensorFrequency   SensorType = "frequency"
	SensorFanSpeed    SensorType = "fan_speed"
	SensorSignal      SensorType = "signal"
	SensorDBm         SensorType = "dbm"
	SensorOther       SensorType = "other"
)

// SensorUnit returns the display unit for a sensor type.
func SensorUnit(t SensorType) string {
	switch t {
	case SensorTemperature:
		return "°C"
	case SensorHumidity:
		return "%"
	case SensorVoltage:
		return "V"
	case SensorCurrent:
		return "A"
	case SensorPower:
		return "W"
	case SensorFrequency:
		return "Hz"
	case SensorFanSpeed:
		return "RPM"
	case SensorSignal, SensorDBm:
		return "dBm"
	default:
		return ""
	}
}

// Sensor is an environmental sensor row. (DeviceID, Index, Type) is unique.
// The reported value is raw*Multiplier/Divisor after type-specific scaling.
type Sensor struct {
	ID         string     `json:"id"`
	DeviceID   string     `json:"device_id"`
	Index      string     `json:"index"`
	Type       SensorType `json:"type"`
	Descr      string     `json:"descr"`
	Class      string     `json:"class,omitempty"`
	OID        string     `json:"oid"`
	Value      *float64   `json:"value,omitempty"`
	PrevValue  *float64   `json:"prev_value,omitempty"`
	LimitHigh  *float64   `json:"limit_high,omitempty"`
	LimitLow   *float64   `json:"limit_low,omitempty"`
	WarnHigh   *float64   `json:"warn_high,omitempty"`
	WarnLow    *float64   `json:"warn_low,omitempty"`
	Divisor    float64    `json:"divisor"`
	Multiplier float64    `json:"multiplier"`
	Disabled   bool       `json:"disabled"`
}

// EntitySensorType maps Entity-Sensor-MIB entPhySensorType codes (3-12)
// to sensor types. Unmapped codes return SensorOther.
func EntitySensorType(code int64) SensorType {
	switch code {
	case 3:
		return SensorVoltage // voltsAC
	case 4:
		return SensorVoltage // voltsDC
	case 5:
		return SensorCurrent
	case 6:
		return SensorPower
	case 7:
		return SensorFrequency
	case 8:
		return SensorTemperature
	case 9:
		return SensorHumidity
	case 10:
		return SensorFanSpeed
	case 12:
		return SensorDBm
	default:
		return SensorOther
	}
}
