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

import "time"

// InterfaceMetrics is one poll sample for a port, raw counters plus the
// rates derived against the previous sample.
type InterfaceMetrics struct {
	DeviceID    string          `json:"device_id"`
	PortID      string          `json:"port_id"`
	IfIndex     int32           `json:"if_index"`
	Timestamp   time.Time       `json:"timestamp"`
	AdminStatus PortAdminStatus `json:"admin_status"`
	OperStatus  PortOperStatus  `json:"oper_status"`
	SpeedBPS    uint64          `json:"speed_bps"`

	InOctets    uint64 `json:"if_in_octets"`
	OutOctets   uint64 `json:"if_out_octets"`
	InUcast     uint64 `json:"if_in_ucast_pkts"`
	OutUcast    uint64 `json:"if_out_ucast_pkts"`
	InDiscards  uint64 `json:"if_in_discards"`
	OutDiscards uint64 `json:"if_out_discards"`
	InErrors    uint64 `json:"if_in_errors"`
	OutErrors   uint64 `json:"if_out_errors"`
	HCInOctets  uint64 `json:"if_hc_in_octets,omitempty"`
	HCOutOctets uint64 `json:"if_hc_out_octets,omitempty"`
	HasHC       bool   `json:"has_hc"`

	InUtilization  float64 `json:"in_utilization"`
	OutUtilization float64 `json:"out_utilization"`
	Utilization    float64 `json:"utilization"`
	ErrorRate      float64 `json:"error_rate"`
	DiscardRate    float64 `json:"discard_rate"`
}

// SensorReading is one poll sample for a sensor, after scaling.
type SensorReading struct {
	DeviceID   string     `json:"device_id"`
	SensorID   string     `json:"sensor_id"`
	SensorType SensorType `json:"sensor_type"`
	Unit       string     `json:"unit,omitempty"`
	Value      float64    `json:"value"`
	Timestamp  time.Time  `json:"timestamp"`
}

// DeviceMetrics is the per-tick device status sample.
type DeviceMetrics struct {
	DeviceID       string       `json:"device_id"`
	Hostname       string       `json:"hostname"`
	Status         DeviceStatus `json:"status"`
	ResponseTimeMS float64      `json:"response_time"`
	Availability   float64      `json:"availability"`
	Uptime         int64        `json:"uptime,omitempty"`
	CPUUsage       *float64     `json:"cpu_usage,omitempty"`
	MemoryUsage    *float64     `json:"memory_usage,omitempty"`
	DiskUsage      *float64     `json:"disk_usage,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}
