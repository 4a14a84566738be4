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

// Package models defines the shared data model for the monitoring core.
package models

import "time"

// DeviceStatus is the operator-visible health state of a device.
type DeviceStatus string

const (
	DeviceStatusUp      DeviceStatus = "up"
	DeviceStatusDown    DeviceStatus = "down"
	DeviceStatusWarning DeviceStatus = "warning"
	DeviceStatusUnknown DeviceStatus = "unknown"
)

// Device is a monitored network element. Ports, sensors and topology
// entries are exclusively owned by their device.
type Device struct {
	ID             string       `json:"id"`
	Hostname       string       `json:"hostname"`
	Address        string       `json:"address"`
	SNMP           SNMPConfig   `json:"snmp_config"`
	OS             string       `json:"os,omitempty"`
	Vendor         string       `json:"vendor,omitempty"`
	Model          string       `json:"model,omitempty"`
	Serial         string       `json:"serial,omitempty"`
	Location       string       `json:"location,omitempty"`
	Contact        string       `json:"contact,omitempty"`
	SysDescr       string       `json:"sys_descr,omitempty"`
	SysObjectID    string       `json:"sys_object_id,omitempty"`
	Uptime         int64        `json:"uptime,omitempty"`
	Features       []string     `json:"features,omitempty"`
	Status         DeviceStatus `json:"status"`
	Disabled       bool         `json:"disabled"`
	LastPolled     *time.Time   `json:"last_polled,omitempty"`
	LastDiscovered *time.Time   `json:"last_discovered,omitempty"`
}
