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

// PortAdminStatus mirrors ifAdminStatus.
type PortAdminStatus string

const (
	AdminStatusUp      PortAdminStatus = "up"
	AdminStatusDown    PortAdminStatus = "down"
	AdminStatusTesting PortAdminStatus = "testing"
)

// PortOperStatus mirrors ifOperStatus.
type PortOperStatus string

const (
	OperStatusUp      PortOperStatus = "up"
	OperStatusDown    PortOperStatus = "down"
	OperStatusTesting PortOperStatus = "testing"
	OperStatusUnknown PortOperStatus = "unknown"
)

// Port is a device interface row. (DeviceID, IfIndex) is unique.
type Port struct {
	ID          string          `json:"id"`
	DeviceID    string          `json:"device_id"`
	IfIndex     int32           `json:"if_index"`
	Name        string          `json:"name"`
	Alias       string          `json:"alias,omitempty"`
	Type        int32           `json:"type"`
	MTU         int32           `json:"mtu,omitempty"`
	SpeedBPS    uint64          `json:"speed_bps,omitempty"`
	PhysAddress string          `json:"phys_address,omitempty"`
	AdminStatus PortAdminStatus `json:"admin_status"`
	OperStatus  PortOperStatus  `json:"oper_status"`
	InOctets    uint64          `json:"in_octets"`
	OutOctets   uint64          `json:"out_octets"`
	InUcast     uint64          `json:"in_ucast"`
	OutUcast    uint64          `json:"out_ucast"`
	InDiscards  uint64          `json:"in_discards"`
	OutDiscards uint64          `json:"out_discards"`
	InErrors    uint64          `json:"in_errors"`
	OutErrors   uint64          `json:"out_errors"`
	HCInOctets  uint64          `json:"hc_in_octets,omitempty"`
	HCOutOctets uint64          `json:"hc_out_octets,omitempty"`
	HasHC       bool            `json:"has_hc"`
	Disabled    bool            `json:"disabled"`
	LastPolled  *time.Time      `json:"last_polled,omitempty"`
}

// AdminStatusFromIfValue maps the ifAdminStatus integer to its enum.
func AdminStatusFromIfValue(v int64) PortAdminStatus {
	switch v {
	case 1:
		return AdminStatusUp
	case 2:
		return AdminStatusDown
	case 3:
		return AdminStatusTesting
	default:
		return AdminStatusDown
	}
}

// OperStatusFromIfValue maps the ifOperStatus integer to its enum.
func OperStatusFromIfValue(v int64) PortOperStatus {
	switch v {
	case 1:
		return OperStatusUp
	case 2:
		return OperStatusDown
	case 3:
		return OperStatusTesting
	default:
		return OperStatusUnknown
	}
}
