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

// TopologyProtocol is the neighbor-discovery protocol that produced a link.
type TopologyProtocol string

const (
	TopologyLLDP TopologyProtocol = "lldp"
	TopologyCDP  TopologyProtocol = "cdp"
)

// TopologyLink is a directed adjacency observed from a local device.
// Deduplicated by (DeviceID, Protocol, LocalPort, RemoteHostname).
type TopologyLink struct {
	DeviceID        string           `json:"device_id"`
	LocalPort       int32            `json:"local_port"`
	Protocol        TopologyProtocol `json:"protocol"`
	RemoteChassisID string           `json:"remote_chassis_id,omitempty"`
	RemotePortID    string           `json:"remote_port_id"`
	RemoteHostname  string           `json:"remote_hostname"`
	RemotePlatform  string           `json:"remote_platform,omitempty"`
	LastUpdated     time.Time        `json:"last_updated"`
	Active          bool             `json:"active"`
}

// EntityClass maps entPhysicalClass codes to names.
type EntityClass string

const (
	EntityOther       EntityClass = "other"
	EntityUnknown     EntityClass = "unknown"
	EntityChassis     EntityClass = "chassis"
	EntityBackplane   EntityClass = "backplane"
	EntityContainer   EntityClass = "container"
	EntityPowerSupply EntityClass = "powerSupply"
	EntityFan         EntityClass = "fan"
	EntitySensor      EntityClass = "sensor"
	EntityModule      EntityClass = "module"
	EntityPort        EntityClass = "port"
	EntityStack       EntityClass = "stack"
	EntityCPU         EntityClass = "cpu"
)

// EntityClassFromCode maps the Entity-MIB entPhysicalClass integer.
func EntityClassFromCode(code int64) EntityClass {
	switch code {
	case 1:
		return EntityOther
	case 2:
		return EntityUnknown
	case 3:
		return EntityChassis
	case 4:
		return EntityBackplane
	case 5:
		return EntityContainer
	case 6:
		return EntityPowerSupply
	case 7:
		return EntityFan
	case 8:
		return EntitySensor
	case 9:
		return EntityModule
	case 10:
		return EntityPort
	case 11:
		return EntityStack
	case 12:
		return EntityCPU
	default:
		return EntityUnknown
	}
}

// PhysicalEntity is one row of the Entity-MIB physical table, linked into
// a containment hierarchy via ContainedIn.
type PhysicalEntity struct {
	DeviceID     string      `json:"device_id"`
	Index        int32       `json:"index"`
	Descr        string      `json:"descr,omitempty"`
	Class        EntityClass `json:"class"`
	Name         string      `json:"name,omitempty"`
	ContainedIn  int32       `json:"contained_in"`
	ParentRelPos int32       `json:"parent_rel_pos"`
	VendorType   string      `json:"vendor_type,omitempty"`
	HardwareRev  string      `json:"hardware_rev,omitempty"`
	FirmwareRev  string      `json:"firmware_rev,omitempty"`
	SoftwareRev  string      `json:"software_rev,omitempty"`
	Serial       string      `json:"serial,omitempty"`
	MfgName      string      `json:"mfg_name,omitempty"`
	ModelName    string      `json:"model_name,omitempty"`
}
