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

package discovery

// Standard MIB OIDs used by the discovery modules.
const (
	// System group
	oidSysDescr    = ".1.3.6.1.2.1.1.1.0"
	oidSysObjectID = ".1.3.6.1.2.1.1.2.0"
	oidSysUptime   = ".1.3.6.1.2.1.1.3.0"
	oidSysContact  = ".1.3.6.1.2.1.1.4.0"
	oidSysName     = ".1.3.6.1.2.1.1.5.0"
	oidSysLocation = ".1.3.6.1.2.1.1.6.0"
	oidSysServices = ".1.3.6.1.2.1.1.7.0"

	// Interfaces MIB (ifTable)
	oidIfTable       = ".1.3.6.1.2.1.2.2.1"
	oidIfDescr       = ".1.3.6.1.2.1.2.2.1.2"
	oidIfType        = ".1.3.6.1.2.1.2.2.1.3"
	oidIfMtu         = ".1.3.6.1.2.1.2.2.1.4"
	oidIfSpeed       = ".1.3.6.1.2.1.2.2.1.5"
	oidIfPhysAddress = ".1.3.6.1.2.1.2.2.1.6"
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

	// Extended interfaces MIB (ifXTable)
	oidIfXTable      = ".1.3.6.1.2.1.31.1.1.1"
	oidIfName        = ".1.3.6.1.2.1.31.1.1.1.1"
	oidIfHCInOctets  = ".1.3.6.1.2.1.31.1.1.1.6"
	oidIfHCOutOctets = ".1.3.6.1.2.1.31.1.1.1.10"
	oidIfHighSpeed   = ".1.3.6.1.2.1.31.1.1.1.15"
	oidIfAlias       = ".1.3.6.1.2.1.31.1.1.1.18"

	// Entity MIB physical table
	oidEntPhysicalDescr        = ".1.3.6.1.2.1.47.1.1.1.1.2"
	oidEntPhysicalVendorType   = ".1.3.6.1.2.1.47.1.1.1.1.3"
	oidEntPhysicalContainedIn  = ".1.3.6.1.2.1.47.1.1.1.1.4"
	oidEntPhysicalClass        = ".1.3.6.1.2.1.47.1.1.1.1.5"
	oidEntPhysicalParentRelPos = ".1.3.6.1.2.1.47.1.1.1.1.6"
	oidEntPhysicalName         = ".1.3.6.1.2.1.47.1.1.1.1.7"
	oidEntPhysicalHardwareRev  = ".1.3.6.1.2.1.47.1.1.1.1.8"
	oidEntPhysicalFirmwareRev  = ".1.3.6.1.2.1.47.1.1.1.1.9"
	oidEntPhysicalSoftwareRev  = ".1.3.6.1.2.1.47.1.1.1.1.10"
	oidEntPhysicalSerialNum    = ".1.3.6.1.2.1.47.1.1.1.1.11"
	oidEntPhysicalMfgName      = ".1.3.6.1.2.1.47.1.1.1.1.12"
	oidEntPhysicalModelName    = ".1.3.6.1.2.1.47.1.1.1.1.13"

	// Entity-Sensor MIB
	oidEntPhySensorType  = ".1.3.6.1.2.1.99.1.1.1.1"
	oidEntPhySensorScale = ".1.3.6.1.2.1.99.1.1.1.2"
	oidEntPhySensorValue = ".1.3.6.1.2.1.99.1.1.1.4"

	// Host-Resources MIB
	oidHrMemorySize    = ".1.3.6.1.2.1.25.2.2.0"
	oidHrProcessorLoad = ".1.3.6.1.2.1.25.3.3.1.2"

	// LLDP remote systems table
	oidLLDPRemChassisID = ".1.0.8802.1.1.2.1.4.1.1.5"
	oidLLDPRemPortID    = ".1.0.8802.1.1.2.1.4.1.1.7"
	oidLLDPRemPortDescr = ".1.0.8802.1.1.2.1.4.1.1.8"
	oidLLDPRemSysName   = ".1.0.8802.1.1.2.1.4.1.1.9"
	oidLLDPRemSysDescr  = ".1.0.8802.1.1.2.1.4.1.1.10"
	oidLLDPRemTable     = ".1.0.8802.1.1.2.1.4.1.1"

	// Cisco Discovery Protocol cache table
	oidCDPCacheTable    = ".1.3.6.1.4.1.9.9.23.1.2.1.1"
	oidCDPCacheDeviceID = ".1.3.6.1.4.1.9.9.23.1.2.1.1.6"
	oidCDPCachePort     = ".1.3.6.1.4.1.9.9.23.1.2.1.1.7"
	oidCDPCachePlatform = ".1.3.6.1.4.1.9.9.23.1.2.1.1.8"

	// Cisco Environmental Monitor MIB
	oidCiscoEnvMonTempDescr  = ".1.3.6.1.4.1.9.9.13.1.3.1.2"
	oidCiscoEnvMonTempValue  = ".1.3.6.1.4.1.9.9.13.1.3.1.3"
	oidCiscoEnvMonVoltDescr  = ".1.3.6.1.4.1.9.9.13.1.2.1.2"
	oidCiscoEnvMonVoltValue  = ".1.3.6.1.4.1.9.9.13.1.2.1.3"
)

// sysServices bits per RFC 1213.
const (
	svcPhysical     = 1
	svcDatalink     = 2
	svcInternet     = 4
	svcEndToEnd     = 8
	svcApplications = 64
)

// ifType codes that are never inventoried.
const (
	ifTypeLoopback = 24
	ifTypeTunnel   = 131
)
