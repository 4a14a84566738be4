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

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

// CoreModule retrieves the system group, chassis metadata from the
// Entity-MIB, and host-resources fields, then updates the device record
// with detected OS, vendor and feature set.
type CoreModule struct {
	client    snmp.Client
	inventory Inventory
	logger    logger.Logger
}

func NewCoreModule(client snmp.Client, inventory Inventory, log logger.Logger) *CoreModule {
	return &CoreModule{
		client:    client,
		inventory: inventory,
		logger:    log.WithComponent("discovery.core"),
	}
}

func (m *CoreModule) Name() string        { return "core" }
func (m *CoreModule) Description() string { return "System identity, chassis metadata, OS detection" }
func (m *CoreModule) Dependencies() []string {
	return nil
}
func (m *CoreModule) Priority() int { return 1 }

func (m *CoreModule) CanDiscover(_ *models.Device) bool { return true }

func (m *CoreModule) Discover(ctx context.Context, device *models.Device, _ []*OSTemplate) *Result {
	result := newResult(m.Name(), device.ID)

	resp, err := m.client.Get(ctx, device, []string{
		oidSysDescr,
		oidSysObjectID,
		oidSysUptime,
		oidSysContact,
		oidSysName,
		oidSysLocation,
		oidSysServices,
	})
	if err != nil || !resp.Success {
		resultError(result, fmt.Errorf("%w: system group unavailable", ErrDeviceUnreachable))
		return finishResult(result)
	}

	var sysServices int64

	for _, vb := range resp.VarBinds {
		switch vb.OID {
		case oidSysDescr:
			device.SysDescr, _ = vb.Value.AsString()
		case oidSysObjectID:
			device.SysObjectID, _ = vb.Value.AsString()
		case oidSysUptime:
			device.Uptime, _ = vb.Value.AsInt64()
		case oidSysContact:
			device.Contact, _ = vb.Value.AsString()
		case oidSysName:
			if name, ok := vb.Value.AsString(); ok && device.Hostname == "" {
				device.Hostname = name
			}
		case oidSysLocation:
			device.Location, _ = vb.Value.AsString()
		case oidSysServices:
			sysServices, _ = vb.Value.AsInt64()
		}
	}

	detection := DetectOS(device.SysObjectID, device.SysDescr)
	device.OS = detection.OS

	if vendor := VendorForOS(detection.OS); vendor != "" {
		device.Vendor = vendor
	}

	result.Discovered = append(result.Discovered,
		Item{Kind: "system", Key: device.Hostname},
		Item{Kind: "os", Key: fmt.Sprintf("%s/%d", detection.OS, detection.Confidence)},
	)

	device.Features = detectFeatures(sysServices, device.SysDescr)

	if err := m.discoverChassis(ctx, device, result); err != nil {
		// Entity-MIB support is optional; record and continue.
		m.logger.Debug().Err(err).Str("device_id", device.ID).Msg("no chassis metadata")
	}

	m.discoverHostResources(ctx, device, result)

	now := time.Now()
	device.LastDiscovered = &now

	if err := m.inventory.UpdateDevice(ctx, device); err != nil {
		resultError(result, fmt.Errorf("failed to update device: %w", err))
	}

	return finishResult(result)
}

// discoverChassis pulls model, serial and revision strings for the first
// chassis-class physical entity.
func (m *CoreModule) discoverChassis(ctx context.Context, device *models.Device, result *Result) error {
	classes, err := walkColumn(ctx, m.client, device, oidEntPhysicalClass)
	if err != nil {
		return err
	}

	chassisIdx := ""

	indexes := make([]string, 0, len(classes))
	for idx := range classes {
		indexes = append(indexes, idx)
	}

	sort.Strings(indexes)

	for _, idx := range indexes {
		if code, ok := classes[idx].AsInt64(); ok && models.EntityClassFromCode(code) == models.EntityChassis {
			chassisIdx = idx
			break
		}
	}

	if chassisIdx == "" {
		return nil
	}

	resp, err := m.client.Get(ctx, device, []string{
		oidEntPhysicalModelName + "." + chassisIdx,
		oidEntPhysicalSerialNum + "." + chassisIdx,
		oidEntPhysicalMfgName + "." + chassisIdx,
		oidEntPhysicalSoftwareRev + "." + chassisIdx,
	})
	if err != nil || !resp.Success {
		return err
	}

	for _, vb := range resp.VarBinds {
		val, ok := vb.Value.AsString()
		if !ok || val == "" {
			continue
		}

		switch {
		case strings.HasPrefix(vb.OID, oidEntPhysicalModelName):
			device.Model = val
		case strings.HasPrefix(vb.OID, oidEntPhysicalSerialNum):
			device.Serial = val
		case strings.HasPrefix(vb.OID, oidEntPhysicalMfgName):
			if device.Vendor == "" {
				device.Vendor = val
			}
		}
	}

	if device.Serial != "" {
		result.Discovered = append(result.Discovered, Item{Kind: "chassis", Key: device.Serial})
	}

	return nil
}

func (m *CoreModule) discoverHostResources(ctx context.Context, device *models.Device, result *Result) {
	resp, err := m.client.Get(ctx, device, []string{oidHrMemorySize})
	if err != nil || !resp.Success {
		return
	}

	for _, vb := range resp.VarBinds {
		if mem, ok := vb.Value.AsInt64(); ok && mem > 0 {
			result.Discovered = append(result.Discovered,
				Item{Kind: "memory_kb", Key: fmt.Sprintf("%d", mem)})
		}
	}
}

func (m *CoreModule) Validate(result *Result) bool {
	return result != nil && result.Success && len(result.Discovered) > 0
}

// featureKeywords maps sysDescr hints to feature names.
var featureKeywords = map[string]string{
	"router":        "routing",
	"routing":       "routing",
	"switch":        "switching",
	"switching":     "switching",
	"wireless":      "wireless",
	"access point":  "wireless",
	"firewall":      "firewall",
	"security":      "firewall",
	"load balancer": "loadbalancer",
	"adc":           "loadbalancer",
}

// detectFeatures combines the sysServices bitmap with sysDescr keyword
// heuristics, deduplicated and sorted.
func detectFeatures(sysServices int64, sysDescr string) []string {
	seen := make(map[string]struct{})

	for bit, name := range map[int64]string{
		svcPhysical:     "physical",
		svcDatalink:     "datalink",
		svcInternet:     "internet",
		svcEndToEnd:     "end-to-end",
		svcApplications: "applications",
	} {
		if sysServices&bit != 0 {
			seen[name] = struct{}{}
		}
	}

	descr := strings.ToLower(sysDescr)

	for keyword, feature := range featureKeywords {
		if strings.Contains(descr, keyword) {
			seen[feature] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	features := make([]string, 0, len(seen))
	for f := range seen {
		features = append(features, f)
	}

	sort.Strings(features)

	return features
}
