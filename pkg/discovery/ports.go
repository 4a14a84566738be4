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
	"strconv"

	"github.com/google/uuid"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

// PortsModule walks ifTable and ifXTable and reconciles Port rows.
// Interfaces absent from the walk are disabled, unless the walk saw
// nothing at all.
type PortsModule struct {
	client    snmp.Client
	inventory Inventory
	logger    logger.Logger
}

func NewPortsModule(client snmp.Client, inventory Inventory, log logger.Logger) *PortsModule {
	return &PortsModule{
		client:    client,
		inventory: inventory,
		logger:    log.WithComponent("discovery.ports"),
	}
}

func (m *PortsModule) Name() string           { return "ports" }
func (m *PortsModule) Description() string    { return "Interface inventory from ifTable/ifXTable" }
func (m *PortsModule) Dependencies() []string { return []string{"core"} }
func (m *PortsModule) Priority() int          { return 2 }

func (m *PortsModule) CanDiscover(_ *models.Device) bool { return true }

func (m *PortsModule) Discover(ctx context.Context, device *models.Device, templates []*OSTemplate) *Result {
	result := newResult(m.Name(), device.ID)

	ifCols, err := walkSubtree(ctx, m.client, device, oidIfTable, []string{
		oidIfDescr, oidIfType, oidIfMtu, oidIfSpeed, oidIfPhysAddress,
		oidIfAdminStatus, oidIfOperStatus,
		oidIfInOctets, oidIfInUcast, oidIfInDiscards, oidIfInErrors,
		oidIfOutOctets, oidIfOutUcast, oidIfOutDiscards, oidIfOutErrors,
	})
	if err != nil {
		resultError(result, fmt.Errorf("ifTable walk failed: %w", err))
		return finishResult(result)
	}

	xCols, err := walkSubtree(ctx, m.client, device, oidIfXTable, []string{
		oidIfName, oidIfHCInOctets, oidIfHCOutOctets, oidIfHighSpeed, oidIfAlias,
	})
	if err != nil {
		// ifXTable is optional on old gear; proceed with 32-bit counters.
		m.logger.Debug().Err(err).Str("device_id", device.ID).Msg("ifXTable unavailable")

		xCols = map[string]map[string]snmp.Value{}
	}

	existing, err := m.inventory.ListPorts(ctx, device.ID)
	if err != nil {
		resultError(result, fmt.Errorf("failed to list ports: %w", err))
		return finishResult(result)
	}

	existingByIndex := make(map[int32]*models.Port, len(existing))
	for _, p := range existing {
		existingByIndex[p.IfIndex] = p
	}

	observed := make([]int32, 0, len(ifCols[oidIfDescr]))

	for idx, descrVal := range ifCols[oidIfDescr] {
		ifIndex, ok := parseIfIndex(idx)
		if !ok {
			continue
		}

		port := m.buildPort(device.ID, ifIndex, idx, descrVal, ifCols, xCols)

		if interfaceIgnored(templates, port.Name, port.Type) {
			continue
		}

		if prev, ok := existingByIndex[ifIndex]; ok {
			port.ID = prev.ID
			port.LastPolled = prev.LastPolled
		} else {
			port.ID = uuid.New().String()
		}

		if err := m.inventory.UpsertPort(ctx, port); err != nil {
			resultError(result, fmt.Errorf("failed to upsert port %d: %w", ifIndex, err))
			continue
		}

		observed = append(observed, ifIndex)
		result.Discovered = append(result.Discovered, Item{Kind: "port", Key: port.Name})
	}

	// A pass that saw no interfaces must not disable everything; that
	// pattern means the walk failed, not that the ports vanished.
	if len(observed) == 0 {
		resultError(result, ErrNoInterfacesVisible)
		return finishResult(result)
	}

	disabled, err := m.inventory.DisablePortsExcept(ctx, device.ID, observed)
	if err != nil {
		resultError(result, fmt.Errorf("failed to disable missing ports: %w", err))
	} else if disabled > 0 {
		m.logger.Info().
			Str("device_id", device.ID).
			Int("count", disabled).
			Msg("disabled ports missing from walk")
	}

	return finishResult(result)
}

func (m *PortsModule) buildPort(
	deviceID string,
	ifIndex int32,
	idx string,
	descrVal snmp.Value,
	ifCols, xCols map[string]map[string]snmp.Value) *models.Port {
	port := &models.Port{
		DeviceID: deviceID,
		IfIndex:  ifIndex,
	}

	port.Name, _ = descrVal.AsString()

	if name, ok := xCols[oidIfName][idx]; ok {
		if s, ok := name.AsString(); ok && s != "" {
			port.Name = s
		}
	}

	if alias, ok := xCols[oidIfAlias][idx]; ok {
		port.Alias, _ = alias.AsString()
	}

	if v, ok := ifCols[oidIfType][idx]; ok {
		t, _ := v.AsInt64()
		port.Type = int32(t)
	}

	if v, ok := ifCols[oidIfMtu][idx]; ok {
		mtu, _ := v.AsInt64()
		port.MTU = int32(mtu)
	}

	if v, ok := ifCols[oidIfSpeed][idx]; ok {
		port.SpeedBPS, _ = v.AsUint64()
	}

	// ifHighSpeed (Mb/s) supersedes ifSpeed, which saturates at 4.29 Gb/s.
	if v, ok := xCols[oidIfHighSpeed][idx]; ok {
		if mbps, ok := v.AsUint64(); ok && mbps > 0 {
			port.SpeedBPS = mbps * 1_000_000
		}
	}

	if v, ok := ifCols[oidIfPhysAddress][idx]; ok {
		port.PhysAddress, _ = v.AsString()
	}

	if v, ok := ifCols[oidIfAdminStatus][idx]; ok {
		code, _ := v.AsInt64()
		port.AdminStatus = models.AdminStatusFromIfValue(code)
	}

	if v, ok := ifCols[oidIfOperStatus][idx]; ok {
		code, _ := v.AsInt64()
		port.OperStatus = models.OperStatusFromIfValue(code)
	}

	counters := map[string]*uint64{
		oidIfInOctets:    &port.InOctets,
		oidIfInUcast:     &port.InUcast,
		oidIfInDiscards:  &port.InDiscards,
		oidIfInErrors:    &port.InErrors,
		oidIfOutOctets:   &port.OutOctets,
		oidIfOutUcast:    &port.OutUcast,
		oidIfOutDiscards: &port.OutDiscards,
		oidIfOutErrors:   &port.OutErrors,
	}

	for col, dst := range counters {
		if v, ok := ifCols[col][idx]; ok {
			*dst, _ = v.AsUint64()
		}
	}

	if v, ok := xCols[oidIfHCInOctets][idx]; ok {
		port.HCInOctets, _ = v.AsUint64()
		port.HasHC = true
	}

	if v, ok := xCols[oidIfHCOutOctets][idx]; ok {
		port.HCOutOctets, _ = v.AsUint64()
		port.HasHC = true
	}

	return port
}

func (m *PortsModule) Validate(result *Result) bool {
	if result == nil || !result.Success {
		return false
	}

	for _, item := range result.Discovered {
		if item.Kind == "port" {
			if _, err := strconv.Atoi(item.Key); err != nil && item.Key == "" {
				return false
			}
		}
	}

	return true
}
