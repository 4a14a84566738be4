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
	"strings"
	"time"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

const topologyStaleAfter = 24 * time.Hour

// TopologyModule reads LLDP (and, on Cisco gear, CDP) neighbor tables
// and reconciles topology links. Neighbors unseen for 24 h are pruned,
// except on passes that saw no neighbors at all.
type TopologyModule struct {
	client    snmp.Client
	inventory Inventory
	logger    logger.Logger
}

func NewTopologyModule(client snmp.Client, inventory Inventory, log logger.Logger) *TopologyModule {
	return &TopologyModule{
		client:    client,
		inventory: inventory,
		logger:    log.WithComponent("discovery.topology"),
	}
}

func (m *TopologyModule) Name() string           { return "topology" }
func (m *TopologyModule) Description() string    { return "Neighbor adjacency from LLDP and CDP" }
func (m *TopologyModule) Dependencies() []string { return []string{"core", "ports"} }
func (m *TopologyModule) Priority() int          { return 5 }

func (m *TopologyModule) CanDiscover(_ *models.Device) bool { return true }

type linkKey struct {
	protocol  models.TopologyProtocol
	localPort int32
	remote    string
}

func (m *TopologyModule) Discover(ctx context.Context, device *models.Device, _ []*OSTemplate) *Result {
	result := newResult(m.Name(), device.ID)
	now := time.Now()

	links := make(map[linkKey]*models.TopologyLink)

	if err := m.discoverLLDP(ctx, device, now, links); err != nil {
		m.logger.Debug().Err(err).Str("device_id", device.ID).Msg("LLDP walk failed")
	}

	if isCiscoFamily(device.OS) {
		if err := m.discoverCDP(ctx, device, now, links); err != nil {
			m.logger.Debug().Err(err).Str("device_id", device.ID).Msg("CDP walk failed")
		}
	}

	for _, link := range links {
		if err := m.inventory.UpsertTopologyLink(ctx, link); err != nil {
			resultError(result, fmt.Errorf("failed to upsert link: %w", err))
			continue
		}

		result.Discovered = append(result.Discovered, Item{
			Kind: "neighbor",
			Key:  fmt.Sprintf("%s:%d:%s", link.Protocol, link.LocalPort, link.RemoteHostname),
		})
	}

	// Zero neighbors this pass means the tables were empty or the walk
	// failed; pruning here would erase the whole adjacency map.
	if len(links) > 0 {
		pruned, err := m.inventory.PruneTopology(ctx, device.ID, now.Add(-topologyStaleAfter))
		if err != nil {
			resultError(result, fmt.Errorf("failed to prune topology: %w", err))
		} else if pruned > 0 {
			m.logger.Info().
				Str("device_id", device.ID).
				Int("count", pruned).
				Msg("pruned stale topology links")
		}
	}

	return finishResult(result)
}

// lldpLocalPort extracts lldpRemLocalPortNum from the three-part
// instance suffix timeMark.localPort.index.
func lldpLocalPort(idx string) (int32, bool) {
	parts := strings.Split(idx, ".")
	if len(parts) != 3 {
		return 0, false
	}

	return parseIfIndex(parts[1])
}

func (m *TopologyModule) discoverLLDP(
	ctx context.Context, device *models.Device, now time.Time, links map[linkKey]*models.TopologyLink) error {
	sysNames, err := walkColumn(ctx, m.client, device, oidLLDPRemSysName)
	if err != nil {
		return err
	}

	chassisIDs, _ := walkColumn(ctx, m.client, device, oidLLDPRemChassisID)
	portIDs, _ := walkColumn(ctx, m.client, device, oidLLDPRemPortID)
	portDescrs, _ := walkColumn(ctx, m.client, device, oidLLDPRemPortDescr)
	sysDescrs, _ := walkColumn(ctx, m.client, device, oidLLDPRemSysDescr)

	for idx, nameVal := range sysNames {
		hostname, _ := nameVal.AsString()
		if hostname == "" {
			continue
		}

		localPort, ok := lldpLocalPort(idx)
		if !ok {
			continue
		}

		link := &models.TopologyLink{
			DeviceID:       device.ID,
			LocalPort:      localPort,
			Protocol:       models.TopologyLLDP,
			RemoteHostname: hostname,
			LastUpdated:    now,
			Active:         true,
		}

		if v, ok := chassisIDs[idx]; ok {
			link.RemoteChassisID, _ = v.AsString()
		}

		if v, ok := portIDs[idx]; ok {
			link.RemotePortID, _ = v.AsString()
		}

		if link.RemotePortID == "" {
			if v, ok := portDescrs[idx]; ok {
				link.RemotePortID, _ = v.AsString()
			}
		}

		if v, ok := sysDescrs[idx]; ok {
			link.RemotePlatform, _ = v.AsString()
		}

		links[linkKey{models.TopologyLLDP, localPort, hostname}] = link
	}

	return nil
}

// cdpLocalPort extracts cdpCacheIfIndex from the two-part instance
// suffix ifIndex.deviceIndex.
func cdpLocalPort(idx string) (int32, bool) {
	parts := strings.Split(idx, ".")
	if len(parts) != 2 {
		return 0, false
	}

	return parseIfIndex(parts[0])
}

func (m *TopologyModule) discoverCDP(
	ctx context.Context, device *models.Device, now time.Time, links map[linkKey]*models.TopologyLink) error {
	deviceIDs, err := walkColumn(ctx, m.client, device, oidCDPCacheDeviceID)
	if err != nil {
		return err
	}

	ports, _ := walkColumn(ctx, m.client, device, oidCDPCachePort)
	platforms, _ := walkColumn(ctx, m.client, device, oidCDPCachePlatform)

	for idx, idVal := range deviceIDs {
		hostname, _ := idVal.AsString()
		if hostname == "" {
			continue
		}

		localPort, ok := cdpLocalPort(idx)
		if !ok {
			continue
		}

		link := &models.TopologyLink{
			DeviceID:       device.ID,
			LocalPort:      localPort,
			Protocol:       models.TopologyCDP,
			RemoteHostname: hostname,
			LastUpdated:    now,
			Active:         true,
		}

		if v, ok := ports[idx]; ok {
			link.RemotePortID, _ = v.AsString()
		}

		if v, ok := platforms[idx]; ok {
			link.RemotePlatform, _ = v.AsString()
		}

		links[linkKey{models.TopologyCDP, localPort, hostname}] = link
	}

	return nil
}

func (m *TopologyModule) Validate(result *Result) bool {
	return result != nil && result.Success
}
