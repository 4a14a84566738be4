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
	"sync"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

// EntityModule walks the Entity-MIB physical table column by column in
// parallel and rebuilds the containment hierarchy.
type EntityModule struct {
	client    snmp.Client
	inventory Inventory
	logger    logger.Logger
}

func NewEntityModule(client snmp.Client, inventory Inventory, log logger.Logger) *EntityModule {
	return &EntityModule{
		client:    client,
		inventory: inventory,
		logger:    log.WithComponent("discovery.entity"),
	}
}

func (m *EntityModule) Name() string           { return "entity" }
func (m *EntityModule) Description() string    { return "Physical component hierarchy from Entity-MIB" }
func (m *EntityModule) Dependencies() []string { return []string{"core"} }
func (m *EntityModule) Priority() int          { return 4 }

func (m *EntityModule) CanDiscover(_ *models.Device) bool { return true }

// entityColumns are walked concurrently; one walk per column.
var entityColumns = []string{
	oidEntPhysicalDescr,
	oidEntPhysicalVendorType,
	oidEntPhysicalContainedIn,
	oidEntPhysicalClass,
	oidEntPhysicalParentRelPos,
	oidEntPhysicalName,
	oidEntPhysicalHardwareRev,
	oidEntPhysicalFirmwareRev,
	oidEntPhysicalSoftwareRev,
	oidEntPhysicalSerialNum,
	oidEntPhysicalMfgName,
	oidEntPhysicalModelName,
}

func (m *EntityModule) Discover(ctx context.Context, device *models.Device, _ []*OSTemplate) *Result {
	result := newResult(m.Name(), device.ID)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		columns = make(map[string]map[string]snmp.Value, len(entityColumns))
	)

	for _, col := range entityColumns {
		wg.Add(1)

		go func(col string) {
			defer wg.Done()

			values, err := walkColumn(ctx, m.client, device, col)
			if err != nil {
				m.logger.Debug().Err(err).Str("column", col).Msg("entity column walk failed")
				return
			}

			mu.Lock()
			columns[col] = values
			mu.Unlock()
		}(col)
	}

	wg.Wait()

	classCol := columns[oidEntPhysicalClass]
	if len(classCol) == 0 {
		resultError(result, fmt.Errorf("device exposes no Entity-MIB physical table"))
		return finishResult(result)
	}

	indexes := make([]string, 0, len(classCol))
	for idx := range classCol {
		indexes = append(indexes, idx)
	}

	sort.Strings(indexes)

	for _, idx := range indexes {
		entIndex, ok := parseIfIndex(idx)
		if !ok {
			continue
		}

		entity := &models.PhysicalEntity{
			DeviceID: device.ID,
			Index:    entIndex,
		}

		if code, ok := classCol[idx].AsInt64(); ok {
			entity.Class = models.EntityClassFromCode(code)
		}

		strField := func(col string, dst *string) {
			if v, ok := columns[col][idx]; ok {
				*dst, _ = v.AsString()
			}
		}

		strField(oidEntPhysicalDescr, &entity.Descr)
		strField(oidEntPhysicalName, &entity.Name)
		strField(oidEntPhysicalVendorType, &entity.VendorType)
		strField(oidEntPhysicalHardwareRev, &entity.HardwareRev)
		strField(oidEntPhysicalFirmwareRev, &entity.FirmwareRev)
		strField(oidEntPhysicalSoftwareRev, &entity.SoftwareRev)
		strField(oidEntPhysicalSerialNum, &entity.Serial)
		strField(oidEntPhysicalMfgName, &entity.MfgName)
		strField(oidEntPhysicalModelName, &entity.ModelName)

		if v, ok := columns[oidEntPhysicalContainedIn][idx]; ok {
			parent, _ := v.AsInt64()
			entity.ContainedIn = int32(parent)
		}

		if v, ok := columns[oidEntPhysicalParentRelPos][idx]; ok {
			pos, _ := v.AsInt64()
			entity.ParentRelPos = int32(pos)
		}

		if err := m.inventory.UpsertEntity(ctx, entity); err != nil {
			resultError(result, fmt.Errorf("failed to upsert entity %d: %w", entIndex, err))
			continue
		}

		result.Discovered = append(result.Discovered,
			Item{Kind: "entity", Key: fmt.Sprintf("%s:%d", entity.Class, entIndex)})
	}

	return finishResult(result)
}

func (m *EntityModule) Validate(result *Result) bool {
	return result != nil && result.Success
}
