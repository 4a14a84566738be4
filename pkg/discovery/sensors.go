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
	"regexp"

	"github.com/google/uuid"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

// SensorsModule inventories environmental sensors from the standard
// Entity-Sensor MIB, OS-template definitions, and (for Cisco gear) the
// Environmental Monitor MIB.
type SensorsModule struct {
	client    snmp.Client
	inventory Inventory
	logger    logger.Logger
}

func NewSensorsModule(client snmp.Client, inventory Inventory, log logger.Logger) *SensorsModule {
	return &SensorsModule{
		client:    client,
		inventory: inventory,
		logger:    log.WithComponent("discovery.sensors"),
	}
}

func (m *SensorsModule) Name() string           { return "sensors" }
func (m *SensorsModule) Description() string    { return "Environmental sensor inventory" }
func (m *SensorsModule) Dependencies() []string { return []string{"core"} }
func (m *SensorsModule) Priority() int          { return 3 }

// CanDiscover skips host OSes that expose no environmental sensors.
func (m *SensorsModule) CanDiscover(device *models.Device) bool {
	switch device.OS {
	case "windows", "linux", "generic", "":
		return false
	default:
		return true
	}
}

func (m *SensorsModule) Discover(ctx context.Context, device *models.Device, templates []*OSTemplate) *Result {
	result := newResult(m.Name(), device.ID)

	existing, err := m.inventory.ListSensors(ctx, device.ID)
	if err != nil {
		resultError(result, fmt.Errorf("failed to list sensors: %w", err))
		return finishResult(result)
	}

	prevValues := make(map[string]*float64, len(existing))
	ids := make(map[string]string, len(existing))

	for _, s := range existing {
		key := s.Index + "|" + string(s.Type)
		prevValues[key] = s.Value
		ids[key] = s.ID
	}

	m.discoverEntitySensors(ctx, device, result, prevValues, ids)
	m.discoverTemplateSensors(ctx, device, templates, result, prevValues, ids)

	if isCiscoFamily(device.OS) {
		m.discoverCiscoEnvMon(ctx, device, result, prevValues, ids)
	}

	return finishResult(result)
}

func (m *SensorsModule) upsert(
	ctx context.Context,
	sensor *models.Sensor,
	result *Result,
	prevValues map[string]*float64,
	ids map[string]string) {
	key := sensor.Index + "|" + string(sensor.Type)

	if id, ok := ids[key]; ok {
		sensor.ID = id
		sensor.PrevValue = prevValues[key]
	} else {
		sensor.ID = uuid.New().String()
	}

	if sensor.Divisor == 0 {
		sensor.Divisor = 1
	}

	if sensor.Multiplier == 0 {
		sensor.Multiplier = 1
	}

	if err := m.inventory.UpsertSensor(ctx, sensor); err != nil {
		resultError(result, fmt.Errorf("failed to upsert sensor %s: %w", sensor.Index, err))
		return
	}

	result.Discovered = append(result.Discovered,
		Item{Kind: "sensor", Key: string(sensor.Type) + ":" + sensor.Index})
}

// discoverEntitySensors walks the standard Entity-Sensor MIB. Sensor
// descriptions come from the matching entPhysicalName rows.
func (m *SensorsModule) discoverEntitySensors(
	ctx context.Context,
	device *models.Device,
	result *Result,
	prevValues map[string]*float64,
	ids map[string]string) {
	types, err := walkColumn(ctx, m.client, device, oidEntPhySensorType)
	if err != nil || len(types) == 0 {
		return
	}

	values, _ := walkColumn(ctx, m.client, device, oidEntPhySensorValue)
	scales, _ := walkColumn(ctx, m.client, device, oidEntPhySensorScale)
	names, _ := walkColumn(ctx, m.client, device, oidEntPhysicalName)

	for idx, typeVal := range types {
		code, ok := typeVal.AsInt64()
		if !ok {
			continue
		}

		sensorType := models.EntitySensorType(code)
		if sensorType == models.SensorOther {
			continue
		}

		sensor := &models.Sensor{
			DeviceID: device.ID,
			Index:    idx,
			Type:     sensorType,
			Class:    "entity-sensor",
			OID:      oidEntPhySensorValue + "." + idx,
		}

		if name, ok := names[idx]; ok {
			sensor.Descr, _ = name.AsString()
		}

		if sensor.Descr == "" {
			sensor.Descr = string(sensorType) + " " + idx
		}

		if scale, ok := scales[idx]; ok {
			if factor, ok := scale.AsInt64(); ok {
				sensor.Divisor, sensor.Multiplier = entitySensorScale(factor)
			}
		}

		if raw, ok := values[idx]; ok {
			if v, ok := raw.AsInt64(); ok {
				value := float64(v)
				sensor.Value = &value
			}
		}

		m.upsert(ctx, sensor, result, prevValues, ids)
	}
}

// entitySensorScale maps entPhySensorScale codes (1 yocto .. 17 yotta)
// to divisor/multiplier pairs. Only the common milli/unit range occurs
// in practice.
func entitySensorScale(code int64) (divisor, multiplier float64) {
	switch code {
	case 8: // milli
		return 1000, 1
	case 7: // micro
		return 1_000_000, 1
	case 10: // kilo
		return 1, 1000
	case 11: // mega
		return 1, 1_000_000
	default: // units
		return 1, 1
	}
}

// discoverTemplateSensors resolves template sensor definitions, walking
// each declared OID and instantiating one sensor per index found.
func (m *SensorsModule) discoverTemplateSensors(
	ctx context.Context,
	device *models.Device,
	templates []*OSTemplate,
	result *Result,
	prevValues map[string]*float64,
	ids map[string]string) {
	for _, tpl := range templates {
		if tpl == nil {
			continue
		}

		for typeName, defs := range tpl.Discovery.Sensors {
			sensorType := models.SensorType(typeName)

			for _, def := range defs {
				m.resolveTemplateDef(ctx, device, sensorType, &def, result, prevValues, ids)
			}
		}
	}
}

func (m *SensorsModule) resolveTemplateDef(
	ctx context.Context,
	device *models.Device,
	sensorType models.SensorType,
	def *SensorDef,
	result *Result,
	prevValues map[string]*float64,
	ids map[string]string) {
	values, err := walkColumn(ctx, m.client, device, def.OID)
	if err != nil || len(values) == 0 {
		return
	}

	var skipRe *regexp.Regexp

	if def.SkipIf != "" {
		skipRe, err = regexp.Compile("(?i)" + def.SkipIf)
		if err != nil {
			resultError(result, fmt.Errorf("bad skip_if %q: %w", def.SkipIf, err))
			return
		}
	}

	for idx, raw := range values {
		rawValue, ok := raw.AsInt64()
		if !ok {
			continue
		}

		if def.SkipIfZero && rawValue == 0 {
			continue
		}

		descr := SubstituteIndex(def.Descr, idx)
		if descr == "" {
			descr = string(sensorType) + " " + idx
		}

		if skipRe != nil && skipRe.MatchString(descr) {
			continue
		}

		value := float64(rawValue)

		sensor := &models.Sensor{
			DeviceID:   device.ID,
			Index:      idx,
			Type:       sensorType,
			Descr:      descr,
			Class:      "template",
			OID:        def.OID + "." + idx,
			Value:      &value,
			Divisor:    def.Divisor,
			Multiplier: def.Multiplier,
			LimitHigh:  def.LimitHigh,
			LimitLow:   def.LimitLow,
			WarnHigh:   def.WarnHigh,
			WarnLow:    def.WarnLow,
		}

		m.upsert(ctx, sensor, result, prevValues, ids)
	}
}

// discoverCiscoEnvMon walks the Cisco private temperature and voltage
// tables found on IOS/NX-OS platforms without Entity-Sensor support.
func (m *SensorsModule) discoverCiscoEnvMon(
	ctx context.Context,
	device *models.Device,
	result *Result,
	prevValues map[string]*float64,
	ids map[string]string) {
	tables := []struct {
		descrOID string
		valueOID string
		kind     models.SensorType
	}{
		{oidCiscoEnvMonTempDescr, oidCiscoEnvMonTempValue, models.SensorTemperature},
		{oidCiscoEnvMonVoltDescr, oidCiscoEnvMonVoltValue, models.SensorVoltage},
	}

	for _, table := range tables {
		descrs, err := walkColumn(ctx, m.client, device, table.descrOID)
		if err != nil || len(descrs) == 0 {
			continue
		}

		values, _ := walkColumn(ctx, m.client, device, table.valueOID)

		for idx, descrVal := range descrs {
			descr, _ := descrVal.AsString()
			if descr == "" {
				descr = string(table.kind) + " " + idx
			}

			sensor := &models.Sensor{
				DeviceID: device.ID,
				Index:    "envmon." + idx,
				Type:     table.kind,
				Descr:    descr,
				Class:    "cisco-envmon",
				OID:      table.valueOID + "." + idx,
			}

			if raw, ok := values[idx]; ok {
				if v, ok := raw.AsInt64(); ok {
					value := float64(v)
					sensor.Value = &value
				}
			}

			m.upsert(ctx, sensor, result, prevValues, ids)
		}
	}
}

func (m *SensorsModule) Validate(result *Result) bool {
	return result != nil && result.Success
}
