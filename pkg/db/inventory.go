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

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
)

const portColumns = `id, device_id, if_index, name, alias, type, mtu, speed_bps,
phys_address, admin_status, oper_status, in_octets, out_octets, in_ucast, out_ucast,
in_discards, out_discards, in_errors, out_errors, hc_in_octets, hc_out_octets,
has_hc, disabled, last_polled`

const upsertPortSQL = `INSERT INTO ports (` + portColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
ON CONFLICT (device_id, if_index) DO UPDATE SET
name = EXCLUDED.name, alias = EXCLUDED.alias, type = EXCLUDED.type,
mtu = EXCLUDED.mtu, speed_bps = EXCLUDED.speed_bps, phys_address = EXCLUDED.phys_address,
admin_status = EXCLUDED.admin_status, oper_status = EXCLUDED.oper_status,
in_octets = EXCLUDED.in_octets, out_octets = EXCLUDED.out_octets,
in_ucast = EXCLUDED.in_ucast, out_ucast = EXCLUDED.out_ucast,
in_discards = EXCLUDED.in_discards, out_discards = EXCLUDED.out_discards,
in_errors = EXCLUDED.in_errors, out_errors = EXCLUDED.out_errors,
hc_in_octets = EXCLUDED.hc_in_octets, hc_out_octets = EXCLUDED.hc_out_octets,
has_hc = EXCLUDED.has_hc, disabled = false, last_polled = EXCLUDED.last_polled`

func (s *Store) ListPorts(ctx context.Context, deviceID string) ([]*models.Port, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+portColumns+` FROM ports WHERE device_id = $1 ORDER BY if_index`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ports []*models.Port

	for rows.Next() {
		var p models.Port

		err := rows.Scan(&p.ID, &p.DeviceID, &p.IfIndex, &p.Name, &p.Alias, &p.Type,
			&p.MTU, &p.SpeedBPS, &p.PhysAddress, &p.AdminStatus, &p.OperStatus,
			&p.InOctets, &p.OutOctets, &p.InUcast, &p.OutUcast,
			&p.InDiscards, &p.OutDiscards, &p.InErrors, &p.OutErrors,
			&p.HCInOctets, &p.HCOutOctets, &p.HasHC, &p.Disabled, &p.LastPolled)
		if err != nil {
			return nil, err
		}

		ports = append(ports, &p)
	}

	return ports, rows.Err()
}

func (s *Store) UpsertPort(ctx context.Context, p *models.Port) error {
	_, err := s.q.Exec(ctx, upsertPortSQL,
		p.ID, p.DeviceID, p.IfIndex, p.Name, p.Alias, p.Type, p.MTU, p.SpeedBPS,
		p.PhysAddress, p.AdminStatus, p.OperStatus, p.InOctets, p.OutOctets,
		p.InUcast, p.OutUcast, p.InDiscards, p.OutDiscards, p.InErrors, p.OutErrors,
		p.HCInOctets, p.HCOutOctets, p.HasHC, p.Disabled, p.LastPolled)
	if err != nil {
		return fmt.Errorf("failed to upsert port %d on %s: %w", p.IfIndex, p.DeviceID, err)
	}

	return nil
}

// DisablePortsExcept marks every port of the device whose if_index is
// not in keep as disabled.
func (s *Store) DisablePortsExcept(ctx context.Context, deviceID string, keep []int32) (int, error) {
	tag, err := s.q.Exec(ctx,
		`UPDATE ports SET disabled = true
		 WHERE device_id = $1 AND disabled = false AND NOT (if_index = ANY($2))`,
		deviceID, keep)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

const sensorColumns = `id, device_id, index, type, descr, class, oid, value, prev_value,
limit_high, limit_low, warn_high, warn_low, divisor, multiplier, disabled`

const upsertSensorSQL = `INSERT INTO sensors (` + sensorColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (device_id, index, type) DO UPDATE SET
descr = EXCLUDED.descr, class = EXCLUDED.class, oid = EXCLUDED.oid,
value = EXCLUDED.value, prev_value = EXCLUDED.prev_value,
limit_high = EXCLUDED.limit_high, limit_low = EXCLUDED.limit_low,
warn_high = EXCLUDED.warn_high, warn_low = EXCLUDED.warn_low,
divisor = EXCLUDED.divisor, multiplier = EXCLUDED.multiplier,
disabled = EXCLUDED.disabled`

func (s *Store) ListSensors(ctx context.Context, deviceID string) ([]*models.Sensor, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+sensorColumns+` FROM sensors WHERE device_id = $1 ORDER BY index`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []*models.Sensor

	for rows.Next() {
		var sr models.Sensor

		err := rows.Scan(&sr.ID, &sr.DeviceID, &sr.Index, &sr.Type, &sr.Descr, &sr.Class,
			&sr.OID, &sr.Value, &sr.PrevValue, &sr.LimitHigh, &sr.LimitLow,
			&sr.WarnHigh, &sr.WarnLow, &sr.Divisor, &sr.Multiplier, &sr.Disabled)
		if err != nil {
			return nil, err
		}

		sensors = append(sensors, &sr)
	}

	return sensors, rows.Err()
}

func (s *Store) UpsertSensor(ctx context.Context, sr *models.Sensor) error {
	_, err := s.q.Exec(ctx, upsertSensorSQL,
		sr.ID, sr.DeviceID, sr.Index, sr.Type, sr.Descr, sr.Class, sr.OID,
		sr.Value, sr.PrevValue, sr.LimitHigh, sr.LimitLow, sr.WarnHigh, sr.WarnLow,
		sr.Divisor, sr.Multiplier, sr.Disabled)
	if err != nil {
		return fmt.Errorf("failed to upsert sensor %s on %s: %w", sr.Index, sr.DeviceID, err)
	}

	return nil
}

const upsertEntitySQL = `INSERT INTO entities (device_id, index, descr, class, name,
contained_in, parent_rel_pos, vendor_type, hardware_rev, firmware_rev, software_rev,
serial, mfg_name, model_name)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (device_id, index) DO UPDATE SET
descr = EXCLUDED.descr, class = EXCLUDED.class, name = EXCLUDED.name,
contained_in = EXCLUDED.contained_in, parent_rel_pos = EXCLUDED.parent_rel_pos,
vendor_type = EXCLUDED.vendor_type, hardware_rev = EXCLUDED.hardware_rev,
firmware_rev = EXCLUDED.firmware_rev, software_rev = EXCLUDED.software_rev,
serial = EXCLUDED.serial, mfg_name = EXCLUDED.mfg_name, model_name = EXCLUDED.model_name`

func (s *Store) UpsertEntity(ctx context.Context, e *models.PhysicalEntity) error {
	_, err := s.q.Exec(ctx, upsertEntitySQL,
		e.DeviceID, e.Index, e.Descr, e.Class, e.Name, e.ContainedIn, e.ParentRelPos,
		e.VendorType, e.HardwareRev, e.FirmwareRev, e.SoftwareRev, e.Serial,
		e.MfgName, e.ModelName)
	if err != nil {
		return fmt.Errorf("failed to upsert entity %d on %s: %w", e.Index, e.DeviceID, err)
	}

	return nil
}

const topologyColumns = `device_id, local_port, protocol, remote_chassis_id,
remote_port_id, remote_hostname, remote_platform, last_updated, active`

const upsertTopologySQL = `INSERT INTO topology_links (` + topologyColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (device_id, protocol, local_port, remote_hostname) DO UPDATE SET
remote_chassis_id = EXCLUDED.remote_chassis_id, remote_port_id = EXCLUDED.remote_port_id,
remote_platform = EXCLUDED.remote_platform, last_updated = EXCLUDED.last_updated,
active = EXCLUDED.active`

func (s *Store) ListTopology(ctx context.Context, deviceID string) ([]*models.TopologyLink, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+topologyColumns+` FROM topology_links WHERE device_id = $1
		 ORDER BY local_port`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.TopologyLink

	for rows.Next() {
		var l models.TopologyLink

		err := rows.Scan(&l.DeviceID, &l.LocalPort, &l.Protocol, &l.RemoteChassisID,
			&l.RemotePortID, &l.RemoteHostname, &l.RemotePlatform, &l.LastUpdated, &l.Active)
		if err != nil {
			return nil, err
		}

		links = append(links, &l)
	}

	return links, rows.Err()
}

func (s *Store) UpsertTopologyLink(ctx context.Context, l *models.TopologyLink) error {
	_, err := s.q.Exec(ctx, upsertTopologySQL,
		l.DeviceID, l.LocalPort, l.Protocol, l.RemoteChassisID, l.RemotePortID,
		l.RemoteHostname, l.RemotePlatform, l.LastUpdated, l.Active)
	if err != nil {
		return fmt.Errorf("failed to upsert topology link on %s: %w", l.DeviceID, err)
	}

	return nil
}

// PruneTopology deactivates links last updated before cutoff.
func (s *Store) PruneTopology(ctx context.Context, deviceID string, cutoff time.Time) (int, error) {
	tag, err := s.q.Exec(ctx,
		`UPDATE topology_links SET active = false
		 WHERE device_id = $1 AND active = true AND last_updated < $2`,
		deviceID, cutoff)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
