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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ymonitor/ymonitor/pkg/models"
)

const deviceColumns = `id, hostname, address, snmp_config, os, vendor, model, serial,
location, contact, sys_descr, sys_object_id, uptime, features, status, disabled,
last_polled, last_discovered`

const selectDeviceSQL = `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

const insertDeviceSQL = `INSERT INTO devices (` + deviceColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

const updateDeviceSQL = `UPDATE devices SET
hostname = $2, address = $3, snmp_config = $4, os = $5, vendor = $6, model = $7,
serial = $8, location = $9, contact = $10, sys_descr = $11, sys_object_id = $12,
uptime = $13, features = $14, status = $15, disabled = $16, last_polled = $17,
last_discovered = $18
WHERE id = $1`

func scanDevice(row pgx.Row) (*models.Device, error) {
	var (
		d        models.Device
		snmpJSON []byte
		features []byte
	)

	err := row.Scan(&d.ID, &d.Hostname, &d.Address, &snmpJSON, &d.OS, &d.Vendor,
		&d.Model, &d.Serial, &d.Location, &d.Contact, &d.SysDescr, &d.SysObjectID,
		&d.Uptime, &features, &d.Status, &d.Disabled, &d.LastPolled, &d.LastDiscovered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if len(snmpJSON) > 0 {
		if err := json.Unmarshal(snmpJSON, &d.SNMP); err != nil {
			return nil, fmt.Errorf("bad snmp_config for device %s: %w", d.ID, err)
		}
	}

	if len(features) > 0 {
		if err := json.Unmarshal(features, &d.Features); err != nil {
			return nil, fmt.Errorf("bad features for device %s: %w", d.ID, err)
		}
	}

	return &d, nil
}

func deviceArgs(d *models.Device) ([]any, error) {
	snmpJSON, err := json.Marshal(d.SNMP)
	if err != nil {
		return nil, err
	}

	features, err := json.Marshal(d.Features)
	if err != nil {
		return nil, err
	}

	return []any{
		d.ID, d.Hostname, d.Address, snmpJSON, d.OS, d.Vendor, d.Model, d.Serial,
		d.Location, d.Contact, d.SysDescr, d.SysObjectID, d.Uptime, features,
		d.Status, d.Disabled, d.LastPolled, d.LastDiscovered,
	}, nil
}

func (s *Store) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	return scanDevice(s.q.QueryRow(ctx, selectDeviceSQL, id))
}

// ListDevices returns devices, optionally restricted to enabled ones.
func (s *Store) ListDevices(ctx context.Context, enabledOnly bool) ([]*models.Device, error) {
	sql := `SELECT ` + deviceColumns + ` FROM devices`
	if enabledOnly {
		sql += ` WHERE disabled = false`
	}

	sql += ` ORDER BY hostname`

	rows, err := s.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*models.Device

	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}

		devices = append(devices, d)
	}

	return devices, rows.Err()
}

func (s *Store) CreateDevice(ctx context.Context, d *models.Device) error {
	args, err := deviceArgs(d)
	if err != nil {
		return err
	}

	if _, err := s.q.Exec(ctx, insertDeviceSQL, args...); err != nil {
		return fmt.Errorf("failed to insert device %s: %w", d.ID, mapInsertErr(err))
	}

	return nil
}

func (s *Store) UpdateDevice(ctx context.Context, d *models.Device) error {
	args, err := deviceArgs(d)
	if err != nil {
		return err
	}

	tag, err := s.q.Exec(ctx, updateDeviceSQL, args...)
	if err != nil {
		return fmt.Errorf("failed to update device %s: %w", d.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteDevice removes the device and, via FK cascade, its ports,
// sensors, entities and topology links.
func (s *Store) DeleteDevice(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetDeviceStatus updates only the status and last_polled columns; used
// by the pollers on every cycle.
func (s *Store) SetDeviceStatus(ctx context.Context, id string, status models.DeviceStatus) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE devices SET status = $2, last_polled = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
