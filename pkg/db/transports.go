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

const transportColumns = `id, name, type, enabled, config, filter_conditions`

func scanTransport(row pgx.Row) (*models.Transport, error) {
	var (
		t          models.Transport
		configJSON []byte
		filterJSON []byte
	)

	err := row.Scan(&t.ID, &t.Name, &t.Type, &t.Enabled, &configJSON, &filterJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &t.Config); err != nil {
			return nil, fmt.Errorf("bad config for transport %s: %w", t.ID, err)
		}
	}

	if len(filterJSON) > 0 {
		if err := json.Unmarshal(filterJSON, &t.FilterConditions); err != nil {
			return nil, fmt.Errorf("bad filter_conditions for transport %s: %w", t.ID, err)
		}
	}

	return &t, nil
}

func (s *Store) GetTransport(ctx context.Context, id string) (*models.Transport, error) {
	return scanTransport(s.q.QueryRow(ctx,
		`SELECT `+transportColumns+` FROM alert_transports WHERE id = $1`, id))
}

// ListTransports returns transports, optionally only the enabled ones.
func (s *Store) ListTransports(ctx context.Context, enabledOnly bool) ([]*models.Transport, error) {
	sql := `SELECT ` + transportColumns + ` FROM alert_transports`
	if enabledOnly {
		sql += ` WHERE enabled = true`
	}

	sql += ` ORDER BY name`

	rows, err := s.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transports []*models.Transport

	for rows.Next() {
		t, err := scanTransport(rows)
		if err != nil {
			return nil, err
		}

		transports = append(transports, t)
	}

	return transports, rows.Err()
}

func (s *Store) CreateTransport(ctx context.Context, t *models.Transport) error {
	configJSON, err := json.Marshal(t.Config)
	if err != nil {
		return err
	}

	filterJSON, err := json.Marshal(t.FilterConditions)
	if err != nil {
		return err
	}

	_, err = s.q.Exec(ctx,
		`INSERT INTO alert_transports (`+transportColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.Name, t.Type, t.Enabled, configJSON, filterJSON)
	if err != nil {
		return fmt.Errorf("failed to insert transport %s: %w", t.ID, mapInsertErr(err))
	}

	return nil
}

const notificationColumns = `id, alert_id, transport_id, status, attempts,
last_attempt, sent_at, error, response`

func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO alert_notifications (`+notificationColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		n.ID, n.AlertID, n.TransportID, n.Status, n.Attempts,
		n.LastAttempt, n.SentAt, n.Error, n.Response)
	if err != nil {
		return fmt.Errorf("failed to insert notification %s: %w", n.ID, err)
	}

	return nil
}

func (s *Store) UpdateNotification(ctx context.Context, n *models.Notification) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE alert_notifications SET status = $2, attempts = $3, last_attempt = $4,
		 sent_at = $5, error = $6, response = $7 WHERE id = $1`,
		n.ID, n.Status, n.Attempts, n.LastAttempt, n.SentAt, n.Error, n.Response)
	if err != nil {
		return fmt.Errorf("failed to update notification %s: %w", n.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) ListNotifications(ctx context.Context, alertID string) ([]*models.Notification, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+notificationColumns+` FROM alert_notifications
		 WHERE alert_id = $1 ORDER BY last_attempt NULLS FIRST`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification

	for rows.Next() {
		var n models.Notification

		err := rows.Scan(&n.ID, &n.AlertID, &n.TransportID, &n.Status, &n.Attempts,
			&n.LastAttempt, &n.SentAt, &n.Error, &n.Response)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}
