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

const alertColumns = `id, rule_id, device_id, severity, state, title, message, details,
first_occurred, last_occurred, occurrences, acknowledged_at, acknowledged_by,
resolved_at, resolved_by, suppressed_until, notifications_sent,
last_notification_sent, escalation_level, correlation_key`

const insertAlertSQL = `INSERT INTO alerts (` + alertColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`

const updateAlertSQL = `UPDATE alerts SET
severity = $4, state = $5, title = $6, message = $7, details = $8,
first_occurred = $9, last_occurred = $10, occurrences = $11,
acknowledged_at = $12, acknowledged_by = $13, resolved_at = $14, resolved_by = $15,
suppressed_until = $16, notifications_sent = $17, last_notification_sent = $18,
escalation_level = $19, correlation_key = $20
WHERE id = $1 AND rule_id = $2 AND device_id = $3`

func scanAlert(row pgx.Row) (*models.Alert, error) {
	var (
		a       models.Alert
		details []byte
	)

	err := row.Scan(&a.ID, &a.RuleID, &a.DeviceID, &a.Severity, &a.State, &a.Title,
		&a.Message, &details, &a.FirstOccurred, &a.LastOccurred, &a.Occurrences,
		&a.AcknowledgedAt, &a.AcknowledgedBy, &a.ResolvedAt, &a.ResolvedBy,
		&a.SuppressedUntil, &a.NotificationsSent, &a.LastNotificationSent,
		&a.EscalationLevel, &a.CorrelationKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if len(details) > 0 {
		if err := json.Unmarshal(details, &a.Details); err != nil {
			return nil, fmt.Errorf("bad details for alert %s: %w", a.ID, err)
		}
	}

	return &a, nil
}

func alertArgs(a *models.Alert) ([]any, error) {
	details, err := json.Marshal(a.Details)
	if err != nil {
		return nil, err
	}

	return []any{
		a.ID, a.RuleID, a.DeviceID, a.Severity, a.State, a.Title, a.Message, details,
		a.FirstOccurred, a.LastOccurred, a.Occurrences, a.AcknowledgedAt,
		a.AcknowledgedBy, a.ResolvedAt, a.ResolvedBy, a.SuppressedUntil,
		a.NotificationsSent, a.LastNotificationSent, a.EscalationLevel,
		a.CorrelationKey,
	}, nil
}

func (s *Store) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return scanAlert(s.q.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id))
}

// FindActiveAlert returns the open or acknowledged alert for a
// (rule, device) pair, or ErrNotFound.
func (s *Store) FindActiveAlert(ctx context.Context, ruleID, deviceID string) (*models.Alert, error) {
	return scanAlert(s.q.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts
		 WHERE rule_id = $1 AND device_id = $2 AND state IN ('open', 'acknowledged')
		 ORDER BY first_occurred DESC LIMIT 1`, ruleID, deviceID))
}

// FindCurrentAlert returns the open, acknowledged or suppressed alert
// for a (rule, device) pair, or ErrNotFound. Suppressed alerts count so
// the evaluator never opens a duplicate while a window is running.
func (s *Store) FindCurrentAlert(ctx context.Context, ruleID, deviceID string) (*models.Alert, error) {
	return scanAlert(s.q.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts
		 WHERE rule_id = $1 AND device_id = $2
		   AND state IN ('open', 'acknowledged', 'suppressed')
		 ORDER BY first_occurred DESC LIMIT 1`, ruleID, deviceID))
}

// ListAlerts returns alerts newest-first, optionally filtered by state.
func (s *Store) ListAlerts(ctx context.Context, states []models.AlertState, limit int) ([]*models.Alert, error) {
	sql := `SELECT ` + alertColumns + ` FROM alerts`
	args := []any{}

	if len(states) > 0 {
		sql += ` WHERE state = ANY($1)`
		args = append(args, states)
	}

	sql += ` ORDER BY last_occurred DESC`

	if limit > 0 {
		sql += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.Alert

	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}

		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// ListSuppressedAlerts returns alerts currently in suppressed state; the
// evaluator reverts the expired ones each tick.
func (s *Store) ListSuppressedAlerts(ctx context.Context) ([]*models.Alert, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE state = 'suppressed'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.Alert

	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}

		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

func (s *Store) InsertAlert(ctx context.Context, a *models.Alert) error {
	args, err := alertArgs(a)
	if err != nil {
		return err
	}

	if _, err := s.q.Exec(ctx, insertAlertSQL, args...); err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", a.ID, err)
	}

	return nil
}

func (s *Store) UpdateAlert(ctx context.Context, a *models.Alert) error {
	args, err := alertArgs(a)
	if err != nil {
		return err
	}

	tag, err := s.q.Exec(ctx, updateAlertSQL, args...)
	if err != nil {
		return fmt.Errorf("failed to update alert %s: %w", a.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

const insertHistorySQL = `INSERT INTO alert_history (id, alert_id, event, actor, details, timestamp)
VALUES ($1,$2,$3,$4,$5,$6)`

func (s *Store) AppendAlertHistory(ctx context.Context, e *models.AlertHistoryEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return err
	}

	if _, err := s.q.Exec(ctx, insertHistorySQL,
		e.ID, e.AlertID, e.Event, e.Actor, details, e.Timestamp); err != nil {
		return fmt.Errorf("failed to append history for alert %s: %w", e.AlertID, err)
	}

	return nil
}

func (s *Store) ListAlertHistory(ctx context.Context, alertID string) ([]*models.AlertHistoryEntry, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, alert_id, event, actor, details, timestamp FROM alert_history
		 WHERE alert_id = $1 ORDER BY timestamp`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AlertHistoryEntry

	for rows.Next() {
		var (
			e       models.AlertHistoryEntry
			details []byte
		)

		if err := rows.Scan(&e.ID, &e.AlertID, &e.Event, &e.Actor, &details, &e.Timestamp); err != nil {
			return nil, err
		}

		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("bad details for history %s: %w", e.ID, err)
			}
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
