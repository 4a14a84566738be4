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

const ruleColumns = `id, name, severity, enabled, device_filter, conditions,
delay_s, interval_s, recovery, acknowledgeable, suppressable, translations`

const insertRuleSQL = `INSERT INTO alert_rules (` + ruleColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

const updateRuleSQL = `UPDATE alert_rules SET
name = $2, severity = $3, enabled = $4, device_filter = $5, conditions = $6,
delay_s = $7, interval_s = $8, recovery = $9, acknowledgeable = $10,
suppressable = $11, translations = $12
WHERE id = $1`

func scanRule(row pgx.Row) (*models.AlertRule, error) {
	var (
		r            models.AlertRule
		filterJSON   []byte
		condJSON     []byte
		translations []byte
	)

	err := row.Scan(&r.ID, &r.Name, &r.Severity, &r.Enabled, &filterJSON, &condJSON,
		&r.DelaySeconds, &r.IntervalS, &r.Recovery, &r.Acknowledgeable,
		&r.Suppressable, &translations)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	if len(filterJSON) > 0 {
		if err := json.Unmarshal(filterJSON, &r.DeviceFilter); err != nil {
			return nil, fmt.Errorf("bad device_filter for rule %s: %w", r.ID, err)
		}
	}

	if len(condJSON) > 0 {
		if err := json.Unmarshal(condJSON, &r.Conditions); err != nil {
			return nil, fmt.Errorf("bad conditions for rule %s: %w", r.ID, err)
		}
	}

	if len(translations) > 0 {
		if err := json.Unmarshal(translations, &r.Translations); err != nil {
			return nil, fmt.Errorf("bad translations for rule %s: %w", r.ID, err)
		}
	}

	return &r, nil
}

func ruleArgs(r *models.AlertRule) ([]any, error) {
	filterJSON, err := json.Marshal(r.DeviceFilter)
	if err != nil {
		return nil, err
	}

	condJSON, err := json.Marshal(r.Conditions)
	if err != nil {
		return nil, err
	}

	translations, err := json.Marshal(r.Translations)
	if err != nil {
		return nil, err
	}

	return []any{
		r.ID, r.Name, r.Severity, r.Enabled, filterJSON, condJSON,
		r.DelaySeconds, r.IntervalS, r.Recovery, r.Acknowledgeable,
		r.Suppressable, translations,
	}, nil
}

func (s *Store) GetRule(ctx context.Context, id string) (*models.AlertRule, error) {
	return scanRule(s.q.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM alert_rules WHERE id = $1`, id))
}

// ListRules returns rules, optionally restricted to enabled ones.
func (s *Store) ListRules(ctx context.Context, enabledOnly bool) ([]*models.AlertRule, error) {
	sql := `SELECT ` + ruleColumns + ` FROM alert_rules`
	if enabledOnly {
		sql += ` WHERE enabled = true`
	}

	sql += ` ORDER BY name`

	rows, err := s.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*models.AlertRule

	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}

		rules = append(rules, r)
	}

	return rules, rows.Err()
}

func (s *Store) CreateRule(ctx context.Context, r *models.AlertRule) error {
	args, err := ruleArgs(r)
	if err != nil {
		return err
	}

	if _, err := s.q.Exec(ctx, insertRuleSQL, args...); err != nil {
		return fmt.Errorf("failed to insert rule %s: %w", r.ID, mapInsertErr(err))
	}

	return nil
}

func (s *Store) UpdateRule(ctx context.Context, r *models.AlertRule) error {
	args, err := ruleArgs(r)
	if err != nil {
		return err
	}

	tag, err := s.q.Exec(ctx, updateRuleSQL, args...)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", r.ID, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteRule refuses to remove a rule that still has open or acknowledged
// alerts.
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	var active int

	err := s.q.QueryRow(ctx,
		`SELECT count(*) FROM alerts
		 WHERE rule_id = $1 AND state IN ('open', 'acknowledged')`, id).Scan(&active)
	if err != nil {
		return err
	}

	if active > 0 {
		return fmt.Errorf("%w: %d active", ErrRuleHasAlerts, active)
	}

	tag, err := s.q.Exec(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
