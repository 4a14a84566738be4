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

package core

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"

	"github.com/ymonitor/ymonitor/pkg/alerting"
	"github.com/ymonitor/ymonitor/pkg/db"
	"github.com/ymonitor/ymonitor/pkg/models"
)

var validOps = map[models.ConditionOp]bool{
	models.OpEq: true, models.OpNe: true,
	models.OpGt: true, models.OpGte: true,
	models.OpLt: true, models.OpLte: true,
	models.OpLike: true, models.OpNotLike: true,
	models.OpIn: true, models.OpNotIn: true,
}

// ListRules returns all rules, or only enabled ones.
func (m *Monitor) ListRules(ctx context.Context, enabledOnly bool) ([]*models.AlertRule, error) {
	rules, err := m.store.ListRules(ctx, enabledOnly)
	if err != nil {
		return nil, internalErr("failed to list rules", err)
	}

	return rules, nil
}

// CreateRule validates and persists a new rule. A missing ID is assigned.
func (m *Monitor) CreateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error) {
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := m.store.CreateRule(ctx, rule); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, conflictErr("rule already exists", err)
		}

		return nil, internalErr("failed to create rule", err)
	}

	m.logger.Info().Str("rule_id", rule.ID).Str("name", rule.Name).Msg("rule created")

	return rule, nil
}

// UpdateRule validates and replaces an existing rule.
func (m *Monitor) UpdateRule(ctx context.Context, rule *models.AlertRule) (*models.AlertRule, error) {
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := m.store.UpdateRule(ctx, rule); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, notFoundErr("rule", rule.ID)
		}

		return nil, internalErr("failed to update rule", err)
	}

	return rule, nil
}

// DeleteRule removes a rule. Rules with active alerts cannot be deleted.
func (m *Monitor) DeleteRule(ctx context.Context, id string) error {
	err := m.store.DeleteRule(ctx, id)

	switch {
	case err == nil:
		m.logger.Info().Str("rule_id", id).Msg("rule deleted")
		return nil
	case errors.Is(err, db.ErrRuleHasAlerts):
		return conflictErr("rule has active alerts", err)
	case errors.Is(err, db.ErrNotFound):
		return notFoundErr("rule", id)
	default:
		return internalErr("failed to delete rule", err)
	}
}

// TestRuleResult reports a dry-run evaluation.
type TestRuleResult struct {
	DeviceID string `json:"device_id"`
	Matched  bool   `json:"matched"`
}

// TestRule evaluates a rule against one device, or against every enabled
// device when deviceID is empty. Nothing is persisted.
func (m *Monitor) TestRule(ctx context.Context, rule *models.AlertRule, deviceID string) ([]*TestRuleResult, error) {
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	var devices []*models.Device

	if deviceID != "" {
		device, err := m.store.GetDevice(ctx, deviceID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, notFoundErr("device", deviceID)
			}

			return nil, internalErr("failed to load device", err)
		}

		devices = []*models.Device{device}
	} else {
		var err error

		devices, err = m.store.ListDevices(ctx, true)
		if err != nil {
			return nil, internalErr("failed to list devices", err)
		}
	}

	results := make([]*TestRuleResult, 0, len(devices))

	for _, device := range devices {
		if !alerting.MatchesDevice(rule.DeviceFilter, device) {
			results = append(results, &TestRuleResult{DeviceID: device.ID, Matched: false})
			continue
		}

		mc := m.alerts.ContextFor(device)
		results = append(results, &TestRuleResult{
			DeviceID: device.ID,
			Matched:  alerting.EvaluateConditions(mc, rule.Conditions),
		})
	}

	return results, nil
}

// validateRule enforces the structural invariants of a rule record.
func validateRule(rule *models.AlertRule) error {
	if rule == nil {
		return validationErr("rule is required")
	}

	if rule.Name == "" {
		return validationErr("rule name is required")
	}

	switch rule.Severity {
	case models.SeverityCritical, models.SeverityWarning, models.SeverityInfo, models.SeverityOK:
	default:
		return validationErr("invalid severity %q", rule.Severity)
	}

	if len(rule.Conditions) == 0 {
		return validationErr("rule needs at least one condition")
	}

	if rule.Conditions[0].Logical != "" {
		return validationErr("first condition must not carry a logical operator")
	}

	for i, cond := range rule.Conditions {
		if cond.Field == "" {
			return validationErr("condition %d has no field", i+1)
		}

		if !validOps[cond.Op] {
			return validationErr("condition %d has invalid operator %q", i+1, cond.Op)
		}
	}

	if rule.DeviceFilter != nil {
		for _, pattern := range rule.DeviceFilter.Hostname {
			if _, err := regexp.Compile("(?i)" + pattern); err != nil {
				return validationErr("bad hostname pattern %q", pattern)
			}
		}
	}

	return nil
}
