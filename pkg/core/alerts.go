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
	"time"

	"github.com/ymonitor/ymonitor/pkg/db"
	"github.com/ymonitor/ymonitor/pkg/models"
)

// ListAlerts returns alerts newest-first, optionally filtered by state.
func (m *Monitor) ListAlerts(ctx context.Context, states []models.AlertState, limit int) ([]*models.Alert, error) {
	alerts, err := m.store.ListAlerts(ctx, states, limit)
	if err != nil {
		return nil, internalErr("failed to list alerts", err)
	}

	return alerts, nil
}

// GetAlert returns one alert with its full history.
func (m *Monitor) GetAlert(ctx context.Context, id string) (*models.Alert, []*models.AlertHistoryEntry, error) {
	alert, err := m.getAlert(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	history, err := m.store.ListAlertHistory(ctx, id)
	if err != nil {
		return nil, nil, internalErr("failed to load alert history", err)
	}

	return alert, history, nil
}

// ResolveAlert closes an alert on behalf of an operator.
func (m *Monitor) ResolveAlert(ctx context.Context, id, actor string) (*models.Alert, error) {
	alert, err := m.getAlert(ctx, id)
	if err != nil {
		return nil, err
	}

	if alert.State == models.AlertResolved {
		return nil, conflictErr("alert is already resolved", nil)
	}

	if err := m.alerts.Resolve(ctx, alert, actor, "resolved by operator"); err != nil {
		return nil, internalErr("failed to resolve alert", err)
	}

	return alert, nil
}

// AcknowledgeAlert marks an open alert as acknowledged. Acknowledging an
// already-acknowledged alert is a no-op.
func (m *Monitor) AcknowledgeAlert(ctx context.Context, id, actor string) (*models.Alert, error) {
	alert, err := m.getAlert(ctx, id)
	if err != nil {
		return nil, err
	}

	switch alert.State {
	case models.AlertAcknowledged:
		return alert, nil
	case models.AlertResolved:
		return nil, conflictErr("alert is already resolved", nil)
	}

	if rule := m.ruleFor(ctx, alert); rule != nil && !rule.Acknowledgeable {
		return nil, validationErr("rule %s does not allow acknowledgement", alert.RuleID)
	}

	if err := m.alerts.Acknowledge(ctx, alert, actor); err != nil {
		return nil, internalErr("failed to acknowledge alert", err)
	}

	return alert, nil
}

// SuppressAlert parks an alert until the given deadline. The evaluator
// reverts it to open once the window passes.
func (m *Monitor) SuppressAlert(ctx context.Context, id string, until time.Time, actor string) (*models.Alert, error) {
	if !until.After(time.Now()) {
		return nil, validationErr("suppression deadline must be in the future")
	}

	alert, err := m.getAlert(ctx, id)
	if err != nil {
		return nil, err
	}

	if alert.State == models.AlertResolved {
		return nil, conflictErr("alert is already resolved", nil)
	}

	if rule := m.ruleFor(ctx, alert); rule != nil && !rule.Suppressable {
		return nil, validationErr("rule %s does not allow suppression", alert.RuleID)
	}

	if err := m.alerts.Suppress(ctx, alert, until, actor); err != nil {
		return nil, internalErr("failed to suppress alert", err)
	}

	return alert, nil
}

func (m *Monitor) getAlert(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := m.store.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, notFoundErr("alert", id)
		}

		return nil, internalErr("failed to load alert", err)
	}

	return alert, nil
}

// ruleFor loads the alert's rule; alerts may outlive their rule, in
// which case the rule's restrictions no longer apply.
func (m *Monitor) ruleFor(ctx context.Context, alert *models.Alert) *models.AlertRule {
	rule, err := m.store.GetRule(ctx, alert.RuleID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			m.logger.Warn().Err(err).Str("rule_id", alert.RuleID).Msg("rule lookup failed")
		}

		return nil
	}

	return rule
}
