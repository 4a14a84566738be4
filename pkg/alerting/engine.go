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

package alerting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ymonitor/ymonitor/pkg/db"
	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/poller"
	"github.com/ymonitor/ymonitor/pkg/timeseries"
)

// Engine evaluates rules on a fixed tick and owns the alert lifecycle.
// It receives poll samples through the poller.Sink interface and keeps
// the latest sample per key for context building.
type Engine struct {
	store     Store
	writer    timeseries.Writer
	notifier  Notifier
	publisher EventPublisher
	config    Config
	logger    logger.Logger

	mu               sync.Mutex
	deviceSamples    map[string]*models.DeviceMetrics
	interfaceSamples map[string]map[int32]*models.InterfaceMetrics
	sensorSamples    map[string]map[string]*models.SensorReading
	pending          map[string]time.Time
	correlation      map[string]*correlationEntry

	events chan *AlertEvent
}

// correlationEntry groups alerts sharing a correlation key.
type correlationEntry struct {
	alertIDs []string
	expires  time.Time
}

// NewEngine wires the evaluator. Notifier and publisher may be nil.
func NewEngine(
	store Store,
	writer timeseries.Writer,
	notifier Notifier,
	publisher EventPublisher,
	config Config,
	log logger.Logger) *Engine {
	config.Defaults()

	return &Engine{
		store:            store,
		writer:           writer,
		notifier:         notifier,
		publisher:        publisher,
		config:           config,
		logger:           log.WithComponent("alerting"),
		deviceSamples:    make(map[string]*models.DeviceMetrics),
		interfaceSamples: make(map[string]map[int32]*models.InterfaceMetrics),
		sensorSamples:    make(map[string]map[string]*models.SensorReading),
		pending:          make(map[string]time.Time),
		correlation:      make(map[string]*correlationEntry),
		events:           make(chan *AlertEvent, config.EventBuffer),
	}
}

// Events exposes the lifecycle event queue for consumers.
func (e *Engine) Events() <-chan *AlertEvent {
	return e.events
}

// ObserveInterface retains the latest interface sample per (device, ifIndex).
func (e *Engine) ObserveInterface(m *models.InterfaceMetrics) {
	e.mu.Lock()
	defer e.mu.Unlock()

	perDevice, ok := e.interfaceSamples[m.DeviceID]
	if !ok {
		perDevice = make(map[int32]*models.InterfaceMetrics)
		e.interfaceSamples[m.DeviceID] = perDevice
	}

	perDevice[m.IfIndex] = m
}

// ObserveSensor retains the latest sensor reading per (device, sensor).
func (e *Engine) ObserveSensor(r *models.SensorReading) {
	e.mu.Lock()
	defer e.mu.Unlock()

	perDevice, ok := e.sensorSamples[r.DeviceID]
	if !ok {
		perDevice = make(map[string]*models.SensorReading)
		e.sensorSamples[r.DeviceID] = perDevice
	}

	perDevice[r.SensorID] = r
}

// ObserveDevice retains the latest status sample per device.
func (e *Engine) ObserveDevice(m *models.DeviceMetrics) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.deviceSamples[m.DeviceID] = m
}

// Trigger handles a synthetic threshold breach from a poller. Synthetic
// rules have no delay: the alert opens, or re-occurs, immediately.
func (e *Engine) Trigger(t *poller.SyntheticTrigger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := e.findCurrent(ctx, t.RuleID, t.DeviceID)
	if err != nil {
		e.logger.Error().Err(err).Str("rule_id", t.RuleID).Msg("alert lookup failed")
		return
	}

	now := time.Now()

	if existing != nil && existing.State == models.AlertSuppressed {
		return
	}

	if existing != nil {
		existing.Occurrences++
		existing.LastOccurred = now
		existing.Details = t.Details

		if err := e.store.UpdateAlert(ctx, existing); err != nil {
			e.logger.Error().Err(err).Str("alert_id", existing.ID).Msg("alert update failed")
		}

		return
	}

	alert := &models.Alert{
		ID:             uuid.New().String(),
		RuleID:         t.RuleID,
		DeviceID:       t.DeviceID,
		Severity:       t.Severity,
		State:          models.AlertOpen,
		Title:          t.Title,
		Message:        t.Message,
		Details:        t.Details,
		FirstOccurred:  now,
		LastOccurred:   now,
		Occurrences:    1,
		CorrelationKey: t.RuleID + ":" + t.DeviceID,
	}

	e.openAlert(ctx, alert)
}

// Tick runs one evaluation pass over all enabled devices and rules.
func (e *Engine) Tick(ctx context.Context) {
	e.revertExpiredSuppressions(ctx)
	e.pruneCorrelation()

	rules, err := e.store.ListRules(ctx, true)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to load rules")
		return
	}

	devices, err := e.store.ListDevices(ctx, true)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to load devices")
		return
	}

	for _, device := range devices {
		if ctx.Err() != nil {
			return
		}

		mc := e.ContextFor(device)

		for _, rule := range rules {
			if !MatchesDevice(rule.DeviceFilter, device) {
				continue
			}

			e.applyRule(ctx, rule, device, mc)
		}
	}
}

// ContextFor snapshots the latest samples for one device. Dry-run rule
// evaluation uses the same context the tick would see.
func (e *Engine) ContextFor(device *models.Device) MetricContext {
	e.mu.Lock()
	defer e.mu.Unlock()

	return buildContext(device,
		e.deviceSamples[device.ID],
		e.interfaceSamples[device.ID],
		e.sensorSamples[device.ID])
}

// applyRule implements the trigger state machine for one (rule, device).
func (e *Engine) applyRule(ctx context.Context, rule *models.AlertRule, device *models.Device, mc MetricContext) {
	key := rule.ID + ":" + device.ID
	matched := EvaluateConditions(mc, rule.Conditions)

	existing, err := e.findCurrent(ctx, rule.ID, device.ID)
	if err != nil {
		e.logger.Error().Err(err).Str("rule_id", rule.ID).Msg("alert lookup failed")
		return
	}

	// A suppressed alert is invisible to the evaluator until its window
	// expires: no occurrence updates, no recovery, no duplicate alert.
	if existing != nil && existing.State == models.AlertSuppressed {
		e.mu.Lock()
		delete(e.pending, key)
		e.mu.Unlock()

		return
	}

	now := time.Now()

	if !matched {
		e.mu.Lock()
		delete(e.pending, key)
		e.mu.Unlock()

		if rule.Recovery && existing != nil {
			if err := e.Resolve(ctx, existing, "system", "conditions no longer met"); err != nil {
				e.logger.Error().Err(err).Str("alert_id", existing.ID).Msg("alert resolve failed")
			}
		}

		return
	}

	if existing != nil {
		existing.Occurrences++
		existing.LastOccurred = now
		existing.Details = detailsFromContext(mc)

		if err := e.store.UpdateAlert(ctx, existing); err != nil {
			e.logger.Error().Err(err).Str("alert_id", existing.ID).Msg("alert update failed")
		}

		return
	}

	if rule.DelaySeconds > 0 {
		e.mu.Lock()
		expiry, waiting := e.pending[key]

		if !waiting {
			e.pending[key] = now.Add(time.Duration(rule.DelaySeconds) * time.Second)
			e.mu.Unlock()

			return
		}

		if now.Before(expiry) {
			e.mu.Unlock()
			return
		}

		delete(e.pending, key)
		e.mu.Unlock()
	}

	title, message := renderTitleMessage(rule, mc)

	alert := &models.Alert{
		ID:             uuid.New().String(),
		RuleID:         rule.ID,
		DeviceID:       device.ID,
		Severity:       rule.Severity,
		State:          models.AlertOpen,
		Title:          title,
		Message:        message,
		Details:        detailsFromContext(mc),
		FirstOccurred:  now,
		LastOccurred:   now,
		Occurrences:    1,
		CorrelationKey: key,
	}

	e.openAlert(ctx, alert)
}

// openAlert persists a new alert and runs the creation side effects:
// history entry, correlation tracking, metric, event, notification fan-out.
func (e *Engine) openAlert(ctx context.Context, alert *models.Alert) {
	if err := e.store.InsertAlert(ctx, alert); err != nil {
		e.logger.Error().Err(err).Str("rule_id", alert.RuleID).Msg("alert insert failed")
		return
	}

	e.appendHistory(ctx, alert.ID, "created", "system", alert.Details)
	e.trackCorrelation(alert)

	if err := e.writer.WriteAlertMetric(ctx, alert.DeviceID, alert.RuleID, alert.Severity, 1); err != nil {
		e.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("alert metric write failed")
	}

	e.emit(ctx, &AlertEvent{Type: EventAlertCreated, Alert: alert, Timestamp: time.Now()})

	e.logger.Info().
		Str("alert_id", alert.ID).
		Str("rule_id", alert.RuleID).
		Str("device_id", alert.DeviceID).
		Str("severity", string(alert.Severity)).
		Msg("alert opened")

	if e.notifier != nil {
		if err := e.notifier.SendAlertNotifications(ctx, alert, nil); err != nil {
			e.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("notification dispatch failed")
		}
	}
}

// Resolve transitions an active alert to resolved on behalf of an
// actor, either "system" or an operator.
func (e *Engine) Resolve(ctx context.Context, alert *models.Alert, actor, note string) error {
	now := time.Now()

	alert.State = models.AlertResolved
	alert.ResolvedAt = &now
	alert.ResolvedBy = actor

	if err := e.store.UpdateAlert(ctx, alert); err != nil {
		return err
	}

	e.appendHistory(ctx, alert.ID, "resolved", actor, map[string]string{"note": note})
	e.emit(ctx, &AlertEvent{Type: EventAlertResolved, Alert: alert, Timestamp: now})

	e.logger.Info().
		Str("alert_id", alert.ID).
		Str("resolved_by", actor).
		Msg("alert resolved")

	return nil
}

// Acknowledge marks an open alert as seen by an operator.
func (e *Engine) Acknowledge(ctx context.Context, alert *models.Alert, actor string) error {
	now := time.Now()

	alert.State = models.AlertAcknowledged
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = actor

	if err := e.store.UpdateAlert(ctx, alert); err != nil {
		return err
	}

	e.appendHistory(ctx, alert.ID, "acknowledged", actor, nil)
	e.emit(ctx, &AlertEvent{Type: EventAlertUpdated, Alert: alert, Timestamp: now})

	return nil
}

// Suppress parks an alert until the deadline. The tick reverts it to
// open once the window has passed.
func (e *Engine) Suppress(ctx context.Context, alert *models.Alert, until time.Time, actor string) error {
	alert.State = models.AlertSuppressed
	alert.SuppressedUntil = &until

	if err := e.store.UpdateAlert(ctx, alert); err != nil {
		return err
	}

	e.appendHistory(ctx, alert.ID, "suppressed", actor,
		map[string]string{"until": until.Format(time.RFC3339)})
	e.emit(ctx, &AlertEvent{Type: EventAlertUpdated, Alert: alert, Timestamp: time.Now()})

	return nil
}

// revertExpiredSuppressions flips suppressed alerts whose window has
// passed back to open.
func (e *Engine) revertExpiredSuppressions(ctx context.Context) {
	suppressed, err := e.store.ListSuppressedAlerts(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to list suppressed alerts")
		return
	}

	now := time.Now()

	for _, alert := range suppressed {
		if alert.SuppressedUntil != nil && now.Before(*alert.SuppressedUntil) {
			continue
		}

		// Reopening must not break the one-active-alert invariant per
		// (rule, device); a newer active alert supersedes this one.
		active, err := e.findActive(ctx, alert.RuleID, alert.DeviceID)
		if err != nil {
			e.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("active alert lookup failed")
			continue
		}

		if active != nil {
			if err := e.Resolve(ctx, alert, "system", "superseded by a newer active alert"); err != nil {
				e.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("alert resolve failed")
			}

			continue
		}

		alert.State = models.AlertOpen
		alert.SuppressedUntil = nil

		if err := e.store.UpdateAlert(ctx, alert); err != nil {
			e.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("unsuppress failed")
			continue
		}

		e.appendHistory(ctx, alert.ID, "unsuppressed", "system", nil)
		e.emit(ctx, &AlertEvent{Type: EventAlertUpdated, Alert: alert, Timestamp: now})
	}
}

// CorrelatedAlerts returns the alert IDs currently grouped under a key.
func (e *Engine) CorrelatedAlerts(key string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.correlation[key]
	if !ok {
		return nil
	}

	return append([]string(nil), entry.alertIDs...)
}

func (e *Engine) trackCorrelation(alert *models.Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.correlation[alert.CorrelationKey]
	if !ok {
		entry = &correlationEntry{}
		e.correlation[alert.CorrelationKey] = entry
	}

	entry.alertIDs = append(entry.alertIDs, alert.ID)
	entry.expires = time.Now().Add(e.config.CorrelationRetention.Std())
}

func (e *Engine) pruneCorrelation() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()

	for key, entry := range e.correlation {
		if now.After(entry.expires) {
			delete(e.correlation, key)
		}
	}
}

func (e *Engine) appendHistory(ctx context.Context, alertID, event, actor string, details map[string]string) {
	entry := &models.AlertHistoryEntry{
		ID:        uuid.New().String(),
		AlertID:   alertID,
		Event:     event,
		Actor:     actor,
		Details:   details,
		Timestamp: time.Now(),
	}

	if err := e.store.AppendAlertHistory(ctx, entry); err != nil {
		e.logger.Error().Err(err).Str("alert_id", alertID).Msg("history append failed")
	}
}

// emit queues the event and forwards it to the external publisher. A
// full queue drops the event with a warning; consumers are best-effort.
func (e *Engine) emit(ctx context.Context, event *AlertEvent) {
	select {
	case e.events <- event:
	default:
		e.logger.Warn().Str("type", event.Type).Msg("event queue full, event dropped")
	}

	if e.publisher != nil {
		if err := e.publisher.PublishAlertEvent(ctx, event); err != nil {
			e.logger.Error().Err(err).Str("type", event.Type).Msg("event publish failed")
		}
	}
}

// findActive maps the store's not-found to a nil alert.
func (e *Engine) findActive(ctx context.Context, ruleID, deviceID string) (*models.Alert, error) {
	alert, err := e.store.FindActiveAlert(ctx, ruleID, deviceID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}

	return alert, err
}

// findCurrent is findActive widened to include suppressed alerts.
func (e *Engine) findCurrent(ctx context.Context, ruleID, deviceID string) (*models.Alert, error) {
	alert, err := e.store.FindCurrentAlert(ctx, ruleID, deviceID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}

	return alert, err
}

// detailsFromContext flattens the device section of the context into the
// alert's details map.
func detailsFromContext(mc MetricContext) map[string]string {
	details := make(map[string]string)

	node, ok := mc["device"].(map[string]interface{})
	if !ok {
		return details
	}

	for key := range node {
		details[key] = RenderTemplate("{{device."+key+"}}", mc)
	}

	return details
}
