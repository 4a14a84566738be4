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

package notify

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/ymonitor/ymonitor/pkg/alerting"
	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
)

var templateRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

const defaultHTTPTimeout = 15 * time.Second

// Dispatcher resolves the applicable transports for an alert and invokes
// their adapters. Failed deliveries are recorded on the notification
// row; the dispatcher never retries, the next rule tick re-enters.
type Dispatcher struct {
	store    Store
	adapters map[models.TransportType]Adapter
	logger   logger.Logger
}

// NewDispatcher wires the default adapter set over a shared HTTP client.
func NewDispatcher(store Store, log logger.Logger) *Dispatcher {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}

	return &Dispatcher{
		store: store,
		adapters: map[models.TransportType]Adapter{
			models.TransportEmail:    NewEmailAdapter(),
			models.TransportWebhook:  NewWebhookAdapter(httpClient),
			models.TransportSlack:    NewSlackAdapter(httpClient),
			models.TransportTelegram: NewTelegramAdapter(httpClient),
			models.TransportTeams:    NewTeamsAdapter(httpClient),
			models.TransportSMS:      NewSMSAdapter(nil),
		},
		logger: log.WithComponent("notify"),
	}
}

// RegisterAdapter overrides the adapter for a transport type.
func (d *Dispatcher) RegisterAdapter(transportType models.TransportType, adapter Adapter) {
	d.adapters[transportType] = adapter
}

// SendAlertNotifications fans the alert out to every applicable
// transport. When transportIDs is non-empty, only the intersection with
// the applicable set is used.
func (d *Dispatcher) SendAlertNotifications(ctx context.Context, alert *models.Alert, transportIDs []string) error {
	transports, err := d.store.ListTransports(ctx, true)
	if err != nil {
		return err
	}

	applicable := d.applicableTransports(alert, transports, transportIDs)
	if len(applicable) == 0 {
		return nil
	}

	device, err := d.store.GetDevice(ctx, alert.DeviceID)
	if err != nil {
		d.logger.Warn().Err(err).Str("device_id", alert.DeviceID).Msg("device lookup failed")

		device = nil
	}

	msg := &Message{
		Alert:     alert,
		Device:    device,
		Variables: buildVariables(alert, device),
	}

	sent := 0

	for _, transport := range applicable {
		if d.deliver(ctx, transport, msg) {
			sent++
		}
	}

	if sent > 0 {
		now := time.Now()
		alert.NotificationsSent += sent
		alert.LastNotificationSent = &now

		if err := d.store.UpdateAlert(ctx, alert); err != nil {
			d.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("notification bookkeeping failed")
		}
	}

	return nil
}

// applicableTransports filters on each transport's conditions evaluated
// against the alert's routing attributes.
func (d *Dispatcher) applicableTransports(
	alert *models.Alert, transports []*models.Transport, transportIDs []string) []*models.Transport {
	routing := map[string]interface{}{
		"severity":  string(alert.Severity),
		"state":     string(alert.State),
		"device_id": alert.DeviceID,
		"rule_id":   alert.RuleID,
	}

	var wanted map[string]bool

	if len(transportIDs) > 0 {
		wanted = make(map[string]bool, len(transportIDs))
		for _, id := range transportIDs {
			wanted[id] = true
		}
	}

	var applicable []*models.Transport

	for _, transport := range transports {
		if wanted != nil && !wanted[transport.ID] {
			continue
		}

		if !alerting.EvaluateTransportFilter(routing, transport.FilterConditions) {
			continue
		}

		applicable = append(applicable, transport)
	}

	return applicable
}

// deliver runs one adapter call with full notification bookkeeping.
// Returns true when the message went out.
func (d *Dispatcher) deliver(ctx context.Context, transport *models.Transport, msg *Message) bool {
	notification := &models.Notification{
		ID:          uuid.New().String(),
		AlertID:     msg.Alert.ID,
		TransportID: transport.ID,
		Status:      models.NotificationPending,
	}

	if err := d.store.InsertNotification(ctx, notification); err != nil {
		d.logger.Error().Err(err).Str("transport_id", transport.ID).Msg("notification insert failed")
		return false
	}

	adapter, ok := d.adapters[transport.Type]
	if !ok {
		d.failNotification(ctx, notification, "no adapter for transport type "+string(transport.Type))
		return false
	}

	now := time.Now()
	notification.Attempts++
	notification.LastAttempt = &now

	response, err := adapter.Send(ctx, transport, msg)
	if err != nil {
		d.failNotification(ctx, notification, err.Error())

		d.logger.Warn().Err(err).
			Str("transport_id", transport.ID).
			Str("type", string(transport.Type)).
			Str("alert_id", msg.Alert.ID).
			Msg("notification delivery failed")

		return false
	}

	sentAt := time.Now()
	notification.Status = models.NotificationSent
	notification.SentAt = &sentAt
	notification.Response = response

	if err := d.store.UpdateNotification(ctx, notification); err != nil {
		d.logger.Error().Err(err).Str("notification_id", notification.ID).Msg("notification update failed")
	}

	d.logger.Info().
		Str("transport_id", transport.ID).
		Str("type", string(transport.Type)).
		Str("alert_id", msg.Alert.ID).
		Msg("notification sent")

	return true
}

// SendTest delivers a synthetic info alert through one transport. No
// notification row is written; the adapter's receipt is returned as-is.
func (d *Dispatcher) SendTest(ctx context.Context, transport *models.Transport) (string, error) {
	adapter, ok := d.adapters[transport.Type]
	if !ok {
		return "", fmt.Errorf("no adapter for transport type %s", transport.Type)
	}

	now := time.Now()

	alert := &models.Alert{
		ID:            uuid.New().String(),
		Severity:      models.SeverityInfo,
		State:         models.AlertOpen,
		Title:         "Y Monitor test notification",
		Message:       "This is a test notification for transport " + transport.Name + ".",
		FirstOccurred: now,
		LastOccurred:  now,
		Occurrences:   1,
	}

	msg := &Message{Alert: alert, Variables: buildVariables(alert, nil)}

	return adapter.Send(ctx, transport, msg)
}

func (d *Dispatcher) failNotification(ctx context.Context, notification *models.Notification, reason string) {
	notification.Status = models.NotificationFailed
	notification.Error = reason

	if err := d.store.UpdateNotification(ctx, notification); err != nil {
		d.logger.Error().Err(err).Str("notification_id", notification.ID).Msg("notification update failed")
	}
}
