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
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// Alert lifecycle event types published to the event stream.
const (
	EventAlertCreated  = "alert.created"
	EventAlertUpdated  = "alert.updated"
	EventAlertResolved = "alert.resolved"
)

// AlertEvent is one lifecycle transition, queued for the dispatcher and
// optionally published to JetStream.
type AlertEvent struct {
	Type      string        `json:"type"`
	Alert     *models.Alert `json:"alert"`
	Timestamp time.Time     `json:"timestamp"`
}

// Store is the slice of the relational layer the evaluator touches;
// implemented by pkg/db.
type Store interface {
	ListDevices(ctx context.Context, enabledOnly bool) ([]*models.Device, error)
	ListRules(ctx context.Context, enabledOnly bool) ([]*models.AlertRule, error)
	FindActiveAlert(ctx context.Context, ruleID, deviceID string) (*models.Alert, error)
	FindCurrentAlert(ctx context.Context, ruleID, deviceID string) (*models.Alert, error)
	InsertAlert(ctx context.Context, a *models.Alert) error
	UpdateAlert(ctx context.Context, a *models.Alert) error
	AppendAlertHistory(ctx context.Context, e *models.AlertHistoryEntry) error
	ListSuppressedAlerts(ctx context.Context) ([]*models.Alert, error)
}

// Notifier fans a new alert out to the configured transports;
// implemented by pkg/notify.
type Notifier interface {
	SendAlertNotifications(ctx context.Context, alert *models.Alert, transportIDs []string) error
}

// EventPublisher forwards lifecycle events to an external stream.
// Optional; a nil publisher disables it.
type EventPublisher interface {
	PublishAlertEvent(ctx context.Context, event *AlertEvent) error
}

// Config tunes the evaluator.
type Config struct {
	// Interval is the rule evaluation cadence.
	Interval models.Duration `json:"interval"`

	// CorrelationRetention bounds the in-memory correlation map.
	CorrelationRetention models.Duration `json:"correlation_retention"`

	// EventBuffer is the capacity of the lifecycle event queue.
	EventBuffer int `json:"event_buffer"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Interval <= 0 {
		c.Interval = models.Duration(time.Minute)
	}

	if c.CorrelationRetention <= 0 {
		c.CorrelationRetention = models.Duration(24 * time.Hour)
	}

	if c.EventBuffer <= 0 {
		c.EventBuffer = 256
	}
}
