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

// Package notify fans alerts out to the configured transports: email,
// webhook, Slack, Telegram, Teams and SMS.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// Store is the slice of the relational layer the dispatcher touches;
// implemented by pkg/db.
type Store interface {
	ListTransports(ctx context.Context, enabledOnly bool) ([]*models.Transport, error)
	InsertNotification(ctx context.Context, n *models.Notification) error
	UpdateNotification(ctx context.Context, n *models.Notification) error
	UpdateAlert(ctx context.Context, a *models.Alert) error
	GetDevice(ctx context.Context, id string) (*models.Device, error)
}

// Message is the rendered payload handed to an adapter.
type Message struct {
	Alert  *models.Alert
	Device *models.Device

	// Variables holds the template substitution set: the alert's core
	// fields plus every details entry.
	Variables map[string]string
}

// Adapter delivers a message over one transport type. The response is a
// short human-readable receipt stored on the notification row.
type Adapter interface {
	Send(ctx context.Context, transport *models.Transport, msg *Message) (response string, err error)
}

// buildVariables assembles the substitution set for one alert.
func buildVariables(alert *models.Alert, device *models.Device) map[string]string {
	vars := map[string]string{
		"id":          alert.ID,
		"title":       alert.Title,
		"message":     alert.Message,
		"severity":    string(alert.Severity),
		"state":       string(alert.State),
		"device_id":   alert.DeviceID,
		"timestamp":   alert.LastOccurred.Format(time.RFC3339),
		"occurrences": fmt.Sprintf("%d", alert.Occurrences),
	}

	if device != nil {
		vars["device"] = device.Hostname
	}

	for key, value := range alert.Details {
		vars[key] = value
	}

	return vars
}

// renderVars substitutes {{key}} placeholders from a flat variable map.
// Missing keys render as empty strings.
func renderVars(template string, vars map[string]string) string {
	return templateRe.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(strings.Trim(match, "{}"))
		return vars[key]
	})
}
