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

package models

import "time"

// TransportType identifies a notification channel.
type TransportType string

const (
	TransportEmail    TransportType = "email"
	TransportWebhook  TransportType = "webhook"
	TransportSlack    TransportType = "slack"
	TransportTelegram TransportType = "telegram"
	TransportSMS      TransportType = "sms"
	TransportTeams    TransportType = "teams"
)

// TransportConfig is the union of per-type adapter settings. Only the
// fields for the transport's type are consulted.
type TransportConfig struct {
	// email
	SMTPHost   string   `json:"smtp_host,omitempty"`
	SMTPPort   int      `json:"smtp_port,omitempty"`
	SMTPUser   string   `json:"smtp_user,omitempty"`
	SMTPPass   string   `json:"smtp_pass,omitempty"`
	From       string   `json:"from,omitempty"`
	Recipients []string `json:"recipients,omitempty"`

	// webhook
	URL     string            `json:"url,omitempty"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`

	// slack
	WebhookURL string `json:"webhook_url,omitempty"`
	Channel    string `json:"channel,omitempty"`

	// telegram
	BotToken string `json:"bot_token,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`

	// teams
	WebhookURLTeams string `json:"webhook_url_teams,omitempty"`

	// sms
	SMSRecipients []string `json:"sms_recipients,omitempty"`
	SMSProvider   string   `json:"sms_provider,omitempty"`
}

// Transport is a configured notification channel with optional filter
// conditions evaluated against {severity, state, device_id, rule_id}.
type Transport struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Type             TransportType   `json:"type"`
	Enabled          bool            `json:"enabled"`
	Config           TransportConfig `json:"config"`
	FilterConditions []Condition     `json:"filter_conditions,omitempty"`
}

// NotificationStatus is the delivery state of one notification attempt row.
type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationSent     NotificationStatus = "sent"
	NotificationFailed   NotificationStatus = "failed"
	NotificationRetrying NotificationStatus = "retrying"
)

// Notification is the per-(alert, transport) delivery record.
type Notification struct {
	ID          string             `json:"id"`
	AlertID     string             `json:"alert_id"`
	TransportID string             `json:"transport_id"`
	Status      NotificationStatus `json:"status"`
	Attempts    int                `json:"attempts"`
	LastAttempt *time.Time         `json:"last_attempt,omitempty"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
	Error       string             `json:"error,omitempty"`
	Response    string             `json:"response,omitempty"`
}
