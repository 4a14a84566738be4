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

// Severity orders alerts for display and transport filtering.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityOK       Severity = "ok"
)

// ConditionOp is a comparison operator inside a rule condition.
type ConditionOp string

const (
	OpEq      ConditionOp = "eq"
	OpNe      ConditionOp = "ne"
	OpGt      ConditionOp = "gt"
	OpGte     ConditionOp = "gte"
	OpLt      ConditionOp = "lt"
	OpLte     ConditionOp = "lte"
	OpLike    ConditionOp = "like"
	OpNotLike ConditionOp = "not_like"
	OpIn      ConditionOp = "in"
	OpNotIn   ConditionOp = "not_in"
)

// LogicalOp joins a condition to the running result of the ones before it.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "AND"
	LogicalOr  LogicalOp = "OR"
)

// Condition is one comparison in a rule's linear condition sequence.
// The first condition carries no Logical; later conditions combine
// left-associatively.
type Condition struct {
	Field   string      `json:"field"`
	Op      ConditionOp `json:"op"`
	Value   interface{} `json:"value"`
	Logical LogicalOp   `json:"logical,omitempty"`
}

// DeviceFilter restricts a rule to a subset of the fleet. Hostname
// patterns are case-insensitive regex; the other fields match exactly.
// Exclude inverts the match. A nil/empty filter matches every device.
type DeviceFilter struct {
	Hostname []string `json:"hostname,omitempty"`
	IP       []string `json:"ip,omitempty"`
	OS       []string `json:"os,omitempty"`
	Type     []string `json:"type,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	Location []string `json:"location,omitempty"`
	Exclude  bool     `json:"exclude,omitempty"`
}

// RuleTranslation holds the rendered alert title/message templates for one
// locale. Placeholders use {{key}} and resolve against the metric context.
type RuleTranslation struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// AlertRule is a user-defined rule evaluated on every alert tick.
type AlertRule struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Severity       Severity                   `json:"severity"`
	Enabled        bool                       `json:"enabled"`
	DeviceFilter   *DeviceFilter              `json:"device_filter,omitempty"`
	Conditions     []Condition                `json:"conditions"`
	DelaySeconds   int                        `json:"delay_s"`
	IntervalS      int                        `json:"interval_s"`
	Recovery       bool                       `json:"recovery"`
	Acknowledgeable bool                      `json:"acknowledgeable"`
	Suppressable   bool                       `json:"suppressable"`
	Translations   map[string]RuleTranslation `json:"translations,omitempty"`
}

// AlertState is the lifecycle state of an alert.
type AlertState string

const (
	AlertOpen         AlertState = "open"
	AlertAcknowledged AlertState = "acknowledged"
	AlertResolved     AlertState = "resolved"
	AlertSuppressed   AlertState = "suppressed"
)

// Active reports whether the state counts against the one-active-alert
// invariant per (rule, device).
func (s AlertState) Active() bool {
	return s == AlertOpen || s == AlertAcknowledged
}

// Alert is a triggered rule instance. At most one alert may be active per
// (RuleID, DeviceID).
type Alert struct {
	ID                   string            `json:"id"`
	RuleID               string            `json:"rule_id"`
	DeviceID             string            `json:"device_id"`
	Severity             Severity          `json:"severity"`
	State                AlertState        `json:"state"`
	Title                string            `json:"title"`
	Message              string            `json:"message"`
	Details              map[string]string `json:"details,omitempty"`
	FirstOccurred        time.Time         `json:"first_occurred"`
	LastOccurred         time.Time         `json:"last_occurred"`
	Occurrences          int               `json:"occurrences"`
	AcknowledgedAt       *time.Time        `json:"acknowledged_at,omitempty"`
	AcknowledgedBy       string            `json:"acknowledged_by,omitempty"`
	ResolvedAt           *time.Time        `json:"resolved_at,omitempty"`
	ResolvedBy           string            `json:"resolved_by,omitempty"`
	SuppressedUntil      *time.Time        `json:"suppressed_until,omitempty"`
	NotificationsSent    int               `json:"notifications_sent"`
	LastNotificationSent *time.Time        `json:"last_notification_sent,omitempty"`
	EscalationLevel      int               `json:"escalation_level"`
	CorrelationKey       string            `json:"correlation_key"`
}

// AlertHistoryEntry records a single state transition of an alert.
type AlertHistoryEntry struct {
	ID        string            `json:"id"`
	AlertID   string            `json:"alert_id"`
	Event     string            `json:"event"`
	Actor     string            `json:"actor,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
