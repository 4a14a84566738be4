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

// Package discovery interrogates devices over SNMP through pluggable
// modules orchestrated by per-device sessions.
package discovery

import (
	"context"
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// SessionType describes how a discovery session was requested.
type SessionType string

const (
	SessionFull        SessionType = "full"
	SessionIncremental SessionType = "incremental"
	SessionModule      SessionType = "module"
)

// SessionStatus is the lifecycle state of a discovery session.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// Item is one discovered artifact (port, sensor, entity, neighbor...).
type Item struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

// Result is the outcome of one module run within a session.
type Result struct {
	Success    bool      `json:"success"`
	Module     string    `json:"module"`
	DeviceID   string    `json:"device_id"`
	Discovered []Item    `json:"discovered"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Session tracks one discovery run against a device. Sessions are
// process-scoped and retained for 24 h after completion.
type Session struct {
	ID              string        `json:"id"`
	DeviceID        string        `json:"device_id"`
	Type            SessionType   `json:"type"`
	SelectedModules []string      `json:"selected_modules"`
	Status          SessionStatus `json:"status"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	CurrentModule   string        `json:"current_module,omitempty"`
	Results         []*Result     `json:"results"`
	Errors          []string      `json:"errors,omitempty"`
	Progress        float64       `json:"progress"`

	cancel context.CancelFunc
}

// OSDetection is the result of fingerprinting a device.
type OSDetection struct {
	OS         string `json:"os"`
	Confidence int    `json:"confidence"`
}

// Inventory is the slice of the persistence layer the discovery modules
// mutate. Implemented by pkg/db.
type Inventory interface {
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	UpdateDevice(ctx context.Context, device *models.Device) error

	ListPorts(ctx context.Context, deviceID string) ([]*models.Port, error)
	UpsertPort(ctx context.Context, port *models.Port) error
	// DisablePortsExcept marks ports whose ifIndex is absent from keep as
	// disabled and returns how many were disabled.
	DisablePortsExcept(ctx context.Context, deviceID string, keep []int32) (int, error)

	ListSensors(ctx context.Context, deviceID string) ([]*models.Sensor, error)
	UpsertSensor(ctx context.Context, sensor *models.Sensor) error

	UpsertEntity(ctx context.Context, entity *models.PhysicalEntity) error

	ListTopology(ctx context.Context, deviceID string) ([]*models.TopologyLink, error)
	UpsertTopologyLink(ctx context.Context, link *models.TopologyLink) error
	// PruneTopology deactivates links last updated before cutoff and
	// returns how many were pruned.
	PruneTopology(ctx context.Context, deviceID string, cutoff time.Time) (int, error)
}

// Module is one per-concern discovery step. Modules run in ascending
// Priority order and only when every dependency succeeded earlier in the
// same session.
type Module interface {
	Name() string
	Description() string
	Dependencies() []string
	Priority() int
	CanDiscover(device *models.Device) bool
	Discover(ctx context.Context, device *models.Device, templates []*OSTemplate) *Result
	Validate(result *Result) bool
}

// Config tunes the discovery engine.
type Config struct {
	MaxActiveSessions int             `json:"max_active_sessions"`
	SessionRetention  models.Duration `json:"session_retention"`
	TemplateDir       string          `json:"template_dir"`

	// RediscoveryInterval schedules periodic incremental discovery of
	// every enabled device. Zero disables it.
	RediscoveryInterval models.Duration `json:"rediscovery_interval"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.MaxActiveSessions <= 0 {
		c.MaxActiveSessions = 10
	}

	if c.SessionRetention <= 0 {
		c.SessionRetention = models.Duration(24 * time.Hour)
	}
}
