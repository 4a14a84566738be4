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

// Package config loads the monitor's JSON configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ymonitor/ymonitor/pkg/alerting"
	"github.com/ymonitor/ymonitor/pkg/db"
	"github.com/ymonitor/ymonitor/pkg/discovery"
	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/poller"
)

var errNoDatabase = errors.New("config: database section is required")

// NatsConfig points the alert event publisher at a JetStream server.
// Empty URL disables publishing.
type NatsConfig struct {
	URL    string `json:"url"`
	Stream string `json:"stream"`
}

// SnmpConfig tunes the shared SNMP engine.
type SnmpConfig struct {
	CacheTTL models.Duration `json:"cache_ttl"`
}

// Config is the top-level configuration file.
type Config struct {
	ListenAddr string           `json:"listen_addr"`
	Logging    logger.Config    `json:"logging"`
	Database   db.Config        `json:"database"`
	Snmp       SnmpConfig       `json:"snmp"`
	Discovery  discovery.Config `json:"discovery"`
	Poller     poller.Config    `json:"poller"`
	Alerting   alerting.Config  `json:"alerting"`
	Nats       NatsConfig       `json:"nats"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	var cfg Config

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the sections the monitor cannot default.
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.Database == "" {
		return errNoDatabase
	}

	return nil
}
