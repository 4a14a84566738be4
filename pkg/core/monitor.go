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

// Package core wires the monitor's subsystems together and exposes the
// programmatic operational surface consumed by an HTTP layer.
package core

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ymonitor/ymonitor/pkg/alerting"
	"github.com/ymonitor/ymonitor/pkg/config"
	"github.com/ymonitor/ymonitor/pkg/db"
	"github.com/ymonitor/ymonitor/pkg/discovery"
	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/notify"
	"github.com/ymonitor/ymonitor/pkg/poller"
	"github.com/ymonitor/ymonitor/pkg/snmp"
	"github.com/ymonitor/ymonitor/pkg/timeseries"
)

// Scheduled job names.
const (
	jobInterfaces  = "poll.interfaces"
	jobSensors     = "poll.sensors"
	jobDevices     = "poll.devices"
	jobAlerts      = "alerts.evaluate"
	jobRediscovery = "discovery.incremental"
)

// Monitor owns every subsystem for the lifetime of the process.
type Monitor struct {
	pool      *pgxpool.Pool
	store     *db.Store
	writer    timeseries.Writer
	client    snmp.Client
	discovery *discovery.Engine
	alerts    *alerting.Engine
	notifier  *notify.Dispatcher
	scheduler *poller.Scheduler
	publisher *alerting.NatsPublisher
	config    *config.Config
	logger    logger.Logger
}

// NewMonitor builds the full subsystem graph from configuration. The
// alert event publisher is only wired when a NATS URL is configured.
func NewMonitor(ctx context.Context, cfg *config.Config, log logger.Logger) (*Monitor, error) {
	pool, err := db.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	store := db.NewStore(pool, log)
	writer := timeseries.NewWriter(pool, log)

	client := snmp.NewCachingClient(
		snmp.NewClient(log),
		snmp.NewCache(cfg.Snmp.CacheTTL.Std()))

	discoveryEngine, err := discovery.NewEngine(client, store, cfg.Discovery, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var publisher *alerting.NatsPublisher

	if cfg.Nats.URL != "" {
		publisher, err = alerting.NewNatsPublisher(ctx, cfg.Nats.URL, cfg.Nats.Stream, log)
		if err != nil {
			discoveryEngine.Stop()
			pool.Close()

			return nil, err
		}
	}

	notifier := notify.NewDispatcher(store, log)

	var eventPublisher alerting.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}

	alertEngine := alerting.NewEngine(store, writer, notifier, eventPublisher, cfg.Alerting, log)

	interfacePoller := poller.NewInterfacePoller(client, store, writer, alertEngine, cfg.Poller, log)
	sensorPoller := poller.NewSensorPoller(client, store, writer, alertEngine, cfg.Poller, log)
	devicePoller := poller.NewDevicePoller(client, store, writer, alertEngine, cfg.Poller, log)

	pollerConfig := cfg.Poller
	pollerConfig.Defaults()

	alertConfig := cfg.Alerting
	alertConfig.Defaults()

	scheduler := poller.NewScheduler(log)
	scheduler.Add(jobInterfaces, pollerConfig.InterfaceInterval.Std(), interfacePoller.Run)
	scheduler.Add(jobSensors, pollerConfig.SensorInterval.Std(), sensorPoller.Run)
	scheduler.Add(jobDevices, pollerConfig.DeviceInterval.Std(), devicePoller.Run)
	scheduler.Add(jobAlerts, alertConfig.Interval.Std(), alertEngine.Tick)

	m := &Monitor{
		pool:      pool,
		store:     store,
		writer:    writer,
		client:    client,
		discovery: discoveryEngine,
		alerts:    alertEngine,
		notifier:  notifier,
		scheduler: scheduler,
		publisher: publisher,
		config:    cfg,
		logger:    log.WithComponent("core"),
	}

	if cfg.Discovery.RediscoveryInterval > 0 {
		scheduler.Add(jobRediscovery, cfg.Discovery.RediscoveryInterval.Std(), m.rediscoverAll)
	}

	return m, nil
}

// rediscoverAll kicks an incremental discovery session for every enabled
// device. Sessions the engine refuses (capacity, shutdown) are logged
// and skipped.
func (m *Monitor) rediscoverAll(ctx context.Context) {
	devices, err := m.store.ListDevices(ctx, true)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to list devices for rediscovery")
		return
	}

	for _, device := range devices {
		if ctx.Err() != nil {
			return
		}

		if _, err := m.discovery.Incremental(ctx, device.ID); err != nil {
			m.logger.Warn().Err(err).
				Str("device_id", device.ID).
				Msg("incremental discovery not started")
		}
	}
}

// Start launches the poll and evaluation schedules.
func (m *Monitor) Start(ctx context.Context) {
	m.scheduler.Start(ctx)
	m.logger.Info().Msg("monitor started")
}

// Stop shuts every subsystem down in dependency order.
func (m *Monitor) Stop() {
	m.scheduler.Stop()
	m.discovery.Stop()

	if m.publisher != nil {
		m.publisher.Close()
	}

	m.client.Close()
	m.pool.Close()
	m.logger.Info().Msg("monitor stopped")
}

// Events exposes the alert lifecycle queue.
func (m *Monitor) Events() <-chan *alerting.AlertEvent {
	return m.alerts.Events()
}
