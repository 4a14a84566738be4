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

package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ymonitor/ymonitor/pkg/logger"
	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

const sessionCleanupInterval = time.Hour

// incrementalModules are the only modules an incremental session runs.
var incrementalModules = []string{"ports", "sensors", "topology"}

// Engine orchestrates discovery sessions: one goroutine per session,
// modules in priority order, dependency-gated, cancellable at module
// boundaries.
type Engine struct {
	client    snmp.Client
	inventory Inventory
	templates *TemplateStore
	config    Config
	logger    logger.Logger

	mu       sync.RWMutex
	modules  map[string]Module
	sessions map[string]*Session

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEngine builds an engine with the standard module set registered.
func NewEngine(client snmp.Client, inventory Inventory, config Config, log logger.Logger) (*Engine, error) {
	config.Defaults()

	templates, err := NewTemplateStore(config.TemplateDir)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		client:    client,
		inventory: inventory,
		templates: templates,
		config:    config,
		logger:    log.WithComponent("discovery"),
		modules:   make(map[string]Module),
		sessions:  make(map[string]*Session),
		done:      make(chan struct{}),
	}

	for _, m := range []Module{
		NewCoreModule(client, inventory, log),
		NewPortsModule(client, inventory, log),
		NewSensorsModule(client, inventory, log),
		NewEntityModule(client, inventory, log),
		NewTopologyModule(client, inventory, log),
	} {
		e.modules[m.Name()] = m
	}

	e.wg.Add(1)
	go e.cleanupLoop()

	return e, nil
}

// Stop cancels running sessions and waits for them to finish.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)

		e.mu.Lock()
		for _, s := range e.sessions {
			if s.Status == SessionRunning && s.cancel != nil {
				s.cancel()
			}
		}
		e.mu.Unlock()

		e.wg.Wait()
	})
}

// DiscoverDevice starts a full (or module-selected) discovery session.
func (e *Engine) DiscoverDevice(ctx context.Context, deviceID string, modules []string) (*Session, error) {
	sessionType := SessionFull
	if len(modules) > 0 {
		sessionType = SessionModule
	}

	return e.startSession(ctx, deviceID, sessionType, modules)
}

// Incremental refreshes the volatile inventory only: ports, sensors and
// topology.
func (e *Engine) Incremental(ctx context.Context, deviceID string) (*Session, error) {
	return e.startSession(ctx, deviceID, SessionIncremental, incrementalModules)
}

func (e *Engine) startSession(
	ctx context.Context, deviceID string, sessionType SessionType, selected []string) (*Session, error) {
	select {
	case <-e.done:
		return nil, ErrEngineStopped
	default:
	}

	device, err := e.inventory.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}

	ordered, err := e.orderModules(selected)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ordered))
	for _, m := range ordered {
		names = append(names, m.Name())
	}

	session := &Session{
		ID:              uuid.New().String(),
		DeviceID:        deviceID,
		Type:            sessionType,
		SelectedModules: names,
		Status:          SessionRunning,
		StartedAt:       time.Now(),
	}

	runCtx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel

	e.mu.Lock()

	active := 0
	for _, s := range e.sessions {
		if s.Status == SessionRunning {
			active++
		}
	}

	if active >= e.config.MaxActiveSessions {
		e.mu.Unlock()
		cancel()

		return nil, ErrEngineAtCapacity
	}

	e.sessions[session.ID] = session
	e.mu.Unlock()

	e.wg.Add(1)

	go func() {
		defer e.wg.Done()
		defer cancel()
		e.run(runCtx, session, device, ordered)
	}()

	return session, nil
}

// orderModules resolves selected module names (empty = all) into
// ascending priority order.
func (e *Engine) orderModules(selected []string) ([]Module, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var ordered []Module

	if len(selected) == 0 {
		for _, m := range e.modules {
			ordered = append(ordered, m)
		}
	} else {
		for _, name := range selected {
			m, ok := e.modules[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
			}

			ordered = append(ordered, m)
		}
	}

	if len(ordered) == 0 {
		return nil, ErrNoModulesSelected
	}

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Priority() < ordered[j].Priority() })

	return ordered, nil
}

func (e *Engine) run(ctx context.Context, session *Session, device *models.Device, modules []Module) {
	log := e.logger.With().
		Str("session_id", session.ID).
		Str("device_id", device.ID).
		Logger()

	probe, err := e.client.TestConnection(ctx, device)
	if err != nil || !probe.Success {
		log.Warn().Msg("device unreachable, discovery aborted")
		e.finishSession(session, SessionFailed, ErrDeviceUnreachable.Error())

		return
	}

	templates := e.templates.LoadAll(device.OS)
	succeeded := make(map[string]bool, len(modules))
	attempted := 0
	failed := 0

	for i, module := range modules {
		if ctx.Err() != nil {
			e.finishSession(session, SessionCancelled, "")
			return
		}

		e.mu.Lock()
		session.CurrentModule = module.Name()
		session.Progress = float64(i) / float64(len(modules)) * 100
		e.mu.Unlock()

		if !module.CanDiscover(device) {
			log.Debug().Str("module", module.Name()).Msg("module not applicable, skipped")
			continue
		}

		if unmet := unmetDependency(module, succeeded); unmet != "" {
			e.appendSessionError(session,
				fmt.Sprintf("module %s skipped: dependency %s did not succeed", module.Name(), unmet))

			continue
		}

		attempted++

		// Core may rewrite the detected OS; later modules get the
		// matching template chain.
		if module.Name() != "core" {
			templates = e.templates.LoadAll(device.OS)
		}

		result := module.Discover(ctx, device, templates)

		e.mu.Lock()
		session.Results = append(session.Results, result)
		session.Errors = append(session.Errors, result.Errors...)
		e.mu.Unlock()

		if module.Validate(result) {
			succeeded[module.Name()] = true

			log.Info().
				Str("module", module.Name()).
				Int("discovered", len(result.Discovered)).
				Int64("duration_ms", result.DurationMS).
				Msg("module completed")
		} else {
			failed++

			log.Warn().
				Str("module", module.Name()).
				Strs("errors", result.Errors).
				Msg("module failed")
		}
	}

	if attempted > 0 && failed == attempted {
		e.finishSession(session, SessionFailed, ErrAllModulesFailed.Error())
		return
	}

	e.finishSession(session, SessionCompleted, "")
}

func unmetDependency(module Module, succeeded map[string]bool) string {
	for _, dep := range module.Dependencies() {
		if !succeeded[dep] {
			return dep
		}
	}

	return ""
}

func (e *Engine) appendSessionError(session *Session, msg string) {
	e.mu.Lock()
	session.Errors = append(session.Errors, msg)
	e.mu.Unlock()
}

func (e *Engine) finishSession(session *Session, status SessionStatus, errMsg string) {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	session.Status = status
	session.EndedAt = &now
	session.CurrentModule = ""

	if status == SessionCompleted {
		session.Progress = 100
	}

	if errMsg != "" {
		session.Errors = append(session.Errors, errMsg)
	}
}

// GetSession returns a snapshot of a session by ID.
func (e *Engine) GetSession(id string) (*Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	session, ok := e.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	snapshot := *session
	snapshot.Results = append([]*Result(nil), session.Results...)
	snapshot.Errors = append([]string(nil), session.Errors...)
	snapshot.cancel = nil

	return &snapshot, nil
}

// Cancel requests cancellation of a running session. The session moves
// to cancelled at the next module boundary.
func (e *Engine) Cancel(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	if session.Status != SessionRunning {
		return ErrSessionNotRunning
	}

	if session.cancel != nil {
		session.cancel()
	}

	return nil
}

// ModuleInfo describes one registered module for operators.
type ModuleInfo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies,omitempty"`
	Priority     int      `json:"priority"`
}

// AvailableModules lists registered modules in priority order.
func (e *Engine) AvailableModules() []ModuleInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]ModuleInfo, 0, len(e.modules))

	for _, m := range e.modules {
		infos = append(infos, ModuleInfo{
			Name:         m.Name(),
			Description:  m.Description(),
			Dependencies: m.Dependencies(),
			Priority:     m.Priority(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Priority < infos[j].Priority })

	return infos
}

// LoadOSTemplate exposes the template store for operators.
func (e *Engine) LoadOSTemplate(osName string) *OSTemplate {
	return e.templates.Load(osName)
}

// ProbeOS fingerprints a device live: a single GET of sysObjectID and
// sysDescr followed by signature matching.
func (e *Engine) ProbeOS(ctx context.Context, device *models.Device) (*OSDetection, error) {
	resp, err := e.client.Get(ctx, device, []string{oidSysObjectID, oidSysDescr})
	if err != nil || !resp.Success {
		return nil, ErrDeviceUnreachable
	}

	var sysObjectID, sysDescr string

	for _, vb := range resp.VarBinds {
		switch vb.OID {
		case oidSysObjectID:
			sysObjectID, _ = vb.Value.AsString()
		case oidSysDescr:
			sysDescr, _ = vb.Value.AsString()
		}
	}

	return DetectOS(sysObjectID, sysDescr), nil
}

// cleanupLoop prunes sessions that ended longer than the retention
// window ago.
func (e *Engine) cleanupLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.pruneSessions(time.Now().Add(-e.config.SessionRetention.Std()))
		}
	}
}

func (e *Engine) pruneSessions(cutoff time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, s := range e.sessions {
		if s.Status != SessionRunning && s.EndedAt != nil && s.EndedAt.Before(cutoff) {
			delete(e.sessions, id)
		}
	}
}
