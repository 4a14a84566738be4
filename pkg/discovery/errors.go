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

import "errors"

var (
	ErrSessionNotFound     = errors.New("discovery session not found")
	ErrSessionNotRunning   = errors.New("discovery session is not running")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrDeviceUnreachable   = errors.New("device unreachable")
	ErrUnknownModule       = errors.New("unknown discovery module")
	ErrNoModulesSelected   = errors.New("no discovery modules selected")
	ErrEngineAtCapacity    = errors.New("discovery engine at capacity, please try again later")
	ErrEngineStopped       = errors.New("discovery engine is stopped")
	ErrTemplateNotFound    = errors.New("OS template not found")
	ErrAllModulesFailed    = errors.New("all selected modules failed")
	ErrNoInterfacesVisible = errors.New("walk returned no interfaces, refusing to disable existing ports")
)
