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

package snmp

import "errors"

var (
	ErrTimeout              = errors.New("timeout")
	ErrUnreachable          = errors.New("device unreachable")
	ErrConnectFailed        = errors.New("SNMP connect failed")
	ErrGetFailed            = errors.New("SNMP GET failed")
	ErrWalkFailed           = errors.New("SNMP walk failed")
	ErrSetFailed            = errors.New("SNMP SET failed")
	ErrPDUError             = errors.New("SNMP error occurred")
	ErrUnsupportedVersion   = errors.New("unsupported SNMP version")
	ErrUnsupportedAuthProto = errors.New("unsupported auth protocol")
	ErrUnsupportedPrivProto = errors.New("unsupported privacy protocol")
	ErrUnsupportedSetType   = errors.New("unsupported SET value type")

	// Validation sentinels. ValidateDevice accumulates these instead of
	// failing on the first problem.
	ErrInvalidHostname    = errors.New("invalid hostname")
	ErrInvalidPort        = errors.New("port must be in [1,65535]")
	ErrInvalidTimeout     = errors.New("timeout must be at least 1000 ms")
	ErrInvalidRetries     = errors.New("retries must be in [0,10]")
	ErrMissingCommunity   = errors.New("community is required for v1/v2c")
	ErrMissingUsername    = errors.New("username is required for v3")
	ErrMissingAuthProto   = errors.New("auth protocol is required for auth level")
	ErrWeakAuthSecret     = errors.New("auth secret must be at least 8 characters")
	ErrMissingPrivProto   = errors.New("priv protocol is required for authPriv")
	ErrWeakPrivSecret     = errors.New("priv secret must be at least 8 characters")
	ErrInvalidOID         = errors.New("invalid OID")
	ErrEmptyOIDList       = errors.New("OID list is empty")
	ErrOIDListTooLong     = errors.New("OID list exceeds 100 entries")
	ErrDuplicateOID       = errors.New("duplicate OID in list")
	ErrBulkParamsTooLarge = errors.New("bulk parameters exceed 100")

	ErrCacheMiss          = errors.New("cache miss")
	ErrCacheEntryInvalid  = errors.New("cached payload failed validation")
	ErrClientClosed       = errors.New("SNMP client is closed")
)
