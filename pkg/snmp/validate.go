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

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/ymonitor/ymonitor/pkg/models"
)

const (
	maxHostnameLen   = 253
	minTimeoutMS     = 1000
	maxRetries       = 10
	maxOIDListLen    = 100
	maxBulkParameter = 100
	minSecretLen     = 8
)

var hostnameLabel = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// ValidateDevice checks hostname, port, timing and version-specific
// credential rules, accumulating every problem instead of stopping at the
// first.
func ValidateDevice(hostname string, cfg models.SNMPConfig) []error {
	var errs []error

	if !validHostname(hostname) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidHostname, hostname))
	}

	if cfg.Port < 1 {
		errs = append(errs, ErrInvalidPort)
	}

	if cfg.TimeoutMS < minTimeoutMS {
		errs = append(errs, ErrInvalidTimeout)
	}

	if cfg.Retries < 0 || cfg.Retries > maxRetries {
		errs = append(errs, ErrInvalidRetries)
	}

	switch cfg.Version {
	case models.SNMPVersion1, models.SNMPVersion2c:
		if cfg.Community == "" {
			errs = append(errs, ErrMissingCommunity)
		}
	case models.SNMPVersion3:
		errs = append(errs, validateV3(cfg)...)
	default:
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnsupportedVersion, cfg.Version))
	}

	return errs
}

func validateV3(cfg models.SNMPConfig) []error {
	var errs []error

	if cfg.Username == "" {
		errs = append(errs, ErrMissingUsername)
	}

	if cfg.AuthLevel == models.AuthLevelAuth || cfg.AuthLevel == models.AuthLevelAuthPriv {
		if cfg.AuthProtocol == "" {
			errs = append(errs, ErrMissingAuthProto)
		}

		if len(cfg.AuthSecret) < minSecretLen {
			errs = append(errs, ErrWeakAuthSecret)
		}
	}

	if cfg.AuthLevel == models.AuthLevelAuthPriv {
		if cfg.PrivProtocol == "" {
			errs = append(errs, ErrMissingPrivProto)
		}

		if len(cfg.PrivSecret) < minSecretLen {
			errs = append(errs, ErrWeakPrivSecret)
		}
	}

	return errs
}

// validHostname accepts IPv4 dotted-quad, IPv6, or an RFC-1123 hostname of
// at most 253 characters.
func validHostname(hostname string) bool {
	if hostname == "" || len(hostname) > maxHostnameLen {
		return false
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return true
	}

	labels := strings.Split(strings.TrimSuffix(hostname, "."), ".")
	for _, label := range labels {
		if !hostnameLabel.MatchString(label) {
			return false
		}
	}

	return true
}

// ValidateOID checks that the OID is a dotted sequence of non-negative
// integer arcs: first arc in {0,1,2}, second arc <=39 when the first is
// below 2, no leading zeros.
func ValidateOID(oid string) error {
	trimmed := strings.TrimPrefix(oid, ".")
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidOID)
	}

	arcs := strings.Split(trimmed, ".")

	values := make([]uint64, 0, len(arcs))

	for _, arc := range arcs {
		if arc == "" {
			return fmt.Errorf("%w: empty arc in %q", ErrInvalidOID, oid)
		}

		if len(arc) > 1 && arc[0] == '0' {
			return fmt.Errorf("%w: leading zero in %q", ErrInvalidOID, oid)
		}

		v, err := strconv.ParseUint(arc, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: non-numeric arc %q", ErrInvalidOID, arc)
		}

		values = append(values, v)
	}

	if values[0] > 2 {
		return fmt.Errorf("%w: first arc must be 0, 1 or 2", ErrInvalidOID)
	}

	if values[0] < 2 && len(values) > 1 && values[1] > 39 {
		return fmt.Errorf("%w: second arc must be <=39 under arc %d", ErrInvalidOID, values[0])
	}

	return nil
}

// ValidateOIDList checks every OID and additionally rejects duplicates and
// lists longer than 100 entries.
func ValidateOIDList(oids []string) []error {
	var errs []error

	if len(oids) == 0 {
		return []error{ErrEmptyOIDList}
	}

	if len(oids) > maxOIDListLen {
		errs = append(errs, ErrOIDListTooLong)
	}

	seen := make(map[string]bool, len(oids))

	for _, oid := range oids {
		if err := ValidateOID(oid); err != nil {
			errs = append(errs, err)
		}

		normalized := strings.TrimPrefix(oid, ".")
		if seen[normalized] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateOID, oid))
		}

		seen[normalized] = true
	}

	return errs
}

// ValidateBulkParameters caps max-repetitions and non-repeaters at 100.
func ValidateBulkParameters(maxRepetitions uint32, nonRepeaters uint8) error {
	if maxRepetitions > maxBulkParameter || uint32(nonRepeaters) > maxBulkParameter {
		return ErrBulkParamsTooLarge
	}

	return nil
}
