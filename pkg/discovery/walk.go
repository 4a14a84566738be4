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
	"strconv"
	"strings"
	"time"

	"github.com/ymonitor/ymonitor/pkg/models"
	"github.com/ymonitor/ymonitor/pkg/snmp"
)

// columnIndex strips a column base OID from a walked OID, returning the
// remaining instance suffix (".1.3...ifDescr.4" -> "4").
func columnIndex(base, oid string) (string, bool) {
	trimmed := strings.TrimPrefix(oid, ".")
	baseTrimmed := strings.TrimPrefix(base, ".")

	if !strings.HasPrefix(trimmed, baseTrimmed+".") {
		return "", false
	}

	return trimmed[len(baseTrimmed)+1:], true
}

// walkColumn walks one MIB column and returns instance suffix -> value.
func walkColumn(
	ctx context.Context, client snmp.Client, device *models.Device, base string) (map[string]snmp.Value, error) {
	resp, err := client.Walk(ctx, device, base, 0)
	if err != nil {
		return nil, err
	}

	out := make(map[string]snmp.Value, len(resp.VarBinds))

	for _, vb := range resp.VarBinds {
		if idx, ok := columnIndex(base, vb.OID); ok && vb.Value.Present() {
			out[idx] = vb.Value
		}
	}

	return out, nil
}

// walkSubtree walks a whole table and splits varbinds by column base OID.
// Returns column base -> (instance suffix -> value).
func walkSubtree(
	ctx context.Context,
	client snmp.Client,
	device *models.Device,
	table string,
	columns []string) (map[string]map[string]snmp.Value, error) {
	resp, err := client.Walk(ctx, device, table, 0)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]snmp.Value, len(columns))
	for _, col := range columns {
		out[col] = make(map[string]snmp.Value)
	}

	for _, vb := range resp.VarBinds {
		if !vb.Value.Present() {
			continue
		}

		for _, col := range columns {
			if idx, ok := columnIndex(col, vb.OID); ok {
				out[col][idx] = vb.Value
				break
			}
		}
	}

	return out, nil
}

func parseIfIndex(idx string) (int32, bool) {
	n, err := strconv.ParseInt(idx, 10, 32)
	if err != nil {
		return 0, false
	}

	return int32(n), true
}

// newResult seeds a module result; callers fill Discovered/Errors and
// finish with finishResult.
func newResult(module, deviceID string) *Result {
	return &Result{
		Module:    module,
		DeviceID:  deviceID,
		StartedAt: time.Now(),
	}
}

func finishResult(r *Result) *Result {
	r.DurationMS = time.Since(r.StartedAt).Milliseconds()
	r.Success = len(r.Errors) == 0 || len(r.Discovered) > 0

	return r
}

func resultError(r *Result, err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// interfaceIgnored applies the template chain's ignore rules; with no
// templates the built-in defaults still apply.
func interfaceIgnored(templates []*OSTemplate, name string, ifType int32) bool {
	if len(templates) == 0 {
		var none *OSTemplate

		return none.IgnoresInterface(name, ifType)
	}

	for _, tpl := range templates {
		if tpl.IgnoresInterface(name, ifType) {
			return true
		}
	}

	return false
}
