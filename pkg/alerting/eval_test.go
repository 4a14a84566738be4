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

package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ymonitor/ymonitor/pkg/models"
)

func testContext() MetricContext {
	return MetricContext{
		"device": map[string]interface{}{
			"hostname": "sw1.example.net",
			"os":       "cisco-ios",
			"cpu":      95.0,
			"status":   "up",
		},
		"sensors": map[string]interface{}{
			"temperature": 72.5,
		},
	}
}

func TestResolvePath(t *testing.T) {
	mc := testContext()

	value, ok := mc.Resolve("device.cpu")
	assert.True(t, ok)
	assert.Equal(t, 95.0, value)

	value, ok = mc.Resolve("sensors.temperature")
	assert.True(t, ok)
	assert.Equal(t, 72.5, value)

	_, ok = mc.Resolve("device.missing")
	assert.False(t, ok)

	_, ok = mc.Resolve("nope.at.all")
	assert.False(t, ok)

	// A leaf in the middle of the path fails resolution.
	_, ok = mc.Resolve("device.cpu.deeper")
	assert.False(t, ok)
}

func TestConditionOperators(t *testing.T) {
	mc := testContext()

	cases := []struct {
		name string
		cond models.Condition
		want bool
	}{
		{"gt true", models.Condition{Field: "device.cpu", Op: models.OpGt, Value: 90}, true},
		{"gt false", models.Condition{Field: "device.cpu", Op: models.OpGt, Value: 95}, false},
		{"gte boundary", models.Condition{Field: "device.cpu", Op: models.OpGte, Value: 95}, true},
		{"lt false", models.Condition{Field: "device.cpu", Op: models.OpLt, Value: 90}, false},
		{"lte boundary", models.Condition{Field: "device.cpu", Op: models.OpLte, Value: 95.0}, true},
		{"eq numeric", models.Condition{Field: "device.cpu", Op: models.OpEq, Value: 95}, true},
		{"eq string", models.Condition{Field: "device.status", Op: models.OpEq, Value: "up"}, true},
		{"ne", models.Condition{Field: "device.status", Op: models.OpNe, Value: "down"}, true},
		{"like", models.Condition{Field: "device.hostname", Op: models.OpLike, Value: "SW1"}, true},
		{"not_like", models.Condition{Field: "device.hostname", Op: models.OpNotLike, Value: "core"}, true},
		{"in", models.Condition{Field: "device.os", Op: models.OpIn, Value: []interface{}{"cisco-ios", "junos"}}, true},
		{"not_in", models.Condition{Field: "device.os", Op: models.OpNotIn, Value: []interface{}{"junos"}}, true},
		{"in miss", models.Condition{Field: "device.os", Op: models.OpIn, Value: []interface{}{"junos"}}, false},
		{"numeric string coercion", models.Condition{Field: "device.cpu", Op: models.OpGt, Value: "90"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evaluateCondition(mc, tc.cond))
		})
	}
}

func TestUnresolvedPathFailsEveryOperator(t *testing.T) {
	mc := testContext()

	ops := []models.ConditionOp{
		models.OpEq, models.OpNe, models.OpGt, models.OpGte, models.OpLt,
		models.OpLte, models.OpLike, models.OpNotLike, models.OpIn, models.OpNotIn,
	}

	for _, op := range ops {
		cond := models.Condition{Field: "device.memory", Op: op, Value: 1}
		assert.False(t, evaluateCondition(mc, cond), "op %s must fail on null", op)
	}
}

func TestEvaluateConditionsLeftAssociative(t *testing.T) {
	mc := testContext()

	// true AND false OR true: left-associative gives (t ∧ f) ∨ t = true.
	conds := []models.Condition{
		{Field: "device.cpu", Op: models.OpGt, Value: 90},
		{Field: "device.cpu", Op: models.OpGt, Value: 99, Logical: models.LogicalAnd},
		{Field: "device.status", Op: models.OpEq, Value: "up", Logical: models.LogicalOr},
	}

	assert.True(t, EvaluateConditions(mc, conds))
}

func TestEvaluateConditionsDefaultAnd(t *testing.T) {
	mc := testContext()

	// Missing logical on the second condition defaults to AND.
	conds := []models.Condition{
		{Field: "device.cpu", Op: models.OpGt, Value: 90},
		{Field: "device.cpu", Op: models.OpGt, Value: 99},
	}

	assert.False(t, EvaluateConditions(mc, conds))
}

func TestEvaluateConditionsEmpty(t *testing.T) {
	assert.False(t, EvaluateConditions(testContext(), nil))
}

func TestConditionResultReference(t *testing.T) {
	mc := testContext()

	conds := []models.Condition{
		{Field: "device.cpu", Op: models.OpGt, Value: 90},
		{Field: "condition_1.result", Op: models.OpEq, Value: true, Logical: models.LogicalAnd},
	}

	assert.True(t, EvaluateConditions(mc, conds))
}

func TestMatchesDeviceHostnameRegex(t *testing.T) {
	device := &models.Device{Hostname: "SW1.example.net", Address: "192.0.2.1", OS: "cisco-ios"}

	assert.True(t, MatchesDevice(&models.DeviceFilter{Hostname: []string{"^sw\\d"}}, device))
	assert.False(t, MatchesDevice(&models.DeviceFilter{Hostname: []string{"^core"}}, device))
}

func TestMatchesDeviceExactFields(t *testing.T) {
	device := &models.Device{Hostname: "sw1", Address: "192.0.2.1", OS: "cisco-ios", Location: "dc1"}

	assert.True(t, MatchesDevice(&models.DeviceFilter{IP: []string{"192.0.2.1"}}, device))
	assert.False(t, MatchesDevice(&models.DeviceFilter{IP: []string{"192.0.2."}}, device))
	assert.True(t, MatchesDevice(&models.DeviceFilter{OS: []string{"cisco-ios", "junos"}}, device))
	assert.True(t, MatchesDevice(&models.DeviceFilter{Location: []string{"dc1"}}, device))
}

func TestMatchesDeviceExclude(t *testing.T) {
	device := &models.Device{Hostname: "sw1", OS: "cisco-ios"}

	assert.False(t, MatchesDevice(&models.DeviceFilter{OS: []string{"cisco-ios"}, Exclude: true}, device))
	assert.True(t, MatchesDevice(&models.DeviceFilter{OS: []string{"junos"}, Exclude: true}, device))
}

func TestMatchesDeviceEmptyFilter(t *testing.T) {
	device := &models.Device{Hostname: "sw1"}

	assert.True(t, MatchesDevice(nil, device))
	assert.True(t, MatchesDevice(&models.DeviceFilter{}, device))
}

func TestRenderTemplate(t *testing.T) {
	mc := testContext()

	out := RenderTemplate("CPU on {{device.hostname}} is {{device.cpu}}%", mc)
	assert.Equal(t, "CPU on sw1.example.net is 95%", out)

	out = RenderTemplate("temp {{sensors.temperature}}", mc)
	assert.Equal(t, "temp 72.50", out)

	// Missing keys render empty.
	out = RenderTemplate("val={{device.memory}}!", mc)
	assert.Equal(t, "val=!", out)
}
