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
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/ymonitor/ymonitor/pkg/models"
)

// EvaluateConditions runs a rule's linear condition sequence against the
// context. Conditions after the first combine left-associatively using
// their logical operator (default AND). Each condition's result is
// published back into the context as condition_<n>.result so later
// conditions can reference it.
func EvaluateConditions(mc MetricContext, conditions []models.Condition) bool {
	if len(conditions) == 0 {
		return false
	}

	result := evaluateCondition(mc, conditions[0])
	mc.set("condition_1", map[string]interface{}{"result": result})

	for i, cond := range conditions[1:] {
		current := evaluateCondition(mc, cond)
		mc.set(fmt.Sprintf("condition_%d", i+2), map[string]interface{}{"result": current})

		if cond.Logical == models.LogicalOr {
			result = result || current
		} else {
			result = result && current
		}
	}

	return result
}

// EvaluateTransportFilter applies filter conditions over a flat value
// map with the operator set restricted to eq, ne, in and not_in; other
// operators fail. Used by the notification dispatcher. Empty conditions
// match.
func EvaluateTransportFilter(values map[string]interface{}, conditions []models.Condition) bool {
	if len(conditions) == 0 {
		return true
	}

	mc := MetricContext{}
	for key, value := range values {
		mc[key] = value
	}

	restricted := make([]models.Condition, 0, len(conditions))

	for _, cond := range conditions {
		switch cond.Op {
		case models.OpEq, models.OpNe, models.OpIn, models.OpNotIn:
			restricted = append(restricted, cond)
		default:
			return false
		}
	}

	return EvaluateConditions(mc, restricted)
}

// evaluateCondition applies one operator. An unresolved field path fails
// every operator, including the negated ones.
func evaluateCondition(mc MetricContext, cond models.Condition) bool {
	left, ok := mc.Resolve(cond.Field)
	if !ok {
		return false
	}

	switch cond.Op {
	case models.OpEq:
		return looseEqual(left, cond.Value)
	case models.OpNe:
		return !looseEqual(left, cond.Value)
	case models.OpGt, models.OpGte, models.OpLt, models.OpLte:
		return compareNumeric(left, cond.Value, cond.Op)
	case models.OpLike:
		return strings.Contains(lowerString(left), lowerString(cond.Value))
	case models.OpNotLike:
		return !strings.Contains(lowerString(left), lowerString(cond.Value))
	case models.OpIn:
		return memberOf(left, cond.Value)
	case models.OpNotIn:
		return !memberOf(left, cond.Value)
	default:
		return false
	}
}

// looseEqual compares numerically when both sides coerce to float, else
// falls back to deep equality on the raw values.
func looseEqual(a, b interface{}) bool {
	fa, aOK := toFloat(a)
	fb, bOK := toFloat(b)

	if aOK && bOK {
		return fa == fb
	}

	sa, aStr := a.(string)
	sb, bStr := b.(string)

	if aStr && bStr {
		return sa == sb
	}

	return reflect.DeepEqual(a, b)
}

func compareNumeric(a, b interface{}, op models.ConditionOp) bool {
	fa, aOK := toFloat(a)
	fb, bOK := toFloat(b)

	if !aOK || !bOK || math.IsNaN(fa) || math.IsNaN(fb) {
		return false
	}

	switch op {
	case models.OpGt:
		return fa > fb
	case models.OpGte:
		return fa >= fb
	case models.OpLt:
		return fa < fb
	case models.OpLte:
		return fa <= fb
	default:
		return false
	}
}

func memberOf(value, arr interface{}) bool {
	items := reflect.ValueOf(arr)
	if items.Kind() != reflect.Slice && items.Kind() != reflect.Array {
		return false
	}

	for i := 0; i < items.Len(); i++ {
		if looseEqual(value, items.Index(i).Interface()) {
			return true
		}
	}

	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func lowerString(v interface{}) string {
	return strings.ToLower(fmt.Sprintf("%v", v))
}

// MatchesDevice reports whether the filter selects the device. Hostname
// patterns are case-insensitive regex; IP, OS and location match exactly.
// Exclude inverts every field's match. A nil or empty filter matches all.
// Type and group fields are accepted in the schema but not carried on the
// device record, so they do not constrain the match.
func MatchesDevice(filter *models.DeviceFilter, device *models.Device) bool {
	if filter == nil {
		return true
	}

	if len(filter.Hostname) > 0 {
		if !applyExclude(matchAnyRegex(filter.Hostname, device.Hostname), filter.Exclude) {
			return false
		}
	}

	if len(filter.IP) > 0 {
		if !applyExclude(matchAnyExact(filter.IP, device.Address), filter.Exclude) {
			return false
		}
	}

	if len(filter.OS) > 0 {
		if !applyExclude(matchAnyExact(filter.OS, device.OS), filter.Exclude) {
			return false
		}
	}

	if len(filter.Location) > 0 {
		if !applyExclude(matchAnyExact(filter.Location, device.Location), filter.Exclude) {
			return false
		}
	}

	return true
}

func applyExclude(matched, exclude bool) bool {
	if exclude {
		return !matched
	}

	return matched
}

func matchAnyRegex(patterns []string, value string) bool {
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			continue
		}

		if re.MatchString(value) {
			return true
		}
	}

	return false
}

func matchAnyExact(patterns []string, value string) bool {
	for _, pattern := range patterns {
		if pattern == value {
			return true
		}
	}

	return false
}
