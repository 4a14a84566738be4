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
	"regexp"
	"strings"

	"github.com/ymonitor/ymonitor/pkg/models"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// RenderTemplate substitutes {{key}} placeholders against the context.
// Keys are dotted paths; unresolved keys render as empty strings.
func RenderTemplate(template string, mc MetricContext) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(strings.Trim(match, "{}"))

		value, ok := mc.Resolve(key)
		if !ok {
			return ""
		}

		switch v := value.(type) {
		case float64:
			// Drop the trailing zeros floats pick up from fmt's %v.
			if v == float64(int64(v)) {
				return fmt.Sprintf("%d", int64(v))
			}

			return fmt.Sprintf("%.2f", v)
		default:
			return fmt.Sprintf("%v", value)
		}
	})
}

// renderTitleMessage picks the rule's "en" translation (or any record
// when absent) and renders both templates. A rule without translations
// falls back to its name.
func renderTitleMessage(rule *models.AlertRule, mc MetricContext) (title, message string) {
	translation, ok := rule.Translations["en"]
	if !ok {
		for _, t := range rule.Translations {
			translation, ok = t, true
			break
		}
	}

	if !ok {
		return rule.Name, rule.Name
	}

	return RenderTemplate(translation.Title, mc), RenderTemplate(translation.Message, mc)
}
